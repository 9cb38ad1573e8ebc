package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"RubricMCP/internal"
	"RubricMCP/internal/mcp"
	"RubricMCP/internal/rubric"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var version = "0.1.0"

func main() {
	app := &cli.App{
		Name:    "rubric-mcp",
		Usage:   "NEAR grant rubric evaluation server and local scanner",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Usage:   "Directory with rubric.yaml, patterns.yaml and prompts/ (built-in defaults when empty)",
				EnvVars: []string{"RUBRIC_CONFIG_DIR"},
			},
			&cli.StringFlag{
				Name:    "logfile",
				Usage:   "Also write logs into this file",
				EnvVars: []string{"LOGFILE"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level: debug, info, warn, error",
				Value:   "info",
				EnvVars: []string{"RUBRIC_LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			internal.InitLogger(c.String("logfile"), c.String("log-level"))
			return nil
		},
		Commands: []*cli.Command{
			serveCommand(),
			categoriesCommand(),
			validateCommand(),
			suggestCommand(),
			scanCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the MCP server on stdin/stdout",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "threads",
				Usage: "Pattern scan workers (default scales with CPU)",
			},
			&cli.DurationFlag{
				Name:  "scan-timeout",
				Usage: "Deadline of one pattern scan; partial results are returned after it (0 - none)",
				Value: defaultScanTimeout,
			},
		},
		Action: func(c *cli.Context) error {
			catalog, err := loadCatalog(c)
			if err != nil {
				return err
			}
			scanner, err := internal.NewScanner(c.Int("threads"), c.Duration("scan-timeout"))
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			defer scanner.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			server := mcp.NewServer(catalog, scanner, version)
			logrus.WithField("categories", len(catalog.Keys())).Infof("%s %s serving on stdio", mcp.ServerName, version)
			err = server.Run(ctx)
			switch {
			case err == nil, errors.Is(err, context.Canceled), errors.Is(err, io.EOF):
				logrus.Info("Server stopped")
				return nil
			default:
				return fmt.Errorf("serve: %w", err)
			}
		},
	}
}

func categoriesCommand() *cli.Command {
	return &cli.Command{
		Name:  "categories",
		Usage: "List the rubric categories",
		Action: func(c *cli.Context) error {
			catalog, err := loadCatalog(c)
			if err != nil {
				return err
			}
			key := color.New(color.FgCyan, color.Bold)
			for _, k := range catalog.Keys() {
				_, cat, _ := catalog.Lookup(k)
				key.Fprintf(os.Stdout, "%-22s", k)
				fmt.Fprintf(os.Stdout, " %3d  %s\n", cat.MaxPoints, cat.Name)
			}
			return nil
		},
	}
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Cross-check categories, indicator patterns and prompt templates",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "Exit with status 1 when the report has warnings",
			},
		},
		Action: func(c *cli.Context) error {
			catalog, err := loadCatalog(c)
			if err != nil {
				return err
			}
			report := rubric.Validate(catalog)
			printReport(report)
			if c.Bool("strict") && !report.OK() {
				return cli.Exit("configuration has warnings", 1)
			}
			return nil
		},
	}
}

func printReport(r rubric.Report) {
	fmt.Printf("Categories:        %v\n", r.Categories)
	fmt.Printf("Pattern sets:      %v\n", r.PatternCategories)
	fmt.Printf("Prompt templates:  %v\n", r.PromptTemplates)
	for _, k := range r.MissingPatterns {
		color.Yellow("missing indicator patterns: %s", k)
	}
	for _, k := range r.MissingPrompts {
		color.Yellow("missing prompt template: %s", k)
	}
	for _, is := range r.Issues {
		color.Yellow("%s: %q: %s", is.Category, is.Item, is.Problem)
	}
	if r.OK() {
		color.Green("Status: %s", r.Status)
		return
	}
	color.Red("Status: %s", r.Status)
}

func loadCatalog(c *cli.Context) (*rubric.Catalog, error) {
	catalog, err := rubric.Load(c.String("config-dir"))
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("load rubric: %v", err), 1)
	}
	return catalog, nil
}
