package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"RubricMCP/internal"
	"RubricMCP/internal/mcp"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

const defaultScanTimeout = 30 * time.Second

func sourceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "category",
			Usage:    "Rubric category, e.g. near_integration",
			Required: true,
		},
		&cli.IntFlag{
			Name:  "depth",
			Usage: "Max directory depth (0 - unlimited)",
		},
		&cli.BoolFlag{
			Name:  "archives",
			Usage: "Accept an archive (.zip,.tar.gz,.7z,...) as the source",
		},
		&cli.StringSliceFlag{
			Name:  "whitelist",
			Usage: "Only list these extensions (comma separated, e.g. rs,ts). Use without dot.",
		},
		&cli.StringSliceFlag{
			Name:  "blacklist",
			Usage: "Skip these extensions (comma separated). If whitelist is set, blacklist is ignored.",
		},
	}
}

func suggestCommand() *cli.Command {
	return &cli.Command{
		Name:      "suggest",
		Usage:     "List a project directory or archive and print the files worth analyzing for a category",
		ArgsUsage: "<source>",
		Flags:     sourceFlags(),
		Action: func(c *cli.Context) error {
			opts, err := sourceOptions(c)
			if err != nil {
				return err
			}
			catalog, err := loadCatalog(c)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var stats internal.AppStats
			stats.Start()
			src, files, err := listSource(ctx, opts, &stats)
			if err != nil {
				return err
			}
			defer src.Close()

			res, err := mcp.NewOrchestrator(catalog, nil).FileSuggestions(c.String("category"), files)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			if len(res.SuggestedFiles) == 0 {
				logrus.Warnf("%v for %s", internal.ErrNoFiles, c.String("category"))
			}
			if err := printJSON(res); err != nil {
				return err
			}
			printStats(&stats)
			return nil
		},
	}
}

func scanCommand() *cli.Command {
	flags := append(sourceFlags(),
		&cli.StringFlag{
			Name:  "project-type",
			Usage: "rust, javascript, js, typescript, ts or mixed (all languages when empty)",
		},
		&cli.StringFlag{
			Name:  "pattern-file",
			Usage: "Extra indicators, one per line: regex, 're:<regex>', 'plain:<text>' or 'plain:i:<text>'",
		},
		&cli.IntFlag{
			Name:  "threads",
			Usage: "Max concurrent readers and scan workers (default scales with CPU)",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Deadline of the pattern scan; partial results are printed after it (0 - none)",
			Value: defaultScanTimeout,
		},
		&cli.Int64Flag{
			Name:  "max-file-size",
			Usage: "Skip files larger than this many bytes (default 1MiB)",
		},
		&cli.StringFlag{
			Name:  "save-matches-file",
			Usage: "Append all matched lines into a single file",
		},
		&cli.StringFlag{
			Name:  "save-matches-folder",
			Usage: "Create per-pattern files with matched lines inside this folder",
		},
		&cli.StringFlag{
			Name:  "path-regex",
			Usage: "Only record matches from files whose path matches this regex",
		},
	)

	return &cli.Command{
		Name:      "scan",
		Usage:     "Scan the suggested files of a project directory or archive for a category's indicators",
		ArgsUsage: "<source>",
		Flags:     flags,
		Action: func(c *cli.Context) error {
			opts, err := sourceOptions(c)
			if err != nil {
				return err
			}
			catalog, err := loadCatalog(c)
			if err != nil {
				return err
			}
			var extra []string
			if pf := c.String("pattern-file"); pf != "" {
				if extra, err = internal.LoadPatterns(pf); err != nil {
					return cli.Exit(err.Error(), 1)
				}
			}
			scanner, err := internal.NewScanner(c.Int("threads"), c.Duration("timeout"))
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			defer scanner.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var stats internal.AppStats
			stats.Start()
			src, files, err := listSource(ctx, opts, &stats)
			if err != nil {
				return err
			}
			defer src.Close()

			category := c.String("category")
			orch := mcp.NewOrchestrator(catalog, scanner)
			suggested, err := orch.FileSuggestions(category, files)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			if len(suggested.SuggestedFiles) == 0 {
				logrus.Warnf("%v for %s", internal.ErrNoFiles, category)
			}

			contents, err := internal.ReadContents(ctx, src, suggested.SuggestedFiles, opts, &stats)
			if err != nil {
				logrus.WithError(err).Warn("Reading stopped early")
			}

			res, err := orch.PatternMatches(ctx, category, contents, c.String("project-type"), extra...)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			record(res.MatchesByFile, internal.NewMatchSink(internal.SinkOptions{
				SaveMatchesFile:            c.String("save-matches-file"),
				SaveMatchesByPatternFolder: c.String("save-matches-folder"),
				PathRegex:                  c.String("path-regex"),
			}, &stats))

			if err := printJSON(res); err != nil {
				return err
			}
			printStats(&stats)
			return nil
		},
	}
}

func sourceOptions(c *cli.Context) (internal.SourceOptions, error) {
	opts := internal.SourceOptions{
		Root:      c.Args().First(),
		Depth:     c.Int("depth"),
		Archives:  c.Bool("archives"),
		Threads:   c.Int("threads"),
		Whitelist: internal.NormalizeExtensions(c.StringSlice("whitelist")),
		Blacklist: internal.NormalizeExtensions(c.StringSlice("blacklist")),
	}
	if c.IsSet("max-file-size") {
		opts.MaxFileSize = c.Int64("max-file-size")
	}
	if err := opts.Validate(); err != nil {
		return opts, cli.Exit(err.Error(), 1)
	}
	opts.Prepare()
	return opts, nil
}

func listSource(ctx context.Context, opts internal.SourceOptions, stats *internal.AppStats) (*internal.Source, []string, error) {
	src, err := internal.OpenSource(ctx, opts)
	if errors.Is(err, internal.ErrArchiveInput) {
		return nil, nil, cli.Exit(err.Error(), 2)
	}
	if err != nil {
		return nil, nil, cli.Exit(err.Error(), 1)
	}
	files, err := internal.ListFiles(ctx, src, opts, stats)
	if err != nil {
		src.Close()
		return nil, nil, cli.Exit(err.Error(), 1)
	}
	logrus.WithFields(logrus.Fields{"root": opts.Root, "files": len(files)}).Info("Source listed")
	return src, files, nil
}

// record feeds the matches to sink file by file, in path order.
func record(byFile map[string][]internal.MatchResult, sink func(string, internal.MatchResult)) {
	files := make([]string, 0, len(byFile))
	for f := range byFile {
		files = append(files, f)
	}
	sort.Strings(files)
	for _, f := range files {
		for _, r := range byFile[f] {
			sink(f, r)
		}
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}

func printStats(stats *internal.AppStats) {
	title := color.New(color.FgGreen, color.Bold)
	title.Fprintf(os.Stderr, "\n======= Finished in %s =======\n", stats.Elapsed().Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "Files listed:  %d\nFiles read:    %d\nFiles skipped: %d\nFiles matched: %d\nMatches found: %d\n",
		stats.FilesListed.Load(), stats.FilesRead.Load(), stats.FilesSkipped.Load(),
		stats.FilesMatched.Load(), stats.Matches.Load())
	if n := stats.Errors.Load(); n > 0 {
		color.New(color.FgRed).Fprintf(os.Stderr, "Errors:        %d\n", n)
	}
}
