// Package mcp exposes the rubric evaluation tools over the Model Context Protocol.
package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"RubricMCP/internal"
	"RubricMCP/internal/rubric"

	"github.com/google/uuid"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
)

const ServerName = "near-rubric-mcp"

const (
	ToolEvaluationFramework = "get_evaluation_framework"
	ToolAnalyzeCodeContext  = "analyze_code_context"
	ToolFileSuggestions     = "get_file_suggestions"
	ToolPatternMatches      = "analyze_pattern_matches"
)

// Server implements an MCP server exposing the rubric tools.
type Server struct {
	sdk  *mcpsdk.Server
	orch *Orchestrator
	info mcpsdk.Implementation
}

// NewServer creates the server and registers its tools.
func NewServer(catalog *rubric.Catalog, scanner *internal.Scanner, version string) *Server {
	s := &Server{
		orch: NewOrchestrator(catalog, scanner),
		info: mcpsdk.Implementation{Name: ServerName, Version: version},
	}
	s.sdk = mcpsdk.NewServer(&s.info, nil)
	s.registerTools()
	return s
}

func (s *Server) SDK() *mcpsdk.Server { return s.sdk }

func (s *Server) ServerInfo() mcpsdk.Implementation { return s.info }

// Run serves on stdin/stdout until the client disconnects or ctx is done.
func (s *Server) Run(ctx context.Context) error {
	return s.sdk.Run(ctx, &mcpsdk.StdioTransport{})
}

type frameworkArgs struct {
	Category    string `json:"category" jsonschema:"rubric category, e.g. near_integration"`
	ProjectType string `json:"project_type,omitempty" jsonschema:"project type: rust, javascript, js, typescript, ts or mixed"`
}

type codeContextArgs struct {
	Category    string         `json:"category" jsonschema:"rubric category, e.g. near_integration"`
	CodeContext any            `json:"code_context,omitempty" jsonschema:"client-provided code snippets, an object of file path to content"`
	Metadata    map[string]any `json:"metadata,omitempty" jsonschema:"optional metadata about the code"`
}

type fileSuggestionArgs struct {
	Category       string `json:"category" jsonschema:"rubric category, e.g. near_integration"`
	AvailableFiles any    `json:"available_files,omitempty" jsonschema:"list of file paths in the repository"`
}

type patternMatchArgs struct {
	Category    string `json:"category" jsonschema:"rubric category, e.g. near_integration"`
	CodeContent any    `json:"code_content,omitempty" jsonschema:"client-provided code content, an object of file path to content"`
	ProjectType string `json:"project_type,omitempty" jsonschema:"project type: rust, javascript, js, typescript, ts or mixed"`
}

func (s *Server) registerTools() {
	categories := strings.Join(s.orch.Catalog().Keys(), ", ")

	mcpsdk.AddTool(s.sdk, &mcpsdk.Tool{
		Name:        ToolEvaluationFramework,
		Description: "Get the evaluation framework (prompt, scoring guide, file patterns, indicator patterns) for a rubric category. Categories: " + categories,
	}, toolHandler(ToolEvaluationFramework, func(ctx context.Context, in frameworkArgs) (any, error) {
		return s.orch.Framework(in.Category, in.ProjectType)
	}))

	mcpsdk.AddTool(s.sdk, &mcpsdk.Tool{
		Name:        ToolAnalyzeCodeContext,
		Description: "Get the evaluation framework plus analysis guidance for client-provided code. Categories: " + categories,
	}, toolHandler(ToolAnalyzeCodeContext, func(ctx context.Context, in codeContextArgs) (any, error) {
		return s.orch.AnalyzeCodeContext(ctx, in.Category, in.CodeContext, in.Metadata)
	}))

	mcpsdk.AddTool(s.sdk, &mcpsdk.Tool{
		Name:        ToolFileSuggestions,
		Description: "Suggest which of the available files to analyze for a rubric category. Categories: " + categories,
	}, toolHandler(ToolFileSuggestions, func(ctx context.Context, in fileSuggestionArgs) (any, error) {
		return s.orch.FileSuggestions(in.Category, internal.StringList(in.AvailableFiles, "available_files"))
	}))

	mcpsdk.AddTool(s.sdk, &mcpsdk.Tool{
		Name:        ToolPatternMatches,
		Description: "Analyze client-provided code content for the indicator patterns of a rubric category. Categories: " + categories,
	}, toolHandler(ToolPatternMatches, func(ctx context.Context, in patternMatchArgs) (any, error) {
		return s.orch.PatternMatches(ctx, in.Category, internal.ContentMap(in.CodeContent, "code_content"), in.ProjectType)
	}))
}

// toolHandler adapts fn to the SDK: every call gets a correlation id in the log, failures
// become isError results carrying an ErrorResponse, and panics become INTERNAL_ERROR.
func toolHandler[In any](name string, fn func(context.Context, In) (any, error)) mcpsdk.ToolHandlerFor[In, any] {
	return func(ctx context.Context, _ *mcpsdk.CallToolRequest, in In) (res *mcpsdk.CallToolResult, out any, err error) {
		log := logrus.WithFields(logrus.Fields{"tool": name, "call_id": uuid.NewString()})
		log.Info("Tool call")
		start := time.Now()

		defer func() {
			if r := recover(); r != nil {
				log.WithField("panic", r).Error("Tool call panicked")
				res, out, err = errorResult(InternalError(fmt.Errorf("%v", r))), nil, nil
			}
		}()

		value, callErr := fn(ctx, in)
		if callErr != nil {
			resp := asErrorResponse(callErr)
			log.WithField("error_code", resp.Code).Warn(resp.Message)
			return errorResult(resp), nil, nil
		}
		log.WithField("elapsed", time.Since(start)).Info("Tool call completed")
		return nil, value, nil
	}
}
