package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"RubricMCP/internal"
	"RubricMCP/internal/rubric"

	"github.com/sirupsen/logrus"
)

const statusSuccess = "success"

var contextualPrompts = []string{
	"Analyze how this code integrates with NEAR Protocol",
	"Identify the specific NEAR features being used",
	"Assess the sophistication of the implementation",
}

// Framework is everything a client needs to evaluate one category.
type Framework struct {
	Category           string            `json:"category"`
	CategoryKey        string            `json:"category_key"`
	Name               string            `json:"name"`
	MaxPoints          int               `json:"max_points"`
	EvaluationPrompt   string            `json:"evaluation_prompt"`
	ScoringGuide       map[string]string `json:"scoring_guide"`
	SuggestedFiles     []string          `json:"suggested_files"`
	QuickCheckPatterns []string          `json:"quick_check_patterns"`
	KeyIndicators      []string          `json:"key_indicators"`
}

type AnalysisGuidance struct {
	KeyIndicators     []string `json:"key_indicators"`
	ContextualPrompts []string `json:"contextual_prompts"`
}

type CodeContextAnalysis struct {
	Framework
	AnalysisGuidance AnalysisGuidance                  `json:"analysis_guidance"`
	IndicatorMatches map[string][]internal.MatchResult `json:"indicator_matches,omitempty"`
	Metadata         map[string]any                    `json:"metadata,omitempty"`
}

type FileSuggestions struct {
	Category       string              `json:"category"`
	SuggestedFiles []string            `json:"suggested_files"`
	Patterns       []string            `json:"patterns"`
	PatternMatches map[string][]string `json:"pattern_matches"`
	Explanation    string              `json:"explanation"`
}

type PatternMatchAnalysis struct {
	Category        string                            `json:"category"`
	MatchesByFile   map[string][]internal.MatchResult `json:"matches_by_file"`
	MatchedPatterns []string                          `json:"matched_patterns"`
	TotalMatches    int                               `json:"total_matches"`
	Explanation     string                            `json:"explanation"`
	Status          string                            `json:"status"`
}

// Orchestrator answers the evaluation questions from a rubric catalog. It never touches the
// file system: file listings and contents always come from the caller.
type Orchestrator struct {
	catalog *rubric.Catalog
	scanner *internal.Scanner
}

func NewOrchestrator(catalog *rubric.Catalog, scanner *internal.Scanner) *Orchestrator {
	return &Orchestrator{catalog: catalog, scanner: scanner}
}

func (o *Orchestrator) Catalog() *rubric.Catalog { return o.catalog }

func (o *Orchestrator) lookup(category string) (string, rubric.Category, error) {
	if strings.TrimSpace(category) == "" {
		return "", rubric.Category{}, InvalidInput("Missing required argument: category", "category")
	}
	key, cat, err := o.catalog.Lookup(category)
	switch {
	case errors.Is(err, rubric.ErrCategoryNotFound):
		return "", rubric.Category{}, CategoryNotFound(category, o.catalog.Keys())
	case errors.Is(err, rubric.ErrInvalidCategory):
		return "", rubric.Category{}, NewErrorResponse(CodeInvalidCategory,
			fmt.Sprintf("Category '%s' is not a valid category name.", category),
			"Use a category key such as "+strings.Join(o.catalog.Keys(), ", "),
			map[string]any{"requested_category": category})
	case err != nil:
		return "", rubric.Category{}, err
	}
	return key, cat, nil
}

// Framework returns the evaluation framework of category for projectType.
func (o *Orchestrator) Framework(category, projectType string) (*Framework, error) {
	key, cat, err := o.lookup(category)
	if err != nil {
		return nil, err
	}
	patterns := o.catalog.Patterns(key, projectType)
	if patterns == nil {
		patterns = []string{}
	}
	return &Framework{
		Category:           category,
		CategoryKey:        key,
		Name:               cat.Name,
		MaxPoints:          cat.MaxPoints,
		EvaluationPrompt:   o.catalog.Prompt(key, projectType),
		ScoringGuide:       rubric.ScoringGuide(cat),
		SuggestedFiles:     nonNil(cat.FilePatterns),
		QuickCheckPatterns: patterns,
		KeyIndicators:      nonNil(cat.KeyIndicators),
	}, nil
}

// AnalyzeCodeContext returns the framework plus analysis guidance. When codeContext is an
// object of path to content, the snippets are also scanned for the category's indicators.
func (o *Orchestrator) AnalyzeCodeContext(ctx context.Context, category string, codeContext any, metadata map[string]any) (*CodeContextAnalysis, error) {
	fw, err := o.Framework(category, "")
	if err != nil {
		return nil, err
	}
	res := &CodeContextAnalysis{
		Framework: *fw,
		AnalysisGuidance: AnalysisGuidance{
			KeyIndicators:     fw.QuickCheckPatterns,
			ContextualPrompts: contextualPrompts,
		},
		Metadata: metadata,
	}
	if _, isObject := codeContext.(map[string]any); isObject {
		contents := internal.ContentMap(codeContext, "code_context")
		res.IndicatorMatches = o.scanner.FindPatternMatchesInFiles(ctx, contents, fw.QuickCheckPatterns)
	}
	return res, nil
}

// FileSuggestions selects, among files, the ones worth sending for category.
func (o *Orchestrator) FileSuggestions(category string, files []string) (*FileSuggestions, error) {
	_, cat, err := o.lookup(category)
	if err != nil {
		return nil, err
	}
	patterns := nonNil(cat.FilePatterns)
	suggested, byPattern := internal.SuggestFiles(patterns, files)
	logrus.Infof("Suggested %d of %d files for %s", len(suggested), len(files), category)
	return &FileSuggestions{
		Category:       category,
		SuggestedFiles: suggested,
		Patterns:       patterns,
		PatternMatches: byPattern,
		Explanation:    "These files are likely to contain relevant code for this evaluation category.",
	}, nil
}

// PatternMatches scans contents for the indicators of category. extra patterns are appended
// to the configured ones.
func (o *Orchestrator) PatternMatches(ctx context.Context, category string, contents map[string]string, projectType string, extra ...string) (*PatternMatchAnalysis, error) {
	key, _, err := o.lookup(category)
	if err != nil {
		return nil, err
	}
	patterns := append(o.catalog.Patterns(key, projectType), extra...)
	byFile := o.scanner.FindPatternMatchesInFiles(ctx, contents, patterns)
	matched, total := internal.SummarizeMatches(patterns, byFile)
	return &PatternMatchAnalysis{
		Category:        category,
		MatchesByFile:   byFile,
		MatchedPatterns: nonNil(matched),
		TotalMatches:    total,
		Explanation:     fmt.Sprintf("Found pattern matches for %s evaluation.", category),
		Status:          statusSuccess,
	}, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
