package rubric

import (
	"fmt"
	"regexp"

	"RubricMCP/internal"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	StatusSuccess  = "success"
	StatusWarnings = "warnings"
)

type Issue struct {
	Category string `json:"category"`
	Item     string `json:"item"`
	Problem  string `json:"problem"`
}

// Report is the result of cross-checking categories, pattern sets and prompt templates.
type Report struct {
	Categories        []string `json:"categories"`
	PatternCategories []string `json:"pattern_categories"`
	PromptTemplates   []string `json:"prompt_templates"`
	MissingPatterns   []string `json:"missing_patterns"`
	MissingPrompts    []string `json:"missing_prompts"`
	Issues            []Issue  `json:"issues"`
	Status            string   `json:"status"`
}

func (r *Report) OK() bool { return r.Status == StatusSuccess }

// Validate checks that every category has indicator patterns and a prompt template, that file
// patterns are valid globs, that indicator patterns compile and that scoring tiers fit the
// category's points.
func Validate(c *Catalog) Report {
	r := Report{
		Categories:        c.Keys(),
		PatternCategories: sortedKeys(c.patterns),
		PromptTemplates:   sortedKeys(c.templates),
		MissingPatterns:   []string{},
		MissingPrompts:    []string{},
		Issues:            []Issue{},
	}

	for _, key := range c.keys {
		cat := c.categories[key]
		if c.patternKey(key) == "" {
			r.MissingPatterns = append(r.MissingPatterns, key)
		}
		if c.templateKey(key) == "" {
			r.MissingPrompts = append(r.MissingPrompts, key)
		}
		for _, p := range cat.FilePatterns {
			r.Issues = append(r.Issues, checkGlob(key, p)...)
		}
		r.Issues = append(r.Issues, checkTiers(key, cat)...)
	}

	for _, key := range r.PatternCategories {
		set := c.patterns[key]
		for _, lang := range sortedKeys(set) {
			for _, p := range set[lang] {
				if _, err := regexp.Compile(p); err != nil {
					r.Issues = append(r.Issues, Issue{Category: key, Item: p, Problem: fmt.Sprintf("invalid %s regex: %v", lang, err)})
				}
			}
		}
	}

	r.Status = StatusSuccess
	if len(r.MissingPatterns)+len(r.MissingPrompts)+len(r.Issues) > 0 {
		r.Status = StatusWarnings
	}
	return r
}

func checkGlob(category, pattern string) []Issue {
	var issues []Issue
	if pattern == "" {
		return []Issue{{Category: category, Item: pattern, Problem: "empty file pattern matches nothing"}}
	}
	if !doublestar.ValidatePattern(pattern) {
		issues = append(issues, Issue{Category: category, Item: pattern, Problem: "invalid glob syntax"})
	}
	for _, alt := range internal.ExpandBraces(pattern) {
		if _, err := internal.CompileGlob(alt); err != nil {
			issues = append(issues, Issue{Category: category, Item: alt, Problem: err.Error()})
		}
	}
	return issues
}

func checkTiers(category string, cat Category) []Issue {
	var issues []Issue
	if cat.MaxPoints <= 0 {
		issues = append(issues, Issue{Category: category, Item: "max_points", Problem: "must be positive"})
	}
	if len(cat.ScoringTiers) == 0 {
		issues = append(issues, Issue{Category: category, Item: "scoring_tiers", Problem: "no tiers defined"})
	}
	for _, name := range sortedKeys(cat.ScoringTiers) {
		rng := cat.ScoringTiers[name].Range
		switch {
		case len(rng) != 2:
			issues = append(issues, Issue{Category: category, Item: name, Problem: "range must have two bounds"})
		case rng[0] < 0 || rng[0] > rng[1] || rng[1] > cat.MaxPoints:
			issues = append(issues, Issue{Category: category, Item: name,
				Problem: fmt.Sprintf("range %d-%d outside 0-%d", rng[0], rng[1], cat.MaxPoints)})
		}
	}
	return issues
}
