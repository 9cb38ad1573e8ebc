package rubric

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrInvalidCategory  = errors.New("invalid category")
)

// Languages a PatternSet may carry.
const (
	LangRust       = "rust"
	LangJavaScript = "javascript"
	LangCommon     = "common"
	LangMixed      = "mixed"
)

// Catalog is the loaded rubric. It is read-only after construction and safe to share.
type Catalog struct {
	categories map[string]Category
	keys       []string
	patterns   map[string]PatternSet
	templates  map[string]string
	guidance   map[string]map[string]string // template key -> language -> text
}

// NewCatalog builds a catalog. prompts is keyed by template name; "<key>.<language>"
// entries are project-type guidance for the template <key>.
func NewCatalog(categories map[string]Category, patterns map[string]PatternSet, prompts map[string]string) *Catalog {
	c := &Catalog{
		categories: categories,
		keys:       lo.Keys(categories),
		patterns:   patterns,
		templates:  make(map[string]string),
		guidance:   make(map[string]map[string]string),
	}
	if c.categories == nil {
		c.categories = map[string]Category{}
	}
	if c.patterns == nil {
		c.patterns = map[string]PatternSet{}
	}
	sort.Strings(c.keys)
	for name, text := range prompts {
		key, lang, isGuidance := strings.Cut(name, ".")
		if !isGuidance {
			c.templates[name] = strings.TrimSpace(text)
			continue
		}
		if c.guidance[key] == nil {
			c.guidance[key] = make(map[string]string)
		}
		c.guidance[key][lang] = strings.TrimSpace(text)
	}
	return c
}

// NormalizeCategory lower-cases name, turns spaces into underscores and drops a leading
// ordinal such as "1. ".
func NormalizeCategory(name string) string {
	norm := strings.ToLower(strings.TrimSpace(name))
	norm = strings.ReplaceAll(norm, " ", "_")
	if len(norm) >= 2 && norm[0] >= '1' && norm[0] <= '7' && norm[1] == '.' {
		norm = strings.TrimLeft(norm[2:], "_")
	}
	return norm
}

// Keys returns the category keys, sorted.
func (c *Catalog) Keys() []string {
	return append([]string(nil), c.keys...)
}

// Lookup resolves a user-supplied category name: exact key first, then the first key
// (in sorted order) ending with the normalised name.
func (c *Catalog) Lookup(name string) (string, Category, error) {
	norm := NormalizeCategory(name)
	if norm == "" {
		return "", Category{}, fmt.Errorf("%w: %q", ErrInvalidCategory, name)
	}
	if cat, ok := c.categories[norm]; ok {
		return norm, cat, nil
	}
	for _, key := range c.keys {
		if strings.HasSuffix(key, norm) {
			logrus.Debugf("Category %q resolved by suffix to %s", name, key)
			return key, c.categories[key], nil
		}
	}
	return "", Category{}, fmt.Errorf("%w: %s", ErrCategoryNotFound, name)
}

func (c *Catalog) patternKey(category string) string {
	norm := NormalizeCategory(category)
	if norm == "" {
		return ""
	}
	if _, ok := c.patterns[norm]; ok {
		return norm
	}
	for _, key := range sortedKeys(c.patterns) {
		if strings.HasSuffix(key, norm) {
			return key
		}
	}
	return ""
}

// NormalizeProjectType maps js/typescript/ts to "javascript" and lower-cases the rest.
func NormalizeProjectType(projectType string) string {
	pt := strings.ToLower(strings.TrimSpace(projectType))
	switch pt {
	case "js", "typescript", "ts":
		return LangJavaScript
	}
	return pt
}

// Patterns returns the indicator regexes of category for projectType: the common ones first,
// then the language ones. An empty projectType selects every language; "mixed" selects rust
// and javascript. Duplicates are removed, first occurrence kept.
func (c *Catalog) Patterns(category, projectType string) []string {
	key := c.patternKey(category)
	if key == "" {
		logrus.Warnf("No indicator patterns for category %s", category)
		return nil
	}
	set := c.patterns[key]
	selected := append([]string(nil), set[LangCommon]...)

	switch pt := NormalizeProjectType(projectType); pt {
	case "":
		for _, lang := range sortedKeys(set) {
			if lang != LangCommon {
				selected = append(selected, set[lang]...)
			}
		}
	case LangMixed:
		selected = append(selected, set[LangRust]...)
		selected = append(selected, set[LangJavaScript]...)
	default:
		selected = append(selected, set[pt]...)
	}
	selected = lo.Uniq(selected)
	logrus.Debugf("Selected %d patterns for %s (project type %q)", len(selected), key, projectType)
	return selected
}

// ScoringGuide renders tiers as "low-high" -> criteria.
func ScoringGuide(cat Category) map[string]string {
	guide := make(map[string]string, len(cat.ScoringTiers))
	for _, tier := range cat.ScoringTiers {
		if len(tier.Range) != 2 {
			continue
		}
		guide[fmt.Sprintf("%d-%d", tier.Range[0], tier.Range[1])] = tier.Criteria
	}
	return guide
}

func sortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}
