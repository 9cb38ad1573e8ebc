package rubric

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadDefaults(t *testing.T) *Catalog {
	t.Helper()
	c, err := Load("")
	require.NoError(t, err)
	return c
}

func TestLoad_Defaults(t *testing.T) {
	c := loadDefaults(t)

	assert.Equal(t, []string{
		"code_quality", "ecosystem_fit", "near_integration", "offchain_quality",
		"onchain_quality", "team_activity", "technical_innovation",
	}, c.Keys())

	key, cat, err := c.Lookup("near_integration")
	require.NoError(t, err)
	assert.Equal(t, "near_integration", key)
	assert.Equal(t, "NEAR Protocol Integration", cat.Name)
	assert.Equal(t, 20, cat.MaxPoints)
	assert.Contains(t, cat.FilePatterns, "**/*near*.{js,ts}")
	assert.Len(t, cat.ScoringTiers, 3)
}

func TestNormalizeCategory(t *testing.T) {
	cases := map[string]string{
		"near_integration":      "near_integration",
		"NEAR Integration":      "near_integration",
		"1. near integration":   "near_integration",
		"3.offchain_quality":    "offchain_quality",
		"  Code Quality ":       "code_quality",
		"8. something":          "8._something",
		"":                      "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeCategory(in), in)
	}
}

func TestLookup(t *testing.T) {
	c := loadDefaults(t)

	key, _, err := c.Lookup("1. NEAR Integration")
	require.NoError(t, err)
	assert.Equal(t, "near_integration", key)

	key, _, err = c.Lookup("quality")
	require.NoError(t, err)
	assert.Equal(t, "code_quality", key, "first sorted key with the suffix wins")

	_, _, err = c.Lookup("unknown_category")
	assert.ErrorIs(t, err, ErrCategoryNotFound)

	_, _, err = c.Lookup("   ")
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestPatterns_ProjectTypes(t *testing.T) {
	c := NewCatalog(
		map[string]Category{"near_integration": {Name: "N", MaxPoints: 20}},
		map[string]PatternSet{"near_integration": {
			"common":     {"near", "contract"},
			"rust":       {"near_sdk", "near"},
			"javascript": {"near-api-js"},
		}},
		nil,
	)

	assert.Equal(t, []string{"near", "contract", "near_sdk"}, c.Patterns("near_integration", "rust"))
	assert.Equal(t, []string{"near", "contract", "near-api-js"}, c.Patterns("near_integration", "TS"))
	assert.Equal(t, []string{"near", "contract", "near_sdk", "near-api-js"}, c.Patterns("near_integration", "mixed"))
	assert.Equal(t, []string{"near", "contract", "near-api-js", "near_sdk"}, c.Patterns("near_integration", ""))
	assert.Equal(t, []string{"near", "contract"}, c.Patterns("near_integration", "python"))
	assert.Equal(t, []string{"near", "contract", "near_sdk"}, c.Patterns("integration", "rust"), "suffix lookup")
	assert.Nil(t, c.Patterns("unknown", "rust"))
}

func TestScoringGuide(t *testing.T) {
	guide := ScoringGuide(Category{ScoringTiers: map[string]Tier{
		"high": {Range: []int{8, 10}, Criteria: "Active"},
		"low":  {Range: []int{0, 3}, Criteria: "Dormant"},
		"bad":  {Range: []int{1}, Criteria: "skipped"},
	}})
	assert.Equal(t, map[string]string{"8-10": "Active", "0-3": "Dormant"}, guide)
}

func TestLoad_OverlayDirectory(t *testing.T) {
	dir := t.TempDir()
	rubric := `categories:
  custom_check:
    name: Custom Check
    max_points: 5
    key_indicators: [one]
    file_patterns: ["**/*.go"]
    scoring_tiers:
      all:
        range: [0, 5]
        criteria: anything
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rubric.yaml"), []byte(rubric), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "prompts"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prompts", "custom_check.txt"), []byte("Check it.\n"), 0644))

	c, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"custom_check"}, c.Keys())
	assert.Equal(t, "Check it.", c.Prompt("custom_check", ""))
	// patterns.yaml is missing from dir: built-in patterns are used
	assert.NotEmpty(t, c.Patterns("near_integration", "rust"))
}

func TestLoad_Malformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rubric.yaml"), []byte("categories: [broken"), 0644))
	_, err := Load(dir)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "rubric.yaml"), []byte("categorys: {}\n"), 0644))
	_, err = Load(dir)
	assert.Error(t, err, "unknown fields are rejected")
}
