// Package rubric holds the grant evaluation rubric: categories, indicator patterns and
// prompt templates, loaded from YAML and text files over built-in defaults.
package rubric

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

//go:embed defaults
var defaults embed.FS

const (
	rubricFile   = "rubric.yaml"
	patternsFile = "patterns.yaml"
	promptsDir   = "prompts"
)

// Tier is one scoring band of a category. Range holds the inclusive [low, high] points.
type Tier struct {
	Range    []int  `yaml:"range" json:"range"`
	Criteria string `yaml:"criteria" json:"criteria"`
}

type Category struct {
	Name           string          `yaml:"name" json:"name"`
	MaxPoints      int             `yaml:"max_points" json:"max_points"`
	EvaluationType string          `yaml:"evaluation_type" json:"evaluation_type"`
	KeyIndicators  []string        `yaml:"key_indicators" json:"key_indicators"`
	FilePatterns   []string        `yaml:"file_patterns" json:"file_patterns"`
	ScoringTiers   map[string]Tier `yaml:"scoring_tiers" json:"scoring_tiers"`
}

// PatternSet maps a language ("rust", "javascript", "common") to indicator regexes.
type PatternSet map[string][]string

type rubricDoc struct {
	Categories map[string]Category `yaml:"categories"`
}

type patternsDoc struct {
	Patterns map[string]PatternSet `yaml:"patterns"`
}

// Load reads rubric.yaml, patterns.yaml and prompts/*.txt from dir. A missing file falls
// back to the built-in default; prompt files override defaults one by one. An empty dir
// loads the defaults only.
func Load(dir string) (*Catalog, error) {
	var rd rubricDoc
	if err := decodeConfig(dir, rubricFile, &rd); err != nil {
		return nil, err
	}
	if len(rd.Categories) == 0 {
		return nil, fmt.Errorf("%s: no categories defined", rubricFile)
	}
	var pd patternsDoc
	if err := decodeConfig(dir, patternsFile, &pd); err != nil {
		return nil, err
	}
	prompts, err := loadPrompts(dir)
	if err != nil {
		return nil, err
	}
	c := NewCatalog(rd.Categories, pd.Patterns, prompts)
	logrus.Infof("Loaded %d categories, %d pattern sets, %d prompt templates",
		len(c.keys), len(c.patterns), len(c.templates))
	return c, nil
}

func decodeConfig(dir, name string, v any) error {
	data, src, err := readConfig(dir, name)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse %s: %w", src, err)
	}
	logrus.Debugf("Loaded configuration from %s", src)
	return nil
}

// readConfig returns the content of dir/name, or the embedded default when dir has no such file.
func readConfig(dir, name string) ([]byte, string, error) {
	if dir != "" {
		p := filepath.Join(dir, name)
		data, err := os.ReadFile(p)
		if err == nil {
			return data, p, nil
		}
		if !errors.Is(err, iofs.ErrNotExist) {
			return nil, p, fmt.Errorf("read %s: %w", p, err)
		}
		logrus.Warnf("%s not found in %s, using built-in defaults", name, dir)
	}
	p := path.Join("defaults", name)
	data, err := defaults.ReadFile(p)
	if err != nil {
		return nil, p, fmt.Errorf("read built-in %s: %w", name, err)
	}
	return data, "built-in " + name, nil
}

// loadPrompts returns template text keyed by file stem.
func loadPrompts(dir string) (map[string]string, error) {
	prompts := make(map[string]string)
	embedded, err := iofs.Glob(defaults, path.Join("defaults", promptsDir, "*.txt"))
	if err != nil {
		return nil, err
	}
	for _, p := range embedded {
		data, err := defaults.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read built-in prompt %s: %w", p, err)
		}
		prompts[stem(p)] = string(data)
	}
	if dir == "" {
		return prompts, nil
	}

	local, err := filepath.Glob(filepath.Join(dir, promptsDir, "*.txt"))
	if err != nil {
		return nil, err
	}
	for _, p := range local {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read prompt %s: %w", p, err)
		}
		prompts[stem(filepath.ToSlash(p))] = string(data)
	}
	logrus.Debugf("Found %d prompt files in %s", len(local), filepath.Join(dir, promptsDir))
	return prompts, nil
}

func stem(p string) string {
	return strings.TrimSuffix(path.Base(p), ".txt")
}
