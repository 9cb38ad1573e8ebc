package internal

import (
	"bufio"
	"context"
	"os"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

// cancelCheckEvery is how many lines are scanned between context checks.
const cancelCheckEvery = 256

// Pattern - fast interface for line match.
type Pattern interface {
	Match(string) bool
	Desc() string // source text, echoed back in results
}

type RegexPattern struct {
	re  *regexp.Regexp
	src string
}

func (p *RegexPattern) Match(s string) bool { return p.re.MatchString(s) }
func (p *RegexPattern) Desc() string        { return p.src }

// MatchResult is a single indicator hit on one line of a file.
type MatchResult struct {
	Pattern     string `json:"pattern"`
	LineNumber  int    `json:"line_number"`
	LineContent string `json:"line_content"`
	Matched     bool   `json:"matched"`
}

// CompilePatterns compiles indicator regexes. Invalid ones are logged and left out,
// so one bad entry never hides the hits of the others.
func CompilePatterns(patterns []string) []Pattern {
	ps := make([]Pattern, 0, len(patterns))
	for _, src := range patterns {
		re, err := regexp.Compile(src)
		if err != nil {
			logrus.WithError(err).WithField("pattern", src).Warn("Invalid regex pattern, skipping")
			continue
		}
		ps = append(ps, &RegexPattern{re: re, src: src})
	}
	return ps
}

// FindPatternMatchesInFile reports every line of content matched by each pattern.
// Results are grouped by pattern in input order, lines ascending within a pattern.
// Line numbers are 1-based; line content is whitespace-trimmed. Empty content is one empty line.
func FindPatternMatchesInFile(content string, patterns []string) []MatchResult {
	return matchContent(context.Background(), content, CompilePatterns(patterns))
}

func matchContent(ctx context.Context, content string, patterns []Pattern) []MatchResult {
	out := make([]MatchResult, 0)
	if len(patterns) == 0 {
		return out
	}
	lines := strings.Split(content, "\n")
	for _, p := range patterns {
		for i, line := range lines {
			if i%cancelCheckEvery == 0 && ctx.Err() != nil {
				return out
			}
			if !p.Match(line) {
				continue
			}
			out = append(out, MatchResult{
				Pattern:     p.Desc(),
				LineNumber:  i + 1,
				LineContent: strings.TrimSpace(line),
				Matched:     true,
			})
		}
	}
	return out
}

// MatchPathRegex reports whether re matches anywhere in path.
func MatchPathRegex(path, re string) bool {
	compiled, err := regexp.Compile(re)
	if err != nil {
		logrus.WithError(err).WithField("pattern", re).Warn("Invalid path regex, treating as no match")
		return false
	}
	return compiled.MatchString(NormalizePath(path))
}

// LoadPatterns reads an indicator file, one regex per line.
// Lines:
//
//	# comment
//	near_sdk::\w+
//	re:#\[near_bindgen\]
//	plain:Promise::new
//	plain:i:todo
//
// "plain:" lines are quoted into literal regexes. Validity is checked at scan time.
func LoadPatterns(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var ps []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		switch {
		case strings.HasPrefix(line, "re:"):
			ps = append(ps, line[3:])
		case strings.HasPrefix(line, "plain:i:"):
			ps = append(ps, "(?i)"+regexp.QuoteMeta(line[8:]))
		case strings.HasPrefix(line, "plain:"):
			ps = append(ps, regexp.QuoteMeta(line[6:]))
		default:
			ps = append(ps, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	logrus.Debugf("Loaded %d patterns from %s", len(ps), path)
	return ps, nil
}
