package internal

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

// globKind picks the matching strategy of a compiled glob. It is decided once per pattern.
type globKind int

const (
	globNever      globKind = iota // empty pattern
	globGeneral                    // wildcards only, or more than one "**"
	globDoubleStar                 // exactly one "**": literal prefix/suffix gate before the regex
)

// Glob is a compiled file pattern.
//
//	**/     zero or more leading directories
//	*, **   any run of characters, separators included
//	?       any single character
//	[a-z]   character class, [!a-z] negated
//
// Separators are normalised to '/' on both sides, so "src\*.rs" and "src/*.rs" are the same glob.
// Braces are literal here; see ExpandBraces.
type Glob struct {
	raw    string
	kind   globKind
	prefix string
	suffix string
	re     *regexp.Regexp
}

// CompileGlob translates pattern into an anchored regular expression.
func CompileGlob(pattern string) (*Glob, error) {
	g := &Glob{raw: pattern}
	norm := NormalizePath(pattern)
	if norm == "" {
		g.kind = globNever
		return g, nil
	}
	re, err := regexp.Compile(translateGlob(norm))
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}
	g.re = re
	g.kind = globGeneral
	if parts := strings.Split(norm, "**"); len(parts) == 2 {
		g.kind = globDoubleStar
		g.prefix = literalHead(strings.TrimRight(parts[0], "/"))
		g.suffix = literalTail(strings.TrimLeft(parts[1], "/"))
	}
	return g, nil
}

// Match reports whether path satisfies the glob.
func (g *Glob) Match(path string) bool {
	switch g.kind {
	case globNever:
		return false
	case globDoubleStar:
		p := NormalizePath(path)
		if g.prefix != "" && !strings.HasPrefix(p, g.prefix) {
			return false
		}
		if g.suffix != "" && !strings.HasSuffix(p, g.suffix) {
			return false
		}
		return g.re.MatchString(p)
	default:
		return g.re.MatchString(NormalizePath(path))
	}
}

func (g *Glob) String() string { return g.raw }

// NormalizePath converts Windows separators to '/'.
func NormalizePath(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

// MatchesGlob reports whether path matches pattern. A pattern that cannot be compiled
// matches nothing; the failure is logged, never returned.
func MatchesGlob(path, pattern string) bool {
	g, err := CompileGlob(pattern)
	if err != nil {
		logrus.WithError(err).WithField("pattern", pattern).Warn("Invalid glob pattern, treating as no match")
		return false
	}
	return g.Match(path)
}

// compileGlobs compiles every pattern, dropping (and logging) the broken ones.
func compileGlobs(patterns []string) []*Glob {
	out := make([]*Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := CompileGlob(p)
		if err != nil {
			logrus.WithError(err).WithField("pattern", p).Warn("Invalid glob pattern, skipping")
			continue
		}
		out = append(out, g)
	}
	return out
}

// FilterFilesByPatterns keeps the files matching at least one pattern, in input order.
// The first matching pattern wins, so a file is reported once per occurrence in files.
func FilterFilesByPatterns(files, patterns []string) []string {
	logrus.Debugf("Filtering %d files against %d patterns", len(files), len(patterns))
	matched := make([]string, 0)
	if len(files) == 0 || len(patterns) == 0 {
		return matched
	}
	globs := compileGlobs(patterns)
	for _, f := range files {
		for _, g := range globs {
			if g.Match(f) {
				matched = append(matched, f)
				break
			}
		}
	}
	logrus.Debugf("Matched %d files using glob patterns", len(matched))
	return matched
}

// HasBraceGroup reports whether pattern contains a "{...}" alternative list.
func HasBraceGroup(pattern string) bool {
	open := strings.IndexByte(pattern, '{')
	return open >= 0 && strings.IndexByte(pattern[open:], '}') > 0
}

// ExpandBraces substitutes every alternative of each "{a,b,...}" group back into the pattern.
// Groups are expanded left to right; nesting is not supported. A pattern without a complete
// group is returned as the only alternative.
func ExpandBraces(pattern string) []string {
	open := strings.IndexByte(pattern, '{')
	if open < 0 {
		return []string{pattern}
	}
	end := strings.IndexByte(pattern[open:], '}')
	if end < 0 {
		return []string{pattern}
	}
	end += open
	head, body, tail := pattern[:open], pattern[open+1:end], pattern[end+1:]

	var out []string
	for _, alt := range strings.Split(body, ",") {
		out = append(out, ExpandBraces(head+alt+tail)...)
	}
	return out
}

// ResolveComplexGlobPattern matches a pattern that may carry a brace group such as
// "**/*.{js,ts}" against files. Matches are de-duplicated: a file appears once, at the
// position of the first alternative that matched it.
func ResolveComplexGlobPattern(pattern string, files []string) []string {
	logrus.Debugf("Resolving complex glob pattern: %s", pattern)
	matched := make([]string, 0)
	if len(files) == 0 {
		return matched
	}
	if !HasBraceGroup(pattern) {
		return FilterFilesByPatterns(files, []string{pattern})
	}

	seen := make(map[string]struct{}, len(files))
	for _, alt := range ExpandBraces(pattern) {
		g, err := CompileGlob(alt)
		if err != nil {
			logrus.WithError(err).WithField("pattern", alt).Warn("Invalid expanded glob pattern, skipping")
			continue
		}
		n := 0
		for _, f := range files {
			if _, dup := seen[f]; dup || !g.Match(f) {
				continue
			}
			seen[f] = struct{}{}
			matched = append(matched, f)
			n++
		}
		logrus.Debugf("Found %d matches for pattern: %s", n, alt)
	}
	return matched
}

func translateGlob(p string) string {
	var b strings.Builder
	b.WriteString(`(?s)^`)
	for i := 0; i < len(p); {
		switch c := p[i]; {
		case strings.HasPrefix(p[i:], "**/"):
			b.WriteString(`(?:.*/)?`)
			i += 3
		case c == '*':
			for i < len(p) && p[i] == '*' {
				i++
			}
			b.WriteString(`.*`)
		case c == '?':
			b.WriteString(`.`)
			i++
		case c == '[':
			j := classEnd(p, i)
			if j < 0 {
				b.WriteString(`\[`)
				i++
				continue
			}
			b.WriteString(translateClass(p[i+1 : j]))
			i = j + 1
		default:
			r, size := utf8.DecodeRuneInString(p[i:])
			b.WriteString(regexp.QuoteMeta(string(r)))
			i += size
		}
	}
	b.WriteString(`$`)
	return b.String()
}

// classEnd returns the index of the ']' closing the class opened at p[i], or -1.
// A ']' directly after "[" or "[!" belongs to the class.
func classEnd(p string, i int) int {
	j := i + 1
	if j < len(p) && p[j] == '!' {
		j++
	}
	if j < len(p) && p[j] == ']' {
		j++
	}
	k := strings.IndexByte(p[j:], ']')
	if k < 0 {
		return -1
	}
	return j + k
}

func translateClass(body string) string {
	var b strings.Builder
	b.WriteByte('[')
	if strings.HasPrefix(body, "!") {
		b.WriteByte('^')
		body = body[1:]
	}
	for _, r := range body {
		switch {
		case r == '-':
			b.WriteRune(r)
		case r < utf8.RuneSelf && strings.ContainsRune(`\[]^:&~|.*+?(){}$/#`, r):
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(']')
	return b.String()
}

const globMeta = "*?[]"

func literalHead(s string) string {
	if i := strings.IndexAny(s, globMeta); i >= 0 {
		return s[:i]
	}
	return s
}

func literalTail(s string) string {
	if i := strings.LastIndexAny(s, globMeta); i >= 0 {
		return s[i+1:]
	}
	return s
}
