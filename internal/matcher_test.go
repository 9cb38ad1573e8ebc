package internal

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestFindPatternMatchesInFile(t *testing.T) {
	content := "fn main() {}\nuse near_sdk::env;"
	got := FindPatternMatchesInFile(content, []string{"near_sdk", `fn\s+\w+`})
	want := []MatchResult{
		{Pattern: "near_sdk", LineNumber: 2, LineContent: "use near_sdk::env;", Matched: true},
		{Pattern: `fn\s+\w+`, LineNumber: 1, LineContent: "fn main() {}", Matched: true},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v\nwant %+v", got, want)
	}
}

func TestFindPatternMatchesInFile_PatternMajorOrder(t *testing.T) {
	content := "  a1\nb\n\ta2  \nab"
	got := FindPatternMatchesInFile(content, []string{"b", "a"})
	var lines []int
	var pats []string
	for _, r := range got {
		lines = append(lines, r.LineNumber)
		pats = append(pats, r.Pattern)
	}
	if !reflect.DeepEqual(pats, []string{"b", "b", "a", "a", "a"}) || !reflect.DeepEqual(lines, []int{2, 4, 1, 3, 4}) {
		t.Fatalf("unexpected order: %v %v", pats, lines)
	}
	if got[2].LineContent != "a1" || got[3].LineContent != "a2" {
		t.Fatalf("line content should be trimmed: %q %q", got[2].LineContent, got[3].LineContent)
	}
}

func TestFindPatternMatchesInFile_InvalidAndEmpty(t *testing.T) {
	got := FindPatternMatchesInFile("foo(\nbar", []string{"(", "bar"})
	if len(got) != 1 || got[0].Pattern != "bar" || got[0].LineNumber != 2 {
		t.Fatalf("invalid pattern should be skipped, got %+v", got)
	}
	if got := FindPatternMatchesInFile("", []string{"x"}); got == nil || len(got) != 0 {
		t.Fatalf("empty content: %#v", got)
	}
	if got := FindPatternMatchesInFile("x", nil); len(got) != 0 {
		t.Fatalf("no patterns: %v", got)
	}
}

func TestFindPatternMatchesInFile_CRLF(t *testing.T) {
	got := FindPatternMatchesInFile("use near_sdk;\r\nfn x() {}\r\n", []string{`;$`})
	// '\r' stays on the line, so an end-anchored pattern misses it; the trimmed content drops it.
	if len(got) != 0 {
		t.Fatalf("expected no match before \\r, got %+v", got)
	}
	got = FindPatternMatchesInFile("use near_sdk;\r\n", []string{"near_sdk"})
	if len(got) != 1 || got[0].LineContent != "use near_sdk;" {
		t.Fatalf("got %+v", got)
	}
}

func TestMatchContent_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if got := matchContent(ctx, "a\na", CompilePatterns([]string{"a"})); len(got) != 0 {
		t.Fatalf("cancelled scan should stop, got %v", got)
	}
}

func TestMatchPathRegex(t *testing.T) {
	if !MatchPathRegex(`src\contract\lib.rs`, `^src/contract/`) {
		t.Fatal("expected match after separator normalisation")
	}
	if MatchPathRegex("src/lib.rs", "(") {
		t.Fatal("invalid regex must not match")
	}
}

func TestLoadPatterns(t *testing.T) {
	dir := t.TempDir()
	fp := filepath.Join(dir, "patterns.txt")
	content := `
# comment
near_sdk::\w+
re:^id=\d{3}$
plain:Promise::new(
plain:i:TODO
`
	if err := os.WriteFile(fp, []byte(content), 0644); err != nil {
		t.Fatalf("write patterns: %v", err)
	}

	ps, err := LoadPatterns(fp)
	if err != nil {
		t.Fatalf("LoadPatterns error: %v", err)
	}
	if len(ps) != 4 {
		t.Fatalf("expected 4 patterns, got %d: %v", len(ps), ps)
	}
	compiled := CompilePatterns(ps)
	if len(compiled) != 4 {
		t.Fatalf("all loaded patterns should compile, got %d", len(compiled))
	}
	if !compiled[1].Match("id=123") || compiled[1].Match("id=12x") {
		t.Errorf("regex match failed")
	}
	if !compiled[2].Match("let p = Promise::new(acc);") {
		t.Errorf("plain pattern should match literally")
	}
	if !compiled[3].Match("// todo: later") {
		t.Errorf("plain:i should be case-insensitive")
	}
}

func TestLoadPatterns_Missing(t *testing.T) {
	if _, err := LoadPatterns(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFindPatternMatchesInFile_EmptyContentIsOneLine(t *testing.T) {
	got := FindPatternMatchesInFile("", []string{"^$", ".*", "x"})
	want := []MatchResult{
		{Pattern: "^$", LineNumber: 1, LineContent: "", Matched: true},
		{Pattern: ".*", LineNumber: 1, LineContent: "", Matched: true},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v\nwant %+v", got, want)
	}
	// same rule as the trailing line after a final newline
	if got := FindPatternMatchesInFile("a\n", []string{"^$"}); len(got) != 1 || got[0].LineNumber != 2 {
		t.Fatalf("trailing empty line: %+v", got)
	}
}
