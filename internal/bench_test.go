package internal

import (
	"strings"
	"testing"
)

func BenchmarkFindPatternMatchesInFile(b *testing.B) {
	var sb strings.Builder
	for i := 0; i < 2000; i++ {
		sb.WriteString("let x = near_sdk::env::predecessor_account_id();\n")
	}
	content := sb.String()
	patterns := []string{`near_sdk::\w+`, `#\[near_bindgen\]`, `Promise::new`}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = FindPatternMatchesInFile(content, patterns)
	}
}

func BenchmarkFilterFilesByPatterns(b *testing.B) {
	files := make([]string, 0, 5000)
	for i := 0; i < 5000; i++ {
		files = append(files, "pkg/mod/sub/file_"+strings.Repeat("x", i%7)+".rs")
	}
	patterns := []string{"**/*contract*.rs", "**/src/lib.rs", "**/*.rs"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = FilterFilesByPatterns(files, patterns)
	}
}
