package internal

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// Scanner runs the indicator scan of many files on a shared worker pool.
// It is safe for concurrent use; Close releases the pool.
type Scanner struct {
	pool    *ants.Pool
	timeout time.Duration
}

// NewScanner creates a scanner with at most threads concurrent file scans.
// A non-positive timeout means the caller's context is the only deadline.
func NewScanner(threads int, timeout time.Duration) (*Scanner, error) {
	if threads <= 0 {
		threads = max(4, runtime.GOMAXPROCS(0))
	}
	pool, err := ants.NewPool(threads)
	if err != nil {
		return nil, fmt.Errorf("pool: %w", err)
	}
	return &Scanner{pool: pool, timeout: timeout}, nil
}

func (s *Scanner) Close() { s.pool.Release() }

// FindPatternMatchesInFiles scans every file against patterns. Only files with at least one
// hit appear in the result. When the deadline passes, the files fully scanned so far are returned;
// a file cut short is left out.
func (s *Scanner) FindPatternMatchesInFiles(ctx context.Context, files map[string]string, patterns []string) map[string][]MatchResult {
	out := make(map[string][]MatchResult)
	if len(files) == 0 || len(patterns) == 0 {
		return out
	}
	compiled := CompilePatterns(patterns)
	if len(compiled) == 0 {
		return out
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for path, content := range files {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		task := func() {
			defer wg.Done()
			hits, complete := scanOne(ctx, path, content, compiled)
			if !complete || len(hits) == 0 {
				return
			}
			mu.Lock()
			out[path] = hits
			mu.Unlock()
		}
		if err := s.pool.Submit(task); err != nil {
			logrus.WithError(err).WithField("file", path).Warn("Pool rejected task, scanning inline")
			task()
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		logrus.WithError(err).Warnf("Scan stopped early, returning partial results for %d of %d files", len(out), len(files))
	}
	return out
}

// scanOne isolates a file: a failure is logged and the file counts as having no hits.
// complete is false when ctx ended before every line was checked.
func scanOne(ctx context.Context, path, content string, patterns []Pattern) (hits []MatchResult, complete bool) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithFields(logrus.Fields{"file": path, "panic": r}).Error("Scanning file failed")
			hits, complete = nil, true
		}
	}()
	hits = matchContent(ctx, content, patterns)
	return hits, ctx.Err() == nil
}

// SummarizeMatches returns the patterns that hit at least once, in the order given,
// and the total number of hits.
func SummarizeMatches(patterns []string, byFile map[string][]MatchResult) ([]string, int) {
	total := 0
	hit := make(map[string]struct{})
	for _, results := range byFile {
		total += len(results)
		for _, r := range results {
			hit[r.Pattern] = struct{}{}
		}
	}
	matched := lo.Filter(lo.Uniq(patterns), func(p string, _ int) bool {
		_, ok := hit[p]
		return ok
	})
	return matched, total
}

// SuggestFiles applies category file patterns to a file listing. suggested is the sorted,
// de-duplicated union of plain filtering and brace resolution; byPattern maps each pattern to
// the files it selects on its own.
func SuggestFiles(patterns, files []string) (suggested []string, byPattern map[string][]string) {
	all := FilterFilesByPatterns(files, patterns)
	byPattern = make(map[string][]string, len(patterns))
	for _, p := range patterns {
		if HasBraceGroup(p) {
			resolved := ResolveComplexGlobPattern(p, files)
			all = append(all, resolved...)
			byPattern[p] = resolved
			continue
		}
		byPattern[p] = FilterFilesByPatterns(files, []string{p})
	}
	suggested = lo.Uniq(all)
	sort.Strings(suggested)
	return suggested, byPattern
}
