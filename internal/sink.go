package internal

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/sirupsen/logrus"
)

// SinkOptions selects where matched lines are written besides the log.
type SinkOptions struct {
	SaveMatchesFile            string
	SaveMatchesByPatternFolder string
	PathRegex                  string
}

// NewMatchSink returns a closure counting and persisting matches of a local scan.
// Lines are written as "file:line: content". With PathRegex set, files whose path does not
// match it are ignored; an invalid PathRegex ignores every file.
func NewMatchSink(opts SinkOptions, stats *AppStats) func(file string, res MatchResult) {
	var matchesFileMu sync.Mutex
	var patternFilesMu sync.Map
	var seenFiles sync.Map

	var pathRe *regexp.Regexp
	pathInvalid := false
	if opts.PathRegex != "" {
		re, err := regexp.Compile(opts.PathRegex)
		if err != nil {
			logrus.WithError(err).WithField("pattern", opts.PathRegex).Warn("Invalid path regex, no match will be recorded")
			pathInvalid = true
		}
		pathRe = re
	}

	return func(file string, res MatchResult) {
		if !res.Matched || pathInvalid {
			return
		}
		if pathRe != nil && !pathRe.MatchString(NormalizePath(file)) {
			return
		}
		logrus.WithFields(logrus.Fields{"file": file, "line": res.LineNumber, "pattern": res.Pattern}).Info("Match found")
		stats.Matches.Add(1)
		if _, seen := seenFiles.LoadOrStore(file, struct{}{}); !seen {
			stats.FilesMatched.Add(1)
		}

		line := fmt.Sprintf("%s:%d: %s\n", file, res.LineNumber, res.LineContent)

		// single sink file
		if opts.SaveMatchesFile != "" {
			matchesFileMu.Lock()
			appendLine(opts.SaveMatchesFile, line, stats)
			matchesFileMu.Unlock()
		}

		// per-pattern files
		if opts.SaveMatchesByPatternFolder != "" && res.Pattern != "" {
			if err := os.MkdirAll(opts.SaveMatchesByPatternFolder, 0755); err != nil {
				stats.Errors.Add(1)
				logrus.WithError(err).Error("create matches folder")
				return
			}
			path := filepath.Join(opts.SaveMatchesByPatternFolder, Sanitize(res.Pattern)+".txt")
			muAny, _ := patternFilesMu.LoadOrStore(path, &sync.Mutex{})
			mu := muAny.(*sync.Mutex)
			mu.Lock()
			appendLine(path, line, stats)
			mu.Unlock()
		}
	}
}

func appendLine(path, line string, stats *AppStats) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		stats.Errors.Add(1)
		logrus.WithError(err).WithField("sink", path).Error("open sink")
		return
	}
	defer f.Close()
	if _, err := io.WriteString(f, line); err != nil {
		stats.Errors.Add(1)
		logrus.WithError(err).WithField("sink", path).Error("write sink")
	}
}
