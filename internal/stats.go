package internal

import (
	"sync/atomic"
	"time"
)

// AppStats atomic counters for one local run.
type AppStats struct {
	start        time.Time
	FilesListed  atomic.Int64
	FilesRead    atomic.Int64
	FilesSkipped atomic.Int64
	FilesMatched atomic.Int64
	Matches      atomic.Int64
	Errors       atomic.Int64
}

func (s *AppStats) Start() {
	s.start = time.Now()
}

func (s *AppStats) Elapsed() time.Duration {
	if s.start.IsZero() {
		return 0
	}
	return time.Since(s.start)
}
