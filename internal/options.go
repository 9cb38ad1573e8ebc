package internal

import (
	"errors"
	"runtime"
	"strings"
)

const (
	defaultMaxFileSize = 1 << 20
	maxListedFiles     = 10000 // zip-bomb protection
)

// SourceOptions - local source options from CLI.
type SourceOptions struct {
	Root        string
	Depth       int
	Archives    bool
	Threads     int
	Whitelist   []string
	Blacklist   []string
	MaxFileSize int64
	MaxFiles    int

	whMap map[string]struct{}
	blMap map[string]struct{}
}

// Validate checks invariants.
func (o *SourceOptions) Validate() error {
	if o.Root == "" {
		return errors.New("source path is required")
	}
	if o.Depth < 0 {
		return errors.New("depth must not be negative")
	}
	if o.MaxFileSize < 0 {
		return errors.New("max-file-size must not be negative")
	}
	return nil
}

// Prepare builds fast lookup structures and sensible defaults.
func (o *SourceOptions) Prepare() {
	o.whMap = toSet(o.Whitelist)
	o.blMap = toSet(o.Blacklist)
	if o.Threads <= 0 {
		o.Threads = max(8, runtime.GOMAXPROCS(0)*2)
	}
	if o.MaxFileSize == 0 {
		o.MaxFileSize = defaultMaxFileSize
	}
	if o.MaxFiles <= 0 || o.MaxFiles > maxListedFiles {
		o.MaxFiles = maxListedFiles
	}
}

// NormalizeExtensions turns "rs, .TS" style flag values into ".rs", ".ts".
func NormalizeExtensions(s []string) []string {
	out := make([]string, 0, len(s))
	for _, ext := range s {
		for _, v := range strings.Split(ext, ",") {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			v = strings.TrimPrefix(v, ".")
			out = append(out, "."+strings.ToLower(v))
		}
	}
	return out
}

func toSet(s []string) map[string]struct{} {
	if len(s) == 0 {
		return nil
	}
	m := make(map[string]struct{}, len(s))
	for _, x := range s {
		m[x] = struct{}{}
	}
	return m
}

func (o *SourceOptions) useWhitelist() bool { return len(o.whMap) > 0 }

func (o *SourceOptions) allowedExt(ext string) bool {
	if o.useWhitelist() {
		_, ok := o.whMap[ext]
		return ok
	}
	if o.blMap == nil {
		return true
	}
	_, blocked := o.blMap[ext]
	return !blocked
}
