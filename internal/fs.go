package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path"
	"strings"

	"github.com/mholt/archives"
	"github.com/sirupsen/logrus"
)

var (
	ErrArchiveInput = errors.New("source is an archive; pass --archives to read it")
	ErrNoFiles      = errors.New("no files selected")
	errFileLimit    = errors.New("file limit reached")
)

// IsArchive by extension. O(1) map lookup
var archiveExt = map[string]struct{}{
	".zip": {}, ".tar": {}, ".gz": {}, ".bz2": {}, ".xz": {},
	".rar": {}, ".br": {}, ".lz4": {}, ".lz": {}, ".mz": {},
	".sz": {}, ".s2": {}, ".zz": {}, ".zst": {}, ".7z": {},
	".tgz": {},
}

// Directories that never hold project sources worth reading.
var skipDirs = map[string]struct{}{
	".git": {}, "node_modules": {}, "target": {}, ".idea": {}, ".vscode": {},
	"vendor": {}, "dist": {}, "build": {}, ".next": {},
}

// Source is a read-only view of a project: a directory or an archive.
type Source struct {
	FS      iofs.FS
	Root    string
	archive bool
}

// OpenSource opens opts.Root. Archives are only accepted with opts.Archives.
func OpenSource(ctx context.Context, opts SourceOptions) (*Source, error) {
	st, err := os.Stat(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	isArchive := !st.IsDir()
	if isArchive {
		if !IsArchive(opts.Root) {
			return nil, fmt.Errorf("source %s: not a directory or a known archive", opts.Root)
		}
		if !opts.Archives {
			return nil, ErrArchiveInput
		}
	}
	fsys, err := archives.FileSystem(ctx, opts.Root, nil)
	if err != nil {
		return nil, fmt.Errorf("open source %s: %w", opts.Root, err)
	}
	logrus.WithFields(logrus.Fields{"root": opts.Root, "archive": isArchive}).Debug("Source opened")
	return &Source{FS: fsys, Root: opts.Root, archive: isArchive}, nil
}

func (s *Source) IsArchive() bool { return s.archive }

func (s *Source) Close() error {
	if closer, ok := s.FS.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// WalkWithDepth uses WalkDir and cuts branches by depth.
func WalkWithDepth(ctx context.Context, fsys iofs.FS, maxDepth int, fn iofs.WalkDirFunc) error {
	return iofs.WalkDir(fsys, ".", func(p string, d iofs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			return fn(p, d, err)
		}
		if maxDepth > 0 && p != "." && depthCount(p) > maxDepth {
			if d.IsDir() {
				return iofs.SkipDir
			}
			return nil
		}
		return fn(p, d, nil)
	})
}

// ListFiles returns the slash-separated paths of the regular files in src that pass the
// extension filters, walking at most opts.Depth levels. Listing stops at opts.MaxFiles.
func ListFiles(ctx context.Context, src *Source, opts SourceOptions, stats *AppStats) ([]string, error) {
	var files []string
	err := WalkWithDepth(ctx, src.FS, opts.Depth, func(p string, d iofs.DirEntry, err error) error {
		if err != nil {
			stats.Errors.Add(1)
			logrus.WithError(err).WithField("path", p).Warn("Walk error")
			return nil
		}
		if d.IsDir() {
			if _, skip := skipDirs[d.Name()]; skip && p != "." {
				return iofs.SkipDir
			}
			return nil
		}
		if !opts.allowedExt(strings.ToLower(path.Ext(p))) {
			return nil
		}
		if len(files) >= opts.MaxFiles {
			return errFileLimit
		}
		files = append(files, p)
		stats.FilesListed.Add(1)
		return nil
	})
	switch {
	case errors.Is(err, errFileLimit):
		logrus.Warnf("Source %s: listing stopped at %d files", src.Root, opts.MaxFiles)
	case err != nil:
		return files, fmt.Errorf("walk %s: %w", src.Root, err)
	}
	return files, nil
}

func depthCount(rel string) int {
	if rel == "" || rel == "." {
		return 0
	}
	return strings.Count(rel, "/") + 1
}

// Sanitize makes s usable as a single file name.
func Sanitize(s string) string {
	r := strings.NewReplacer(
		"/", "_", `\`, "_", ":", "_", "*", "_", "?", "_",
		"\"", "_", "<", "_", ">", "_", "|", "_",
	)
	return r.Replace(s)
}

func IsArchive(p string) bool {
	_, ok := archiveExt[strings.ToLower(path.Ext(p))]
	return ok
}
