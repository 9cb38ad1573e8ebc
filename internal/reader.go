package internal

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	iofs "io/fs"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"
)

// sniffLen bytes are checked for NUL to tell binaries from text.
const sniffLen = 8000

// ReadContents loads the text content of paths from src, keyed by path. Binary files and
// files larger than opts.MaxFileSize are skipped. Archives are read by a single worker.
func ReadContents(ctx context.Context, src *Source, paths []string, opts SourceOptions, stats *AppStats) (map[string]string, error) {
	out := make(map[string]string, len(paths))
	if len(paths) == 0 {
		return out, nil
	}
	threads := opts.Threads
	if src.IsArchive() || threads <= 0 {
		threads = 1
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	pool, err := ants.NewPoolWithFunc(threads, func(i interface{}) {
		defer wg.Done()
		if ctx.Err() != nil {
			return
		}
		name := i.(string)
		content, ok, err := readEntry(src.FS, name, opts.MaxFileSize)
		switch {
		case err != nil:
			stats.Errors.Add(1)
			logrus.WithError(err).WithField("file", name).Warn("Read failed")
		case !ok:
			stats.FilesSkipped.Add(1)
			logrus.WithField("file", name).Debug("Skipped binary or oversized file")
		default:
			stats.FilesRead.Add(1)
			mu.Lock()
			out[name] = content
			mu.Unlock()
		}
	})
	if err != nil {
		return nil, fmt.Errorf("pool: %w", err)
	}
	defer pool.Release()

	for _, p := range paths {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		if err := pool.Invoke(p); err != nil {
			wg.Done()
			stats.Errors.Add(1)
			logrus.WithError(err).WithField("file", p).Error("submit read")
		}
	}
	wg.Wait()
	return out, ctx.Err()
}

// readEntry returns the content of name, or ok=false for binaries and files above maxSize.
func readEntry(fsys iofs.FS, name string, maxSize int64) (string, bool, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return "", false, err
	}
	defer f.Close()

	br := bufio.NewReaderSize(f, 64*1024)
	head, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return "", false, err
	}
	if bytes.IndexByte(head, 0) >= 0 {
		return "", false, nil
	}
	data, err := io.ReadAll(io.LimitReader(br, maxSize+1))
	if err != nil {
		return "", false, err
	}
	if int64(len(data)) > maxSize {
		return "", false, nil
	}
	return string(data), true, nil
}
