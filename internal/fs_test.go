package internal

import (
	"archive/zip"
	"context"
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func openTestSource(t *testing.T, opts SourceOptions) *Source {
	t.Helper()
	src, err := OpenSource(context.Background(), opts)
	if err != nil {
		t.Fatalf("OpenSource: %v", err)
	}
	t.Cleanup(func() { _ = src.Close() })
	return src
}

func TestIsArchive(t *testing.T) {
	exts := []string{".zip", ".tar", ".gz", ".bz2", ".xz", ".rar", ".7z", ".zst", ".tgz"}
	for _, e := range exts {
		if !IsArchive("x" + e) {
			t.Errorf("expected archive for %s", e)
		}
	}
	if IsArchive("file.txt") {
		t.Errorf("txt is not archive")
	}
}

func TestDepthCount(t *testing.T) {
	if depthCount("") != 0 || depthCount(".") != 0 {
		t.Fatal("root should be 0")
	}
	if depthCount("a") != 1 || depthCount("a/b") != 2 {
		t.Fatal("depthCount wrong")
	}
}

func TestSanitize(t *testing.T) {
	out := Sanitize(`near_sdk::\w+|foo/bar:*?"<>`)
	if strings.ContainsAny(out, `\/:*?"<>|`) {
		t.Fatalf("sanitize failed: %q", out)
	}
}

func TestWalkWithDepth(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"a/b/c.txt": "x", "top.txt": "y"})

	walk := func(depth int) []string {
		var seen []string
		err := WalkWithDepth(context.Background(), os.DirFS(dir), depth, func(p string, d iofs.DirEntry, err error) error {
			if err == nil && !d.IsDir() {
				seen = append(seen, p)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("walk: %v", err)
		}
		sort.Strings(seen)
		return seen
	}

	if got := walk(1); !reflect.DeepEqual(got, []string{"top.txt"}) {
		t.Fatalf("depth=1: %v", got)
	}
	if got := walk(0); !reflect.DeepEqual(got, []string{"a/b/c.txt", "top.txt"}) {
		t.Fatalf("depth=0: %v", got)
	}
}

func TestWalkWithDepth_CallbackError(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"a.txt": "x"})
	stop := errors.New("stop")
	err := WalkWithDepth(context.Background(), os.DirFS(dir), 0, func(p string, d iofs.DirEntry, err error) error {
		if !d.IsDir() {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Fatalf("expected callback error, got %v", err)
	}
}

func TestListFiles_Directory(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"src/lib.rs":              "fn a() {}",
		"web/app.ts":              "x",
		"node_modules/x/index.js": "x",
		".git/config":             "x",
		"image.png":               "x",
	})
	opts := SourceOptions{Root: dir, Blacklist: []string{".png"}}
	opts.Prepare()
	var stats AppStats
	files, err := ListFiles(context.Background(), openTestSource(t, opts), opts, &stats)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	sort.Strings(files)
	if want := []string{"src/lib.rs", "web/app.ts"}; !reflect.DeepEqual(files, want) {
		t.Fatalf("got %v, want %v", files, want)
	}
	if stats.FilesListed.Load() != 2 {
		t.Fatalf("FilesListed = %d", stats.FilesListed.Load())
	}
}

func TestListFiles_Limit(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"a.rs": "", "b.rs": "", "c.rs": ""})
	opts := SourceOptions{Root: dir, MaxFiles: 2}
	opts.Prepare()
	var stats AppStats
	files, err := ListFiles(context.Background(), openTestSource(t, opts), opts, &stats)
	if err != nil {
		t.Fatalf("limit is not an error: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %v", files)
	}
}

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestOpenSource_Archive(t *testing.T) {
	zp := filepath.Join(t.TempDir(), "project.zip")
	writeZip(t, zp, map[string]string{"src/lib.rs": "use near_sdk::env;", "README.md": "# p"})

	opts := SourceOptions{Root: zp}
	opts.Prepare()
	if _, err := OpenSource(context.Background(), opts); !errors.Is(err, ErrArchiveInput) {
		t.Fatalf("expected ErrArchiveInput, got %v", err)
	}

	opts.Archives = true
	src := openTestSource(t, opts)
	if !src.IsArchive() {
		t.Fatal("zip source should report IsArchive")
	}
	var stats AppStats
	files, err := ListFiles(context.Background(), src, opts, &stats)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	sort.Strings(files)
	if want := []string{"README.md", "src/lib.rs"}; !reflect.DeepEqual(files, want) {
		t.Fatalf("got %v, want %v", files, want)
	}
}

func TestOpenSource_Missing(t *testing.T) {
	opts := SourceOptions{Root: filepath.Join(t.TempDir(), "missing")}
	if _, err := OpenSource(context.Background(), opts); err == nil {
		t.Fatal("expected error")
	}
}

func TestOpenSource_PlainFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenSource(context.Background(), SourceOptions{Root: p, Archives: true}); err == nil {
		t.Fatal("a plain file is not a source")
	}
}
