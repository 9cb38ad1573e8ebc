package internal

import (
	"reflect"
	"testing"
)

func TestSourceOptions_Validate(t *testing.T) {
	o := SourceOptions{}
	if err := o.Validate(); err == nil {
		t.Fatal("expected error for empty root")
	}
	o.Root = "."
	if err := o.Validate(); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	o.Depth = -1
	if err := o.Validate(); err == nil {
		t.Fatal("expected error for negative depth")
	}
}

func TestSourceOptions_PrepareAndAllowedExt(t *testing.T) {
	o := SourceOptions{Root: ".", Whitelist: []string{".rs", ".ts"}}
	o.Prepare()
	if o.Threads <= 0 || o.MaxFileSize != defaultMaxFileSize || o.MaxFiles != maxListedFiles {
		t.Fatalf("defaults not applied: %+v", o)
	}
	if !o.allowedExt(".rs") || o.allowedExt(".md") {
		t.Fatal("whitelist failed")
	}

	o = SourceOptions{Root: ".", Blacklist: []string{".png"}, MaxFiles: 50}
	o.Prepare()
	if o.allowedExt(".png") || !o.allowedExt(".rs") {
		t.Fatal("blacklist failed")
	}
	if o.MaxFiles != 50 {
		t.Fatalf("explicit MaxFiles overwritten: %d", o.MaxFiles)
	}
}

func TestNormalizeExtensions(t *testing.T) {
	got := NormalizeExtensions([]string{"rs, .TS", "", "js"})
	if want := []string{".rs", ".ts", ".js"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
