package repo

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTwigignore(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, IgnoreFileName), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", IgnoreFileName, err)
	}
}

func TestIgnore_MetadataDirsAlwaysIgnored(t *testing.T) {
	ic := NewIgnoreChecker(t.TempDir(), nil)
	for _, p := range []string{".twig", ".twig/HEAD", ".twig/objects/abc", ".git", ".git/config", "sub/.git/config"} {
		if !ic.IsIgnored(p, false) {
			t.Errorf("expected %q to be ignored", p)
		}
	}
	if ic.IsIgnored("main.go", false) {
		t.Error("main.go ignored without patterns")
	}
}

func TestIgnore_Patterns(t *testing.T) {
	dir := t.TempDir()
	writeTwigignore(t, dir, `# build output
*.log
!keep.log

build/
/root.txt
docs/*.md
**/tmp
`)
	ic := NewIgnoreChecker(dir, nil)

	tests := []struct {
		path  string
		isDir bool
		want  bool
	}{
		{"debug.log", false, true},
		{"logs/debug.log", false, true},
		{"keep.log", false, false},
		{"build", true, true},
		{"build", false, false},
		{"build/out.o", false, true},
		{"src/build/out.o", false, true},
		{"root.txt", false, true},
		{"sub/root.txt", false, false},
		{"docs/a.md", false, true},
		{"docs/sub/a.md", false, false},
		{"other/docs/a.md", false, false},
		{"tmp", true, true},
		{"a/b/tmp", true, true},
		{"a/b/tmp/file", false, true},
		{"main.go", false, false},
		{"# build output", false, false},
	}
	for _, tt := range tests {
		if got := ic.IsIgnored(tt.path, tt.isDir); got != tt.want {
			t.Errorf("IsIgnored(%q, dir=%v) = %v, want %v", tt.path, tt.isDir, got, tt.want)
		}
	}
}

func TestIgnore_ExtraPatternsApplyAfterFile(t *testing.T) {
	dir := t.TempDir()
	writeTwigignore(t, dir, "*.tmp\n")
	ic := NewIgnoreChecker(dir, []string{"!important.tmp", "*.bak"})

	if !ic.IsIgnored("x.tmp", false) {
		t.Error("x.tmp should be ignored by the ignore file")
	}
	if ic.IsIgnored("important.tmp", false) {
		t.Error("important.tmp should be re-included by the extra pattern")
	}
	if !ic.IsIgnored("old.bak", false) {
		t.Error("old.bak should be ignored by the extra pattern")
	}
}

func TestIgnore_MissingFile(t *testing.T) {
	ic := NewIgnoreChecker(filepath.Join(t.TempDir(), "does-not-exist"), nil)
	if ic.IsIgnored("anything.txt", false) {
		t.Error("no patterns should ignore nothing")
	}
}

func TestIgnore_WriteTreeSkipsIgnored(t *testing.T) {
	r := initRepo(t)
	writeFile(t, r, IgnoreFileName, "*.log\nbuild/\n")
	writeFile(t, r, "main.go", "package main\n")
	writeFile(t, r, "debug.log", "noise\n")
	writeFile(t, r, "build/out.bin", "binary\n")

	h, err := r.WriteTree()
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	files, err := r.FlattenTree(h)
	if err != nil {
		t.Fatalf("FlattenTree: %v", err)
	}
	got := make(map[string]bool)
	for _, f := range files {
		got[f.Path] = true
	}
	if !got["main.go"] || !got[IgnoreFileName] || len(got) != 2 {
		t.Fatalf("tree files = %v, want main.go and %s", got, IgnoreFileName)
	}
}
