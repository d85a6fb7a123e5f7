package repo

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInit_Layout(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	for _, sub := range []string{"objects", "refs/heads", "refs/tags"} {
		info, err := os.Stat(filepath.Join(r.TwigDir, filepath.FromSlash(sub)))
		if err != nil || !info.IsDir() {
			t.Errorf("%s missing: %v", sub, err)
		}
	}
	data, err := os.ReadFile(filepath.Join(r.TwigDir, "HEAD"))
	if err != nil {
		t.Fatalf("read HEAD: %v", err)
	}
	if string(data) != "ref: refs/heads/main\n" {
		t.Fatalf("HEAD = %q", data)
	}
	if _, err := Init(dir); err == nil {
		t.Fatal("second Init succeeded")
	}
}

func TestOpen_SearchesUpward(t *testing.T) {
	dir := t.TempDir()
	if _, err := Init(dir); err != nil {
		t.Fatalf("Init: %v", err)
	}
	nested := filepath.Join(dir, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	r, err := Open(nested)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	want, _ := filepath.Abs(dir)
	if r.RootDir != want {
		t.Fatalf("RootDir = %q, want %q", r.RootDir, want)
	}

	if _, err := Open(t.TempDir()); err == nil {
		t.Fatal("Open outside a repository succeeded")
	}
}

func TestIndependentRepositories(t *testing.T) {
	a := initRepo(t)
	b := initRepo(t)
	writeFile(t, a, "a.txt", "a\n")
	ca := commit(t, a, "in a")

	if _, err := b.Resolve(HeadRef); err == nil {
		t.Fatal("commit in one repository is visible in another")
	}
	if b.Store.Has(ca) {
		t.Fatal("object written to the wrong store")
	}
}
