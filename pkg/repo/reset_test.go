package repo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/odvcencio/twig/pkg/object"
)

func TestReset_MovesBranchAndWorktree(t *testing.T) {
	r := initRepo(t)
	writeFile(t, r, "a.txt", "1\n")
	c1 := commit(t, r, "first")
	writeFile(t, r, "a.txt", "2\n")
	writeFile(t, r, "b.txt", "added later\n")
	commit(t, r, "second")

	got, err := r.Reset(string(c1))
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if got != c1 {
		t.Fatalf("Reset returned %s, want %s", got, c1)
	}
	if h := mustResolve(t, r, "refs/heads/main"); h != c1 {
		t.Fatalf("main = %s, want %s", h, c1)
	}
	if head, _ := r.Head(); !head.IsSymbolic() {
		t.Fatal("Reset detached HEAD")
	}
	if got := readFile(t, r, "a.txt"); got != "1\n" {
		t.Fatalf("a.txt = %q", got)
	}
	if fileExists(r, "b.txt") {
		t.Fatal("b.txt survived reset")
	}
}

func TestReset_RefusesNonAncestor(t *testing.T) {
	r := initRepo(t)
	writeFile(t, r, "a.txt", "1\n")
	c1 := commit(t, r, "first")
	if err := r.CreateBranch("side", c1); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	if _, err := r.Switch("side"); err != nil {
		t.Fatalf("Switch(side): %v", err)
	}
	writeFile(t, r, "side.txt", "side\n")
	side := commit(t, r, "side work")
	if _, err := r.Switch("main"); err != nil {
		t.Fatalf("Switch(main): %v", err)
	}

	_, err := r.Reset(string(side))
	expectErr(t, err, ErrNotAncestor)
	if h := mustResolve(t, r, "refs/heads/main"); h != c1 {
		t.Fatalf("main moved to %s", h)
	}

	if err := r.SetConfigValue("reset.allow_non_ancestor", "true"); err != nil {
		t.Fatalf("SetConfigValue: %v", err)
	}
	if _, err := r.Reset(string(side)); err != nil {
		t.Fatalf("Reset with allow_non_ancestor: %v", err)
	}
	if h := mustResolve(t, r, "refs/heads/main"); h != side {
		t.Fatalf("main = %s, want %s", h, side)
	}
	if got := readFile(t, r, "side.txt"); got != "side\n" {
		t.Fatalf("side.txt = %q", got)
	}
}

func TestReset_RefusesDirtyWorktree(t *testing.T) {
	r := initRepo(t)
	writeFile(t, r, "a.txt", "1\n")
	c1 := commit(t, r, "first")
	writeFile(t, r, "a.txt", "2\n")
	c2 := commit(t, r, "second")

	writeFile(t, r, "a.txt", "uncommitted\n")
	_, err := r.Reset(string(c1))
	expectErr(t, err, ErrUncommittedChanges)
	if h := mustResolve(t, r, "refs/heads/main"); h != c2 {
		t.Fatalf("main moved to %s", h)
	}
	if got := readFile(t, r, "a.txt"); got != "uncommitted\n" {
		t.Fatalf("a.txt = %q", got)
	}
}

func TestReset_DetachedHead(t *testing.T) {
	r := initRepo(t)
	writeFile(t, r, "a.txt", "1\n")
	c1 := commit(t, r, "first")
	writeFile(t, r, "a.txt", "2\n")
	c2 := commit(t, r, "second")

	if _, err := r.Switch(string(c2)); err != nil {
		t.Fatalf("Switch: %v", err)
	}
	if _, err := r.Reset(string(c1)); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	head, err := r.Head()
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	if head.IsSymbolic() || head.Hash != c1 {
		t.Fatalf("HEAD = %+v, want detached at %s", head, c1)
	}
	if h := mustResolve(t, r, "refs/heads/main"); h != c2 {
		t.Fatalf("main = %s, want unchanged %s", h, c2)
	}
}

func TestReset_NoCommits(t *testing.T) {
	r := initRepo(t)
	_, err := r.Reset("HEAD")
	expectErr(t, err, ErrNoCommitsYet)
}

func TestReset_LockedRefLeavesWorktree(t *testing.T) {
	r := initRepo(t)
	writeFile(t, r, "a.txt", "1\n")
	c1 := commit(t, r, "first")
	writeFile(t, r, "a.txt", "2\n")
	c2 := commit(t, r, "second")

	lock := filepath.Join(r.TwigDir, "refs", "heads", "main.lock")
	if err := os.WriteFile(lock, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := r.Reset(string(c1))
	expectErr(t, err, ErrRefLocked)
	if got := readFile(t, r, "a.txt"); got != "2\n" {
		t.Fatalf("a.txt = %q after failed reset", got)
	}
	if h := mustResolve(t, r, "refs/heads/main"); h != c2 {
		t.Fatalf("main = %s, want %s", h, c2)
	}
}

func TestReset_UnreadableTargetRestoresRef(t *testing.T) {
	r := initRepo(t)
	writeFile(t, r, "a.txt", "only in first\n")
	c1 := commit(t, r, "first")
	writeFile(t, r, "a.txt", "2\n")
	c2 := commit(t, r, "second")

	blob := object.HashObject(object.TypeBlob, []byte("only in first\n"))
	if err := os.Remove(filepath.Join(r.TwigDir, "objects", string(blob))); err != nil {
		t.Fatal(err)
	}

	_, err := r.Reset(string(c1))
	expectErr(t, err, object.ErrObjectNotFound)
	if h := mustResolve(t, r, "refs/heads/main"); h != c2 {
		t.Fatalf("main = %s after failed reset, want %s", h, c2)
	}
	if got := readFile(t, r, "a.txt"); got != "2\n" {
		t.Fatalf("a.txt = %q after failed reset", got)
	}
}
