package repo

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/odvcencio/twig/pkg/object"
)

func TestFsck_Healthy(t *testing.T) {
	r := initRepo(t)
	writeFile(t, r, "a.txt", "a\n")
	writeFile(t, r, "d/b.txt", "b\n")
	commit(t, r, "first")
	if _, err := r.Store.WriteBlob(&object.Blob{Data: []byte("dangling")}); err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}

	rep, err := r.Fsck()
	if err != nil {
		t.Fatalf("Fsck: %v", err)
	}
	if !rep.OK() {
		t.Fatalf("Fsck reported problems: %s", rep)
	}
	// commit, root tree, d tree, two blobs, plus one unreachable blob.
	if rep.Objects.Objects != 6 || rep.Reachable != 5 || rep.Unreachable != 1 {
		t.Fatalf("report = %+v", rep)
	}
	if rep.Refs != 1 {
		t.Fatalf("refs = %d, want 1", rep.Refs)
	}
	if !strings.Contains(rep.String(), "objects: 6 (blob 3, tree 2, commit 1)") {
		t.Fatalf("String() = %q", rep.String())
	}
}

func TestFsck_BrokenRefAndMissingObject(t *testing.T) {
	r := initRepo(t)
	writeFile(t, r, "a.txt", "a\n")
	commit(t, r, "first")

	if err := r.SetRef("refs/tags/dangling", Symbolic("refs/heads/nowhere")); err != nil {
		t.Fatalf("SetRef: %v", err)
	}
	if err := r.SetRef("refs/tags/ghost", Direct(fakeHash(5))); err != nil {
		t.Fatalf("SetRef: %v", err)
	}

	rep, err := r.Fsck()
	if err != nil {
		t.Fatalf("Fsck: %v", err)
	}
	if rep.OK() {
		t.Fatal("Fsck reported OK")
	}
	if len(rep.BrokenRefs) != 1 || !strings.HasPrefix(rep.BrokenRefs[0], "refs/tags/dangling") {
		t.Fatalf("BrokenRefs = %v", rep.BrokenRefs)
	}
	if len(rep.Missing) != 1 || rep.Missing[0] != fakeHash(5) {
		t.Fatalf("Missing = %v", rep.Missing)
	}
}

func TestFsck_CorruptObject(t *testing.T) {
	r := initRepo(t)
	h, err := r.Store.WriteBlob(&object.Blob{Data: []byte("original")})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	path := filepath.Join(r.TwigDir, "objects", string(h))
	if err := os.Chmod(path, 0o644); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	if err := os.WriteFile(path, []byte("blob 8\x00tampered"), 0o644); err != nil {
		t.Fatalf("tamper: %v", err)
	}
	_, err = r.Fsck()
	if !errors.Is(err, object.ErrCorruptObject) {
		t.Fatalf("Fsck error = %v, want ErrCorruptObject", err)
	}
}
