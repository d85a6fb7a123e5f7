package main

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/klauspost/compress/zstd"
	"github.com/odvcencio/twig/pkg/repo"
)

// runTwig executes the root command with args inside dir and returns the
// combined output.
func runTwig(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()

	prevWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir(%q): %v", dir, err)
	}
	defer func() {
		if err := os.Chdir(prevWD); err != nil {
			t.Fatalf("restore cwd: %v", err)
		}
	}()

	color.NoColor = true
	cmd := newRootCmd()
	cmd.SetArgs(args)

	var output bytes.Buffer
	cmd.SetOut(&output)
	cmd.SetErr(&output)

	err = cmd.Execute()
	return output.String(), err
}

func mustRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := runTwig(t, dir, args...)
	if err != nil {
		t.Fatalf("twig %s: %v\noutput:\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func writeWorkFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile(%s): %v", rel, err)
	}
}

// newWorkspace returns an initialized repository with one commit holding
// a.txt = "one\n".
func newWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	mustRun(t, dir, "init")
	mustRun(t, dir, "config", "user.name", "tester")
	writeWorkFile(t, dir, "a.txt", "one\n")
	mustRun(t, dir, "commit", "-m", "first")
	return dir
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

func TestInitTwiceFails(t *testing.T) {
	dir := t.TempDir()
	out := mustRun(t, dir, "init")
	if !strings.Contains(out, "Initialized empty twig repository") {
		t.Fatalf("init output = %q", out)
	}
	if _, err := runTwig(t, dir, "init"); err == nil {
		t.Fatal("second init succeeded")
	}
}

func TestCommitAndLog(t *testing.T) {
	dir := newWorkspace(t)
	writeWorkFile(t, dir, "a.txt", "two\n")
	out := mustRun(t, dir, "commit", "second", "change")
	if !strings.Contains(out, "[main ") || !strings.Contains(out, "second change") {
		t.Fatalf("commit output = %q", out)
	}

	lines := nonEmptyLines(mustRun(t, dir, "log", "--oneline"))
	if len(lines) != 2 {
		t.Fatalf("log lines = %q, want 2", lines)
	}
	if !strings.Contains(lines[0], "(HEAD -> main)") || !strings.HasSuffix(lines[0], "second change") {
		t.Fatalf("first log line = %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], " first") || strings.Contains(lines[1], "(") {
		t.Fatalf("second log line = %q", lines[1])
	}

	full := mustRun(t, dir, "log", "-n", "1")
	if !strings.Contains(full, "Author: tester") || strings.Contains(full, "first") {
		t.Fatalf("log -n 1 = %q", full)
	}
}

func TestCommitRequiresMessage(t *testing.T) {
	dir := newWorkspace(t)
	if _, err := runTwig(t, dir, "commit"); err == nil {
		t.Fatal("commit without a message succeeded")
	}
}

func TestStatusReportsChanges(t *testing.T) {
	dir := newWorkspace(t)
	out := mustRun(t, dir, "status")
	if !strings.Contains(out, "On branch main") || !strings.Contains(out, "working tree clean") {
		t.Fatalf("clean status = %q", out)
	}

	writeWorkFile(t, dir, "a.txt", "changed\n")
	writeWorkFile(t, dir, "b.txt", "new\n")
	out = mustRun(t, dir, "status")
	for _, want := range []string{"~ modified  a.txt", "+ added     b.txt"} {
		if !strings.Contains(out, want) {
			t.Fatalf("status missing %q:\n%s", want, out)
		}
	}
}

func TestStatusBeforeFirstCommit(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "init")
	writeWorkFile(t, dir, "a.txt", "one\n")
	out := mustRun(t, dir, "status")
	if !strings.Contains(out, "(no commits yet)") || !strings.Contains(out, "a.txt") {
		t.Fatalf("status = %q", out)
	}
}

func TestSwitchBranches(t *testing.T) {
	dir := newWorkspace(t)
	out := mustRun(t, dir, "switch", "-c", "feature")
	if !strings.Contains(out, "Switched to branch 'feature'") {
		t.Fatalf("switch -c output = %q", out)
	}
	writeWorkFile(t, dir, "feature.txt", "f\n")
	mustRun(t, dir, "commit", "-m", "feature work")

	mustRun(t, dir, "switch", "main")
	if _, err := os.Stat(filepath.Join(dir, "feature.txt")); !os.IsNotExist(err) {
		t.Fatalf("feature.txt still present after switching to main: %v", err)
	}

	branches := mustRun(t, dir, "branch")
	if !strings.Contains(branches, "  feature ") || !strings.Contains(branches, "* main ") {
		t.Fatalf("branch list = %q", branches)
	}
}

func TestSwitchRefusesDirtyTree(t *testing.T) {
	dir := newWorkspace(t)
	mustRun(t, dir, "branch", "other")
	writeWorkFile(t, dir, "a.txt", "dirty\n")

	_, err := runTwig(t, dir, "switch", "other")
	if !errors.Is(err, repo.ErrUncommittedChanges) {
		t.Fatalf("switch err = %v, want ErrUncommittedChanges", err)
	}
	if hint := errorHint(err); hint == "" {
		t.Fatal("no hint for uncommitted changes")
	}
}

func TestSwitchDetachedAtTag(t *testing.T) {
	dir := newWorkspace(t)
	mustRun(t, dir, "tag", "v1")
	writeWorkFile(t, dir, "a.txt", "two\n")
	mustRun(t, dir, "commit", "-m", "second")

	out := mustRun(t, dir, "switch", "v1")
	if !strings.Contains(out, "(detached)") {
		t.Fatalf("switch v1 output = %q", out)
	}
	status := mustRun(t, dir, "status")
	if !strings.Contains(status, "HEAD detached at") {
		t.Fatalf("status = %q", status)
	}
	got, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "one\n" {
		t.Fatalf("a.txt = %q, want %q", got, "one\n")
	}
}

func TestTagListAndDelete(t *testing.T) {
	dir := newWorkspace(t)
	mustRun(t, dir, "tag", "v1")
	if _, err := runTwig(t, dir, "tag", "v1"); err == nil {
		t.Fatal("re-creating a tag without -f succeeded")
	}
	mustRun(t, dir, "tag", "-f", "v1")
	if out := mustRun(t, dir, "tag"); !strings.HasPrefix(out, "v1 ") {
		t.Fatalf("tag list = %q", out)
	}
	mustRun(t, dir, "tag", "-d", "v1")
	if out := mustRun(t, dir, "tag"); out != "" {
		t.Fatalf("tag list after delete = %q", out)
	}
}

func TestHashAndCatObject(t *testing.T) {
	dir := newWorkspace(t)
	writeWorkFile(t, dir, "loose.txt", "loose\n")

	dry := strings.TrimSpace(mustRun(t, dir, "hash-object", "-n", "loose.txt"))
	stored := strings.TrimSpace(mustRun(t, dir, "hash-object", "loose.txt"))
	if dry != stored || len(stored) != 64 {
		t.Fatalf("hash-object: dry=%q stored=%q", dry, stored)
	}

	if got := mustRun(t, dir, "cat-object", stored); got != "loose\n" {
		t.Fatalf("cat-object = %q", got)
	}
	if got := strings.TrimSpace(mustRun(t, dir, "cat-object", "-t", stored[:12])); got != "blob" {
		t.Fatalf("cat-object -t = %q", got)
	}
	if got := mustRun(t, dir, "cat-object", "HEAD:a.txt"); got != "one\n" {
		t.Fatalf("cat-object HEAD:a.txt = %q", got)
	}
	pretty := mustRun(t, dir, "cat-object", "-p", "HEAD")
	if !strings.HasPrefix(pretty, "tree ") || !strings.Contains(pretty, "author    tester") {
		t.Fatalf("cat-object -p HEAD = %q", pretty)
	}
}

func TestWriteTreeAndReadTree(t *testing.T) {
	dir := newWorkspace(t)
	tree := strings.TrimSpace(mustRun(t, dir, "write-tree"))

	writeWorkFile(t, dir, "a.txt", "scribble\n")
	writeWorkFile(t, dir, "extra.txt", "x\n")
	mustRun(t, dir, "read-tree", tree)

	got, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "one\n" {
		t.Fatalf("a.txt = %q", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "extra.txt")); !os.IsNotExist(err) {
		t.Fatalf("extra.txt not removed: %v", err)
	}
}

func TestDiffCommand(t *testing.T) {
	dir := newWorkspace(t)
	writeWorkFile(t, dir, "a.txt", "two\n")

	out := mustRun(t, dir, "diff")
	for _, want := range []string{"--- a/a.txt", "+++ b/a.txt", "-one", "+two"} {
		if !strings.Contains(out, want) {
			t.Fatalf("diff missing %q:\n%s", want, out)
		}
	}

	first := strings.Fields(mustRun(t, dir, "log", "--oneline"))[0]
	mustRun(t, dir, "commit", "-m", "second")
	stat := mustRun(t, dir, "diff", "--stat", first)
	if !strings.Contains(stat, "a.txt | 2 +-") || !strings.Contains(stat, "1 file(s) changed") {
		t.Fatalf("diff --stat = %q", stat)
	}
}

func TestShowCommit(t *testing.T) {
	dir := newWorkspace(t)
	writeWorkFile(t, dir, "a.txt", "two\n")
	mustRun(t, dir, "commit", "-m", "second")

	out := mustRun(t, dir, "show")
	for _, want := range []string{"commit ", "    second", "-one", "+two"} {
		if !strings.Contains(out, want) {
			t.Fatalf("show missing %q:\n%s", want, out)
		}
	}
	header := mustRun(t, dir, "show", "-s")
	if strings.Contains(header, "+two") {
		t.Fatalf("show -s printed a patch:\n%s", header)
	}
}

func TestResetCommand(t *testing.T) {
	dir := newWorkspace(t)
	first := strings.TrimSpace(mustRun(t, dir, "log", "--oneline"))
	firstShort := strings.Fields(first)[0]

	writeWorkFile(t, dir, "a.txt", "two\n")
	mustRun(t, dir, "commit", "-m", "second")

	out := mustRun(t, dir, "reset", firstShort)
	if !strings.Contains(out, "HEAD is now at "+firstShort) {
		t.Fatalf("reset output = %q", out)
	}
	got, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "one\n" {
		t.Fatalf("a.txt after reset = %q", got)
	}
}

func TestArchiveCommand(t *testing.T) {
	dir := newWorkspace(t)
	writeWorkFile(t, dir, "sub/b.txt", "bee\n")
	mustRun(t, dir, "commit", "-m", "second")

	outPath := filepath.Join(t.TempDir(), "snap.tar.zst")
	mustRun(t, dir, "archive", "-o", outPath, "--prefix", "proj", "--level", "fastest")

	f, err := os.Open(outPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatal(err)
	}
	defer dec.Close()

	files := map[string]string{}
	tr := tar.NewReader(dec)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("tar: %v", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			t.Fatal(err)
		}
		files[hdr.Name] = string(data)
	}
	want := map[string]string{"proj/a.txt": "one\n", "proj/sub/b.txt": "bee\n"}
	if fmt.Sprint(files) != fmt.Sprint(want) {
		t.Fatalf("archive files = %v, want %v", files, want)
	}
}

func TestVerifyCommand(t *testing.T) {
	dir := newWorkspace(t)
	out := mustRun(t, dir, "verify")
	if !strings.Contains(out, "objects: 3 (blob 1, tree 1, commit 1)") {
		t.Fatalf("verify output = %q", out)
	}
	if out := mustRun(t, dir, "verify", "-q"); out != "" {
		t.Fatalf("verify -q output = %q", out)
	}

	// Remove the only blob so the commit's tree is incomplete.
	blob := strings.TrimSpace(mustRun(t, dir, "hash-object", "-n", "a.txt"))
	if err := os.Remove(filepath.Join(dir, repo.DirName, "objects", blob)); err != nil {
		t.Fatal(err)
	}
	out, err := runTwig(t, dir, "verify")
	if err == nil {
		t.Fatalf("verify succeeded on a broken repository:\n%s", out)
	}
	if !strings.Contains(out, "missing object "+blob) {
		t.Fatalf("verify output = %q", out)
	}
}

func TestConfigCommand(t *testing.T) {
	dir := newWorkspace(t)
	if got := strings.TrimSpace(mustRun(t, dir, "config", "user.name")); got != "tester" {
		t.Fatalf("user.name = %q", got)
	}
	mustRun(t, dir, "config", "reset.allow_non_ancestor", "true")
	list := mustRun(t, dir, "config", "--list")
	if !strings.Contains(list, "reset.allow_non_ancestor=true\n") {
		t.Fatalf("config list = %q", list)
	}
	if _, err := runTwig(t, dir, "config", "no.such.key", "x"); err == nil {
		t.Fatal("setting an unknown key succeeded")
	}
}

// syncBuffer lets the watch loop write while the test reads.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchStatusReprintsOnChange(t *testing.T) {
	dir := newWorkspace(t)
	color.NoColor = true
	r, err := repo.Open(dir)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out syncBuffer
	done := make(chan error, 1)
	go func() { done <- watchStatus(ctx, r, &out, false) }()

	waitFor := func(want string) {
		t.Helper()
		deadline := time.Now().Add(5 * time.Second)
		for time.Now().Before(deadline) {
			if strings.Contains(out.String(), want) {
				return
			}
			time.Sleep(20 * time.Millisecond)
		}
		t.Fatalf("timed out waiting for %q in:\n%s", want, out.String())
	}

	waitFor("working tree clean")
	writeWorkFile(t, dir, "new.txt", "hello\n")
	waitFor("+ added     new.txt")

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("watchStatus: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watchStatus did not stop after cancel")
	}
}

func TestErrorHint(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{repo.ErrNoCommitsYet, true},
		{fmt.Errorf("reset: %w", repo.ErrNotAncestor), true},
		{repo.ErrRefLocked, true},
		{errors.New("other"), false},
	}
	for _, tc := range tests {
		if got := errorHint(tc.err) != ""; got != tc.want {
			t.Errorf("errorHint(%v) present = %v, want %v", tc.err, got, tc.want)
		}
	}
}
