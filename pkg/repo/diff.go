package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/odvcencio/twig/pkg/diff"
	"github.com/odvcencio/twig/pkg/object"
)

// Diff returns the files that differ between the HEAD tree and the working
// tree, with both revisions' bytes, sorted by path.
func (r *Repo) Diff() ([]*diff.FileDiff, error) {
	head, work, err := r.worktreeSnapshots()
	if err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}

	var out []*diff.FileDiff
	for _, e := range Changes(compareSnapshots(head.Files, work.Files)) {
		fd, err := r.fileDiff(e, func(p string) ([]byte, error) {
			abs := filepath.Join(r.RootDir, filepath.FromSlash(p))
			data, err := os.ReadFile(abs)
			if err != nil {
				return nil, object.WrapIO("read", abs, err)
			}
			return data, nil
		})
		if err != nil {
			return nil, fmt.Errorf("diff: %w", err)
		}
		out = append(out, fd)
	}
	return out, nil
}

// DiffCommits compares the trees of two commits. An empty from compares
// against an empty tree, which is how a root commit is shown.
func (r *Repo) DiffCommits(from, to object.Hash) ([]*diff.FileDiff, error) {
	before := newTreeSnapshot()
	if from != "" {
		treeHash, err := r.commitTree(from)
		if err != nil {
			return nil, fmt.Errorf("diff commits: %w", err)
		}
		if before, err = r.snapshotTree(treeHash); err != nil {
			return nil, fmt.Errorf("diff commits: %w", err)
		}
	}
	treeHash, err := r.commitTree(to)
	if err != nil {
		return nil, fmt.Errorf("diff commits: %w", err)
	}
	after, err := r.snapshotTree(treeHash)
	if err != nil {
		return nil, fmt.Errorf("diff commits: %w", err)
	}

	var out []*diff.FileDiff
	for _, e := range Changes(compareSnapshots(before.Files, after.Files)) {
		fd, err := r.fileDiff(e, nil)
		if err != nil {
			return nil, fmt.Errorf("diff commits: %w", err)
		}
		out = append(out, fd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// fileDiff loads both revisions of a changed path. The new revision comes
// from readWork when given, otherwise from the store.
func (r *Repo) fileDiff(e StatusEntry, readWork func(string) ([]byte, error)) (*diff.FileDiff, error) {
	fd := &diff.FileDiff{Path: e.Path}
	switch e.Status {
	case StatusAdded:
		fd.Type = diff.Added
	case StatusDeleted:
		fd.Type = diff.Removed
	case StatusModified:
		fd.Type = diff.Modified
	default:
		return nil, fmt.Errorf("unchanged path %q", e.Path)
	}

	if e.HeadHash != "" {
		blob, err := r.Store.ReadBlob(e.HeadHash)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", e.Path, err)
		}
		fd.Before = blob.Data
	}
	if e.WorkHash != "" {
		if readWork != nil {
			data, err := readWork(e.Path)
			if err != nil {
				return nil, err
			}
			fd.After = data
		} else {
			blob, err := r.Store.ReadBlob(e.WorkHash)
			if err != nil {
				return nil, fmt.Errorf("%q: %w", e.Path, err)
			}
			fd.After = blob.Data
		}
	}
	return fd, nil
}
