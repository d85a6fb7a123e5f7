package repo

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/odvcencio/twig/pkg/object"
)

// FileStatus classifies a path of the working tree against HEAD.
type FileStatus int

const (
	StatusUnmodified FileStatus = iota // same content in HEAD and working tree
	StatusModified                     // content differs
	StatusAdded                        // in working tree, not in HEAD
	StatusDeleted                      // in HEAD, not in working tree
)

func (s FileStatus) String() string {
	switch s {
	case StatusUnmodified:
		return "unmodified"
	case StatusModified:
		return "modified"
	case StatusAdded:
		return "added"
	case StatusDeleted:
		return "deleted"
	default:
		return fmt.Sprintf("FileStatus(%d)", int(s))
	}
}

// StatusEntry records the status of a single file.
type StatusEntry struct {
	Path     string // repo-relative, slash-separated
	Status   FileStatus
	HeadHash object.Hash // empty when added
	WorkHash object.Hash // empty when deleted
}

// Status compares every non-ignored file of the working tree against the
// tree of HEAD and returns one entry per path, sorted by path. Files HEAD
// tracks are compared even when an ignore pattern now matches them. Before
// the first commit HEAD counts as an empty tree. Nothing is written.
func (r *Repo) Status() ([]StatusEntry, error) {
	head, work, err := r.worktreeSnapshots()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	return compareSnapshots(head.Files, work.Files), nil
}

// worktreeSnapshots returns the HEAD snapshot and a hash-only snapshot of
// the working tree.
func (r *Repo) worktreeSnapshots() (head, work *treeSnapshot, err error) {
	head, err = r.headSnapshot()
	if err != nil {
		return nil, nil, err
	}
	_, work, err = r.scanWorktree(head)
	if err != nil {
		return nil, nil, err
	}
	return head, work, nil
}

// Changes returns only the entries of Status that are not unmodified.
func Changes(entries []StatusEntry) []StatusEntry {
	var out []StatusEntry
	for _, e := range entries {
		if e.Status != StatusUnmodified {
			out = append(out, e)
		}
	}
	return out
}

// headSnapshot flattens the tree of HEAD, or returns an empty snapshot
// when there are no commits yet.
func (r *Repo) headSnapshot() (*treeSnapshot, error) {
	h, err := r.Resolve(HeadRef)
	if errors.Is(err, ErrNoCommitsYet) {
		return newTreeSnapshot(), nil
	}
	if err != nil {
		return nil, err
	}
	treeHash, err := r.commitTree(h)
	if err != nil {
		return nil, fmt.Errorf("read HEAD commit: %w", err)
	}
	return r.snapshotTree(treeHash)
}

func compareSnapshots(before, after map[string]object.Hash) []StatusEntry {
	out := make([]StatusEntry, 0, len(before)+len(after))
	for p, bh := range before {
		e := StatusEntry{Path: p, HeadHash: bh}
		wh, ok := after[p]
		switch {
		case !ok:
			e.Status = StatusDeleted
		case wh != bh:
			e.Status, e.WorkHash = StatusModified, wh
		default:
			e.Status, e.WorkHash = StatusUnmodified, wh
		}
		out = append(out, e)
	}
	for p, wh := range after {
		if _, ok := before[p]; !ok {
			out = append(out, StatusEntry{Path: p, Status: StatusAdded, WorkHash: wh})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// ensureClean fails with an UncommittedChangesError when the working tree
// differs from HEAD. Besides changed files, an empty directory present on
// only one side counts as a change, since commits record empty trees.
func (r *Repo) ensureClean() error {
	head, work, err := r.worktreeSnapshots()
	if err != nil {
		return fmt.Errorf("check status: %w", err)
	}
	var paths []string
	for _, e := range Changes(compareSnapshots(head.Files, work.Files)) {
		paths = append(paths, e.Path)
	}
	paths = append(paths, emptyDirChanges(head, work)...)
	paths = append(paths, emptyDirChanges(work, head)...)
	if len(paths) == 0 {
		return nil
	}
	sort.Strings(paths)
	return &UncommittedChangesError{Paths: paths}
}

// emptyDirChanges lists, with a trailing slash, the directories of a that
// b lacks and that hold no file in a.
func emptyDirChanges(a, b *treeSnapshot) []string {
	var out []string
	for d := range a.Dirs {
		if _, ok := b.Dirs[d]; ok {
			continue
		}
		empty := true
		for f := range a.Files {
			if strings.HasPrefix(f, d+"/") {
				empty = false
				break
			}
		}
		if empty {
			out = append(out, d+"/")
		}
	}
	return out
}
