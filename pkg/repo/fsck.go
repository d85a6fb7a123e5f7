package repo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/odvcencio/twig/pkg/object"
)

// FsckReport summarizes a repository consistency check.
type FsckReport struct {
	Objects     *object.VerifySummary
	Refs        int
	Reachable   int
	Unreachable int
	Missing     []object.Hash // referenced from a ref but absent from the store
	BrokenRefs  []string      // refs that do not resolve, with the reason
}

// OK reports whether the check found no problems.
func (rep *FsckReport) OK() bool {
	return len(rep.Missing) == 0 && len(rep.BrokenRefs) == 0
}

// Fsck verifies every stored object, checks that every ref and HEAD
// resolves, and that every object reachable from them is present.
// A corrupt object aborts the check with an error; missing objects and
// broken refs are collected in the report.
func (r *Repo) Fsck() (*FsckReport, error) {
	summary, err := r.Store.Verify()
	if err != nil {
		return nil, fmt.Errorf("fsck: %w", err)
	}
	rep := &FsckReport{Objects: summary}

	var roots []object.Hash
	if h, err := r.Resolve(HeadRef); err == nil {
		roots = append(roots, h)
	} else if !errors.Is(err, ErrNoCommitsYet) {
		rep.BrokenRefs = append(rep.BrokenRefs, fmt.Sprintf("%s: %v", HeadRef, err))
	}

	for ref, err := range r.IterRefs("") {
		if err != nil {
			if ref.Name == "" {
				return nil, fmt.Errorf("fsck: %w", err)
			}
			rep.Refs++
			rep.BrokenRefs = append(rep.BrokenRefs, fmt.Sprintf("%s: %v", ref.Name, err))
			continue
		}
		rep.Refs++
		h, err := r.Resolve(ref.Name)
		if err != nil {
			rep.BrokenRefs = append(rep.BrokenRefs, fmt.Sprintf("%s: %v", ref.Name, err))
			continue
		}
		roots = append(roots, h)
	}

	reachable, missing, err := r.Store.ReachableSet(roots)
	if err != nil {
		return nil, fmt.Errorf("fsck: %w", err)
	}
	rep.Reachable = len(reachable)
	rep.Unreachable = summary.Objects - len(reachable)
	rep.Missing = missing
	return rep, nil
}

// String renders the report the way `twig verify` prints it.
func (rep *FsckReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "objects: %d (blob %d, tree %d, commit %d)\n",
		rep.Objects.Objects,
		rep.Objects.ByType[object.TypeBlob],
		rep.Objects.ByType[object.TypeTree],
		rep.Objects.ByType[object.TypeCommit])
	fmt.Fprintf(&b, "refs: %d\n", rep.Refs)
	fmt.Fprintf(&b, "reachable: %d, unreachable: %d\n", rep.Reachable, rep.Unreachable)
	for _, h := range rep.Missing {
		fmt.Fprintf(&b, "missing object %s\n", h)
	}
	for _, s := range rep.BrokenRefs {
		fmt.Fprintf(&b, "broken ref %s\n", s)
	}
	return b.String()
}
