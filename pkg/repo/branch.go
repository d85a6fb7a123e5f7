package repo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/odvcencio/twig/pkg/object"
)

// CreateBranch creates refs/heads/<name> pointing at target, which must be
// a stored commit. It fails with ErrRefExists if the branch is present.
func (r *Repo) CreateBranch(name string, target object.Hash) error {
	refName := BranchPrefix + strings.TrimSpace(name)
	if err := r.requireCommit(target); err != nil {
		return fmt.Errorf("create branch %q: %w", name, err)
	}
	if err := r.UpdateRefCAS(refName, target, ""); err != nil {
		if errors.Is(err, ErrRefCASMismatch) {
			return fmt.Errorf("create branch: %w: %q", ErrRefExists, name)
		}
		return fmt.Errorf("create branch %q: %w", name, err)
	}
	return nil
}

// DeleteBranch removes refs/heads/<name>. The current branch cannot be
// deleted.
func (r *Repo) DeleteBranch(name string) error {
	current, err := r.CurrentBranch()
	if err != nil {
		return fmt.Errorf("delete branch: %w", err)
	}
	if current == name {
		return fmt.Errorf("delete branch: cannot delete current branch %q", name)
	}
	if err := r.DeleteRef(BranchPrefix + name); err != nil {
		return fmt.Errorf("delete branch: %w", err)
	}
	return nil
}

// BranchInfo is one entry of ListBranches.
type BranchInfo struct {
	Name    string
	Hash    object.Hash
	Current bool
}

// ListBranches returns every branch in name order.
func (r *Repo) ListBranches() ([]BranchInfo, error) {
	current, err := r.CurrentBranch()
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	var out []BranchInfo
	for ref, err := range r.IterRefs(BranchPrefix) {
		if err != nil {
			return nil, fmt.Errorf("list branches: %w", err)
		}
		name := strings.TrimPrefix(ref.Name, BranchPrefix)
		h, err := r.Resolve(ref.Name)
		if err != nil {
			return nil, fmt.Errorf("list branches: %w", err)
		}
		out = append(out, BranchInfo{Name: name, Hash: h, Current: name == current})
	}
	return out, nil
}

// CurrentBranch returns the branch name HEAD is attached to, or "" when
// HEAD is detached. An unborn branch is still reported.
func (r *Repo) CurrentBranch() (string, error) {
	head, err := r.Head()
	if err != nil {
		return "", fmt.Errorf("current branch: %w", err)
	}
	if head.IsSymbolic() && strings.HasPrefix(head.Target, BranchPrefix) {
		return strings.TrimPrefix(head.Target, BranchPrefix), nil
	}
	return "", nil
}

// requireCommit checks that h names a stored commit.
func (r *Repo) requireCommit(h object.Hash) error {
	objType, err := r.Store.Inspect(h)
	if err != nil {
		return err
	}
	if objType != object.TypeCommit {
		return fmt.Errorf("%w (%s is a %s)", ErrNotCommit, h.Short(), objType)
	}
	return nil
}
