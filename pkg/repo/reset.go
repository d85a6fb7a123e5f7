package repo

import (
	"fmt"

	"github.com/odvcencio/twig/pkg/object"
	"github.com/sirupsen/logrus"
)

// Reset moves the ref HEAD points at (the current branch, or HEAD itself
// when detached) to target and rewrites the working tree to match.
//
// Like Switch it refuses with ErrUncommittedChanges on a dirty working
// tree. The ref is moved first; if the tree cannot be written it is moved
// back. The target must be HEAD or one of its ancestors, otherwise
// ErrNotAncestor is returned, unless reset.allow_non_ancestor is set.
func (r *Repo) Reset(target string) (object.Hash, error) {
	rev, err := r.ResolveCommit(target)
	if err != nil {
		return "", fmt.Errorf("reset: %w", err)
	}
	refName, headHash, err := r.resolveChain(HeadRef)
	if err != nil {
		return "", fmt.Errorf("reset: %w", err)
	}
	if err := r.ensureClean(); err != nil {
		return "", fmt.Errorf("reset: %w", err)
	}

	cfg, err := r.ReadConfig()
	if err != nil {
		return "", fmt.Errorf("reset: %w", err)
	}
	if !cfg.Reset.AllowNonAncestor {
		ok, err := r.IsAncestor(rev.Hash, headHash)
		if err != nil {
			return "", fmt.Errorf("reset: %w", err)
		}
		if !ok {
			return "", fmt.Errorf("reset: %w: %s is not in the history of %s", ErrNotAncestor, rev.Hash.Short(), headHash.Short())
		}
	}

	treeHash, err := r.commitTree(rev.Hash)
	if err != nil {
		return "", fmt.Errorf("reset: %w", err)
	}
	tracked, err := r.headSnapshot()
	if err != nil {
		return "", fmt.Errorf("reset: %w", err)
	}
	// Move the ref before touching files: a locked or concurrently moved
	// ref must leave the working tree as it was.
	if err := r.UpdateRefCAS(refName, rev.Hash, headHash); err != nil {
		return "", fmt.Errorf("reset: update ref %q: %w", refName, err)
	}
	if err := r.materialize(treeHash, r.RootDir, tracked); err != nil {
		if rerr := r.UpdateRefCAS(refName, headHash, rev.Hash); rerr != nil {
			return "", fmt.Errorf("reset: %w (restoring %q also failed: %v)", err, refName, rerr)
		}
		return "", fmt.Errorf("reset: %w", err)
	}

	r.Log.WithFields(logrus.Fields{"ref": refName, "from": headHash.Short(), "to": rev.Hash.Short()}).Debug("reset")
	return rev.Hash, nil
}
