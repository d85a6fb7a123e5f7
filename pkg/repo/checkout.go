package repo

import (
	"errors"
	"fmt"

	"github.com/odvcencio/twig/pkg/object"
	"github.com/sirupsen/logrus"
)

// Switch moves the working tree and HEAD to target, which may be a branch,
// a tag, a full ref name or a commit hash (full or abbreviated).
//
//  1. Resolve target to a commit.
//  2. Refuse with ErrUncommittedChanges if the working tree differs from
//     HEAD.
//  3. ReadTree the target commit's tree into the working root.
//  4. Attach HEAD to the branch, or detach it at the commit for any other
//     kind of target.
func (r *Repo) Switch(target string) (Revision, error) {
	rev, err := r.ResolveCommit(target)
	if err != nil {
		return Revision{}, fmt.Errorf("switch: %w", err)
	}
	if err := r.ensureClean(); err != nil {
		return Revision{}, fmt.Errorf("switch: %w", err)
	}

	treeHash, err := r.commitTree(rev.Hash)
	if err != nil {
		return Revision{}, fmt.Errorf("switch: %w", err)
	}
	if err := r.ReadTree(treeHash); err != nil {
		return Revision{}, fmt.Errorf("switch: %w", err)
	}

	switch rev.Kind {
	case RevisionHead:
		// Already there.
	case RevisionBranch:
		err = r.SetRef(HeadRef, Symbolic(rev.RefName))
	default:
		err = r.SetRef(HeadRef, Direct(rev.Hash))
	}
	if err != nil {
		return Revision{}, fmt.Errorf("switch: update HEAD: %w", err)
	}

	r.Log.WithFields(logrus.Fields{"target": target, "commit": rev.Hash.Short(), "branch": rev.BranchName()}).Debug("switched")
	return rev, nil
}

// SwitchNew creates branch name at start (HEAD when empty) and switches to
// it. When the new branch points at the current HEAD commit the working
// tree is left untouched, so uncommitted changes carry over. On an unborn
// HEAD with no start, HEAD is simply re-attached to the new name.
func (r *Repo) SwitchNew(name, start string) (Revision, error) {
	refName := BranchPrefix + name
	if err := validateRefName(refName); err != nil {
		return Revision{}, fmt.Errorf("switch: %w", err)
	}

	headHash, err := r.Resolve(HeadRef)
	if err != nil && !errors.Is(err, ErrNoCommitsYet) {
		return Revision{}, fmt.Errorf("switch: %w", err)
	}

	if start == "" {
		if headHash == "" {
			if _, err := r.GetRef(refName); err == nil {
				return Revision{}, fmt.Errorf("switch: %w: %q", ErrRefExists, name)
			}
			if err := r.SetRef(HeadRef, Symbolic(refName)); err != nil {
				return Revision{}, fmt.Errorf("switch: update HEAD: %w", err)
			}
			return Revision{Input: name, Kind: RevisionBranch, RefName: refName}, nil
		}
		start = string(headHash)
	}

	startRev, err := r.ResolveCommit(start)
	if err != nil {
		return Revision{}, fmt.Errorf("switch: %w", err)
	}
	if err := r.CreateBranch(name, startRev.Hash); err != nil {
		return Revision{}, fmt.Errorf("switch: %w", err)
	}

	if startRev.Hash == headHash {
		if err := r.SetRef(HeadRef, Symbolic(refName)); err != nil {
			return Revision{}, fmt.Errorf("switch: update HEAD: %w", err)
		}
		return Revision{Input: name, Kind: RevisionBranch, RefName: refName, Hash: startRev.Hash}, nil
	}
	return r.Switch(refName)
}

// HeadCommit returns the commit HEAD resolves to.
func (r *Repo) HeadCommit() (object.Hash, *object.CommitObj, error) {
	h, err := r.Resolve(HeadRef)
	if err != nil {
		return "", nil, err
	}
	c, err := r.Store.ReadCommit(h)
	if err != nil {
		return "", nil, fmt.Errorf("read HEAD commit: %w", err)
	}
	return h, c, nil
}
