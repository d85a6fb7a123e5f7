package repo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/odvcencio/twig/pkg/object"
)

// RevisionKind records how a user-supplied name was resolved.
type RevisionKind int

const (
	RevisionHead   RevisionKind = iota // "HEAD"
	RevisionBranch                     // a name under refs/heads/
	RevisionTag                        // a name under refs/tags/
	RevisionRef                        // any other full ref name
	RevisionHash                       // a full or abbreviated object hash
)

// Revision is the result of ResolveRevision.
type Revision struct {
	Input   string
	Kind    RevisionKind
	RefName string // full ref name for every kind except RevisionHash
	Hash    object.Hash
}

// BranchName returns the short branch name when the revision named a
// branch, or "".
func (rev Revision) BranchName() string {
	if rev.Kind != RevisionBranch {
		return ""
	}
	return strings.TrimPrefix(rev.RefName, BranchPrefix)
}

// minAbbrevLen is the shortest hash prefix accepted as a revision.
const minAbbrevLen = 4

// ResolveRevision turns a user-supplied name into an object hash.
//
// Resolution order:
//  1. "HEAD".
//  2. A full ref name starting with "refs/".
//  3. A branch or tag short name. A name that exists as both is
//     ErrAmbiguousReference.
//  4. A full hash or a unique hash prefix of at least 4 hex characters.
//     A prefix matching several objects is ErrAmbiguousReference.
func (r *Repo) ResolveRevision(spec string) (Revision, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Revision{}, fmt.Errorf("resolve revision: empty name: %w", ErrRefNotFound)
	}
	rev := Revision{Input: spec}

	if spec == HeadRef {
		h, err := r.Resolve(HeadRef)
		if err != nil {
			return Revision{}, err
		}
		rev.Kind, rev.RefName, rev.Hash = RevisionHead, HeadRef, h
		return rev, nil
	}

	if strings.HasPrefix(spec, RefsPrefix) {
		h, err := r.Resolve(spec)
		if err != nil {
			return Revision{}, fmt.Errorf("resolve revision %q: %w", spec, err)
		}
		rev.Kind, rev.RefName, rev.Hash = RevisionRef, spec, h
		switch {
		case strings.HasPrefix(spec, BranchPrefix):
			rev.Kind = RevisionBranch
		case strings.HasPrefix(spec, TagPrefix):
			rev.Kind = RevisionTag
		}
		return rev, nil
	}

	branchRef, tagRef := BranchPrefix+spec, TagPrefix+spec
	_, branchErr := r.GetRef(branchRef)
	_, tagErr := r.GetRef(tagRef)
	hasBranch, hasTag := branchErr == nil, tagErr == nil
	switch {
	case hasBranch && hasTag:
		return Revision{}, fmt.Errorf("resolve revision %q: %w: matches branch %s and tag %s", spec, ErrAmbiguousReference, branchRef, tagRef)
	case hasBranch:
		h, err := r.Resolve(branchRef)
		if err != nil {
			return Revision{}, fmt.Errorf("resolve revision %q: %w", spec, err)
		}
		rev.Kind, rev.RefName, rev.Hash = RevisionBranch, branchRef, h
		return rev, nil
	case hasTag:
		h, err := r.Resolve(tagRef)
		if err != nil {
			return Revision{}, fmt.Errorf("resolve revision %q: %w", spec, err)
		}
		rev.Kind, rev.RefName, rev.Hash = RevisionTag, tagRef, h
		return rev, nil
	}

	prefix := strings.ToLower(spec)
	if len(prefix) >= minAbbrevLen && object.IsHexPrefix(prefix) {
		h, err := r.Store.ResolvePrefix(prefix)
		switch {
		case err == nil:
			rev.Kind, rev.Hash = RevisionHash, h
			return rev, nil
		case errors.Is(err, object.ErrAmbiguousPrefix):
			return Revision{}, fmt.Errorf("resolve revision %q: %w: %w", spec, ErrAmbiguousReference, err)
		case !errors.Is(err, object.ErrObjectNotFound):
			return Revision{}, fmt.Errorf("resolve revision %q: %w", spec, err)
		}
		return Revision{}, fmt.Errorf("resolve revision %q: %w", spec, object.ErrObjectNotFound)
	}

	return Revision{}, fmt.Errorf("resolve revision %q: unknown branch, tag or object: %w", spec, ErrRefNotFound)
}

// ResolveCommit resolves spec like ResolveRevision and checks that the
// result is a commit.
func (r *Repo) ResolveCommit(spec string) (Revision, error) {
	rev, err := r.ResolveRevision(spec)
	if err != nil {
		return Revision{}, err
	}
	objType, err := r.Store.Inspect(rev.Hash)
	if err != nil {
		return Revision{}, fmt.Errorf("resolve commit %q: %w", spec, err)
	}
	if objType != object.TypeCommit {
		return Revision{}, fmt.Errorf("resolve commit %q: %w (%s is a %s)", spec, ErrNotCommit, rev.Hash.Short(), objType)
	}
	return rev, nil
}

// ResolveObject resolves spec like ResolveRevision and additionally accepts
// "<rev>:<path>", naming the blob or tree at path inside the commit rev.
// An empty path names the commit's root tree.
func (r *Repo) ResolveObject(spec string) (object.Hash, error) {
	revPart, pathPart, hasPath := strings.Cut(spec, ":")
	if !hasPath {
		rev, err := r.ResolveRevision(spec)
		if err != nil {
			return "", err
		}
		return rev.Hash, nil
	}

	rev, err := r.ResolveCommit(revPart)
	if err != nil {
		return "", err
	}
	treeHash, err := r.commitTree(rev.Hash)
	if err != nil {
		return "", fmt.Errorf("resolve object %q: %w", spec, err)
	}
	pathPart = strings.Trim(pathPart, "/")
	if pathPart == "" {
		return treeHash, nil
	}
	entry, found, err := r.treeEntryAtPath(treeHash, pathPart)
	if err != nil {
		return "", fmt.Errorf("resolve object %q: %w", spec, err)
	}
	if !found {
		return "", fmt.Errorf("resolve object %q: path not in %s: %w", spec, rev.Hash.Short(), object.ErrObjectNotFound)
	}
	return entry.Hash, nil
}
