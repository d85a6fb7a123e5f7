package repo

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrRefNotFound        = errors.New("ref not found")
	ErrDanglingRef        = errors.New("dangling symbolic ref")
	ErrRefCycle           = errors.New("symbolic ref cycle")
	ErrNoCommitsYet       = errors.New("no commits yet")
	ErrUncommittedChanges = errors.New("uncommitted changes")
	ErrAmbiguousReference = errors.New("ambiguous reference")
	ErrUnsupportedEntry   = errors.New("unsupported working tree entry")
	ErrNotAncestor        = errors.New("target is not an ancestor of HEAD")
	ErrNotCommit          = errors.New("object is not a commit")
	ErrInvalidRefName     = errors.New("invalid ref name")
	ErrRefExists          = errors.New("ref already exists")
	ErrRefLocked          = errors.New("ref is locked")
	ErrRefCASMismatch     = errors.New("ref compare-and-swap mismatch")
)

// UncommittedChangesError lists the paths that differ from HEAD when an
// operation refuses to overwrite the working tree.
type UncommittedChangesError struct {
	Paths []string
}

func (e *UncommittedChangesError) Error() string {
	if e == nil {
		return "<nil>"
	}
	const maxShown = 5
	shown := e.Paths
	suffix := ""
	if len(shown) > maxShown {
		suffix = fmt.Sprintf(" (and %d more)", len(shown)-maxShown)
		shown = shown[:maxShown]
	}
	return fmt.Sprintf("%s: %s%s", ErrUncommittedChanges, strings.Join(shown, ", "), suffix)
}

func (e *UncommittedChangesError) Is(target error) bool {
	return target == ErrUncommittedChanges
}
