package repo

import (
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/odvcencio/twig/pkg/object"
	"github.com/sirupsen/logrus"
)

// Commit snapshots the working tree and records it as a new commit on top
// of HEAD, using the configured author and the current time.
func (r *Repo) Commit(message string) (object.Hash, error) {
	author, err := r.AuthorName()
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return r.CommitAs(message, author, time.Now())
}

// CommitAs creates a commit with an explicit author and timestamp.
//
//  1. WriteTree of the working root
//  2. Resolve HEAD for the parent (none before the first commit)
//  3. Write the commit object
//  4. Advance the ref HEAD points at, or HEAD itself when detached
func (r *Repo) CommitAs(message, author string, when time.Time) (object.Hash, error) {
	message = strings.TrimRight(message, "\n")
	if strings.TrimSpace(message) == "" {
		return "", fmt.Errorf("commit: empty commit message")
	}
	author = strings.TrimSpace(author)
	if author == "" || strings.ContainsAny(author, "\n\r") {
		return "", fmt.Errorf("commit: invalid author %q", author)
	}

	treeHash, err := r.WriteTree()
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	target, parent, err := r.resolveChain(HeadRef)
	if err != nil && !errors.Is(err, ErrNoCommitsYet) {
		return "", fmt.Errorf("commit: %w", err)
	}

	commitHash, err := r.Store.WriteCommit(&object.CommitObj{
		TreeHash:  treeHash,
		Parent:    parent,
		Author:    author,
		Timestamp: when.Unix(),
		Message:   message,
	})
	if err != nil {
		return "", fmt.Errorf("commit: write commit: %w", err)
	}

	if err := r.UpdateRefCAS(target, commitHash, parent); err != nil {
		return "", fmt.Errorf("commit: update ref %q: %w", target, err)
	}

	r.Log.WithFields(logrus.Fields{
		"commit": commitHash.Short(),
		"parent": parent.Short(),
		"ref":    target,
	}).Debug("commit created")
	return commitHash, nil
}

// Ancestors walks parent links starting at start (inclusive), yielding
// each commit hash once, newest first, until a root commit is reached.
func (r *Repo) Ancestors(start object.Hash) iter.Seq2[object.Hash, error] {
	return func(yield func(object.Hash, error) bool) {
		seen := make(map[object.Hash]struct{})
		current := start
		for current != "" {
			if _, ok := seen[current]; ok {
				return
			}
			seen[current] = struct{}{}

			c, err := r.Store.ReadCommit(current)
			if err != nil {
				yield("", fmt.Errorf("ancestors: read commit %s: %w", current.Short(), err))
				return
			}
			if !yield(current, nil) {
				return
			}
			current = c.Parent
		}
	}
}

// LogEntry is one commit returned by History.
type LogEntry struct {
	Hash   object.Hash
	Commit *object.CommitObj
}

// History returns up to limit commits from the history of start, newest first.
// A limit of zero or less returns the whole history.
func (r *Repo) History(start object.Hash, limit int) ([]LogEntry, error) {
	var entries []LogEntry
	for h, err := range r.Ancestors(start) {
		if err != nil {
			return nil, fmt.Errorf("history: %w", err)
		}
		c, err := r.Store.ReadCommit(h)
		if err != nil {
			return nil, fmt.Errorf("history: %w", err)
		}
		entries = append(entries, LogEntry{Hash: h, Commit: c})
		if limit > 0 && len(entries) >= limit {
			break
		}
	}
	return entries, nil
}

// IsAncestor reports whether ancestor is descendant itself or appears in
// its parent chain.
func (r *Repo) IsAncestor(ancestor, descendant object.Hash) (bool, error) {
	for h, err := range r.Ancestors(descendant) {
		if err != nil {
			return false, err
		}
		if h == ancestor {
			return true, nil
		}
	}
	return false, nil
}
