package repo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/odvcencio/twig/pkg/object"
)

// CreateTag points refs/tags/<name> at target. Tags may name any stored
// object. An existing tag is only replaced when force is set.
func (r *Repo) CreateTag(name string, target object.Hash, force bool) error {
	name = strings.TrimSpace(name)
	refName := TagPrefix + name
	if !r.Store.Has(target) {
		return fmt.Errorf("create tag %q: %w: %s", name, object.ErrObjectNotFound, target)
	}

	var err error
	if force {
		err = r.SetRef(refName, Direct(target))
	} else {
		err = r.UpdateRefCAS(refName, target, "")
		if errors.Is(err, ErrRefCASMismatch) {
			return fmt.Errorf("create tag: %w: %q", ErrRefExists, name)
		}
	}
	if err != nil {
		return fmt.Errorf("create tag %q: %w", name, err)
	}
	return nil
}

// DeleteTag removes refs/tags/<name>.
func (r *Repo) DeleteTag(name string) error {
	if err := r.DeleteRef(TagPrefix + strings.TrimSpace(name)); err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	return nil
}

// TagInfo is one entry of ListTags.
type TagInfo struct {
	Name string
	Hash object.Hash
}

// ListTags returns every tag in name order.
func (r *Repo) ListTags() ([]TagInfo, error) {
	var out []TagInfo
	for ref, err := range r.IterRefs(TagPrefix) {
		if err != nil {
			return nil, fmt.Errorf("list tags: %w", err)
		}
		h, err := r.Resolve(ref.Name)
		if err != nil {
			return nil, fmt.Errorf("list tags: %w", err)
		}
		out = append(out, TagInfo{Name: strings.TrimPrefix(ref.Name, TagPrefix), Hash: h})
	}
	return out, nil
}
