package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/odvcencio/twig/pkg/object"
	"github.com/sirupsen/logrus"
)

const (
	HeadRef      = "HEAD"
	RefsPrefix   = "refs/"
	BranchPrefix = "refs/heads/"
	TagPrefix    = "refs/tags/"

	symbolicPrefix = "ref: "
)

// RefValue is the content of a ref: either a direct object hash or a
// symbolic pointer to another ref name. Exactly one field is set.
type RefValue struct {
	Hash   object.Hash
	Target string
}

// Direct returns a RefValue pointing straight at h.
func Direct(h object.Hash) RefValue { return RefValue{Hash: h} }

// Symbolic returns a RefValue pointing at another ref.
func Symbolic(name string) RefValue { return RefValue{Target: name} }

// IsSymbolic reports whether v points at another ref.
func (v RefValue) IsSymbolic() bool { return v.Target != "" }

// String returns the on-disk form of v without the trailing newline.
func (v RefValue) String() string {
	if v.IsSymbolic() {
		return symbolicPrefix + v.Target
	}
	return string(v.Hash)
}

func parseRefValue(data []byte) (RefValue, error) {
	content := strings.TrimSpace(string(data))
	if target, ok := strings.CutPrefix(content, symbolicPrefix); ok {
		target = strings.TrimSpace(target)
		if err := validateRefName(target); err != nil {
			return RefValue{}, err
		}
		return Symbolic(target), nil
	}
	h := object.Hash(content)
	if !h.Valid() {
		return RefValue{}, fmt.Errorf("malformed ref content %q", content)
	}
	return Direct(h), nil
}

// Ref is a named RefValue as produced by IterRefs.
type Ref struct {
	Name  string
	Value RefValue
}

// validateRefName accepts HEAD and slash-separated names under refs/.
func validateRefName(name string) error {
	if name == HeadRef {
		return nil
	}
	if !strings.HasPrefix(name, RefsPrefix) || name == RefsPrefix {
		return fmt.Errorf("%w %q: must be HEAD or start with %s", ErrInvalidRefName, name, RefsPrefix)
	}
	if strings.HasSuffix(name, "/") || strings.HasSuffix(name, ".lock") {
		return fmt.Errorf("%w %q", ErrInvalidRefName, name)
	}
	if strings.ContainsAny(name, " \t\n\r\x00\\:") {
		return fmt.Errorf("%w %q", ErrInvalidRefName, name)
	}
	for _, part := range strings.Split(name, "/") {
		if part == "" || part == "." || part == ".." || strings.HasPrefix(part, ".") {
			return fmt.Errorf("%w %q", ErrInvalidRefName, name)
		}
	}
	return nil
}

func (r *Repo) refPath(name string) string {
	return filepath.Join(r.TwigDir, filepath.FromSlash(name))
}

// GetRef reads the value stored under name without following symbolic
// indirection.
func (r *Repo) GetRef(name string) (RefValue, error) {
	if err := validateRefName(name); err != nil {
		return RefValue{}, fmt.Errorf("get ref: %w", err)
	}
	path := r.refPath(name)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return RefValue{}, fmt.Errorf("get ref %q: %w", name, ErrRefNotFound)
		}
		// A directory in the way (e.g. "refs/heads" itself) is not a ref.
		if info, statErr := os.Stat(path); statErr == nil && info.IsDir() {
			return RefValue{}, fmt.Errorf("get ref %q: %w", name, ErrRefNotFound)
		}
		return RefValue{}, fmt.Errorf("get ref %q: %w", name, object.WrapIO("read", path, err))
	}
	v, err := parseRefValue(data)
	if err != nil {
		return RefValue{}, fmt.Errorf("get ref %q: %w", name, err)
	}
	return v, nil
}

// SetRef writes value under name, replacing any previous value.
func (r *Repo) SetRef(name string, value RefValue) error {
	return r.writeRef(name, value, nil)
}

// UpdateRefCAS writes a hash to the named ref. If expectedOld is provided,
// the update only succeeds when the current ref hash matches it; an empty
// expected hash means the ref must not exist yet.
func (r *Repo) UpdateRefCAS(name string, h object.Hash, expectedOld ...object.Hash) error {
	if len(expectedOld) > 1 {
		return fmt.Errorf("update ref %q: expected at most one old hash", name)
	}
	var check func(old RefValue, exists bool) error
	if len(expectedOld) == 1 {
		want := expectedOld[0]
		check = func(old RefValue, exists bool) error {
			found := object.Hash("")
			if exists {
				found = old.Hash
				if old.IsSymbolic() {
					return fmt.Errorf("%w (expected %s, found %s)", ErrRefCASMismatch, want, old)
				}
			}
			if found != want {
				return fmt.Errorf("%w (expected %s, found %s)", ErrRefCASMismatch, want, found)
			}
			return nil
		}
	}
	return r.writeRef(name, Direct(h), check)
}

// writeRef updates a ref using lockfile + rename. The lock is created with
// O_EXCL; a lock already held by someone else fails immediately.
func (r *Repo) writeRef(name string, value RefValue, check func(old RefValue, exists bool) error) error {
	if err := validateRefName(name); err != nil {
		return fmt.Errorf("update ref: %w", err)
	}
	if value.IsSymbolic() {
		if err := validateRefName(value.Target); err != nil {
			return fmt.Errorf("update ref %q: %w", name, err)
		}
	} else if !value.Hash.Valid() {
		return fmt.Errorf("update ref %q: invalid hash %q", name, value.Hash)
	}

	refPath := r.refPath(name)
	dir := filepath.Dir(refPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("update ref %q: %w", name, object.WrapIO("mkdir", dir, err))
	}

	lockPath := refPath + ".lock"
	lockFile, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("update ref %q: %w (%s exists)", name, ErrRefLocked, lockPath)
		}
		return fmt.Errorf("update ref %q: %w", name, object.WrapIO("lock", lockPath, err))
	}
	cleanupLock := true
	defer func() {
		if lockFile != nil {
			_ = lockFile.Close()
		}
		if cleanupLock {
			_ = os.Remove(lockPath)
		}
	}()

	old, err := r.GetRef(name)
	exists := err == nil
	if err != nil && !errors.Is(err, ErrRefNotFound) {
		return fmt.Errorf("update ref %q: read old value: %w", name, err)
	}
	if check != nil {
		if err := check(old, exists); err != nil {
			return fmt.Errorf("update ref %q: %w", name, err)
		}
	}

	if _, err := lockFile.WriteString(value.String() + "\n"); err != nil {
		return fmt.Errorf("update ref %q: %w", name, object.WrapIO("write", lockPath, err))
	}
	if err := lockFile.Sync(); err != nil {
		return fmt.Errorf("update ref %q: %w", name, object.WrapIO("sync", lockPath, err))
	}
	if err := lockFile.Close(); err != nil {
		lockFile = nil
		return fmt.Errorf("update ref %q: %w", name, object.WrapIO("close", lockPath, err))
	}
	lockFile = nil

	if err := os.Rename(lockPath, refPath); err != nil {
		return fmt.Errorf("update ref %q: %w", name, object.WrapIO("rename", refPath, err))
	}
	cleanupLock = false

	r.Log.WithFields(logrus.Fields{"ref": name, "old": old.String(), "new": value.String()}).Debug("ref updated")
	return nil
}

// DeleteRef removes the named ref. HEAD cannot be deleted.
func (r *Repo) DeleteRef(name string) error {
	if err := validateRefName(name); err != nil {
		return fmt.Errorf("delete ref: %w", err)
	}
	if name == HeadRef {
		return fmt.Errorf("delete ref: %w: HEAD cannot be deleted", ErrInvalidRefName)
	}
	path := r.refPath(name)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("delete ref %q: %w", name, ErrRefNotFound)
		}
		return fmt.Errorf("delete ref %q: %w", name, object.WrapIO("remove", path, err))
	}
	r.removeEmptyRefDirs(filepath.Dir(path))
	r.Log.WithField("ref", name).Debug("ref deleted")
	return nil
}

// removeEmptyRefDirs prunes directories left empty by deleting a nested
// ref such as refs/heads/feature/x, stopping at refs/heads and refs/tags.
func (r *Repo) removeEmptyRefDirs(dir string) {
	stop := map[string]bool{
		filepath.Join(r.TwigDir, "refs"):          true,
		filepath.Join(r.TwigDir, "refs", "heads"): true,
		filepath.Join(r.TwigDir, "refs", "tags"):  true,
	}
	for !stop[dir] && strings.HasPrefix(dir, r.TwigDir) {
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

// Resolve follows symbolic indirection from name until a direct hash is
// reached.
//
// Resolving HEAD while it points at a branch that has no commits returns
// ErrNoCommitsYet. Any other chain that ends at a missing ref returns
// ErrDanglingRef, and a chain that revisits a name returns ErrRefCycle.
func (r *Repo) Resolve(name string) (object.Hash, error) {
	_, h, err := r.resolveChain(name)
	return h, err
}

// resolveChain returns the last ref name in the chain starting at name,
// i.e. the ref that holds (or would hold) the direct hash, together with
// that hash. On ErrNoCommitsYet and ErrDanglingRef the name is still
// returned so callers can create the missing ref.
func (r *Repo) resolveChain(name string) (string, object.Hash, error) {
	seen := make(map[string]struct{})
	cur := name
	for {
		if _, ok := seen[cur]; ok {
			return cur, "", fmt.Errorf("resolve %q: %w at %q", name, ErrRefCycle, cur)
		}
		seen[cur] = struct{}{}

		v, err := r.GetRef(cur)
		if err != nil {
			if !errors.Is(err, ErrRefNotFound) || cur == name {
				return cur, "", fmt.Errorf("resolve %q: %w", name, err)
			}
			if name == HeadRef {
				return cur, "", fmt.Errorf("resolve %q: %w (%s does not exist)", name, ErrNoCommitsYet, cur)
			}
			return cur, "", fmt.Errorf("resolve %q: %w: %s does not exist", name, ErrDanglingRef, cur)
		}
		if !v.IsSymbolic() {
			return cur, v.Hash, nil
		}
		cur = v.Target
	}
}

// IterRefs lazily walks the refs under prefix (e.g. "refs/heads/",
// "refs/tags/", or "" for every ref below refs/) in lexical order. Each
// call starts a fresh walk. Lock files are skipped.
func (r *Repo) IterRefs(prefix string) iter.Seq2[Ref, error] {
	return func(yield func(Ref, error) bool) {
		prefix = strings.TrimSuffix(prefix, "/")
		if prefix == "" {
			prefix = strings.TrimSuffix(RefsPrefix, "/")
		}
		if prefix != "refs" {
			if err := validateRefName(prefix); err != nil {
				yield(Ref{}, fmt.Errorf("iter refs: %w", err))
				return
			}
		}

		dir := r.refPath(prefix)
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				if path == dir && errors.Is(walkErr, fs.ErrNotExist) {
					return filepath.SkipAll
				}
				return object.WrapIO("walk refs", path, walkErr)
			}
			if d.IsDir() || strings.HasSuffix(d.Name(), ".lock") {
				return nil
			}
			rel, err := filepath.Rel(r.TwigDir, path)
			if err != nil {
				return err
			}
			name := filepath.ToSlash(rel)
			v, err := r.GetRef(name)
			if !yield(Ref{Name: name, Value: v}, err) {
				return filepath.SkipAll
			}
			return nil
		})
		if err != nil {
			yield(Ref{}, fmt.Errorf("iter refs: %w", err))
		}
	}
}

// Head returns the raw value of HEAD.
func (r *Repo) Head() (RefValue, error) {
	return r.GetRef(HeadRef)
}
