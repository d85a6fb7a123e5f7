package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/odvcencio/twig/pkg/object"
	"github.com/sirupsen/logrus"
)

// TreeFileEntry represents a single file in a flattened tree.
type TreeFileEntry struct {
	Path     string
	BlobHash object.Hash
}

// treeSnapshot is a flattened tree: every file path with its blob hash and
// every directory path, including empty ones.
type treeSnapshot struct {
	Files map[string]object.Hash
	Dirs  map[string]struct{}
}

func newTreeSnapshot() *treeSnapshot {
	return &treeSnapshot{
		Files: make(map[string]object.Hash),
		Dirs:  make(map[string]struct{}),
	}
}

// has reports whether the snapshot lists rel as a file or a directory. A
// nil snapshot lists nothing.
func (s *treeSnapshot) has(rel string, isDir bool) bool {
	if s == nil {
		return false
	}
	if isDir {
		_, ok := s.Dirs[rel]
		return ok
	}
	_, ok := s.Files[rel]
	return ok
}

// treeBuilder walks a directory bottom-up and produces tree hashes. With
// write unset it only computes hashes, which is how Status inspects the
// working tree without touching the store.
//
// Paths listed in tracked (the HEAD tree) stay in the tree even when an
// ignore pattern matches them.
type treeBuilder struct {
	store   *object.Store
	ignore  *IgnoreChecker
	tracked *treeSnapshot
	write   bool
	snap    *treeSnapshot
}

func (b *treeBuilder) put(objType object.ObjectType, data []byte) (object.Hash, error) {
	if !b.write {
		return object.HashObject(objType, data), nil
	}
	return b.store.Write(objType, data)
}

// dir builds the tree for absDir, whose slash-separated path relative to
// the walk root is rel ("" for the root itself).
func (b *treeBuilder) dir(absDir, rel string) (object.Hash, error) {
	des, err := os.ReadDir(absDir)
	if err != nil {
		return "", object.WrapIO("readdir", absDir, err)
	}

	entries := make([]object.TreeEntry, 0, len(des))
	for _, de := range des {
		name := de.Name()
		childRel := name
		if rel != "" {
			childRel = rel + "/" + name
		}
		childAbs := filepath.Join(absDir, name)
		isDir := de.IsDir()
		if b.ignore.IsIgnored(childRel, isDir) && !b.tracked.has(childRel, isDir) {
			continue
		}
		if err := object.ValidateEntryName(name); err != nil {
			return "", fmt.Errorf("%w: %q: %v", ErrUnsupportedEntry, childRel, err)
		}

		switch mode := de.Type(); {
		case isDir:
			h, err := b.dir(childAbs, childRel)
			if err != nil {
				return "", err
			}
			if b.snap != nil {
				b.snap.Dirs[childRel] = struct{}{}
			}
			entries = append(entries, object.TreeEntry{Type: object.TypeTree, Name: name, Hash: h})
		case mode.IsRegular():
			data, err := os.ReadFile(childAbs)
			if err != nil {
				return "", object.WrapIO("read", childAbs, err)
			}
			h, err := b.put(object.TypeBlob, data)
			if err != nil {
				return "", fmt.Errorf("store %q: %w", childRel, err)
			}
			if b.snap != nil {
				b.snap.Files[childRel] = h
			}
			entries = append(entries, object.TreeEntry{Type: object.TypeBlob, Name: name, Hash: h})
		default:
			return "", fmt.Errorf("%w: %q is a %s", ErrUnsupportedEntry, childRel, describeMode(mode))
		}
	}

	h, err := b.put(object.TypeTree, object.MarshalTree(&object.TreeObj{Entries: entries}))
	if err != nil {
		return "", fmt.Errorf("store tree %q: %w", rel, err)
	}
	return h, nil
}

func describeMode(mode fs.FileMode) string {
	switch {
	case mode&fs.ModeSymlink != 0:
		return "symbolic link"
	case mode&fs.ModeNamedPipe != 0:
		return "named pipe"
	case mode&fs.ModeSocket != 0:
		return "socket"
	case mode&fs.ModeDevice != 0:
		return "device"
	default:
		return "special file"
	}
}

// WriteTree snapshots the working tree into the object store and returns
// the root tree hash. Ignored paths and .twig/ are skipped; symbolic links
// and other special files fail with ErrUnsupportedEntry.
func (r *Repo) WriteTree() (object.Hash, error) {
	return r.WriteTreeFrom(r.RootDir)
}

// WriteTreeFrom snapshots an arbitrary directory using the repository's
// ignore rules as seen from that directory. For the working root, files
// HEAD already tracks are kept even if they are now ignored.
func (r *Repo) WriteTreeFrom(dir string) (object.Hash, error) {
	cfg, err := r.ReadConfig()
	if err != nil {
		return "", fmt.Errorf("write tree: %w", err)
	}
	tracked, err := r.trackedIn(dir)
	if err != nil {
		return "", fmt.Errorf("write tree: %w", err)
	}
	b := &treeBuilder{
		store:   r.Store,
		ignore:  NewIgnoreChecker(dir, cfg.Core.Ignore),
		tracked: tracked,
		write:   true,
	}
	h, err := b.dir(dir, "")
	if err != nil {
		return "", fmt.Errorf("write tree: %w", err)
	}
	r.Log.WithFields(logrus.Fields{"dir": dir, "tree": h.Short()}).Debug("tree written")
	return h, nil
}

// trackedIn returns the HEAD snapshot when dir is the working root, and
// nil for any other directory.
func (r *Repo) trackedIn(dir string) (*treeSnapshot, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	if abs != filepath.Clean(r.RootDir) {
		return nil, nil
	}
	return r.headSnapshot()
}

// scanWorktree hashes the working tree without writing objects. head is
// the snapshot of HEAD, whose paths are scanned even when ignored.
func (r *Repo) scanWorktree(head *treeSnapshot) (object.Hash, *treeSnapshot, error) {
	ic, err := r.ignoreChecker()
	if err != nil {
		return "", nil, err
	}
	b := &treeBuilder{store: r.Store, ignore: ic, tracked: head, snap: newTreeSnapshot()}
	h, err := b.dir(r.RootDir, "")
	if err != nil {
		return "", nil, fmt.Errorf("scan working tree: %w", err)
	}
	return h, b.snap, nil
}

// walkTree calls fn for every entry below the tree h in depth-first,
// name order. Paths are slash-separated and relative to h.
func (r *Repo) walkTree(h object.Hash, prefix string, fn func(p string, e object.TreeEntry) error) error {
	treeObj, err := r.Store.ReadTree(h)
	if err != nil {
		return fmt.Errorf("read tree %s: %w", h.Short(), err)
	}
	for _, entry := range treeObj.Entries {
		fullPath := entry.Name
		if prefix != "" {
			fullPath = path.Join(prefix, entry.Name)
		}
		if err := fn(fullPath, entry); err != nil {
			return err
		}
		if entry.IsDir() {
			if err := r.walkTree(entry.Hash, fullPath, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// FlattenTree walks a tree object recursively, returning all file entries
// with their full paths (using forward slashes).
func (r *Repo) FlattenTree(h object.Hash) ([]TreeFileEntry, error) {
	var result []TreeFileEntry
	err := r.walkTree(h, "", func(p string, e object.TreeEntry) error {
		if !e.IsDir() {
			result = append(result, TreeFileEntry{Path: p, BlobHash: e.Hash})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("flatten tree: %w", err)
	}
	return result, nil
}

func (r *Repo) snapshotTree(h object.Hash) (*treeSnapshot, error) {
	snap := newTreeSnapshot()
	err := r.walkTree(h, "", func(p string, e object.TreeEntry) error {
		if e.IsDir() {
			snap.Dirs[p] = struct{}{}
		} else {
			snap.Files[p] = e.Hash
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// commitTree returns the tree hash of the commit h.
func (r *Repo) commitTree(h object.Hash) (object.Hash, error) {
	c, err := r.Store.ReadCommit(h)
	if err != nil {
		return "", err
	}
	return c.TreeHash, nil
}

// ReadTree overwrites the working tree with the tree h.
func (r *Repo) ReadTree(h object.Hash) error {
	return r.ReadTreeTo(h, r.RootDir)
}

// ReadTreeTo reconstructs the tree h under dest.
//
// Every referenced object is checked before the directory is touched, so a
// tree with missing children fails with ErrObjectNotFound and leaves dest
// as it was. Non-ignored files under dest that the tree does not contain
// are removed first, together with directories that become empty; then
// every blob is written and every directory created. When dest is the
// working root, paths tracked by HEAD count as non-ignored. Symbolic links
// and special files in the way of the tree are removed, never followed.
func (r *Repo) ReadTreeTo(h object.Hash, dest string) error {
	tracked, err := r.trackedIn(dest)
	if err != nil {
		return fmt.Errorf("read tree: %w", err)
	}
	return r.materialize(h, dest, tracked)
}

// materialize does the work of ReadTreeTo with an explicit tracked set.
func (r *Repo) materialize(h object.Hash, dest string, tracked *treeSnapshot) error {
	snap, err := r.snapshotTree(h)
	if err != nil {
		return fmt.Errorf("read tree: %w", err)
	}
	for p, bh := range snap.Files {
		if !r.Store.Has(bh) {
			return fmt.Errorf("read tree: %q: %w: %s", p, object.ErrObjectNotFound, bh)
		}
	}

	cfg, err := r.ReadConfig()
	if err != nil {
		return fmt.Errorf("read tree: %w", err)
	}
	ic := NewIgnoreChecker(dest, cfg.Core.Ignore)

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("read tree: %w", object.WrapIO("mkdir", dest, err))
	}
	if err := r.removeAbandoned(dest, ic, tracked, snap); err != nil {
		return fmt.Errorf("read tree: %w", err)
	}

	dirs := make([]string, 0, len(snap.Dirs))
	for d := range snap.Dirs {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	for _, d := range dirs {
		abs := filepath.Join(dest, filepath.FromSlash(d))
		if err := clearNonRegular(abs); err != nil {
			return fmt.Errorf("read tree: %w", err)
		}
		if err := os.MkdirAll(abs, 0o755); err != nil {
			return fmt.Errorf("read tree: %w", object.WrapIO("mkdir", abs, err))
		}
	}

	files := make([]string, 0, len(snap.Files))
	for p := range snap.Files {
		files = append(files, p)
	}
	sort.Strings(files)
	for _, p := range files {
		blob, err := r.Store.ReadBlob(snap.Files[p])
		if err != nil {
			return fmt.Errorf("read tree: %q: %w", p, err)
		}
		abs := filepath.Join(dest, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			return fmt.Errorf("read tree: %w", object.WrapIO("mkdir", filepath.Dir(abs), err))
		}
		if err := clearNonRegular(abs); err != nil {
			return fmt.Errorf("read tree: %w", err)
		}
		if err := os.WriteFile(abs, blob.Data, 0o644); err != nil {
			return fmt.Errorf("read tree: %w", object.WrapIO("write", abs, err))
		}
	}

	r.Log.WithFields(logrus.Fields{"tree": h.Short(), "dest": dest, "files": len(files)}).Debug("tree materialized")
	return nil
}

// clearNonRegular removes whatever sits at abs unless it is a regular file
// or a directory, so a later write cannot follow a symbolic link out of
// the working tree.
func clearNonRegular(abs string) error {
	info, err := os.Lstat(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return object.WrapIO("lstat", abs, err)
	}
	mode := info.Mode()
	if mode.IsRegular() || mode.IsDir() {
		return nil
	}
	if err := os.Remove(abs); err != nil {
		return object.WrapIO("remove", abs, err)
	}
	return nil
}

// removeAbandoned deletes every non-ignored file under dest that snap does
// not list, then prunes directories that are left empty and are not part
// of snap. Paths in tracked are treated as non-ignored. Non-regular
// entries are removed even when snap lists a file at their path.
func (r *Repo) removeAbandoned(dest string, ic *IgnoreChecker, tracked, snap *treeSnapshot) error {
	var dirs []string
	err := filepath.WalkDir(dest, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return object.WrapIO("walk", p, walkErr)
		}
		if p == dest {
			return nil
		}
		rel, err := filepath.Rel(dest, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if ic.IsIgnored(rel, d.IsDir()) && !tracked.has(rel, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			dirs = append(dirs, rel)
			return nil
		}
		if _, keep := snap.Files[rel]; keep && d.Type().IsRegular() {
			return nil
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return object.WrapIO("remove", p, err)
		}
		r.Log.WithField("path", rel).Debug("removed abandoned file")
		return nil
	})
	if err != nil {
		return err
	}

	// Deepest first so parents see their children already gone.
	sort.Slice(dirs, func(i, j int) bool {
		return strings.Count(dirs[i], "/") > strings.Count(dirs[j], "/")
	})
	for _, d := range dirs {
		if _, keep := snap.Dirs[d]; keep {
			continue
		}
		abs := filepath.Join(dest, filepath.FromSlash(d))
		remaining, err := os.ReadDir(abs)
		if err != nil || len(remaining) > 0 {
			continue
		}
		if err := os.Remove(abs); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return object.WrapIO("remove", abs, err)
		}
	}
	return nil
}

// treeEntryAtPath looks up a slash-separated path inside the tree h.
func (r *Repo) treeEntryAtPath(h object.Hash, relPath string) (object.TreeEntry, bool, error) {
	parts := strings.Split(strings.Trim(relPath, "/"), "/")
	current := h

	for i, part := range parts {
		treeObj, err := r.Store.ReadTree(current)
		if err != nil {
			return object.TreeEntry{}, false, fmt.Errorf("read tree %s: %w", current.Short(), err)
		}
		entry, found := treeObj.Find(part)
		if !found {
			return object.TreeEntry{}, false, nil
		}
		if i == len(parts)-1 {
			return entry, true, nil
		}
		if !entry.IsDir() {
			return object.TreeEntry{}, false, nil
		}
		current = entry.Hash
	}
	return object.TreeEntry{}, false, nil
}
