package object

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Store is a content-addressed object store with one file per object:
// objects/<hash>.
type Store struct {
	root string
}

// NewStore creates a Store rooted at the given directory. The objects/
// subdirectory is created lazily on first write.
func NewStore(root string) *Store {
	return &Store{root: root}
}

func (s *Store) objectsDir() string {
	return filepath.Join(s.root, "objects")
}

// objectPath returns the filesystem path for a given hash.
func (s *Store) objectPath(h Hash) string {
	return filepath.Join(s.objectsDir(), string(h))
}

// Has reports whether the store contains an object with the given hash.
func (s *Store) Has(h Hash) bool {
	if !h.Valid() {
		return false
	}
	_, err := os.Stat(s.objectPath(h))
	return err == nil
}

// Write stores an object and returns its content hash. The on-disk format
// is "type len\0content". Writing content that is already present is a
// no-op. Writes are atomic: data is written to a temp file and then renamed
// into place.
func (s *Store) Write(objType ObjectType, data []byte) (Hash, error) {
	if _, err := ParseObjectType(string(objType)); err != nil {
		return "", fmt.Errorf("object write: %w", err)
	}
	h := HashObject(objType, data)

	// Fast path: already exists.
	if s.Has(h) {
		return h, nil
	}

	dir := s.objectsDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", WrapIO("object write mkdir", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", WrapIO("object write tmpfile", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(makeObjectEnvelope(objType, data)); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", WrapIO("object write", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", WrapIO("object write close", tmpName, err)
	}

	dest := s.objectPath(h)
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return "", WrapIO("object write rename", dest, err)
	}

	return h, nil
}

// Read retrieves an object by hash, returning its type and raw content.
func (s *Store) Read(h Hash) (ObjectType, []byte, error) {
	if !h.Valid() {
		return "", nil, fmt.Errorf("object read %q: %w", h, ErrObjectNotFound)
	}
	path := s.objectPath(h)
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil, fmt.Errorf("object read %s: %w", h, ErrObjectNotFound)
		}
		return "", nil, fmt.Errorf("object read %s: %w", h, WrapIO("read", path, err))
	}

	nulIdx := bytes.IndexByte(raw, 0)
	if nulIdx < 0 {
		return "", nil, fmt.Errorf("object read %s: %w: no header terminator", h, ErrCorruptObject)
	}
	objType, length, err := parseHeader(string(raw[:nulIdx]))
	if err != nil {
		return "", nil, fmt.Errorf("object read %s: %w", h, err)
	}
	content := raw[nulIdx+1:]
	if len(content) != length {
		return "", nil, fmt.Errorf("object read %s: %w: length mismatch (header=%d, actual=%d)", h, ErrCorruptObject, length, len(content))
	}
	if actual := HashObject(objType, content); actual != h {
		return "", nil, fmt.Errorf("object read %s: %w: hash mismatch (computed %s)", h, ErrCorruptObject, actual)
	}

	return objType, content, nil
}

// Inspect classifies a stored object by reading only its header.
func (s *Store) Inspect(h Hash) (ObjectType, error) {
	if !h.Valid() {
		return "", fmt.Errorf("object inspect %q: %w", h, ErrObjectNotFound)
	}
	path := s.objectPath(h)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("object inspect %s: %w", h, ErrObjectNotFound)
		}
		return "", fmt.Errorf("object inspect %s: %w", h, WrapIO("open", path, err))
	}
	defer f.Close()

	// "commit <len>\0" fits comfortably in 32 bytes.
	header, err := bufio.NewReaderSize(io.LimitReader(f, 32), 32).ReadString(0)
	if err != nil {
		return "", fmt.Errorf("object inspect %s: %w: no header terminator", h, ErrCorruptObject)
	}
	objType, _, err := parseHeader(strings.TrimSuffix(header, "\x00"))
	if err != nil {
		return "", fmt.Errorf("object inspect %s: %w", h, err)
	}
	return objType, nil
}

func parseHeader(header string) (ObjectType, int, error) {
	kind, size, ok := strings.Cut(header, " ")
	if !ok {
		return "", 0, fmt.Errorf("%w: invalid header %q", ErrCorruptObject, header)
	}
	objType, err := ParseObjectType(kind)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrCorruptObject, err)
	}
	length, err := strconv.Atoi(size)
	if err != nil || length < 0 {
		return "", 0, fmt.Errorf("%w: invalid length %q", ErrCorruptObject, size)
	}
	return objType, length, nil
}

// ResolvePrefix expands an abbreviated hash to the single stored object
// that starts with it.
func (s *Store) ResolvePrefix(prefix string) (Hash, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if !IsHexPrefix(prefix) {
		return "", fmt.Errorf("resolve prefix %q: %w", prefix, ErrObjectNotFound)
	}
	if h := Hash(prefix); h.Valid() {
		if s.Has(h) {
			return h, nil
		}
		return "", fmt.Errorf("resolve prefix %s: %w", prefix, ErrObjectNotFound)
	}

	hashes, err := s.List()
	if err != nil {
		return "", fmt.Errorf("resolve prefix %q: %w", prefix, err)
	}
	var matches []Hash
	for _, h := range hashes {
		if strings.HasPrefix(string(h), prefix) {
			matches = append(matches, h)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("resolve prefix %q: %w", prefix, ErrObjectNotFound)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("resolve prefix %q: %w (%d candidates)", prefix, ErrAmbiguousPrefix, len(matches))
	}
}

// List returns every stored object hash in ascending order.
func (s *Store) List() ([]Hash, error) {
	dir := s.objectsDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, WrapIO("read objects dir", dir, err)
	}

	hashes := make([]Hash, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if h := Hash(e.Name()); h.Valid() {
			hashes = append(hashes, h)
		}
	}
	sort.Slice(hashes, func(i, j int) bool {
		return hashes[i] < hashes[j]
	})
	return hashes, nil
}

// ---------------------------------------------------------------------------
// Typed convenience methods
// ---------------------------------------------------------------------------

// WriteObject serializes and stores any object kind.
func (s *Store) WriteObject(o Object) (Hash, error) {
	return s.Write(o.Type(), o.Marshal())
}

// ReadObject reads and decodes an object of whatever kind is stored.
func (s *Store) ReadObject(h Hash) (Object, error) {
	objType, data, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	o, err := Decode(objType, data)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", h, err)
	}
	return o, nil
}

// WriteBlob serializes and stores a Blob.
func (s *Store) WriteBlob(b *Blob) (Hash, error) {
	return s.Write(TypeBlob, MarshalBlob(b))
}

// ReadBlob reads and deserializes a Blob.
func (s *Store) ReadBlob(h Hash) (*Blob, error) {
	data, err := s.readTyped(h, TypeBlob)
	if err != nil {
		return nil, err
	}
	return UnmarshalBlob(data)
}

// WriteTree serializes and stores a TreeObj.
func (s *Store) WriteTree(tr *TreeObj) (Hash, error) {
	return s.Write(TypeTree, MarshalTree(tr))
}

// ReadTree reads and deserializes a TreeObj.
func (s *Store) ReadTree(h Hash) (*TreeObj, error) {
	data, err := s.readTyped(h, TypeTree)
	if err != nil {
		return nil, err
	}
	tr, err := UnmarshalTree(data)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", h, err)
	}
	return tr, nil
}

// WriteCommit serializes and stores a CommitObj.
func (s *Store) WriteCommit(c *CommitObj) (Hash, error) {
	return s.Write(TypeCommit, MarshalCommit(c))
}

// ReadCommit reads and deserializes a CommitObj.
func (s *Store) ReadCommit(h Hash) (*CommitObj, error) {
	data, err := s.readTyped(h, TypeCommit)
	if err != nil {
		return nil, err
	}
	c, err := UnmarshalCommit(data)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", h, err)
	}
	return c, nil
}

func (s *Store) readTyped(h Hash, want ObjectType) ([]byte, error) {
	objType, data, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	if objType != want {
		return nil, fmt.Errorf("object %s: %w: got %q, want %q", h, ErrTypeMismatch, objType, want)
	}
	return data, nil
}
