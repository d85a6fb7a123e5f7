package object

import "fmt"

// Hash is a 64-character hex-encoded SHA-256 digest.
type Hash string

// HashLen is the length of a full hex-encoded Hash.
const HashLen = 64

// Short returns the first 8 characters of the hash, or the whole hash when
// it is shorter than that.
func (h Hash) Short() string {
	if len(h) > 8 {
		return string(h[:8])
	}
	return string(h)
}

// Valid reports whether h is a full-length lowercase hex digest.
func (h Hash) Valid() bool {
	return len(h) == HashLen && isLowerHex(string(h))
}

// IsHexPrefix reports whether s could be an abbreviation of a Hash.
func IsHexPrefix(s string) bool {
	return s != "" && len(s) <= HashLen && isLowerHex(s)
}

func isLowerHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// ObjectType identifies the kind of object stored.
type ObjectType string

const (
	TypeBlob   ObjectType = "blob"
	TypeTree   ObjectType = "tree"
	TypeCommit ObjectType = "commit"
)

// ParseObjectType converts a serialized kind name into an ObjectType.
func ParseObjectType(s string) (ObjectType, error) {
	switch ObjectType(s) {
	case TypeBlob, TypeTree, TypeCommit:
		return ObjectType(s), nil
	default:
		return "", fmt.Errorf("unknown object type %q", s)
	}
}

// Object is the closed set of stored object kinds: *Blob, *TreeObj and
// *CommitObj.
type Object interface {
	Type() ObjectType
	Marshal() []byte

	sealed()
}

// Blob holds raw file data.
type Blob struct {
	Data []byte
}

// TreeEntry is one entry in a tree object.
type TreeEntry struct {
	Type ObjectType // TypeBlob or TypeTree
	Name string
	Hash Hash
}

// IsDir reports whether the entry points at a subtree.
func (e TreeEntry) IsDir() bool { return e.Type == TypeTree }

// TreeObj holds a sorted list of tree entries.
type TreeObj struct {
	Entries []TreeEntry // sorted by Name
}

// Find returns the entry with the given name.
func (t *TreeObj) Find(name string) (TreeEntry, bool) {
	for _, e := range t.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return TreeEntry{}, false
}

// CommitObj represents a commit pointing to a tree with metadata. Parent is
// empty for a root commit.
type CommitObj struct {
	TreeHash  Hash
	Parent    Hash
	Author    string
	Timestamp int64
	Message   string
}

func (*Blob) Type() ObjectType      { return TypeBlob }
func (*TreeObj) Type() ObjectType   { return TypeTree }
func (*CommitObj) Type() ObjectType { return TypeCommit }

func (b *Blob) Marshal() []byte      { return MarshalBlob(b) }
func (t *TreeObj) Marshal() []byte   { return MarshalTree(t) }
func (c *CommitObj) Marshal() []byte { return MarshalCommit(c) }

func (*Blob) sealed()      {}
func (*TreeObj) sealed()   {}
func (*CommitObj) sealed() {}

// Decode parses data as an object of the given type.
func Decode(objType ObjectType, data []byte) (Object, error) {
	switch objType {
	case TypeBlob:
		return UnmarshalBlob(data)
	case TypeTree:
		return UnmarshalTree(data)
	case TypeCommit:
		return UnmarshalCommit(data)
	default:
		return nil, fmt.Errorf("%w: unknown object type %q", ErrCorruptObject, objType)
	}
}
