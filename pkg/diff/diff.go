// Package diff computes line-level differences between two revisions of a
// file and renders them as unified diffs.
package diff

import (
	"bytes"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// ChangeType classifies what happened to a file between two snapshots.
type ChangeType int

const (
	Added    ChangeType = iota // File exists only in the after snapshot.
	Removed                    // File exists only in the before snapshot.
	Modified                   // File exists in both snapshots with different content.
)

func (t ChangeType) String() string {
	switch t {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Modified:
		return "modified"
	default:
		return "unknown"
	}
}

// FileDiff holds both revisions of a single changed file.
type FileDiff struct {
	Path   string
	Type   ChangeType
	Before []byte // nil for Added.
	After  []byte // nil for Removed.
}

// LineOp is the kind of a diff line.
type LineOp int

const (
	Equal LineOp = iota
	Insert
	Delete
)

// Line is one line of a line diff, without its trailing newline.
type Line struct {
	Op   LineOp
	Text string
}

// Lines computes a line-level diff of before and after.
func Lines(before, after []byte) []Line {
	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(string(before), string(after))
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var out []Line
	for _, d := range diffs {
		op := Equal
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			op = Insert
		case diffmatchpatch.DiffDelete:
			op = Delete
		}
		for _, text := range splitLines(d.Text) {
			out = append(out, Line{Op: op, Text: text})
		}
	}
	return out
}

// splitLines splits s at newlines. A trailing newline does not produce an
// empty final line.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

// Stat counts inserted and deleted lines.
func Stat(lines []Line) (insertions, deletions int) {
	for _, l := range lines {
		switch l.Op {
		case Insert:
			insertions++
		case Delete:
			deletions++
		}
	}
	return insertions, deletions
}

// IsBinary reports whether data looks like binary content: a NUL byte in
// the first 8000 bytes.
func IsBinary(data []byte) bool {
	const sniffLen = 8000
	if len(data) > sniffLen {
		data = data[:sniffLen]
	}
	return bytes.IndexByte(data, 0) >= 0
}
