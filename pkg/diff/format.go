package diff

import (
	"fmt"
	"strings"
)

// DefaultContext is the number of unchanged lines shown around a change.
const DefaultContext = 3

// FormatUnified renders d as a unified diff with the given context.
//
// Output format:
//
//	--- a/path
//	+++ b/path
//	@@ -1,2 +1,2 @@
//	 unchanged
//	-old line
//	+new line
//
// Added files use /dev/null as the old name and removed files as the new
// name. Binary content is reported in a single line instead of hunks.
func FormatUnified(d *FileDiff, context int) string {
	oldName, newName := "a/"+d.Path, "b/"+d.Path
	switch d.Type {
	case Added:
		oldName = "/dev/null"
	case Removed:
		newName = "/dev/null"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "--- %s\n", oldName)
	fmt.Fprintf(&b, "+++ %s\n", newName)

	if IsBinary(d.Before) || IsBinary(d.After) {
		fmt.Fprintf(&b, "Binary files %s and %s differ\n", oldName, newName)
		return b.String()
	}

	for _, h := range Hunks(Lines(d.Before, d.After), context) {
		fmt.Fprintf(&b, "@@ -%s +%s @@\n", hunkRange(h.OldStart, h.OldLines), hunkRange(h.NewStart, h.NewLines))
		for _, l := range h.Lines {
			switch l.Op {
			case Equal:
				b.WriteByte(' ')
			case Insert:
				b.WriteByte('+')
			case Delete:
				b.WriteByte('-')
			}
			b.WriteString(l.Text)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// hunkRange formats a hunk range; an empty range refers to the line
// before it.
func hunkRange(start, count int) string {
	if count == 0 {
		start--
	}
	if count == 1 {
		return fmt.Sprintf("%d", start)
	}
	return fmt.Sprintf("%d,%d", start, count)
}

// FormatStat renders a one-line summary such as "a.txt | 3 ++-".
func FormatStat(d *FileDiff) string {
	if IsBinary(d.Before) || IsBinary(d.After) {
		return fmt.Sprintf("%s | Bin", d.Path)
	}
	ins, del := Stat(Lines(d.Before, d.After))
	return fmt.Sprintf("%s | %d %s%s", d.Path, ins+del, strings.Repeat("+", ins), strings.Repeat("-", del))
}
