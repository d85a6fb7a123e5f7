package diff

// Hunk is a contiguous group of changed lines with surrounding context.
// Line numbers are 1-based.
type Hunk struct {
	OldStart, OldLines int
	NewStart, NewLines int
	Lines              []Line
}

// Hunks groups lines into hunks with up to context unchanged lines around
// each change. Changes separated by at most 2*context unchanged lines share
// a hunk.
func Hunks(lines []Line, context int) []Hunk {
	if context < 0 {
		context = 0
	}

	oldNo := make([]int, len(lines))
	newNo := make([]int, len(lines))
	o, n := 1, 1
	for i, l := range lines {
		oldNo[i], newNo[i] = o, n
		switch l.Op {
		case Equal:
			o++
			n++
		case Delete:
			o++
		case Insert:
			n++
		}
	}

	var hunks []Hunk
	i := 0
	for i < len(lines) {
		if lines[i].Op == Equal {
			i++
			continue
		}

		start := max(0, i-context)
		end := i
		j := i
		for j < len(lines) {
			if lines[j].Op != Equal {
				j++
				end = j
				continue
			}
			k := j
			for k < len(lines) && lines[k].Op == Equal {
				k++
			}
			if k < len(lines) && k-j <= 2*context {
				j = k
				continue
			}
			break
		}
		stop := min(len(lines), end+context)

		h := Hunk{OldStart: oldNo[start], NewStart: newNo[start], Lines: lines[start:stop]}
		for _, l := range h.Lines {
			switch l.Op {
			case Equal:
				h.OldLines++
				h.NewLines++
			case Delete:
				h.OldLines++
			case Insert:
				h.NewLines++
			}
		}
		hunks = append(hunks, h)
		i = stop
	}
	return hunks
}
