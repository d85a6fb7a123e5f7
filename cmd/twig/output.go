package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/odvcencio/twig/pkg/diff"
	"github.com/odvcencio/twig/pkg/repo"
)

var (
	addedColor   = color.New(color.FgGreen)
	removedColor = color.New(color.FgRed)
	changedColor = color.New(color.FgYellow)
	headerColor  = color.New(color.Bold)
	hunkColor    = color.New(color.FgCyan)
	refColor     = color.New(color.FgYellow, color.Bold)
)

func statusMarker(s repo.FileStatus) (string, *color.Color) {
	switch s {
	case repo.StatusAdded:
		return "+", addedColor
	case repo.StatusDeleted:
		return "-", removedColor
	case repo.StatusModified:
		return "~", changedColor
	default:
		return " ", nil
	}
}

// writeColoredDiff prints unified diff text, coloring each line by its
// leading marker.
func writeColoredDiff(out io.Writer, text string) {
	for _, line := range strings.SplitAfter(text, "\n") {
		if line == "" {
			continue
		}
		var c *color.Color
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			c = headerColor
		case strings.HasPrefix(line, "@@"):
			c = hunkColor
		case strings.HasPrefix(line, "+"):
			c = addedColor
		case strings.HasPrefix(line, "-"):
			c = removedColor
		}
		if c == nil {
			fmt.Fprint(out, line)
			continue
		}
		c.Fprint(out, strings.TrimSuffix(line, "\n"))
		fmt.Fprintln(out)
	}
}

func firstLine(msg string) string {
	line, _, _ := strings.Cut(msg, "\n")
	return line
}

// printDiffs renders file diffs as a stat summary or as colored unified
// diffs.
func printDiffs(out io.Writer, diffs []*diff.FileDiff, stat bool) {
	if stat {
		for _, d := range diffs {
			fmt.Fprintln(out, diff.FormatStat(d))
		}
		if len(diffs) > 0 {
			fmt.Fprintf(out, "%d file(s) changed\n", len(diffs))
		}
		return
	}
	for _, d := range diffs {
		writeColoredDiff(out, diff.FormatUnified(d, diff.DefaultContext))
	}
}
