package repo

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// IgnoreFileName is the per-repository ignore file read from the working
// tree root.
const IgnoreFileName = ".twigignore"

// IgnoreChecker determines if a path should be ignored.
type IgnoreChecker struct {
	patterns []ignorePattern
}

type ignorePattern struct {
	pattern  string
	negated  bool
	dirOnly  bool
	hasSlash bool // pattern contains a slash, so match against full path
	globs    []glob.Glob
}

// NewIgnoreChecker creates an IgnoreChecker for the given working tree
// root. It always ignores .twig/ and .git/. Patterns from the .twigignore
// file in root are applied first, then extra (typically core.ignore from
// the repository config).
func NewIgnoreChecker(root string, extra []string) *IgnoreChecker {
	ic := &IgnoreChecker{}

	if f, err := os.Open(filepath.Join(root, IgnoreFileName)); err == nil {
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if p := parseLine(scanner.Text()); p != nil {
				ic.patterns = append(ic.patterns, *p)
			}
		}
		f.Close()
	}
	for _, line := range extra {
		if p := parseLine(line); p != nil {
			ic.patterns = append(ic.patterns, *p)
		}
	}
	return ic
}

// parseLine parses a single ignore line. Returns nil if the line is empty,
// a comment, or not a valid glob.
func parseLine(line string) *ignorePattern {
	line = strings.TrimRight(line, " \t\r")
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	p := &ignorePattern{}
	if strings.HasPrefix(line, "!") {
		p.negated = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.dirOnly = true
		line = strings.TrimRight(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		p.hasSlash = true
		line = strings.TrimLeft(line, "/")
	}
	if line == "" {
		return nil
	}
	if strings.Contains(line, "/") {
		p.hasSlash = true
	}
	p.pattern = line

	sources := []string{line}
	if rest, ok := strings.CutPrefix(line, "**/"); ok {
		// "**/x" also matches x at the top level.
		sources = append(sources, rest)
	}
	for _, src := range sources {
		g, err := glob.Compile(src, '/')
		if err != nil {
			return nil
		}
		p.globs = append(p.globs, g)
	}
	return p
}

// IsIgnored checks whether a relative, slash-separated path should be
// ignored. A path is ignored when any of its parent directories is
// ignored; otherwise the last matching pattern wins so that "!" lines can
// re-include it.
func (ic *IgnoreChecker) IsIgnored(path string, isDir bool) bool {
	path = strings.Trim(filepath.ToSlash(path), "/")
	if path == "" || path == "." {
		return false
	}

	parts := strings.Split(path, "/")
	for _, part := range parts {
		if part == DirName || part == ".git" {
			return true
		}
	}
	for i := 1; i < len(parts); i++ {
		if ic.match(strings.Join(parts[:i], "/"), true) {
			return true
		}
	}
	return ic.match(path, isDir)
}

func (ic *IgnoreChecker) match(path string, isDir bool) bool {
	base := path
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		base = path[idx+1:]
	}

	ignored := false
	for i := range ic.patterns {
		p := &ic.patterns[i]
		if p.dirOnly && !isDir {
			continue
		}
		target := base
		if p.hasSlash {
			target = path
		}
		if p.matches(target) {
			ignored = !p.negated
		}
	}
	return ignored
}

func (p *ignorePattern) matches(target string) bool {
	for _, g := range p.globs {
		if g.Match(target) {
			return true
		}
	}
	return false
}
