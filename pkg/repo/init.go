package repo

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/odvcencio/twig/pkg/object"
)

// DefaultBranch is the branch HEAD points at in a fresh repository.
const DefaultBranch = "main"

// Init creates a new twig repository at path. It creates the .twig/
// directory structure: HEAD, objects/, refs/heads/ and refs/tags/. Returns
// an error if a .twig/ directory already exists.
func Init(path string) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("init: abs path: %w", err)
	}
	twigDir := filepath.Join(abs, DirName)

	if _, err := os.Stat(twigDir); err == nil {
		return nil, fmt.Errorf("init: repository already exists at %s", twigDir)
	}

	dirs := []string{
		filepath.Join(twigDir, "objects"),
		filepath.Join(twigDir, "refs", "heads"),
		filepath.Join(twigDir, "refs", "tags"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("init: %w", object.WrapIO("mkdir", d, err))
		}
	}

	headPath := filepath.Join(twigDir, HeadRef)
	if err := os.WriteFile(headPath, []byte(Symbolic(BranchPrefix+DefaultBranch).String()+"\n"), 0o644); err != nil {
		return nil, fmt.Errorf("init: write HEAD: %w", object.WrapIO("write", headPath, err))
	}

	return newRepo(abs, twigDir), nil
}

// Open searches upward from path for a .twig/ directory and opens the
// repository. Returns an error if no .twig/ directory is found.
func Open(path string) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("open: abs path: %w", err)
	}

	cur := abs
	for {
		twigDir := filepath.Join(cur, DirName)
		info, err := os.Stat(twigDir)
		if err == nil && info.IsDir() {
			return newRepo(cur, twigDir), nil
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return nil, fmt.Errorf("open: not a twig repository (or any parent up to /)")
		}
		cur = parent
	}
}
