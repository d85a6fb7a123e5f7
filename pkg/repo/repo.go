package repo

import (
	"io"

	"github.com/odvcencio/twig/pkg/object"
	"github.com/sirupsen/logrus"
)

// DirName is the name of the repository metadata directory inside the
// working tree root.
const DirName = ".twig"

// Repo represents an opened twig repository. Every operation goes through
// a Repo value, so several independent repositories can be used in one
// process.
type Repo struct {
	RootDir string        // working directory root
	TwigDir string        // .twig/ directory
	Store   *object.Store // content-addressed object store

	// Log receives debug events for object writes, ref updates and
	// working-tree changes. It discards everything unless replaced.
	Log logrus.FieldLogger
}

func newRepo(root, twigDir string) *Repo {
	return &Repo{
		RootDir: root,
		TwigDir: twigDir,
		Store:   object.NewStore(twigDir),
		Log:     discardLogger(),
	}
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
