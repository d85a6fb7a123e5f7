package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/odvcencio/twig/pkg/repo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

// Persistent root flags.
var (
	verbose bool
	noColor bool
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "twig:", err)
		if hint := errorHint(err); hint != "" {
			fmt.Fprintln(os.Stderr, "hint:", hint)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "twig",
		Short:         "A minimal content-addressed version control system",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log repository operations to stderr")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newHashObjectCmd())
	root.AddCommand(newCatObjectCmd())
	root.AddCommand(newWriteTreeCmd())
	root.AddCommand(newReadTreeCmd())
	root.AddCommand(newCommitCmd())
	root.AddCommand(newSwitchCmd())
	root.AddCommand(newBranchCmd())
	root.AddCommand(newTagCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newResetCmd())
	root.AddCommand(newShowCmd())
	root.AddCommand(newLogCmd())
	root.AddCommand(newDiffCmd())
	root.AddCommand(newArchiveCmd())
	root.AddCommand(newVerifyCmd())
	root.AddCommand(newConfigCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "twig %s\n", version)
		},
	}
}

// openRepo opens the repository containing the working directory and
// attaches a stderr logger when --verbose is set.
func openRepo(cmd *cobra.Command) (*repo.Repo, error) {
	r, err := repo.Open(".")
	if err != nil {
		return nil, err
	}
	if verbose {
		logger := logrus.New()
		logger.SetOutput(cmd.ErrOrStderr())
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
		r.Log = logger
	}
	return r, nil
}

func errorHint(err error) string {
	switch {
	case errors.Is(err, repo.ErrUncommittedChanges):
		return "commit your changes, or remove them, before switching or resetting"
	case errors.Is(err, repo.ErrNoCommitsYet):
		return "create a first commit with: twig commit -m <message>"
	case errors.Is(err, repo.ErrNotAncestor):
		return "set reset.allow_non_ancestor = true to move the branch anyway"
	case errors.Is(err, repo.ErrAmbiguousReference):
		return "use a full ref name (refs/heads/... or refs/tags/...) or a longer hash"
	case errors.Is(err, repo.ErrRefLocked):
		return "another twig process may be running; remove the .lock file if it is stale"
	default:
		return ""
	}
}
