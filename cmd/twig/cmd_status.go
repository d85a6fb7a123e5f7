package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/odvcencio/twig/pkg/repo"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	var all, watch bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show how the working tree differs from HEAD",
		Long: `Show how the working tree differs from the HEAD commit.

Status never writes objects. With --watch it keeps running and prints a
fresh report whenever the working tree or refs change.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			if watch {
				return watchStatus(cmd.Context(), r, cmd.OutOrStdout(), all)
			}
			return printStatus(cmd.OutOrStdout(), r, all)
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "also list unmodified files")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "re-print status when files change")
	return cmd
}

func printStatus(out io.Writer, r *repo.Repo, all bool) error {
	branch, err := r.CurrentBranch()
	if err != nil {
		return err
	}
	if branch != "" {
		fmt.Fprintf(out, "On branch %s\n", refColor.Sprint(branch))
	} else {
		head, err := r.Resolve(repo.HeadRef)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "HEAD detached at %s\n", refColor.Sprint(head.Short()))
	}
	if _, err := r.Resolve(repo.HeadRef); errors.Is(err, repo.ErrNoCommitsYet) {
		fmt.Fprintln(out, "(no commits yet)")
	}

	entries, err := r.Status()
	if err != nil {
		return err
	}
	if !all {
		entries = repo.Changes(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "nothing to commit, working tree clean")
		return nil
	}

	fmt.Fprintln(out)
	for _, e := range entries {
		marker, c := statusMarker(e.Status)
		line := fmt.Sprintf("  %s %-9s %s", marker, e.Status, e.Path)
		if c != nil {
			c.Fprintln(out, line)
		} else {
			fmt.Fprintln(out, line)
		}
	}
	return nil
}
