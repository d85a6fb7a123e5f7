package main

import (
	"fmt"

	"github.com/odvcencio/twig/pkg/repo"
	"github.com/spf13/cobra"
)

func newSwitchCmd() *cobra.Command {
	var create string

	cmd := &cobra.Command{
		Use:   "switch <branch|tag|commit>",
		Short: "Switch the working tree and HEAD to another revision",
		Long: `Switch the working tree and HEAD to another revision.

A branch name attaches HEAD to that branch; a tag or commit hash detaches
HEAD at the commit. The switch is refused while the working tree has
uncommitted changes.

With -c, a new branch is created at the given start point (HEAD by
default) and checked out.`,
		Args: cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}

			var rev repo.Revision
			switch {
			case create != "":
				start := ""
				if len(args) == 1 {
					start = args[0]
				}
				rev, err = r.SwitchNew(create, start)
			case len(args) == 1:
				rev, err = r.Switch(args[0])
			default:
				return fmt.Errorf("switch: a target is required")
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if name := rev.BranchName(); name != "" {
				fmt.Fprintf(out, "Switched to branch '%s'\n", name)
			} else {
				fmt.Fprintf(out, "HEAD is now at %s (detached)\n", rev.Hash.Short())
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&create, "create", "c", "", "create a new branch and switch to it")
	return cmd
}
