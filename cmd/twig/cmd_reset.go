package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <commit>",
		Short: "Move the current branch back to an earlier commit",
		Long: `Move the current branch (or the detached HEAD) to a commit and
rewrite the working tree to match it.

The target must be an ancestor of HEAD unless reset.allow_non_ancestor is
set. Reset is refused while the working tree has uncommitted changes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			h, err := r.Reset(args[0])
			if err != nil {
				return err
			}
			c, err := r.Store.ReadCommit(h)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "HEAD is now at %s %s\n", h.Short(), firstLine(c.Message))
			return nil
		},
	}
}
