package main

import (
	"github.com/spf13/cobra"
)

func newDiffCmd() *cobra.Command {
	var stat bool

	cmd := &cobra.Command{
		Use:   "diff [from [to]]",
		Short: "Show line changes in the working tree or between commits",
		Long: `Show line changes.

With no arguments the working tree is compared against HEAD. With one
revision, that commit is compared against HEAD; with two, the first is
compared against the second.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}

			if len(args) == 0 {
				diffs, err := r.Diff()
				if err != nil {
					return err
				}
				printDiffs(cmd.OutOrStdout(), diffs, stat)
				return nil
			}

			toSpec := "HEAD"
			if len(args) == 2 {
				toSpec = args[1]
			}
			from, err := r.ResolveCommit(args[0])
			if err != nil {
				return err
			}
			to, err := r.ResolveCommit(toSpec)
			if err != nil {
				return err
			}
			diffs, err := r.DiffCommits(from.Hash, to.Hash)
			if err != nil {
				return err
			}
			printDiffs(cmd.OutOrStdout(), diffs, stat)
			return nil
		},
	}

	cmd.Flags().BoolVar(&stat, "stat", false, "show a per-file summary instead of the patch")
	return cmd
}
