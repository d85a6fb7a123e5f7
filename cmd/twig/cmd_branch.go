package main

import (
	"fmt"

	"github.com/odvcencio/twig/pkg/repo"
	"github.com/spf13/cobra"
)

func newBranchCmd() *cobra.Command {
	var deleteBranch string

	cmd := &cobra.Command{
		Use:   "branch [name [start]]",
		Short: "List, create, or delete branches",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			// Delete mode.
			if deleteBranch != "" {
				if len(args) > 0 {
					return fmt.Errorf("branch: -d takes no other arguments")
				}
				if err := r.DeleteBranch(deleteBranch); err != nil {
					return err
				}
				fmt.Fprintf(out, "deleted branch '%s'\n", deleteBranch)
				return nil
			}

			// Create mode.
			if len(args) > 0 {
				start := repo.HeadRef
				if len(args) == 2 {
					start = args[1]
				}
				rev, err := r.ResolveCommit(start)
				if err != nil {
					return err
				}
				if err := r.CreateBranch(args[0], rev.Hash); err != nil {
					return err
				}
				fmt.Fprintf(out, "created branch '%s' at %s\n", args[0], rev.Hash.Short())
				return nil
			}

			// List mode.
			branches, err := r.ListBranches()
			if err != nil {
				return err
			}
			for _, b := range branches {
				if b.Current {
					fmt.Fprintf(out, "* %s %s\n", refColor.Sprint(b.Name), b.Hash.Short())
				} else {
					fmt.Fprintf(out, "  %s %s\n", b.Name, b.Hash.Short())
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&deleteBranch, "delete", "d", "", "delete the named branch")
	return cmd
}
