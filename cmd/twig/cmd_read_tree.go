package main

import (
	"fmt"

	"github.com/odvcencio/twig/pkg/object"
	"github.com/spf13/cobra"
)

func newReadTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read-tree <tree-ish>",
		Short: "Overwrite the working tree with a tree or a commit's tree",
		Long: `Overwrite the working tree with a stored tree.

Files that are not part of the tree are removed, except ignored ones.
HEAD is not changed and uncommitted work is not protected.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			h, err := r.ResolveObject(args[0])
			if err != nil {
				return err
			}
			objType, err := r.Store.Inspect(h)
			if err != nil {
				return err
			}
			switch objType {
			case object.TypeCommit:
				c, err := r.Store.ReadCommit(h)
				if err != nil {
					return err
				}
				h = c.TreeHash
			case object.TypeTree:
			default:
				return fmt.Errorf("read-tree: %s is a %s, not a tree or commit", h.Short(), objType)
			}
			if err := r.ReadTree(h); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "read tree %s\n", h.Short())
			return nil
		},
	}
}
