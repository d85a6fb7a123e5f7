package main

import (
	"fmt"

	"github.com/odvcencio/twig/pkg/repo"
	"github.com/spf13/cobra"
)

func newTagCmd() *cobra.Command {
	var deleteTag string
	var force bool

	cmd := &cobra.Command{
		Use:   "tag [name [target]]",
		Short: "List, create, or delete tags",
		Long: `List, create, or delete tags.

A tag is a fixed name for any stored object, usually a commit. The target
defaults to HEAD. An existing tag is only moved with --force.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if deleteTag != "" {
				if len(args) > 0 {
					return fmt.Errorf("tag: -d takes no other arguments")
				}
				if err := r.DeleteTag(deleteTag); err != nil {
					return err
				}
				fmt.Fprintf(out, "deleted tag '%s'\n", deleteTag)
				return nil
			}

			if len(args) > 0 {
				target := repo.HeadRef
				if len(args) == 2 {
					target = args[1]
				}
				h, err := r.ResolveObject(target)
				if err != nil {
					return err
				}
				if err := r.CreateTag(args[0], h, force); err != nil {
					return err
				}
				fmt.Fprintf(out, "tagged %s as '%s'\n", h.Short(), args[0])
				return nil
			}

			tags, err := r.ListTags()
			if err != nil {
				return err
			}
			for _, t := range tags {
				fmt.Fprintf(out, "%s %s\n", t.Name, t.Hash.Short())
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&deleteTag, "delete", "d", "", "delete the named tag")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "move an existing tag")
	return cmd
}
