package main

import (
	"fmt"

	"github.com/odvcencio/twig/pkg/repo"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "config [key [value]]",
		Short: "Get or set repository options in .twig/config.toml",
		Long: `Get or set repository options.

Keys: user.name, core.ignore (comma-separated patterns),
reset.allow_non_ancestor, archive.level.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			switch {
			case list || len(args) == 0:
				for _, key := range repo.ConfigKeys {
					v, err := r.ConfigValue(key)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "%s=%s\n", key, v)
				}
			case len(args) == 1:
				v, err := r.ConfigValue(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(out, v)
			default:
				return r.SetConfigValue(args[0], args[1])
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&list, "list", "l", false, "list every key")
	return cmd
}
