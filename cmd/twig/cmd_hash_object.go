package main

import (
	"fmt"
	"io"
	"os"

	"github.com/odvcencio/twig/pkg/object"
	"github.com/spf13/cobra"
)

func newHashObjectCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "hash-object <file>",
		Short: "Store a file as a blob and print its hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return object.WrapIO("read", args[0], err)
			}

			if dryRun {
				fmt.Fprintln(cmd.OutOrStdout(), object.HashObject(object.TypeBlob, data))
				return nil
			}
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			h, err := r.Store.Write(object.TypeBlob, data)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "only compute the hash, do not store the blob")
	return cmd
}
