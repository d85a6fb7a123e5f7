package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVerifyCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check object integrity and that every ref resolves",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			rep, err := r.Fsck()
			if err != nil {
				return err
			}
			if !quiet || !rep.OK() {
				fmt.Fprint(cmd.OutOrStdout(), rep.String())
			}
			if !rep.OK() {
				return fmt.Errorf("verify: %d missing object(s), %d broken ref(s)", len(rep.Missing), len(rep.BrokenRefs))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print nothing when the repository is consistent")
	return cmd
}
