package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/odvcencio/twig/pkg/object"
	"github.com/odvcencio/twig/pkg/repo"
	"github.com/spf13/cobra"
)

func newShowCmd() *cobra.Command {
	var stat, noPatch bool

	cmd := &cobra.Command{
		Use:   "show [object]",
		Short: "Show a commit with its changes, or the content of a blob or tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			spec := repo.HeadRef
			if len(args) == 1 {
				spec = args[0]
			}
			h, err := r.ResolveObject(spec)
			if err != nil {
				return err
			}
			obj, err := r.Store.ReadObject(h)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			c, ok := obj.(*object.CommitObj)
			if !ok {
				return prettyPrint(out, obj)
			}

			printCommitHeader(out, h, c, "")
			if noPatch {
				return nil
			}
			diffs, err := r.DiffCommits(c.Parent, h)
			if err != nil {
				return err
			}
			if len(diffs) > 0 {
				fmt.Fprintln(out)
			}
			printDiffs(out, diffs, stat)
			return nil
		},
	}

	cmd.Flags().BoolVar(&stat, "stat", false, "show a per-file summary instead of the patch")
	cmd.Flags().BoolVarP(&noPatch, "no-patch", "s", false, "show only the commit header")
	return cmd
}

func printCommitHeader(out io.Writer, h object.Hash, c *object.CommitObj, decoration string) {
	if decoration != "" {
		fmt.Fprintf(out, "%s %s %s\n", headerColor.Sprint("commit"), refColor.Sprint(h), decoration)
	} else {
		fmt.Fprintf(out, "%s %s\n", headerColor.Sprint("commit"), refColor.Sprint(h))
	}
	fmt.Fprintf(out, "Author: %s\n", c.Author)
	fmt.Fprintf(out, "Date:   %s\n", time.Unix(c.Timestamp, 0).UTC().Format("2006-01-02 15:04:05 -0700"))
	fmt.Fprintln(out)
	for _, line := range strings.Split(strings.TrimRight(c.Message, "\n"), "\n") {
		fmt.Fprintf(out, "    %s\n", line)
	}
}
