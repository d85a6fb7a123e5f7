package main

import (
	"fmt"
	"io"
	"time"

	"github.com/odvcencio/twig/pkg/object"
	"github.com/spf13/cobra"
)

func newCatObjectCmd() *cobra.Command {
	var showType, pretty bool

	cmd := &cobra.Command{
		Use:   "cat-object <object>",
		Short: "Print the content, type or a readable form of a stored object",
		Long: `Print a stored object.

The object may be a hash or unique hash prefix, a branch, a tag, HEAD,
or <rev>:<path> for a file or directory inside a commit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if showType && pretty {
				return fmt.Errorf("-t and -p are mutually exclusive")
			}
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			h, err := r.ResolveObject(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if showType {
				objType, err := r.Store.Inspect(h)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, objType)
				return nil
			}

			objType, data, err := r.Store.Read(h)
			if err != nil {
				return err
			}
			if !pretty {
				_, err := out.Write(data)
				return err
			}
			obj, err := object.Decode(objType, data)
			if err != nil {
				return err
			}
			return prettyPrint(out, obj)
		},
	}

	cmd.Flags().BoolVarP(&showType, "type", "t", false, "print the object type")
	cmd.Flags().BoolVarP(&pretty, "pretty", "p", false, "pretty-print the object")
	return cmd
}

func prettyPrint(out io.Writer, obj object.Object) error {
	switch o := obj.(type) {
	case *object.Blob:
		_, err := out.Write(o.Data)
		return err
	case *object.TreeObj:
		for _, e := range o.Entries {
			fmt.Fprintf(out, "%-6s %s\t%s\n", e.Type, e.Hash, e.Name)
		}
	case *object.CommitObj:
		fmt.Fprintf(out, "tree      %s\n", o.TreeHash)
		if o.Parent != "" {
			fmt.Fprintf(out, "parent    %s\n", o.Parent)
		}
		fmt.Fprintf(out, "author    %s\n", o.Author)
		fmt.Fprintf(out, "date      %s\n", time.Unix(o.Timestamp, 0).UTC().Format(time.RFC3339))
		fmt.Fprintf(out, "\n%s\n", o.Message)
	}
	return nil
}
