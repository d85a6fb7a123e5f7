package main

import (
	"fmt"
	"os"
	"time"

	"github.com/odvcencio/twig/pkg/archive"
	"github.com/odvcencio/twig/pkg/object"
	"github.com/odvcencio/twig/pkg/repo"
	"github.com/spf13/cobra"
)

func newArchiveCmd() *cobra.Command {
	var output, prefix, level string

	cmd := &cobra.Command{
		Use:   "archive [tree-ish]",
		Short: "Export a commit or tree as a .tar.zst archive",
		Long: `Export the files of a commit or tree as a zstd-compressed tar archive.

Entries are stamped with the commit time so the same commit always yields
the same archive. The compression level comes from --level or the
archive.level config key.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			spec := repo.HeadRef
			if len(args) == 1 {
				spec = args[0]
			}
			tree, mtime, err := archiveSource(r, spec)
			if err != nil {
				return err
			}

			if level == "" {
				cfg, err := r.ReadConfig()
				if err != nil {
					return err
				}
				level = cfg.Archive.Level
			}
			encLevel, err := archive.ParseLevel(level)
			if err != nil {
				return err
			}
			opts := archive.Options{Prefix: prefix, ModTime: mtime, Level: encLevel}

			if output == "" || output == "-" {
				_, err := archive.Write(cmd.OutOrStdout(), r.Store, tree, opts)
				return err
			}

			f, err := os.Create(output)
			if err != nil {
				return object.WrapIO("create", output, err)
			}
			stats, err := archive.Write(f, r.Store, tree, opts)
			if cerr := f.Close(); err == nil && cerr != nil {
				err = object.WrapIO("close", output, cerr)
			}
			if err != nil {
				os.Remove(output)
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s: %d files, %d dirs, %d bytes\n", output, stats.Files, stats.Dirs, stats.Bytes)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the archive to a file instead of stdout")
	cmd.Flags().StringVar(&prefix, "prefix", "", "prepend a directory to every entry")
	cmd.Flags().StringVar(&level, "level", "", "compression level: fastest, default, better or best")
	return cmd
}

// archiveSource resolves spec to a tree and the timestamp its entries get.
// Bare trees carry no time and are stamped with the Unix epoch.
func archiveSource(r *repo.Repo, spec string) (object.Hash, time.Time, error) {
	h, err := r.ResolveObject(spec)
	if err != nil {
		return "", time.Time{}, err
	}
	objType, err := r.Store.Inspect(h)
	if err != nil {
		return "", time.Time{}, err
	}
	switch objType {
	case object.TypeCommit:
		c, err := r.Store.ReadCommit(h)
		if err != nil {
			return "", time.Time{}, err
		}
		return c.TreeHash, time.Unix(c.Timestamp, 0), nil
	case object.TypeTree:
		return h, time.Unix(0, 0), nil
	default:
		return "", time.Time{}, fmt.Errorf("archive: %s is a %s, not a tree or commit", h.Short(), objType)
	}
}
