package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/odvcencio/twig/pkg/object"
	"github.com/odvcencio/twig/pkg/repo"
	"github.com/spf13/cobra"
)

func newLogCmd() *cobra.Command {
	var oneline bool
	var limit int

	cmd := &cobra.Command{
		Use:   "log [rev]",
		Short: "Show commit history, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			start := repo.HeadRef
			if len(args) == 1 {
				start = args[0]
			}
			rev, err := r.ResolveCommit(start)
			if err != nil {
				return err
			}

			entries, err := r.History(rev.Hash, limit)
			if err != nil {
				return err
			}
			decorations, err := refDecorations(r)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, entry := range entries {
				decoration := decorations[entry.Hash]
				if oneline {
					short := refColor.Sprint(entry.Hash.Short())
					if decoration != "" {
						fmt.Fprintf(out, "%s %s %s\n", short, decoration, firstLine(entry.Commit.Message))
					} else {
						fmt.Fprintf(out, "%s %s\n", short, firstLine(entry.Commit.Message))
					}
					continue
				}
				if i > 0 {
					fmt.Fprintln(out)
				}
				printCommitHeader(out, entry.Hash, entry.Commit, decoration)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&oneline, "oneline", false, "show each commit on a single line")
	cmd.Flags().IntVarP(&limit, "max-count", "n", 0, "limit the number of commits shown (0 = all)")
	return cmd
}

// refDecorations builds "(HEAD -> main, tag: v1)" labels keyed by commit.
func refDecorations(r *repo.Repo) (map[object.Hash]string, error) {
	labels := make(map[object.Hash][]string)

	current, err := r.CurrentBranch()
	if err != nil {
		return nil, err
	}
	if current == "" {
		if h, err := r.Resolve(repo.HeadRef); err == nil {
			labels[h] = append(labels[h], "HEAD")
		}
	}

	branches, err := r.ListBranches()
	if err != nil {
		return nil, err
	}
	for _, b := range branches {
		name := b.Name
		if b.Current {
			name = "HEAD -> " + name
		}
		labels[b.Hash] = append(labels[b.Hash], name)
	}

	tags, err := r.ListTags()
	if err != nil {
		return nil, err
	}
	for _, t := range tags {
		labels[t.Hash] = append(labels[t.Hash], "tag: "+t.Name)
	}

	out := make(map[object.Hash]string, len(labels))
	for h, names := range labels {
		sort.SliceStable(names, func(i, j int) bool {
			return strings.HasPrefix(names[i], "HEAD") && !strings.HasPrefix(names[j], "HEAD")
		})
		out[h] = refColor.Sprint("(" + strings.Join(names, ", ") + ")")
	}
	return out, nil
}
