// Package archive exports a tree snapshot as a zstd-compressed tar stream.
package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/odvcencio/twig/pkg/object"
)

// TreeReader reads tree and blob objects. *object.Store satisfies it.
type TreeReader interface {
	ReadTree(h object.Hash) (*object.TreeObj, error)
	ReadBlob(h object.Hash) (*object.Blob, error)
}

// Options controls Write.
type Options struct {
	// Prefix is prepended to every entry name, e.g. "project-1.0/".
	Prefix string
	// ModTime is stamped on every entry so that the same tree always
	// produces the same archive. Commit timestamps are a good choice.
	ModTime time.Time
	// Level is the zstd encoder level. Zero means zstd.SpeedDefault.
	Level zstd.EncoderLevel
}

// ParseLevel maps a config level name (fastest, default, better, best) to
// an encoder level. The empty string selects the default.
func ParseLevel(name string) (zstd.EncoderLevel, error) {
	if name == "" {
		return zstd.SpeedDefault, nil
	}
	ok, level := zstd.EncoderLevelFromString(name)
	if !ok {
		return 0, fmt.Errorf("archive: unknown compression level %q", name)
	}
	return level, nil
}

// Stats reports what Write emitted.
type Stats struct {
	Files int
	Dirs  int
	Bytes int64 // uncompressed file content
}

// Write streams the tree rooted at tree to w as a tar archive compressed
// with zstd. Entries appear in tree order, directories before their
// contents.
func Write(w io.Writer, src TreeReader, tree object.Hash, opts Options) (Stats, error) {
	level := opts.Level
	if level == 0 {
		level = zstd.SpeedDefault
	}
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(level))
	if err != nil {
		return Stats{}, fmt.Errorf("archive: %w", err)
	}
	tw := tar.NewWriter(enc)

	var stats Stats
	if err := writeTree(tw, src, tree, opts.Prefix, opts.ModTime.UTC(), &stats); err != nil {
		enc.Close()
		return stats, fmt.Errorf("archive: %w", err)
	}
	if err := tw.Close(); err != nil {
		enc.Close()
		return stats, fmt.Errorf("archive: close tar: %w", err)
	}
	if err := enc.Close(); err != nil {
		return stats, fmt.Errorf("archive: close zstd: %w", err)
	}
	return stats, nil
}

func writeTree(tw *tar.Writer, src TreeReader, h object.Hash, prefix string, mtime time.Time, stats *Stats) error {
	treeObj, err := src.ReadTree(h)
	if err != nil {
		return fmt.Errorf("read tree %s: %w", h.Short(), err)
	}
	for _, e := range treeObj.Entries {
		name := path.Join(prefix, e.Name)
		if e.IsDir() {
			hdr := &tar.Header{
				Typeflag: tar.TypeDir,
				Name:     name + "/",
				Mode:     0o755,
				ModTime:  mtime,
				Format:   tar.FormatPAX,
			}
			if err := tw.WriteHeader(hdr); err != nil {
				return fmt.Errorf("write header %q: %w", name, err)
			}
			stats.Dirs++
			if err := writeTree(tw, src, e.Hash, name, mtime, stats); err != nil {
				return err
			}
			continue
		}

		blob, err := src.ReadBlob(e.Hash)
		if err != nil {
			return fmt.Errorf("read blob %q: %w", name, err)
		}
		hdr := &tar.Header{
			Typeflag: tar.TypeReg,
			Name:     name,
			Mode:     0o644,
			Size:     int64(len(blob.Data)),
			ModTime:  mtime,
			Format:   tar.FormatPAX,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("write header %q: %w", name, err)
		}
		if _, err := tw.Write(blob.Data); err != nil {
			return fmt.Errorf("write %q: %w", name, err)
		}
		stats.Files++
		stats.Bytes += int64(len(blob.Data))
	}
	return nil
}
