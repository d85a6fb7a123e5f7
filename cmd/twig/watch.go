package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/odvcencio/twig/pkg/object"
	"github.com/odvcencio/twig/pkg/repo"
)

const watchDebounce = 100 * time.Millisecond

// watchStatus prints the status report, then prints it again every time
// the working tree, HEAD or a ref changes, until ctx is cancelled or the
// process is interrupted.
func watchStatus(ctx context.Context, r *repo.Repo, out io.Writer, all bool) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := r.ReadConfig()
	if err != nil {
		return err
	}
	ic := repo.NewIgnoreChecker(r.RootDir, cfg.Core.Ignore)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer watcher.Close()

	if err := addWorktreeDirs(watcher, r, ic, r.RootDir); err != nil {
		return err
	}
	if err := addRefDirs(watcher, r); err != nil {
		return err
	}

	if err := printStatus(out, r, all); err != nil {
		return err
	}

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ignoreWatchEvent(r, ic, event) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addWorktreeDirs(watcher, r, ic, event.Name); err != nil {
						r.Log.WithError(err).Warn("watch new directory")
					}
				}
			}
			r.Log.WithField("path", event.Name).Debug("change detected")
			debounce = time.After(watchDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.Log.WithError(err).Warn("watcher error")

		case <-debounce:
			debounce = nil
			fmt.Fprintf(out, "\n%s\n", headerColor.Sprintf("--- %s ---", time.Now().Format("15:04:05")))
			if err := printStatus(out, r, all); err != nil {
				fmt.Fprintf(out, "status: %v\n", err)
			}
		}
	}
}

// addWorktreeDirs watches dir and every non-ignored directory below it.
func addWorktreeDirs(w *fsnotify.Watcher, r *repo.Repo, ic *repo.IgnoreChecker, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return object.WrapIO("walk", p, err)
		}
		if !d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(r.RootDir, p)
		if err != nil {
			return err
		}
		if rel != "." && ic.IsIgnored(rel, true) {
			return filepath.SkipDir
		}
		if err := w.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}

// addRefDirs watches the metadata directory (for HEAD) and the refs tree.
func addRefDirs(w *fsnotify.Watcher, r *repo.Repo) error {
	if err := w.Add(r.TwigDir); err != nil {
		return fmt.Errorf("watch %s: %w", r.TwigDir, err)
	}
	refsDir := filepath.Join(r.TwigDir, "refs")
	return filepath.WalkDir(refsDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return object.WrapIO("walk", p, err)
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}

func ignoreWatchEvent(r *repo.Repo, ic *repo.IgnoreChecker, event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return true
	}
	base := filepath.Base(event.Name)
	if strings.HasSuffix(base, ".lock") || strings.HasPrefix(base, ".tmp") {
		return true
	}

	if rel, err := filepath.Rel(r.TwigDir, event.Name); err == nil && !strings.HasPrefix(rel, "..") {
		rel = filepath.ToSlash(rel)
		return rel != repo.HeadRef && !strings.HasPrefix(rel, "refs/") && rel != "refs"
	}

	rel, err := filepath.Rel(r.RootDir, event.Name)
	if err != nil {
		return true
	}
	isDir := false
	if info, err := os.Stat(event.Name); err == nil {
		isDir = info.IsDir()
	}
	return ic.IsIgnored(rel, isDir)
}
