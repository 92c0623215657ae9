// Package watcher bridges filesystem notifications to index mutations.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/chhoumann/quickadd-sub002/internal/models"
)

// Index is the slice of the file index the watcher drives.
type Index interface {
	OnDocumentCreated(key string)
	OnDocumentChanged(key string)
	OnDocumentDeleted(key string)
	ModTimes() map[string]time.Time
}

// Lister enumerates the vault for reconciliation passes.
type Lister interface {
	List(dir string) ([]models.FileMeta, error)
}

const reconcileDelay = 200 * time.Millisecond

// Watch starts an fsnotify watcher on the vault root and forwards file
// change events to the index until ctx is cancelled.
//
// New directories created at runtime are added to the watch list and their
// markdown files are indexed. Rename events fire on the OLD path only, so a
// short debounced reconciliation pass follows each rename to pick up the new
// path and drop stale entries.
func Watch(ctx context.Context, idx Index, vault Lister, vaultRoot string, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, vaultRoot); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", vaultRoot))

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			reconcile(idx, vault, logger)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", absPath))
					}
					indexNewDir(idx, vaultRoot, absPath, logger)
					continue
				}
			}

			if !strings.HasSuffix(absPath, ".md") {
				continue
			}

			rel, relErr := filepath.Rel(vaultRoot, absPath)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			switch {
			case ev.Op&fsnotify.Create != 0:
				idx.OnDocumentCreated(rel)
				logger.Debug("watcher: created", slog.String("path", rel))

			case ev.Op&fsnotify.Write != 0:
				idx.OnDocumentChanged(rel)
				logger.Debug("watcher: changed", slog.String("path", rel))

			case ev.Op&fsnotify.Remove != 0:
				idx.OnDocumentDeleted(rel)
				logger.Debug("watcher: deleted", slog.String("path", rel))

			case ev.Op&fsnotify.Rename != 0:
				// The new path arrives as a separate Create event when it
				// lands inside a watched dir. Drop the old entry now and
				// reconcile shortly after to catch stragglers.
				idx.OnDocumentDeleted(rel)
				logger.Debug("watcher: rename old deleted", slog.String("path", rel))
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reconcile syncs the index against the vault listing: entries without a
// file on disk are removed, files newer than their record are re-indexed,
// and unindexed files are added.
func reconcile(idx Index, vault Lister, logger *slog.Logger) {
	metas, err := vault.List("")
	if err != nil {
		logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	indexed := idx.ModTimes()

	disk := make(map[string]time.Time, len(metas))
	for _, m := range metas {
		disk[m.Path] = m.ModifiedAt
	}

	for p := range indexed {
		if _, ok := disk[p]; !ok {
			idx.OnDocumentDeleted(p)
			logger.Debug("reconcile: removed stale", slog.String("path", p))
		}
	}

	for p, mod := range disk {
		recorded, ok := indexed[p]
		if !ok {
			idx.OnDocumentCreated(p)
			logger.Debug("reconcile: indexed new", slog.String("path", p))
			continue
		}
		if mod.After(recorded) {
			idx.OnDocumentChanged(p)
			logger.Debug("reconcile: refreshed", slog.String("path", p))
		}
	}
}

// indexNewDir indexes any .md files found in a newly created directory.
func indexNewDir(idx Index, vaultRoot, dirPath string, logger *slog.Logger) {
	_ = filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}
		rel, relErr := filepath.Rel(vaultRoot, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		idx.OnDocumentCreated(rel)
		logger.Debug("watcher: indexed from new dir", slog.String("path", rel))
		return nil
	})
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
