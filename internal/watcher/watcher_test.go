package watcher

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/chhoumann/quickadd-sub002/internal/storage"
)

// recordingIndex captures the mutation calls the watcher makes.
type recordingIndex struct {
	mu    sync.Mutex
	calls []string
	times map[string]time.Time
}

func newRecordingIndex() *recordingIndex {
	return &recordingIndex{times: make(map[string]time.Time)}
}

func (r *recordingIndex) OnDocumentCreated(key string) { r.record("created:" + key) }
func (r *recordingIndex) OnDocumentChanged(key string) { r.record("changed:" + key) }
func (r *recordingIndex) OnDocumentDeleted(key string) { r.record("deleted:" + key) }

func (r *recordingIndex) ModTimes() map[string]time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]time.Time, len(r.times))
	for k, v := range r.times {
		out[k] = v
	}
	return out
}

func (r *recordingIndex) record(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *recordingIndex) setModTime(key string, t time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.times[key] = t
}

func (r *recordingIndex) saw(call string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.calls {
		if c == call {
			return true
		}
	}
	return false
}

func watcherTestEnv(t *testing.T) (string, *storage.FS, *recordingIndex, *slog.Logger) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store, newRecordingIndex(), slog.New(slog.NewTextHandler(io.Discard, nil))
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatcher_FileLifecycle(t *testing.T) {
	vaultDir, store, idx, logger := watcherTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, idx, store, vaultDir, logger)
	time.Sleep(100 * time.Millisecond)

	target := filepath.Join(vaultDir, "new.md")
	if err := os.WriteFile(target, []byte("# New"), 0o644); err != nil {
		t.Fatal(err)
	}
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return idx.saw("created:new.md")
	}, "create not forwarded")

	if err := os.WriteFile(target, []byte("# Changed"), 0o644); err != nil {
		t.Fatal(err)
	}
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return idx.saw("changed:new.md")
	}, "write not forwarded")

	if err := os.Remove(target); err != nil {
		t.Fatal(err)
	}
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return idx.saw("deleted:new.md")
	}, "remove not forwarded")
}

func TestWatcher_IgnoresNonMarkdown(t *testing.T) {
	vaultDir, store, idx, logger := watcherTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, idx, store, vaultDir, logger)
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(vaultDir, "image.png"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(vaultDir, "note.md"), []byte("# N"), 0o644); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return idx.saw("created:note.md")
	}, "markdown file not forwarded")
	if idx.saw("created:image.png") {
		t.Error("non-markdown file forwarded to the index")
	}
}

func TestWatcher_NewDirectoryIndexed(t *testing.T) {
	vaultDir, store, idx, logger := watcherTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, idx, store, vaultDir, logger)
	time.Sleep(100 * time.Millisecond)

	// Create the directory with a file already in it, then another file
	// afterwards; both must reach the index.
	staging := t.TempDir()
	if err := os.WriteFile(filepath.Join(staging, "inside.md"), []byte("# I"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(staging, filepath.Join(vaultDir, "sub")); err != nil {
		t.Fatal(err)
	}
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return idx.saw("created:sub/inside.md")
	}, "file inside new directory not indexed")

	if err := os.WriteFile(filepath.Join(vaultDir, "sub", "later.md"), []byte("# L"), 0o644); err != nil {
		t.Fatal(err)
	}
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return idx.saw("created:sub/later.md")
	}, "new directory not added to the watch list")
}

func TestWatcher_RenameReconciles(t *testing.T) {
	vaultDir, store, idx, logger := watcherTestEnv(t)

	oldPath := filepath.Join(vaultDir, "old.md")
	if err := os.WriteFile(oldPath, []byte("# Old"), 0o644); err != nil {
		t.Fatal(err)
	}
	idx.setModTime("old.md", time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, idx, store, vaultDir, logger)
	time.Sleep(100 * time.Millisecond)

	if err := os.Rename(oldPath, filepath.Join(vaultDir, "new.md")); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return idx.saw("deleted:old.md")
	}, "old path not dropped after rename")
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return idx.saw("created:new.md")
	}, "new path not picked up after rename")
}

func TestReconcile_SyncsBothDirections(t *testing.T) {
	_, store, idx, logger := watcherTestEnv(t)

	// Indexed but gone from disk.
	idx.setModTime("stale.md", time.Now())
	// On disk but never indexed is covered by writing a real file.
	if err := os.WriteFile(filepath.Join(store.Root(), "fresh.md"), []byte("# F"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Indexed with an older timestamp than the file on disk.
	if err := os.WriteFile(filepath.Join(store.Root(), "edited.md"), []byte("# E"), 0o644); err != nil {
		t.Fatal(err)
	}
	idx.setModTime("edited.md", time.Now().Add(-time.Hour))

	reconcile(idx, store, logger)

	if !idx.saw("deleted:stale.md") {
		t.Error("stale entry not removed")
	}
	if !idx.saw("created:fresh.md") {
		t.Error("unindexed file not added")
	}
	if !idx.saw("changed:edited.md") {
		t.Error("outdated entry not refreshed")
	}
	if idx.saw("changed:fresh.md") || idx.saw("deleted:edited.md") {
		t.Errorf("unexpected calls: %v", idx.calls)
	}
}

var _ Index = (*recordingIndex)(nil)
