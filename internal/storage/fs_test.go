package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/chhoumann/quickadd-sub002/internal/apperr"
)

func testFS(t *testing.T) (string, *FS) {
	t.Helper()
	dir := t.TempDir()
	f, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return dir, f
}

func TestNewFS_MissingRoot(t *testing.T) {
	if _, err := NewFS(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing root")
	}
}

func TestList_OnlyMarkdown(t *testing.T) {
	dir, f := testFS(t)
	_ = os.WriteFile(filepath.Join(dir, "a.md"), []byte("# A"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "b.txt"), []byte("skip"), 0o644)
	_ = os.MkdirAll(filepath.Join(dir, "sub"), 0o755)
	_ = os.WriteFile(filepath.Join(dir, "sub", "c.md"), []byte("# C"), 0o644)

	metas, err := f.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(metas) != 2 {
		t.Fatalf("len(metas) = %d, want 2", len(metas))
	}
	for _, m := range metas {
		if m.ModifiedAt.IsZero() {
			t.Errorf("missing mtime for %s", m.Path)
		}
	}
}

func TestRead_TraversalRejected(t *testing.T) {
	_, f := testFS(t)
	if _, err := f.Read("../outside.md"); !errors.Is(err, apperr.ErrInvalidPath) {
		t.Errorf("traversal error = %v, want ErrInvalidPath", err)
	}
	if _, err := f.Read("/etc/passwd"); !errors.Is(err, apperr.ErrInvalidPath) {
		t.Errorf("absolute path error = %v, want ErrInvalidPath", err)
	}
}

func TestRead_MissingIsNotFound(t *testing.T) {
	_, f := testFS(t)
	if _, err := f.Read("absent.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing file error = %v, want ErrNotFound", err)
	}
}

func TestRead_RoundTrip(t *testing.T) {
	dir, f := testFS(t)
	want := []byte("---\ntitle: X\n---\nbody")
	_ = os.WriteFile(filepath.Join(dir, "x.md"), want, 0o644)

	got, err := f.Read("x.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(want) {
		t.Errorf("content = %q, want %q", got, want)
	}
}
