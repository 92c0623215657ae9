// Package testutil provides shared test helpers for setting up vaults and
// indexes.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/chhoumann/quickadd-sub002/internal/index"
	"github.com/chhoumann/quickadd-sub002/internal/storage"
)

// TestVault creates a temporary vault directory populated with the given
// files (vault-relative path to content) and returns its storage provider.
func TestVault(t *testing.T, files map[string]string) (string, *storage.FS) {
	t.Helper()
	vaultDir := t.TempDir()
	for name, content := range files {
		full := filepath.Join(vaultDir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// TestIndex creates a FileIndex over a temporary vault, with logging
// discarded, cleaned up with the test.
func TestIndex(t *testing.T, files map[string]string) (*index.FileIndex, *storage.FS) {
	t.Helper()
	_, store := TestVault(t, files)
	idx, err := index.New(store, index.Options{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx, store
}
