// Package storage defines the vault file-system abstraction.
package storage

import "github.com/chhoumann/quickadd-sub002/internal/models"

// Provider is the read-only interface the index uses to enumerate and read
// vault files. The index never writes to the vault; mutations arrive as
// watcher events.
type Provider interface {
	// List returns metadata for every .md file under dir (relative to vault root).
	List(dir string) ([]models.FileMeta, error)
	// Read returns the raw bytes of the file at path (relative to vault root).
	Read(path string) ([]byte, error)
}
