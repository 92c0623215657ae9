package models

import "time"

// FileMeta is a lightweight representation of a vault file returned by
// storage list operations.
type FileMeta struct {
	Path       string    `json:"path"`
	ModifiedAt time.Time `json:"modified_at"`
}
