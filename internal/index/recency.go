package index

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultRecencyCapacity bounds how many opened documents are remembered.
const DefaultRecencyCapacity = 100

// RecencyTracker is a capacity-bounded LRU of document key → last-opened
// time. Reads promote entries; inserts evict the least recently used entry
// when over capacity.
type RecencyTracker struct {
	cache *lru.Cache[string, time.Time]
	now   func() time.Time
}

// NewRecencyTracker creates a tracker holding at most capacity entries;
// non-positive means DefaultRecencyCapacity.
func NewRecencyTracker(capacity int) *RecencyTracker {
	if capacity <= 0 {
		capacity = DefaultRecencyCapacity
	}
	cache, _ := lru.New[string, time.Time](capacity)
	return &RecencyTracker{cache: cache, now: time.Now}
}

// Touch records that key was opened now and returns the recorded time.
func (r *RecencyTracker) Touch(key string) time.Time {
	t := r.now()
	r.cache.Add(key, t)
	return t
}

// OpenedAt returns the last-opened time for key, promoting it to most
// recently used.
func (r *RecencyTracker) OpenedAt(key string) (time.Time, bool) {
	return r.cache.Get(key)
}

// Len returns the number of tracked keys.
func (r *RecencyTracker) Len() int {
	return r.cache.Len()
}
