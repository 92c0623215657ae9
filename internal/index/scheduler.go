package index

import (
	"sync"
	"time"
)

// DefaultDebounceWindow is the quiet period after the last mutation before
// pending operations are flushed to the matcher.
const DefaultDebounceWindow = 100 * time.Millisecond

type pendingOp uint8

const (
	opAdd pendingOp = iota + 1
	opUpdate
	opRemove
)

// scheduler coalesces per-key mutation notifications and applies them to the
// matcher in debounced batches instead of rebuilding it on every edit.
//
// Coalescing rules for an existing pending op followed by a new one:
//   - Add then Remove: cleared (created and deleted before ever syncing)
//   - Remove then Add: Update (in-place replace, typical of rename)
//   - anything else:   latest wins
type scheduler struct {
	mu      sync.Mutex
	window  time.Duration
	pending map[string]pendingOp
	timer   *time.Timer
	apply   func(map[string]pendingOp)
	stopped bool
}

func newScheduler(window time.Duration, apply func(map[string]pendingOp)) *scheduler {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &scheduler{
		window:  window,
		pending: make(map[string]pendingOp),
		apply:   apply,
	}
}

// Schedule records a mutation for key and restarts the debounce timer.
func (s *scheduler) Schedule(key string, next pendingOp) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}

	existing, ok := s.pending[key]
	switch {
	case !ok:
		s.pending[key] = next
	case existing == opAdd && next == opRemove:
		delete(s.pending, key)
	case existing == opRemove && next == opAdd:
		s.pending[key] = opUpdate
	default:
		s.pending[key] = next
	}

	// Cancel-and-reschedule: only the most recent timer fires.
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.window, s.Flush)
}

// Flush synchronously applies and clears all pending operations. Safe to
// call at any time; flushing an empty map is a no-op.
func (s *scheduler) Flush() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	batch := s.pending
	s.pending = make(map[string]pendingOp)
	s.mu.Unlock()

	if len(batch) == 0 {
		return
	}
	s.apply(batch)
}

// Discard drops all pending operations without applying them. Used when a
// full reindex supersedes the incremental batch.
func (s *scheduler) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = make(map[string]pendingOp)
}

// Stop discards pending work and rejects further scheduling.
func (s *scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = nil
}

// pendingFor reports the coalesced pending operation for key.
func (s *scheduler) pendingFor(key string) (pendingOp, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	op, ok := s.pending[key]
	return op, ok
}

// pendingCount reports how many keys have pending operations.
func (s *scheduler) pendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
