// Package index implements the incrementally maintained file-search index:
// the authoritative document store, the approximate matcher kept in sync by a
// debounced update scheduler, and the tiered search facade with its ranking
// heuristics.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/chhoumann/quickadd-sub002/internal/models"
	"github.com/chhoumann/quickadd-sub002/internal/storage"
)

const (
	// DefaultBatchSize is how many records a full build constructs between
	// cooperative yields.
	DefaultBatchSize = 64
	// DefaultMaxPending bounds a single incremental flush; larger batches
	// fall back to one full matcher resync.
	DefaultMaxPending = 20
)

// EventFunc is notified after watcher-driven index mutations.
// kind is one of "created", "updated", "deleted".
type EventFunc func(kind, key string)

// Options tunes a FileIndex. Zero values select defaults.
type Options struct {
	Logger          *slog.Logger
	Matcher         Matcher // nil: memory-only bleve matcher
	MatcherFloor    int     // relaxed-retry floor for the default matcher
	BatchSize       int
	DebounceWindow  time.Duration
	MaxPending      int
	RecencyCapacity int
	Weights         *RankWeights // nil: DefaultRankWeights
	OnEvent         EventFunc
}

// FileIndex owns the key → Document Record map and orchestrates matching,
// scheduling, and ranking. Construct with New and inject by reference; there
// is no package-level instance.
type FileIndex struct {
	store      storage.Provider
	logger     *slog.Logger
	matcher    Matcher
	recency    *RecencyTracker
	sched      *scheduler
	weights    RankWeights
	batchSize  int
	maxPending int
	onEvent    EventFunc

	mu    sync.RWMutex
	docs  map[string]*models.Document
	order []string // discovery order, kept for deterministic tie-breaks

	building chan struct{} // non-nil while a full build is in flight
	buildErr error

	unresolved      []unresolvedLink
	unresolvedDirty bool
}

// unresolvedLink is a wikilink target that resolves to no indexed document.
type unresolvedLink struct {
	text  string // original spelling, first occurrence wins
	norm  string
	count int
}

// New creates a FileIndex over the given vault provider. The index is empty
// until EnsureIndexed runs.
func New(store storage.Provider, opts Options) (*FileIndex, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	matcher := opts.Matcher
	if matcher == nil {
		var err error
		matcher, err = NewBleveMatcher(opts.MatcherFloor)
		if err != nil {
			return nil, fmt.Errorf("index: %w", err)
		}
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	maxPending := opts.MaxPending
	if maxPending <= 0 {
		maxPending = DefaultMaxPending
	}
	weights := DefaultRankWeights()
	if opts.Weights != nil {
		weights = *opts.Weights
	}

	fi := &FileIndex{
		store:      store,
		logger:     logger,
		matcher:    matcher,
		recency:    NewRecencyTracker(opts.RecencyCapacity),
		weights:    weights,
		batchSize:  batchSize,
		maxPending: maxPending,
		onEvent:    opts.OnEvent,
		docs:       make(map[string]*models.Document),
	}
	fi.sched = newScheduler(opts.DebounceWindow, fi.applyPending)
	return fi, nil
}

// Close stops the scheduler and releases the matcher.
func (fi *FileIndex) Close() error {
	fi.sched.Stop()
	return fi.matcher.Close()
}

// EnsureIndexed performs a full build if the store is empty. Concurrent
// calls while a build is in flight share the same result; a populated store
// returns immediately.
func (fi *FileIndex) EnsureIndexed(ctx context.Context) error {
	fi.mu.Lock()
	if len(fi.docs) > 0 {
		fi.mu.Unlock()
		return nil
	}
	if fi.building != nil {
		done := fi.building
		fi.mu.Unlock()
		select {
		case <-done:
			fi.mu.RLock()
			err := fi.buildErr
			fi.mu.RUnlock()
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	done := make(chan struct{})
	fi.building = done
	fi.mu.Unlock()

	err := fi.rebuild(ctx)

	fi.mu.Lock()
	fi.buildErr = err
	fi.building = nil
	fi.mu.Unlock()
	close(done)
	return err
}

// rebuild enumerates the vault and replaces the store wholesale. Records are
// constructed in fixed-size batches with a cooperative yield between batches
// so a large corpus never monopolizes the scheduler.
func (fi *FileIndex) rebuild(ctx context.Context) error {
	started := time.Now()
	metas, err := fi.store.List("")
	if err != nil {
		return fmt.Errorf("index: enumerate vault: %w", err)
	}

	docs := make(map[string]*models.Document, len(metas))
	order := make([]string, 0, len(metas))
	for i, meta := range metas {
		if i > 0 && i%fi.batchSize == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			runtime.Gosched()
		}
		if _, dup := docs[meta.Path]; dup {
			continue
		}
		docs[meta.Path] = fi.buildRecord(meta)
		order = append(order, meta.Path)
	}

	fi.mu.Lock()
	fi.docs = docs
	fi.order = order
	fi.unresolvedDirty = true
	refs := fi.matcherRefsLocked()
	fi.mu.Unlock()

	// The forthcoming full resync supersedes anything queued while we were
	// rebuilding.
	fi.sched.Discard()
	if err := fi.matcher.SetCollection(refs); err != nil {
		return fmt.Errorf("index: sync matcher: %w", err)
	}

	fi.logger.Info("index: full build complete",
		slog.Int("documents", len(order)),
		slog.Duration("elapsed", time.Since(started)))
	return nil
}

// matcherRefsLocked snapshots all records for a full matcher sync.
func (fi *FileIndex) matcherRefsLocked() []*DocumentRef {
	refs := make([]*DocumentRef, 0, len(fi.order))
	for _, key := range fi.order {
		refs = append(refs, matcherRef(fi.docs[key]))
	}
	return refs
}

// OnDocumentCreated builds and stores a record for a new vault file and
// schedules its matcher insert.
func (fi *FileIndex) OnDocumentCreated(key string) {
	doc := fi.buildRecord(models.FileMeta{Path: key, ModifiedAt: time.Now()})

	fi.mu.Lock()
	if _, exists := fi.docs[key]; !exists {
		fi.order = append(fi.order, key)
	}
	fi.docs[key] = doc
	fi.unresolvedDirty = true
	fi.mu.Unlock()

	fi.sched.Schedule(key, opAdd)
	fi.emit("created", key)
}

// OnDocumentChanged rebuilds the record for an edited file in place.
func (fi *FileIndex) OnDocumentChanged(key string) {
	doc := fi.buildRecord(models.FileMeta{Path: key, ModifiedAt: time.Now()})

	fi.mu.Lock()
	if _, exists := fi.docs[key]; !exists {
		fi.order = append(fi.order, key)
	}
	fi.docs[key] = doc
	fi.unresolvedDirty = true
	fi.mu.Unlock()

	fi.sched.Schedule(key, opUpdate)
	fi.emit("updated", key)
}

// OnDocumentDeleted drops the record and schedules its matcher removal.
func (fi *FileIndex) OnDocumentDeleted(key string) {
	fi.mu.Lock()
	if _, exists := fi.docs[key]; !exists {
		fi.mu.Unlock()
		return
	}
	delete(fi.docs, key)
	for i, k := range fi.order {
		if k == key {
			fi.order = append(fi.order[:i], fi.order[i+1:]...)
			break
		}
	}
	fi.unresolvedDirty = true
	fi.mu.Unlock()

	fi.sched.Schedule(key, opRemove)
	fi.emit("deleted", key)
}

// OnDocumentRenamed is delete(old) followed by create(new); the scheduler
// coalesces the pair into an in-place update when both land in one window.
func (fi *FileIndex) OnDocumentRenamed(oldKey, newKey string) {
	fi.OnDocumentDeleted(oldKey)
	fi.OnDocumentCreated(newKey)
}

// OnDocumentOpened feeds the recency tracker and stamps the record.
func (fi *FileIndex) OnDocumentOpened(key string) {
	t := fi.recency.Touch(key)
	fi.mu.Lock()
	if doc, ok := fi.docs[key]; ok {
		doc.OpenedAt = t
	}
	fi.mu.Unlock()
}

// applyPending is the scheduler's flush target. Updates arriving while a
// full reindex is in flight are discarded; oversized batches trigger one
// full matcher resync instead of per-key application.
func (fi *FileIndex) applyPending(batch map[string]pendingOp) {
	fi.mu.RLock()
	building := fi.building != nil
	fi.mu.RUnlock()
	if building {
		return
	}

	if len(batch) > fi.maxPending {
		fi.mu.RLock()
		refs := fi.matcherRefsLocked()
		fi.mu.RUnlock()
		if err := fi.matcher.SetCollection(refs); err != nil {
			fi.logger.Warn("index: full matcher resync failed", slog.String("error", err.Error()))
		}
		return
	}

	for key, op := range batch {
		if op == opRemove {
			if err := fi.matcher.Remove(key); err != nil {
				fi.logger.Warn("index: matcher remove failed",
					slog.String("key", key), slog.String("error", err.Error()))
			}
			continue
		}
		// Add and Update both remove first to prevent duplicate entries.
		if err := fi.matcher.Remove(key); err != nil {
			fi.logger.Warn("index: matcher remove failed",
				slog.String("key", key), slog.String("error", err.Error()))
		}
		fi.mu.RLock()
		doc, ok := fi.docs[key]
		fi.mu.RUnlock()
		if !ok {
			continue
		}
		if err := fi.matcher.Add(matcherRef(doc)); err != nil {
			fi.logger.Warn("index: matcher add failed",
				slog.String("key", key), slog.String("error", err.Error()))
		}
	}
}

// GetDocument returns the record for key. The returned record is shared;
// callers must not mutate it.
func (fi *FileIndex) GetDocument(key string) (*models.Document, bool) {
	fi.mu.RLock()
	defer fi.mu.RUnlock()
	doc, ok := fi.docs[key]
	return doc, ok
}

// IndexedCount returns the number of indexed documents.
func (fi *FileIndex) IndexedCount() int {
	fi.mu.RLock()
	defer fi.mu.RUnlock()
	return len(fi.docs)
}

// ModTimes snapshots the recorded modification time of every indexed
// document, keyed by path. Reconciliation passes compare this against the
// vault listing.
func (fi *FileIndex) ModTimes() map[string]time.Time {
	fi.mu.RLock()
	defer fi.mu.RUnlock()
	out := make(map[string]time.Time, len(fi.docs))
	for key, doc := range fi.docs {
		out[key] = doc.ModifiedAt
	}
	return out
}

// UnresolvedCount returns the number of distinct unresolved link targets.
func (fi *FileIndex) UnresolvedCount() int {
	fi.ensureUnresolved()
	fi.mu.RLock()
	defer fi.mu.RUnlock()
	return len(fi.unresolved)
}

// ensureUnresolved lazily recomputes the unresolved-link registry after
// mutations. A link target resolves when it names an indexed display name or
// key (with or without the .md extension).
func (fi *FileIndex) ensureUnresolved() {
	fi.mu.RLock()
	dirty := fi.unresolvedDirty
	fi.mu.RUnlock()
	if !dirty {
		return
	}

	fi.mu.Lock()
	defer fi.mu.Unlock()
	if !fi.unresolvedDirty {
		return
	}

	resolvable := make(map[string]struct{}, 2*len(fi.docs))
	for _, doc := range fi.docs {
		resolvable[doc.NormName] = struct{}{}
		normKey := Normalize(doc.Key)
		resolvable[normKey] = struct{}{}
		resolvable[trimMD(normKey)] = struct{}{}
	}

	counts := make(map[string]*unresolvedLink)
	for _, key := range fi.order {
		for _, target := range fi.docs[key].Links {
			normTarget := Normalize(target)
			if _, ok := resolvable[normTarget]; ok {
				continue
			}
			if _, ok := resolvable[trimMD(normTarget)]; ok {
				continue
			}
			if link, ok := counts[normTarget]; ok {
				link.count++
				continue
			}
			counts[normTarget] = &unresolvedLink{text: target, norm: normTarget, count: 1}
		}
	}

	links := make([]unresolvedLink, 0, len(counts))
	for _, link := range counts {
		links = append(links, *link)
	}
	sort.Slice(links, func(i, j int) bool {
		if links[i].count != links[j].count {
			return links[i].count > links[j].count
		}
		return links[i].text < links[j].text
	})

	fi.unresolved = links
	fi.unresolvedDirty = false
}

func trimMD(s string) string {
	if len(s) > 3 && s[len(s)-3:] == ".md" {
		return s[:len(s)-3]
	}
	return s
}

func (fi *FileIndex) emit(kind, key string) {
	if fi.onEvent != nil {
		fi.onEvent(kind, key)
	}
}
