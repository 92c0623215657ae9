package index

import (
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/chhoumann/quickadd-sub002/internal/models"
)

// fakeVault is an in-memory storage.Provider. List returns files in sorted
// path order so discovery order is deterministic.
type fakeVault struct {
	mu        sync.Mutex
	files     map[string]string
	listCalls int
	listGate  chan struct{} // when non-nil, List blocks until closed
}

func newFakeVault(files map[string]string) *fakeVault {
	if files == nil {
		files = make(map[string]string)
	}
	return &fakeVault{files: files}
}

func (v *fakeVault) List(string) ([]models.FileMeta, error) {
	v.mu.Lock()
	v.listCalls++
	gate := v.listGate
	paths := make([]string, 0, len(v.files))
	for p := range v.files {
		paths = append(paths, p)
	}
	v.mu.Unlock()

	if gate != nil {
		<-gate
	}

	sort.Strings(paths)
	out := make([]models.FileMeta, len(paths))
	for i, p := range paths {
		out[i] = models.FileMeta{Path: p, ModifiedAt: time.Now()}
	}
	return out, nil
}

func (v *fakeVault) Read(path string) ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	content, ok := v.files[path]
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	return []byte(content), nil
}

func (v *fakeVault) put(path, content string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.files[path] = content
}

func (v *fakeVault) delete(path string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.files, path)
}

func (v *fakeVault) listCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.listCalls
}

// fakeMatcher records mutations for scheduler/store tests.
type fakeMatcher struct {
	mu          sync.Mutex
	added       []string
	removed     []string
	collections int
	results     []Candidate
}

func (m *fakeMatcher) Add(doc *DocumentRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.added = append(m.added, doc.Key)
	return nil
}

func (m *fakeMatcher) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, key)
	return nil
}

func (m *fakeMatcher) SetCollection(docs []*DocumentRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections++
	return nil
}

func (m *fakeMatcher) Search(string) ([]Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.results, nil
}

func (m *fakeMatcher) Close() error { return nil }

func (m *fakeMatcher) counts() (added, removed, collections int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.added), len(m.removed), m.collections
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestIndex builds a FileIndex over an in-memory vault with the real
// bleve matcher.
func newTestIndex(t *testing.T, files map[string]string) (*FileIndex, *fakeVault) {
	t.Helper()
	vault := newFakeVault(files)
	fi, err := New(vault, Options{Logger: testLogger()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { fi.Close() })
	return fi, vault
}

// newFakeIndex builds a FileIndex with a fakeMatcher for sync-path tests.
func newFakeIndex(t *testing.T, files map[string]string) (*FileIndex, *fakeVault, *fakeMatcher) {
	t.Helper()
	vault := newFakeVault(files)
	fm := &fakeMatcher{}
	fi, err := New(vault, Options{Logger: testLogger(), Matcher: fm, DebounceWindow: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { fi.Close() })
	return fi, vault, fm
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
