package index

import (
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	unicodetok "github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search"
)

const (
	nameAnalyzerName = "filename_analyzer"

	// strictFuzziness and relaxedFuzziness are the two edit-distance
	// configurations. Relaxed is tried only when strict yields fewer than
	// the floor.
	strictFuzziness  = 1
	relaxedFuzziness = 2

	defaultRelaxedFloor    = 5
	defaultMatcherLimit    = 50
	defaultNameFieldBoost  = 3.0
	defaultAliasFieldBoost = 2.0
	defaultPathFieldBoost  = 1.0
)

// BleveMatcher implements Matcher over a memory-only bleve index.
type BleveMatcher struct {
	mu    sync.RWMutex
	index bleve.Index
	floor int
	limit int
}

// bleveDoc is the document shape stored in the bleve index. Fields arrive
// pre-normalized from the store.
type bleveDoc struct {
	Name    string   `json:"name"`
	Aliases []string `json:"aliases"`
	Path    string   `json:"path"`
}

// NewBleveMatcher creates a memory-only approximate matcher. floor is the
// minimum strict-threshold hit count below which the relaxed threshold is
// retried; non-positive means the default.
func NewBleveMatcher(floor int) (*BleveMatcher, error) {
	if floor <= 0 {
		floor = defaultRelaxedFloor
	}
	idx, err := bleve.NewMemOnly(matcherMapping())
	if err != nil {
		return nil, fmt.Errorf("matcher: create index: %w", err)
	}
	return &BleveMatcher{index: idx, floor: floor, limit: defaultMatcherLimit}, nil
}

func matcherMapping() mapping.IndexMapping {
	m := bleve.NewIndexMapping()
	// Tokenize on unicode word boundaries and lowercase; diacritic folding
	// already happened upstream.
	if err := m.AddCustomAnalyzer(nameAnalyzerName, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     unicodetok.Name,
		"token_filters": []string{lowercase.Name},
	}); err == nil {
		m.DefaultAnalyzer = nameAnalyzerName
	}
	return m
}

// Add indexes a single document.
func (m *BleveMatcher) Add(doc *DocumentRef) error {
	if doc == nil || doc.Key == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.index.Index(doc.Key, toBleveDoc(doc)); err != nil {
		return fmt.Errorf("matcher: index %s: %w", doc.Key, err)
	}
	return nil
}

// Remove deletes a document by key; removing an absent key is a no-op.
func (m *BleveMatcher) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.index.Delete(key); err != nil {
		return fmt.Errorf("matcher: delete %s: %w", key, err)
	}
	return nil
}

// SetCollection atomically replaces the entire indexed collection.
func (m *BleveMatcher) SetCollection(docs []*DocumentRef) error {
	fresh, err := bleve.NewMemOnly(matcherMapping())
	if err != nil {
		return fmt.Errorf("matcher: create index: %w", err)
	}
	batch := fresh.NewBatch()
	for _, doc := range docs {
		if doc == nil || doc.Key == "" {
			continue
		}
		if err := batch.Index(doc.Key, toBleveDoc(doc)); err != nil {
			return fmt.Errorf("matcher: batch %s: %w", doc.Key, err)
		}
	}
	if err := fresh.Batch(batch); err != nil {
		return fmt.Errorf("matcher: apply batch: %w", err)
	}

	m.mu.Lock()
	old := m.index
	m.index = fresh
	m.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
	return nil
}

// Search runs the strict configuration first and falls back to the relaxed
// one when the strict result count is below the floor.
func (m *BleveMatcher) Search(query string) ([]Candidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hits, err := m.search(query, strictFuzziness)
	if err != nil {
		return nil, err
	}
	if len(hits) < m.floor {
		relaxed, relaxedErr := m.search(query, relaxedFuzziness)
		if relaxedErr == nil && len(relaxed) > len(hits) {
			hits = relaxed
		}
	}
	return hits, nil
}

func (m *BleveMatcher) search(query string, fuzziness int) ([]Candidate, error) {
	nameQ := bleve.NewMatchQuery(query)
	nameQ.SetField("name")
	nameQ.SetFuzziness(fuzziness)
	nameQ.SetBoost(defaultNameFieldBoost)

	aliasQ := bleve.NewMatchQuery(query)
	aliasQ.SetField("aliases")
	aliasQ.SetFuzziness(fuzziness)
	aliasQ.SetBoost(defaultAliasFieldBoost)

	pathQ := bleve.NewMatchQuery(query)
	pathQ.SetField("path")
	pathQ.SetFuzziness(fuzziness)
	pathQ.SetBoost(defaultPathFieldBoost)

	// Edit distance alone misses queries that are substrings of longer
	// tokens, so a name prefix query joins the disjunction.
	prefixQ := bleve.NewPrefixQuery(query)
	prefixQ.SetField("name")
	prefixQ.SetBoost(defaultAliasFieldBoost)

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(nameQ, aliasQ, pathQ, prefixQ))
	req.Size = m.limit
	req.IncludeLocations = true

	res, err := m.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("matcher: search: %w", err)
	}

	out := make([]Candidate, 0, len(res.Hits))
	for _, hit := range res.Hits {
		if hit == nil || hit.ID == "" {
			continue
		}
		out = append(out, Candidate{
			Key:   hit.ID,
			Cost:  1 / (1 + hit.Score),
			Field: fieldFor(hit),
		})
	}
	return out, nil
}

// Close releases the underlying index.
func (m *BleveMatcher) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.index == nil {
		return nil
	}
	err := m.index.Close()
	m.index = nil
	return err
}

func toBleveDoc(doc *DocumentRef) bleveDoc {
	return bleveDoc{Name: doc.Name, Aliases: doc.Aliases, Path: doc.Path}
}

// fieldFor attributes a hit to the highest-priority field that produced it.
func fieldFor(hit *search.DocumentMatch) MatchField {
	if _, ok := hit.Locations["name"]; ok {
		return FieldName
	}
	if _, ok := hit.Locations["aliases"]; ok {
		return FieldAlias
	}
	return FieldKey
}
