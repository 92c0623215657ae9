package index

// MatchField identifies which indexed field produced an approximate match.
type MatchField uint8

const (
	FieldName MatchField = iota
	FieldAlias
	FieldKey
)

// Candidate is one approximate-match hit. Cost is the engine's distance
// converted so that lower is better; it is only meaningful relative to other
// candidates from the same search.
type Candidate struct {
	Key   string
	Cost  float64
	Field MatchField
}

// Matcher is the narrow capability interface over the approximate
// string-matching engine. There is no update primitive; update is modeled as
// Remove followed by Add.
type Matcher interface {
	Add(doc *DocumentRef) error
	Remove(key string) error
	SetCollection(docs []*DocumentRef) error
	Search(query string) ([]Candidate, error)
	Close() error
}

// DocumentRef carries the pre-normalized fields the matcher indexes. The
// index hands the matcher normalized forms so the engine never has to fold
// case or diacritics itself.
type DocumentRef struct {
	Key     string
	Name    string
	Aliases []string
	Path    string
}
