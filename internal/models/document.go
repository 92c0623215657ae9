// Package models defines the domain types for the file-search index.
package models

import "time"

// Document is the indexed representation of one vault file. All lowercase /
// fold-normalized forms are computed once when the record is built, never per
// query. The original alias and heading strings are kept alongside so scoring
// can use the true matched text.
type Document struct {
	// Key is the vault-relative path and the primary key of the store.
	Key         string   `json:"key"`
	DisplayName string   `json:"display_name"`
	Aliases     []string `json:"aliases,omitempty"`
	Headings    []string `json:"headings,omitempty"`
	BlockIDs    []string `json:"block_ids,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	// Links holds raw wikilink targets found in the body; unresolved targets
	// feed the unresolved-link search tier.
	Links      []string  `json:"-"`
	ModifiedAt time.Time `json:"modified_at"`
	// OpenedAt is populated from the recency tracker; zero when the document
	// was never opened this session.
	OpenedAt time.Time `json:"opened_at,omitempty"`
	// Folder is the parent directory, "" for vault root.
	Folder string `json:"folder"`

	// Normalized forms, parallel to the fields above.
	NormName     string   `json:"-"`
	NormAliases  []string `json:"-"`
	NormHeadings []string `json:"-"`
	NormBlockIDs []string `json:"-"`
}

// MatchType identifies which tier produced a search result.
type MatchType string

const (
	MatchExact      MatchType = "exact"
	MatchAlias      MatchType = "alias"
	MatchFuzzy      MatchType = "fuzzy"
	MatchUnresolved MatchType = "unresolved"
	MatchHeading    MatchType = "heading"
	MatchBlock      MatchType = "block"
)

// SearchContext carries optional hints about where the user currently is.
// It is pure input and is never stored.
type SearchContext struct {
	// CurrentKey is the key of the document the user is editing, if any.
	CurrentKey string
	// CurrentFolder overrides the folder used for the same-folder boost;
	// when empty the folder of CurrentKey is used.
	CurrentFolder string
	// Recent lists keys of recently used documents, most recent first.
	Recent []string
}

// SearchResult is one ranked hit. Score is comparable only within a single
// search call; lower is better. Document is nil for unresolved-link hits.
type SearchResult struct {
	Document    *Document `json:"document,omitempty"`
	Score       float64   `json:"score"`
	MatchType   MatchType `json:"match_type"`
	DisplayText string    `json:"display_text"`
}
