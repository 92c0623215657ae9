package api

import (
	"time"

	"github.com/chhoumann/quickadd-sub002/internal/models"
)

// SearchHit is a single entry in a search response. Path is empty for
// unresolved-link suggestions.
type SearchHit struct {
	Path    string  `json:"path,omitempty" example:"topics/hello.md"`
	Name    string  `json:"name,omitempty" example:"hello"`
	Display string  `json:"display" example:"hello" validate:"required"`
	Type    string  `json:"type" example:"exact" validate:"required"`
	Score   float64 `json:"score" example:"-1000"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchHit `json:"results" validate:"required"`
}

// DocumentDetail is the full indexed record for one file.
type DocumentDetail struct {
	Path       string    `json:"path" example:"topics/hello.md" validate:"required"`
	Name       string    `json:"name" example:"hello" validate:"required"`
	Folder     string    `json:"folder,omitempty" example:"topics"`
	Aliases    []string  `json:"aliases,omitempty"`
	Headings   []string  `json:"headings,omitempty"`
	BlockIDs   []string  `json:"block_ids,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
	Links      []string  `json:"links,omitempty"`
	ModifiedAt time.Time `json:"modified_at"`
	OpenedAt   time.Time `json:"opened_at,omitzero"`
}

// OpenedRequest is the request body for recording a file open.
type OpenedRequest struct {
	Path string `json:"path" example:"topics/hello.md" validate:"required"`
}

// StatusResponse reports index health.
type StatusResponse struct {
	Documents  int `json:"documents" example:"42" validate:"required"`
	Unresolved int `json:"unresolved" example:"3" validate:"required"`
}

func toSearchHit(r models.SearchResult) SearchHit {
	hit := SearchHit{
		Display: r.DisplayText,
		Type:    string(r.MatchType),
		Score:   r.Score,
	}
	if r.Document != nil {
		hit.Path = r.Document.Key
		hit.Name = r.Document.DisplayName
	}
	return hit
}

func toDocumentDetail(doc *models.Document) DocumentDetail {
	return DocumentDetail{
		Path:       doc.Key,
		Name:       doc.DisplayName,
		Folder:     doc.Folder,
		Aliases:    doc.Aliases,
		Headings:   doc.Headings,
		BlockIDs:   doc.BlockIDs,
		Tags:       doc.Tags,
		Links:      doc.Links,
		ModifiedAt: doc.ModifiedAt,
		OpenedAt:   doc.OpenedAt,
	}
}
