package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/chhoumann/quickadd-sub002/internal/index"
	"github.com/chhoumann/quickadd-sub002/internal/models"
)

// Handler holds API route handlers.
type Handler struct {
	idx *index.FileIndex
}

// NewHandler creates a new Handler.
func NewHandler(idx *index.FileIndex) *Handler {
	return &Handler{idx: idx}
}

// documentPath extracts the document path from the URL (everything after
// /documents/). Supports encoded slashes from generated clients
// (e.g. topics%2Fnote.md).
func documentPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// Search handles GET /api/search.
//
//	@Summary		Search indexed files, headings, and unresolved links
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query; file#heading targets headings"
//	@Param			limit	query		int		false	"Max results"
//	@Param			current	query		string	false	"Path of the file the user is editing"
//	@Param			folder	query		string	false	"Folder override for the same-folder boost"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := query.Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	if err := h.idx.EnsureIndexed(r.Context()); err != nil {
		slog.Error("search: index build failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	limit, _ := strconv.Atoi(query.Get("limit"))
	sctx := models.SearchContext{
		CurrentKey:    query.Get("current"),
		CurrentFolder: query.Get("folder"),
	}

	results := h.idx.Search(q, sctx, limit)
	hits := make([]SearchHit, 0, len(results))
	for _, res := range results {
		hits = append(hits, toSearchHit(res))
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: hits})
}

// GetDocument handles GET /api/documents/*.
//
//	@Summary		Get the indexed record for a single file
//	@Tags			documents
//	@Produce		json
//	@Param			path	path		string	true	"Document path"
//	@Success		200		{object}	DocumentDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{path} [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	path := documentPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if err := h.idx.EnsureIndexed(r.Context()); err != nil {
		slog.Error("get document: index build failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	doc, ok := h.idx.GetDocument(path)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, toDocumentDetail(doc))
}

// Opened handles POST /api/opened.
//
//	@Summary		Record that a file was opened
//	@Tags			documents
//	@Accept			json
//	@Param			body	body	OpenedRequest	true	"Opened file"
//	@Success		204		"Recorded"
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/opened [post]
func (h *Handler) Opened(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req OpenedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	h.idx.OnDocumentOpened(req.Path)
	w.WriteHeader(http.StatusNoContent)
}

// Status handles GET /api/status.
//
//	@Summary		Report index size and unresolved-link count
//	@Tags			status
//	@Produce		json
//	@Success		200	{object}	StatusResponse
//	@Security		BearerAuth
//	@Router			/status [get]
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		Documents:  h.idx.IndexedCount(),
		Unresolved: h.idx.UnresolvedCount(),
	})
}
