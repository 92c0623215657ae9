package index

import (
	"log/slog"
	"path"
	"strings"

	"github.com/chhoumann/quickadd-sub002/internal/models"
	"github.com/chhoumann/quickadd-sub002/internal/parser"
)

// buildRecord constructs the Document Record for one vault file: it reads
// the raw bytes, extracts metadata, and precomputes every normalized form
// used for matching. A read or parse failure degrades to a record with empty
// derived fields so that one bad document never aborts a build.
func (fi *FileIndex) buildRecord(meta models.FileMeta) *models.Document {
	doc := &models.Document{
		Key:         meta.Path,
		DisplayName: displayName(meta.Path),
		ModifiedAt:  meta.ModifiedAt,
		Folder:      folderOf(meta.Path),
	}

	data, err := fi.store.Read(meta.Path)
	if err != nil {
		fi.logger.Warn("index: read failed, indexing with empty metadata",
			slog.String("key", meta.Path), slog.String("error", err.Error()))
		fi.finishRecord(doc)
		return doc
	}

	res, err := parser.Parse(data)
	if err != nil || res == nil {
		if err != nil {
			fi.logger.Warn("index: parse failed, indexing with empty metadata",
				slog.String("key", meta.Path), slog.String("error", err.Error()))
		}
		fi.finishRecord(doc)
		return doc
	}

	doc.Aliases = res.Aliases
	doc.Headings = res.Headings
	doc.BlockIDs = res.BlockIDs
	doc.Tags = res.Tags
	doc.Links = res.Links
	fi.finishRecord(doc)
	return doc
}

// finishRecord fills the precomputed normalized fields and copies the
// last-opened time from the recency tracker when present.
func (fi *FileIndex) finishRecord(doc *models.Document) {
	doc.NormName = Normalize(doc.DisplayName)
	doc.NormAliases = normalizeAll(doc.Aliases)
	doc.NormHeadings = normalizeAll(doc.Headings)
	doc.NormBlockIDs = normalizeAll(doc.BlockIDs)
	if t, ok := fi.recency.OpenedAt(doc.Key); ok {
		doc.OpenedAt = t
	}
}

// displayName is the basename without the .md extension.
func displayName(key string) string {
	base := path.Base(key)
	return strings.TrimSuffix(base, ".md")
}

// folderOf is the parent directory of key, "" for the vault root.
func folderOf(key string) string {
	dir := path.Dir(key)
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}

// matcherRef projects a record onto the fields the matcher indexes.
func matcherRef(doc *models.Document) *DocumentRef {
	return &DocumentRef{
		Key:     doc.Key,
		Name:    doc.NormName,
		Aliases: doc.NormAliases,
		Path:    Normalize(doc.Key),
	}
}
