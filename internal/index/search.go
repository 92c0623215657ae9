package index

import (
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/chhoumann/quickadd-sub002/internal/models"
)

const (
	// DefaultSearchLimit caps result lists when the caller passes no limit.
	DefaultSearchLimit = 50
	// globalHeadingCap bounds a global heading scan on large corpora.
	globalHeadingCap = 200
	// unresolvedMinQuery is the minimum query length for the unresolved tier.
	unresolvedMinQuery = 2
	// Unresolved results are capped, and capped harder for very short
	// queries, to avoid flooding the list with low-value hits.
	unresolvedCap      = 10
	unresolvedShortCap = 3
	shortQueryRunes    = 4
)

// Search answers a query against the index: a tiered walk for file queries,
// or the heading/block path when the query contains '#'. It is a pure read;
// results are ranked ascending by score and truncated to limit.
func (fi *FileIndex) Search(query string, sctx models.SearchContext, limit int) []models.SearchResult {
	if strings.Contains(query, "#") {
		return fi.searchHeadings(query, sctx, limit)
	}
	return fi.searchFiles(query, sctx, limit)
}

// searchFiles is the ordinary tiered search. Tiers run in fixed order and
// each adds only documents no earlier tier claimed, so every document
// surfaces at most once, attributed to its best tier.
func (fi *FileIndex) searchFiles(query string, sctx models.SearchContext, limit int) []models.SearchResult {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	norm := Normalize(strings.TrimSpace(query))
	if norm == "" {
		return nil
	}

	queryRunes := utf8.RuneCountInString(norm)
	if queryRunes >= unresolvedMinQuery {
		fi.ensureUnresolved()
	}

	// Fuzzy candidates are fetched outside the read lock; the matcher has
	// its own synchronization.
	fuzzy, err := fi.matcher.Search(norm)
	if err != nil {
		fi.logger.Warn("index: matcher search failed", slog.String("error", err.Error()))
		fuzzy = nil
	}

	fi.mu.RLock()
	added := make(map[string]struct{})
	var cands []*candidate

	claim := func(doc *models.Document, c *candidate) {
		if _, dup := added[doc.Key]; dup {
			return
		}
		added[doc.Key] = struct{}{}
		c.doc = doc
		cands = append(cands, c)
	}

	// (a) exact basename match.
	for _, key := range fi.order {
		doc := fi.docs[key]
		if doc.NormName == norm {
			claim(doc, &candidate{matchType: models.MatchExact, base: fi.weights.ExactName, matchedText: doc.DisplayName, pos: 0})
		}
	}
	// (b) exact alias match.
	for _, key := range fi.order {
		doc := fi.docs[key]
		for i, alias := range doc.NormAliases {
			if alias == norm {
				claim(doc, &candidate{matchType: models.MatchAlias, base: fi.weights.ExactAlias, matchedText: doc.Aliases[i], viaAlias: true, pos: 0})
				break
			}
		}
	}
	// (c) basename strict prefix.
	for _, key := range fi.order {
		doc := fi.docs[key]
		if strings.HasPrefix(doc.NormName, norm) && doc.NormName != norm {
			claim(doc, &candidate{matchType: models.MatchExact, base: fi.weights.PrefixName, matchedText: doc.DisplayName, pos: 0})
		}
	}
	// (d) alias prefix.
	for _, key := range fi.order {
		doc := fi.docs[key]
		for i, alias := range doc.NormAliases {
			if strings.HasPrefix(alias, norm) && alias != norm {
				claim(doc, &candidate{matchType: models.MatchAlias, base: fi.weights.PrefixAlias, matchedText: doc.Aliases[i], viaAlias: true, pos: 0})
				break
			}
		}
	}
	// (e) basename substring starting at a word boundary.
	for _, key := range fi.order {
		doc := fi.docs[key]
		if pos := wordBoundaryIndex(doc.NormName, norm); pos >= 0 {
			claim(doc, &candidate{matchType: models.MatchExact, base: fi.weights.SubstringName, matchedText: doc.DisplayName, pos: pos})
		}
	}
	// (f) approximate matches; provenance decides type and display text.
	for _, hit := range fuzzy {
		if hit.Key == "" {
			continue
		}
		doc, ok := fi.docs[hit.Key]
		if !ok {
			// Matcher lag behind the store is expected; skip silently.
			continue
		}
		if _, dup := added[doc.Key]; dup {
			continue
		}
		c := &candidate{matchType: models.MatchFuzzy, base: hit.Cost * fi.weights.FuzzyScale}
		if hit.Field == FieldAlias && len(doc.Aliases) > 0 {
			c.matchType = models.MatchAlias
			c.viaAlias = true
			c.matchedText = pickAlias(doc, norm)
		} else {
			c.matchedText = doc.DisplayName
		}
		c.pos = runeIndex(Normalize(c.matchedText), norm)
		claim(doc, c)
	}
	// (g) unresolved links, only for queries of at least two runes.
	if queryRunes >= unresolvedMinQuery {
		maxHits := unresolvedCap
		if queryRunes < shortQueryRunes {
			maxHits = unresolvedShortCap
		}
		taken := 0
		for i := range fi.unresolved {
			link := &fi.unresolved[i]
			if !strings.Contains(link.norm, norm) {
				continue
			}
			cands = append(cands, &candidate{
				matchType:   models.MatchUnresolved,
				base:        fi.weights.UnresolvedBase,
				matchedText: link.text,
				pos:         runeIndex(link.norm, norm),
			})
			taken++
			if taken >= maxHits {
				break
			}
		}
	}

	rc := fi.rankContextLocked(sctx)
	fi.mu.RUnlock()

	return fi.rank(cands, rc, limit)
}

// searchHeadings handles queries containing '#': "file#heading" resolves
// file candidates first, "#heading" scans every document. A heading part
// beginning with '^' matches block anchors instead.
func (fi *FileIndex) searchHeadings(query string, sctx models.SearchContext, limit int) []models.SearchResult {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	filePart, headingPart, _ := strings.Cut(query, "#")
	blockMode := strings.HasPrefix(headingPart, "^")
	if blockMode {
		headingPart = strings.TrimPrefix(headingPart, "^")
	}
	norm := Normalize(strings.TrimSpace(headingPart))

	if strings.TrimSpace(filePart) == "" {
		return fi.globalHeadingScan(norm, blockMode, limit)
	}

	// Resolve file candidates with the ordinary tiered search; that path
	// never re-enters heading search, so recursion is impossible.
	files := fi.searchFiles(filePart, sctx, DefaultSearchLimit)

	var out []models.SearchResult
	for _, fr := range files {
		if fr.Document == nil {
			continue
		}
		out = append(out, fi.matchAnchors(fr.Document, norm, blockMode, fr.Score+fi.weights.HeadingPenalty)...)
		if len(out) >= limit {
			break
		}
	}
	return truncate(out, limit)
}

// globalHeadingScan walks every document's headings (or block anchors) and
// scores hits with a fixed small base, capped to bound cost on large vaults.
func (fi *FileIndex) globalHeadingScan(norm string, blockMode bool, limit int) []models.SearchResult {
	fi.mu.RLock()
	defer fi.mu.RUnlock()

	var out []models.SearchResult
	for _, key := range fi.order {
		out = append(out, fi.matchAnchors(fi.docs[key], norm, blockMode, fi.weights.HeadingBase)...)
		if len(out) >= globalHeadingCap {
			out = out[:globalHeadingCap]
			break
		}
	}
	return truncate(out, limit)
}

// matchAnchors returns heading (or block) hits within one document. An empty
// query part matches every anchor, which lets "file#" list all headings.
func (fi *FileIndex) matchAnchors(doc *models.Document, norm string, blockMode bool, score float64) []models.SearchResult {
	var out []models.SearchResult
	if blockMode {
		for i, nb := range doc.NormBlockIDs {
			if norm == "" || strings.Contains(nb, norm) {
				out = append(out, models.SearchResult{
					Document:    doc,
					Score:       score,
					MatchType:   models.MatchBlock,
					DisplayText: doc.BlockIDs[i],
				})
			}
		}
		return out
	}
	for i, nh := range doc.NormHeadings {
		if norm == "" || strings.Contains(nh, norm) {
			out = append(out, models.SearchResult{
				Document:    doc,
				Score:       score,
				MatchType:   models.MatchHeading,
				DisplayText: doc.Headings[i],
			})
		}
	}
	return out
}

// rankContextLocked resolves the caller's context hints against the store.
func (fi *FileIndex) rankContextLocked(sctx models.SearchContext) *rankContext {
	rc := &rankContext{
		folder:     sctx.CurrentFolder,
		currentKey: sctx.CurrentKey,
		now:        time.Now(),
	}
	if current, ok := fi.docs[sctx.CurrentKey]; ok {
		if rc.folder == "" {
			rc.folder = current.Folder
		}
		if len(current.Tags) > 0 {
			rc.currentTags = make(map[string]struct{}, len(current.Tags))
			for _, t := range current.Tags {
				rc.currentTags[t] = struct{}{}
			}
		}
	}
	if len(sctx.Recent) > 0 {
		rc.recent = make(map[string]struct{}, len(sctx.Recent))
		for _, k := range sctx.Recent {
			rc.recent[k] = struct{}{}
		}
	}
	return rc
}

// rank scores all candidates, sorts ascending with stable ties (discovery
// order), and truncates.
func (fi *FileIndex) rank(cands []*candidate, rc *rankContext, limit int) []models.SearchResult {
	results := make([]models.SearchResult, 0, len(cands))
	for _, c := range cands {
		results = append(results, models.SearchResult{
			Document:    c.doc,
			Score:       fi.weights.score(c, rc),
			MatchType:   c.matchType,
			DisplayText: c.matchedText,
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score < results[j].Score
	})
	return truncate(results, limit)
}

// pickAlias selects the alias to attribute a fuzzy alias hit to: the first
// alias containing the query, falling back to the first alias.
func pickAlias(doc *models.Document, norm string) string {
	for i, alias := range doc.NormAliases {
		if strings.Contains(alias, norm) {
			return doc.Aliases[i]
		}
	}
	return doc.Aliases[0]
}

func truncate(results []models.SearchResult, limit int) []models.SearchResult {
	if len(results) > limit {
		return results[:limit]
	}
	return results
}
