package index

import (
	"time"
	"unicode/utf8"

	"github.com/chhoumann/quickadd-sub002/internal/models"
)

// RankWeights holds every tunable scoring constant. Lower scores rank
// earlier; boosts are negative deltas, penalties positive. The defaults are
// calibrated against the ordering properties in the test suite rather than
// derived from first principles.
type RankWeights struct {
	// Tier base scores, most negative first.
	ExactName     float64 `yaml:"exact_name"`
	ExactAlias    float64 `yaml:"exact_alias"`
	PrefixName    float64 `yaml:"prefix_name"`
	PrefixAlias   float64 `yaml:"prefix_alias"`
	SubstringName float64 `yaml:"substring_name"`
	// FuzzyScale multiplies the matcher's cost (in (0,1]) into a base score
	// that always ranks after every non-fuzzy tier.
	FuzzyScale float64 `yaml:"fuzzy_scale"`
	// UnresolvedBase must stay positive so unresolved links always rank
	// after every resolved-document tier.
	UnresolvedBase float64 `yaml:"unresolved_base"`

	// Heading-search scores.
	HeadingBase    float64 `yaml:"heading_base"`
	HeadingPenalty float64 `yaml:"heading_penalty"`

	// Context boosts (negative).
	SameFolderBoost float64       `yaml:"same_folder_boost"`
	RecencyBoost    float64       `yaml:"recency_boost"`
	RecencyWindow   time.Duration `yaml:"recency_window"`
	TagOverlapBoost float64       `yaml:"tag_overlap_boost"`
	TagOverlapCap   float64       `yaml:"tag_overlap_cap"`

	// Penalties (positive).
	AliasPenaltyMin        float64 `yaml:"alias_penalty_min"`
	AliasPenaltyPerRune    float64 `yaml:"alias_penalty_per_rune"`
	AliasPenaltyCap        float64 `yaml:"alias_penalty_cap"`
	LengthThreshold        int     `yaml:"length_threshold"`
	LengthPenaltyPerRune   float64 `yaml:"length_penalty_per_rune"`
	PositionPenaltyPerRune float64 `yaml:"position_penalty_per_rune"`
}

// DefaultRankWeights returns the tuned defaults.
func DefaultRankWeights() RankWeights {
	return RankWeights{
		ExactName:      -1000,
		ExactAlias:     -900,
		PrefixName:     -700,
		PrefixAlias:    -650,
		SubstringName:  -400,
		FuzzyScale:     100,
		UnresolvedBase: 500,

		HeadingBase:    -200,
		HeadingPenalty: 25,

		SameFolderBoost: -75,
		RecencyBoost:    -50,
		RecencyWindow:   24 * time.Hour,
		TagOverlapBoost: -10,
		TagOverlapCap:   -30,

		AliasPenaltyMin:        10,
		AliasPenaltyPerRune:    1,
		AliasPenaltyCap:        40,
		LengthThreshold:        24,
		LengthPenaltyPerRune:   1,
		PositionPenaltyPerRune: 2,
	}
}

// candidate is one accumulated match awaiting scoring.
type candidate struct {
	doc         *models.Document // nil for unresolved links
	matchType   models.MatchType
	base        float64
	matchedText string // original matched string (name, alias, link text, heading)
	viaAlias    bool
	pos         int // 0-based rune index of the query in the matched text, -1 unknown
}

// rankContext is the resolved form of models.SearchContext used for scoring.
type rankContext struct {
	folder      string
	currentKey  string
	currentTags map[string]struct{}
	recent      map[string]struct{}
	now         time.Time
}

// score produces the final comparable score for a candidate: tier base plus
// additive boosts and penalties. The aggregate is never clamped; negative
// totals are meaningful.
func (w RankWeights) score(c *candidate, rc *rankContext) float64 {
	s := c.base

	if doc := c.doc; doc != nil {
		if rc.folder != "" && doc.Folder == rc.folder {
			s += w.SameFolderBoost
		}
		if w.recent(doc, rc) {
			s += w.RecencyBoost
		}
		if overlap := tagOverlap(doc.Tags, rc.currentTags); overlap > 0 && doc.Key != rc.currentKey {
			boost := float64(overlap) * w.TagOverlapBoost
			if boost < w.TagOverlapCap {
				boost = w.TagOverlapCap
			}
			s += boost
		}
	}

	n := utf8.RuneCountInString(c.matchedText)
	if c.viaAlias {
		p := w.AliasPenaltyMin + w.AliasPenaltyPerRune*float64(n)
		if p > w.AliasPenaltyCap {
			p = w.AliasPenaltyCap
		}
		s += p
	}
	if n > w.LengthThreshold {
		s += float64(n-w.LengthThreshold) * w.LengthPenaltyPerRune
	}
	if c.pos > 0 {
		s += float64(c.pos) * w.PositionPenaltyPerRune
	}

	return s
}

func (w RankWeights) recent(doc *models.Document, rc *rankContext) bool {
	if _, ok := rc.recent[doc.Key]; ok {
		return true
	}
	if doc.OpenedAt.IsZero() {
		return false
	}
	return rc.now.Sub(doc.OpenedAt) <= w.RecencyWindow
}

func tagOverlap(tags []string, current map[string]struct{}) int {
	if len(tags) == 0 || len(current) == 0 {
		return 0
	}
	n := 0
	for _, t := range tags {
		if _, ok := current[t]; ok {
			n++
		}
	}
	return n
}
