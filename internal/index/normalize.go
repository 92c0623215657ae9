package index

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransformer decomposes to NFKD, drops combining marks (diacritics),
// and recomposes, so "résumé" and "resume" normalize identically.
var foldTransformer = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases and diacritic-folds s for matching. Applied once to
// every indexed field at record construction and to each incoming query.
func Normalize(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

func normalizeAll(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = Normalize(s)
	}
	return out
}

// wordBoundaryIndex returns the rune index of the first occurrence of sub in
// s that either starts the string or follows a non-alphanumeric rune, or -1.
func wordBoundaryIndex(s, sub string) int {
	if sub == "" {
		return -1
	}
	from := 0
	for {
		i := strings.Index(s[from:], sub)
		if i < 0 {
			return -1
		}
		pos := from + i
		if pos == 0 {
			return 0
		}
		r, _ := utf8.DecodeLastRuneInString(s[:pos])
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return utf8.RuneCountInString(s[:pos])
		}
		from = pos + 1
	}
}

// runeIndex converts the byte offset of sub within s to a rune index, or -1
// when sub does not occur.
func runeIndex(s, sub string) int {
	i := strings.Index(s, sub)
	if i < 0 {
		return -1
	}
	return utf8.RuneCountInString(s[:i])
}
