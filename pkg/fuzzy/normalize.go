// Package fuzzy provides text normalization for keyword matching against
// video titles and uploader names.
package fuzzy

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	punctRegex      = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize folds text for comparison: NFKD decomposition, combining marks
// stripped, punctuation collapsed to spaces, lowercased.
func (n *Normalizer) Normalize(text string) string {
	text = norm.NFKD.String(text)

	var result strings.Builder
	for _, r := range text {
		if !unicode.IsMark(r) {
			result.WriteRune(r)
		}
	}
	text = result.String()

	text = punctRegex.ReplaceAllString(text, " ")
	text = whitespaceRegex.ReplaceAllString(text, " ")

	text = strings.ToLower(text)
	text = strings.TrimSpace(text)

	return text
}

// ContainsAny reports whether the normalized text contains any of the given
// normalized keywords as a substring.
func (n *Normalizer) ContainsAny(text string, keywords []string) bool {
	folded := n.Normalize(text)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(folded, n.Normalize(kw)) {
			return true
		}
	}
	return false
}

// ContainsLatin reports whether the text has at least one Latin letter.
func ContainsLatin(text string) bool {
	for _, r := range text {
		if unicode.In(r, unicode.Latin) {
			return true
		}
	}
	return false
}
