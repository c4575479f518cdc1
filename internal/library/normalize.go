package library

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	nonWordRe       = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	multipleSpaceRe = regexp.MustCompile(`\s+`)
)

// Normalize prepares text for token matching:
// - lowercase
// - diacritics folded ("café" matches "cafe")
// - punctuation replaced with spaces
// - whitespace collapsed
// The same normalization applies at index and query time.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = removeDiacritics(s)
	s = nonWordRe.ReplaceAllString(s, " ")
	s = multipleSpaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Tokenize splits normalized text into search tokens.
func Tokenize(s string) []string {
	return strings.Fields(Normalize(s))
}

// removeDiacritics decomposes to NFD and drops combining marks.
func removeDiacritics(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
