// Package tokenize extracts and normalises identifier tokens from source
// text. It backs both the Fragmenter's identifier-set extraction (spec
// §4.1) and the Concept Extractor's diff-concept vocabulary (spec §4.3),
// which the spec requires to share "the same tokenizer" (§4.3).
//
// Splitting logic is adapted from the teacher's
// internal/semantic/name_splitter.go two-pass separator-detection design
// (camelCase/PascalCase/snake_case/kebab-case/SCREAMING_SNAKE_CASE).
package tokenize

import (
	"strings"
	"unicode"
)

// MinTokenLength is the shortest token kept after splitting (spec §4.1:
// "drop tokens of length <3").
const MinTokenLength = 3

// Identifiers scans raw source text and returns the set of non-stopword
// identifier tokens it contains, split on both non-alphanumeric boundaries
// and case transitions (spec §4.1, §4.3).
func Identifiers(text string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, word := range rawWords(text) {
		for _, tok := range Split(word) {
			tok = strings.ToLower(tok)
			if len(tok) < MinTokenLength {
				continue
			}
			if IsStopword(tok) {
				continue
			}
			out[tok] = struct{}{}
		}
	}
	return out
}

// rawWords splits text on every non-alphanumeric, non-underscore
// character, yielding raw identifier-shaped words before case-transition
// splitting.
func rawWords(text string) []string {
	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			cur.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return words
}

// Split breaks a single identifier-shaped word into its constituent
// sub-words by underscore/hyphen separators and camelCase/PascalCase case
// transitions, in a single left-to-right pass over the runes.
func Split(name string) []string {
	if name == "" {
		return nil
	}

	runes := []rune(name)
	var parts []string
	var cur []rune

	flush := func() {
		if len(cur) > 0 {
			parts = append(parts, string(cur))
			cur = nil
		}
	}

	for i := 0; i < len(runes); i++ {
		ch := runes[i]

		if ch == '_' || ch == '-' || ch == '.' || ch == '/' {
			flush()
			continue
		}

		if i > 0 {
			prev := runes[i-1]
			// lower->upper: camelCase boundary ("fooBar" -> "foo","Bar")
			if unicode.IsLower(prev) && unicode.IsUpper(ch) {
				flush()
			} else if unicode.IsUpper(prev) && unicode.IsUpper(ch) && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
				// acronym followed by a new word: "XMLParser" -> "XML","Parser"
				flush()
			} else if unicode.IsLetter(prev) && unicode.IsDigit(ch) || unicode.IsDigit(prev) && unicode.IsLetter(ch) {
				flush()
			}
		}

		cur = append(cur, ch)
	}
	flush()

	return parts
}
