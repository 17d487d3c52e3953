// Package concept implements the Concept Extractor (spec §4.3): diff
// concepts are identifier tokens appearing on added or removed lines,
// each carrying the set of universe fragments that contain it. Concepts
// seed universe expansion (internal/universe) and are the coverage
// targets of the utility model (internal/utility).
package concept

import (
	"github.com/standardbeagle/diffcontext/internal/tokenize"
	"github.com/standardbeagle/diffcontext/internal/types"
)

// SentinelStructural is the sentinel "structural relatedness" concept
// spec §4.9 adds to Z, whose per-fragment activation is R(f) rather than
// containment. It is not produced by ExtractFromHunks; the utility model
// adds it directly.
const SentinelStructural = "\x00structural-relatedness"

// ExtractFromHunks tokenizes the added/removed line content the caller
// supplies per hunk (spec §4.3: "identifier tokens appearing on added or
// removed lines") and returns the distinct diff-concept token set, using
// the same tokenizer the Fragmenter uses for identifier extraction (spec
// §4.1) so concept tokens and fragment identifiers are drawn from one
// vocabulary.
func ExtractFromHunks(changedLineText []string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, line := range changedLineText {
		for tok := range tokenize.Identifiers(line) {
			tokens[tok] = struct{}{}
		}
	}
	return tokens
}

// BuildConcepts joins the diff-concept token set against the fully built
// universe's fragments, producing one Concept per token with the set of
// fragments (across V) that contain it in their identifier set (spec
// §4.3: "each concept carries the set of fragments... that contain it").
// A token with no containing fragment in the universe is dropped: it
// cannot contribute to coverage and would only add a zero-activation
// term to the utility sum.
func BuildConcepts(diffTokens map[string]struct{}, universe map[types.FragmentKey]types.Fragment) map[string]*types.Concept {
	concepts := make(map[string]*types.Concept, len(diffTokens))
	for token := range diffTokens {
		concepts[token] = &types.Concept{Token: token, Fragments: make(map[types.FragmentKey]struct{})}
	}

	for key, frag := range universe {
		for token := range frag.Identifiers {
			c, ok := concepts[token]
			if !ok {
				continue
			}
			c.Fragments[key] = struct{}{}
		}
	}

	for token, c := range concepts {
		if len(c.Fragments) == 0 {
			delete(concepts, token)
		}
	}
	return concepts
}

// RareConcepts returns the subset of diffTokens that are "rare": the
// token appears in fragments spanning at most maxFiles distinct files
// across fileIndex, a cheap global per-token file-count index built by
// the caller ahead of full universe construction (spec §4.4 source 2:
// "occurring in <= 3 files across a cheap global index").
func RareConcepts(diffTokens map[string]struct{}, fileIndex map[string]map[string]struct{}, maxFiles int) map[string]struct{} {
	rare := make(map[string]struct{})
	for token := range diffTokens {
		files, ok := fileIndex[token]
		if !ok {
			continue
		}
		if len(files) <= maxFiles {
			rare[token] = struct{}{}
		}
	}
	return rare
}
