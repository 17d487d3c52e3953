package tokenize

import "github.com/surgebase/porter2"

// Stem normalizes a token for coverage/similarity matching (SPEC_FULL
// §3.3): "parse"/"parsing"/"parsed" collapse to one vocabulary entry.
// Grounded on the teacher's internal/semantic/stemmer.go Stem method,
// minus its enable/exclusion bookkeeping — this engine always stems in
// the one place it needs a stemmed index (internal/edges similarity
// family) and never treats the stem as a fragment's canonical identity.
func Stem(token string) string {
	if len(token) < MinTokenLength {
		return token
	}
	return porter2.Stem(token)
}

// StemSet stems every token in a set, producing a (possibly smaller) set
// of distinct stems.
func StemSet(tokens map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(tokens))
	for t := range tokens {
		out[Stem(t)] = struct{}{}
	}
	return out
}
