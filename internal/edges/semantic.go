package edges

import (
	"sort"
	"strings"
	"unicode"

	"github.com/hbollon/go-edlib"

	"github.com/standardbeagle/diffcontext/internal/config"
	"github.com/standardbeagle/diffcontext/internal/types"
)

// SemanticBuilder emits "fragment A references a symbol declared in
// fragment B" edges (spec §4.5 semantic family). Symbol resolution is
// name-matching, not true def-use (spec §4.5 design decision): a
// fragment's raw content is scanned for other fragments' declared
// symbol names (Fragment.Symbol), exact match first, widened by
// Jaro-Winkler fuzzy matching for near-miss spellings, following the
// teacher's internal/semantic/fuzzy_matcher.go pattern of layering a
// fuzzy pass on top of exact lookup rather than replacing it.
type SemanticBuilder struct{}

func (b *SemanticBuilder) Name() string { return "semantic" }

func (b *SemanticBuilder) Build(universe map[types.FragmentKey]types.Fragment, _ Context, policy config.Policy) []types.Edge {
	type owner struct {
		key  types.FragmentKey
		name string
	}
	bucket := make(map[rune][]owner)
	for key, f := range universe {
		if f.Symbol == "" {
			continue
		}
		r := firstRune(f.Symbol)
		bucket[r] = append(bucket[r], owner{key: key, name: f.Symbol})
	}

	var edges []types.Edge
	for key, f := range universe {
		if f.Content == "" {
			continue
		}
		forward := forwardWeight(f.Language, policy)
		reverse := forward * policy.Semantic.ReverseFactor

		seen := make(map[types.FragmentKey]struct{})
		for _, tok := range rawIdentifierTokens(f.Content) {
			for _, o := range bucket[firstRune(tok)] {
				if o.key == key {
					continue
				}
				if _, dup := seen[o.key]; dup {
					continue
				}
				if tok == o.name || fuzzyMatches(tok, o.name, policy.FuzzyNameThreshold) {
					seen[o.key] = struct{}{}
					edges = append(edges, types.Edge{Src: key, Dst: o.key, Weight: forward, BuilderID: b.Name()})
					edges = append(edges, types.Edge{Src: o.key, Dst: key, Weight: reverse, BuilderID: b.Name()})
				}
			}
		}
	}
	return edges
}

func forwardWeight(language string, policy config.Policy) float64 {
	if w, ok := policy.Semantic.ByExtension[language]; ok {
		return w
	}
	return policy.Semantic.Default
}

func firstRune(s string) rune {
	for _, r := range s {
		return unicode.ToLower(r)
	}
	return 0
}

// rawIdentifierTokens splits content on non [A-Za-z0-9_] runs, keeping
// case (unlike tokenize.Identifiers, which lowercases and splits case
// transitions for coverage matching). Symbol names are whole
// identifiers, so matching needs the raw token, not its decomposed
// camelCase parts.
func rawIdentifierTokens(content string) []string {
	var out []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for _, r := range content {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return dedupe(out)
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func fuzzyMatches(a, b string, threshold float64) bool {
	if len(a) < 4 || len(b) < 4 {
		return false
	}
	score, err := edlib.StringsSimilarity(a, b, edlib.JaroWinkler)
	if err != nil {
		return false
	}
	return float64(score) >= threshold
}
