package edges

import (
	"math"

	"github.com/standardbeagle/diffcontext/internal/config"
	"github.com/standardbeagle/diffcontext/internal/tokenize"
	"github.com/standardbeagle/diffcontext/internal/types"
)

// SimilarityBuilder emits symmetric edges between fragments whose
// stemmed-identifier vocabularies are TF-IDF cosine similar above a
// per-language-category threshold (spec §4.5 similarity family:
// "dynamic langs wider, typed narrower"). There is no frequency count
// available from Fragment.Identifiers (a set, not a multiset), so each
// vocabulary is treated as a binary bag-of-stems and weighted purely by
// inverse document frequency across the universe, the same reduction
// the teacher's own name-matching heuristics make elsewhere (spec §4.5:
// "Symbol resolution is name-matching, not true def-use").
type SimilarityBuilder struct{}

func (b *SimilarityBuilder) Name() string { return "similarity" }

func (b *SimilarityBuilder) Build(universe map[types.FragmentKey]types.Fragment, _ Context, policy config.Policy) []types.Edge {
	n := len(universe)
	if n < 2 {
		return nil
	}

	stems := make(map[types.FragmentKey]map[string]struct{}, n)
	df := make(map[string]int)
	for key, f := range universe {
		s := tokenize.StemSet(f.Identifiers)
		stems[key] = s
		for t := range s {
			df[t]++
		}
	}

	idf := make(map[string]float64, len(df))
	for t, count := range df {
		idf[t] = math.Log(float64(n)/float64(count) + 1)
	}

	normSq := make(map[types.FragmentKey]float64, n)
	inverted := make(map[string][]types.FragmentKey)
	for key, s := range stems {
		var sum float64
		for t := range s {
			w := idf[t]
			sum += w * w
			inverted[t] = append(inverted[t], key)
		}
		normSq[key] = sum
	}

	var edges []types.Edge
	done := make(map[[2]types.FragmentKey]struct{})
	for key, s := range stems {
		if normSq[key] == 0 {
			continue
		}
		dot := make(map[types.FragmentKey]float64)
		for t := range s {
			w := idf[t]
			for _, other := range inverted[t] {
				if other == key {
					continue
				}
				dot[other] += w * w
			}
		}
		for other, d := range dot {
			if normSq[other] == 0 {
				continue
			}
			var pair [2]types.FragmentKey
			if key.Less(other) {
				pair = [2]types.FragmentKey{key, other}
			} else {
				pair = [2]types.FragmentKey{other, key}
			}
			if _, ok := done[pair]; ok {
				continue
			}
			done[pair] = struct{}{}

			cosine := d / math.Sqrt(normSq[key]*normSq[other])
			threshold, max := similarityBand(universe[key].Language, universe[other].Language, policy.Similarity)
			if cosine < threshold {
				continue
			}
			weight := scaleWithinBand(cosine, threshold, max)
			edges = append(edges, types.Edge{Src: key, Dst: other, Weight: weight, BuilderID: b.Name()})
			edges = append(edges, types.Edge{Src: other, Dst: key, Weight: weight, BuilderID: b.Name()})
		}
	}
	return edges
}

// similarityBand picks the dynamic or typed threshold/max pair. A pair
// spanning both categories uses the wider (dynamic) band, since a
// false-positive risk on either side is still a false-positive risk for
// the pair.
func similarityBand(langA, langB string, w config.SimilarityWeights) (threshold, max float64) {
	if w.DynamicExtensions[langA] || w.DynamicExtensions[langB] {
		return w.DynamicThreshold, w.DynamicMax
	}
	return w.TypedThreshold, w.TypedMax
}

// scaleWithinBand maps a cosine score in [threshold, 1] onto [threshold,
// max], so a marginal match sits near the band floor and a near-identical
// vocabulary sits near its ceiling.
func scaleWithinBand(cosine, threshold, max float64) float64 {
	if cosine >= 1 {
		return max
	}
	span := 1 - threshold
	if span <= 0 {
		return max
	}
	w := threshold + (max-threshold)*((cosine-threshold)/span)
	if w > max {
		w = max
	}
	if w < threshold {
		w = threshold
	}
	return w
}
