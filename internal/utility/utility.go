// Package utility implements the Utility Model (spec §4.9): a monotone
// submodular concept-coverage function with diminishing returns,
// U(S) = Σ_z φ(max_{f∈S} a(f,z)), φ(x) = √x. There is no teacher analog
// for this (the teacher has no selection-under-budget stage at all); the
// incremental max-tracking shape below exists purely to make the
// Selector's repeated marginal-gain queries (spec §4.8) cheap, the same
// reason the teacher's own indexes (internal/core's relationship/name
// indexes) exist: avoid recomputation across many lookups over one
// built structure.
package utility

import (
	"math"

	"github.com/standardbeagle/diffcontext/internal/concept"
	"github.com/standardbeagle/diffcontext/internal/types"
)

// Model tracks, for each diff concept (plus the sentinel structural
// concept), the current best activation contributed by the selected set
// S, so that a marginal gain query costs time proportional only to the
// querying fragment's own concept membership, not |Z| or |S|.
type Model struct {
	r          map[types.FragmentKey]float64
	fragTokens map[types.FragmentKey][]string
	current    map[string]float64
}

// phi is the nondecreasing diminishing-returns function spec §4.9
// names explicitly.
func phi(x float64) float64 {
	if x <= 0 {
		return 0
	}
	return math.Sqrt(x)
}

// New builds a Model over concepts (from internal/concept.BuildConcepts)
// and r (the PPR relevance vector, keyed by fragment). Every universe
// fragment implicitly contains the sentinel "structural relatedness"
// concept, whose activation is R(f) rather than containment (spec §4.9:
// "Z is the set of diff concepts plus a sentinel... concept whose
// per-fragment activation is R(f)").
func New(concepts map[string]*types.Concept, r map[types.FragmentKey]float64, universe map[types.FragmentKey]types.Fragment) *Model {
	fragTokens := make(map[types.FragmentKey][]string, len(universe))
	for key := range universe {
		fragTokens[key] = []string{concept.SentinelStructural}
	}
	for token, c := range concepts {
		for key := range c.Fragments {
			if _, ok := fragTokens[key]; !ok {
				continue
			}
			fragTokens[key] = append(fragTokens[key], token)
		}
	}

	return &Model{
		r:          r,
		fragTokens: fragTokens,
		current:    make(map[string]float64),
	}
}

// activation returns a(f, z): R(f) if f contains z (or z is the
// sentinel), else 0 implicitly (callers only ever look this up for
// tokens already known to be in fragTokens[f]).
func (m *Model) activation(f types.FragmentKey) float64 {
	return m.r[f]
}

// MarginalGain returns ΔU(f, S) = U(S ∪ {f}) − U(S) against the Model's
// current committed set S, without mutating state (spec §4.8 step 2:
// candidates are re-scored lazily, many times, before one is actually
// added).
func (m *Model) MarginalGain(f types.FragmentKey) float64 {
	a := m.activation(f)
	if a <= 0 {
		return 0
	}
	var gain float64
	for _, z := range m.fragTokens[f] {
		before := phi(m.current[z])
		after := phi(math.Max(m.current[z], a))
		gain += after - before
	}
	return gain
}

// Commit adds f to S, updating every concept's max activation (spec
// §4.9: a(f,z) = R(f) if f contains z).
func (m *Model) Commit(f types.FragmentKey) {
	a := m.activation(f)
	if a <= 0 {
		return
	}
	for _, z := range m.fragTokens[f] {
		if a > m.current[z] {
			m.current[z] = a
		}
	}
}

// Utility returns U(S) for the Model's currently committed set.
func (m *Model) Utility() float64 {
	var total float64
	for _, v := range m.current {
		total += phi(v)
	}
	return total
}

// Concepts returns the token set a fragment is counted toward, including
// the sentinel. Exposed for diagnostics and tests; the Selector never
// needs this directly.
func (m *Model) Concepts(f types.FragmentKey) []string {
	return m.fragTokens[f]
}
