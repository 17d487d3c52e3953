package utility

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/standardbeagle/diffcontext/internal/types"
)

func key(path string, start, end int) types.FragmentKey {
	return types.FragmentKey{Path: path, StartLine: start, EndLine: end}
}

func TestMarginalGainDiminishesOnSecondCoveringFragment(t *testing.T) {
	a := key("a.go", 1, 5)
	b := key("b.go", 1, 5)
	concepts := map[string]*types.Concept{
		"parse": {Token: "parse", Fragments: map[types.FragmentKey]struct{}{a: {}, b: {}}},
	}
	r := map[types.FragmentKey]float64{a: 0.4, b: 0.4}
	universeFrags := map[types.FragmentKey]types.Fragment{
		a: {Path: "a.go", StartLine: 1, EndLine: 5},
		b: {Path: "b.go", StartLine: 1, EndLine: 5},
	}

	m := New(concepts, r, universeFrags)
	firstGain := m.MarginalGain(a)
	m.Commit(a)
	secondGain := m.MarginalGain(b)

	assert.Greater(t, firstGain, 0.0)
	assert.Less(t, secondGain, firstGain, "covering the same concept twice must yield strictly less gain")
}

func TestUtilityIsMonotoneNondecreasingAsFragmentsAreCommitted(t *testing.T) {
	a := key("a.go", 1, 5)
	b := key("b.go", 1, 5)
	concepts := map[string]*types.Concept{
		"parse":  {Token: "parse", Fragments: map[types.FragmentKey]struct{}{a: {}}},
		"render": {Token: "render", Fragments: map[types.FragmentKey]struct{}{b: {}}},
	}
	r := map[types.FragmentKey]float64{a: 0.3, b: 0.2}
	universeFrags := map[types.FragmentKey]types.Fragment{
		a: {Path: "a.go", StartLine: 1, EndLine: 5},
		b: {Path: "b.go", StartLine: 1, EndLine: 5},
	}

	m := New(concepts, r, universeFrags)
	u0 := m.Utility()
	m.Commit(a)
	u1 := m.Utility()
	m.Commit(b)
	u2 := m.Utility()

	assert.LessOrEqual(t, u0, u1)
	assert.LessOrEqual(t, u1, u2)
}

func TestSentinelStructuralConceptAlwaysActivatesByR(t *testing.T) {
	a := key("a.go", 1, 5)
	r := map[types.FragmentKey]float64{a: 0.5}
	universeFrags := map[types.FragmentKey]types.Fragment{
		a: {Path: "a.go", StartLine: 1, EndLine: 5},
	}
	m := New(nil, r, universeFrags)
	gain := m.MarginalGain(a)
	assert.InDelta(t, math.Sqrt(0.5), gain, 1e-9)
}

func TestZeroRelevanceFragmentContributesNoGain(t *testing.T) {
	a := key("a.go", 1, 5)
	r := map[types.FragmentKey]float64{a: 0}
	universeFrags := map[types.FragmentKey]types.Fragment{
		a: {Path: "a.go", StartLine: 1, EndLine: 5},
	}
	m := New(nil, r, universeFrags)
	assert.Equal(t, 0.0, m.MarginalGain(a))
}
