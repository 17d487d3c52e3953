package graph

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/diffcontext/internal/config"
	"github.com/standardbeagle/diffcontext/internal/types"
)

func key(path string, start, end int) types.FragmentKey {
	return types.FragmentKey{Path: path, StartLine: start, EndLine: end}
}

func uni(keys ...types.FragmentKey) map[types.FragmentKey]types.Fragment {
	m := make(map[types.FragmentKey]types.Fragment, len(keys))
	for _, k := range keys {
		m[k] = types.Fragment{Path: k.Path, StartLine: k.StartLine, EndLine: k.EndLine}
	}
	return m
}

func TestBuildAggregatesByMax(t *testing.T) {
	a, b := key("a.go", 1, 5), key("b.go", 1, 5)
	edges := []types.Edge{
		{Src: a, Dst: b, Weight: 0.3, BuilderID: "x"},
		{Src: a, Dst: b, Weight: 0.7, BuilderID: "y"},
	}
	g := Build(uni(a, b), edges, nil, config.Default())

	idA, _ := g.IDs.Lookup(a)
	idB, _ := g.IDs.Lookup(b)
	cols, weights := g.Neighbors(idA)
	require.Len(t, cols, 1)
	assert.Equal(t, idB, types.FragmentID(cols[0]))
	assert.Equal(t, 0.7, weights[0])
}

func TestBuildDropsSelfLoops(t *testing.T) {
	a := key("a.go", 1, 5)
	edges := []types.Edge{{Src: a, Dst: a, Weight: 0.9, BuilderID: "x"}}
	g := Build(uni(a), edges, nil, config.Default())
	assert.Equal(t, 0, g.EdgeCount())
}

func TestBuildClampsWeightsToUnitInterval(t *testing.T) {
	a, b := key("a.go", 1, 5), key("b.go", 1, 5)
	edges := []types.Edge{{Src: a, Dst: b, Weight: 5.0, BuilderID: "x"}}
	g := Build(uni(a, b), edges, nil, config.Default())
	_, weights := g.Neighbors(mustID(g, a))
	require.Len(t, weights, 1)
	assert.LessOrEqual(t, weights[0], 1.0)
}

func TestHubSuppressionDampensHighInDegreeNonCoreNodes(t *testing.T) {
	hub := key("log.go", 1, 5)
	var keys []types.FragmentKey
	var edges []types.Edge
	for i := 0; i < 40; i++ {
		k := key("f"+string(rune('A'+i))+".go", 1, 5)
		keys = append(keys, k)
		edges = append(edges, types.Edge{Src: k, Dst: hub, Weight: 0.9, BuilderID: "semantic"})
	}
	keys = append(keys, hub)

	policy := config.Default()
	policy.HubPercentile = 0.5
	g := Build(uni(keys...), edges, nil, policy)

	hubID := mustID(g, hub)
	found := false
	for _, v := range g.SuppressedNodes {
		if v == hubID {
			found = true
		}
	}
	assert.True(t, found, "hub should be in SuppressedNodes")

	_, weights := g.Neighbors(mustID(g, keys[0]))
	require.Len(t, weights, 1)
	assert.Less(t, weights[0], 0.9, "hub suppression must only dampen, never raise")
}

func TestHubSuppressionNeverAppliesToCoreNodes(t *testing.T) {
	hub := key("log.go", 1, 5)
	var keys []types.FragmentKey
	var edges []types.Edge
	for i := 0; i < 40; i++ {
		k := key("f"+string(rune('A'+i))+".go", 1, 5)
		keys = append(keys, k)
		edges = append(edges, types.Edge{Src: k, Dst: hub, Weight: 0.9, BuilderID: "semantic"})
	}
	keys = append(keys, hub)

	policy := config.Default()
	policy.HubPercentile = 0.5
	g := Build(uni(keys...), edges, []types.FragmentKey{hub}, policy)

	_, weights := g.Neighbors(mustID(g, keys[0]))
	require.Len(t, weights, 1)
	assert.Equal(t, 0.9, weights[0], "hub suppression must never apply to a fragment in E0")
}

func TestHubSuppressionNoOpWhenNoNodeExceedsPercentile(t *testing.T) {
	a, b := key("a.go", 1, 5), key("b.go", 1, 5)
	edges := []types.Edge{{Src: a, Dst: b, Weight: 0.5, BuilderID: "x"}}
	g := Build(uni(a, b), edges, nil, config.Default())
	assert.Empty(t, g.SuppressedNodes)
}

func TestOutDegreeIsSumOfWeights(t *testing.T) {
	a, b, c := key("a.go", 1, 5), key("b.go", 1, 5), key("c.go", 1, 5)
	edges := []types.Edge{
		{Src: a, Dst: b, Weight: 0.4, BuilderID: "x"},
		{Src: a, Dst: c, Weight: 0.3, BuilderID: "x"},
	}
	g := Build(uni(a, b, c), edges, nil, config.Default())
	assert.InDelta(t, 0.7, g.OutDegree[mustID(g, a)], 1e-9)
}

func TestPercentileEmptyIsInfinity(t *testing.T) {
	assert.True(t, math.IsInf(percentile(nil, 0.95), 1))
}

func mustID(g *Graph, k types.FragmentKey) types.FragmentID {
	id, ok := g.IDs.Lookup(k)
	if !ok {
		panic("missing key")
	}
	return id
}
