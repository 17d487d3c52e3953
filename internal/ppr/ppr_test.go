package ppr

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/diffcontext/internal/config"
	"github.com/standardbeagle/diffcontext/internal/graph"
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

func TestComputeSumsToOne(t *testing.T) {
	a, b, c := key("a.go", 1, 5), key("b.go", 1, 5), key("c.go", 1, 5)
	edges := []types.Edge{
		{Src: a, Dst: b, Weight: 0.6, BuilderID: "x"},
		{Src: b, Dst: c, Weight: 0.5, BuilderID: "x"},
	}
	g := graph.Build(uni(a, b, c), edges, []types.FragmentKey{a}, config.Default())
	coreID, ok := g.IDs.Lookup(a)
	require.True(t, ok)

	res := Compute(context.Background(), g, []types.FragmentID{coreID}, config.Default())
	assert.InDelta(t, 1.0, Sum(res.R), 1e-6)
	for _, v := range res.R {
		assert.GreaterOrEqual(t, v, 0.0)
	}
}

func TestComputeIsolatedCoreKeepsAllMassOnCore(t *testing.T) {
	a, b := key("a.go", 1, 5), key("b.go", 1, 5)
	g := graph.Build(uni(a, b), nil, []types.FragmentKey{a}, config.Default())
	coreID, _ := g.IDs.Lookup(a)

	res := Compute(context.Background(), g, []types.FragmentID{coreID}, config.Default())
	assert.InDelta(t, 1.0, res.R[coreID], 1e-9)

	otherID, _ := g.IDs.Lookup(b)
	assert.InDelta(t, 0.0, res.R[otherID], 1e-9)
}

func TestComputeEmptyGraphReturnsZeroResult(t *testing.T) {
	g := graph.Build(nil, nil, nil, config.Default())
	res := Compute(context.Background(), g, nil, config.Default())
	assert.Empty(t, res.R)
}

func TestComputeConvergesWithinMaxIterations(t *testing.T) {
	a, b := key("a.go", 1, 5), key("b.go", 1, 5)
	edges := []types.Edge{
		{Src: a, Dst: b, Weight: 0.8, BuilderID: "x"},
		{Src: b, Dst: a, Weight: 0.8, BuilderID: "x"},
	}
	g := graph.Build(uni(a, b), edges, []types.FragmentKey{a}, config.Default())
	coreID, _ := g.IDs.Lookup(a)

	res := Compute(context.Background(), g, []types.FragmentID{coreID}, config.Default())
	assert.True(t, res.Converged)
	assert.LessOrEqual(t, res.Iterations, config.Default().PPRMaxIterations)
}

func TestComputeRespectsContextCancellation(t *testing.T) {
	a, b := key("a.go", 1, 5), key("b.go", 1, 5)
	edges := []types.Edge{{Src: a, Dst: b, Weight: 0.8, BuilderID: "x"}}
	g := graph.Build(uni(a, b), edges, []types.FragmentKey{a}, config.Default())
	coreID, _ := g.IDs.Lookup(a)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := Compute(ctx, g, []types.FragmentID{coreID}, config.Default())
	assert.False(t, res.Converged)
	assert.Equal(t, 0, res.Iterations)
}
