// Package graph implements the Graph Assembler (spec §4.6): it aggregates
// every edge builder's output by max into one weighted directed graph,
// then applies hub suppression so utility modules (loggers, config
// objects) don't absorb PPR mass purely by virtue of high in-degree.
// Grounded in shape on the teacher's internal/core/universal_graph.go
// relationship-index design, re-expressed as the compressed-sparse-row
// layout spec §9 calls for instead of the teacher's map-of-slices
// adjacency (this engine's graph is built fresh every run and read by
// PPR's matrix-vector multiply, not queried ad hoc by a long-lived
// server).
package graph

import (
	"fmt"
	"math"
	"sort"

	"github.com/standardbeagle/diffcontext/internal/config"
	"github.com/standardbeagle/diffcontext/internal/ctxerrors"
	"github.com/standardbeagle/diffcontext/internal/debug"
	"github.com/standardbeagle/diffcontext/internal/types"
)

// Graph is the assembled, hub-suppressed edge set over a finalized
// fragment universe, in CSR form: out-edges of node u live in
// ColIndex[RowStart[u]:RowStart[u+1]] with matching weights in Weight at
// the same offsets, sorted by destination id for determinism (spec §5).
type Graph struct {
	IDs *types.IDAssigner

	RowStart []int32
	ColIndex []int32
	Weight   []float64

	// OutDegree[u] = sum of Weight over u's out-edges, post-suppression
	// (spec §9 Open Question 2: deg_out is computed from the
	// already-suppressed graph, not the raw aggregated one).
	OutDegree []float64

	// InDegree[v] = count of distinct u with an edge u->v, pre-suppression
	// (the quantity hub suppression itself keys off of, spec §4.6).
	InDegree []int

	// SuppressedNodes lists node ids whose incoming weights were scaled
	// down by hub suppression, retained for run metadata/diagnostics.
	SuppressedNodes []types.FragmentID
}

// Build aggregates builderEdges by max over ordered pairs (spec §4.6),
// assigns dense ids to every fragment in universe in sorted (path,
// start_line) order (spec §5, §9), then applies hub suppression (spec
// §4.6) before computing the final out-degree normalization table PPR
// will use. core marks E0: hub suppression never applies to a fragment
// already in the core set (spec §4.6: "for every v... v not in E0").
func Build(universe map[types.FragmentKey]types.Fragment, builderEdges []types.Edge, core []types.FragmentKey, policy config.Policy) *Graph {
	ids := types.NewIDAssigner()
	keys := make([]types.FragmentKey, 0, len(universe))
	for k := range universe {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	for _, k := range keys {
		ids.IDFor(k)
	}
	n := ids.Len()

	inCore := make(map[types.FragmentID]struct{}, len(core))
	for _, k := range core {
		if id, ok := ids.Lookup(k); ok {
			inCore[id] = struct{}{}
		}
	}

	// Aggregate by max over (src,dst), dropping self-loops and edges
	// touching fragments outside the finalized universe (spec §3
	// invariant: "no edge from a fragment to itself").
	type pair struct{ src, dst types.FragmentID }
	agg := make(map[pair]float64)
	for _, e := range builderEdges {
		srcID, ok := ids.Lookup(e.Src)
		if !ok {
			continue
		}
		dstID, ok := ids.Lookup(e.Dst)
		if !ok {
			continue
		}
		if srcID == dstID {
			continue
		}
		w := e.Weight
		if w <= 0 {
			continue
		}
		if w > 1 {
			w = 1
		}
		p := pair{srcID, dstID}
		if cur, ok := agg[p]; !ok || w > cur {
			agg[p] = w
		}
	}

	inDegree := make([]int, n)
	incoming := make([][]pair, n) // incoming[v] holds {src: u, dst: v} pairs touching v
	for p := range agg {
		inDegree[p.dst]++
		incoming[p.dst] = append(incoming[p.dst], p)
	}

	theta := percentile(inDegree, policy.HubPercentile)

	var suppressed []types.FragmentID
	for v := 0; v < n; v++ {
		if float64(inDegree[v]) <= theta {
			continue
		}
		if _, ok := inCore[types.FragmentID(v)]; ok {
			continue
		}
		factor := 1 / math.Log(1+float64(inDegree[v]))
		if factor > 1 {
			// Hub suppression must only ever dampen (spec §3 invariant);
			// a low in-degree threshold at small n can otherwise produce
			// factor > 1 via log(1+n) < 1.
			factor = 1
		}
		for _, p := range incoming[v] {
			agg[p] = agg[p] * factor
		}
		suppressed = append(suppressed, types.FragmentID(v))
	}

	byRow := make([][]pair, n)
	for p := range agg {
		byRow[p.src] = append(byRow[p.src], p)
	}

	g := &Graph{
		IDs:             ids,
		RowStart:        make([]int32, n+1),
		OutDegree:       make([]float64, n),
		InDegree:        inDegree,
		SuppressedNodes: suppressed,
	}
	offset := int32(0)
	for u := 0; u < n; u++ {
		row := byRow[u]
		sort.Slice(row, func(i, j int) bool { return row[i].dst < row[j].dst })
		g.RowStart[u] = offset
		var outSum float64
		for _, p := range row {
			w := agg[p]
			g.ColIndex = append(g.ColIndex, int32(p.dst))
			g.Weight = append(g.Weight, w)
			outSum += w
		}
		g.OutDegree[u] = outSum
		offset += int32(len(row))
	}
	g.RowStart[n] = offset

	if debug.IsEnabled() {
		assertGraphInvariants(g, inCore)
	}

	return g
}

// assertGraphInvariants checks spec §3's edge-weight and self-loop
// invariants and the hub-suppression exemption for E0 on the assembled,
// post-suppression graph (spec §8 testable property 3: "All edge
// weights lie in (0, 1] after assembly and hub suppression").
func assertGraphInvariants(g *Graph, inCore map[types.FragmentID]struct{}) {
	for u := 0; u < g.Len(); u++ {
		cols, weights := g.Neighbors(types.FragmentID(u))
		for i, dst := range cols {
			w := weights[i]
			ctxerrors.AssertInvariant(w > 0 && w <= 1, "weight∈(0,1]", fmt.Sprintf("edge %d->%d has weight %v", u, dst, w))
			ctxerrors.AssertInvariant(int32(u) != dst, "no-self-loop", fmt.Sprintf("self-loop retained at node %d", u))
		}
	}
	for _, v := range g.SuppressedNodes {
		_, isCore := inCore[v]
		ctxerrors.AssertInvariant(!isCore, "hub-suppression-exempts-E0", fmt.Sprintf("core fragment id %d was hub-suppressed", v))
	}
}

// percentile returns the value at the given fraction (e.g. 0.95) of a
// sorted copy of values, using nearest-rank interpolation. Returns +Inf
// for an empty slice so hub suppression becomes a no-op (spec §8
// boundary: "Hub suppression at theta = infinity is a no-op").
func percentile(values []int, frac float64) float64 {
	if len(values) == 0 {
		return math.Inf(1)
	}
	sorted := make([]int, len(values))
	copy(sorted, values)
	sort.Ints(sorted)
	idx := int(math.Ceil(frac*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return float64(sorted[idx])
}

// Neighbors returns the out-edges of node u as parallel (dst, weight)
// slices.
func (g *Graph) Neighbors(u types.FragmentID) ([]int32, []float64) {
	s, e := g.RowStart[u], g.RowStart[u+1]
	return g.ColIndex[s:e], g.Weight[s:e]
}

// Len returns the number of nodes in the graph.
func (g *Graph) Len() int { return len(g.RowStart) - 1 }

// EdgeCount returns the number of aggregated, post-suppression edges.
func (g *Graph) EdgeCount() int { return len(g.ColIndex) }
