package edges

import (
	"path/filepath"

	"github.com/standardbeagle/diffcontext/internal/config"
	"github.com/standardbeagle/diffcontext/internal/types"
	"github.com/standardbeagle/diffcontext/internal/universe"
)

// StructuralBuilder emits containment, sibling, and test<->code edges
// (spec §4.5 structural family). Containment comes directly from
// Fragment.Container, which the Fragmenter already resolved (innermost
// wins, spec §9 Open Question 1); sibling and test-pairing are derived
// from path shape, mirroring internal/universe's own structural-
// relatedness source so both stages agree on what counts as "related".
type StructuralBuilder struct{}

func (b *StructuralBuilder) Name() string { return "structural" }

func (b *StructuralBuilder) Build(frags map[types.FragmentKey]types.Fragment, _ Context, policy config.Policy) []types.Edge {
	var edges []types.Edge

	for key, f := range frags {
		if f.Container == nil {
			continue
		}
		if _, ok := frags[*f.Container]; !ok {
			continue
		}
		edges = append(edges, types.Edge{Src: key, Dst: *f.Container, Weight: policy.Structural.Containment, BuilderID: b.Name()})
		edges = append(edges, types.Edge{Src: *f.Container, Dst: key, Weight: policy.Structural.Containment * policy.Structural.ReverseFactor, BuilderID: b.Name()})
	}

	byDir := make(map[string][]types.FragmentKey)
	for key := range frags {
		dir := filepath.Dir(key.Path)
		byDir[dir] = append(byDir[dir], key)
	}
	for _, keys := range byDir {
		for i := range keys {
			for j := range keys {
				if i == j || keys[i].Path == keys[j].Path {
					continue
				}
				edges = append(edges, types.Edge{Src: keys[i], Dst: keys[j], Weight: policy.Structural.Sibling, BuilderID: b.Name()})
			}
		}
	}

	byPath := make(map[string][]types.FragmentKey, len(byDir))
	for key := range frags {
		byPath[key.Path] = append(byPath[key.Path], key)
	}
	seenPair := make(map[[2]string]struct{})
	for key := range frags {
		counterpart, ok := universe.TestCodeCounterpart(key.Path)
		if !ok {
			continue
		}
		if _, ok := byPath[counterpart]; !ok {
			continue
		}
		pair := pathPairOrdered(key.Path, counterpart)
		if _, dup := seenPair[pair]; dup {
			continue
		}
		seenPair[pair] = struct{}{}
		for _, a := range byPath[key.Path] {
			for _, c := range byPath[counterpart] {
				edges = append(edges, types.Edge{Src: a, Dst: c, Weight: policy.Structural.TestCodePair, BuilderID: b.Name()})
				edges = append(edges, types.Edge{Src: c, Dst: a, Weight: policy.Structural.TestCodePair, BuilderID: b.Name()})
			}
		}
	}

	return edges
}

func pathPairOrdered(a, b string) [2]string {
	if a <= b {
		return [2]string{a, b}
	}
	return [2]string{b, a}
}
