package edges

import (
	"github.com/standardbeagle/diffcontext/internal/config"
	"github.com/standardbeagle/diffcontext/internal/types"
)

// ConfigurationBuilder emits bidirectional, symmetric edges between a
// configuration/manifest fragment (Dockerfile, Helm chart, Terraform,
// CI pipeline) and the source fragments it references by path (spec
// §4.5 configuration family). ManifestReferences is supplied by the
// caller's manifest-reference parse (the same data the Universe
// Builder's source 4 consumes, shared rather than recomputed).
type ConfigurationBuilder struct{}

func (b *ConfigurationBuilder) Name() string { return "configuration" }

func (b *ConfigurationBuilder) Build(universe map[types.FragmentKey]types.Fragment, ctx Context, policy config.Policy) []types.Edge {
	if len(ctx.ManifestReferences) == 0 {
		return nil
	}

	var edges []types.Edge
	for manifestPath, refs := range ctx.ManifestReferences {
		manifestFrags := fragmentsOfPath(universe, manifestPath)
		if len(manifestFrags) == 0 {
			continue
		}
		for _, refPath := range refs {
			refFrags := fragmentsOfPath(universe, refPath)
			for _, mk := range manifestFrags {
				for _, rk := range refFrags {
					edges = append(edges, types.Edge{Src: mk, Dst: rk, Weight: policy.ConfigurationWeight, BuilderID: b.Name()})
					edges = append(edges, types.Edge{Src: rk, Dst: mk, Weight: policy.ConfigurationWeight, BuilderID: b.Name()})
				}
			}
		}
	}
	return edges
}

func fragmentsOfPath(universe map[types.FragmentKey]types.Fragment, path string) []types.FragmentKey {
	var out []types.FragmentKey
	for key := range universe {
		if key.Path == path {
			out = append(out, key)
		}
	}
	return out
}
