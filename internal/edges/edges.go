// Package edges implements the six Edge Builder families of spec §4.5.
// Each builder is an independent (universe, context) -> []Edge producer,
// registered in an explicit list exactly as spec §9 recommends for the
// Fragmenter's strategies; builders never share mutable state and each
// is robust to unparsable input, emitting no edges on failure rather
// than raising (spec §4.5 design decision). Grounded in shape on the
// teacher's internal/symbollinker per-language extractor/resolver split.
package edges

import (
	"github.com/standardbeagle/diffcontext/internal/config"
	"github.com/standardbeagle/diffcontext/internal/types"
)

// Commit is one entry of the optional commit history input (spec §6:
// "list of (commit_sha, changed_paths[]), newest first").
type Commit struct {
	SHA          string
	ChangedPaths []string
}

// Context bundles everything a builder may need beyond the universe
// itself. Builders read only the fields relevant to their family; a nil
// or empty field (e.g. no Commits) simply yields an empty edge set for
// that family (spec §4.5: "if absent, the family is empty").
type Context struct {
	DiffTokens         map[string]struct{}
	ManifestReferences map[string][]string // manifest path -> referenced source paths
	Commits            []Commit
}

// Builder produces one family's edges over the given universe.
type Builder interface {
	Name() string
	Build(universe map[types.FragmentKey]types.Fragment, ctx Context, policy config.Policy) []types.Edge
}

// DefaultBuilders returns every family in spec §4.5's table, in no
// particular order (the Graph Assembler aggregates by max and keeps no
// builder id per edge, so builder order does not affect the result).
func DefaultBuilders() []Builder {
	return []Builder{
		&SemanticBuilder{},
		&ConfigurationBuilder{},
		&StructuralBuilder{},
		&DocumentBuilder{},
		&SimilarityBuilder{},
		&HistoryBuilder{},
	}
}
