package edges

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/standardbeagle/diffcontext/internal/config"
	"github.com/standardbeagle/diffcontext/internal/types"
)

func TestDocumentBuilderLinksToAnchorInSameFile(t *testing.T) {
	src := types.FragmentKey{Path: "README.md", StartLine: 1, EndLine: 3}
	dst := types.FragmentKey{Path: "README.md", StartLine: 10, EndLine: 15}
	universe := map[types.FragmentKey]types.Fragment{
		src: {Path: "README.md", StartLine: 1, EndLine: 3, Kind: types.KindSection, Symbol: "Intro",
			Content: "See [Setup](#setup) for details."},
		dst: {Path: "README.md", StartLine: 10, EndLine: 15, Kind: types.KindSection, Symbol: "Setup"},
	}

	out := (&DocumentBuilder{}).Build(universe, Context{}, config.Default())

	found := false
	for _, e := range out {
		if e.Src == src && e.Dst == dst {
			found = true
			assert.Equal(t, config.Default().DocumentWeight, e.Weight)
		}
	}
	assert.True(t, found, "expected anchor-link edge from Intro to Setup")
}

func TestDocumentBuilderLinksAcrossFiles(t *testing.T) {
	src := types.FragmentKey{Path: "docs/a.md", StartLine: 1, EndLine: 3}
	dst := types.FragmentKey{Path: "docs/b.md", StartLine: 1, EndLine: 5}
	universe := map[types.FragmentKey]types.Fragment{
		src: {Path: "docs/a.md", StartLine: 1, EndLine: 3, Kind: types.KindSection, Symbol: "A",
			Content: "Read [B](b.md) first."},
		dst: {Path: "docs/b.md", StartLine: 1, EndLine: 5, Kind: types.KindSection, Symbol: "B"},
	}

	out := (&DocumentBuilder{}).Build(universe, Context{}, config.Default())

	found := false
	for _, e := range out {
		if e.Src == src && e.Dst == dst {
			found = true
		}
	}
	assert.True(t, found, "expected cross-file markdown link edge")
}

func TestDocumentBuilderIgnoresNonMarkdownFragments(t *testing.T) {
	src := types.FragmentKey{Path: "a.go", StartLine: 1, EndLine: 3}
	universe := map[types.FragmentKey]types.Fragment{
		src: {Path: "a.go", StartLine: 1, EndLine: 3, Kind: types.KindFunction, Content: "[x](y.md)"},
	}
	out := (&DocumentBuilder{}).Build(universe, Context{}, config.Default())
	assert.Empty(t, out)
}
