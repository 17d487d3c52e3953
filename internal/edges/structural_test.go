package edges

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/standardbeagle/diffcontext/internal/config"
	"github.com/standardbeagle/diffcontext/internal/types"
)

func TestStructuralBuilderEmitsContainmentBothDirections(t *testing.T) {
	container := types.FragmentKey{Path: "a.go", StartLine: 1, EndLine: 20}
	method := types.FragmentKey{Path: "a.go", StartLine: 5, EndLine: 8}
	universe := map[types.FragmentKey]types.Fragment{
		container: {Path: "a.go", StartLine: 1, EndLine: 20, Kind: types.KindClass},
		method:    {Path: "a.go", StartLine: 5, EndLine: 8, Kind: types.KindMethod, Container: &container},
	}

	b := &StructuralBuilder{}
	out := b.Build(universe, Context{}, config.Default())

	var forward, reverse bool
	for _, e := range out {
		if e.Src == method && e.Dst == container {
			forward = true
			assert.Equal(t, config.Default().Structural.Containment, e.Weight)
		}
		if e.Src == container && e.Dst == method {
			reverse = true
			assert.Less(t, e.Weight, config.Default().Structural.Containment)
		}
	}
	assert.True(t, forward, "expected method->container containment edge")
	assert.True(t, reverse, "expected container->method reverse edge")
}

func TestStructuralBuilderEmitsSiblingEdgesWithinDirectory(t *testing.T) {
	a := types.FragmentKey{Path: "pkg/a.go", StartLine: 1, EndLine: 5}
	b := types.FragmentKey{Path: "pkg/b.go", StartLine: 1, EndLine: 5}
	c := types.FragmentKey{Path: "other/c.go", StartLine: 1, EndLine: 5}
	universe := map[types.FragmentKey]types.Fragment{
		a: {Path: "pkg/a.go", StartLine: 1, EndLine: 5},
		b: {Path: "pkg/b.go", StartLine: 1, EndLine: 5},
		c: {Path: "other/c.go", StartLine: 1, EndLine: 5},
	}

	out := (&StructuralBuilder{}).Build(universe, Context{}, config.Default())

	found := false
	for _, e := range out {
		if e.Src == a && e.Dst == b {
			found = true
		}
		assert.NotEqual(t, c, e.Src)
		assert.NotEqual(t, c, e.Dst)
	}
	assert.True(t, found, "expected sibling edge between files in the same directory")
}

func TestStructuralBuilderEmitsTestCodePairEdges(t *testing.T) {
	code := types.FragmentKey{Path: "pkg/foo.go", StartLine: 1, EndLine: 5}
	test := types.FragmentKey{Path: "pkg/foo_test.go", StartLine: 1, EndLine: 5}
	universe := map[types.FragmentKey]types.Fragment{
		code: {Path: "pkg/foo.go", StartLine: 1, EndLine: 5},
		test: {Path: "pkg/foo_test.go", StartLine: 1, EndLine: 5},
	}

	out := (&StructuralBuilder{}).Build(universe, Context{}, config.Default())

	var toTest, toCode bool
	for _, e := range out {
		if e.Src == code && e.Dst == test {
			toTest = true
		}
		if e.Src == test && e.Dst == code {
			toCode = true
		}
	}
	assert.True(t, toTest)
	assert.True(t, toCode)
}

func TestStructuralBuilderNeverEmitsSelfLoopOrCrossDirSibling(t *testing.T) {
	a := types.FragmentKey{Path: "pkg/a.go", StartLine: 1, EndLine: 5}
	a2 := types.FragmentKey{Path: "pkg/a.go", StartLine: 6, EndLine: 10}
	universe := map[types.FragmentKey]types.Fragment{
		a:  {Path: "pkg/a.go", StartLine: 1, EndLine: 5},
		a2: {Path: "pkg/a.go", StartLine: 6, EndLine: 10},
	}

	out := (&StructuralBuilder{}).Build(universe, Context{}, config.Default())
	for _, e := range out {
		assert.NotEqual(t, e.Src, e.Dst)
	}
}
