package diffmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/diffcontext/internal/types"
)

func frag(path string, start, end int) types.Fragment {
	return types.Fragment{Path: path, StartLine: start, EndLine: end, Kind: types.KindFunction}
}

func TestBuildCoreSetIncludesFragmentsTouchedByPostHunk(t *testing.T) {
	files := map[string]FileFragments{
		"a.go": {
			Post: []types.Fragment{frag("a.go", 1, 5), frag("a.go", 6, 10)},
		},
	}
	hunks := []types.Hunk{{Path: "a.go", Side: types.SidePost, StartLine: 7, EndLine: 8}}

	res := BuildCoreSet(files, hunks)
	require.Len(t, res.Core, 1)
	assert.Equal(t, 6, res.Core[0].StartLine)
}

func TestBuildCoreSetUsesPreImageForRemovedHunks(t *testing.T) {
	files := map[string]FileFragments{
		"a.go": {
			Pre:  []types.Fragment{frag("a.go", 1, 5)},
			Post: []types.Fragment{frag("a.go", 1, 3)},
		},
	}
	hunks := []types.Hunk{{Path: "a.go", Side: types.SidePre, StartLine: 4, EndLine: 5}}

	res := BuildCoreSet(files, hunks)
	require.Len(t, res.Core, 1)
	assert.Equal(t, 1, res.Core[0].StartLine)
	assert.Equal(t, 5, res.Core[0].EndLine)
}

func TestBuildCoreSetIncludesEnclosingContainerWithoutDedup(t *testing.T) {
	containerKey := types.FragmentKey{Path: "a.go", StartLine: 1, EndLine: 20}
	method := frag("a.go", 5, 10)
	method.Container = &containerKey
	container := frag("a.go", 1, 20)
	container.Kind = types.KindClass
	container.ContainerOnly = true

	files := map[string]FileFragments{
		"a.go": {Post: []types.Fragment{container, method}},
	}
	hunks := []types.Hunk{{Path: "a.go", Side: types.SidePost, StartLine: 6, EndLine: 6}}

	res := BuildCoreSet(files, hunks)
	require.Len(t, res.Core, 2)
}

func TestBuildCoreSetReportsInputErrorForMissingPath(t *testing.T) {
	hunks := []types.Hunk{{Path: "missing.go", Side: types.SidePost, StartLine: 1, EndLine: 2}}

	res := BuildCoreSet(map[string]FileFragments{}, hunks)
	assert.Empty(t, res.Core)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "missing.go", res.Errors[0].FilePath)
}

func TestBuildCoreSetDeduplicatesFragmentTouchedByMultipleHunks(t *testing.T) {
	files := map[string]FileFragments{
		"a.go": {Post: []types.Fragment{frag("a.go", 1, 10)}},
	}
	hunks := []types.Hunk{
		{Path: "a.go", Side: types.SidePost, StartLine: 1, EndLine: 2},
		{Path: "a.go", Side: types.SidePost, StartLine: 8, EndLine: 9},
	}

	res := BuildCoreSet(files, hunks)
	assert.Len(t, res.Core, 1)
}
