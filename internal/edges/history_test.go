package edges

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/standardbeagle/diffcontext/internal/config"
	"github.com/standardbeagle/diffcontext/internal/types"
)

func TestHistoryBuilderEmitsCoChangeEdges(t *testing.T) {
	a := types.FragmentKey{Path: "a.go", StartLine: 1, EndLine: 5}
	b := types.FragmentKey{Path: "b.go", StartLine: 1, EndLine: 5}
	universe := map[types.FragmentKey]types.Fragment{
		a: {Path: "a.go", StartLine: 1, EndLine: 5},
		b: {Path: "b.go", StartLine: 1, EndLine: 5},
	}
	ctx := Context{Commits: []Commit{
		{SHA: "1", ChangedPaths: []string{"a.go", "b.go"}},
		{SHA: "2", ChangedPaths: []string{"a.go", "b.go"}},
		{SHA: "3", ChangedPaths: []string{"a.go"}},
	}}

	out := (&HistoryBuilder{}).Build(universe, ctx, config.Default())

	var forward, reverse bool
	for _, e := range out {
		assert.GreaterOrEqual(t, e.Weight, 0.0)
		assert.LessOrEqual(t, e.Weight, config.Default().HistoryWeight)
		if e.Src == a && e.Dst == b {
			forward = true
		}
		if e.Src == b && e.Dst == a {
			reverse = true
		}
	}
	assert.True(t, forward)
	assert.True(t, reverse)
}

func TestHistoryBuilderEmptyWithoutCommits(t *testing.T) {
	universe := map[types.FragmentKey]types.Fragment{
		{Path: "a.go", StartLine: 1, EndLine: 5}: {Path: "a.go", StartLine: 1, EndLine: 5},
	}
	out := (&HistoryBuilder{}).Build(universe, Context{}, config.Default())
	assert.Nil(t, out)
}

func TestHistoryBuilderIgnoresCommitsOverFilesPerCommitCap(t *testing.T) {
	a := types.FragmentKey{Path: "a.go", StartLine: 1, EndLine: 5}
	b := types.FragmentKey{Path: "b.go", StartLine: 1, EndLine: 5}
	universe := map[types.FragmentKey]types.Fragment{
		a: {Path: "a.go", StartLine: 1, EndLine: 5},
		b: {Path: "b.go", StartLine: 1, EndLine: 5},
	}
	bigCommit := Commit{SHA: "huge", ChangedPaths: make([]string, 40)}
	for i := range bigCommit.ChangedPaths {
		bigCommit.ChangedPaths[i] = "a.go"
	}
	bigCommit.ChangedPaths[0] = "a.go"
	bigCommit.ChangedPaths[1] = "b.go"
	ctx := Context{Commits: []Commit{bigCommit}}

	policy := config.Default()
	policy.HistoryMaxFilesPerCommit = 30

	out := (&HistoryBuilder{}).Build(universe, ctx, policy)
	assert.Nil(t, out)
}

func TestHistoryBuilderZeroCommitWindowDisablesCap(t *testing.T) {
	a := types.FragmentKey{Path: "a.go", StartLine: 1, EndLine: 5}
	b := types.FragmentKey{Path: "b.go", StartLine: 1, EndLine: 5}
	universe := map[types.FragmentKey]types.Fragment{
		a: {Path: "a.go", StartLine: 1, EndLine: 5},
		b: {Path: "b.go", StartLine: 1, EndLine: 5},
	}
	ctx := Context{Commits: []Commit{
		{SHA: "old", ChangedPaths: []string{"a.go", "b.go"}},
	}}
	policy := config.Default()
	policy.HistoryCommitWindow = 0 // window<=0 disables the cap: every commit is considered

	out := (&HistoryBuilder{}).Build(universe, ctx, policy)
	// HistoryCommitWindow of 0 means "no cap" per the window slicing guard
	// (policy.HistoryCommitWindow > 0 gate), so the single commit still counts.
	assert.NotEmpty(t, out)
}
