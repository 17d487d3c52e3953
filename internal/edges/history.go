package edges

import (
	"github.com/standardbeagle/diffcontext/internal/config"
	"github.com/standardbeagle/diffcontext/internal/types"
)

// HistoryBuilder emits symmetric co-change edges between fragments of
// files that were committed together in the recent commit history (spec
// §4.5 history family). If the caller supplied no commit history
// (ctx.Commits is empty), the family is empty, per spec §4.5: "if
// absent, the family is empty". Only the most recent
// policy.HistoryCommitWindow commits are considered, and any commit
// touching more than policy.HistoryMaxFilesPerCommit files is ignored
// (spec §4.5, caps exposed as configuration per §9 Open Question 3).
type HistoryBuilder struct{}

func (b *HistoryBuilder) Name() string { return "history" }

func (b *HistoryBuilder) Build(universe map[types.FragmentKey]types.Fragment, ctx Context, policy config.Policy) []types.Edge {
	if len(ctx.Commits) == 0 {
		return nil
	}

	byPath := make(map[string][]types.FragmentKey)
	for key := range universe {
		byPath[key.Path] = append(byPath[key.Path], key)
	}

	window := ctx.Commits
	if policy.HistoryCommitWindow > 0 && len(window) > policy.HistoryCommitWindow {
		window = window[:policy.HistoryCommitWindow]
	}

	coChange := make(map[[2]string]int)
	considered := 0
	for _, c := range window {
		if policy.HistoryMaxFilesPerCommit > 0 && len(c.ChangedPaths) > policy.HistoryMaxFilesPerCommit {
			continue
		}
		var present []string
		for _, p := range c.ChangedPaths {
			if _, ok := byPath[p]; ok {
				present = append(present, p)
			}
		}
		if len(present) < 2 {
			continue
		}
		considered++
		for i := 0; i < len(present); i++ {
			for j := i + 1; j < len(present); j++ {
				pair := pathPair(present[i], present[j])
				coChange[pair]++
			}
		}
	}
	if considered == 0 {
		return nil
	}

	var edges []types.Edge
	for pair, count := range coChange {
		weight := historyWeight(count, considered, policy.HistoryWeight)
		for _, src := range byPath[pair[0]] {
			for _, dst := range byPath[pair[1]] {
				edges = append(edges, types.Edge{Src: src, Dst: dst, Weight: weight, BuilderID: b.Name()})
				edges = append(edges, types.Edge{Src: dst, Dst: src, Weight: weight, BuilderID: b.Name()})
			}
		}
	}
	return edges
}

func pathPair(a, b string) [2]string {
	if a <= b {
		return [2]string{a, b}
	}
	return [2]string{b, a}
}

// historyWeight scales the configured ceiling by how often the pair
// actually co-changed relative to the commits considered, floored at 10%
// of the ceiling so even a single shared commit registers a (small)
// signal.
func historyWeight(count, considered int, ceiling float64) float64 {
	ratio := float64(count) / float64(considered)
	floor := ceiling * 0.10
	w := floor + (ceiling-floor)*ratio
	if w > ceiling {
		w = ceiling
	}
	return w
}
