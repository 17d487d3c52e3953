// Package selector implements the lazy-greedy submodular selector with
// adaptive tau-stopping (spec §4.8). There is no teacher analog for a
// budgeted submodular selection stage; the lazy-heap technique itself
// is the standard trick spec §9 names explicitly ("on pop, recompute the
// candidate's density against the current S; if stale, reinsert with
// the fresh value and continue. No explicit decrease-key is needed"),
// implemented here with container/heap the way the teacher reaches for
// stdlib data-structure packages rather than a third-party heap (the
// retrieved pack carries no priority-queue library for any example repo
// to ground one on).
package selector

import (
	"container/heap"
	"context"
	"sort"

	"github.com/standardbeagle/diffcontext/internal/config"
	"github.com/standardbeagle/diffcontext/internal/ctxerrors"
	"github.com/standardbeagle/diffcontext/internal/types"
	"github.com/standardbeagle/diffcontext/internal/utility"
)

// StopReason reports why the selector terminated (spec §6 run metadata:
// "stopping reason").
type StopReason string

const (
	StopTau       StopReason = "tau"
	StopBudget    StopReason = "budget"
	StopExhausted StopReason = "exhausted"
	StopTimeout   StopReason = "timeout"
	StopCoreOnly  StopReason = "budget_infeasible_core"
)

// Result is the Selector's output.
type Result struct {
	Selected   []types.FragmentKey // in selection order: sorted E0 first, then greedy adds
	Cost       int
	StopReason StopReason
	Warning    *ctxerrors.BudgetInfeasibleError
}

func cost(f types.Fragment, policy config.Policy) int {
	return f.TokenCount + policy.OverheadPerFragment
}

// Select runs spec §4.8's procedure: S starts at core (E0), candidates
// from universe\S are popped off a density-ordered max-heap with lazy
// revalidation, until the heap drains, the adaptive tau-stopping rule
// fires, or every remaining candidate would bust the budget.
func Select(ctx context.Context, universe map[types.FragmentKey]types.Fragment, core []types.FragmentKey, model *utility.Model, r map[types.FragmentKey]float64, policy config.Policy) Result {
	sortedCore := make([]types.FragmentKey, len(core))
	copy(sortedCore, core)
	sort.Slice(sortedCore, func(i, j int) bool { return sortedCore[i].Less(sortedCore[j]) })

	selected := make(map[types.FragmentKey]struct{}, len(sortedCore))
	order := make([]types.FragmentKey, 0, len(sortedCore))
	totalCost := 0
	for _, k := range sortedCore {
		model.Commit(k)
		selected[k] = struct{}{}
		order = append(order, k)
		totalCost += cost(universe[k], policy)
	}

	if policy.Budget > 0 && totalCost > policy.Budget {
		truncated, truncCost := truncateByPPR(sortedCore, universe, r, policy)
		return Result{
			Selected:   truncated,
			Cost:       truncCost,
			StopReason: StopCoreOnly,
			Warning:    ctxerrors.NewBudgetInfeasibleError(totalCost, policy.Budget),
		}
	}

	h := &candidateHeap{}
	heap.Init(h)
	for key, f := range universe {
		if _, ok := selected[key]; ok {
			continue
		}
		gain := model.MarginalGain(key)
		heap.Push(h, &candidateItem{key: key, density: density(gain, f, policy), ppr: r[key]})
	}

	var baseline []float64
	tauAbs := 0.0
	baselineSet := false
	reason := StopExhausted
	budgetSkipped := false

	for h.Len() > 0 {
		select {
		case <-ctx.Done():
			reason = StopTimeout
			return Result{Selected: order, Cost: totalCost, StopReason: reason}
		default:
		}

		item := heap.Pop(h).(*candidateItem)
		f := universe[item.key]
		freshGain := model.MarginalGain(item.key)
		freshDensity := density(freshGain, f, policy)

		if freshDensity < item.density-1e-12 {
			item.density = freshDensity
			item.ppr = r[item.key]
			heap.Push(h, item)
			continue
		}

		if baselineSet && freshDensity < tauAbs {
			reason = StopTau
			break
		}

		c := cost(f, policy)
		if policy.Budget > 0 && totalCost+c > policy.Budget {
			budgetSkipped = true
			continue
		}

		model.Commit(item.key)
		selected[item.key] = struct{}{}
		order = append(order, item.key)
		totalCost += c

		if !baselineSet {
			baseline = append(baseline, freshDensity)
			if len(baseline) == 5 {
				tauAbs = policy.Tau * median(baseline)
				baselineSet = true
			}
		}
	}

	if reason != StopTau && budgetSkipped {
		reason = StopBudget
	}

	return Result{Selected: order, Cost: totalCost, StopReason: reason}
}

// density is ΔU(f,S)/cost(f) (spec §4.8 step 2).
func density(gain float64, f types.Fragment, policy config.Policy) float64 {
	c := cost(f, policy)
	if c <= 0 {
		return gain
	}
	return gain / float64(c)
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// truncateByPPR handles spec §7's BudgetInfeasible policy: "return E0
// truncated by PPR-descending order until the budget fits, attach a
// warning." Ties broken by the same (path, start_line) lexicographic
// rule the greedy loop uses (spec §4.8 Ordering).
func truncateByPPR(core []types.FragmentKey, universe map[types.FragmentKey]types.Fragment, r map[types.FragmentKey]float64, policy config.Policy) ([]types.FragmentKey, int) {
	ranked := make([]types.FragmentKey, len(core))
	copy(ranked, core)
	sort.Slice(ranked, func(i, j int) bool {
		if r[ranked[i]] != r[ranked[j]] {
			return r[ranked[i]] > r[ranked[j]]
		}
		return ranked[i].Less(ranked[j])
	})

	var out []types.FragmentKey
	total := 0
	for _, k := range ranked {
		c := cost(universe[k], policy)
		if total+c > policy.Budget {
			continue
		}
		out = append(out, k)
		total += c
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out, total
}

// candidateItem is one heap entry: a not-yet-selected fragment with its
// last-known density.
type candidateItem struct {
	key     types.FragmentKey
	density float64
	ppr     float64
	index   int
}

// candidateHeap is a max-heap by density, ties broken by higher PPR then
// lexicographic (path, start_line) (spec §4.8 Ordering).
type candidateHeap []*candidateItem

func (h candidateHeap) Len() int { return len(h) }
func (h candidateHeap) Less(i, j int) bool {
	if h[i].density != h[j].density {
		return h[i].density > h[j].density
	}
	if h[i].ppr != h[j].ppr {
		return h[i].ppr > h[j].ppr
	}
	return h[i].key.Less(h[j].key)
}
func (h candidateHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index, h[j].index = i, j
}
func (h *candidateHeap) Push(x any) {
	item := x.(*candidateItem)
	item.index = len(*h)
	*h = append(*h, item)
}
func (h *candidateHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}
