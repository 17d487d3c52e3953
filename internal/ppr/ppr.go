// Package ppr implements the PPR Engine (spec §4.7): personalized
// PageRank computing the restart-biased stationary distribution R,
// seeded uniformly on the core set E0. The power-iteration loop is the
// matrix-vector multiply spec §5 explicitly sanctions parallelizing
// ("An implementer may parallelize... the PPR matrix-vector multiply");
// grounded on the teacher's golang.org/x/sync/errgroup direct dependency,
// used here to fan the per-row contribution sums out across a fixed,
// range-partitioned shard set so the result stays reproducible
// regardless of goroutine scheduling (spec §8: "Running the pipeline
// twice on the same inputs yields byte-identical outputs").
package ppr

import (
	"context"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/diffcontext/internal/config"
	"github.com/standardbeagle/diffcontext/internal/graph"
	"github.com/standardbeagle/diffcontext/internal/types"
)

// Result is the PPR Engine's output: the relevance vector R plus the
// convergence diagnostics spec §6's run metadata requires.
type Result struct {
	R          []float64 // indexed by dense FragmentID
	Iterations int
	Converged  bool
}

// Compute runs power iteration to convergence or policy.PPRMaxIterations,
// whichever comes first (spec §4.7). core lists the dense ids of E0; the
// restart distribution p is uniform over them. An empty graph (zero
// nodes) or empty core returns an all-zero result immediately.
func Compute(ctx context.Context, g *graph.Graph, core []types.FragmentID, policy config.Policy) Result {
	n := g.Len()
	if n == 0 || len(core) == 0 {
		return Result{R: make([]float64, n)}
	}

	p := make([]float64, n)
	restartMass := 1.0 / float64(len(core))
	for _, id := range core {
		p[int(id)] = restartMass
	}

	alpha := policy.Alpha
	r := make([]float64, n)
	copy(r, p)

	shards := partitionShards(n, shardCount())

	for iter := 0; iter < policy.PPRMaxIterations; iter++ {
		select {
		case <-ctx.Done():
			return Result{R: r, Iterations: iter, Converged: false}
		default:
		}

		next, danglingMass := iterate(g, r, shards)

		l1 := 0.0
		for v := 0; v < n; v++ {
			restart := (1-alpha)*p[v] + alpha*danglingMass*p[v]
			val := restart + alpha*next[v]
			l1 += math.Abs(val - r[v])
			next[v] = val
		}
		r = next

		if l1 < policy.PPRConvergenceL1 {
			return Result{R: r, Iterations: iter + 1, Converged: true}
		}
	}

	return Result{R: r, Iterations: policy.PPRMaxIterations, Converged: false}
}

// iterate computes, for every v, sum_{u->v} r(u)*w(u,v)/deg_out(u) across
// the fixed shard partition, plus the total mass held by dangling nodes
// (deg_out(u) == 0), which teleports entirely back to p (spec §4.7
// "Dangling nodes... teleport to p").
func iterate(g *graph.Graph, r []float64, shards [][2]int) ([]float64, float64) {
	n := g.Len()
	partials := make([][]float64, len(shards))
	danglingPartials := make([]float64, len(shards))

	var eg errgroup.Group
	for s, bounds := range shards {
		s, bounds := s, bounds
		eg.Go(func() error {
			local := make([]float64, n)
			var dangling float64
			for u := bounds[0]; u < bounds[1]; u++ {
				deg := g.OutDegree[u]
				if deg <= 0 {
					dangling += r[u]
					continue
				}
				cols, weights := g.Neighbors(types.FragmentID(u))
				contribution := r[u] / deg
				for i, v := range cols {
					local[v] += contribution * weights[i]
				}
			}
			partials[s] = local
			danglingPartials[s] = dangling
			return nil
		})
	}
	_ = eg.Wait()

	out := make([]float64, n)
	var dangling float64
	for s := range shards {
		local := partials[s]
		for v := 0; v < n; v++ {
			out[v] += local[v]
		}
		dangling += danglingPartials[s]
	}
	return out, dangling
}

// partitionShards splits [0, n) into at most count contiguous, roughly
// equal ranges, fixed purely by index so the merge order below never
// depends on goroutine completion order.
func partitionShards(n, count int) [][2]int {
	if count > n {
		count = n
	}
	if count < 1 {
		count = 1
	}
	base := n / count
	rem := n % count
	shards := make([][2]int, 0, count)
	start := 0
	for i := 0; i < count; i++ {
		size := base
		if i < rem {
			size++
		}
		end := start + size
		if size > 0 {
			shards = append(shards, [2]int{start, end})
		}
		start = end
	}
	return shards
}

func shardCount() int {
	n := runtime.NumCPU()
	if n < 1 {
		return 1
	}
	return n
}

// Sum returns the total mass of R, used by callers asserting the spec §8
// probability-distribution invariant (sum R = 1 +/- 1e-6).
func Sum(r []float64) float64 {
	var s float64
	for _, v := range r {
		s += v
	}
	return s
}
