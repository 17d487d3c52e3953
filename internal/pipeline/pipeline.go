// Package pipeline orchestrates the strictly staged data flow spec §2
// describes: files+diff -> fragments -> (E0, concepts) -> candidate
// universe -> edges -> graph -> PPR -> selection. Grounded in shape on
// the teacher's internal/indexing/pipeline.go phase-runner (an ordered
// stage list, a deadline checked at the top of each stage, partial-result
// return on timeout), re-expressed over this engine's single-run,
// in-memory fragment pipeline instead of the teacher's channel-based,
// multi-worker file-scanning pipeline (spec §5: single-threaded
// cooperative staging is sufficient; only edge building and PPR's
// matrix-vector multiply parallelize internally).
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/diffcontext/internal/concept"
	"github.com/standardbeagle/diffcontext/internal/config"
	"github.com/standardbeagle/diffcontext/internal/ctxerrors"
	"github.com/standardbeagle/diffcontext/internal/debug"
	"github.com/standardbeagle/diffcontext/internal/diffmap"
	"github.com/standardbeagle/diffcontext/internal/edges"
	"github.com/standardbeagle/diffcontext/internal/fragment"
	"github.com/standardbeagle/diffcontext/internal/graph"
	"github.com/standardbeagle/diffcontext/internal/ppr"
	"github.com/standardbeagle/diffcontext/internal/selector"
	"github.com/standardbeagle/diffcontext/internal/types"
	"github.com/standardbeagle/diffcontext/internal/universe"
	"github.com/standardbeagle/diffcontext/internal/utility"
)

// FilePair is one changed file's pre/post image text (spec §6: "for each
// changed file, pre_text: string | null, post_text: string | null").
// A nil slice represents the null case (file added or deleted).
type FilePair struct {
	PreText  []byte
	PostText []byte
}

// Input bundles every external input spec §6 enumerates. CandidateFiles
// is the caller's read of additional on-disk files the Universe Builder
// may want to consider (spec §6: "Optional access to on-disk repository
// for universe expansion, read-only"); this engine never touches a
// filesystem itself (spec §1 Non-goal: "File I/O primitives"), so the
// caller supplies already-read bytes keyed by path.
type Input struct {
	Files               map[string]FilePair
	Hunks               []types.Hunk
	Commits             []edges.Commit
	ManifestReferences  map[string][]string
	CandidateFiles      map[string][]byte
}

// Output is the pipeline's result: the selected fragments in selection
// order, plus the run metadata spec §6 requires.
type Output struct {
	Selected       []types.Fragment
	UniverseSize   int
	EdgeCount      int
	PPRIterations  int
	PPRConverged   bool
	StopReason     selector.StopReason
	Truncated      bool
	EmptyDiff      bool
	Warnings       []error
}

// Run executes the full pipeline. ctx carries the optional global
// deadline (spec §5): each stage checks it before starting, and the
// PPR/Selector stages also check it mid-loop so a timeout after PPR
// begins still returns a partial, usable result (spec §5: "on timeout
// after PPR but before completion, the Selector returns the partial S
// it has assembled. Before PPR, timeout returns E0 only").
func Run(ctx context.Context, in Input, policy config.Policy) Output {
	if len(in.Hunks) == 0 {
		debug.Degrade("pipeline", ctxerrors.NewEmptyDiffError())
		return Output{EmptyDiff: true}
	}

	registry := fragment.DefaultRegistry()
	var warnings []error

	if deadlineExpired(ctx) {
		return Output{Warnings: append(warnings, ctxerrors.NewTimeoutError("fragment"))}
	}

	debug.Stage("fragment")
	start := timeNow()
	fileFrags := make(map[string]diffmap.FileFragments, len(in.Files))
	allFragments := make(map[string][]types.Fragment, len(in.Files)+len(in.CandidateFiles))
	changedFiles := make([]string, 0, len(in.Files))
	for path, pair := range in.Files {
		changedFiles = append(changedFiles, path)
		ff := diffmap.FileFragments{}
		if pair.PreText != nil {
			ff.Pre = registry.Fragment(path, pair.PreText)
		}
		if pair.PostText != nil {
			ff.Post = registry.Fragment(path, pair.PostText)
		}
		fileFrags[path] = ff
		switch {
		case pair.PostText != nil:
			allFragments[path] = ff.Post
		case pair.PreText != nil:
			allFragments[path] = ff.Pre
		}
	}
	for path, content := range in.CandidateFiles {
		if _, ok := allFragments[path]; ok {
			continue
		}
		allFragments[path] = registry.Fragment(path, content)
	}
	sort.Strings(changedFiles)
	debug.StageDone("fragment", timeSince(start))

	if deadlineExpired(ctx) {
		return Output{Warnings: append(warnings, ctxerrors.NewTimeoutError("diffmap"))}
	}

	debug.Stage("diffmap")
	start = timeNow()
	coreResult := diffmap.BuildCoreSet(fileFrags, in.Hunks)
	for _, e := range coreResult.Errors {
		warnings = append(warnings, e)
	}
	debug.StageDone("diffmap", timeSince(start))

	if deadlineExpired(ctx) {
		return partialCoreOutput(coreResult, warnings, ctxerrors.NewTimeoutError("concept"))
	}

	debug.Stage("concept")
	start = timeNow()
	diffTokens := extractDiffTokens(in.Files, in.Hunks)
	fileConceptIndex := buildFileConceptIndex(allFragments)
	debug.StageDone("concept", timeSince(start))

	if deadlineExpired(ctx) {
		return partialCoreOutput(coreResult, warnings, ctxerrors.NewTimeoutError("universe"))
	}

	debug.Stage("universe")
	start = timeNow()
	uniRes := buildUniverse(allFragments, changedFiles, coreResult, diffTokens, fileConceptIndex, in.ManifestReferences, policy)
	debug.StageDone("universe", timeSince(start))

	if debug.IsEnabled() {
		assertCoreSubsetOfUniverse(coreResult.Core, uniRes.Fragments)
	}

	concepts := concept.BuildConcepts(diffTokens, uniRes.Fragments)

	if deadlineExpired(ctx) {
		return partialCoreOutput(coreResult, warnings, ctxerrors.NewTimeoutError("edges"))
	}

	debug.Stage("edges")
	start = timeNow()
	builderEdges := buildEdges(uniRes.Fragments, diffTokens, in.ManifestReferences, in.Commits, policy)
	debug.StageDone("edges", timeSince(start))

	if deadlineExpired(ctx) {
		return partialCoreOutput(coreResult, warnings, ctxerrors.NewTimeoutError("graph"))
	}

	debug.Stage("graph")
	start = timeNow()
	g := graph.Build(uniRes.Fragments, builderEdges, coreResult.Core, policy)
	debug.StageDone("graph", timeSince(start))

	// Before PPR, a timeout returns E0 only (spec §5).
	if deadlineExpired(ctx) {
		return partialCoreOutput(coreResult, warnings, ctxerrors.NewTimeoutError("ppr"))
	}

	debug.Stage("ppr")
	start = timeNow()
	coreIDs := make([]types.FragmentID, 0, len(coreResult.Core))
	for _, k := range coreResult.Core {
		if id, ok := g.IDs.Lookup(k); ok {
			coreIDs = append(coreIDs, id)
		}
	}
	pprResult := ppr.Compute(ctx, g, coreIDs, policy)
	debug.StageDone("ppr", timeSince(start))

	rMap := make(map[types.FragmentKey]float64, g.Len())
	for id := 0; id < g.Len(); id++ {
		rMap[g.IDs.KeyFor(types.FragmentID(id))] = pprResult.R[id]
	}

	if policy.Full {
		return fullOutput(uniRes, g, pprResult, warnings)
	}

	debug.Stage("selector")
	start = timeNow()
	model := utility.New(concepts, rMap, uniRes.Fragments)
	selRes := selector.Select(ctx, uniRes.Fragments, coreResult.Core, model, rMap, policy)
	debug.StageDone("selector", timeSince(start))

	if selRes.Warning != nil {
		warnings = append(warnings, selRes.Warning)
	}

	if debug.IsEnabled() && selRes.StopReason != selector.StopCoreOnly {
		assertCoreSubsetOfSelection(coreResult.Core, selRes.Selected)
	}

	selected := make([]types.Fragment, 0, len(selRes.Selected))
	for _, k := range selRes.Selected {
		selected = append(selected, uniRes.Fragments[k])
	}

	return Output{
		Selected:      selected,
		UniverseSize:  len(uniRes.Fragments),
		EdgeCount:     g.EdgeCount(),
		PPRIterations: pprResult.Iterations,
		PPRConverged:  pprResult.Converged,
		StopReason:    selRes.StopReason,
		Truncated:     uniRes.Truncated,
		Warnings:      warnings,
	}
}

// partialCoreOutput implements spec §5's "before PPR, timeout returns E0
// only" for the stage checks from concept through ppr: return just the
// core set, untouched by any later stage. The fragment and diffmap checks
// run before the core set exists and return only the timeout warning.
func partialCoreOutput(core diffmap.Result, warnings []error, timeout error) Output {
	warnings = append(warnings, timeout)
	selected := make([]types.Fragment, 0, len(core.Core))
	for _, k := range core.Core {
		selected = append(selected, core.Fragments[k])
	}
	return Output{Selected: selected, StopReason: selector.StopTimeout, Warnings: warnings}
}

func fullOutput(uniRes universe.Result, g *graph.Graph, pprResult ppr.Result, warnings []error) Output {
	keys := make([]types.FragmentKey, 0, len(uniRes.Fragments))
	for k := range uniRes.Fragments {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	selected := make([]types.Fragment, 0, len(keys))
	for _, k := range keys {
		selected = append(selected, uniRes.Fragments[k])
	}
	return Output{
		Selected:      selected,
		UniverseSize:  len(uniRes.Fragments),
		EdgeCount:     g.EdgeCount(),
		PPRIterations: pprResult.Iterations,
		PPRConverged:  pprResult.Converged,
		StopReason:    "full",
		Truncated:     uniRes.Truncated,
		Warnings:      warnings,
	}
}

// extractDiffTokens tokenizes the changed-line text named by every hunk
// (spec §4.3), slicing it out of the relevant pre/post image.
func extractDiffTokens(files map[string]FilePair, hunks []types.Hunk) map[string]struct{} {
	var changedLines []string
	for _, h := range hunks {
		pair, ok := files[h.Path]
		if !ok {
			continue
		}
		var text []byte
		switch h.Side {
		case types.SidePost:
			text = pair.PostText
		case types.SidePre:
			text = pair.PreText
		}
		if text == nil {
			continue
		}
		lines := splitLines(text)
		s, e := h.StartLine, h.EndLine
		if s < 1 {
			s = 1
		}
		if e > len(lines) {
			e = len(lines)
		}
		if s > e {
			continue
		}
		changedLines = append(changedLines, lines[s-1:e]...)
	}
	return concept.ExtractFromHunks(changedLines)
}

func splitLines(text []byte) []string {
	s := strings.ReplaceAll(string(text), "\r\n", "\n")
	return strings.Split(s, "\n")
}

// buildFileConceptIndex is the "cheap global index" spec §4.4 source 2
// calls for: token -> set of file paths containing it, built once from
// the fragments the caller already has (changed files plus whatever
// CandidateFiles it chose to supply), never by scanning the repository
// itself.
func buildFileConceptIndex(allFragments map[string][]types.Fragment) map[string]map[string]struct{} {
	index := make(map[string]map[string]struct{})
	for path, frags := range allFragments {
		for _, f := range frags {
			for tok := range f.Identifiers {
				m := index[tok]
				if m == nil {
					m = make(map[string]struct{})
					index[tok] = m
				}
				m[path] = struct{}{}
			}
		}
	}
	return index
}

func timeNow() time.Time { return time.Now() }
func timeSince(t time.Time) time.Duration { return time.Since(t) }

func deadlineExpired(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// assertCoreSubsetOfUniverse checks spec §3's "E0 subseteq V" invariant at
// the Universe Builder's own stage boundary (spec §7 InternalInvariantViolation:
// "e.g. E0 not subseteq V after universe capping"). Gated behind
// debug.IsEnabled() so it costs nothing outside debug builds.
func assertCoreSubsetOfUniverse(core []types.FragmentKey, universe map[types.FragmentKey]types.Fragment) {
	for _, k := range core {
		_, ok := universe[k]
		ctxerrors.AssertInvariant(ok, "E0⊆V", fmt.Sprintf("core fragment %s:%d-%d missing from universe after capping", k.Path, k.StartLine, k.EndLine))
	}
}

// assertCoreSubsetOfSelection checks spec §3's "E0 subseteq S" invariant at
// the Selector's stage boundary.
func assertCoreSubsetOfSelection(core []types.FragmentKey, selected []types.FragmentKey) {
	present := make(map[types.FragmentKey]struct{}, len(selected))
	for _, k := range selected {
		present[k] = struct{}{}
	}
	for _, k := range core {
		_, ok := present[k]
		ctxerrors.AssertInvariant(ok, "E0⊆S", fmt.Sprintf("core fragment %s:%d-%d missing from selection", k.Path, k.StartLine, k.EndLine))
	}
}

// buildUniverse assembles the Universe Builder's Input (spec §4.4) from
// the pipeline's already-computed stage outputs and delegates to
// internal/universe.Build.
func buildUniverse(
	allFragments map[string][]types.Fragment,
	changedFiles []string,
	core diffmap.Result,
	diffTokens map[string]struct{},
	fileConceptIndex map[string]map[string]struct{},
	manifestReferences map[string][]string,
	policy config.Policy,
) universe.Result {
	return universe.Build(universe.Input{
		AllFragments:       allFragments,
		ChangedFiles:       changedFiles,
		Core:               core.Core,
		CoreFragments:      core.Fragments,
		DiffTokens:         diffTokens,
		FileConceptIndex:   fileConceptIndex,
		ManifestReferences: manifestReferences,
	}, policy)
}

// buildEdges runs every registered builder (spec §4.5) over the
// finalized universe and concatenates their output for the Graph
// Assembler to aggregate. Builders are independent producers reading
// only the shared, read-only universe and Context, so spec §5's
// "embarrassingly parallel" edge-builder fan-out is safe: each builder
// writes to its own buffer, and buildEdges only concatenates buffers
// after every builder has returned (Graph Assembler sees a consistent
// snapshot before PPR starts, per spec §5).
func buildEdges(
	universeFrags map[types.FragmentKey]types.Fragment,
	diffTokens map[string]struct{},
	manifestReferences map[string][]string,
	commits []edges.Commit,
	policy config.Policy,
) []types.Edge {
	builders := edges.DefaultBuilders()
	buffers := make([][]types.Edge, len(builders))
	ctx := edges.Context{
		DiffTokens:         diffTokens,
		ManifestReferences: manifestReferences,
		Commits:            commits,
	}

	var eg errgroup.Group
	for i, b := range builders {
		i, b := i, b
		eg.Go(func() error {
			buffers[i] = b.Build(universeFrags, ctx, policy)
			return nil
		})
	}
	_ = eg.Wait()

	var out []types.Edge
	for _, buf := range buffers {
		out = append(out, buf...)
	}
	return out
}
