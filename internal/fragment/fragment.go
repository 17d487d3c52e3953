// Package fragment implements the Fragmenter (spec §4.1): it splits a
// file into an ordered, tiling sequence of semantic fragments with stable
// identity. The strategy-registry shape follows spec §9's recommendation
// ("a list of strategies implementing can_handle/fragment... first-match
// order"), grounded on the teacher's internal/parser package (tree-sitter
// setup) generalized to a pluggable registry instead of the teacher's
// single hard-wired TreeSitterParser.
package fragment

import (
	"path/filepath"
	"strings"

	"github.com/standardbeagle/diffcontext/internal/debug"
	"github.com/standardbeagle/diffcontext/internal/tokenize"
	"github.com/standardbeagle/diffcontext/internal/types"
)

// MinFragmentLines and MaxFragmentLines bound fragment size (spec §3:
// "Minimum fragment size is 3 lines; maximum is ~200 lines").
const (
	MinFragmentLines = 3
	MaxFragmentLines = 200
)

// Strategy is a single fragmenting approach. Registry tries strategies in
// order; a Strategy that can't make sense of the input returns (nil, nil)
// ("NotParseable", spec §9) rather than an error so the Registry falls
// through without logging noise, while a genuine parse failure returns an
// error so the Registry can log the downgrade (spec §4.1 Failure).
type Strategy interface {
	Name() string
	CanHandle(path string) bool
	Fragment(path string, lines []string) ([]types.Fragment, error)
}

// Registry runs strategies in first-applicable-wins order (spec §4.1).
type Registry struct {
	strategies []Strategy
}

// NewRegistry builds a Registry from an explicit strategy list (spec §9:
// "Register them in an explicit list at pipeline construction; no dynamic
// loading is required").
func NewRegistry(strategies ...Strategy) *Registry {
	return &Registry{strategies: strategies}
}

// DefaultRegistry returns the strategy pipeline spec §4.1 describes:
// AST parsing, then Markdown, then structured config, then the fallback
// text partitioner (which always succeeds).
func DefaultRegistry() *Registry {
	return NewRegistry(
		NewTreeSitterStrategy(),
		NewMarkdownStrategy(),
		NewStructuredConfigStrategy(),
		NewTextStrategy(),
	)
}

// Fragment splits text into the ordered, tiling fragment sequence for
// path, trying each registered strategy in order and falling back on
// parse failure or a NotParseable result (spec §4.1).
func (r *Registry) Fragment(path string, text []byte) []types.Fragment {
	lines := splitLines(text)
	if len(lines) == 0 {
		return nil
	}

	for _, s := range r.strategies {
		if !s.CanHandle(path) {
			continue
		}
		frags, err := s.Fragment(path, lines)
		if err != nil {
			debug.Degrade("fragment:"+s.Name(), err)
			continue
		}
		if frags == nil {
			continue
		}
		return normalizeTiling(path, lines, frags)
	}

	// The fallback text strategy always handles every path; reaching here
	// means DefaultRegistry wasn't used. Tile with a single generic
	// strategy rather than returning nothing, preserving spec §3's "cover
	// every line" invariant regardless of how the Registry was built.
	frags, _ := (&TextStrategy{}).Fragment(path, lines)
	return normalizeTiling(path, lines, frags)
}

func splitLines(text []byte) []string {
	if len(text) == 0 {
		return nil
	}
	s := string(text)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	// A trailing newline produces one spurious empty trailing element;
	// drop it so line numbers line up 1-based with file content.
	if len(lines) > 0 && lines[len(lines)-1] == "" && strings.HasSuffix(s, "\n") {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// languageOf derives the per-file-extension language tag used to key the
// edge builders' weight tables (spec §4.5, SPEC_FULL §3.1).
func languageOf(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// buildFragment slices lines[start-1:end] (1-based inclusive) into a
// fully-populated Fragment: content, identifier set, and an approximate
// token count. No external tokenizer library is used for the count
// (spec §1 Non-goals explicitly excludes "token counting UI"); a
// chars-per-token-4 heuristic is the same order-of-magnitude approximation
// widely used for budgeting without committing to one model's exact
// tokenizer.
func buildFragment(path string, start, end int, kind types.Kind, symbol string, lines []string) types.Fragment {
	if start < 1 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	content := strings.Join(lines[start-1:end], "\n")
	return types.Fragment{
		Path:        path,
		StartLine:   start,
		EndLine:     end,
		Kind:        kind,
		Symbol:      symbol,
		Content:     content,
		Identifiers: tokenize.Identifiers(content),
		TokenCount:  approxTokenCount(content),
		Language:    languageOf(path),
	}
}

func approxTokenCount(content string) int {
	if len(content) == 0 {
		return 0
	}
	n := (len(content) + 3) / 4
	if n < 1 {
		return 1
	}
	return n
}

// normalizeTiling enforces the spec §3 tiling invariant on a strategy's
// output: fragments are sorted, any gap is filled with a generic
// fragment, and oversized fragments lacking natural sub-boundaries are
// split into <=MaxFragmentLines chunks. Fragments that are already a
// designated "enclosing container" (Fragment.Container != nil on some
// other fragment referencing this range) are left in place even though
// they overlap a leaf fragment: that overlap is the deliberate, spec
// §4.2-sanctioned nesting ("if two fragments are nested... include both").
func normalizeTiling(path string, lines []string, frags []types.Fragment) []types.Fragment {
	leaves := make([]types.Fragment, 0, len(frags))
	for _, f := range frags {
		if f.ContainerOnly {
			continue
		}
		leaves = append(leaves, f)
	}
	sortFragments(leaves)

	var out []types.Fragment
	cursor := 1
	for _, f := range leaves {
		if f.StartLine > cursor {
			out = append(out, genericGapFragments(path, cursor, f.StartLine-1, lines)...)
		}
		out = append(out, splitOversized(f, lines)...)
		if f.EndLine+1 > cursor {
			cursor = f.EndLine + 1
		}
	}
	if cursor <= len(lines) {
		out = append(out, genericGapFragments(path, cursor, len(lines), lines)...)
	}

	// Re-attach container-only fragments (they intentionally overlap
	// leaves, per spec §4.2) after tiling the leaves.
	for _, f := range frags {
		if f.ContainerOnly {
			out = append(out, f)
		}
	}

	sortFragments(out)
	return out
}

// sortFragments stable-sorts by start line. Per-file fragment counts are
// small (tens to low hundreds), so insertion sort keeps this
// dependency-free and trivially stable without importing sort for a
// one-off comparator.
func sortFragments(fs []types.Fragment) {
	for i := 1; i < len(fs); i++ {
		j := i
		for j > 0 && fs[j].StartLine < fs[j-1].StartLine {
			fs[j], fs[j-1] = fs[j-1], fs[j]
			j--
		}
	}
}

// genericGapFragments fills [start, end] with one or more generic
// fragments of at most MaxFragmentLines lines (spec §4.1 strategy 4). A
// short final chunk is merged into the previous chunk; a range shorter
// than MinFragmentLines yields one short fragment.
func genericGapFragments(path string, start, end int, lines []string) []types.Fragment {
	if start > end {
		return nil
	}
	var out []types.Fragment
	for s := start; s <= end; s += MaxFragmentLines {
		e := s + MaxFragmentLines - 1
		if e > end {
			e = end
		}
		out = append(out, buildFragment(path, s, e, types.KindGeneric, "", lines))
	}
	return coalesceShortTail(out, path, lines, end)
}

// coalesceShortTail merges a final fragment shorter than MinFragmentLines
// into its predecessor, unless it is the only fragment in frags (spec
// §4.1 strategy 4: "each fragment >= 3 lines unless it is the file's
// tail").
func coalesceShortTail(frags []types.Fragment, path string, lines []string, fileEnd int) []types.Fragment {
	if len(frags) < 2 {
		return frags
	}
	last := frags[len(frags)-1]
	if last.LineCount() >= MinFragmentLines {
		return frags
	}
	if last.EndLine != fileEnd {
		return frags
	}
	prev := frags[len(frags)-2]
	merged := buildFragment(path, prev.StartLine, last.EndLine, prev.Kind, prev.Symbol, lines)
	return append(frags[:len(frags)-2], merged)
}

// splitOversized divides a fragment larger than MaxFragmentLines into
// sub-chunks, since no natural sub-boundary is available once a Strategy
// has already produced its finest-grained unit (spec §3: "larger semantic
// units are split at natural sub-boundaries if the parser provides them").
func splitOversized(f types.Fragment, lines []string) []types.Fragment {
	if f.LineCount() <= MaxFragmentLines {
		return []types.Fragment{f}
	}
	var out []types.Fragment
	for s := f.StartLine; s <= f.EndLine; s += MaxFragmentLines {
		e := s + MaxFragmentLines - 1
		if e > f.EndLine {
			e = f.EndLine
		}
		out = append(out, buildFragment(f.Path, s, e, f.Kind, f.Symbol, lines))
	}
	return out
}
