// Package diffmap implements the Diff Mapper (spec §4.2): given the
// per-file fragment sequences and the diff's hunks, it produces the core
// set E0 of fragments directly touched by the diff. Grounded on the
// teacher's internal/indexing pipeline shape (a single pass mapping raw
// input ranges onto already-fragmented structures) generalized to this
// engine's fragment/hunk domain.
package diffmap

import (
	"fmt"

	"github.com/standardbeagle/diffcontext/internal/ctxerrors"
	"github.com/standardbeagle/diffcontext/internal/debug"
	"github.com/standardbeagle/diffcontext/internal/types"
)

func errNoFragmentsForPath(path string) error {
	return fmt.Errorf("no fragments supplied for %s", path)
}

func errBadSide(side types.Side) error {
	return fmt.Errorf("hunk has unrecognized side %q", side)
}

// FileFragments holds the pre-image and post-image fragment sequences for
// one path, as produced by the Fragmenter for each text blob the caller
// supplied (spec §6: "for each changed file, pre_text, post_text").
type FileFragments struct {
	Pre  []types.Fragment
	Post []types.Fragment
}

// Result is the Diff Mapper's output: the core set E0, plus every
// fragment it touched (keyed for O(1) lookup by later stages), plus any
// recoverable InputErrors encountered along the way (spec §7 InputError).
type Result struct {
	Core     []types.FragmentKey
	Fragments map[types.FragmentKey]types.Fragment
	Errors   []*ctxerrors.InputError
}

// BuildCoreSet computes E0 (spec §4.2): a fragment enters E0 iff any line
// in its [start_line, end_line] is touched by a hunk on the matching
// side. Added hunks use post-image fragments; removed hunks use
// pre-image fragments. Nested fragments (an enclosing container plus a
// contained method both touched) are both included; this function
// performs no deduplication beyond identity (a fragment touched by
// multiple hunks is still only one set member).
func BuildCoreSet(files map[string]FileFragments, hunks []types.Hunk) Result {
	res := Result{Fragments: make(map[types.FragmentKey]types.Fragment)}
	seen := make(map[types.FragmentKey]struct{})

	for _, h := range hunks {
		ff, ok := files[h.Path]
		if !ok {
			res.Errors = append(res.Errors, ctxerrors.NewInputError("diffmap", h.Path,
				errNoFragmentsForPath(h.Path)))
			debug.Degrade("diffmap", ctxerrors.NewInputError("diffmap", h.Path, errNoFragmentsForPath(h.Path)))
			continue
		}

		var candidates []types.Fragment
		switch h.Side {
		case types.SidePost:
			candidates = ff.Post
		case types.SidePre:
			candidates = ff.Pre
		default:
			res.Errors = append(res.Errors, ctxerrors.NewInputError("diffmap", h.Path, errBadSide(h.Side)))
			continue
		}

		for _, f := range candidates {
			if !h.Overlaps(f.StartLine, f.EndLine) {
				continue
			}
			key := f.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			res.Fragments[key] = f
			res.Core = append(res.Core, key)

			// Per spec §4.2: nested containers are included alongside the
			// contained fragment they enclose, not deduplicated away.
			if f.Container != nil {
				if cf, ok := lookupContainer(candidates, *f.Container); ok {
					ckey := cf.Key()
					if _, dup := seen[ckey]; !dup {
						seen[ckey] = struct{}{}
						res.Fragments[ckey] = cf
						res.Core = append(res.Core, ckey)
					}
				}
			}
		}
	}

	sortKeys(res.Core)
	return res
}

func lookupContainer(candidates []types.Fragment, key types.FragmentKey) (types.Fragment, bool) {
	for _, f := range candidates {
		if f.Key() == key {
			return f, true
		}
	}
	return types.Fragment{}, false
}

func sortKeys(keys []types.FragmentKey) {
	for i := 1; i < len(keys); i++ {
		j := i
		for j > 0 && keys[j].Less(keys[j-1]) {
			keys[j], keys[j-1] = keys[j-1], keys[j]
			j--
		}
	}
}
