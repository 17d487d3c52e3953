// Package universe implements the Universe Builder (spec §4.4): it
// expands V beyond the core set's own files to include plausibly
// relevant fragments, without scanning the whole repository, then caps
// |V| by a documented priority order. Grounded in shape on the teacher's
// internal/indexing candidate-discovery passes, re-expressed over this
// engine's fragment/concept domain instead of a persistent symbol index.
package universe

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/standardbeagle/diffcontext/internal/config"
	"github.com/standardbeagle/diffcontext/internal/ctxerrors"
	"github.com/standardbeagle/diffcontext/internal/debug"
	"github.com/standardbeagle/diffcontext/internal/types"
)

// Input bundles everything the Universe Builder needs. AllFragments is
// supplied by the caller's fragment cache (every file the engine is
// permitted to read, already run through the Fragmenter); the builder
// never re-fragments anything itself.
type Input struct {
	AllFragments map[string][]types.Fragment

	ChangedFiles []string
	Core         []types.FragmentKey
	CoreFragments map[types.FragmentKey]types.Fragment

	DiffTokens map[string]struct{}

	// FileConceptIndex is the cheap global index spec §4.4 source 2 calls
	// for: token -> set of files containing it, used to test rarity
	// without scanning every fragment up front.
	FileConceptIndex map[string]map[string]struct{}

	// ManifestReferences maps a manifest/config file's path to the source
	// file paths it references (spec §4.4 source 4; supplied by the
	// caller, the same map the configuration edge family reads).
	ManifestReferences map[string][]string
}

type tier int

const (
	tierCore tier = iota
	tierChangedFile
	tierRareConcept
	tierStructural
	tierManifest
)

type candidate struct {
	key     types.FragmentKey
	frag    types.Fragment
	tier    tier
	overlap int
}

// Result is the finalized, capped universe.
type Result struct {
	Fragments map[types.FragmentKey]types.Fragment
	Keys      []types.FragmentKey // sorted (path, start_line), per spec §5
	Truncated bool
}

// Build runs the four candidate sources in spec §4.4's order, then caps
// the result at policy.MaxUniverse using the documented priority: E0
// first, then highest diff-concept overlap, then structural closeness
// (candidate source order: changed file, rare concept, structural
// relative, manifest).
func Build(in Input, policy config.Policy) Result {
	byKey := make(map[types.FragmentKey]*candidate)

	add := func(f types.Fragment, t tier) {
		key := f.Key()
		existing, ok := byKey[key]
		if ok {
			if t < existing.tier {
				existing.tier = t
			}
			return
		}
		byKey[key] = &candidate{key: key, frag: f, tier: t, overlap: conceptOverlap(f, in.DiffTokens)}
	}

	for key, f := range in.CoreFragments {
		_ = key
		add(f, tierCore)
	}

	changedSet := make(map[string]struct{}, len(in.ChangedFiles))
	for _, p := range in.ChangedFiles {
		changedSet[p] = struct{}{}
		for _, f := range in.AllFragments[p] {
			add(f, tierChangedFile)
		}
	}

	rare := rareConceptFiles(in.DiffTokens, in.FileConceptIndex, policy.RareConceptFileThreshold)
	for _, path := range rare {
		for _, f := range in.AllFragments[path] {
			if conceptOverlap(f, in.DiffTokens) > 0 {
				add(f, tierRareConcept)
			}
		}
	}

	for _, path := range structurallyRelated(in.ChangedFiles, in.AllFragments) {
		for _, f := range in.AllFragments[path] {
			add(f, tierStructural)
		}
	}

	for manifestPath, refs := range in.ManifestReferences {
		for _, ref := range refs {
			if _, ok := changedSet[ref]; !ok {
				continue
			}
			for _, f := range in.AllFragments[manifestPath] {
				add(f, tierManifest)
			}
			break
		}
	}

	ordered := make([]*candidate, 0, len(byKey))
	for _, c := range byKey {
		ordered = append(ordered, c)
	}
	sort.Slice(ordered, func(i, j int) bool {
		ci, cj := ordered[i].tier == tierCore, ordered[j].tier == tierCore
		if ci != cj {
			return ci
		}
		if ordered[i].overlap != ordered[j].overlap {
			return ordered[i].overlap > ordered[j].overlap
		}
		if ordered[i].tier != ordered[j].tier {
			return ordered[i].tier < ordered[j].tier
		}
		return ordered[i].key.Less(ordered[j].key)
	})

	truncated := false
	if policy.MaxUniverse > 0 && len(ordered) > policy.MaxUniverse {
		ordered = ordered[:policy.MaxUniverse]
		truncated = true
	}

	res := Result{Fragments: make(map[types.FragmentKey]types.Fragment, len(ordered)), Truncated: truncated}
	for _, c := range ordered {
		res.Fragments[c.key] = c.frag
	}
	res.Keys = make([]types.FragmentKey, 0, len(res.Fragments))
	for k := range res.Fragments {
		res.Keys = append(res.Keys, k)
	}
	sort.Slice(res.Keys, func(i, j int) bool { return res.Keys[i].Less(res.Keys[j]) })

	if debug.IsEnabled() {
		for _, k := range in.Core {
			_, ok := res.Fragments[k]
			ctxerrors.AssertInvariant(ok, "E0⊆V", fmt.Sprintf("core fragment %s:%d-%d dropped by universe capping (max_universe=%d)", k.Path, k.StartLine, k.EndLine, policy.MaxUniverse))
		}
	}

	return res
}

func conceptOverlap(f types.Fragment, diffTokens map[string]struct{}) int {
	n := 0
	for tok := range f.Identifiers {
		if _, ok := diffTokens[tok]; ok {
			n++
		}
	}
	return n
}

// rareConceptFiles returns, in deterministic order, every file named by
// the global index for a diff token occurring in at most maxFiles files
// (spec §4.4 source 2).
func rareConceptFiles(diffTokens map[string]struct{}, fileIndex map[string]map[string]struct{}, maxFiles int) []string {
	set := make(map[string]struct{})
	for tok := range diffTokens {
		files, ok := fileIndex[tok]
		if !ok || len(files) > maxFiles {
			continue
		}
		for f := range files {
			set[f] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for f := range set {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// structurallyRelated returns, for each changed file, its directory
// siblings and its naming-convention test<->code counterpart (spec §4.4
// source 3). It consults AllFragments only to know which candidate paths
// actually exist.
func structurallyRelated(changedFiles []string, allFragments map[string][]types.Fragment) []string {
	existing := make(map[string]struct{}, len(allFragments))
	byDir := make(map[string][]string)
	for p := range allFragments {
		existing[p] = struct{}{}
		dir := filepath.Dir(p)
		byDir[dir] = append(byDir[dir], p)
	}

	set := make(map[string]struct{})
	for _, p := range changedFiles {
		dir := filepath.Dir(p)
		for _, sibling := range byDir[dir] {
			if sibling != p {
				set[sibling] = struct{}{}
			}
		}
		if counterpart, ok := TestCodeCounterpart(p); ok {
			if _, ok := existing[counterpart]; ok {
				set[counterpart] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// TestCodeCounterpart applies the naming conventions spec §4.4 names
// explicitly: test_X.py <-> X.py, X_test.go <-> X.go, X.test.ts <-> X.ts.
func TestCodeCounterpart(path string) (string, bool) {
	dir, base := filepath.Dir(path), filepath.Base(path)

	if strings.HasPrefix(base, "test_") {
		return filepath.Join(dir, strings.TrimPrefix(base, "test_")), true
	}
	if rest, ok := stripSuffixBeforeExt(base, "_test"); ok {
		return filepath.Join(dir, rest), true
	}
	if rest, ok := stripSuffixBeforeExt(base, ".test"); ok {
		return filepath.Join(dir, rest), true
	}

	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if !strings.HasPrefix(stem, "test_") && !strings.HasSuffix(stem, "_test") && !strings.HasSuffix(stem, ".test") {
		// Forward direction: X.py -> test_X.py, X.go -> X_test.go.
		switch ext {
		case ".py":
			return filepath.Join(dir, "test_"+base), true
		case ".go":
			return filepath.Join(dir, stem+"_test"+ext), true
		case ".ts", ".tsx", ".js", ".jsx":
			return filepath.Join(dir, stem+".test"+ext), true
		}
	}
	return "", false
}

// stripSuffixBeforeExt removes suffix immediately before the file
// extension, e.g. stripSuffixBeforeExt("foo_test.go", "_test") ->
// ("foo.go", true).
func stripSuffixBeforeExt(base, suffix string) (string, bool) {
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if strings.HasSuffix(stem, suffix) {
		return strings.TrimSuffix(stem, suffix) + ext, true
	}
	return "", false
}
