// Package types defines the data model of spec §3: Fragment, Hunk, Diff
// concept, Edge, and the dense FragmentID assignment spec §9 calls for in
// its CSR graph design. Grounded on the teacher's internal/types/types.go
// (xxhash-backed identity) and internal/types/graph_types.go (node/edge
// shape), re-expressed for this engine's fragment-centric domain instead
// of the teacher's persisted symbol-graph domain.
package types

import (
	"encoding/binary"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Kind classifies a Fragment (spec §3).
type Kind string

const (
	KindFunction    Kind = "function"
	KindClass       Kind = "class"
	KindMethod      Kind = "method"
	KindConfigBlock Kind = "config-block"
	KindSection     Kind = "section"
	KindParagraph   Kind = "paragraph"
	KindGeneric     Kind = "generic"
)

// FragmentKey is a Fragment's stable identity within a single pipeline run
// (spec §3: "Fragment identity is (file_path, start_line, end_line)").
type FragmentKey struct {
	Path      string
	StartLine int
	EndLine   int
}

// Fingerprint returns a fast, non-cryptographic hash of the key, used by
// IDAssigner to bucket keys before falling back to full struct
// comparison (grounded on the teacher's xxhash-backed content identity
// in internal/core/file_content_store.go).
func (k FragmentKey) Fingerprint() uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(k.Path)
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[0:4], uint32(k.StartLine))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(k.EndLine))
	_, _ = h.Write(buf[:])
	return h.Sum64()
}

// Less orders keys by (path, start_line) for the deterministic iteration
// spec §5 requires ("iteration order over fragments follows the sorted
// order (path, start_line)").
func (k FragmentKey) Less(other FragmentKey) bool {
	if k.Path != other.Path {
		return k.Path < other.Path
	}
	if k.StartLine != other.StartLine {
		return k.StartLine < other.StartLine
	}
	return k.EndLine < other.EndLine
}

// Fragment is a contiguous, immutable span of one file (spec §3).
type Fragment struct {
	Path        string
	StartLine   int
	EndLine     int
	Kind        Kind
	Symbol      string
	Content     string
	Identifiers map[string]struct{}
	TokenCount  int
	// Language is the file-extension-derived language tag used to key the
	// edge builders' per-language weight tables (spec §4.5, SPEC_FULL §3.1
	// supplemental field).
	Language string

	// Container is the key of this fragment's innermost enclosing
	// syntactic container (e.g. a method's class), if the parser
	// identified one. Nil for top-level fragments (spec §4.2, §9 Open
	// Question 1: innermost wins).
	Container *FragmentKey

	// ContainerOnly marks a fragment synthesized purely to represent an
	// enclosing container (spec §4.2's "enclosing syntactic container").
	// It deliberately overlaps the leaf fragments nested inside it and is
	// excluded from the base tiling partition computed by the Fragmenter,
	// which still returns it alongside the tiles, so it enters V with the
	// rest of its file. The Diff Mapper adds it to E0 when a hunk overlaps
	// its own range or a contained fragment's.
	ContainerOnly bool
}

// Key returns the Fragment's stable identity.
func (f *Fragment) Key() FragmentKey {
	return FragmentKey{Path: f.Path, StartLine: f.StartLine, EndLine: f.EndLine}
}

// LineCount returns the number of lines the fragment spans.
func (f *Fragment) LineCount() int {
	return f.EndLine - f.StartLine + 1
}

// Side identifies which image of a file a Hunk addresses.
type Side string

const (
	SidePre  Side = "pre"
	SidePost Side = "post"
)

// Hunk is an externally-supplied changed line range (spec §3, §6).
type Hunk struct {
	Path      string
	Side      Side
	StartLine int
	EndLine   int
}

// Overlaps reports whether the hunk's line range intersects [start, end].
func (h Hunk) Overlaps(start, end int) bool {
	return h.StartLine <= end && start <= h.EndLine
}

// Edge is a weighted, directed relationship between two fragments (spec
// §3). BuilderID is retained only for diagnostics (spec §4.6).
type Edge struct {
	Src       FragmentKey
	Dst       FragmentKey
	Weight    float64
	BuilderID string
}

// Concept is a diff-introduced identifier token together with the set of
// fragments that contain it (spec §4.3).
type Concept struct {
	Token     string
	Fragments map[FragmentKey]struct{}
}

// FragmentID is the dense integer id assigned by the Graph Assembler,
// used to index the CSR graph representation (spec §9).
type FragmentID int32

// idBucketEntry pairs a key with its assigned id inside a fingerprint
// bucket (see IDAssigner).
type idBucketEntry struct {
	key FragmentKey
	id  FragmentID
}

// IDAssigner maps FragmentKey to a dense FragmentID and back, assigning
// ids in first-seen order. Lookups bucket by FragmentKey.Fingerprint()
// first and only fall back to full key comparison within the bucket,
// the cheap-pre-check-then-full-comparison shape the teacher's
// xxhash-backed content store uses. It is not safe for concurrent use;
// the Graph Assembler assigns ids single-threaded, after every edge
// builder has returned (spec §5).
type IDAssigner struct {
	buckets map[uint64][]idBucketEntry
	keys    []FragmentKey
}

// NewIDAssigner creates an empty IDAssigner.
func NewIDAssigner() *IDAssigner {
	return &IDAssigner{buckets: make(map[uint64][]idBucketEntry)}
}

// IDFor returns key's dense id, assigning a new one if key hasn't been
// seen before.
func (a *IDAssigner) IDFor(key FragmentKey) FragmentID {
	if id, ok := a.Lookup(key); ok {
		return id
	}
	id := FragmentID(len(a.keys))
	fp := key.Fingerprint()
	a.buckets[fp] = append(a.buckets[fp], idBucketEntry{key: key, id: id})
	a.keys = append(a.keys, key)
	return id
}

// Lookup returns key's id without assigning a new one.
func (a *IDAssigner) Lookup(key FragmentKey) (FragmentID, bool) {
	for _, e := range a.buckets[key.Fingerprint()] {
		if e.key == key {
			return e.id, true
		}
	}
	return 0, false
}

// KeyFor returns the FragmentKey for a dense id.
func (a *IDAssigner) KeyFor(id FragmentID) FragmentKey {
	return a.keys[id]
}

// Len returns the number of assigned ids.
func (a *IDAssigner) Len() int {
	return len(a.keys)
}

// SortedKeys returns every assigned key in (path, start_line) order.
func (a *IDAssigner) SortedKeys() []FragmentKey {
	out := make([]FragmentKey, len(a.keys))
	copy(out, a.keys)
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
