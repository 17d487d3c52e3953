package edges

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/standardbeagle/diffcontext/internal/config"
	"github.com/standardbeagle/diffcontext/internal/types"
)

var mdLink = regexp.MustCompile(`\[[^\]]*\]\(([^)\s]+)\)`)

// DocumentBuilder emits directed edges from a Markdown section fragment
// to the section it links to, either by in-file anchor (`#some-heading`)
// or by a relative path to another Markdown file, optionally with its
// own anchor (spec §4.5 document family: "Markdown section -> linked
// section or anchor", directed by reference). There is no teacher
// analog for link resolution specifically (the teacher never fragments
// Markdown into linkable sections); this builder follows the same
// "resolve within the already-built universe, never raise on failure"
// discipline the other builders use.
type DocumentBuilder struct{}

func (b *DocumentBuilder) Name() string { return "document" }

func (b *DocumentBuilder) Build(universe map[types.FragmentKey]types.Fragment, _ Context, policy config.Policy) []types.Edge {
	bySlug := make(map[string]map[string][]types.FragmentKey) // path -> slug -> keys
	for key, f := range universe {
		if f.Kind != types.KindSection || f.Symbol == "" {
			continue
		}
		slug := slugify(f.Symbol)
		if slug == "" {
			continue
		}
		m := bySlug[f.Path]
		if m == nil {
			m = make(map[string][]types.FragmentKey)
			bySlug[f.Path] = m
		}
		m[slug] = append(m[slug], key)
	}

	var edges []types.Edge
	for key, f := range universe {
		if f.Kind != types.KindSection && f.Kind != types.KindGeneric {
			continue
		}
		if filepath.Ext(f.Path) != ".md" && filepath.Ext(f.Path) != ".markdown" {
			continue
		}
		for _, target := range mdLink.FindAllStringSubmatch(f.Content, -1) {
			linkPath, anchor := splitTarget(target[1])
			if linkPath == "" {
				linkPath = f.Path
			} else if !filepath.IsAbs(linkPath) {
				linkPath = filepath.Clean(filepath.Join(filepath.Dir(f.Path), linkPath))
			}
			slugs := bySlug[linkPath]
			if slugs == nil {
				continue
			}
			if anchor == "" {
				for _, keys := range slugs {
					for _, dst := range keys {
						if dst != key {
							edges = append(edges, types.Edge{Src: key, Dst: dst, Weight: policy.DocumentWeight, BuilderID: b.Name()})
						}
					}
				}
				continue
			}
			for _, dst := range slugs[anchor] {
				if dst == key {
					continue
				}
				edges = append(edges, types.Edge{Src: key, Dst: dst, Weight: policy.DocumentWeight, BuilderID: b.Name()})
			}
		}
	}
	return edges
}

// splitTarget separates a Markdown link target into its path component
// and its `#anchor` fragment, if any.
func splitTarget(target string) (path, anchor string) {
	if i := strings.IndexByte(target, '#'); i >= 0 {
		return target[:i], target[i+1:]
	}
	return target, ""
}

// slugify approximates GitHub's heading-to-anchor transform: lowercase,
// spaces to hyphens, strip everything but letters/digits/hyphens.
func slugify(heading string) string {
	var b strings.Builder
	lastHyphen := false
	for _, r := range strings.ToLower(heading) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case r == ' ' || r == '-' || r == '_':
			if !lastHyphen && b.Len() > 0 {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
