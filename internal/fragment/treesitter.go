package fragment

import (
	"fmt"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/standardbeagle/diffcontext/internal/types"
)

// captureKind maps a query's top-level capture name to a spec §3 Kind.
// Sub-captures ("*.name") are only used for symbol-name extraction and are
// never turned into fragments on their own.
var captureKind = map[string]types.Kind{
	"function":    types.KindFunction,
	"method":      types.KindMethod,
	"constructor": types.KindMethod,
	"class":       types.KindClass,
	"struct":      types.KindClass,
	"interface":   types.KindClass,
	"enum":        types.KindClass,
	"record":      types.KindClass,
	"trait":       types.KindClass,
}

// languageGrammar bundles a compiled tree-sitter parser and query for one
// language, adapted from the teacher's per-language setup*() methods in
// internal/parser/parser_language_setup.go.
type languageGrammar struct {
	extensions []string
	parser     *tree_sitter.Parser
	query      *tree_sitter.Query
	names      []string
}

func newLanguageGrammar(extensions []string, lang *tree_sitter.Language, queryStr string) *languageGrammar {
	parser := tree_sitter.NewParser()
	if err := parser.SetLanguage(lang); err != nil {
		return nil
	}
	query, _ := tree_sitter.NewQuery(lang, queryStr)
	// The go-tree-sitter binding has a history of returning a typed-nil
	// error from NewQuery; guard on the query pointer itself, exactly as
	// the teacher's setup*() methods do.
	if query == nil {
		return nil
	}
	return &languageGrammar{
		extensions: extensions,
		parser:     parser,
		query:      query,
		names:      query.CaptureNames(),
	}
}

// TreeSitterStrategy is the AST-aware fragmenting strategy (spec §4.1
// strategy 1). Grounded on internal/parser/parser_language_setup.go query
// strings and internal/parser/parser_parse_methods.go's capture-walking
// shape, generalized into one language-agnostic extractor instead of one
// teacher method per language.
type TreeSitterStrategy struct {
	byExt map[string]*languageGrammar
}

// NewTreeSitterStrategy builds the strategy with every supported grammar
// registered. Grammars kept: go, python, javascript/jsx,
// typescript/tsx, rust, java, c-sharp (see DESIGN.md for the grammars the
// teacher carries that were dropped here).
func NewTreeSitterStrategy() *TreeSitterStrategy {
	s := &TreeSitterStrategy{byExt: make(map[string]*languageGrammar)}

	register := func(extensions []string, lang *tree_sitter.Language, queryStr string) {
		g := newLanguageGrammar(extensions, lang, queryStr)
		if g == nil {
			return
		}
		for _, ext := range extensions {
			s.byExt[ext] = g
		}
	}

	register([]string{".go"}, tree_sitter.NewLanguage(tree_sitter_go.Language()), goQuery)
	register([]string{".py"}, tree_sitter.NewLanguage(tree_sitter_python.Language()), pythonQuery)
	register([]string{".js", ".jsx"}, tree_sitter.NewLanguage(tree_sitter_javascript.Language()), jsQuery)
	register([]string{".ts", ".tsx"}, tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()), tsQuery)
	register([]string{".rs"}, tree_sitter.NewLanguage(tree_sitter_rust.Language()), rustQuery)
	register([]string{".java"}, tree_sitter.NewLanguage(tree_sitter_java.Language()), javaQuery)
	register([]string{".cs"}, tree_sitter.NewLanguage(tree_sitter_csharp.Language()), csharpQuery)

	return s
}

func (s *TreeSitterStrategy) Name() string { return "treesitter" }

func (s *TreeSitterStrategy) CanHandle(path string) bool {
	_, ok := s.byExt[languageOf(path)]
	return ok
}

// rawCapture is one query match turned into a (kind, name, line range)
// tuple before container resolution and tiling.
type rawCapture struct {
	kind      types.Kind
	symbol    string
	startLine int
	endLine   int
}

func (s *TreeSitterStrategy) Fragment(path string, lines []string) ([]types.Fragment, error) {
	g, ok := s.byExt[languageOf(path)]
	if !ok {
		return nil, nil
	}

	content := []byte(strings.Join(lines, "\n"))
	tree := g.parser.Parse(content, nil)
	if tree == nil {
		return nil, fmt.Errorf("treesitter: parse returned no tree for %s", path)
	}
	defer tree.Close()

	qc := tree_sitter.NewQueryCursor()
	defer qc.Close()

	matches := qc.Matches(g.query, tree.RootNode(), content)

	var captures []rawCapture
	for {
		match := matches.Next()
		if match == nil {
			break
		}

		names := make(map[string]string, 4)
		for _, c := range match.Captures {
			name := g.names[c.Index]
			if strings.HasSuffix(name, ".name") {
				names[name] = string(content[c.Node.StartByte():c.Node.EndByte()])
			}
		}

		for _, c := range match.Captures {
			name := g.names[c.Index]
			kind, ok := captureKind[name]
			if !ok {
				continue
			}
			node := c.Node
			start := int(node.StartPosition().Row) + 1
			end := int(node.EndPosition().Row) + 1
			symbol := names[name+".name"]
			captures = append(captures, rawCapture{kind: kind, symbol: symbol, startLine: start, endLine: end})
		}
	}

	return resolveContainers(path, lines, captures), nil
}

// resolveContainers implements spec §4.2/§9 Open Question 1: a class-kind
// capture that strictly contains one or more function/method captures
// becomes a non-tiling ContainerOnly fragment referenced by its
// innermost contained leaves' Container field, rather than a separate
// overlapping tile of its own. A class-kind capture with no contained
// leaves becomes a normal tile (e.g. an empty struct, a marker interface).
func resolveContainers(path string, lines []string, captures []rawCapture) []types.Fragment {
	var classes []rawCapture
	var leaves []rawCapture
	for _, c := range captures {
		if c.kind == types.KindClass {
			classes = append(classes, c)
		} else {
			leaves = append(leaves, c)
		}
	}

	hasLeafInside := make([]bool, len(classes))
	leafContainer := make([]*int, len(leaves)) // index into classes, innermost

	for li, leaf := range leaves {
		best := -1
		bestSpan := -1
		for ci, cls := range classes {
			if cls.startLine <= leaf.startLine && leaf.endLine <= cls.endLine &&
				!(cls.startLine == leaf.startLine && cls.endLine == leaf.endLine) {
				span := cls.endLine - cls.startLine
				if best == -1 || span < bestSpan {
					best = ci
					bestSpan = span
				}
			}
		}
		if best >= 0 {
			hasLeafInside[best] = true
			idx := best
			leafContainer[li] = &idx
		}
	}

	var out []types.Fragment
	for li, leaf := range leaves {
		f := buildFragment(path, leaf.startLine, leaf.endLine, leaf.kind, leaf.symbol, lines)
		if ci := leafContainer[li]; ci != nil {
			cls := classes[*ci]
			key := types.FragmentKey{Path: path, StartLine: cls.startLine, EndLine: cls.endLine}
			f.Container = &key
		}
		out = append(out, f)
	}

	for ci, cls := range classes {
		if hasLeafInside[ci] {
			cf := buildFragment(path, cls.startLine, cls.endLine, cls.kind, cls.symbol, lines)
			cf.ContainerOnly = true
			out = append(out, cf)
			continue
		}
		out = append(out, buildFragment(path, cls.startLine, cls.endLine, cls.kind, cls.symbol, lines))
	}

	return out
}
