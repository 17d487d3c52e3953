package fragment

import "github.com/standardbeagle/diffcontext/internal/types"

// TextStrategy is the fallback partitioner of spec §4.1 strategy 4: it
// always succeeds, splitting on blank-line-separated paragraphs and
// relying on Registry.Fragment's normalizeTiling pass to split paragraphs
// longer than MaxFragmentLines. Paragraphs shorter than MinFragmentLines
// are not merged with their neighbours and stay as short fragments. It is
// deliberately last in DefaultRegistry and
// CanHandle always returns true so no file is ever left unfragmented.
type TextStrategy struct{}

// NewTextStrategy creates a TextStrategy.
func NewTextStrategy() *TextStrategy { return &TextStrategy{} }

func (s *TextStrategy) Name() string { return "text" }

func (s *TextStrategy) CanHandle(path string) bool { return true }

func (s *TextStrategy) Fragment(path string, lines []string) ([]types.Fragment, error) {
	var out []types.Fragment
	start := 1
	for i, l := range lines {
		lineNo := i + 1
		if l == "" {
			if lineNo > start {
				out = append(out, buildFragment(path, start, lineNo-1, types.KindParagraph, "", lines))
			}
			start = lineNo + 1
		}
	}
	if start <= len(lines) {
		out = append(out, buildFragment(path, start, len(lines), types.KindParagraph, "", lines))
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}
