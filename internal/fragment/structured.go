package fragment

import (
	"encoding/json"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/standardbeagle/diffcontext/internal/types"
)

// StructuredConfigStrategy implements spec §4.1 strategy 3: one fragment
// per top-level key for JSON/YAML/TOML manifests, grounded in the
// teacher's build_artifact_detector.go (which parses Cargo.toml/
// package.json/pyproject.toml to recognize project manifests, using
// go-toml for TOML). Here the same manifests are fragmented rather than
// merely sniffed, and YAML (promoted from an indirect teacher dep) is
// added since CI/deploy manifests (`*.yml`) are as common a diff target
// as TOML/JSON ones.
type StructuredConfigStrategy struct{}

// NewStructuredConfigStrategy creates a StructuredConfigStrategy.
func NewStructuredConfigStrategy() *StructuredConfigStrategy {
	return &StructuredConfigStrategy{}
}

func (s *StructuredConfigStrategy) Name() string { return "structured-config" }

func (s *StructuredConfigStrategy) CanHandle(path string) bool {
	switch languageOf(path) {
	case ".json", ".yaml", ".yml", ".toml":
		return true
	}
	return false
}

func (s *StructuredConfigStrategy) Fragment(path string, lines []string) ([]types.Fragment, error) {
	text := strings.Join(lines, "\n")

	var keys []string
	var err error
	switch languageOf(path) {
	case ".json":
		keys, err = topLevelKeysJSON([]byte(text))
	case ".yaml", ".yml":
		keys, err = topLevelKeysYAML([]byte(text))
	case ".toml":
		keys, err = topLevelKeysTOML([]byte(text))
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}

	return keyLineFragments(path, lines, keys), nil
}

func topLevelKeysJSON(data []byte) ([]string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	return keys, nil
}

func topLevelKeysYAML(data []byte) ([]string, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, nil
	}
	mapping := doc.Content[0]
	keys := make([]string, 0, len(mapping.Content)/2)
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		keys = append(keys, mapping.Content[i].Value)
	}
	return keys, nil
}

func topLevelKeysTOML(data []byte) ([]string, error) {
	var raw map[string]interface{}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	return keys, nil
}

// keyLineFragments finds, for each top-level key, the line where it's
// declared (a bare textual search for `key:`/`key =`/`"key":`, taking the
// first matching line) and partitions the file at those boundaries. For
// YAML and TOML only unindented lines are searched, since their top-level
// keys are unindented; for JSON indented lines are searched too, since
// pretty-printed JSON indents its top-level keys inside the outer braces.
// This is deliberately a line scan rather than a second structured parse
// pass: none of the three formats' Go libraries expose source positions on
// unmarshal, only on the token scanner, and a format-specific scanner per
// format would triple the code for no behavioral gain over a textual
// anchor search.
type keyHit struct {
	line int
	key  string
}

func keyLineFragments(path string, lines []string, keys []string) []types.Fragment {
	var hits []keyHit
	remaining := make(map[string]bool, len(keys))
	for _, k := range keys {
		remaining[k] = true
	}
	isJSON := languageOf(path) == ".json"
	for i, l := range lines {
		if l == "" || (!isJSON && (l[0] == ' ' || l[0] == '\t')) {
			continue
		}
		for k := range remaining {
			if matchesKeyLine(l, k) {
				hits = append(hits, keyHit{line: i + 1, key: k})
				delete(remaining, k)
				break
			}
		}
	}
	if len(hits) == 0 {
		return nil
	}
	sortHits(hits)

	var out []types.Fragment
	for i, h := range hits {
		end := len(lines)
		if i+1 < len(hits) {
			end = hits[i+1].line - 1
		}
		out = append(out, buildFragment(path, h.line, end, types.KindConfigBlock, h.key, lines))
	}
	return out
}

func matchesKeyLine(line, key string) bool {
	trimmed := strings.TrimSpace(line)
	candidates := []string{
		key + ":",
		key + " =",
		key + "=",
		"\"" + key + "\":",
		"'" + key + "'",
		"[" + key + "]",
	}
	for _, c := range candidates {
		if strings.HasPrefix(trimmed, c) {
			return true
		}
	}
	return false
}

func sortHits(hits []keyHit) {
	for i := 1; i < len(hits); i++ {
		j := i
		for j > 0 && hits[j].line < hits[j-1].line {
			hits[j], hits[j-1] = hits[j-1], hits[j]
			j--
		}
	}
}
