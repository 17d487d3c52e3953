package tokenize

// stopwords combines language keywords across the language families the
// Fragmenter supports (spec §4.1: "Stopwords include language keywords and
// very common short tokens") with generic high-frequency identifier
// fragments that carry no diff-concept signal on their own.
var stopwords = map[string]struct{}{
	// control flow / declarations, shared across C-like, Go, Rust, Java, C#
	"if": {}, "else": {}, "for": {}, "while": {}, "do": {}, "switch": {},
	"case": {}, "default": {}, "break": {}, "continue": {}, "return": {},
	"func": {}, "function": {}, "def": {}, "class": {}, "struct": {},
	"interface": {}, "enum": {}, "type": {}, "var": {}, "let": {}, "const": {},
	"import": {}, "from": {}, "package": {}, "module": {}, "export": {},
	"public": {}, "private": {}, "protected": {}, "static": {}, "final": {},
	"abstract": {}, "override": {}, "virtual": {}, "new": {}, "delete": {},
	"try": {}, "catch": {}, "finally": {}, "throw": {}, "throws": {},
	"async": {}, "await": {}, "yield": {}, "lambda": {}, "with": {}, "as": {},
	"pub": {}, "mod": {}, "impl": {}, "trait": {}, "fn": {}, "mut": {},
	"use": {}, "crate": {}, "self": {}, "super": {}, "this": {},
	"true": {}, "false": {}, "null": {}, "none": {}, "nil": {}, "undefined": {},
	"and": {}, "or": {}, "not": {}, "is": {}, "in": {}, "of": {},

	// generic high-frequency identifier fragments
	"get": {}, "set": {}, "the": {}, "all": {},
	"val": {}, "key": {}, "obj": {}, "arg": {}, "args": {}, "tmp": {},
	"idx": {}, "len": {}, "err": {}, "ctx": {}, "cfg": {},
}

// IsStopword reports whether tok (already lowercased) should be excluded
// from identifier/concept sets.
func IsStopword(tok string) bool {
	_, ok := stopwords[tok]
	return ok
}
