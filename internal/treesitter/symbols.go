// Package treesitter extracts structural symbols (functions, types, imports)
// from source files via tree-sitter grammars, feeding Octo's project outline
// (internal/agent's system prompt, spec §2 "project context") rather than any
// one language's own toolchain.
package treesitter

// SymbolKind classifies extracted symbols across every supported grammar;
// not every kind applies to every language (Python has no KindStruct or
// KindInterface, for instance).
type SymbolKind int

const (
	KindPackage SymbolKind = iota
	KindImport
	KindFunction
	KindMethod
	KindType
	KindStruct
	KindInterface
	KindConst
	KindVar
)

// Symbol represents a single extracted code symbol. Children holds nested
// members whose own receiver-style grouping the source language expresses
// structurally rather than by name — e.g. a Python class's methods
// (extractPyClass), mirrored into the outline by fileGroups.add.
type Symbol struct {
	Name      string
	Kind      SymbolKind
	Signature string // e.g. "func (p *Proxy) CallTool(ctx context.Context, ...)"
	StartLine int    // 1-indexed
	EndLine   int    // 1-indexed
	Receiver  string // method receiver type, empty for functions
	Children  []Symbol
}

// String returns a short label for the symbol kind.
func (k SymbolKind) String() string {
	switch k {
	case KindPackage:
		return "pkg"
	case KindImport:
		return "import"
	case KindFunction:
		return "func"
	case KindMethod:
		return "method"
	case KindType:
		return "type"
	case KindStruct:
		return "struct"
	case KindInterface:
		return "interface"
	case KindConst:
		return "const"
	case KindVar:
		return "var"
	default:
		return "unknown"
	}
}
