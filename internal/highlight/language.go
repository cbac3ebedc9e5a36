package highlight

import (
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
)

// DetectLanguage returns the Chroma lexer name for path. It defers to
// Chroma's own filename-pattern registry (lexers.Match) instead of a
// hand-maintained extension table, so it picks up every lexer the library
// ships — including ones a fixed table tends to miss, like *.mjs/*.cjs,
// Dockerfile.*, or vendored config formats — and stays current as Chroma
// adds lexers without this package needing a matching edit.
func DetectLanguage(path string) string {
	if lex := lexers.Match(path); lex != nil {
		if cfg := lex.Config(); cfg != nil && cfg.Name != "" {
			return strings.ToLower(cfg.Name)
		}
	}
	switch strings.ToLower(filepath.Base(path)) {
	case "makefile", "gnumakefile":
		return "make"
	}
	return "text"
}
