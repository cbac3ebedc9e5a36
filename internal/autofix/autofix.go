// Package autofix implements the two narrow LLM-mediated repair paths spec
// §4.I describes: JSON autofix for malformed tool arguments, and diff autofix
// for a search/replace edit whose search string doesn't occur in the file.
// Both are invoked at most once per call and never recurse, grounded on the
// teacher's single-shot, non-streaming completion pattern (internal/llm
// doesn't have one directly — the teacher's analogue is a plain
// provider.ChatStream call collected to completion, which is what
// provider.Collect here does).
package autofix

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/octocli/octo/internal/provider"
)

// JSONResult is the outcome of a JSON autofix attempt.
type JSONResult struct {
	Success bool
	Fixed   json.RawMessage
}

// FixJSON asks a small model to repair a probably-invalid JSON tool-argument
// string, given the tool's expected TypeScript-rendered shape. Invoked at
// most once per tool call by the dispatch layer (spec §4.C step 2).
func FixJSON(ctx context.Context, p provider.Provider, rawArgs, toolName, typescriptType string) (JSONResult, error) {
	if p == nil {
		return JSONResult{}, fmt.Errorf("autofix: no provider configured")
	}

	prompt := fmt.Sprintf(`The following JSON arguments for tool %q failed to parse or validate:

%s

Expected TypeScript shape:
%s

Reply with ONLY a JSON object of the form {"success": true, "fixed": <corrected arguments object>} if you can produce valid arguments matching the shape, or {"success": false} if you cannot. No other text.`, toolName, rawArgs, typescriptType)

	messages := []provider.Message{{Role: "user", Content: prompt}}
	resp, err := provider.Collect(ctx, p, messages, nil, nil)
	if err != nil {
		return JSONResult{}, fmt.Errorf("autofix json: %w", err)
	}

	var parsed struct {
		Success bool            `json:"success"`
		Fixed   json.RawMessage `json:"fixed"`
	}
	text := extractJSONObject(resp.Content)
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		log.Warn().Err(err).Str("tool", toolName).Msg("autofix: could not parse repair response")
		return JSONResult{Success: false}, nil
	}
	if !parsed.Success || len(parsed.Fixed) == 0 {
		return JSONResult{Success: false}, nil
	}
	return JSONResult{Success: true, Fixed: parsed.Fixed}, nil
}

// DiffResult is the outcome of a diff autofix attempt.
type DiffResult struct {
	Found  bool
	Search string
}

// FixDiff asks a small model for a corrected `search` string that does occur
// verbatim in fileContent, given the original failing search/replace pair.
// Invoked at most once per edit call (spec §4.C "edit" tool, §4.I).
func FixDiff(ctx context.Context, p provider.Provider, fileContent, failingSearch, replace string) (DiffResult, error) {
	if p == nil {
		return DiffResult{}, fmt.Errorf("autofix: no provider configured")
	}

	prompt := fmt.Sprintf(`A search/replace edit failed because the search text does not occur exactly in the file.

File content:
%s

Failing search text:
%s

Intended replacement:
%s

Find the closest block of the file content that the author meant to match and reply with ONLY a JSON object {"found": true, "search": "<exact substring copied verbatim from the file content above>"} or {"found": false} if no close match exists. The "search" value must be copied byte-for-byte from the file content, including original indentation and line endings.`, fileContent, failingSearch, replace)

	messages := []provider.Message{{Role: "user", Content: prompt}}
	resp, err := provider.Collect(ctx, p, messages, nil, nil)
	if err != nil {
		return DiffResult{}, fmt.Errorf("autofix diff: %w", err)
	}

	var parsed struct {
		Found  bool   `json:"found"`
		Search string `json:"search"`
	}
	text := extractJSONObject(resp.Content)
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		log.Warn().Err(err).Msg("autofix: could not parse diff repair response")
		return DiffResult{Found: false}, nil
	}
	if !parsed.Found || parsed.Search == "" || !strings.Contains(fileContent, parsed.Search) {
		return DiffResult{Found: false}, nil
	}
	return DiffResult{Found: true, Search: parsed.Search}, nil
}

// extractJSONObject trims any stray prose around the model's reply and
// returns the first top-level {...} object found, tolerating models that
// wrap their answer in a code fence.
func extractJSONObject(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}
