package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"

	"github.com/octocli/octo/internal/filetracker"
)

// EditArgs are the arguments for the edit tool.
type EditArgs struct {
	Path    string `json:"path"`
	Search  string `json:"search"`
	Replace string `json:"replace"`
}

const editTSType = `{ path: string, search: string, replace: string }`

// NewEditTool builds the edit tool: search/replace against a file the agent
// has already read (spec §4.C, §13), grounded on the teacher's hash-anchored
// Edit tool (internal/mcptools/edit.go) but adapted from line-hash anchors to
// an exact-unique-substring match, with gotextdiff rendering the applied
// diff for the tool result the way the teacher's TUI renders edits
// (internal/tui/messages.go's gotextdiff.ToUnified/myers.ComputeEdits call).
// An absent search string is a plain error that the agent loop retries
// once via the diff autofixer (spec §4.I) before giving up; a non-unique
// one is returned as an error without that retry.
func NewEditTool(tracker *filetracker.Tracker) Tool {
	return Tool{
		Name:        "edit",
		Description: "Replace an exact, unique occurrence of `search` with `replace` in a file you have already read.",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"path":    {"type": "string", "description": "Path to the file to edit"},
				"search":  {"type": "string", "description": "Exact text to find; must occur exactly once"},
				"replace": {"type": "string", "description": "Replacement text"}
			},
			"required": ["path", "search", "replace"]
		}`),
		TSType:   editTSType,
		Confirm:  ConfirmUnlessUnchained,
		Mutating: true,
		Handler: Handler{
			Kind: OutcomeFileMutate,
			Validate: func(raw json.RawMessage) error {
				var args EditArgs
				if err := DecodeArgs(raw, &args); err != nil {
					return err
				}
				if err := tracker.AssertCanEdit(args.Path); err != nil {
					return outdated(absOrRaw(args.Path), err)
				}
				return nil
			},
			Run: func(ctx context.Context, raw json.RawMessage) (RunResult, error) {
				var args EditArgs
				if err := DecodeArgs(raw, &args); err != nil {
					return RunResult{}, err
				}
				abs := absOrRaw(args.Path)

				before, err := os.ReadFile(abs)
				if err != nil {
					return RunResult{}, unreadable(abs, err)
				}
				beforeStr := string(before)

				count := strings.Count(beforeStr, args.Search)
				switch count {
				case 0:
					return RunResult{}, fmt.Errorf("search text not found in %s", abs)
				default:
					if count > 1 {
						return RunResult{}, fmt.Errorf("search text occurs %d times in %s; must be unique", count, abs)
					}
				}

				after := strings.Replace(beforeStr, args.Search, args.Replace, 1)
				if err := tracker.Write(abs, after); err != nil {
					return RunResult{}, err
				}

				diff := renderDiff(abs, beforeStr, after)
				return RunResult{Content: diff, Path: abs, Lines: strings.Count(after, "\n") + 1}, nil
			},
		},
	}
}

// NewCreateTool builds the create tool: writes a new file that must not
// already exist (spec §13), grounded on the teacher's CreateOp.
func NewCreateTool(tracker *filetracker.Tracker) Tool {
	return Tool{
		Name:        "create",
		Description: "Create a new file with the given content. Fails if the file already exists.",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"path":    {"type": "string", "description": "Path to the file to create"},
				"content": {"type": "string", "description": "Full file content"}
			},
			"required": ["path", "content"]
		}`),
		TSType:   `{ path: string, content: string }`,
		Confirm:  ConfirmUnlessUnchained,
		Mutating: true,
		Handler: Handler{
			Kind: OutcomeFileMutate,
			Validate: func(raw json.RawMessage) error {
				var args writeArgs
				if err := DecodeArgs(raw, &args); err != nil {
					return err
				}
				if err := tracker.AssertCanCreate(args.Path); err != nil {
					return fmt.Errorf("cannot create %s: %w", absOrRaw(args.Path), err)
				}
				return nil
			},
			Run: func(ctx context.Context, raw json.RawMessage) (RunResult, error) {
				var args writeArgs
				if err := DecodeArgs(raw, &args); err != nil {
					return RunResult{}, err
				}
				abs := absOrRaw(args.Path)
				if err := tracker.Write(abs, args.Content); err != nil {
					return RunResult{}, err
				}
				return RunResult{Content: fmt.Sprintf("Created %s", abs), Path: abs, Lines: strings.Count(args.Content, "\n") + 1}, nil
			},
		},
	}
}

// NewAppendTool builds the append tool: adds content to the end of a
// tracked file (spec §13).
func NewAppendTool(tracker *filetracker.Tracker) Tool {
	return rewriteLikeTool(tracker, "append", "Append content to the end of a file you have already read.", func(before, content string) string {
		return before + content
	})
}

// NewPrependTool builds the prepend tool: adds content to the start of a
// tracked file (spec §13).
func NewPrependTool(tracker *filetracker.Tracker) Tool {
	return rewriteLikeTool(tracker, "prepend", "Prepend content to the start of a file you have already read.", func(before, content string) string {
		return content + before
	})
}

// NewRewriteTool builds the rewrite tool: replaces a tracked file's entire
// content (spec §13).
func NewRewriteTool(tracker *filetracker.Tracker) Tool {
	return rewriteLikeTool(tracker, "rewrite", "Replace the entire content of a file you have already read.", func(before, content string) string {
		return content
	})
}

type writeArgs struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// rewriteLikeTool factors the append/prepend/rewrite tools, which share the
// same edit-gated validate step and only differ in how the new content
// combines with what's on disk.
func rewriteLikeTool(tracker *filetracker.Tracker, name, description string, combine func(before, content string) string) Tool {
	return Tool{
		Name:        name,
		Description: description,
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"path":    {"type": "string", "description": "Path to the file"},
				"content": {"type": "string", "description": "Content to write"}
			},
			"required": ["path", "content"]
		}`),
		TSType:   `{ path: string, content: string }`,
		Confirm:  ConfirmUnlessUnchained,
		Mutating: true,
		Handler: Handler{
			Kind: OutcomeFileMutate,
			Validate: func(raw json.RawMessage) error {
				var args writeArgs
				if err := DecodeArgs(raw, &args); err != nil {
					return err
				}
				if err := tracker.AssertCanEdit(args.Path); err != nil {
					return outdated(absOrRaw(args.Path), err)
				}
				return nil
			},
			Run: func(ctx context.Context, raw json.RawMessage) (RunResult, error) {
				var args writeArgs
				if err := DecodeArgs(raw, &args); err != nil {
					return RunResult{}, err
				}
				abs := absOrRaw(args.Path)
				before, err := os.ReadFile(abs)
				if err != nil {
					return RunResult{}, unreadable(abs, err)
				}
				after := combine(string(before), args.Content)
				if err := tracker.Write(abs, after); err != nil {
					return RunResult{}, err
				}
				diff := renderDiff(abs, string(before), after)
				return RunResult{Content: diff, Path: abs, Lines: strings.Count(after, "\n") + 1}, nil
			},
		},
	}
}

// renderDiff renders a unified diff of an applied edit, the way the
// teacher's TUI renders edits for display (internal/tui/messages.go).
func renderDiff(path, before, after string) string {
	edits := myers.ComputeEdits(span.URIFromPath(path), before, after)
	if len(edits) == 0 {
		return fmt.Sprintf("No changes to %s", path)
	}
	diff := fmt.Sprint(gotextdiff.ToUnified(path, path, before, edits))
	return fmt.Sprintf("```diff\n%s```", diff)
}

func absOrRaw(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
