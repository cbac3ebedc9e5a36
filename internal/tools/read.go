package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/octocli/octo/internal/filetracker"
)

// ReadArgs are the arguments for the read tool.
type ReadArgs struct {
	Path string `json:"path"`
}

const readTSType = `{ path: string }`

// NewReadTool builds the read tool, grounded on the teacher's Read tool
// (internal/mcp_tools/open.go) but adapted to the spec's tracker (mtime,
// not a read/not-read boolean) and full-file reads — §4.C lists read among
// the auto-run tools, and the result is recorded as a file-read history
// item so the IR compiler's terminal-read dedup (spec §4.D.1) applies.
func NewReadTool(tracker *filetracker.Tracker) Tool {
	return Tool{
		Name:        "read",
		Description: "Read a file's full content. You must read a file before editing it.",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"path": {"type": "string", "description": "Path to the file to read"}
			},
			"required": ["path"]
		}`),
		TSType:  readTSType,
		Confirm: AutoRun,
		Handler: Handler{
			Kind: OutcomeFileRead,
			Run: func(ctx context.Context, raw json.RawMessage) (RunResult, error) {
				var args ReadArgs
				if err := DecodeArgs(raw, &args); err != nil {
					return RunResult{}, err
				}
				if args.Path == "" {
					return RunResult{}, fmt.Errorf("path is required")
				}
				content, err := tracker.Read(args.Path)
				if err != nil {
					return RunResult{}, err
				}
				abs, err := filepath.Abs(args.Path)
				if err != nil {
					abs = args.Path
				}
				return RunResult{Content: content, Path: abs}, nil
			},
		},
	}
}
