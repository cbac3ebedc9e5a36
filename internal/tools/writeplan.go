package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WritePlanArgs are the arguments for the write-plan tool.
type WritePlanArgs struct {
	Content string `json:"content"`
}

const writePlanTSType = `{ content: string }`

// NewWritePlanTool builds the write-plan tool: the one sink plan mode still
// allows (spec §3 "Mode", §4.C). Registered with Mutating: false — not
// because it doesn't write a file, but because it is the one write the
// plan-mode gate in Dispatch must never block; gating it like the other
// mutating tools would strand plan mode with no way to record a plan at
// all. It is also auto-run (spec §4.C "Auto-run without prompt ...
// write-plan") since recording a plan carries none of the risk a file edit
// or shell command does.
func NewWritePlanTool(planFilePath string) Tool {
	return Tool{
		Name:        "write-plan",
		Description: "Write the current plan to the bound plan file, for review before switching out of plan mode.",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"content": {"type": "string", "description": "Full plan content, in markdown"}
			},
			"required": ["content"]
		}`),
		TSType:   writePlanTSType,
		Confirm:  AutoRun,
		Mutating: false,
		Handler: Handler{
			Kind: OutcomePlanWritten,
			Run: func(ctx context.Context, raw json.RawMessage) (RunResult, error) {
				var args WritePlanArgs
				if err := DecodeArgs(raw, &args); err != nil {
					return RunResult{}, err
				}
				if err := os.MkdirAll(filepath.Dir(planFilePath), 0750); err != nil {
					return RunResult{}, fmt.Errorf("mkdir: %w", err)
				}
				if err := os.WriteFile(planFilePath, []byte(args.Content), 0644); err != nil {
					return RunResult{}, fmt.Errorf("write plan: %w", err)
				}
				return RunResult{Content: fmt.Sprintf("Plan written to %s", planFilePath), Path: planFilePath}, nil
			},
		},
	}
}
