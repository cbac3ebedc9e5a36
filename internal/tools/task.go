package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// TaskArgs are the arguments for the task tool.
type TaskArgs struct {
	Prompt        string `json:"prompt"`
	MaxIterations int    `json:"max_iterations,omitempty"`
}

const taskTSType = `{ prompt: string, max_iterations?: number }`

// MaxSubAgentDepth caps sub-agent recursion: depth 0 is the root agent,
// depth 1 a sub-agent it spawns; a sub-agent's own registry never includes
// the task tool (spec §4.F "MaxDepth = 1", grounded on the teacher's
// internal/subagent.MaxSubAgentDepth).
const MaxSubAgentDepth = 1

// MaxAllowedIterations bounds a caller-specified max_iterations.
const MaxAllowedIterations = 20

// defaultSubAgentIterations is used when max_iterations isn't specified.
const defaultSubAgentIterations = 5

// TaskRunner runs a bounded-depth sub-agent turn and returns its final
// assistant content plus token usage. Implemented by internal/subagent;
// injected here (rather than importing internal/subagent directly) so
// internal/tools never depends on internal/agent, which internal/subagent
// itself depends on.
type TaskRunner func(ctx context.Context, prompt string, maxIterations int) (content string, inputTokens, outputTokens int, err error)

// NewTaskTool builds the task tool: spawns a bounded sub-agent to carry out
// prompt and returns its final response (spec §4.C, §13), grounded on
// internal/subagent.Run.
func NewTaskTool(run TaskRunner) Tool {
	return Tool{
		Name:        "task",
		Description: "Delegate a self-contained sub-task to a sub-agent and return its final response.",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"prompt":         {"type": "string", "description": "The task for the sub-agent to carry out"},
				"max_iterations": {"type": "integer", "description": "Maximum tool-call rounds for the sub-agent. Default: 5, max: 20"}
			},
			"required": ["prompt"]
		}`),
		TSType:  taskTSType,
		Confirm: AutoRun,
		Handler: Handler{
			Kind: OutcomeToolOutput,
			Run: func(ctx context.Context, raw json.RawMessage) (RunResult, error) {
				var args TaskArgs
				if err := DecodeArgs(raw, &args); err != nil {
					return RunResult{}, err
				}
				if args.Prompt == "" {
					return RunResult{}, fmt.Errorf("prompt is required")
				}
				maxIter := args.MaxIterations
				if maxIter <= 0 {
					maxIter = defaultSubAgentIterations
				} else if maxIter > MaxAllowedIterations {
					return RunResult{}, fmt.Errorf("max_iterations too large (max %d)", MaxAllowedIterations)
				}

				content, _, _, err := run(ctx, args.Prompt, maxIter)
				if err != nil {
					return RunResult{}, fmt.Errorf("sub-agent failed: %w", err)
				}
				if content == "" {
					return RunResult{}, fmt.Errorf("sub-agent produced no output")
				}
				return RunResult{Content: content}, nil
			},
		},
	}
}
