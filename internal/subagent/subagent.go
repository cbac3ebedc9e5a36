// Package subagent backs the task tool's TaskRunner (spec §4.C "task") by
// driving a bounded-depth internal/agent.Loop against its own private
// history.Log. Grounded on the teacher's internal/subagent.Run, adapted
// from the teacher's flat provider-message history and llm.ProcessTurn to
// the spec's history.Log-backed internal/agent.Loop — the same loop the
// root agent uses, one recursion level down.
package subagent

import (
	"context"
	"fmt"

	"github.com/octocli/octo/internal/agent"
	"github.com/octocli/octo/internal/config"
	"github.com/octocli/octo/internal/filetracker"
	"github.com/octocli/octo/internal/history"
	"github.com/octocli/octo/internal/provider"
	"github.com/octocli/octo/internal/tools"
)

// Runner holds the dependencies a sub-agent turn needs and produces a
// tools.TaskRunner closure for the task tool. Registry must already have
// the task tool filtered out (spec §4.F "MaxDepth = 1": a sub-agent cannot
// itself spawn a sub-agent) — see FilterTask.
type Runner struct {
	Provider      provider.Provider
	Registry      *tools.Registry
	Tracker       *filetracker.Tracker
	Mode          config.Mode
	ContextBudget int
	JSONFix       tools.JSONFixer
}

// TaskRunner adapts r into the tools.TaskRunner signature NewTaskTool
// expects.
func (r Runner) TaskRunner() tools.TaskRunner {
	return func(ctx context.Context, prompt string, maxIterations int) (string, int, int, error) {
		return r.Run(ctx, prompt, maxIterations)
	}
}

// Run drives one sub-agent turn to completion against a fresh history.Log
// and returns its final assistant content plus cumulative token usage.
func (r Runner) Run(ctx context.Context, prompt string, maxIterations int) (content string, inputTokens, outputTokens int, err error) {
	if r.Provider == nil {
		return "", 0, 0, fmt.Errorf("sub-agent: provider is required")
	}
	if prompt == "" {
		return "", 0, 0, fmt.Errorf("sub-agent: prompt is required")
	}

	log := history.New()
	loop := agent.New(agent.Options{
		Provider:      r.Provider,
		Registry:      r.Registry,
		Tracker:       r.Tracker,
		Mode:          r.Mode,
		ContextBudget: r.ContextBudget,
		JSONFix:       r.JSONFix,
		SystemPrompt:  func(bool) string { return SystemPrompt() },
		MaxToolRounds: maxIterations,
	}, log)

	if err := loop.Run(ctx, prompt, nil); err != nil {
		return "", 0, 0, fmt.Errorf("sub-agent failed: %w", err)
	}

	items := log.Items()
	for _, it := range items {
		if it.Kind != history.KindAssistant {
			continue
		}
		inputTokens += it.InputTokens
		outputTokens += it.OutputTokens
		if it.Content != "" && it.ToolCall == nil {
			content = it.Content // last terminal turn wins
		}
	}

	if content == "" {
		return "", 0, 0, fmt.Errorf("sub-agent produced no final response")
	}
	return content, inputTokens, outputTokens, nil
}

// FilterTask returns the subset of tools excluding "task", so a sub-agent's
// own registry can never spawn a further sub-agent (spec §4.F "MaxDepth=1",
// grounded on the teacher's subagent.FilterTools).
func FilterTask(all []tools.Tool) []tools.Tool {
	filtered := make([]tools.Tool, 0, len(all))
	for _, t := range all {
		if t.Name != "task" {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

// SystemPrompt returns the system prompt used for sub-agent turns: terser
// than the root agent's, since a sub-agent has no conversation history or
// open context space of its own, only the prompt it was given.
func SystemPrompt() string {
	return "You are a sub-agent carrying out one self-contained task delegated by a root coding agent. " +
		"Use the available tools to complete the task, then respond with a final plain-text summary of what you did and any result the caller needs. " +
		"You cannot delegate further sub-tasks."
}
