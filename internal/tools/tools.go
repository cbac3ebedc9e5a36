// Package tools implements the uniform tool contract, tool registry,
// and validate/run dispatch of spec §4.C, grounded on the teacher's
// internal/mcp_tools + internal/mcp (Tool/ToolResult shape, FileReadTracker
// gating) generalized from the teacher's hash-anchored single-purpose tools
// to the spec's broader tool inventory (§6, §13): read, list, shell, edit,
// create, append, prepend, rewrite, fetch, mcp, skill, write-plan,
// web-search, task.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/octocli/octo/internal/config"
	"github.com/octocli/octo/internal/filetracker"
)

// Confirmation classifies how a tool's invocation is gated by mode
// (spec §4.C confirmation policy).
type Confirmation int

const (
	// AutoRun tools never prompt: read, list, fetch, skill, web-search,
	// write-plan, task.
	AutoRun Confirmation = iota
	// ConfirmUnlessUnchained tools prompt unless Mode is unchained: edit,
	// create, append, prepend, rewrite, shell, mcp.
	ConfirmUnlessUnchained
)

// OutcomeKind tags a dispatch Outcome with the history-item shape the agent
// loop should record. Kept independent of internal/history to avoid an
// import cycle; internal/agent maps OutcomeKind onto history.Kind.
type OutcomeKind int

const (
	OutcomeToolOutput OutcomeKind = iota
	OutcomeFileRead
	OutcomeFileMutate
	OutcomePlanWritten
	OutcomeToolFailed
	OutcomeToolMalformed
	OutcomeFileOutdated
	OutcomeFileUnreadable
)

// Outcome is the result of Dispatch.
type Outcome struct {
	Kind    OutcomeKind
	Content string
	Path    string
	Lines   int
	Error   string
}

// Call is one tool invocation as accumulated by the agent loop's streaming
// tool-call parser (spec §4.F step 4's tool-call delta accumulation).
type Call struct {
	ID        string
	Name      string
	Arguments string // raw JSON, possibly malformed
}

// RunResult is what a tool handler returns on success.
type RunResult struct {
	Content string
	Path    string // set by file-producing tools; empty otherwise
	Lines   int
}

// Handler validates and executes one tool call's arguments.
type Handler struct {
	// Validate runs before Run and may raise a recoverable domain error
	// (spec §4.C step 3): a *PathError wrapping filetracker.ErrFileOutdated
	// becomes a file-outdated history item; any other error becomes
	// tool-failed. Optional.
	Validate func(args json.RawMessage) error
	// Run executes the tool under the turn's abort signal (spec §4.C
	// step 4).
	Run func(ctx context.Context, args json.RawMessage) (RunResult, error)
	// Kind classifies RunResult into the right OutcomeKind on success.
	Kind OutcomeKind
}

// Tool is the uniform tool contract (spec §4.C).
type Tool struct {
	Name        string
	Description string
	Schema      json.RawMessage // JSON schema for the LLM wire
	TSType      string          // TypeScript-rendered shape for the system prompt
	Confirm     Confirmation
	// Mutating tools are disabled in plan mode (spec §3 "Mode"); their
	// dispatch returns a fixed message instead of running. write-plan is
	// the one mutating tool plan mode still allows.
	Mutating bool
	Handler  Handler
}

// planModeMessage is the fixed message returned instead of executing any
// mutating tool while Mode is plan (spec §4.C, S5).
const planModeMessage = "This tool is disabled in plan mode. Use write-plan to record your plan; mutating tools will be available once the user approves it and switches modes."

// JSONFixer repairs a malformed tool-argument string once (spec §4.I JSON
// autofix), returning the repaired JSON and whether repair succeeded.
type JSONFixer func(ctx context.Context, rawArgs, toolName, tsType string) (json.RawMessage, bool)

// Registry is the set of enabled tools. cmd/octo builds it once at startup
// and does not rebuild it between turns; some tools are conditional (spec
// §4.C): mcp only if servers are configured, skill only if discoverable,
// web-search only if a key is configured, write-plan only if a plan-file
// path is bound.
type Registry struct {
	byName map[string]Tool
	order  []string // registration order, for stable system-prompt rendering
}

// NewRegistry builds a registry from tools, preserving the given order.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{byName: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		r.byName[t.Name] = t
		r.order = append(r.order, t.Name)
	}
	return r
}

// List returns the enabled tools in registration order.
func (r *Registry) List() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Lookup returns the tool named name, if enabled.
func (r *Registry) Lookup(name string) (Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Dispatch runs the uniform validate/run contract (spec §4.C):
//  1. look up by name
//  2. parse/repair arguments
//  3. validate
//  4. run under ctx
func Dispatch(ctx context.Context, reg *Registry, call Call, mode config.Mode, fix JSONFixer) Outcome {
	tool, ok := reg.Lookup(call.Name)
	if !ok {
		return Outcome{Kind: OutcomeToolMalformed, Error: fmt.Sprintf("No tool named %s", call.Name)}
	}

	args := json.RawMessage(call.Arguments)
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if !json.Valid(args) {
		if fixed, ok := fix(ctx, call.Arguments, tool.Name, tool.TSType); ok && json.Valid(fixed) {
			args = fixed
		} else {
			return Outcome{Kind: OutcomeToolMalformed, Error: "arguments are not valid JSON and could not be repaired"}
		}
	}

	if mode == config.ModePlan && tool.Mutating {
		return Outcome{Kind: OutcomeToolOutput, Content: planModeMessage}
	}

	if tool.Handler.Validate != nil {
		if err := tool.Handler.Validate(args); err != nil {
			return classify(err)
		}
	}

	result, err := tool.Handler.Run(ctx, args)
	if err != nil {
		return classify(err)
	}

	return Outcome{
		Kind:    tool.Handler.Kind,
		Content: result.Content,
		Path:    result.Path,
		Lines:   result.Lines,
	}
}

// DecodeArgs decodes a tool call's JSON arguments into target via
// mapstructure's weakly-typed decoder rather than a plain json.Unmarshal:
// models frequently emit numbers/bools as strings (e.g. `"timeout_ms":
// "5000"`) even after the JSON itself is syntactically valid, and
// WeaklyTypedInput coerces those without rejecting the call outright. Every
// built-in tool's Validate/Run uses this instead of json.Unmarshal directly.
func DecodeArgs(raw json.RawMessage, target any) error {
	var generic map[string]interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           target,
		TagName:          "json",
	})
	if err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	if err := dec.Decode(generic); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// classify turns a handler error into the right Outcome, recognizing the
// distinguished file-outdated / file-unreadable kinds (spec §3, §7).
func classify(err error) Outcome {
	var pe *PathError
	if errors.As(err, &pe) {
		switch {
		case errors.Is(pe.Err, filetracker.ErrFileOutdated):
			return Outcome{Kind: OutcomeFileOutdated, Path: pe.Path, Error: err.Error()}
		default:
			return Outcome{Kind: OutcomeFileUnreadable, Path: pe.Path, Error: err.Error()}
		}
	}
	return Outcome{Kind: OutcomeToolFailed, Error: err.Error()}
}
