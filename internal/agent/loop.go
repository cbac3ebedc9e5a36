package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/octocli/octo/internal/compaction"
	"github.com/octocli/octo/internal/config"
	"github.com/octocli/octo/internal/filetracker"
	"github.com/octocli/octo/internal/history"
	"github.com/octocli/octo/internal/ir"
	"github.com/octocli/octo/internal/provider"
	"github.com/octocli/octo/internal/tools"
	"github.com/octocli/octo/internal/xmlstream"
)

// TokenKind classifies a delta handed to Options.OnTokens: content the user
// sees, reasoning lifted out of a <think> block, or a tool-call fragment
// (spec §4.F inputs: "callback onTokens(text, kind)").
type TokenKind int

const (
	TokenContent TokenKind = iota
	TokenReasoning
	TokenTool
)

// thinkWhitelist is the single tag the streaming XML parser splits out of
// assistant content (spec §4.A, §4.F step 4).
var thinkWhitelist = []string{"think"}

// reminderInterval is the number of tool-calling rounds between synthetic
// goal reminders (spec §14, grounded on the teacher's
// internal/llm/loop.go reminderInterval).
const reminderInterval = 10

// defaultMaxToolRounds bounds a turn's tool-calling rounds before the loop
// forces a text-only summary (spec §14 "Tool-call-round ceiling", grounded
// on the teacher's MaxToolRounds default of 60).
const defaultMaxToolRounds = 60

// DiffFixFunc repairs a failing edit tool call's search string against the
// file's original content (spec §4.I "Diff autofix"), returning the
// corrected search text and whether repair succeeded. Invoked at most once
// per edit call.
type DiffFixFunc func(ctx context.Context, original, search, replace string) (fixedSearch string, ok bool)

// ConfirmFunc asks the user whether to run a confirm-gated tool call,
// returning false to reject it (spec §4.C confirmation policy).
type ConfirmFunc func(call tools.Call) bool

// SystemPromptFunc rebuilds the system prompt for one request. appliedWindow
// is true when this request's history was trimmed by Window, so the prompt
// can tell the model (spec §4.F step 1).
type SystemPromptFunc func(appliedWindow bool) string

// Options configures a Loop. New keeps its own copy, and the Loop exposes
// no way to change it afterwards; SystemPrompt, though, is called anew for
// every request, so the prompt text itself is rebuilt each time.
type Options struct {
	Provider      provider.Provider
	Registry      *tools.Registry
	Tracker       *filetracker.Tracker
	Mode          config.Mode
	SystemPrompt  SystemPromptFunc
	ContextBudget int // model context window, minus headroom, in estimated tokens
	JSONFix       tools.JSONFixer
	DiffFix       DiffFixFunc
	Confirm       ConfirmFunc
	OnTokens      func(text string, kind TokenKind)
	MaxToolRounds int

	// OnFileChanged fires after a file-producing tool call for a
	// human-facing-only echo (spec §10), never fed back to the model. kind
	// is history.KindFileRead (content is the whole file) or
	// history.KindFileMutate (content is the tool's result text: a ```diff
	// fenced unified diff, "No changes to <path>" when the file is
	// unchanged, or "Created <path>" for create). Grounded on the
	// teacher's TUI re-rendering a file's buffer with syntax highlighting
	// after every open/edit/show (internal/mcp_tools).
	OnFileChanged func(kind history.Kind, path, content string)

	// Compaction, when set along with CompactionTrigger > 0, enables
	// history compaction (spec §4.H). CompactionModel names the model
	// passed through for the curl-reconstruction on failure; it does not
	// need to match the turn's own model.
	Compaction        provider.Provider
	CompactionModel   string
	CompactionTrigger int
	OnCompacting      func(active bool)
}

// Loop orchestrates turns against a single history.Log (spec §4.F).
type Loop struct {
	opts Options
	log  *history.Log
}

// New creates a Loop writing to log.
func New(opts Options, log *history.Log) *Loop {
	if opts.MaxToolRounds <= 0 {
		opts.MaxToolRounds = defaultMaxToolRounds
	}
	return &Loop{opts: opts, log: log}
}

// Run appends a user turn and drives the agent loop — streamed request,
// optional tool dispatch, continuation — until the model emits a turn with
// no tool call, the round ceiling is hit, or ctx is cancelled (spec §4.F,
// §1 "the loop continues until the model emits a terminal turn").
func (l *Loop) Run(ctx context.Context, userContent string, images []string) error {
	l.maybeCompact(ctx)
	l.log.Append(history.Item{Kind: history.KindUser, Content: userContent, Images: images})

	var recent []tools.Call
	for round := 0; round < l.opts.MaxToolRounds; round++ {
		l.injectRecitation(round)

		call, hadCall, err := l.step(ctx)
		if err != nil {
			return err
		}
		if !hadCall {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		l.dispatch(ctx, call)
		l.maybeCompact(ctx)

		recent = append(recent, call)
		l.warnOnRepeat(recent)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	l.log.Append(history.Item{
		Kind:    history.KindUser,
		Content: "You have exhausted your tool call limit for this turn. Respond in text only. Summarize what you accomplished and what remains.",
	})
	_, _, err := l.step(ctx)
	return err
}

// step runs exactly one streamed LLM request (spec §4.F steps 1-8): window
// the history, compile it to wire messages, stream the response splitting
// <think> content into reasoning, accumulate at most one tool call, and
// append the resulting assistant (+ tool, on a call) history items.
func (l *Loop) step(ctx context.Context) (call tools.Call, hadCall bool, err error) {
	items := l.log.Items()
	windowed, applied, ok := Window(items, l.opts.ContextBudget)
	if !ok {
		return tools.Call{}, false, fmt.Errorf("agent: history does not fit context budget even after windowing")
	}

	irMessages := ir.Compile(windowed)
	systemPrompt := ""
	if l.opts.SystemPrompt != nil {
		systemPrompt = l.opts.SystemPrompt(applied)
	}
	wireMessages := provider.Compile(systemPrompt, irMessages)

	var wireTools []provider.Tool
	if l.opts.Registry != nil {
		for _, t := range l.opts.Registry.List() {
			wireTools = append(wireTools, provider.Tool{Name: t.Name, Description: t.Description, Parameters: t.Schema})
		}
	}

	ch, err := l.opts.Provider.ChatStream(ctx, wireMessages, wireTools)
	if err != nil {
		return tools.Call{}, false, fmt.Errorf("agent: chat stream: %w", err)
	}

	acc := newAccumulator()
	parser := xmlstream.New(thinkWhitelist)
	inThink := false
	var content, reasoning strings.Builder

	parser.OnText = func(s string) {
		if inThink {
			reasoning.WriteString(s)
			l.emit(s, TokenReasoning)
		} else {
			content.WriteString(s)
			l.emit(s, TokenContent)
		}
	}
	parser.OnOpenTag = func(name string) {
		if name == "think" {
			inThink = true
		}
	}
	parser.OnCloseTag = func(name string) {
		if name == "think" {
			inThink = false
		}
	}

	var inputTokens, outputTokens int
	var reasoningSignature string
	var streamErr error
	cancelled := false

loop:
	for {
		select {
		case <-ctx.Done():
			cancelled = true
			break loop
		case evt, open := <-ch:
			if !open {
				break loop
			}
			switch evt.Type {
			case provider.EventContentDelta:
				parser.Write(evt.Content)
			case provider.EventReasoningDelta:
				if evt.Content != "" {
					reasoning.WriteString(evt.Content)
					l.emit(evt.Content, TokenReasoning)
				}
				if evt.ReasoningSignature != "" {
					reasoningSignature = evt.ReasoningSignature
				}
			case provider.EventToolCallBegin:
				acc.begin(evt)
			case provider.EventToolCallDelta:
				acc.delta(evt)
				if evt.ToolCallArgs != "" {
					l.emit(evt.ToolCallArgs, TokenTool)
				}
			case provider.EventUsage:
				if evt.InputTokens > inputTokens {
					inputTokens = evt.InputTokens
				}
				if evt.OutputTokens > outputTokens {
					outputTokens = evt.OutputTokens
				}
			case provider.EventError:
				streamErr = evt.Err
				break loop
			case provider.EventDone:
				break loop
			}
		}
	}
	parser.Close()

	if streamErr != nil {
		return tools.Call{}, false, fmt.Errorf("agent: stream: %w", streamErr)
	}

	item := history.Item{
		Kind:             history.KindAssistant,
		Content:          content.String(),
		ReasoningContent: reasoning.String(),
		InputTokens:      inputTokens,
		OutputTokens:     outputTokens,
	}
	// A signed thinking block must replay verbatim on the next turn (spec §9
	// "Provider quirks preserved") — the signature only verifies against
	// this exact thinking text.
	if reasoningSignature != "" {
		item.ProviderExtras = provider.ThinkingExtra{Text: reasoning.String(), Signature: reasoningSignature}
	}

	// Cancellation: the partial assistant record is appended without a
	// tool call regardless of how much was received (spec §5
	// "Cancellation", §8 property 7).
	if cancelled {
		l.log.Append(item)
		return tools.Call{}, false, ctx.Err()
	}

	calls := acc.finalize()
	if len(calls) == 0 {
		l.log.Append(item)
		return tools.Call{}, false, nil
	}
	// Parallel tool use is disabled at the wire; a second id arriving
	// anyway is dropped (spec §9 Open Question (a)).
	first := calls[0]
	if len(calls) > 1 {
		log.Warn().Int("count", len(calls)).Msg("agent: provider emitted multiple tool calls in one turn; dropping all but the first")
	}

	item.ToolCall = &history.ToolCallRef{ToolCallID: first.ID, ToolName: first.Name, Arguments: first.Arguments}
	l.log.Append(item)
	l.log.Append(history.Item{Kind: history.KindTool, ToolCall: item.ToolCall})

	return tools.Call{ID: first.ID, Name: first.Name, Arguments: first.Arguments}, true, nil
}

func (l *Loop) emit(text string, kind TokenKind) {
	if text == "" || l.opts.OnTokens == nil {
		return
	}
	l.opts.OnTokens(text, kind)
}

// dispatch runs the tool-dispatch layer for one accumulated call (spec
// §4.C), applying the confirmation policy first, then appending the
// resulting history item.
func (l *Loop) dispatch(ctx context.Context, call tools.Call) {
	tool, ok := l.opts.Registry.Lookup(call.Name)
	// Plan mode skips the confirmation prompt: Dispatch itself deflects
	// every mutating tool to the fixed plan-mode message (spec §3 "Mode",
	// §4.C), so there is nothing destructive to confirm.
	if ok && tool.Confirm == tools.ConfirmUnlessUnchained && l.opts.Mode != config.ModeUnchained && l.opts.Mode != config.ModePlan {
		if l.opts.Confirm == nil || !l.opts.Confirm(call) {
			l.log.Append(history.Item{Kind: history.KindToolReject, ToolCall: &history.ToolCallRef{ToolCallID: call.ID, ToolName: call.Name, Arguments: call.Arguments}})
			return
		}
	}

	outcome := tools.Dispatch(ctx, l.opts.Registry, call, l.opts.Mode, l.fixJSON)
	if retried, ok := l.retryEditWithDiffFix(ctx, call, outcome); ok {
		outcome = retried
	}
	ref := &history.ToolCallRef{ToolCallID: call.ID, ToolName: call.Name, Arguments: call.Arguments}

	switch outcome.Kind {
	case tools.OutcomeToolOutput:
		l.log.Append(history.Item{Kind: history.KindToolOutput, ToolCall: ref, Content: outcome.Content, Lines: outcome.Lines})
	case tools.OutcomeFileRead:
		l.log.Append(history.Item{Kind: history.KindFileRead, ToolCall: ref, Path: outcome.Path, Content: outcome.Content})
		l.notifyFileChanged(history.KindFileRead, outcome.Path, outcome.Content)
	case tools.OutcomeFileMutate:
		l.log.Append(history.Item{Kind: history.KindFileMutate, ToolCall: ref, Path: outcome.Path, Content: outcome.Content})
		l.notifyFileChanged(history.KindFileMutate, outcome.Path, outcome.Content)
	case tools.OutcomePlanWritten:
		l.log.Append(history.Item{Kind: history.KindPlanWritten, PlanFilePath: outcome.Path, Content: outcome.Content})
	case tools.OutcomeToolFailed:
		l.log.Append(history.Item{Kind: history.KindToolFailed, ToolCall: ref, Error: outcome.Error})
	case tools.OutcomeToolMalformed:
		l.log.Append(history.Item{Kind: history.KindToolMalformed, ToolCall: ref, Error: outcome.Error})
	case tools.OutcomeFileOutdated:
		l.log.Append(history.Item{Kind: history.KindFileOutdated, ToolCall: ref, Path: outcome.Path, Error: outcome.Error})
		if l.opts.Tracker != nil && outcome.Path != "" {
			l.opts.Tracker.Forget(outcome.Path)
		}
	case tools.OutcomeFileUnreadable:
		l.log.Append(history.Item{Kind: history.KindFileUnreadable, ToolCall: ref, Path: outcome.Path, Error: outcome.Error})
	}
}

// notifyFileChanged reports a file-producing tool's result to
// Options.OnFileChanged, if set. content is the tool's own result text:
// the whole file for a read, the diff or confirmation message for a
// mutate.
func (l *Loop) notifyFileChanged(kind history.Kind, path, content string) {
	if l.opts.OnFileChanged != nil && path != "" {
		l.opts.OnFileChanged(kind, path, content)
	}
}

// editRetryArgs mirrors tools.EditArgs locally so the retry path doesn't
// need to import the concrete argument type from internal/tools.
type editRetryArgs struct {
	Path    string `json:"path"`
	Search  string `json:"search"`
	Replace string `json:"replace"`
}

// retryEditWithDiffFix implements the diff autofixer (spec §4.I): when an
// edit call fails because its search text wasn't found verbatim, ask
// Options.DiffFix for a corrected search string against the file's actual
// content, and retry the edit exactly once with it.
func (l *Loop) retryEditWithDiffFix(ctx context.Context, call tools.Call, outcome tools.Outcome) (tools.Outcome, bool) {
	if l.opts.DiffFix == nil || call.Name != "edit" || outcome.Kind != tools.OutcomeToolFailed {
		return tools.Outcome{}, false
	}
	if !strings.Contains(outcome.Error, "search text not found") {
		return tools.Outcome{}, false
	}

	var args editRetryArgs
	if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
		return tools.Outcome{}, false
	}

	var original string
	if l.opts.Tracker != nil {
		content, err := l.opts.Tracker.Read(args.Path)
		if err != nil {
			return tools.Outcome{}, false
		}
		original = content
	}

	fixedSearch, ok := l.opts.DiffFix(ctx, original, args.Search, args.Replace)
	if !ok || fixedSearch == args.Search {
		return tools.Outcome{}, false
	}

	fixedArgs, err := json.Marshal(editRetryArgs{Path: args.Path, Search: fixedSearch, Replace: args.Replace})
	if err != nil {
		return tools.Outcome{}, false
	}
	retryCall := tools.Call{ID: call.ID, Name: call.Name, Arguments: string(fixedArgs)}
	return tools.Dispatch(ctx, l.opts.Registry, retryCall, l.opts.Mode, l.fixJSON), true
}

// fixJSON adapts Options.JSONFix to the tools.JSONFixer shape Dispatch
// expects, tolerating a nil fixer (no autofix configured).
func (l *Loop) fixJSON(ctx context.Context, rawArgs, toolName, tsType string) (json.RawMessage, bool) {
	if l.opts.JSONFix == nil {
		return nil, false
	}
	return l.opts.JSONFix(ctx, rawArgs, toolName, tsType)
}

// maybeCompact runs history compaction (spec §4.H) when the current log
// crosses Options.CompactionTrigger. The loop is single-threaded and
// cooperative (spec §5), so no items can be appended concurrently with the
// summarization call; appendedSince is therefore always empty here, but
// compaction.Compact still accepts it so a future concurrent driver (e.g.
// a UI accepting a queued message mid-compaction) has somewhere to put it.
// A failed compaction is surfaced as a notification item and otherwise
// ignored: the turn continues against the uncompacted history (spec §4.H
// step 4 "restore history", which for this single-threaded loop means
// simply not replacing it).
func (l *Loop) maybeCompact(ctx context.Context) {
	if l.opts.Compaction == nil || l.opts.CompactionTrigger <= 0 {
		return
	}
	snapshot := l.log.Items()
	if !compaction.ShouldTrigger(snapshot, l.opts.CompactionTrigger) {
		return
	}

	if l.opts.OnCompacting != nil {
		l.opts.OnCompacting(true)
		defer l.opts.OnCompacting(false)
	}

	result, err := compaction.Compact(ctx, compaction.Options{
		Provider: l.opts.Compaction,
		Model:    l.opts.CompactionModel,
	}, snapshot, nil)
	if err != nil {
		log.Warn().Err(err).Msg("agent: history compaction failed")
		l.log.Append(compaction.NotificationItem(err))
		return
	}
	l.log.Replace(result)
}

// injectRecitation appends a <system-reminder> to the most recent tool
// result every reminderInterval rounds, echoing the user's original request
// so it stays in the model's recent attention window during long
// tool-calling runs (spec §14, grounded on the teacher's injectRecitation).
func (l *Loop) injectRecitation(round int) {
	if round == 0 || round%reminderInterval != 0 {
		return
	}
	idx := l.log.LastToolResultIndex()
	if idx < 0 {
		return
	}
	items := l.log.Items()
	var goal string
	for _, it := range items {
		if it.Kind == history.KindUser {
			goal = "The user's original request: " + it.Content
			break
		}
	}
	if goal == "" {
		return
	}
	const tag = "\n\n<system-reminder>\n"
	l.log.MutateAt(idx, func(it *history.Item) {
		if i := strings.Index(it.Content, tag); i >= 0 {
			it.Content = it.Content[:i]
		}
		it.Content += tag + goal + "\n</system-reminder>"
	})
}

// warnOnRepeat appends a warning to the last tool result when the three
// most recent tool calls are identical (spec §14 "Repeated-call warning",
// grounded on the teacher's loop.go).
func (l *Loop) warnOnRepeat(recent []tools.Call) {
	if len(recent) < 3 {
		return
	}
	last3 := recent[len(recent)-3:]
	if !(last3[0].Name == last3[1].Name && last3[1].Name == last3[2].Name &&
		last3[0].Arguments == last3[1].Arguments && last3[1].Arguments == last3[2].Arguments) {
		return
	}
	idx := l.log.LastToolResultIndex()
	if idx < 0 {
		return
	}
	l.log.MutateAt(idx, func(it *history.Item) {
		it.Content += "\n\n<system-reminder>WARNING: You are repeating the same tool call with the same arguments. This is wasteful. Stop and either try a different approach, summarize what you know, or ask the user for help.</system-reminder>"
	})
}

// toolCallAccumulator tracks tool-call deltas as they stream in, keyed by
// the provider's wire index (spec §4.F step 4 "tool-call delta").
type toolCallAccumulator struct {
	byIndex map[int]int
	calls   []tools.Call
}

func newAccumulator() *toolCallAccumulator {
	return &toolCallAccumulator{byIndex: make(map[int]int)}
}

func (a *toolCallAccumulator) begin(evt provider.StreamEvent) {
	pos := len(a.calls)
	a.byIndex[evt.ToolCallIndex] = pos
	a.calls = append(a.calls, tools.Call{ID: evt.ToolCallID, Name: evt.ToolCallName})
}

func (a *toolCallAccumulator) delta(evt provider.StreamEvent) {
	pos, ok := a.byIndex[evt.ToolCallIndex]
	if !ok {
		return
	}
	a.calls[pos].Arguments += evt.ToolCallArgs
}

func (a *toolCallAccumulator) finalize() []tools.Call {
	return a.calls
}
