// Package compaction implements history compaction (spec §4.H):
// summarize-and-replace. When the estimated token count of a session's
// history crosses a configurable threshold, the agent loop pauses, asks
// the model for a `<summary>` block describing the work so far, and
// replaces the history prefix with a single compaction-checkpoint item.
//
// Grounded on the teacher's internal/llm/loop.go one-shot completion
// pattern (emitAssistant / streamAndCollect) generalized from "collect one
// assistant turn" to "collect one non-agentic summarization turn", reusing
// internal/provider.Collect for the same reason internal/autofix's
// fixers do: this call has no tool-call round-trip and no history
// bookkeeping of its own.
package compaction

import (
	"context"
	"fmt"
	"strings"

	"github.com/octocli/octo/internal/history"
	"github.com/octocli/octo/internal/ir"
	"github.com/octocli/octo/internal/provider"
)

const summaryOpenTag = "<summary>"
const summaryCloseTag = "</summary>"

// systemPrompt instructs the model to summarize rather than converse.
const systemPrompt = "You are compacting a coding session's history. Read the conversation below and respond with a single <summary>...</summary> block describing: work completed, files touched, in-progress work, and outstanding issues. Do not include anything outside the <summary> tags."

const userInstruction = "Summarize the session above now."

// Error wraps a failed compaction attempt with a reconstructable request
// description for manual retry (spec §4.H step 4, §7 "captured cURL").
// Curl is a best-effort textual reconstruction, not a byte-exact replay —
// enough for a human to re-issue the same completion by hand.
type Error struct {
	Curl string
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("compaction failed: %v", e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// EstimateTokens uses the same char/4 heuristic internal/agent's windowing
// uses; compaction and windowing both only need a rough trigger, not an
// exact count, since the provider's own usage report is authoritative.
func EstimateTokens(items []history.Item) int {
	total := 0
	for _, it := range items {
		total += len(it.Content)/4 + len(it.ReasoningContent)/4 + len(it.Error)/4 + len(it.Summary)/4
		if it.ToolCall != nil {
			total += len(it.ToolCall.Arguments) / 4
		}
	}
	return total
}

// ShouldTrigger reports whether history's estimated size has crossed the
// configured compaction threshold (spec §4.H "triggered when estimated
// tokens exceed a configurable threshold").
func ShouldTrigger(items []history.Item, triggerTokens int) bool {
	return EstimateTokens(items) > triggerTokens
}

// Options configures a single compaction attempt.
type Options struct {
	Provider provider.Provider
	Model    string
}

// Compact runs the summarize-and-replace procedure against snapshot, a
// copy of history taken at the moment the caller paused the agent loop
// (spec §4.H step 1). appendedSince holds any items the loop accepted
// after the snapshot but before compaction finished (e.g. spec S6's "any
// items appended during compaction") — these survive compaction untouched.
//
// On success, Compact returns the full replacement item slice to pass to
// Log.Replace: a single compaction-checkpoint item carrying the model's
// summary, followed by appendedSince in order. On failure, the caller must
// restore history rather than truncate it (spec §4.H step 4, §7) — Compact
// itself mutates nothing, so "restoring" is simply discarding its error
// result and continuing to use snapshot+appendedSince as before.
func Compact(ctx context.Context, opts Options, snapshot []history.Item, appendedSince []history.Item) ([]history.Item, error) {
	messages := ir.Compile(snapshot)
	wire := provider.Compile(systemPrompt, messages)
	wire = append(wire, provider.Message{Role: "user", Content: userInstruction})

	resp, err := provider.Collect(ctx, opts.Provider, wire, nil, nil)
	if err != nil {
		return nil, &Error{Curl: reconstructCurl(opts.Model, wire), Err: err}
	}

	summary, ok := extractSummary(resp.Content)
	if !ok {
		return nil, &Error{
			Curl: reconstructCurl(opts.Model, wire),
			Err:  fmt.Errorf("summarization response did not contain a %s block", summaryOpenTag),
		}
	}

	out := make([]history.Item, 0, 1+len(appendedSince))
	out = append(out, history.Item{Kind: history.KindCompactionCheckpoint, Summary: summary})
	out = append(out, appendedSince...)
	return out, nil
}

// extractSummary pulls the content between the first matched pair of
// <summary> tags. Models occasionally wrap the block in prose or
// markdown fences despite the instruction; this tolerates leading/trailing
// text around the tags but requires the tags themselves to be present.
func extractSummary(content string) (string, bool) {
	start := strings.Index(content, summaryOpenTag)
	if start < 0 {
		return "", false
	}
	start += len(summaryOpenTag)
	end := strings.Index(content[start:], summaryCloseTag)
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(content[start : start+end]), true
}

// reconstructCurl renders a human-retriable description of the
// summarization request. It is not a literal wire-format dump (each
// provider's own request shape is private to its compiler); it gives a
// human enough to manually retry against the configured model.
func reconstructCurl(model string, messages []provider.Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "curl -X POST <provider-endpoint> -d '{\"model\":%q,\"messages\":[", model)
	for i, m := range messages {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, "{\"role\":%q,\"content\":...}", m.Role)
	}
	b.WriteString("]}'")
	return b.String()
}

// NotificationItem renders a failed compaction as a human-visible,
// never-compiled-to-the-model history item (spec §7 "surfaced specially"),
// using the same KindNotification variant the IR compiler already skips
// (internal/ir.Compile treats KindNotification as UI-only).
func NotificationItem(err error) history.Item {
	return history.Item{Kind: history.KindNotification, Error: err.Error()}
}
