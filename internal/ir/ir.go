// Package ir lowers the append-only history log into a provider-neutral
// intermediate representation (spec §4.D). Each provider compiler
// (internal/provider) maps these variants 1:1 onto its wire format.
package ir

import (
	"github.com/octocli/octo/internal/history"
)

// Kind discriminates IR message variants. These map 1:1 onto the history
// kinds that survive compilation (compaction-checkpoint items before the
// most recent one are dropped per spec §3 invariant 4).
type Kind int

const (
	KindAssistant Kind = iota
	KindUser
	KindFileRead
	KindToolOutput
	KindFileMutate
	KindToolError // tool-reject, tool-failed, tool-malformed, file-outdated, file-unreadable
	KindCompactionCheckpoint
)

// Message is one provider-neutral IR item.
type Message struct {
	Kind Kind

	Content          string
	ReasoningContent string
	Images           []string

	ToolCallID   string
	ToolName     string
	ToolCallArgs string // raw JSON, only set for the assistant message that issued the call

	// IsError marks tool-result-shaped messages (file-read, tool-output,
	// file-mutate, tool-error) that represent a failure; the provider
	// compiler renders this as Anthropic's is_error or an OpenAI
	// <tool-error> wrapper (spec §4.D.2).
	IsError bool

	ProviderExtras any

	InputTokens  int
	OutputTokens int
}

// rewrittenReadStub replaces the body of a superseded file-read so older
// reads don't bloat context (spec §4.D.1): the last (most recent) read of a
// path keeps its full content; every older read of the same path collapses
// to a short stub.
const rewrittenReadStub = "File was successfully read."

// Compile lowers history items into the IR, applying:
//  1. terminal-read deduplication: walking in reverse, the first file-read
//     seen for a path keeps full content; older reads of the same path are
//     rewritten to a stub.
//  2. error framing: tool-reject/tool-failed/tool-malformed/file-outdated/
//     file-unreadable become IsError-marked tool-result messages.
//
// Only items at or after the most recent compaction-checkpoint are visible
// (spec §3 invariant 4); items before it are dropped, and the checkpoint
// itself becomes a single KindCompactionCheckpoint IR message carrying its
// summary, framed by the provider compiler as a prior user message.
func Compile(items []history.Item) []Message {
	start := 0
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].Kind == history.KindCompactionCheckpoint {
			start = i
			break
		}
	}
	visible := items[start:]

	seenRead := make(map[string]bool, 8)
	out := make([]Message, 0, len(visible))

	// Walk in reverse to find which file-read per path is the "last" one,
	// then emit in forward order so IR ordering matches history ordering.
	keepFull := make([]bool, len(visible))
	for i := len(visible) - 1; i >= 0; i-- {
		it := visible[i]
		if it.Kind != history.KindFileRead {
			continue
		}
		if !seenRead[it.Path] {
			seenRead[it.Path] = true
			keepFull[i] = true
		}
	}

	for i, it := range visible {
		switch it.Kind {
		case history.KindUser:
			out = append(out, Message{Kind: KindUser, Content: it.Content, Images: it.Images})

		case history.KindAssistant:
			msg := Message{
				Kind:             KindAssistant,
				Content:          it.Content,
				ReasoningContent: it.ReasoningContent,
				ProviderExtras:   it.ProviderExtras,
				InputTokens:      it.InputTokens,
				OutputTokens:     it.OutputTokens,
			}
			if it.ToolCall != nil {
				msg.ToolCallID = it.ToolCall.ToolCallID
				msg.ToolName = it.ToolCall.ToolName
				msg.ToolCallArgs = it.ToolCall.Arguments
			}
			out = append(out, msg)

		case history.KindTool:
			// Pure dispatch record; carries no separate wire content.
			continue

		case history.KindToolOutput:
			id, name := toolRef(it)
			out = append(out, Message{Kind: KindToolOutput, Content: it.Content, ToolCallID: id, ToolName: name})

		case history.KindFileRead:
			content := it.Content
			if !keepFull[i] {
				content = rewrittenReadStub
			}
			id, name := toolRef(it)
			out = append(out, Message{Kind: KindFileRead, Content: content, ToolCallID: id, ToolName: name})

		case history.KindFileMutate:
			id, name := toolRef(it)
			out = append(out, Message{Kind: KindFileMutate, Content: it.Path + " was updated.", ToolCallID: id, ToolName: name})

		case history.KindToolReject, history.KindToolFailed, history.KindToolMalformed,
			history.KindFileOutdated, history.KindFileUnreadable:
			out = append(out, compileError(it))

		case history.KindCompactionCheckpoint:
			out = append(out, Message{Kind: KindCompactionCheckpoint, Content: it.Summary})

		case history.KindNotification, history.KindPlanWritten:
			// Human-visible only; never sent to the model.
			continue
		}
	}
	return out
}

func compileError(it history.Item) Message {
	text := it.Error
	if it.Kind == history.KindFileOutdated {
		text += "\n\nThe file has been re-read; its current content is now in context."
	}
	id, name := toolRef(it)
	return Message{
		Kind:       KindToolError,
		Content:    text,
		ToolCallID: id,
		ToolName:   name,
		IsError:    true,
	}
}

// toolRef extracts the (toolCallID, toolName) pair from an item's ToolCall
// reference, tolerating a nil reference rather than panicking.
func toolRef(it history.Item) (string, string) {
	if it.ToolCall == nil {
		return "", ""
	}
	return it.ToolCall.ToolCallID, it.ToolCall.ToolName
}

// ErrorFramedTag is the tag internal/provider's toOpenAIMessages wraps around
// the OpenAI wire representation of error-framed tool results, since the
// Chat Completions tool-message shape has no dedicated is_error field.
const ErrorFramedTag = "tool-error"
