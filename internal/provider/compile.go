package provider

import (
	"encoding/json"

	"github.com/octocli/octo/internal/ir"
)

// Compile lowers IR messages into the provider-agnostic wire Message shape.
// A system prompt is prepended as a roleSystem message; each provider's own
// toXMessages then hoists roleSystem messages out into its native system
// slot (Anthropic) or merges them (OpenAI-compatible).
func Compile(systemPrompt string, messages []ir.Message) []Message {
	out := make([]Message, 0, len(messages)+1)
	if systemPrompt != "" {
		out = append(out, Message{Role: roleSystem, Content: systemPrompt})
	}

	for _, m := range messages {
		switch m.Kind {
		case ir.KindUser:
			out = append(out, Message{Role: "user", Content: m.Content})

		case ir.KindCompactionCheckpoint:
			out = append(out, Message{Role: "user", Content: m.Content})

		case ir.KindAssistant:
			msg := Message{
				Role:           "assistant",
				Content:        m.Content,
				Reasoning:      m.ReasoningContent,
				InputTokens:    m.InputTokens,
				OutputTokens:   m.OutputTokens,
				ProviderExtras: m.ProviderExtras,
			}
			if m.ToolCallID != "" {
				args := m.ToolCallArgs
				if args == "" {
					args = "{}"
				}
				msg.ToolCalls = []ToolCall{{
					ID:        m.ToolCallID,
					Name:      m.ToolName,
					Arguments: json.RawMessage(args),
				}}
			}
			out = append(out, msg)

		case ir.KindFileRead, ir.KindToolOutput, ir.KindFileMutate, ir.KindToolError:
			out = append(out, Message{
				Role:         "tool",
				Content:      m.Content,
				ToolCallID:   m.ToolCallID,
				FunctionName: m.ToolName,
				IsError:      m.IsError,
			})
		}
	}
	return out
}
