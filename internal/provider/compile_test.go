package provider

import (
	"testing"

	"github.com/octocli/octo/internal/ir"
)

func TestCompilePrependsSystemPrompt(t *testing.T) {
	msgs := Compile("be helpful", []ir.Message{{Kind: ir.KindUser, Content: "hi"}})
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].Role != roleSystem || msgs[0].Content != "be helpful" {
		t.Fatalf("got %+v", msgs[0])
	}
	if msgs[1].Role != "user" || msgs[1].Content != "hi" {
		t.Fatalf("got %+v", msgs[1])
	}
}

func TestCompileAssistantToolCallCarriesArguments(t *testing.T) {
	msgs := Compile("", []ir.Message{{
		Kind: ir.KindAssistant, Content: "", ToolCallID: "tc1", ToolName: "read", ToolCallArgs: `{"path":"a.go"}`,
	}})
	if len(msgs) != 1 {
		t.Fatalf("got %d messages", len(msgs))
	}
	if len(msgs[0].ToolCalls) != 1 || string(msgs[0].ToolCalls[0].Arguments) != `{"path":"a.go"}` {
		t.Fatalf("got %+v", msgs[0].ToolCalls)
	}
}

func TestCompileToolErrorSetsIsError(t *testing.T) {
	msgs := Compile("", []ir.Message{{
		Kind: ir.KindToolError, Content: "boom", ToolCallID: "tc1", IsError: true,
	}})
	if len(msgs) != 1 || !msgs[0].IsError {
		t.Fatalf("got %+v", msgs)
	}
}

func TestThinkingBudgetMapping(t *testing.T) {
	cases := []struct {
		level string
		want  int
	}{
		{"", 0},
		{"low", 2048},
		{"medium", 4096},
		{"high", 8192},
		{"nonsense", 0},
	}
	for _, c := range cases {
		got := Options{ReasoningLevel: c.level}.ThinkingBudget()
		if got != c.want {
			t.Errorf("ThinkingBudget(%q) = %d, want %d", c.level, got, c.want)
		}
	}
}

func TestMaxTokensClampedByContextWindow(t *testing.T) {
	opts := Options{ReasoningLevel: "high", ContextWindow: 4000}
	if got := opts.MaxTokens(); got != 4000 {
		t.Fatalf("got %d, want 4000", got)
	}

	opts2 := Options{ReasoningLevel: "low"}
	if got := opts2.MaxTokens(); got != 32000-2048 {
		t.Fatalf("got %d, want %d", got, 32000-2048)
	}
}

func TestCompileCarriesProviderExtras(t *testing.T) {
	extra := ThinkingExtra{Text: "let me think", Signature: "sig-1"}
	msgs := Compile("", []ir.Message{{
		Kind: ir.KindAssistant, Content: "done", ProviderExtras: extra,
	}})
	if len(msgs) != 1 {
		t.Fatalf("got %d messages", len(msgs))
	}
	got, ok := msgs[0].ProviderExtras.(ThinkingExtra)
	if !ok || got != extra {
		t.Fatalf("got ProviderExtras %+v, want %+v", msgs[0].ProviderExtras, extra)
	}
}

func TestToAnthropicMessagesReplaysSignedThinkingBlock(t *testing.T) {
	_, msgs := toAnthropicMessages([]Message{
		{
			Role:           "assistant",
			Content:        "here's the plan",
			ProviderExtras: ThinkingExtra{Text: "reasoning...", Signature: "sig-abc"},
			ToolCalls:      []ToolCall{{ID: "tc1", Name: "read", Arguments: []byte(`{"path":"a.go"}`)}},
		},
	})
	if len(msgs) != 1 {
		t.Fatalf("got %d messages", len(msgs))
	}
	blocks, ok := msgs[0].Content.([]interface{})
	if !ok || len(blocks) != 3 {
		t.Fatalf("got content %+v", msgs[0].Content)
	}
	think, ok := blocks[0].(anthropicThinkingBlock)
	if !ok || think.Thinking != "reasoning..." || think.Signature != "sig-abc" {
		t.Fatalf("got first block %+v", blocks[0])
	}
}

func TestToAnthropicMessagesHoistsSystemAndMarksErrorResult(t *testing.T) {
	system, msgs := toAnthropicMessages([]Message{
		{Role: roleSystem, Content: "sys1"},
		{Role: "user", Content: "hi"},
		{Role: "tool", ToolCallID: "tc1", Content: "boom", IsError: true},
	})
	if len(system) != 1 || system[0].Text != "sys1" {
		t.Fatalf("got system %+v", system)
	}
	if system[0].CacheControl == nil {
		t.Fatalf("expected last system block to carry cache_control")
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	blocks, ok := msgs[1].Content.([]anthropicToolResultBlock)
	if !ok || len(blocks) != 1 || !blocks[0].IsError {
		t.Fatalf("got %+v", msgs[1].Content)
	}
}
