package agent

import (
	"strings"
	"testing"

	"github.com/octocli/octo/internal/history"
)

func TestWindowKeepsEverythingUnderBudget(t *testing.T) {
	items := []history.Item{
		{Kind: history.KindUser, Content: "hi"},
		{Kind: history.KindAssistant, Content: "hello"},
	}
	kept, applied, ok := Window(items, 10_000)
	if !ok || applied {
		t.Fatalf("expected no windowing needed, got applied=%v ok=%v", applied, ok)
	}
	if len(kept) != len(items) {
		t.Fatalf("expected all items kept, got %d", len(kept))
	}
}

func TestWindowDropsOldestWholeUnits(t *testing.T) {
	big := strings.Repeat("x", 4000) // ~1000 tokens
	items := []history.Item{
		{Kind: history.KindUser, Content: big},
		{Kind: history.KindAssistant, Content: big, ToolCall: &history.ToolCallRef{ToolCallID: "1", ToolName: "read"}},
		{Kind: history.KindTool, ToolCall: &history.ToolCallRef{ToolCallID: "1", ToolName: "read"}},
		{Kind: history.KindFileRead, Content: big, ToolCall: &history.ToolCallRef{ToolCallID: "1", ToolName: "read"}},
		{Kind: history.KindUser, Content: "latest question"},
		{Kind: history.KindAssistant, Content: "latest answer"},
	}

	kept, applied, ok := Window(items, 300) // small budget forces drops
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if !applied {
		t.Fatalf("expected windowing to have dropped something")
	}
	// The two oldest units (the lone user item, then the
	// assistant+tool+file-read trio) must be dropped whole; the final
	// user/assistant pair must survive.
	if len(kept) != 2 {
		t.Fatalf("expected 2 items kept (the final pair), got %d: %+v", len(kept), kept)
	}
	if kept[0].Content != "latest question" || kept[1].Content != "latest answer" {
		t.Fatalf("unexpected kept items: %+v", kept)
	}
}

func TestWindowNeverSplitsAPair(t *testing.T) {
	big := strings.Repeat("x", 4000)
	items := []history.Item{
		{Kind: history.KindUser, Content: strings.Repeat("q", 40)},
		{Kind: history.KindAssistant, Content: big, ToolCall: &history.ToolCallRef{ToolCallID: "1"}},
		{Kind: history.KindTool, ToolCall: &history.ToolCallRef{ToolCallID: "1"}},
		{Kind: history.KindFileRead, Content: big, ToolCall: &history.ToolCallRef{ToolCallID: "1"}},
	}
	// Budget big enough for the last unit alone, too small for both.
	kept, applied, ok := Window(items, itemTokens(items[1])+itemTokens(items[2])+itemTokens(items[3])+5)
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if !applied {
		t.Fatalf("expected the first unit (the lone user item) to be dropped")
	}
	if len(kept) != 3 {
		t.Fatalf("expected the assistant/tool/file-read trio kept whole, got %d items", len(kept))
	}
}

func TestWindowPreservesCompactionFloor(t *testing.T) {
	big := strings.Repeat("x", 40000)
	items := []history.Item{
		{Kind: history.KindCompactionCheckpoint, Summary: big},
		{Kind: history.KindUser, Content: big},
	}
	_, _, ok := Window(items, 10)
	if ok {
		t.Fatalf("expected ok=false: the floor itself exceeds the budget")
	}
}
