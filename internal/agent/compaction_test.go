package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/octocli/octo/internal/history"
	"github.com/octocli/octo/internal/provider"
	"github.com/octocli/octo/internal/tools"
)

// TestS6CompactionReplacesHistory mirrors spec.md scenario S6: once history
// is estimated past the configured threshold, the next turn triggers
// compaction and the log is replaced by a single checkpoint before the new
// turn's items.
func TestS6CompactionReplacesHistory(t *testing.T) {
	log := history.New()
	// Seed enough bulky history to cross a small trigger threshold.
	log.Append(history.Item{Kind: history.KindUser, Content: strings.Repeat("x", 40_000)})
	log.Append(history.Item{Kind: history.KindAssistant, Content: strings.Repeat("y", 40_000)})

	summarizer := provider.NewMock("summarizer", "<summary>Prior turn discussed a large refactor.</summary>")
	textStep := provider.NewMock("mock", "Got it.")

	reg := tools.NewRegistry()
	l := New(Options{
		Provider:          textStep,
		Registry:          reg,
		ContextBudget:     1_000_000,
		SystemPrompt:      func(bool) string { return "system" },
		Compaction:        summarizer,
		CompactionModel:   "summarizer-model",
		CompactionTrigger: 1000,
	}, log)

	if err := l.Run(context.Background(), "keep going", nil); err != nil {
		t.Fatalf("run: %v", err)
	}

	items := log.Items()
	if items[0].Kind != history.KindCompactionCheckpoint {
		t.Fatalf("expected compaction-checkpoint to lead history, got %v", items[0].Kind)
	}
	if !strings.Contains(items[0].Summary, "refactor") {
		t.Fatalf("unexpected summary: %q", items[0].Summary)
	}
	foundUser := false
	for _, it := range items[1:] {
		if it.Kind == history.KindUser && it.Content == "keep going" {
			foundUser = true
		}
	}
	if !foundUser {
		t.Fatalf("expected the new turn's user item to survive compaction, got %+v", items)
	}
}

// TestCompactionFailureLeavesHistoryIntact mirrors spec.md §4.H step 4 and
// §7 "Compaction failure": on failure, history is restored rather than
// truncated, and a notification item records the failure.
func TestCompactionFailureLeavesHistoryIntact(t *testing.T) {
	log := history.New()
	log.Append(history.Item{Kind: history.KindUser, Content: strings.Repeat("x", 40_000)})

	badSummarizer := provider.NewMock("summarizer", "no summary tags here")
	textStep := provider.NewMock("mock", "ok")

	reg := tools.NewRegistry()
	l := New(Options{
		Provider:          textStep,
		Registry:          reg,
		ContextBudget:     1_000_000,
		SystemPrompt:      func(bool) string { return "system" },
		Compaction:        badSummarizer,
		CompactionModel:   "summarizer-model",
		CompactionTrigger: 1000,
	}, log)

	before := log.Len()
	if err := l.Run(context.Background(), "one more turn", nil); err != nil {
		t.Fatalf("run: %v", err)
	}

	items := log.Items()
	if len(items) < before {
		t.Fatalf("expected history to be preserved (not truncated) on compaction failure")
	}
	foundNotification := false
	for _, it := range items {
		if it.Kind == history.KindNotification && it.Error != "" {
			foundNotification = true
		}
	}
	if !foundNotification {
		t.Fatalf("expected a notification item recording the compaction failure, got %+v", items)
	}
}
