package compaction

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/octocli/octo/internal/history"
	"github.com/octocli/octo/internal/provider"
)

func sampleSnapshot() []history.Item {
	return []history.Item{
		{Kind: history.KindUser, Content: "add a retry loop to the fetch tool"},
		{Kind: history.KindAssistant, Content: "done, added exponential backoff"},
	}
}

func TestCompactSuccessReplacesHistory(t *testing.T) {
	mock := provider.NewMock("mock", "Sure thing.\n<summary>Added retry loop to fetch tool; no outstanding issues.</summary>\n")
	out, err := Compact(context.Background(), Options{Provider: mock, Model: "mock-model"}, sampleSnapshot(), nil)
	if err != nil {
		t.Fatalf("compact: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected a single checkpoint item, got %d", len(out))
	}
	if out[0].Kind != history.KindCompactionCheckpoint {
		t.Fatalf("expected compaction-checkpoint, got %v", out[0].Kind)
	}
	if !strings.Contains(out[0].Summary, "retry loop") {
		t.Fatalf("unexpected summary: %q", out[0].Summary)
	}
}

func TestCompactPreservesItemsAppendedDuringCompaction(t *testing.T) {
	mock := provider.NewMock("mock", "<summary>work summarized</summary>")
	appended := []history.Item{
		{Kind: history.KindUser, Content: "one more thing while you were compacting"},
	}
	out, err := Compact(context.Background(), Options{Provider: mock, Model: "mock-model"}, sampleSnapshot(), appended)
	if err != nil {
		t.Fatalf("compact: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected checkpoint + 1 appended item, got %d", len(out))
	}
	if out[1].Content != appended[0].Content {
		t.Fatalf("expected appended item preserved verbatim, got %+v", out[1])
	}
}

func TestCompactMissingSummaryTagFails(t *testing.T) {
	mock := provider.NewMock("mock", "I'm not going to follow the instructions.")
	_, err := Compact(context.Background(), Options{Provider: mock, Model: "mock-model"}, sampleSnapshot(), nil)
	if err == nil {
		t.Fatalf("expected an error when no <summary> block is present")
	}
	var cerr *Error
	if !errors.As(err, &cerr) {
		t.Fatalf("expected a *compaction.Error, got %T", err)
	}
	if cerr.Curl == "" {
		t.Fatalf("expected a non-empty retry curl on failure")
	}
}

func TestCompactProviderErrorIsWrapped(t *testing.T) {
	boom := errors.New("connection reset")
	mock := provider.NewMock("mock", "").WithStreamError(boom)
	_, err := Compact(context.Background(), Options{Provider: mock, Model: "mock-model"}, sampleSnapshot(), nil)
	if err == nil {
		t.Fatalf("expected an error")
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error to unwrap to the provider error, got %v", err)
	}
}

func TestShouldTrigger(t *testing.T) {
	small := []history.Item{{Kind: history.KindUser, Content: "hi"}}
	if ShouldTrigger(small, 100_000) {
		t.Fatalf("small history should not trigger compaction")
	}
	big := []history.Item{{Kind: history.KindUser, Content: strings.Repeat("x", 500_000)}}
	if !ShouldTrigger(big, 100_000) {
		t.Fatalf("large history should trigger compaction")
	}
}
