package agent

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/octocli/octo/internal/config"
	"github.com/octocli/octo/internal/filetracker"
	"github.com/octocli/octo/internal/history"
	"github.com/octocli/octo/internal/provider"
	"github.com/octocli/octo/internal/tools"
)

func newTestLoop(t *testing.T, p provider.Provider, reg *tools.Registry) (*Loop, *history.Log) {
	t.Helper()
	log := history.New()
	l := New(Options{
		Provider:      p,
		Registry:      reg,
		ContextBudget: 100_000,
		SystemPrompt:  func(bool) string { return "system" },
	}, log)
	return l, log
}

// sequencedProvider replays a fixed sequence of *MockProvider responses,
// one per ChatStream call, for tests that need a turn's tool-call round
// followed by a terminal round within a single Loop.Run invocation.
type sequencedProvider struct {
	mu    sync.Mutex
	steps []*provider.MockProvider
	next  int
}

func (s *sequencedProvider) ChatStream(ctx context.Context, messages []provider.Message, tools []provider.Tool) (<-chan provider.StreamEvent, error) {
	s.mu.Lock()
	i := s.next
	if i < len(s.steps)-1 {
		s.next++
	}
	p := s.steps[i]
	s.mu.Unlock()
	return p.ChatStream(ctx, messages, tools)
}

func (s *sequencedProvider) Name() string { return "sequenced" }

func (s *sequencedProvider) ListModels(ctx context.Context) ([]provider.Model, error) {
	return nil, nil
}

func (s *sequencedProvider) Close() error { return nil }

// TestS1HappyPathToolCall mirrors spec.md scenario S1: a read tool call
// followed by a plain-text terminal turn.
func TestS1HappyPathToolCall(t *testing.T) {
	dir := t.TempDir()
	readme := filepath.Join(dir, "README")
	if err := os.WriteFile(readme, []byte("hello\nworld\n\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tracker := filetracker.New()
	reg := tools.NewRegistry(tools.NewReadTool(tracker))

	args, _ := json.Marshal(tools.ReadArgs{Path: readme})
	toolStep := provider.NewMock("mock", "").WithToolCalls([]provider.ToolCall{{ID: "call_1", Name: "read", Arguments: args}})
	textStep := provider.NewMock("mock", "It says hello, world.")
	seq := &sequencedProvider{steps: []*provider.MockProvider{toolStep, textStep}}

	l, log := newTestLoop(t, seq, reg)
	if err := l.Run(context.Background(), "What's in ./README?", nil); err != nil {
		t.Fatalf("run: %v", err)
	}

	items := log.Items()
	if len(items) != 5 {
		t.Fatalf("expected user, assistant(tool), tool, file-read, assistant(text); got %d: %+v", len(items), items)
	}
	if items[0].Kind != history.KindUser {
		t.Fatalf("item 0: expected user, got %v", items[0].Kind)
	}
	if items[1].Kind != history.KindAssistant || items[1].ToolCall == nil || items[1].ToolCall.ToolName != "read" {
		t.Fatalf("item 1: expected assistant with read tool call, got %+v", items[1])
	}
	if items[2].Kind != history.KindTool {
		t.Fatalf("item 2: expected tool, got %v", items[2].Kind)
	}
	if items[3].Kind != history.KindFileRead || items[3].Content != "hello\nworld\n\n" {
		t.Fatalf("item 3: expected file-read with content, got %+v", items[3])
	}
	last := items[4]
	if last.Kind != history.KindAssistant || last.Content != "It says hello, world." || last.ToolCall != nil {
		t.Fatalf("expected terminal assistant turn, got %+v", last)
	}
}

// TestS3ReasoningSplit mirrors spec.md scenario S3: <think> content is
// lifted into reasoning, the rest becomes assistant content.
func TestS3ReasoningSplit(t *testing.T) {
	mock := provider.NewMock("mock", "<think>pondering</think>Answer: 42")
	reg := tools.NewRegistry()
	l, log := newTestLoop(t, mock, reg)

	var gotReasoning, gotContent string
	l.opts.OnTokens = func(text string, kind TokenKind) {
		switch kind {
		case TokenReasoning:
			gotReasoning += text
		case TokenContent:
			gotContent += text
		}
	}

	if err := l.Run(context.Background(), "think about it", nil); err != nil {
		t.Fatalf("run: %v", err)
	}

	if gotReasoning != "pondering" {
		t.Fatalf("expected reasoning tokens %q, got %q", "pondering", gotReasoning)
	}
	if gotContent != "Answer: 42" {
		t.Fatalf("expected content tokens %q, got %q", "Answer: 42", gotContent)
	}

	items := log.Items()
	last := items[len(items)-1]
	if last.ReasoningContent != "pondering" || last.Content != "Answer: 42" {
		t.Fatalf("unexpected assistant record: %+v", last)
	}
}

// TestPlanModeBlocksMutatingTool mirrors spec.md scenario S5: a mutating
// tool call in plan mode returns the fixed plan-mode message instead of
// touching disk, and no file-mutate item is recorded.
func TestPlanModeBlocksMutatingTool(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("foo"), 0o644); err != nil {
		t.Fatal(err)
	}
	tracker := filetracker.New()
	if _, err := tracker.Read(path); err != nil {
		t.Fatal(err)
	}

	reg := tools.NewRegistry(tools.NewEditTool(tracker))
	args, _ := json.Marshal(tools.EditArgs{Path: path, Search: "foo", Replace: "baz"})
	toolStep := provider.NewMock("mock", "").WithToolCalls([]provider.ToolCall{{ID: "c1", Name: "edit", Arguments: args}})
	textStep := provider.NewMock("mock", "done")
	seq := &sequencedProvider{steps: []*provider.MockProvider{toolStep, textStep}}

	log := history.New()
	l := New(Options{
		Provider:      seq,
		Registry:      reg,
		Tracker:       tracker,
		Mode:          config.ModePlan,
		ContextBudget: 100_000,
		SystemPrompt:  func(bool) string { return "system" },
	}, log)

	if err := l.Run(context.Background(), "edit it", nil); err != nil {
		t.Fatalf("run: %v", err)
	}

	items := log.Items()
	for _, it := range items {
		if it.Kind == history.KindFileMutate {
			t.Fatalf("plan mode must never record a file-mutate item, got %+v", it)
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "foo" {
		t.Fatalf("plan mode must never touch disk, file now contains %q", data)
	}
}
