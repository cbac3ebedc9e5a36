package subagent

import (
	"context"
	"testing"

	"github.com/octocli/octo/internal/filetracker"
	"github.com/octocli/octo/internal/provider"
	"github.com/octocli/octo/internal/tools"
)

func TestRunReturnsFinalAssistantContent(t *testing.T) {
	mock := provider.NewMock("mock", "Finished the delegated task: renamed the package.")
	r := Runner{
		Provider:      mock,
		Registry:      tools.NewRegistry(),
		ContextBudget: 100_000,
	}

	content, _, outputTokens, err := r.Run(context.Background(), "rename the package to foo", 3)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if content != "Finished the delegated task: renamed the package." {
		t.Fatalf("unexpected content: %q", content)
	}
	if outputTokens <= 0 {
		t.Fatalf("expected positive output token accounting, got %d", outputTokens)
	}
}

func TestRunRequiresPrompt(t *testing.T) {
	r := Runner{Provider: provider.NewMock("mock", "x"), Registry: tools.NewRegistry()}
	if _, _, _, err := r.Run(context.Background(), "", 1); err == nil {
		t.Fatalf("expected an error for an empty prompt")
	}
}

func TestFilterTaskRemovesTaskTool(t *testing.T) {
	tracker := filetracker.New()
	all := []tools.Tool{
		tools.NewReadTool(tracker),
		tools.NewTaskTool(func(ctx context.Context, prompt string, maxIterations int) (string, int, int, error) {
			return "", 0, 0, nil
		}),
	}
	filtered := FilterTask(all)
	if len(filtered) != 1 {
		t.Fatalf("expected task tool filtered out, got %d tools", len(filtered))
	}
	if filtered[0].Name == "task" {
		t.Fatalf("task tool should have been removed")
	}
}
