package agent

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/octocli/octo/internal/filetracker"
	"github.com/octocli/octo/internal/history"
	"github.com/octocli/octo/internal/provider"
	"github.com/octocli/octo/internal/tools"
)

// TestDiffAutofixRetriesEditOnce mirrors spec.md §4.I "Diff autofix": a
// failing edit (search text not present verbatim) is retried once with a
// corrected search string, and the correction is applied to disk.
func TestDiffAutofixRetriesEditOnce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.go")
	src := "package main\n\nfunc Greet() string {\n\treturn \"hi\"\n}\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	tracker := filetracker.New()
	if _, err := tracker.Read(path); err != nil {
		t.Fatal(err)
	}
	reg := tools.NewRegistry(tools.NewEditTool(tracker))

	// The model's search string is slightly wrong (extra space); the
	// autofixer is expected to correct it to the exact substring.
	badArgs, _ := json.Marshal(tools.EditArgs{Path: path, Search: "return  \"hi\"", Replace: "return \"bye\""})
	toolStep := provider.NewMock("mock", "").WithToolCalls([]provider.ToolCall{{ID: "c1", Name: "edit", Arguments: badArgs}})
	textStep := provider.NewMock("mock", "done")
	seq := &sequencedProvider{steps: []*provider.MockProvider{toolStep, textStep}}

	var diffFixCalls int
	log := history.New()
	l := New(Options{
		Provider:      seq,
		Registry:      reg,
		Tracker:       tracker,
		ContextBudget: 100_000,
		SystemPrompt:  func(bool) string { return "system" },
		Confirm:       func(tools.Call) bool { return true },
		DiffFix: func(ctx context.Context, original, search, replace string) (string, bool) {
			diffFixCalls++
			return "return \"hi\"", true
		},
	}, log)

	if err := l.Run(context.Background(), "fix the return value", nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	if diffFixCalls != 1 {
		t.Fatalf("expected the diff autofixer to be invoked exactly once, got %d", diffFixCalls)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `return "bye"`) {
		t.Fatalf("expected the corrected edit to apply, got:\n%s", data)
	}

	found := false
	for _, it := range log.Items() {
		if it.Kind == history.KindFileMutate {
			found = true
		}
		if it.Kind == history.KindToolFailed {
			t.Fatalf("expected the retried edit to succeed, not be recorded as failed: %+v", it)
		}
	}
	if !found {
		t.Fatalf("expected a file-mutate item after the successful retry")
	}
}
