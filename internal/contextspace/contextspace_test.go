package contextspace

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/octocli/octo/internal/filetracker"
	"github.com/octocli/octo/internal/history"
)

func TestRebuildAndRenderOpenFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.go")
	src := "package main\n\nfunc main() {}\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	tracker := filetracker.New()
	if _, err := tracker.Read(path); err != nil {
		t.Fatal(err)
	}

	sp := New(tracker, nil)
	sp.Rebuild([]history.Item{
		{Kind: history.KindUser, Content: "look at main.go"},
		{Kind: history.KindFileRead, Path: path, Content: src},
	})

	out := sp.Render()
	if !strings.Contains(out, "## Open files") {
		t.Fatalf("expected an open files section, got:\n%s", out)
	}
	if !strings.Contains(out, path) {
		t.Fatalf("expected %s to be listed, got:\n%s", path, out)
	}
	if !strings.Contains(out, "func main()") {
		t.Fatalf("expected fresh file content in render, got:\n%s", out)
	}
}

func TestRebuildTracksMostRecentMutate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}
	tracker := filetracker.New()
	if _, err := tracker.Read(path); err != nil {
		t.Fatal(err)
	}

	sp := New(tracker, nil)
	sp.Rebuild([]history.Item{
		{ID: 1, Kind: history.KindFileRead, Path: path, Content: "v1"},
		{ID: 2, Kind: history.KindFileMutate, Path: path, Content: "v2"},
	})

	if got := sp.files[path]; got != 2 {
		t.Fatalf("expected path to map to the mutate's sequence id 2, got %d", got)
	}
	if len(sp.files) != 1 {
		t.Fatalf("expected a single deduplicated entry for repeated path, got %d", len(sp.files))
	}
}

func TestRebuildTracksOpenDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "b.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		t.Fatal(err)
	}

	args, _ := json.Marshal(listArgs{Path: dir})
	sp := New(nil, nil)
	sp.Rebuild([]history.Item{
		{Kind: history.KindToolOutput, ToolCall: &history.ToolCallRef{ToolName: "list", Arguments: string(args)}},
	})

	if _, ok := sp.dirs[abs]; !ok {
		t.Fatalf("expected directory %s to be tracked, got %+v", abs, sp.dirs)
	}

	out := sp.Render()
	if !strings.Contains(out, "b.txt") {
		t.Fatalf("expected directory listing to include b.txt, got:\n%s", out)
	}
}

func TestRebuildTracksOpenPlan(t *testing.T) {
	sp := New(nil, nil)
	sp.Rebuild([]history.Item{
		{Kind: history.KindPlanWritten, PlanFilePath: "/tmp/plan.md", Content: "1. do the thing"},
	})

	out := sp.Render()
	if !strings.Contains(out, "Open plan") || !strings.Contains(out, "do the thing") {
		t.Fatalf("expected rendered plan, got:\n%s", out)
	}
}

func TestRebuildDropsWindowedItems(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "old.txt")
	if err := os.WriteFile(path, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}
	tracker := filetracker.New()
	sp := New(tracker, nil)

	sp.Rebuild([]history.Item{
		{Kind: history.KindFileRead, Path: path, Content: "stale"},
	})
	if len(sp.files) != 1 {
		t.Fatalf("expected one tracked file before rewindowing")
	}

	// Simulate the agent loop calling Rebuild again with a trimmed slice
	// after Window() dropped the old unit (spec §4.G).
	sp.Rebuild([]history.Item{
		{Kind: history.KindUser, Content: "a fresh turn"},
	})
	if len(sp.files) != 0 {
		t.Fatalf("expected windowed-out file to drop out of the space, got %+v", sp.files)
	}
}
