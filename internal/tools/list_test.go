package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeListFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"main.go":              "package main\n\nfunc main() {}\n",
		"internal/util.go":     "package internal\n\nfunc TODO() {}\n",
		"vendor/pkg/vendor.go": "package pkg\n",
		".gitignore":           "vendor/\n",
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestListToolFlatListing(t *testing.T) {
	dir := writeListFixture(t)
	tool := NewListTool(dir)
	raw, _ := json.Marshal(ListArgs{})
	res, err := tool.Handler.Run(context.Background(), raw)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(res.Content, "main.go") {
		t.Errorf("expected flat listing to include main.go, got %q", res.Content)
	}
}

func TestListToolPatternSearchRespectsGitignore(t *testing.T) {
	dir := writeListFixture(t)
	tool := NewListTool(dir)
	raw, _ := json.Marshal(ListArgs{Pattern: `\.go$`})
	res, err := tool.Handler.Run(context.Background(), raw)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if strings.Contains(res.Content, "vendor.go") {
		t.Errorf("expected vendor/ to be gitignored, got %q", res.Content)
	}
	if !strings.Contains(res.Content, "internal/util.go") {
		t.Errorf("expected internal/util.go in results, got %q", res.Content)
	}
}

func TestListToolContentSearch(t *testing.T) {
	dir := writeListFixture(t)
	tool := NewListTool(dir)
	raw, _ := json.Marshal(ListArgs{Pattern: "TODO", Content: true})
	res, err := tool.Handler.Run(context.Background(), raw)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(res.Content, "internal/util.go:3:func TODO() {}") {
		t.Errorf("expected a grep-style match line, got %q", res.Content)
	}
}

func TestListToolContentSearchRequiresPattern(t *testing.T) {
	dir := writeListFixture(t)
	tool := NewListTool(dir)
	raw, _ := json.Marshal(ListArgs{Content: true})
	if _, err := tool.Handler.Run(context.Background(), raw); err == nil {
		t.Fatal("expected an error when content search has no pattern")
	}
}
