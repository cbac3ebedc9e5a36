package treesitter

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIndexBuild(t *testing.T) {
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	// Walk up to project root (internal/treesitter -> project root)
	root := cwd + "/../.."

	idx := NewIndex(root)
	if err := idx.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}

	files := idx.Files()
	if len(files) == 0 {
		t.Fatal("no files indexed")
	}
	t.Logf("Indexed %d files", len(files))

	snap := idx.Snapshot()
	outline := FormatOutline(snap)
	if outline == "" {
		t.Fatal("empty outline")
	}
	t.Logf("Outline (%d bytes):\n%s", len(outline), outline)
}

func TestIndexBuildRespectsNestedGitignore(t *testing.T) {
	root := t.TempDir()
	write := func(rel, content string) {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	write(".gitignore", "*.log\n")
	write("main.go", "package main\n\nfunc main() {}\n")
	write("vendor/lib.go", "package vendor\n")
	write("vendor/.gitignore", "*\n")

	idx := NewIndex(root)
	if err := idx.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}

	files := idx.Files()
	found := map[string]bool{}
	for _, f := range files {
		found[f] = true
	}
	if !found["main.go"] {
		t.Error("expected main.go to be indexed")
	}
	if found["vendor/lib.go"] {
		t.Error("expected vendor/lib.go to be excluded by vendor's own .gitignore")
	}
}
