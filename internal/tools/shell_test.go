package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/octocli/octo/internal/shell"
)

func TestShellToolSuccess(t *testing.T) {
	sh := shell.New(t.TempDir(), nil)
	tool := NewShellTool(sh)
	args, _ := json.Marshal(ShellArgs{Command: "echo hello"})

	result, err := tool.Handler.Run(context.Background(), args)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if strings.TrimSpace(result.Content) != "hello" {
		t.Fatalf("expected output %q, got %q", "hello", result.Content)
	}
}

func TestShellToolNonzeroExitIsAnError(t *testing.T) {
	sh := shell.New(t.TempDir(), nil)
	tool := NewShellTool(sh)
	args, _ := json.Marshal(ShellArgs{Command: "exit 3"})

	_, err := tool.Handler.Run(context.Background(), args)
	if err == nil {
		t.Fatalf("expected a nonzero exit to surface as an error")
	}
	if !strings.Contains(err.Error(), "exited with code 3") {
		t.Fatalf("expected exit code in error, got %v", err)
	}
}

func TestShellToolTimeout(t *testing.T) {
	sh := shell.New(t.TempDir(), nil)
	tool := NewShellTool(sh)
	args, _ := json.Marshal(ShellArgs{Command: "sleep 5", TimeoutMs: 50})

	_, err := tool.Handler.Run(context.Background(), args)
	if err == nil {
		t.Fatalf("expected a timeout error")
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("expected timeout in error, got %v", err)
	}
}

func TestShellToolRequiresCommand(t *testing.T) {
	sh := shell.New(t.TempDir(), nil)
	tool := NewShellTool(sh)
	args, _ := json.Marshal(ShellArgs{Command: "   "})

	if _, err := tool.Handler.Run(context.Background(), args); err == nil {
		t.Fatalf("expected an error for a blank command")
	}
}
