package shell

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestSetenvIsVisibleToCommands(t *testing.T) {
	sh := New(t.TempDir(), nil)
	sh.Setenv("OCTO_SESSION_ID", "abc123")

	stdout, _, err := sh.Exec(context.Background(), "echo $OCTO_SESSION_ID")
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if strings.TrimSpace(stdout) != "abc123" {
		t.Fatalf("got %q, want %q", stdout, "abc123")
	}
}

func TestSetenvOverwritesExistingValue(t *testing.T) {
	sh := New(t.TempDir(), nil)
	sh.Setenv("OCTO_SESSION_ID", "first")
	sh.Setenv("OCTO_SESSION_ID", "second")

	stdout, _, err := sh.Exec(context.Background(), "echo $OCTO_SESSION_ID")
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if strings.TrimSpace(stdout) != "second" {
		t.Fatalf("got %q, want %q", stdout, "second")
	}
}

func TestBlockedCommandWrapsSentinelError(t *testing.T) {
	sh := New(t.TempDir(), DefaultBlockFuncs())
	_, _, err := sh.Exec(context.Background(), "sudo rm -rf /")
	if err == nil {
		t.Fatalf("expected an error for a blocked command")
	}
	if !errors.Is(err, ErrCommandBlocked) {
		t.Fatalf("got %v, want it to wrap ErrCommandBlocked", err)
	}
}
