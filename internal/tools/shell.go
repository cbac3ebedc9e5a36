package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/octocli/octo/internal/shell"
)

// ShellArgs are the arguments for the shell tool.
type ShellArgs struct {
	Command   string `json:"command"`
	TimeoutMs int    `json:"timeout_ms,omitempty"`
}

const shellTSType = `{ command: string, timeout_ms?: number }`

// defaultShellTimeout bounds a shell call when the caller doesn't specify
// timeout_ms (spec §5 "Timeouts": "the shell tool takes an explicit
// per-call timeout").
const defaultShellTimeout = 2 * time.Minute

// NewShellTool builds the shell tool, wrapping the in-process POSIX shell
// (internal/shell, grounded on the teacher's mvdan.cc/sh/v3 shell) rather
// than spawning an OS subprocess shell. Mutating by spec default — any
// command may write to disk — so it confirms unless the session is
// unchained (spec §4.C).
func NewShellTool(sh *shell.Shell) Tool {
	return Tool{
		Name:        "shell",
		Description: "Run a POSIX shell command in the project working directory.",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"command": {"type": "string", "description": "Shell command to execute"},
				"timeout_ms": {"type": "integer", "description": "Abort the command after this many milliseconds. Default: 120000"}
			},
			"required": ["command"]
		}`),
		TSType:   shellTSType,
		Confirm:  ConfirmUnlessUnchained,
		Mutating: true,
		Handler: Handler{
			Kind: OutcomeToolOutput,
			Run: func(ctx context.Context, raw json.RawMessage) (RunResult, error) {
				var args ShellArgs
				if err := DecodeArgs(raw, &args); err != nil {
					return RunResult{}, err
				}
				if strings.TrimSpace(args.Command) == "" {
					return RunResult{}, fmt.Errorf("command is required")
				}

				timeout := defaultShellTimeout
				if args.TimeoutMs > 0 {
					timeout = time.Duration(args.TimeoutMs) * time.Millisecond
				}
				runCtx, cancel := context.WithTimeout(ctx, timeout)
				defer cancel()

				stdout, stderr, err := sh.Exec(runCtx, args.Command)
				var b strings.Builder
				if stdout != "" {
					b.WriteString(stdout)
				}
				if stderr != "" {
					if b.Len() > 0 {
						b.WriteString("\n")
					}
					b.WriteString(stderr)
				}
				out := b.String()
				lines := strings.Count(out, "\n") + 1

				if runCtx.Err() != nil && ctx.Err() == nil {
					return RunResult{}, fmt.Errorf("command timed out after %s\noutput: %s", timeout, out)
				}
				if err != nil {
					if code := shell.ExitCode(err); code != 0 {
						return RunResult{}, fmt.Errorf("command exited with code %d\noutput: %s", code, out)
					}
					return RunResult{}, fmt.Errorf("command failed: %w\noutput: %s", err, out)
				}

				return RunResult{Content: out, Lines: lines}, nil
			},
		},
	}
}
