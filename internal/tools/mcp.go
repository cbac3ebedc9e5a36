package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/octocli/octo/internal/mcpclient"
)

// defaultMCPResponseCharCap is the fallback used when a caller builds MCP
// tools without a context-window-derived budget (e.g. in tests).
const defaultMCPResponseCharCap = 50_000

// NewMCPTools discovers name's tool catalog and returns one Octo Tool per
// upstream tool, each proxying through mcpclient.CallWithRetry (spec §6,
// §14 "Tool-call retry/backoff for MCP upstream"), grounded on the
// teacher's internal/mcp proxy (local+upstream routing collapses here to
// pure upstream routing — Octo's local tools are registered directly,
// not behind the MCP boundary). contextCap bounds how much of an upstream
// result is handed back to the model, derived from the active model's
// context window (spec §6 "capped at the active model's context window")
// rather than a flat constant; pass 0 to fall back to
// defaultMCPResponseCharCap.
func NewMCPTools(ctx context.Context, name string, upstream mcpclient.UpstreamClient, contextCap int) ([]Tool, error) {
	catalog, err := upstream.ListTools(ctx)
	if err != nil {
		return nil, fmt.Errorf("mcp %s: list tools: %w", name, err)
	}
	if contextCap <= 0 {
		contextCap = defaultMCPResponseCharCap
	}

	tools := make([]Tool, 0, len(catalog))
	for _, remote := range catalog {
		tools = append(tools, newMCPProxyTool(name, remote, upstream, contextCap))
	}
	return tools, nil
}

func newMCPProxyTool(serverName string, remote mcpclient.Tool, upstream mcpclient.UpstreamClient, charCap int) Tool {
	qualifiedName := fmt.Sprintf("mcp__%s__%s", serverName, remote.Name)
	return Tool{
		Name:        qualifiedName,
		Description: remote.Description,
		Schema:      remote.InputSchema,
		TSType:      string(remote.InputSchema),
		Confirm:     ConfirmUnlessUnchained,
		Mutating:    true,
		Handler: Handler{
			Kind: OutcomeToolOutput,
			Run: func(ctx context.Context, args json.RawMessage) (RunResult, error) {
				result, err := mcpclient.CallWithRetry(ctx, upstream, remote.Name, args)
				if err != nil {
					return RunResult{}, fmt.Errorf("mcp %s/%s: %w", serverName, remote.Name, err)
				}
				text := mcpclient.StringifyContent(result.Content)
				text = truncate(text, charCap)
				if result.IsError {
					return RunResult{}, fmt.Errorf("%s", text)
				}
				return RunResult{Content: text}, nil
			},
		},
	}
}
