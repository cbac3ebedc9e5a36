// Package mcpclient implements the MCP client interface spec §6 describes —
// treated as an RPC boundary: listTools/callTool against a named upstream
// server, with typed content blocks stringified and response size capped at
// the active model's context window. Grounded on the teacher's internal/mcp
// package (client.go's JSON-RPC-over-HTTP transport, proxy.go's local+
// upstream routing and rate-limit retry/backoff).
package mcpclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// Request represents a JSON-RPC MCP request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response represents a JSON-RPC MCP response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error represents an MCP JSON-RPC error.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Tool describes one tool exposed by an MCP server.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// ContentBlock is one block of an MCP tool result — spec §6 names
// text/image/audio/resource/resource_link as the types the core must
// stringify.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ToolResult is the result of an MCP tools/call.
type ToolResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

type listToolsResult struct {
	Tools []Tool `json:"tools"`
}

type callToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// UpstreamClient is the MCP client interface spec §6 requires: listTools and
// callTool against one named upstream server.
type UpstreamClient interface {
	ListTools(ctx context.Context) ([]Tool, error)
	CallTool(ctx context.Context, name string, arguments json.RawMessage) (*ToolResult, error)
	Close() error
}

// Client is a JSON-RPC-over-HTTP MCP client, with Streamable-HTTP (SSE)
// response support per the MCP spec.
type Client struct {
	endpoint        string
	httpClient      *http.Client
	requestID       atomic.Int64
	sessionID       string
	protocolVersion string
}

// NewClient creates a client bound to endpoint.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint:        endpoint,
		httpClient:      &http.Client{Timeout: 30 * time.Second},
		protocolVersion: "2024-11-05",
	}
}

func (c *Client) nextID() int64 { return c.requestID.Add(1) }

func (c *Client) call(ctx context.Context, method string, params interface{}) (*Response, error) {
	var paramsJSON json.RawMessage
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("marshal params: %w", err)
		}
		paramsJSON = data
	}
	req := &Request{JSONRPC: "2.0", ID: c.nextID(), Method: method, Params: paramsJSON}
	return c.send(ctx, req)
}

func (c *Client) send(ctx context.Context, req *Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json, text/event-stream")
	if c.sessionID != "" {
		httpReq.Header.Set("Mcp-Session-Id", c.sessionID)
	}
	if c.protocolVersion != "" {
		httpReq.Header.Set("MCP-Protocol-Version", c.protocolVersion)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(httpResp.Body)
		if httpResp.StatusCode == http.StatusTooManyRequests {
			if retryAfter := httpResp.Header.Get("Retry-After"); retryAfter != "" {
				return nil, fmt.Errorf("http error %d: %s (Retry-After: %s)", httpResp.StatusCode, string(respBody), retryAfter)
			}
		}
		return nil, fmt.Errorf("http error %d: %s", httpResp.StatusCode, string(respBody))
	}

	if sid := httpResp.Header.Get("Mcp-Session-Id"); sid != "" {
		c.sessionID = sid
	}

	if strings.HasPrefix(httpResp.Header.Get("Content-Type"), "text/event-stream") {
		return parseSSEResponse(httpResp.Body)
	}

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	var resp Response
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &resp, nil
}

func parseSSEResponse(body io.Reader) (*Response, error) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 2*1024*1024)
	var dataLines []string

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "data: "):
			dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
		case line == "" && len(dataLines) > 0:
			data := strings.Join(dataLines, "")
			dataLines = nil
			var resp Response
			if err := json.Unmarshal([]byte(data), &resp); err != nil {
				continue
			}
			if resp.ID != nil {
				return &resp, nil
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read SSE stream: %w", err)
	}
	if len(dataLines) > 0 {
		var resp Response
		if err := json.Unmarshal([]byte(strings.Join(dataLines, "")), &resp); err != nil {
			return nil, fmt.Errorf("unmarshal final SSE data: %w", err)
		}
		return &resp, nil
	}
	return nil, fmt.Errorf("no response in SSE stream")
}

// ListTools requests the server's tool catalog.
func (c *Client) ListTools(ctx context.Context) ([]Tool, error) {
	resp, err := c.call(ctx, "tools/list", nil)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("mcp error %d: %s", resp.Error.Code, resp.Error.Message)
	}
	var result listToolsResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, fmt.Errorf("unmarshal tools: %w", err)
	}
	return result.Tools, nil
}

// CallTool invokes name on the server with arguments.
func (c *Client) CallTool(ctx context.Context, name string, arguments json.RawMessage) (*ToolResult, error) {
	resp, err := c.call(ctx, "tools/call", callToolParams{Name: name, Arguments: arguments})
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return &ToolResult{
			Content: []ContentBlock{{Type: "text", Text: fmt.Sprintf("Error: %s", resp.Error.Message)}},
			IsError: true,
		}, nil
	}
	var result ToolResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return &result, nil
}

// Initialize completes the MCP initialize/initialized handshake with retry.
func (c *Client) Initialize(ctx context.Context, clientInfo map[string]interface{}) error {
	params := map[string]interface{}{
		"protocolVersion": c.protocolVersion,
		"capabilities":    map[string]interface{}{},
		"clientInfo":      clientInfo,
	}

	var resp *Response
	var err error
	backoff := time.Second
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
			}
		}
		resp, err = c.call(ctx, "initialize", params)
		if err == nil {
			break
		}
		log.Warn().Err(err).Int("attempt", attempt+1).Msg("mcp: initialize attempt failed")
	}
	if err != nil {
		return fmt.Errorf("initialize failed: %w", err)
	}
	if resp.Error != nil {
		return fmt.Errorf("upstream error: %s", resp.Error.Message)
	}

	notif := &Request{JSONRPC: "2.0", Method: "notifications/initialized"}
	body, _ := json.Marshal(notif)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build initialized notification: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.sessionID != "" {
		httpReq.Header.Set("Mcp-Session-Id", c.sessionID)
	}
	resp2, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send initialized notification: %w", err)
	}
	defer resp2.Body.Close()
	return nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
