package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/octocli/octo/internal/store"
)

// WebSearchArgs are the arguments for the web-search tool.
type WebSearchArgs struct {
	Query          string   `json:"query"`
	NumResults     int      `json:"num_results,omitempty"`
	Type           string   `json:"type,omitempty"`
	IncludeDomains []string `json:"include_domains,omitempty"`
}

const webSearchTSType = `{ query: string, num_results?: number, type?: "auto" | "fast" | "deep", include_domains?: string[] }`

const exaDefaultEndpoint = "https://api.exa.ai/search"
const noSearchResults = "No results found."

type exaSearchRequest struct {
	Query          string            `json:"query"`
	Type           string            `json:"type"`
	NumResults     int               `json:"numResults"`
	Contents       exaSearchContents `json:"contents"`
	IncludeDomains []string          `json:"includeDomains,omitempty"`
}

type exaSearchContents struct {
	Text exaTextOptions `json:"text"`
}

type exaTextOptions struct {
	MaxCharacters int `json:"maxCharacters"`
}

type exaSearchResponse struct {
	Results []exaResult `json:"results"`
}

type exaResult struct {
	Title         string `json:"title"`
	URL           string `json:"url"`
	Text          string `json:"text"`
	PublishedDate string `json:"publishedDate,omitempty"`
}

// NewWebSearchTool builds the web-search tool (Exa AI), gated on apiKey
// being configured (spec §4.C "web-search only if a key is configured"),
// grounded on the teacher's WebSearch tool (internal/mcptools/web.go).
// Pass "" for endpoint to use Exa's default.
func NewWebSearchTool(cache *store.Cache, apiKey, endpoint string) Tool {
	if endpoint == "" {
		endpoint = exaDefaultEndpoint
	}
	client := &http.Client{Timeout: 15 * time.Second}

	return Tool{
		Name:        "web-search",
		Description: "Search the web using Exa AI. Use this to look up documentation, APIs, or current information. Results are cached.",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query":           {"type": "string", "description": "Search query"},
				"num_results":     {"type": "integer", "description": "Number of results to return. Default: 5"},
				"type":            {"type": "string", "enum": ["auto", "fast", "deep"], "description": "Search type. Default: auto"},
				"include_domains": {"type": "array", "items": {"type": "string"}, "description": "Only include results from these domains"}
			},
			"required": ["query"]
		}`),
		TSType:  webSearchTSType,
		Confirm: AutoRun,
		Handler: Handler{
			Kind: OutcomeToolOutput,
			Run: func(ctx context.Context, raw json.RawMessage) (RunResult, error) {
				var args WebSearchArgs
				if err := DecodeArgs(raw, &args); err != nil {
					return RunResult{}, err
				}
				if args.Query == "" {
					return RunResult{}, fmt.Errorf("query is required")
				}
				if apiKey == "" {
					return RunResult{}, fmt.Errorf("web search api key not configured")
				}
				if args.NumResults <= 0 {
					args.NumResults = 5
				}
				if args.Type == "" {
					args.Type = "auto"
				}

				exactKey := fmt.Sprintf("%s|n=%d|t=%s|d=%s",
					args.Query, args.NumResults, args.Type, strings.Join(args.IncludeDomains, ","))
				if cached, ok := cache.GetSearch(exactKey); ok {
					return RunResult{Content: cached}, nil
				}

				body := exaSearchRequest{
					Query:      args.Query,
					Type:       args.Type,
					NumResults: args.NumResults,
					Contents:   exaSearchContents{Text: exaTextOptions{MaxCharacters: 2000}},
					IncludeDomains: args.IncludeDomains,
				}
				bodyJSON, err := json.Marshal(body)
				if err != nil {
					return RunResult{}, fmt.Errorf("marshal request: %w", err)
				}

				req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyJSON))
				if err != nil {
					return RunResult{}, fmt.Errorf("build request: %w", err)
				}
				req.Header.Set("Content-Type", "application/json")
				req.Header.Set("x-api-key", apiKey)

				resp, err := client.Do(req)
				if err != nil {
					return RunResult{}, fmt.Errorf("search failed: %w", err)
				}
				defer resp.Body.Close()

				respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
				if err != nil {
					return RunResult{}, fmt.Errorf("read response failed: %w", err)
				}
				if resp.StatusCode >= 400 {
					return RunResult{}, fmt.Errorf("exa api error %d: %s", resp.StatusCode, string(respBody))
				}

				var exaResp exaSearchResponse
				if err := json.Unmarshal(respBody, &exaResp); err != nil {
					return RunResult{}, fmt.Errorf("parse response failed: %w", err)
				}

				result := formatSearchResults(exaResp.Results)
				cache.SetSearch(exactKey, result)
				return RunResult{Content: result}, nil
			},
		},
	}
}

// formatSearchResults formats Exa results into readable text.
func formatSearchResults(results []exaResult) string {
	if len(results) == 0 {
		return noSearchResults
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d result(s):\n", len(results))
	for i, r := range results {
		fmt.Fprintf(&b, "\n--- %d. %s ---\n", i+1, r.Title)
		fmt.Fprintf(&b, "URL: %s\n", r.URL)
		if r.PublishedDate != "" {
			fmt.Fprintf(&b, "Published: %s\n", r.PublishedDate)
		}
		if r.Text != "" {
			b.WriteString(r.Text)
			b.WriteByte('\n')
		}
	}
	return b.String()
}
