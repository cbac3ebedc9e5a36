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

	"golang.org/x/net/html"

	"github.com/octocli/octo/internal/store"
)

// FetchArgs are the arguments for the fetch tool.
type FetchArgs struct {
	URL      string `json:"url"`
	MaxChars int    `json:"max_chars,omitempty"`
}

const fetchTSType = `{ url: string, max_chars?: number }`

// defaultFetchMaxChars is the fallback cap used when the caller constructs
// the fetch tool without a context-window-derived budget (e.g. in tests).
const defaultFetchMaxChars = 10000

// NewFetchTool builds the fetch tool: GET a URL and return cleaned text,
// cached by URL (spec §6, §13), grounded on the teacher's WebFetch tool
// (internal/mcptools/web.go) with its own HTML tokenizer text-extraction
// unchanged in approach. contextCap bounds the tool's own default/max
// max_chars so a single fetch can't eat the active model's whole context
// window (spec §9 "Provider quirks preserved" — the window is a hard
// budget, not a suggestion); pass 0 to fall back to defaultFetchMaxChars.
func NewFetchTool(cache *store.Cache, contextCap int) Tool {
	client := &http.Client{Timeout: 15 * time.Second}
	maxCap := contextCap
	if maxCap <= 0 {
		maxCap = defaultFetchMaxChars
	}

	return Tool{
		Name:        "fetch",
		Description: "Fetch a URL and return its content as cleaned text. Results are cached.",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"url":       {"type": "string", "description": "The URL to fetch"},
				"max_chars": {"type": "integer", "description": "Maximum characters to return. Default: the active model's context-derived cap"}
			},
			"required": ["url"]
		}`),
		TSType:  fetchTSType,
		Confirm: AutoRun,
		Handler: Handler{
			Kind: OutcomeToolOutput,
			Run: func(ctx context.Context, raw json.RawMessage) (RunResult, error) {
				var args FetchArgs
				if err := DecodeArgs(raw, &args); err != nil {
					return RunResult{}, err
				}
				if args.URL == "" {
					return RunResult{}, fmt.Errorf("url is required")
				}
				if args.MaxChars <= 0 || args.MaxChars > maxCap {
					args.MaxChars = maxCap
				}

				if cached, ok := cache.GetFetch(args.URL); ok {
					return RunResult{Content: truncate(cached, args.MaxChars)}, nil
				}

				req, err := http.NewRequestWithContext(ctx, http.MethodGet, args.URL, nil)
				if err != nil {
					return RunResult{}, fmt.Errorf("bad url: %w", err)
				}
				req.Header.Set("User-Agent", "Octo/0.1")
				req.Header.Set("Accept", "text/html, text/plain;q=0.9, */*;q=0.5")

				resp, err := client.Do(req)
				if err != nil {
					return RunResult{}, fmt.Errorf("fetch failed: %w", err)
				}
				defer resp.Body.Close()

				if resp.StatusCode == http.StatusForbidden {
					return RunResult{}, fmt.Errorf("http 403: %s refused the request; this site likely blocks automated access — ask the user to fetch it themselves or paste the content", args.URL)
				}
				if resp.StatusCode >= 400 {
					return RunResult{}, fmt.Errorf("http %d: %s", resp.StatusCode, resp.Status)
				}

				body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
				if err != nil {
					return RunResult{}, fmt.Errorf("read failed: %w", err)
				}

				var text string
				if strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
					text = extractText(body)
				} else {
					text = string(body)
				}

				cache.SetFetch(args.URL, text)
				return RunResult{Content: truncate(text, args.MaxChars)}, nil
			},
		},
	}
}

// isSkipTag returns true for tags whose content should be suppressed.
func isSkipTag(tag string) bool {
	return tag == "script" || tag == "style" || tag == "noscript"
}

// isBlockElement returns true for HTML elements that typically start a new line.
func isBlockElement(tag string) bool {
	switch tag {
	case "p", "div", "br", "h1", "h2", "h3", "h4", "h5", "h6",
		"li", "tr", "td", "th", "blockquote", "pre", "hr",
		"header", "footer", "section", "article", "nav", "main":
		return true
	}
	return false
}

// extractText parses HTML and returns visible text, stripping
// script/style/noscript elements.
func extractText(data []byte) string {
	tokenizer := html.NewTokenizer(bytes.NewReader(data))
	var b strings.Builder
	skip := 0

	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			return collapseWhitespace(b.String())
		}
		tn, _ := tokenizer.TagName()
		tag := string(tn)

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			if isSkipTag(tag) {
				skip++
			}
			if isBlockElement(tag) && b.Len() > 0 {
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			if isSkipTag(tag) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(tokenizer.Text())
			}
		}
	}
}

// collapseWhitespace trims each line and collapses multiple blank lines.
func collapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	blanks := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			blanks++
			if blanks <= 1 {
				out = append(out, "")
			}
			continue
		}
		blanks = 0
		out = append(out, trimmed)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// truncate cuts a string to maxChars (rune-safe).
func truncate(s string, maxChars int) string {
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars]) + "\n\n[Truncated]"
}
