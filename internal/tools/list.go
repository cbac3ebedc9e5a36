package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/octocli/octo/internal/filesearch"
)

// ListArgs are the arguments for the list tool.
type ListArgs struct {
	Path       string `json:"path,omitempty"`
	Pattern    string `json:"pattern,omitempty"`
	Content    bool   `json:"content,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
}

const listTSType = `{ path?: string, pattern?: string, content?: boolean, max_results?: number }`

const defaultListMaxResults = 200

// NewListTool lists a directory's entries, regex-matches filenames under it
// when pattern is given, or greps file contents when content is also set —
// gitignore-aware, grounded on internal/filesearch (the teacher's search
// package backs its file-picker UI) and on the teacher's standalone Grep
// MCP tool (internal/mcp_tools/grep.go), folded into `list` rather than
// kept as a second tool since both only ever wrap filesearch.Searcher.
func NewListTool(rootDir string) Tool {
	return Tool{
		Name:        "list",
		Description: "List directory entries, regex-match filenames by pattern, or grep file contents under a directory.",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"path":        {"type": "string", "description": "Directory to search or list. Defaults to the working directory."},
				"pattern":     {"type": "string", "description": "Regex to filter filenames, or to match against, instead of a flat listing."},
				"content":     {"type": "boolean", "description": "If true (pattern required), search file contents instead of filenames."},
				"max_results": {"type": "integer", "description": "Cap on results when pattern is set. Default: 200."}
			}
		}`),
		TSType:  listTSType,
		Confirm: AutoRun,
		Handler: Handler{
			Kind: OutcomeToolOutput,
			Run: func(ctx context.Context, raw json.RawMessage) (RunResult, error) {
				var args ListArgs
				if err := DecodeArgs(raw, &args); err != nil {
					return RunResult{}, err
				}
				dir := args.Path
				if dir == "" {
					dir = rootDir
				}
				abs, err := filepath.Abs(dir)
				if err != nil {
					return RunResult{}, fmt.Errorf("resolve path: %w", err)
				}
				info, err := os.Stat(abs)
				if err != nil {
					return RunResult{}, fmt.Errorf("stat %s: %w", abs, err)
				}
				if !info.IsDir() {
					return RunResult{}, fmt.Errorf("%s is not a directory", abs)
				}

				if args.Content && args.Pattern == "" {
					return RunResult{}, fmt.Errorf("content search requires a pattern")
				}
				if args.Pattern != "" {
					maxResults := args.MaxResults
					if maxResults <= 0 {
						maxResults = defaultListMaxResults
					}
					return listByPattern(ctx, abs, args.Pattern, args.Content, maxResults)
				}
				return listFlat(abs)
			},
		},
	}
}

func listFlat(abs string) (RunResult, error) {
	entries, err := os.ReadDir(abs)
	if err != nil {
		return RunResult{}, fmt.Errorf("readdir %s: %w", abs, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var b strings.Builder
	for _, e := range entries {
		if e.IsDir() {
			fmt.Fprintf(&b, "%s/\n", e.Name())
		} else {
			fmt.Fprintf(&b, "%s\n", e.Name())
		}
	}
	return RunResult{Content: b.String(), Lines: len(entries)}, nil
}

func listByPattern(ctx context.Context, abs, pattern string, content bool, maxResults int) (RunResult, error) {
	searcher, err := filesearch.NewSearcher(abs)
	if err != nil {
		return RunResult{}, fmt.Errorf("init searcher: %w", err)
	}
	results, err := searcher.Search(ctx, filesearch.Options{
		Pattern:       pattern,
		ContentSearch: content,
		MaxResults:    maxResults,
		RootDir:       abs,
	})
	if err != nil {
		return RunResult{}, fmt.Errorf("search: %w", err)
	}

	var b strings.Builder
	for _, r := range results {
		if content {
			fmt.Fprintf(&b, "%s:%d:%s\n", r.Path, r.Line, r.Content)
		} else {
			fmt.Fprintf(&b, "%s\n", r.Path)
		}
	}
	if len(results) >= maxResults {
		fmt.Fprintf(&b, "(truncated at %d results)\n", maxResults)
	}
	return RunResult{Content: b.String(), Lines: len(results)}, nil
}
