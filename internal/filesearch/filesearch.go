// Package filesearch provides file and content search with regex matching
// and gitignore support, used headlessly by Octo's list tool (internal/tools)
// and by internal/treesitter's project index — both can be pointed at any
// subdirectory of a checkout, not just its root, so gitignore rules are
// resolved per-directory the way git itself does rather than from a single
// root .gitignore.
package filesearch

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Result represents a single search result.
type Result struct {
	Path    string // Relative path from search root
	Line    int    // Line number (1-indexed), 0 for file-only matches
	Content string // Line content, empty for file-only matches
}

// Options configures the search behavior.
type Options struct {
	Pattern       string // Pattern to search for (filename or content)
	ContentSearch bool   // If true, search file contents; otherwise just filenames
	MaxResults    int    // Maximum results to return (0 = unlimited)
	CaseSensitive bool   // Case-sensitive matching
	RootDir       string // Root directory to search from (defaults to current dir)
}

// Searcher performs file and content searches, honoring .gitignore files
// found at any level of the tree it walks, not only at its root.
type Searcher struct {
	ignore *NestedGitignore
}

// NewSearcher creates a new searcher for the given root directory.
func NewSearcher(rootDir string) (*Searcher, error) {
	return &Searcher{ignore: NewNestedGitignore(rootDir)}, nil
}

// NestedGitignore resolves .gitignore rules the way git itself does: a file
// is ignored if any .gitignore between it and the tree's root excludes it,
// with each .gitignore's patterns scoped to its own directory and below.
// Shared between Searcher and internal/treesitter.Index.Build, both of
// which can be pointed at a subdirectory of a checkout rather than its root.
type NestedGitignore struct {
	root        string
	perDirCache map[string]*GitignoreMatcher // absolute dir -> its own .gitignore, lazily loaded
}

// NewNestedGitignore creates a matcher rooted at root. Ancestor directories
// above root are never consulted, even if root itself is a subdirectory of
// a larger git checkout.
func NewNestedGitignore(root string) *NestedGitignore {
	return &NestedGitignore{root: root, perDirCache: make(map[string]*GitignoreMatcher)}
}

func (n *NestedGitignore) gitignoreFor(dir string) *GitignoreMatcher {
	if m, ok := n.perDirCache[dir]; ok {
		return m
	}
	matcher, err := NewGitignoreMatcher(filepath.Join(dir, ".gitignore"))
	if err != nil {
		matcher, _ = NewGitignoreMatcher("")
	}
	n.perDirCache[dir] = matcher
	return matcher
}

// Ignored reports whether the entry at path (whose parent directory is dir)
// is excluded by any .gitignore between dir and the matcher's root,
// checking the nearest ancestor first.
func (n *NestedGitignore) Ignored(path, dir string, isDir bool) bool {
	for {
		if m := n.gitignoreFor(dir); m.Matches(relOrSelf(dir, path), isDir) {
			return true
		}
		if dir == n.root {
			return false
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return false
		}
		dir = parent
	}
}

// relOrSelf returns path relative to base, falling back to path itself if
// they're not comparable (different volumes on Windows, for instance).
func relOrSelf(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return rel
}

// Search performs a search with the given options.
func (s *Searcher) Search(ctx context.Context, opts Options) ([]Result, error) {
	if opts.RootDir == "" {
		var err error
		opts.RootDir, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
	}

	// Compile regex pattern
	pattern := opts.Pattern
	if !opts.CaseSensitive {
		pattern = "(?i)" + pattern
	}

	regex, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}

	var results []Result
	err = filepath.WalkDir(opts.RootDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // Skip errors
		}

		// Check context cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		relPath, err := filepath.Rel(opts.RootDir, path)
		if err != nil {
			return nil
		}

		// Skip .git directory
		if d.IsDir() && d.Name() == ".git" {
			return filepath.SkipDir
		}

		// Check gitignore, nearest directory first
		if s.ignore.Ignored(path, filepath.Dir(path), d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		// Check file size (skip large files)
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Size() > 10*1024*1024 { // Skip files > 10MB
			return nil
		}

		if opts.ContentSearch {
			// Search file contents
			matches, err := s.searchFileContent(path, relPath, regex)
			if err != nil {
				return nil // Skip files we can't read
			}
			results = append(results, matches...)
		} else {
			// Search filename only
			if regex.MatchString(filepath.Base(path)) || regex.MatchString(relPath) {
				results = append(results, Result{
					Path: relPath,
				})
			}
		}

		// Check max results
		if opts.MaxResults > 0 && len(results) >= opts.MaxResults {
			results = results[:opts.MaxResults]
			return filepath.SkipAll
		}

		return nil
	})

	if err != nil && err != filepath.SkipAll {
		return nil, err
	}

	return results, nil
}

// searchFileContent searches a single file for pattern matches.
func (s *Searcher) searchFileContent(absPath, relPath string, regex *regexp.Regexp) ([]Result, error) {
	file, err := os.Open(absPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var results []Result
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		// Skip binary files (heuristic: check for null bytes)
		if strings.Contains(line, "\x00") {
			return nil, nil
		}

		if regex.MatchString(line) {
			results = append(results, Result{
				Path:    relPath,
				Line:    lineNum,
				Content: line,
			})
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return results, nil
}
