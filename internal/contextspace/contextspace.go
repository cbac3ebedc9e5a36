// Package contextspace implements the per-turn auxiliary context block
// spec §4.G describes: open files, open directory listings, and the open
// plan, rebuilt fresh every turn from on-disk state so the model never acts
// on a stale copy. Grounded on the teacher's TUI open-files/open-dirs state
// (internal/tui) generalized from a UI-rendered panel into plain text
// appended after the rolling history, plus internal/treesitter wired in for
// the symbol-outline enrichment spec §14 supplements.
package contextspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/octocli/octo/internal/filetracker"
	"github.com/octocli/octo/internal/history"
	"github.com/octocli/octo/internal/treesitter"
)

// listArgs mirrors the subset of tools.ListArgs contextspace needs to
// recover which directory a `list` tool call observed, without importing
// the tools package and risking a cycle (tools never needs contextspace).
type listArgs struct {
	Path string `json:"path"`
}

// Space accumulates which files and directories the model has touched, and
// the most recently written plan, across a session. Render rebuilds the
// text block fresh from disk each call (spec §4.G "the authoritative
// on-disk state").
type Space struct {
	tracker *filetracker.Tracker
	index   *treesitter.Index // optional; nil disables symbol-outline enrichment

	files map[string]history.SequenceID // absolute path -> most recent touching seq
	dirs  map[string]history.SequenceID

	planPath    string
	planContent string
	planSeq     history.SequenceID
}

// New creates an empty Space. index may be nil to skip symbol-outline
// enrichment (spec §14 is a supplement, not a requirement).
func New(tracker *filetracker.Tracker, index *treesitter.Index) *Space {
	return &Space{
		tracker: tracker,
		index:   index,
		files:   make(map[string]history.SequenceID),
		dirs:    make(map[string]history.SequenceID),
	}
}

// Rebuild derives the tracked file/dir/plan entries from the visible
// history items, replacing whatever Rebuild last computed. Called once per
// turn with the same windowed item slice the IR compiler sees, so dropped
// items (spec §4.F windowing) naturally stop contributing entries — this
// is the "windowed by minimum sequence id" behavior spec §4.G describes.
func (s *Space) Rebuild(items []history.Item) {
	s.files = make(map[string]history.SequenceID)
	s.dirs = make(map[string]history.SequenceID)
	s.planPath = ""
	s.planContent = ""
	s.planSeq = 0

	for _, it := range items {
		switch it.Kind {
		case history.KindFileRead, history.KindFileMutate:
			if it.Path != "" {
				s.files[it.Path] = it.ID
			}
		case history.KindPlanWritten:
			s.planPath = it.PlanFilePath
			s.planContent = it.Content
			s.planSeq = it.ID
		case history.KindToolOutput:
			if it.ToolCall == nil || it.ToolCall.ToolName != "list" {
				continue
			}
			var args listArgs
			if err := json.Unmarshal([]byte(it.ToolCall.Arguments), &args); err != nil || args.Path == "" {
				continue
			}
			abs, err := filepath.Abs(args.Path)
			if err != nil {
				continue
			}
			s.dirs[abs] = it.ID
		}
	}
}

// Render produces the text block appended after history (spec §4.G): open
// plan, then open files (re-read from disk, with a symbol outline when
// available), then observed directory listings (each path emitted once —
// spec §9 Open Question (b) calls out the teacher's double-stringify as a
// likely bug; this renders each directory exactly once).
func (s *Space) Render() string {
	var b strings.Builder

	if s.planContent != "" {
		fmt.Fprintf(&b, "## Open plan (%s)\n%s\n\n", s.planPath, s.planContent)
	}

	if len(s.files) > 0 {
		b.WriteString("## Open files\n")
		for _, path := range sortedKeys(s.files) {
			s.renderFile(&b, path)
		}
		b.WriteString("\n")
	}

	if len(s.dirs) > 0 {
		b.WriteString("## Observed directories\n")
		for _, path := range sortedKeys(s.dirs) {
			s.renderDir(&b, path)
		}
	}

	return b.String()
}

func (s *Space) renderFile(b *strings.Builder, path string) {
	content, err := s.readFresh(path)
	if err != nil {
		fmt.Fprintf(b, "### %s\n(unreadable: %v)\n\n", path, err)
		return
	}
	fmt.Fprintf(b, "### %s\n```\n%s\n```\n", path, content)
	if s.index != nil && treesitter.Supported(path) {
		if syms, err := treesitter.ParseSource(path, []byte(content)); err == nil && len(syms) > 0 {
			outline := treesitter.FormatOutline(map[string][]treesitter.Symbol{path: syms})
			if outline != "" {
				fmt.Fprintf(b, "%s\n", outline)
			}
		}
	}
	b.WriteString("\n")
}

// readFresh re-reads path through the tracker so its recorded mtime stays
// current — this is what lets a file-outdated retry (spec S2) succeed: the
// context space's refresh is the "re-read into context" step the model's
// retry depends on.
func (s *Space) readFresh(path string) (string, error) {
	if s.tracker != nil {
		return s.tracker.Read(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *Space) renderDir(b *strings.Builder, path string) {
	entries, err := os.ReadDir(path)
	if err != nil {
		fmt.Fprintf(b, "%s: (unreadable: %v)\n", path, err)
		return
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintf(b, "%s:\n  %s\n", path, strings.Join(names, ", "))
}

func sortedKeys(m map[string]history.SequenceID) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
