package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SkillArgs are the arguments for the skill tool.
type SkillArgs struct {
	Name string `json:"name,omitempty"`
}

const skillTSType = `{ name?: string }`

// skillManifestFile names a skill directory's SKILL.md file, split into
// front-matter and body by a "---" fence — the "known manifest format"
// spec.md §1 treats skill discovery as an external directory scanner for.
const skillManifestFile = "SKILL.md"

// NewSkillTool builds the skill tool: with no name, lists discoverable
// skills (subdirectories of dir containing SKILL.md); with a name, returns
// that skill's body so the model can follow it (spec §4.C "skill tool only
// if skills are discoverable"). Registration is conditional on dir having
// at least one skill — the caller only adds this tool to the registry
// when DiscoverSkills finds something in dir.
func NewSkillTool(dir string) Tool {
	return Tool{
		Name:        "skill",
		Description: "List available skills, or load one by name to follow its instructions.",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"name": {"type": "string", "description": "Skill name to load. Omit to list available skills."}
			}
		}`),
		TSType:  skillTSType,
		Confirm: AutoRun,
		Handler: Handler{
			Kind: OutcomeToolOutput,
			Run: func(ctx context.Context, raw json.RawMessage) (RunResult, error) {
				var args SkillArgs
				if err := DecodeArgs(raw, &args); err != nil {
					return RunResult{}, err
				}
				skills, err := DiscoverSkills(dir)
				if err != nil {
					return RunResult{}, err
				}
				if args.Name == "" {
					return RunResult{Content: listSkills(skills)}, nil
				}
				body, ok := skills[args.Name]
				if !ok {
					return RunResult{}, fmt.Errorf("no skill named %q", args.Name)
				}
				return RunResult{Content: body}, nil
			},
		},
	}
}

// DiscoverSkills scans dir for subdirectories containing SKILL.md and
// returns name -> body. Returns an empty map (not an error) if dir doesn't
// exist, so callers can use len() to decide whether to register the tool.
func DiscoverSkills(dir string) (map[string]string, error) {
	out := make(map[string]string)
	if dir == "" {
		return out, nil
	}
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan skills dir %s: %w", dir, err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		manifestPath := filepath.Join(dir, e.Name(), skillManifestFile)
		data, err := os.ReadFile(manifestPath)
		if err != nil {
			continue
		}
		out[e.Name()] = string(data)
	}
	return out, nil
}

func listSkills(skills map[string]string) string {
	if len(skills) == 0 {
		return "No skills available."
	}
	names := make([]string, 0, len(skills))
	for name := range skills {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Available skills:\n")
	for _, name := range names {
		summary := firstLine(skills[name])
		fmt.Fprintf(&b, "- %s: %s\n", name, summary)
	}
	return b.String()
}

func firstLine(body string) string {
	body = strings.TrimPrefix(body, "---")
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "#")
		line = strings.TrimSpace(line)
		if line != "" && line != "---" {
			return line
		}
	}
	return ""
}
