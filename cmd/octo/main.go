// Command octo is a non-interactive coding agent CLI: a stdin/stdout REPL
// driving internal/agent.Loop, grounded on the teacher's cmd/symb/main.go
// wiring order (flags, config, provider registry, tool registry, session
// resolution) but replacing the teacher's bubbletea TUI launch with a plain
// terminal loop, since spec.md places "terminal UI" outside this repo's
// scope (SPEC_FULL.md §11).
package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/octocli/octo/internal/agent"
	"github.com/octocli/octo/internal/autofix"
	"github.com/octocli/octo/internal/config"
	"github.com/octocli/octo/internal/contextspace"
	"github.com/octocli/octo/internal/filetracker"
	"github.com/octocli/octo/internal/highlight"
	"github.com/octocli/octo/internal/history"
	"github.com/octocli/octo/internal/mcpclient"
	"github.com/octocli/octo/internal/provider"
	"github.com/octocli/octo/internal/shell"
	"github.com/octocli/octo/internal/store"
	"github.com/octocli/octo/internal/subagent"
	"github.com/octocli/octo/internal/tools"
	"github.com/octocli/octo/internal/treesitter"
)

func main() {
	if err := setupFileLogging(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to setup logging: %v\n", err)
	}

	flagSession := flag.String("s", "", "resume a session by ID")
	flagList := flag.Bool("l", false, "list sessions")
	flagContinue := flag.Bool("c", false, "continue most recent session")
	flagMode := flag.String("mode", "collaboration", "confirmation mode: collaboration, unchained, plan")
	flag.StringVar(flagSession, "session", "", "resume a session by ID")
	flag.BoolVar(flagList, "list", false, "list sessions")
	flag.BoolVar(flagContinue, "continue", false, "continue most recent session")
	flag.Parse()

	mode := config.Mode(*flagMode)
	switch mode {
	case config.ModeCollaboration, config.ModeUnchained, config.ModePlan:
	default:
		fmt.Printf("Error: -mode must be one of collaboration, unchained, plan\n")
		os.Exit(1)
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	creds, err := config.LoadCredentials()
	if err != nil {
		fmt.Printf("Error loading credentials: %v\n", err)
		os.Exit(1)
	}

	registry := buildProviderRegistry(cfg, creds)
	providerName, providerCfg := resolveProvider(cfg, registry)

	prov, err := registry.Create(providerName, providerCfg.Model, provider.Options{
		Temperature:    providerCfg.Temperature,
		ReasoningLevel: providerCfg.ReasoningLevel,
		ContextWindow:  providerCfg.ContextWindow,
	})
	if err != nil {
		fmt.Printf("Error creating provider: %v\n", err)
		os.Exit(1)
	}
	defer prov.Close()

	svc := setupServices(cfg, creds)
	defer svc.close()

	if *flagList {
		listSessions(svc.cache)
		return
	}

	sessionID, resumedItems := resolveSession(*flagSession, *flagContinue, svc.cache)
	svc.sh.Setenv("OCTO_SESSION_ID", sessionID)

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Printf("Warning: failed to get working directory: %v\n", err)
		cwd = "."
	}
	tsIndex := treesitter.NewIndex(cwd)
	if err := tsIndex.Build(); err != nil {
		log.Warn().Err(err).Msg("tree-sitter index build failed")
	}

	space := contextspace.New(svc.tracker, tsIndex)

	baseRegistry, planPath := buildToolRegistry(cfg, svc, mode, cwd, providerCfg.ContextWindow)

	// The task tool is registered last, against a registry with itself
	// excluded so a sub-agent can never recurse (spec §4.F "MaxDepth=1"),
	// wired via subagent.Runner exactly as the teacher registers SubAgent
	// only after the rest of the tool list is known.
	subRunner := subagent.Runner{
		Provider:      prov,
		Registry:      tools.NewRegistry(subagent.FilterTask(baseRegistry.List())...),
		Tracker:       svc.tracker,
		Mode:          mode,
		ContextBudget: providerCfg.ContextWindow,
		JSONFix:       jsonFixer(svc.autofixProvider),
	}
	fullTools := append(baseRegistry.List(), tools.NewTaskTool(subRunner.TaskRunner()))
	reg := tools.NewRegistry(fullTools...)

	historyLog := history.New()
	for _, it := range resumedItems {
		historyLog.Append(it)
	}

	systemPrompt := func(appliedWindow bool) string {
		visible, _, _ := agent.Window(historyLog.Items(), providerCfg.ContextWindow)
		space.Rebuild(visible)
		return buildSystemPrompt(mode, appliedWindow, space.Render(), reg.List(), cwd, planPath)
	}

	renderer := newConsoleRenderer(cfg.UI.Theme)
	loop := agent.New(agent.Options{
		Provider:          prov,
		Registry:          reg,
		Tracker:           svc.tracker,
		Mode:              mode,
		SystemPrompt:      systemPrompt,
		ContextBudget:     providerCfg.ContextWindow,
		JSONFix:           jsonFixer(svc.autofixProvider),
		DiffFix:           diffFixer(svc.autofixProvider),
		Confirm:           confirmOnStdin,
		OnTokens:          renderer.onTokens,
		OnFileChanged:     renderer.onFileChanged,
		Compaction:        prov,
		CompactionModel:   providerCfg.Model,
		CompactionTrigger: cfg.Compaction.TriggerTokensOrDefault(),
		OnCompacting: func(active bool) {
			if active {
				fmt.Fprintln(os.Stderr, "\n[compacting history...]")
			}
		},
	}, historyLog)

	runREPL(sessionID, svc.cache, historyLog, loop, renderer)
}

func buildProviderRegistry(cfg *config.Config, creds *config.Credentials) *provider.Registry {
	registry := provider.NewRegistry()
	for name, pcfg := range cfg.Providers {
		apiKey := creds.GetAPIKey(name)
		switch pcfg.Kind {
		case "anthropic":
			registry.RegisterFactory(name, provider.NewAnthropicFactory(name, apiKey))
		case "zen":
			registry.RegisterFactory(name, provider.NewZenFactory(name, apiKey, pcfg.Endpoint))
		default:
			registry.RegisterFactory(name, provider.NewOpenAICompatFactory(name, pcfg.Endpoint, apiKey))
		}
	}
	return registry
}

func resolveProvider(cfg *config.Config, registry *provider.Registry) (string, config.ProviderConfig) {
	name := cfg.DefaultProvider
	if name == "" {
		providers := registry.List()
		if len(providers) == 0 {
			fmt.Println("Error: No providers configured")
			os.Exit(1)
		}
		name = providers[0]
	}
	pcfg, ok := cfg.Providers[name]
	if !ok {
		fmt.Printf("Error: Provider %q not found\n", name)
		os.Exit(1)
	}
	return name, pcfg
}

type services struct {
	cache           *store.Cache
	tracker         *filetracker.Tracker
	sh              *shell.Shell
	mcpUpstream     mcpclient.UpstreamClient
	autofixProvider provider.Provider
}

func (s services) close() {
	if s.cache != nil {
		s.cache.Close()
	}
	if s.mcpUpstream != nil {
		s.mcpUpstream.Close()
	}
}

func setupServices(cfg *config.Config, creds *config.Credentials) services {
	cache := openCache(cfg)
	tracker := filetracker.New()
	sh := shell.New("", shell.BlockFuncsFromConfig(cfg.Shell))

	var upstream mcpclient.UpstreamClient
	if cfg.MCP.Upstream != "" {
		upstream = mcpclient.NewClient(cfg.MCP.Upstream)
	}

	var autofixProv provider.Provider
	if cfg.Autofix.Provider != "" {
		registry := buildProviderRegistry(cfg, creds)
		pcfg, ok := cfg.Providers[cfg.Autofix.Provider]
		if ok {
			model := cfg.Autofix.Model
			if model == "" {
				model = pcfg.Model
			}
			if p, err := registry.Create(cfg.Autofix.Provider, model, provider.Options{Temperature: 0}); err == nil {
				autofixProv = p
			} else {
				log.Warn().Err(err).Msg("autofix provider creation failed")
			}
		}
	}

	return services{
		cache:           cache,
		tracker:         tracker,
		sh:              sh,
		mcpUpstream:     upstream,
		autofixProvider: autofixProv,
	}
}

func openCache(cfg *config.Config) *store.Cache {
	dataDir, err := config.EnsureDataDir()
	if err != nil {
		fmt.Printf("Warning: data dir failed: %v\n", err)
		return nil
	}
	ttl := time.Duration(cfg.Cache.CacheTTLOrDefault()) * time.Hour
	cache, err := store.Open(filepath.Join(dataDir, "octo.db"), ttl)
	if err != nil {
		fmt.Printf("Warning: cache open failed: %v\n", err)
		return nil
	}
	return cache
}

// buildToolRegistry assembles every built-in tool except task, once at
// startup, registering some conditionally (SPEC_FULL.md §13): mcp only if
// an upstream is configured, skill only if the skills directory holds at
// least one skill, web-search only if an API key is configured, write-plan
// only in plan mode. The registry is not rebuilt between turns.
// buildToolRegistry also returns the bound plan-file path (empty outside
// plan mode) so the caller can include it in the plan-mode system-prompt
// directive (spec §4.D) without recomputing it.
func buildToolRegistry(cfg *config.Config, svc services, mode config.Mode, cwd string, contextWindow int) (*tools.Registry, string) {
	fetchCap := charCapForContextWindow(contextWindow)
	built := []tools.Tool{
		tools.NewReadTool(svc.tracker),
		tools.NewListTool(cwd),
		tools.NewShellTool(svc.sh),
		tools.NewEditTool(svc.tracker),
		tools.NewCreateTool(svc.tracker),
		tools.NewAppendTool(svc.tracker),
		tools.NewPrependTool(svc.tracker),
		tools.NewRewriteTool(svc.tracker),
		tools.NewFetchTool(svc.cache, fetchCap),
	}

	var planPath string
	if mode == config.ModePlan {
		planPath = filepath.Join(cwd, "PLAN.md")
		built = append(built, tools.NewWritePlanTool(planPath))
	}

	if cfg.Skills.Dir != "" {
		if skills, err := tools.DiscoverSkills(cfg.Skills.Dir); err == nil && len(skills) > 0 {
			built = append(built, tools.NewSkillTool(cfg.Skills.Dir))
		}
	}

	if cfg.WebSearch.APIKey != "" {
		built = append(built, tools.NewWebSearchTool(svc.cache, cfg.WebSearch.APIKey, ""))
	}

	if svc.mcpUpstream != nil {
		mcpTools, err := tools.NewMCPTools(context.Background(), "octo", svc.mcpUpstream, fetchCap)
		if err != nil {
			log.Warn().Err(err).Msg("mcp tool registration failed")
		} else {
			built = append(built, mcpTools...)
		}
	}

	return tools.NewRegistry(built...), planPath
}

func jsonFixer(p provider.Provider) tools.JSONFixer {
	if p == nil {
		return nil
	}
	return func(ctx context.Context, rawArgs, toolName, tsType string) (json.RawMessage, bool) {
		result, err := autofix.FixJSON(ctx, p, rawArgs, toolName, tsType)
		if err != nil || !result.Success {
			return nil, false
		}
		return result.Fixed, true
	}
}

func diffFixer(p provider.Provider) agent.DiffFixFunc {
	if p == nil {
		return nil
	}
	return func(ctx context.Context, original, search, replace string) (string, bool) {
		result, err := autofix.FixDiff(ctx, p, original, search, replace)
		if err != nil || !result.Found {
			return "", false
		}
		return result.Search, true
	}
}

func confirmOnStdin(call tools.Call) bool {
	fmt.Printf("\nRun %s %s? [y/N] ", call.Name, call.Arguments)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(strings.ToLower(line))
	return line == "y" || line == "yes"
}

// consoleRenderer buffers one turn's assistant content so fenced code
// blocks can be syntax-highlighted for the human before printing — a
// human-facing-only echo (spec §10), never something sent back to the
// model, grounded on the teacher's TUI rendering the same file content
// through internal/highlight.
type consoleRenderer struct {
	content strings.Builder
	theme   string
}

func newConsoleRenderer(theme string) *consoleRenderer {
	if theme == "" {
		theme = "monokai"
	}
	return &consoleRenderer{theme: theme}
}

func (r *consoleRenderer) onTokens(text string, kind agent.TokenKind) {
	if kind != agent.TokenContent {
		return
	}
	r.content.WriteString(text)
}

// flush prints the turn's buffered content with fenced code blocks
// highlighted, then resets the buffer for the next turn.
func (r *consoleRenderer) flush() {
	fmt.Print(renderFencedCode(r.content.String(), r.theme))
	r.content.Reset()
}

// onFileChanged echoes a file-producing tool call's result to the console
// with syntax highlighting, grounded on the teacher's TUI re-rendering a
// file's buffer after every open/edit/show (internal/mcp_tools: open.go,
// edit.go, show.go each call DetectLanguage before Highlight). A read
// shows the language detected from path; a diff shows as "diff" since its
// lines carry the file's content one layer removed from its own syntax.
func (r *consoleRenderer) onFileChanged(kind history.Kind, path, content string) {
	if content == "" {
		return
	}
	bg := highlight.ThemeBg(r.theme)
	if bg == "" {
		bg = "#000000"
	}

	if kind != history.KindFileRead {
		if !strings.HasPrefix(content, "```diff\n") {
			return // a mutate without a fenced diff is a plain confirmation message
		}
		diff := strings.TrimSuffix(strings.TrimPrefix(content, "```diff\n"), "```")
		fmt.Printf("\n[%s]\n%s\n", path, highlight.Highlight(diff, "diff", r.theme, bg))
		return
	}

	// Reads echo with line numbers, like a reviewer would reference them —
	// SplitLines carries each line's active ANSI state across the break so
	// a numbered prefix can be inserted without breaking styling mid-token.
	body := highlight.Highlight(content, highlight.DetectLanguage(path), r.theme, bg)
	lines := highlight.SplitLines(body)
	fmt.Printf("\n[%s]\n", path)
	for i, line := range lines {
		fmt.Printf("%4d  %s\n", i+1, line)
	}
}

// renderFencedCode highlights ```lang ... ``` fenced blocks in s via
// internal/highlight, leaving surrounding prose untouched.
func renderFencedCode(s, theme string) string {
	bg := highlight.ThemeBg(theme)
	if bg == "" {
		bg = "#000000"
	}
	var out strings.Builder
	lines := strings.Split(s, "\n")
	inFence := false
	lang := ""
	var body strings.Builder
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case !inFence && strings.HasPrefix(trimmed, "```"):
			inFence = true
			lang = strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
			body.Reset()
		case inFence && trimmed == "```":
			inFence = false
			if lang == "" {
				out.WriteString(body.String())
			} else {
				out.WriteString(highlight.Highlight(body.String(), lang, theme, bg))
			}
			out.WriteString("\n")
		case inFence:
			body.WriteString(line)
			body.WriteString("\n")
		default:
			out.WriteString(line)
			out.WriteString("\n")
		}
	}
	if inFence {
		out.WriteString(body.String())
	}
	return strings.TrimSuffix(out.String(), "\n") + "\n"
}

// buildSystemPrompt assembles the full system prompt (spec §4.D): the user
// name, the TypeScript-rendered schema of every enabled tool, the plan-mode
// directive (when active) naming the bound plan file, an enumeration of
// discovered LLM-instruction files walked from cwd upward to home, the
// current working directory listing, and the windowing note — followed by
// the context space's own render (open files/dirs/plan, spec §4.G).
func buildSystemPrompt(mode config.Mode, appliedWindow bool, contextBlock string, enabled []tools.Tool, cwd, planPath string) string {
	var b strings.Builder
	b.WriteString("You are Octo, an autonomous coding agent operating directly on the user's project.\n")
	b.WriteString(fmt.Sprintf("Mode: %s.\n", mode))
	b.WriteString(fmt.Sprintf("User: %s.\n", currentUserName()))
	if appliedWindow {
		b.WriteString("Earlier history was trimmed to fit the context window; treat any summary item as authoritative for older work.\n")
	}

	b.WriteString("\nTools:\n")
	for _, t := range enabled {
		b.WriteString(fmt.Sprintf("- %s%s: %s\n", t.Name, t.TSType, t.Description))
	}

	if mode == config.ModePlan {
		b.WriteString(fmt.Sprintf("\nYou are in plan mode. Mutating tools are disabled; investigate and then call write-plan to record your plan at %s. The user reviews it and switches modes before any mutating tool runs.\n", planPath))
	}

	if instructions := loadInstructionFiles(cwd); instructions != "" {
		b.WriteString("\n")
		b.WriteString(instructions)
	}

	b.WriteString("\n")
	b.WriteString(cwdListing(cwd))

	if contextBlock != "" {
		b.WriteString("\n")
		b.WriteString(contextBlock)
	}
	return b.String()
}

// currentUserName sources the invoking user's name the way the teacher's
// gateway does for its own user-facing identity field (None9527-NGOClaw
// cmd/gateway/main.go: os.Getenv("USER")), falling back to os/user for
// environments where USER isn't exported.
func currentUserName() string {
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "unknown"
}

// loadInstructionFiles walks from cwd upward to the user's home directory
// (inclusive), collecting OCTO.md/CLAUDE.md/AGENTS.md at each level (spec
// §4.D), grounded on the teacher's LoadAgentInstructions (internal/llm/prompt.go)
// but generalized from a single AGENTS.md/cwd-to-root walk to three
// filenames walked only as far as home, and ordered closest-to-cwd first
// so project-level instructions are read before user-level ones.
func loadInstructionFiles(cwd string) string {
	home, herr := os.UserHomeDir()

	var found []string
	dir := cwd
	for {
		for _, name := range []string{"OCTO.md", "CLAUDE.md", "AGENTS.md"} {
			path := filepath.Join(dir, name)
			if content := readFileIfExists(path); content != "" {
				found = append(found, fmt.Sprintf("Instructions from %s:\n%s", path, content))
			}
		}
		if herr == nil && dir == home {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	if len(found) == 0 {
		return ""
	}
	return strings.Join(found, "\n\n")
}

func readFileIfExists(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// cwdListing renders the unconditional working-directory listing spec §4.D
// requires in every system prompt, distinct from the context space's
// observed-directory-listings block (§4.G), which only covers directories
// the model has explicitly looked at via the list tool.
func cwdListing(cwd string) string {
	entries, err := os.ReadDir(cwd)
	if err != nil {
		return fmt.Sprintf("Working directory: %s (listing unavailable: %v)\n", cwd, err)
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

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Working directory: %s\n", cwd))
	for _, n := range names {
		b.WriteString("  ")
		b.WriteString(n)
		b.WriteString("\n")
	}
	return b.String()
}

// charCapForContextWindow derives a tool-response truncation cap from the
// active model's context budget rather than a flat constant: tool output
// competes with conversation history for the same window, so a model with
// a small window gets a tighter cap. Roughly 4 characters/token (the same
// heuristic internal/agent/window.go uses for budgeting) and tool output is
// allowed at most an eighth of the window, leaving the rest for history and
// the model's own response.
func charCapForContextWindow(contextWindow int) int {
	const (
		charsPerToken  = 4
		minCap         = 4_000
		toolOutputFrac = 8
	)
	if contextWindow <= 0 {
		return 10_000
	}
	charCap := (contextWindow / toolOutputFrac) * charsPerToken
	if charCap < minCap {
		return minCap
	}
	return charCap
}

func runREPL(sessionID string, cache *store.Cache, historyLog *history.Log, loop *agent.Loop, renderer *consoleRenderer) {
	fmt.Printf("octo session %s (ctrl-d to exit)\n", sessionID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	reader := bufio.NewReader(os.Stdin)
	for {
		before := historyLog.Len()
		fmt.Print("\n> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			break
		}
		line = strings.TrimRight(line, "\n")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if err := loop.Run(ctx, line, nil); err != nil {
			fmt.Printf("\n[error] %v\n", err)
		}
		renderer.flush()
		fmt.Println()

		persistNewItems(cache, sessionID, historyLog, before)
	}
}

// persistNewItems appends every item recorded since before to the session's
// stored history (spec §6 session persistence), replacing it wholesale
// instead when compaction ran this turn and shrank the log below before.
func persistNewItems(cache *store.Cache, sessionID string, historyLog *history.Log, before int) {
	if cache == nil {
		return
	}
	items := historyLog.Items()
	if len(items) < before {
		if err := cache.ReplaceHistory(sessionID, items); err != nil {
			log.Warn().Err(err).Msg("failed to persist compacted history")
		}
		return
	}
	for _, it := range items[before:] {
		if err := cache.AppendHistoryItem(sessionID, it); err != nil {
			log.Warn().Err(err).Msg("failed to persist history item")
		}
	}
}

func newSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		log.Warn().Err(err).Msg("failed to read random bytes for session id")
		return fmt.Sprintf("%x", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

func resolveSession(flagSession string, flagContinue bool, cache *store.Cache) (string, []history.Item) {
	switch {
	case flagSession != "":
		if cache != nil {
			ok, err := cache.SessionExists(flagSession)
			if err != nil || !ok {
				fmt.Printf("Session %q not found\n", flagSession)
				os.Exit(1)
			}
		}
		return flagSession, loadHistory(flagSession, cache)

	case flagContinue:
		if cache == nil {
			fmt.Println("No cache available")
			os.Exit(1)
		}
		id, err := cache.LatestSessionID()
		if err != nil {
			fmt.Printf("No sessions to continue: %v\n", err)
			os.Exit(1)
		}
		return id, loadHistory(id, cache)

	default:
		sid := newSessionID()
		if cache != nil {
			if err := cache.CreateSession(sid); err != nil {
				fmt.Printf("Warning: failed to create session: %v\n", err)
			}
		}
		return sid, nil
	}
}

func loadHistory(sessionID string, cache *store.Cache) []history.Item {
	if cache == nil {
		return nil
	}
	items, err := cache.LoadHistory(sessionID)
	if err != nil {
		fmt.Printf("Warning: failed to load session history: %v\n", err)
		return nil
	}
	return items
}

func listSessions(cache *store.Cache) {
	if cache == nil {
		fmt.Println("No cache available")
		return
	}
	sessions, err := cache.ListSessions()
	if err != nil {
		fmt.Printf("Error listing sessions: %v\n", err)
		return
	}
	if len(sessions) == 0 {
		fmt.Println("No sessions found")
		return
	}
	for _, s := range sessions {
		preview := strings.ReplaceAll(s.Preview, "\n", " ")
		if len(preview) > 50 {
			preview = preview[:50]
		}
		fmt.Printf("%s  %s  %s\n", s.ID, s.Updated.Format("2006-01-02 15:04"), preview)
	}
}

func loadConfig() (*config.Config, error) {
	configPath := filepath.Join(".", "config.toml")
	if dataDir, err := config.DataDir(); err == nil {
		dataDirPath := filepath.Join(dataDir, "config.toml")
		if _, err := os.Stat(dataDirPath); err == nil {
			configPath = dataDirPath
		}
	}
	return config.Load(configPath)
}

func setupFileLogging() error {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	dataDir, err := config.DataDir()
	if err != nil {
		return err
	}

	logDir := filepath.Join(dataDir, "logs")
	if err := os.MkdirAll(logDir, 0750); err != nil {
		return err
	}

	logFile := filepath.Join(logDir, "octo.log")
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}

	log.Logger = log.Output(file)
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	return nil
}
