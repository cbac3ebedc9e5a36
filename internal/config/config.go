// Package config loads Octo's TOML configuration and per-provider
// credentials, the way the teacher's internal/config does (spec §10
// AMBIENT STACK — config loading is carried regardless of spec.md's "config
// loading" Non-goal, which only excludes it as a *specified subsystem*, not
// as ambient plumbing this binary still needs).
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Mode selects the confirmation policy the tool dispatch layer applies
// (spec §3 "Mode", §4.C).
type Mode string

const (
	ModeCollaboration Mode = "collaboration"
	ModeUnchained     Mode = "unchained"
	ModePlan          Mode = "plan"
)

// Config is the root configuration structure.
type Config struct {
	DefaultProvider string                    `toml:"default_provider"`
	Providers       map[string]ProviderConfig `toml:"providers"`
	Autofix         AutofixConfig             `toml:"autofix"`
	Cache           CacheConfig               `toml:"cache"`
	Compaction      CompactionConfig          `toml:"compaction"`
	Skills          SkillsConfig              `toml:"skills"`
	WebSearch       WebSearchConfig           `toml:"web_search"`
	MCP             MCPConfig                 `toml:"mcp"`
	Shell           ShellConfig               `toml:"shell"`
	UI              UIConfig                  `toml:"ui"`
}

// UIConfig controls the console renderer's human-facing-only echo (spec
// §10) — never anything sent back to the model.
type UIConfig struct {
	// Theme names a Chroma style (internal/highlight) used to syntax-highlight
	// fenced code blocks in the console transcript. Defaults to "monokai".
	Theme string `toml:"theme"`
}

// ShellConfig customizes the shell tool's command blocklist (spec §4.C
// "shell"; the default list lives in internal/shell.BannedCommands).
// BlockedCommands adds to the default list; AllowedCommands removes
// entries from it, letting a project re-enable e.g. "curl" if it trusts
// its own sandbox.
type ShellConfig struct {
	BlockedCommands []string `toml:"blocked_commands"`
	AllowedCommands []string `toml:"allowed_commands"`
}

// MCPConfig points at an upstream MCP server the mcp tool proxies calls to
// (spec §6 "MCP client interface"). Empty Upstream disables the mcp tool.
type MCPConfig struct {
	Upstream string `toml:"upstream"`
}

// ProviderConfig holds LLM provider settings.
type ProviderConfig struct {
	Kind           string  `toml:"kind"` // "anthropic", "openai", "zen"
	Endpoint       string  `toml:"endpoint"`
	Model          string  `toml:"model"`
	Temperature    float64 `toml:"temperature"`
	ReasoningLevel string  `toml:"reasoning_level"` // "", "low", "medium", "high"
	ContextWindow  int     `toml:"context_window"`
}

// AutofixConfig names the small model used by the JSON/diff autofixers
// (spec §4.I), which may differ from the main conversation model.
type AutofixConfig struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
}

// CacheConfig holds fetch/web-search result cache settings.
type CacheConfig struct {
	TTLHours int `toml:"ttl_hours"`
}

// CacheTTLOrDefault returns the configured TTL or 24 hours if unset.
func (c CacheConfig) CacheTTLOrDefault() int {
	if c.TTLHours <= 0 {
		return 24
	}
	return c.TTLHours
}

// CompactionConfig controls when history compaction triggers (spec §4.H).
type CompactionConfig struct {
	TriggerTokens int `toml:"trigger_tokens"`
}

// TriggerTokensOrDefault returns the configured threshold or 100k tokens.
func (c CompactionConfig) TriggerTokensOrDefault() int {
	if c.TriggerTokens <= 0 {
		return 100_000
	}
	return c.TriggerTokens
}

// SkillsConfig points at a skill-manifest directory (spec §1 "skill
// discovery" is treated as an external directory scanner).
type SkillsConfig struct {
	Dir string `toml:"dir"`
}

// WebSearchConfig holds the web-search API key, gating whether the
// web-search tool is registered (spec §4.C).
type WebSearchConfig struct {
	APIKey string `toml:"api_key"`
}

// Load reads configuration from a TOML file and applies environment
// variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Providers: make(map[string]ProviderConfig),
	}

	if path == "" {
		return nil, fmt.Errorf("config path is required")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate returns an error if the configuration is invalid.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Providers) == 0 {
		errs = append(errs, errors.New("providers: at least one provider must be configured"))
	} else {
		for name, providerCfg := range c.Providers {
			errs = append(errs, validateProviderConfig(name, providerCfg)...)
		}
	}

	if c.DefaultProvider != "" {
		if _, ok := c.Providers[c.DefaultProvider]; !ok {
			errs = append(errs, fmt.Errorf("default_provider=%q does not exist in providers", c.DefaultProvider))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func validateProviderConfig(name string, cfg ProviderConfig) []error {
	var errs []error
	if cfg.Endpoint == "" {
		errs = append(errs, fmt.Errorf("providers.%s.endpoint is required", name))
	} else if err := validateEndpoint(cfg.Endpoint); err != nil {
		errs = append(errs, fmt.Errorf("providers.%s.endpoint=%q is invalid: %v", name, cfg.Endpoint, err))
	}

	if cfg.Model == "" {
		errs = append(errs, fmt.Errorf("providers.%s.model is required", name))
	}

	if cfg.Temperature < 0.0 || cfg.Temperature > 2.0 {
		errs = append(errs, fmt.Errorf("providers.%s.temperature=%v must be between 0.0 and 2.0", name, cfg.Temperature))
	}

	switch cfg.ReasoningLevel {
	case "", "low", "medium", "high":
	default:
		errs = append(errs, fmt.Errorf("providers.%s.reasoning_level=%q must be one of low/medium/high", name, cfg.ReasoningLevel))
	}

	return errs
}

func validateEndpoint(value string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return err
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return errors.New("missing scheme or host")
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	for _, setter := range []struct {
		env   string
		apply func(string)
	}{
		{"OCTO_WEB_SEARCH_API_KEY", func(v string) {
			if v != "" {
				cfg.WebSearch.APIKey = v
			}
		}},
	} {
		setter.apply(os.Getenv(setter.env))
	}
}

// DataDir returns the path to Octo's data directory (~/.config/octo).
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "octo"), nil
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", err
	}
	return dir, nil
}
