// Package config loads the loopshell TOML configuration file and fills
// in defaults for everything the file leaves out.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/loopshell/loopshell/internal/mcp"
	"github.com/loopshell/loopshell/internal/shell"
	"github.com/loopshell/loopshell/internal/tools"
)

// Defaults applied when the config file is absent or partial.
const (
	DefaultModel          = "gpt-4o"
	DefaultAPIKeyEnv      = "OPENAI_API_KEY"
	DefaultMaxActions     = 3
	DefaultTimeoutSeconds = 30
)

// Config is the full runtime configuration.
type Config struct {
	// Model is the chat model identifier sent to the provider.
	Model string `toml:"model"`
	// BaseURL overrides the provider endpoint, for local or proxy setups.
	BaseURL string `toml:"base_url"`
	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `toml:"api_key_env"`
	// MaxActionsPerTurn caps tool calls per user turn.
	MaxActionsPerTurn int `toml:"max_actions_per_turn"`
	// CommandTimeoutSeconds bounds each sandboxed command.
	CommandTimeoutSeconds int `toml:"command_timeout_seconds"`
	// Approve lists pre-approval patterns, exact or * globs.
	Approve []string `toml:"approve"`
	// ProbeTools overrides the default binaries probed at startup.
	ProbeTools []string `toml:"probe_tools"`

	Containment    ContainmentConfig     `toml:"containment"`
	DangerPatterns []DangerPatternConfig `toml:"danger_patterns"`
	FakeTools      []FakeToolConfig      `toml:"fake_tools"`
	MCPServers     []MCPServerConfig     `toml:"mcp_servers"`
}

// ContainmentConfig tunes the output truncation thresholds.
type ContainmentConfig struct {
	MaxLines  int `toml:"max_lines"`
	MaxBytes  int `toml:"max_bytes"`
	HeadLines int `toml:"head_lines"`
	TailLines int `toml:"tail_lines"`
}

// DangerPatternConfig adds a custom dangerous-command rule.
type DangerPatternConfig struct {
	Reason  string `toml:"reason"`
	Pattern string `toml:"pattern"`
}

// FakeToolConfig declares a canned stub tool.
type FakeToolConfig struct {
	Name        string         `toml:"name"`
	Description string         `toml:"description"`
	Parameters  map[string]any `toml:"parameters"`
	Response    string         `toml:"response"`
}

// MCPServerConfig declares a remote tool server to launch at startup.
type MCPServerConfig struct {
	Name        string            `toml:"name"`
	Command     string            `toml:"command"`
	Args        []string          `toml:"args"`
	Env         map[string]string `toml:"env"`
	AlwaysAllow []string          `toml:"always_allow"`
}

// DefaultPath returns the per-user config file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".loopshell", "config.toml"), nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the TOML file at path. A missing file yields the defaults;
// a malformed file is an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.APIKeyEnv == "" {
		c.APIKeyEnv = DefaultAPIKeyEnv
	}
	if c.MaxActionsPerTurn <= 0 {
		c.MaxActionsPerTurn = DefaultMaxActions
	}
	if c.CommandTimeoutSeconds <= 0 {
		c.CommandTimeoutSeconds = DefaultTimeoutSeconds
	}
	def := shell.DefaultContainmentPolicy()
	if c.Containment.MaxLines <= 0 {
		c.Containment.MaxLines = def.MaxLines
	}
	if c.Containment.MaxBytes <= 0 {
		c.Containment.MaxBytes = def.MaxBytes
	}
	if c.Containment.HeadLines <= 0 {
		c.Containment.HeadLines = def.HeadLines
	}
	if c.Containment.TailLines <= 0 {
		c.Containment.TailLines = def.TailLines
	}
	if len(c.ProbeTools) == 0 {
		c.ProbeTools = append([]string(nil), shell.DefaultProbedTools...)
	}
}

func (c *Config) validate() error {
	seen := make(map[string]bool)
	for _, server := range c.MCPServers {
		if server.Name == "" {
			return errors.New("mcp server missing name")
		}
		if server.Command == "" {
			return fmt.Errorf("mcp server %q missing command", server.Name)
		}
		if seen[server.Name] {
			return fmt.Errorf("duplicate mcp server name %q", server.Name)
		}
		seen[server.Name] = true
	}
	for _, fake := range c.FakeTools {
		if fake.Name == "" {
			return errors.New("fake tool missing name")
		}
	}
	for _, pattern := range c.DangerPatterns {
		if pattern.Pattern == "" {
			return errors.New("danger pattern missing pattern")
		}
	}
	return nil
}

// ContainmentPolicy converts the containment section for the executor.
func (c *Config) ContainmentPolicy() shell.ContainmentPolicy {
	return shell.ContainmentPolicy{
		MaxLines:  c.Containment.MaxLines,
		MaxBytes:  c.Containment.MaxBytes,
		HeadLines: c.Containment.HeadLines,
		TailLines: c.Containment.TailLines,
	}
}

// ShellDangerPatterns builds the classifier rule set, custom rules first
// so they win over the built-ins.
func (c *Config) ShellDangerPatterns() ([]shell.DangerPattern, error) {
	var patterns []shell.DangerPattern
	for _, entry := range c.DangerPatterns {
		compiled, err := shell.CompileDangerPattern(entry.Reason, entry.Pattern)
		if err != nil {
			return nil, fmt.Errorf("danger pattern %q: %w", entry.Pattern, err)
		}
		patterns = append(patterns, compiled)
	}
	return append(patterns, shell.DefaultDangerPatterns()...), nil
}

// FakeToolDecls converts the fake tool section for the stub registry.
func (c *Config) FakeToolDecls() []tools.FakeTool {
	decls := make([]tools.FakeTool, 0, len(c.FakeTools))
	for _, entry := range c.FakeTools {
		decls = append(decls, tools.FakeTool{
			Name:        entry.Name,
			Description: entry.Description,
			Parameters:  entry.Parameters,
			Response:    entry.Response,
		})
	}
	return decls
}

// MCPServerConfigs converts the server section for the MCP manager.
func (c *Config) MCPServerConfigs() []mcp.ServerConfig {
	configs := make([]mcp.ServerConfig, 0, len(c.MCPServers))
	for _, entry := range c.MCPServers {
		configs = append(configs, mcp.ServerConfig{
			Name:        entry.Name,
			Command:     entry.Command,
			Args:        entry.Args,
			Env:         entry.Env,
			AlwaysAllow: entry.AlwaysAllow,
		})
	}
	return configs
}
