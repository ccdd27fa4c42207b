package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, cfg.Model)
	assert.Equal(t, DefaultMaxActions, cfg.MaxActionsPerTurn)
	assert.Equal(t, DefaultTimeoutSeconds, cfg.CommandTimeoutSeconds)
	assert.Equal(t, 200, cfg.Containment.MaxLines)
	assert.NotEmpty(t, cfg.ProbeTools)
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
model = "local-llama"
base_url = "http://localhost:11434/v1"
api_key_env = "LOCAL_KEY"
max_actions_per_turn = 5
command_timeout_seconds = 60
approve = ["git status", "ls *"]

[containment]
max_lines = 100
max_bytes = 4096

[[danger_patterns]]
reason = "touches production db"
pattern = "psql.*prod"

[[fake_tools]]
name = "get_weather"
description = "stubbed weather"
response = "Sunny in {{$param.city}}"

[[mcp_servers]]
name = "files"
command = "mcp-files"
args = ["--root", "/tmp"]
always_allow = ["list"]

[mcp_servers.env]
DEBUG = "1"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "local-llama", cfg.Model)
	assert.Equal(t, "http://localhost:11434/v1", cfg.BaseURL)
	assert.Equal(t, "LOCAL_KEY", cfg.APIKeyEnv)
	assert.Equal(t, 5, cfg.MaxActionsPerTurn)
	assert.Equal(t, 60, cfg.CommandTimeoutSeconds)
	assert.Equal(t, []string{"git status", "ls *"}, cfg.Approve)

	policy := cfg.ContainmentPolicy()
	assert.Equal(t, 100, policy.MaxLines)
	assert.Equal(t, 4096, policy.MaxBytes)
	assert.Equal(t, 50, policy.HeadLines)

	patterns, err := cfg.ShellDangerPatterns()
	require.NoError(t, err)
	require.NotEmpty(t, patterns)
	assert.Equal(t, "touches production db", patterns[0].Reason)
	assert.True(t, patterns[0].Pattern.MatchString("psql -h prod.example.com"))

	decls := cfg.FakeToolDecls()
	require.Len(t, decls, 1)
	assert.Equal(t, "get_weather", decls[0].Name)

	servers := cfg.MCPServerConfigs()
	require.Len(t, servers, 1)
	assert.Equal(t, "files", servers[0].Name)
	assert.Equal(t, []string{"--root", "/tmp"}, servers[0].Args)
	assert.Equal(t, "1", servers[0].Env["DEBUG"])
	assert.Equal(t, []string{"list"}, servers[0].AlwaysAllow)
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeConfig(t, `model = [broken`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateDuplicateServer(t *testing.T) {
	path := writeConfig(t, `
[[mcp_servers]]
name = "a"
command = "x"

[[mcp_servers]]
name = "a"
command = "y"
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestValidateBadDangerPattern(t *testing.T) {
	path := writeConfig(t, `
[[danger_patterns]]
reason = "broken"
pattern = "["
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	_, err = cfg.ShellDangerPatterns()
	assert.Error(t, err)
}
