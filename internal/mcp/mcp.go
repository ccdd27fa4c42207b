// Package mcp connects to Model Context Protocol servers over stdio and
// exposes their tools as namespaced remote actions.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/client"
	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"github.com/loopshell/loopshell/internal/provider"
)

const protocolVersion = "2025-06-18"

// NamePrefix starts every qualified remote tool name.
const NamePrefix = "mcp__"

// ServerConfig declares one MCP server to launch at startup.
type ServerConfig struct {
	// Name namespaces the server's tools as mcp__<name>__<tool>.
	Name string
	// Command is the executable that speaks MCP on stdio.
	Command string
	// Args are passed to the command.
	Args []string
	// Env adds variables on top of the inherited environment.
	Env map[string]string
	// AlwaysAllow lists tool names (unqualified) that skip the
	// approval gate for this server.
	AlwaysAllow []string
}

// QualifiedName builds the namespaced form for one of this server's tools.
func (c ServerConfig) QualifiedName(tool string) string {
	return NamePrefix + c.Name + "__" + tool
}

// SplitName parses a qualified remote tool name into server and tool.
func SplitName(qualified string) (server, tool string, ok bool) {
	rest, found := strings.CutPrefix(qualified, NamePrefix)
	if !found {
		return "", "", false
	}
	server, tool, found = strings.Cut(rest, "__")
	if !found || server == "" || tool == "" {
		return "", "", false
	}
	return server, tool, true
}

// IsRemoteName reports whether a tool name belongs to a remote server.
func IsRemoteName(name string) bool {
	_, _, ok := SplitName(name)
	return ok
}

type remoteTool struct {
	server string
	tool   mcptypes.Tool
}

type serverConn struct {
	config ServerConfig
	client *client.Client
	tools  []mcptypes.Tool
}

// Manager owns the connections to every configured MCP server and routes
// qualified tool calls to the right one.
type Manager struct {
	logger  *slog.Logger
	mu      sync.RWMutex
	servers map[string]*serverConn
	order   []string
	tools   map[string]remoteTool
	always  map[string]bool
}

// NewManager returns a manager with no connections yet.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		logger:  logger,
		servers: make(map[string]*serverConn),
		tools:   make(map[string]remoteTool),
		always:  make(map[string]bool),
	}
}

// Connect launches and initializes every configured server. A server that
// fails to start is logged and skipped so one broken entry does not take
// down the session.
func (m *Manager) Connect(ctx context.Context, configs []ServerConfig) {
	for _, cfg := range configs {
		if cfg.Name == "" || cfg.Command == "" {
			m.logger.Warn("skipping mcp server with empty name or command")
			continue
		}
		if err := m.connectOne(ctx, cfg); err != nil {
			m.logger.Warn("mcp server failed to start",
				"server", cfg.Name, "command", cfg.Command, "error", err)
		}
	}
}

func (m *Manager) connectOne(ctx context.Context, cfg ServerConfig) error {
	env := os.Environ()
	for k, v := range cfg.Env {
		env = append(env, k+"="+v)
	}

	mcpClient, err := client.NewStdioMCPClient(cfg.Command, env, cfg.Args...)
	if err != nil {
		return fmt.Errorf("spawning server: %w", err)
	}

	initReq := mcptypes.InitializeRequest{
		Params: mcptypes.InitializeParams{
			ProtocolVersion: protocolVersion,
			Capabilities:    mcptypes.ClientCapabilities{},
			ClientInfo: mcptypes.Implementation{
				Name:    "loopshell",
				Version: "1.0.0",
			},
		},
	}
	if _, err := mcpClient.Initialize(ctx, initReq); err != nil {
		mcpClient.Close()
		return fmt.Errorf("initializing: %w", err)
	}

	listed, err := mcpClient.ListTools(ctx, mcptypes.ListToolsRequest{})
	if err != nil {
		mcpClient.Close()
		return fmt.Errorf("listing tools: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.servers[cfg.Name]; exists {
		mcpClient.Close()
		return fmt.Errorf("duplicate server name %q", cfg.Name)
	}
	m.servers[cfg.Name] = &serverConn{config: cfg, client: mcpClient, tools: listed.Tools}
	m.order = append(m.order, cfg.Name)
	for _, tool := range listed.Tools {
		m.tools[cfg.QualifiedName(tool.Name)] = remoteTool{server: cfg.Name, tool: tool}
	}
	for _, name := range cfg.AlwaysAllow {
		m.always[cfg.QualifiedName(name)] = true
	}

	m.logger.Info("mcp server connected", "server", cfg.Name, "tools", len(listed.Tools))
	return nil
}

// Names returns every qualified remote tool name in server declaration
// order, tools sorted within each server.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var names []string
	for _, server := range m.order {
		conn := m.servers[server]
		perServer := make([]string, 0, len(conn.tools))
		for _, tool := range conn.tools {
			perServer = append(perServer, conn.config.QualifiedName(tool.Name))
		}
		sort.Strings(perServer)
		names = append(names, perServer...)
	}
	return names
}

// Specs declares every remote tool to the model under its qualified name.
func (m *Manager) Specs() []provider.ActionSpec {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var specs []provider.ActionSpec
	for _, server := range m.order {
		conn := m.servers[server]
		for _, tool := range conn.tools {
			specs = append(specs, provider.ActionSpec{
				Name:        conn.config.QualifiedName(tool.Name),
				Description: tool.Description,
				Parameters:  convertSchema(tool.InputSchema),
			})
		}
	}
	return specs
}

// Has reports whether the qualified name maps to a connected tool.
func (m *Manager) Has(qualified string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.tools[qualified]
	return ok
}

// AlwaysAllowed reports whether the qualified tool was configured to
// bypass the approval gate.
func (m *Manager) AlwaysAllowed(qualified string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.always[qualified]
}

// Invoke calls the remote tool behind a qualified name. The returned
// isError mirrors the server's own error flag; err covers transport
// failures and unknown names.
func (m *Manager) Invoke(ctx context.Context, qualified string, args map[string]any) (content string, isError bool, err error) {
	m.mu.RLock()
	entry, ok := m.tools[qualified]
	var conn *serverConn
	if ok {
		conn = m.servers[entry.server]
	}
	m.mu.RUnlock()
	if !ok || conn == nil {
		return "", false, fmt.Errorf("unknown remote tool %q", qualified)
	}

	result, err := conn.client.CallTool(ctx, mcptypes.CallToolRequest{
		Params: mcptypes.CallToolParams{
			Name:      entry.tool.Name,
			Arguments: args,
		},
	})
	if err != nil {
		return "", false, fmt.Errorf("calling %s: %w", qualified, err)
	}
	return extractText(result), result.IsError, nil
}

// Close shuts down every server connection.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, conn := range m.servers {
		if err := conn.client.Close(); err != nil {
			m.logger.Warn("closing mcp server", "server", name, "error", err)
		}
	}
	m.servers = make(map[string]*serverConn)
	m.order = nil
	m.tools = make(map[string]remoteTool)
}

// convertSchema flattens an MCP input schema into the generic JSON
// schema map the model transport expects.
func convertSchema(schema mcptypes.ToolInputSchema) map[string]any {
	out := map[string]any{"type": schema.Type}
	if out["type"] == "" {
		out["type"] = "object"
	}
	if schema.Properties != nil {
		out["properties"] = schema.Properties
	} else {
		out["properties"] = map[string]any{}
	}
	if len(schema.Required) > 0 {
		out["required"] = schema.Required
	}
	if schema.Defs != nil {
		out["$defs"] = schema.Defs
	}
	return out
}

// extractText concatenates the text content items of a tool result.
func extractText(result *mcptypes.CallToolResult) string {
	var parts []string
	for _, item := range result.Content {
		if text, ok := item.(mcptypes.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}
	return strings.Join(parts, "\n")
}
