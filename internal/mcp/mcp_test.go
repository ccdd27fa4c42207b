package mcp

import (
	"testing"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitName(t *testing.T) {
	cases := []struct {
		qualified string
		server    string
		tool      string
		ok        bool
	}{
		{"mcp__files__read_file", "files", "read_file", true},
		{"mcp__db__query__slow", "db", "query__slow", true},
		{"bash", "", "", false},
		{"mcp__nounderscore", "", "", false},
		{"mcp____tool", "", "", false},
	}
	for _, tc := range cases {
		server, tool, ok := SplitName(tc.qualified)
		assert.Equal(t, tc.ok, ok, tc.qualified)
		assert.Equal(t, tc.server, server, tc.qualified)
		assert.Equal(t, tc.tool, tool, tc.qualified)
	}
}

func TestQualifiedName(t *testing.T) {
	cfg := ServerConfig{Name: "files"}
	assert.Equal(t, "mcp__files__list", cfg.QualifiedName("list"))
	assert.True(t, IsRemoteName("mcp__files__list"))
	assert.False(t, IsRemoteName("write_file"))
}

func TestConvertSchema(t *testing.T) {
	schema := mcptypes.ToolInputSchema{
		Type: "object",
		Properties: map[string]any{
			"path": map[string]any{"type": "string"},
		},
		Required: []string{"path"},
	}
	out := convertSchema(schema)
	assert.Equal(t, "object", out["type"])
	assert.Equal(t, []string{"path"}, out["required"])
	props, ok := out["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "path")
}

func TestConvertSchemaEmpty(t *testing.T) {
	out := convertSchema(mcptypes.ToolInputSchema{})
	assert.Equal(t, "object", out["type"])
	assert.NotNil(t, out["properties"])
	_, hasRequired := out["required"]
	assert.False(t, hasRequired)
}

func TestExtractText(t *testing.T) {
	result := &mcptypes.CallToolResult{
		Content: []mcptypes.Content{
			mcptypes.TextContent{Type: "text", Text: "first"},
			mcptypes.TextContent{Type: "text", Text: "second"},
		},
	}
	assert.Equal(t, "first\nsecond", extractText(result))
	assert.Equal(t, "", extractText(&mcptypes.CallToolResult{}))
}
