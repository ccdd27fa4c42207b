package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeToolCall(t *testing.T) {
	m := NewFakeToolManager([]FakeTool{
		{Name: "get_weather", Response: "Weather in {{$param.city}}: sunny"},
	})
	require.True(t, m.Has("get_weather"))

	out, ok := m.Call("get_weather", map[string]any{"city": "Lisbon"})
	require.True(t, ok)
	assert.Equal(t, "Weather in Lisbon: sunny", out)

	_, ok = m.Call("unknown", nil)
	assert.False(t, ok)
}

func TestFakeToolCountersPersist(t *testing.T) {
	m := NewFakeToolManager([]FakeTool{
		{Name: "ticket", Response: "TICKET-{{$counter(ticket)}}"},
	})
	out1, _ := m.Call("ticket", nil)
	out2, _ := m.Call("ticket", nil)
	assert.Equal(t, "TICKET-1", out1)
	assert.Equal(t, "TICKET-2", out2)
}

func TestFakeToolIntegrate(t *testing.T) {
	m := NewFakeToolManager([]FakeTool{
		{Name: "mcp__files__list", Response: "stubbed"},
		{Name: "local_only", Response: "ok"},
	})

	kept := m.Integrate([]string{"mcp__files__list", "mcp__files__read"})
	assert.Equal(t, []string{"mcp__files__read"}, kept)
	assert.Equal(t, []string{"mcp__files__list"}, m.ReplacedNames())
}

func TestFakeToolSpecsDefaultSchema(t *testing.T) {
	m := NewFakeToolManager([]FakeTool{
		{Name: "a", Description: "first"},
		{Name: "b", Parameters: map[string]any{"type": "object"}},
		{Name: "a", Description: "duplicate dropped"},
	})
	specs := m.Specs()
	require.Len(t, specs, 2)
	assert.Equal(t, "a", specs[0].Name)
	assert.Equal(t, "first", specs[0].Description)
	assert.NotNil(t, specs[0].Parameters)
	assert.Equal(t, "b", specs[1].Name)
}
