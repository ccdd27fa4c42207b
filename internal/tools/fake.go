package tools

import (
	"sort"

	"github.com/loopshell/loopshell/internal/provider"
)

// FakeTool is a user-declared stub that answers with a macro-expanded
// template instead of performing real work.
type FakeTool struct {
	// Name identifies the stub in model tool calls.
	Name string
	// Description is shown to the model.
	Description string
	// Parameters is the JSON schema for the stub's arguments.
	Parameters map[string]any
	// Response is the macro template returned on every call.
	Response string
}

// FakeToolManager holds the declared stubs and their shared macro state.
type FakeToolManager struct {
	tools    map[string]FakeTool
	order    []string
	expander *Expander
	replaced map[string]bool
}

// NewFakeToolManager registers the given stubs. Duplicate names keep the
// first declaration.
func NewFakeToolManager(tools []FakeTool) *FakeToolManager {
	m := &FakeToolManager{
		tools:    make(map[string]FakeTool, len(tools)),
		expander: NewExpander(),
		replaced: make(map[string]bool),
	}
	for _, tool := range tools {
		if tool.Name == "" {
			continue
		}
		if _, exists := m.tools[tool.Name]; exists {
			continue
		}
		m.tools[tool.Name] = tool
		m.order = append(m.order, tool.Name)
	}
	return m
}

// Has reports whether a stub with the given name is declared.
func (m *FakeToolManager) Has(name string) bool {
	_, ok := m.tools[name]
	return ok
}

// Call expands the named stub's response template against the call
// arguments. Calling an undeclared stub returns ok=false.
func (m *FakeToolManager) Call(name string, params map[string]any) (string, bool) {
	tool, ok := m.tools[name]
	if !ok {
		return "", false
	}
	return m.expander.Expand(tool.Response, params), true
}

// Specs declares every stub to the model in declaration order.
func (m *FakeToolManager) Specs() []provider.ActionSpec {
	specs := make([]provider.ActionSpec, 0, len(m.order))
	for _, name := range m.order {
		tool := m.tools[name]
		params := tool.Parameters
		if params == nil {
			params = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		specs = append(specs, provider.ActionSpec{
			Name:        name,
			Description: tool.Description,
			Parameters:  params,
		})
	}
	return specs
}

// Integrate merges the stub set with the remote tool names discovered at
// startup. A stub sharing a remote tool's name shadows that tool; the
// remaining remote names are returned for registration alongside the stubs.
func (m *FakeToolManager) Integrate(remoteNames []string) []string {
	kept := make([]string, 0, len(remoteNames))
	for _, name := range remoteNames {
		if m.Has(name) {
			m.replaced[name] = true
			continue
		}
		kept = append(kept, name)
	}
	return kept
}

// ReplacedNames lists the remote tool names shadowed by stubs, sorted.
func (m *FakeToolManager) ReplacedNames() []string {
	names := make([]string, 0, len(m.replaced))
	for name := range m.replaced {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
