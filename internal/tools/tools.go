// Package tools holds the built-in action backends: the shell sandbox
// tool, the file writer, and the canned stub registry.
package tools

import (
	"context"
	"encoding/json"

	"github.com/loopshell/loopshell/internal/provider"
	"github.com/loopshell/loopshell/internal/shell"
)

// Context provides shared state to tool implementations.
type Context struct {
	// Env is the session shell environment.
	Env *shell.Environment
	// Exec runs sandboxed commands.
	Exec *shell.Executor
}

// Result is the outcome of one tool invocation.
type Result struct {
	// Content is the text payload fed back to the model.
	Content string
	// IsError reports whether the payload describes a failure.
	IsError bool
}

// Tool is a callable built-in action.
type Tool interface {
	Name() string
	Description() string
	Schema() map[string]any
	Run(ctx context.Context, input json.RawMessage, toolCtx Context) (Result, error)
}

// Runner dispatches built-in tools by name, preserving declaration order.
type Runner struct {
	tools map[string]Tool
	order []string
}

// NewRunner constructs a runner, de-duplicating by name.
func NewRunner(tools []Tool) *Runner {
	toolMap := make(map[string]Tool, len(tools))
	order := make([]string, 0, len(tools))
	for _, tool := range tools {
		if tool == nil || tool.Name() == "" {
			continue
		}
		if _, exists := toolMap[tool.Name()]; exists {
			continue
		}
		toolMap[tool.Name()] = tool
		order = append(order, tool.Name())
	}
	return &Runner{tools: toolMap, order: order}
}

// Has reports whether a tool with the given name is registered.
func (r *Runner) Has(name string) bool {
	_, ok := r.tools[name]
	return ok
}

// Get returns the named tool, or nil.
func (r *Runner) Get(name string) Tool {
	return r.tools[name]
}

// Names returns the registered tool names in declaration order.
func (r *Runner) Names() []string {
	return append([]string(nil), r.order...)
}

// Specs declares every registered tool to the model in stable order.
func (r *Runner) Specs() []provider.ActionSpec {
	specs := make([]provider.ActionSpec, 0, len(r.order))
	for _, name := range r.order {
		tool := r.tools[name]
		specs = append(specs, provider.ActionSpec{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters:  tool.Schema(),
		})
	}
	return specs
}

// Run executes a tool by name.
func (r *Runner) Run(ctx context.Context, name string, input json.RawMessage, toolCtx Context) (Result, error) {
	tool, ok := r.tools[name]
	if !ok {
		return Result{IsError: true, Content: "tool not found: " + name}, nil
	}
	return tool.Run(ctx, input, toolCtx)
}
