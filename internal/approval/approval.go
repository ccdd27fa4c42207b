// Package approval is the human-approval gate for requested actions.
// The engine talks to a single Approver port; interactive sessions plug in
// a prompting implementation, headless sessions one that consults only
// pre-approval patterns and never blocks.
package approval

import (
	"context"
	"errors"
	"fmt"
)

// Kind labels what is being approved, for prompt wording.
type Kind string

const (
	// KindCommand is a shell command execution.
	KindCommand Kind = "command"
	// KindFileWrite is a file write.
	KindFileWrite Kind = "file write"
	// KindRemote is a remote tool invocation.
	KindRemote Kind = "remote tool"
)

// Request describes one action awaiting approval.
type Request struct {
	// Kind is the action category.
	Kind Kind
	// Name is the tool or command name being invoked.
	Name string
	// Display is the human-facing summary (classified command display,
	// target path, or remote tool name).
	Display string
	// Detail holds the full request text for the "show full request" option.
	Detail string
	// Dangerous carries the classifier's danger flag.
	Dangerous bool
	// Reason explains the danger flag when set.
	Reason string
}

// Decision is the outcome of an approval request.
type Decision struct {
	// Approved reports whether the action may run.
	Approved bool
	// Always asks the engine to skip future prompts for this name.
	Always bool
	// Reason qualifies a rejection, empty for a generic one.
	Reason string
}

// Approver is the approval port. Implementations may block (interactive)
// or must fail fast (headless); the engine never assumes blocking I/O.
type Approver interface {
	Approve(ctx context.Context, request Request) (Decision, error)
}

// Func adapts a function to the Approver interface.
type Func func(ctx context.Context, request Request) (Decision, error)

// Approve calls the wrapped function.
func (f Func) Approve(ctx context.Context, request Request) (Decision, error) {
	return f(ctx, request)
}

// ErrNoApprover indicates no approval surface was configured at all.
var ErrNoApprover = errors.New("no approval surface configured")

// PatternApprover approves solely from pre-approval patterns. It never
// blocks: anything not covered is rejected with a distinguishable reason.
// This is the headless/scripted-mode implementation.
type PatternApprover struct {
	// Patterns is the pre-approval set consulted for commands.
	Patterns *PatternSet
}

// Approve consults the pattern set and fails fast otherwise.
func (p *PatternApprover) Approve(_ context.Context, request Request) (Decision, error) {
	command := request.Detail
	if command == "" {
		command = request.Display
	}
	if p.Patterns != nil && request.Kind == KindCommand && p.Patterns.IsApproved(command) {
		return Decision{Approved: true}, nil
	}
	return Decision{
		Approved: false,
		Reason:   fmt.Sprintf("%s not covered by a pre-approval pattern in non-interactive mode", request.Kind),
	}, nil
}
