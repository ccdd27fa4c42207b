// Package engine drives the conversation loop: it asks the model for a
// completion, routes requested actions to the canned, sandbox, file-write,
// or remote backend, gates real effects behind approval, and bounds the
// number of actions per user turn.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/loopshell/loopshell/internal/approval"
	"github.com/loopshell/loopshell/internal/conversation"
	"github.com/loopshell/loopshell/internal/provider"
	"github.com/loopshell/loopshell/internal/shell"
	"github.com/loopshell/loopshell/internal/tools"
)

// RemoteSource exposes tools discovered from remote servers.
type RemoteSource interface {
	// Has reports whether the qualified name maps to a remote tool.
	Has(name string) bool
	// AlwaysAllowed reports whether the tool bypasses approval by config.
	AlwaysAllowed(name string) bool
	// Specs declares the remote tools to the model.
	Specs() []provider.ActionSpec
	// Invoke calls the remote tool. isError mirrors the server's flag.
	Invoke(ctx context.Context, name string, args map[string]any) (content string, isError bool, err error)
}

// Notifier receives progress events for rendering. All methods are called
// from the engine's goroutine, in order.
type Notifier interface {
	AssistantText(text string)
	ActionStarted(req conversation.ActionRequest, display string)
	ActionFinished(req conversation.ActionRequest, result conversation.ActionResult)
}

type nopNotifier struct{}

func (nopNotifier) AssistantText(string)                                                {}
func (nopNotifier) ActionStarted(conversation.ActionRequest, string)                    {}
func (nopNotifier) ActionFinished(conversation.ActionRequest, conversation.ActionResult) {}

// Options collects the engine's collaborators.
type Options struct {
	Transport    provider.Transport
	Conversation *conversation.Conversation
	Runner       *tools.Runner
	Fakes        *tools.FakeToolManager
	Remote       RemoteSource
	Classifier   *shell.Classifier
	Patterns     *approval.PatternSet
	Approver     approval.Approver
	ToolContext  tools.Context
	MaxActions   int
	Logger       *slog.Logger
	Notifier     Notifier
}

// Engine owns one conversation and executes user turns sequentially.
// It is not safe for concurrent use; callers run one turn at a time.
type Engine struct {
	transport  provider.Transport
	conv       *conversation.Conversation
	runner     *tools.Runner
	fakes      *tools.FakeToolManager
	remote     RemoteSource
	classifier *shell.Classifier
	patterns   *approval.PatternSet
	approver   approval.Approver
	toolCtx    tools.Context
	maxActions int
	logger     *slog.Logger
	notifier   Notifier

	// sessionAllow holds tool names approved with "always" this session.
	sessionAllow map[string]bool
}

// New wires an engine. Zero-value options get safe defaults; a nil
// transport or conversation is a programming error left to panic.
func New(opts Options) *Engine {
	if opts.MaxActions <= 0 {
		opts.MaxActions = 3
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	if opts.Runner == nil {
		opts.Runner = tools.NewRunner(nil)
	}
	if opts.Fakes == nil {
		opts.Fakes = tools.NewFakeToolManager(nil)
	}
	if opts.Classifier == nil {
		opts.Classifier = shell.NewClassifier(nil)
	}
	if opts.Patterns == nil {
		opts.Patterns = approval.NewPatternSet(nil)
	}
	if opts.Approver == nil {
		opts.Approver = &approval.PatternApprover{Patterns: opts.Patterns}
	}
	return &Engine{
		transport:    opts.Transport,
		conv:         opts.Conversation,
		runner:       opts.Runner,
		fakes:        opts.Fakes,
		remote:       opts.Remote,
		classifier:   opts.Classifier,
		patterns:     opts.Patterns,
		approver:     opts.Approver,
		toolCtx:      opts.ToolContext,
		maxActions:   opts.MaxActions,
		logger:       opts.Logger,
		notifier:     opts.Notifier,
		sessionAllow: make(map[string]bool),
	}
}

// Conversation returns the engine's history for persistence and display.
func (e *Engine) Conversation() *conversation.Conversation {
	return e.conv
}

// SetApprover swaps the approval surface. Called between turns only.
func (e *Engine) SetApprover(approver approval.Approver) {
	if approver != nil {
		e.approver = approver
	}
}

// SetNotifier swaps the progress sink. Called between turns only.
func (e *Engine) SetNotifier(notifier Notifier) {
	if notifier != nil {
		e.notifier = notifier
	}
}

// Specs declares every available action to the model. Canned stubs shadow
// remote tools sharing their name.
func (e *Engine) Specs() []provider.ActionSpec {
	specs := append(e.runner.Specs(), e.fakes.Specs()...)
	if e.remote != nil {
		for _, spec := range e.remote.Specs() {
			if e.fakes.Has(spec.Name) {
				continue
			}
			specs = append(specs, spec)
		}
	}
	return specs
}

// RunTurn processes one user message to completion: it loops between the
// model and the action backends until the model stops requesting actions
// or the per-turn cap trips. A transport error aborts the turn but leaves
// history intact.
func (e *Engine) RunTurn(ctx context.Context, userText string) error {
	e.conv.AppendUser(userText)
	actionsUsed := 0

	for {
		resp, err := e.transport.SendTurn(ctx, e.conv.Messages(), e.Specs())
		if err != nil {
			return fmt.Errorf("turn aborted: %w", err)
		}

		if len(resp.Requests) == 0 {
			e.conv.AppendAssistant(resp.Text)
			e.notifier.AssistantText(resp.Text)
			return nil
		}

		if actionsUsed >= e.maxActions {
			msg := fmt.Sprintf(
				"Tool call limit reached (%d per turn). Stopping here; send another message to continue.",
				e.maxActions)
			e.conv.AppendAssistant(msg)
			e.notifier.AssistantText(msg)
			e.logger.Info("per-turn action cap reached", "cap", e.maxActions)
			return nil
		}

		e.conv.Append(conversation.Message{
			Role:     conversation.RoleAssistant,
			Content:  resp.Text,
			Requests: resp.Requests,
		})
		if resp.Text != "" {
			e.notifier.AssistantText(resp.Text)
		}

		for _, req := range resp.Requests {
			result := e.dispatch(ctx, req)
			e.conv.Append(conversation.Message{
				Role:    conversation.RoleTool,
				Results: []conversation.ActionResult{result},
			})
			e.notifier.ActionFinished(req, result)
			actionsUsed++
		}
	}
}

// dispatch routes one action request to its backend and always produces
// a result. Failures become error results, never aborted turns; a panic
// in a backend is caught here and reported the same way.
func (e *Engine) dispatch(ctx context.Context, req conversation.ActionRequest) (result conversation.ActionResult) {
	e.logger.Debug("dispatching action", "id", req.ID, "tool", req.Name)

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("action backend panicked", "tool", req.Name, "panic", r)
			result = errorResult(req, fmt.Sprintf("tool %s crashed: %v", req.Name, r))
		}
	}()

	switch {
	case e.fakes.Has(req.Name):
		return e.runCanned(req)
	case req.Name == "bash":
		return e.runSandbox(ctx, req)
	case e.runner.Has(req.Name):
		return e.runBuiltin(ctx, req)
	case e.remote != nil && e.remote.Has(req.Name):
		return e.runRemote(ctx, req)
	}
	return errorResult(req, "unknown tool: "+req.Name)
}

// runCanned expands a stub's template. Stubs perform no real effect and
// skip the approval gate entirely.
func (e *Engine) runCanned(req conversation.ActionRequest) conversation.ActionResult {
	e.notifier.ActionStarted(req, req.Name)
	content, ok := e.fakes.Call(req.Name, req.Args())
	if !ok {
		return errorResult(req, "unknown tool: "+req.Name)
	}
	return conversation.ActionResult{ID: req.ID, Name: req.Name, Content: content}
}

// runSandbox classifies a shell command, gates it, and executes it.
func (e *Engine) runSandbox(ctx context.Context, req conversation.ActionRequest) conversation.ActionResult {
	args := req.Args()
	command, _ := args["command"].(string)
	command = strings.TrimSpace(command)
	if command == "" {
		return errorResult(req, "command is required")
	}

	classified := e.classifier.Classify(command)
	e.notifier.ActionStarted(req, classified.Display)

	if !e.patterns.IsApproved(command) && !e.sessionAllow[req.Name] {
		approved, rejection := e.requestApproval(ctx, approval.Request{
			Kind:      approval.KindCommand,
			Name:      req.Name,
			Display:   classified.Display,
			Detail:    command,
			Dangerous: classified.Dangerous,
			Reason:    classified.Reason,
		}, command)
		if !approved {
			return errorResult(req, rejection)
		}
	}

	return e.execute(ctx, req)
}

// runBuiltin gates and executes a non-sandbox built-in, the file writer.
func (e *Engine) runBuiltin(ctx context.Context, req conversation.ActionRequest) conversation.ActionResult {
	args := req.Args()
	path, _ := args["path"].(string)
	content, _ := args["content"].(string)
	display := req.Name
	if path != "" {
		display = fmt.Sprintf("%s: %s (%d bytes)", req.Name, path, len(content))
	}
	e.notifier.ActionStarted(req, display)

	if !e.sessionAllow[req.Name] {
		approved, rejection := e.requestApproval(ctx, approval.Request{
			Kind:    approval.KindFileWrite,
			Name:    req.Name,
			Display: display,
			Detail:  content,
		}, "")
		if !approved {
			return errorResult(req, rejection)
		}
	}

	return e.execute(ctx, req)
}

// runRemote gates and invokes a remote server tool.
func (e *Engine) runRemote(ctx context.Context, req conversation.ActionRequest) conversation.ActionResult {
	display := req.Name + argsPreview(req)
	e.notifier.ActionStarted(req, display)

	if !e.remote.AlwaysAllowed(req.Name) && !e.sessionAllow[req.Name] {
		approved, rejection := e.requestApproval(ctx, approval.Request{
			Kind:    approval.KindRemote,
			Name:    req.Name,
			Display: display,
			Detail:  string(req.RawArgs),
		}, "")
		if !approved {
			return errorResult(req, rejection)
		}
	}

	content, isError, err := e.remote.Invoke(ctx, req.Name, req.Args())
	if err != nil {
		return errorResult(req, err.Error())
	}
	return conversation.ActionResult{ID: req.ID, Name: req.Name, Content: content, IsError: isError}
}

// requestApproval asks the approver and records "always" decisions. For
// commands an always-approval is added to the pattern set; for other
// kinds the tool name is allowed for the rest of the session.
func (e *Engine) requestApproval(ctx context.Context, req approval.Request, command string) (bool, string) {
	decision, err := e.approver.Approve(ctx, req)
	if err != nil {
		return false, "approval failed: " + err.Error()
	}
	if !decision.Approved {
		rejection := "Rejected by user"
		if decision.Reason != "" {
			rejection = "Rejected: " + decision.Reason
		}
		e.logger.Info("action rejected", "tool", req.Name, "reason", decision.Reason)
		return false, rejection
	}
	if decision.Always {
		if req.Kind == approval.KindCommand && command != "" {
			e.patterns.Add(command)
		} else {
			e.sessionAllow[req.Name] = true
		}
	}
	return true, ""
}

// execute runs an approved built-in through the runner.
func (e *Engine) execute(ctx context.Context, req conversation.ActionRequest) conversation.ActionResult {
	result, err := e.runner.Run(ctx, req.Name, req.RawArgs, e.toolCtx)
	if err != nil {
		return errorResult(req, err.Error())
	}
	return conversation.ActionResult{
		ID:      req.ID,
		Name:    req.Name,
		Content: result.Content,
		IsError: result.IsError,
	}
}

func errorResult(req conversation.ActionRequest, text string) conversation.ActionResult {
	return conversation.ActionResult{ID: req.ID, Name: req.Name, Content: text, IsError: true}
}

// argsPreview renders a short inline view of a request's raw arguments.
func argsPreview(req conversation.ActionRequest) string {
	raw := strings.TrimSpace(string(req.RawArgs))
	if raw == "" || raw == "{}" || raw == "null" {
		return ""
	}
	if len(raw) > 80 {
		raw = raw[:77] + "..."
	}
	return " " + raw
}
