// Package provider defines the narrow model-transport boundary. The engine
// sends the running conversation plus the declared action schema and gets
// back text and/or action requests; everything else about the backend is
// an implementation detail.
package provider

import (
	"context"

	"github.com/loopshell/loopshell/internal/conversation"
)

// ActionSpec declares one invokable action to the model.
type ActionSpec struct {
	// Name is the qualified action name.
	Name string
	// Description tells the model what the action does.
	Description string
	// Parameters is a JSON-schema object describing the arguments.
	Parameters map[string]any
}

// TurnResponse is one model completion.
type TurnResponse struct {
	// Text is the assistant's plain text, possibly empty.
	Text string
	// Requests holds any actions the model asked to run, in order.
	Requests []conversation.ActionRequest
	// FinishReason is the backend's stop indicator, for diagnostics.
	FinishReason string
}

// Transport sends one turn to a model backend.
// Failures are transport errors; they abort the current turn but must
// leave the conversation intact for the next one.
type Transport interface {
	SendTurn(ctx context.Context, history []conversation.Message, actions []ActionSpec) (*TurnResponse, error)
}
