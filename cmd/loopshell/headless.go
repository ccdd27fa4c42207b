package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/loopshell/loopshell/internal/approval"
	"github.com/loopshell/loopshell/internal/conversation"
	"github.com/loopshell/loopshell/internal/engine"
)

// headlessNotifier prints action progress to stderr so stdout carries
// only the assistant's final output.
type headlessNotifier struct{}

func (headlessNotifier) AssistantText(string) {}

func (headlessNotifier) ActionStarted(req conversation.ActionRequest, display string) {
	fmt.Fprintf(os.Stderr, "[tool] %s\n", display)
}

func (headlessNotifier) ActionFinished(req conversation.ActionRequest, result conversation.ActionResult) {
	if result.IsError {
		fmt.Fprintf(os.Stderr, "[tool] %s failed: %s\n", req.Name, firstLine(result.Content))
	}
}

// runHeadless executes one prompt and prints the final assistant text.
// It never blocks on approval: actions not covered by a pre-approval
// pattern are rejected with an explanatory result.
func runHeadless(cmd *cobra.Command, eng *engine.Engine, patterns *approval.PatternSet, persist func(), args []string) error {
	prompt, err := readPrompt(cmd, args)
	if err != nil {
		return err
	}

	eng.SetApprover(&approval.PatternApprover{Patterns: patterns})
	eng.SetNotifier(headlessNotifier{})

	if err := eng.RunTurn(context.Background(), prompt); err != nil {
		persist()
		return err
	}
	persist()

	messages := eng.Conversation().Messages()
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == conversation.RoleAssistant && messages[i].Content != "" {
			fmt.Println(messages[i].Content)
			return nil
		}
	}
	return nil
}

func firstLine(text string) string {
	for i, r := range text {
		if r == '\n' {
			return text[:i]
		}
	}
	return text
}
