package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/loopshell/loopshell/internal/conversation"
)

// OpenAITransport implements Transport against any OpenAI-compatible
// Chat Completions backend.
type OpenAITransport struct {
	client openai.Client
	model  string
}

// NewOpenAITransport builds a transport. baseURL may be empty for the
// default endpoint; apiKey and model are required.
func NewOpenAITransport(baseURL string, apiKey string, model string) (*OpenAITransport, error) {
	if apiKey == "" {
		return nil, errors.New("api key is required")
	}
	if model == "" {
		return nil, errors.New("model is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAITransport{
		client: openai.NewClient(opts...),
		model:  model,
	}, nil
}

// SendTurn submits the history and action schema and decodes the reply.
func (t *OpenAITransport) SendTurn(
	ctx context.Context,
	history []conversation.Message,
	actions []ActionSpec,
) (*TurnResponse, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(t.model),
		Messages: toOpenAIMessages(history),
	}
	if len(actions) > 0 {
		params.Tools = toOpenAITools(actions)
	}

	completion, err := t.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("model call failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, errors.New("model returned no choices")
	}

	choice := completion.Choices[0]
	response := &TurnResponse{
		Text:         choice.Message.Content,
		FinishReason: string(choice.FinishReason),
	}
	for _, call := range choice.Message.ToolCalls {
		id := call.ID
		if id == "" {
			// Some compatible backends omit call ids; results still need one.
			id = "call_" + uuid.NewString()
		}
		response.Requests = append(response.Requests, conversation.ActionRequest{
			ID:      id,
			Name:    call.Function.Name,
			RawArgs: json.RawMessage(call.Function.Arguments),
		})
	}
	return response, nil
}

// toOpenAIMessages converts conversation history to request params.
func toOpenAIMessages(history []conversation.Message) []openai.ChatCompletionMessageParamUnion {
	var out []openai.ChatCompletionMessageParamUnion
	for _, message := range history {
		switch message.Role {
		case conversation.RoleSystem:
			out = append(out, openai.SystemMessage(message.Content))
		case conversation.RoleUser:
			out = append(out, openai.UserMessage(message.Content))
		case conversation.RoleAssistant:
			if len(message.Requests) == 0 {
				out = append(out, openai.AssistantMessage(message.Content))
				continue
			}
			out = append(out, assistantWithCalls(message))
		case conversation.RoleTool:
			// Restored transcripts flatten results to plain text with no
			// call id left to pair against an assistant tool_calls entry,
			// so that text goes out as user-visible context instead.
			if len(message.Results) == 0 {
				if message.Content != "" {
					out = append(out, openai.UserMessage("[tool output]\n"+message.Content))
				}
				continue
			}
			// One tool message per result so call ids line up.
			for _, result := range message.Results {
				out = append(out, openai.ToolMessage(result.Content, result.ID))
			}
		}
	}
	return out
}

// assistantWithCalls rebuilds an action-bearing assistant message.
func assistantWithCalls(message conversation.Message) openai.ChatCompletionMessageParamUnion {
	assistant := openai.ChatCompletionAssistantMessageParam{}
	if message.Content != "" {
		assistant.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
			OfString: openai.String(message.Content),
		}
	}
	for _, request := range message.Requests {
		assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
			OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
				ID: request.ID,
				Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
					Name:      request.Name,
					Arguments: string(request.RawArgs),
				},
			},
		})
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant}
}

// toOpenAITools converts action specs to function tool declarations.
func toOpenAITools(actions []ActionSpec) []openai.ChatCompletionToolUnionParam {
	tools := make([]openai.ChatCompletionToolUnionParam, 0, len(actions))
	for _, action := range actions {
		tools = append(tools, openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        action.Name,
			Description: openai.String(action.Description),
			Parameters:  openai.FunctionParameters(action.Parameters),
		}))
	}
	return tools
}
