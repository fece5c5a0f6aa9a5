package openai

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"anychat-backend/internal/llm"
)

// Client implements the llm.Client interface for OpenAI's chat API. It also
// serves any OpenAI-compatible endpoint (Mistral's platform among them) via a
// custom base URL.
type Client struct {
	client *openai.Client
	logger zerolog.Logger
}

// New creates an OpenAI-backed llm.Client. baseURL may be empty for the
// default OpenAI endpoint.
func New(apiKey, baseURL string, logger zerolog.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, llm.NewInvalidRequestError("openai api key is required")
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	return &Client{client: openai.NewClientWithConfig(config), logger: logger}, nil
}

// Complete implements llm.Client.
func (c *Client) Complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	if req == nil {
		return nil, llm.NewInvalidRequestError("request is required")
	}
	if req.Model == "" {
		return nil, llm.NewInvalidRequestError("model is required")
	}

	chatReq := openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: toChatMessages(req.System, req.Messages),
		Tools:    toTools(req.Tools),
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = int(req.MaxTokens)
	}
	if req.Temperature != nil {
		chatReq.Temperature = float32(*req.Temperature)
	}

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, llm.NewProviderError("openai completion failed", err)
	}
	if len(resp.Choices) == 0 {
		return nil, llm.NewProviderError("openai returned no choices", nil)
	}

	choice := resp.Choices[0]
	out := &llm.Response{
		Text:       choice.Message.Content,
		StopReason: string(choice.FinishReason),
		Usage: llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}

	for _, call := range choice.Message.ToolCalls {
		var input map[string]interface{}
		if call.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(call.Function.Arguments), &input); err != nil {
				input = make(map[string]interface{})
			}
		} else {
			input = make(map[string]interface{})
		}
		out.ToolCalls = append(out.ToolCalls, llm.ToolCall{
			ID:    call.ID,
			Name:  call.Function.Name,
			Input: input,
		})
	}

	c.logger.Debug().
		Str("model", req.Model).
		Int("prompt_tokens", out.Usage.PromptTokens).
		Int("completion_tokens", out.Usage.CompletionTokens).
		Msg("openai completion")

	return out, nil
}

func toChatMessages(system string, msgs []llm.Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(msgs)+1)
	if system != "" {
		result = append(result, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	for _, msg := range msgs {
		switch msg.Role {
		case llm.RoleAssistant:
			m := openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: msg.Content,
			}
			for _, call := range msg.ToolCalls {
				args, err := json.Marshal(call.Input)
				if err != nil {
					args = []byte("{}")
				}
				m.ToolCalls = append(m.ToolCalls, openai.ToolCall{
					ID:   call.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      call.Name,
						Arguments: string(args),
					},
				})
			}
			result = append(result, m)
		case llm.RoleTool:
			if msg.ToolResult != nil {
				result = append(result, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					ToolCallID: msg.ToolResult.CallID,
					Name:       msg.ToolResult.Name,
					Content:    msg.ToolResult.Content,
				})
			}
		case llm.RoleSystem:
			result = append(result, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleSystem,
				Content: msg.Content,
			})
		default:
			result = append(result, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleUser,
				Content: msg.Content,
			})
		}
	}
	return result
}

func toTools(specs []llm.ToolSpec) []openai.Tool {
	if len(specs) == 0 {
		return nil
	}
	result := make([]openai.Tool, 0, len(specs))
	for _, spec := range specs {
		properties := make(map[string]interface{}, len(spec.Schema.Properties))
		for name, prop := range spec.Schema.Properties {
			p := map[string]interface{}{
				"type":        prop.Type,
				"description": prop.Description,
			}
			if len(prop.Enum) > 0 {
				p["enum"] = prop.Enum
			}
			properties[name] = p
		}
		parameters := map[string]interface{}{
			"type":       spec.Schema.Type,
			"properties": properties,
		}
		if len(spec.Schema.Required) > 0 {
			parameters["required"] = spec.Schema.Required
		}
		result = append(result, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  parameters,
			},
		})
	}
	return result
}
