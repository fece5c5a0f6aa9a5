package anthropic

import (
	"context"
	"encoding/json"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"

	"anychat-backend/internal/llm"
)

const defaultMaxTokens = 1024

// Client implements the llm.Client interface for Anthropic's API.
type Client struct {
	client *anthropic.Client
	logger zerolog.Logger
}

// New creates an Anthropic-backed llm.Client with the given API key.
func New(apiKey string, logger zerolog.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, llm.NewInvalidRequestError("anthropic api key is required")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Client{client: &client, logger: logger}, nil
}

// Complete implements llm.Client.
func (c *Client) Complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	if req == nil {
		return nil, llm.NewInvalidRequestError("request is required")
	}
	if req.Model == "" {
		return nil, llm.NewInvalidRequestError("model is required")
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: maxTokens,
		Messages:  toMessageParams(req.Messages),
		Tools:     toToolParams(req.Tools),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, llm.NewProviderError("anthropic completion failed", err)
	}

	resp := &llm.Response{
		StopReason: string(message.StopReason),
		Usage: llm.Usage{
			PromptTokens:     int(message.Usage.InputTokens),
			CompletionTokens: int(message.Usage.OutputTokens),
			TotalTokens:      int(message.Usage.InputTokens + message.Usage.OutputTokens),
		},
	}

	for _, blockUnion := range message.Content {
		switch block := blockUnion.AsAny().(type) {
		case anthropic.TextBlock:
			resp.Text += block.Text
		case anthropic.ToolUseBlock:
			var input map[string]interface{}
			if raw, err := json.Marshal(block.Input); err == nil {
				json.Unmarshal(raw, &input)
			}
			if input == nil {
				input = make(map[string]interface{})
			}
			resp.ToolCalls = append(resp.ToolCalls, llm.ToolCall{
				ID:    block.ID,
				Name:  block.Name,
				Input: input,
			})
		}
	}

	c.logger.Debug().
		Str("model", req.Model).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Msg("anthropic completion")

	return resp, nil
}

func toMessageParams(msgs []llm.Message) []anthropic.MessageParam {
	result := make([]anthropic.MessageParam, 0, len(msgs))
	for _, msg := range msgs {
		switch msg.Role {
		case llm.RoleAssistant:
			blocks := make([]anthropic.ContentBlockParamUnion, 0, 1+len(msg.ToolCalls))
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, call := range msg.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlock(call.ID, call.Input, call.Name))
			}
			result = append(result, anthropic.NewAssistantMessage(blocks...))
		case llm.RoleTool:
			if msg.ToolResult != nil {
				// Anthropic carries tool results inside user messages.
				result = append(result, anthropic.NewUserMessage(
					anthropic.NewToolResultBlock(msg.ToolResult.CallID, msg.ToolResult.Content, msg.ToolResult.IsError),
				))
			}
		default:
			result = append(result, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	return result
}

func toToolParams(specs []llm.ToolSpec) []anthropic.ToolUnionParam {
	if len(specs) == 0 {
		return nil
	}
	result := make([]anthropic.ToolUnionParam, 0, len(specs))
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
		result = append(result, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        spec.Name,
				Description: anthropic.String(spec.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Type:       "object",
					Properties: properties,
					Required:   spec.Schema.Required,
				},
			},
		})
	}
	return result
}
