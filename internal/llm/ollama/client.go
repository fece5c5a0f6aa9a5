package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ollama/ollama/api"
	"github.com/rs/zerolog"

	"anychat-backend/internal/llm"
)

// Client implements the llm.Client interface for a local or remote Ollama
// instance.
type Client struct {
	client *api.Client
	logger zerolog.Logger
}

// New creates an Ollama-backed llm.Client. If host is empty the client is
// configured from the environment (OLLAMA_HOST or the localhost default).
func New(host string, logger zerolog.Logger) (*Client, error) {
	var client *api.Client

	if host != "" {
		baseURL, err := parseHost(host)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama host: %w", err)
		}
		client = api.NewClient(baseURL, &http.Client{})
	} else {
		var err error
		client, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
	}

	return &Client{client: client, logger: logger}, nil
}

func parseHost(host string) (*url.URL, error) {
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return url.Parse(host)
}

// Complete implements llm.Client.
func (c *Client) Complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	if req == nil {
		return nil, llm.NewInvalidRequestError("request is required")
	}
	if req.Model == "" {
		return nil, llm.NewInvalidRequestError("model is required")
	}

	stream := false
	chatReq := &api.ChatRequest{
		Model:    req.Model,
		Messages: toOllamaMessages(req.System, req.Messages),
		Stream:   &stream,
		Options:  make(map[string]interface{}),
	}
	if len(req.Tools) > 0 {
		chatReq.Tools = toOllamaTools(req.Tools)
	}
	if req.MaxTokens > 0 {
		chatReq.Options["num_predict"] = int(req.MaxTokens)
	}
	if req.Temperature != nil {
		chatReq.Options["temperature"] = *req.Temperature
	}

	var chatResp api.ChatResponse
	err := c.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		chatResp = resp
		return nil
	})
	if err != nil {
		return nil, llm.NewProviderError("ollama chat request failed", err)
	}

	out := &llm.Response{
		Text:       chatResp.Message.Content,
		StopReason: chatResp.DoneReason,
		Usage: llm.Usage{
			PromptTokens:     chatResp.Metrics.PromptEvalCount,
			CompletionTokens: chatResp.Metrics.EvalCount,
			TotalTokens:      chatResp.Metrics.PromptEvalCount + chatResp.Metrics.EvalCount,
		},
	}

	for _, call := range chatResp.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, llm.ToolCall{
			// Ollama tool calls carry no id; reuse the function name.
			ID:    call.Function.Name,
			Name:  call.Function.Name,
			Input: map[string]interface{}(call.Function.Arguments),
		})
	}

	c.logger.Debug().
		Str("model", req.Model).
		Int("prompt_tokens", out.Usage.PromptTokens).
		Int("completion_tokens", out.Usage.CompletionTokens).
		Msg("ollama completion")

	return out, nil
}

// ListModels returns the locally available models, the same catalog the
// /api/tags endpoint serves.
func (c *Client) ListModels(ctx context.Context) ([]llm.ModelInfo, error) {
	resp, err := c.client.List(ctx)
	if err != nil {
		return nil, llm.NewNetworkError("could not reach ollama; is it running?", err)
	}

	infos := make([]llm.ModelInfo, 0, len(resp.Models))
	for _, m := range resp.Models {
		if m.Name == "" {
			continue
		}

		display := "Ollama - " + m.Name
		if m.Details.ParameterSize != "" {
			display = fmt.Sprintf("Ollama - %s (%s)", m.Name, m.Details.ParameterSize)
		}

		infos = append(infos, llm.ModelInfo{
			Provider: llm.ProviderOllama,
			Model:    m.Name,
			Display:  display,
			// Local models mostly lack reliable function calling.
			ToolsSupport: false,
			Metadata: map[string]string{
				"family":         m.Details.Family,
				"parameter_size": m.Details.ParameterSize,
				"quantization":   m.Details.QuantizationLevel,
				"size":           strconv.FormatInt(m.Size, 10),
			},
		})
	}

	c.logger.Info().Int("count", len(infos)).Msg("discovered ollama models")
	return infos, nil
}

func toOllamaMessages(system string, msgs []llm.Message) []api.Message {
	result := make([]api.Message, 0, len(msgs)+1)
	if system != "" {
		result = append(result, api.Message{Role: "system", Content: system})
	}
	for _, msg := range msgs {
		switch msg.Role {
		case llm.RoleAssistant:
			m := api.Message{Role: "assistant", Content: msg.Content}
			for _, call := range msg.ToolCalls {
				m.ToolCalls = append(m.ToolCalls, api.ToolCall{
					Function: api.ToolCallFunction{
						Name:      call.Name,
						Arguments: api.ToolCallFunctionArguments(call.Input),
					},
				})
			}
			result = append(result, m)
		case llm.RoleTool:
			if msg.ToolResult != nil {
				result = append(result, api.Message{Role: "tool", Content: msg.ToolResult.Content})
			}
		case llm.RoleSystem:
			result = append(result, api.Message{Role: "system", Content: msg.Content})
		default:
			result = append(result, api.Message{Role: "user", Content: msg.Content})
		}
	}
	return result
}

func toOllamaTools(specs []llm.ToolSpec) []api.Tool {
	result := make([]api.Tool, 0, len(specs))
	for _, spec := range specs {
		properties := make(map[string]api.ToolProperty, len(spec.Schema.Properties))
		for name, prop := range spec.Schema.Properties {
			properties[name] = api.ToolProperty{
				Type:        []string{prop.Type},
				Description: prop.Description,
			}
		}
		result = append(result, api.Tool{
			Type: "function",
			Function: api.ToolFunction{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters: api.ToolFunctionParameters{
					Type:       spec.Schema.Type,
					Properties: properties,
					Required:   spec.Schema.Required,
				},
			},
		})
	}
	return result
}
