package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"anychat-backend/internal/llm"
)

// Client implements the llm.Client interface for Google's Gemini API.
type Client struct {
	client *genai.Client
	logger zerolog.Logger
}

// New creates a Gemini-backed llm.Client with the given API key.
func New(ctx context.Context, apiKey string, logger zerolog.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, llm.NewInvalidRequestError("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{client: client, logger: logger}, nil
}

// Close releases the underlying API client.
func (c *Client) Close() {
	c.client.Close()
}

// Complete implements llm.Client.
func (c *Client) Complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	if req == nil {
		return nil, llm.NewInvalidRequestError("request is required")
	}
	if req.Model == "" {
		return nil, llm.NewInvalidRequestError("model is required")
	}
	if len(req.Messages) == 0 {
		return nil, llm.NewInvalidRequestError("at least one message is required")
	}

	model := c.client.GenerativeModel(req.Model)
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}
	if req.Temperature != nil {
		model.SetTemperature(float32(*req.Temperature))
	}
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if len(req.Tools) > 0 {
		model.Tools = toGenaiTools(req.Tools)
	}

	history, last := toGenaiContents(req.Messages)
	cs := model.StartChat()
	cs.History = history

	resp, err := cs.SendMessage(ctx, last...)
	if err != nil {
		return nil, llm.NewProviderError("gemini completion failed", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, llm.NewProviderError("gemini returned no candidates", nil)
	}

	out := &llm.Response{}
	candidate := resp.Candidates[0]
	out.StopReason = candidate.FinishReason.String()
	for _, part := range candidate.Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			out.Text += string(p)
		case genai.FunctionCall:
			// Gemini does not assign call ids; the name doubles as one.
			out.ToolCalls = append(out.ToolCalls, llm.ToolCall{
				ID:    p.Name,
				Name:  p.Name,
				Input: p.Args,
			})
		}
	}

	if resp.UsageMetadata != nil {
		out.Usage = llm.Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}

	c.logger.Debug().
		Str("model", req.Model).
		Int("prompt_tokens", out.Usage.PromptTokens).
		Int("completion_tokens", out.Usage.CompletionTokens).
		Msg("gemini completion")

	return out, nil
}

// ListModels returns the provider's live model catalog, filtered to models
// that support content generation.
func (c *Client) ListModels(ctx context.Context) ([]llm.ModelInfo, error) {
	var infos []llm.ModelInfo

	iter := c.client.ListModels(ctx)
	for {
		m, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, llm.NewProviderError("failed to list gemini models", err)
		}

		if !supportsGeneration(m) {
			continue
		}

		name := strings.TrimPrefix(m.Name, "models/")
		infos = append(infos, llm.ModelInfo{
			Provider:     llm.ProviderGemini,
			Model:        name,
			Display:      m.DisplayName,
			ToolsSupport: true,
			Metadata: map[string]string{
				"version":            m.Version,
				"input_token_limit":  strconv.Itoa(int(m.InputTokenLimit)),
				"output_token_limit": strconv.Itoa(int(m.OutputTokenLimit)),
			},
		})
	}

	c.logger.Info().Int("count", len(infos)).Msg("discovered gemini models")
	return infos, nil
}

func supportsGeneration(m *genai.ModelInfo) bool {
	for _, method := range m.SupportedGenerationMethods {
		if method == "generateContent" {
			return true
		}
	}
	return false
}

func toGenaiContents(msgs []llm.Message) (history []*genai.Content, last []genai.Part) {
	contents := make([]*genai.Content, 0, len(msgs))
	for _, msg := range msgs {
		content := &genai.Content{}
		switch msg.Role {
		case llm.RoleAssistant:
			content.Role = "model"
			if msg.Content != "" {
				content.Parts = append(content.Parts, genai.Text(msg.Content))
			}
			for _, call := range msg.ToolCalls {
				content.Parts = append(content.Parts, genai.FunctionCall{
					Name: call.Name,
					Args: call.Input,
				})
			}
		case llm.RoleTool:
			content.Role = "user"
			if msg.ToolResult != nil {
				content.Parts = append(content.Parts, genai.FunctionResponse{
					Name:     msg.ToolResult.Name,
					Response: toResponseMap(msg.ToolResult.Content),
				})
			}
		default:
			content.Role = "user"
			content.Parts = append(content.Parts, genai.Text(msg.Content))
		}
		if len(content.Parts) > 0 {
			contents = append(contents, content)
		}
	}

	if len(contents) == 0 {
		return nil, nil
	}
	return contents[:len(contents)-1], contents[len(contents)-1].Parts
}

// toResponseMap turns a JSON-serialized tool result into the map shape the
// FunctionResponse part requires.
func toResponseMap(content string) map[string]interface{} {
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(content), &m); err != nil || m == nil {
		return map[string]interface{}{"result": content}
	}
	return m
}

func toGenaiTools(specs []llm.ToolSpec) []*genai.Tool {
	declarations := make([]*genai.FunctionDeclaration, 0, len(specs))
	for _, spec := range specs {
		properties := make(map[string]*genai.Schema, len(spec.Schema.Properties))
		for name, prop := range spec.Schema.Properties {
			properties[name] = &genai.Schema{
				Type:        toGenaiType(prop.Type),
				Description: prop.Description,
				Enum:        prop.Enum,
			}
		}
		declarations = append(declarations, &genai.FunctionDeclaration{
			Name:        spec.Name,
			Description: spec.Description,
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: properties,
				Required:   spec.Schema.Required,
			},
		})
	}
	return []*genai.Tool{{FunctionDeclarations: declarations}}
}

func toGenaiType(t string) genai.Type {
	switch t {
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}
