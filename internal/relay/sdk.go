package relay

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"anychat-backend/internal/llm"
	"anychat-backend/internal/llm/anthropic"
	"anychat-backend/internal/llm/gemini"
	"anychat-backend/internal/llm/ollama"
	"anychat-backend/internal/llm/openai"
	"anychat-backend/internal/tools"
)

// SDKRelay completes chat turns by calling provider SDKs directly. Clients
// are constructed lazily per provider and cached for the process lifetime.
type SDKRelay struct {
	cfg           *llm.ProviderConfig
	maxToolRounds int
	logger        zerolog.Logger

	mu      sync.Mutex
	clients map[string]llm.Client

	// overridable for tests
	newClient func(ctx context.Context, provider string) (llm.Client, error)
}

// NewSDKRelay creates a direct-dispatch relay over the configured providers.
func NewSDKRelay(cfg *llm.ProviderConfig, maxToolRounds int, logger zerolog.Logger) *SDKRelay {
	if maxToolRounds <= 0 {
		maxToolRounds = 4
	}
	r := &SDKRelay{
		cfg:           cfg,
		maxToolRounds: maxToolRounds,
		logger:        logger,
		clients:       make(map[string]llm.Client),
	}
	r.newClient = r.buildClient
	return r
}

// Complete implements Relay. When tools are enabled the relay runs a bounded
// tool-calling loop, executing requested tools locally and feeding results
// back until the model answers in plain text. Usage is summed across rounds.
func (r *SDKRelay) Complete(ctx context.Context, req Request) (*Result, error) {
	client, err := r.clientFor(ctx, req.Provider)
	if err != nil {
		return nil, NewError(fmt.Sprintf("provider %s is not available", req.Provider), err)
	}

	llmReq := &llm.Request{
		Model:    req.Model,
		Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, req.Message)},
	}
	if req.ToolsEnabled {
		llmReq.Tools = tools.Specs()
	}

	var total llm.Usage
	for round := 0; ; round++ {
		resp, err := client.Complete(ctx, llmReq)
		if err != nil {
			return nil, NewError("completion failed", err)
		}
		total.Add(resp.Usage)

		if len(resp.ToolCalls) == 0 {
			return &Result{
				Text:             resp.Text,
				PromptTokens:     total.PromptTokens,
				CompletionTokens: total.CompletionTokens,
				TotalTokens:      total.TotalTokens,
			}, nil
		}

		if round >= r.maxToolRounds {
			return nil, NewError("tool-calling rounds exceeded limit", nil)
		}

		r.logger.Debug().
			Str("provider", req.Provider).
			Int("calls", len(resp.ToolCalls)).
			Int("round", round+1).
			Msg("executing tool calls")

		llmReq.Messages = append(llmReq.Messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Text,
			ToolCalls: resp.ToolCalls,
		})
		for _, call := range resp.ToolCalls {
			llmReq.Messages = append(llmReq.Messages, llm.NewToolResultMessage(tools.Execute(call)))
		}
	}
}

func (r *SDKRelay) clientFor(ctx context.Context, provider string) (llm.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if client, ok := r.clients[provider]; ok {
		return client, nil
	}

	client, err := r.newClient(ctx, provider)
	if err != nil {
		return nil, err
	}
	r.clients[provider] = client
	return client, nil
}

func (r *SDKRelay) buildClient(ctx context.Context, provider string) (llm.Client, error) {
	if !llm.KnownProvider(provider) {
		return nil, llm.NewNotFoundError(fmt.Sprintf("unknown provider: %s", provider))
	}
	if !r.cfg.Configured(provider) {
		return nil, llm.NewInvalidRequestError(fmt.Sprintf("provider %s is not configured", provider))
	}

	switch provider {
	case llm.ProviderAnthropic:
		return anthropic.New(r.cfg.AnthropicAPIKey, r.logger)
	case llm.ProviderGemini:
		return gemini.New(ctx, r.cfg.GeminiAPIKey, r.logger)
	case llm.ProviderMistral:
		return openai.New(r.cfg.MistralAPIKey, llm.MistralBaseURL, r.logger)
	case llm.ProviderOllama:
		return ollama.New(r.cfg.OllamaHost, r.logger)
	case llm.ProviderOpenAI:
		return openai.New(r.cfg.OpenAIAPIKey, r.cfg.OpenAIBaseURL, r.logger)
	default:
		return nil, llm.NewNotFoundError(fmt.Sprintf("unknown provider: %s", provider))
	}
}
