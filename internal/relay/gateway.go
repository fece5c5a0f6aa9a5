package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// GatewayRelay forwards completions to a remote any-llm gateway over its
// OpenAI-compatible HTTP API. The gateway does provider routing and per-user
// metering server-side; the model is addressed as "provider:model".
type GatewayRelay struct {
	baseURL   string
	masterKey string
	client    *http.Client
	logger    zerolog.Logger
}

// NewGatewayRelay creates a gateway-backed relay.
func NewGatewayRelay(baseURL, masterKey string, logger zerolog.Logger) *GatewayRelay {
	return &GatewayRelay{
		baseURL:   strings.TrimRight(baseURL, "/"),
		masterKey: masterKey,
		client:    &http.Client{Timeout: 2 * time.Minute},
		logger:    logger,
	}
}

type gatewayChatRequest struct {
	Model    string           `json:"model"`
	Messages []gatewayMessage `json:"messages"`
	User     string           `json:"user,omitempty"`
}

type gatewayMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type gatewayChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Complete implements Relay.
func (r *GatewayRelay) Complete(ctx context.Context, req Request) (*Result, error) {
	payload := gatewayChatRequest{
		Model:    req.Provider + ":" + req.Model,
		Messages: []gatewayMessage{{Role: "user", Content: req.Message}},
		User:     req.UserID,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, NewError("failed to encode gateway request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, NewError("failed to build gateway request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-AnyLLM-Key", "Bearer "+r.masterKey)

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, NewError("gateway request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, NewError(fmt.Sprintf("gateway returned status %d", resp.StatusCode), nil)
	}

	var chatResp gatewayChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, NewError("failed to decode gateway response", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, NewError("gateway returned no choices", nil)
	}

	r.logger.Debug().
		Str("model", payload.Model).
		Int("total_tokens", chatResp.Usage.TotalTokens).
		Msg("gateway completion")

	return &Result{
		Text:             chatResp.Choices[0].Message.Content,
		PromptTokens:     chatResp.Usage.PromptTokens,
		CompletionTokens: chatResp.Usage.CompletionTokens,
		TotalTokens:      chatResp.Usage.TotalTokens,
	}, nil
}
