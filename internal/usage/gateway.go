package usage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"anychat-backend/internal/models"
)

// GatewayFetcher reads a user's ledger from the gateway's usage endpoint and
// sums the line items into one snapshot.
type GatewayFetcher struct {
	baseURL   string
	masterKey string
	client    *http.Client
	logger    zerolog.Logger
}

func NewGatewayFetcher(baseURL, masterKey string, logger zerolog.Logger) *GatewayFetcher {
	return &GatewayFetcher{
		baseURL:   strings.TrimRight(baseURL, "/"),
		masterKey: masterKey,
		client:    &http.Client{Timeout: 30 * time.Second},
		logger:    logger,
	}
}

type usageItem struct {
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	Cost             float64 `json:"cost"`
}

func (f *GatewayFetcher) Fetch(ctx context.Context, userID string) (*models.UsageSnapshot, error) {
	endpoint := fmt.Sprintf("%s/v1/users/%s/usage", f.baseURL, url.PathEscape(userID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build usage request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-AnyLLM-Key", "Bearer "+f.masterKey)

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Error().Err(err).Str("user_id", userID).Msg("usage fetch failed")
		return nil, fmt.Errorf("failed to fetch usage: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("failed to fetch usage: gateway returned status %d", resp.StatusCode)
	}

	var items []usageItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to decode usage response: %w", err)
	}

	snap := &models.UsageSnapshot{RequestCount: len(items)}
	for _, item := range items {
		snap.TotalPromptTokens += item.PromptTokens
		snap.TotalCompletionTokens += item.CompletionTokens
		snap.TotalTokens += item.TotalTokens
		snap.TotalCost += item.Cost
	}
	return snap, nil
}
