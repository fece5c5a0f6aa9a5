package models

import (
	"time"

	"github.com/google/uuid"
)

// UsageRow is one recorded completion, as persisted by the local recorder.
type UsageRow struct {
	ID               uuid.UUID `json:"id"`
	UserID           string    `json:"user_id"`
	Provider         string    `json:"provider"`
	Model            string    `json:"model"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens"`
	Cost             float64   `json:"cost"`
	CreatedAt        time.Time `json:"created_at"`
}

// UsageSnapshot is the cumulative usage view returned by the usage endpoints.
// It is owned by the aggregator backing store (local or gateway) and is only
// ever read by callers.
type UsageSnapshot struct {
	TotalPromptTokens     int     `json:"total_prompt_tokens"`
	TotalCompletionTokens int     `json:"total_completion_tokens"`
	TotalTokens           int     `json:"total_tokens"`
	RequestCount          int     `json:"request_count"`
	TotalCost             float64 `json:"total_cost"`
}

// UserUsage pairs a user with their cumulative snapshot for the operator
// dashboard table.
type UserUsage struct {
	UserID string `json:"user_id"`
	UsageSnapshot
}

// UserUsageListResponse wraps the per-user table for GET /api/usage/users.
type UserUsageListResponse struct {
	Users []UserUsage `json:"users"`
}
