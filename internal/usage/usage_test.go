package usage

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"anychat-backend/internal/models"
)

func TestMemoryStore_RecordAndFetch(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	rows := []*models.UsageRow{
		{UserID: "user-a", Provider: "gemini", Model: "gemini-2.5-flash-lite", PromptTokens: 8, CompletionTokens: 5, TotalTokens: 13, Cost: 0.001},
		{UserID: "user-a", Provider: "gemini", Model: "gemini-2.5-flash-lite", PromptTokens: 20, CompletionTokens: 10, TotalTokens: 30, Cost: 0.002},
		{UserID: "user-b", Provider: "ollama", Model: "llama3", PromptTokens: 5, CompletionTokens: 5, TotalTokens: 10},
	}
	for _, row := range rows {
		if err := store.Record(ctx, row); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	snap, err := store.Fetch(ctx, "user-a")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if snap.TotalPromptTokens != 28 || snap.TotalCompletionTokens != 15 || snap.TotalTokens != 43 {
		t.Errorf("Unexpected user-a totals: %+v", snap)
	}
	if snap.RequestCount != 2 {
		t.Errorf("Expected 2 requests for user-a, got %d", snap.RequestCount)
	}
	if math.Abs(snap.TotalCost-0.003) > 1e-9 {
		t.Errorf("Expected cost 0.003, got %f", snap.TotalCost)
	}

	global, err := store.Global(ctx)
	if err != nil {
		t.Fatalf("Global failed: %v", err)
	}
	if global.TotalTokens != 53 || global.RequestCount != 3 {
		t.Errorf("Unexpected global totals: %+v", global)
	}

	users, err := store.PerUser(ctx)
	if err != nil {
		t.Fatalf("PerUser failed: %v", err)
	}
	if len(users) != 2 || users[0].UserID != "user-a" || users[1].UserID != "user-b" {
		t.Errorf("Unexpected per-user table: %+v", users)
	}
}

func TestMemoryStore_FetchUnknownUser(t *testing.T) {
	store := NewMemoryStore()

	snap, err := store.Fetch(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if snap.RequestCount != 0 || snap.TotalTokens != 0 {
		t.Errorf("Expected empty snapshot, got %+v", snap)
	}
}

func TestPricing_Cost(t *testing.T) {
	pricing := DefaultPricing()

	// 1M prompt + 1M completion tokens of gpt-4o: $2.50 + $10.00.
	cost := pricing.Cost("gpt-4o", 1_000_000, 1_000_000)
	if math.Abs(cost-12.50) > 1e-9 {
		t.Errorf("Expected 12.50, got %f", cost)
	}

	if cost := pricing.Cost("llama3", 1_000_000, 1_000_000); cost != 0 {
		t.Errorf("Unknown models should price at zero, got %f", cost)
	}
	if pricing.InputPrice("gemini-2.5-flash-lite") != 0.10 {
		t.Errorf("Unexpected input price: %f", pricing.InputPrice("gemini-2.5-flash-lite"))
	}
	if pricing.OutputPrice("nope") != 0 {
		t.Errorf("Unknown output price should be zero")
	}
}

func TestGatewayFetcher_SumsLineItems(t *testing.T) {
	var gotPath, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-AnyLLM-Key")
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"prompt_tokens": 8, "completion_tokens": 5, "total_tokens": 13, "cost": 0.01},
			{"prompt_tokens": 20, "completion_tokens": 10, "total_tokens": 30, "cost": 0.02},
		})
	}))
	defer server.Close()

	f := NewGatewayFetcher(server.URL, "secret", zerolog.Nop())
	snap, err := f.Fetch(context.Background(), "user-123")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if gotPath != "/v1/users/user-123/usage" {
		t.Errorf("Unexpected path %q", gotPath)
	}
	if gotKey != "Bearer secret" {
		t.Errorf("Unexpected key header %q", gotKey)
	}
	if snap.TotalPromptTokens != 28 || snap.TotalCompletionTokens != 15 || snap.TotalTokens != 43 {
		t.Errorf("Unexpected totals: %+v", snap)
	}
	if snap.RequestCount != 2 {
		t.Errorf("Expected request_count 2, got %d", snap.RequestCount)
	}
	if math.Abs(snap.TotalCost-0.03) > 1e-9 {
		t.Errorf("Expected cost 0.03, got %f", snap.TotalCost)
	}
}

func TestGatewayFetcher_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	f := NewGatewayFetcher(server.URL, "secret", zerolog.Nop())
	if _, err := f.Fetch(context.Background(), "user-123"); err == nil {
		t.Fatal("Expected error for non-2xx gateway status")
	}
}
