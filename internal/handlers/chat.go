package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"anychat-backend/internal/models"
	"anychat-backend/internal/relay"
	"anychat-backend/internal/usage"
)

type ChatHandler struct {
	relay    relay.Relay
	recorder usage.Recorder // nil in gateway mode, where the gateway keeps the ledger
	pricing  *usage.Pricing
	logger   zerolog.Logger
}

func NewChatHandler(r relay.Relay, recorder usage.Recorder, pricing *usage.Pricing, logger zerolog.Logger) *ChatHandler {
	return &ChatHandler{relay: r, recorder: recorder, pricing: pricing, logger: logger}
}

func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("Invalid request body"))
		return
	}
	if req.Provider == "" || req.Model == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("provider and model are required"))
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("message is empty"))
		return
	}

	result, err := h.relay.Complete(r.Context(), relay.Request{
		Provider:     req.Provider,
		Model:        req.Model,
		Message:      req.Message,
		UserID:       req.UserID,
		ToolsEnabled: req.ToolsSupport,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if h.recorder != nil {
		row := &models.UsageRow{
			UserID:           req.UserID,
			Provider:         req.Provider,
			Model:            req.Model,
			PromptTokens:     result.PromptTokens,
			CompletionTokens: result.CompletionTokens,
			TotalTokens:      result.TotalTokens,
			Cost:             h.pricing.Cost(req.Model, result.PromptTokens, result.CompletionTokens),
		}
		if err := h.recorder.Record(r.Context(), row); err != nil {
			// The completion already succeeded; losing one ledger row must
			// not fail the chat response.
			h.logger.Error().Err(err).Str("user_id", req.UserID).Msg("failed to record usage")
		}
	}

	writeJSON(w, http.StatusOK, models.ChatResponse{
		Response:         result.Text,
		PromptTokens:     result.PromptTokens,
		CompletionTokens: result.CompletionTokens,
		TotalTokens:      result.TotalTokens,
	})
}
