package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"anychat-backend/internal/llm"
	"anychat-backend/internal/models"
	"anychat-backend/internal/registry"
	"anychat-backend/internal/relay"
)

// Shared helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(detail string) models.ErrorResponse {
	return models.ErrorResponse{Detail: detail}
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var conflictErr *registry.ConflictError
	var notFoundErr *registry.NotFoundError
	var llmErr *llm.Error
	var relayErr *relay.Error

	switch {
	case errors.As(err, &conflictErr):
		writeJSON(w, http.StatusConflict, errorResp(conflictErr.Message))
	case errors.As(err, &notFoundErr):
		writeJSON(w, http.StatusNotFound, errorResp(notFoundErr.Message))
	case errors.As(err, &llmErr):
		switch llmErr.Type {
		case llm.ErrorTypeInvalidRequest, llm.ErrorTypeUnsupported:
			writeJSON(w, http.StatusBadRequest, errorResp(llmErr.Message))
		case llm.ErrorTypeNotFound:
			writeJSON(w, http.StatusNotFound, errorResp(llmErr.Message))
		default:
			writeJSON(w, http.StatusBadGateway, errorResp(llmErr.Message))
		}
	case errors.As(err, &relayErr):
		writeJSON(w, http.StatusBadGateway, errorResp(relayErr.Message))
	default:
		writeJSON(w, http.StatusInternalServerError, errorResp("An unexpected error occurred"))
	}
}
