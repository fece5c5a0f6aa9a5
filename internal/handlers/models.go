package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"anychat-backend/internal/models"
	"anychat-backend/internal/registry"
)

type ModelsHandler struct {
	registry *registry.Registry
}

func NewModelsHandler(reg *registry.Registry) *ModelsHandler {
	return &ModelsHandler{registry: reg}
}

// List serves GET /api/models and GET /api/admin/models/config; both return
// the full registry.
func (h *ModelsHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.ModelListResponse{Models: h.registry.List()})
}

func (h *ModelsHandler) Add(w http.ResponseWriter, r *http.Request) {
	var desc models.ModelDescriptor
	if err := json.NewDecoder(r.Body).Decode(&desc); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("Invalid request body"))
		return
	}
	if desc.Provider == "" || desc.Model == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("provider and model are required"))
		return
	}

	if err := h.registry.Add(desc); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, models.MessageResponse{
		Message: fmt.Sprintf("Model %s added", desc.Key()),
	})
}

func (h *ModelsHandler) Remove(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	model := chi.URLParam(r, "model")

	if err := h.registry.Remove(provider, model); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.MessageResponse{
		Message: fmt.Sprintf("Model %s/%s removed", provider, model),
	})
}

func (h *ModelsHandler) Reload(w http.ResponseWriter, r *http.Request) {
	descriptors, err := h.registry.Reload()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("Failed to reload model configuration"))
		return
	}

	writeJSON(w, http.StatusOK, models.MessageResponse{
		Message: "Model configuration reloaded",
		Count:   len(descriptors),
	})
}

func (h *ModelsHandler) Discover(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")

	discovered, err := h.registry.Discover(r.Context(), provider)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"models": discovered})
}
