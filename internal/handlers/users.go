package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"anychat-backend/internal/models"
	"anychat-backend/internal/repository"
)

type UsersHandler struct {
	store repository.UserStore
}

func NewUsersHandler(store repository.UserStore) *UsersHandler {
	return &UsersHandler{store: store}
}

func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.List(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("Failed to list users"))
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("Invalid request body"))
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("user_id is required"))
		return
	}

	existing, err := h.store.GetByID(r.Context(), req.UserID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("Failed to create user"))
		return
	}
	if existing != nil {
		writeJSON(w, http.StatusConflict, errorResp(fmt.Sprintf("User %s already exists", req.UserID)))
		return
	}

	user := &models.User{UserID: req.UserID, Alias: req.Alias}
	if err := h.store.Create(r.Context(), user); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("Failed to create user"))
		return
	}

	writeJSON(w, http.StatusCreated, models.MessageResponse{
		Message: fmt.Sprintf("User %s created", user.UserID),
	})
}
