package handlers

import (
	"net/http"

	"anychat-backend/internal/models"
	"anychat-backend/internal/usage"
)

type UsageHandler struct {
	fetcher       usage.Fetcher
	store         usage.Store // nil in gateway mode
	defaultUserID string
}

func NewUsageHandler(fetcher usage.Fetcher, store usage.Store, defaultUserID string) *UsageHandler {
	return &UsageHandler{fetcher: fetcher, store: store, defaultUserID: defaultUserID}
}

// Get serves GET /api/usage[?user_id=]. Without a user_id the snapshot
// covers the whole process in direct mode, or the default user in gateway
// mode (the gateway has no cross-user rollup endpoint).
func (h *UsageHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")

	if userID == "" {
		if h.store != nil {
			snap, err := h.store.Global(r.Context())
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, errorResp("Failed to fetch usage"))
				return
			}
			writeJSON(w, http.StatusOK, snap)
			return
		}
		userID = h.defaultUserID
	}

	snap, err := h.fetcher.Fetch(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("Failed to fetch usage"))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *UsageHandler) Global(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeJSON(w, http.StatusNotImplemented, errorResp("Global usage requires a local usage store"))
		return
	}

	snap, err := h.store.Global(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("Failed to fetch usage"))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *UsageHandler) PerUser(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeJSON(w, http.StatusNotImplemented, errorResp("Per-user usage requires a local usage store"))
		return
	}

	users, err := h.store.PerUser(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("Failed to fetch usage"))
		return
	}
	writeJSON(w, http.StatusOK, models.UserUsageListResponse{Users: users})
}
