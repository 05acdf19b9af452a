package http

import (
	"context"
	"errors"
	"log"
	"net/http"

	"horizon/internal/domain/preference"
)

type PreferenceService interface {
	Get(ctx context.Context, userID, key string) (preference.Preference, error)
	Set(ctx context.Context, userID, key string, value bool) (preference.Preference, error)
}

type PreferenceHandler struct {
	preferences PreferenceService
}

func NewPreferenceHandler(preferences PreferenceService) *PreferenceHandler {
	return &PreferenceHandler{preferences: preferences}
}

type SetPreferenceRequest struct {
	Value *bool `json:"value"`
}

// HandleGet handles GET /api/preferences/{key}
func (h *PreferenceHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	pref, err := h.preferences.Get(r.Context(), userID, r.PathValue("key"))
	if err != nil {
		h.writePreferenceError(w, userID, err)
		return
	}
	writeJSON(w, http.StatusOK, pref)
}

// HandleSet handles PUT /api/preferences/{key}
func (h *PreferenceHandler) HandleSet(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req SetPreferenceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Value == nil {
		writeErrorMessage(w, http.StatusBadRequest, "value is required")
		return
	}

	pref, err := h.preferences.Set(r.Context(), userID, r.PathValue("key"), *req.Value)
	if err != nil {
		h.writePreferenceError(w, userID, err)
		return
	}
	writeJSON(w, http.StatusOK, pref)
}

func (h *PreferenceHandler) writePreferenceError(w http.ResponseWriter, userID string, err error) {
	switch {
	case errors.Is(err, preference.ErrUnknownKey):
		writeErrorMessage(w, http.StatusNotFound, "Unknown preference")
	case errors.Is(err, preference.ErrUserRequired):
		writeErrorMessage(w, http.StatusUnauthorized, "Unauthorized")
	default:
		log.Printf("Preference error for user %s: %v", userID, err)
		writeErrorMessage(w, http.StatusInternalServerError, "Failed to save preference")
	}
}
