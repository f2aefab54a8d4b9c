package handlers

import (
	"encoding/json"
	"net/http"

	"timebank-backend/internal/middleware"
	"timebank-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// ProfileHandler handles profile and favorites HTTP requests
type ProfileHandler struct {
	profileService *services.ProfileService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// GetMe handles GET /api/v1/profiles/me
func (h *ProfileHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	profile, err := h.profileService.Get(r.Context(), userID)
	if err != nil {
		respondError(w, err.Error(), statusOf(err))
		return
	}
	respondJSON(w, profile, http.StatusOK)
}

// UpdateMe handles PUT /api/v1/profiles/me
func (h *ProfileHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req services.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	profile, err := h.profileService.Update(r.Context(), userID, req)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to update profile")
		respondError(w, err.Error(), statusOf(err))
		return
	}
	respondJSON(w, profile, http.StatusOK)
}

// Get handles GET /api/v1/profiles/{id}
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	profile, err := h.profileService.Get(r.Context(), id)
	if err != nil {
		respondError(w, err.Error(), statusOf(err))
		return
	}
	respondJSON(w, profile, http.StatusOK)
}

// Favorites handles GET /api/v1/favorites
func (h *ProfileHandler) Favorites(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	groups, err := h.profileService.Favorites(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to load favorites")
		respondError(w, err.Error(), statusOf(err))
		return
	}
	respondJSON(w, map[string]interface{}{"groups": groups}, http.StatusOK)
}

// ToggleFavorite handles POST /api/v1/favorites/{target_id}/toggle
func (h *ProfileHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	targetID := chi.URLParam(r, "target_id")

	profile, err := h.profileService.ToggleFavorite(r.Context(), userID, targetID)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("target_id", targetID).
			Msg("Failed to toggle favorite")
		respondError(w, err.Error(), statusOf(err))
		return
	}
	respondJSON(w, map[string]interface{}{"favorites": profile.Favorites}, http.StatusOK)
}

// Search handles GET /api/v1/search?address=&skill=
func (h *ProfileHandler) Search(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	skill := r.URL.Query().Get("skill")

	profiles, err := h.profileService.Search(r.Context(), address, skill)
	if err != nil {
		log.Error().Err(err).Msg("Search failed")
		respondError(w, err.Error(), statusOf(err))
		return
	}
	respondJSON(w, map[string]interface{}{
		"profiles": profiles,
		"total":    len(profiles),
	}, http.StatusOK)
}

// Providers handles GET /api/v1/providers/{service_type}
func (h *ProfileHandler) Providers(w http.ResponseWriter, r *http.Request) {
	serviceType := chi.URLParam(r, "service_type")

	profiles, err := h.profileService.ProvidersBySkill(r.Context(), serviceType)
	if err != nil {
		respondError(w, err.Error(), statusOf(err))
		return
	}
	respondJSON(w, map[string]interface{}{
		"service_type": serviceType,
		"providers":    profiles,
	}, http.StatusOK)
}

// SetPushToken handles PUT /api/v1/profiles/me/push-token
func (h *ProfileHandler) SetPushToken(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		PushToken *string `json:"push_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.profileService.SetPushToken(r.Context(), userID, req.PushToken); err != nil {
		respondError(w, err.Error(), statusOf(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
