package handlers

import (
	"encoding/json"
	"net/http"

	"timebank-backend/internal/middleware"
	"timebank-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// PhotoHandler handles profile photo HTTP requests
type PhotoHandler struct {
	photoService *services.PhotoService
}

// NewPhotoHandler creates a new photo handler
func NewPhotoHandler(photoService *services.PhotoService) *PhotoHandler {
	return &PhotoHandler{photoService: photoService}
}

// Presign handles POST /api/v1/profiles/me/photo
func (h *PhotoHandler) Presign(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		ContentType string `json:"content_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	response, err := h.photoService.PresignUpload(r.Context(), userID, req.ContentType)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to generate pre-signed URL")
		respondError(w, err.Error(), statusOf(err))
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("photo_id", response.PhotoID).
		Msg("Pre-signed URL generated")
	respondJSON(w, response, http.StatusOK)
}

// Confirm handles POST /api/v1/profiles/me/photo/confirm
func (h *PhotoHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		PhotoID string `json:"photo_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	url, err := h.photoService.ConfirmUpload(r.Context(), userID, req.PhotoID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to confirm photo upload")
		respondError(w, err.Error(), statusOf(err))
		return
	}
	respondJSON(w, map[string]string{"photo_url": url}, http.StatusOK)
}
