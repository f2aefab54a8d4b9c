package handlers

import (
	"encoding/json"
	"net/http"

	"timebank-backend/internal/middleware"
	"timebank-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// AppointmentHandler handles appointment HTTP requests
type AppointmentHandler struct {
	appointmentService *services.AppointmentService
}

// NewAppointmentHandler creates a new appointment handler
func NewAppointmentHandler(appointmentService *services.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{appointmentService: appointmentService}
}

// Create handles POST /api/v1/appointments
func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req services.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	appointment, err := h.appointmentService.Create(r.Context(), userID, req)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to create appointment")
		respondError(w, err.Error(), statusOf(err))
		return
	}
	respondJSON(w, appointment, http.StatusCreated)
}

// Get handles GET /api/v1/appointments/{id}
func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	appointment, err := h.appointmentService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err.Error(), statusOf(err))
		return
	}
	respondJSON(w, appointment, http.StatusOK)
}

// Update handles PUT /api/v1/appointments/{id}
func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id := chi.URLParam(r, "id")

	var req services.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	appointment, err := h.appointmentService.Update(r.Context(), userID, id, req)
	if err != nil {
		log.Error().Err(err).Str("appointment_id", id).Msg("Failed to update appointment")
		respondError(w, err.Error(), statusOf(err))
		return
	}
	respondJSON(w, appointment, http.StatusOK)
}

// Delete handles DELETE /api/v1/appointments/{id}
func (h *AppointmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.appointmentService.Delete(r.Context(), userID, id); err != nil {
		log.Error().Err(err).Str("appointment_id", id).Msg("Failed to delete appointment")
		respondError(w, err.Error(), statusOf(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Feed handles GET /api/v1/appointments/feed
func (h *AppointmentHandler) Feed(w http.ResponseWriter, r *http.Request) {
	appointments, err := h.appointmentService.Feed(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to load feed")
		respondError(w, err.Error(), statusOf(err))
		return
	}
	respondJSON(w, map[string]interface{}{"appointments": appointments}, http.StatusOK)
}

// ByType handles GET /api/v1/appointments/type/{service_type}
func (h *AppointmentHandler) ByType(w http.ResponseWriter, r *http.Request) {
	serviceType := chi.URLParam(r, "service_type")

	appointments, err := h.appointmentService.ListByType(r.Context(), serviceType)
	if err != nil {
		respondError(w, err.Error(), statusOf(err))
		return
	}
	respondJSON(w, map[string]interface{}{
		"service_type": serviceType,
		"appointments": appointments,
	}, http.StatusOK)
}

// Exchange handles GET /api/v1/exchange
func (h *AppointmentHandler) Exchange(w http.ResponseWriter, r *http.Request) {
	groups, err := h.appointmentService.ExchangeBoard(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to build exchange board")
		respondError(w, err.Error(), statusOf(err))
		return
	}
	respondJSON(w, map[string]interface{}{"groups": groups}, http.StatusOK)
}
