package handlers

import (
	"encoding/json"
	"net/http"

	"timebank-backend/internal/middleware"
	"timebank-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// AuthHandler handles sign-up, sign-in and password reset requests
type AuthHandler struct {
	authService *services.AuthService
	sessions    *services.SessionRegistry
	profiles    *services.ProfileService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	authService *services.AuthService,
	sessions *services.SessionRegistry,
	profiles *services.ProfileService,
) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		sessions:    sessions,
		profiles:    profiles,
	}
}

// SignUp handles POST /api/v1/auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req services.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	session, profile, err := h.authService.SignUp(r.Context(), req)
	if err != nil {
		log.Error().Err(err).Str("email", req.Email).Msg("Failed to sign up")
		respondError(w, err.Error(), statusOf(err))
		return
	}

	h.sessions.Put(profile)
	h.profiles.Refresh(r.Context())

	log.Info().
		Str("user_id", profile.ID).
		Str("skill", profile.Skill).
		Msg("User signed up")

	respondJSON(w, map[string]interface{}{
		"session": session,
		"profile": profile,
	}, http.StatusCreated)
}

// SignIn handles POST /api/v1/auth/signin
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, "email and password are required", http.StatusBadRequest)
		return
	}

	session, err := h.authService.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		log.Warn().Str("email", req.Email).Msg("Failed sign-in attempt")
		respondError(w, err.Error(), statusOf(err))
		return
	}

	respondJSON(w, session, http.StatusOK)
}

// SignOut handles POST /api/v1/auth/signout
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.sessions.Invalidate(middleware.GetUserID(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}

// RequestReset handles POST /api/v1/auth/reset
func (h *AuthHandler) RequestReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	token, err := h.authService.IssueResetToken(r.Context(), req.Email)
	if err != nil {
		// Do not reveal whether the email is registered.
		log.Warn().Err(err).Str("email", req.Email).Msg("Reset requested for unknown email")
		respondJSON(w, map[string]string{"message": "If the email is registered, a reset link has been sent"}, http.StatusOK)
		return
	}

	log.Info().Str("email", req.Email).Msg("Password reset token issued")

	// Delivery of the token is the mail collaborator's job; it is echoed
	// here until one is wired up.
	respondJSON(w, map[string]string{
		"message":     "If the email is registered, a reset link has been sent",
		"reset_token": token,
	}, http.StatusOK)
}

// ConfirmReset handles POST /api/v1/auth/reset/confirm
func (h *AuthHandler) ConfirmReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.authService.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		respondError(w, err.Error(), statusOf(err))
		return
	}
	respondJSON(w, map[string]string{"message": "Password updated"}, http.StatusOK)
}
