package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"timebank-backend/internal/models"
	"timebank-backend/internal/projection"
	"timebank-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Collection names exposed over the live feed.
const (
	CollectionProfiles     = "profiles"
	CollectionAppointments = "appointments"
)

// FeedHandler upgrades clients to the live feed: full collection
// snapshots on every change, plus profile-change events for the
// connected user.
type FeedHandler struct {
	hub          *services.FeedHub
	authService  *services.AuthService
	sessions     *services.SessionRegistry
	profiles     *projection.Store[*models.Profile]
	appointments *projection.Store[*models.Appointment]
}

// NewFeedHandler creates a new feed handler
func NewFeedHandler(
	hub *services.FeedHub,
	authService *services.AuthService,
	sessions *services.SessionRegistry,
	profiles *projection.Store[*models.Profile],
	appointments *projection.Store[*models.Appointment],
) *FeedHandler {
	return &FeedHandler{
		hub:          hub,
		authService:  authService,
		sessions:     sessions,
		profiles:     profiles,
		appointments: appointments,
	}
}

type feedCommand struct {
	Type       string `json:"type"`
	Collection string `json:"collection"`
}

// Handle handles GET /ws?token=...&collections=profiles,appointments
func (h *FeedHandler) Handle(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, "token required", http.StatusUnauthorized)
		return
	}
	userID, err := h.authService.ValidateJWT(token)
	if err != nil {
		respondError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade feed connection")
		return
	}
	defer conn.Close()

	h.hub.Register(userID, conn)
	defer h.hub.UnregisterConn(userID, conn)

	// Watch the user's own profile so favorite toggles and edits reach
	// the client immediately. Scoped to this connection.
	cancelWatch := h.sessions.Watch(userID, func(p *models.Profile) {
		msg := services.FeedMessage{Type: "profile_updated", Data: p}
		if err := h.hub.SendToUser(userID, msg); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to push profile update")
		}
	})
	defer cancelWatch()

	for _, collection := range strings.Split(r.URL.Query().Get("collections"), ",") {
		collection = strings.TrimSpace(collection)
		if collection != "" {
			h.subscribe(userID, collection)
		}
	}

	log.Info().Str("user_id", userID).Msg("Feed connection established")

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			log.Debug().Str("user_id", userID).Msg("Feed connection closed")
			return
		}

		var cmd feedCommand
		if err := json.Unmarshal(raw, &cmd); err != nil {
			h.sendError(userID, "invalid message")
			continue
		}

		switch cmd.Type {
		case "subscribe":
			h.subscribe(userID, cmd.Collection)
		case "unsubscribe":
			h.hub.Unsubscribe(userID, cmd.Collection)
		default:
			h.sendError(userID, "unknown message type")
		}
	}
}

// subscribe adds the subscription and delivers the current snapshot so
// the client does not wait for the next change.
func (h *FeedHandler) subscribe(userID, collection string) {
	var initial services.FeedMessage

	switch collection {
	case CollectionProfiles:
		snapshot := h.profiles.Snapshot()
		initial = services.FeedMessage{
			Type:       "snapshot",
			Collection: collection,
			Count:      len(snapshot),
			Data:       snapshot,
		}
	case CollectionAppointments:
		snapshot := h.appointments.Snapshot()
		initial = services.FeedMessage{
			Type:       "snapshot",
			Collection: collection,
			Count:      len(snapshot),
			Data:       snapshot,
		}
	default:
		h.sendError(userID, "unknown collection")
		return
	}

	h.hub.Subscribe(userID, collection)
	if err := h.hub.SendToUser(userID, initial); err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("collection", collection).
			Msg("Failed to send initial snapshot")
	}
}

func (h *FeedHandler) sendError(userID, message string) {
	msg := services.FeedMessage{Type: "error", Message: message}
	if err := h.hub.SendToUser(userID, msg); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to send feed error")
	}
}
