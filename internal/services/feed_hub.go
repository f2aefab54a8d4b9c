package services

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// FeedMessage is a message pushed over the live feed connection.
type FeedMessage struct {
	Type       string      `json:"type"`
	Collection string      `json:"collection,omitempty"`
	Count      int         `json:"count,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Message    string      `json:"message,omitempty"`
}

// feedConn serializes writes to a single websocket connection. The
// gorilla package allows at most one concurrent writer per connection,
// and snapshots for one user can arrive from several mutation
// goroutines at once.
type feedConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *feedConn) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// FeedHub manages the live feed connections. Each authenticated user has
// at most one connection; a connection subscribes to named collections
// and receives a full snapshot whenever one changes. Subscriptions die
// with the connection.
type FeedHub struct {
	mu          sync.RWMutex
	connections map[string]*feedConn
	collections map[string]map[string]bool // collection -> user ids
}

// NewFeedHub creates a new feed hub
func NewFeedHub() *FeedHub {
	return &FeedHub{
		connections: make(map[string]*feedConn),
		collections: make(map[string]map[string]bool),
	}
}

// Register registers a connection for a user, closing any previous one.
func (h *FeedHub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.connections[userID]; ok {
		existing.conn.Close()
	}
	h.connections[userID] = &feedConn{conn: conn}

	log.Info().Str("user_id", userID).Msg("Feed connection registered")
}

// Unregister removes a user's connection and all its subscriptions.
func (h *FeedHub) Unregister(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(userID, nil)
}

// UnregisterConn removes the user's connection only when it still is
// conn, so a replaced connection's teardown does not evict its
// successor.
func (h *FeedHub) UnregisterConn(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(userID, conn)
}

func (h *FeedHub) removeLocked(userID string, expect *websocket.Conn) {
	fc, ok := h.connections[userID]
	if !ok || (expect != nil && fc.conn != expect) {
		return
	}
	fc.conn.Close()
	delete(h.connections, userID)
	for _, subscribers := range h.collections {
		delete(subscribers, userID)
	}
	log.Info().Str("user_id", userID).Msg("Feed connection unregistered")
}

// Subscribe adds the user to a collection's subscriber set.
func (h *FeedHub) Subscribe(userID, collection string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.collections[collection] == nil {
		h.collections[collection] = make(map[string]bool)
	}
	h.collections[collection][userID] = true

	log.Debug().
		Str("user_id", userID).
		Str("collection", collection).
		Msg("Feed subscription added")
}

// Unsubscribe removes the user from a collection's subscriber set.
func (h *FeedHub) Unsubscribe(userID, collection string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.collections[collection], userID)
}

// IsOnline checks if a user has a feed connection
func (h *FeedHub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.connections[userID]
	return ok
}

// SendToUser sends a message to a specific user
func (h *FeedHub) SendToUser(userID string, message FeedMessage) error {
	h.mu.RLock()
	fc, ok := h.connections[userID]
	h.mu.RUnlock()

	if !ok {
		return fmt.Errorf("user %s is not connected", userID)
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := fc.write(data); err != nil {
		h.UnregisterConn(userID, fc.conn)
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// Broadcast pushes a collection snapshot to every subscriber of that
// collection.
func (h *FeedHub) Broadcast(collection string, data interface{}, count int) {
	h.mu.RLock()
	userIDs := make([]string, 0, len(h.collections[collection]))
	for userID := range h.collections[collection] {
		userIDs = append(userIDs, userID)
	}
	h.mu.RUnlock()

	message := FeedMessage{
		Type:       "snapshot",
		Collection: collection,
		Count:      count,
		Data:       data,
	}

	for _, userID := range userIDs {
		if err := h.SendToUser(userID, message); err != nil {
			log.Error().
				Err(err).
				Str("user_id", userID).
				Str("collection", collection).
				Msg("Failed to push snapshot")
		}
	}
}
