package services

import (
	"sync"

	"timebank-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// SessionRegistry owns the cached profiles of authenticated users and
// notifies registered observers when a profile changes. It replaces the
// ambient current-user context of the mobile client with an explicit,
// process-wide lifecycle manager: views subscribe for the lifetime of
// their connection and must cancel on teardown.
type SessionRegistry struct {
	mu       sync.RWMutex
	profiles map[string]*models.Profile
	watchers map[string]map[int]func(*models.Profile)
	next     int
}

// NewSessionRegistry creates an empty session registry
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		profiles: make(map[string]*models.Profile),
		watchers: make(map[string]map[int]func(*models.Profile)),
	}
}

// Put caches the profile and notifies its watchers. Callers must only
// invoke it after the backing write has succeeded; the cache never holds
// unconfirmed state.
func (r *SessionRegistry) Put(p *models.Profile) {
	if p == nil || p.ID == "" {
		return
	}

	r.mu.Lock()
	r.profiles[p.ID] = p
	var fns []func(*models.Profile)
	for _, fn := range r.watchers[p.ID] {
		fns = append(fns, fn)
	}
	r.mu.Unlock()

	for _, fn := range fns {
		fn(p)
	}
}

// Get returns the cached profile for a user, or nil when absent.
func (r *SessionRegistry) Get(userID string) *models.Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.profiles[userID]
}

// Invalidate drops the cached profile, e.g. on sign-out.
func (r *SessionRegistry) Invalidate(userID string) {
	r.mu.Lock()
	delete(r.profiles, userID)
	r.mu.Unlock()

	log.Debug().Str("user_id", userID).Msg("Session invalidated")
}

// Watch registers fn to run whenever the user's cached profile changes.
// The returned cancel function removes the watcher.
func (r *SessionRegistry) Watch(userID string, fn func(*models.Profile)) (cancel func()) {
	r.mu.Lock()
	if r.watchers[userID] == nil {
		r.watchers[userID] = make(map[int]func(*models.Profile))
	}
	id := r.next
	r.next++
	r.watchers[userID][id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.watchers[userID], id)
		if len(r.watchers[userID]) == 0 {
			delete(r.watchers, userID)
		}
		r.mu.Unlock()
	}
}
