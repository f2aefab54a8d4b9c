package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"timebank-backend/internal/models"
	"timebank-backend/internal/projection"
	"timebank-backend/internal/repository"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// ErrInvalidReference is raised when a favorite toggle is attempted with a
// missing current-user or target identity. The stored list is left
// unchanged.
var ErrInvalidReference = errors.New("invalid reference")

// ProfileService handles profile-related business logic: profile reads and
// edits, favorite toggles and the derived search/favorites views.
type ProfileService struct {
	profiles *repository.ProfileRepository
	sessions *SessionRegistry
	store    *projection.Store[*models.Profile]
	collator *collate.Collator
}

// NewProfileService creates a new profile service
func NewProfileService(
	profiles *repository.ProfileRepository,
	sessions *SessionRegistry,
	store *projection.Store[*models.Profile],
) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		sessions: sessions,
		store:    store,
		collator: collate.New(language.Portuguese),
	}
}

func profileSkill(p *models.Profile) (string, bool)   { return p.Skill, p.Skill != "" }
func profileName(p *models.Profile) (string, bool)    { return p.FullName, p.FullName != "" }
func profileAddress(p *models.Profile) (string, bool) { return p.Address, p.Address != "" }

// Get retrieves a profile, preferring the session cache.
func (s *ProfileService) Get(ctx context.Context, userID string) (*models.Profile, error) {
	if p := s.sessions.Get(userID); p != nil {
		return p, nil
	}
	p, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.sessions.Put(p)
	return p, nil
}

// UpdateRequest carries the editable profile fields
type UpdateRequest struct {
	FullName  string `json:"full_name"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	BirthDate string `json:"birth_date"`
	Skill     string `json:"skill"`
}

// Update persists a profile edit and refreshes the session cache and the
// live projection on success.
func (s *ProfileService) Update(ctx context.Context, userID string, req UpdateRequest) (*models.Profile, error) {
	if req.FullName != "" && len(req.FullName) < 3 {
		return nil, fmt.Errorf("%w: full name must have at least 3 characters", ErrValidation)
	}

	p, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FullName != "" {
		p.FullName = req.FullName
	}
	if req.Phone != "" {
		p.Phone = req.Phone
	}
	if req.Address != "" {
		p.Address = req.Address
	}
	if req.BirthDate != "" {
		p.BirthDate = req.BirthDate
	}
	if req.Skill != "" {
		p.Skill = req.Skill
	}

	if err := s.profiles.Update(ctx, p); err != nil {
		return nil, err
	}

	s.sessions.Put(p)
	s.Refresh(ctx)
	return p, nil
}

// ToggleID returns favorites with id removed when present, appended
// otherwise. Applying it twice with the same id restores the input.
func ToggleID(favorites []string, id string) []string {
	out := make([]string, 0, len(favorites)+1)
	found := false
	for _, f := range favorites {
		if f == id {
			found = true
			continue
		}
		out = append(out, f)
	}
	if !found {
		out = append(out, id)
	}
	return out
}

// ToggleFavorite removes the target from the user's favorites when
// present, adds it otherwise. The write is authoritative: the session
// cache is only updated after the repository accepts the new list, so a
// failed write leaves both the stored and the cached state untouched.
func (s *ProfileService) ToggleFavorite(ctx context.Context, userID, targetID string) (*models.Profile, error) {
	if userID == "" || targetID == "" {
		log.Warn().
			Str("user_id", userID).
			Str("target_id", targetID).
			Msg("Favorite toggle with missing identity")
		return nil, ErrInvalidReference
	}
	if userID == targetID {
		return nil, fmt.Errorf("%w: cannot favorite yourself", ErrValidation)
	}

	if _, err := s.profiles.GetByID(ctx, targetID); err != nil {
		log.Warn().
			Str("user_id", userID).
			Str("target_id", targetID).
			Msg("Favorite toggle against unknown target")
		return nil, ErrInvalidReference
	}

	p, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	updated := ToggleID(p.Favorites, targetID)
	if err := s.profiles.UpdateFavorites(ctx, userID, updated); err != nil {
		return nil, err
	}

	changed := *p
	changed.Favorites = updated
	s.sessions.Put(&changed)
	s.Refresh(ctx)

	log.Info().
		Str("user_id", userID).
		Str("target_id", targetID).
		Int("favorites", len(updated)).
		Msg("Favorites updated")
	return &changed, nil
}

// ProfileGroup is one bucket of the grouped favorites view.
type ProfileGroup struct {
	Key     string            `json:"key"`
	Members []*models.Profile `json:"members"`
}

// Favorites resolves the user's favorite ids and returns them grouped by
// skill, groups and members sorted. Ids that no longer resolve to a
// profile are silently dropped from the view; the stored list is not
// rewritten.
func (s *ProfileService) Favorites(ctx context.Context, userID string) ([]ProfileGroup, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	resolved, err := s.profiles.GetByIDs(ctx, p.Favorites)
	if err != nil {
		return nil, err
	}
	if dropped := len(p.Favorites) - len(resolved); dropped > 0 {
		log.Debug().
			Str("user_id", userID).
			Int("dropped", dropped).
			Msg("Favorites referencing missing profiles dropped from view")
	}

	grouped := projection.GroupBy(resolved, profileSkill, "")
	grouped.Sort(profileName, s.collator)

	out := make([]ProfileGroup, 0, grouped.Len())
	for _, key := range grouped.Keys() {
		out = append(out, ProfileGroup{Key: key, Members: grouped.Group(key)})
	}
	return out, nil
}

// Search filters the live profile projection by address and skill
// substrings and returns the matches sorted by name, unnamed last.
func (s *ProfileService) Search(ctx context.Context, address, skill string) ([]*models.Profile, error) {
	if err := s.warm(ctx); err != nil {
		return nil, err
	}

	matched := projection.Filter(s.store.Snapshot(), []projection.Predicate[*models.Profile]{
		{Field: profileAddress, Needle: address},
		{Field: profileSkill, Needle: skill},
	})
	projection.SortMembers(matched, profileName, s.collator)
	return matched, nil
}

// ProvidersBySkill returns the profiles whose skill equals serviceType,
// case-insensitive, sorted by name.
func (s *ProfileService) ProvidersBySkill(ctx context.Context, serviceType string) ([]*models.Profile, error) {
	if err := s.warm(ctx); err != nil {
		return nil, err
	}

	var matched []*models.Profile
	for _, p := range s.store.Snapshot() {
		if p.Skill != "" && strings.EqualFold(p.Skill, serviceType) {
			matched = append(matched, p)
		}
	}
	projection.SortMembers(matched, profileName, s.collator)
	return matched, nil
}

// Refresh reloads the live profile projection from the repository. It is
// called after every profile mutation so stream subscribers see the new
// snapshot.
func (s *ProfileService) Refresh(ctx context.Context) {
	all, err := s.profiles.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to refresh profile projection")
		return
	}
	s.store.ReplaceAll(all)
}

func (s *ProfileService) warm(ctx context.Context) error {
	if s.store.Len() > 0 {
		return nil
	}
	all, err := s.profiles.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load profiles: %w", err)
	}
	s.store.ReplaceAll(all)
	return nil
}

// SetPhotoURL records the uploaded photo's public URL on the profile
// and propagates it to the session cache and the live projection, like
// every other profile mutation.
func (s *ProfileService) SetPhotoURL(ctx context.Context, userID, url string) error {
	if err := s.profiles.UpdatePhotoURL(ctx, userID, url); err != nil {
		return err
	}
	s.cachePhotoURL(userID, url)
	s.Refresh(ctx)
	return nil
}

func (s *ProfileService) cachePhotoURL(userID, url string) {
	if p := s.sessions.Get(userID); p != nil {
		changed := *p
		changed.PhotoURL = &url
		s.sessions.Put(&changed)
	}
}

// SetPushToken stores the device push token on the profile.
func (s *ProfileService) SetPushToken(ctx context.Context, userID string, token *string) error {
	if err := s.profiles.UpdatePushToken(ctx, userID, token); err != nil {
		return err
	}
	if p := s.sessions.Get(userID); p != nil {
		changed := *p
		changed.PushToken = token
		s.sessions.Put(&changed)
	}
	return nil
}
