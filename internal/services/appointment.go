package services

import (
	"context"
	"fmt"
	"time"

	"timebank-backend/internal/models"
	"timebank-backend/internal/projection"
	"timebank-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AppointmentService handles appointment business logic and the derived
// feed and exchange views.
type AppointmentService struct {
	appointments *repository.AppointmentRepository
	profiles     *repository.ProfileRepository
	store        *projection.Store[*models.Appointment]
	push         *PushService
	feedLimit    int
}

// NewAppointmentService creates a new appointment service
func NewAppointmentService(
	appointments *repository.AppointmentRepository,
	profiles *repository.ProfileRepository,
	store *projection.Store[*models.Appointment],
	push *PushService,
	feedLimit int,
) *AppointmentService {
	return &AppointmentService{
		appointments: appointments,
		profiles:     profiles,
		store:        store,
		push:         push,
		feedLimit:    feedLimit,
	}
}

func appointmentType(a *models.Appointment) (string, bool) {
	return a.ServiceType, a.ServiceType != ""
}

func appointmentOwner(a *models.Appointment) (string, bool) {
	return a.UserID, a.UserID != ""
}

// CreateRequest is the canonical appointment-creation payload. The start
// instant is a single RFC 3339 datetime; the legacy split date/time shape
// is not accepted.
type CreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ServiceType string `json:"service_type"`
	Datetime    string `json:"datetime"`
}

func (r *CreateRequest) parse() (time.Time, error) {
	if r.Title == "" {
		return time.Time{}, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if r.ServiceType == "" {
		return time.Time{}, fmt.Errorf("%w: service type is required", ErrValidation)
	}
	startsAt, err := time.Parse(time.RFC3339, r.Datetime)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: datetime must be RFC 3339", ErrValidation)
	}
	return startsAt, nil
}

// Create validates the payload and stores a new appointment. Contact
// fields are copied from the creator's profile at this moment. Users who
// favorited the creator are notified asynchronously.
func (s *AppointmentService) Create(ctx context.Context, userID string, req CreateRequest) (*models.Appointment, error) {
	startsAt, err := req.parse()
	if err != nil {
		return nil, err
	}

	creator, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("creator profile not found: %w", err)
	}

	now := time.Now()
	a := &models.Appointment{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		ServiceType: req.ServiceType,
		Email:       creator.Email,
		Phone:       creator.Phone,
		StartsAt:    startsAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.appointments.Create(ctx, a); err != nil {
		return nil, err
	}

	log.Info().
		Str("appointment_id", a.ID).
		Str("user_id", userID).
		Str("service_type", a.ServiceType).
		Time("starts_at", a.StartsAt).
		Msg("Appointment created")

	s.Refresh(ctx)
	go s.notifyFavoriters(creator, a)
	return a, nil
}

// Get retrieves one appointment
func (s *AppointmentService) Get(ctx context.Context, id string) (*models.Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

// Update edits an appointment owned by userID
func (s *AppointmentService) Update(ctx context.Context, userID, id string, req CreateRequest) (*models.Appointment, error) {
	startsAt, err := req.parse()
	if err != nil {
		return nil, err
	}

	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.UserID != userID {
		return nil, fmt.Errorf("appointment does not belong to user")
	}

	a.Title = req.Title
	a.Description = req.Description
	a.ServiceType = req.ServiceType
	a.StartsAt = startsAt

	if err := s.appointments.Update(ctx, a); err != nil {
		return nil, err
	}
	s.Refresh(ctx)
	return a, nil
}

// Delete removes an appointment owned by userID
func (s *AppointmentService) Delete(ctx context.Context, userID, id string) error {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if a.UserID != userID {
		return fmt.Errorf("appointment does not belong to user")
	}
	if err := s.appointments.Delete(ctx, id); err != nil {
		return err
	}
	s.Refresh(ctx)
	return nil
}

// Feed returns the next upcoming appointments, ordered by start time.
func (s *AppointmentService) Feed(ctx context.Context) ([]*models.Appointment, error) {
	return s.appointments.ListUpcoming(ctx, s.feedLimit)
}

// ListByType returns the appointments of one service type.
func (s *AppointmentService) ListByType(ctx context.Context, serviceType string) ([]*models.Appointment, error) {
	return s.appointments.ListByType(ctx, serviceType)
}

// ExchangeProvider is one provider's entry on the exchange board.
type ExchangeProvider struct {
	UserID       string                `json:"user_id"`
	Name         string                `json:"name"`
	Email        string                `json:"email,omitempty"`
	Phone        string                `json:"phone,omitempty"`
	Appointments []*models.Appointment `json:"appointments"`
}

// ExchangeGroup is one service-type bucket on the exchange board.
type ExchangeGroup struct {
	ServiceType string             `json:"service_type"`
	Providers   []ExchangeProvider `json:"providers"`
}

// ExchangeBoard groups all appointments by service type, then by owning
// provider within the type. Appointments missing a type or owner are
// dropped; providers whose profile no longer resolves keep their entry
// under a placeholder name.
func (s *AppointmentService) ExchangeBoard(ctx context.Context) ([]ExchangeGroup, error) {
	if err := s.warm(ctx); err != nil {
		return nil, err
	}
	all := s.store.Snapshot()

	complete := make([]*models.Appointment, 0, len(all))
	for _, a := range all {
		if a.ServiceType != "" && a.UserID != "" {
			complete = append(complete, a)
		}
	}

	ownerIDs := make([]string, 0, len(complete))
	seen := make(map[string]bool)
	for _, a := range complete {
		if !seen[a.UserID] {
			seen[a.UserID] = true
			ownerIDs = append(ownerIDs, a.UserID)
		}
	}
	owners, err := s.profiles.GetByIDs(ctx, ownerIDs)
	if err != nil {
		return nil, err
	}
	ownerByID := make(map[string]*models.Profile, len(owners))
	for _, p := range owners {
		ownerByID[p.ID] = p
	}

	byType := projection.GroupBy(complete, appointmentType, "")
	byType.SortKeys()

	out := make([]ExchangeGroup, 0, byType.Len())
	for _, serviceType := range byType.Keys() {
		byOwner := projection.Partition(byType.Group(serviceType), appointmentOwner)

		providers := make([]ExchangeProvider, 0, byOwner.Len())
		for _, ownerID := range byOwner.Keys() {
			entry := ExchangeProvider{
				UserID:       ownerID,
				Name:         "Unknown User",
				Appointments: byOwner.Group(ownerID),
			}
			if p, ok := ownerByID[ownerID]; ok {
				entry.Name = p.FullName
				entry.Email = p.Email
				entry.Phone = p.Phone
			}
			providers = append(providers, entry)
		}
		out = append(out, ExchangeGroup{ServiceType: serviceType, Providers: providers})
	}
	return out, nil
}

// Refresh reloads the live appointment projection from the repository.
func (s *AppointmentService) Refresh(ctx context.Context) {
	all, err := s.appointments.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to refresh appointment projection")
		return
	}
	s.store.ReplaceAll(all)
}

func (s *AppointmentService) warm(ctx context.Context) error {
	if s.store.Len() > 0 {
		return nil
	}
	all, err := s.appointments.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load appointments: %w", err)
	}
	s.store.ReplaceAll(all)
	return nil
}

func (s *AppointmentService) notifyFavoriters(creator *models.Profile, a *models.Appointment) {
	if s.push == nil || !s.push.Enabled() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	favoriters, err := s.profiles.ListFavoritedBy(ctx, creator.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", creator.ID).Msg("Failed to list favoriting users")
		return
	}

	title := fmt.Sprintf("%s posted a new offer", creator.FullName)
	for _, p := range favoriters {
		if p.PushToken == nil || *p.PushToken == "" {
			continue
		}
		if err := s.push.Send(*p.PushToken, title, a.Title); err != nil {
			log.Error().
				Err(err).
				Str("user_id", p.ID).
				Msg("Failed to send push notification")
		}
	}
}
