package repository

import (
	"context"
	"fmt"

	"timebank-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AppointmentRepository handles database operations for appointments
type AppointmentRepository struct {
	db *pgxpool.Pool
}

// NewAppointmentRepository creates a new appointment repository
func NewAppointmentRepository(db *pgxpool.Pool) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

const appointmentColumns = `id, user_id, title, description, service_type,
	email, phone, starts_at, created_at, updated_at`

func scanAppointment(row pgx.Row) (*models.Appointment, error) {
	var a models.Appointment
	err := row.Scan(
		&a.ID, &a.UserID, &a.Title, &a.Description, &a.ServiceType,
		&a.Email, &a.Phone, &a.StartsAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create creates a new appointment
func (r *AppointmentRepository) Create(ctx context.Context, a *models.Appointment) error {
	query := `
		INSERT INTO appointments (id, user_id, title, description, service_type,
			email, phone, starts_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(ctx, query,
		a.ID, a.UserID, a.Title, a.Description, a.ServiceType,
		a.Email, a.Phone, a.StartsAt, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

// GetByID retrieves an appointment by ID
func (r *AppointmentRepository) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`
	a, err := scanAppointment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("appointment not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return a, nil
}

// Update updates the editable appointment fields
func (r *AppointmentRepository) Update(ctx context.Context, a *models.Appointment) error {
	query := `
		UPDATE appointments
		SET title = $1, description = $2, service_type = $3, starts_at = $4,
			updated_at = now()
		WHERE id = $5
	`
	result, err := r.db.Exec(ctx, query,
		a.Title, a.Description, a.ServiceType, a.StartsAt, a.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("appointment not found")
	}
	return nil
}

// Delete deletes an appointment by ID
func (r *AppointmentRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM appointments WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("appointment not found")
	}
	return nil
}

// List retrieves all appointments
func (r *AppointmentRepository) List(ctx context.Context) ([]*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments ORDER BY starts_at`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

// ListUpcoming retrieves the next appointments ordered by start time
func (r *AppointmentRepository) ListUpcoming(ctx context.Context, limit int) ([]*models.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE starts_at >= now()
		ORDER BY starts_at ASC
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming appointments: %w", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

// ListByType retrieves appointments of one service type, case-insensitive
func (r *AppointmentRepository) ListByType(ctx context.Context, serviceType string) ([]*models.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE lower(service_type) = lower($1)
		ORDER BY starts_at
	`
	rows, err := r.db.Query(ctx, query, serviceType)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments by type: %w", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

// ListByUser retrieves the appointments owned by a user
func (r *AppointmentRepository) ListByUser(ctx context.Context, userID string) ([]*models.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE user_id = $1
		ORDER BY starts_at
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments by user: %w", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

func collectAppointments(rows pgx.Rows) ([]*models.Appointment, error) {
	var out []*models.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read appointments: %w", err)
	}
	return out, nil
}
