package repository

import (
	"context"
	"fmt"

	"timebank-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// inQueryLimit is the per-query id cap inherited from the document-store
// contract the mobile client was written against. GetByIDs chunks its
// input to stay under it.
const inQueryLimit = 10

// ProfileRepository handles database operations for user profiles
type ProfileRepository struct {
	db *pgxpool.Pool
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = `id, full_name, email, phone, address, birth_date, nif,
	skill, photo_url, favorites, push_token, created_at, updated_at`

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var p models.Profile
	err := row.Scan(
		&p.ID, &p.FullName, &p.Email, &p.Phone, &p.Address, &p.BirthDate,
		&p.NIF, &p.Skill, &p.PhotoURL, &p.Favorites, &p.PushToken,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if p.Favorites == nil {
		p.Favorites = []string{}
	}
	return &p, nil
}

// Create creates a new profile with its password hash
func (r *ProfileRepository) Create(ctx context.Context, p *models.Profile, passwordHash string) error {
	query := `
		INSERT INTO profiles (id, full_name, email, phone, address, birth_date,
			nif, skill, photo_url, favorites, push_token, password_hash,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.db.Exec(ctx, query,
		p.ID, p.FullName, p.Email, p.Phone, p.Address, p.BirthDate,
		p.NIF, p.Skill, p.PhotoURL, p.Favorites, p.PushToken, passwordHash,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

// PasswordHash retrieves the stored password hash for an email
func (r *ProfileRepository) PasswordHash(ctx context.Context, email string) (string, error) {
	query := `SELECT password_hash FROM profiles WHERE email = $1`
	var hash string
	err := r.db.QueryRow(ctx, query, email).Scan(&hash)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", fmt.Errorf("profile not found: %w", err)
		}
		return "", fmt.Errorf("failed to get password hash: %w", err)
	}
	return hash, nil
}

// UpdatePassword replaces the stored password hash for a profile
func (r *ProfileRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `UPDATE profiles SET password_hash = $1, updated_at = now() WHERE id = $2`
	result, err := r.db.Exec(ctx, query, passwordHash, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("profile not found")
	}
	return nil
}

// GetByID retrieves a profile by ID
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	p, err := scanProfile(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("profile not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

// GetByEmail retrieves a profile by email
func (r *ProfileRepository) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE email = $1`
	p, err := scanProfile(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("profile not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get profile by email: %w", err)
	}
	return p, nil
}

// EmailExists checks if an email is already registered
func (r *ProfileRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM profiles WHERE email = $1)`
	var exists bool
	err := r.db.QueryRow(ctx, query, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return exists, nil
}

// Update updates the editable profile fields
func (r *ProfileRepository) Update(ctx context.Context, p *models.Profile) error {
	query := `
		UPDATE profiles
		SET full_name = $1, phone = $2, address = $3, birth_date = $4,
			skill = $5, updated_at = now()
		WHERE id = $6
	`
	result, err := r.db.Exec(ctx, query,
		p.FullName, p.Phone, p.Address, p.BirthDate, p.Skill, p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("profile not found")
	}
	return nil
}

// UpdateFavorites replaces the favorites list of a profile
func (r *ProfileRepository) UpdateFavorites(ctx context.Context, id string, favorites []string) error {
	query := `UPDATE profiles SET favorites = $1, updated_at = now() WHERE id = $2`
	result, err := r.db.Exec(ctx, query, favorites, id)
	if err != nil {
		return fmt.Errorf("failed to update favorites: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("profile not found")
	}
	return nil
}

// UpdatePhotoURL records the public photo URL after an upload is confirmed
func (r *ProfileRepository) UpdatePhotoURL(ctx context.Context, id, photoURL string) error {
	query := `UPDATE profiles SET photo_url = $1, updated_at = now() WHERE id = $2`
	_, err := r.db.Exec(ctx, query, photoURL, id)
	if err != nil {
		return fmt.Errorf("failed to update photo url: %w", err)
	}
	return nil
}

// UpdatePushToken updates the push token for a profile
func (r *ProfileRepository) UpdatePushToken(ctx context.Context, id string, pushToken *string) error {
	query := `UPDATE profiles SET push_token = $1, updated_at = now() WHERE id = $2`
	_, err := r.db.Exec(ctx, query, pushToken, id)
	if err != nil {
		return fmt.Errorf("failed to update push token: %w", err)
	}
	return nil
}

// List retrieves all profiles
func (r *ProfileRepository) List(ctx context.Context) ([]*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles ORDER BY created_at`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()
	return collectProfiles(rows)
}

// ListBySkill retrieves profiles offering the given skill, case-insensitive
func (r *ProfileRepository) ListBySkill(ctx context.Context, skill string) ([]*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE lower(skill) = lower($1)`
	rows, err := r.db.Query(ctx, query, skill)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles by skill: %w", err)
	}
	defer rows.Close()
	return collectProfiles(rows)
}

// GetByIDs retrieves profiles for the given ids, issuing one sub-query per
// chunk of at most ten ids and merging the results. Ids that do not
// resolve are silently dropped; duplicates in the input are fetched once.
func (r *ProfileRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.Profile, error) {
	if len(ids) == 0 {
		return []*models.Profile{}, nil
	}

	var out []*models.Profile
	seen := make(map[string]bool, len(ids))

	for _, chunk := range ChunkIDs(ids, inQueryLimit) {
		query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = ANY($1)`
		rows, err := r.db.Query(ctx, query, chunk)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch profile chunk: %w", err)
		}
		profiles, err := collectProfiles(rows)
		rows.Close()
		if err != nil {
			return nil, err
		}
		out = mergeUnique(out, profiles, seen)
	}
	return out, nil
}

// mergeUnique appends the profiles from batch whose ids are not yet in
// seen, recording each appended id. Chunks can overlap when the input
// id list carries duplicates.
func mergeUnique(dst, batch []*models.Profile, seen map[string]bool) []*models.Profile {
	for _, p := range batch {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		dst = append(dst, p)
	}
	return dst
}

// ListFavoritedBy retrieves the profiles whose favorites include targetID
func (r *ProfileRepository) ListFavoritedBy(ctx context.Context, targetID string) ([]*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE $1 = ANY(favorites)`
	rows, err := r.db.Query(ctx, query, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favoriting profiles: %w", err)
	}
	defer rows.Close()
	return collectProfiles(rows)
}

func collectProfiles(rows pgx.Rows) ([]*models.Profile, error) {
	var out []*models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read profiles: %w", err)
	}
	return out, nil
}

// ChunkIDs splits ids into batches of at most size elements, preserving
// order. It returns nil for empty input.
func ChunkIDs(ids []string, size int) [][]string {
	if size <= 0 || len(ids) == 0 {
		return nil
	}
	var chunks [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
