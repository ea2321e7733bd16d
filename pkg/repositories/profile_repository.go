package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/menuguard/menuguard-engine/pkg/apperrors"
	"github.com/menuguard/menuguard-engine/pkg/database"
	"github.com/menuguard/menuguard-engine/pkg/models"
)

// ProfileRepository defines the interface for profile data access.
type ProfileRepository interface {
	// Create inserts a new profile. Returns apperrors.ErrConflict when the
	// email is already registered.
	Create(ctx context.Context, p *models.Profile) error

	// GetByID retrieves a profile by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)

	// GetByEmail retrieves a profile by email.
	GetByEmail(ctx context.Context, email string) (*models.Profile, error)

	// GetOrCreate returns the existing profile for the email, creating it
	// atomically when absent. Concurrent callers converge on one row.
	GetOrCreate(ctx context.Context, p *models.Profile) (*models.Profile, error)

	// Update applies non-nil fields of the update to the profile.
	Update(ctx context.Context, id uuid.UUID, update *models.ProfileUpdate) (*models.Profile, error)

	// SetPro upgrades the profile to the Pro tier and lifts the monthly cap.
	SetPro(ctx context.Context, id uuid.UUID) (*models.Profile, error)

	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// profileRepository implements ProfileRepository using PostgreSQL.
type profileRepository struct {
	db *database.DB
}

// NewProfileRepository creates a new profile repository.
func NewProfileRepository(db *database.DB) ProfileRepository {
	return &profileRepository{db: db}
}

const profileColumns = `id, email, username, password_hash, allergies, preferences, is_pro, max_analyses_per_month, created_at, updated_at`

// Create inserts a new profile.
func (r *profileRepository) Create(ctx context.Context, p *models.Profile) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	query := `
		INSERT INTO profiles (email, username, password_hash, allergies, preferences, is_pro, max_analyses_per_month, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	err := r.db.QueryRow(ctx, query,
		p.Email, p.Username, p.PasswordHash, p.Allergies, p.Preferences,
		p.IsPro, p.MaxAnalysesPerMonth, p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

// GetByID retrieves a profile by ID.
func (r *profileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	return r.scanProfile(r.db.QueryRow(ctx, query, id))
}

// GetByEmail retrieves a profile by email.
func (r *profileRepository) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE email = $1`
	return r.scanProfile(r.db.QueryRow(ctx, query, email))
}

// GetOrCreate returns the existing profile for the email, creating it when
// absent. The insert uses ON CONFLICT DO NOTHING so two concurrent calls for
// the same email both observe the single surviving row.
func (r *profileRepository) GetOrCreate(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	now := time.Now()

	query := `
		INSERT INTO profiles (email, username, password_hash, allergies, preferences, is_pro, max_analyses_per_month, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (email) DO NOTHING`

	_, err := r.db.Exec(ctx, query,
		p.Email, p.Username, p.PasswordHash, p.Allergies, p.Preferences,
		p.IsPro, p.MaxAnalysesPerMonth, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert profile: %w", err)
	}

	return r.GetByEmail(ctx, p.Email)
}

// Update applies non-nil fields of the update to the profile.
func (r *profileRepository) Update(ctx context.Context, id uuid.UUID, update *models.ProfileUpdate) (*models.Profile, error) {
	query := `
		UPDATE profiles
		SET username = COALESCE($2, username),
		    allergies = COALESCE($3, allergies),
		    preferences = COALESCE($4, preferences),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + profileColumns

	return r.scanProfile(r.db.QueryRow(ctx, query, id, update.Username, update.Allergies, update.Preferences))
}

// SetPro upgrades the profile to the Pro tier and lifts the monthly cap.
func (r *profileRepository) SetPro(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	query := `
		UPDATE profiles
		SET is_pro = TRUE,
		    max_analyses_per_month = NULL,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + profileColumns

	return r.scanProfile(r.db.QueryRow(ctx, query, id))
}

// UpdatePassword replaces the stored password hash.
func (r *profileRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE profiles SET password_hash = $2, updated_at = NOW() WHERE id = $1`,
		id, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *profileRepository) scanProfile(row pgx.Row) (*models.Profile, error) {
	var p models.Profile
	err := row.Scan(&p.ID, &p.Email, &p.Username, &p.PasswordHash, &p.Allergies,
		&p.Preferences, &p.IsPro, &p.MaxAnalysesPerMonth, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}
	return &p, nil
}
