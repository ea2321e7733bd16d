package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/menuguard/menuguard-engine/pkg/apperrors"
	"github.com/menuguard/menuguard-engine/pkg/database"
	"github.com/menuguard/menuguard-engine/pkg/models"
)

// HistoryRepository defines the interface for analysis history data access.
// Every query is scoped to the owning user; there is no cross-user access path.
type HistoryRepository interface {
	// Insert stores a completed analysis for the user.
	Insert(ctx context.Context, entry *models.HistoryEntry) error

	// ListByUser returns the user's entries, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.HistoryEntry, error)

	// DeleteByIDForUser removes one entry. Returns apperrors.ErrNotFound
	// when the entry does not exist or belongs to a different user.
	DeleteByIDForUser(ctx context.Context, id, userID uuid.UUID) error

	// CountForUserSince counts the user's entries created at or after the
	// given time. Used for monthly quota checks.
	CountForUserSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)
}

// historyRepository implements HistoryRepository using PostgreSQL.
type historyRepository struct {
	db *database.DB
}

// NewHistoryRepository creates a new history repository.
func NewHistoryRepository(db *database.DB) HistoryRepository {
	return &historyRepository{db: db}
}

// Insert stores a completed analysis for the user.
func (r *historyRepository) Insert(ctx context.Context, entry *models.HistoryEntry) error {
	if entry.Status == "" {
		entry.Status = models.HistoryStatusCompleted
	}
	entry.CreatedAt = time.Now()

	query := `
		INSERT INTO analysis_history (user_id, created_at, status, analysis_type, input_text, result, allergies, preferences)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	err := r.db.QueryRow(ctx, query,
		entry.UserID, entry.CreatedAt, entry.Status, entry.AnalysisType,
		entry.InputText, entry.Result, entry.Allergies, entry.Preferences,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}
	return nil
}

// ListByUser returns the user's entries, newest first.
func (r *historyRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.HistoryEntry, error) {
	query := `
		SELECT id, user_id, created_at, status, analysis_type, input_text, result, allergies, preferences
		FROM analysis_history
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var entries []*models.HistoryEntry
	for rows.Next() {
		var e models.HistoryEntry
		err := rows.Scan(&e.ID, &e.UserID, &e.CreatedAt, &e.Status, &e.AnalysisType,
			&e.InputText, &e.Result, &e.Allergies, &e.Preferences)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history rows: %w", err)
	}
	return entries, nil
}

// DeleteByIDForUser removes one entry owned by the user.
func (r *historyRepository) DeleteByIDForUser(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM analysis_history WHERE id = $1 AND user_id = $2`,
		id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete history entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// CountForUserSince counts the user's entries created at or after the given time.
func (r *historyRepository) CountForUserSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM analysis_history WHERE user_id = $1 AND created_at >= $2`,
		userID, since).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to count history entries: %w", err)
	}
	return count, nil
}
