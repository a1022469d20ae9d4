package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/siakad/thesis-workflow/internal/domain/entity"
)

// HistoryRepository handles the append-only audit trail. There is no
// update or delete; commit order of the writing transaction is the order
// of the trail.
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sql.DB, logger *zap.Logger) *HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Append writes one history entry
func (r *HistoryRepository) Append(ctx context.Context, h *entity.HistoryEntry) error {
	query := `
		INSERT INTO history_entries (subject_type, subject_id, actor_id, status, note)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := executorFrom(ctx, r.db).ExecContext(ctx, query,
		h.SubjectType,
		h.SubjectID,
		h.ActorID,
		h.Status,
		h.Note,
	)
	if err != nil {
		r.logger.Error("Failed to append history entry",
			zap.String("subject_type", h.SubjectType),
			zap.Int64("subject_id", h.SubjectID),
			zap.Error(err))
		return fmt.Errorf("failed to append history entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	h.ID = id
	return nil
}

// ListBySubject returns the audit trail for one subject in commit order
func (r *HistoryRepository) ListBySubject(ctx context.Context, subjectType string, subjectID int64) ([]*entity.HistoryEntry, error) {
	query := `
		SELECT id, subject_type, subject_id, actor_id, status, note, created_at
		FROM history_entries
		WHERE subject_type = ? AND subject_id = ?
		ORDER BY id ASC
	`

	rows, err := executorFrom(ctx, r.db).QueryContext(ctx, query, subjectType, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list history entries: %w", err)
	}
	defer rows.Close()

	var out []*entity.HistoryEntry
	for rows.Next() {
		var h entity.HistoryEntry
		if err := rows.Scan(&h.ID, &h.SubjectType, &h.SubjectID, &h.ActorID, &h.Status, &h.Note, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		out = append(out, &h)
	}
	return out, rows.Err()
}
