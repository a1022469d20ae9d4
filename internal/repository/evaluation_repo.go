package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/siakad/thesis-workflow/internal/domain/entity"
)

// EvaluationRepository handles evaluation database operations
type EvaluationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewEvaluationRepository creates a new evaluation repository
func NewEvaluationRepository(db *sql.DB, logger *zap.Logger) *EvaluationRepository {
	return &EvaluationRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert inserts the evaluation or overwrites the existing one for the
// same (sempro, evaluator) pair. Evaluations never duplicate per evaluator.
func (r *EvaluationRepository) Upsert(ctx context.Context, e *entity.Evaluation) error {
	query := `
		INSERT INTO evaluations (
			sempro_id, evaluator_id, score1, score2, score3, score4, score5, notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (sempro_id, evaluator_id) DO UPDATE SET
			score1 = excluded.score1,
			score2 = excluded.score2,
			score3 = excluded.score3,
			score4 = excluded.score4,
			score5 = excluded.score5,
			notes = excluded.notes,
			updated_at = CURRENT_TIMESTAMP
	`

	_, err := executorFrom(ctx, r.db).ExecContext(ctx, query,
		e.SemproID,
		e.EvaluatorID,
		e.Scores[0],
		e.Scores[1],
		e.Scores[2],
		e.Scores[3],
		e.Scores[4],
		e.Notes,
	)
	if err != nil {
		r.logger.Error("Failed to upsert evaluation",
			zap.Int64("sempro_id", e.SemproID),
			zap.String("evaluator_id", e.EvaluatorID),
			zap.Error(err))
		return fmt.Errorf("failed to upsert evaluation: %w", err)
	}

	stored, err := r.GetBySemproAndEvaluator(ctx, e.SemproID, e.EvaluatorID)
	if err != nil {
		return err
	}
	if stored != nil {
		*e = *stored
	}
	return nil
}

// GetBySemproAndEvaluator retrieves one evaluator's evaluation; (nil, nil) when absent
func (r *EvaluationRepository) GetBySemproAndEvaluator(ctx context.Context, semproID int64, evaluatorID string) (*entity.Evaluation, error) {
	query := `
		SELECT id, sempro_id, evaluator_id, score1, score2, score3, score4, score5,
			notes, created_at, updated_at
		FROM evaluations
		WHERE sempro_id = ? AND evaluator_id = ?
	`

	var e entity.Evaluation
	err := executorFrom(ctx, r.db).QueryRowContext(ctx, query, semproID, evaluatorID).Scan(
		&e.ID,
		&e.SemproID,
		&e.EvaluatorID,
		&e.Scores[0],
		&e.Scores[1],
		&e.Scores[2],
		&e.Scores[3],
		&e.Scores[4],
		&e.Notes,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get evaluation: %w", err)
	}
	return &e, nil
}

// ListBySemproID returns all evaluations for a registration
func (r *EvaluationRepository) ListBySemproID(ctx context.Context, semproID int64) ([]*entity.Evaluation, error) {
	query := `
		SELECT id, sempro_id, evaluator_id, score1, score2, score3, score4, score5,
			notes, created_at, updated_at
		FROM evaluations
		WHERE sempro_id = ?
		ORDER BY id ASC
	`

	rows, err := executorFrom(ctx, r.db).QueryContext(ctx, query, semproID)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}
	defer rows.Close()

	var out []*entity.Evaluation
	for rows.Next() {
		var e entity.Evaluation
		if err := rows.Scan(
			&e.ID,
			&e.SemproID,
			&e.EvaluatorID,
			&e.Scores[0],
			&e.Scores[1],
			&e.Scores[2],
			&e.Scores[3],
			&e.Scores[4],
			&e.Notes,
			&e.CreatedAt,
			&e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan evaluation: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// CountBySemproID returns how many evaluators have recorded an evaluation
func (r *EvaluationRepository) CountBySemproID(ctx context.Context, semproID int64) (int, error) {
	var count int
	err := executorFrom(ctx, r.db).QueryRowContext(ctx,
		"SELECT COUNT(*) FROM evaluations WHERE sempro_id = ?", semproID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count evaluations: %w", err)
	}
	return count, nil
}
