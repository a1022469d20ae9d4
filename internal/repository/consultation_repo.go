package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/siakad/thesis-workflow/internal/domain/apperr"
	"github.com/siakad/thesis-workflow/internal/domain/entity"
)

// ConsultationRepository handles consultation database operations
type ConsultationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewConsultationRepository creates a new consultation repository
func NewConsultationRepository(db *sql.DB, logger *zap.Logger) *ConsultationRepository {
	return &ConsultationRepository{
		db:     db,
		logger: logger,
	}
}

const consultationColumns = `id, student_id, supervisor_id, proposal_id, date, description,
	outcome, status, version, created_at, updated_at`

func scanConsultation(row *sql.Row) (*entity.Consultation, error) {
	var c entity.Consultation
	err := row.Scan(
		&c.ID,
		&c.StudentID,
		&c.SupervisorID,
		&c.ProposalID,
		&c.Date,
		&c.Description,
		&c.Outcome,
		&c.Status,
		&c.Version,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan consultation: %w", err)
	}
	return &c, nil
}

// Create inserts a new consultation
func (r *ConsultationRepository) Create(ctx context.Context, c *entity.Consultation) error {
	query := `
		INSERT INTO consultations (
			student_id, supervisor_id, proposal_id, date, description, outcome, status
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := executorFrom(ctx, r.db).ExecContext(ctx, query,
		c.StudentID,
		c.SupervisorID,
		c.ProposalID,
		c.Date,
		c.Description,
		c.Outcome,
		c.Status,
	)
	if err != nil {
		r.logger.Error("Failed to create consultation", zap.Error(err))
		return fmt.Errorf("failed to create consultation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	c.ID = id
	c.Version = 1
	return nil
}

// GetByID retrieves a consultation by ID; (nil, nil) when absent
func (r *ConsultationRepository) GetByID(ctx context.Context, id int64) (*entity.Consultation, error) {
	query := fmt.Sprintf("SELECT %s FROM consultations WHERE id = ?", consultationColumns)
	return scanConsultation(executorFrom(ctx, r.db).QueryRowContext(ctx, query, id))
}

// UpdateStatus moves the consultation to status, guarded by the statuses
// the transition is legal from
func (r *ConsultationRepository) UpdateStatus(ctx context.Context, id int64, status string, from ...string) (*entity.Consultation, error) {
	placeholders := strings.Repeat("?,", len(from))
	placeholders = placeholders[:len(placeholders)-1]
	query := fmt.Sprintf(`
		UPDATE consultations
		SET status = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status IN (%s)
	`, placeholders)

	args := make([]interface{}, 0, len(from)+2)
	args = append(args, status, id)
	for _, f := range from {
		args = append(args, f)
	}

	result, err := executorFrom(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to update consultation status", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to update consultation status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		current, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, apperr.NotFound("consultation %d not found", id)
		}
		return nil, apperr.InvalidState(current.Status, status, "consultation status transition not permitted")
	}

	return r.GetByID(ctx, id)
}

// Update rewrites the editable fields using compare-and-swap on the
// version column
func (r *ConsultationRepository) Update(ctx context.Context, c *entity.Consultation) error {
	query := `
		UPDATE consultations
		SET date = ?, description = ?, outcome = ?, status = ?,
		    version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?
	`

	result, err := executorFrom(ctx, r.db).ExecContext(ctx, query,
		c.Date,
		c.Description,
		c.Outcome,
		c.Status,
		c.ID,
		c.Version,
	)
	if err != nil {
		r.logger.Error("Failed to update consultation", zap.Int64("id", c.ID), zap.Error(err))
		return fmt.Errorf("failed to update consultation: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		current, err := r.GetByID(ctx, c.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return apperr.NotFound("consultation %d not found", c.ID)
		}
		return apperr.Conflict("consultation %d was modified concurrently", c.ID)
	}

	c.Version++
	return nil
}

// ListByProposalID returns all consultations logged against a proposal,
// oldest first
func (r *ConsultationRepository) ListByProposalID(ctx context.Context, proposalID int64) ([]*entity.Consultation, error) {
	query := fmt.Sprintf("SELECT %s FROM consultations WHERE proposal_id = ? ORDER BY date ASC, id ASC", consultationColumns)

	rows, err := executorFrom(ctx, r.db).QueryContext(ctx, query, proposalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list consultations: %w", err)
	}
	defer rows.Close()

	var out []*entity.Consultation
	for rows.Next() {
		var c entity.Consultation
		if err := rows.Scan(
			&c.ID,
			&c.StudentID,
			&c.SupervisorID,
			&c.ProposalID,
			&c.Date,
			&c.Description,
			&c.Outcome,
			&c.Status,
			&c.Version,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan consultation: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}
