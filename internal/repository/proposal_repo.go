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

// ProposalRepository handles thesis proposal database operations
type ProposalRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProposalRepository creates a new proposal repository
func NewProposalRepository(db *sql.DB, logger *zap.Logger) *ProposalRepository {
	return &ProposalRepository{
		db:     db,
		logger: logger,
	}
}

const proposalColumns = `id, title, research_field, student_id, supervisor1_id, supervisor2_id,
	status, approve_supervisor1, approve_supervisor2, idempotency_key, version,
	approved_at, created_at, updated_at`

func scanProposal(row *sql.Row) (*entity.ThesisProposal, error) {
	var p entity.ThesisProposal
	var idemKey sql.NullString
	var approvedAt sql.NullTime

	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.ResearchField,
		&p.StudentID,
		&p.Supervisor1ID,
		&p.Supervisor2ID,
		&p.Status,
		&p.ApproveSupervisor1,
		&p.ApproveSupervisor2,
		&idemKey,
		&p.Version,
		&approvedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan proposal: %w", err)
	}

	p.IdempotencyKey = idemKey.String
	if approvedAt.Valid {
		p.ApprovedAt = &approvedAt.Time
	}
	return &p, nil
}

// Create inserts a new proposal
func (r *ProposalRepository) Create(ctx context.Context, p *entity.ThesisProposal) error {
	query := `
		INSERT INTO thesis_proposals (
			title, research_field, student_id, supervisor1_id, supervisor2_id,
			status, approve_supervisor1, approve_supervisor2, idempotency_key
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var idemKey interface{}
	if p.IdempotencyKey != "" {
		idemKey = p.IdempotencyKey
	}

	result, err := executorFrom(ctx, r.db).ExecContext(ctx, query,
		p.Title,
		p.ResearchField,
		p.StudentID,
		p.Supervisor1ID,
		p.Supervisor2ID,
		p.Status,
		p.ApproveSupervisor1,
		p.ApproveSupervisor2,
		idemKey,
	)
	if err != nil {
		r.logger.Error("Failed to create proposal", zap.Error(err))
		return fmt.Errorf("failed to create proposal: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	p.ID = id
	p.Version = 1
	return nil
}

// GetByID retrieves a proposal by ID; (nil, nil) when absent
func (r *ProposalRepository) GetByID(ctx context.Context, id int64) (*entity.ThesisProposal, error) {
	query := fmt.Sprintf("SELECT %s FROM thesis_proposals WHERE id = ?", proposalColumns)
	return scanProposal(executorFrom(ctx, r.db).QueryRowContext(ctx, query, id))
}

// GetByIdempotencyKey retrieves a proposal by its client-supplied
// idempotency key; (nil, nil) when absent
func (r *ProposalRepository) GetByIdempotencyKey(ctx context.Context, key string) (*entity.ThesisProposal, error) {
	query := fmt.Sprintf("SELECT %s FROM thesis_proposals WHERE idempotency_key = ?", proposalColumns)
	return scanProposal(executorFrom(ctx, r.db).QueryRowContext(ctx, query, key))
}

// ApproveBySlot sets the approval flag for one supervisor slot and
// recomputes the status from the post-update flags, all in a single UPDATE.
// Both supervisors racing through here cannot lose the transition to
// approved: the second writer sees the first writer's committed flag
// because the recompute happens server-side against the stored row, never
// against a value read earlier by the client.
func (r *ProposalRepository) ApproveBySlot(ctx context.Context, id int64, slot entity.ReviewerRole) (*entity.ThesisProposal, error) {
	query := `
		UPDATE thesis_proposals
		SET approve_supervisor1 = CASE WHEN ? = 'supervisor1' THEN 1 ELSE approve_supervisor1 END,
		    approve_supervisor2 = CASE WHEN ? = 'supervisor2' THEN 1 ELSE approve_supervisor2 END,
		    status = CASE
		        WHEN (? = 'supervisor1' OR approve_supervisor1 = 1)
		         AND (? = 'supervisor2' OR approve_supervisor2 = 1)
		        THEN 'approved'
		        ELSE status
		    END,
		    approved_at = CASE
		        WHEN (? = 'supervisor1' OR approve_supervisor1 = 1)
		         AND (? = 'supervisor2' OR approve_supervisor2 = 1)
		         AND approved_at IS NULL
		        THEN CURRENT_TIMESTAMP
		        ELSE approved_at
		    END,
		    version = version + 1,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status IN ('submitted', 'approved')
	`

	s := slot.String()
	result, err := executorFrom(ctx, r.db).ExecContext(ctx, query, s, s, s, s, s, s, id)
	if err != nil {
		r.logger.Error("Failed to approve proposal", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to approve proposal: %w", err)
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
			return nil, apperr.NotFound("proposal %d not found", id)
		}
		return nil, apperr.InvalidState(current.Status, entity.ProposalStatusApproved, "proposal cannot be approved")
	}

	return r.GetByID(ctx, id)
}

// UpdateStatus moves the proposal to status, guarded by the statuses the
// transition is legal from
func (r *ProposalRepository) UpdateStatus(ctx context.Context, id int64, status string, from ...string) (*entity.ThesisProposal, error) {
	placeholders := strings.Repeat("?,", len(from))
	placeholders = placeholders[:len(placeholders)-1]
	query := fmt.Sprintf(`
		UPDATE thesis_proposals
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
		r.logger.Error("Failed to update proposal status", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to update proposal status: %w", err)
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
			return nil, apperr.NotFound("proposal %d not found", id)
		}
		return nil, apperr.InvalidState(current.Status, status, "proposal status transition not permitted")
	}

	return r.GetByID(ctx, id)
}

// Update rewrites the editable fields and approval flags using
// compare-and-swap on the version column
func (r *ProposalRepository) Update(ctx context.Context, p *entity.ThesisProposal) error {
	query := `
		UPDATE thesis_proposals
		SET title = ?, research_field = ?, supervisor1_id = ?, supervisor2_id = ?,
		    approve_supervisor1 = ?, approve_supervisor2 = ?, status = ?,
		    version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?
	`

	result, err := executorFrom(ctx, r.db).ExecContext(ctx, query,
		p.Title,
		p.ResearchField,
		p.Supervisor1ID,
		p.Supervisor2ID,
		p.ApproveSupervisor1,
		p.ApproveSupervisor2,
		p.Status,
		p.ID,
		p.Version,
	)
	if err != nil {
		r.logger.Error("Failed to update proposal", zap.Int64("id", p.ID), zap.Error(err))
		return fmt.Errorf("failed to update proposal: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		current, err := r.GetByID(ctx, p.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return apperr.NotFound("proposal %d not found", p.ID)
		}
		return apperr.Conflict("proposal %d was modified concurrently", p.ID)
	}

	p.Version++
	return nil
}
