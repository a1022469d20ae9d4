package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/siakad/thesis-workflow/internal/domain/apperr"
	"github.com/siakad/thesis-workflow/internal/domain/entity"
)

// SemproRepository handles sempro registration database operations,
// including the append-only revision notes
type SemproRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSemproRepository creates a new sempro repository
func NewSemproRepository(db *sql.DB, logger *zap.Logger) *SemproRepository {
	return &SemproRepository{
		db:     db,
		logger: logger,
	}
}

const semproColumns = `id, proposal_id, student_id, status, form_doc, plagiarism_doc, draft_doc,
	revision_slots, approve_supervisor1, approve_supervisor2, idempotency_key, version,
	created_at, updated_at`

func marshalDoc(d entity.Document) (string, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("failed to marshal document: %w", err)
	}
	return string(b), nil
}

func (r *SemproRepository) scanSempro(row *sql.Row) (*entity.SemproRegistration, error) {
	var s entity.SemproRegistration
	var formDoc, plagiarismDoc, draftDoc, revisionSlots string
	var idemKey sql.NullString

	err := row.Scan(
		&s.ID,
		&s.ProposalID,
		&s.StudentID,
		&s.Status,
		&formDoc,
		&plagiarismDoc,
		&draftDoc,
		&revisionSlots,
		&s.ApproveSupervisor1,
		&s.ApproveSupervisor2,
		&idemKey,
		&s.Version,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan sempro registration: %w", err)
	}

	// Rows written by older deployments used "evaluated" for "verified".
	if s.Status == entity.SemproStatusEvaluated {
		s.Status = entity.SemproStatusVerified
	}

	if err := json.Unmarshal([]byte(formDoc), &s.FormDoc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal form document: %w", err)
	}
	if err := json.Unmarshal([]byte(plagiarismDoc), &s.PlagiarismDoc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plagiarism document: %w", err)
	}
	if err := json.Unmarshal([]byte(draftDoc), &s.DraftDoc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft document: %w", err)
	}
	if err := json.Unmarshal([]byte(revisionSlots), &s.RevisionSlots); err != nil {
		return nil, fmt.Errorf("failed to unmarshal revision slots: %w", err)
	}

	s.IdempotencyKey = idemKey.String
	return &s, nil
}

// Create inserts a new sempro registration
func (r *SemproRepository) Create(ctx context.Context, s *entity.SemproRegistration) error {
	formDoc, err := marshalDoc(s.FormDoc)
	if err != nil {
		return err
	}
	plagiarismDoc, err := marshalDoc(s.PlagiarismDoc)
	if err != nil {
		return err
	}
	draftDoc, err := marshalDoc(s.DraftDoc)
	if err != nil {
		return err
	}
	slots, err := json.Marshal(s.RevisionSlots)
	if err != nil {
		return fmt.Errorf("failed to marshal revision slots: %w", err)
	}

	var idemKey interface{}
	if s.IdempotencyKey != "" {
		idemKey = s.IdempotencyKey
	}

	query := `
		INSERT INTO sempro_registrations (
			proposal_id, student_id, status, form_doc, plagiarism_doc, draft_doc,
			revision_slots, approve_supervisor1, approve_supervisor2, idempotency_key
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := executorFrom(ctx, r.db).ExecContext(ctx, query,
		s.ProposalID,
		s.StudentID,
		s.Status,
		formDoc,
		plagiarismDoc,
		draftDoc,
		string(slots),
		s.ApproveSupervisor1,
		s.ApproveSupervisor2,
		idemKey,
	)
	if err != nil {
		r.logger.Error("Failed to create sempro registration", zap.Error(err))
		return fmt.Errorf("failed to create sempro registration: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	s.ID = id
	s.Version = 1
	return nil
}

// GetByID retrieves a registration by ID; (nil, nil) when absent
func (r *SemproRepository) GetByID(ctx context.Context, id int64) (*entity.SemproRegistration, error) {
	query := fmt.Sprintf("SELECT %s FROM sempro_registrations WHERE id = ?", semproColumns)
	return r.scanSempro(executorFrom(ctx, r.db).QueryRowContext(ctx, query, id))
}

// GetByIdempotencyKey retrieves a registration by its client-supplied
// idempotency key; (nil, nil) when absent
func (r *SemproRepository) GetByIdempotencyKey(ctx context.Context, key string) (*entity.SemproRegistration, error) {
	query := fmt.Sprintf("SELECT %s FROM sempro_registrations WHERE idempotency_key = ?", semproColumns)
	return r.scanSempro(executorFrom(ctx, r.db).QueryRowContext(ctx, query, key))
}

// UpdateStatus moves the registration to status, guarded by the statuses
// the transition is legal from. The deprecated "evaluated" alias joins the
// guard whenever "verified" does.
func (r *SemproRepository) UpdateStatus(ctx context.Context, id int64, status string, from ...string) (*entity.SemproRegistration, error) {
	guard := make([]string, 0, len(from)+1)
	for _, f := range from {
		guard = append(guard, f)
		if f == entity.SemproStatusVerified {
			guard = append(guard, entity.SemproStatusEvaluated)
		}
	}

	placeholders := strings.Repeat("?,", len(guard))
	placeholders = placeholders[:len(placeholders)-1]
	query := fmt.Sprintf(`
		UPDATE sempro_registrations
		SET status = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status IN (%s)
	`, placeholders)

	args := make([]interface{}, 0, len(guard)+2)
	args = append(args, status, id)
	for _, g := range guard {
		args = append(args, g)
	}

	result, err := executorFrom(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to update sempro status", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to update sempro status: %w", err)
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
			return nil, apperr.NotFound("sempro registration %d not found", id)
		}
		return nil, apperr.InvalidState(current.Status, status, "sempro status transition not permitted")
	}

	return r.GetByID(ctx, id)
}

// Update rewrites documents, revision slots and approval flags using
// compare-and-swap on the version column
func (r *SemproRepository) Update(ctx context.Context, s *entity.SemproRegistration) error {
	formDoc, err := marshalDoc(s.FormDoc)
	if err != nil {
		return err
	}
	plagiarismDoc, err := marshalDoc(s.PlagiarismDoc)
	if err != nil {
		return err
	}
	draftDoc, err := marshalDoc(s.DraftDoc)
	if err != nil {
		return err
	}
	slots, err := json.Marshal(s.RevisionSlots)
	if err != nil {
		return fmt.Errorf("failed to marshal revision slots: %w", err)
	}

	query := `
		UPDATE sempro_registrations
		SET status = ?, form_doc = ?, plagiarism_doc = ?, draft_doc = ?, revision_slots = ?,
		    approve_supervisor1 = ?, approve_supervisor2 = ?,
		    version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?
	`

	result, err := executorFrom(ctx, r.db).ExecContext(ctx, query,
		s.Status,
		formDoc,
		plagiarismDoc,
		draftDoc,
		string(slots),
		s.ApproveSupervisor1,
		s.ApproveSupervisor2,
		s.ID,
		s.Version,
	)
	if err != nil {
		r.logger.Error("Failed to update sempro registration", zap.Int64("id", s.ID), zap.Error(err))
		return fmt.Errorf("failed to update sempro registration: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		current, err := r.GetByID(ctx, s.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return apperr.NotFound("sempro registration %d not found", s.ID)
		}
		return apperr.Conflict("sempro registration %d was modified concurrently", s.ID)
	}

	s.Version++
	return nil
}

// ApproveFinalBySlot sets one supervisor's final approval flag and
// recomputes the status server-side in a single UPDATE, the same atomic
// discipline as ProposalRepository.ApproveBySlot. Only legal while the
// registration is completed (or already approved, which keeps retries
// idempotent).
func (r *SemproRepository) ApproveFinalBySlot(ctx context.Context, id int64, slot entity.ReviewerRole) (*entity.SemproRegistration, error) {
	query := `
		UPDATE sempro_registrations
		SET approve_supervisor1 = CASE WHEN ? = 'supervisor1' THEN 1 ELSE approve_supervisor1 END,
		    approve_supervisor2 = CASE WHEN ? = 'supervisor2' THEN 1 ELSE approve_supervisor2 END,
		    status = CASE
		        WHEN (? = 'supervisor1' OR approve_supervisor1 = 1)
		         AND (? = 'supervisor2' OR approve_supervisor2 = 1)
		        THEN 'approved'
		        ELSE status
		    END,
		    version = version + 1,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status IN ('completed', 'approved')
	`

	s := slot.String()
	result, err := executorFrom(ctx, r.db).ExecContext(ctx, query, s, s, s, s, id)
	if err != nil {
		r.logger.Error("Failed to record final approval", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to record final approval: %w", err)
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
			return nil, apperr.NotFound("sempro registration %d not found", id)
		}
		return nil, apperr.InvalidState(current.Status, entity.SemproStatusApproved, "final approval requires a completed seminar")
	}

	return r.GetByID(ctx, id)
}

// AddRevisionNote appends one revision note
func (r *SemproRepository) AddRevisionNote(ctx context.Context, note *entity.RevisionNote) error {
	query := `
		INSERT INTO revision_notes (sempro_id, reviewer_role, note, major)
		VALUES (?, ?, ?, ?)
	`

	result, err := executorFrom(ctx, r.db).ExecContext(ctx, query,
		note.SemproID,
		note.ReviewerRole.String(),
		note.Note,
		note.Major,
	)
	if err != nil {
		r.logger.Error("Failed to add revision note", zap.Int64("sempro_id", note.SemproID), zap.Error(err))
		return fmt.Errorf("failed to add revision note: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	note.ID = id
	return nil
}

// ListRevisionNotes returns all revision notes for a registration, oldest
// first. The "latest note per role" view of the registration is derived
// from this list.
func (r *SemproRepository) ListRevisionNotes(ctx context.Context, semproID int64) ([]*entity.RevisionNote, error) {
	query := `
		SELECT id, sempro_id, reviewer_role, note, major, created_at
		FROM revision_notes
		WHERE sempro_id = ?
		ORDER BY id ASC
	`

	rows, err := executorFrom(ctx, r.db).QueryContext(ctx, query, semproID)
	if err != nil {
		return nil, fmt.Errorf("failed to list revision notes: %w", err)
	}
	defer rows.Close()

	var out []*entity.RevisionNote
	for rows.Next() {
		var n entity.RevisionNote
		var role string
		if err := rows.Scan(&n.ID, &n.SemproID, &role, &n.Note, &n.Major, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan revision note: %w", err)
		}
		n.ReviewerRole = entity.ReviewerRole(role)
		out = append(out, &n)
	}
	return out, rows.Err()
}
