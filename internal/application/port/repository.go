package port

import (
	"context"

	"github.com/siakad/thesis-workflow/internal/domain/entity"
)

// Repositories return (nil, nil) when the requested row does not exist;
// the service layer maps that to a NotFound error. Mutating methods that
// carry a status or version guard return a Conflict/InvalidState error
// from the repository when the guard rejects the write.

// ProposalRepository defines persistence operations for ThesisProposal
type ProposalRepository interface {
	Create(ctx context.Context, p *entity.ThesisProposal) error
	GetByID(ctx context.Context, id int64) (*entity.ThesisProposal, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*entity.ThesisProposal, error)

	// ApproveBySlot sets one supervisor approval flag and recomputes the
	// status from the post-update flags in a single atomic statement.
	// Returns the updated row.
	ApproveBySlot(ctx context.Context, id int64, slot entity.ReviewerRole) (*entity.ThesisProposal, error)

	// UpdateStatus moves the proposal to status, guarded by the set of
	// statuses the transition is legal from.
	UpdateStatus(ctx context.Context, id int64, status string, from ...string) (*entity.ThesisProposal, error)

	// Update rewrites the editable fields using compare-and-swap on the
	// version column.
	Update(ctx context.Context, p *entity.ThesisProposal) error
}

// ConsultationRepository defines persistence operations for Consultation
type ConsultationRepository interface {
	Create(ctx context.Context, c *entity.Consultation) error
	GetByID(ctx context.Context, id int64) (*entity.Consultation, error)
	UpdateStatus(ctx context.Context, id int64, status string, from ...string) (*entity.Consultation, error)
	Update(ctx context.Context, c *entity.Consultation) error
	ListByProposalID(ctx context.Context, proposalID int64) ([]*entity.Consultation, error)
}

// SemproRepository defines persistence operations for SemproRegistration
// and its revision notes
type SemproRepository interface {
	Create(ctx context.Context, s *entity.SemproRegistration) error
	GetByID(ctx context.Context, id int64) (*entity.SemproRegistration, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*entity.SemproRegistration, error)
	UpdateStatus(ctx context.Context, id int64, status string, from ...string) (*entity.SemproRegistration, error)
	Update(ctx context.Context, s *entity.SemproRegistration) error

	// ApproveFinalBySlot mirrors ProposalRepository.ApproveBySlot for the
	// final supervisor approval, only legal while status is completed.
	ApproveFinalBySlot(ctx context.Context, id int64, slot entity.ReviewerRole) (*entity.SemproRegistration, error)

	AddRevisionNote(ctx context.Context, note *entity.RevisionNote) error
	ListRevisionNotes(ctx context.Context, semproID int64) ([]*entity.RevisionNote, error)
}

// ScheduleRepository defines persistence operations for Schedule
type ScheduleRepository interface {
	Create(ctx context.Context, s *entity.Schedule) error

	// Upsert inserts the schedule or replaces the existing one for the
	// same registration.
	Upsert(ctx context.Context, s *entity.Schedule) error

	GetByID(ctx context.Context, id int64) (*entity.Schedule, error)
	GetBySemproID(ctx context.Context, semproID int64) (*entity.Schedule, error)
	SetPublished(ctx context.Context, id int64, published bool) (*entity.Schedule, error)
}

// EvaluationRepository defines persistence operations for Evaluation
type EvaluationRepository interface {
	// Upsert inserts the evaluation or overwrites the existing one for the
	// same (sempro, evaluator) pair.
	Upsert(ctx context.Context, e *entity.Evaluation) error
	GetBySemproAndEvaluator(ctx context.Context, semproID int64, evaluatorID string) (*entity.Evaluation, error)
	ListBySemproID(ctx context.Context, semproID int64) ([]*entity.Evaluation, error)
	CountBySemproID(ctx context.Context, semproID int64) (int, error)
}

// HistoryRepository defines persistence operations for HistoryEntry.
// Entries are append-only; there is no update or delete.
type HistoryRepository interface {
	Append(ctx context.Context, h *entity.HistoryEntry) error
	ListBySubject(ctx context.Context, subjectType string, subjectID int64) ([]*entity.HistoryEntry, error)
}

// NotificationRepository defines persistence operations for the
// notification outbox
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	GetByID(ctx context.Context, id int64) (*entity.Notification, error)
	ListPending(ctx context.Context, limit int) ([]*entity.Notification, error)
	MarkSent(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, errMsg string) error
}

// TransactionManager runs fn inside a database transaction. The
// transaction travels in the context; repository methods called with that
// context join it.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
