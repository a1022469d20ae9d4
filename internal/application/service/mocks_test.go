package service

import (
	"context"

	"github.com/siakad/thesis-workflow/internal/domain/entity"
)

// Mock repositories. Each method delegates to a function field when set,
// otherwise returns a benign default.

type mockProposalRepo struct {
	createFunc              func(ctx context.Context, p *entity.ThesisProposal) error
	getByIDFunc             func(ctx context.Context, id int64) (*entity.ThesisProposal, error)
	getByIdempotencyKeyFunc func(ctx context.Context, key string) (*entity.ThesisProposal, error)
	approveBySlotFunc       func(ctx context.Context, id int64, slot entity.ReviewerRole) (*entity.ThesisProposal, error)
	updateStatusFunc        func(ctx context.Context, id int64, status string, from ...string) (*entity.ThesisProposal, error)
	updateFunc              func(ctx context.Context, p *entity.ThesisProposal) error
}

func (m *mockProposalRepo) Create(ctx context.Context, p *entity.ThesisProposal) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, p)
	}
	p.ID = 1
	return nil
}

func (m *mockProposalRepo) GetByID(ctx context.Context, id int64) (*entity.ThesisProposal, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockProposalRepo) GetByIdempotencyKey(ctx context.Context, key string) (*entity.ThesisProposal, error) {
	if m.getByIdempotencyKeyFunc != nil {
		return m.getByIdempotencyKeyFunc(ctx, key)
	}
	return nil, nil
}

func (m *mockProposalRepo) ApproveBySlot(ctx context.Context, id int64, slot entity.ReviewerRole) (*entity.ThesisProposal, error) {
	if m.approveBySlotFunc != nil {
		return m.approveBySlotFunc(ctx, id, slot)
	}
	return &entity.ThesisProposal{ID: id, Status: entity.ProposalStatusSubmitted}, nil
}

func (m *mockProposalRepo) UpdateStatus(ctx context.Context, id int64, status string, from ...string) (*entity.ThesisProposal, error) {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, status, from...)
	}
	return &entity.ThesisProposal{ID: id, Status: status}, nil
}

func (m *mockProposalRepo) Update(ctx context.Context, p *entity.ThesisProposal) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, p)
	}
	return nil
}

type mockConsultationRepo struct {
	createFunc           func(ctx context.Context, c *entity.Consultation) error
	getByIDFunc          func(ctx context.Context, id int64) (*entity.Consultation, error)
	updateStatusFunc     func(ctx context.Context, id int64, status string, from ...string) (*entity.Consultation, error)
	updateFunc           func(ctx context.Context, c *entity.Consultation) error
	listByProposalIDFunc func(ctx context.Context, proposalID int64) ([]*entity.Consultation, error)
}

func (m *mockConsultationRepo) Create(ctx context.Context, c *entity.Consultation) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, c)
	}
	c.ID = 1
	return nil
}

func (m *mockConsultationRepo) GetByID(ctx context.Context, id int64) (*entity.Consultation, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockConsultationRepo) UpdateStatus(ctx context.Context, id int64, status string, from ...string) (*entity.Consultation, error) {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, status, from...)
	}
	return &entity.Consultation{ID: id, Status: status}, nil
}

func (m *mockConsultationRepo) Update(ctx context.Context, c *entity.Consultation) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, c)
	}
	return nil
}

func (m *mockConsultationRepo) ListByProposalID(ctx context.Context, proposalID int64) ([]*entity.Consultation, error) {
	if m.listByProposalIDFunc != nil {
		return m.listByProposalIDFunc(ctx, proposalID)
	}
	return []*entity.Consultation{}, nil
}

type mockSemproRepo struct {
	createFunc              func(ctx context.Context, s *entity.SemproRegistration) error
	getByIDFunc             func(ctx context.Context, id int64) (*entity.SemproRegistration, error)
	getByIdempotencyKeyFunc func(ctx context.Context, key string) (*entity.SemproRegistration, error)
	updateStatusFunc        func(ctx context.Context, id int64, status string, from ...string) (*entity.SemproRegistration, error)
	updateFunc              func(ctx context.Context, s *entity.SemproRegistration) error
	approveFinalBySlotFunc  func(ctx context.Context, id int64, slot entity.ReviewerRole) (*entity.SemproRegistration, error)
	addRevisionNoteFunc     func(ctx context.Context, note *entity.RevisionNote) error
	listRevisionNotesFunc   func(ctx context.Context, semproID int64) ([]*entity.RevisionNote, error)
}

func (m *mockSemproRepo) Create(ctx context.Context, s *entity.SemproRegistration) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, s)
	}
	s.ID = 1
	return nil
}

func (m *mockSemproRepo) GetByID(ctx context.Context, id int64) (*entity.SemproRegistration, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockSemproRepo) GetByIdempotencyKey(ctx context.Context, key string) (*entity.SemproRegistration, error) {
	if m.getByIdempotencyKeyFunc != nil {
		return m.getByIdempotencyKeyFunc(ctx, key)
	}
	return nil, nil
}

func (m *mockSemproRepo) UpdateStatus(ctx context.Context, id int64, status string, from ...string) (*entity.SemproRegistration, error) {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, status, from...)
	}
	return &entity.SemproRegistration{ID: id, Status: status}, nil
}

func (m *mockSemproRepo) Update(ctx context.Context, s *entity.SemproRegistration) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, s)
	}
	return nil
}

func (m *mockSemproRepo) ApproveFinalBySlot(ctx context.Context, id int64, slot entity.ReviewerRole) (*entity.SemproRegistration, error) {
	if m.approveFinalBySlotFunc != nil {
		return m.approveFinalBySlotFunc(ctx, id, slot)
	}
	return &entity.SemproRegistration{ID: id, Status: entity.SemproStatusCompleted}, nil
}

func (m *mockSemproRepo) AddRevisionNote(ctx context.Context, note *entity.RevisionNote) error {
	if m.addRevisionNoteFunc != nil {
		return m.addRevisionNoteFunc(ctx, note)
	}
	return nil
}

func (m *mockSemproRepo) ListRevisionNotes(ctx context.Context, semproID int64) ([]*entity.RevisionNote, error) {
	if m.listRevisionNotesFunc != nil {
		return m.listRevisionNotesFunc(ctx, semproID)
	}
	return []*entity.RevisionNote{}, nil
}

type mockScheduleRepo struct {
	createFunc        func(ctx context.Context, s *entity.Schedule) error
	upsertFunc        func(ctx context.Context, s *entity.Schedule) error
	getByIDFunc       func(ctx context.Context, id int64) (*entity.Schedule, error)
	getBySemproIDFunc func(ctx context.Context, semproID int64) (*entity.Schedule, error)
	setPublishedFunc  func(ctx context.Context, id int64, published bool) (*entity.Schedule, error)
}

func (m *mockScheduleRepo) Create(ctx context.Context, s *entity.Schedule) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, s)
	}
	s.ID = 1
	return nil
}

func (m *mockScheduleRepo) Upsert(ctx context.Context, s *entity.Schedule) error {
	if m.upsertFunc != nil {
		return m.upsertFunc(ctx, s)
	}
	s.ID = 1
	return nil
}

func (m *mockScheduleRepo) GetByID(ctx context.Context, id int64) (*entity.Schedule, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockScheduleRepo) GetBySemproID(ctx context.Context, semproID int64) (*entity.Schedule, error) {
	if m.getBySemproIDFunc != nil {
		return m.getBySemproIDFunc(ctx, semproID)
	}
	return nil, nil
}

func (m *mockScheduleRepo) SetPublished(ctx context.Context, id int64, published bool) (*entity.Schedule, error) {
	if m.setPublishedFunc != nil {
		return m.setPublishedFunc(ctx, id, published)
	}
	return &entity.Schedule{ID: id, Published: published}, nil
}

type mockEvaluationRepo struct {
	upsertFunc                  func(ctx context.Context, e *entity.Evaluation) error
	getBySemproAndEvaluatorFunc func(ctx context.Context, semproID int64, evaluatorID string) (*entity.Evaluation, error)
	listBySemproIDFunc          func(ctx context.Context, semproID int64) ([]*entity.Evaluation, error)
	countBySemproIDFunc         func(ctx context.Context, semproID int64) (int, error)
}

func (m *mockEvaluationRepo) Upsert(ctx context.Context, e *entity.Evaluation) error {
	if m.upsertFunc != nil {
		return m.upsertFunc(ctx, e)
	}
	e.ID = 1
	return nil
}

func (m *mockEvaluationRepo) GetBySemproAndEvaluator(ctx context.Context, semproID int64, evaluatorID string) (*entity.Evaluation, error) {
	if m.getBySemproAndEvaluatorFunc != nil {
		return m.getBySemproAndEvaluatorFunc(ctx, semproID, evaluatorID)
	}
	return nil, nil
}

func (m *mockEvaluationRepo) ListBySemproID(ctx context.Context, semproID int64) ([]*entity.Evaluation, error) {
	if m.listBySemproIDFunc != nil {
		return m.listBySemproIDFunc(ctx, semproID)
	}
	return []*entity.Evaluation{}, nil
}

func (m *mockEvaluationRepo) CountBySemproID(ctx context.Context, semproID int64) (int, error) {
	if m.countBySemproIDFunc != nil {
		return m.countBySemproIDFunc(ctx, semproID)
	}
	return 0, nil
}

type mockHistoryRepo struct {
	appendFunc        func(ctx context.Context, h *entity.HistoryEntry) error
	listBySubjectFunc func(ctx context.Context, subjectType string, subjectID int64) ([]*entity.HistoryEntry, error)
	appended          []*entity.HistoryEntry
}

func (m *mockHistoryRepo) Append(ctx context.Context, h *entity.HistoryEntry) error {
	if m.appendFunc != nil {
		return m.appendFunc(ctx, h)
	}
	m.appended = append(m.appended, h)
	return nil
}

func (m *mockHistoryRepo) ListBySubject(ctx context.Context, subjectType string, subjectID int64) ([]*entity.HistoryEntry, error) {
	if m.listBySubjectFunc != nil {
		return m.listBySubjectFunc(ctx, subjectType, subjectID)
	}
	return m.appended, nil
}

type mockNotificationRepo struct {
	createFunc  func(ctx context.Context, n *entity.Notification) error
	getByIDFunc func(ctx context.Context, id int64) (*entity.Notification, error)
	created     []*entity.Notification
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *entity.Notification) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, n)
	}
	n.ID = int64(len(m.created) + 1)
	m.created = append(m.created, n)
	return nil
}

func (m *mockNotificationRepo) GetByID(ctx context.Context, id int64) (*entity.Notification, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockNotificationRepo) ListPending(ctx context.Context, limit int) ([]*entity.Notification, error) {
	return []*entity.Notification{}, nil
}

func (m *mockNotificationRepo) MarkSent(ctx context.Context, id int64) error {
	return nil
}

func (m *mockNotificationRepo) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	return nil
}

type mockTxManager struct {
	withTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.withTransactionFunc != nil {
		return m.withTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

type mockNotifier struct {
	dispatched []int64
}

func (m *mockNotifier) Dispatch(ctx context.Context, ids ...int64) {
	m.dispatched = append(m.dispatched, ids...)
}
