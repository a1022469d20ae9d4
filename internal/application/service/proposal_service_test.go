package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/siakad/thesis-workflow/internal/domain/apperr"
	"github.com/siakad/thesis-workflow/internal/domain/entity"
)

func newProposalService(repo *mockProposalRepo, history *mockHistoryRepo, notifs *mockNotificationRepo, notifier *mockNotifier) ProposalService {
	return NewProposalService(repo, history, notifs, &mockTxManager{}, notifier, zap.NewNop())
}

func submittedProposal() *entity.ThesisProposal {
	return &entity.ThesisProposal{
		ID:            1,
		Title:         "Anomaly Detection in Campus Networks",
		ResearchField: "Network Security",
		StudentID:     "student-1",
		Supervisor1ID: "sup-1",
		Supervisor2ID: "sup-2",
		Status:        entity.ProposalStatusSubmitted,
	}
}

func supervisorActor(id string) entity.Actor {
	return entity.Actor{UserID: id, Roles: []entity.Role{entity.RoleSupervisor}}
}

func studentActor(id string) entity.Actor {
	return entity.Actor{UserID: id, Roles: []entity.Role{entity.RoleStudent}}
}

func TestProposalService_Submit(t *testing.T) {
	tests := []struct {
		name     string
		actor    entity.Actor
		in       SubmitProposalInput
		wantKind apperr.Kind
	}{
		{
			name:  "valid submission",
			actor: studentActor("student-1"),
			in: SubmitProposalInput{
				Title:         "A Title",
				ResearchField: "A Field",
				Supervisor1ID: "sup-1",
				Supervisor2ID: "sup-2",
			},
		},
		{
			name:  "non-student actor",
			actor: supervisorActor("sup-1"),
			in: SubmitProposalInput{
				Title:         "A Title",
				ResearchField: "A Field",
				Supervisor1ID: "sup-1",
				Supervisor2ID: "sup-2",
			},
			wantKind: apperr.KindPermission,
		},
		{
			name:  "missing title",
			actor: studentActor("student-1"),
			in: SubmitProposalInput{
				ResearchField: "A Field",
				Supervisor1ID: "sup-1",
				Supervisor2ID: "sup-2",
			},
			wantKind: apperr.KindValidation,
		},
		{
			name:  "identical supervisors",
			actor: studentActor("student-1"),
			in: SubmitProposalInput{
				Title:         "A Title",
				ResearchField: "A Field",
				Supervisor1ID: "sup-1",
				Supervisor2ID: "sup-1",
			},
			wantKind: apperr.KindValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifs := &mockNotificationRepo{}
			notifier := &mockNotifier{}
			svc := newProposalService(&mockProposalRepo{}, &mockHistoryRepo{}, notifs, notifier)

			proposal, err := svc.Submit(context.Background(), tt.actor, tt.in)
			if tt.wantKind != "" {
				if !apperr.Is(err, tt.wantKind) {
					t.Fatalf("Submit() error = %v, want kind %s", err, tt.wantKind)
				}
				return
			}
			if err != nil {
				t.Fatalf("Submit() unexpected error: %v", err)
			}
			if proposal.Status != entity.ProposalStatusSubmitted {
				t.Errorf("Submit() status = %s, want submitted", proposal.Status)
			}
			if len(notifs.created) != 2 {
				t.Errorf("Submit() queued %d notifications, want 2 (one per supervisor)", len(notifs.created))
			}
			if len(notifier.dispatched) != 2 {
				t.Errorf("Submit() dispatched %d notifications, want 2", len(notifier.dispatched))
			}
		})
	}
}

func TestProposalService_Submit_IdempotencyReplay(t *testing.T) {
	existing := submittedProposal()
	existing.IdempotencyKey = "key-1"

	created := 0
	repo := &mockProposalRepo{
		getByIdempotencyKeyFunc: func(ctx context.Context, key string) (*entity.ThesisProposal, error) {
			if key == "key-1" {
				return existing, nil
			}
			return nil, nil
		},
		createFunc: func(ctx context.Context, p *entity.ThesisProposal) error {
			created++
			p.ID = 99
			return nil
		},
	}
	svc := newProposalService(repo, &mockHistoryRepo{}, &mockNotificationRepo{}, &mockNotifier{})

	proposal, err := svc.Submit(context.Background(), studentActor("student-1"), SubmitProposalInput{
		Title:          "A Title",
		ResearchField:  "A Field",
		Supervisor1ID:  "sup-1",
		Supervisor2ID:  "sup-2",
		IdempotencyKey: "key-1",
	})
	if err != nil {
		t.Fatalf("Submit() unexpected error: %v", err)
	}
	if proposal.ID != existing.ID {
		t.Errorf("Submit() returned proposal %d, want replayed %d", proposal.ID, existing.ID)
	}
	if created != 0 {
		t.Errorf("Submit() created %d proposals on replay, want 0", created)
	}
}

func TestProposalService_Approve(t *testing.T) {
	tests := []struct {
		name       string
		actor      entity.Actor
		proposal   *entity.ThesisProposal
		afterSlot  func(p *entity.ThesisProposal, slot entity.ReviewerRole) *entity.ThesisProposal
		wantKind   apperr.Kind
		wantStatus string
	}{
		{
			name:     "first approval keeps submitted",
			actor:    supervisorActor("sup-1"),
			proposal: submittedProposal(),
			afterSlot: func(p *entity.ThesisProposal, slot entity.ReviewerRole) *entity.ThesisProposal {
				out := *p
				out.ApproveSupervisor1 = true
				return &out
			},
			wantStatus: entity.ProposalStatusSubmitted,
		},
		{
			name:  "second approval reaches approved",
			actor: supervisorActor("sup-2"),
			proposal: func() *entity.ThesisProposal {
				p := submittedProposal()
				p.ApproveSupervisor1 = true
				return p
			}(),
			afterSlot: func(p *entity.ThesisProposal, slot entity.ReviewerRole) *entity.ThesisProposal {
				out := *p
				out.ApproveSupervisor2 = true
				out.Status = entity.ProposalStatusApproved
				return &out
			},
			wantStatus: entity.ProposalStatusApproved,
		},
		{
			name:     "non-supervisor actor",
			actor:    supervisorActor("stranger"),
			proposal: submittedProposal(),
			wantKind: apperr.KindPermission,
		},
		{
			name:  "approve from rejected",
			actor: supervisorActor("sup-1"),
			proposal: func() *entity.ThesisProposal {
				p := submittedProposal()
				p.Status = entity.ProposalStatusRejected
				return p
			}(),
			wantKind: apperr.KindInvalidState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockProposalRepo{
				getByIDFunc: func(ctx context.Context, id int64) (*entity.ThesisProposal, error) {
					return tt.proposal, nil
				},
			}
			if tt.afterSlot != nil {
				repo.approveBySlotFunc = func(ctx context.Context, id int64, slot entity.ReviewerRole) (*entity.ThesisProposal, error) {
					return tt.afterSlot(tt.proposal, slot), nil
				}
			}
			history := &mockHistoryRepo{}
			svc := newProposalService(repo, history, &mockNotificationRepo{}, &mockNotifier{})

			updated, err := svc.Approve(context.Background(), tt.actor, 1)
			if tt.wantKind != "" {
				if !apperr.Is(err, tt.wantKind) {
					t.Fatalf("Approve() error = %v, want kind %s", err, tt.wantKind)
				}
				return
			}
			if err != nil {
				t.Fatalf("Approve() unexpected error: %v", err)
			}
			if updated.Status != tt.wantStatus {
				t.Errorf("Approve() status = %s, want %s", updated.Status, tt.wantStatus)
			}
			if len(history.appended) != 1 {
				t.Errorf("Approve() appended %d history entries, want 1", len(history.appended))
			}
		})
	}
}

func TestProposalService_Approve_Idempotent(t *testing.T) {
	proposal := submittedProposal()
	proposal.ApproveSupervisor1 = true

	approveCalls := 0
	repo := &mockProposalRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.ThesisProposal, error) {
			return proposal, nil
		},
		approveBySlotFunc: func(ctx context.Context, id int64, slot entity.ReviewerRole) (*entity.ThesisProposal, error) {
			approveCalls++
			return proposal, nil
		},
	}
	history := &mockHistoryRepo{}
	svc := newProposalService(repo, history, &mockNotificationRepo{}, &mockNotifier{})

	got, err := svc.Approve(context.Background(), supervisorActor("sup-1"), 1)
	if err != nil {
		t.Fatalf("Approve() unexpected error: %v", err)
	}
	if approveCalls != 0 {
		t.Errorf("Approve() wrote %d times on an already approved slot, want 0", approveCalls)
	}
	if got.Status != entity.ProposalStatusSubmitted {
		t.Errorf("Approve() status = %s, want unchanged submitted", got.Status)
	}
	// The no-op still lands in the audit trail.
	if len(history.appended) != 1 {
		t.Errorf("Approve() appended %d history entries, want 1", len(history.appended))
	}
}

func TestProposalService_Reject(t *testing.T) {
	proposal := submittedProposal()
	repo := &mockProposalRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.ThesisProposal, error) {
			return proposal, nil
		},
	}
	notifs := &mockNotificationRepo{}
	svc := newProposalService(repo, &mockHistoryRepo{}, notifs, &mockNotifier{})

	if _, err := svc.Reject(context.Background(), supervisorActor("sup-1"), 1, ""); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("Reject() with empty reason error = %v, want VALIDATION", err)
	}

	updated, err := svc.Reject(context.Background(), supervisorActor("sup-1"), 1, "out of scope")
	if err != nil {
		t.Fatalf("Reject() unexpected error: %v", err)
	}
	if updated.Status != entity.ProposalStatusRejected {
		t.Errorf("Reject() status = %s, want rejected", updated.Status)
	}
	if len(notifs.created) != 1 {
		t.Errorf("Reject() queued %d notifications, want 1 to the student", len(notifs.created))
	}
}

func TestProposalService_RequestRevision(t *testing.T) {
	proposal := submittedProposal()
	repo := &mockProposalRepo{
		getByIDFunc: func(ctx context.Context, id int64) (*entity.ThesisProposal, error) {
			return proposal, nil
		},
	}
	svc := newProposalService(repo, &mockHistoryRepo{}, &mockNotificationRepo{}, &mockNotifier{})

	updated, err := svc.RequestRevision(context.Background(), supervisorActor("sup-2"), 1, "narrow the scope")
	if err != nil {
		t.Fatalf("RequestRevision() unexpected error: %v", err)
	}
	if updated.Status != entity.ProposalStatusRevision {
		t.Errorf("RequestRevision() status = %s, want revision", updated.Status)
	}
}

func TestProposalService_Update(t *testing.T) {
	newSup := "sup-3"
	newTitle := "Refined Title"

	tests := []struct {
		name       string
		proposal   *entity.ThesisProposal
		actor      entity.Actor
		upd        entity.ProposalUpdate
		wantKind   apperr.Kind
		wantStatus string
		check      func(t *testing.T, p *entity.ThesisProposal)
	}{
		{
			name:       "edit title while submitted",
			proposal:   submittedProposal(),
			actor:      studentActor("student-1"),
			upd:        entity.ProposalUpdate{Title: &newTitle},
			wantStatus: entity.ProposalStatusSubmitted,
		},
		{
			name: "resubmit from revision",
			proposal: func() *entity.ThesisProposal {
				p := submittedProposal()
				p.Status = entity.ProposalStatusRevision
				return p
			}(),
			actor:      studentActor("student-1"),
			upd:        entity.ProposalUpdate{Title: &newTitle},
			wantStatus: entity.ProposalStatusSubmitted,
		},
		{
			name: "supervisor change reopens approved proposal",
			proposal: func() *entity.ThesisProposal {
				p := submittedProposal()
				p.Status = entity.ProposalStatusApproved
				p.ApproveSupervisor1 = true
				p.ApproveSupervisor2 = true
				return p
			}(),
			actor:      studentActor("student-1"),
			upd:        entity.ProposalUpdate{Supervisor1ID: &newSup},
			wantStatus: entity.ProposalStatusSubmitted,
			check: func(t *testing.T, p *entity.ThesisProposal) {
				if p.ApproveSupervisor1 {
					t.Error("Update() kept supervisor1 approval after reassignment")
				}
				if !p.ApproveSupervisor2 {
					t.Error("Update() cleared supervisor2 approval, should be kept")
				}
				if p.Supervisor1ID != newSup {
					t.Errorf("Update() supervisor1 = %s, want %s", p.Supervisor1ID, newSup)
				}
			},
		},
		{
			name: "text edit on approved proposal refused",
			proposal: func() *entity.ThesisProposal {
				p := submittedProposal()
				p.Status = entity.ProposalStatusApproved
				return p
			}(),
			actor:    studentActor("student-1"),
			upd:      entity.ProposalUpdate{Title: &newTitle},
			wantKind: apperr.KindConflict,
		},
		{
			name:     "non-owner refused",
			proposal: submittedProposal(),
			actor:    studentActor("student-2"),
			upd:      entity.ProposalUpdate{Title: &newTitle},
			wantKind: apperr.KindPermission,
		},
		{
			name: "update on rejected proposal refused",
			proposal: func() *entity.ThesisProposal {
				p := submittedProposal()
				p.Status = entity.ProposalStatusRejected
				return p
			}(),
			actor:    studentActor("student-1"),
			upd:      entity.ProposalUpdate{Title: &newTitle},
			wantKind: apperr.KindInvalidState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockProposalRepo{
				getByIDFunc: func(ctx context.Context, id int64) (*entity.ThesisProposal, error) {
					return tt.proposal, nil
				},
			}
			svc := newProposalService(repo, &mockHistoryRepo{}, &mockNotificationRepo{}, &mockNotifier{})

			updated, err := svc.Update(context.Background(), tt.actor, 1, tt.upd)
			if tt.wantKind != "" {
				if !apperr.Is(err, tt.wantKind) {
					t.Fatalf("Update() error = %v, want kind %s", err, tt.wantKind)
				}
				return
			}
			if err != nil {
				t.Fatalf("Update() unexpected error: %v", err)
			}
			if updated.Status != tt.wantStatus {
				t.Errorf("Update() status = %s, want %s", updated.Status, tt.wantStatus)
			}
			if tt.check != nil {
				tt.check(t, updated)
			}
		})
	}
}
