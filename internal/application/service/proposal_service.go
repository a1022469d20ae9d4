package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/siakad/thesis-workflow/internal/application/port"
	"github.com/siakad/thesis-workflow/internal/domain/apperr"
	"github.com/siakad/thesis-workflow/internal/domain/entity"
	"github.com/siakad/thesis-workflow/internal/domain/workflow"
)

// SubmitProposalInput carries a new proposal submission
type SubmitProposalInput struct {
	Title          string `json:"title"`
	ResearchField  string `json:"research_field"`
	Supervisor1ID  string `json:"supervisor1_id"`
	Supervisor2ID  string `json:"supervisor2_id"`
	IdempotencyKey string `json:"idempotency_key"`
}

// ProposalService owns the thesis proposal lifecycle and its
// dual-supervisor approval
type ProposalService interface {
	Submit(ctx context.Context, actor entity.Actor, in SubmitProposalInput) (*entity.ThesisProposal, error)
	Approve(ctx context.Context, actor entity.Actor, proposalID int64) (*entity.ThesisProposal, error)
	Reject(ctx context.Context, actor entity.Actor, proposalID int64, reason string) (*entity.ThesisProposal, error)
	RequestRevision(ctx context.Context, actor entity.Actor, proposalID int64, notes string) (*entity.ThesisProposal, error)
	Update(ctx context.Context, actor entity.Actor, proposalID int64, upd entity.ProposalUpdate) (*entity.ThesisProposal, error)
	Get(ctx context.Context, proposalID int64) (*entity.ThesisProposal, error)
}

type proposalServiceImpl struct {
	proposalRepo     port.ProposalRepository
	historyRepo      port.HistoryRepository
	notificationRepo port.NotificationRepository
	txManager        port.TransactionManager
	notifier         Notifier
	logger           *zap.Logger
}

// NewProposalService creates a new ProposalService
func NewProposalService(
	proposalRepo port.ProposalRepository,
	historyRepo port.HistoryRepository,
	notificationRepo port.NotificationRepository,
	txManager port.TransactionManager,
	notifier Notifier,
	logger *zap.Logger,
) ProposalService {
	return &proposalServiceImpl{
		proposalRepo:     proposalRepo,
		historyRepo:      historyRepo,
		notificationRepo: notificationRepo,
		txManager:        txManager,
		notifier:         notifier,
		logger:           logger,
	}
}

// Submit creates a new proposal in status submitted and notifies both
// supervisors. Retries with the same idempotency key return the original
// proposal instead of creating a duplicate.
func (s *proposalServiceImpl) Submit(ctx context.Context, actor entity.Actor, in SubmitProposalInput) (*entity.ThesisProposal, error) {
	if !actor.HasRole(entity.RoleStudent) {
		return nil, apperr.Permission("only students can submit a proposal")
	}
	if in.Title == "" {
		return nil, apperr.Validation("title is required")
	}
	if in.ResearchField == "" {
		return nil, apperr.Validation("research field is required")
	}
	if in.Supervisor1ID == "" || in.Supervisor2ID == "" {
		return nil, apperr.Validation("both supervisors are required")
	}
	if in.Supervisor1ID == in.Supervisor2ID {
		return nil, apperr.Validation("supervisor1 and supervisor2 must be different")
	}

	if in.IdempotencyKey != "" {
		existing, err := s.proposalRepo.GetByIdempotencyKey(ctx, in.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			s.logger.Info("Proposal submission replayed via idempotency key",
				zap.Int64("id", existing.ID),
				zap.String("key", in.IdempotencyKey))
			return existing, nil
		}
	}

	proposal := &entity.ThesisProposal{
		Title:          in.Title,
		ResearchField:  in.ResearchField,
		StudentID:      actor.UserID,
		Supervisor1ID:  in.Supervisor1ID,
		Supervisor2ID:  in.Supervisor2ID,
		Status:         entity.ProposalStatusSubmitted,
		IdempotencyKey: in.IdempotencyKey,
	}

	ob := newOutbox(s.notificationRepo)
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.proposalRepo.Create(txCtx, proposal); err != nil {
			return err
		}
		if err := s.historyRepo.Append(txCtx, &entity.HistoryEntry{
			SubjectType: entity.SubjectProposal,
			SubjectID:   proposal.ID,
			ActorID:     actor.UserID,
			Status:      entity.ProposalStatusSubmitted,
			Note:        "proposal submitted",
		}); err != nil {
			return err
		}
		body := fmt.Sprintf("A thesis proposal %q awaits your approval.", proposal.Title)
		if err := ob.add(txCtx, actor.UserID, proposal.Supervisor1ID, "New thesis proposal", body); err != nil {
			return err
		}
		return ob.add(txCtx, actor.UserID, proposal.Supervisor2ID, "New thesis proposal", body)
	})
	if err != nil {
		s.logger.Error("Failed to submit proposal", zap.Error(err))
		return nil, err
	}

	s.notifier.Dispatch(ctx, ob.ids...)
	s.logger.Info("Proposal submitted",
		zap.Int64("id", proposal.ID),
		zap.String("student_id", actor.UserID))
	return proposal, nil
}

// Approve records one supervisor's approval. The flag set and the
// both-flags status recompute happen in a single atomic update inside the
// repository; two supervisors racing cannot lose the transition to
// approved. Re-approving by the same supervisor is a no-op.
func (s *proposalServiceImpl) Approve(ctx context.Context, actor entity.Actor, proposalID int64) (*entity.ThesisProposal, error) {
	proposal, err := s.proposalRepo.GetByID(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if proposal == nil {
		return nil, apperr.NotFound("proposal %d not found", proposalID)
	}

	slot := proposal.SupervisorSlot(actor.UserID)
	if slot == "" || !actor.HasRole(entity.RoleSupervisor) {
		return nil, apperr.Permission("user %s is not a supervisor of proposal %d", actor.UserID, proposalID)
	}

	if proposal.ApprovedBy(slot) {
		// Idempotent no-op: the record is untouched, but the action still
		// lands in the audit trail.
		if err := s.historyRepo.Append(ctx, &entity.HistoryEntry{
			SubjectType: entity.SubjectProposal,
			SubjectID:   proposalID,
			ActorID:     actor.UserID,
			Status:      proposal.Status,
			Note:        fmt.Sprintf("approval by %s already recorded", slot),
		}); err != nil {
			s.logger.Error("Failed to record idempotent approval", zap.Int64("id", proposalID), zap.Error(err))
		}
		return proposal, nil
	}

	machine := workflow.NewProposalMachine(proposal.Status)
	if !machine.CanFire(workflow.TriggerApprove) {
		return nil, apperr.InvalidState(proposal.Status, entity.ProposalStatusApproved, "proposal cannot be approved")
	}

	var updated *entity.ThesisProposal
	ob := newOutbox(s.notificationRepo)
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		updated, err = s.proposalRepo.ApproveBySlot(txCtx, proposalID, slot)
		if err != nil {
			return err
		}
		if err := s.historyRepo.Append(txCtx, &entity.HistoryEntry{
			SubjectType: entity.SubjectProposal,
			SubjectID:   proposalID,
			ActorID:     actor.UserID,
			Status:      updated.Status,
			Note:        fmt.Sprintf("approved by %s", slot),
		}); err != nil {
			return err
		}
		if updated.Status == entity.ProposalStatusApproved {
			return ob.add(txCtx, actor.UserID, updated.StudentID,
				"Thesis proposal approved",
				fmt.Sprintf("Both supervisors approved your proposal %q.", updated.Title))
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to approve proposal", zap.Int64("id", proposalID), zap.Error(err))
		return nil, err
	}

	s.notifier.Dispatch(ctx, ob.ids...)
	s.logger.Info("Proposal approval recorded",
		zap.Int64("id", proposalID),
		zap.String("slot", slot.String()),
		zap.String("status", updated.Status))
	return updated, nil
}

// Reject moves the proposal to rejected, a terminal state, regardless of
// recorded approvals. Requires a non-empty reason.
func (s *proposalServiceImpl) Reject(ctx context.Context, actor entity.Actor, proposalID int64, reason string) (*entity.ThesisProposal, error) {
	if reason == "" {
		return nil, apperr.Validation("rejection reason is required")
	}
	return s.supervisorTransition(ctx, actor, proposalID, workflow.TriggerReject,
		fmt.Sprintf("rejected: %s", reason),
		"Thesis proposal rejected",
		fmt.Sprintf("Your proposal was rejected: %s", reason))
}

// RequestRevision moves the proposal to revision so the student can amend
// and resubmit it.
func (s *proposalServiceImpl) RequestRevision(ctx context.Context, actor entity.Actor, proposalID int64, notes string) (*entity.ThesisProposal, error) {
	return s.supervisorTransition(ctx, actor, proposalID, workflow.TriggerRequestRevision,
		fmt.Sprintf("revision requested: %s", notes),
		"Thesis proposal needs revision",
		fmt.Sprintf("A supervisor requested revisions to your proposal: %s", notes))
}

func (s *proposalServiceImpl) supervisorTransition(
	ctx context.Context,
	actor entity.Actor,
	proposalID int64,
	trigger workflow.Trigger,
	historyNote, notifTitle, notifBody string,
) (*entity.ThesisProposal, error) {
	proposal, err := s.proposalRepo.GetByID(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if proposal == nil {
		return nil, apperr.NotFound("proposal %d not found", proposalID)
	}

	if proposal.SupervisorSlot(actor.UserID) == "" || !actor.HasRole(entity.RoleSupervisor) {
		return nil, apperr.Permission("user %s is not a supervisor of proposal %d", actor.UserID, proposalID)
	}

	machine := workflow.NewProposalMachine(proposal.Status)
	target, err := machine.Peek(trigger)
	if err != nil {
		return nil, apperr.InvalidState(proposal.Status, string(trigger), err.Error())
	}

	var updated *entity.ThesisProposal
	ob := newOutbox(s.notificationRepo)
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		updated, err = s.proposalRepo.UpdateStatus(txCtx, proposalID, string(target), proposal.Status)
		if err != nil {
			return err
		}
		if err := s.historyRepo.Append(txCtx, &entity.HistoryEntry{
			SubjectType: entity.SubjectProposal,
			SubjectID:   proposalID,
			ActorID:     actor.UserID,
			Status:      updated.Status,
			Note:        historyNote,
		}); err != nil {
			return err
		}
		return ob.add(txCtx, actor.UserID, updated.StudentID, notifTitle, notifBody)
	})
	if err != nil {
		s.logger.Error("Failed proposal transition",
			zap.Int64("id", proposalID),
			zap.String("trigger", trigger.String()),
			zap.Error(err))
		return nil, err
	}

	s.notifier.Dispatch(ctx, ob.ids...)
	return updated, nil
}

// Update lets the owning student edit the proposal. Changing a supervisor
// resets that supervisor's approval flag and, when the proposal was
// approved, reverts it to submitted; newly assigned supervisors are
// notified. Editing the text of an already approved proposal is refused.
func (s *proposalServiceImpl) Update(ctx context.Context, actor entity.Actor, proposalID int64, upd entity.ProposalUpdate) (*entity.ThesisProposal, error) {
	proposal, err := s.proposalRepo.GetByID(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if proposal == nil {
		return nil, apperr.NotFound("proposal %d not found", proposalID)
	}
	if proposal.StudentID != actor.UserID {
		return nil, apperr.Permission("only the owning student can update proposal %d", proposalID)
	}

	machine := workflow.NewProposalMachine(proposal.Status)
	target, err := machine.Peek(workflow.TriggerUpdate)
	if err != nil {
		return nil, apperr.InvalidState(proposal.Status, entity.ProposalStatusSubmitted, "proposal cannot be updated")
	}

	supervisor1Changed := upd.Supervisor1ID != nil && *upd.Supervisor1ID != proposal.Supervisor1ID
	supervisor2Changed := upd.Supervisor2ID != nil && *upd.Supervisor2ID != proposal.Supervisor2ID

	if proposal.Status == entity.ProposalStatusApproved && !supervisor1Changed && !supervisor2Changed {
		return nil, apperr.Conflict("proposal %d is approved; only a supervisor change can reopen it", proposalID)
	}

	if upd.Title != nil {
		if *upd.Title == "" {
			return nil, apperr.Validation("title cannot be empty")
		}
		proposal.Title = *upd.Title
	}
	if upd.ResearchField != nil {
		if *upd.ResearchField == "" {
			return nil, apperr.Validation("research field cannot be empty")
		}
		proposal.ResearchField = *upd.ResearchField
	}
	if supervisor1Changed {
		proposal.Supervisor1ID = *upd.Supervisor1ID
		proposal.ApproveSupervisor1 = false
	}
	if supervisor2Changed {
		proposal.Supervisor2ID = *upd.Supervisor2ID
		proposal.ApproveSupervisor2 = false
	}
	if proposal.Supervisor1ID == proposal.Supervisor2ID {
		return nil, apperr.Validation("supervisor1 and supervisor2 must be different")
	}

	proposal.Status = string(target)

	ob := newOutbox(s.notificationRepo)
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.proposalRepo.Update(txCtx, proposal); err != nil {
			return err
		}
		if err := s.historyRepo.Append(txCtx, &entity.HistoryEntry{
			SubjectType: entity.SubjectProposal,
			SubjectID:   proposalID,
			ActorID:     actor.UserID,
			Status:      proposal.Status,
			Note:        "proposal updated by student",
		}); err != nil {
			return err
		}
		body := fmt.Sprintf("You were assigned as supervisor of the thesis proposal %q.", proposal.Title)
		if supervisor1Changed {
			if err := ob.add(txCtx, actor.UserID, proposal.Supervisor1ID, "Assigned as supervisor", body); err != nil {
				return err
			}
		}
		if supervisor2Changed {
			if err := ob.add(txCtx, actor.UserID, proposal.Supervisor2ID, "Assigned as supervisor", body); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to update proposal", zap.Int64("id", proposalID), zap.Error(err))
		return nil, err
	}

	s.notifier.Dispatch(ctx, ob.ids...)
	return proposal, nil
}

// Get retrieves a proposal by ID
func (s *proposalServiceImpl) Get(ctx context.Context, proposalID int64) (*entity.ThesisProposal, error) {
	proposal, err := s.proposalRepo.GetByID(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if proposal == nil {
		return nil, apperr.NotFound("proposal %d not found", proposalID)
	}
	return proposal, nil
}
