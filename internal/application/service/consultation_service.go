package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/siakad/thesis-workflow/internal/application/port"
	"github.com/siakad/thesis-workflow/internal/domain/apperr"
	"github.com/siakad/thesis-workflow/internal/domain/entity"
	"github.com/siakad/thesis-workflow/internal/domain/workflow"
)

// LogConsultationInput carries a new consultation record
type LogConsultationInput struct {
	SupervisorID string    `json:"supervisor_id"`
	ProposalID   int64     `json:"proposal_id"`
	Date         time.Time `json:"date"`
	Description  string    `json:"description"`
	Outcome      string    `json:"outcome"`
}

// ConsultationService owns logged supervision sessions and their
// single-supervisor approval
type ConsultationService interface {
	Log(ctx context.Context, actor entity.Actor, in LogConsultationInput) (*entity.Consultation, error)
	Decide(ctx context.Context, actor entity.Actor, consultationID int64, approved bool) (*entity.Consultation, error)
	Edit(ctx context.Context, actor entity.Actor, consultationID int64, upd entity.ConsultationUpdate) (*entity.Consultation, error)
	Get(ctx context.Context, consultationID int64) (*entity.Consultation, error)
	ListByProposal(ctx context.Context, proposalID int64) ([]*entity.Consultation, error)
}

type consultationServiceImpl struct {
	consultationRepo port.ConsultationRepository
	proposalRepo     port.ProposalRepository
	historyRepo      port.HistoryRepository
	notificationRepo port.NotificationRepository
	txManager        port.TransactionManager
	notifier         Notifier
	logger           *zap.Logger
}

// NewConsultationService creates a new ConsultationService
func NewConsultationService(
	consultationRepo port.ConsultationRepository,
	proposalRepo port.ProposalRepository,
	historyRepo port.HistoryRepository,
	notificationRepo port.NotificationRepository,
	txManager port.TransactionManager,
	notifier Notifier,
	logger *zap.Logger,
) ConsultationService {
	return &consultationServiceImpl{
		consultationRepo: consultationRepo,
		proposalRepo:     proposalRepo,
		historyRepo:      historyRepo,
		notificationRepo: notificationRepo,
		txManager:        txManager,
		notifier:         notifier,
		logger:           logger,
	}
}

// Log records a supervision session against an approved proposal. The
// named supervisor must be one of the proposal's two supervisors.
func (s *consultationServiceImpl) Log(ctx context.Context, actor entity.Actor, in LogConsultationInput) (*entity.Consultation, error) {
	if !actor.HasRole(entity.RoleStudent) {
		return nil, apperr.Permission("only students can log a consultation")
	}
	if in.Description == "" {
		return nil, apperr.Validation("description is required")
	}
	if in.Date.IsZero() {
		return nil, apperr.Validation("date is required")
	}

	proposal, err := s.proposalRepo.GetByID(ctx, in.ProposalID)
	if err != nil {
		return nil, err
	}
	if proposal == nil {
		return nil, apperr.NotFound("proposal %d not found", in.ProposalID)
	}
	if proposal.StudentID != actor.UserID {
		return nil, apperr.Permission("proposal %d does not belong to user %s", in.ProposalID, actor.UserID)
	}
	if proposal.Status != entity.ProposalStatusApproved {
		return nil, apperr.Validation("consultations require an approved proposal, proposal %d is %s", in.ProposalID, proposal.Status)
	}
	if proposal.SupervisorSlot(in.SupervisorID) == "" {
		return nil, apperr.Validation("user %s is not a supervisor of proposal %d", in.SupervisorID, in.ProposalID)
	}

	consultation := &entity.Consultation{
		StudentID:    actor.UserID,
		SupervisorID: in.SupervisorID,
		ProposalID:   in.ProposalID,
		Date:         in.Date,
		Description:  in.Description,
		Outcome:      in.Outcome,
		Status:       entity.ConsultationStatusPending,
	}

	ob := newOutbox(s.notificationRepo)
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.consultationRepo.Create(txCtx, consultation); err != nil {
			return err
		}
		if err := s.historyRepo.Append(txCtx, &entity.HistoryEntry{
			SubjectType: entity.SubjectConsultation,
			SubjectID:   consultation.ID,
			ActorID:     actor.UserID,
			Status:      entity.ConsultationStatusPending,
			Note:        "consultation logged",
		}); err != nil {
			return err
		}
		return ob.add(txCtx, actor.UserID, in.SupervisorID,
			"Consultation awaiting approval",
			fmt.Sprintf("A consultation on %s awaits your approval.", in.Date.Format("2006-01-02")))
	})
	if err != nil {
		s.logger.Error("Failed to log consultation", zap.Error(err))
		return nil, err
	}

	s.notifier.Dispatch(ctx, ob.ids...)
	s.logger.Info("Consultation logged",
		zap.Int64("id", consultation.ID),
		zap.Int64("proposal_id", in.ProposalID))
	return consultation, nil
}

// Decide records the supervisor's approval or rejection of a pending
// consultation. Both outcomes are terminal.
func (s *consultationServiceImpl) Decide(ctx context.Context, actor entity.Actor, consultationID int64, approved bool) (*entity.Consultation, error) {
	consultation, err := s.consultationRepo.GetByID(ctx, consultationID)
	if err != nil {
		return nil, err
	}
	if consultation == nil {
		return nil, apperr.NotFound("consultation %d not found", consultationID)
	}
	if consultation.SupervisorID != actor.UserID || !actor.HasRole(entity.RoleSupervisor) {
		return nil, apperr.Permission("only the recorded supervisor can decide consultation %d", consultationID)
	}

	target := entity.ConsultationStatusApproved
	if !approved {
		target = entity.ConsultationStatusRejected
	}

	machine := workflow.NewConsultationMachine(consultation.Status)
	if !machine.CanFire(workflow.TriggerDecide) {
		return nil, apperr.InvalidState(consultation.Status, target, "consultation already decided")
	}

	var updated *entity.Consultation
	ob := newOutbox(s.notificationRepo)
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		updated, err = s.consultationRepo.UpdateStatus(txCtx, consultationID, target, entity.ConsultationStatusPending)
		if err != nil {
			return err
		}
		if err := s.historyRepo.Append(txCtx, &entity.HistoryEntry{
			SubjectType: entity.SubjectConsultation,
			SubjectID:   consultationID,
			ActorID:     actor.UserID,
			Status:      target,
			Note:        fmt.Sprintf("consultation %s by supervisor", target),
		}); err != nil {
			return err
		}
		return ob.add(txCtx, actor.UserID, updated.StudentID,
			"Consultation "+target,
			fmt.Sprintf("Your consultation on %s was %s.", updated.Date.Format("2006-01-02"), target))
	})
	if err != nil {
		s.logger.Error("Failed to decide consultation", zap.Int64("id", consultationID), zap.Error(err))
		return nil, err
	}

	s.notifier.Dispatch(ctx, ob.ids...)
	return updated, nil
}

// Edit lets the owning student amend a consultation while it is still
// pending. The record stays pending and the supervisor is notified again.
func (s *consultationServiceImpl) Edit(ctx context.Context, actor entity.Actor, consultationID int64, upd entity.ConsultationUpdate) (*entity.Consultation, error) {
	consultation, err := s.consultationRepo.GetByID(ctx, consultationID)
	if err != nil {
		return nil, err
	}
	if consultation == nil {
		return nil, apperr.NotFound("consultation %d not found", consultationID)
	}
	if consultation.StudentID != actor.UserID {
		return nil, apperr.Permission("only the owning student can edit consultation %d", consultationID)
	}

	machine := workflow.NewConsultationMachine(consultation.Status)
	if !machine.CanFire(workflow.TriggerEdit) {
		return nil, apperr.InvalidState(consultation.Status, entity.ConsultationStatusPending, "consultation is no longer editable")
	}

	if upd.Date != nil {
		if upd.Date.IsZero() {
			return nil, apperr.Validation("date cannot be empty")
		}
		consultation.Date = *upd.Date
	}
	if upd.Description != nil {
		if *upd.Description == "" {
			return nil, apperr.Validation("description cannot be empty")
		}
		consultation.Description = *upd.Description
	}
	if upd.Outcome != nil {
		consultation.Outcome = *upd.Outcome
	}
	consultation.Status = entity.ConsultationStatusPending

	ob := newOutbox(s.notificationRepo)
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.consultationRepo.Update(txCtx, consultation); err != nil {
			return err
		}
		if err := s.historyRepo.Append(txCtx, &entity.HistoryEntry{
			SubjectType: entity.SubjectConsultation,
			SubjectID:   consultationID,
			ActorID:     actor.UserID,
			Status:      entity.ConsultationStatusPending,
			Note:        "consultation edited by student",
		}); err != nil {
			return err
		}
		return ob.add(txCtx, actor.UserID, consultation.SupervisorID,
			"Consultation updated",
			fmt.Sprintf("The consultation on %s was edited and awaits your approval again.", consultation.Date.Format("2006-01-02")))
	})
	if err != nil {
		s.logger.Error("Failed to edit consultation", zap.Int64("id", consultationID), zap.Error(err))
		return nil, err
	}

	s.notifier.Dispatch(ctx, ob.ids...)
	return consultation, nil
}

// Get retrieves a consultation by ID
func (s *consultationServiceImpl) Get(ctx context.Context, consultationID int64) (*entity.Consultation, error) {
	consultation, err := s.consultationRepo.GetByID(ctx, consultationID)
	if err != nil {
		return nil, err
	}
	if consultation == nil {
		return nil, apperr.NotFound("consultation %d not found", consultationID)
	}
	return consultation, nil
}

// ListByProposal returns all consultations logged against a proposal
func (s *consultationServiceImpl) ListByProposal(ctx context.Context, proposalID int64) ([]*entity.Consultation, error) {
	return s.consultationRepo.ListByProposalID(ctx, proposalID)
}
