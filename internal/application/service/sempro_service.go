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

// RegisterSemproInput carries a new seminar registration
type RegisterSemproInput struct {
	ProposalID     int64           `json:"proposal_id"`
	FormDoc        entity.Document `json:"form_doc"`
	PlagiarismDoc  entity.Document `json:"plagiarism_doc"`
	DraftDoc       entity.Document `json:"draft_doc"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
}

// ScheduleSemproInput carries the defense slot assignment
type ScheduleSemproInput struct {
	Examiner1ID string    `json:"examiner1_id"`
	Examiner2ID string    `json:"examiner2_id"`
	Date        time.Time `json:"date"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	Room        string    `json:"room"`
}

// PostEvalRevisionInput carries a reviewer's revision request after the
// defense. DocSlots names the document slots that must be replaced; it is
// only honored when Major is set.
type PostEvalRevisionInput struct {
	Note     string   `json:"note"`
	Major    bool     `json:"major"`
	DocSlots []string `json:"doc_slots,omitempty"`
}

// ResubmitDocumentsInput carries replacement documents for the slots
// flagged by the latest major revision. Unset slots keep their documents.
type ResubmitDocumentsInput struct {
	Documents map[string]entity.Document `json:"documents"`
	Note      string                     `json:"note"`
}

// SemproService owns the seminar registration pipeline: registration,
// verification, scheduling, evaluation, revision cycles and the final
// dual-supervisor approval.
type SemproService interface {
	Register(ctx context.Context, actor entity.Actor, in RegisterSemproInput) (*entity.SemproRegistration, error)
	Verify(ctx context.Context, actor entity.Actor, semproID int64, note string) (*entity.SemproRegistration, error)
	Reject(ctx context.Context, actor entity.Actor, semproID int64, reason string) (*entity.SemproRegistration, error)
	RequestDocRevision(ctx context.Context, actor entity.Actor, semproID int64, note string) (*entity.SemproRegistration, error)
	Schedule(ctx context.Context, actor entity.Actor, semproID int64, in ScheduleSemproInput) (*entity.Schedule, error)
	PublishSchedule(ctx context.Context, actor entity.Actor, scheduleID int64, published bool) (*entity.Schedule, error)
	SubmitEvaluation(ctx context.Context, actor entity.Actor, semproID int64, scores [entity.EvaluationScoreCount]float64, notes string) (*entity.Evaluation, error)
	RequestPostEvalRevision(ctx context.Context, actor entity.Actor, semproID int64, in PostEvalRevisionInput) (*entity.SemproRegistration, error)
	ApproveFinal(ctx context.Context, actor entity.Actor, semproID int64) (*entity.SemproRegistration, error)
	ResubmitDocuments(ctx context.Context, actor entity.Actor, semproID int64, in ResubmitDocumentsInput) (*entity.SemproRegistration, error)
	Get(ctx context.Context, semproID int64) (*entity.SemproRegistration, error)
	GetSchedule(ctx context.Context, semproID int64) (*entity.Schedule, error)
	ListEvaluations(ctx context.Context, semproID int64) ([]*entity.Evaluation, error)
}

type semproServiceImpl struct {
	semproRepo       port.SemproRepository
	proposalRepo     port.ProposalRepository
	scheduleRepo     port.ScheduleRepository
	evaluationRepo   port.EvaluationRepository
	historyRepo      port.HistoryRepository
	notificationRepo port.NotificationRepository
	txManager        port.TransactionManager
	notifier         Notifier
	logger           *zap.Logger
}

// NewSemproService creates a new SemproService
func NewSemproService(
	semproRepo port.SemproRepository,
	proposalRepo port.ProposalRepository,
	scheduleRepo port.ScheduleRepository,
	evaluationRepo port.EvaluationRepository,
	historyRepo port.HistoryRepository,
	notificationRepo port.NotificationRepository,
	txManager port.TransactionManager,
	notifier Notifier,
	logger *zap.Logger,
) SemproService {
	return &semproServiceImpl{
		semproRepo:       semproRepo,
		proposalRepo:     proposalRepo,
		scheduleRepo:     scheduleRepo,
		evaluationRepo:   evaluationRepo,
		historyRepo:      historyRepo,
		notificationRepo: notificationRepo,
		txManager:        txManager,
		notifier:         notifier,
		logger:           logger,
	}
}

// Register creates a seminar registration for an approved proposal. All
// three document slots must be filled.
func (s *semproServiceImpl) Register(ctx context.Context, actor entity.Actor, in RegisterSemproInput) (*entity.SemproRegistration, error) {
	if !actor.HasRole(entity.RoleStudent) {
		return nil, apperr.Permission("only students can register for a seminar")
	}
	if in.FormDoc.IsZero() || in.PlagiarismDoc.IsZero() || in.DraftDoc.IsZero() {
		return nil, apperr.Validation("all three documents are required: form, plagiarism check and draft")
	}

	if in.IdempotencyKey != "" {
		existing, err := s.semproRepo.GetByIdempotencyKey(ctx, in.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
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
		return nil, apperr.Precondition("seminar registration requires an approved proposal, proposal %d is %s", in.ProposalID, proposal.Status)
	}

	sempro := &entity.SemproRegistration{
		ProposalID:     in.ProposalID,
		StudentID:      actor.UserID,
		Status:         entity.SemproStatusRegistered,
		FormDoc:        in.FormDoc,
		PlagiarismDoc:  in.PlagiarismDoc,
		DraftDoc:       in.DraftDoc,
		IdempotencyKey: in.IdempotencyKey,
	}

	ob := newOutbox(s.notificationRepo)
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.semproRepo.Create(txCtx, sempro); err != nil {
			return err
		}
		return s.historyRepo.Append(txCtx, &entity.HistoryEntry{
			SubjectType: entity.SubjectSempro,
			SubjectID:   sempro.ID,
			ActorID:     actor.UserID,
			Status:      entity.SemproStatusRegistered,
			Note:        "seminar registration submitted",
		})
	})
	if err != nil {
		s.logger.Error("Failed to register sempro", zap.Error(err))
		return nil, err
	}

	s.notifier.Dispatch(ctx, ob.ids...)
	s.logger.Info("Sempro registered",
		zap.Int64("id", sempro.ID),
		zap.Int64("proposal_id", in.ProposalID))
	return sempro, nil
}

// Verify marks a registration's documents as checked by an admin
func (s *semproServiceImpl) Verify(ctx context.Context, actor entity.Actor, semproID int64, note string) (*entity.SemproRegistration, error) {
	return s.adminTransition(ctx, actor, semproID, workflow.TriggerVerify, entity.SemproStatusVerified, note, "documents verified")
}

// Reject terminates a registration before its defense
func (s *semproServiceImpl) Reject(ctx context.Context, actor entity.Actor, semproID int64, reason string) (*entity.SemproRegistration, error) {
	if reason == "" {
		return nil, apperr.Validation("rejection reason is required")
	}
	return s.adminTransition(ctx, actor, semproID, workflow.TriggerReject, entity.SemproStatusRejected, reason, "registration rejected")
}

// RequestDocRevision sends a registration back for document fixes before
// scheduling. The note is optional, admin-level and not tied to a reviewer
// slot; when present it lands in the history ledger only.
func (s *semproServiceImpl) RequestDocRevision(ctx context.Context, actor entity.Actor, semproID int64, note string) (*entity.SemproRegistration, error) {
	return s.adminTransition(ctx, actor, semproID, workflow.TriggerRequestRevision, entity.SemproStatusRevisionRequired, note, "document revision requested")
}

// adminTransition applies one admin-driven status move with its history
// entry and a notice to the student.
func (s *semproServiceImpl) adminTransition(ctx context.Context, actor entity.Actor, semproID int64, trigger workflow.Trigger, attempted, note, summary string) (*entity.SemproRegistration, error) {
	if !actor.HasRole(entity.RoleAdmin) {
		return nil, apperr.Permission("only admins can perform this operation")
	}

	sempro, err := s.semproRepo.GetByID(ctx, semproID)
	if err != nil {
		return nil, err
	}
	if sempro == nil {
		return nil, apperr.NotFound("sempro %d not found", semproID)
	}

	machine := workflow.NewSemproMachine(sempro.Status)
	target, err := machine.Peek(trigger)
	if err != nil {
		return nil, apperr.InvalidState(sempro.Status, attempted, "operation not allowed from current status")
	}

	var updated *entity.SemproRegistration
	ob := newOutbox(s.notificationRepo)
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		updated, err = s.semproRepo.UpdateStatus(txCtx, semproID, string(target), sempro.Status)
		if err != nil {
			return err
		}
		historyNote := summary
		if note != "" {
			historyNote = fmt.Sprintf("%s: %s", summary, note)
		}
		if err := s.historyRepo.Append(txCtx, &entity.HistoryEntry{
			SubjectType: entity.SubjectSempro,
			SubjectID:   semproID,
			ActorID:     actor.UserID,
			Status:      string(target),
			Note:        historyNote,
		}); err != nil {
			return err
		}
		return ob.add(txCtx, actor.UserID, updated.StudentID,
			"Seminar registration "+string(target),
			fmt.Sprintf("Your seminar registration is now %s. %s", target, note))
	})
	if err != nil {
		s.logger.Error("Failed sempro transition",
			zap.Int64("id", semproID),
			zap.String("trigger", string(trigger)),
			zap.Error(err))
		return nil, err
	}

	s.notifier.Dispatch(ctx, ob.ids...)
	return updated, nil
}

// Schedule assigns a verified registration to a defense slot with two
// examiners and moves it to scheduled. Examiners must be distinct and
// disjoint from the proposal's supervisors. A registration that went
// through a revision cycle gets its prior schedule replaced, with the
// published flag reset.
func (s *semproServiceImpl) Schedule(ctx context.Context, actor entity.Actor, semproID int64, in ScheduleSemproInput) (*entity.Schedule, error) {
	if !actor.HasRole(entity.RoleAdmin) {
		return nil, apperr.Permission("only admins can schedule a defense")
	}
	if in.Examiner1ID == "" || in.Examiner2ID == "" {
		return nil, apperr.Validation("both examiners are required")
	}
	if in.Examiner1ID == in.Examiner2ID {
		return nil, apperr.Validation("examiners must be two distinct users")
	}
	if in.Date.IsZero() {
		return nil, apperr.Validation("defense date is required")
	}

	sempro, err := s.semproRepo.GetByID(ctx, semproID)
	if err != nil {
		return nil, err
	}
	if sempro == nil {
		return nil, apperr.NotFound("sempro %d not found", semproID)
	}

	machine := workflow.NewSemproMachine(sempro.Status)
	if !machine.CanFire(workflow.TriggerSchedule) {
		return nil, apperr.InvalidState(sempro.Status, entity.SemproStatusScheduled, "only verified registrations can be scheduled")
	}

	proposal, err := s.proposalRepo.GetByID(ctx, sempro.ProposalID)
	if err != nil {
		return nil, err
	}
	if proposal == nil {
		return nil, apperr.NotFound("proposal %d not found", sempro.ProposalID)
	}
	if proposal.SupervisorSlot(in.Examiner1ID) != "" || proposal.SupervisorSlot(in.Examiner2ID) != "" {
		return nil, apperr.Validation("an examiner cannot also be a supervisor of the proposal")
	}

	schedule := &entity.Schedule{
		SemproID:    semproID,
		Examiner1ID: in.Examiner1ID,
		Examiner2ID: in.Examiner2ID,
		Date:        in.Date,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		Room:        in.Room,
		Published:   false,
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.scheduleRepo.Upsert(txCtx, schedule); err != nil {
			return err
		}
		if _, err := s.semproRepo.UpdateStatus(txCtx, semproID, entity.SemproStatusScheduled,
			entity.SemproStatusVerified, entity.SemproStatusEvaluated); err != nil {
			return err
		}
		return s.historyRepo.Append(txCtx, &entity.HistoryEntry{
			SubjectType: entity.SubjectSempro,
			SubjectID:   semproID,
			ActorID:     actor.UserID,
			Status:      entity.SemproStatusScheduled,
			Note:        fmt.Sprintf("defense scheduled for %s in %s", in.Date.Format("2006-01-02"), in.Room),
		})
	})
	if err != nil {
		s.logger.Error("Failed to schedule sempro", zap.Int64("id", semproID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Sempro scheduled",
		zap.Int64("sempro_id", semproID),
		zap.Int64("schedule_id", schedule.ID))
	return schedule, nil
}

// PublishSchedule toggles the schedule's published flag. Turning it on
// notifies the student and both examiners.
func (s *semproServiceImpl) PublishSchedule(ctx context.Context, actor entity.Actor, scheduleID int64, published bool) (*entity.Schedule, error) {
	if !actor.HasRole(entity.RoleAdmin) {
		return nil, apperr.Permission("only admins can publish a schedule")
	}

	schedule, err := s.scheduleRepo.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if schedule == nil {
		return nil, apperr.NotFound("schedule %d not found", scheduleID)
	}

	sempro, err := s.semproRepo.GetByID(ctx, schedule.SemproID)
	if err != nil {
		return nil, err
	}
	if sempro == nil {
		return nil, apperr.NotFound("sempro %d not found", schedule.SemproID)
	}

	var updated *entity.Schedule
	ob := newOutbox(s.notificationRepo)
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		updated, err = s.scheduleRepo.SetPublished(txCtx, scheduleID, published)
		if err != nil {
			return err
		}
		if !published || schedule.Published {
			return nil
		}
		body := fmt.Sprintf("Seminar defense on %s, %s-%s, room %s.",
			schedule.Date.Format("2006-01-02"), schedule.StartTime, schedule.EndTime, schedule.Room)
		for _, to := range []string{sempro.StudentID, schedule.Examiner1ID, schedule.Examiner2ID} {
			if err := ob.add(txCtx, actor.UserID, to, "Defense schedule published", body); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to publish schedule", zap.Int64("id", scheduleID), zap.Error(err))
		return nil, err
	}

	s.notifier.Dispatch(ctx, ob.ids...)
	return updated, nil
}

// expectedEvaluators is the number of reviewers whose evaluations complete
// a defense: two supervisors and two examiners.
const expectedEvaluators = 4

// reviewerSlot resolves which of the four reviewer slots the user occupies
// for this registration, consulting the proposal's supervisors and the
// schedule's examiners. Returns "" when the user holds no slot.
func (s *semproServiceImpl) reviewerSlot(ctx context.Context, sempro *entity.SemproRegistration, schedule *entity.Schedule, userID string) (entity.ReviewerRole, error) {
	proposal, err := s.proposalRepo.GetByID(ctx, sempro.ProposalID)
	if err != nil {
		return "", err
	}
	if proposal == nil {
		return "", apperr.NotFound("proposal %d not found", sempro.ProposalID)
	}
	if slot := proposal.SupervisorSlot(userID); slot != "" {
		return slot, nil
	}
	if schedule != nil {
		if slot := schedule.ExaminerSlot(userID); slot != "" {
			return slot, nil
		}
	}
	return "", nil
}

// SubmitEvaluation records one reviewer's scores for a scheduled defense.
// A second submission by the same reviewer overwrites the first. When all
// four expected evaluations exist, the registration auto-completes.
func (s *semproServiceImpl) SubmitEvaluation(ctx context.Context, actor entity.Actor, semproID int64, scores [entity.EvaluationScoreCount]float64, notes string) (*entity.Evaluation, error) {
	if err := entity.ValidateScores(scores); err != nil {
		return nil, apperr.Validation("%v", err)
	}

	sempro, err := s.semproRepo.GetByID(ctx, semproID)
	if err != nil {
		return nil, err
	}
	if sempro == nil {
		return nil, apperr.NotFound("sempro %d not found", semproID)
	}

	schedule, err := s.scheduleRepo.GetBySemproID(ctx, semproID)
	if err != nil {
		return nil, err
	}
	if schedule == nil {
		return nil, apperr.Precondition("sempro %d has no defense schedule yet", semproID)
	}

	slot, err := s.reviewerSlot(ctx, sempro, schedule, actor.UserID)
	if err != nil {
		return nil, err
	}
	if slot == "" {
		return nil, apperr.Permission("user %s is not a reviewer of sempro %d", actor.UserID, semproID)
	}

	evaluation := &entity.Evaluation{
		SemproID:    semproID,
		EvaluatorID: actor.UserID,
		Scores:      scores,
		Notes:       notes,
	}

	ob := newOutbox(s.notificationRepo)
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.evaluationRepo.Upsert(txCtx, evaluation); err != nil {
			return err
		}
		if err := s.historyRepo.Append(txCtx, &entity.HistoryEntry{
			SubjectType: entity.SubjectSempro,
			SubjectID:   semproID,
			ActorID:     actor.UserID,
			Status:      sempro.Status,
			Note:        fmt.Sprintf("evaluation submitted by %s", slot),
		}); err != nil {
			return err
		}

		count, err := s.evaluationRepo.CountBySemproID(txCtx, semproID)
		if err != nil {
			return err
		}
		if count < expectedEvaluators || sempro.Status != entity.SemproStatusScheduled {
			return nil
		}

		if _, err := s.semproRepo.UpdateStatus(txCtx, semproID, entity.SemproStatusCompleted,
			entity.SemproStatusScheduled); err != nil {
			return err
		}
		if err := s.historyRepo.Append(txCtx, &entity.HistoryEntry{
			SubjectType: entity.SubjectSempro,
			SubjectID:   semproID,
			ActorID:     actor.UserID,
			Status:      entity.SemproStatusCompleted,
			Note:        "all evaluations received, defense completed",
		}); err != nil {
			return err
		}
		return ob.add(txCtx, actor.UserID, sempro.StudentID,
			"Seminar defense completed",
			"All evaluations for your seminar defense have been received.")
	})
	if err != nil {
		s.logger.Error("Failed to submit evaluation",
			zap.Int64("sempro_id", semproID),
			zap.String("evaluator", actor.UserID),
			zap.Error(err))
		return nil, err
	}

	s.notifier.Dispatch(ctx, ob.ids...)
	return evaluation, nil
}

// RequestPostEvalRevision records a reviewer's revision request after the
// defense. The reviewer must have submitted an evaluation first. A major
// revision moves the registration to revision_required and flags the
// document slots that must be replaced; a minor one leaves the status
// untouched.
func (s *semproServiceImpl) RequestPostEvalRevision(ctx context.Context, actor entity.Actor, semproID int64, in PostEvalRevisionInput) (*entity.SemproRegistration, error) {
	if in.Note == "" {
		return nil, apperr.Validation("revision note is required")
	}
	for _, slot := range in.DocSlots {
		if slot != entity.DocSlotForm && slot != entity.DocSlotPlagiarism && slot != entity.DocSlotDraft {
			return nil, apperr.Validation("unknown document slot %q", slot)
		}
	}

	sempro, err := s.semproRepo.GetByID(ctx, semproID)
	if err != nil {
		return nil, err
	}
	if sempro == nil {
		return nil, apperr.NotFound("sempro %d not found", semproID)
	}
	if sempro.Status != entity.SemproStatusCompleted {
		return nil, apperr.InvalidState(sempro.Status, entity.SemproStatusRevisionRequired, "post-evaluation revision requires a completed defense")
	}

	schedule, err := s.scheduleRepo.GetBySemproID(ctx, semproID)
	if err != nil {
		return nil, err
	}

	slot, err := s.reviewerSlot(ctx, sempro, schedule, actor.UserID)
	if err != nil {
		return nil, err
	}
	if slot == "" {
		return nil, apperr.Permission("user %s is not a reviewer of sempro %d", actor.UserID, semproID)
	}

	evaluation, err := s.evaluationRepo.GetBySemproAndEvaluator(ctx, semproID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if evaluation == nil {
		return nil, apperr.Precondition("reviewer %s must submit an evaluation before requesting revision", actor.UserID)
	}

	var updated *entity.SemproRegistration
	ob := newOutbox(s.notificationRepo)
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.semproRepo.AddRevisionNote(txCtx, &entity.RevisionNote{
			SemproID:     semproID,
			ReviewerRole: slot,
			Note:         in.Note,
			Major:        in.Major,
		}); err != nil {
			return err
		}

		target := sempro.Status
		if in.Major {
			target = entity.SemproStatusRevisionRequired
			sempro.Status = target
			sempro.RevisionSlots = in.DocSlots
			if err := s.semproRepo.Update(txCtx, sempro); err != nil {
				return err
			}
			updated = sempro
		} else {
			updated = sempro
		}

		severity := "minor"
		if in.Major {
			severity = "major"
		}
		if err := s.historyRepo.Append(txCtx, &entity.HistoryEntry{
			SubjectType: entity.SubjectSempro,
			SubjectID:   semproID,
			ActorID:     actor.UserID,
			Status:      target,
			Note:        fmt.Sprintf("%s revision requested by %s: %s", severity, slot, in.Note),
		}); err != nil {
			return err
		}
		return ob.add(txCtx, actor.UserID, sempro.StudentID,
			"Revision requested",
			fmt.Sprintf("Reviewer %s requested a %s revision: %s", slot, severity, in.Note))
	})
	if err != nil {
		s.logger.Error("Failed to record revision request",
			zap.Int64("sempro_id", semproID),
			zap.Error(err))
		return nil, err
	}

	s.notifier.Dispatch(ctx, ob.ids...)
	return updated, nil
}

// ApproveFinal records one supervisor's final approval after a completed
// defense. Repeated calls by the same supervisor are accepted and change
// nothing. When both supervisors have approved, the registration reaches
// approved, its terminal success state.
func (s *semproServiceImpl) ApproveFinal(ctx context.Context, actor entity.Actor, semproID int64) (*entity.SemproRegistration, error) {
	sempro, err := s.semproRepo.GetByID(ctx, semproID)
	if err != nil {
		return nil, err
	}
	if sempro == nil {
		return nil, apperr.NotFound("sempro %d not found", semproID)
	}

	proposal, err := s.proposalRepo.GetByID(ctx, sempro.ProposalID)
	if err != nil {
		return nil, err
	}
	if proposal == nil {
		return nil, apperr.NotFound("proposal %d not found", sempro.ProposalID)
	}
	slot := proposal.SupervisorSlot(actor.UserID)
	if slot == "" {
		return nil, apperr.Permission("user %s is not a supervisor of sempro %d", actor.UserID, semproID)
	}

	alreadyApproved := (slot == entity.ReviewerSupervisor1 && sempro.ApproveSupervisor1) ||
		(slot == entity.ReviewerSupervisor2 && sempro.ApproveSupervisor2)
	if alreadyApproved {
		if err := s.historyRepo.Append(ctx, &entity.HistoryEntry{
			SubjectType: entity.SubjectSempro,
			SubjectID:   semproID,
			ActorID:     actor.UserID,
			Status:      sempro.Status,
			Note:        fmt.Sprintf("final approval by %s already recorded", slot),
		}); err != nil {
			return nil, err
		}
		return sempro, nil
	}

	machine := workflow.NewSemproMachine(sempro.Status)
	if !machine.CanFire(workflow.TriggerApproveFinal) {
		return nil, apperr.InvalidState(sempro.Status, entity.SemproStatusApproved, "final approval requires a completed defense")
	}

	var updated *entity.SemproRegistration
	ob := newOutbox(s.notificationRepo)
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		updated, err = s.semproRepo.ApproveFinalBySlot(txCtx, semproID, slot)
		if err != nil {
			return err
		}

		if err := s.historyRepo.Append(txCtx, &entity.HistoryEntry{
			SubjectType: entity.SubjectSempro,
			SubjectID:   semproID,
			ActorID:     actor.UserID,
			Status:      updated.Status,
			Note:        fmt.Sprintf("final approval recorded by %s", slot),
		}); err != nil {
			return err
		}
		if updated.Status != entity.SemproStatusApproved {
			return nil
		}
		return ob.add(txCtx, actor.UserID, updated.StudentID,
			"Seminar approved",
			"Both supervisors approved your seminar. Congratulations.")
	})
	if err != nil {
		s.logger.Error("Failed to record final approval",
			zap.Int64("sempro_id", semproID),
			zap.String("slot", string(slot)),
			zap.Error(err))
		return nil, err
	}

	s.notifier.Dispatch(ctx, ob.ids...)
	return updated, nil
}

// ResubmitDocuments replaces the document slots flagged by the latest
// major revision and returns the registration to registered. Unflagged
// slots keep their prior documents untouched. When the revision flagged
// no slots at all, every supplied replacement is taken instead. Stored
// revision notes are kept for audit.
func (s *semproServiceImpl) ResubmitDocuments(ctx context.Context, actor entity.Actor, semproID int64, in ResubmitDocumentsInput) (*entity.SemproRegistration, error) {
	sempro, err := s.semproRepo.GetByID(ctx, semproID)
	if err != nil {
		return nil, err
	}
	if sempro == nil {
		return nil, apperr.NotFound("sempro %d not found", semproID)
	}
	if sempro.StudentID != actor.UserID {
		return nil, apperr.Permission("sempro %d does not belong to user %s", semproID, actor.UserID)
	}

	machine := workflow.NewSemproMachine(sempro.Status)
	if !machine.CanFire(workflow.TriggerResubmit) {
		return nil, apperr.InvalidState(sempro.Status, entity.SemproStatusRegistered, "resubmission requires a pending revision")
	}

	for _, slot := range sempro.RevisionSlots {
		doc, ok := in.Documents[slot]
		if !ok || doc.IsZero() {
			return nil, apperr.Validation("document slot %q was flagged for revision and must be replaced", slot)
		}
	}
	for slot := range in.Documents {
		if slot != entity.DocSlotForm && slot != entity.DocSlotPlagiarism && slot != entity.DocSlotDraft {
			return nil, apperr.Validation("unknown document slot %q", slot)
		}
	}

	if len(sempro.RevisionSlots) > 0 {
		for _, slot := range sempro.RevisionSlots {
			sempro.SetDoc(slot, in.Documents[slot])
		}
	} else {
		// Admin document revisions flag no slots; any replacement the
		// student supplies is taken.
		for slot, doc := range in.Documents {
			if !doc.IsZero() {
				sempro.SetDoc(slot, doc)
			}
		}
	}
	sempro.RevisionSlots = nil
	sempro.Status = entity.SemproStatusRegistered

	ob := newOutbox(s.notificationRepo)
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.semproRepo.Update(txCtx, sempro); err != nil {
			return err
		}
		note := "revised documents resubmitted"
		if in.Note != "" {
			note = fmt.Sprintf("revised documents resubmitted: %s", in.Note)
		}
		return s.historyRepo.Append(txCtx, &entity.HistoryEntry{
			SubjectType: entity.SubjectSempro,
			SubjectID:   semproID,
			ActorID:     actor.UserID,
			Status:      entity.SemproStatusRegistered,
			Note:        note,
		})
	})
	if err != nil {
		s.logger.Error("Failed to resubmit documents", zap.Int64("sempro_id", semproID), zap.Error(err))
		return nil, err
	}

	s.notifier.Dispatch(ctx, ob.ids...)
	return sempro, nil
}

// Get retrieves a registration with its latest revision note per reviewer
// slot projected from the append-only note table.
func (s *semproServiceImpl) Get(ctx context.Context, semproID int64) (*entity.SemproRegistration, error) {
	sempro, err := s.semproRepo.GetByID(ctx, semproID)
	if err != nil {
		return nil, err
	}
	if sempro == nil {
		return nil, apperr.NotFound("sempro %d not found", semproID)
	}

	notes, err := s.semproRepo.ListRevisionNotes(ctx, semproID)
	if err != nil {
		return nil, err
	}
	if len(notes) > 0 {
		latest := make(map[entity.ReviewerRole]string, expectedEvaluators)
		// Notes are ordered oldest first; later notes win.
		for _, n := range notes {
			latest[n.ReviewerRole] = n.Note
		}
		sempro.LatestRevisionNotes = latest
	}
	return sempro, nil
}

// GetSchedule retrieves the defense schedule for a registration
func (s *semproServiceImpl) GetSchedule(ctx context.Context, semproID int64) (*entity.Schedule, error) {
	schedule, err := s.scheduleRepo.GetBySemproID(ctx, semproID)
	if err != nil {
		return nil, err
	}
	if schedule == nil {
		return nil, apperr.NotFound("sempro %d has no schedule", semproID)
	}
	return schedule, nil
}

// ListEvaluations returns all recorded evaluations for a registration
func (s *semproServiceImpl) ListEvaluations(ctx context.Context, semproID int64) ([]*entity.Evaluation, error) {
	return s.evaluationRepo.ListBySemproID(ctx, semproID)
}
