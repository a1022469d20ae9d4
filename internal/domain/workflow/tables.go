package workflow

import "github.com/siakad/thesis-workflow/internal/domain/entity"

// Triggers shared across the three workflows
const (
	TriggerApprove         Trigger = "APPROVE"
	TriggerReject          Trigger = "REJECT"
	TriggerRequestRevision Trigger = "REQUEST_REVISION"
	TriggerResubmit        Trigger = "RESUBMIT"
	TriggerUpdate          Trigger = "UPDATE"
	TriggerVerify          Trigger = "VERIFY"
	TriggerSchedule        Trigger = "SCHEDULE"
	TriggerComplete        Trigger = "COMPLETE"
	TriggerApproveFinal    Trigger = "APPROVE_FINAL"
	TriggerDecide          Trigger = "DECIDE"
	TriggerEdit            Trigger = "EDIT"
)

var proposalTable = NewBuilder().
	// Approving from submitted only reaches approved once both flags are
	// set; the repository recomputes that server-side. The table records
	// legality, not the dual-flag outcome.
	Permit(entity.ProposalStatusSubmitted, TriggerApprove, entity.ProposalStatusSubmitted).
	Permit(entity.ProposalStatusSubmitted, TriggerReject, entity.ProposalStatusRejected).
	Permit(entity.ProposalStatusSubmitted, TriggerRequestRevision, entity.ProposalStatusRevision).
	Permit(entity.ProposalStatusSubmitted, TriggerUpdate, entity.ProposalStatusSubmitted).
	Permit(entity.ProposalStatusRevision, TriggerReject, entity.ProposalStatusRejected).
	Permit(entity.ProposalStatusRevision, TriggerUpdate, entity.ProposalStatusSubmitted).
	// Changing a supervisor on an approved proposal reverts it to submitted.
	Permit(entity.ProposalStatusApproved, TriggerUpdate, entity.ProposalStatusSubmitted).
	Terminal(entity.ProposalStatusRejected, entity.ProposalStatusCompleted)

// NewProposalMachine positions the proposal transition table at the given status
func NewProposalMachine(status string) *Machine {
	return proposalTable.Build(State(status))
}

var consultationTable = NewBuilder().
	Permit(entity.ConsultationStatusPending, TriggerDecide, entity.ConsultationStatusApproved).
	Permit(entity.ConsultationStatusPending, TriggerEdit, entity.ConsultationStatusPending).
	Terminal(entity.ConsultationStatusApproved, entity.ConsultationStatusRejected)

// NewConsultationMachine positions the consultation transition table at the given status
func NewConsultationMachine(status string) *Machine {
	return consultationTable.Build(State(status))
}

var semproTable = NewBuilder().
	Permit(entity.SemproStatusRegistered, TriggerVerify, entity.SemproStatusVerified).
	Permit(entity.SemproStatusRegistered, TriggerReject, entity.SemproStatusRejected).
	Permit(entity.SemproStatusRegistered, TriggerRequestRevision, entity.SemproStatusRevisionRequired).
	Permit(entity.SemproStatusVerified, TriggerSchedule, entity.SemproStatusScheduled).
	Permit(entity.SemproStatusVerified, TriggerReject, entity.SemproStatusRejected).
	Permit(entity.SemproStatusVerified, TriggerRequestRevision, entity.SemproStatusRevisionRequired).
	Permit(entity.SemproStatusScheduled, TriggerComplete, entity.SemproStatusCompleted).
	Permit(entity.SemproStatusCompleted, TriggerApproveFinal, entity.SemproStatusCompleted).
	Permit(entity.SemproStatusCompleted, TriggerRequestRevision, entity.SemproStatusRevisionRequired).
	Permit(entity.SemproStatusRevisionRequired, TriggerResubmit, entity.SemproStatusRegistered).
	Terminal(entity.SemproStatusApproved, entity.SemproStatusRejected)

// NewSemproMachine positions the sempro transition table at the given
// status. The deprecated "evaluated" alias is normalized to "verified".
func NewSemproMachine(status string) *Machine {
	if status == entity.SemproStatusEvaluated {
		status = entity.SemproStatusVerified
	}
	return semproTable.Build(State(status))
}
