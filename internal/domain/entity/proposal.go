package entity

import "time"

// ThesisProposal represents a student's request to begin a final-year
// thesis, naming a title, research field and two supervisors. Both
// supervisors must approve before the proposal counts as approved.
type ThesisProposal struct {
	ID                 int64      `json:"id"`
	Title              string     `json:"title"`
	ResearchField      string     `json:"research_field"`
	StudentID          string     `json:"student_id"`
	Supervisor1ID      string     `json:"supervisor1_id"`
	Supervisor2ID      string     `json:"supervisor2_id"`
	Status             string     `json:"status"`
	ApproveSupervisor1 bool       `json:"approve_supervisor1"`
	ApproveSupervisor2 bool       `json:"approve_supervisor2"`
	IdempotencyKey     string     `json:"idempotency_key,omitempty"`
	Version            int64      `json:"version"`
	ApprovedAt         *time.Time `json:"approved_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// SupervisorSlot returns which supervisor slot the given user occupies on
// the proposal, or "" if the user is not a supervisor of it.
func (p *ThesisProposal) SupervisorSlot(userID string) ReviewerRole {
	switch userID {
	case p.Supervisor1ID:
		return ReviewerSupervisor1
	case p.Supervisor2ID:
		return ReviewerSupervisor2
	}
	return ""
}

// ApprovedBy returns true if the supervisor occupying the given slot has
// already recorded an approval.
func (p *ThesisProposal) ApprovedBy(slot ReviewerRole) bool {
	switch slot {
	case ReviewerSupervisor1:
		return p.ApproveSupervisor1
	case ReviewerSupervisor2:
		return p.ApproveSupervisor2
	}
	return false
}

// BothApproved reports whether both supervisors have approved
func (p *ThesisProposal) BothApproved() bool {
	return p.ApproveSupervisor1 && p.ApproveSupervisor2
}

// ProposalUpdate carries the student-editable fields of a proposal.
// Nil pointers leave the current value untouched.
type ProposalUpdate struct {
	Title         *string `json:"title,omitempty"`
	ResearchField *string `json:"research_field,omitempty"`
	Supervisor1ID *string `json:"supervisor1_id,omitempty"`
	Supervisor2ID *string `json:"supervisor2_id,omitempty"`
}
