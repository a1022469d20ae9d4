package entity

import "time"

// Consultation is a logged supervision session between a student and one
// supervisor, linked to an approved proposal and subject to that
// supervisor's approval. Mutable only while pending.
type Consultation struct {
	ID           int64     `json:"id"`
	StudentID    string    `json:"student_id"`
	SupervisorID string    `json:"supervisor_id"`
	ProposalID   int64     `json:"proposal_id"`
	Date         time.Time `json:"date"`
	Description  string    `json:"description"`
	Outcome      string    `json:"outcome"`
	Status       string    `json:"status"`
	Version      int64     `json:"version"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ConsultationUpdate carries the student-editable fields of a consultation.
// Nil pointers leave the current value untouched.
type ConsultationUpdate struct {
	Date        *time.Time `json:"date,omitempty"`
	Description *string    `json:"description,omitempty"`
	Outcome     *string    `json:"outcome,omitempty"`
}
