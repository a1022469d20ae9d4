package entity

import "time"

// Document is opaque metadata about an uploaded file. The workflow core
// never reads document content; storage transport is out of scope.
type Document struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// IsZero reports whether the document slot is unset
func (d Document) IsZero() bool {
	return d.ID == "" && d.URL == "" && d.Name == "" && d.Type == ""
}

// SemproRegistration is a student's registration for the seminar at which
// an approved proposal is defended. It moves through the pipeline
// registered → verified → scheduled → completed → approved, with revision
// cycles back to registered.
type SemproRegistration struct {
	ID            int64    `json:"id"`
	ProposalID    int64    `json:"proposal_id"`
	StudentID     string   `json:"student_id"`
	Status        string   `json:"status"`
	FormDoc       Document `json:"form_doc"`
	PlagiarismDoc Document `json:"plagiarism_doc"`
	DraftDoc      Document `json:"draft_doc"`
	// Slots flagged for replacement by the latest major revision request.
	RevisionSlots      []string  `json:"revision_slots,omitempty"`
	ApproveSupervisor1 bool      `json:"approve_supervisor1"`
	ApproveSupervisor2 bool      `json:"approve_supervisor2"`
	IdempotencyKey     string    `json:"idempotency_key,omitempty"`
	Version            int64     `json:"version"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`

	// LatestRevisionNotes is a derived projection: the most recent note per
	// reviewer role. The primary representation is the revision_notes table.
	LatestRevisionNotes map[ReviewerRole]string `json:"latest_revision_notes,omitempty"`
}

// Doc returns the document occupying the given slot
func (s *SemproRegistration) Doc(slot string) Document {
	switch slot {
	case DocSlotForm:
		return s.FormDoc
	case DocSlotPlagiarism:
		return s.PlagiarismDoc
	case DocSlotDraft:
		return s.DraftDoc
	}
	return Document{}
}

// SetDoc replaces the document in the given slot
func (s *SemproRegistration) SetDoc(slot string, doc Document) {
	switch slot {
	case DocSlotForm:
		s.FormDoc = doc
	case DocSlotPlagiarism:
		s.PlagiarismDoc = doc
	case DocSlotDraft:
		s.DraftDoc = doc
	}
}

// BothApproved reports whether both supervisors recorded final approval
func (s *SemproRegistration) BothApproved() bool {
	return s.ApproveSupervisor1 && s.ApproveSupervisor2
}

// RevisionNote is one revision request recorded against a sempro
// registration, keyed by the reviewer slot that raised it. Append-only;
// the audit trail falls out of keeping every note.
type RevisionNote struct {
	ID           int64        `json:"id"`
	SemproID     int64        `json:"sempro_id"`
	ReviewerRole ReviewerRole `json:"reviewer_role"`
	Note         string       `json:"note"`
	Major        bool         `json:"major"`
	CreatedAt    time.Time    `json:"created_at"`
}
