package entity

// Status constants for ThesisProposal
const (
	ProposalStatusSubmitted = "submitted"
	ProposalStatusApproved  = "approved"
	ProposalStatusRevision  = "revision"
	ProposalStatusRejected  = "rejected"
	ProposalStatusCompleted = "completed"
)

// Status constants for Consultation
const (
	ConsultationStatusPending  = "pending"
	ConsultationStatusApproved = "approved"
	ConsultationStatusRejected = "rejected"
)

// Status constants for SemproRegistration
const (
	SemproStatusRegistered       = "registered"
	SemproStatusVerified         = "verified"
	SemproStatusScheduled        = "scheduled"
	SemproStatusCompleted        = "completed"
	SemproStatusRevisionRequired = "revision_required"
	SemproStatusApproved         = "approved"
	SemproStatusRejected         = "rejected"
)

// SemproStatusEvaluated is a deprecated alias of "verified" left behind by
// older deployments. It is normalized on read and never written.
const SemproStatusEvaluated = "evaluated"

// Subject type constants for HistoryEntry
const (
	SubjectProposal     = "proposal"
	SubjectConsultation = "consultation"
	SubjectSempro       = "sempro"
)

// Notification status constants
const (
	NotificationStatusPending = "PENDING"
	NotificationStatusSent    = "SENT"
	NotificationStatusFailed  = "FAILED"
)

// Document slot constants for SemproRegistration
const (
	DocSlotForm       = "form"
	DocSlotPlagiarism = "plagiarism"
	DocSlotDraft      = "draft"
)
