package entity

import "time"

// HistoryEntry is one record in the audit trail of status transitions.
// Immutable once written; never updated or deleted. Entries for a given
// subject are ordered by the commit order of the transition that produced
// them.
type HistoryEntry struct {
	ID          int64     `json:"id"`
	SubjectType string    `json:"subject_type"`
	SubjectID   int64     `json:"subject_id"`
	ActorID     string    `json:"actor_id"`
	Status      string    `json:"status"`
	Note        string    `json:"note"`
	CreatedAt   time.Time `json:"created_at"`
}
