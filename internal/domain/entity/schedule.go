package entity

import "time"

// Schedule assigns a verified sempro registration to a defense slot with
// two examiners. Created by an admin; publishing is a separate toggle that
// triggers notifications to the student and both examiners.
type Schedule struct {
	ID          int64     `json:"id"`
	SemproID    int64     `json:"sempro_id"`
	Examiner1ID string    `json:"examiner1_id"`
	Examiner2ID string    `json:"examiner2_id"`
	Date        time.Time `json:"date"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	Room        string    `json:"room"`
	Published   bool      `json:"published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ExaminerSlot returns which examiner slot the given user occupies on the
// schedule, or "" if the user is not an examiner of it.
func (s *Schedule) ExaminerSlot(userID string) ReviewerRole {
	switch userID {
	case s.Examiner1ID:
		return ReviewerExaminer1
	case s.Examiner2ID:
		return ReviewerExaminer2
	}
	return ""
}
