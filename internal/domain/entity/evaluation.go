package entity

import (
	"fmt"
	"time"
)

// EvaluationScoreCount is the number of scored aspects per evaluation
const EvaluationScoreCount = 5

// Evaluation is one evaluator's scoring of a seminar defense. One per
// evaluator per sempro; resubmission overwrites rather than duplicates.
type Evaluation struct {
	ID          int64                         `json:"id"`
	SemproID    int64                         `json:"sempro_id"`
	EvaluatorID string                        `json:"evaluator_id"`
	Scores      [EvaluationScoreCount]float64 `json:"scores"`
	Notes       string                        `json:"notes"`
	CreatedAt   time.Time                     `json:"created_at"`
	UpdatedAt   time.Time                     `json:"updated_at"`
}

// Average returns the mean of the five aspect scores
func (e *Evaluation) Average() float64 {
	var sum float64
	for _, s := range e.Scores {
		sum += s
	}
	return sum / EvaluationScoreCount
}

// ValidateScores checks that every score is within the 0-100 range
func ValidateScores(scores [EvaluationScoreCount]float64) error {
	for i, s := range scores {
		if s < 0 || s > 100 {
			return fmt.Errorf("score %d out of range: %v", i+1, s)
		}
	}
	return nil
}
