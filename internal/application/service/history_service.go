package service

import (
	"context"

	"github.com/siakad/thesis-workflow/internal/application/port"
	"github.com/siakad/thesis-workflow/internal/domain/apperr"
	"github.com/siakad/thesis-workflow/internal/domain/entity"
)

// HistoryService exposes the append-only audit trail. Entries are written
// by the workflow services inside their transactions; this service only
// reads them back.
type HistoryService interface {
	Timeline(ctx context.Context, subjectType string, subjectID int64) ([]*entity.HistoryEntry, error)
}

type historyServiceImpl struct {
	historyRepo port.HistoryRepository
}

// NewHistoryService creates a new HistoryService
func NewHistoryService(historyRepo port.HistoryRepository) HistoryService {
	return &historyServiceImpl{historyRepo: historyRepo}
}

// Timeline returns the full history of a subject, oldest entry first
func (s *historyServiceImpl) Timeline(ctx context.Context, subjectType string, subjectID int64) ([]*entity.HistoryEntry, error) {
	switch subjectType {
	case entity.SubjectProposal, entity.SubjectConsultation, entity.SubjectSempro:
	default:
		return nil, apperr.Validation("unknown subject type %q", subjectType)
	}
	return s.historyRepo.ListBySubject(ctx, subjectType, subjectID)
}
