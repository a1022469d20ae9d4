package service

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/siakad/thesis-workflow/internal/application/port"
	"github.com/siakad/thesis-workflow/internal/domain/apperr"
	"github.com/siakad/thesis-workflow/internal/domain/entity"
)

// ExportService produces spreadsheet recaps for study-program staff
type ExportService interface {
	// EvaluationRecap writes an xlsx recap of all evaluations recorded for a
	// registration and returns the output file path.
	EvaluationRecap(ctx context.Context, semproID int64) (string, error)
}

type exportServiceImpl struct {
	semproRepo     port.SemproRepository
	proposalRepo   port.ProposalRepository
	scheduleRepo   port.ScheduleRepository
	evaluationRepo port.EvaluationRepository
	outputDir      string
	logger         *zap.Logger
}

// NewExportService creates a new ExportService
func NewExportService(
	semproRepo port.SemproRepository,
	proposalRepo port.ProposalRepository,
	scheduleRepo port.ScheduleRepository,
	evaluationRepo port.EvaluationRepository,
	outputDir string,
	logger *zap.Logger,
) ExportService {
	return &exportServiceImpl{
		semproRepo:     semproRepo,
		proposalRepo:   proposalRepo,
		scheduleRepo:   scheduleRepo,
		evaluationRepo: evaluationRepo,
		outputDir:      outputDir,
		logger:         logger,
	}
}

// EvaluationRecap builds a one-sheet workbook: registration header, one
// row per recorded evaluation with its five scores and average, and the
// overall average across evaluators.
func (s *exportServiceImpl) EvaluationRecap(ctx context.Context, semproID int64) (string, error) {
	sempro, err := s.semproRepo.GetByID(ctx, semproID)
	if err != nil {
		return "", err
	}
	if sempro == nil {
		return "", apperr.NotFound("sempro %d not found", semproID)
	}

	proposal, err := s.proposalRepo.GetByID(ctx, sempro.ProposalID)
	if err != nil {
		return "", err
	}
	if proposal == nil {
		return "", apperr.NotFound("proposal %d not found", sempro.ProposalID)
	}

	schedule, err := s.scheduleRepo.GetBySemproID(ctx, semproID)
	if err != nil {
		return "", err
	}

	evaluations, err := s.evaluationRepo.ListBySemproID(ctx, semproID)
	if err != nil {
		return "", err
	}
	if len(evaluations) == 0 {
		return "", apperr.Precondition("sempro %d has no evaluations to export", semproID)
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	s.setCell(f, sheet, "A1", "Seminar Evaluation Recap")
	s.setCell(f, sheet, "A2", "Student")
	s.setCell(f, sheet, "B2", sempro.StudentID)
	s.setCell(f, sheet, "A3", "Thesis Title")
	s.setCell(f, sheet, "B3", proposal.Title)
	s.setCell(f, sheet, "A4", "Status")
	s.setCell(f, sheet, "B4", sempro.Status)
	if schedule != nil {
		s.setCell(f, sheet, "A5", "Defense Date")
		s.setCell(f, sheet, "B5", schedule.Date.Format("2006-01-02"))
		s.setCell(f, sheet, "C5", fmt.Sprintf("%s-%s, %s", schedule.StartTime, schedule.EndTime, schedule.Room))
	}

	headerRow := 7
	headers := []string{"Evaluator", "Role", "Score 1", "Score 2", "Score 3", "Score 4", "Score 5", "Average", "Notes"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		s.setCell(f, sheet, cell, h)
	}

	var overall float64
	for i, ev := range evaluations {
		row := headerRow + 1 + i
		role := s.evaluatorRole(proposal, schedule, ev.EvaluatorID)

		s.setCell(f, sheet, fmt.Sprintf("A%d", row), ev.EvaluatorID)
		s.setCell(f, sheet, fmt.Sprintf("B%d", row), string(role))
		for j, score := range ev.Scores {
			cell, _ := excelize.CoordinatesToCellName(j+3, row)
			if err := f.SetCellValue(sheet, cell, score); err != nil {
				s.logger.Warn("Failed to set score cell", zap.String("cell", cell), zap.Error(err))
			}
		}
		avg := ev.Average()
		overall += avg
		s.setCell(f, sheet, fmt.Sprintf("H%d", row), fmt.Sprintf("%.2f", avg))
		s.setCell(f, sheet, fmt.Sprintf("I%d", row), ev.Notes)
	}

	totalRow := headerRow + 1 + len(evaluations)
	s.setCell(f, sheet, fmt.Sprintf("A%d", totalRow), "Overall Average")
	s.setCell(f, sheet, fmt.Sprintf("H%d", totalRow), fmt.Sprintf("%.2f", overall/float64(len(evaluations))))

	outputPath := filepath.Join(s.outputDir,
		fmt.Sprintf("sempro_%d_recap_%s.xlsx", semproID, time.Now().Format("20060102_150405")))
	if err := f.SaveAs(outputPath); err != nil {
		return "", fmt.Errorf("failed to save recap file: %w", err)
	}

	s.logger.Info("Evaluation recap exported",
		zap.Int64("sempro_id", semproID),
		zap.String("output_path", outputPath))
	return outputPath, nil
}

// evaluatorRole resolves the reviewer slot for display purposes
func (s *exportServiceImpl) evaluatorRole(proposal *entity.ThesisProposal, schedule *entity.Schedule, evaluatorID string) entity.ReviewerRole {
	if slot := proposal.SupervisorSlot(evaluatorID); slot != "" {
		return slot
	}
	if schedule != nil {
		if slot := schedule.ExaminerSlot(evaluatorID); slot != "" {
			return slot
		}
	}
	return ""
}

// setCell sets a cell value, logging on failure
func (s *exportServiceImpl) setCell(f *excelize.File, sheet, cell, value string) {
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		s.logger.Warn("Failed to set cell value",
			zap.String("sheet", sheet),
			zap.String("cell", cell),
			zap.Error(err))
	}
}
