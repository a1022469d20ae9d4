package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/siakad/thesis-workflow/internal/domain/apperr"
	"github.com/siakad/thesis-workflow/internal/domain/entity"
)

// ScheduleRepository handles defense schedule database operations
type ScheduleRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewScheduleRepository creates a new schedule repository
func NewScheduleRepository(db *sql.DB, logger *zap.Logger) *ScheduleRepository {
	return &ScheduleRepository{
		db:     db,
		logger: logger,
	}
}

const scheduleColumns = `id, sempro_id, examiner1_id, examiner2_id, date, start_time, end_time,
	room, published, created_at, updated_at`

func scanSchedule(row *sql.Row) (*entity.Schedule, error) {
	var s entity.Schedule
	err := row.Scan(
		&s.ID,
		&s.SemproID,
		&s.Examiner1ID,
		&s.Examiner2ID,
		&s.Date,
		&s.StartTime,
		&s.EndTime,
		&s.Room,
		&s.Published,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan schedule: %w", err)
	}
	return &s, nil
}

// Create inserts a new schedule. The sempro_id UNIQUE constraint keeps one
// schedule per registration.
func (r *ScheduleRepository) Create(ctx context.Context, s *entity.Schedule) error {
	query := `
		INSERT INTO schedules (
			sempro_id, examiner1_id, examiner2_id, date, start_time, end_time, room, published
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := executorFrom(ctx, r.db).ExecContext(ctx, query,
		s.SemproID,
		s.Examiner1ID,
		s.Examiner2ID,
		s.Date,
		s.StartTime,
		s.EndTime,
		s.Room,
		s.Published,
	)
	if err != nil {
		r.logger.Error("Failed to create schedule", zap.Int64("sempro_id", s.SemproID), zap.Error(err))
		return fmt.Errorf("failed to create schedule: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	s.ID = id
	return nil
}

// Upsert inserts the schedule or overwrites the existing one for the same
// registration. Rescheduling after a revision cycle replaces the prior slot
// wholesale, including the published flag.
func (r *ScheduleRepository) Upsert(ctx context.Context, s *entity.Schedule) error {
	query := `
		INSERT INTO schedules (
			sempro_id, examiner1_id, examiner2_id, date, start_time, end_time, room, published
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (sempro_id) DO UPDATE SET
			examiner1_id = excluded.examiner1_id,
			examiner2_id = excluded.examiner2_id,
			date = excluded.date,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			room = excluded.room,
			published = excluded.published,
			updated_at = CURRENT_TIMESTAMP
	`

	_, err := executorFrom(ctx, r.db).ExecContext(ctx, query,
		s.SemproID,
		s.Examiner1ID,
		s.Examiner2ID,
		s.Date,
		s.StartTime,
		s.EndTime,
		s.Room,
		s.Published,
	)
	if err != nil {
		r.logger.Error("Failed to upsert schedule", zap.Int64("sempro_id", s.SemproID), zap.Error(err))
		return fmt.Errorf("failed to upsert schedule: %w", err)
	}

	stored, err := r.GetBySemproID(ctx, s.SemproID)
	if err != nil {
		return err
	}
	if stored != nil {
		*s = *stored
	}
	return nil
}

// GetByID retrieves a schedule by ID; (nil, nil) when absent
func (r *ScheduleRepository) GetByID(ctx context.Context, id int64) (*entity.Schedule, error) {
	query := fmt.Sprintf("SELECT %s FROM schedules WHERE id = ?", scheduleColumns)
	return scanSchedule(executorFrom(ctx, r.db).QueryRowContext(ctx, query, id))
}

// GetBySemproID retrieves the schedule for a registration; (nil, nil) when absent
func (r *ScheduleRepository) GetBySemproID(ctx context.Context, semproID int64) (*entity.Schedule, error) {
	query := fmt.Sprintf("SELECT %s FROM schedules WHERE sempro_id = ?", scheduleColumns)
	return scanSchedule(executorFrom(ctx, r.db).QueryRowContext(ctx, query, semproID))
}

// SetPublished toggles the published flag
func (r *ScheduleRepository) SetPublished(ctx context.Context, id int64, published bool) (*entity.Schedule, error) {
	query := `
		UPDATE schedules
		SET published = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	result, err := executorFrom(ctx, r.db).ExecContext(ctx, query, published, id)
	if err != nil {
		r.logger.Error("Failed to set schedule published", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to set schedule published: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return nil, apperr.NotFound("schedule %d not found", id)
	}

	return r.GetByID(ctx, id)
}
