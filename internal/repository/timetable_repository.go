package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/timetable-engine/internal/models"
)

const timetableColumns = `id, name, version, status, days, slots_per_day, engine, classes, meta, created_at, updated_at`

// TimetableRepository persists versioned timetables with their cells and meetings.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs the repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

func (r *TimetableRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// BeginTxx starts a transaction on the underlying pool.
func (r *TimetableRepository) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, opts)
}

// CreateVersioned inserts a timetable assigning the next version for its name.
func (r *TimetableRepository) CreateVersioned(ctx context.Context, exec sqlx.ExtContext, timetable *models.Timetable) error {
	if timetable == nil {
		return fmt.Errorf("timetable payload is nil")
	}
	if timetable.Name == "" {
		return fmt.Errorf("timetable name is required")
	}
	if timetable.ID == "" {
		timetable.ID = uuid.NewString()
	}
	if timetable.Status == "" {
		timetable.Status = models.TimetableStatusDraft
	}
	if len(timetable.Classes) == 0 {
		timetable.Classes = types.JSONText(`[]`)
	}
	if len(timetable.Meta) == 0 {
		timetable.Meta = types.JSONText(`{}`)
	}
	now := time.Now().UTC()
	if timetable.CreatedAt.IsZero() {
		timetable.CreatedAt = now
	}
	timetable.UpdatedAt = now

	target := r.exec(exec)

	const nextVersionQuery = `SELECT COALESCE(MAX(version), 0) + 1 FROM timetables WHERE name = $1`
	if err := sqlx.GetContext(ctx, target, &timetable.Version, nextVersionQuery, timetable.Name); err != nil {
		return fmt.Errorf("compute next timetable version: %w", err)
	}

	const insertQuery = `
INSERT INTO timetables (id, name, version, status, days, slots_per_day, engine, classes, meta, created_at, updated_at)
VALUES (:id, :name, :version, :status, :days, :slots_per_day, :engine, :classes, :meta, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, target, insertQuery, timetable); err != nil {
		return fmt.Errorf("insert timetable: %w", err)
	}
	return nil
}

// InsertCells stores the occupied slots of a timetable.
func (r *TimetableRepository) InsertCells(ctx context.Context, exec sqlx.ExtContext, cells []models.TimetableCell) error {
	if len(cells) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO timetable_cells (id, timetable_id, class_id, slot, lesson_id, load_id, subject_id, teacher_id, duration, created_at)
VALUES (:id, :timetable_id, :class_id, :slot, :lesson_id, :load_id, :subject_id, :teacher_id, :duration, :created_at)`

	for i := range cells {
		cell := &cells[i]
		if cell.ID == "" {
			cell.ID = uuid.NewString()
		}
		if cell.CreatedAt.IsZero() {
			cell.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, cell); err != nil {
			return fmt.Errorf("insert timetable cell %s[%d]: %w", cell.ClassID, cell.Slot, err)
		}
	}
	return nil
}

// InsertMeetings stores placed teacher meetings.
func (r *TimetableRepository) InsertMeetings(ctx context.Context, exec sqlx.ExtContext, meetings []models.TimetableMeeting) error {
	if len(meetings) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO timetable_meetings (id, timetable_id, lesson_id, slot, duration, teacher_ids, created_at)
VALUES (:id, :timetable_id, :lesson_id, :slot, :duration, :teacher_ids, :created_at)`

	for i := range meetings {
		meeting := &meetings[i]
		if meeting.ID == "" {
			meeting.ID = uuid.NewString()
		}
		if meeting.CreatedAt.IsZero() {
			meeting.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, meeting); err != nil {
			return fmt.Errorf("insert timetable meeting %s: %w", meeting.LessonID, err)
		}
	}
	return nil
}

// List returns timetables matching the filter, newest first, with the total count.
func (r *TimetableRepository) List(ctx context.Context, filter models.TimetableFilter) ([]models.Timetable, int, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.Name != "" {
		args = append(args, filter.Name)
		conditions = append(conditions, fmt.Sprintf("name = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM timetables"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count timetables: %w", err)
	}

	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	args = append(args, size, (page-1)*size)
	query := fmt.Sprintf("SELECT %s FROM timetables%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		timetableColumns, where, len(args)-1, len(args))

	var timetables []models.Timetable
	if err := r.db.SelectContext(ctx, &timetables, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list timetables: %w", err)
	}
	return timetables, total, nil
}

// FindByID loads a timetable header.
func (r *TimetableRepository) FindByID(ctx context.Context, id string) (*models.Timetable, error) {
	query := `SELECT ` + timetableColumns + ` FROM timetables WHERE id = $1`
	var timetable models.Timetable
	if err := r.db.GetContext(ctx, &timetable, query, id); err != nil {
		return nil, err
	}
	return &timetable, nil
}

// ListCells returns the stored cells ordered by class and slot.
func (r *TimetableRepository) ListCells(ctx context.Context, timetableID string) ([]models.TimetableCell, error) {
	const query = `SELECT id, timetable_id, class_id, slot, lesson_id, load_id, subject_id, teacher_id, duration, created_at
FROM timetable_cells WHERE timetable_id = $1 ORDER BY class_id ASC, slot ASC`
	var cells []models.TimetableCell
	if err := r.db.SelectContext(ctx, &cells, query, timetableID); err != nil {
		return nil, fmt.Errorf("list timetable cells: %w", err)
	}
	return cells, nil
}

// ListMeetings returns the stored meetings ordered by slot.
func (r *TimetableRepository) ListMeetings(ctx context.Context, timetableID string) ([]models.TimetableMeeting, error) {
	const query = `SELECT id, timetable_id, lesson_id, slot, duration, teacher_ids, created_at
FROM timetable_meetings WHERE timetable_id = $1 ORDER BY slot ASC, lesson_id ASC`
	var meetings []models.TimetableMeeting
	if err := r.db.SelectContext(ctx, &meetings, query, timetableID); err != nil {
		return nil, fmt.Errorf("list timetable meetings: %w", err)
	}
	return meetings, nil
}

// Delete removes a timetable; cells and meetings cascade.
func (r *TimetableRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM timetables WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete timetable: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("timetable rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateStatus moves a timetable to another lifecycle state.
func (r *TimetableRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.TimetableStatus) error {
	const query = `UPDATE timetables SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := r.exec(exec).ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update timetable status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("timetable status rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ArchivePublished archives every published version of name except keepID.
func (r *TimetableRepository) ArchivePublished(ctx context.Context, exec sqlx.ExtContext, name, keepID string) error {
	const query = `UPDATE timetables SET status = $1, updated_at = $2 WHERE name = $3 AND status = $4 AND id <> $5`
	if _, err := r.exec(exec).ExecContext(ctx, query, models.TimetableStatusArchived, time.Now().UTC(), name, models.TimetableStatusPublished, keepID); err != nil {
		return fmt.Errorf("archive published timetables: %w", err)
	}
	return nil
}
