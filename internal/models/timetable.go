package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
)

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// TimetableStatus represents lifecycle phases for saved timetables.
type TimetableStatus string

const (
	TimetableStatusDraft     TimetableStatus = "DRAFT"
	TimetableStatusPublished TimetableStatus = "PUBLISHED"
	TimetableStatusArchived  TimetableStatus = "ARCHIVED"
)

// Timetable is a saved, versioned weekly grid. Versions count up per name.
type Timetable struct {
	ID          string          `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Version     int             `db:"version" json:"version"`
	Status      TimetableStatus `db:"status" json:"status"`
	Days        int             `db:"days" json:"days"`
	SlotsPerDay int             `db:"slots_per_day" json:"slots_per_day"`
	Engine      string          `db:"engine" json:"engine"`
	Classes     types.JSONText  `db:"classes" json:"classes"`
	Meta        types.JSONText  `db:"meta" json:"meta"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// TimetableCell is one occupied slot of one class row.
type TimetableCell struct {
	ID          string    `db:"id" json:"id"`
	TimetableID string    `db:"timetable_id" json:"timetable_id"`
	ClassID     string    `db:"class_id" json:"class_id"`
	Slot        int       `db:"slot" json:"slot"`
	LessonID    string    `db:"lesson_id" json:"lesson_id"`
	LoadID      string    `db:"load_id" json:"load_id"`
	SubjectID   string    `db:"subject_id" json:"subject_id"`
	TeacherID   *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	Duration    int       `db:"duration" json:"duration"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// TimetableMeeting is a placed teacher meeting.
type TimetableMeeting struct {
	ID          string         `db:"id" json:"id"`
	TimetableID string         `db:"timetable_id" json:"timetable_id"`
	LessonID    string         `db:"lesson_id" json:"lesson_id"`
	Slot        int            `db:"slot" json:"slot"`
	Duration    int            `db:"duration" json:"duration"`
	TeacherIDs  pq.StringArray `db:"teacher_ids" json:"teacher_ids"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}

// TimetableFilter narrows list queries.
type TimetableFilter struct {
	Name     string
	Status   TimetableStatus
	Page     int
	PageSize int
}

// SchedulerMetrics is a point-in-time summary of solver and HTTP activity.
type SchedulerMetrics struct {
	SolvesTotal              uint64    `json:"solves_total"`
	SolvesSucceeded          uint64    `json:"solves_succeeded"`
	AverageSolveDurationMs   float64   `json:"average_solve_duration_ms"`
	EditsAccepted            uint64    `json:"edits_accepted"`
	EditsRejected            uint64    `json:"edits_rejected"`
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
