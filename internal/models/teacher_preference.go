package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// TeacherUnavailableSlot describes a blocked teaching window. TimeRange is
// a 1-based period or an inclusive range such as "3-5".
type TeacherUnavailableSlot struct {
	DayOfWeek string `json:"day_of_week" validate:"required"`
	TimeRange string `json:"time_range" validate:"required"`
}

// TeacherPreference stores the windows a teacher cannot be scheduled in.
type TeacherPreference struct {
	ID          string         `db:"id" json:"id"`
	TeacherID   string         `db:"teacher_id" json:"teacher_id"`
	Unavailable types.JSONText `db:"unavailable" json:"unavailable"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}
