package scheduler

import (
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/noah-isme/timetable-engine/pkg/cpsat"
)

// Problem is the input shared by both solvers.
type Problem struct {
	Dims    Dims
	Classes []Class
	Lessons []Lesson
}

// MeetingAssignment places a meeting, which never occupies a class row.
type MeetingAssignment struct {
	LessonID   string   `json:"lessonId"`
	Slot       int      `json:"slot"`
	TeacherIDs []string `json:"teacherIds"`
	Duration   int      `json:"duration"`
}

// Stats summarises a solve.
type Stats struct {
	Engine        string        `json:"engine"`
	Status        cpsat.Status  `json:"status"`
	Total         int           `json:"total"`
	Assigned      int           `json:"assigned"`
	AssignedSlots int           `json:"assignedSlots"`
	Backtracks    int           `json:"backtracks"`
	Elapsed       time.Duration `json:"elapsed"`
}

// Result is returned by every solver. Failure carries the expected failure
// kind; Grid is always non-nil and empty when Failure is set.
type Result struct {
	Grid     *Grid               `json:"grid"`
	Starts   map[string]int      `json:"starts"`
	Meetings []MeetingAssignment `json:"meetings,omitempty"`
	Unplaced []string            `json:"unplaced,omitempty"`
	Stats    Stats               `json:"stats"`
	Failure  error               `json:"-"`
}

// Solved reports whether every lesson was placed.
func (r *Result) Solved() bool { return r != nil && r.Failure == nil }

// prepare validates the problem and returns an empty grid sized for it.
func (p Problem) prepare() (*Grid, error) {
	grid, err := NewGrid(p.Dims, p.Classes)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(p.Lessons))
	for _, lesson := range p.Lessons {
		if err := lesson.validate(p.Dims); err != nil {
			return nil, err
		}
		if _, dup := seen[lesson.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate lesson id %s", ErrInvalidInput, lesson.ID)
		}
		seen[lesson.ID] = struct{}{}
		if classID, ok := lesson.ClassID(); ok && !grid.HasClass(classID) {
			return nil, fmt.Errorf("%w: lesson %s references unknown class %s", ErrInvalidInput, lesson.ID, classID)
		}
	}
	return grid, nil
}

func lessonIDs(lessons []Lesson) []string {
	return lo.Map(lessons, func(l Lesson, _ int) string { return l.ID })
}

// failed builds the result of an unsuccessful solve: nothing stays placed.
func failed(grid *Grid, lessons []Lesson, stats Stats, cause error) *Result {
	for classID := range grid.Classes {
		grid.Clear(classID, 0, grid.Dims.Total())
	}
	stats.Assigned = 0
	stats.AssignedSlots = 0
	return &Result{
		Grid:     grid,
		Starts:   map[string]int{},
		Unplaced: lessonIDs(lessons),
		Stats:    stats,
		Failure:  cause,
	}
}
