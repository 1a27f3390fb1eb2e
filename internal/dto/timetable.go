package dto

import (
	"time"

	"github.com/noah-isme/timetable-engine/internal/scheduler"
)

// Solve strategies.
const (
	StrategyAuto      = "auto"
	StrategyHeuristic = "heuristic"
	StrategyExact     = "exact"
)

// ClassRequest names one class row of the grid.
type ClassRequest struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name"`
}

// LoadRequest is an academic load: a subject taught to a class (or a
// teacher meeting) a number of times per week.
type LoadRequest struct {
	LoadID            string   `json:"loadId" validate:"required"`
	Kind              string   `json:"kind" validate:"omitempty,oneof=regular meeting"`
	ClassID           string   `json:"classId" validate:"required_unless=Kind meeting"`
	SubjectID         string   `json:"subjectId"`
	TeacherID         string   `json:"teacherId"`
	MeetingTeacherIDs []string `json:"meetingTeacherIds" validate:"required_if=Kind meeting,dive,required"`
	WeeklySessions    int      `json:"weeklySessions" validate:"required,min=1,max=64"`
	Duration          int      `json:"duration" validate:"omitempty,min=1,max=16"`
}

// BlockedSlotRequest marks slots a teacher cannot take.
type BlockedSlotRequest struct {
	TeacherID string `json:"teacherId" validate:"required"`
	Slots     []int  `json:"slots" validate:"required,min=1,dive,min=0"`
}

// GenerateTimetableRequest asks for a new proposal.
type GenerateTimetableRequest struct {
	Name                  string               `json:"name" validate:"omitempty,max=120"`
	Days                  int                  `json:"days" validate:"required,min=1,max=7"`
	SlotsPerDay           int                  `json:"slotsPerDay" validate:"required,min=1,max=16"`
	Classes               []ClassRequest       `json:"classes" validate:"required,min=1,max=256,dive"`
	Loads                 []LoadRequest        `json:"loads" validate:"required,min=1,max=4096,dive"`
	Blocked               []BlockedSlotRequest `json:"blocked" validate:"omitempty,dive"`
	Forced                map[string]int       `json:"forced" validate:"omitempty,dive,min=0"`
	Strategy              string               `json:"strategy" validate:"omitempty,oneof=auto heuristic exact"`
	Engine                string               `json:"engine"`
	TimeLimitMs           int                  `json:"timeLimitMs" validate:"omitempty,min=1,max=600000"`
	MaxBacktracks         int                  `json:"maxBacktracks" validate:"omitempty,min=1"`
	Workers               int                  `json:"workers" validate:"omitempty,min=1,max=64"`
	MaxSubjectSlotsPerDay int                  `json:"maxSubjectSlotsPerDay" validate:"omitempty,min=1"`
	MaxMeetingsPerDay     int                  `json:"maxMeetingsPerDay" validate:"omitempty,min=1"`
	IgnorePreferences     bool                 `json:"ignorePreferences"`
}

// SolveFailure explains why a proposal has no placement.
type SolveFailure struct {
	Kind     string `json:"kind"`
	Message  string `json:"message"`
	LessonID string `json:"lessonId,omitempty"`
}

// GenerateTimetableResponse is the outcome of a solve. Failed solves are
// still proposals: they carry an empty grid and the unplaced lesson ids.
type GenerateTimetableResponse struct {
	ProposalID string                        `json:"proposalId"`
	Strategy   string                        `json:"strategy"`
	Solved     bool                          `json:"solved"`
	Failure    *SolveFailure                 `json:"failure,omitempty"`
	Grid       *scheduler.Grid               `json:"grid"`
	Meetings   []scheduler.MeetingAssignment `json:"meetings,omitempty"`
	Unplaced   []string                      `json:"unplaced,omitempty"`
	Stats      scheduler.Stats               `json:"stats"`
	ExpiresAt  time.Time                     `json:"expiresAt"`
}

// LessonRequest is an unplaced lesson handed to the editor from the pool.
type LessonRequest struct {
	ID         string   `json:"id" validate:"required"`
	LoadID     string   `json:"loadId" validate:"required"`
	SubjectID  string   `json:"subjectId"`
	Kind       string   `json:"kind" validate:"omitempty,oneof=regular meeting"`
	ClassID    string   `json:"classId"`
	TeacherID  string   `json:"teacherId"`
	TeacherIDs []string `json:"teacherIds"`
	Duration   int      `json:"duration" validate:"required,min=1"`
}

// EditSourceRequest points at the occurrence being edited.
type EditSourceRequest struct {
	Kind    string         `json:"kind" validate:"required,oneof=grid pool"`
	ClassID string         `json:"classId" validate:"required_if=Kind grid"`
	Index   int            `json:"index" validate:"min=0"`
	LoadID  string         `json:"loadId"`
	Lesson  *LessonRequest `json:"lesson" validate:"required_if=Kind pool"`
}

// SlotRefRequest addresses one slot of a class row.
type SlotRefRequest struct {
	ClassID string `json:"classId" validate:"required"`
	Index   int    `json:"index" validate:"min=0"`
}

// EditTimetableRequest applies one edit to a stored proposal or, when
// ProposalID is empty, to the inline grid snapshot.
type EditTimetableRequest struct {
	ProposalID string               `json:"proposalId" validate:"required_without=Grid"`
	Grid       *scheduler.Grid      `json:"grid" validate:"required_without=ProposalID"`
	Blocked    []BlockedSlotRequest `json:"blocked" validate:"omitempty,dive"`
	// Meetings already placed alongside the inline grid; their attendees
	// are treated as busy in the covered slots.
	Meetings []scheduler.MeetingAssignment `json:"meetings"`
	Source   EditSourceRequest             `json:"source"`
	Action   string                        `json:"action" validate:"required,oneof=move remove"`
	Target   *SlotRefRequest               `json:"target" validate:"required_if=Action move"`
	Swap     bool                          `json:"swap"`
}

// EditTimetableResponse returns the accepted grid.
type EditTimetableResponse struct {
	ProposalID string          `json:"proposalId,omitempty"`
	Grid       *scheduler.Grid `json:"grid"`
}

// SaveTimetableRequest persists a solved proposal.
type SaveTimetableRequest struct {
	ProposalID string `json:"proposalId" validate:"required"`
	Name       string `json:"name" validate:"omitempty,max=120"`
}

// TimetableQuery filters the saved timetable list.
type TimetableQuery struct {
	Name     string `form:"name"`
	Status   string `form:"status" validate:"omitempty,oneof=DRAFT PUBLISHED ARCHIVED"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// TimetableDetail is a saved timetable with its grid rebuilt.
type TimetableDetail struct {
	ID        string                        `json:"id"`
	Name      string                        `json:"name"`
	Version   int                           `json:"version"`
	Status    string                        `json:"status"`
	Engine    string                        `json:"engine"`
	Grid      *scheduler.Grid               `json:"grid"`
	Meetings  []scheduler.MeetingAssignment `json:"meetings,omitempty"`
	CreatedAt time.Time                     `json:"createdAt"`
	UpdatedAt time.Time                     `json:"updatedAt"`
}

// Job states.
const (
	JobQueued    = "QUEUED"
	JobRunning   = "RUNNING"
	JobSucceeded = "SUCCEEDED"
	JobFailed    = "FAILED"
)

// JobResponse reports an asynchronous generate request.
type JobResponse struct {
	JobID     string                     `json:"jobId"`
	Status    string                     `json:"status"`
	Result    *GenerateTimetableResponse `json:"result,omitempty"`
	Error     string                     `json:"error,omitempty"`
	CreatedAt time.Time                  `json:"createdAt"`
	UpdatedAt time.Time                  `json:"updatedAt"`
}
