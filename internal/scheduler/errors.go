package scheduler

import (
	"errors"
	"fmt"
)

// Failure kinds. Solvers report expected outcomes through Result.Failure and
// reserve the returned error for malformed input.
var (
	ErrInvalidInput       = errors.New("invalid scheduling input")
	ErrUnsupportedLesson  = errors.New("lesson kind not supported by this solver")
	ErrInfeasibleDomain   = errors.New("lesson has no valid start slot")
	ErrBudgetExhausted    = errors.New("search budget exhausted")
	ErrSearchExhausted    = errors.New("search space exhausted without assignment")
	ErrEngineUnavailable  = errors.New("constraint engine unavailable")
	ErrEngineIncompatible = errors.New("constraint engine incompatible")
	ErrSolverInfeasible   = errors.New("constraint engine proved the model infeasible")
	ErrSolverTimeout      = errors.New("constraint engine ran out of time")
	ErrEditRejected       = errors.New("edit rejected")
)

// DomainError names the lesson whose domain came out empty.
type DomainError struct {
	LessonID string
	Duration int
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("lesson %s (duration %d) has no valid start slot", e.LessonID, e.Duration)
}

// Unwrap lets errors.Is match ErrInfeasibleDomain.
func (e *DomainError) Unwrap() error { return ErrInfeasibleDomain }

// Edit rejection codes.
const (
	RejectInvalidRequest   = "INVALID_REQUEST"
	RejectSourceMismatch   = "SOURCE_MISMATCH"
	RejectTargetOccupied   = "TARGET_OCCUPIED"
	RejectOutOfDay         = "CROSSES_DAY_BOUNDARY"
	RejectSlotTaken        = "SLOT_TAKEN"
	RejectTeacherConflict  = "TEACHER_CONFLICT"
	RejectTeacherBlocked   = "TEACHER_UNAVAILABLE"
	RejectSwapInfeasible   = "SWAP_INFEASIBLE"
	RejectDuplicatePlaced  = "ALREADY_PLACED"
	RejectMeetingOnGrid    = "MEETING_NOT_PLACEABLE"
	RejectNothingToRemove  = "NOTHING_TO_REMOVE"
	RejectUnknownClass     = "UNKNOWN_CLASS"
	RejectIndexOutOfBounds = "INDEX_OUT_OF_RANGE"
)

// EditError is a user-facing rejection of a single edit request.
type EditError struct {
	Code   string
	Reason string
}

func (e *EditError) Error() string {
	return fmt.Sprintf("edit rejected (%s): %s", e.Code, e.Reason)
}

// Unwrap lets errors.Is match ErrEditRejected.
func (e *EditError) Unwrap() error { return ErrEditRejected }

func reject(code, format string, args ...any) *EditError {
	return &EditError{Code: code, Reason: fmt.Sprintf(format, args...)}
}
