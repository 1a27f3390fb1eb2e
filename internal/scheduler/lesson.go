package scheduler

import "fmt"

// LessonKind distinguishes class lessons from teacher meetings.
type LessonKind string

const (
	KindRegular LessonKind = "regular"
	KindMeeting LessonKind = "meeting"
)

// Target is the tagged part of a lesson: either Regular or Meeting.
type Target interface {
	kind() LessonKind
	teachers() []string
}

// Regular is a lesson taught to one class by at most one teacher.
type Regular struct {
	ClassID   string
	TeacherID string
}

func (Regular) kind() LessonKind { return KindRegular }

func (r Regular) teachers() []string {
	if r.TeacherID == "" {
		return nil
	}
	return []string{r.TeacherID}
}

// Meeting is a classless session attended by several teachers at once.
type Meeting struct {
	TeacherIDs []string
}

func (Meeting) kind() LessonKind { return KindMeeting }

func (m Meeting) teachers() []string { return m.TeacherIDs }

// Lesson is one weekly occurrence to be scheduled.
type Lesson struct {
	ID        string
	LoadID    string
	SubjectID string
	Duration  int
	Target    Target
}

// Class is a section that owns a row of the grid.
type Class struct {
	ID   string
	Name string
}

// Kind reports the lesson variant.
func (l Lesson) Kind() LessonKind {
	if l.Target == nil {
		return ""
	}
	return l.Target.kind()
}

// Teachers returns every teacher involved in the lesson.
func (l Lesson) Teachers() []string {
	if l.Target == nil {
		return nil
	}
	return l.Target.teachers()
}

// ClassID returns the owning class for regular lessons.
func (l Lesson) ClassID() (string, bool) {
	if r, ok := l.Target.(Regular); ok {
		return r.ClassID, true
	}
	return "", false
}

// TeacherID returns the single teacher of a regular lesson, if any.
func (l Lesson) TeacherID() string {
	if r, ok := l.Target.(Regular); ok {
		return r.TeacherID
	}
	return ""
}

func (l Lesson) validate(dims Dims) error {
	if l.ID == "" {
		return fmt.Errorf("%w: lesson id is required", ErrInvalidInput)
	}
	if l.Duration < 1 {
		return fmt.Errorf("%w: lesson %s has duration %d", ErrInvalidInput, l.ID, l.Duration)
	}
	switch t := l.Target.(type) {
	case Regular:
		if t.ClassID == "" {
			return fmt.Errorf("%w: lesson %s has no class", ErrInvalidInput, l.ID)
		}
	case Meeting:
		if len(t.TeacherIDs) == 0 {
			return fmt.Errorf("%w: meeting %s has no teachers", ErrInvalidInput, l.ID)
		}
	default:
		return fmt.Errorf("%w: lesson %s has no target", ErrInvalidInput, l.ID)
	}
	return nil
}

func (l Lesson) cell(classID string) *Cell {
	return &Cell{
		LessonID:  l.ID,
		LoadID:    l.LoadID,
		SubjectID: l.SubjectID,
		TeacherID: l.TeacherID(),
		ClassID:   classID,
		Duration:  l.Duration,
	}
}
