package scheduler

import (
	"errors"
	"fmt"
)

// SourceKind tells where an edited occurrence currently lives.
type SourceKind string

const (
	SourceGrid SourceKind = "grid"
	SourcePool SourceKind = "pool"
)

// Action is the edit operation.
type Action string

const (
	ActionMove   Action = "move"
	ActionRemove Action = "remove"
)

// Source identifies the occurrence being edited. Grid sources point at any
// one cell of a block; pool sources carry the unplaced lesson itself.
type Source struct {
	Kind    SourceKind
	ClassID string
	Index   int
	LoadID  string
	Lesson  *Lesson
}

// EditRequest is one move, swap or remove.
type EditRequest struct {
	Source Source
	Action Action
	Target *SlotRef
	Swap   bool
}

// Editor validates manual edits against a grid snapshot.
type Editor struct {
	blocked TeacherBlocks
}

// NewEditor returns an editor that also honours declared teacher
// unavailability; blocked may be nil.
func NewEditor(blocked TeacherBlocks) *Editor {
	return &Editor{blocked: blocked}
}

// occurrence is a recovered block.
type occurrence struct {
	classID string
	start   int
	length  int
	cell    Cell
}

func (o occurrence) slots() SlotSet { return blockSlots(o.classID, o.start, o.length) }

func (o occurrence) teachers() []string {
	if o.cell.TeacherID == "" {
		return nil
	}
	return []string{o.cell.TeacherID}
}

// edit carries the working copy and the teacher index built from it.
type edit struct {
	*Editor
	grid    *Grid
	teacher *TeacherIndex
}

// Apply validates req against g and returns the edited copy. g is never
// modified. Rejections are *EditError values.
func (e *Editor) Apply(g *Grid, req EditRequest) (*Grid, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if e == nil {
		e = &Editor{}
	}
	work := g.Clone()
	ed := &edit{Editor: e, grid: work, teacher: NewTeacherIndex(work)}

	var err error
	switch req.Source.Kind {
	case SourceGrid:
		err = ed.fromGrid(req)
	case SourcePool:
		err = ed.fromPool(req)
	default:
		err = reject(RejectInvalidRequest, "unknown source %q", req.Source.Kind)
	}
	if err != nil {
		return nil, err
	}
	return work, nil
}

func (ed *edit) checkSlot(classID string, index int) error {
	if !ed.grid.HasClass(classID) {
		return reject(RejectUnknownClass, "class %s is not part of the timetable", classID)
	}
	if index < 0 || index >= ed.grid.Dims.Total() {
		return reject(RejectIndexOutOfBounds, "slot %d is outside 0..%d", index, ed.grid.Dims.Total()-1)
	}
	return nil
}

func (ed *edit) fromGrid(req EditRequest) error {
	src := req.Source
	if err := ed.checkSlot(src.ClassID, src.Index); err != nil {
		return err
	}
	cell := ed.grid.At(src.ClassID, src.Index)
	if cell == nil {
		if req.Action == ActionRemove {
			return reject(RejectNothingToRemove, "slot %d of class %s is empty", src.Index, src.ClassID)
		}
		return reject(RejectSourceMismatch, "slot %d of class %s is empty", src.Index, src.ClassID)
	}
	if src.LoadID != "" && cell.LoadID != src.LoadID {
		return reject(RejectSourceMismatch, "slot %d of class %s holds %s, not %s", src.Index, src.ClassID, cell.LoadID, src.LoadID)
	}
	start, length, _ := ed.grid.FindBlock(src.ClassID, src.Index)
	occ := occurrence{classID: src.ClassID, start: start, length: length, cell: *cell}

	switch req.Action {
	case ActionRemove:
		ed.grid.Clear(occ.classID, occ.start, occ.length)
		return nil
	case ActionMove:
		if req.Target == nil {
			return reject(RejectInvalidRequest, "move needs a target")
		}
		if err := ed.checkSlot(req.Target.ClassID, req.Target.Index); err != nil {
			return err
		}
		if req.Swap {
			if tStart, tLen, ok := ed.grid.FindBlock(req.Target.ClassID, req.Target.Index); ok {
				other := occurrence{
					classID: req.Target.ClassID,
					start:   tStart,
					length:  tLen,
					cell:    *ed.grid.At(req.Target.ClassID, req.Target.Index),
				}
				return ed.swap(occ, other)
			}
		}
		return ed.move(occ, *req.Target)
	default:
		return reject(RejectInvalidRequest, "unknown action %q", req.Action)
	}
}

func (ed *edit) fromPool(req EditRequest) error {
	lesson := req.Source.Lesson
	if lesson == nil {
		return reject(RejectInvalidRequest, "pool source needs a lesson")
	}
	if req.Action == ActionRemove {
		return reject(RejectNothingToRemove, "lesson %s is not on the timetable", lesson.ID)
	}
	if req.Action != ActionMove {
		return reject(RejectInvalidRequest, "unknown action %q", req.Action)
	}
	if lesson.Kind() == KindMeeting {
		return reject(RejectMeetingOnGrid, "meeting %s has no class row", lesson.ID)
	}
	if lesson.Duration < 1 {
		return reject(RejectInvalidRequest, "lesson %s has duration %d", lesson.ID, lesson.Duration)
	}
	if req.Swap {
		return reject(RejectInvalidRequest, "an unplaced lesson cannot be swapped")
	}
	if req.Target == nil {
		return reject(RejectInvalidRequest, "move needs a target")
	}
	if err := ed.checkSlot(req.Target.ClassID, req.Target.Index); err != nil {
		return err
	}
	for classID, row := range ed.grid.Classes {
		for i, cell := range row {
			if cell != nil && cell.LessonID == lesson.ID {
				return reject(RejectDuplicatePlaced, "lesson %s is already placed in class %s at slot %d", lesson.ID, classID, i)
			}
		}
	}
	occ := occurrence{classID: "", start: -1, length: lesson.Duration, cell: *lesson.cell(req.Target.ClassID)}
	return ed.move(occ, *req.Target)
}

// move relocates occ (or places it, for pool lessons with start -1).
func (ed *edit) move(occ occurrence, target SlotRef) error {
	var own SlotSet
	if occ.start >= 0 {
		own = occ.slots()
	}
	if ed.grid.IsOccupied(target.ClassID, target.Index) && !own.Has(target.ClassID, target.Index) {
		return reject(RejectTargetOccupied, "slot %d of class %s is already taken", target.Index, target.ClassID)
	}
	if err := ed.placeable(occ, target.ClassID, target.Index, own); err != nil {
		return err
	}
	if occ.start >= 0 {
		ed.grid.Clear(occ.classID, occ.start, occ.length)
	}
	ed.write(occ, target.ClassID, target.Index)
	return nil
}

// swap exchanges two blocks; both directions must validate before either is
// written.
func (ed *edit) swap(a, b occurrence) error {
	if a.classID == b.classID && a.start == b.start {
		return reject(RejectInvalidRequest, "an occurrence cannot be swapped with itself")
	}
	if a.length != b.length {
		return reject(RejectSwapInfeasible, "%s spans %d slot(s) and %s spans %d; only occurrences of equal length can be swapped",
			a.cell.LoadID, a.length, b.cell.LoadID, b.length)
	}
	vacated := a.slots().Union(b.slots())
	if err := ed.placeable(a, b.classID, b.start, vacated); err != nil {
		return swapFailure(err)
	}
	if err := ed.placeable(b, a.classID, a.start, vacated); err != nil {
		return swapFailure(err)
	}
	if sharesTeacher(a.teachers(), b.teachers()) && a.classID != b.classID &&
		overlaps(b.start, a.length, a.start, b.length) {
		return reject(RejectTeacherConflict, "teacher %s would teach both swapped occurrences at once", a.cell.TeacherID)
	}

	ed.grid.Clear(a.classID, a.start, a.length)
	ed.grid.Clear(b.classID, b.start, b.length)
	ed.write(a, b.classID, b.start)
	ed.write(b, a.classID, a.start)
	return nil
}

func swapFailure(err error) error {
	var ee *EditError
	if errors.As(err, &ee) && ee.Code != RejectTeacherConflict && ee.Code != RejectTeacherBlocked {
		return reject(RejectSwapInfeasible, "%s", ee.Reason)
	}
	return err
}

// placeable checks day containment, class occupancy and teacher availability
// for occ at (classID, start), treating ignore as vacated.
func (ed *edit) placeable(occ occurrence, classID string, start int, ignore SlotSet) error {
	if !ed.grid.Dims.Fits(start, occ.length) {
		return reject(RejectOutOfDay, "%d slot(s) from slot %d cross the end of the day", occ.length, start)
	}
	if !ed.grid.CanPlace(classID, start, occ.length, ignore) {
		return reject(RejectSlotTaken, "class %s is busy within slots %d..%d", classID, start, start+occ.length-1)
	}
	teachers := occ.teachers()
	for _, ref := range ed.teacher.Conflicts(teachers, start, occ.length, ignore) {
		other := ed.grid.At(ref.ClassID, ref.Index)
		if other != nil && other.sameLesson(&occ.cell) {
			continue
		}
		return reject(RejectTeacherConflict, "teacher %s already teaches class %s at slot %d", occ.cell.TeacherID, ref.ClassID, ref.Index)
	}
	for _, t := range teachers {
		for i := start; i < start+occ.length; i++ {
			if ed.blocked.Blocked(t, i) {
				return reject(RejectTeacherBlocked, "teacher %s is unavailable at slot %d", t, i)
			}
		}
	}
	return nil
}

func (ed *edit) write(occ occurrence, classID string, start int) {
	cell := occ.cell
	cell.Duration = occ.length
	ed.grid.Write(classID, start, cell)
}

func sharesTeacher(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

func overlaps(startA, lenA, startB, lenB int) bool {
	return startA < startB+lenB && startB < startA+lenA
}

// String renders the request for logs.
func (r EditRequest) String() string {
	switch r.Source.Kind {
	case SourcePool:
		id := ""
		if r.Source.Lesson != nil {
			id = r.Source.Lesson.ID
		}
		return fmt.Sprintf("%s pool:%s -> %v swap=%t", r.Action, id, r.Target, r.Swap)
	default:
		return fmt.Sprintf("%s %s[%d] -> %v swap=%t", r.Action, r.Source.ClassID, r.Source.Index, r.Target, r.Swap)
	}
}
