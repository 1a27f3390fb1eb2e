package scheduler

import (
	"fmt"
	"sort"
)

// Dims describes the weekly grid.
type Dims struct {
	Days        int `json:"days"`
	SlotsPerDay int `json:"slotsPerDay"`
}

// Total is the number of slots in one class row.
func (d Dims) Total() int { return d.Days * d.SlotsPerDay }

// Slot linearises a (day, period) pair.
func (d Dims) Slot(day, period int) int { return day*d.SlotsPerDay + period }

// Day returns the day a slot index falls on.
func (d Dims) Day(slot int) int { return slot / d.SlotsPerDay }

// Period returns the period-in-day of a slot index.
func (d Dims) Period(slot int) int { return slot % d.SlotsPerDay }

// Fits reports whether duration slots starting at start stay inside one day.
func (d Dims) Fits(start, duration int) bool {
	if duration < 1 || start < 0 || start >= d.Total() {
		return false
	}
	return d.Period(start)+duration <= d.SlotsPerDay
}

func (d Dims) validate() error {
	if d.Days < 1 || d.SlotsPerDay < 1 {
		return fmt.Errorf("%w: grid needs at least one day and one slot per day (got %dx%d)", ErrInvalidInput, d.Days, d.SlotsPerDay)
	}
	return nil
}

// Cell is the materialised assignment stored in one grid slot.
type Cell struct {
	LessonID  string `json:"lessonId,omitempty"`
	LoadID    string `json:"loadId"`
	SubjectID string `json:"subjectId"`
	TeacherID string `json:"teacherId,omitempty"`
	ClassID   string `json:"classId"`
	Duration  int    `json:"duration"`
}

// SlotRef addresses one slot of one class row.
type SlotRef struct {
	ClassID string `json:"classId"`
	Index   int    `json:"index"`
}

// SlotSet is a set of class-qualified slots; the nil set is empty.
type SlotSet map[SlotRef]struct{}

// Has reports membership.
func (s SlotSet) Has(classID string, index int) bool {
	if s == nil {
		return false
	}
	_, ok := s[SlotRef{ClassID: classID, Index: index}]
	return ok
}

// Union returns a new set holding the members of both sets.
func (s SlotSet) Union(other SlotSet) SlotSet {
	out := make(SlotSet, len(s)+len(other))
	for k := range s {
		out[k] = struct{}{}
	}
	for k := range other {
		out[k] = struct{}{}
	}
	return out
}

func blockSlots(classID string, start, length int) SlotSet {
	set := make(SlotSet, length)
	for i := start; i < start+length; i++ {
		set[SlotRef{ClassID: classID, Index: i}] = struct{}{}
	}
	return set
}

// Block is one contiguous occurrence inside a class row.
type Block struct {
	ClassID string `json:"classId"`
	Start   int    `json:"start"`
	Length  int    `json:"length"`
	Cell    Cell   `json:"cell"`
}

// Grid maps each class to its row of Dims.Total() slots; nil marks an empty slot.
type Grid struct {
	Dims    Dims               `json:"dims"`
	Classes map[string][]*Cell `json:"classes"`
}

// NewGrid returns an empty grid pre-sized for every class.
func NewGrid(dims Dims, classes []Class) (*Grid, error) {
	if err := dims.validate(); err != nil {
		return nil, err
	}
	g := &Grid{Dims: dims, Classes: make(map[string][]*Cell, len(classes))}
	for _, class := range classes {
		if class.ID == "" {
			return nil, fmt.Errorf("%w: class id is required", ErrInvalidInput)
		}
		if _, dup := g.Classes[class.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate class %s", ErrInvalidInput, class.ID)
		}
		g.Classes[class.ID] = make([]*Cell, dims.Total())
	}
	return g, nil
}

// Validate checks the shape of an externally supplied snapshot.
func (g *Grid) Validate() error {
	if g == nil {
		return fmt.Errorf("%w: grid is required", ErrInvalidInput)
	}
	if err := g.Dims.validate(); err != nil {
		return err
	}
	for classID, row := range g.Classes {
		if len(row) != g.Dims.Total() {
			return fmt.Errorf("%w: class %s has %d slots, want %d", ErrInvalidInput, classID, len(row), g.Dims.Total())
		}
	}
	return nil
}

// HasClass reports whether the class owns a row.
func (g *Grid) HasClass(classID string) bool {
	_, ok := g.Classes[classID]
	return ok
}

// ClassIDs returns the class ids in sorted order.
func (g *Grid) ClassIDs() []string {
	ids := make([]string, 0, len(g.Classes))
	for id := range g.Classes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// At returns the cell at a slot, or nil when empty or out of range.
func (g *Grid) At(classID string, index int) *Cell {
	row, ok := g.Classes[classID]
	if !ok || index < 0 || index >= len(row) {
		return nil
	}
	return row[index]
}

// IsOccupied reports whether the slot holds a cell.
func (g *Grid) IsOccupied(classID string, slot int) bool {
	return g.At(classID, slot) != nil
}

// CanPlace checks day containment and that every slot of the range is free,
// treating slots in ignore as free.
func (g *Grid) CanPlace(classID string, start, duration int, ignore SlotSet) bool {
	if !g.HasClass(classID) || !g.Dims.Fits(start, duration) {
		return false
	}
	for i := start; i < start+duration; i++ {
		if g.IsOccupied(classID, i) && !ignore.Has(classID, i) {
			return false
		}
	}
	return true
}

// TeacherFree scans every class row for a cell taught by any of teachers in
// the range, skipping slots in ignore.
func (g *Grid) TeacherFree(teachers []string, start, duration int, ignore SlotSet) bool {
	if len(teachers) == 0 {
		return true
	}
	wanted := make(map[string]struct{}, len(teachers))
	for _, t := range teachers {
		wanted[t] = struct{}{}
	}
	for classID, row := range g.Classes {
		for i := start; i < start+duration && i < len(row); i++ {
			cell := row[i]
			if cell == nil || cell.TeacherID == "" || ignore.Has(classID, i) {
				continue
			}
			if _, hit := wanted[cell.TeacherID]; hit {
				return false
			}
		}
	}
	return true
}

// Write stores copies of cell into the range starting at start.
func (g *Grid) Write(classID string, start int, cell Cell) {
	row := g.Classes[classID]
	cell.ClassID = classID
	for i := start; i < start+cell.Duration && i < len(row); i++ {
		c := cell
		row[i] = &c
	}
}

// Clear empties length slots starting at start.
func (g *Grid) Clear(classID string, start, length int) {
	row := g.Classes[classID]
	for i := start; i < start+length && i < len(row); i++ {
		if i >= 0 {
			row[i] = nil
		}
	}
}

// sameOccurrence reports whether slots i-1 and i can belong to one
// occurrence: same day and same load, and the same lesson when both cells
// name one.
func (g *Grid) sameOccurrence(row []*Cell, i int) bool {
	if i <= 0 || i >= len(row) || row[i] == nil || row[i-1] == nil {
		return false
	}
	if g.Dims.Day(i) != g.Dims.Day(i-1) {
		return false
	}
	return row[i-1].sameLesson(row[i])
}

// sameLesson compares load ids, and lesson ids when both cells carry one.
func (c *Cell) sameLesson(other *Cell) bool {
	if c.LoadID != other.LoadID {
		return false
	}
	return c.LessonID == "" || other.LessonID == "" || c.LessonID == other.LessonID
}

// FindBlock recovers the start and length of the occurrence covering index.
// A run of same-load cells longer than the cells' duration holds several
// back-to-back sessions; it is cut into duration-sized blocks from the start
// of the run.
func (g *Grid) FindBlock(classID string, index int) (start, length int, ok bool) {
	row, exists := g.Classes[classID]
	if !exists || index < 0 || index >= len(row) || row[index] == nil {
		return 0, 0, false
	}
	runStart := index
	for g.sameOccurrence(row, runStart) {
		runStart--
	}
	runEnd := index
	for g.sameOccurrence(row, runEnd+1) {
		runEnd++
	}

	start = runStart
	for {
		length = row[start].Duration
		if length < 1 || start+length > runEnd+1 {
			length = runEnd + 1 - start
		}
		if index < start+length {
			return start, length, true
		}
		start += length
	}
}

// Blocks lists the occurrences of one class row in slot order.
func (g *Grid) Blocks(classID string) []Block {
	row := g.Classes[classID]
	var blocks []Block
	for i := 0; i < len(row); {
		if row[i] == nil {
			i++
			continue
		}
		start, length, _ := g.FindBlock(classID, i)
		blocks = append(blocks, Block{ClassID: classID, Start: start, Length: length, Cell: *row[i]})
		i = start + length
	}
	return blocks
}

// Clone returns a deep copy.
func (g *Grid) Clone() *Grid {
	out := &Grid{Dims: g.Dims, Classes: make(map[string][]*Cell, len(g.Classes))}
	for classID, row := range g.Classes {
		copied := make([]*Cell, len(row))
		for i, cell := range row {
			if cell != nil {
				c := *cell
				copied[i] = &c
			}
		}
		out.Classes[classID] = copied
	}
	return out
}

// Equal compares two grids slot by slot.
func (g *Grid) Equal(other *Grid) bool {
	if g == nil || other == nil {
		return g == other
	}
	if g.Dims != other.Dims || len(g.Classes) != len(other.Classes) {
		return false
	}
	for classID, row := range g.Classes {
		otherRow, ok := other.Classes[classID]
		if !ok || len(row) != len(otherRow) {
			return false
		}
		for i := range row {
			a, b := row[i], otherRow[i]
			if (a == nil) != (b == nil) {
				return false
			}
			if a != nil && *a != *b {
				return false
			}
		}
	}
	return true
}

// FilledSlots counts occupied slots over every class.
func (g *Grid) FilledSlots() int {
	n := 0
	for _, row := range g.Classes {
		for _, cell := range row {
			if cell != nil {
				n++
			}
		}
	}
	return n
}
