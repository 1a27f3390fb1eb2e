package scheduler

// TeacherIndex maps each teacher to the class slots they currently teach.
// The editor builds one per request from its snapshot; the heuristic solver
// keeps one in step with its placements.
type TeacherIndex struct {
	busy map[string]map[int][]SlotRef
}

// NewTeacherIndex indexes every teacher-bearing cell of g.
func NewTeacherIndex(g *Grid) *TeacherIndex {
	idx := &TeacherIndex{busy: make(map[string]map[int][]SlotRef)}
	if g == nil {
		return idx
	}
	for classID, row := range g.Classes {
		for i, cell := range row {
			if cell == nil || cell.TeacherID == "" {
				continue
			}
			idx.add(cell.TeacherID, classID, i, 1)
		}
	}
	return idx
}

func (x *TeacherIndex) add(teacherID, classID string, start, duration int) {
	if teacherID == "" {
		return
	}
	slots, ok := x.busy[teacherID]
	if !ok {
		slots = make(map[int][]SlotRef)
		x.busy[teacherID] = slots
	}
	for i := start; i < start+duration; i++ {
		slots[i] = append(slots[i], SlotRef{ClassID: classID, Index: i})
	}
}

func (x *TeacherIndex) remove(teacherID, classID string, start, duration int) {
	slots := x.busy[teacherID]
	if slots == nil {
		return
	}
	for i := start; i < start+duration; i++ {
		refs := slots[i]
		for j, ref := range refs {
			if ref.ClassID == classID {
				refs = append(refs[:j], refs[j+1:]...)
				break
			}
		}
		if len(refs) == 0 {
			delete(slots, i)
		} else {
			slots[i] = refs
		}
	}
}

// Free reports whether none of teachers has a cell in [start, start+duration)
// outside of ignore.
func (x *TeacherIndex) Free(teachers []string, start, duration int, ignore SlotSet) bool {
	for _, teacherID := range teachers {
		slots := x.busy[teacherID]
		if slots == nil {
			continue
		}
		for i := start; i < start+duration; i++ {
			for _, ref := range slots[i] {
				if !ignore.Has(ref.ClassID, ref.Index) {
					return false
				}
			}
		}
	}
	return true
}

// Conflicts lists the class slots that clash with teachers in the range.
func (x *TeacherIndex) Conflicts(teachers []string, start, duration int, ignore SlotSet) []SlotRef {
	var out []SlotRef
	for _, teacherID := range teachers {
		for i := start; i < start+duration; i++ {
			for _, ref := range x.busy[teacherID][i] {
				if !ignore.Has(ref.ClassID, ref.Index) {
					out = append(out, ref)
				}
			}
		}
	}
	return out
}
