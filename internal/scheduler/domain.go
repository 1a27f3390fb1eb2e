package scheduler

import "fmt"

// TeacherBlocks records the slots each teacher declared unavailable.
type TeacherBlocks map[string]map[int]bool

// Block marks slots as unavailable for a teacher.
func (b TeacherBlocks) Block(teacherID string, slots ...int) {
	set, ok := b[teacherID]
	if !ok {
		set = make(map[int]bool, len(slots))
		b[teacherID] = set
	}
	for _, s := range slots {
		set[s] = true
	}
}

// Blocked reports whether the teacher is unavailable at slot.
func (b TeacherBlocks) Blocked(teacherID string, slot int) bool {
	return b[teacherID][slot]
}

// BlockMeetings marks every slot a placed meeting covers as unavailable for
// each of its attendees.
func (b TeacherBlocks) BlockMeetings(meetings []MeetingAssignment) {
	for _, m := range meetings {
		duration := m.Duration
		if duration < 1 {
			duration = 1
		}
		for _, teacherID := range m.TeacherIDs {
			for slot := m.Slot; slot < m.Slot+duration; slot++ {
				b.Block(teacherID, slot)
			}
		}
	}
}

// DomainOptions prunes candidate starts before any search.
type DomainOptions struct {
	Blocked TeacherBlocks
	// Forced pins lesson ids to a single start slot.
	Forced map[string]int
}

// BuildDomain returns the ascending start slots at which lesson fits inside one
// day without touching a blocked slot of any of its teachers.
func BuildDomain(lesson Lesson, dims Dims, opts DomainOptions) []int {
	teachers := lesson.Teachers()
	admissible := func(start int) bool {
		if !dims.Fits(start, lesson.Duration) {
			return false
		}
		for _, t := range teachers {
			for i := start; i < start+lesson.Duration; i++ {
				if opts.Blocked.Blocked(t, i) {
					return false
				}
			}
		}
		return true
	}

	if forced, ok := opts.Forced[lesson.ID]; ok {
		if admissible(forced) {
			return []int{forced}
		}
		return nil
	}

	var domain []int
	for start := 0; start < dims.Total(); start++ {
		if admissible(start) {
			domain = append(domain, start)
		}
	}
	return domain
}

// BuildDomains computes every lesson's domain in input order and stops at the
// first empty one.
func BuildDomains(lessons []Lesson, dims Dims, opts DomainOptions) ([][]int, error) {
	if err := dims.validate(); err != nil {
		return nil, err
	}
	domains := make([][]int, len(lessons))
	for i, lesson := range lessons {
		if lesson.Duration < 1 {
			return nil, fmt.Errorf("%w: lesson %s has duration %d", ErrInvalidInput, lesson.ID, lesson.Duration)
		}
		domains[i] = BuildDomain(lesson, dims, opts)
		if len(domains[i]) == 0 {
			return domains, &DomainError{LessonID: lesson.ID, Duration: lesson.Duration}
		}
	}
	return domains, nil
}
