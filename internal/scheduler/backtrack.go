package scheduler

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/noah-isme/timetable-engine/pkg/cpsat"
)

// HeuristicEngine names the backtracking solver in stats.
const HeuristicEngine = "heuristic"

// HeuristicOptions tunes the backtracking solver. Zero budgets are unlimited.
type HeuristicOptions struct {
	TimeLimit     time.Duration
	MaxBacktracks int
	// MaxSubjectSlotsPerDay caps the slots one teacher gives one subject to
	// one class per day; 0 disables the cap.
	MaxSubjectSlotsPerDay int
	Domain                DomainOptions
}

// HeuristicSolver assigns regular lessons by most-constrained-first
// backtracking with forward checking.
type HeuristicSolver struct {
	opts HeuristicOptions
	now  func() time.Time
}

// NewHeuristicSolver returns a solver with the given budgets.
func NewHeuristicSolver(opts HeuristicOptions) *HeuristicSolver {
	return &HeuristicSolver{opts: opts, now: time.Now}
}

type subjectKey struct {
	classID   string
	subjectID string
	teacherID string
	day       int
}

// search holds the mutable state of one Solve call.
type search struct {
	dims       Dims
	grid       *Grid
	lessons    []Lesson
	domains    [][]int
	starts     []int
	teachers   *TeacherIndex
	load       map[subjectKey]int
	subjectCap int
	// related[i] lists lessons sharing a class or teacher with lesson i.
	related [][]int
}

// Solve places every lesson or reports why it could not. The returned error is
// reserved for malformed input.
func (s *HeuristicSolver) Solve(p Problem) (*Result, error) {
	began := s.now()
	grid, err := p.prepare()
	if err != nil {
		return nil, err
	}
	for _, lesson := range p.Lessons {
		if lesson.Kind() != KindRegular {
			return nil, fmt.Errorf("%w: lesson %s is a %s", ErrUnsupportedLesson, lesson.ID, lesson.Kind())
		}
	}

	stats := Stats{Engine: HeuristicEngine, Total: len(p.Lessons)}
	domains, err := BuildDomains(p.Lessons, p.Dims, s.opts.Domain)
	if err != nil {
		stats.Status = cpsat.StatusInfeasible
		stats.Elapsed = s.now().Sub(began)
		return failed(grid, p.Lessons, stats, err), nil
	}

	st := &search{
		dims:       p.Dims,
		grid:       grid,
		lessons:    p.Lessons,
		domains:    domains,
		starts:     make([]int, len(p.Lessons)),
		teachers:   NewTeacherIndex(nil),
		load:       make(map[subjectKey]int),
		subjectCap: s.opts.MaxSubjectSlotsPerDay,
		related:    relatedLessons(p.Lessons),
	}
	for i := range st.starts {
		st.starts[i] = -1
	}

	order := staticOrder(p.Lessons, domains)
	backtracks, cause := s.run(st, order, began)
	stats.Backtracks = backtracks
	stats.Elapsed = s.now().Sub(began)
	if cause != nil {
		if errors.Is(cause, ErrSearchExhausted) {
			stats.Status = cpsat.StatusInfeasible
		} else {
			stats.Status = cpsat.StatusUnknown
		}
		return failed(grid, p.Lessons, stats, cause), nil
	}

	res := &Result{Grid: grid, Starts: make(map[string]int, len(p.Lessons)), Stats: stats}
	for i, lesson := range p.Lessons {
		res.Starts[lesson.ID] = st.starts[i]
		res.Stats.AssignedSlots += lesson.Duration
	}
	res.Stats.Assigned = len(p.Lessons)
	res.Stats.Status = cpsat.StatusFeasible
	return res, nil
}

// staticOrder sorts lesson indices by ascending domain size, then descending
// duration, then input position.
func staticOrder(lessons []Lesson, domains [][]int) []int {
	order := make([]int, len(lessons))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		la, lb := order[a], order[b]
		if len(domains[la]) != len(domains[lb]) {
			return len(domains[la]) < len(domains[lb])
		}
		return lessons[la].Duration > lessons[lb].Duration
	})
	return order
}

func relatedLessons(lessons []Lesson) [][]int {
	byClass := make(map[string][]int)
	byTeacher := make(map[string][]int)
	for i, l := range lessons {
		classID, _ := l.ClassID()
		byClass[classID] = append(byClass[classID], i)
		if t := l.TeacherID(); t != "" {
			byTeacher[t] = append(byTeacher[t], i)
		}
	}
	related := make([][]int, len(lessons))
	for i, l := range lessons {
		seen := map[int]bool{i: true}
		classID, _ := l.ClassID()
		groups := [][]int{byClass[classID]}
		if t := l.TeacherID(); t != "" {
			groups = append(groups, byTeacher[t])
		}
		for _, group := range groups {
			for _, j := range group {
				if !seen[j] {
					seen[j] = true
					related[i] = append(related[i], j)
				}
			}
		}
	}
	return related
}

// run drives the iterative search. cursor[d] is the next domain position to
// try for the lesson at depth d.
func (s *HeuristicSolver) run(st *search, order []int, began time.Time) (int, error) {
	n := len(order)
	cursor := make([]int, n)
	backtracks := 0
	depth := 0

	for depth < n {
		if s.outOfTime(began) {
			return backtracks, ErrBudgetExhausted
		}
		li := order[depth]
		placed := false
		for cursor[depth] < len(st.domains[li]) {
			start := st.domains[li][cursor[depth]]
			cursor[depth]++
			if !st.fits(li, start) {
				continue
			}
			st.place(li, start)
			if st.forwardCheck(li) {
				placed = true
				break
			}
			st.unplace(li)
			if s.outOfTime(began) {
				return backtracks, ErrBudgetExhausted
			}
		}
		if placed {
			depth++
			if depth < n {
				cursor[depth] = 0
			}
			continue
		}

		cursor[depth] = 0
		depth--
		if depth < 0 {
			return backtracks, ErrSearchExhausted
		}
		if s.opts.MaxBacktracks > 0 && backtracks >= s.opts.MaxBacktracks {
			return backtracks, ErrBudgetExhausted
		}
		backtracks++
		st.unplace(order[depth])
	}
	return backtracks, nil
}

func (s *HeuristicSolver) outOfTime(began time.Time) bool {
	return s.opts.TimeLimit > 0 && s.now().Sub(began) >= s.opts.TimeLimit
}

func (st *search) subjectKey(li, start int) subjectKey {
	l := st.lessons[li]
	classID, _ := l.ClassID()
	return subjectKey{classID: classID, subjectID: l.SubjectID, teacherID: l.TeacherID(), day: st.dims.Day(start)}
}

func (st *search) fits(li, start int) bool {
	l := st.lessons[li]
	classID, _ := l.ClassID()
	if !st.grid.CanPlace(classID, start, l.Duration, nil) {
		return false
	}
	if !st.teachers.Free(l.Teachers(), start, l.Duration, nil) {
		return false
	}
	if st.subjectCap > 0 && st.load[st.subjectKey(li, start)]+l.Duration > st.subjectCap {
		return false
	}
	return true
}

func (st *search) place(li, start int) {
	l := st.lessons[li]
	classID, _ := l.ClassID()
	st.grid.Write(classID, start, *l.cell(classID))
	st.teachers.add(l.TeacherID(), classID, start, l.Duration)
	st.load[st.subjectKey(li, start)] += l.Duration
	st.starts[li] = start
}

func (st *search) unplace(li int) {
	start := st.starts[li]
	if start < 0 {
		return
	}
	l := st.lessons[li]
	classID, _ := l.ClassID()
	st.grid.Clear(classID, start, l.Duration)
	st.teachers.remove(l.TeacherID(), classID, start, l.Duration)
	key := st.subjectKey(li, start)
	st.load[key] -= l.Duration
	if st.load[key] <= 0 {
		delete(st.load, key)
	}
	st.starts[li] = -1
}

// forwardCheck reports whether every unplaced lesson related to li still has
// a feasible start.
func (st *search) forwardCheck(li int) bool {
	for _, j := range st.related[li] {
		if st.starts[j] >= 0 {
			continue
		}
		ok := false
		for _, start := range st.domains[j] {
			if st.fits(j, start) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}
