package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/noah-isme/timetable-engine/pkg/cpsat"
)

// ExactOptions configures the constraint-model solver.
type ExactOptions struct {
	// Engine is the cpsat registry name of the backend.
	Engine                string
	TimeLimit             time.Duration
	Workers               int
	MaxSubjectSlotsPerDay int
	MaxMeetingsPerDay     int
	Domain                DomainOptions
}

// ExactSolver encodes the timetable as a boolean model with optional
// intervals and hands it to a cpsat engine.
type ExactSolver struct {
	opts   ExactOptions
	lookup func(name string) (cpsat.Engine, error)
}

// NewExactSolver returns a solver resolving engines from the cpsat registry.
func NewExactSolver(opts ExactOptions) *ExactSolver {
	return &ExactSolver{opts: opts, lookup: cpsat.Lookup}
}

// WithEngine bypasses the registry.
func (s *ExactSolver) WithEngine(engine cpsat.Engine) *ExactSolver {
	clone := *s
	clone.lookup = func(string) (cpsat.Engine, error) { return engine, nil }
	clone.opts.Engine = engine.Name()
	return &clone
}

type choice struct {
	start    int
	v        cpsat.BoolVar
	interval cpsat.Interval
}

type meetingKey struct {
	teacherID string
	day       int
}

// Solve builds and solves the model. Expected failures land in Result.Failure.
func (s *ExactSolver) Solve(ctx context.Context, p Problem) (*Result, error) {
	began := time.Now()
	grid, err := p.prepare()
	if err != nil {
		return nil, err
	}
	stats := Stats{Engine: s.opts.Engine, Total: len(p.Lessons), Status: cpsat.StatusUnknown}
	fail := func(cause error) (*Result, error) {
		stats.Elapsed = time.Since(began)
		return failed(grid, p.Lessons, stats, cause), nil
	}

	engine, err := s.lookup(s.opts.Engine)
	if err != nil {
		return fail(fmt.Errorf("%w: %v", ErrEngineUnavailable, err))
	}
	model, ok := engine.NewModel().(cpsat.IntervalModel)
	if !ok {
		return fail(fmt.Errorf("%w: engine %s has no interval support", ErrEngineIncompatible, engine.Name()))
	}

	domains, err := BuildDomains(p.Lessons, p.Dims, s.opts.Domain)
	if err != nil {
		stats.Status = cpsat.StatusInfeasible
		return fail(err)
	}

	choices := s.encode(model, p, domains)

	sol, err := engine.Solve(ctx, model, cpsat.Params{TimeLimit: s.opts.TimeLimit, Workers: s.opts.Workers})
	if err != nil {
		if errors.Is(err, cpsat.ErrForeignModel) {
			return fail(fmt.Errorf("%w: %v", ErrEngineIncompatible, err))
		}
		if ctx.Err() != nil {
			return fail(fmt.Errorf("%w: %v", ErrSolverTimeout, err))
		}
		return fail(fmt.Errorf("%w: %v", ErrEngineIncompatible, err))
	}
	stats.Status = sol.Status()
	switch sol.Status() {
	case cpsat.StatusOptimal, cpsat.StatusFeasible:
	case cpsat.StatusInfeasible:
		return fail(ErrSolverInfeasible)
	case cpsat.StatusModelInvalid:
		return fail(fmt.Errorf("%w: engine rejected the model", ErrEngineIncompatible))
	default:
		return fail(ErrSolverTimeout)
	}

	return s.extract(grid, p, choices, sol, stats, began), nil
}

func (s *ExactSolver) encode(model cpsat.IntervalModel, p Problem, domains [][]int) [][]choice {
	choices := make([][]choice, len(p.Lessons))
	byClass := make(map[string][]cpsat.Interval)
	byTeacher := make(map[string][]cpsat.Interval)
	subjectTerms := make(map[subjectKey][]cpsat.Term)
	meetingTerms := make(map[meetingKey][]cpsat.Term)
	var subjectOrder []subjectKey
	var meetingOrder []meetingKey

	for i, lesson := range p.Lessons {
		vars := make([]cpsat.BoolVar, 0, len(domains[i]))
		for _, start := range domains[i] {
			v := model.NewBool(fmt.Sprintf("%s@%d", lesson.ID, start))
			iv := model.NewOptionalInterval(start, lesson.Duration, v)
			choices[i] = append(choices[i], choice{start: start, v: v, interval: iv})
			vars = append(vars, v)

			for _, t := range lesson.Teachers() {
				byTeacher[t] = append(byTeacher[t], iv)
			}
			day := p.Dims.Day(start)
			switch target := lesson.Target.(type) {
			case Regular:
				byClass[target.ClassID] = append(byClass[target.ClassID], iv)
				if s.opts.MaxSubjectSlotsPerDay > 0 {
					key := subjectKey{classID: target.ClassID, subjectID: lesson.SubjectID, teacherID: target.TeacherID, day: day}
					if _, ok := subjectTerms[key]; !ok {
						subjectOrder = append(subjectOrder, key)
					}
					subjectTerms[key] = append(subjectTerms[key], cpsat.Term{Var: v, Coef: lesson.Duration})
				}
			case Meeting:
				if s.opts.MaxMeetingsPerDay > 0 {
					for _, t := range target.TeacherIDs {
						key := meetingKey{teacherID: t, day: day}
						if _, ok := meetingTerms[key]; !ok {
							meetingOrder = append(meetingOrder, key)
						}
						meetingTerms[key] = append(meetingTerms[key], cpsat.Term{Var: v, Coef: 1})
					}
				}
			}
		}
		model.AddExactlyOne(vars...)
	}

	for _, key := range sortedKeys(byClass) {
		if len(byClass[key]) > 1 {
			model.AddNoOverlap(byClass[key]...)
		}
	}
	for _, key := range sortedKeys(byTeacher) {
		if len(byTeacher[key]) > 1 {
			model.AddNoOverlap(byTeacher[key]...)
		}
	}
	for _, key := range subjectOrder {
		model.AddLinearAtMost(subjectTerms[key], s.opts.MaxSubjectSlotsPerDay)
	}
	for _, key := range meetingOrder {
		model.AddLinearAtMost(meetingTerms[key], s.opts.MaxMeetingsPerDay)
	}
	return choices
}

func (s *ExactSolver) extract(grid *Grid, p Problem, choices [][]choice, sol cpsat.Solution, stats Stats, began time.Time) *Result {
	res := &Result{Grid: grid, Starts: make(map[string]int, len(p.Lessons))}
	for i, lesson := range p.Lessons {
		start := -1
		for _, c := range choices[i] {
			if sol.Value(c.v) {
				start = c.start
				break
			}
		}
		if start < 0 {
			res.Unplaced = append(res.Unplaced, lesson.ID)
			continue
		}
		switch target := lesson.Target.(type) {
		case Regular:
			if !grid.CanPlace(target.ClassID, start, lesson.Duration, nil) ||
				!grid.TeacherFree(lesson.Teachers(), start, lesson.Duration, nil) {
				res.Unplaced = append(res.Unplaced, lesson.ID)
				continue
			}
			grid.Write(target.ClassID, start, *lesson.cell(target.ClassID))
			stats.AssignedSlots += lesson.Duration
		case Meeting:
			res.Meetings = append(res.Meetings, MeetingAssignment{
				LessonID:   lesson.ID,
				Slot:       start,
				TeacherIDs: append([]string(nil), target.TeacherIDs...),
				Duration:   lesson.Duration,
			})
		}
		res.Starts[lesson.ID] = start
		stats.Assigned++
	}
	stats.Elapsed = time.Since(began)
	res.Stats = stats

	if len(res.Unplaced) > 0 {
		for classID := range grid.Classes {
			grid.Clear(classID, 0, grid.Dims.Total())
		}
		res.Starts = map[string]int{}
		res.Meetings = nil
		res.Failure = fmt.Errorf("%w: engine left %d lesson(s) unplaced", ErrEngineIncompatible, len(res.Unplaced))
	}
	return res
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
