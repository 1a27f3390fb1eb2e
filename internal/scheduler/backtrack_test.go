package scheduler

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-engine/pkg/cpsat"
)

func TestHeuristicSolvePlacesSingleLessonAtFirstStart(t *testing.T) {
	lesson := regular("L", "A", "math", "", 2)
	res, err := NewHeuristicSolver(HeuristicOptions{}).Solve(Problem{
		Dims:    Dims{Days: 1, SlotsPerDay: 4},
		Classes: classes("A"),
		Lessons: []Lesson{lesson},
	})
	require.NoError(t, err)
	require.True(t, res.Solved())

	row := res.Grid.Classes["A"]
	require.NotNil(t, row[0])
	require.NotNil(t, row[1])
	assert.Nil(t, row[2])
	assert.Nil(t, row[3])
	assert.Equal(t, "L", row[0].LoadID)
	assert.Equal(t, "L", row[1].LoadID)
	assert.Equal(t, 0, res.Starts["L"])
	assert.Equal(t, 1, res.Stats.Assigned)
	assert.Equal(t, 2, res.Stats.AssignedSlots)
	assert.Equal(t, cpsat.StatusFeasible, res.Stats.Status)
	assert.Equal(t, HeuristicEngine, res.Stats.Engine)
}

func TestHeuristicSolveSeparatesSameTeacherLessons(t *testing.T) {
	lessons := []Lesson{
		regular("L1", "A", "math", "T1", 1),
		regular("L2", "A", "math", "T1", 1),
	}
	res, err := NewHeuristicSolver(HeuristicOptions{}).Solve(Problem{
		Dims:    Dims{Days: 1, SlotsPerDay: 4},
		Classes: classes("A"),
		Lessons: lessons,
	})
	require.NoError(t, err)
	require.True(t, res.Solved())
	assert.NotEqual(t, res.Starts["L1"], res.Starts["L2"])
	requireValidGrid(t, res.Grid)
	requireExactlyOnce(t, res, lessons)
}

func TestHeuristicSolveReportsInfeasibleDomainImmediately(t *testing.T) {
	res, err := NewHeuristicSolver(HeuristicOptions{}).Solve(Problem{
		Dims:    Dims{Days: 1, SlotsPerDay: 2},
		Classes: classes("A"),
		Lessons: []Lesson{regular("long", "A", "math", "", 3)},
	})
	require.NoError(t, err)
	require.False(t, res.Solved())
	assert.True(t, errors.Is(res.Failure, ErrInfeasibleDomain))

	var domainErr *DomainError
	require.True(t, errors.As(res.Failure, &domainErr))
	assert.Equal(t, "long", domainErr.LessonID)
	assert.Equal(t, 0, res.Stats.Backtracks)
	assert.Equal(t, []string{"long"}, res.Unplaced)
	assert.Equal(t, 0, res.Grid.FilledSlots())
}

func TestHeuristicSolveAvoidsCrossClassTeacherConflicts(t *testing.T) {
	lessons := []Lesson{
		regular("a1", "A", "math", "T1", 1),
		regular("b1", "B", "math", "T1", 1),
	}
	res, err := NewHeuristicSolver(HeuristicOptions{}).Solve(Problem{
		Dims:    Dims{Days: 1, SlotsPerDay: 2},
		Classes: classes("A", "B"),
		Lessons: lessons,
	})
	require.NoError(t, err)
	require.True(t, res.Solved())
	assert.Equal(t, 0, res.Starts["a1"])
	assert.Equal(t, 1, res.Starts["b1"])
	requireValidGrid(t, res.Grid)
}

func TestHeuristicSolveOrdersMostConstrainedFirst(t *testing.T) {
	// The three-slot lesson has the smaller domain and is placed first even
	// though it comes second in the input.
	lessons := []Lesson{
		regular("short", "A", "art", "", 1),
		regular("long", "A", "math", "", 3),
	}
	res, err := NewHeuristicSolver(HeuristicOptions{}).Solve(Problem{
		Dims:    Dims{Days: 1, SlotsPerDay: 4},
		Classes: classes("A"),
		Lessons: lessons,
	})
	require.NoError(t, err)
	require.True(t, res.Solved())
	assert.Equal(t, 0, res.Starts["long"])
	assert.Equal(t, 3, res.Starts["short"])
}

func TestHeuristicSolveStaticOrderTieBreaks(t *testing.T) {
	lessons := []Lesson{
		regular("a", "A", "x", "", 1),
		regular("b", "A", "x", "", 2),
		regular("c", "A", "x", "", 1),
	}
	domains := [][]int{{0, 1}, {0, 1}, {0}}
	assert.Equal(t, []int{2, 1, 0}, staticOrder(lessons, domains))
}

func pigeonholeProblem() Problem {
	return Problem{
		Dims:    Dims{Days: 1, SlotsPerDay: 2},
		Classes: classes("A", "B", "C"),
		Lessons: []Lesson{
			regular("x", "A", "math", "T1", 1),
			regular("y", "B", "math", "T1", 1),
			regular("z", "C", "math", "T1", 1),
		},
	}
}

func TestHeuristicSolveExhaustsSearchSpace(t *testing.T) {
	res, err := NewHeuristicSolver(HeuristicOptions{}).Solve(pigeonholeProblem())
	require.NoError(t, err)
	require.False(t, res.Solved())
	assert.True(t, errors.Is(res.Failure, ErrSearchExhausted))
	assert.Equal(t, 2, res.Stats.Backtracks)
	assert.Equal(t, cpsat.StatusInfeasible, res.Stats.Status)
	assert.Equal(t, 0, res.Grid.FilledSlots(), "failed solves return an empty grid")
	assert.ElementsMatch(t, []string{"x", "y", "z"}, res.Unplaced)
	assert.Empty(t, res.Starts)
}

func TestHeuristicSolveRespectsBacktrackBudget(t *testing.T) {
	res, err := NewHeuristicSolver(HeuristicOptions{MaxBacktracks: 1}).Solve(pigeonholeProblem())
	require.NoError(t, err)
	require.False(t, res.Solved())
	assert.True(t, errors.Is(res.Failure, ErrBudgetExhausted))
	assert.LessOrEqual(t, res.Stats.Backtracks, 1)
	assert.Equal(t, cpsat.StatusUnknown, res.Stats.Status)
	assert.Equal(t, 0, res.Grid.FilledSlots())
}

func TestHeuristicSolveRespectsTimeLimit(t *testing.T) {
	solver := NewHeuristicSolver(HeuristicOptions{TimeLimit: time.Millisecond})
	clock := time.Unix(0, 0)
	solver.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	res, err := solver.Solve(pigeonholeProblem())
	require.NoError(t, err)
	assert.True(t, errors.Is(res.Failure, ErrBudgetExhausted))
	assert.Equal(t, 0, res.Grid.FilledSlots())
}

func TestHeuristicSolveWallClockBudget(t *testing.T) {
	limit := 50 * time.Millisecond
	started := time.Now()
	res, err := NewHeuristicSolver(HeuristicOptions{TimeLimit: limit}).Solve(pigeonholeProblem())
	require.NoError(t, err)
	require.False(t, res.Solved())
	assert.Less(t, time.Since(started), limit+time.Second)
}

func TestHeuristicSolveSubjectDailyCap(t *testing.T) {
	lessons := []Lesson{
		regular("m1", "A", "math", "T1", 1),
		regular("m2", "A", "math", "T1", 1),
	}
	res, err := NewHeuristicSolver(HeuristicOptions{MaxSubjectSlotsPerDay: 1}).Solve(Problem{
		Dims:    Dims{Days: 2, SlotsPerDay: 2},
		Classes: classes("A"),
		Lessons: lessons,
	})
	require.NoError(t, err)
	require.True(t, res.Solved())
	assert.Equal(t, 0, res.Starts["m1"])
	assert.Equal(t, 2, res.Starts["m2"])
}

func TestHeuristicSolveHonoursBlockedTeacherSlots(t *testing.T) {
	blocked := TeacherBlocks{}
	blocked.Block("T1", 0, 1)
	res, err := NewHeuristicSolver(HeuristicOptions{Domain: DomainOptions{Blocked: blocked}}).Solve(Problem{
		Dims:    Dims{Days: 1, SlotsPerDay: 4},
		Classes: classes("A"),
		Lessons: []Lesson{regular("m1", "A", "math", "T1", 1)},
	})
	require.NoError(t, err)
	require.True(t, res.Solved())
	assert.Equal(t, 2, res.Starts["m1"])
}

func TestHeuristicSolveRejectsMalformedInput(t *testing.T) {
	solver := NewHeuristicSolver(HeuristicOptions{})

	_, err := solver.Solve(Problem{
		Dims:    Dims{Days: 1, SlotsPerDay: 4},
		Classes: classes("A"),
		Lessons: []Lesson{meeting("m", 1, "T1", "T2")},
	})
	assert.True(t, errors.Is(err, ErrUnsupportedLesson))

	_, err = solver.Solve(Problem{
		Dims:    Dims{Days: 1, SlotsPerDay: 4},
		Classes: classes("A"),
		Lessons: []Lesson{regular("l", "B", "math", "", 1)},
	})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = solver.Solve(Problem{
		Dims:    Dims{Days: 1, SlotsPerDay: 4},
		Classes: classes("A"),
		Lessons: []Lesson{regular("l", "A", "math", "", 1), regular("l", "A", "art", "", 1)},
	})
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func weeklyProblem() Problem {
	teachers := []string{"T1", "T2", "T3", "T4"}
	var lessons []Lesson
	for ci, classID := range []string{"A", "B", "C"} {
		for k := 0; k < 6; k++ {
			lessons = append(lessons, regular(
				fmt.Sprintf("%s-%d", classID, k),
				classID,
				fmt.Sprintf("subject-%d", k),
				teachers[(k+ci)%len(teachers)],
				1+k%2,
			))
		}
	}
	return Problem{Dims: Dims{Days: 5, SlotsPerDay: 6}, Classes: classes("A", "B", "C", "D"), Lessons: lessons}
}

func TestHeuristicSolveWeeklyProblemKeepsInvariants(t *testing.T) {
	p := weeklyProblem()
	res, err := NewHeuristicSolver(HeuristicOptions{MaxBacktracks: 1000, TimeLimit: 5 * time.Second}).Solve(p)
	require.NoError(t, err)
	require.True(t, res.Solved(), "failure: %v", res.Failure)
	assert.Equal(t, len(p.Lessons), res.Stats.Assigned)
	assert.Empty(t, res.Unplaced)
	assert.Empty(t, res.Grid.Blocks("D"), "classes without lessons keep an empty row")
	assert.Len(t, res.Grid.Classes["D"], 30)
	requireValidGrid(t, res.Grid)
	requireExactlyOnce(t, res, p.Lessons)
}
