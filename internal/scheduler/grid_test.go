package scheduler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGridRejectsBadInput(t *testing.T) {
	_, err := NewGrid(Dims{Days: 0, SlotsPerDay: 4}, classes("A"))
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = NewGrid(Dims{Days: 1, SlotsPerDay: 4}, classes("A", "A"))
	assert.True(t, errors.Is(err, ErrInvalidInput))

	g, err := NewGrid(Dims{Days: 2, SlotsPerDay: 3}, classes("A", "B"))
	require.NoError(t, err)
	assert.Len(t, g.Classes["A"], 6)
	assert.Len(t, g.Classes["B"], 6)
	assert.Equal(t, []string{"A", "B"}, g.ClassIDs())
}

func TestDimsSlotArithmetic(t *testing.T) {
	d := Dims{Days: 5, SlotsPerDay: 6}
	assert.Equal(t, 30, d.Total())
	assert.Equal(t, 14, d.Slot(2, 2))
	assert.Equal(t, 2, d.Day(14))
	assert.Equal(t, 2, d.Period(14))
	assert.True(t, d.Fits(4, 2))
	assert.False(t, d.Fits(5, 2))
	assert.False(t, d.Fits(30, 1))
	assert.False(t, d.Fits(0, 0))
}

func TestGridFindBlockRecoversBoundaries(t *testing.T) {
	g := mustGrid(t, Dims{Days: 2, SlotsPerDay: 4}, "A")
	place(g, regular("math", "A", "math", "", 2), 0)
	place(g, regular("art", "A", "art", "", 1), 2)
	// Same load on both sides of the day boundary stays two occurrences.
	g.Write("A", 3, Cell{LoadID: "pe", SubjectID: "pe", Duration: 1})
	g.Write("A", 4, Cell{LoadID: "pe", SubjectID: "pe", Duration: 1})

	start, length, ok := g.FindBlock("A", 1)
	require.True(t, ok)
	assert.Equal(t, 0, start)
	assert.Equal(t, 2, length)

	start, length, ok = g.FindBlock("A", 2)
	require.True(t, ok)
	assert.Equal(t, 2, start)
	assert.Equal(t, 1, length)

	start, length, _ = g.FindBlock("A", 4)
	assert.Equal(t, 4, start)
	assert.Equal(t, 1, length)

	_, _, ok = g.FindBlock("A", 7)
	assert.False(t, ok)

	blocks := g.Blocks("A")
	require.Len(t, blocks, 4)
	assert.Equal(t, "pe", blocks[3].Cell.LoadID)
}

func TestGridFindBlockSplitsBackToBackSessions(t *testing.T) {
	g := mustGrid(t, Dims{Days: 1, SlotsPerDay: 6}, "A")
	g.Write("A", 0, Cell{LessonID: "m#1", LoadID: "m", Duration: 2})
	g.Write("A", 2, Cell{LessonID: "m#2", LoadID: "m", Duration: 2})
	// Snapshots without lesson ids fall back to cutting the run by duration.
	g.Write("A", 4, Cell{LoadID: "pe", Duration: 1})
	g.Write("A", 5, Cell{LoadID: "pe", Duration: 1})

	start, length, ok := g.FindBlock("A", 1)
	require.True(t, ok)
	assert.Equal(t, []int{0, 2}, []int{start, length})

	start, length, _ = g.FindBlock("A", 2)
	assert.Equal(t, []int{2, 2}, []int{start, length})

	start, length, _ = g.FindBlock("A", 5)
	assert.Equal(t, []int{5, 1}, []int{start, length})

	assert.Len(t, g.Blocks("A"), 4)
}

func TestGridCanPlace(t *testing.T) {
	g := mustGrid(t, Dims{Days: 2, SlotsPerDay: 4}, "A")
	place(g, regular("math", "A", "math", "", 2), 1)

	assert.False(t, g.CanPlace("A", 0, 2, nil), "overlaps the existing block")
	assert.True(t, g.CanPlace("A", 0, 2, blockSlots("A", 1, 2)), "own slots are ignored")
	assert.False(t, g.CanPlace("A", 3, 2, nil), "crosses into the next day")
	assert.True(t, g.CanPlace("A", 4, 4, nil))
	assert.False(t, g.CanPlace("missing", 0, 1, nil))
}

func TestGridTeacherFree(t *testing.T) {
	g := mustGrid(t, Dims{Days: 1, SlotsPerDay: 4}, "A", "B")
	place(g, regular("a1", "A", "math", "T1", 2), 0)
	place(g, regular("b1", "B", "art", "T2", 1), 2)

	assert.False(t, g.TeacherFree([]string{"T1"}, 1, 1, nil))
	assert.True(t, g.TeacherFree([]string{"T1"}, 1, 1, blockSlots("A", 0, 2)))
	assert.True(t, g.TeacherFree([]string{"T1"}, 2, 2, nil))
	assert.False(t, g.TeacherFree([]string{"T3", "T2"}, 2, 1, nil))
	assert.True(t, g.TeacherFree(nil, 0, 4, nil))
}

func TestTeacherIndexAgreesWithFullScan(t *testing.T) {
	g := mustGrid(t, Dims{Days: 2, SlotsPerDay: 4}, "A", "B", "C")
	place(g, regular("a1", "A", "math", "T1", 2), 0)
	place(g, regular("a2", "A", "art", "T2", 1), 5)
	place(g, regular("b1", "B", "math", "T2", 3), 1)
	place(g, regular("c1", "C", "pe", "T3", 2), 6)

	idx := NewTeacherIndex(g)
	ignore := blockSlots("B", 1, 3)
	for _, teacher := range []string{"T1", "T2", "T3", "T4"} {
		for start := 0; start < g.Dims.Total(); start++ {
			for duration := 1; duration <= 2 && start+duration <= g.Dims.Total(); duration++ {
				ts := []string{teacher}
				assert.Equal(t, g.TeacherFree(ts, start, duration, nil), idx.Free(ts, start, duration, nil),
					"teacher %s start %d duration %d", teacher, start, duration)
				assert.Equal(t, g.TeacherFree(ts, start, duration, ignore), idx.Free(ts, start, duration, ignore),
					"teacher %s start %d duration %d with ignore", teacher, start, duration)
			}
		}
	}

	idx.remove("T2", "B", 1, 3)
	assert.True(t, idx.Free([]string{"T2"}, 1, 3, nil))
	idx.add("T2", "B", 1, 3)
	assert.Len(t, idx.Conflicts([]string{"T2"}, 0, 4, nil), 3)
}

func TestGridCloneAndEqual(t *testing.T) {
	g := mustGrid(t, Dims{Days: 1, SlotsPerDay: 4}, "A")
	place(g, regular("math", "A", "math", "T1", 2), 0)

	clone := g.Clone()
	require.True(t, g.Equal(clone))

	clone.Classes["A"][0].TeacherID = "T9"
	assert.Equal(t, "T1", g.Classes["A"][0].TeacherID, "clone must not share cells")
	assert.False(t, g.Equal(clone))

	clone = g.Clone()
	clone.Clear("A", 0, 2)
	assert.False(t, g.Equal(clone))
	assert.Equal(t, 0, clone.FilledSlots())
	assert.Equal(t, 2, g.FilledSlots())
}

func TestGridValidate(t *testing.T) {
	var nilGrid *Grid
	assert.True(t, errors.Is(nilGrid.Validate(), ErrInvalidInput))

	g := &Grid{Dims: Dims{Days: 1, SlotsPerDay: 4}, Classes: map[string][]*Cell{"A": make([]*Cell, 3)}}
	assert.True(t, errors.Is(g.Validate(), ErrInvalidInput))

	g.Classes["A"] = make([]*Cell, 4)
	assert.NoError(t, g.Validate())
}
