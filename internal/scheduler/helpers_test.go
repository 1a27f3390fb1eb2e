package scheduler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func regular(id, classID, subjectID, teacherID string, duration int) Lesson {
	return Lesson{
		ID:        id,
		LoadID:    id,
		SubjectID: subjectID,
		Duration:  duration,
		Target:    Regular{ClassID: classID, TeacherID: teacherID},
	}
}

func meeting(id string, duration int, teachers ...string) Lesson {
	return Lesson{
		ID:        id,
		LoadID:    id,
		SubjectID: "meeting",
		Duration:  duration,
		Target:    Meeting{TeacherIDs: teachers},
	}
}

func classes(ids ...string) []Class {
	out := make([]Class, 0, len(ids))
	for _, id := range ids {
		out = append(out, Class{ID: id, Name: id})
	}
	return out
}

func mustGrid(t *testing.T, dims Dims, ids ...string) *Grid {
	t.Helper()
	g, err := NewGrid(dims, classes(ids...))
	require.NoError(t, err)
	return g
}

func place(g *Grid, l Lesson, start int) {
	classID, _ := l.ClassID()
	g.Write(classID, start, *l.cell(classID))
}

// requireValidGrid checks the structural invariants every solver output and
// every accepted edit must satisfy.
func requireValidGrid(t *testing.T, g *Grid) {
	t.Helper()
	type owner struct {
		loadID  string
		classID string
	}
	teachers := make(map[string]map[int]owner)
	for _, classID := range g.ClassIDs() {
		row := g.Classes[classID]
		require.Len(t, row, g.Dims.Total(), "class %s row length", classID)
		for _, block := range g.Blocks(classID) {
			require.True(t, g.Dims.Fits(block.Start, block.Length),
				"block %s in class %s crosses a day boundary", block.Cell.LoadID, classID)
		}
		for i, cell := range row {
			if cell == nil || cell.TeacherID == "" {
				continue
			}
			if teachers[cell.TeacherID] == nil {
				teachers[cell.TeacherID] = make(map[int]owner)
			}
			if prev, ok := teachers[cell.TeacherID][i]; ok {
				require.Equal(t, prev.loadID, cell.LoadID,
					"teacher %s double booked at slot %d (classes %s and %s)", cell.TeacherID, i, prev.classID, classID)
			}
			teachers[cell.TeacherID][i] = owner{loadID: cell.LoadID, classID: classID}
		}
	}
}

// requireExactlyOnce checks that each lesson occupies one contiguous block of
// its duration at its recorded start.
func requireExactlyOnce(t *testing.T, res *Result, lessons []Lesson) {
	t.Helper()
	for _, l := range lessons {
		classID, ok := l.ClassID()
		if !ok {
			continue
		}
		start, placed := res.Starts[l.ID]
		require.True(t, placed, "lesson %s has no start", l.ID)
		count := 0
		for i, cell := range res.Grid.Classes[classID] {
			if cell != nil && cell.LessonID == l.ID {
				require.GreaterOrEqual(t, i, start)
				require.Less(t, i, start+l.Duration)
				count++
			}
		}
		require.Equal(t, l.Duration, count, "lesson %s occupies %d slots", l.ID, count)
	}
}
