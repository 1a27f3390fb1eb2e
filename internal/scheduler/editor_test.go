package scheduler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// editFixture lays out two days of four slots:
//
//	A: math(T1) math(T1) art(T2)  .      | .       .       math2(T1) math2(T1)
//	B: pe(T3)   pe(T3)   chem(T4) .      | bio(T1) .       .         .
//	C: .        .        .        .      | .       lit(T2) .         .
func editFixture(t *testing.T) *Grid {
	t.Helper()
	g := mustGrid(t, Dims{Days: 2, SlotsPerDay: 4}, "A", "B", "C")
	place(g, regular("math", "A", "math", "T1", 2), 0)
	place(g, regular("art", "A", "art", "T2", 1), 2)
	place(g, regular("math2", "A", "math", "T1", 2), 6)
	place(g, regular("pe", "B", "pe", "T3", 2), 0)
	place(g, regular("chem", "B", "chem", "T4", 1), 2)
	place(g, regular("bio", "B", "bio", "T1", 1), 4)
	place(g, regular("lit", "C", "lit", "T2", 1), 5)
	return g
}

func gridMove(classID string, index int, loadID string, target SlotRef, swap bool) EditRequest {
	return EditRequest{
		Source: Source{Kind: SourceGrid, ClassID: classID, Index: index, LoadID: loadID},
		Action: ActionMove,
		Target: &target,
		Swap:   swap,
	}
}

func requireRejected(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrEditRejected), "got %v", err)
	var editErr *EditError
	require.True(t, errors.As(err, &editErr))
	assert.Equal(t, code, editErr.Code, editErr.Reason)
	assert.NotEmpty(t, editErr.Reason)
}

func TestEditorMoveOntoOccupiedTargetIsRejected(t *testing.T) {
	g := editFixture(t)
	before := g.Clone()

	out, err := NewEditor(nil).Apply(g, gridMove("A", 2, "art", SlotRef{ClassID: "A", Index: 0}, false))
	requireRejected(t, err, RejectTargetOccupied)
	assert.Nil(t, out)
	assert.True(t, before.Equal(g), "rejected edits leave the grid untouched")
}

func TestEditorSwapNeedsRoomInBothDirections(t *testing.T) {
	g := editFixture(t)
	before := g.Clone()

	// math spans two slots, chem only one.
	_, err := NewEditor(nil).Apply(g, gridMove("A", 0, "math", SlotRef{ClassID: "B", Index: 2}, true))
	requireRejected(t, err, RejectSwapInfeasible)
	assert.True(t, before.Equal(g))

	// B[3] is free, so math would fit over chem; the lengths still differ.
	var editErr *EditError
	require.True(t, errors.As(err, &editErr))
	assert.Contains(t, editErr.Reason, "equal length")

	_, err = NewEditor(nil).Apply(g, gridMove("B", 2, "chem", SlotRef{ClassID: "A", Index: 1}, true))
	requireRejected(t, err, RejectSwapInfeasible)
	assert.True(t, before.Equal(g))
}

func TestEditorRemoveClearsWholeBlockFromAnyCell(t *testing.T) {
	g := editFixture(t)
	before := g.Clone()

	out, err := NewEditor(nil).Apply(g, EditRequest{
		Source: Source{Kind: SourceGrid, ClassID: "A", Index: 1, LoadID: "math"},
		Action: ActionRemove,
	})
	require.NoError(t, err)
	assert.Nil(t, out.At("A", 0))
	assert.Nil(t, out.At("A", 1))
	assert.NotNil(t, out.At("A", 2))
	assert.Equal(t, before.FilledSlots()-2, out.FilledSlots())
	assert.True(t, before.Equal(g), "the input snapshot is never modified")
	requireValidGrid(t, out)
}

func TestEditorRemoveRejections(t *testing.T) {
	g := editFixture(t)

	_, err := NewEditor(nil).Apply(g, EditRequest{
		Source: Source{Kind: SourceGrid, ClassID: "A", Index: 1, LoadID: "art"},
		Action: ActionRemove,
	})
	requireRejected(t, err, RejectSourceMismatch)

	_, err = NewEditor(nil).Apply(g, EditRequest{
		Source: Source{Kind: SourceGrid, ClassID: "A", Index: 3},
		Action: ActionRemove,
	})
	requireRejected(t, err, RejectNothingToRemove)

	_, err = NewEditor(nil).Apply(g, EditRequest{
		Source: Source{Kind: SourceGrid, ClassID: "Z", Index: 0},
		Action: ActionRemove,
	})
	requireRejected(t, err, RejectUnknownClass)

	_, err = NewEditor(nil).Apply(g, EditRequest{
		Source: Source{Kind: SourceGrid, ClassID: "A", Index: 8},
		Action: ActionRemove,
	})
	requireRejected(t, err, RejectIndexOutOfBounds)
}

func TestEditorMoveSlidesWithinOwnClass(t *testing.T) {
	g := mustGrid(t, Dims{Days: 1, SlotsPerDay: 4}, "A")
	place(g, regular("math", "A", "math", "T1", 2), 0)

	out, err := NewEditor(nil).Apply(g, gridMove("A", 0, "math", SlotRef{ClassID: "A", Index: 1}, false))
	require.NoError(t, err)
	assert.Nil(t, out.At("A", 0))
	assert.Equal(t, "math", out.At("A", 1).LoadID)
	assert.Equal(t, "math", out.At("A", 2).LoadID)
	assert.Nil(t, out.At("A", 3))
	requireValidGrid(t, out)
}

func TestEditorMoveRejections(t *testing.T) {
	g := editFixture(t)
	before := g.Clone()

	_, err := NewEditor(nil).Apply(g, gridMove("A", 0, "math", SlotRef{ClassID: "A", Index: 3}, false))
	requireRejected(t, err, RejectOutOfDay)

	_, err = NewEditor(nil).Apply(g, gridMove("A", 2, "art", SlotRef{ClassID: "A", Index: 5}, false))
	requireRejected(t, err, RejectTeacherConflict)

	_, err = NewEditor(nil).Apply(g, gridMove("B", 0, "pe", SlotRef{ClassID: "A", Index: 5}, false))
	requireRejected(t, err, RejectSlotTaken)

	_, err = NewEditor(nil).Apply(g, EditRequest{
		Source: Source{Kind: SourceGrid, ClassID: "A", Index: 2},
		Action: ActionMove,
	})
	requireRejected(t, err, RejectInvalidRequest)

	blocked := TeacherBlocks{}
	blocked.Block("T2", 3)
	_, err = NewEditor(blocked).Apply(g, gridMove("A", 2, "art", SlotRef{ClassID: "A", Index: 3}, false))
	requireRejected(t, err, RejectTeacherBlocked)

	assert.True(t, before.Equal(g))
}

func TestEditorMoveThenMoveBackRestoresGrid(t *testing.T) {
	g := editFixture(t)
	editor := NewEditor(nil)

	moved, err := editor.Apply(g, gridMove("A", 2, "art", SlotRef{ClassID: "B", Index: 3}, false))
	require.NoError(t, err)
	require.NotNil(t, moved.At("B", 3))
	assert.Equal(t, "B", moved.At("B", 3).ClassID)
	assert.Equal(t, "T2", moved.At("B", 3).TeacherID)
	assert.Nil(t, moved.At("A", 2))
	requireValidGrid(t, moved)

	restored, err := editor.Apply(moved, gridMove("B", 3, "art", SlotRef{ClassID: "A", Index: 2}, false))
	require.NoError(t, err)
	assert.True(t, g.Equal(restored))
}

func TestEditorSwapTwiceRestoresGrid(t *testing.T) {
	g := editFixture(t)
	editor := NewEditor(nil)

	swapped, err := editor.Apply(g, gridMove("A", 2, "art", SlotRef{ClassID: "B", Index: 2}, true))
	require.NoError(t, err)
	assert.Equal(t, "chem", swapped.At("A", 2).LoadID)
	assert.Equal(t, "A", swapped.At("A", 2).ClassID)
	assert.Equal(t, "art", swapped.At("B", 2).LoadID)
	requireValidGrid(t, swapped)

	restored, err := editor.Apply(swapped, gridMove("B", 2, "art", SlotRef{ClassID: "A", Index: 2}, true))
	require.NoError(t, err)
	assert.True(t, g.Equal(restored))
}

func TestEditorSwapSameTeacherWithinClass(t *testing.T) {
	g := editFixture(t)

	out, err := NewEditor(nil).Apply(g, gridMove("A", 1, "math", SlotRef{ClassID: "A", Index: 7}, true))
	require.NoError(t, err)
	assert.Equal(t, "math2", out.At("A", 0).LoadID)
	assert.Equal(t, "math2", out.At("A", 1).LoadID)
	assert.Equal(t, "math", out.At("A", 6).LoadID)
	assert.Equal(t, "math", out.At("A", 7).LoadID)
	requireValidGrid(t, out)
}

func TestEditorSwapOntoEmptyTargetMoves(t *testing.T) {
	g := editFixture(t)

	out, err := NewEditor(nil).Apply(g, gridMove("B", 4, "bio", SlotRef{ClassID: "B", Index: 5}, true))
	require.NoError(t, err)
	assert.Nil(t, out.At("B", 4))
	assert.Equal(t, "bio", out.At("B", 5).LoadID)
}

func TestEditorSwapChecksBothTeachers(t *testing.T) {
	g := editFixture(t)

	// art and lit share T2; each one's old slot is vacated for the other.
	out, err := NewEditor(nil).Apply(g, gridMove("A", 2, "art", SlotRef{ClassID: "C", Index: 5}, true))
	require.NoError(t, err)
	assert.Equal(t, "lit", out.At("A", 2).LoadID)
	assert.Equal(t, "art", out.At("C", 5).LoadID)
	requireValidGrid(t, out)

	busy := g.Clone()
	place(busy, regular("extra", "C", "extra", "T1", 1), 2)
	before := busy.Clone()
	_, err = NewEditor(nil).Apply(busy, gridMove("A", 2, "art", SlotRef{ClassID: "B", Index: 4}, true))
	requireRejected(t, err, RejectTeacherConflict)
	assert.True(t, before.Equal(busy))
}

func TestEditorPlacesPoolLesson(t *testing.T) {
	g := editFixture(t)
	music := regular("music", "A", "music", "T4", 1)

	out, err := NewEditor(nil).Apply(g, EditRequest{
		Source: Source{Kind: SourcePool, Lesson: &music},
		Action: ActionMove,
		Target: &SlotRef{ClassID: "C", Index: 0},
	})
	require.NoError(t, err)
	cell := out.At("C", 0)
	require.NotNil(t, cell)
	assert.Equal(t, "music", cell.LessonID)
	assert.Equal(t, "C", cell.ClassID)
	assert.Equal(t, "T4", cell.TeacherID)
	requireValidGrid(t, out)

	// chem (T4) sits at slot 2.
	_, err = NewEditor(nil).Apply(g, EditRequest{
		Source: Source{Kind: SourcePool, Lesson: &music},
		Action: ActionMove,
		Target: &SlotRef{ClassID: "C", Index: 2},
	})
	requireRejected(t, err, RejectTeacherConflict)
}

func TestEditorPoolRejections(t *testing.T) {
	g := editFixture(t)
	art := regular("art", "A", "art", "T2", 1)
	staff := meeting("staff", 1, "T1", "T2")
	music := regular("music", "A", "music", "T4", 1)

	cases := []struct {
		name string
		req  EditRequest
		code string
	}{
		{
			name: "already placed",
			req:  EditRequest{Source: Source{Kind: SourcePool, Lesson: &art}, Action: ActionMove, Target: &SlotRef{ClassID: "C", Index: 0}},
			code: RejectDuplicatePlaced,
		},
		{
			name: "meeting",
			req:  EditRequest{Source: Source{Kind: SourcePool, Lesson: &staff}, Action: ActionMove, Target: &SlotRef{ClassID: "C", Index: 0}},
			code: RejectMeetingOnGrid,
		},
		{
			name: "swap from pool",
			req:  EditRequest{Source: Source{Kind: SourcePool, Lesson: &music}, Action: ActionMove, Target: &SlotRef{ClassID: "A", Index: 0}, Swap: true},
			code: RejectInvalidRequest,
		},
		{
			name: "remove from pool",
			req:  EditRequest{Source: Source{Kind: SourcePool, Lesson: &music}, Action: ActionRemove},
			code: RejectNothingToRemove,
		},
		{
			name: "occupied target",
			req:  EditRequest{Source: Source{Kind: SourcePool, Lesson: &music}, Action: ActionMove, Target: &SlotRef{ClassID: "A", Index: 0}},
			code: RejectTargetOccupied,
		},
		{
			name: "missing lesson",
			req:  EditRequest{Source: Source{Kind: SourcePool}, Action: ActionMove, Target: &SlotRef{ClassID: "A", Index: 3}},
			code: RejectInvalidRequest,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before := g.Clone()
			_, err := NewEditor(nil).Apply(g, tc.req)
			requireRejected(t, err, tc.code)
			assert.True(t, before.Equal(g))
		})
	}
}

func TestEditorRejectsMalformedSnapshot(t *testing.T) {
	_, err := NewEditor(nil).Apply(nil, EditRequest{})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = NewEditor(nil).Apply(editFixture(t), EditRequest{Source: Source{Kind: "elsewhere"}})
	requireRejected(t, err, RejectInvalidRequest)
}

// backToBackFixture holds two single-slot sessions of one load side by side,
// the way both solvers may lay them out.
func backToBackFixture(t *testing.T) (*Grid, Lesson, Lesson) {
	t.Helper()
	g := mustGrid(t, Dims{Days: 1, SlotsPerDay: 4}, "A")
	first := regular("m#1", "A", "math", "T1", 1)
	second := regular("m#2", "A", "math", "T1", 1)
	first.LoadID, second.LoadID = "m", "m"
	place(g, first, 0)
	place(g, second, 1)
	return g, first, second
}

func TestEditorMovesOneOfBackToBackSessions(t *testing.T) {
	g, _, second := backToBackFixture(t)

	out, err := NewEditor(nil).Apply(g, gridMove("A", 0, "m", SlotRef{ClassID: "A", Index: 2}, false))
	require.NoError(t, err)
	row := out.Classes["A"]
	assert.Nil(t, row[0])
	require.NotNil(t, row[1])
	assert.Equal(t, "m#2", row[1].LessonID)
	require.NotNil(t, row[2])
	assert.Equal(t, "m#1", row[2].LessonID)
	assert.Equal(t, 1, row[2].Duration)
	assert.Nil(t, row[3])

	_, err = NewEditor(nil).Apply(out, EditRequest{
		Source: Source{Kind: SourcePool, Lesson: &second},
		Action: ActionMove,
		Target: &SlotRef{ClassID: "A", Index: 0},
	})
	requireRejected(t, err, RejectDuplicatePlaced)
}

func TestEditorRemovesOneOfBackToBackSessions(t *testing.T) {
	g, _, _ := backToBackFixture(t)

	out, err := NewEditor(nil).Apply(g, EditRequest{
		Source: Source{Kind: SourceGrid, ClassID: "A", Index: 1, LoadID: "m"},
		Action: ActionRemove,
	})
	require.NoError(t, err)
	require.NotNil(t, out.Classes["A"][0])
	assert.Equal(t, "m#1", out.Classes["A"][0].LessonID)
	assert.Nil(t, out.Classes["A"][1])
}
