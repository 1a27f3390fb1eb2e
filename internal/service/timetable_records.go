package service

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
	"github.com/samber/lo"

	"github.com/noah-isme/timetable-engine/internal/dto"
	"github.com/noah-isme/timetable-engine/internal/models"
	"github.com/noah-isme/timetable-engine/internal/scheduler"
)

func newTimetableRecord(name string, proposal timetableProposal) (*models.Timetable, error) {
	classes, err := json.Marshal(proposal.Classes)
	if err != nil {
		return nil, err
	}
	meta, err := json.Marshal(map[string]any{
		"proposalId": proposal.ID,
		"strategy":   proposal.Strategy,
		"stats":      proposal.Stats,
		"generated":  proposal.CreatedAt,
	})
	if err != nil {
		return nil, err
	}
	return &models.Timetable{
		Name:        name,
		Status:      models.TimetableStatusDraft,
		Days:        proposal.Grid.Dims.Days,
		SlotsPerDay: proposal.Grid.Dims.SlotsPerDay,
		Engine:      proposal.Stats.Engine,
		Classes:     types.JSONText(classes),
		Meta:        types.JSONText(meta),
	}, nil
}

// gridCells flattens a grid into one row per occupied slot.
func gridCells(timetableID string, grid *scheduler.Grid) []models.TimetableCell {
	var cells []models.TimetableCell
	for _, classID := range grid.ClassIDs() {
		for slot, cell := range grid.Classes[classID] {
			if cell == nil {
				continue
			}
			row := models.TimetableCell{
				TimetableID: timetableID,
				ClassID:     classID,
				Slot:        slot,
				LessonID:    cell.LessonID,
				LoadID:      cell.LoadID,
				SubjectID:   cell.SubjectID,
				Duration:    cell.Duration,
			}
			if cell.TeacherID != "" {
				teacher := cell.TeacherID
				row.TeacherID = &teacher
			}
			cells = append(cells, row)
		}
	}
	return cells
}

func meetingRows(timetableID string, meetings []scheduler.MeetingAssignment) []models.TimetableMeeting {
	return lo.Map(meetings, func(m scheduler.MeetingAssignment, _ int) models.TimetableMeeting {
		return models.TimetableMeeting{
			TimetableID: timetableID,
			LessonID:    m.LessonID,
			Slot:        m.Slot,
			Duration:    m.Duration,
			TeacherIDs:  pq.StringArray(m.TeacherIDs),
		}
	})
}

func meetingAssignments(rows []models.TimetableMeeting) []scheduler.MeetingAssignment {
	return lo.Map(rows, func(m models.TimetableMeeting, _ int) scheduler.MeetingAssignment {
		return scheduler.MeetingAssignment{
			LessonID:   m.LessonID,
			Slot:       m.Slot,
			Duration:   m.Duration,
			TeacherIDs: []string(m.TeacherIDs),
		}
	})
}

// rebuildGrid restores a grid from its stored per-slot rows. A row already
// covered by an earlier multi-slot cell is skipped.
func rebuildGrid(record *models.Timetable, cells []models.TimetableCell) (*scheduler.Grid, error) {
	var classes []dto.ClassRequest
	if len(record.Classes) > 0 {
		if err := json.Unmarshal(record.Classes, &classes); err != nil {
			return nil, fmt.Errorf("decode timetable classes: %w", err)
		}
	}
	dims := scheduler.Dims{Days: record.Days, SlotsPerDay: record.SlotsPerDay}
	grid, err := scheduler.NewGrid(dims, classesFromRequest(classes))
	if err != nil {
		return nil, err
	}

	sorted := append([]models.TimetableCell(nil), cells...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].ClassID != sorted[j].ClassID {
			return sorted[i].ClassID < sorted[j].ClassID
		}
		return sorted[i].Slot < sorted[j].Slot
	})

	coveredUntil := map[string]int{}
	for _, row := range sorted {
		if !grid.HasClass(row.ClassID) {
			return nil, fmt.Errorf("cell references unknown class %s", row.ClassID)
		}
		if row.Slot < 0 || row.Slot >= dims.Total() {
			return nil, fmt.Errorf("cell %s[%d] is outside the grid", row.ClassID, row.Slot)
		}
		if end, ok := coveredUntil[row.ClassID]; ok && row.Slot < end {
			continue
		}
		duration := row.Duration
		if duration < 1 {
			duration = 1
		}
		cell := scheduler.Cell{
			LessonID:  row.LessonID,
			LoadID:    row.LoadID,
			SubjectID: row.SubjectID,
			Duration:  duration,
		}
		if row.TeacherID != nil {
			cell.TeacherID = *row.TeacherID
		}
		grid.Write(row.ClassID, row.Slot, cell)
		coveredUntil[row.ClassID] = row.Slot + duration
	}
	return grid, nil
}
