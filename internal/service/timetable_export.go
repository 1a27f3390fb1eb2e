package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/noah-isme/timetable-engine/internal/dto"
	appErrors "github.com/noah-isme/timetable-engine/pkg/errors"
	"github.com/noah-isme/timetable-engine/pkg/export"
)

var timetableExportHeaders = []string{"kind", "class_id", "day", "period", "slot", "duration", "lesson_id", "load_id", "subject_id", "teachers"}

// ExportResult is a rendered file ready for download.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportCSV renders a saved timetable with one row per occurrence. Days and
// periods are 1-based; slot is the raw grid index.
func (s *TimetableService) ExportCSV(ctx context.Context, id string) (*ExportResult, error) {
	detail, _, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	exporter := export.NewCSVExporter()
	body, err := exporter.Render(timetableDataset(detail))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable export")
	}
	return &ExportResult{
		Filename:    fmt.Sprintf("%s-v%d.csv", slugify(detail.Name), detail.Version),
		ContentType: exporter.ContentType(),
		Body:        body,
	}, nil
}

func timetableDataset(detail *dto.TimetableDetail) export.Dataset {
	dims := detail.Grid.Dims
	data := export.Dataset{Headers: timetableExportHeaders}
	for _, classID := range detail.Grid.ClassIDs() {
		for _, block := range detail.Grid.Blocks(classID) {
			for start := block.Start; start < block.Start+block.Length; start += max(block.Cell.Duration, 1) {
				cell := detail.Grid.At(classID, start)
				if cell == nil {
					continue
				}
				data.Rows = append(data.Rows, map[string]string{
					"kind":       "lesson",
					"class_id":   classID,
					"day":        strconv.Itoa(dims.Day(start) + 1),
					"period":     strconv.Itoa(dims.Period(start) + 1),
					"slot":       strconv.Itoa(start),
					"duration":   strconv.Itoa(cell.Duration),
					"lesson_id":  cell.LessonID,
					"load_id":    cell.LoadID,
					"subject_id": cell.SubjectID,
					"teachers":   cell.TeacherID,
				})
			}
		}
	}
	for _, meeting := range detail.Meetings {
		data.Rows = append(data.Rows, map[string]string{
			"kind":      "meeting",
			"day":       strconv.Itoa(dims.Day(meeting.Slot) + 1),
			"period":    strconv.Itoa(dims.Period(meeting.Slot) + 1),
			"slot":      strconv.Itoa(meeting.Slot),
			"duration":  strconv.Itoa(meeting.Duration),
			"lesson_id": meeting.LessonID,
			"teachers":  strings.Join(meeting.TeacherIDs, ";"),
		})
	}
	return data
}

func slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('-')
		}
	}
	if b.Len() == 0 {
		return "timetable"
	}
	return b.String()
}
