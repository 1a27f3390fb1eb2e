package service

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/noah-isme/timetable-engine/internal/dto"
	"github.com/noah-isme/timetable-engine/internal/scheduler"
)

// ExpandLoads turns academic loads into weekly lessons. Session n of load L
// gets the id "L#n", counting from 1.
func ExpandLoads(loads []dto.LoadRequest) []scheduler.Lesson {
	lessons := make([]scheduler.Lesson, 0, lo.SumBy(loads, func(l dto.LoadRequest) int { return l.WeeklySessions }))
	for _, load := range loads {
		duration := load.Duration
		if duration <= 0 {
			duration = 1
		}
		target := loadTarget(load.Kind, load.ClassID, load.TeacherID, load.MeetingTeacherIDs)
		for n := 1; n <= load.WeeklySessions; n++ {
			lessons = append(lessons, scheduler.Lesson{
				ID:        fmt.Sprintf("%s#%d", load.LoadID, n),
				LoadID:    load.LoadID,
				SubjectID: load.SubjectID,
				Duration:  duration,
				Target:    target,
			})
		}
	}
	return lessons
}

func loadTarget(kind, classID, teacherID string, meetingTeachers []string) scheduler.Target {
	if kind == string(scheduler.KindMeeting) {
		return scheduler.Meeting{TeacherIDs: lo.Uniq(meetingTeachers)}
	}
	return scheduler.Regular{ClassID: classID, TeacherID: teacherID}
}

func lessonFromRequest(req *dto.LessonRequest) *scheduler.Lesson {
	if req == nil {
		return nil
	}
	return &scheduler.Lesson{
		ID:        req.ID,
		LoadID:    req.LoadID,
		SubjectID: req.SubjectID,
		Duration:  req.Duration,
		Target:    loadTarget(req.Kind, req.ClassID, req.TeacherID, req.TeacherIDs),
	}
}

func classesFromRequest(items []dto.ClassRequest) []scheduler.Class {
	return lo.Map(items, func(c dto.ClassRequest, _ int) scheduler.Class {
		return scheduler.Class{ID: c.ID, Name: c.Name}
	})
}

func lessonTeachers(lessons []scheduler.Lesson) []string {
	return lo.Uniq(lo.FlatMap(lessons, func(l scheduler.Lesson, _ int) []string { return l.Teachers() }))
}

func hasMeetings(lessons []scheduler.Lesson) bool {
	return lo.SomeBy(lessons, func(l scheduler.Lesson) bool { return l.Kind() == scheduler.KindMeeting })
}

// mergeBlocked copies base and adds the request's blocked slots. Slots
// outside the grid are reported as an error.
func mergeBlocked(base scheduler.TeacherBlocks, dims scheduler.Dims, extra []dto.BlockedSlotRequest) (scheduler.TeacherBlocks, error) {
	merged := scheduler.TeacherBlocks{}
	for teacherID, slots := range base {
		for slot, blocked := range slots {
			if blocked {
				merged.Block(teacherID, slot)
			}
		}
	}
	for _, item := range extra {
		for _, slot := range item.Slots {
			if slot < 0 || slot >= dims.Total() {
				return nil, fmt.Errorf("blocked slot %d for teacher %s is outside 0..%d", slot, item.TeacherID, dims.Total()-1)
			}
			merged.Block(item.TeacherID, slot)
		}
	}
	return merged, nil
}
