package scheduler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDomainKeepsOccurrencesInsideOneDay(t *testing.T) {
	dims := Dims{Days: 2, SlotsPerDay: 4}
	domain := BuildDomain(regular("l", "A", "math", "", 2), dims, DomainOptions{})
	assert.Equal(t, []int{0, 1, 2, 4, 5, 6}, domain)

	for _, start := range domain {
		assert.LessOrEqual(t, dims.Period(start)+2, dims.SlotsPerDay)
	}
}

func TestBuildDomainSkipsBlockedTeacherSlots(t *testing.T) {
	dims := Dims{Days: 1, SlotsPerDay: 4}
	blocked := TeacherBlocks{}
	blocked.Block("T1", 1)

	domain := BuildDomain(regular("l", "A", "math", "T1", 2), dims, DomainOptions{Blocked: blocked})
	assert.Equal(t, []int{2}, domain)

	// A meeting is blocked by any of its teachers.
	blocked.Block("T2", 3)
	domain = BuildDomain(meeting("m", 1, "T1", "T2"), dims, DomainOptions{Blocked: blocked})
	assert.Equal(t, []int{0, 2}, domain)
}

func TestBuildDomainForcedStart(t *testing.T) {
	dims := Dims{Days: 1, SlotsPerDay: 4}
	lesson := regular("l", "A", "math", "T1", 2)

	domain := BuildDomain(lesson, dims, DomainOptions{Forced: map[string]int{"l": 2}})
	assert.Equal(t, []int{2}, domain)

	domain = BuildDomain(lesson, dims, DomainOptions{Forced: map[string]int{"l": 3}})
	assert.Empty(t, domain, "a forced start crossing the day end is not admissible")

	blocked := TeacherBlocks{}
	blocked.Block("T1", 0)
	domain = BuildDomain(lesson, dims, DomainOptions{Blocked: blocked, Forced: map[string]int{"l": 0}})
	assert.Empty(t, domain)
}

func TestBuildDomainsReportsFirstEmptyDomain(t *testing.T) {
	dims := Dims{Days: 1, SlotsPerDay: 2}
	lessons := []Lesson{
		regular("fits", "A", "math", "", 1),
		regular("too-long", "A", "art", "", 3),
		regular("also-too-long", "A", "pe", "", 4),
	}

	_, err := BuildDomains(lessons, dims, DomainOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInfeasibleDomain))

	var domainErr *DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "too-long", domainErr.LessonID)
	assert.Equal(t, 3, domainErr.Duration)
}

func TestTeacherBlocksBlockMeetings(t *testing.T) {
	blocked := TeacherBlocks{}
	blocked.BlockMeetings([]MeetingAssignment{
		{LessonID: "staff#1", Slot: 2, TeacherIDs: []string{"T1", "T2"}, Duration: 2},
		{LessonID: "dept#1", Slot: 5, TeacherIDs: []string{"T3"}},
	})

	for _, slot := range []int{2, 3} {
		assert.True(t, blocked.Blocked("T1", slot))
		assert.True(t, blocked.Blocked("T2", slot))
	}
	assert.False(t, blocked.Blocked("T1", 4))
	assert.True(t, blocked.Blocked("T3", 5), "missing duration counts as one slot")
	assert.False(t, blocked.Blocked("T3", 6))
}
