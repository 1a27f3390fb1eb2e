package service

import (
	"testing"

	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/timetable-engine/internal/models"
	"github.com/noah-isme/timetable-engine/internal/scheduler"
)

func TestExpandTimeRange(t *testing.T) {
	assert.Equal(t, []int{3}, expandTimeRange(" 3 "))
	assert.Equal(t, []int{2, 3, 4}, expandTimeRange("2-4"))
	assert.Nil(t, expandTimeRange("4-2"))
	assert.Nil(t, expandTimeRange("0"))
	assert.Nil(t, expandTimeRange("x"))
}

func TestDayStringToIndex(t *testing.T) {
	assert.Equal(t, 1, dayStringToIndex("monday"))
	assert.Equal(t, 7, dayStringToIndex("SUNDAY"))
	assert.Equal(t, 3, dayStringToIndex("3"))
	assert.Equal(t, 0, dayStringToIndex("8"))
	assert.Equal(t, 0, dayStringToIndex("someday"))
}

func TestBlockPreferencesClipsToGrid(t *testing.T) {
	dims := scheduler.Dims{Days: 2, SlotsPerDay: 4}
	blocks := scheduler.TeacherBlocks{}
	blockPreferences(blocks, dims, []models.TeacherPreference{
		{TeacherID: "T1", Unavailable: types.JSONText(`[
			{"day_of_week":"TUESDAY","time_range":"3-6"},
			{"day_of_week":"WEDNESDAY","time_range":"1"}
		]`)},
		{TeacherID: "T2", Unavailable: types.JSONText(`not json`)},
	})

	assert.True(t, blocks.Blocked("T1", dims.Slot(1, 2)))
	assert.True(t, blocks.Blocked("T1", dims.Slot(1, 3)))
	assert.Len(t, blocks["T1"], 2)
	assert.Empty(t, blocks["T2"])
}
