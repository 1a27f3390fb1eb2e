package service

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/noah-isme/timetable-engine/internal/models"
	"github.com/noah-isme/timetable-engine/internal/scheduler"
)

var dayNameIndex = map[string]int{
	"MONDAY":    1,
	"TUESDAY":   2,
	"WEDNESDAY": 3,
	"THURSDAY":  4,
	"FRIDAY":    5,
	"SATURDAY":  6,
	"SUNDAY":    7,
}

// dayStringToIndex accepts a weekday name or its 1-based number; 0 means unknown.
func dayStringToIndex(raw string) int {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	if idx, ok := dayNameIndex[raw]; ok {
		return idx
	}
	if n, err := strconv.Atoi(raw); err == nil && n >= 1 && n <= 7 {
		return n
	}
	return 0
}

func parseTimeSlot(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 0
	}
	return n
}

// expandTimeRange turns "3" or "3-5" into 1-based periods.
func expandTimeRange(raw string) []int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if strings.Contains(raw, "-") {
		parts := strings.SplitN(raw, "-", 2)
		start := parseTimeSlot(parts[0])
		end := parseTimeSlot(parts[1])
		if start == 0 || end == 0 || end < start {
			return nil
		}
		periods := make([]int, 0, end-start+1)
		for i := start; i <= end; i++ {
			periods = append(periods, i)
		}
		return periods
	}
	if value := parseTimeSlot(raw); value > 0 {
		return []int{value}
	}
	return nil
}

var dayNames = [...]string{"", "MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY", "SUNDAY"}

// normalizeWindows checks every window and rewrites it to canonical form:
// upper-case weekday names, "N" or "N-M" ranges, no duplicates, ordered by
// day then first period.
func normalizeWindows(windows []models.TeacherUnavailableSlot) ([]models.TeacherUnavailableSlot, error) {
	out := make([]models.TeacherUnavailableSlot, 0, len(windows))
	for i, window := range windows {
		day := dayStringToIndex(window.DayOfWeek)
		if day == 0 {
			return nil, fmt.Errorf("unavailable[%d]: unknown day %q", i, window.DayOfWeek)
		}
		periods := expandTimeRange(window.TimeRange)
		if len(periods) == 0 {
			return nil, fmt.Errorf("unavailable[%d]: invalid time range %q", i, window.TimeRange)
		}
		span := strconv.Itoa(periods[0])
		if last := periods[len(periods)-1]; last != periods[0] {
			span += "-" + strconv.Itoa(last)
		}
		out = append(out, models.TeacherUnavailableSlot{DayOfWeek: dayNames[day], TimeRange: span})
	}
	out = lo.Uniq(out)
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := dayNameIndex[out[i].DayOfWeek], dayNameIndex[out[j].DayOfWeek]
		if di != dj {
			return di < dj
		}
		return expandTimeRange(out[i].TimeRange)[0] < expandTimeRange(out[j].TimeRange)[0]
	})
	return out, nil
}

// blockPreferences projects stored weekday windows onto grid slots. Days and
// periods outside dims are ignored.
func blockPreferences(blocks scheduler.TeacherBlocks, dims scheduler.Dims, prefs []models.TeacherPreference) {
	for _, pref := range prefs {
		if len(pref.Unavailable) == 0 {
			continue
		}
		var windows []models.TeacherUnavailableSlot
		if err := json.Unmarshal(pref.Unavailable, &windows); err != nil {
			continue
		}
		for _, window := range windows {
			day := dayStringToIndex(window.DayOfWeek) - 1
			if day < 0 || day >= dims.Days {
				continue
			}
			for _, period := range expandTimeRange(window.TimeRange) {
				if period-1 < dims.SlotsPerDay {
					blocks.Block(pref.TeacherID, dims.Slot(day, period-1))
				}
			}
		}
	}
}
