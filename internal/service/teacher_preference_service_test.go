package service

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-engine/internal/models"
	appErrors "github.com/noah-isme/timetable-engine/pkg/errors"
)

type prefRepoMock struct {
	stored *models.TeacherPreference
	err    error
}

func (m *prefRepoMock) GetByTeacher(ctx context.Context, teacherID string) (*models.TeacherPreference, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.stored == nil {
		return nil, sql.ErrNoRows
	}
	cp := *m.stored
	return &cp, nil
}

func (m *prefRepoMock) Upsert(ctx context.Context, pref *models.TeacherPreference) error {
	cp := *pref
	m.stored = &cp
	return nil
}

func TestTeacherPreferenceServiceGetDefault(t *testing.T) {
	service := NewTeacherPreferenceService(&prefRepoMock{}, validator.New(), zap.NewNop())

	pref, err := service.Get(context.Background(), "teacher-1")
	require.NoError(t, err)
	assert.Equal(t, "teacher-1", pref.TeacherID)
	assert.Equal(t, types.JSONText("[]"), pref.Unavailable)
}

func TestTeacherPreferenceServiceGetRepositoryFailure(t *testing.T) {
	service := NewTeacherPreferenceService(&prefRepoMock{err: errors.New("boom")}, nil, nil)

	_, err := service.Get(context.Background(), "teacher-1")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
}

func TestTeacherPreferenceServiceUpsert(t *testing.T) {
	created := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	repo := &prefRepoMock{stored: &models.TeacherPreference{ID: "pref-1", TeacherID: "teacher-1", CreatedAt: created}}
	service := NewTeacherPreferenceService(repo, validator.New(), zap.NewNop())

	result, err := service.Upsert(context.Background(), "teacher-1", UpsertTeacherPreferenceRequest{
		Unavailable: []models.TeacherUnavailableSlot{
			{DayOfWeek: "MONDAY", TimeRange: "1"},
			{DayOfWeek: "friday", TimeRange: "3-5"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "pref-1", result.ID)
	assert.Equal(t, created, result.CreatedAt)
	require.NotNil(t, repo.stored)
	assert.JSONEq(t, `[{"day_of_week":"MONDAY","time_range":"1"},{"day_of_week":"FRIDAY","time_range":"3-5"}]`, repo.stored.Unavailable.String())
}

func TestTeacherPreferenceServiceUpsertCanonicalisesWindows(t *testing.T) {
	repo := &prefRepoMock{}
	service := NewTeacherPreferenceService(repo, nil, nil)

	result, err := service.Upsert(context.Background(), "teacher-1", UpsertTeacherPreferenceRequest{
		Unavailable: []models.TeacherUnavailableSlot{
			{DayOfWeek: "3", TimeRange: " 4-4 "},
			{DayOfWeek: "monday", TimeRange: "2-3"},
			{DayOfWeek: "WEDNESDAY", TimeRange: "4"},
			{DayOfWeek: "Monday", TimeRange: "1"},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, result.ID)
	assert.JSONEq(t, `[
		{"day_of_week":"MONDAY","time_range":"1"},
		{"day_of_week":"MONDAY","time_range":"2-3"},
		{"day_of_week":"WEDNESDAY","time_range":"4"}
	]`, repo.stored.Unavailable.String())
}

func TestTeacherPreferenceServiceUpsertRejectsBadWindows(t *testing.T) {
	service := NewTeacherPreferenceService(&prefRepoMock{}, validator.New(), zap.NewNop())

	cases := []models.TeacherUnavailableSlot{
		{DayOfWeek: "FUNDAY", TimeRange: "1"},
		{DayOfWeek: "MONDAY", TimeRange: "5-3"},
		{DayOfWeek: "MONDAY", TimeRange: ""},
	}
	for _, window := range cases {
		_, err := service.Upsert(context.Background(), "teacher-1", UpsertTeacherPreferenceRequest{
			Unavailable: []models.TeacherUnavailableSlot{window},
		})
		var appErr *appErrors.Error
		require.ErrorAs(t, err, &appErr, "window %+v", window)
		assert.Equal(t, http.StatusBadRequest, appErr.Status)
	}
}
