package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-engine/internal/models"
)

func newTeacherPrefMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTeacherPreferenceRepositoryGetAndUpsert(t *testing.T) {
	db, mock, cleanup := newTeacherPrefMock(t)
	defer cleanup()
	repo := NewTeacherPreferenceRepository(db)

	mock.ExpectExec("INSERT INTO teacher_preferences").
		WithArgs(sqlmock.AnyArg(), "teacher-1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	pref := &models.TeacherPreference{TeacherID: "teacher-1"}
	require.NoError(t, repo.Upsert(context.Background(), pref))
	assert.Equal(t, types.JSONText("[]"), pref.Unavailable)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "teacher_id", "unavailable", "created_at", "updated_at"}).
		AddRow("pref-1", "teacher-1", `[{"day_of_week":"MONDAY","time_range":"1-2"}]`, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, teacher_id, unavailable, created_at, updated_at FROM teacher_preferences WHERE teacher_id = $1")).
		WithArgs("teacher-1").
		WillReturnRows(rows)

	got, err := repo.GetByTeacher(context.Background(), "teacher-1")
	require.NoError(t, err)
	assert.Equal(t, "pref-1", got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherPreferenceRepositoryListByTeachers(t *testing.T) {
	db, mock, cleanup := newTeacherPrefMock(t)
	defer cleanup()
	repo := NewTeacherPreferenceRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE teacher_id = ANY($1)")).
		WithArgs("{\"T1\",\"T2\"}").
		WillReturnRows(sqlmock.NewRows([]string{"id", "teacher_id", "unavailable", "created_at", "updated_at"}).
			AddRow("p1", "T1", `[]`, now, now))

	prefs, err := repo.ListByTeachers(context.Background(), []string{"T1", "T2"})
	require.NoError(t, err)
	require.Len(t, prefs, 1)
	assert.Equal(t, "T1", prefs[0].TeacherID)

	none, err := repo.ListByTeachers(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, none)
	assert.NoError(t, mock.ExpectationsWereMet())
}
