package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-engine/internal/models"
	appErrors "github.com/noah-isme/timetable-engine/pkg/errors"
)

type teacherPreferenceRepo interface {
	GetByTeacher(ctx context.Context, teacherID string) (*models.TeacherPreference, error)
	Upsert(ctx context.Context, pref *models.TeacherPreference) error
}

// UpsertTeacherPreferenceRequest replaces the unavailable windows of one teacher.
type UpsertTeacherPreferenceRequest struct {
	Unavailable []models.TeacherUnavailableSlot `json:"unavailable" validate:"dive"`
}

// TeacherPreferenceService stores the weekday windows that generation turns
// into blocked slots for a teacher.
type TeacherPreferenceService struct {
	repo      teacherPreferenceRepo
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherPreferenceService builds the service.
func NewTeacherPreferenceService(repo teacherPreferenceRepo, validate *validator.Validate, logger *zap.Logger) *TeacherPreferenceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherPreferenceService{repo: repo, validator: validate, logger: logger}
}

// Get returns the stored windows. A teacher without a row has none.
func (s *TeacherPreferenceService) Get(ctx context.Context, teacherID string) (*models.TeacherPreference, error) {
	pref, found, err := s.lookup(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	if !found {
		return &models.TeacherPreference{TeacherID: teacherID, Unavailable: types.JSONText("[]")}, nil
	}
	return pref, nil
}

// Upsert validates, canonicalises and stores the windows, keeping the
// identity and creation time of an existing row.
func (s *TeacherPreferenceService) Upsert(ctx context.Context, teacherID string, req UpsertTeacherPreferenceRequest) (*models.TeacherPreference, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid preference payload")
	}
	windows, err := normalizeWindows(req.Unavailable)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	encoded, err := json.Marshal(windows)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode unavailable windows")
	}

	next := &models.TeacherPreference{TeacherID: teacherID, Unavailable: types.JSONText(encoded)}
	current, found, err := s.lookup(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	if found {
		next.ID, next.CreatedAt = current.ID, current.CreatedAt
	}

	if err := s.repo.Upsert(ctx, next); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to upsert teacher preferences")
	}
	s.logger.Info("teacher preferences stored",
		zap.String("teacher_id", teacherID),
		zap.Int("windows", len(windows)),
		zap.Bool("created", !found),
	)
	return next, nil
}

func (s *TeacherPreferenceService) lookup(ctx context.Context, teacherID string) (*models.TeacherPreference, bool, error) {
	pref, err := s.repo.GetByTeacher(ctx, teacherID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, false, nil
	case err != nil:
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher preferences")
	}
	return pref, true, nil
}
