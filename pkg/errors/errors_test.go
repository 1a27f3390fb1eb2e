package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("save: %w", Clone(ErrNotFound, "timetable not found"))
	appErr := FromError(wrapped)
	require.NotNil(t, appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
	assert.Equal(t, "timetable not found", appErr.Message)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	cause := errors.New("boom")
	appErr := FromError(cause)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.ErrorIs(t, appErr, cause)
	assert.Nil(t, FromError(nil))
}

func TestWithDetailsDoesNotMutatePredefined(t *testing.T) {
	detailed := ErrEditRejected.WithDetails(map[string]string{"reason": "TEACHER_CONFLICT"})
	assert.NotNil(t, detailed.Details)
	assert.Nil(t, ErrEditRejected.Details)
	assert.Equal(t, http.StatusConflict, detailed.Status)
}

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("publish: %w", Clone(ErrConflict, "archived timetables cannot be published"))
	assert.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, Wrap(errors.New("redis down"), ErrQueueFull.Code, ErrQueueFull.Status, "full"), ErrQueueFull)
}
