package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/timetable-engine/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	var dest map[string]string
	err := repo.Get(ctx, "timetable:proposal:1", &dest)
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))

	require.NoError(t, repo.Set(ctx, "timetable:proposal:1", map[string]string{"a": "b"}, time.Minute))
	require.NoError(t, repo.Delete(ctx, "timetable:proposal:1"))
	require.NoError(t, repo.DeleteByPattern(ctx, "timetable:*"))
	require.NoError(t, repo.Close())
}
