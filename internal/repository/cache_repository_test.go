package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-affairs-api/internal/models"
	appErrors "github.com/noah-isme/student-affairs-api/pkg/errors"
)

func newCacheRepo(t *testing.T) (*CacheRepository, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheRepository(client, nil), mr
}

func TestCacheRoundTripAndDelete(t *testing.T) {
	repo, mr := newCacheRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "settings:feature.leave.enabled", "false", time.Minute))
	var got string
	require.NoError(t, repo.Get(ctx, "settings:feature.leave.enabled", &got))
	assert.Equal(t, "false", got)

	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, repo.Get(ctx, "settings:feature.leave.enabled", &got), appErrors.ErrCacheMiss)

	require.NoError(t, repo.Set(ctx, "settings:a", "1", 0))
	require.NoError(t, repo.Set(ctx, "settings:b", "1", 0))
	require.NoError(t, repo.Delete(ctx, "settings:a", "settings:b"))
	assert.False(t, mr.Exists("settings:a"))
	assert.False(t, mr.Exists("settings:b"))
}

func TestCacheDropsUndecodableEntry(t *testing.T) {
	repo, mr := newCacheRepo(t)
	require.NoError(t, mr.Set("settings:broken", "{not json"))

	var got map[string]interface{}
	assert.ErrorIs(t, repo.Get(context.Background(), "settings:broken", &got), appErrors.ErrCacheMiss)
	assert.False(t, mr.Exists("settings:broken"))
}

func TestCacheWithoutClientMisses(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	var v string
	assert.ErrorIs(t, repo.Get(context.Background(), "k", &v), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(context.Background(), "k", "v", time.Minute))
	assert.NoError(t, repo.Delete(context.Background(), "k"))
}

func TestSettingsRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSettingsRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO settings (key, value, updated_by, updated_at)")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	admin := "admin-1"
	setting := &models.Setting{Key: models.FeatureLeave, Value: "false", UpdatedBy: &admin}
	require.NoError(t, repo.Upsert(context.Background(), setting))
	assert.False(t, setting.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsRepositoryList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSettingsRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT key, value, updated_by, updated_at FROM settings ORDER BY key ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"key", "value", "updated_by", "updated_at"}).
			AddRow(models.FeatureLeave, "true", nil, time.Now()))

	settings, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, settings, 1)
	assert.Equal(t, models.FeatureLeave, settings[0].Key)
	assert.NoError(t, mock.ExpectationsWereMet())
}
