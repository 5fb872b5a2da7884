package suggest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/Totarae/UTMBuilder/internal/database"
	"github.com/Totarae/UTMBuilder/internal/model"
	"github.com/Totarae/UTMBuilder/internal/repositories"
	"github.com/Totarae/UTMBuilder/internal/utm"
)

type stubSource struct {
	values []string
	err    error
	calls  int
	limit  int
}

func (s *stubSource) DistinctValues(_ context.Context, _ utm.Key, _ string, limit int) ([]string, error) {
	s.calls++
	s.limit = limit
	return s.values, s.err
}

func seededRepo(t *testing.T, sources ...string) *repositories.MetaRepository {
	t.Helper()
	ctx := context.Background()
	db, err := database.NewSQLite(ctx, database.MemoryDSN(t.Name()), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, database.Migrate(db))

	repo := repositories.NewMetaRepository(db)
	for i, src := range sources {
		data := model.MetaData{Source: src, Medium: "email"}
		require.NoError(t, repo.Upsert(ctx, fmt.Sprintf("k%d", i), data, time.Now()))
	}
	return repo
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, MinLimit, ClampLimit(0))
	assert.Equal(t, MinLimit, ClampLimit(-3))
	assert.Equal(t, 10, ClampLimit(10))
	assert.Equal(t, MaxLimit, ClampLimit(1000))
}

func TestService_Suggest(t *testing.T) {
	ctx := context.Background()
	svc := NewService(seededRepo(t, "newsletter", "news", "other"), nil, zap.NewNop())

	res, err := svc.Suggest(ctx, "utm_source", "new", 10)
	require.NoError(t, err)
	assert.Equal(t, utm.Source, res.Field)
	assert.Equal(t, []string{"news", "newsletter"}, res.Values)
	assert.False(t, res.HasMore)

	res, err = svc.Suggest(ctx, "utm_campaign", "", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{}, res.Values)
	assert.False(t, res.HasMore)
}

func TestService_SuggestHasMore(t *testing.T) {
	ctx := context.Background()
	svc := NewService(seededRepo(t, "a1", "a2", "a3", "a4", "a5", "a6"), nil, zap.NewNop())

	res, err := svc.Suggest(ctx, "utm_source", "a", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2", "a3", "a4", "a5"}, res.Values, "лимит поднят до минимума")
	assert.True(t, res.HasMore)
}

func TestService_UnknownField(t *testing.T) {
	src := &stubSource{}
	svc := NewService(src, nil, zap.NewNop())

	res, err := svc.Suggest(context.Background(), "utm_id", "x", 10)
	assert.ErrorIs(t, err, ErrUnknownField)
	assert.Empty(t, res.Values)
	assert.Zero(t, src.calls)
}

func TestService_SourceError(t *testing.T) {
	svc := NewService(&stubSource{err: errors.New("boom")}, nil, zap.NewNop())
	_, err := svc.Suggest(context.Background(), "utm_source", "x", 10)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnknownField)
}

func TestService_CachesAndPurges(t *testing.T) {
	ctx := context.Background()
	src := &stubSource{values: []string{"news"}}
	cache := NewLRUCache(16, time.Minute)
	svc := NewService(src, cache, zap.NewNop())

	for i := 0; i < 3; i++ {
		res, err := svc.Suggest(ctx, "utm_source", "new", 500)
		require.NoError(t, err)
		assert.Equal(t, []string{"news"}, res.Values)
	}
	assert.Equal(t, 1, src.calls)
	assert.Equal(t, MaxLimit, src.limit)
	assert.Equal(t, 1, cache.Len())

	svc.Purge(ctx)
	assert.Zero(t, cache.Len())

	_, err := svc.Suggest(ctx, "utm_source", "new", 500)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

// purgingSource имитирует запись метаданных, которая сбрасывает кэш,
// пока выборка ещё выполняется.
type purgingSource struct {
	stubSource
	onLoad func()
}

func (s *purgingSource) DistinctValues(ctx context.Context, key utm.Key, search string, limit int) ([]string, error) {
	values, err := s.stubSource.DistinctValues(ctx, key, search, limit)
	if s.onLoad != nil {
		s.onLoad()
	}
	return values, err
}

func TestService_PurgeDuringLoadSkipsCache(t *testing.T) {
	ctx := context.Background()
	src := &purgingSource{stubSource: stubSource{values: []string{"old"}}}
	cache := NewLRUCache(16, time.Minute)
	svc := NewService(src, cache, zap.NewNop())
	src.onLoad = func() {
		src.onLoad = nil
		src.values = []string{"new", "old"}
		svc.Purge(ctx)
	}

	res, err := svc.Suggest(ctx, "utm_source", "", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"old"}, res.Values)
	assert.Zero(t, cache.Len())

	res, err = svc.Suggest(ctx, "utm_source", "", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "old"}, res.Values)
	assert.Equal(t, 2, src.calls)
	assert.Equal(t, 1, cache.Len())
}

func TestRedisCache(t *testing.T) {
	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("Пропуск интеграционного теста: TEST_INTEGRATION не установлена")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "docker.io/redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Ошибка остановки контейнера: %v", err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	cache, err := NewRedisCache(ctx, "redis://"+endpoint+"/0", time.Minute, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	_, ok := cache.Get(ctx, "utm_source|10|new")
	assert.False(t, ok)

	cache.Set(ctx, "utm_source|10|new", []string{"news", "newsletter"})
	values, ok := cache.Get(ctx, "utm_source|10|new")
	require.True(t, ok)
	assert.Equal(t, []string{"news", "newsletter"}, values)

	cache.Purge(ctx)
	_, ok = cache.Get(ctx, "utm_source|10|new")
	assert.False(t, ok)
}
