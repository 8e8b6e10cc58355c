package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cosmos-learn-api/internal/models"
	"github.com/noah-isme/cosmos-learn-api/internal/repository"
)

type memoryCacheRepo struct {
	mu      sync.Mutex
	entries map[string][]byte
	getErr  error
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: map[string][]byte{}}
}

func (m *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return m.getErr
	}
	raw, ok := m.entries[key]
	if !ok {
		return repository.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
		}
	}
	return nil
}

func TestCatalogSearchIsCachedUntilCatalogChanges(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, catalogCourses()...)
	metrics := NewMetricsService()
	cache := NewCacheService(newMemoryCacheRepo(), metrics, time.Minute, nil, true)
	svc := NewCatalogService(f.courses, f.users, nil, nil, nil).WithCache(cache, time.Minute)

	first, err := svc.Search(ctx, "", models.SearchFilter{})
	require.NoError(t, err)
	require.Len(t, first, 3)

	_, err = f.courses.Update(ctx, 3, func(c *models.Course) error {
		c.Title = "Renamed Outside The Service"
		return nil
	})
	require.NoError(t, err)

	second, err := svc.Search(ctx, "", models.SearchFilter{})
	require.NoError(t, err)
	assert.Equal(t, "Design Systems", second[2].Title)
	assert.InDelta(t, 0.5, metrics.Snapshot().CacheHitRatio, 0.001)

	_, err = svc.Create(ctx, adminActor, models.CreateCourseRequest{Title: "Fresh", Category: "Programming", CurriculumText: "-- One"})
	require.NoError(t, err)

	third, err := svc.Search(ctx, "", models.SearchFilter{})
	require.NoError(t, err)
	assert.Len(t, third, 4)
	assert.Contains(t, ids(third), int64(3))
	for _, c := range third {
		if c.ID == 3 {
			assert.Equal(t, "Renamed Outside The Service", c.Title)
		}
	}
}

func TestCacheServiceDisabledAndFailing(t *testing.T) {
	ctx := context.Background()
	var dest []int

	var nilCache *CacheService
	hit, err := nilCache.Get(ctx, "k", &dest)
	assert.False(t, hit)
	assert.NoError(t, err)
	assert.NoError(t, nilCache.Set(ctx, "k", []int{1}, 0))

	repo := newMemoryCacheRepo()
	disabled := NewCacheService(repo, nil, 0, nil, false)
	require.NoError(t, disabled.Set(ctx, "k", []int{1}, 0))
	assert.Empty(t, repo.entries)

	repo.getErr = errors.New("connection refused")
	failing := NewCacheService(repo, nil, 0, nil, true)
	hit, err = failing.Get(ctx, "k", &dest)
	assert.False(t, hit)
	assert.Error(t, err)
}
