package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hanguang-studio/salonbook/services/booking-service/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	courses  []model.Service
	listHits int
	getHits  int
}

func (s *countingSource) ListCourses(context.Context) ([]model.Service, error) {
	s.listHits++
	return s.courses, nil
}

func (s *countingSource) GetService(_ context.Context, id string) (model.Service, error) {
	s.getHits++
	for _, c := range s.courses {
		if c.ID == id {
			return c, nil
		}
	}
	return model.Service{}, assert.AnError
}

func newCache(t *testing.T) (*Cache, *countingSource, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	src := &countingSource{courses: []model.Service{
		{ID: "svc-1", Name: "基礎保養", Category: model.CategoryCourse, Price: 1200, DurationMinutes: 60, IsActive: true},
	}}
	return NewCache(src, rdb, time.Minute, nil), src, mr
}

func TestListCoursesReadsThrough(t *testing.T) {
	cache, src, mr := newCache(t)
	ctx := context.Background()

	first, err := cache.ListCourses(ctx)
	require.NoError(t, err)
	second, err := cache.ListCourses(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, src.listHits)
	assert.True(t, mr.Exists(coursesKey))

	mr.FastForward(2 * time.Minute)
	_, err = cache.ListCourses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, src.listHits)
}

func TestGetServiceCachesHitsOnly(t *testing.T) {
	cache, src, mr := newCache(t)
	ctx := context.Background()

	svc, err := cache.GetService(ctx, "svc-1")
	require.NoError(t, err)
	assert.Equal(t, 60, svc.DurationMinutes)
	_, _ = cache.GetService(ctx, "svc-1")
	assert.Equal(t, 1, src.getHits)

	assert.True(t, mr.Exists(servicePrefix+"svc-1"))

	_, err = cache.GetService(ctx, "nope")
	require.Error(t, err)
	assert.False(t, mr.Exists(servicePrefix+"nope"))
}

func TestRedisDownFallsBackToSource(t *testing.T) {
	cache, src, mr := newCache(t)
	mr.Close()

	got, err := cache.ListCourses(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 1, src.listHits)
}

func TestNilClientPassesThrough(t *testing.T) {
	src := &countingSource{}
	cache := NewCache(src, nil, 0, nil)
	_, _ = cache.ListCourses(context.Background())
	_, _ = cache.ListCourses(context.Background())
	assert.Equal(t, 2, src.listHits)
}
