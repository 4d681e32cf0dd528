package availability

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type countingBusySource struct {
	calls int
	busy  []Interval
}

func (s *countingBusySource) BusyIntervals(ctx context.Context, staffID int64, from, to time.Time) ([]Interval, error) {
	s.calls++
	return s.busy, nil
}

func newTestSlotCache(t *testing.T, busy *countingBusySource) (*SlotCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	calc := NewCalculator(
		stubServiceSource{svc: timeBased(30)},
		stubHoursSource{hours: openHours(time.Tuesday, 9*60, 11*60)},
		busy,
		Config{},
	)
	return NewSlotCache(calc, client, time.Minute, slog.Default()), mr
}

func TestSlotCacheMissThenHit(t *testing.T) {
	busy := &countingBusySource{}
	cache, _ := newTestSlotCache(t, busy)
	ctx := context.Background()

	first, err := cache.Slots(ctx, 5, 10, testDay, 1)
	require.NoError(t, err)
	require.Len(t, first, 4)
	require.Equal(t, 1, busy.calls)

	second, err := cache.Slots(ctx, 5, 10, testDay, 1)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, busy.calls)
}

func TestSlotCacheInvalidate(t *testing.T) {
	busy := &countingBusySource{}
	cache, _ := newTestSlotCache(t, busy)
	ctx := context.Background()

	_, err := cache.Slots(ctx, 5, 10, testDay, 1)
	require.NoError(t, err)

	cache.Invalidate(ctx, 5, testDay)

	_, err = cache.Slots(ctx, 5, 10, testDay, 1)
	require.NoError(t, err)
	require.Equal(t, 2, busy.calls)
}

func TestSlotCacheInvalidateOtherStaffUntouched(t *testing.T) {
	busy := &countingBusySource{}
	cache, _ := newTestSlotCache(t, busy)
	ctx := context.Background()

	_, err := cache.Slots(ctx, 5, 10, testDay, 1)
	require.NoError(t, err)

	cache.Invalidate(ctx, 99, testDay)

	_, err = cache.Slots(ctx, 5, 10, testDay, 1)
	require.NoError(t, err)
	require.Equal(t, 1, busy.calls)
}

func TestSlotCacheSurvivesDeadRedis(t *testing.T) {
	busy := &countingBusySource{}
	cache, mr := newTestSlotCache(t, busy)
	mr.Close()

	slots, err := cache.Slots(context.Background(), 5, 10, testDay, 1)
	require.NoError(t, err)
	require.Len(t, slots, 4)
}
