package availability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/velora-salon/velora-salon/internal/masterdata/branches"
	"github.com/velora-salon/velora-salon/internal/masterdata/services"
	"github.com/velora-salon/velora-salon/internal/shared"
)

type stubServiceSource struct {
	svc services.Service
}

func (s stubServiceSource) Get(ctx context.Context, id int64) (services.Service, error) {
	return s.svc, nil
}

type stubHoursSource struct {
	hours []branches.DayHours
}

func (s stubHoursSource) Hours(ctx context.Context, branchID int64) ([]branches.DayHours, error) {
	return s.hours, nil
}

type stubBusySource struct {
	busy []Interval
}

func (s stubBusySource) BusyIntervals(ctx context.Context, staffID int64, from, to time.Time) ([]Interval, error) {
	return s.busy, nil
}

// Tuesday 2026-09-01.
var testDay = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

func at(hour, min int) time.Time {
	return time.Date(2026, 9, 1, hour, min, 0, 0, time.UTC)
}

func timeBased(durationMin int) services.Service {
	return services.Service{ID: 10, BranchID: 1, Type: services.TimeBased, DurationMin: durationMin}
}

func openHours(weekday time.Weekday, open, close int) []branches.DayHours {
	return []branches.DayHours{{Weekday: weekday, OpenMinutes: open, CloseMinutes: close}}
}

func TestComputeSlotsGrid(t *testing.T) {
	calc := NewCalculator(
		stubServiceSource{svc: timeBased(30)},
		stubHoursSource{hours: openHours(time.Tuesday, 9*60, 11*60)},
		stubBusySource{},
		Config{},
	)

	slots, err := calc.ComputeSlots(context.Background(), 5, 10, testDay, 1)
	require.NoError(t, err)
	require.Equal(t, []time.Time{at(9, 0), at(9, 30), at(10, 0), at(10, 30)}, slots)
}

func TestComputeSlotsSkipsBusyWindows(t *testing.T) {
	calc := NewCalculator(
		stubServiceSource{svc: timeBased(30)},
		stubHoursSource{hours: openHours(time.Tuesday, 9*60, 11*60)},
		stubBusySource{busy: []Interval{{Start: at(9, 15), End: at(9, 45)}}},
		Config{},
	)

	slots, err := calc.ComputeSlots(context.Background(), 5, 10, testDay, 1)
	require.NoError(t, err)
	require.Equal(t, []time.Time{at(10, 0), at(10, 30)}, slots)
}

func TestComputeSlotsFullyBookedDay(t *testing.T) {
	calc := NewCalculator(
		stubServiceSource{svc: timeBased(30)},
		stubHoursSource{hours: openHours(time.Tuesday, 9*60, 11*60)},
		stubBusySource{busy: []Interval{{Start: at(9, 0), End: at(11, 0)}}},
		Config{},
	)

	slots, err := calc.ComputeSlots(context.Background(), 5, 10, testDay, 1)
	require.NoError(t, err)
	require.Empty(t, slots)
	require.NotNil(t, slots)
}

func TestComputeSlotsClosedWeekday(t *testing.T) {
	calc := NewCalculator(
		stubServiceSource{svc: timeBased(30)},
		stubHoursSource{hours: openHours(time.Monday, 9*60, 17*60)},
		stubBusySource{},
		Config{},
	)

	slots, err := calc.ComputeSlots(context.Background(), 5, 10, testDay, 1)
	require.NoError(t, err)
	require.Empty(t, slots)
}

func TestComputeSlotsNoSchedule(t *testing.T) {
	calc := NewCalculator(
		stubServiceSource{svc: timeBased(30)},
		stubHoursSource{},
		stubBusySource{},
		Config{},
	)

	_, err := calc.ComputeSlots(context.Background(), 5, 10, testDay, 1)
	require.True(t, shared.IsKind(err, shared.KindMissingBranchSchedule))
}

func TestComputeSlotsWrongBranch(t *testing.T) {
	calc := NewCalculator(
		stubServiceSource{svc: timeBased(30)},
		stubHoursSource{hours: openHours(time.Tuesday, 9*60, 17*60)},
		stubBusySource{},
		Config{},
	)

	_, err := calc.ComputeSlots(context.Background(), 5, 10, testDay, 2)
	require.True(t, shared.IsKind(err, shared.KindServiceNotOffered))
}

func TestComputeSlotsZeroDuration(t *testing.T) {
	calc := NewCalculator(
		stubServiceSource{svc: timeBased(0)},
		stubHoursSource{hours: openHours(time.Tuesday, 9*60, 17*60)},
		stubBusySource{},
		Config{},
	)

	_, err := calc.ComputeSlots(context.Background(), 5, 10, testDay, 1)
	require.True(t, shared.IsKind(err, shared.KindInvalidServiceDuration))
}

func TestComputeSlotsUnitBased(t *testing.T) {
	svc := services.Service{ID: 10, BranchID: 1, Type: services.UnitBased}
	calc := NewCalculator(
		stubServiceSource{svc: svc},
		stubHoursSource{hours: openHours(time.Tuesday, 9*60, 10*60)},
		stubBusySource{},
		Config{GridMinutes: 15, UnitSlotMinutes: 15},
	)

	slots, err := calc.ComputeSlots(context.Background(), 5, 10, testDay, 1)
	require.NoError(t, err)
	require.Equal(t, []time.Time{at(9, 0), at(9, 15), at(9, 30), at(9, 45)}, slots)
}

func TestServiceDurationUnknownType(t *testing.T) {
	calc := NewCalculator(stubServiceSource{}, stubHoursSource{}, stubBusySource{}, Config{})
	_, err := calc.ServiceDuration(services.Service{ID: 3, Type: services.ServiceType("MYSTERY")})
	require.True(t, shared.IsKind(err, shared.KindInvalidServiceDuration))
}

func TestIntervalOverlapsHalfOpen(t *testing.T) {
	iv := Interval{Start: at(10, 0), End: at(10, 30)}
	require.True(t, iv.Overlaps(at(10, 15), at(10, 45)))
	require.True(t, iv.Overlaps(at(9, 45), at(10, 15)))
	require.False(t, iv.Overlaps(at(10, 30), at(11, 0)))
	require.False(t, iv.Overlaps(at(9, 30), at(10, 0)))
}
