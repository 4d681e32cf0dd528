// Package availability computes bookable start times for a staff member.
// The result is advisory: the booking engine re-validates overlap at commit
// time, so a stale slot list can never cause a double booking.
package availability

import (
	"context"
	"sort"
	"time"

	"github.com/velora-salon/velora-salon/internal/masterdata/branches"
	"github.com/velora-salon/velora-salon/internal/masterdata/services"
	apperr "github.com/velora-salon/velora-salon/internal/shared"
)

// Interval is a half-open busy window [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two half-open intervals intersect.
func (i Interval) Overlaps(start, end time.Time) bool {
	return i.Start.Before(end) && start.Before(i.End)
}

// ServiceSource resolves service durations and branch assignment.
type ServiceSource interface {
	Get(ctx context.Context, id int64) (services.Service, error)
}

// HoursSource resolves branch operating hours.
type HoursSource interface {
	Hours(ctx context.Context, branchID int64) ([]branches.DayHours, error)
}

// BusySource lists a staff member's busy windows. Implementations must only
// return non-canceled appointments.
type BusySource interface {
	BusyIntervals(ctx context.Context, staffID int64, from, to time.Time) ([]Interval, error)
}

// Config tunes the candidate grid.
type Config struct {
	// GridMinutes is the candidate grid granularity.
	GridMinutes int
	// UnitSlotMinutes is the assumed duration for unit-based services.
	UnitSlotMinutes int
}

func (c Config) withDefaults() Config {
	if c.GridMinutes <= 0 {
		c.GridMinutes = 30
	}
	if c.UnitSlotMinutes <= 0 {
		c.UnitSlotMinutes = 30
	}
	return c
}

// Calculator produces ordered candidate start times.
type Calculator struct {
	services ServiceSource
	hours    HoursSource
	busy     BusySource
	cfg      Config
}

func NewCalculator(serviceSource ServiceSource, hoursSource HoursSource, busySource BusySource, cfg Config) *Calculator {
	return &Calculator{services: serviceSource, hours: hoursSource, busy: busySource, cfg: cfg.withDefaults()}
}

// ComputeSlots returns the bookable start times for the staff member on the
// given date, ascending. A fully booked day yields an empty slice, not an
// error.
func (c *Calculator) ComputeSlots(ctx context.Context, staffID, serviceID int64, date time.Time, branchID int64) ([]time.Time, error) {
	svc, err := c.services.Get(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if svc.BranchID != branchID {
		return nil, apperr.Ef(apperr.KindServiceNotOffered, "service %d is not offered at branch %d", serviceID, branchID)
	}

	duration, err := c.serviceDuration(svc)
	if err != nil {
		return nil, err
	}

	hours, err := c.hours.Hours(ctx, branchID)
	if err != nil {
		return nil, err
	}
	if len(hours) == 0 {
		return nil, apperr.Ef(apperr.KindMissingBranchSchedule, "branch %d has no operating hours configured", branchID)
	}

	var window *branches.DayHours
	for i := range hours {
		if hours[i].Weekday == date.Weekday() {
			window = &hours[i]
			break
		}
	}
	if window == nil {
		// Closed that day.
		return []time.Time{}, nil
	}

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	open := dayStart.Add(time.Duration(window.OpenMinutes) * time.Minute)
	close := dayStart.Add(time.Duration(window.CloseMinutes) * time.Minute)

	busy, err := c.busy.BusyIntervals(ctx, staffID, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	grid := time.Duration(c.cfg.GridMinutes) * time.Minute
	slots := []time.Time{}
	for t := open; !t.Add(duration).After(close); t = t.Add(grid) {
		end := t.Add(duration)
		free := true
		for _, b := range busy {
			if b.Overlaps(t, end) {
				free = false
				break
			}
		}
		if free {
			slots = append(slots, t)
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].Before(slots[j]) })
	return slots, nil
}

// ServiceDuration resolves how long a booking for the service occupies the
// calendar, also used by the booking engine when the caller supplies none.
func (c *Calculator) ServiceDuration(svc services.Service) (time.Duration, error) {
	return c.serviceDuration(svc)
}

func (c *Calculator) serviceDuration(svc services.Service) (time.Duration, error) {
	switch svc.Type {
	case services.TimeBased:
		if svc.DurationMin <= 0 {
			return 0, apperr.Ef(apperr.KindInvalidServiceDuration, "service %d has no usable duration", svc.ID)
		}
		return time.Duration(svc.DurationMin) * time.Minute, nil
	case services.UnitBased:
		return time.Duration(c.cfg.UnitSlotMinutes) * time.Minute, nil
	}
	return 0, apperr.Ef(apperr.KindInvalidServiceDuration, "service %d has unknown type %q", svc.ID, svc.Type)
}
