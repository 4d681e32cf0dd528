package availability

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// SlotCache fronts the calculator with a short-lived Redis cache. Concurrent
// lookups for the same key collapse into a single computation.
type SlotCache struct {
	calc   *Calculator
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

func NewSlotCache(calc *Calculator, client *redis.Client, ttl time.Duration, logger *slog.Logger) *SlotCache {
	return &SlotCache{calc: calc, client: client, ttl: ttl, logger: logger}
}

func slotKey(staffID, serviceID int64, day string) string {
	return fmt.Sprintf("slots:%d:%d:%s", staffID, serviceID, day)
}

// Slots returns the cached slot list for the staff/service/date triple,
// computing and storing it on a miss. Cache failures degrade to a direct
// computation.
func (c *SlotCache) Slots(ctx context.Context, staffID, serviceID int64, date time.Time, branchID int64) ([]time.Time, error) {
	day := date.Format("2006-01-02")
	key := slotKey(staffID, serviceID, day)

	if c.client != nil {
		raw, err := c.client.Get(ctx, key).Result()
		if err == nil {
			var slots []time.Time
			if err := json.Unmarshal([]byte(raw), &slots); err == nil {
				return slots, nil
			}
		} else if err != redis.Nil {
			c.logger.Warn("slot cache read failed", slog.String("key", key), slog.Any("error", err))
		}
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		slots, err := c.calc.ComputeSlots(ctx, staffID, serviceID, date, branchID)
		if err != nil {
			return nil, err
		}
		if c.client != nil {
			if payload, err := json.Marshal(slots); err == nil {
				if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
					c.logger.Warn("slot cache write failed", slog.String("key", key), slog.Any("error", err))
				}
			}
		}
		return slots, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]time.Time), nil
}

// Invalidate drops every cached slot list for the staff member on the given
// day. Called after any booking mutation that changes the staff calendar.
func (c *SlotCache) Invalidate(ctx context.Context, staffID int64, day time.Time) {
	if c.client == nil {
		return
	}
	pattern := fmt.Sprintf("slots:%d:*:%s", staffID, day.Format("2006-01-02"))
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("slot cache scan failed", slog.String("pattern", pattern), slog.Any("error", err))
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("slot cache invalidation failed", slog.String("pattern", pattern), slog.Any("error", err))
	}
}
