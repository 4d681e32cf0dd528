package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/velora-salon/velora-salon/internal/jobs"
)

// PackageExpiryScanJob reports customer packages that lapsed while sessions
// were still unused. Balances are never zeroed: expiry is enforced at booking
// time, the scan exists for follow-up and reporting.
type PackageExpiryScanJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewPackageExpiryScanJob initialises the expiry scan handler.
func NewPackageExpiryScanJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *PackageExpiryScanJob {
	return &PackageExpiryScanJob{
		Pool:    pool,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

type expiredPackage struct {
	ID         int64
	CustomerID int64
	ExpiryDate time.Time
	Unused     int
}

// Handle executes the expiry scan.
func (j *PackageExpiryScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("package expiry scan: handler not configured")
	}
	var payload PackageExpiryScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.GraceDays < 0 {
		payload.GraceDays = 0
	}

	tracker := j.metrics().Track(TaskPackageExpiryScan)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	cutoff := j.now().AddDate(0, 0, -payload.GraceDays)
	logger := j.logger().With(slog.Time("cutoff", cutoff))
	logger.Info("starting package expiry scan")

	expired, err := j.scan(ctx, cutoff)
	if err != nil {
		resultErr = err
		logger.Error("scan failed", slog.Any("error", err))
		return resultErr
	}

	for _, cp := range expired {
		logger.Warn("customer package expired with unused sessions",
			slog.Int64("customer_package_id", cp.ID),
			slog.Int64("customer_id", cp.CustomerID),
			slog.Time("expiry_date", cp.ExpiryDate),
			slog.Int("unused_sessions", cp.Unused),
		)
	}
	j.metrics().AddExpired(len(expired))

	logger.Info("completed package expiry scan", slog.Int("expired", len(expired)))
	return resultErr
}

func (j *PackageExpiryScanJob) scan(ctx context.Context, cutoff time.Time) ([]expiredPackage, error) {
	rows, err := j.Pool.Query(ctx, `SELECT cp.id, cp.customer_id, cp.expiry_date, SUM(s.remaining)::int
FROM customer_packages cp
JOIN customer_package_sessions s ON s.customer_package_id = cp.id
WHERE cp.expiry_date < $1
GROUP BY cp.id, cp.customer_id, cp.expiry_date
HAVING SUM(s.remaining) > 0
ORDER BY cp.expiry_date`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []expiredPackage
	for rows.Next() {
		var cp expiredPackage
		if err := rows.Scan(&cp.ID, &cp.CustomerID, &cp.ExpiryDate, &cp.Unused); err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	return out, rows.Err()
}

func (j *PackageExpiryScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskPackageExpiryScan))
	}
	return slog.Default().With(slog.String("job", TaskPackageExpiryScan))
}

func (j *PackageExpiryScanJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return jobmetrics.NewMetrics(nil)
}

func (j *PackageExpiryScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
