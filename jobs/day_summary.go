package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/velora-salon/velora-salon/internal/cashbook"
	jobmetrics "github.com/velora-salon/velora-salon/internal/jobs"
)

// CashbookDaySummaryJob logs each branch's till totals for one day, by
// default yesterday.
type CashbookDaySummaryJob struct {
	Pool     *pgxpool.Pool
	Cashbook *cashbook.Service
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	clock    func() time.Time
}

// NewCashbookDaySummaryJob initialises the day summary handler.
func NewCashbookDaySummaryJob(pool *pgxpool.Pool, cashbookSvc *cashbook.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *CashbookDaySummaryJob {
	return &CashbookDaySummaryJob{
		Pool:     pool,
		Cashbook: cashbookSvc,
		Logger:   logger,
		Metrics:  metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the day summary.
func (j *CashbookDaySummaryJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil || j.Cashbook == nil {
		return errors.New("cashbook day summary: handler not configured")
	}
	var payload CashbookDaySummaryPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	day := j.now().AddDate(0, 0, -1)
	if payload.Day != "" {
		parsed, err := time.Parse("2006-01-02", payload.Day)
		if err != nil {
			return asynq.SkipRetry
		}
		day = parsed
	}

	tracker := j.metrics().Track(TaskCashbookDaySummary)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("day", day.Format("2006-01-02")))
	logger.Info("starting cashbook day summary")

	branchIDs, err := j.activeBranches(ctx, day)
	if err != nil {
		resultErr = err
		logger.Error("list active branches", slog.Any("error", err))
		return resultErr
	}

	for _, branchID := range branchIDs {
		summary, err := j.Cashbook.DailySummary(ctx, branchID, day)
		if err != nil {
			resultErr = err
			logger.Error("summarize branch", slog.Int64("branch_id", branchID), slog.Any("error", err))
			return resultErr
		}
		logger.Info("branch day summary",
			slog.Int64("branch_id", branchID),
			slog.Int("entries", summary.EntryCount),
			slog.String("net", summary.FormattedNet),
		)
	}

	logger.Info("completed cashbook day summary", slog.Int("branches", len(branchIDs)))
	return resultErr
}

func (j *CashbookDaySummaryJob) activeBranches(ctx context.Context, day time.Time) ([]int64, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	rows, err := j.Pool.Query(ctx, `SELECT DISTINCT branch_id FROM cash_ledger
WHERE created_at >= $1 AND created_at < $2 ORDER BY branch_id`,
		dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (j *CashbookDaySummaryJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskCashbookDaySummary))
	}
	return slog.Default().With(slog.String("job", TaskCashbookDaySummary))
}

func (j *CashbookDaySummaryJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return jobmetrics.NewMetrics(nil)
}

func (j *CashbookDaySummaryJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
