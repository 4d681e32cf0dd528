// Package jobs holds the background task definitions and handlers processed
// by the worker binary.
package jobs

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskAppointmentRemind notifies a customer ahead of their visit.
	TaskAppointmentRemind = "appointment:remind"
	// TaskPackageExpiryScan reports customer packages that lapsed with
	// sessions still unused.
	TaskPackageExpiryScan = "package:expiry-scan"
	// TaskCashbookDaySummary logs per-branch till totals for the previous day.
	TaskCashbookDaySummary = "cashbook:day-summary"
)

// AppointmentRemindPayload identifies the appointment to remind about.
type AppointmentRemindPayload struct {
	AppointmentID int64 `json:"appointment_id"`
}

// NewAppointmentRemindTask constructs the reminder task.
func NewAppointmentRemindTask(appointmentID int64) (*asynq.Task, error) {
	data, err := json.Marshal(AppointmentRemindPayload{AppointmentID: appointmentID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAppointmentRemind, data), nil
}

// PackageExpiryScanPayload tunes the expiry scan window.
type PackageExpiryScanPayload struct {
	// GraceDays delays reporting after the expiry date.
	GraceDays int `json:"grace_days"`
}

// NewPackageExpiryScanTask constructs the expiry scan task.
func NewPackageExpiryScanTask(graceDays int) (*asynq.Task, error) {
	data, err := json.Marshal(PackageExpiryScanPayload{GraceDays: graceDays})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPackageExpiryScan, data), nil
}

// CashbookDaySummaryPayload selects the day to summarize; empty means
// yesterday.
type CashbookDaySummaryPayload struct {
	Day string `json:"day,omitempty"`
}

// NewCashbookDaySummaryTask constructs the day summary task.
func NewCashbookDaySummaryTask(day string) (*asynq.Task, error) {
	data, err := json.Marshal(CashbookDaySummaryPayload{Day: day})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCashbookDaySummary, data), nil
}

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) (*Client, error) {
	return &Client{client: asynq.NewClient(redisOpts)}, nil
}

// EnqueueAppointmentReminder schedules a reminder to fire at the given time.
// Times already in the past enqueue for immediate processing.
func (c *Client) EnqueueAppointmentReminder(ctx context.Context, appointmentID int64, at time.Time) (*asynq.TaskInfo, error) {
	task, err := NewAppointmentRemindTask(appointmentID)
	if err != nil {
		return nil, err
	}
	opts := []asynq.Option{asynq.Queue(QueueDefault)}
	if at.After(time.Now()) {
		opts = append(opts, asynq.ProcessAt(at))
	}
	return c.client.EnqueueContext(ctx, task, opts...)
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
