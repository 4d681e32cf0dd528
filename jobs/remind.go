package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/velora-salon/velora-salon/internal/jobs"
	"github.com/velora-salon/velora-salon/internal/scheduling/booking"
	"github.com/velora-salon/velora-salon/internal/shared"
)

// ReminderScheduler implements booking.ReminderScheduler: reminders fire a
// fixed lead time before the appointment starts.
type ReminderScheduler struct {
	Client *Client
	Lead   time.Duration
}

func (s *ReminderScheduler) ScheduleReminder(ctx context.Context, appt booking.Appointment) error {
	if s == nil || s.Client == nil {
		return nil
	}
	_, err := s.Client.EnqueueAppointmentReminder(ctx, appt.ID, appt.StartTime.Add(-s.Lead))
	return err
}

// AppointmentRemindJob delivers pre-visit reminders. Delivery is a log line;
// the SMS/email channel plugs in behind it.
type AppointmentRemindJob struct {
	Bookings *booking.Service
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// NewAppointmentRemindJob initialises the reminder handler.
func NewAppointmentRemindJob(bookings *booking.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *AppointmentRemindJob {
	return &AppointmentRemindJob{Bookings: bookings, Logger: logger, Metrics: metrics}
}

// Handle processes one reminder.
func (j *AppointmentRemindJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Bookings == nil {
		return errors.New("appointment remind: handler not configured")
	}
	var payload AppointmentRemindPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskAppointmentRemind)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Int64("appointment_id", payload.AppointmentID))

	appt, err := j.Bookings.Get(ctx, payload.AppointmentID)
	if err != nil {
		if shared.IsKind(err, shared.KindNotFound) {
			logger.Warn("reminder target vanished")
			j.metrics().AddReminder("missing")
			return nil
		}
		resultErr = err
		return resultErr
	}

	// A visit that was canceled or already handled needs no reminder.
	if appt.Status != booking.Scheduled {
		logger.Info("reminder skipped", slog.String("status", string(appt.Status)))
		j.metrics().AddReminder("skipped")
		return nil
	}

	logger.Info("appointment reminder",
		slog.Int64("customer_id", appt.CustomerID),
		slog.Int64("staff_id", appt.StaffID),
		slog.Time("start_time", appt.StartTime),
	)
	j.metrics().AddReminder("sent")
	return nil
}

func (j *AppointmentRemindJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskAppointmentRemind))
	}
	return slog.Default().With(slog.String("job", TaskAppointmentRemind))
}

func (j *AppointmentRemindJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return jobmetrics.NewMetrics(nil)
}
