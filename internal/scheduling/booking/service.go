package booking

import (
	"context"
	"log/slog"
	"time"

	"github.com/velora-salon/velora-salon/internal/masterdata/services"
	"github.com/velora-salon/velora-salon/internal/packages"
	"github.com/velora-salon/velora-salon/internal/platform/db"
	apperr "github.com/velora-salon/velora-salon/internal/shared"
)

// CatalogSource resolves services for duration and pricing.
type CatalogSource interface {
	Get(ctx context.Context, id int64) (services.Service, error)
}

// PackageSource resolves customer packages for booking-time eligibility
// checks. Balances are only mutated at completion, through the hooks.
type PackageSource interface {
	GetCustomerPackage(ctx context.Context, id int64) (packages.CustomerPackage, error)
}

// CompletionHooks runs the financial side effects of completing or reverting
// a visit. Both calls happen inside the appointment's transaction so a failed
// hook rolls the status change back with it.
type CompletionHooks interface {
	OnComplete(ctx context.Context, appt Appointment) error
	OnRevert(ctx context.Context, appt Appointment) error
}

// ReminderScheduler enqueues the pre-visit reminder. Best effort: a failure
// here never fails the booking.
type ReminderScheduler interface {
	ScheduleReminder(ctx context.Context, appt Appointment) error
}

// SlotInvalidator drops cached availability after a calendar mutation.
type SlotInvalidator interface {
	Invalidate(ctx context.Context, staffID int64, day time.Time)
}

// CreateInput is a booking request. DurationMin overrides the service's
// configured duration when positive; the resulting window is what the
// overlap check enforces.
type CreateInput struct {
	CustomerID        int64
	StaffID           int64
	ServiceID         int64
	BranchID          int64
	CustomerPackageID *int64
	StartTime         time.Time
	DurationMin       int
	Notes             string
	CreatedBy         int64
}

// Service is the booking engine.
type Service struct {
	repo            Repository
	catalog         CatalogSource
	packages        PackageSource
	hooks           CompletionHooks
	reminders       ReminderScheduler
	slots           SlotInvalidator
	tx              db.Runner
	logger          *slog.Logger
	unitSlotMinutes int
}

func NewService(repo Repository, catalog CatalogSource, packageSource PackageSource, hooks CompletionHooks, reminders ReminderScheduler, slots SlotInvalidator, tx db.Runner, logger *slog.Logger, unitSlotMinutes int) *Service {
	if unitSlotMinutes <= 0 {
		unitSlotMinutes = 30
	}
	return &Service{
		repo:            repo,
		catalog:         catalog,
		packages:        packageSource,
		hooks:           hooks,
		reminders:       reminders,
		slots:           slots,
		tx:              tx,
		logger:          logger,
		unitSlotMinutes: unitSlotMinutes,
	}
}

func (s *Service) Get(ctx context.Context, id int64) (Appointment, error) {
	if id <= 0 {
		return Appointment{}, apperr.E(apperr.KindValidation, "invalid appointment ID")
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) ListByStaffDay(ctx context.Context, staffID int64, day time.Time) ([]Appointment, error) {
	if staffID <= 0 {
		return nil, apperr.E(apperr.KindValidation, "invalid staff ID")
	}
	return s.repo.ListByStaffDay(ctx, staffID, day)
}

func (s *Service) ListByCustomer(ctx context.Context, customerID int64) ([]Appointment, error) {
	if customerID <= 0 {
		return nil, apperr.E(apperr.KindValidation, "invalid customer ID")
	}
	return s.repo.ListByCustomer(ctx, customerID)
}

// Create books an appointment. The overlap check and the insert run under a
// per-staff advisory lock in one transaction, so two requests for the same
// window cannot both succeed.
func (s *Service) Create(ctx context.Context, in CreateInput) (Appointment, error) {
	if in.CustomerID <= 0 || in.StaffID <= 0 || in.ServiceID <= 0 || in.BranchID <= 0 {
		return Appointment{}, apperr.E(apperr.KindValidation, "customer, staff, service and branch are required")
	}
	if in.StartTime.IsZero() {
		return Appointment{}, apperr.E(apperr.KindValidation, "start time is required")
	}

	svc, err := s.catalog.Get(ctx, in.ServiceID)
	if err != nil {
		return Appointment{}, err
	}
	if svc.BranchID != in.BranchID {
		return Appointment{}, apperr.Ef(apperr.KindServiceNotOffered, "service %d is not offered at branch %d", in.ServiceID, in.BranchID)
	}

	duration, err := s.resolveDuration(svc, in.DurationMin)
	if err != nil {
		return Appointment{}, err
	}
	end := in.StartTime.Add(duration)

	if in.CustomerPackageID != nil {
		if err := s.checkPackageEligibility(ctx, *in.CustomerPackageID, in.CustomerID, in.ServiceID, in.StartTime); err != nil {
			return Appointment{}, err
		}
	}

	appt := Appointment{
		CustomerID:        in.CustomerID,
		StaffID:           in.StaffID,
		ServiceID:         in.ServiceID,
		BranchID:          in.BranchID,
		CustomerPackageID: in.CustomerPackageID,
		StartTime:         in.StartTime,
		EndTime:           end,
		Status:            Scheduled,
		Notes:             in.Notes,
		CreatedBy:         in.CreatedBy,
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.LockStaff(ctx, in.StaffID); err != nil {
			return err
		}
		n, err := s.repo.CountOverlapping(ctx, in.StaffID, in.StartTime, end, 0)
		if err != nil {
			return err
		}
		if n > 0 {
			return apperr.Ef(apperr.KindOverlapConflict, "staff %d is already booked between %s and %s",
				in.StaffID, in.StartTime.Format(time.RFC3339), end.Format(time.RFC3339))
		}
		created, err := s.repo.Create(ctx, appt)
		if err != nil {
			return err
		}
		appt = created
		return nil
	})
	if err != nil {
		return Appointment{}, err
	}

	s.afterCalendarChange(ctx, appt)
	if s.reminders != nil {
		if err := s.reminders.ScheduleReminder(ctx, appt); err != nil {
			s.logger.Warn("schedule reminder failed", slog.Int64("appointment_id", appt.ID), slog.Any("error", err))
		}
	}
	return appt, nil
}

func (s *Service) resolveDuration(svc services.Service, overrideMin int) (time.Duration, error) {
	if overrideMin > 0 {
		return time.Duration(overrideMin) * time.Minute, nil
	}
	switch svc.Type {
	case services.TimeBased:
		if svc.DurationMin <= 0 {
			return 0, apperr.Ef(apperr.KindInvalidServiceDuration, "service %d has no usable duration", svc.ID)
		}
		return time.Duration(svc.DurationMin) * time.Minute, nil
	case services.UnitBased:
		return time.Duration(s.unitSlotMinutes) * time.Minute, nil
	}
	return 0, apperr.Ef(apperr.KindInvalidServiceDuration, "service %d has unknown type %q", svc.ID, svc.Type)
}

// checkPackageEligibility rejects bookings the package cannot cover. The
// balance itself is only debited at completion; in-flight bookings count
// against it here so a customer cannot reserve more sessions than remain.
func (s *Service) checkPackageEligibility(ctx context.Context, customerPackageID, customerID, serviceID int64, start time.Time) error {
	cp, err := s.packages.GetCustomerPackage(ctx, customerPackageID)
	if err != nil {
		return err
	}
	if cp.CustomerID != customerID {
		return apperr.Ef(apperr.KindForbidden, "customer package %d belongs to another customer", customerPackageID)
	}
	if cp.ExpiredAt(start) {
		return apperr.Ef(apperr.KindPackageExpired, "customer package %d expires %s, before the appointment",
			customerPackageID, cp.ExpiryDate.Format("2006-01-02"))
	}
	remaining, ok := cp.Remaining[serviceID]
	if !ok {
		return apperr.Ef(apperr.KindValidation, "service %d is not part of customer package %d", serviceID, customerPackageID)
	}
	if remaining <= 0 {
		return apperr.Ef(apperr.KindPackageExhausted, "customer package %d has no sessions left for service %d", customerPackageID, serviceID)
	}
	inFlight, err := s.repo.CountActivePackageUses(ctx, customerPackageID, serviceID)
	if err != nil {
		return err
	}
	if inFlight >= remaining {
		return apperr.Ef(apperr.KindInsufficientSessions, "customer package %d has %d session(s) left for service %d with %d booking(s) already pending",
			customerPackageID, remaining, serviceID, inFlight)
	}
	return nil
}

// transition applies a pure status change with no financial side effects.
func (s *Service) transition(ctx context.Context, id int64, to Status) (Appointment, error) {
	if id <= 0 {
		return Appointment{}, apperr.E(apperr.KindValidation, "invalid appointment ID")
	}
	var appt Appointment
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !CanTransition(current.Status, to) {
			return apperr.Ef(apperr.KindInvalidTransition, "appointment %d cannot move from %s to %s", id, current.Status, to)
		}
		if err := s.repo.UpdateStatus(ctx, id, to); err != nil {
			return err
		}
		current.Status = to
		appt = current
		return nil
	})
	if err != nil {
		return Appointment{}, err
	}
	return appt, nil
}

func (s *Service) Arrive(ctx context.Context, id int64) (Appointment, error) {
	return s.transition(ctx, id, Arrived)
}

func (s *Service) Cancel(ctx context.Context, id int64) (Appointment, error) {
	appt, err := s.transition(ctx, id, Canceled)
	if err != nil {
		return Appointment{}, err
	}
	s.afterCalendarChange(ctx, appt)
	return appt, nil
}

func (s *Service) MarkNoShow(ctx context.Context, id int64) (Appointment, error) {
	appt, err := s.transition(ctx, id, NoShow)
	if err != nil {
		return Appointment{}, err
	}
	s.afterCalendarChange(ctx, appt)
	return appt, nil
}

// Complete finishes a visit: the status change, the session debit (package
// visits) and the invoice (direct visits) commit as one transaction. A
// concurrent completion of the same appointment fails with AlreadyCompleted.
func (s *Service) Complete(ctx context.Context, id int64) (Appointment, error) {
	if id <= 0 {
		return Appointment{}, apperr.E(apperr.KindValidation, "invalid appointment ID")
	}
	var appt Appointment
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.Status == Completed {
			return apperr.Ef(apperr.KindAlreadyCompleted, "appointment %d is already completed", id)
		}
		if !CanTransition(current.Status, Completed) {
			return apperr.Ef(apperr.KindInvalidTransition, "appointment %d cannot move from %s to %s", id, current.Status, Completed)
		}
		if err := s.hooks.OnComplete(ctx, current); err != nil {
			return err
		}
		if err := s.repo.UpdateStatus(ctx, id, Completed); err != nil {
			return err
		}
		current.Status = Completed
		appt = current
		return nil
	})
	if err != nil {
		return Appointment{}, err
	}
	return appt, nil
}

// Revert administratively undoes a completion: the debit is refunded, the
// invoice reversed, and the appointment returns to Arrived, all atomically.
func (s *Service) Revert(ctx context.Context, id int64) (Appointment, error) {
	if id <= 0 {
		return Appointment{}, apperr.E(apperr.KindValidation, "invalid appointment ID")
	}
	var appt Appointment
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.Status != Completed {
			return apperr.Ef(apperr.KindInvalidTransition, "appointment %d is not completed", id)
		}
		if err := s.hooks.OnRevert(ctx, current); err != nil {
			return err
		}
		if err := s.repo.UpdateStatus(ctx, id, Arrived); err != nil {
			return err
		}
		current.Status = Arrived
		appt = current
		return nil
	})
	if err != nil {
		return Appointment{}, err
	}
	return appt, nil
}

func (s *Service) afterCalendarChange(ctx context.Context, appt Appointment) {
	if s.slots != nil {
		s.slots.Invalidate(ctx, appt.StaffID, appt.StartTime)
	}
}
