package sessionledger

import (
	"context"

	"github.com/velora-salon/velora-salon/internal/packages"
	apperr "github.com/velora-salon/velora-salon/internal/shared"
)

// PackageStore is the slice of the packages repository the ledger mutates
// balances through.
type PackageStore interface {
	GetCustomerPackageForUpdate(ctx context.Context, id int64) (packages.CustomerPackage, error)
	AdjustRemaining(ctx context.Context, customerPackageID, serviceID int64, delta int) error
}

// Service is the session ledger. Debit and Reverse are exact inverses and
// both expect to run inside the caller's transaction; the completion flow in
// scheduling/booking provides it.
type Service struct {
	repo     Repository
	packages PackageStore
}

func NewService(repo Repository, packageStore PackageStore) *Service {
	return &Service{repo: repo, packages: packageStore}
}

// Debit consumes one session for the given appointment. Calling it twice for
// the same appointment fails with AlreadyDebited rather than decrementing
// twice.
func (s *Service) Debit(ctx context.Context, usage Usage) error {
	if usage.AppointmentID <= 0 || usage.CustomerPackageID <= 0 || usage.ServiceID <= 0 {
		return apperr.E(apperr.KindValidation, "usage requires appointment, customer package and service")
	}

	existing, err := s.repo.FindByAppointment(ctx, usage.AppointmentID)
	if err != nil {
		return err
	}
	if existing != nil {
		return apperr.Ef(apperr.KindAlreadyDebited, "appointment %d already consumed a session", usage.AppointmentID)
	}

	// Row-lock the package so concurrent debits against a shared package
	// serialize.
	if _, err := s.packages.GetCustomerPackageForUpdate(ctx, usage.CustomerPackageID); err != nil {
		return err
	}

	if err := s.packages.AdjustRemaining(ctx, usage.CustomerPackageID, usage.ServiceID, -1); err != nil {
		return err
	}

	// The unique constraint on appointment_id backstops the lookup above
	// against races outside the package lock.
	if _, err := s.repo.Insert(ctx, UsageRecord{
		AppointmentID:     usage.AppointmentID,
		CustomerPackageID: usage.CustomerPackageID,
		ServiceID:         usage.ServiceID,
	}); err != nil {
		return err
	}
	return nil
}

// Reverse undoes the debit for an appointment. A missing usage record is not
// an error; reversed reports whether anything was undone.
func (s *Service) Reverse(ctx context.Context, appointmentID int64) (reversed bool, err error) {
	if appointmentID <= 0 {
		return false, apperr.E(apperr.KindValidation, "invalid appointment ID")
	}

	rec, err := s.repo.FindByAppointment(ctx, appointmentID)
	if err != nil {
		return false, err
	}
	if rec == nil {
		return false, nil
	}

	if _, err := s.packages.GetCustomerPackageForUpdate(ctx, rec.CustomerPackageID); err != nil {
		return false, err
	}
	if err := s.packages.AdjustRemaining(ctx, rec.CustomerPackageID, rec.ServiceID, 1); err != nil {
		return false, err
	}
	deleted, err := s.repo.DeleteByAppointment(ctx, appointmentID)
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// History lists the consumed sessions of a customer package.
func (s *Service) History(ctx context.Context, customerPackageID int64) ([]UsageRecord, error) {
	if customerPackageID <= 0 {
		return nil, apperr.E(apperr.KindValidation, "invalid customer package ID")
	}
	return s.repo.ListByCustomerPackage(ctx, customerPackageID)
}
