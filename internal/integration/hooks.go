// Package integration wires the domain services together at the points where
// one module's operation must take effect inside another's transaction.
package integration

import (
	"context"
	"log/slog"

	"github.com/velora-salon/velora-salon/internal/billing"
	"github.com/velora-salon/velora-salon/internal/scheduling/booking"
	"github.com/velora-salon/velora-salon/internal/sessionledger"
)

// CompletionHooks implements booking.CompletionHooks. Package visits consume
// a prepaid session; direct visits are invoiced. Package visits are never
// invoiced here because the package sale already was.
type CompletionHooks struct {
	catalog booking.CatalogSource
	ledger  *sessionledger.Service
	billing *billing.Service
	logger  *slog.Logger
}

func NewCompletionHooks(catalog booking.CatalogSource, ledger *sessionledger.Service, billingSvc *billing.Service, logger *slog.Logger) *CompletionHooks {
	return &CompletionHooks{catalog: catalog, ledger: ledger, billing: billingSvc, logger: logger}
}

func (h *CompletionHooks) OnComplete(ctx context.Context, appt booking.Appointment) error {
	if appt.UsesPackage() {
		return h.ledger.Debit(ctx, sessionledger.Usage{
			AppointmentID:     appt.ID,
			CustomerPackageID: *appt.CustomerPackageID,
			ServiceID:         appt.ServiceID,
		})
	}

	svc, err := h.catalog.Get(ctx, appt.ServiceID)
	if err != nil {
		return err
	}
	_, err = h.billing.SettleAppointment(ctx, billing.AppointmentSettlement{
		AppointmentID: appt.ID,
		CustomerID:    appt.CustomerID,
		StaffID:       appt.StaffID,
		BranchID:      appt.BranchID,
		ServicePrice:  svc.Price,
		CommissionDue: svc.CommissionFor(),
	})
	return err
}

func (h *CompletionHooks) OnRevert(ctx context.Context, appt booking.Appointment) error {
	if appt.UsesPackage() {
		reversed, err := h.ledger.Reverse(ctx, appt.ID)
		if err != nil {
			return err
		}
		if !reversed {
			h.logger.Warn("revert found no usage record", slog.Int64("appointment_id", appt.ID))
		}
		return nil
	}

	reversed, err := h.billing.ReverseAppointmentInvoice(ctx, appt.ID)
	if err != nil {
		return err
	}
	if !reversed {
		h.logger.Warn("revert found no invoice", slog.Int64("appointment_id", appt.ID))
	}
	return nil
}
