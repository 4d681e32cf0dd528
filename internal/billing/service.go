package billing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/velora-salon/velora-salon/internal/cashbook"
	"github.com/velora-salon/velora-salon/internal/packages"
	"github.com/velora-salon/velora-salon/internal/platform/db"
	apperr "github.com/velora-salon/velora-salon/internal/shared"
)

// CashRecorder appends the till entry matching a cash payment. Implemented
// by cashbook.Service; the call happens inside the payment transaction.
type CashRecorder interface {
	RecordIncome(ctx context.Context, branchID, userID int64, amount float64, reference string) (cashbook.Entry, error)
}

// CustomerAccount is the slice of the customer service billing needs:
// discount lookup at settlement and credit spending for CUSTOMER_CREDIT
// payments.
type CustomerAccount interface {
	DiscountRate(ctx context.Context, customerID int64) (float64, error)
	SpendCredit(ctx context.Context, customerID int64, amount float64) error
}

// AppointmentSettlement carries the completion facts billing turns into an
// invoice.
type AppointmentSettlement struct {
	AppointmentID int64
	CustomerID    int64
	StaffID       int64
	BranchID      int64
	ServicePrice  float64
	CommissionDue float64
}

// Service is the invoicing and commission engine.
type Service struct {
	repo      Repository
	cash      CashRecorder
	customers CustomerAccount
	tx        db.Runner
}

func NewService(repo Repository, cash CashRecorder, customers CustomerAccount, tx db.Runner) *Service {
	return &Service{repo: repo, cash: cash, customers: customers, tx: tx}
}

// SettleAppointment creates the invoice for a completed non-package
// appointment. Runs inside the caller's completion transaction.
func (s *Service) SettleAppointment(ctx context.Context, in AppointmentSettlement) (Invoice, error) {
	if in.AppointmentID <= 0 || in.CustomerID <= 0 || in.StaffID <= 0 {
		return Invoice{}, apperr.E(apperr.KindValidation, "settlement requires appointment, customer and staff")
	}
	discount, err := s.customers.DiscountRate(ctx, in.CustomerID)
	if err != nil {
		return Invoice{}, err
	}
	total := in.ServicePrice * (1 - discount)

	apptID := in.AppointmentID
	return s.repo.CreateInvoice(ctx, Invoice{
		Number:        uuid.NewString(),
		CustomerID:    in.CustomerID,
		StaffID:       in.StaffID,
		BranchID:      in.BranchID,
		AppointmentID: &apptID,
		TotalAmount:   total,
		AmountPaid:    0,
		Status:        Unpaid,
		CommissionDue: in.CommissionDue,
	})
}

// SettlePackageSale creates the invoice for a package sale. Implements
// packages.Invoicer; runs inside the sale transaction.
func (s *Service) SettlePackageSale(ctx context.Context, sale packages.SaleInvoiceInput) (int64, error) {
	if sale.CustomerID <= 0 || sale.CustomerPackageID <= 0 || sale.SoldByStaffID <= 0 {
		return 0, apperr.E(apperr.KindValidation, "sale requires customer, package and seller")
	}
	discount, err := s.customers.DiscountRate(ctx, sale.CustomerID)
	if err != nil {
		return 0, err
	}
	total := sale.PackagePrice * (1 - discount)

	cpID := sale.CustomerPackageID
	inv, err := s.repo.CreateInvoice(ctx, Invoice{
		Number:            uuid.NewString(),
		CustomerID:        sale.CustomerID,
		StaffID:           sale.SoldByStaffID,
		BranchID:          sale.BranchID,
		CustomerPackageID: &cpID,
		TotalAmount:       total,
		AmountPaid:        0,
		Status:            Unpaid,
		CommissionDue:     sale.CommissionDue,
	})
	if err != nil {
		return 0, err
	}
	return inv.ID, nil
}

// ApplyPayment applies an amount against an invoice. The payment, invoice
// totals, cash ledger entry and any commission commit as one transaction.
// Overpayment is rejected; excess must be routed to customer credit by the
// caller, never absorbed silently.
func (s *Service) ApplyPayment(ctx context.Context, invoiceID int64, amount float64, method PaymentMethod, actorID int64) (Payment, error) {
	if invoiceID <= 0 {
		return Payment{}, apperr.E(apperr.KindValidation, "invalid invoice ID")
	}
	if amount <= 0 {
		return Payment{}, apperr.E(apperr.KindValidation, "payment amount must be positive")
	}
	if !method.Valid() {
		return Payment{}, apperr.E(apperr.KindValidation, "unknown payment method")
	}

	var payment Payment
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		inv, err := s.repo.GetInvoiceForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv.ReversedAt != nil {
			return apperr.Ef(apperr.KindConflict, "invoice %d has been reversed", invoiceID)
		}
		if amount > inv.Debt() {
			return apperr.Ef(apperr.KindValidation, "payment %.2f exceeds open debt %.2f; route the excess to customer credit", amount, inv.Debt())
		}

		payment = Payment{
			Number:    uuid.NewString(),
			InvoiceID: invoiceID,
			Amount:    amount,
			Method:    method,
			CreatedBy: actorID,
		}

		if method == Cash {
			entry, err := s.cash.RecordIncome(ctx, inv.BranchID, actorID, amount, payment.Number)
			if err != nil {
				return err
			}
			payment.CashEntryID = &entry.ID
		}
		if method == CustomerCredit {
			if err := s.customers.SpendCredit(ctx, inv.CustomerID, amount); err != nil {
				return err
			}
		}

		payment, err = s.repo.CreatePayment(ctx, payment)
		if err != nil {
			return err
		}

		newPaid := inv.AmountPaid + amount
		newStatus := DeriveStatus(inv.TotalAmount, newPaid)
		if err := s.repo.UpdateInvoiceTotals(ctx, invoiceID, newPaid, newStatus); err != nil {
			return err
		}

		// Commission commits exactly once, at the first transition to Paid.
		if newStatus == Paid && inv.Status != Paid && inv.CommissionDue > 0 {
			if _, err := s.repo.CreateCommission(ctx, Commission{
				InvoiceID: invoiceID,
				StaffID:   inv.StaffID,
				Amount:    inv.CommissionDue,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Payment{}, err
	}
	return payment, nil
}

// ReverseInvoice administratively voids an invoice: the commission row (if
// any) is flagged reversed — never deleted — and the status is recomputed
// from the payments that remain on file.
func (s *Service) ReverseInvoice(ctx context.Context, invoiceID int64) error {
	if invoiceID <= 0 {
		return apperr.E(apperr.KindValidation, "invalid invoice ID")
	}
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		inv, err := s.repo.GetInvoiceForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv.ReversedAt != nil {
			return nil
		}
		if err := s.repo.SetCommissionReversed(ctx, invoiceID, true); err != nil {
			return err
		}
		paid, err := s.repo.SumPayments(ctx, invoiceID)
		if err != nil {
			return err
		}
		if err := s.repo.UpdateInvoiceTotals(ctx, invoiceID, paid, DeriveStatus(inv.TotalAmount, paid)); err != nil {
			return err
		}
		return s.repo.MarkInvoiceReversed(ctx, invoiceID, time.Now())
	})
}

// ReverseAppointmentInvoice voids the invoice linked to an appointment, if
// one exists. Used when a completed appointment is administratively
// reverted; reversed reports whether an invoice was found.
func (s *Service) ReverseAppointmentInvoice(ctx context.Context, appointmentID int64) (reversed bool, err error) {
	inv, err := s.repo.FindInvoiceByAppointment(ctx, appointmentID)
	if err != nil {
		return false, err
	}
	if inv == nil {
		return false, nil
	}
	if err := s.ReverseInvoice(ctx, inv.ID); err != nil {
		return false, err
	}
	return true, nil
}

// GetInvoice fetches one invoice.
func (s *Service) GetInvoice(ctx context.Context, id int64) (Invoice, error) {
	if id <= 0 {
		return Invoice{}, apperr.E(apperr.KindValidation, "invalid invoice ID")
	}
	return s.repo.GetInvoice(ctx, id)
}

// Payments lists an invoice's payments.
func (s *Service) Payments(ctx context.Context, invoiceID int64) ([]Payment, error) {
	if invoiceID <= 0 {
		return nil, apperr.E(apperr.KindValidation, "invalid invoice ID")
	}
	return s.repo.ListPayments(ctx, invoiceID)
}

// StaffCommissions lists a staff member's commissions in [from, to).
func (s *Service) StaffCommissions(ctx context.Context, staffID int64, from, to time.Time) ([]Commission, error) {
	if staffID <= 0 {
		return nil, apperr.E(apperr.KindValidation, "invalid staff ID")
	}
	return s.repo.ListCommissionsByStaff(ctx, staffID, from, to)
}
