package billing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/velora-salon/velora-salon/internal/cashbook"
	"github.com/velora-salon/velora-salon/internal/packages"
	"github.com/velora-salon/velora-salon/internal/shared"
)

type memoryRepo struct {
	nextInvoiceID    int64
	nextPaymentID    int64
	nextCommissionID int64
	invoices         map[int64]Invoice
	payments         map[int64]Payment
	commissions      map[int64]Commission
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		invoices:    map[int64]Invoice{},
		payments:    map[int64]Payment{},
		commissions: map[int64]Commission{},
	}
}

func (r *memoryRepo) CreateInvoice(ctx context.Context, inv Invoice) (Invoice, error) {
	if inv.AppointmentID != nil {
		for _, existing := range r.invoices {
			if existing.AppointmentID != nil && *existing.AppointmentID == *inv.AppointmentID {
				return Invoice{}, shared.E(shared.KindConflict, "appointment already invoiced")
			}
		}
	}
	r.nextInvoiceID++
	inv.ID = r.nextInvoiceID
	inv.CreatedAt = time.Now()
	inv.UpdatedAt = inv.CreatedAt
	r.invoices[inv.ID] = inv
	return inv, nil
}

func (r *memoryRepo) GetInvoice(ctx context.Context, id int64) (Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return Invoice{}, shared.Ef(shared.KindNotFound, "invoice %d not found", id)
	}
	return inv, nil
}

func (r *memoryRepo) GetInvoiceForUpdate(ctx context.Context, id int64) (Invoice, error) {
	return r.GetInvoice(ctx, id)
}

func (r *memoryRepo) FindInvoiceByAppointment(ctx context.Context, appointmentID int64) (*Invoice, error) {
	for _, inv := range r.invoices {
		if inv.AppointmentID != nil && *inv.AppointmentID == appointmentID {
			out := inv
			return &out, nil
		}
	}
	return nil, nil
}

func (r *memoryRepo) UpdateInvoiceTotals(ctx context.Context, id int64, amountPaid float64, status InvoiceStatus) error {
	inv, ok := r.invoices[id]
	if !ok {
		return shared.Ef(shared.KindNotFound, "invoice %d not found", id)
	}
	inv.AmountPaid = amountPaid
	inv.Status = status
	inv.UpdatedAt = time.Now()
	r.invoices[id] = inv
	return nil
}

func (r *memoryRepo) MarkInvoiceReversed(ctx context.Context, id int64, at time.Time) error {
	inv, ok := r.invoices[id]
	if !ok {
		return shared.Ef(shared.KindNotFound, "invoice %d not found", id)
	}
	inv.ReversedAt = &at
	r.invoices[id] = inv
	return nil
}

func (r *memoryRepo) CreatePayment(ctx context.Context, p Payment) (Payment, error) {
	r.nextPaymentID++
	p.ID = r.nextPaymentID
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	r.payments[p.ID] = p
	return p, nil
}

func (r *memoryRepo) ListPayments(ctx context.Context, invoiceID int64) ([]Payment, error) {
	var out []Payment
	for _, p := range r.payments {
		if p.InvoiceID == invoiceID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memoryRepo) SumPayments(ctx context.Context, invoiceID int64) (float64, error) {
	var sum float64
	for _, p := range r.payments {
		if p.InvoiceID == invoiceID {
			sum += p.Amount
		}
	}
	return sum, nil
}

func (r *memoryRepo) CreateCommission(ctx context.Context, c Commission) (Commission, error) {
	for _, existing := range r.commissions {
		if existing.InvoiceID == c.InvoiceID {
			return Commission{}, shared.E(shared.KindCommissionExists, "commission already committed for invoice")
		}
	}
	r.nextCommissionID++
	c.ID = r.nextCommissionID
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	r.commissions[c.ID] = c
	return c, nil
}

func (r *memoryRepo) FindCommissionByInvoice(ctx context.Context, invoiceID int64) (*Commission, error) {
	for _, c := range r.commissions {
		if c.InvoiceID == invoiceID {
			out := c
			return &out, nil
		}
	}
	return nil, nil
}

func (r *memoryRepo) SetCommissionReversed(ctx context.Context, invoiceID int64, reversed bool) error {
	for id, c := range r.commissions {
		if c.InvoiceID == invoiceID {
			c.IsReversed = reversed
			c.UpdatedAt = time.Now()
			r.commissions[id] = c
		}
	}
	return nil
}

func (r *memoryRepo) ListCommissionsByStaff(ctx context.Context, staffID int64, from, to time.Time) ([]Commission, error) {
	var out []Commission
	for _, c := range r.commissions {
		if c.StaffID == staffID && !c.CreatedAt.Before(from) && c.CreatedAt.Before(to) {
			out = append(out, c)
		}
	}
	return out, nil
}

type memoryRunner struct {
	mu sync.Mutex
}

func (r *memoryRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(ctx)
}

type stubCash struct {
	nextID  int64
	entries []cashbook.Entry
}

func (c *stubCash) RecordIncome(ctx context.Context, branchID, userID int64, amount float64, reference string) (cashbook.Entry, error) {
	c.nextID++
	entry := cashbook.Entry{ID: c.nextID, BranchID: branchID, UserID: userID, Amount: amount, Reference: reference}
	c.entries = append(c.entries, entry)
	return entry, nil
}

type stubCustomers struct {
	discount float64
	credit   float64
}

func (c *stubCustomers) DiscountRate(ctx context.Context, customerID int64) (float64, error) {
	return c.discount, nil
}

func (c *stubCustomers) SpendCredit(ctx context.Context, customerID int64, amount float64) error {
	if amount > c.credit {
		return shared.E(shared.KindValidation, "insufficient customer credit")
	}
	c.credit -= amount
	return nil
}

type fixture struct {
	repo      *memoryRepo
	cash      *stubCash
	customers *stubCustomers
	service   *Service
}

func newFixture(discount float64) *fixture {
	f := &fixture{repo: newMemoryRepo(), cash: &stubCash{}, customers: &stubCustomers{discount: discount}}
	f.service = NewService(f.repo, f.cash, f.customers, &memoryRunner{})
	return f
}

func settlement() AppointmentSettlement {
	return AppointmentSettlement{
		AppointmentID: 100,
		CustomerID:    2,
		StaffID:       5,
		BranchID:      1,
		ServicePrice:  100,
		CommissionDue: 10,
	}
}

func TestSettleAppointmentAppliesDiscount(t *testing.T) {
	f := newFixture(0.2)

	inv, err := f.service.SettleAppointment(context.Background(), settlement())
	require.NoError(t, err)
	require.Equal(t, Unpaid, inv.Status)
	require.InDelta(t, 80.0, inv.TotalAmount, 0.001)
	require.InDelta(t, 10.0, inv.CommissionDue, 0.001)
	require.NotEmpty(t, inv.Number)
}

func TestSettleAppointmentTwice(t *testing.T) {
	f := newFixture(0)
	ctx := context.Background()

	_, err := f.service.SettleAppointment(ctx, settlement())
	require.NoError(t, err)
	_, err = f.service.SettleAppointment(ctx, settlement())
	require.True(t, shared.IsKind(err, shared.KindConflict))
}

func TestSettlePackageSale(t *testing.T) {
	f := newFixture(0)

	invID, err := f.service.SettlePackageSale(context.Background(), packages.SaleInvoiceInput{
		CustomerID:        2,
		CustomerPackageID: 30,
		SoldByStaffID:     5,
		BranchID:          1,
		PackagePrice:      500,
		CommissionDue:     25,
	})
	require.NoError(t, err)

	inv, err := f.service.GetInvoice(context.Background(), invID)
	require.NoError(t, err)
	require.NotNil(t, inv.CustomerPackageID)
	require.InDelta(t, 500.0, inv.TotalAmount, 0.001)
}

func TestPartialPaymentsCommissionOnce(t *testing.T) {
	f := newFixture(0)
	ctx := context.Background()

	inv, err := f.service.SettleAppointment(ctx, settlement())
	require.NoError(t, err)

	_, err = f.service.ApplyPayment(ctx, inv.ID, 60, CreditCard, 9)
	require.NoError(t, err)
	mid, err := f.service.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, PartiallyPaid, mid.Status)
	require.Empty(t, f.repo.commissions)

	_, err = f.service.ApplyPayment(ctx, inv.ID, 40, CreditCard, 9)
	require.NoError(t, err)
	final, err := f.service.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, Paid, final.Status)

	require.Len(t, f.repo.commissions, 1)
	for _, c := range f.repo.commissions {
		require.Equal(t, int64(5), c.StaffID)
		require.InDelta(t, 10.0, c.Amount, 0.001)
		require.False(t, c.IsReversed)
	}
}

func TestOverpaymentRejected(t *testing.T) {
	f := newFixture(0)
	ctx := context.Background()

	inv, err := f.service.SettleAppointment(ctx, settlement())
	require.NoError(t, err)

	_, err = f.service.ApplyPayment(ctx, inv.ID, 120, Cash, 9)
	require.True(t, shared.IsKind(err, shared.KindValidation))
	require.Empty(t, f.cash.entries)
}

func TestCashPaymentHitsTheTill(t *testing.T) {
	f := newFixture(0)
	ctx := context.Background()

	inv, err := f.service.SettleAppointment(ctx, settlement())
	require.NoError(t, err)

	p, err := f.service.ApplyPayment(ctx, inv.ID, 100, Cash, 9)
	require.NoError(t, err)
	require.NotNil(t, p.CashEntryID)
	require.Len(t, f.cash.entries, 1)
	require.InDelta(t, 100.0, f.cash.entries[0].Amount, 0.001)
	require.Equal(t, p.Number, f.cash.entries[0].Reference)
}

func TestCardPaymentSkipsTheTill(t *testing.T) {
	f := newFixture(0)
	ctx := context.Background()

	inv, err := f.service.SettleAppointment(ctx, settlement())
	require.NoError(t, err)

	p, err := f.service.ApplyPayment(ctx, inv.ID, 100, CreditCard, 9)
	require.NoError(t, err)
	require.Nil(t, p.CashEntryID)
	require.Empty(t, f.cash.entries)
}

func TestCustomerCreditPayment(t *testing.T) {
	f := newFixture(0)
	f.customers.credit = 70
	ctx := context.Background()

	inv, err := f.service.SettleAppointment(ctx, settlement())
	require.NoError(t, err)

	_, err = f.service.ApplyPayment(ctx, inv.ID, 50, CustomerCredit, 9)
	require.NoError(t, err)
	require.InDelta(t, 20.0, f.customers.credit, 0.001)

	_, err = f.service.ApplyPayment(ctx, inv.ID, 50, CustomerCredit, 9)
	require.True(t, shared.IsKind(err, shared.KindValidation))
}

func TestUnknownPaymentMethod(t *testing.T) {
	f := newFixture(0)

	_, err := f.service.ApplyPayment(context.Background(), 1, 10, PaymentMethod("IOU"), 9)
	require.True(t, shared.IsKind(err, shared.KindValidation))
}

func TestReverseInvoiceFlipsCommission(t *testing.T) {
	f := newFixture(0)
	ctx := context.Background()

	inv, err := f.service.SettleAppointment(ctx, settlement())
	require.NoError(t, err)
	_, err = f.service.ApplyPayment(ctx, inv.ID, 100, CreditCard, 9)
	require.NoError(t, err)

	require.NoError(t, f.service.ReverseInvoice(ctx, inv.ID))

	reversedInv, err := f.service.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	require.NotNil(t, reversedInv.ReversedAt)

	c, err := f.repo.FindCommissionByInvoice(ctx, inv.ID)
	require.NoError(t, err)
	require.NotNil(t, c)
	require.True(t, c.IsReversed)

	// Payments already on file stay, so the audit trail survives reversal.
	payments, err := f.service.Payments(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
}

func TestPaymentOnReversedInvoiceRejected(t *testing.T) {
	f := newFixture(0)
	ctx := context.Background()

	inv, err := f.service.SettleAppointment(ctx, settlement())
	require.NoError(t, err)
	require.NoError(t, f.service.ReverseInvoice(ctx, inv.ID))

	_, err = f.service.ApplyPayment(ctx, inv.ID, 10, Cash, 9)
	require.True(t, shared.IsKind(err, shared.KindConflict))
}

func TestReverseAppointmentInvoice(t *testing.T) {
	f := newFixture(0)
	ctx := context.Background()

	_, err := f.service.SettleAppointment(ctx, settlement())
	require.NoError(t, err)

	reversed, err := f.service.ReverseAppointmentInvoice(ctx, 100)
	require.NoError(t, err)
	require.True(t, reversed)

	reversed, err = f.service.ReverseAppointmentInvoice(ctx, 999)
	require.NoError(t, err)
	require.False(t, reversed)
}

func TestDeriveStatus(t *testing.T) {
	require.Equal(t, Unpaid, DeriveStatus(100, 0))
	require.Equal(t, PartiallyPaid, DeriveStatus(100, 40))
	require.Equal(t, Paid, DeriveStatus(100, 100))
	require.Equal(t, Paid, DeriveStatus(100, 120))
}
