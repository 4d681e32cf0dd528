package integration

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/velora-salon/velora-salon/internal/billing"
	"github.com/velora-salon/velora-salon/internal/cashbook"
	"github.com/velora-salon/velora-salon/internal/masterdata/services"
	"github.com/velora-salon/velora-salon/internal/packages"
	"github.com/velora-salon/velora-salon/internal/scheduling/booking"
	"github.com/velora-salon/velora-salon/internal/sessionledger"
	"github.com/velora-salon/velora-salon/internal/shared"
)

type memoryBillingRepo struct {
	nextID   int64
	invoices map[int64]billing.Invoice
}

func newMemoryBillingRepo() *memoryBillingRepo {
	return &memoryBillingRepo{invoices: map[int64]billing.Invoice{}}
}

func (r *memoryBillingRepo) CreateInvoice(ctx context.Context, inv billing.Invoice) (billing.Invoice, error) {
	if inv.AppointmentID != nil {
		for _, existing := range r.invoices {
			if existing.AppointmentID != nil && *existing.AppointmentID == *inv.AppointmentID {
				return billing.Invoice{}, shared.E(shared.KindConflict, "appointment already invoiced")
			}
		}
	}
	r.nextID++
	inv.ID = r.nextID
	r.invoices[inv.ID] = inv
	return inv, nil
}

func (r *memoryBillingRepo) GetInvoice(ctx context.Context, id int64) (billing.Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return billing.Invoice{}, shared.Ef(shared.KindNotFound, "invoice %d not found", id)
	}
	return inv, nil
}

func (r *memoryBillingRepo) GetInvoiceForUpdate(ctx context.Context, id int64) (billing.Invoice, error) {
	return r.GetInvoice(ctx, id)
}

func (r *memoryBillingRepo) FindInvoiceByAppointment(ctx context.Context, appointmentID int64) (*billing.Invoice, error) {
	for _, inv := range r.invoices {
		if inv.AppointmentID != nil && *inv.AppointmentID == appointmentID {
			out := inv
			return &out, nil
		}
	}
	return nil, nil
}

func (r *memoryBillingRepo) UpdateInvoiceTotals(ctx context.Context, id int64, amountPaid float64, status billing.InvoiceStatus) error {
	inv := r.invoices[id]
	inv.AmountPaid = amountPaid
	inv.Status = status
	r.invoices[id] = inv
	return nil
}

func (r *memoryBillingRepo) MarkInvoiceReversed(ctx context.Context, id int64, at time.Time) error {
	inv := r.invoices[id]
	inv.ReversedAt = &at
	r.invoices[id] = inv
	return nil
}

func (r *memoryBillingRepo) CreatePayment(ctx context.Context, p billing.Payment) (billing.Payment, error) {
	return p, nil
}

func (r *memoryBillingRepo) ListPayments(ctx context.Context, invoiceID int64) ([]billing.Payment, error) {
	return nil, nil
}

func (r *memoryBillingRepo) SumPayments(ctx context.Context, invoiceID int64) (float64, error) {
	return 0, nil
}

func (r *memoryBillingRepo) CreateCommission(ctx context.Context, c billing.Commission) (billing.Commission, error) {
	return c, nil
}

func (r *memoryBillingRepo) FindCommissionByInvoice(ctx context.Context, invoiceID int64) (*billing.Commission, error) {
	return nil, nil
}

func (r *memoryBillingRepo) SetCommissionReversed(ctx context.Context, invoiceID int64, reversed bool) error {
	return nil
}

func (r *memoryBillingRepo) ListCommissionsByStaff(ctx context.Context, staffID int64, from, to time.Time) ([]billing.Commission, error) {
	return nil, nil
}

type memoryLedgerRepo struct {
	nextID  int64
	records map[int64]sessionledger.UsageRecord
}

func newMemoryLedgerRepo() *memoryLedgerRepo {
	return &memoryLedgerRepo{records: map[int64]sessionledger.UsageRecord{}}
}

func (r *memoryLedgerRepo) FindByAppointment(ctx context.Context, appointmentID int64) (*sessionledger.UsageRecord, error) {
	for _, rec := range r.records {
		if rec.AppointmentID == appointmentID {
			out := rec
			return &out, nil
		}
	}
	return nil, nil
}

func (r *memoryLedgerRepo) Insert(ctx context.Context, rec sessionledger.UsageRecord) (sessionledger.UsageRecord, error) {
	r.nextID++
	rec.ID = r.nextID
	r.records[rec.ID] = rec
	return rec, nil
}

func (r *memoryLedgerRepo) DeleteByAppointment(ctx context.Context, appointmentID int64) (bool, error) {
	for id, rec := range r.records {
		if rec.AppointmentID == appointmentID {
			delete(r.records, id)
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryLedgerRepo) ListByCustomerPackage(ctx context.Context, customerPackageID int64) ([]sessionledger.UsageRecord, error) {
	var out []sessionledger.UsageRecord
	for _, rec := range r.records {
		if rec.CustomerPackageID == customerPackageID {
			out = append(out, rec)
		}
	}
	return out, nil
}

type memoryPackageStore struct {
	cp packages.CustomerPackage
}

func (s *memoryPackageStore) GetCustomerPackageForUpdate(ctx context.Context, id int64) (packages.CustomerPackage, error) {
	return s.cp, nil
}

func (s *memoryPackageStore) AdjustRemaining(ctx context.Context, customerPackageID, serviceID int64, delta int) error {
	remaining := s.cp.Remaining[serviceID]
	if remaining+delta < 0 {
		return shared.Ef(shared.KindInsufficientSessions, "customer package %d has no remaining sessions for service %d", customerPackageID, serviceID)
	}
	s.cp.Remaining[serviceID] = remaining + delta
	return nil
}

type stubCatalog struct {
	svc services.Service
}

func (c stubCatalog) Get(ctx context.Context, id int64) (services.Service, error) {
	return c.svc, nil
}

type noopCash struct{}

func (noopCash) RecordIncome(ctx context.Context, branchID, userID int64, amount float64, reference string) (cashbook.Entry, error) {
	return cashbook.Entry{ID: 1}, nil
}

type flatCustomers struct{}

func (flatCustomers) DiscountRate(ctx context.Context, customerID int64) (float64, error) {
	return 0, nil
}

func (flatCustomers) SpendCredit(ctx context.Context, customerID int64, amount float64) error {
	return nil
}

type passthroughRunner struct {
	mu sync.Mutex
}

func (r *passthroughRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(ctx)
}

type hookFixture struct {
	billingRepo *memoryBillingRepo
	ledgerRepo  *memoryLedgerRepo
	store       *memoryPackageStore
	hooks       *CompletionHooks
}

func newHookFixture() *hookFixture {
	rate := 0.1
	f := &hookFixture{
		billingRepo: newMemoryBillingRepo(),
		ledgerRepo:  newMemoryLedgerRepo(),
		store:       &memoryPackageStore{cp: packages.CustomerPackage{ID: 30, CustomerID: 2, Remaining: packages.Remaining{10: 2}}},
	}
	catalog := stubCatalog{svc: services.Service{ID: 10, BranchID: 1, Type: services.TimeBased, DurationMin: 30, Price: 100, CommissionRate: &rate}}
	ledger := sessionledger.NewService(f.ledgerRepo, f.store)
	billingSvc := billing.NewService(f.billingRepo, noopCash{}, flatCustomers{}, &passthroughRunner{})
	f.hooks = NewCompletionHooks(catalog, ledger, billingSvc, slog.Default())
	return f
}

func directVisit() booking.Appointment {
	return booking.Appointment{ID: 100, CustomerID: 2, StaffID: 5, ServiceID: 10, BranchID: 1, Status: booking.Arrived}
}

func packageVisit() booking.Appointment {
	appt := directVisit()
	cpID := int64(30)
	appt.CustomerPackageID = &cpID
	return appt
}

func TestOnCompleteDirectVisitInvoices(t *testing.T) {
	f := newHookFixture()
	ctx := context.Background()

	require.NoError(t, f.hooks.OnComplete(ctx, directVisit()))

	require.Len(t, f.billingRepo.invoices, 1)
	for _, inv := range f.billingRepo.invoices {
		require.NotNil(t, inv.AppointmentID)
		require.Equal(t, int64(100), *inv.AppointmentID)
		require.InDelta(t, 100.0, inv.TotalAmount, 0.001)
		require.InDelta(t, 10.0, inv.CommissionDue, 0.001)
	}
	require.Empty(t, f.ledgerRepo.records)
	require.Equal(t, 2, f.store.cp.Remaining[10])
}

func TestOnCompletePackageVisitDebits(t *testing.T) {
	f := newHookFixture()
	ctx := context.Background()

	require.NoError(t, f.hooks.OnComplete(ctx, packageVisit()))

	require.Len(t, f.ledgerRepo.records, 1)
	require.Equal(t, 1, f.store.cp.Remaining[10])
	// A package visit is never invoiced; the package sale already was.
	require.Empty(t, f.billingRepo.invoices)
}

func TestOnCompleteDirectVisitTwice(t *testing.T) {
	f := newHookFixture()
	ctx := context.Background()

	require.NoError(t, f.hooks.OnComplete(ctx, directVisit()))
	err := f.hooks.OnComplete(ctx, directVisit())
	require.True(t, shared.IsKind(err, shared.KindConflict))
	require.Len(t, f.billingRepo.invoices, 1)
}

func TestOnCompletePackageVisitTwice(t *testing.T) {
	f := newHookFixture()
	ctx := context.Background()

	require.NoError(t, f.hooks.OnComplete(ctx, packageVisit()))
	err := f.hooks.OnComplete(ctx, packageVisit())
	require.True(t, shared.IsKind(err, shared.KindAlreadyDebited))
	require.Equal(t, 1, f.store.cp.Remaining[10])
}

func TestOnRevertPackageVisitRefunds(t *testing.T) {
	f := newHookFixture()
	ctx := context.Background()

	require.NoError(t, f.hooks.OnComplete(ctx, packageVisit()))
	require.NoError(t, f.hooks.OnRevert(ctx, packageVisit()))

	require.Empty(t, f.ledgerRepo.records)
	require.Equal(t, 2, f.store.cp.Remaining[10])
}

func TestOnRevertDirectVisitVoidsInvoice(t *testing.T) {
	f := newHookFixture()
	ctx := context.Background()

	require.NoError(t, f.hooks.OnComplete(ctx, directVisit()))
	require.NoError(t, f.hooks.OnRevert(ctx, directVisit()))

	inv, err := f.billingRepo.FindInvoiceByAppointment(ctx, 100)
	require.NoError(t, err)
	require.NotNil(t, inv)
	require.NotNil(t, inv.ReversedAt)
}

func TestOnRevertWithoutCompletionIsHarmless(t *testing.T) {
	f := newHookFixture()
	ctx := context.Background()

	require.NoError(t, f.hooks.OnRevert(ctx, directVisit()))
	require.NoError(t, f.hooks.OnRevert(ctx, packageVisit()))
}
