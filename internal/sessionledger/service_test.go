package sessionledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/velora-salon/velora-salon/internal/packages"
	"github.com/velora-salon/velora-salon/internal/shared"
)

type memoryRepo struct {
	nextID  int64
	records map[int64]UsageRecord
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{records: map[int64]UsageRecord{}}
}

func (r *memoryRepo) FindByAppointment(ctx context.Context, appointmentID int64) (*UsageRecord, error) {
	for _, rec := range r.records {
		if rec.AppointmentID == appointmentID {
			out := rec
			return &out, nil
		}
	}
	return nil, nil
}

func (r *memoryRepo) Insert(ctx context.Context, rec UsageRecord) (UsageRecord, error) {
	for _, existing := range r.records {
		if existing.AppointmentID == rec.AppointmentID {
			return UsageRecord{}, shared.E(shared.KindAlreadyDebited, "session already debited for this appointment")
		}
	}
	r.nextID++
	rec.ID = r.nextID
	if rec.UsedAt.IsZero() {
		rec.UsedAt = time.Now()
	}
	r.records[rec.ID] = rec
	return rec, nil
}

func (r *memoryRepo) DeleteByAppointment(ctx context.Context, appointmentID int64) (bool, error) {
	for id, rec := range r.records {
		if rec.AppointmentID == appointmentID {
			delete(r.records, id)
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryRepo) ListByCustomerPackage(ctx context.Context, customerPackageID int64) ([]UsageRecord, error) {
	var out []UsageRecord
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
	if id != s.cp.ID {
		return packages.CustomerPackage{}, shared.Ef(shared.KindNotFound, "customer package %d not found", id)
	}
	return s.cp, nil
}

func (s *memoryPackageStore) AdjustRemaining(ctx context.Context, customerPackageID, serviceID int64, delta int) error {
	remaining, ok := s.cp.Remaining[serviceID]
	if !ok {
		return shared.Ef(shared.KindValidation, "service %d is not part of customer package %d", serviceID, customerPackageID)
	}
	if remaining+delta < 0 {
		return shared.Ef(shared.KindInsufficientSessions, "customer package %d has no remaining sessions for service %d", customerPackageID, serviceID)
	}
	s.cp.Remaining[serviceID] = remaining + delta
	return nil
}

func newLedger(remaining packages.Remaining) (*Service, *memoryPackageStore, *memoryRepo) {
	store := &memoryPackageStore{cp: packages.CustomerPackage{ID: 30, CustomerID: 2, Remaining: remaining}}
	repo := newMemoryRepo()
	return NewService(repo, store), store, repo
}

func usage(appointmentID int64) Usage {
	return Usage{AppointmentID: appointmentID, CustomerPackageID: 30, ServiceID: 10}
}

func TestDebitConsumesOneSession(t *testing.T) {
	svc, store, _ := newLedger(packages.Remaining{10: 3})
	ctx := context.Background()

	require.NoError(t, svc.Debit(ctx, usage(100)))
	require.Equal(t, 2, store.cp.Remaining[10])

	history, err := svc.History(ctx, 30)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, int64(100), history[0].AppointmentID)
}

func TestDebitTwiceSameAppointment(t *testing.T) {
	svc, store, _ := newLedger(packages.Remaining{10: 3})
	ctx := context.Background()

	require.NoError(t, svc.Debit(ctx, usage(100)))
	err := svc.Debit(ctx, usage(100))
	require.True(t, shared.IsKind(err, shared.KindAlreadyDebited))
	require.Equal(t, 2, store.cp.Remaining[10])
}

func TestDebitEmptyBalance(t *testing.T) {
	svc, _, _ := newLedger(packages.Remaining{10: 0})

	err := svc.Debit(context.Background(), usage(100))
	require.True(t, shared.IsKind(err, shared.KindInsufficientSessions))
}

func TestDebitServiceNotInPackage(t *testing.T) {
	svc, _, _ := newLedger(packages.Remaining{11: 3})

	err := svc.Debit(context.Background(), usage(100))
	require.True(t, shared.IsKind(err, shared.KindValidation))
}

func TestReverseRestoresBalance(t *testing.T) {
	svc, store, _ := newLedger(packages.Remaining{10: 3})
	ctx := context.Background()

	require.NoError(t, svc.Debit(ctx, usage(100)))

	reversed, err := svc.Reverse(ctx, 100)
	require.NoError(t, err)
	require.True(t, reversed)
	require.Equal(t, 3, store.cp.Remaining[10])

	history, err := svc.History(ctx, 30)
	require.NoError(t, err)
	require.Empty(t, history)
}

func TestReverseWithoutDebit(t *testing.T) {
	svc, store, _ := newLedger(packages.Remaining{10: 3})

	reversed, err := svc.Reverse(context.Background(), 100)
	require.NoError(t, err)
	require.False(t, reversed)
	require.Equal(t, 3, store.cp.Remaining[10])
}

func TestDebitReverseDebitAgain(t *testing.T) {
	svc, store, _ := newLedger(packages.Remaining{10: 1})
	ctx := context.Background()

	require.NoError(t, svc.Debit(ctx, usage(100)))
	_, err := svc.Reverse(ctx, 100)
	require.NoError(t, err)
	require.NoError(t, svc.Debit(ctx, usage(100)))
	require.Equal(t, 0, store.cp.Remaining[10])
}
