package cashbook

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/velora-salon/velora-salon/internal/shared"
)

type memoryRepo struct {
	nextID  int64
	entries []Entry
}

func (r *memoryRepo) Append(ctx context.Context, e Entry) (Entry, error) {
	r.nextID++
	e.ID = r.nextID
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	r.entries = append(r.entries, e)
	return e, nil
}

func (r *memoryRepo) ListByDay(ctx context.Context, branchID int64, day time.Time) ([]Entry, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)
	var out []Entry
	for _, e := range r.entries {
		if e.BranchID == branchID && !e.CreatedAt.Before(dayStart) && e.CreatedAt.Before(dayEnd) {
			out = append(out, e)
		}
	}
	return out, nil
}

func TestRecordNormalizesSign(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo)
	ctx := context.Background()

	in, err := svc.Record(ctx, Entry{BranchID: 1, UserID: 9, Type: ManualIn, Amount: 50})
	require.NoError(t, err)
	require.InDelta(t, 50.0, in.Amount, 0.001)

	out, err := svc.Record(ctx, Entry{BranchID: 1, UserID: 9, Type: ManualOut, Amount: 30})
	require.NoError(t, err)
	require.InDelta(t, -30.0, out.Amount, 0.001)
}

func TestRecordRejectsNegativeMagnitude(t *testing.T) {
	svc := NewService(&memoryRepo{})

	_, err := svc.Record(context.Background(), Entry{BranchID: 1, UserID: 9, Type: Outcome, Amount: -10})
	require.True(t, shared.IsKind(err, shared.KindValidation))
}

func TestRecordRejectsUnknownType(t *testing.T) {
	svc := NewService(&memoryRepo{})

	_, err := svc.Record(context.Background(), Entry{BranchID: 1, UserID: 9, Type: EntryType("BRIBE"), Amount: 10})
	require.True(t, shared.IsKind(err, shared.KindValidation))
}

func TestRecordRequiresActor(t *testing.T) {
	svc := NewService(&memoryRepo{})

	_, err := svc.Record(context.Background(), Entry{BranchID: 1, Type: Income, Amount: 10})
	require.True(t, shared.IsKind(err, shared.KindValidation))
}

func TestRecordIncomeKeepsReference(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo)

	e, err := svc.RecordIncome(context.Background(), 1, 9, 100, "pay-123")
	require.NoError(t, err)
	require.Equal(t, Income, e.Type)
	require.Equal(t, "pay-123", e.Reference)
}

func TestDailySummary(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.Open(ctx, 1, 9, 200)
	require.NoError(t, err)
	_, err = svc.RecordIncome(ctx, 1, 9, 150, "pay-1")
	require.NoError(t, err)
	_, err = svc.Record(ctx, Entry{BranchID: 1, UserID: 9, Type: Outcome, Amount: 50})
	require.NoError(t, err)
	_, err = svc.Close(ctx, 1, 9, 300)
	require.NoError(t, err)

	summary, err := svc.DailySummary(ctx, 1, time.Now())
	require.NoError(t, err)
	require.Equal(t, 4, summary.EntryCount)
	require.InDelta(t, 300.0, summary.Net, 0.001)
	require.InDelta(t, 200.0, summary.Totals[Opening], 0.001)
	require.InDelta(t, 150.0, summary.Totals[Income], 0.001)
	require.InDelta(t, -50.0, summary.Totals[Outcome], 0.001)
	// The counted closing balance is excluded from the net.
	require.InDelta(t, 300.0, summary.Totals[Closing], 0.001)
	require.Equal(t, "300.00", summary.FormattedNet)
}

func TestDailySummaryEmptyDay(t *testing.T) {
	svc := NewService(&memoryRepo{})

	summary, err := svc.DailySummary(context.Background(), 1, time.Now())
	require.NoError(t, err)
	require.Equal(t, 0, summary.EntryCount)
	require.Equal(t, "0.00", summary.FormattedNet)
}
