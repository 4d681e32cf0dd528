package cashbook

import (
	"context"
	"math"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	apperr "github.com/velora-salon/velora-salon/internal/shared"
)

// Service manages the cash ledger.
type Service struct {
	repo    Repository
	printer *message.Printer
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, printer: message.NewPrinter(language.English)}
}

// Record appends one entry, normalizing the sign by entry type so callers
// pass magnitudes.
func (s *Service) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.BranchID <= 0 {
		return Entry{}, apperr.E(apperr.KindValidation, "branch is required")
	}
	if e.UserID <= 0 {
		return Entry{}, apperr.E(apperr.KindValidation, "acting user is required")
	}
	if !e.Type.Valid() {
		return Entry{}, apperr.E(apperr.KindValidation, "unknown cash entry type")
	}
	if e.Amount < 0 {
		return Entry{}, apperr.E(apperr.KindValidation, "amount is a magnitude; the entry type carries the sign")
	}
	if e.Type != Closing && e.Amount == 0 {
		return Entry{}, apperr.E(apperr.KindValidation, "amount must be positive")
	}
	if sign := e.Type.Sign(); sign < 0 {
		e.Amount = -e.Amount
	}
	return s.repo.Append(ctx, e)
}

// RecordIncome appends the income entry matching a cash payment. Billing
// calls this inside the payment transaction so the payment and its till
// movement commit together.
func (s *Service) RecordIncome(ctx context.Context, branchID, userID int64, amount float64, reference string) (Entry, error) {
	return s.Record(ctx, Entry{
		BranchID:  branchID,
		UserID:    userID,
		Type:      Income,
		Amount:    amount,
		Reference: reference,
	})
}

// Open records the till's opening float.
func (s *Service) Open(ctx context.Context, branchID, userID int64, amount float64) (Entry, error) {
	return s.Record(ctx, Entry{BranchID: branchID, UserID: userID, Type: Opening, Amount: amount})
}

// Close records the counted closing balance. The counted amount is stored
// as-is; reconciliation compares it against the day's net.
func (s *Service) Close(ctx context.Context, branchID, userID int64, counted float64) (Entry, error) {
	return s.Record(ctx, Entry{BranchID: branchID, UserID: userID, Type: Closing, Amount: counted})
}

// DailySummary totals a branch's movements for one day.
func (s *Service) DailySummary(ctx context.Context, branchID int64, day time.Time) (DaySummary, error) {
	if branchID <= 0 {
		return DaySummary{}, apperr.E(apperr.KindValidation, "branch is required")
	}
	entries, err := s.repo.ListByDay(ctx, branchID, day)
	if err != nil {
		return DaySummary{}, err
	}

	summary := DaySummary{
		BranchID: branchID,
		Day:      time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location()),
		Totals:   map[EntryType]float64{},
	}
	for _, e := range entries {
		summary.Totals[e.Type] += e.Amount
		if e.Type != Closing {
			summary.Net += e.Amount
		}
		summary.EntryCount++
	}
	// Avoid "-0.00" in rendered summaries.
	if math.Abs(summary.Net) < 1e-9 {
		summary.Net = 0
	}
	summary.FormattedNet = s.printer.Sprintf("%.2f", summary.Net)
	return summary, nil
}
