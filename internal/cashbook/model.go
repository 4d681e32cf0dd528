// Package cashbook is the append-only record of physical cash movements used
// for till reconciliation. Entries are never updated or deleted.
package cashbook

import "time"

// EntryType classifies a cash movement.
type EntryType string

const (
	Opening   EntryType = "OPENING"
	Closing   EntryType = "CLOSING"
	Income    EntryType = "INCOME"
	Outcome   EntryType = "OUTCOME"
	ManualIn  EntryType = "MANUAL_IN"
	ManualOut EntryType = "MANUAL_OUT"
)

// Sign returns the direction entries of this type carry: +1 for money into
// the till, -1 for money out, 0 for the closing snapshot.
func (t EntryType) Sign() int {
	switch t {
	case Opening, Income, ManualIn:
		return 1
	case Outcome, ManualOut:
		return -1
	}
	return 0
}

// Valid reports whether t is a known entry type.
func (t EntryType) Valid() bool {
	switch t {
	case Opening, Closing, Income, Outcome, ManualIn, ManualOut:
		return true
	}
	return false
}

// Entry is one signed cash movement.
type Entry struct {
	ID        int64     `json:"id"`
	BranchID  int64     `json:"branch_id"`
	UserID    int64     `json:"user_id"`
	Type      EntryType `json:"type"`
	Amount    float64   `json:"amount"`
	Reference string    `json:"reference,omitempty"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DaySummary aggregates a branch's cash movements for one day.
type DaySummary struct {
	BranchID     int64                 `json:"branch_id"`
	Day          time.Time             `json:"day"`
	Totals       map[EntryType]float64 `json:"totals"`
	Net          float64               `json:"net"`
	FormattedNet string                `json:"formatted_net"`
	EntryCount   int                   `json:"entry_count"`
}
