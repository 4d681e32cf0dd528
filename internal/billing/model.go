package billing

import "time"

// InvoiceStatus is derived from totalAmount and amountPaid, never set
// independently.
type InvoiceStatus string

const (
	Unpaid        InvoiceStatus = "UNPAID"
	PartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	Paid          InvoiceStatus = "PAID"
)

// DeriveStatus computes the invoice status from its amounts.
func DeriveStatus(total, paid float64) InvoiceStatus {
	switch {
	case paid <= 0:
		return Unpaid
	case paid >= total:
		return Paid
	default:
		return PartiallyPaid
	}
}

// Invoice bills either one appointment or one package sale, never both.
type Invoice struct {
	ID                int64         `json:"id"`
	Number            string        `json:"number"`
	CustomerID        int64         `json:"customer_id"`
	StaffID           int64         `json:"staff_id"`
	BranchID          int64         `json:"branch_id"`
	AppointmentID     *int64        `json:"appointment_id,omitempty"`
	CustomerPackageID *int64        `json:"customer_package_id,omitempty"`
	TotalAmount       float64       `json:"total_amount"`
	AmountPaid        float64       `json:"amount_paid"`
	Status            InvoiceStatus `json:"status"`
	// CommissionDue snapshots the commission owed when the invoice is fully
	// paid, frozen at settlement so later catalog edits cannot change it.
	CommissionDue float64    `json:"commission_due"`
	ReversedAt    *time.Time `json:"reversed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Debt is the open amount on the invoice.
func (i Invoice) Debt() float64 {
	return i.TotalAmount - i.AmountPaid
}

// PaymentMethod enumerates how an invoice gets paid.
type PaymentMethod string

const (
	Cash           PaymentMethod = "CASH"
	CreditCard     PaymentMethod = "CREDIT_CARD"
	BankTransfer   PaymentMethod = "BANK_TRANSFER"
	CustomerCredit PaymentMethod = "CUSTOMER_CREDIT"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case Cash, CreditCard, BankTransfer, CustomerCredit:
		return true
	}
	return false
}

// Payment applies an amount against one invoice. Cash payments link to the
// cash ledger entry created in the same transaction.
type Payment struct {
	ID          int64         `json:"id"`
	Number      string        `json:"number"`
	InvoiceID   int64         `json:"invoice_id"`
	Amount      float64       `json:"amount"`
	Method      PaymentMethod `json:"method"`
	CashEntryID *int64        `json:"cash_entry_id,omitempty"`
	CreatedBy   int64         `json:"created_by"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Commission is owed to one staff member for one fully paid invoice.
// Rows are never deleted; reversal flips IsReversed to keep the audit trail.
type Commission struct {
	ID         int64     `json:"id"`
	InvoiceID  int64     `json:"invoice_id"`
	StaffID    int64     `json:"staff_id"`
	Amount     float64   `json:"amount"`
	IsReversed bool      `json:"is_reversed"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
