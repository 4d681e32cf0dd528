package customers

import "time"

// Customer holds the billing-relevant attributes the engine reads: the
// discount applied to invoice totals and the credit balance overpayments are
// routed into.
type Customer struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Phone         string    `json:"phone,omitempty"`
	DiscountRate  float64   `json:"discount_rate"`
	CreditBalance float64   `json:"credit_balance"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
