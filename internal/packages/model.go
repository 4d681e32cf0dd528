package packages

import (
	"time"
)

// Package is a prepaid bundle of service sessions sold to customers.
type Package struct {
	ID              int64         `json:"id"`
	Name            string        `json:"name"`
	Price           float64       `json:"price"`
	ValidityDays    int           `json:"validity_days"`
	CommissionRate  *float64      `json:"commission_rate,omitempty"`
	CommissionFixed *float64      `json:"commission_fixed,omitempty"`
	Items           []PackageItem `json:"items"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// PackageItem grants a quantity of sessions for one service.
type PackageItem struct {
	ServiceID int64 `json:"service_id"`
	Quantity  int   `json:"quantity"`
}

// CommissionFor computes the seller commission for one package sale.
func (p Package) CommissionFor() float64 {
	var amount float64
	if p.CommissionFixed != nil {
		amount += *p.CommissionFixed
	}
	if p.CommissionRate != nil {
		amount += p.Price * *p.CommissionRate
	}
	return amount
}

// Remaining maps service IDs to remaining session counts. Keys are always a
// subset of the owning package's item services; that schema is enforced on
// every mutation, never assumed.
type Remaining map[int64]int

// CustomerPackage is one customer's instance of a Package with a depleting
// balance. Mutated only by the session ledger.
type CustomerPackage struct {
	ID           int64     `json:"id"`
	CustomerID   int64     `json:"customer_id"`
	PackageID    int64     `json:"package_id"`
	PurchaseDate time.Time `json:"purchase_date"`
	ExpiryDate   time.Time `json:"expiry_date"`
	Remaining    Remaining `json:"remaining"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ExpiredAt reports whether the package has lapsed as of t.
func (cp CustomerPackage) ExpiredAt(t time.Time) bool {
	return t.After(cp.ExpiryDate)
}

// Exhausted reports whether every service balance has reached zero.
func (cp CustomerPackage) Exhausted() bool {
	for _, n := range cp.Remaining {
		if n > 0 {
			return false
		}
	}
	return true
}
