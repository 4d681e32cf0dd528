// Package sessionledger tracks prepaid session consumption. Every consumed
// visit leaves exactly one usage record keyed by the appointment that
// consumed it; that record is what makes debit and reverse idempotent.
package sessionledger

import "time"

// UsageRecord is the audit row for one consumed session. 1:1 with the
// appointment that consumed it.
type UsageRecord struct {
	ID                int64     `json:"id"`
	AppointmentID     int64     `json:"appointment_id"`
	CustomerPackageID int64     `json:"customer_package_id"`
	ServiceID         int64     `json:"service_id"`
	UsedAt            time.Time `json:"used_at"`
}

// Usage identifies the session a completion consumes.
type Usage struct {
	AppointmentID     int64
	CustomerPackageID int64
	ServiceID         int64
}
