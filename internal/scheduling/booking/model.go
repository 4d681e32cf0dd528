// Package booking is the appointment engine: creation with overlap
// protection, the visit state machine, and the completion flow that ties
// session consumption and invoicing into one transaction.
package booking

import "time"

// Status is an appointment lifecycle state.
type Status string

const (
	Scheduled Status = "SCHEDULED"
	Arrived   Status = "ARRIVED"
	Completed Status = "COMPLETED"
	NoShow    Status = "NO_SHOW"
	Canceled  Status = "CANCELED"
)

// transitions enumerates the allowed lifecycle moves. Completed back to
// Arrived is the administrative revert; Canceled and NoShow are terminal.
var transitions = map[Status][]Status{
	Scheduled: {Arrived, Canceled, NoShow},
	Arrived:   {Completed, Canceled},
	Completed: {Arrived},
}

// CanTransition reports whether moving from one status to another is allowed.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Blocking reports whether an appointment in this status occupies the staff
// calendar. Canceled and no-show appointments free their slot.
func (s Status) Blocking() bool {
	return s == Scheduled || s == Arrived || s == Completed
}

// Appointment is one staff/customer booking over a half-open time window
// [StartTime, EndTime). CustomerPackageID is set when the visit consumes a
// prepaid session instead of being invoiced on completion.
type Appointment struct {
	ID                int64     `json:"id"`
	CustomerID        int64     `json:"customer_id"`
	StaffID           int64     `json:"staff_id"`
	ServiceID         int64     `json:"service_id"`
	BranchID          int64     `json:"branch_id"`
	CustomerPackageID *int64    `json:"customer_package_id,omitempty"`
	StartTime         time.Time `json:"start_time"`
	EndTime           time.Time `json:"end_time"`
	Status            Status    `json:"status"`
	Notes             string    `json:"notes,omitempty"`
	CreatedBy         int64     `json:"created_by"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// UsesPackage reports whether the visit consumes a prepaid session.
func (a Appointment) UsesPackage() bool {
	return a.CustomerPackageID != nil
}
