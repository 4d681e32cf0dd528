package services

import "time"

// ServiceType distinguishes how a service consumes schedule time.
type ServiceType string

const (
	// TimeBased services occupy their configured duration on the calendar.
	TimeBased ServiceType = "TIME_BASED"
	// UnitBased services are sold per unit; scheduling uses a default slot length.
	UnitBased ServiceType = "UNIT_BASED"
)

// Service is a bookable offering that belongs to one branch.
type Service struct {
	ID              int64       `json:"id"`
	BranchID        int64       `json:"branch_id"`
	Name            string      `json:"name"`
	Type            ServiceType `json:"type"`
	DurationMin     int         `json:"duration_min"`
	Price           float64     `json:"price"`
	CommissionRate  *float64    `json:"commission_rate,omitempty"`
	CommissionFixed *float64    `json:"commission_fixed,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// CommissionFor computes the staff commission owed for one paid unit of this
// service. Rate and fixed components combine when both are set.
func (s Service) CommissionFor() float64 {
	var amount float64
	if s.CommissionFixed != nil {
		amount += *s.CommissionFixed
	}
	if s.CommissionRate != nil {
		amount += s.Price * *s.CommissionRate
	}
	return amount
}
