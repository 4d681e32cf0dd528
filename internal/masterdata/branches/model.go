package branches

import (
	"time"
)

// Branch represents a physical business location. The branch tree is stored
// as parent-id adjacency; children are computed by query, never held as an
// in-memory object graph.
type Branch struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	ParentID  *int64    `json:"parent_id,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DayHours is one weekday's operating window, minutes from midnight.
// A weekday without a row is closed.
type DayHours struct {
	Weekday      time.Weekday `json:"weekday"`
	OpenMinutes  int          `json:"open_minutes"`
	CloseMinutes int          `json:"close_minutes"`
}
