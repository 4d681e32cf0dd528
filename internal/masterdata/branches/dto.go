package branches

// BranchForm is the create/update request payload.
type BranchForm struct {
	Name     string `json:"name" validate:"required"`
	ParentID *int64 `json:"parent_id" validate:"omitempty,gt=0"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

// HoursForm sets a branch's weekly operating hours.
type HoursForm struct {
	Hours []DayHoursForm `json:"hours" validate:"required,dive"`
}

// DayHoursForm is one weekday's window in the request payload.
type DayHoursForm struct {
	Weekday      int `json:"weekday" validate:"gte=0,lte=6"`
	OpenMinutes  int `json:"open_minutes" validate:"gte=0,lt=1440"`
	CloseMinutes int `json:"close_minutes" validate:"gt=0,lte=1440"`
}
