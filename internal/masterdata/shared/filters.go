package shared

// ListFilters represents standard list page filters
type ListFilters struct {
	Page    int
	Limit   int
	Search  string
	SortBy  string
	SortDir string

	// Entity specific filters
	BranchID *int64
	Role     string
}

// Offset converts page/limit into a SQL offset.
func (f ListFilters) Offset() int {
	page := f.Page
	if page <= 0 {
		page = DefaultPage
	}
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	return (page - 1) * limit
}
