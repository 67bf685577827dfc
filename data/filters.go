package data

// Page size bounds applied to every paginated listing.
const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// Filters defines pagination and sorting of a listing. Sort is an index into
// SortSafeList; an index outside of the list selects the listing's default order.
type Filters struct {
	PageLimit    int
	PageOffset   int
	Sort         int
	Asc          bool
	SortSafeList []string
}

// Limit returns the page size, defaulting non-positive values and capping large ones.
func (f Filters) Limit() int {
	switch {
	case f.PageLimit <= 0:
		return DefaultPageLimit
	case f.PageLimit > MaxPageLimit:
		return MaxPageLimit
	default:
		return f.PageLimit
	}
}

// Offset returns the number of records to skip. Negative offsets are treated as zero.
func (f Filters) Offset() int {
	if f.PageOffset < 0 {
		return 0
	}
	return f.PageOffset
}

// SortColumn returns the requested sort column, or "" when the default order applies.
func (f Filters) SortColumn() string {
	if f.Sort < 0 || f.Sort >= len(f.SortSafeList) {
		return ""
	}
	return f.SortSafeList[f.Sort]
}

// SortDirection returns the sort direction ("ASC" or "DESC").
func (f Filters) SortDirection() string {
	if f.Asc {
		return "ASC"
	}
	return "DESC"
}

// Metadata holds pagination metadata of a listing.
type Metadata struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// CalculateMetadata calculates the pagination metadata values.
func CalculateMetadata(totalRecords int, filters Filters) Metadata {
	return Metadata{
		Total:  totalRecords,
		Limit:  filters.Limit(),
		Offset: filters.Offset(),
	}
}
