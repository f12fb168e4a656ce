package pagination

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 25
	// MaxLimit caps how many rows any listing query can request.
	MaxLimit = 100
)

// Params holds limit/offset pagination inputs from controllers or services.
type Params struct {
	Limit  int
	Offset int
}

// Page carries the pagination echo returned alongside listings.
type Page struct {
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
	Total  int64 `json:"total"`
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Normalize clamps both components into their allowed ranges.
func Normalize(params Params) Params {
	params.Limit = NormalizeLimit(params.Limit)
	if params.Offset < 0 {
		params.Offset = 0
	}
	return params
}

// PageFor assembles the echo for a normalized query and its total row count.
func PageFor(params Params, total int64) Page {
	normalized := Normalize(params)
	return Page{
		Limit:  normalized.Limit,
		Offset: normalized.Offset,
		Total:  total,
	}
}
