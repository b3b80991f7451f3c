package pagination

const (
	// DefaultLimit matches the storefront grid page size.
	DefaultLimit = 12
	// MaxLimit caps how many rows any listing can request.
	MaxLimit = 100
	// ModerationPageSize is the admin review queue page size.
	ModerationPageSize = 10
)

// Params holds page-based pagination inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// Meta is returned alongside paginated lists.
type Meta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
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

// NormalizePage clamps page numbers to 1-based values.
func NormalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// Normalize returns a copy with page and limit clamped.
func (p Params) Normalize() Params {
	return Params{Page: NormalizePage(p.Page), Limit: NormalizeLimit(p.Limit)}
}

// Skip returns how many rows precede the page, for limit/skip style APIs.
func (p Params) Skip() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// NewMeta derives the page count for total rows.
func NewMeta(p Params, total int) Meta {
	n := p.Normalize()
	pages := 0
	if total > 0 {
		pages = (total + n.Limit - 1) / n.Limit
	}
	return Meta{Page: n.Page, Limit: n.Limit, Total: total, TotalPages: pages}
}
