package domain

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// Page is a normalized page request.
type Page struct {
	Page  int
	Limit int
}

// NewPage clamps page to >= 1 and limit to 1..MaxPageLimit, using
// DefaultPageLimit when limit is unset.
func NewPage(page, limit int) Page {
	if page < 1 {
		page = 1
	}
	switch {
	case limit <= 0:
		limit = DefaultPageLimit
	case limit > MaxPageLimit:
		limit = MaxPageLimit
	}
	return Page{Page: page, Limit: limit}
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// PageInfo describes where a page sits in the full result set.
type PageInfo struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// Info builds the PageInfo for a result set of total rows.
func (p Page) Info(total int64) PageInfo {
	pages := 0
	if p.Limit > 0 {
		pages = int((total + int64(p.Limit) - 1) / int64(p.Limit))
	}
	return PageInfo{
		Total:      total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: pages,
		HasNext:    p.Page < pages,
		HasPrev:    p.Page > 1,
	}
}
