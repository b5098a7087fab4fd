package repository

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// PageRequest is the page/limit pair taken from query parameters.
type PageRequest struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

// PageInfo describes the returned slice. Page is the effective page after clamping.
type PageInfo struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Normalize applies defaults and bounds.
func (r PageRequest) Normalize() PageRequest {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Limit < 1 {
		r.Limit = DefaultPageLimit
	}
	if r.Limit > MaxPageLimit {
		r.Limit = MaxPageLimit
	}
	return r
}

// Paginate cuts one page out of items. A page past the end is moved back to the last page,
// which is page 1 for an empty list.
func Paginate[T any](items []T, req PageRequest) ([]T, PageInfo) {
	req = req.Normalize()
	total := len(items)
	pages := (total + req.Limit - 1) / req.Limit
	switch {
	case pages == 0:
		req.Page = 1
	case req.Page > pages:
		req.Page = pages
	}
	info := PageInfo{Page: req.Page, Limit: req.Limit, Total: total, TotalPages: pages}

	start := (req.Page - 1) * req.Limit
	if start >= total {
		return []T{}, info
	}
	end := start + req.Limit
	if end > total {
		end = total
	}
	out := make([]T, end-start)
	copy(out, items[start:end])
	return out, info
}
