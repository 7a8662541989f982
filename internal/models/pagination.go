package models

import "encoding/json"

// MaxPage bounds the requested page number. Pages past it are served
// as MaxPage, which is empty for any realistic listing.
const MaxPage = 1_000_000

// Pagination describes one page of a listing. TotalKey names the total
// field in JSON ("totalArticles", "totalImages").
type Pagination struct {
	CurrentPage int
	TotalPages  int
	Total       int
	Limit       int
	TotalKey    string
}

// NewPagination computes page counts for total items split into pages of
// limit items.
func NewPagination(totalKey string, page, limit, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{
		CurrentPage: page,
		TotalPages:  pages,
		Total:       total,
		Limit:       limit,
		TotalKey:    totalKey,
	}
}

// HasNextPage reports whether a later page exists.
func (p Pagination) HasNextPage() bool { return p.CurrentPage < p.TotalPages }

// HasPrevPage reports whether an earlier page exists.
func (p Pagination) HasPrevPage() bool { return p.CurrentPage > 1 }

// Offset returns the number of rows to skip for the current page.
func (p Pagination) Offset() int {
	page := min(max(p.CurrentPage, 1), MaxPage)
	return (page - 1) * max(p.Limit, 0)
}

func (p Pagination) MarshalJSON() ([]byte, error) {
	key := p.TotalKey
	if key == "" {
		key = "total"
	}
	return json.Marshal(map[string]any{
		"currentPage": p.CurrentPage,
		"totalPages":  p.TotalPages,
		key:           p.Total,
		"hasNextPage": p.HasNextPage(),
		"hasPrevPage": p.HasPrevPage(),
		"limit":       p.Limit,
	})
}
