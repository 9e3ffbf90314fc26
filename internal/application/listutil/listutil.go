// Package listutil parses list-view query parameters and computes pagination
// over the filtered view.
package listutil

import (
	"net/url"
	"strconv"
	"strings"

	"addressbook/internal/domain/viewstate"
)

// PageParams carries pagination parameters parsed from a request.
type PageParams struct {
	Page    int // 1-indexed page number
	PerPage int // rows per page
}

// PageInfo carries pagination metadata for rendering.
type PageInfo struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

// DefaultPerPage is the default number of cards per page.
const DefaultPerPage = 25

// PerPageOptions are the allowed rows-per-page values.
var PerPageOptions = []int{10, 25, 50, 100}

// ParsePageParams extracts page and per_page from URL query values.
// PRE: none
// POST: returns valid PageParams with defaults applied
func ParsePageParams(q url.Values) PageParams {
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if !isValidPerPage(perPage) {
		perPage = DefaultPerPage
	}
	return PageParams{Page: page, PerPage: perPage}
}

// ParseViewParams reads a view change from form values: `find` (name keywords),
// `tag` (tags) or `clear`. ok is false when the query asks for no change.
// PRE: none
// POST: a returned state with ok == true passes Validate
func ParseViewParams(q url.Values) (state viewstate.State, ok bool) {
	switch {
	case q.Has("clear"):
		return viewstate.All(), true
	case strings.TrimSpace(q.Get("find")) != "":
		return viewstate.ByName(q.Get("find")), true
	case strings.TrimSpace(q.Get("tag")) != "":
		return viewstate.ByTag(q.Get("tag")), true
	default:
		return viewstate.State{}, false
	}
}

// NewPageInfo computes pagination metadata.
// PRE: total >= 0
// POST: returns PageInfo with TotalPages computed; Page clamped to valid range
func NewPageInfo(page, perPage, total int) PageInfo {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	totalPages := (total + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}
	page = max(1, min(page, totalPages))
	return PageInfo{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// Offset returns the number of rows before the current page.
func (p PageInfo) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Bounds returns the half-open slice range of the current page.
// POST: 0 <= lo <= hi <= Total
func (p PageInfo) Bounds() (lo, hi int) {
	lo = min(p.Offset(), p.Total)
	hi = min(lo+p.PerPage, p.Total)
	return lo, hi
}

// PageNumbers returns at most 5 page numbers centred on the current page.
func (p PageInfo) PageNumbers() []int {
	const maxButtons = 5
	start := max(1, p.Page-maxButtons/2)
	end := start + maxButtons - 1
	if end > p.TotalPages {
		end = p.TotalPages
		start = max(1, end-maxButtons+1)
	}
	pages := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}
	return pages
}

// ShowPagination reports whether there is more than one page.
func (p PageInfo) ShowPagination() bool {
	return p.Total > p.PerPage
}

func isValidPerPage(n int) bool {
	for _, opt := range PerPageOptions {
		if n == opt {
			return true
		}
	}
	return false
}
