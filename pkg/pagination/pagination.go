package pagination

import (
	"net/url"
	"strconv"
)

const (
	// DefaultPageSize is the standard page size when one is not provided.
	DefaultPageSize = 25
	// MaxPageSize caps how many rows any paged query can request.
	MaxPageSize = 200
)

// Params holds offset pagination inputs from controllers or services.
type Params struct {
	Page     int
	PageSize int
}

// Meta describes the page that was returned alongside the total row count.
type Meta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalRows  int64 `json:"total_rows"`
	TotalPages int64 `json:"total_pages"`
}

// FromQuery parses page/page_size from a URL query, applying defaults.
func FromQuery(query url.Values) Params {
	page, _ := strconv.Atoi(query.Get("page"))
	pageSize, _ := strconv.Atoi(query.Get("page_size"))
	return Normalize(Params{Page: page, PageSize: pageSize})
}

// Normalize enforces the configured default and maximum page sizes.
func Normalize(p Params) Params {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset returns the row offset for the page.
func (p Params) Offset() int {
	n := Normalize(p)
	return (n.Page - 1) * n.PageSize
}

// Limit returns the page size after normalization.
func (p Params) Limit() int {
	return Normalize(p).PageSize
}

// MetaFor builds the page metadata for a total row count.
func MetaFor(p Params, totalRows int64) Meta {
	n := Normalize(p)
	totalPages := totalRows / int64(n.PageSize)
	if totalRows%int64(n.PageSize) != 0 {
		totalPages++
	}
	return Meta{
		Page:       n.Page,
		PageSize:   n.PageSize,
		TotalRows:  totalRows,
		TotalPages: totalPages,
	}
}
