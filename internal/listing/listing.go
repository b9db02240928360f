// Package listing parses caller-supplied ordering and pagination parameters.
package listing

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"littlelemon/internal/apperr"
)

// SortField is one validated ordering key, already mapped to its column.
type SortField struct {
	Column string
	Desc   bool
}

// ParseOrdering turns "a,-b" into sort fields using allowed, which maps the
// public key to a column name. Empty input yields fallback. Unknown keys are
// rejected rather than forwarded to the database.
func ParseOrdering(raw string, allowed map[string]string, fallback ...SortField) ([]SortField, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}

	parts := strings.Split(raw, ",")
	fields := make([]SortField, 0, len(parts))
	for _, part := range parts {
		key := strings.TrimSpace(part)
		desc := strings.HasPrefix(key, "-")
		key = strings.TrimPrefix(key, "-")

		column, ok := allowed[key]
		if !ok {
			return nil, apperr.FieldError("ordering",
				fmt.Sprintf("unknown ordering field %q, allowed: %s", key, allowedKeys(allowed)))
		}
		fields = append(fields, SortField{Column: column, Desc: desc})
	}
	return fields, nil
}

func allowedKeys(allowed map[string]string) string {
	keys := make([]string, 0, len(allowed))
	for k := range allowed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}

// Page is a validated 1-based page request.
type Page struct {
	Number int
	Size   int
}

// NewPage validates the page number and size. A zero size means defaultSize.
func NewPage(number, size, defaultSize, maxSize int) (Page, error) {
	if number == 0 {
		number = 1
	}
	if size == 0 {
		size = defaultSize
	}
	if number < 1 {
		return Page{}, apperr.FieldError("page", "page must be a positive integer")
	}
	if size < 1 || size > maxSize {
		return Page{}, apperr.FieldError("perpage", fmt.Sprintf("perpage must be between 1 and %d", maxSize))
	}
	// Pages beyond any reachable offset are clamped so Offset cannot overflow.
	if number-1 > math.MaxInt/size {
		number = math.MaxInt/size + 1
	}
	return Page{Number: number, Size: size}, nil
}

// Offset is the number of rows to skip for this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// Result is one page of T together with the size of the whole result set.
type Result[T any] struct {
	Count   int64 `json:"count"`
	Page    int   `json:"page"`
	PerPage int   `json:"perpage"`
	Results []T   `json:"results"`
}

// NewResult never returns nil Results so an empty page encodes as [].
func NewResult[T any](items []T, count int64, page Page) Result[T] {
	if items == nil {
		items = []T{}
	}
	return Result[T]{Count: count, Page: page.Number, PerPage: page.Size, Results: items}
}
