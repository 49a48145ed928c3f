package models

import (
	"fmt"
	"strings"
)

// SortField names a note attribute the list endpoint can order by.
type SortField string

const (
	SortByDate         SortField = "date"
	SortByLastModified SortField = "lastModified"
	SortByTitle        SortField = "title"
	SortByType         SortField = "type"
	SortByFavorite     SortField = "isFavorite"
	SortByDuration     SortField = "duration"
)

// DefaultSort is used when the caller does not pick an order.
const DefaultSort = "-date"

var sortFields = map[SortField]bool{
	SortByDate:         true,
	SortByLastModified: true,
	SortByTitle:        true,
	SortByType:         true,
	SortByFavorite:     true,
	SortByDuration:     true,
}

// Sort is a parsed sort specification.
type Sort struct {
	Field SortField
	Desc  bool
}

// String renders s in the "-field" query form.
func (s Sort) String() string {
	if s.Desc {
		return "-" + string(s.Field)
	}
	return string(s.Field)
}

// ParseSort parses "field" (ascending) or "-field" (descending).
// An empty string yields DefaultSort.
func ParseSort(raw string) (Sort, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = DefaultSort
	}
	var s Sort
	if strings.HasPrefix(raw, "-") {
		s.Desc = true
		raw = raw[1:]
	} else {
		raw = strings.TrimPrefix(raw, "+")
	}
	s.Field = SortField(raw)
	if !sortFields[s.Field] {
		return Sort{}, fmt.Errorf("%w: unknown sort field %q", ErrValidation, raw)
	}
	return s, nil
}

// NoteQuery holds the list parameters after validation.
type NoteQuery struct {
	Page   int
	Limit  int
	Sort   Sort
	Search string
}

// Offset returns the number of rows to skip for the page.
func (q NoteQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// TotalPages returns ceil(total/limit).
func TotalPages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
