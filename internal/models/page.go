package models

import (
	"fmt"
	"math"
	"strings"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 1000
)

// Direction is a sort direction
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// SortOrder orders results by one field
type SortOrder struct {
	Field     string    `json:"field"`
	Direction Direction `json:"direction"`
}

// PageSpec describes which slice of an ordered result set to return
type PageSpec struct {
	Page int
	Size int
	Sort []SortOrder
}

// SortableAccountFields maps API field names to account columns
var SortableAccountFields = map[string]string{
	"id":                "id",
	"accountNumber":     "account_number",
	"customerId":        "customer_id",
	"balance":           "balance",
	"transactionAmount": "transaction_amount",
	"description":       "description",
	"transactionDate":   "transaction_date",
	"createdAt":         "created_at",
	"updatedAt":         "updated_at",
}

// Validate checks bounds and sort fields
func (p PageSpec) Validate() error {
	if p.Page < 0 {
		return fmt.Errorf("page index must not be negative")
	}
	if p.Size <= 0 {
		return fmt.Errorf("page size must be positive")
	}
	if p.Size > MaxPageSize {
		return fmt.Errorf("page size must not exceed %d", MaxPageSize)
	}
	if p.Page > math.MaxInt/p.Size {
		return fmt.Errorf("page index %d is out of range for size %d", p.Page, p.Size)
	}
	for _, s := range p.Sort {
		if _, ok := SortableAccountFields[s.Field]; !ok {
			return fmt.Errorf("unknown sort field %q", s.Field)
		}
		if s.Direction != Asc && s.Direction != Desc {
			return fmt.Errorf("unknown sort direction %q", s.Direction)
		}
	}
	return nil
}

// Offset returns the number of rows before the page. Only valid after Validate.
func (p PageSpec) Offset() int {
	return p.Page * p.Size
}

// ParseSortOrder parses "field" or "field,asc|desc"
func ParseSortOrder(raw string) (SortOrder, error) {
	parts := strings.Split(raw, ",")
	order := SortOrder{Field: strings.TrimSpace(parts[0]), Direction: Asc}
	if order.Field == "" {
		return SortOrder{}, fmt.Errorf("empty sort field")
	}
	if len(parts) > 2 {
		return SortOrder{}, fmt.Errorf("invalid sort %q", raw)
	}
	if len(parts) == 2 {
		switch Direction(strings.ToLower(strings.TrimSpace(parts[1]))) {
		case Asc:
		case Desc:
			order.Direction = Desc
		default:
			return SortOrder{}, fmt.Errorf("invalid sort direction in %q", raw)
		}
	}
	return order, nil
}

// Page is a bounded slice of an ordered result set
type Page[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
}

// NewPage builds a page from its content and the total row count
func NewPage[T any](content []T, spec PageSpec, total int64) Page[T] {
	if content == nil {
		content = []T{}
	}
	pages := 0
	if spec.Size > 0 {
		pages = int((total + int64(spec.Size) - 1) / int64(spec.Size))
	}
	return Page[T]{
		Content:       content,
		Page:          spec.Page,
		Size:          spec.Size,
		TotalElements: total,
		TotalPages:    pages,
	}
}

// MapPage converts page content with fn
func MapPage[T, U any](p Page[T], fn func(T) U) Page[U] {
	out := make([]U, 0, len(p.Content))
	for _, item := range p.Content {
		out = append(out, fn(item))
	}
	return Page[U]{
		Content:       out,
		Page:          p.Page,
		Size:          p.Size,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages,
	}
}
