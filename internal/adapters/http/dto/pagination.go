package dto

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

// Page size bounds for list endpoints.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ErrInvalidCursor is returned when a cursor cannot be decoded.
var ErrInvalidCursor = errors.New("invalid cursor")

// PageQuery holds the paging query parameters of list endpoints.
type PageQuery struct {
	// Cursor is the opaque NextCursor of a previous page.
	Cursor string `form:"cursor" json:"cursor"`

	Limit int `form:"limit" json:"limit" validate:"omitempty,gte=1,lte=100"`
}

// Size returns the page size with defaults and bounds applied.
func (q *PageQuery) Size() int {
	switch {
	case q.Limit <= 0:
		return DefaultPageSize
	case q.Limit > MaxPageSize:
		return MaxPageSize
	default:
		return q.Limit
	}
}

// Offset returns the directory offset the cursor points at, zero without one.
func (q *PageQuery) Offset() (int, error) {
	if q.Cursor == "" {
		return 0, nil
	}

	c, err := ParseCursor(q.Cursor)
	if err != nil {
		return 0, err
	}

	return c.Offset, nil
}

// Cursor marks where the next page starts. The marketing API pages by offset,
// After records the last key served so clients can detect list churn.
type Cursor struct {
	Offset int    `json:"o"`
	After  string `json:"a,omitempty"`
}

// Encode returns the URL-safe form of c.
func (c Cursor) Encode() string {
	raw, err := json.Marshal(c)
	if err != nil {
		return ""
	}

	return base64.RawURLEncoding.EncodeToString(raw)
}

// ParseCursor decodes a cursor produced by Encode.
func ParseCursor(s string) (Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}

	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil || c.Offset < 0 {
		return Cursor{}, ErrInvalidCursor
	}

	return c, nil
}

// Page is one page of a list response.
type Page[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"nextCursor,omitempty"`
	HasMore    bool   `json:"hasMore"`
}

// NewPage trims items fetched with one lookahead entry to size. When the
// lookahead was present the page carries a cursor past the last item kept.
func NewPage[T any](items []T, offset, size int, key func(T) string) *Page[T] {
	if items == nil {
		items = []T{}
	}

	page := &Page[T]{Items: items}
	if len(items) <= size {
		return page
	}

	page.Items = items[:size]
	page.HasMore = true

	next := Cursor{Offset: offset + size}
	if key != nil && size > 0 {
		next.After = key(page.Items[size-1])
	}

	page.NextCursor = next.Encode()

	return page
}
