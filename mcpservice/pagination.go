package mcpservice

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidCursor is returned by list operations when the cursor does not
// decode to a non-negative offset.
var ErrInvalidCursor = errors.New("invalid cursor")

// Page represents a single page of results with an optional cursor for
// fetching the next page.
//
// Items is never nil; NewPage normalizes nil input to an empty slice.
type Page[T any] struct {
	Items      []T
	NextCursor *string
}

// PageOption configures a Page constructed via NewPage.
type PageOption[T any] func(*Page[T])

// WithNextCursor sets the next cursor on the Page to indicate that more
// results are available.
func WithNextCursor[T any](cursor string) PageOption[T] {
	return func(p *Page[T]) {
		p.NextCursor = &cursor
	}
}

// NewPage constructs a Page with the provided items and optional configuration
// options. If items is nil, it will be replaced with an empty slice.
func NewPage[T any](items []T, opts ...PageOption[T]) Page[T] {
	if items == nil {
		items = make([]T, 0)
	}
	p := Page[T]{Items: items}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// Next returns the next cursor, or "" on the last page.
func (p Page[T]) Next() string {
	if p.NextCursor == nil {
		return ""
	}
	return *p.NextCursor
}

// parseCursor decodes a cursor into an offset. The empty cursor is offset 0.
func parseCursor(cursor string) (int, error) {
	if cursor == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(cursor)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCursor, cursor)
	}
	return n, nil
}

// paginate slices all starting at cursor. A non-positive pageSize returns
// every remaining item without a next cursor. An offset past the end yields
// an empty page.
func paginate[T any](all []T, cursor string, pageSize int) (Page[T], error) {
	start, err := parseCursor(cursor)
	if err != nil {
		return Page[T]{}, err
	}
	if start > len(all) {
		start = len(all)
	}
	end := len(all)
	if pageSize > 0 && start+pageSize < end {
		end = start + pageSize
	}
	items := make([]T, end-start)
	copy(items, all[start:end])
	if end < len(all) {
		return NewPage(items, WithNextCursor[T](strconv.Itoa(end))), nil
	}
	return NewPage(items), nil
}
