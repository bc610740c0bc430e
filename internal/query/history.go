// Package query searches, sorts, paginates and aggregates history entries.
// Every function is pure: inputs are never modified.
package query

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"nutrichef/internal/recipe"
)

var (
	// ErrInvalidPageSize is returned for a page size below 1.
	ErrInvalidPageSize = errors.New("page size must be positive")
	// ErrPageOutOfRange is returned for a page outside 1..PageCount.
	ErrPageOutOfRange = errors.New("page out of range")
)

// Direction orders history by timestamp.
type Direction int

const (
	NewestFirst Direction = iota
	OldestFirst
)

// ParseDirection maps "desc"/"newest" and "asc"/"oldest" to a Direction.
// The empty string means NewestFirst.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "desc", "newest", "recent":
		return NewestFirst, nil
	case "asc", "oldest":
		return OldestFirst, nil
	default:
		return NewestFirst, fmt.Errorf("unknown sort direction %q", s)
	}
}

func (d Direction) String() string {
	if d == OldestFirst {
		return "asc"
	}
	return "desc"
}

// SearchHistory keeps entries whose recipe name contains q, ignoring case.
// An empty q returns every entry.
func SearchHistory(q string, history []recipe.HistoryEntry) []recipe.HistoryEntry {
	if q == "" {
		return slices.Clone(history)
	}

	fold := cases.Fold()
	needle := fold.String(q)

	out := []recipe.HistoryEntry{}
	for _, h := range history {
		if strings.Contains(fold.String(h.RecipeName), needle) {
			out = append(out, h)
		}
	}
	return out
}

// SortHistory returns history stably sorted by timestamp. Timestamps are
// compared as strings, which is chronological for recipe.TimestampLayout.
func SortHistory(history []recipe.HistoryEntry, dir Direction) []recipe.HistoryEntry {
	out := slices.Clone(history)
	slices.SortStableFunc(out, func(a, b recipe.HistoryEntry) int {
		if dir == OldestFirst {
			return strings.Compare(a.Timestamp, b.Timestamp)
		}
		return strings.Compare(b.Timestamp, a.Timestamp)
	})
	return out
}

// PageCount returns ceil(n / pageSize).
func PageCount(n, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return (n + pageSize - 1) / pageSize
}

// Paginate returns page (1-indexed) of items. Pages outside 1..PageCount are
// rejected, not clamped; use ClampPage first when the page comes from a user.
func Paginate[T any](items []T, pageSize, page int) ([]T, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPageSize, pageSize)
	}
	count := PageCount(len(items), pageSize)
	if page < 1 || page > count {
		return nil, fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, page, count)
	}

	start := (page - 1) * pageSize
	end := min(start+pageSize, len(items))
	return slices.Clone(items[start:end]), nil
}

// ClampPage moves page into 1..pageCount. It returns 1 when there are no pages.
func ClampPage(page, pageCount int) int {
	if page > pageCount {
		page = pageCount
	}
	if page < 1 {
		page = 1
	}
	return page
}

// Page is one page of a history view.
type Page struct {
	Entries   []recipe.HistoryEntry `json:"entries"`
	Page      int                   `json:"page"`
	PageCount int                   `json:"page_count"`
	PageSize  int                   `json:"page_size"`
	Total     int                   `json:"total"`
	// Offset is the 0-based position of the first entry in the filtered list.
	Offset int `json:"offset"`
}

// HistoryView searches, sorts and paginates history in one call, clamping
// page into range. An empty result yields a Page with no entries.
func HistoryView(history []recipe.HistoryEntry, q string, dir Direction, pageSize, page int) (Page, error) {
	if pageSize <= 0 {
		return Page{}, fmt.Errorf("%w: got %d", ErrInvalidPageSize, pageSize)
	}

	filtered := SortHistory(SearchHistory(q, history), dir)
	count := PageCount(len(filtered), pageSize)
	view := Page{
		Entries:   []recipe.HistoryEntry{},
		PageCount: count,
		PageSize:  pageSize,
		Total:     len(filtered),
	}
	if count == 0 {
		view.Page = 1
		return view, nil
	}

	view.Page = ClampPage(page, count)
	view.Offset = (view.Page - 1) * pageSize
	entries, err := Paginate(filtered, pageSize, view.Page)
	if err != nil {
		return Page{}, err
	}
	view.Entries = entries
	return view, nil
}
