package cache

import (
	"time"

	"github.com/mmcdole/lectern/internal/domain"
)

// Keys accepted by Invalidate for the two list entries. Any other key is
// treated as a chapter id.
const (
	KeyChapters   = "chapters"
	KeyCategories = "categories"
)

// Error strings recorded on entries
const (
	errFetchFailed     = "Failed to fetch data"
	errChapterNotFound = "Chapter not found"
)

// Entry wraps a cached payload with its load state.
// A zero Timestamp means the entry has never been loaded (or was invalidated).
type Entry[T any] struct {
	Data      T
	Timestamp time.Time
	Loading   bool
	Error     string
}

// fresh reports whether the entry can be served without refetching
func (e Entry[T]) fresh(now time.Time, ttl time.Duration) bool {
	if e.Timestamp.IsZero() || e.Loading || e.Error != "" {
		return false
	}
	return now.Sub(e.Timestamp) < ttl
}

// State is the full cache contents for one session
type State struct {
	Chapters   Entry[[]domain.Chapter]
	Categories Entry[[]domain.Category]
	Individual map[string]Entry[domain.Chapter]
}

func newState() State {
	return State{Individual: make(map[string]Entry[domain.Chapter])}
}
