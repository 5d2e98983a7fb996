package domain

import "time"

// Store is the offline mirror of the content backend (BoltDB + memory).
// It satisfies ChapterRepository so the cache can run against it.
type Store interface {
	ChapterRepository

	SaveChapters(chapters []Chapter) error
	SaveCategories(categories []Category) error

	// SyncedAt returns when the mirror was last written, zero if never
	SyncedAt() time.Time

	Clear() error
	Close() error
}
