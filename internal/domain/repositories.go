package domain

import "context"

// ChapterRepository is the read side of the content backend.
// There is no single-chapter endpoint: individual lookups go through
// ListChapters.
type ChapterRepository interface {
	// ListChapters returns every chapter (GET <chapters-resource>)
	ListChapters(ctx context.Context) ([]Chapter, error)

	// ListCategories returns every category (GET <chapters-resource>?categories=true)
	ListCategories(ctx context.Context) ([]Category, error)
}
