package tui

import "github.com/mmcdole/lectern/internal/domain"

// Message types for the TUI

// ListLoadedMsg signals that a list fetch finished (successfully or not);
// the outcome is read from the cache
type ListLoadedMsg struct{}

// ChapterLoadedMsg signals that a single-chapter fetch finished
type ChapterLoadedMsg struct {
	ID      string
	Chapter domain.Chapter
	OK      bool
}
