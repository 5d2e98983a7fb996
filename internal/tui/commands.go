package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/lectern/internal/cache"
)

// Command factories for async operations

const fetchTimeout = 30 * time.Second

// LoadListCmd refreshes the chapter and category lists
func LoadListCmd(c *cache.Cache) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		c.FetchListAndCategories(ctx)
		return ListLoadedMsg{}
	}
}

// LoadChapterCmd resolves one chapter through the cache
func LoadChapterCmd(c *cache.Cache, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		ch, ok := c.FetchOne(ctx, id)
		return ChapterLoadedMsg{ID: id, Chapter: ch, OK: ok}
	}
}
