package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/lectern/internal/cache"
	"github.com/mmcdole/lectern/internal/domain"
	"github.com/mmcdole/lectern/internal/log"
	"github.com/mmcdole/lectern/internal/relevance"
)

type stubRepo struct {
	chapters []domain.Chapter
	err      error
}

func (r stubRepo) ListChapters(context.Context) ([]domain.Chapter, error) {
	return r.chapters, r.err
}

func (r stubRepo) ListCategories(context.Context) ([]domain.Category, error) {
	return []domain.Category{{ID: "lead", Name: "Leadership"}}, r.err
}

func newTestModel(t *testing.T, repo stubRepo) Model {
	t.Helper()
	c := cache.New(repo, log.NullLogger())
	m := NewModel(c, relevance.New(relevance.DefaultTopics()), 3)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	updated, _ = updated.(Model).Update(LoadListCmd(c)())
	return updated.(Model)
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var testChapters = []domain.Chapter{
	{ID: "meet", CategoryID: "lead", Title: "Meeting Hygiene", Content: "Agendas first."},
	{ID: "deleg", CategoryID: "lead", Title: "Delegation Basics", Content: "Keep the monkey off your back."},
}

func TestModel_LoadsChapters(t *testing.T) {
	m := newTestModel(t, stubRepo{chapters: testChapters})

	assert.False(t, m.loading)
	require.Len(t, m.list.Items(), 2)
	item := m.list.Items()[0].(chapterItem)
	assert.Equal(t, "Leadership · lesson", item.Description())
}

func TestModel_ShowsListError(t *testing.T) {
	m := newTestModel(t, stubRepo{err: errors.New("offline")})

	assert.Contains(t, m.View(), "Failed to fetch data")
}

func TestModel_AskNarrowsList(t *testing.T) {
	m := newTestModel(t, stubRepo{chapters: testChapters})

	updated, _ := m.Update(keyRunes("a"))
	m = updated.(Model)
	require.Equal(t, modeAsk, m.mode)

	m.input.SetValue("How do I delegate without micromanaging?")
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	assert.Equal(t, modeList, m.mode)
	require.Len(t, m.list.Items(), 1)
	assert.Equal(t, "deleg", m.list.Items()[0].(chapterItem).ch.ID)

	// esc goes back to the full list
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(Model)
	assert.Len(t, m.list.Items(), 2)
}

func TestModel_OpenChapter(t *testing.T) {
	m := newTestModel(t, stubRepo{chapters: testChapters})

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	require.NotNil(t, cmd)
	assert.Equal(t, modeDetail, m.mode)
	assert.Equal(t, "meet", m.detailID)

	updated, _ = m.Update(LoadChapterCmd(m.cache, "meet")())
	m = updated.(Model)
	assert.Contains(t, m.View(), "Meeting Hygiene")

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, modeList, updated.(Model).mode)
}

func TestFilterChapters(t *testing.T) {
	ranks := filterChapters("dlg", []string{"Meeting Hygiene", "Delegation Basics"})

	require.Len(t, ranks, 1)
	assert.Equal(t, 1, ranks[0].Index)
}
