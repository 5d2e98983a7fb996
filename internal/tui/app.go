// Package tui is a terminal browser over the chapter cache: list chapters,
// open one, and ask which chapters the coach would use for a question.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/mmcdole/lectern/internal/cache"
	"github.com/mmcdole/lectern/internal/domain"
	"github.com/mmcdole/lectern/internal/relevance"
	"github.com/mmcdole/lectern/internal/tui/styles"
)

type viewMode int

const (
	modeList viewMode = iota
	modeDetail
	modeAsk
)

// chapterItem adapts a chapter to list.DefaultItem
type chapterItem struct {
	ch domain.Chapter
}

func (i chapterItem) Title() string { return i.ch.Title }

func (i chapterItem) Description() string {
	kind := "lesson"
	if i.ch.IsBookSummary() {
		kind = "book summary"
	}
	if name := i.ch.CategoryName(); name != "" {
		return name + " · " + kind
	}
	return kind
}

func (i chapterItem) FilterValue() string { return i.ch.Title + " " + i.ch.CategoryName() }

// Model is the root bubbletea model
type Model struct {
	cache    *cache.Cache
	selector *relevance.Selector
	limit    int
	keys     KeyMap

	list    list.Model
	spinner spinner.Model
	input   textinput.Model

	mode     viewMode
	loading  bool
	query    string // Active coach question, "" when showing all chapters
	detailID string

	width  int
	height int
}

// NewModel creates the browser. limit is the coach's context size.
func NewModel(c *cache.Cache, selector *relevance.Selector, limit int) Model {
	keys := DefaultKeyMap()

	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Chapters"
	l.Filter = filterChapters
	l.AdditionalShortHelpKeys = keys.ShortHelp
	l.KeyMap.Quit.SetEnabled(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.AccentStyle

	ti := textinput.New()
	ti.Placeholder = "What are you working on?"
	ti.CharLimit = 280

	return Model{
		cache:    c,
		selector: selector,
		limit:    limit,
		keys:     keys,
		list:     l,
		spinner:  sp,
		input:    ti,
		loading:  true,
	}
}

// Init starts the first list load
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, LoadListCmd(m.cache))
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-4)
		m.input.Width = msg.Width - 10
		return m, nil

	case ListLoadedMsg:
		m.loading = false
		return m, m.showChapters(m.chapters())

	case ChapterLoadedMsg:
		// Detail view reads the outcome from the cache
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.mode {
	case modeAsk:
		switch msg.String() {
		case "esc":
			m.mode = modeList
			m.input.Blur()
			return m, nil
		case "enter":
			m.mode = modeList
			m.input.Blur()
			return m, m.ask(m.input.Value())
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case modeDetail:
		if key.Matches(msg, m.keys.Back) || key.Matches(msg, m.keys.Quit) {
			m.mode = modeList
		}
		return m, nil
	}

	// While the filter prompt is open every key belongs to the list
	if m.list.SettingFilter() {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Open):
		item, ok := m.list.SelectedItem().(chapterItem)
		if !ok {
			return m, nil
		}
		m.mode = modeDetail
		m.detailID = item.ch.ID
		return m, tea.Batch(m.spinner.Tick, LoadChapterCmd(m.cache, item.ch.ID))

	case key.Matches(msg, m.keys.Ask):
		m.mode = modeAsk
		m.input.SetValue("")
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Refresh):
		m.cache.InvalidateAll()
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, LoadListCmd(m.cache))

	case msg.String() == "esc" && m.query != "" && m.list.FilterState() == list.Unfiltered:
		m.query = ""
		return m, m.showChapters(m.chapters())
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// chapters returns the cached chapter list with categories attached
func (m Model) chapters() []domain.Chapter {
	return domain.AttachCategories(m.cache.Chapters().Data, m.cache.Categories().Data)
}

func (m *Model) showChapters(chapters []domain.Chapter) tea.Cmd {
	items := make([]list.Item, len(chapters))
	for i, ch := range chapters {
		items[i] = chapterItem{ch: ch}
	}
	if m.query == "" {
		m.list.Title = "Chapters"
	} else {
		m.list.Title = fmt.Sprintf("Relevant to %q", m.query)
	}
	return m.list.SetItems(items)
}

// ask narrows the list to the chapters the coach would cite for q
func (m *Model) ask(q string) tea.Cmd {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil
	}
	m.query = q
	return m.showChapters(m.selector.Select(q, m.chapters(), m.limit))
}

// View renders the UI
func (m Model) View() string {
	if m.loading {
		return styles.PageStyle.Render(m.spinner.View() + " Loading chapters…")
	}

	switch m.mode {
	case modeDetail:
		return styles.PageStyle.Render(m.detailView())
	case modeAsk:
		prompt := styles.PromptStyle.Render(m.input.View())
		return styles.PageStyle.Render(lipgloss.JoinVertical(lipgloss.Left, prompt, m.list.View()))
	}

	body := m.list.View()
	if entry := m.cache.Chapters(); entry.Error != "" {
		body = lipgloss.JoinVertical(lipgloss.Left, styles.ErrorStyle.Render(entry.Error), body)
	} else if len(m.list.Items()) == 0 && m.query != "" {
		body = lipgloss.JoinVertical(lipgloss.Left, body, styles.DimStyle.Render("No chapters match that question."))
	}
	return styles.PageStyle.Render(body)
}

func (m Model) detailView() string {
	id := m.detailID
	if m.cache.GetOneLoading(id) {
		return m.spinner.View() + " Loading chapter…"
	}
	ch, ok := m.cache.GetOne(id)
	if !ok {
		if msg := m.cache.GetOneError(id); msg != "" {
			return styles.ErrorStyle.Render(msg)
		}
		return m.spinner.View() + " Loading chapter…"
	}
	ch = domain.AttachCategories([]domain.Chapter{ch}, m.cache.Categories().Data)[0]

	width := max(m.width-6, 20)
	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render(ch.Title))
	b.WriteString("\n")
	b.WriteString(styles.SubtitleStyle.Render(chapterItem{ch: ch}.Description()))
	b.WriteString("\n\n")
	if ch.Preview != "" {
		b.WriteString(styles.AccentStyle.Width(width).Render(ch.Preview))
		b.WriteString("\n\n")
	}
	b.WriteString(lipgloss.NewStyle().Width(width).Render(ch.Content))
	if len(ch.KeyTakeaways) > 0 {
		b.WriteString("\n\n")
		b.WriteString(styles.TitleStyle.Render("Key takeaways"))
		for _, kt := range ch.KeyTakeaways {
			b.WriteString("\n")
			b.WriteString(styles.SuccessStyle.Render("✓ ") + kt)
		}
	}
	b.WriteString("\n\n")
	b.WriteString(styles.DimStyle.Render("esc back"))
	return b.String()
}

// filterChapters is the list's fuzzy filter
func filterChapters(term string, targets []string) []list.Rank {
	lower := make([]string, len(targets))
	for i, t := range targets {
		lower[i] = strings.ToLower(t)
	}

	matches := fuzzy.Find(strings.ToLower(term), lower)
	ranks := make([]list.Rank, len(matches))
	for i, match := range matches {
		ranks[i] = list.Rank{Index: match.Index, MatchedIndexes: match.MatchedIndexes}
	}
	return ranks
}
