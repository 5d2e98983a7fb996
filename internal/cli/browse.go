package cli

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/mmcdole/lectern/internal/tui"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Open the interactive chapter browser",
	Long: `Opens the terminal browser.

Controls:
  ↑/k, ↓/j - Navigate chapters
  Enter    - Open chapter
  /        - Filter by title
  a        - Ask a question
  r        - Refresh
  Esc      - Back
  q        - Quit`,
	Args: cobra.NoArgs,
	RunE: runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(_ *cobra.Command, _ []string) error {
	c, err := requireCache()
	if err != nil {
		return err
	}
	if selector == nil {
		return errors.New("relevance selector not configured")
	}

	p := tea.NewProgram(tui.NewModel(c, selector, contextLimit), tea.WithAltScreen())

	logger.Info("starting TUI")
	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
