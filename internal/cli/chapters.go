package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmcdole/lectern/internal/domain"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all chapters",
	Long: `Lists every chapter in the catalogue with its category.
Book summaries are marked.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var showCmd = &cobra.Command{
	Use:   "show [chapter-id]",
	Short: "Show one chapter",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output chapters as JSON")
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
}

// loadChapters fetches the lists through the cache and returns the
// chapters with categories attached
func loadChapters(ctx context.Context) ([]domain.Chapter, error) {
	c, err := requireCache()
	if err != nil {
		return nil, err
	}

	c.FetchListAndCategories(ctx)
	entry := c.Chapters()
	if entry.Error != "" {
		return nil, errors.New(entry.Error)
	}
	return domain.AttachCategories(entry.Data, c.Categories().Data), nil
}

func runList(cmd *cobra.Command, _ []string) error {
	chapters, err := loadChapters(context.Background())
	if err != nil {
		return err
	}

	if listJSON {
		data, err := json.MarshalIndent(chapters, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal chapters: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(chapters) == 0 {
		cmd.Println("No chapters found.")
		return nil
	}

	for _, ch := range chapters {
		cmd.Printf("  %-12s %s%s\n", ch.ID, ch.Title, suffix(ch))
	}
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	c, err := requireCache()
	if err != nil {
		return err
	}

	id := args[0]
	ch, ok := c.FetchOne(context.Background(), id)
	if !ok {
		if msg := c.GetOneError(id); msg != "" {
			return fmt.Errorf("%s: %s", id, msg)
		}
		return fmt.Errorf("%s: %w", id, domain.ErrChapterNotFound)
	}
	ch = domain.AttachCategories([]domain.Chapter{ch}, c.Categories().Data)[0]

	cmd.Printf("%s%s\n", ch.Title, suffix(ch))
	if ch.Preview != "" {
		cmd.Println()
		cmd.Println(strings.TrimSpace(ch.Preview))
	}
	if ch.Content != "" {
		cmd.Println()
		cmd.Println(strings.TrimSpace(ch.Content))
	}
	if len(ch.KeyTakeaways) > 0 {
		cmd.Println()
		cmd.Println("Key takeaways:")
		for _, kt := range ch.KeyTakeaways {
			cmd.Printf("  - %s\n", kt)
		}
	}
	return nil
}

// suffix is the " (Category) [book summary]" tail of a chapter line
func suffix(ch domain.Chapter) string {
	var b strings.Builder
	if name := ch.CategoryName(); name != "" {
		fmt.Fprintf(&b, " (%s)", name)
	}
	if ch.IsBookSummary() {
		b.WriteString(" [book summary]")
	}
	return b.String()
}
