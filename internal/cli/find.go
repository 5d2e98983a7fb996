package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmcdole/lectern/internal/search"
)

var findLimit int

var findCmd = &cobra.Command{
	Use:   "find [title]",
	Short: "Find chapters by title",
	Long: `Finds chapters whose title approximately matches the query.
Exact and prefix matches are listed first.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFind,
}

func init() {
	findCmd.Flags().IntVarP(&findLimit, "limit", "n", 10, "maximum number of results")
	rootCmd.AddCommand(findCmd)
}

func runFind(cmd *cobra.Command, args []string) error {
	chapters, err := loadChapters(context.Background())
	if err != nil {
		return err
	}

	results := search.FindByTitle(strings.Join(args, " "), chapters, findLimit)
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	for _, r := range results {
		cmd.Printf("  %-12s %s%s\n", r.Chapter.ID, r.Chapter.Title, suffix(r.Chapter))
	}
	return nil
}
