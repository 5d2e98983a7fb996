package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmcdole/lectern/internal/relevance"
)

var (
	contextLimitFlag int
	contextScores    bool
)

var contextCmd = &cobra.Command{
	Use:   "context [question]",
	Short: "Print the prompt context for a question",
	Long: `Scores every chapter against the question using the topic table and
the question's own words, then prints the best matches as the reference
block the coach adds to its prompt.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runContext,
}

func init() {
	contextCmd.Flags().IntVarP(&contextLimitFlag, "limit", "n", 0, "maximum number of chapters (default from config)")
	contextCmd.Flags().BoolVar(&contextScores, "scores", false, "print chapter scores instead of the context block")
	rootCmd.AddCommand(contextCmd)
}

func runContext(cmd *cobra.Command, args []string) error {
	if selector == nil {
		return errors.New("relevance selector not configured")
	}

	chapters, err := loadChapters(context.Background())
	if err != nil {
		return err
	}

	query := strings.Join(args, " ")
	limit := contextLimit
	if contextLimitFlag > 0 {
		limit = contextLimitFlag
	}

	if contextScores {
		ranked := selector.Rank(query, chapters)
		if len(ranked) == 0 {
			cmd.Println("No relevant chapters.")
			return nil
		}
		for _, s := range ranked {
			cmd.Printf("  %4d  %s\n", s.Score, s.Chapter.Title)
		}
		return nil
	}

	block := relevance.FormatContext(selector.Select(query, chapters, limit))
	if block == "" {
		cmd.Println("No relevant chapters.")
		return nil
	}
	cmd.Print(block)
	return nil
}
