package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mmcdole/lectern/internal/domain"
)

var syncClear bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Copy the catalogue into the offline mirror",
	Long: `Reads chapters and categories from the server and writes them to the
local mirror used by --offline.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncClear, "clear", false, "wipe the mirror before writing")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	if remote == nil {
		return errors.New("server not configured: set server.url in the config file")
	}
	if mirror == nil {
		return errors.New("offline mirror not available")
	}
	if offline {
		return errors.New("sync reads from the server and cannot run with --offline")
	}

	cmd.Println("Synchronising catalogue...")

	var (
		chapters   []domain.Chapter
		categories []domain.Category
	)
	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		var err error
		chapters, err = remote.ListChapters(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = remote.ListCategories(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	if syncClear {
		if err := mirror.Clear(); err != nil {
			return fmt.Errorf("failed to clear mirror: %w", err)
		}
	}
	if err := mirror.SaveChapters(chapters); err != nil {
		return fmt.Errorf("failed to save chapters: %w", err)
	}
	if err := mirror.SaveCategories(categories); err != nil {
		return fmt.Errorf("failed to save categories: %w", err)
	}

	logger.Info("mirror synced", "chapters", len(chapters), "categories", len(categories))
	cmd.Printf("Synced %d chapters and %d categories.\n", len(chapters), len(categories))
	return nil
}
