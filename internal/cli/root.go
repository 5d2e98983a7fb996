// Package cli holds the lectern command tree.
package cli

import (
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mmcdole/lectern/internal/cache"
	"github.com/mmcdole/lectern/internal/domain"
	"github.com/mmcdole/lectern/internal/relevance"
)

// Services are the dependencies the commands run against. Remote or
// Mirror may be nil when not configured.
type Services struct {
	Remote       domain.ChapterRepository
	Mirror       domain.Store
	Selector     *relevance.Selector
	CacheTTL     time.Duration
	ContextLimit int
	Logger       *slog.Logger
}

var (
	version = "dev"
	offline bool

	remote       domain.ChapterRepository
	mirror       domain.Store
	selector     *relevance.Selector
	cacheTTL     time.Duration
	contextLimit int
	logger       = slog.Default()

	// chapterCache is built on first use from remote or, with --offline,
	// from the mirror
	chapterCache *cache.Cache
)

var rootCmd = &cobra.Command{
	Use:   "lectern",
	Short: "Browse course chapters and pick prompt context",
	Long: `Lectern reads the course catalogue from the learning backend, keeps a
short-lived cache of it, and picks the chapters most relevant to a
coaching question.

Without a subcommand it opens the browser when attached to a terminal
and lists chapters otherwise.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupCache,
	RunE:              runDefault,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "read from the local mirror instead of the server")
}

// SetServices installs the command dependencies
func SetServices(s Services) {
	remote = s.Remote
	mirror = s.Mirror
	selector = s.Selector
	cacheTTL = s.CacheTTL
	contextLimit = s.ContextLimit
	if s.Logger != nil {
		logger = s.Logger
	}
	chapterCache = nil
}

// SetVersion sets the version reported by --version
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute runs the command tree
func Execute() error {
	return rootCmd.Execute()
}

func setupCache(cmd *cobra.Command, _ []string) error {
	if chapterCache != nil {
		return nil
	}

	repo := remote
	if offline {
		if mirror == nil {
			return errors.New("offline mirror not available")
		}
		repo = mirror
	}
	if repo == nil {
		// Commands that don't read chapters still run
		return nil
	}

	logger.Debug("building chapter cache", "offline", offline, "ttl", cacheTTL)
	chapterCache = cache.New(repo, logger, cache.WithTTL(cacheTTL))
	return nil
}

func requireCache() (*cache.Cache, error) {
	if chapterCache == nil {
		return nil, errors.New("server not configured: set server.url in the config file or use --offline")
	}
	return chapterCache, nil
}

func runDefault(cmd *cobra.Command, args []string) error {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return runBrowse(cmd, args)
	}
	return runList(cmd, args)
}
