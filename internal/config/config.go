package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mmcdole/lectern/internal/relevance"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Relevance RelevanceConfig `mapstructure:"relevance"`
	Store     StoreConfig     `mapstructure:"store"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig describes the content read API
type ServerConfig struct {
	URL          string        `mapstructure:"url"`           // Base URL, e.g. https://learn.example.com
	ChaptersPath string        `mapstructure:"chapters_path"` // Chapters resource path
	APIKey       string        `mapstructure:"api_key"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// CacheConfig holds cache tuning
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// RelevanceConfig holds prompt-context selection settings.
// An empty Topics list means the built-in table.
type RelevanceConfig struct {
	Limit  int                   `mapstructure:"limit"`
	Topics []relevance.TopicSpec `mapstructure:"topics"`
}

// StoreConfig holds the offline mirror location
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ChaptersPath: "/api/chapters",
			Timeout:      30 * time.Second,
		},
		Cache: CacheConfig{
			TTL: 5 * time.Minute,
		},
		Relevance: RelevanceConfig{
			Limit: relevance.DefaultLimit,
		},
		Store: StoreConfig{
			Path: filepath.Join(defaultDataPath(), "lectern.db"),
		},
		Logging: LoggingConfig{
			File:  filepath.Join(defaultDataPath(), "lectern.log"),
			Level: "INFO",
		},
	}
}

// defaultDataPath returns the per-user data directory for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "lectern")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "lectern")
	}
}

// DefaultConfigPath returns the default config directory for the current OS
func DefaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "lectern")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "lectern")
	}
}

// LoadConfig loads config.yaml from the given directories (default: the
// user config directory and the working directory) and applies LECTERN_*
// environment overrides, e.g. LECTERN_SERVER_URL.
func LoadConfig(dirs ...string) (*Config, error) {
	if len(dirs) == 0 {
		dirs = []string{DefaultConfigPath(), "."}
	}

	v := newViper()
	for _, dir := range dirs {
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to config.yaml in dir (default: user config directory)
func SaveConfig(cfg *Config, dir string) error {
	if dir == "" {
		dir = DefaultConfigPath()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.Set("server.url", cfg.Server.URL)
	v.Set("server.chapters_path", cfg.Server.ChaptersPath)
	v.Set("server.api_key", cfg.Server.APIKey)
	v.Set("server.timeout", cfg.Server.Timeout.String())

	v.Set("cache.ttl", cfg.Cache.TTL.String())

	v.Set("relevance.limit", cfg.Relevance.Limit)
	if len(cfg.Relevance.Topics) > 0 {
		topics := make([]map[string]any, len(cfg.Relevance.Topics))
		for i, t := range cfg.Relevance.Topics {
			topics[i] = map[string]any{
				"name":          t.Name,
				"keywords":      t.Keywords,
				"title_pattern": t.TitlePattern,
				"content_terms": t.ContentTerms,
			}
		}
		v.Set("relevance.topics", topics)
	}

	v.Set("store.path", cfg.Store.Path)

	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)

	configFile := filepath.Join(dir, "config.yaml")
	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// IsConfigured returns true if the server URL is set
func (c *Config) IsConfigured() bool {
	return c.Server.URL != ""
}

// Topics compiles the configured topic table, falling back to the
// built-in one
func (c *Config) Topics() ([]relevance.Topic, error) {
	if len(c.Relevance.Topics) == 0 {
		return relevance.DefaultTopics(), nil
	}
	return relevance.CompileTopics(c.Relevance.Topics)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("LECTERN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only applies to keys viper already knows about
	for _, key := range []string{
		"server.url", "server.chapters_path", "server.api_key", "server.timeout",
		"cache.ttl", "relevance.limit", "store.path", "logging.file", "logging.level",
	} {
		_ = v.BindEnv(key)
	}
	return v
}
