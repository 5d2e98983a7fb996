// Package content talks to the learning backend's read API.
package content

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/lectern/internal/domain"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultChaptersPath = "/api/chapters"
	userAgent           = "Lectern/1.0"
)

// Client implements domain.ChapterRepository over HTTP
type Client struct {
	baseURL      string
	chaptersPath string
	apiKey       string
	httpClient   *http.Client
	logger       *slog.Logger
}

// NewClient creates a new read API client. An empty chaptersPath uses
// /api/chapters; a non-positive timeout uses 30s.
func NewClient(baseURL, chaptersPath, apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if chaptersPath == "" {
		chaptersPath = defaultChaptersPath
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		chaptersPath: "/" + strings.TrimLeft(chaptersPath, "/"),
		apiKey:       apiKey,
		httpClient:   &http.Client{Timeout: timeout},
		logger:       logger,
	}
}

type chaptersResponse struct {
	Chapters []domain.Chapter `json:"chapters"`
}

type categoriesResponse struct {
	Categories []domain.Category `json:"categories"`
}

// ListChapters fetches every chapter
func (c *Client) ListChapters(ctx context.Context) ([]domain.Chapter, error) {
	var resp chaptersResponse
	if err := c.getJSON(ctx, nil, &resp); err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	c.logger.Debug("fetched chapters", "count", len(resp.Chapters))
	return resp.Chapters, nil
}

// ListCategories fetches every category
func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var resp categoriesResponse
	query := url.Values{"categories": {"true"}}
	if err := c.getJSON(ctx, query, &resp); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	c.logger.Debug("fetched categories", "count", len(resp.Categories))
	return resp.Categories, nil
}

// getJSON performs a GET on the chapters resource and decodes a 2xx body.
// Non-2xx bodies are never parsed.
func (c *Client) getJSON(ctx context.Context, query url.Values, dest any) error {
	reqURL := c.baseURL + c.chaptersPath
	if query != nil {
		reqURL = fmt.Sprintf("%s?%s", reqURL, query.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	c.logger.Debug("content request", "method", http.MethodGet, "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("content request failed", "error", err)
		return fmt.Errorf("%w: %v", domain.ErrServerOffline, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return domain.ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		c.logger.Error("content request error", "status", resp.StatusCode, "url", reqURL)
		return fmt.Errorf("%w: %d", domain.ErrUnexpectedStatus, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
