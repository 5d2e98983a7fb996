// Package cache holds the session-scoped chapter and category cache that
// sits between UI consumers and the content read API.
//
// Reads are served from memory while an entry is fresh (loaded less than
// the TTL ago, not loading, not errored). Expiry is checked lazily on the
// next read. Network errors never escape the cache: they are recorded on
// the affected entry for the UI to render.
package cache

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/mmcdole/lectern/internal/domain"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a successful load stays fresh
const DefaultTTL = 5 * time.Minute

// Option configures a Cache
type Option func(*Cache)

// WithTTL overrides DefaultTTL. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// Cache is the single source of truth for chapter and category reads in
// one session. Create one per session and share the pointer.
type Cache struct {
	repo   domain.ChapterRepository
	logger *slog.Logger
	ttl    time.Duration
	now    func() time.Time

	mu           sync.Mutex
	state        State
	listInFlight bool

	// One flight per chapter id
	flights singleflight.Group
}

// New creates an empty cache with every entry stale
func New(repo domain.ChapterRepository, logger *slog.Logger, opts ...Option) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Cache{
		repo:   repo,
		logger: logger,
		ttl:    DefaultTTL,
		now:    time.Now,
		state:  newState(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchListAndCategories loads the chapter and category lists unless both
// are fresh or a list fetch is already running. The two reads run
// concurrently and fail together: if either fails, both entries record
// the error and keep their previous data.
func (c *Cache) FetchListAndCategories(ctx context.Context) {
	c.mu.Lock()
	now := c.now()
	if c.state.Chapters.fresh(now, c.ttl) && c.state.Categories.fresh(now, c.ttl) {
		c.mu.Unlock()
		c.logger.Debug("cache hit", "key", "chapters+categories")
		return
	}
	if c.listInFlight {
		c.mu.Unlock()
		c.logger.Debug("list fetch already in flight")
		return
	}
	c.listInFlight = true
	c.state.Chapters.Loading, c.state.Chapters.Error = true, ""
	c.state.Categories.Loading, c.state.Categories.Error = true, ""
	c.mu.Unlock()

	var (
		chapters   []domain.Chapter
		categories []domain.Category
	)
	g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))
	g.Go(func() error {
		var err error
		chapters, err = c.repo.ListChapters(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = c.repo.ListCategories(gctx)
		return err
	})
	err := g.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.listInFlight = false

	if err != nil {
		c.logger.Error("failed to fetch chapters and categories", "error", err)
		c.state.Chapters.Loading, c.state.Chapters.Error = false, errFetchFailed
		c.state.Categories.Loading, c.state.Categories.Error = false, errFetchFailed
		return
	}

	now = c.now()
	c.state.Chapters = Entry[[]domain.Chapter]{Data: chapters, Timestamp: now}
	c.state.Categories = Entry[[]domain.Category]{Data: categories, Timestamp: now}
	c.logger.Info("loaded chapters and categories", "chapters", len(chapters), "categories", len(categories))
}

// lookup is the shared result of one per-id flight
type lookup struct {
	chapter domain.Chapter
	ok      bool
}

// FetchOne returns a single chapter, preferring the individual entry,
// then the fresh chapter list, then a network read. Concurrent callers
// for the same id share one read. On any failure it returns false and the
// reason is available from GetOneError.
func (c *Cache) FetchOne(ctx context.Context, id string) (domain.Chapter, bool) {
	if ch, ok := c.cachedOne(id); ok {
		return ch, true
	}

	resCh := c.flights.DoChan(id, func() (any, error) {
		return c.loadOne(context.WithoutCancel(ctx), id), nil
	})

	select {
	case res := <-resCh:
		l := res.Val.(lookup)
		return l.chapter, l.ok
	case <-ctx.Done():
		return domain.Chapter{}, false
	}
}

// cachedOne serves id from memory if a fresh copy exists, seeding the
// individual entry from the list when that is where it was found.
func (c *Cache) cachedOne(id string) (domain.Chapter, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if e, ok := c.state.Individual[id]; ok && e.fresh(now, c.ttl) {
		c.logger.Debug("cache hit", "key", id)
		return e.Data, true
	}

	if c.state.Chapters.fresh(now, c.ttl) {
		if ch, idx := domain.FindChapter(c.state.Chapters.Data, id); idx >= 0 {
			c.state.Individual[id] = Entry[domain.Chapter]{Data: ch, Timestamp: now}
			c.logger.Debug("cache hit from list", "key", id)
			return ch, true
		}
	}
	return domain.Chapter{}, false
}

// loadOne runs inside the flight for id
func (c *Cache) loadOne(ctx context.Context, id string) lookup {
	// A flight that finished just before this one started may have filled the entry
	if ch, ok := c.cachedOne(id); ok {
		return lookup{chapter: ch, ok: true}
	}

	c.mu.Lock()
	e := c.state.Individual[id]
	e.Loading, e.Error = true, ""
	c.state.Individual[id] = e
	c.mu.Unlock()

	chapters, err := c.repo.ListChapters(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	e = c.state.Individual[id]
	e.Loading = false
	if err != nil {
		c.logger.Error("failed to fetch chapter", "error", err, "chapterID", id)
		e.Error = err.Error()
		c.state.Individual[id] = e
		return lookup{}
	}

	ch, idx := domain.FindChapter(chapters, id)
	if idx < 0 {
		c.logger.Warn("chapter not found", "chapterID", id)
		e.Error = errChapterNotFound
		c.state.Individual[id] = e
		return lookup{}
	}

	c.state.Individual[id] = Entry[domain.Chapter]{Data: ch, Timestamp: c.now()}
	c.logger.Debug("loaded chapter", "chapterID", id)
	return lookup{chapter: ch, ok: true}
}

// GetOne returns whatever is held for id without touching the network:
// the individual entry regardless of freshness, else the list element.
func (c *Cache) GetOne(id string) (domain.Chapter, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.state.Individual[id]; ok && e.Data.ID != "" {
		return e.Data, true
	}
	if ch, idx := domain.FindChapter(c.state.Chapters.Data, id); idx >= 0 {
		return ch, true
	}
	return domain.Chapter{}, false
}

// GetOneLoading reports whether a read for id is in progress
func (c *Cache) GetOneLoading(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Individual[id].Loading
}

// GetOneError returns the last error recorded for id, or ""
func (c *Cache) GetOneError(id string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Individual[id].Error
}

// Chapters returns a copy of the chapter list entry
func (c *Cache) Chapters() Entry[[]domain.Chapter] {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.state.Chapters
	e.Data = slices.Clone(e.Data)
	return e
}

// Categories returns a copy of the category list entry
func (c *Cache) Categories() Entry[[]domain.Category] {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.state.Categories
	e.Data = slices.Clone(e.Data)
	return e
}

// IsFresh reports whether the entry for key would be served from memory.
// key is KeyChapters, KeyCategories or a chapter id.
func (c *Cache) IsFresh(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	switch key {
	case KeyChapters:
		return c.state.Chapters.fresh(now, c.ttl)
	case KeyCategories:
		return c.state.Categories.fresh(now, c.ttl)
	default:
		return c.state.Individual[key].fresh(now, c.ttl)
	}
}

// === Local mutations ===
//
// Called after a successful write through the admin API. Each one stamps
// the chapter list as fresh, since the local copy is known to match.

// Add appends ch to the list and seeds its individual entry
func (c *Cache) Add(ch domain.Chapter) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	list := make([]domain.Chapter, 0, len(c.state.Chapters.Data)+1)
	list = append(list, c.state.Chapters.Data...)
	c.state.Chapters.Data = append(list, ch)
	c.state.Chapters.Timestamp = now
	c.state.Individual[ch.ID] = Entry[domain.Chapter]{Data: ch, Timestamp: now}
	c.logger.Debug("added chapter", "chapterID", ch.ID)
}

// Update replaces the list element with ch's id and refreshes its
// individual entry. A chapter missing from the list is not inserted.
func (c *Cache) Update(ch domain.Chapter) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, idx := domain.FindChapter(c.state.Chapters.Data, ch.ID); idx >= 0 {
		list := slices.Clone(c.state.Chapters.Data)
		list[idx] = ch
		c.state.Chapters.Data = list
	}
	c.state.Chapters.Timestamp = now
	c.state.Individual[ch.ID] = Entry[domain.Chapter]{Data: ch, Timestamp: now}
	c.logger.Debug("updated chapter", "chapterID", ch.ID)
}

// Remove deletes id from the list and the individual entries
func (c *Cache) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Chapters.Data = slices.DeleteFunc(slices.Clone(c.state.Chapters.Data), func(ch domain.Chapter) bool {
		return ch.ID == id
	})
	c.state.Chapters.Timestamp = c.now()
	delete(c.state.Individual, id)
	c.logger.Debug("removed chapter", "chapterID", id)
}

// === Invalidation ===

// Invalidate marks one entry stale without dropping its data, so it stays
// displayable until the next read refetches it. key is KeyChapters,
// KeyCategories or a chapter id. In-flight reads are not cancelled.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch key {
	case KeyChapters:
		c.state.Chapters.Timestamp = time.Time{}
	case KeyCategories:
		c.state.Categories.Timestamp = time.Time{}
	default:
		e, ok := c.state.Individual[key]
		if !ok {
			return
		}
		e.Timestamp = time.Time{}
		c.state.Individual[key] = e
	}
	c.logger.Info("invalidated cache", "key", key)
}

// InvalidateAll marks both lists and every individual entry stale
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Chapters.Timestamp = time.Time{}
	c.state.Categories.Timestamp = time.Time{}
	for id, e := range c.state.Individual {
		e.Timestamp = time.Time{}
		c.state.Individual[id] = e
	}
	c.logger.Info("invalidated all cache")
}
