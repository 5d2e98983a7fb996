package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/lectern/internal/domain"
	"github.com/mmcdole/lectern/internal/log"
)

// --- Fakes ---

// fakeRepo implements domain.ChapterRepository and counts calls.
type fakeRepo struct {
	mu            sync.Mutex
	chapters      []domain.Chapter
	categories    []domain.Category
	chaptersErr   error
	categoriesErr error
	chapterCalls  int
	categoryCalls int

	// When gate is set, ListChapters signals started and blocks until gate closes.
	gate    chan struct{}
	started chan struct{}
}

func (r *fakeRepo) ListChapters(_ context.Context) ([]domain.Chapter, error) {
	r.mu.Lock()
	r.chapterCalls++
	gate, started := r.gate, r.started
	r.mu.Unlock()

	if gate != nil {
		select {
		case started <- struct{}{}:
		default:
		}
		<-gate
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.chaptersErr != nil {
		return nil, r.chaptersErr
	}
	return append([]domain.Chapter(nil), r.chapters...), nil
}

func (r *fakeRepo) ListCategories(_ context.Context) ([]domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categoryCalls++
	if r.categoriesErr != nil {
		return nil, r.categoriesErr
	}
	return append([]domain.Category(nil), r.categories...), nil
}

func (r *fakeRepo) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.chapterCalls + r.categoryCalls
}

func (r *fakeRepo) block() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gate = make(chan struct{})
	r.started = make(chan struct{}, 1)
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newFixture() (*Cache, *fakeRepo, *fakeClock) {
	repo := &fakeRepo{
		chapters: []domain.Chapter{
			{ID: "ch1", CategoryID: "cat1", Title: "Delegation Basics"},
			{ID: "ch2", CategoryID: "cat1", Title: "Meeting Hygiene"},
		},
		categories: []domain.Category{
			{ID: "cat1", Name: "Leadership", SortOrder: 1},
		},
	}
	clock := &fakeClock{now: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
	c := New(repo, log.NullLogger(), WithTTL(5*time.Minute), WithClock(clock.Now))
	return c, repo, clock
}

// --- List fetch ---

func TestFetchListAndCategories_LoadsBothLists(t *testing.T) {
	c, repo, _ := newFixture()

	c.FetchListAndCategories(context.Background())

	chapters := c.Chapters()
	categories := c.Categories()
	assert.Len(t, chapters.Data, 2)
	assert.Len(t, categories.Data, 1)
	assert.False(t, chapters.Loading)
	assert.Empty(t, chapters.Error)
	assert.True(t, c.IsFresh(KeyChapters))
	assert.True(t, c.IsFresh(KeyCategories))
	assert.Equal(t, 2, repo.calls())
}

func TestFetchListAndCategories_FreshIsNoop(t *testing.T) {
	c, repo, _ := newFixture()

	c.FetchListAndCategories(context.Background())
	c.FetchListAndCategories(context.Background())

	assert.Equal(t, 2, repo.calls())
}

func TestFetchListAndCategories_InFlightIsNoop(t *testing.T) {
	c, repo, _ := newFixture()
	repo.block()

	done := make(chan struct{})
	go func() {
		c.FetchListAndCategories(context.Background())
		close(done)
	}()
	<-repo.started

	assert.True(t, c.Chapters().Loading)
	assert.True(t, c.Categories().Loading)

	// Returns immediately instead of issuing a second pair of reads
	c.FetchListAndCategories(context.Background())

	close(repo.gate)
	<-done

	assert.Equal(t, 1, repo.chapterCalls)
	assert.Equal(t, 1, repo.categoryCalls)
	assert.Len(t, c.Chapters().Data, 2)
}

func TestFetchListAndCategories_RefetchesAfterTTL(t *testing.T) {
	c, repo, clock := newFixture()

	c.FetchListAndCategories(context.Background())
	require.Equal(t, 2, repo.calls())

	clock.Advance(6 * time.Minute)
	assert.False(t, c.IsFresh(KeyChapters))

	c.FetchListAndCategories(context.Background())
	assert.Equal(t, 4, repo.calls())
}

func TestFetchListAndCategories_StillFreshBeforeTTL(t *testing.T) {
	c, repo, clock := newFixture()

	c.FetchListAndCategories(context.Background())
	clock.Advance(4 * time.Minute)
	c.FetchListAndCategories(context.Background())

	assert.Equal(t, 2, repo.calls())
}

func TestFetchListAndCategories_EitherFailureMarksBoth(t *testing.T) {
	c, repo, _ := newFixture()

	c.FetchListAndCategories(context.Background())
	c.InvalidateAll()
	repo.categoriesErr = errors.New("boom")

	c.FetchListAndCategories(context.Background())

	chapters := c.Chapters()
	categories := c.Categories()
	assert.Equal(t, "Failed to fetch data", chapters.Error)
	assert.Equal(t, "Failed to fetch data", categories.Error)
	assert.False(t, chapters.Loading)
	assert.False(t, categories.Loading)
	// Previous data stays displayable
	assert.Len(t, chapters.Data, 2)
	assert.Len(t, categories.Data, 1)
}

func TestFetchListAndCategories_RetriesAfterError(t *testing.T) {
	c, repo, _ := newFixture()
	repo.chaptersErr = errors.New("offline")

	c.FetchListAndCategories(context.Background())
	require.Equal(t, "Failed to fetch data", c.Chapters().Error)
	before := repo.calls()

	repo.chaptersErr = nil
	c.FetchListAndCategories(context.Background())

	assert.Greater(t, repo.calls(), before)
	assert.Empty(t, c.Chapters().Error)
	assert.True(t, c.IsFresh(KeyChapters))
}

// --- Individual fetch ---

func TestFetchOne_UsesFreshList(t *testing.T) {
	c, repo, _ := newFixture()
	c.FetchListAndCategories(context.Background())
	before := repo.calls()

	ch, ok := c.FetchOne(context.Background(), "ch1")

	require.True(t, ok)
	assert.Equal(t, "Delegation Basics", ch.Title)
	assert.Equal(t, before, repo.calls())
	assert.True(t, c.IsFresh("ch1"))
}

func TestFetchOne_FetchesWhenNotCached(t *testing.T) {
	c, repo, _ := newFixture()

	ch, ok := c.FetchOne(context.Background(), "ch2")

	require.True(t, ok)
	assert.Equal(t, "ch2", ch.ID)
	assert.Equal(t, 1, repo.chapterCalls)
	assert.Equal(t, 0, repo.categoryCalls)
	assert.False(t, c.GetOneLoading("ch2"))

	// Second call is served from the individual entry
	_, ok = c.FetchOne(context.Background(), "ch2")
	assert.True(t, ok)
	assert.Equal(t, 1, repo.chapterCalls)
}

func TestFetchOne_ConcurrentCallsShareOneRead(t *testing.T) {
	c, repo, _ := newFixture()
	repo.block()

	var wg sync.WaitGroup
	results := make([]domain.Chapter, 2)
	oks := make([]bool, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], oks[0] = c.FetchOne(context.Background(), "ch1")
	}()
	<-repo.started
	assert.True(t, c.GetOneLoading("ch1"))

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], oks[1] = c.FetchOne(context.Background(), "ch1")
	}()

	close(repo.gate)
	wg.Wait()

	assert.Equal(t, 1, repo.chapterCalls)
	assert.True(t, oks[0])
	assert.True(t, oks[1])
	assert.Equal(t, results[0], results[1])
}

func TestFetchOne_NotFound(t *testing.T) {
	c, _, _ := newFixture()

	_, ok := c.FetchOne(context.Background(), "missing")

	assert.False(t, ok)
	assert.Equal(t, "Chapter not found", c.GetOneError("missing"))
	assert.False(t, c.GetOneLoading("missing"))
}

func TestFetchOne_ReadErrorIsRecorded(t *testing.T) {
	c, repo, _ := newFixture()
	repo.chaptersErr = errors.New("connection refused")

	_, ok := c.FetchOne(context.Background(), "ch1")

	assert.False(t, ok)
	assert.Equal(t, "connection refused", c.GetOneError("ch1"))
	assert.False(t, c.GetOneLoading("ch1"))
}

func TestFetchOne_CallerCancelDoesNotAbortSharedRead(t *testing.T) {
	c, repo, _ := newFixture()
	repo.block()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan bool)
	go func() {
		_, ok := c.FetchOne(ctx, "ch1")
		done <- ok
	}()
	<-repo.started

	cancel()
	assert.False(t, <-done)

	close(repo.gate)
	assert.Eventually(t, func() bool {
		return c.IsFresh("ch1")
	}, time.Second, 5*time.Millisecond)
}

// --- Sync accessors ---

func TestGetOne(t *testing.T) {
	c, _, clock := newFixture()

	_, ok := c.GetOne("ch1")
	assert.False(t, ok, "nothing loaded yet")

	c.FetchListAndCategories(context.Background())
	ch, ok := c.GetOne("ch2")
	require.True(t, ok, "falls back to the list")
	assert.Equal(t, "Meeting Hygiene", ch.Title)

	_, _ = c.FetchOne(context.Background(), "ch1")
	clock.Advance(time.Hour)
	ch, ok = c.GetOne("ch1")
	require.True(t, ok, "stale entries are still returned")
	assert.Equal(t, "Delegation Basics", ch.Title)
}

func TestGetOneLoadingAndError_DefaultsForUnknownID(t *testing.T) {
	c, _, _ := newFixture()

	assert.False(t, c.GetOneLoading("nope"))
	assert.Empty(t, c.GetOneError("nope"))
}

func TestChapters_ReturnsCopy(t *testing.T) {
	c, _, _ := newFixture()
	c.FetchListAndCategories(context.Background())

	list := c.Chapters()
	list.Data[0].Title = "changed"

	ch, _ := c.GetOne("ch1")
	assert.Equal(t, "Delegation Basics", ch.Title)
}

// --- Mutations ---

func TestAdd(t *testing.T) {
	c, _, _ := newFixture()
	c.FetchListAndCategories(context.Background())

	c.Add(domain.Chapter{ID: "ch3", Title: "Giving Feedback"})

	list := c.Chapters().Data
	require.Len(t, list, 3)
	assert.Equal(t, "ch3", list[2].ID)
	ch, ok := c.GetOne("ch3")
	require.True(t, ok)
	assert.Equal(t, "Giving Feedback", ch.Title)
	assert.True(t, c.IsFresh("ch3"))
}

func TestUpdate_KeepsViewsConsistent(t *testing.T) {
	c, _, _ := newFixture()
	c.FetchListAndCategories(context.Background())
	_, _ = c.FetchOne(context.Background(), "ch1")

	updated := domain.Chapter{ID: "ch1", CategoryID: "cat1", Title: "Delegation, Revisited"}
	c.Update(updated)

	ch, ok := c.GetOne("ch1")
	require.True(t, ok)
	assert.Equal(t, updated, ch)

	listed, idx := domain.FindChapter(c.Chapters().Data, "ch1")
	require.GreaterOrEqual(t, idx, 0)
	assert.Equal(t, updated, listed)
}

func TestUpdate_DoesNotInsertMissingChapter(t *testing.T) {
	c, _, _ := newFixture()
	c.FetchListAndCategories(context.Background())

	c.Update(domain.Chapter{ID: "ghost", Title: "Ghost"})

	_, idx := domain.FindChapter(c.Chapters().Data, "ghost")
	assert.Equal(t, -1, idx)
	assert.Len(t, c.Chapters().Data, 2)

	ch, ok := c.GetOne("ghost")
	assert.True(t, ok, "individual entry is still refreshed")
	assert.Equal(t, "Ghost", ch.Title)
}

func TestRemove_DeletesFromBothViews(t *testing.T) {
	c, _, _ := newFixture()
	c.FetchListAndCategories(context.Background())
	_, _ = c.FetchOne(context.Background(), "ch1")

	c.Remove("ch1")

	_, ok := c.GetOne("ch1")
	assert.False(t, ok)
	_, idx := domain.FindChapter(c.Chapters().Data, "ch1")
	assert.Equal(t, -1, idx)
}

func TestMutations_StampListFresh(t *testing.T) {
	c, repo, _ := newFixture()
	c.FetchListAndCategories(context.Background())
	c.Invalidate(KeyChapters)
	require.False(t, c.IsFresh(KeyChapters))

	c.Update(domain.Chapter{ID: "ch2", Title: "Meeting Hygiene 2"})

	assert.True(t, c.IsFresh(KeyChapters))
	c.FetchListAndCategories(context.Background())
	assert.Equal(t, 2, repo.calls())
}

// --- Invalidation ---

func TestInvalidate_SingleList(t *testing.T) {
	c, _, _ := newFixture()
	c.FetchListAndCategories(context.Background())

	c.Invalidate(KeyCategories)

	assert.True(t, c.IsFresh(KeyChapters))
	assert.False(t, c.IsFresh(KeyCategories))
	assert.Len(t, c.Categories().Data, 1)
}

func TestInvalidate_SingleChapter(t *testing.T) {
	c, _, _ := newFixture()
	c.FetchListAndCategories(context.Background())
	_, _ = c.FetchOne(context.Background(), "ch1")
	_, _ = c.FetchOne(context.Background(), "ch2")

	c.Invalidate("ch1")

	assert.False(t, c.IsFresh("ch1"))
	assert.True(t, c.IsFresh("ch2"))
	assert.True(t, c.IsFresh(KeyChapters))

	// Unknown ids are ignored
	c.Invalidate("unknown")
	assert.False(t, c.IsFresh("unknown"))
}

func TestInvalidateAll_KeepsData(t *testing.T) {
	c, repo, _ := newFixture()
	c.FetchListAndCategories(context.Background())
	_, _ = c.FetchOne(context.Background(), "ch1")
	chaptersBefore := c.Chapters().Data
	categoriesBefore := c.Categories().Data

	c.InvalidateAll()

	assert.False(t, c.IsFresh(KeyChapters))
	assert.False(t, c.IsFresh(KeyCategories))
	assert.False(t, c.IsFresh("ch1"))
	assert.Equal(t, chaptersBefore, c.Chapters().Data)
	assert.Equal(t, categoriesBefore, c.Categories().Data)
	ch, ok := c.GetOne("ch1")
	assert.True(t, ok)
	assert.Equal(t, "ch1", ch.ID)

	c.FetchListAndCategories(context.Background())
	assert.Equal(t, 4, repo.calls())
}
