// Package search finds chapters by approximate title.
package search

import (
	"slices"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/mmcdole/lectern/internal/domain"
)

// Result is a chapter matched by title
type Result struct {
	Chapter  domain.Chapter
	Distance int // Levenshtein distance to the query (lower is better)
}

// FindByTitle ranks chapters whose title fuzzily contains query.
// Exact and prefix title matches come first, then by distance. A
// non-positive limit returns every match.
func FindByTitle(query string, chapters []domain.Chapter, limit int) []Result {
	query = strings.TrimSpace(query)
	if query == "" || len(chapters) == 0 {
		return nil
	}

	titles := make([]string, len(chapters))
	for i, ch := range chapters {
		titles[i] = ch.Title
	}

	matches := fuzzy.RankFindFold(query, titles)
	lowerQuery := strings.ToLower(query)

	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		results = append(results, Result{
			Chapter:  chapters[m.OriginalIndex],
			Distance: m.Distance,
		})
	}

	slices.SortStableFunc(results, func(a, b Result) int {
		if ra, rb := matchRank(a.Chapter.Title, lowerQuery), matchRank(b.Chapter.Title, lowerQuery); ra != rb {
			return ra - rb
		}
		return a.Distance - b.Distance
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// matchRank buckets a title: exact, prefix, substring, fuzzy
func matchRank(title, lowerQuery string) int {
	t := strings.ToLower(title)
	switch {
	case t == lowerQuery:
		return 0
	case strings.HasPrefix(t, lowerQuery):
		return 1
	case strings.Contains(t, lowerQuery):
		return 2
	default:
		return 3
	}
}
