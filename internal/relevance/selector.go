// Package relevance picks the chapters worth putting into a chat prompt.
//
// Scoring is rule based. A chapter that no rule can justify scores 0 and
// is never returned, even if that leaves the result short or empty.
package relevance

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/mmcdole/lectern/internal/domain"
)

// DefaultLimit is used when Select is called with a non-positive limit
const DefaultLimit = 3

// Score weights
const (
	titlePatternBonus = 50
	contentTermsBonus = 30
	categoryBonus     = 15

	tokenTitleBonus    = 10
	tokenPreviewBonus  = 5
	tokenBodyBonus     = 2
	tokenCategoryBonus = 3

	minTokenLength = 4
)

// Scored pairs a chapter with its score for one query
type Scored struct {
	Chapter domain.Chapter
	Score   int
}

// Selector ranks chapters against a query using a topic table
type Selector struct {
	topics []Topic
}

// New creates a selector. A nil table disables topic bonuses; pass
// DefaultTopics() for the curated table.
func New(topics []Topic) *Selector {
	return &Selector{topics: topics}
}

// Select returns at most limit chapters with a nonzero score, best first.
// Ties keep their input order.
func (s *Selector) Select(query string, chapters []domain.Chapter, limit int) []domain.Chapter {
	if limit <= 0 {
		limit = DefaultLimit
	}

	ranked := s.Rank(query, chapters)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := make([]domain.Chapter, len(ranked))
	for i, r := range ranked {
		out[i] = r.Chapter
	}
	return out
}

// Rank scores every chapter and returns those above zero, best first
func (s *Selector) Rank(query string, chapters []domain.Chapter) []Scored {
	if len(chapters) == 0 {
		return nil
	}

	q := strings.ToLower(query)
	tokens := queryTokens(q)
	active := s.activeTopics(q)

	scored := make([]Scored, 0, len(chapters))
	for _, ch := range chapters {
		scored = append(scored, Scored{Chapter: ch, Score: score(q, tokens, active, ch)})
	}

	slices.SortStableFunc(scored, func(a, b Scored) int {
		return b.Score - a.Score
	})

	// Sorted descending, so the zeros are a suffix
	cut := slices.IndexFunc(scored, func(r Scored) bool { return r.Score == 0 })
	if cut >= 0 {
		scored = scored[:cut]
	}
	return scored
}

// activeTopics returns the topics triggered by any keyword in q
func (s *Selector) activeTopics(q string) []Topic {
	var active []Topic
	for _, t := range s.topics {
		if slices.ContainsFunc(t.Keywords, func(kw string) bool {
			return strings.Contains(q, kw)
		}) {
			active = append(active, t)
		}
	}
	return active
}

func score(q string, tokens []string, topics []Topic, ch domain.Chapter) int {
	title := strings.ToLower(ch.Title)
	preview := strings.ToLower(ch.Preview)
	body := strings.ToLower(ch.Content)
	category := strings.ToLower(ch.CategoryName())

	total := 0

	for _, t := range topics {
		if t.Title != nil && t.Title.MatchString(title) {
			total += titlePatternBonus
		}
		if len(t.ContentTerms) > 0 && containsAll(body, t.ContentTerms) {
			total += contentTermsBonus
		}
	}

	if category != "" && strings.Contains(q, category) {
		total += categoryBonus
	}

	for _, tok := range tokens {
		if strings.Contains(title, tok) {
			total += tokenTitleBonus
		}
		if strings.Contains(preview, tok) {
			total += tokenPreviewBonus
		}
		if strings.Contains(body, tok) {
			total += tokenBodyBonus
		}
		if strings.Contains(category, tok) {
			total += tokenCategoryBonus
		}
	}

	return total
}

// queryTokens splits on whitespace and keeps tokens longer than 3 runes
func queryTokens(q string) []string {
	var tokens []string
	for _, f := range strings.Fields(q) {
		if utf8.RuneCountInString(f) >= minTokenLength {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func containsAll(text string, terms []string) bool {
	for _, term := range terms {
		if !strings.Contains(text, term) {
			return false
		}
	}
	return true
}
