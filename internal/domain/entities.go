package domain

import "time"

// ContentType distinguishes regular lessons from book summaries
type ContentType string

const (
	ContentTypeLesson      ContentType = "lesson"
	ContentTypeBookSummary ContentType = "book_summary"
)

// Category groups chapters and carries their display order
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	SortOrder   int    `json:"sort_order"`
}

// Chapter is a single content unit. The cache treats it as an immutable
// value: updates replace the whole record.
type Chapter struct {
	ID            string      `json:"id"`
	CategoryID    string      `json:"category_id"`
	Title         string      `json:"title"`
	Content       string      `json:"content"`
	Preview       string      `json:"preview,omitempty"`
	ChapterNumber int         `json:"chapter_number"`
	SortOrder     int         `json:"sort_order"`
	ContentType   ContentType `json:"content_type"`

	// Optional media and metadata
	PodcastURL    string   `json:"podcast_url,omitempty"`
	VideoURL      string   `json:"video_url,omitempty"`
	KeyTakeaways  []string `json:"key_takeaways,omitempty"`
	AudioURL      string   `json:"audio_url,omitempty"`
	AudioDuration int      `json:"audio_duration,omitempty"` // seconds

	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`

	// Category is the joined category row, when the backend includes it
	Category *Category `json:"category,omitempty"`
}

// CategoryName returns the joined category's name, or "" if not joined
func (c Chapter) CategoryName() string {
	if c.Category == nil {
		return ""
	}
	return c.Category.Name
}

// IsBookSummary reports whether the chapter is a book summary
func (c Chapter) IsBookSummary() bool {
	return c.ContentType == ContentTypeBookSummary
}

// FindChapter returns the chapter with the given id and its index, or -1
func FindChapter(chapters []Chapter, id string) (Chapter, int) {
	for i, ch := range chapters {
		if ch.ID == id {
			return ch, i
		}
	}
	return Chapter{}, -1
}

// AttachCategories returns a copy of chapters with Category filled from
// categories wherever the backend did not join it
func AttachCategories(chapters []Chapter, categories []Category) []Chapter {
	byID := make(map[string]*Category, len(categories))
	for i := range categories {
		byID[categories[i].ID] = &categories[i]
	}

	out := make([]Chapter, len(chapters))
	for i, ch := range chapters {
		if ch.Category == nil {
			if cat, ok := byID[ch.CategoryID]; ok {
				c := *cat
				ch.Category = &c
			}
		}
		out[i] = ch
	}
	return out
}
