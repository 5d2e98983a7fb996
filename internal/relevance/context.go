package relevance

import (
	"fmt"
	"strings"

	"github.com/mmcdole/lectern/internal/domain"
)

// maxExcerptRunes bounds how much body text each chapter contributes
const maxExcerptRunes = 1200

// FormatContext renders selected chapters as the reference block of a
// chat prompt. It returns "" when there is nothing to include.
func FormatContext(chapters []domain.Chapter) string {
	if len(chapters) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Relevant chapters from the course:\n")
	for i, ch := range chapters {
		fmt.Fprintf(&b, "\n[%d] %s", i+1, ch.Title)
		if name := ch.CategoryName(); name != "" {
			fmt.Fprintf(&b, " (%s)", name)
		}
		if ch.IsBookSummary() {
			b.WriteString(" [book summary]")
		}
		b.WriteString("\n")

		if ch.Preview != "" {
			fmt.Fprintf(&b, "Summary: %s\n", strings.TrimSpace(ch.Preview))
		}
		if excerpt := truncateRunes(strings.TrimSpace(ch.Content), maxExcerptRunes); excerpt != "" {
			fmt.Fprintf(&b, "Content: %s\n", excerpt)
		}
		if len(ch.KeyTakeaways) > 0 {
			b.WriteString("Key takeaways:\n")
			for _, kt := range ch.KeyTakeaways {
				fmt.Fprintf(&b, "- %s\n", kt)
			}
		}
	}
	return b.String()
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
