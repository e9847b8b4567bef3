package publishing

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/klass-lk/reviewpress/internal/model"
)

const (
	ExcerptLength = 297
	ExcerptSuffix = "..."
)

var nonSlugRun = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases title, collapses every run of characters outside [a-z0-9]
// into one hyphen and trims hyphens from both ends.
func Slugify(title string) string {
	slug := nonSlugRun.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(slug, "-")
}

// Excerpt keeps the first ExcerptLength characters of content and always appends
// the suffix. The cut ignores word boundaries.
func Excerpt(content string) string {
	if utf8.RuneCountInString(content) <= ExcerptLength {
		return content + ExcerptSuffix
	}
	runes := []rune(content)
	return string(runes[:ExcerptLength]) + ExcerptSuffix
}

func NormalizeGenres(genres model.Genres) []string {
	if len(genres) == 0 {
		return []string{model.DefaultGenre}
	}
	return []string(genres)
}
