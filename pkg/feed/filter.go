package feed

import (
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/umputun/rssdigest/pkg/domain"
)

// maxExcerptLen is the excerpt limit in characters, not counting the ellipsis
const maxExcerptLen = 300

// stripPolicy removes every tag but keeps the text between them, script and style bodies included
var stripPolicy = bluemonday.StrictPolicy().AllowElementsContent("script", "style")

// Classify returns a post for the entry if it was published on day's UTC calendar date.
// Title and link are copied as is, the excerpt is cleaned with CleanExcerpt.
func Classify(e Entry, day time.Time) (domain.Post, bool) {
	ts, ok := e.Timestamp()
	if !ok || !domain.SameDay(ts, day) {
		return domain.Post{}, false
	}
	return domain.Post{
		Title:   e.Title,
		Link:    e.Link,
		Excerpt: CleanExcerpt(e.RawExcerpt(), maxExcerptLen),
	}, true
}

// CleanExcerpt strips markup, decodes entities, trims and truncates to maxLen characters.
// "..." is appended when the text was truncated.
func CleanExcerpt(s string, maxLen int) string {
	if s == "" {
		return ""
	}
	// the strict policy drops every tag and re-escapes text, unescape turns it back into literal characters
	text := html.UnescapeString(stripPolicy.Sanitize(s))
	text = strings.TrimSpace(text)
	return truncate(text, maxLen)
}

// truncate cuts s to maxLen runes and appends "..." if anything was cut
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen]) + "..."
}
