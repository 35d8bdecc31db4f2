package feed

import (
	"time"

	"github.com/mmcdole/gofeed"
)

// Entry is a normalized feed item with the optional fields used by the filter
type Entry struct {
	Title     string
	Link      string
	Published *time.Time
	Updated   *time.Time
	Summary   string   // rss description or atom summary
	Contents  []string // full content blocks, first one wins
}

// NewEntry converts a parsed gofeed item to Entry
func NewEntry(item *gofeed.Item) Entry {
	e := Entry{
		Title:     item.Title,
		Link:      item.Link,
		Published: item.PublishedParsed,
		Updated:   item.UpdatedParsed,
		Summary:   item.Description,
	}
	if item.Content != "" {
		e.Contents = []string{item.Content}
	}
	return e
}

// Timestamp returns the publication time in UTC, falling back to the update time.
// The second value is false if the entry has neither.
func (e Entry) Timestamp() (time.Time, bool) {
	switch {
	case e.Published != nil && !e.Published.IsZero():
		return e.Published.UTC(), true
	case e.Updated != nil && !e.Updated.IsZero():
		return e.Updated.UTC(), true
	}
	return time.Time{}, false
}

// RawExcerpt returns the summary, or the first content block, or empty string
func (e Entry) RawExcerpt() string {
	if e.Summary != "" {
		return e.Summary
	}
	if len(e.Contents) > 0 {
		return e.Contents[0]
	}
	return ""
}
