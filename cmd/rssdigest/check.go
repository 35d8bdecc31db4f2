package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/umputun/rssdigest/pkg/domain"
	"github.com/umputun/rssdigest/pkg/feed"
)

const (
	checkMaxEntries = 10
	checkPreviewLen = 100
)

// CheckCmd options of the check command
type CheckCmd struct {
	Latest bool   `long:"latest" description:"show latest entries regardless of date"`
	Date   string `long:"date" description:"date to match, YYYY-MM-DD (default: yesterday)"`
	Args   struct {
		URL string `positional-arg-name:"url" description:"feed url"`
	} `positional-args:"yes" required:"yes"`
}

// feedParser fetches and parses a single feed, implemented by feed.HTTPFetcher
type feedParser interface {
	Parse(ctx context.Context, url string) (*gofeed.Feed, error)
}

// checkFeed fetches one feed and prints its latest entries, marking those matching the date filter
func checkFeed(ctx context.Context, w io.Writer, p feedParser, cmd CheckCmd, now time.Time) error {
	day := domain.Yesterday(now)
	if cmd.Date != "" {
		parsed, err := time.Parse(time.DateOnly, cmd.Date)
		if err != nil {
			return fmt.Errorf("invalid date %q, use YYYY-MM-DD", cmd.Date)
		}
		day = parsed
	}

	sep := strings.Repeat("=", 80)
	fmt.Fprintf(w, "Testing feed: %s\n%s\n\n", cmd.Args.URL, sep)

	parsed, err := p.Parse(ctx, cmd.Args.URL)
	if err != nil {
		return fmt.Errorf("fetch feed: %w", err)
	}

	fmt.Fprintf(w, "Feed Name: %s\n", parsed.Title)
	if parsed.Link != "" {
		fmt.Fprintf(w, "Site URL: %s\n", parsed.Link)
	}
	fmt.Fprintln(w)

	if len(parsed.Items) == 0 {
		fmt.Fprintln(w, "No entries found in feed")
		return nil
	}
	fmt.Fprintf(w, "Total entries in feed: %d\n\n", len(parsed.Items))
	if cmd.Date != "" {
		fmt.Fprintf(w, "Testing against date: %s\n\n", day.Format(time.DateOnly))
	} else {
		fmt.Fprintf(w, "Testing against yesterday's date: %s\n\n", day.Format(time.DateOnly))
	}

	fmt.Fprintf(w, "Latest Posts (up to %d):\n%s\n", checkMaxEntries, strings.Repeat("-", 80))
	shown := min(checkMaxEntries, len(parsed.Items))
	matches := 0
	for i, item := range parsed.Items[:shown] {
		if item == nil {
			continue
		}
		e := feed.NewEntry(item)
		fmt.Fprintf(w, "\n%d. %s\n   Link: %s\n", i+1, e.Title, e.Link)

		ts, ok := e.Timestamp()
		switch {
		case !ok:
			fmt.Fprintln(w, "   No publication date found")
		case cmd.Latest:
			fmt.Fprintf(w, "   Published: %s\n   ✓ Shown (--latest mode)\n", ts.Format("2006-01-02 15:04:05 UTC"))
			matches++
		case domain.SameDay(ts, day):
			fmt.Fprintf(w, "   Published: %s\n   ✓ Matches date filter\n", ts.Format("2006-01-02 15:04:05 UTC"))
			matches++
		default:
			fmt.Fprintf(w, "   Published: %s\n   ✗ Does not match date filter\n", ts.Format("2006-01-02 15:04:05 UTC"))
		}

		if preview := feed.CleanExcerpt(e.RawExcerpt(), checkPreviewLen); preview != "" {
			fmt.Fprintf(w, "   Excerpt: %s\n", preview)
		}
	}

	fmt.Fprintf(w, "\n%s\n", sep)
	if cmd.Latest {
		fmt.Fprintf(w, "Total posts shown: %d\n", shown)
		return nil
	}
	fmt.Fprintf(w, "Posts matching filter: %d out of %d shown\n", matches, shown)
	fmt.Fprintf(w, "Date filter: %s\n", day.Format(time.DateOnly))
	return nil
}
