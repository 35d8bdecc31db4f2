package digest

import (
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/rssdigest/pkg/domain"
)

func TestRSS(t *testing.T) {
	day := time.Date(2025, 11, 12, 0, 0, 0, 0, time.UTC)
	results := []domain.FeedResult{
		domain.NewFeedResult("Zeta", "https://zeta.example.com", []domain.Post{
			{Title: "Z1", Link: "https://zeta.example.com/1", Excerpt: "zeta excerpt"},
		}),
		domain.FailedFeedResult("Broken", "Timeout after 15s"),
		domain.NewFeedResult("Alpha", "", []domain.Post{
			{Title: "Tom&#8217;s <post>", Link: "https://alpha.example.com/1"},
			{Title: "A2", Link: "https://alpha.example.com/2", Excerpt: "second"},
		}),
	}

	t.Run("structure", func(t *testing.T) {
		rss, err := RSS(results, day, "https://digest.example.com/")
		require.NoError(t, err)

		assert.Contains(t, rss, `<?xml version="1.0" encoding="UTF-8"?>`)
		assert.Contains(t, rss, `<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">`)
		assert.Contains(t, rss, `<title>RSS Digest for November 12, 2025</title>`)
		assert.Contains(t, rss, `<link>https://digest.example.com/</link>`)
		assert.Contains(t, rss, `<description>2 of 3 feeds updated</description>`)
		assert.Contains(t, rss, `href="https://digest.example.com/rss"`)
		assert.NotContains(t, rss, `https://digest.example.com//`)
		assert.Contains(t, rss, `<category>Alpha</category>`)
		assert.NotContains(t, rss, "Broken")
		assert.NotContains(t, rss, "<post>")
	})

	t.Run("parses back in digest order", func(t *testing.T) {
		rss, err := RSS(results, day, "https://digest.example.com")
		require.NoError(t, err)

		parsed, err := gofeed.NewParser().ParseString(rss)
		require.NoError(t, err)
		require.Len(t, parsed.Items, 3)

		assert.Equal(t, "Tom’s <post>", parsed.Items[0].Title)
		assert.Equal(t, "https://alpha.example.com/1", parsed.Items[0].Link)
		assert.Equal(t, []string{"Alpha"}, parsed.Items[0].Categories)
		assert.Equal(t, "A2", parsed.Items[1].Title)
		assert.Equal(t, "second", parsed.Items[1].Description)
		assert.Equal(t, "Z1", parsed.Items[2].Title)
		assert.Equal(t, []string{"Zeta"}, parsed.Items[2].Categories)

		require.NotNil(t, parsed.Items[2].PublishedParsed)
		assert.True(t, domain.SameDay(*parsed.Items[2].PublishedParsed, day))
	})

	t.Run("no posts", func(t *testing.T) {
		rss, err := RSS([]domain.FeedResult{domain.NewFeedResult("Quiet", "", nil)}, day, "http://localhost:8080")
		require.NoError(t, err)
		assert.Contains(t, rss, "<channel>")
		assert.NotContains(t, rss, "<item>")
		assert.Contains(t, rss, "<description>0 of 1 feeds updated</description>")
	})
}
