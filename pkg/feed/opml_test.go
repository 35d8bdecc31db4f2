package feed

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/rssdigest/pkg/domain"
)

func TestLoadOPML(t *testing.T) {
	t.Run("nested outlines", func(t *testing.T) {
		subs, err := LoadOPML("testdata/feeds.opml")
		require.NoError(t, err)
		assert.Equal(t, []domain.Subscription{
			{Title: "Daring Fireball", URL: "https://daringfireball.net/feeds/main"},
			{Title: "Hacker News", URL: "https://news.ycombinator.com/rss"},
			{Title: "https://example.com/untitled.xml", URL: "https://example.com/untitled.xml"},
		}, subs)
	})

	t.Run("missing file", func(t *testing.T) {
		subs, err := LoadOPML("testdata/nonexistent.opml")
		require.Error(t, err)
		assert.Nil(t, subs)
		assert.True(t, errors.Is(err, ErrSubscriptionsNotFound))
		assert.Contains(t, err.Error(), "nonexistent.opml")
	})
}

func TestParseOPML(t *testing.T) {
	t.Run("empty body", func(t *testing.T) {
		subs, err := ParseOPML(strings.NewReader(`<opml version="2.0"><head/><body/></opml>`))
		require.NoError(t, err)
		assert.Empty(t, subs)
	})

	t.Run("invalid xml", func(t *testing.T) {
		_, err := ParseOPML(strings.NewReader(`<opml><body><outline`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode opml")
	})
}

func TestOPMLFile_Subscriptions(t *testing.T) {
	subs, err := OPMLFile("testdata/feeds.opml").Subscriptions()
	require.NoError(t, err)
	assert.Len(t, subs, 3)

	_, err = OPMLFile("testdata/nonexistent.opml").Subscriptions()
	assert.ErrorIs(t, err, ErrSubscriptionsNotFound)
}
