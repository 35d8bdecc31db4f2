package digest

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/umputun/rssdigest/pkg/domain"
)

var day = time.Date(2025, 11, 12, 0, 0, 0, 0, time.UTC)

func sampleResults() []domain.FeedResult {
	return []domain.FeedResult{
		domain.NewFeedResult("Tech Blog", "https://tech.example.com", []domain.Post{
			{Title: "New Python Release", Link: "https://example.com/python", Excerpt: "Python 3.12 released with new features..."},
		}),
		domain.NewFeedResult("News Site", "", []domain.Post{
			{Title: "Breaking News", Link: "https://example.com/news", Excerpt: "Important announcement today..."},
			{Title: "No Excerpt", Link: "https://example.com/bare"},
		}),
		domain.FailedFeedResult("Failed Feed", "Timeout after 15s"),
		domain.NewFeedResult("Quiet Feed", "https://quiet.example.com", nil),
	}
}

func TestPlainText(t *testing.T) {
	t.Run("exact layout", func(t *testing.T) {
		expected := strings.Join([]string{
			"RSS Digest for November 12, 2025",
			"",
			"News Site",
			"• Breaking News",
			"  https://example.com/news",
			"  Important announcement today...",
			"",
			"• No Excerpt",
			"  https://example.com/bare",
			"",
			"",
			"Tech Blog",
			"Visit: https://tech.example.com",
			"• New Python Release",
			"  https://example.com/python",
			"  Python 3.12 released with new features...",
			"",
			"",
			"--- Summary ---",
			"2 of 4 feeds updated",
			"1 feed failed to load:",
			"• Failed Feed (Timeout after 15s)",
		}, "\n")
		assert.Equal(t, expected, PlainText(sampleResults(), day))
	})

	t.Run("scenario with one failure", func(t *testing.T) {
		results := []domain.FeedResult{
			{Name: "A", Status: domain.StatusSuccess, Posts: []domain.Post{{Title: "T1", Link: "http://x", Excerpt: "E1"}}},
			{Name: "B", Status: domain.StatusError, Posts: []domain.Post{}, Error: "Timeout after 15s"},
		}
		text := PlainText(results, day)
		assert.Contains(t, text, "1 of 2 feeds updated")
		assert.Contains(t, text, "B (Timeout after 15s)")
		assert.Contains(t, text, "1 feed failed to load:")
	})

	t.Run("no updates", func(t *testing.T) {
		results := []domain.FeedResult{
			domain.NewFeedResult("Feed 1", "", nil),
			domain.NewFeedResult("Feed 2", "", nil),
		}
		text := PlainText(results, day)
		assert.Equal(t, 1, strings.Count(text, "No updates yesterday"))
		assert.NotContains(t, text, "•")
		assert.NotContains(t, text, "Feed 1")
		assert.Contains(t, text, "0 of 2 feeds updated")
		assert.NotContains(t, text, "failed to load")
		assert.Equal(t, "RSS Digest for November 12, 2025\n\nNo updates yesterday\n\n--- Summary ---\n0 of 2 feeds updated", text)
	})

	t.Run("plural failures and unknown error", func(t *testing.T) {
		results := []domain.FeedResult{
			domain.FailedFeedResult("Z", "connection refused"),
			{Name: "Y", Status: domain.StatusError, Posts: []domain.Post{}},
		}
		text := PlainText(results, day)
		assert.Contains(t, text, "2 feeds failed to load:")
		assert.Contains(t, text, "• Y (Unknown error)\n• Z (connection refused)")
	})

	t.Run("empty results", func(t *testing.T) {
		text := PlainText(nil, day)
		assert.Contains(t, text, "No updates yesterday")
		assert.Contains(t, text, "0 of 0 feeds updated")
	})

	t.Run("entities decoded in titles and excerpts only", func(t *testing.T) {
		results := []domain.FeedResult{
			domain.NewFeedResult("Tom&amp;Co", "", []domain.Post{{Title: "Tom&#8217;s post", Link: "https://x/?a=1&amp;b=2", Excerpt: "fish &amp; chips"}}),
		}
		text := PlainText(results, day)
		assert.Contains(t, text, "• Tom’s post")
		assert.NotContains(t, text, "&#8217;")
		assert.Contains(t, text, "  fish & chips")
		assert.Contains(t, text, "Tom&amp;Co\n")
		assert.Contains(t, text, "  https://x/?a=1&amp;b=2")
	})
}

func TestHTML(t *testing.T) {
	t.Run("structure", func(t *testing.T) {
		out, err := HTML(sampleResults(), day)
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
		assert.Contains(t, out, "<style>")
		assert.Contains(t, out, "<h1>RSS Digest for November 12, 2025</h1>")
		assert.Contains(t, out, `<h2><a href="https://tech.example.com">Tech Blog</a></h2>`)
		assert.Contains(t, out, `<h2>News Site</h2>`)
		assert.Contains(t, out, `<a href="https://example.com/python">New Python Release</a>`)
		assert.Contains(t, out, `<div class="excerpt">Python 3.12 released with new features...</div>`)
		assert.Contains(t, out, "2 of 4 feeds updated")
		assert.Contains(t, out, "1 feed failed to load:")
		assert.Contains(t, out, "<li>Failed Feed (Timeout after 15s)</li>")
		assert.NotContains(t, out, "No updates yesterday")
		assert.NotContains(t, out, "Quiet Feed")

		doc, err := html.Parse(strings.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, []string{"News Site", "Tech Blog"}, textsOf(doc, "h2"))
		assert.Len(t, findAll(doc, "div", "excerpt"), 2)
		assert.Len(t, findAll(doc, "div", "post"), 3)
	})

	t.Run("no updates", func(t *testing.T) {
		out, err := HTML([]domain.FeedResult{domain.NewFeedResult("Feed 1", "", nil)}, day)
		require.NoError(t, err)
		assert.Equal(t, 1, strings.Count(out, "No updates yesterday"))
		assert.Contains(t, out, "0 of 1 feeds updated")
		assert.NotContains(t, out, "<h2>")
		assert.NotContains(t, out, `<ul class="failed">`)
	})

	t.Run("entity round trip", func(t *testing.T) {
		results := []domain.FeedResult{
			domain.NewFeedResult("Blog", "", []domain.Post{{Title: "Tom&#8217;s post", Link: "https://x", Excerpt: "it&#8217;s here"}}),
		}
		out, err := HTML(results, day)
		require.NoError(t, err)
		assert.Contains(t, out, "Tom’s post")
		assert.Contains(t, out, "it’s here")
		assert.NotContains(t, out, "&#8217;")
	})

	t.Run("ampersand escaped once", func(t *testing.T) {
		results := []domain.FeedResult{
			domain.NewFeedResult("Blog", "", []domain.Post{{Title: "Fish &amp; Chips", Link: "https://x", Excerpt: "salt & vinegar"}}),
		}
		out, err := HTML(results, day)
		require.NoError(t, err)
		assert.Contains(t, out, ">Fish &amp; Chips</a>")
		assert.Contains(t, out, "salt &amp; vinegar")
		assert.NotContains(t, out, "&amp;amp;")
	})

	t.Run("script never emitted as markup", func(t *testing.T) {
		results := []domain.FeedResult{
			domain.NewFeedResult(`<script>alert("name")</script>`, `"><script>alert(1)</script>`, []domain.Post{{
				Title:   "&lt;script&gt;alert('title')&lt;/script&gt;",
				Link:    `javascript:alert(1)`,
				Excerpt: "<script>alert('excerpt')</script>",
			}}),
			domain.FailedFeedResult("<b>bad</b>", `<script>alert("err")</script>`),
		}
		out, err := HTML(results, day)
		require.NoError(t, err)

		assert.NotContains(t, out, "<script")
		assert.NotContains(t, out, "<b>bad</b>")
		assert.NotContains(t, out, "javascript:")
		assert.Contains(t, out, "&lt;script&gt;")

		doc, err := html.Parse(strings.NewReader(out))
		require.NoError(t, err)
		assert.Empty(t, findAll(doc, "script", ""))
		assert.Empty(t, findAll(doc, "b", ""))
	})
}

func TestRender_SortedAndIdempotent(t *testing.T) {
	results := []domain.FeedResult{
		domain.NewFeedResult("zeta", "", []domain.Post{{Title: "z", Link: "https://z"}}),
		domain.NewFeedResult("Alpha", "", []domain.Post{{Title: "a", Link: "https://a"}}),
		domain.NewFeedResult("beta", "", []domain.Post{{Title: "b", Link: "https://b"}}),
	}
	orig := append([]domain.FeedResult(nil), results...)

	text1, text2 := PlainText(results, day), PlainText(results, day)
	assert.Equal(t, text1, text2)
	html1, err := HTML(results, day)
	require.NoError(t, err)
	html2, err := HTML(results, day)
	require.NoError(t, err)
	assert.Equal(t, html1, html2)

	// codepoint order puts upper case first
	for _, out := range []string{text1, html1} {
		ia, ib, iz := strings.Index(out, "Alpha"), strings.Index(out, "beta"), strings.Index(out, "zeta")
		assert.True(t, ia < ib && ib < iz, "order in %q", out)
	}
	assert.Equal(t, orig, results, "input must not be reordered")
}

func TestRender_StableSortForEqualNames(t *testing.T) {
	results := []domain.FeedResult{
		domain.NewFeedResult("Same", "", []domain.Post{{Title: "first", Link: "https://1"}}),
		domain.NewFeedResult("Same", "", []domain.Post{{Title: "second", Link: "https://2"}}),
	}
	text := PlainText(results, day)
	assert.Less(t, strings.Index(text, "first"), strings.Index(text, "second"))
}

func TestBuild(t *testing.T) {
	d, err := Build(sampleResults(), day)
	require.NoError(t, err)
	assert.Equal(t, "RSS Digest - November 12, 2025", d.Subject)
	assert.Equal(t, day, d.Day)
	assert.Equal(t, PlainText(sampleResults(), day), d.Text)
	assert.Contains(t, d.HTML, "2 of 4 feeds updated")
	assert.Contains(t, d.Text, "2 of 4 feeds updated")
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "RSS Digest - March 05, 2024", Subject(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)))
}

// findAll returns elements with the given tag, and class if not empty
func findAll(n *html.Node, tag, class string) []*html.Node {
	var res []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag && (class == "" || hasClass(n, class)) {
			res = append(res, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return res
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key == "class" && a.Val == class {
			return true
		}
	}
	return false
}

func textsOf(doc *html.Node, tag string) []string {
	var res []string
	for _, n := range findAll(doc, tag, "") {
		var sb strings.Builder
		var walk func(*html.Node)
		walk = func(n *html.Node) {
			if n.Type == html.TextNode {
				sb.WriteString(n.Data)
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
		}
		walk(n)
		res = append(res, strings.TrimSpace(sb.String()))
	}
	return res
}
