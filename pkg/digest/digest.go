// Package digest renders per-feed results into the daily digest.
// Both renderers are pure functions of the results and the day.
package digest

import (
	"bytes"
	"embed"
	"fmt"
	"html"
	"html/template"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/umputun/rssdigest/pkg/domain"
)

// dateLayout formats the digest day, i.e. "November 12, 2025"
const dateLayout = "January 02, 2006"

//go:embed templates/digest.html
var templatesFS embed.FS

var htmlTmpl = template.Must(template.ParseFS(templatesFS, "templates/digest.html"))

// Build renders both bodies and the subject for the day
func Build(results []domain.FeedResult, day time.Time) (domain.Digest, error) {
	htmlBody, err := HTML(results, day)
	if err != nil {
		return domain.Digest{}, err
	}
	return domain.Digest{
		Day:     day,
		Subject: Subject(day),
		Text:    PlainText(results, day),
		HTML:    htmlBody,
	}, nil
}

// Subject returns the mail subject for the day
func Subject(day time.Time) string {
	return "RSS Digest - " + day.Format(dateLayout)
}

// PlainText renders the plain-text digest
func PlainText(results []domain.FeedResult, day time.Time) string {
	v := prepare(results, day)

	lines := []string{"RSS Digest for " + v.Date, ""}

	if len(v.Feeds) == 0 {
		lines = append(lines, "No updates yesterday", "")
	}
	for _, f := range v.Feeds {
		lines = append(lines, f.Name)
		if f.SiteURL != "" {
			lines = append(lines, "Visit: "+f.SiteURL)
		}
		for _, p := range f.Posts {
			lines = append(lines, "• "+p.Title, "  "+p.Link)
			if p.Excerpt != "" {
				lines = append(lines, "  "+p.Excerpt)
			}
			lines = append(lines, "")
		}
		lines = append(lines, "")
	}

	lines = append(lines, "--- Summary ---", v.UpdatedLine)
	if len(v.Failed) > 0 {
		lines = append(lines, v.FailedLine)
		for _, f := range v.Failed {
			lines = append(lines, fmt.Sprintf("• %s (%s)", f.Name, f.Error))
		}
	}

	return strings.Join(lines, "\n")
}

// HTML renders the html digest. All feed-supplied text is escaped by the template.
func HTML(results []domain.FeedResult, day time.Time) (string, error) {
	var buf bytes.Buffer
	if err := htmlTmpl.ExecuteTemplate(&buf, "digest.html", prepare(results, day)); err != nil {
		return "", fmt.Errorf("render html digest: %w", err)
	}
	return buf.String(), nil
}

// view is the render model shared by both renderers
type view struct {
	Date        string
	Feeds       []feedView
	Failed      []failedView
	UpdatedLine string
	FailedLine  string
}

type feedView struct {
	Name    string
	SiteURL string
	Posts   []domain.Post
}

type failedView struct {
	Name  string
	Error string
}

// prepare sorts results by name, splits updated and failed feeds
// and decodes entities in post titles and excerpts
func prepare(results []domain.FeedResult, day time.Time) view {
	sorted := slices.Clone(results)
	slices.SortStableFunc(sorted, func(a, b domain.FeedResult) int { return strings.Compare(a.Name, b.Name) })

	withPosts := lo.Filter(sorted, func(r domain.FeedResult, _ int) bool { return r.HasPosts() })
	failed := lo.Filter(sorted, func(r domain.FeedResult, _ int) bool { return r.Failed() })

	v := view{
		Date: day.Format(dateLayout),
		Feeds: lo.Map(withPosts, func(r domain.FeedResult, _ int) feedView {
			return feedView{Name: r.Name, SiteURL: r.SiteURL, Posts: lo.Map(r.Posts, decodePost)}
		}),
		Failed: lo.Map(failed, func(r domain.FeedResult, _ int) failedView {
			msg := r.Error
			if msg == "" {
				msg = "Unknown error"
			}
			return failedView{Name: r.Name, Error: msg}
		}),
		UpdatedLine: fmt.Sprintf("%d of %d feeds updated", len(withPosts), len(results)),
	}

	if len(failed) > 0 {
		noun := "feeds"
		if len(failed) == 1 {
			noun = "feed"
		}
		v.FailedLine = fmt.Sprintf("%d %s failed to load:", len(failed), noun)
	}
	return v
}

func decodePost(p domain.Post, _ int) domain.Post {
	return domain.Post{Title: html.UnescapeString(p.Title), Link: p.Link, Excerpt: html.UnescapeString(p.Excerpt)}
}
