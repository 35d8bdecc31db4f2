package digest

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/umputun/rssdigest/pkg/domain"
)

// rssDoc represents the root RSS 2.0 element
type rssDoc struct {
	XMLName xml.Name    `xml:"rss"`
	Version string      `xml:"version,attr"`
	Atom    string      `xml:"xmlns:atom,attr"`
	Channel *rssChannel `xml:"channel"`
}

type rssChannel struct {
	XMLName     xml.Name   `xml:"channel"`
	Title       string     `xml:"title"`
	Link        string     `xml:"link"`
	Description string     `xml:"description"`
	AtomLink    *atomLink  `xml:"http://www.w3.org/2005/Atom link"`
	PubDate     string     `xml:"pubDate"`
	Items       []*rssItem `xml:"item"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	GUID        string `xml:"guid"`
	Description string `xml:"description,omitempty"`
	Category    string `xml:"category"`
	PubDate     string `xml:"pubDate"`
}

// RSS renders the digest as an RSS 2.0 feed, one item per post, in the same order as the other renderers.
// The feed name goes to the item category, all items carry the digest day as publication date.
func RSS(results []domain.FeedResult, day time.Time, baseURL string) (string, error) {
	v := prepare(results, day)
	baseURL = strings.TrimRight(baseURL, "/")
	pubDate := day.UTC().Format(time.RFC1123Z)

	items := make([]*rssItem, 0, len(v.Feeds))
	for _, f := range v.Feeds {
		for _, p := range f.Posts {
			items = append(items, &rssItem{
				Title:       p.Title,
				Link:        p.Link,
				GUID:        p.Link,
				Description: p.Excerpt,
				Category:    f.Name,
				PubDate:     pubDate,
			})
		}
	}

	doc := &rssDoc{
		Version: "2.0",
		Atom:    "http://www.w3.org/2005/Atom",
		Channel: &rssChannel{
			Title:       "RSS Digest for " + v.Date,
			Link:        baseURL + "/",
			Description: v.UpdatedLine,
			AtomLink:    &atomLink{Href: baseURL + "/rss", Rel: "self", Type: "application/rss+xml"},
			PubDate:     pubDate,
			Items:       items,
		},
	}

	output, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal RSS: %w", err)
	}
	return xml.Header + string(output), nil
}
