package feed

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/umputun/rssdigest/pkg/domain"
)

// ErrSubscriptionsNotFound is returned when the subscription file doesn't exist
var ErrSubscriptionsNotFound = errors.New("subscription file not found")

type opmlOutline struct {
	Text     string        `xml:"text,attr"`
	Title    string        `xml:"title,attr"`
	XMLURL   string        `xml:"xmlUrl,attr"`
	Outlines []opmlOutline `xml:"outline"`
}

type opmlDoc struct {
	XMLName xml.Name `xml:"opml"`
	Body    struct {
		Outlines []opmlOutline `xml:"outline"`
	} `xml:"body"`
}

// LoadOPML reads subscriptions from an OPML file
func LoadOPML(path string) ([]domain.Subscription, error) {
	fh, err := os.Open(path) //nolint:gosec // path comes from CLI/config
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSubscriptionsNotFound, path)
		}
		return nil, fmt.Errorf("open subscriptions: %w", err)
	}
	defer fh.Close()

	subs, err := ParseOPML(fh)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return subs, nil
}

// ParseOPML extracts every outline with xmlUrl, at any nesting depth, in document order.
// The title is taken from text, then title, then the url itself.
func ParseOPML(r io.Reader) ([]domain.Subscription, error) {
	var doc opmlDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode opml: %w", err)
	}

	subs := []domain.Subscription{}
	var walk func(outlines []opmlOutline)
	walk = func(outlines []opmlOutline) {
		for _, o := range outlines {
			if o.XMLURL != "" {
				subs = append(subs, domain.Subscription{Title: outlineTitle(o), URL: o.XMLURL})
			}
			walk(o.Outlines)
		}
	}
	walk(doc.Body.Outlines)
	return subs, nil
}

func outlineTitle(o opmlOutline) string {
	switch {
	case o.Text != "":
		return o.Text
	case o.Title != "":
		return o.Title
	default:
		return o.XMLURL
	}
}

// OPMLFile is a subscription source backed by an OPML file path
type OPMLFile string

// Subscriptions loads the file on every call, so edits are picked up without restart
func (f OPMLFile) Subscriptions() ([]domain.Subscription, error) {
	return LoadOPML(string(f))
}
