package feed

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html/charset"

	"github.com/umputun/rssdigest/pkg/domain"
)

// defaults for HTTPFetcher
const (
	DefaultTimeout   = 15 * time.Second
	DefaultUserAgent = "rssdigest/1.0 (+https://github.com/umputun/rssdigest)"
)

// HTTPFetcher retrieves a feed over HTTP and turns it into a FeedResult
type HTTPFetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// NewHTTPFetcher creates a fetcher with the given per-feed timeout and user agent
func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &HTTPFetcher{
		// no client timeout, the per-request context bounds the whole request including body read
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		timeout:   timeout,
		userAgent: userAgent,
	}
}

// Fetch retrieves the subscription's feed and keeps entries published on day.
// It never fails, all errors are reported as a result with StatusError.
func (f *HTTPFetcher) Fetch(ctx context.Context, sub domain.Subscription, day time.Time) (res domain.FeedResult) {
	defer func() {
		if r := recover(); r != nil {
			lgr.Printf("[WARN] %s: unexpected failure: %v", sub.Title, r)
			res = domain.FailedFeedResult(sub.Title, fmt.Sprintf("%v", r))
		}
	}()

	parsed, err := f.Parse(ctx, sub.URL)
	if err != nil {
		lgr.Printf("[WARN] %s: %v", sub.Title, err)
		return domain.FailedFeedResult(sub.Title, f.errorMessage(err))
	}

	posts := []domain.Post{}
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		if post, ok := Classify(NewEntry(item), day); ok {
			posts = append(posts, post)
		}
	}
	lgr.Printf("[INFO] %s: %d posts from %s", sub.Title, len(posts), day.Format(time.DateOnly))
	return domain.NewFeedResult(sub.Title, parsed.Link, posts)
}

// ParseError is returned by Parse when the document is not a valid feed
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("invalid feed format: %v", e.Err) }

func (e *ParseError) Unwrap() error { return e.Err }

// Parse fetches and parses the feed at url within the fetcher's timeout.
// A non-200 response is accepted only if its body is still a valid feed.
func (f *HTTPFetcher) Parse(ctx context.Context, url string) (*gofeed.Feed, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	body, status, err := f.fetch(ctx, url)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			// transport errors after the deadline don't always wrap it
			return nil, fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
		}
		return nil, err
	}

	parsed, err := parseFeed(body)
	if status != http.StatusOK {
		if err != nil {
			return nil, fmt.Errorf("unexpected status code: %d", status)
		}
		lgr.Printf("[DEBUG] %s returned status %d with a valid feed", url, status)
	}
	if err != nil {
		return nil, err
	}
	return parsed, nil
}

// parseFeed checks that an xml document is well-formed and parses it with gofeed.
// gofeed's own xml reader is lenient and accepts things like a bare ampersand.
func parseFeed(body []byte) (*gofeed.Feed, error) {
	if gofeed.DetectFeedType(bytes.NewReader(body)) != gofeed.FeedTypeJSON {
		if err := checkWellFormed(body); err != nil {
			return nil, &ParseError{Err: err}
		}
	}
	parsed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	return parsed, nil
}

// checkWellFormed runs a strict xml pass over the document
func checkWellFormed(body []byte) error {
	body = bytes.TrimLeft(bytes.TrimPrefix(body, []byte("\xef\xbb\xbf")), " \t\r\n")
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.Strict = true
	dec.Entity = xml.HTMLEntity // named html entities like &nbsp; are common in feeds
	dec.CharsetReader = charset.NewReaderLabel
	for {
		_, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// fetch retrieves the raw feed document and the response status
func (f *HTTPFetcher) fetch(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	addFeedHeaders(req, f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch URL: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, nil
}

// errorMessage converts a fetch or parse error to the message shown in the digest
func (f *HTTPFetcher) errorMessage(err error) string {
	if isTimeout(err) {
		return fmt.Sprintf("Timeout after %s", f.timeout)
	}
	var perr *ParseError
	if errors.As(err, &perr) {
		return fmt.Sprintf("Invalid feed format: %v", perr.Err)
	}
	return err.Error()
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
