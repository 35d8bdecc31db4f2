package domain

import "time"

// Subscription is a single feed listed in the subscription file
type Subscription struct {
	Title string
	URL   string
}

// Post represents a qualifying feed entry
type Post struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Excerpt string `json:"excerpt"`
}

// Status is the outcome of fetching one feed
type Status string

// enum of feed statuses
const (
	StatusSuccess   Status = "success"
	StatusNoUpdates Status = "no_updates"
	StatusError     Status = "error"
)

// FeedResult is the per-feed outcome of a run.
// Use NewFeedResult and FailedFeedResult to construct it, they keep
// Status consistent with Posts and Error.
type FeedResult struct {
	Name    string `json:"name"`
	Status  Status `json:"status"`
	Posts   []Post `json:"posts"`
	SiteURL string `json:"site_url,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewFeedResult makes a success result if posts is not empty, no-updates otherwise
func NewFeedResult(name, siteURL string, posts []Post) FeedResult {
	if len(posts) == 0 {
		return FeedResult{Name: name, Status: StatusNoUpdates, Posts: []Post{}, SiteURL: siteURL}
	}
	return FeedResult{Name: name, Status: StatusSuccess, Posts: posts, SiteURL: siteURL}
}

// FailedFeedResult makes an error result with the given message
func FailedFeedResult(name, errMsg string) FeedResult {
	return FeedResult{Name: name, Status: StatusError, Posts: []Post{}, Error: errMsg}
}

// HasPosts reports whether the feed had any posts for the day
func (r FeedResult) HasPosts() bool {
	return len(r.Posts) > 0
}

// Failed reports whether the feed failed to load
func (r FeedResult) Failed() bool {
	return r.Status == StatusError
}

// Digest is the rendered daily digest
type Digest struct {
	Day     time.Time
	Subject string
	Text    string
	HTML    string
}

// Yesterday returns the UTC calendar day before now, at midnight UTC.
// It is computed once per run and passed to both the filter and the renderer.
func Yesterday(now time.Time) time.Time {
	y, m, d := now.UTC().AddDate(0, 0, -1).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether t falls on day's UTC calendar date
func SameDay(t, day time.Time) bool {
	ty, tm, td := t.UTC().Date()
	dy, dm, dd := day.UTC().Date()
	return ty == dy && tm == dm && td == dd
}
