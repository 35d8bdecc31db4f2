package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/go-pkgz/lgr"
	"golang.org/x/sync/errgroup"

	"github.com/umputun/rssdigest/pkg/domain"
)

//go:generate moq -out mocks/fetcher.go -pkg mocks -skip-ensure -fmt goimports . Fetcher

// DefaultBatchSize is the default number of feeds fetched concurrently
const DefaultBatchSize = 10

// Fetcher retrieves one feed and returns its result for the day
type Fetcher interface {
	Fetch(ctx context.Context, sub domain.Subscription, day time.Time) domain.FeedResult
}

// Collector fetches many feeds with bounded concurrency
type Collector struct {
	fetcher   Fetcher
	batchSize int
}

// NewCollector makes a collector running at most batchSize fetches at once
func NewCollector(fetcher Fetcher, batchSize int) *Collector {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Collector{fetcher: fetcher, batchSize: batchSize}
}

// FetchAll fetches every subscription and returns one result per subscription, in input order.
// A failure of one fetch, including a panic, turns into an error result for that feed only.
func (c *Collector) FetchAll(ctx context.Context, subs []domain.Subscription, day time.Time) []domain.FeedResult {
	lgr.Printf("[INFO] fetching %d feeds, up to %d at once", len(subs), c.batchSize)
	results := make([]domain.FeedResult, len(subs))

	var g errgroup.Group
	g.SetLimit(c.batchSize)
	for i, sub := range subs {
		g.Go(func() error {
			results[i] = c.fetchOne(ctx, sub, day)
			return nil
		})
	}
	_ = g.Wait() // tasks never return errors

	updated, failed := 0, 0
	for _, r := range results {
		if r.HasPosts() {
			updated++
		}
		if r.Failed() {
			failed++
		}
	}
	lgr.Printf("[INFO] fetched %d feeds, %d updated, %d failed", len(results), updated, failed)
	return results
}

// fetchOne calls the fetcher, recovering from panics
func (c *Collector) fetchOne(ctx context.Context, sub domain.Subscription, day time.Time) (res domain.FeedResult) {
	defer func() {
		if r := recover(); r != nil {
			lgr.Printf("[ERROR] fetch of %s panicked: %v", sub.Title, r)
			res = domain.FailedFeedResult(sub.Title, fmt.Sprintf("%v", r))
		}
	}()

	if err := ctx.Err(); err != nil {
		return domain.FailedFeedResult(sub.Title, err.Error())
	}
	return c.fetcher.Fetch(ctx, sub, day)
}
