// Package service ties subscriptions, feed collection, rendering and delivery into a single digest run
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/rssdigest/pkg/digest"
	"github.com/umputun/rssdigest/pkg/domain"
)

//go:generate moq -out mocks/source.go -pkg mocks -skip-ensure -fmt goimports . Source
//go:generate moq -out mocks/collector.go -pkg mocks -skip-ensure -fmt goimports . Collector
//go:generate moq -out mocks/sender.go -pkg mocks -skip-ensure -fmt goimports . Sender

// ErrNoSender is returned by Run when the service was created without a sender
var ErrNoSender = errors.New("no sender configured")

// Source provides the list of subscriptions
type Source interface {
	Subscriptions() ([]domain.Subscription, error)
}

// Collector fetches all subscriptions for the given day, one result per subscription
type Collector interface {
	FetchAll(ctx context.Context, subs []domain.Subscription, day time.Time) []domain.FeedResult
}

// Sender delivers a rendered digest
type Sender interface {
	Send(ctx context.Context, d domain.Digest) error
}

// DigestService runs the daily digest pipeline
type DigestService struct {
	source    Source
	collector Collector
	sender    Sender
	now       func() time.Time
}

// NewDigestService creates a service. Sender can be nil for build-only use (preview, dry run).
func NewDigestService(source Source, collector Collector, sender Sender) *DigestService {
	return &DigestService{source: source, collector: collector, sender: sender, now: time.Now}
}

// Day returns the calendar day the digest covers, yesterday in UTC
func (s *DigestService) Day() time.Time {
	return domain.Yesterday(s.now())
}

// Build loads subscriptions, fetches them and renders the digest for day
func (s *DigestService) Build(ctx context.Context, day time.Time) (domain.Digest, []domain.FeedResult, error) {
	subs, err := s.source.Subscriptions()
	if err != nil {
		return domain.Digest{}, nil, fmt.Errorf("load subscriptions: %w", err)
	}
	lgr.Printf("[INFO] building digest for %s from %d subscriptions", day.Format(time.DateOnly), len(subs))

	results := s.collector.FetchAll(ctx, subs, day)
	d, err := digest.Build(results, day)
	if err != nil {
		return domain.Digest{}, results, fmt.Errorf("render digest: %w", err)
	}
	return d, results, nil
}

// Run builds yesterday's digest and sends it
func (s *DigestService) Run(ctx context.Context) error {
	if s.sender == nil {
		return ErrNoSender
	}

	d, _, err := s.Build(ctx, s.Day())
	if err != nil {
		return err
	}

	st := time.Now()
	if err := s.sender.Send(ctx, d); err != nil {
		return fmt.Errorf("send digest: %w", err)
	}
	lgr.Printf("[INFO] digest %q sent in %v", d.Subject, time.Since(st).Round(time.Millisecond))
	return nil
}
