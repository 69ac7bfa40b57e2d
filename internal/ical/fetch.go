package ical

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const maxFeedBytes = 10 << 20

// ErrInvalidFeedURL is returned for feed URLs that are not absolute
// http/https URLs. The check runs before any network traffic.
var ErrInvalidFeedURL = fmt.Errorf("feed url must use http or https")

// Fetcher retrieves raw iCalendar text over HTTP. Feeds are re-fetched on
// every request; there is deliberately no cache between calls.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a Fetcher with the given per-request timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
	}
}

// ValidateFeedURL checks that raw parses as an absolute http/https URL.
func ValidateFeedURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return ErrInvalidFeedURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrInvalidFeedURL
	}
	if u.Host == "" {
		return ErrInvalidFeedURL
	}
	return nil
}

// Fetch downloads the feed body. Non-2xx responses and network failures are
// surfaced as errors; parse-level problems are not this layer's concern.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) (string, error) {
	if err := ValidateFeedURL(feedURL); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Accept", "text/calendar, text/plain;q=0.9, */*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch feed: unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return "", fmt.Errorf("read feed body: %w", err)
	}
	return string(body), nil
}
