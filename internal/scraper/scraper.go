package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pfrederiksen/ultra-entrants/internal/entrant"
	"github.com/pfrederiksen/ultra-entrants/internal/logger"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 ultra-entrants/1.0"
	Timeout          = 30 * time.Second
	MaxRetries       = 3
)

// Scraper fetches and parses entrant lists
type Scraper struct {
	client     *http.Client
	userAgent  string
	newBackOff func() backoff.BackOff
}

// New creates a new Scraper instance. An empty user agent uses DefaultUserAgent.
func New(userAgent string) *Scraper {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Scraper{
		client: &http.Client{
			Timeout: Timeout,
		},
		userAgent: userAgent,
		newBackOff: func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), MaxRetries)
		},
	}
}

// FetchSnapshot scrapes an entrants page into a snapshot stamped with now.
// The snapshot count is the number of distinct entrants parsed.
func (s *Scraper) FetchSnapshot(ctx context.Context, url string, now time.Time) (*entrant.Snapshot, error) {
	start := time.Now()
	body, err := s.fetch(ctx, url)
	logger.RecordTiming("scrape_duration", time.Since(start))
	if err != nil {
		logger.IncrCounter("scrape_errors")
		return nil, err
	}
	defer body.Close()

	entrants, err := ParseEntrants(body)
	if err != nil {
		logger.IncrCounter("scrape_errors")
		return nil, fmt.Errorf("parsing %s: %w", url, err)
	}
	return entrant.CreateSnapshot(entrants, now.Format(time.RFC3339)), nil
}

// fetch GETs a page, retrying transport errors and 5xx responses
func (s *Scraper) fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	var body io.ReadCloser

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("creating request: %w", err))
		}
		req.Header.Set("User-Agent", s.userAgent)

		resp, err := s.client.Do(req)
		if err != nil {
			return fmt.Errorf("fetching page: %w", err)
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			body = resp.Body
			return nil
		case resp.StatusCode >= 500:
			resp.Body.Close()
			return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		default:
			resp.Body.Close()
			return backoff.Permanent(fmt.Errorf("unexpected status code: %d", resp.StatusCode))
		}
	}

	notify := func(err error, wait time.Duration) {
		logger.Warn("Retrying fetch", logger.Fields{
			"url":   url,
			"error": err.Error(),
			"wait":  wait.String(),
		})
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(s.newBackOff(), ctx), notify); err != nil {
		return nil, err
	}
	return body, nil
}
