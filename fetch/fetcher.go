// Package fetch retrieves raw documents from the web for the pipelines.
// It provides an HTTP page fetcher with a bounded retry policy and
// HTML-to-Markdown conversion, and a search-API client for URL discovery.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/kerlann/pharmatools/logging"
	"github.com/kerlann/pharmatools/metrics"
	"github.com/kerlann/pharmatools/pipeline"
)

const (
	// defaultUserAgent mimics a browser; label sites block obvious bots.
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

// RetryPolicy bounds the fetcher's retry behaviour.
type RetryPolicy struct {
	MaxAttempts       int
	InitialDelay      time.Duration
	BackoffMultiplier float64
}

// Delay returns the backoff delay before the given retry attempt (1-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	delay := float64(p.InitialDelay)
	for i := 1; i < attempt; i++ {
		delay *= p.BackoffMultiplier
	}
	return time.Duration(delay)
}

// PageFetcher fetches web pages and converts their HTML to Markdown.
type PageFetcher struct {
	client      *http.Client
	retryPolicy RetryPolicy
	maxBody     int64
	userAgent   string
}

// NewPageFetcher creates a page fetcher with the given timeout, retry budget
// and body size cap (in bytes).
func NewPageFetcher(timeout time.Duration, maxAttempts int, maxBody int64) *PageFetcher {
	return &PageFetcher{
		client: &http.Client{
			Timeout: timeout,
		},
		retryPolicy: RetryPolicy{
			MaxAttempts:       maxAttempts,
			InitialDelay:      500 * time.Millisecond,
			BackoffMultiplier: 2.0,
		},
		maxBody:   maxBody,
		userAgent: defaultUserAgent,
	}
}

// FetchPage downloads one URL and returns its content converted to Markdown.
// Transport failures after all attempts map to pipeline.ErrSourceUnavailable,
// an HTTP 404 maps to pipeline.ErrNotFound.
func (f *PageFetcher) FetchPage(ctx context.Context, url string) (string, error) {
	metrics.FetchInFlight.Inc()
	defer metrics.FetchInFlight.Dec()

	var lastErr error

	for attempt := 1; attempt <= f.retryPolicy.MaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("fetch canceled: %w", ctx.Err())
			case <-time.After(f.retryPolicy.Delay(attempt - 1)):
			}
		}

		html, err := f.fetchOnce(ctx, url)
		if err == nil {
			markdown, convErr := htmltomarkdown.ConvertString(html)
			if convErr != nil {
				return "", fmt.Errorf("failed to convert HTML to markdown: %w: %v", pipeline.ErrParseError, convErr)
			}
			return markdown, nil
		}

		// 404 is definitive, retrying will not help
		if errors.Is(err, pipeline.ErrNotFound) {
			return "", err
		}

		lastErr = err
		logging.Warn("Fetch attempt failed",
			"url", url,
			"attempt", attempt,
			"max_attempts", f.retryPolicy.MaxAttempts,
			"error", err)
	}

	return "", fmt.Errorf("all %d fetch attempts failed for %s: %w: %v",
		f.retryPolicy.MaxAttempts, url, pipeline.ErrSourceUnavailable, lastErr)
}

func (f *PageFetcher) fetchOnce(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Warn("Failed to close response body", "url", url, "error", err)
		}
	}()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%s returned 404: %w", url, pipeline.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > f.maxBody {
		return "", fmt.Errorf("response body exceeds %d bytes", f.maxBody)
	}

	return string(body), nil
}

// Fetch implements pipeline.Fetcher for a single-URL query: Query.Term holds
// the page URL.
func (f *PageFetcher) Fetch(ctx context.Context, query pipeline.Query) ([]pipeline.RawDocument, error) {
	markdown, err := f.FetchPage(ctx, query.Term)
	if err != nil {
		return nil, err
	}

	doc := pipeline.RawDocument{
		ID:        query.ID + "-page",
		QueryID:   query.ID,
		URL:       query.Term,
		Source:    pipeline.SourceWeb,
		Content:   markdown,
		FetchedAt: time.Now(),
	}
	return []pipeline.RawDocument{doc}, nil
}

// normalizeURL prepends https:// to scheme-less URLs.
func normalizeURL(url string) string {
	url = strings.TrimSpace(url)
	if url == "" {
		return url
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "https://" + url
	}
	return url
}
