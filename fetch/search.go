package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kerlann/pharmatools/logging"
	"github.com/kerlann/pharmatools/pipeline"
)

const (
	// urlLimit caps how many result URLs a single search may hand to the
	// downstream fetch fan-out.
	urlLimit = 200

	searchTimeout = 10 * time.Second
)

// SearchClient queries a SERP-style search API and returns the organic
// result URLs for a search term.
type SearchClient struct {
	endpoint string
	apiKey   string
	location string
	client   *http.Client
}

// NewSearchClient creates a search client for the given API endpoint.
func NewSearchClient(endpoint, apiKey, location string) *SearchClient {
	return &SearchClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		location: location,
		client: &http.Client{
			Timeout: searchTimeout,
		},
	}
}

// searchResponse models the part of the search API response we consume.
type searchResponse struct {
	OrganicResults []struct {
		Link  string `json:"link"`
		Title string `json:"title"`
	} `json:"organic_results"`
}

// Search performs a search and returns the organic result URLs, trimmed to
// numResults and capped at the URL limit.
func (s *SearchClient) Search(ctx context.Context, term string, numResults int) ([]string, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("search API key is not set: %w", pipeline.ErrSourceUnavailable)
	}

	params := url.Values{}
	params.Set("engine", "google")
	params.Set("api_key", s.apiKey)
	params.Set("q", term)
	params.Set("num", fmt.Sprintf("%d", numResults))
	if s.location != "" {
		params.Set("location", s.location)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w: %v", pipeline.ErrSourceUnavailable, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Warn("Failed to close search response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search API returned status %d: %w", resp.StatusCode, pipeline.ErrSourceUnavailable)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w: %v", pipeline.ErrParseError, err)
	}

	urls := make([]string, 0, len(parsed.OrganicResults))
	for _, result := range parsed.OrganicResults {
		if result.Link != "" {
			urls = append(urls, normalizeURL(result.Link))
		}
	}

	urls = checkLimit(urls, term, urlLimit)
	logging.Info("Search completed", "term", term, "urls", len(urls))

	return urls, nil
}

// checkLimit trims the URL list when it exceeds the limit.
func checkLimit(urls []string, term string, limit int) []string {
	if len(urls) > limit {
		logging.Warn("Reached URL limit for search term", "term", term, "limit", limit)
		return urls[:limit]
	}
	return urls
}

// Fetch implements pipeline.Fetcher: the query term is searched and each
// result URL becomes a RawDocument holding the URL as content, for the crawl
// pipeline to expand.
func (s *SearchClient) Fetch(ctx context.Context, query pipeline.Query) ([]pipeline.RawDocument, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = 10
	}

	urls, err := s.Search(ctx, query.Term, limit)
	if err != nil {
		return nil, err
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("no search results for %q: %w", query.Term, pipeline.ErrNotFound)
	}

	docs := make([]pipeline.RawDocument, 0, len(urls))
	now := time.Now()
	for i, u := range urls {
		docs = append(docs, pipeline.RawDocument{
			ID:        fmt.Sprintf("%s-search-%d", query.ID, i),
			QueryID:   query.ID,
			URL:       u,
			Source:    pipeline.SourceSearch,
			Content:   u,
			FetchedAt: now,
		})
	}
	return docs, nil
}
