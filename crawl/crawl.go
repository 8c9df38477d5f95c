// Package crawl runs the fraud-detection crawl: a search fan-out over shop
// candidates, a country filter, a content blacklist and a final suspicion
// classification of the surviving offers.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kerlann/pharmatools/fetch"
	"github.com/kerlann/pharmatools/llm"
	"github.com/kerlann/pharmatools/logging"
	"github.com/kerlann/pharmatools/pipeline"
)

const (
	// defaultWorkers bounds the concurrent page fetches of one crawl run.
	defaultWorkers = 5

	// descriptionLimit caps how much page text is handed to the classifier.
	descriptionLimit = 2000
)

// Offer is one crawled product candidate.
type Offer struct {
	URL         string `json:"url"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Suspicious  bool   `json:"suspicious"`
}

// Report summarizes one crawl run.
type Report struct {
	Query          string        `json:"query"`
	Location       string        `json:"location"`
	CountryCode    string        `json:"country_code"`
	CandidateURLs  int           `json:"candidate_urls"`
	FilteredByURL  int           `json:"filtered_by_url"`
	FilteredByText int           `json:"filtered_by_text"`
	FetchFailures  int           `json:"fetch_failures"`
	Offers         []Offer       `json:"offers"`
	Suspicious     int           `json:"suspicious"`
	Duration       time.Duration `json:"duration_ms"`
}

// Crawler wires the search client, page fetcher and classifier into one run.
type Crawler struct {
	search     *fetch.SearchClient
	pages      *fetch.PageFetcher
	classifier *llm.SuspiciousClassifier
	workers    int
}

// NewCrawler creates a crawler. workers <= 0 selects the default fan-out.
func NewCrawler(search *fetch.SearchClient, pages *fetch.PageFetcher, classifier *llm.SuspiciousClassifier, workers int) *Crawler {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Crawler{
		search:     search,
		pages:      pages,
		classifier: classifier,
		workers:    workers,
	}
}

// Run executes a crawl for the query term in the given location. Individual
// page failures are counted, not fatal; a failed search fails the run.
func (c *Crawler) Run(ctx context.Context, term, location string, limit int) (*Report, error) {
	start := time.Now()
	code := CountryCode(location)

	urls, err := c.search.Search(ctx, term, limit)
	if err != nil {
		return nil, fmt.Errorf("crawl search failed: %w", err)
	}

	report := &Report{
		Query:         term,
		Location:      location,
		CountryCode:   code,
		CandidateURLs: len(urls),
	}

	kept := make([]string, 0, len(urls))
	for _, u := range urls {
		if keepURL(u, code) {
			kept = append(kept, u)
		} else {
			report.FilteredByURL++
		}
	}

	offers, fetchFailures, textFiltered := c.fetchAndFilter(ctx, kept)
	report.FetchFailures = fetchFailures
	report.FilteredByText = textFiltered

	for i := range offers {
		suspicious, err := c.classifier.Classify(ctx, offers[i].Name, offers[i].Description)
		if err != nil {
			logging.Warn("Suspicion classification failed", "url", offers[i].URL, "error", err)
			continue
		}
		offers[i].Suspicious = suspicious
		if suspicious {
			report.Suspicious++
		}
	}

	report.Offers = offers
	report.Duration = time.Since(start)

	logging.Info("Crawl run finished",
		"query", term,
		"location", location,
		"candidates", report.CandidateURLs,
		"offers", len(report.Offers),
		"suspicious", report.Suspicious,
		"duration_ms", report.Duration.Milliseconds())

	return report, nil
}

// fetchAndFilter fans page fetches out over the worker pool and applies the
// content blacklist to each fetched page.
func (c *Crawler) fetchAndFilter(ctx context.Context, urls []string) (offers []Offer, fetchFailures, textFiltered int) {
	type pageResult struct {
		offer    Offer
		failed   bool
		filtered bool
	}

	jobs := make(chan string)
	results := make(chan pageResult)

	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for u := range jobs {
				markdown, err := c.pages.FetchPage(ctx, u)
				if err != nil {
					if !errors.Is(err, pipeline.ErrNotFound) {
						logging.Warn("Crawl page fetch failed", "url", u, "error", err)
					}
					results <- pageResult{failed: true}
					continue
				}
				if !passesBlacklist(markdown) {
					results <- pageResult{filtered: true}
					continue
				}
				name, description := summarizePage(markdown)
				results <- pageResult{offer: Offer{
					URL:         u,
					Name:        name,
					Description: description,
				}}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, u := range urls {
			select {
			case jobs <- u:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for result := range results {
		switch {
		case result.failed:
			fetchFailures++
		case result.filtered:
			textFiltered++
		default:
			offers = append(offers, result.offer)
		}
	}
	return offers, fetchFailures, textFiltered
}

// summarizePage derives an offer name and description from page markdown:
// the first heading becomes the name, the remaining text the description.
func summarizePage(markdown string) (name, description string) {
	var bodyLines []string
	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if name == "" && strings.HasPrefix(trimmed, "#") {
			name = strings.TrimSpace(strings.TrimLeft(trimmed, "# "))
			continue
		}
		bodyLines = append(bodyLines, trimmed)
	}

	description = strings.Join(bodyLines, " ")
	if len(description) > descriptionLimit {
		description = description[:descriptionLimit]
	}
	return name, description
}
