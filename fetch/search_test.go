package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kerlann/pharmatools/pipeline"
)

func TestSearchReturnsOrganicURLs(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "sildenafil kaufen" {
			t.Errorf("expected query forwarded, got %q", got)
		}
		if got := r.URL.Query().Get("api_key"); got != "test-key" {
			t.Errorf("expected api key forwarded, got %q", got)
		}
		if got := r.URL.Query().Get("location"); got != "Switzerland" {
			t.Errorf("expected location forwarded, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"organic_results": [
			{"link": "https://shop.example.ch/sildenafil", "title": "Shop"},
			{"link": "example.com/pills", "title": "Pills"},
			{"link": "", "title": "No link"}
		]}`)
	}))
	defer ts.Close()

	client := NewSearchClient(ts.URL, "test-key", "Switzerland")
	urls, err := client.Search(context.Background(), "sildenafil kaufen", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(urls) != 2 {
		t.Fatalf("expected 2 URLs (empty link skipped), got %d", len(urls))
	}
	if urls[0] != "https://shop.example.ch/sildenafil" {
		t.Errorf("unexpected first URL: %s", urls[0])
	}
	// Scheme-less links are normalized
	if urls[1] != "https://example.com/pills" {
		t.Errorf("expected normalized URL, got %s", urls[1])
	}
}

func TestSearchMissingAPIKey(t *testing.T) {
	client := NewSearchClient("https://example.com", "", "")

	_, err := client.Search(context.Background(), "aspirin", 5)
	if !errors.Is(err, pipeline.ErrSourceUnavailable) {
		t.Errorf("expected ErrSourceUnavailable without an API key, got %v", err)
	}
}

func TestSearchUpstreamError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	client := NewSearchClient(ts.URL, "test-key", "")
	_, err := client.Search(context.Background(), "aspirin", 5)
	if !errors.Is(err, pipeline.ErrSourceUnavailable) {
		t.Errorf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestSearchMalformedResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "not json at all")
	}))
	defer ts.Close()

	client := NewSearchClient(ts.URL, "test-key", "")
	_, err := client.Search(context.Background(), "aspirin", 5)
	if err == nil {
		t.Fatal("expected an error for a malformed response")
	}
}

func TestCheckLimit(t *testing.T) {
	urls := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		urls = append(urls, fmt.Sprintf("https://example.com/%d", i))
	}

	if got := checkLimit(urls, "term", 5); len(got) != 5 {
		t.Errorf("expected list trimmed to 5, got %d", len(got))
	}
	if got := checkLimit(urls, "term", 20); len(got) != 10 {
		t.Errorf("expected list untouched, got %d", len(got))
	}
}

func TestSearchFetchProducesDocuments(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"organic_results": [{"link": "https://a.example.ch", "title": "A"}]}`)
	}))
	defer ts.Close()

	var f pipeline.Fetcher = NewSearchClient(ts.URL, "test-key", "")
	docs, err := f.Fetch(context.Background(), pipeline.Query{ID: "q1", Term: "aspirin", Limit: 5})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	if docs[0].Source != pipeline.SourceSearch {
		t.Errorf("expected search source, got %q", docs[0].Source)
	}
	if docs[0].Content != "https://a.example.ch" {
		t.Errorf("expected URL as content, got %q", docs[0].Content)
	}
}

func TestSearchFetchNoResults(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"organic_results": []}`)
	}))
	defer ts.Close()

	var f pipeline.Fetcher = NewSearchClient(ts.URL, "test-key", "")
	_, err := f.Fetch(context.Background(), pipeline.Query{ID: "q1", Term: "aspirin"})
	if !errors.Is(err, pipeline.ErrNotFound) {
		t.Errorf("expected ErrNotFound for empty results, got %v", err)
	}
}
