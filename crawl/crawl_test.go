package crawl

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kerlann/pharmatools/fetch"
	"github.com/kerlann/pharmatools/llm"
	"github.com/kerlann/pharmatools/pipeline"
)

func TestCountryCode(t *testing.T) {
	tests := []struct {
		location string
		expected string
	}{
		{"Switzerland", "ch"},
		{"Chile", "cl"},
		{"Austria", "at"},
		{"Atlantis", "ch"},
		{"", "ch"},
	}

	for _, tt := range tests {
		if got := CountryCode(tt.location); got != tt.expected {
			t.Errorf("CountryCode(%q) = %q, want %q", tt.location, got, tt.expected)
		}
	}
}

func TestKeepURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		code string
		keep bool
	}{
		{"country TLD", "https://shop.example.ch/viagra", "ch", true},
		{"country path segment", "https://proxy.example.net/shop.ch/products", "ch", true},
		{"dot com kept", "https://globalshop.com/viagra", "ch", true},
		{"wrong country TLD", "https://shop.example.de/viagra", "ch", false},
		{"wrong path segment", "https://example.net/shop.de/products", "ch", false},
		{"chile TLD", "https://farmacia.example.cl/sildenafil", "cl", true},
		{"invalid url", "://broken", "ch", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := keepURL(tt.url, tt.code); got != tt.keep {
				t.Errorf("keepURL(%q, %q) = %v, want %v", tt.url, tt.code, got, tt.keep)
			}
		})
	}
}

func TestPassesBlacklist(t *testing.T) {
	tests := []struct {
		name    string
		content string
		pass    bool
	}{
		{"clean shop page", "Buy Sildenafil 100mg online, fast delivery", true},
		{"encyclopedia page", "According to Wikipedia, sildenafil is a medication", false},
		{"german leaflet", "Lesen Sie den Beipackzettel sorgfältig", false},
		{"french press", "Communiqué de presse du fabricant", false},
		{"italian leaflet", "Leggere il foglietto illustrativo", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := passesBlacklist(tt.content); got != tt.pass {
				t.Errorf("passesBlacklist(%q) = %v, want %v", tt.content, got, tt.pass)
			}
		})
	}
}

func TestSummarizePage(t *testing.T) {
	markdown := "# Sildenafil Express\n\nNo prescription needed.\nShips worldwide."

	name, description := summarizePage(markdown)
	if name != "Sildenafil Express" {
		t.Errorf("unexpected name %q", name)
	}
	if description != "No prescription needed. Ships worldwide." {
		t.Errorf("unexpected description %q", description)
	}
}

// fakeLLM answers the suspicion prompt with a fixed verdict.
type fakeLLM struct {
	reply string
}

func (f *fakeLLM) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return f.reply, nil
}

// crawlTestServer serves a search endpoint plus fake shop pages.
func crawlTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var ts *httptest.Server

	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"organic_results": [
			{"link": "%s/shop.ch/offer", "title": "Shop"},
			{"link": "%s/wiki.ch/article", "title": "Wiki"},
			{"link": "https://shop.example.de/offer", "title": "Wrong country"}
		]}`, ts.URL, ts.URL)
	})
	mux.HandleFunc("/shop.ch/offer", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<h1>Sildenafil Express</h1><p>No prescription needed, ships discreetly.</p>"))
	})
	mux.HandleFunc("/wiki.ch/article", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<p>According to Wikipedia this is a medication.</p>"))
	})

	ts = httptest.NewServer(mux)
	return ts
}

func TestCrawlerRun(t *testing.T) {
	ts := crawlTestServer(t)
	defer ts.Close()

	search := fetch.NewSearchClient(ts.URL+"/search", "test-key", "Switzerland")
	pages := fetch.NewPageFetcher(2*time.Second, 1, 1*1024*1024)
	classifier := llm.NewSuspiciousClassifier(&fakeLLM{reply: "1"})
	crawler := NewCrawler(search, pages, classifier, 2)

	// httptest hosts are 127.0.0.1, so the TLD rule will not match; the
	// ".ch/" path rule is what keeps the shop and wiki URLs.
	report, err := crawler.Run(context.Background(), "sildenafil kaufen", "Switzerland", 10)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.CandidateURLs != 3 {
		t.Errorf("expected 3 candidates, got %d", report.CandidateURLs)
	}
	if report.FilteredByURL != 1 {
		t.Errorf("expected 1 URL filtered (wrong country), got %d", report.FilteredByURL)
	}
	if report.FilteredByText != 1 {
		t.Errorf("expected 1 page blacklisted, got %d", report.FilteredByText)
	}
	if len(report.Offers) != 1 {
		t.Fatalf("expected 1 surviving offer, got %d", len(report.Offers))
	}

	offer := report.Offers[0]
	if offer.Name != "Sildenafil Express" {
		t.Errorf("unexpected offer name %q", offer.Name)
	}
	if !offer.Suspicious {
		t.Error("expected the offer to be marked suspicious")
	}
	if report.Suspicious != 1 {
		t.Errorf("expected 1 suspicious offer, got %d", report.Suspicious)
	}
}

func TestCrawlerRunSearchFailure(t *testing.T) {
	search := fetch.NewSearchClient("http://127.0.0.1:1/search", "test-key", "")
	pages := fetch.NewPageFetcher(time.Second, 1, 1024)
	classifier := llm.NewSuspiciousClassifier(&fakeLLM{reply: "0"})
	crawler := NewCrawler(search, pages, classifier, 1)

	_, err := crawler.Run(context.Background(), "aspirin", "Switzerland", 5)
	if !errors.Is(err, pipeline.ErrSourceUnavailable) {
		t.Errorf("expected ErrSourceUnavailable, got %v", err)
	}
}
