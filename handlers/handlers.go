// Package handlers provides the HTTP request handlers of the pharmatools
// demo API: name-confusion search against the registries, registry browsing,
// safety-profile comparison, fraud crawling and health checks, with input
// validation and consistent JSON responses.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kerlann/pharmatools/crawl"
	"github.com/kerlann/pharmatools/interfaces"
	"github.com/kerlann/pharmatools/lasa"
	"github.com/kerlann/pharmatools/llm"
	"github.com/kerlann/pharmatools/logging"
	"github.com/kerlann/pharmatools/pipeline"
	"github.com/kerlann/pharmatools/safetyprofile"
)

const registryPageSize = 25

// CrawlRunner abstracts the fraud crawler so tests can substitute it.
type CrawlRunner interface {
	Run(ctx context.Context, term, location string, limit int) (*crawl.Report, error)
}

// HTTPHandler implements the API endpoints with injected dependencies.
type HTTPHandler struct {
	dataStore interfaces.DataStore
	validator interfaces.InputValidator
	extractor pipeline.Extractor
	crawler   CrawlRunner
}

// NewHTTPHandler creates a handler with injected dependencies. extractor and
// crawler may be nil when the corresponding endpoints are not configured;
// those endpoints then answer 503.
func NewHTTPHandler(dataStore interfaces.DataStore, validator interfaces.InputValidator,
	extractor pipeline.Extractor, crawler CrawlRunner) *HTTPHandler {
	return &HTTPHandler{
		dataStore: dataStore,
		validator: validator,
		extractor: extractor,
		crawler:   crawler,
	}
}

// RespondWithJSON writes a JSON response.
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
	w.WriteHeader(code)
	w.Write(data)
}

// RespondWithError writes a JSON error response.
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, map[string]interface{}{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	})
}

// ServeMatches returns all registry products ranked by confusion risk with
// the given name. An optional ?limit= query parameter caps the list.
func (h *HTTPHandler) ServeMatches(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.validator.ValidateDrugName(name); err != nil {
		logging.Warn("Unusual user input", "name", name)
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	matches, err := lasa.Search(r.Context(), h.dataStore, name)
	if err != nil {
		if errors.Is(err, pipeline.ErrNotFound) {
			RespondWithError(w, http.StatusServiceUnavailable, "Registry data is not loaded yet")
			return
		}
		RespondWithError(w, http.StatusInternalServerError, "Match search failed")
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			RespondWithError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}
	if len(matches) > limit {
		matches = matches[:limit]
	}

	RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"query":   name,
		"matches": matches,
	})
}

// ServeFlaggedMatches returns only the matches at or above the flag threshold.
func (h *HTTPHandler) ServeFlaggedMatches(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.validator.ValidateDrugName(name); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	matches, err := lasa.Search(r.Context(), h.dataStore, name)
	if err != nil {
		if errors.Is(err, pipeline.ErrNotFound) {
			RespondWithError(w, http.StatusServiceUnavailable, "Registry data is not loaded yet")
			return
		}
		RespondWithError(w, http.StatusInternalServerError, "Match search failed")
		return
	}

	flagged := lasa.Flagged(matches)
	RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"query":     name,
		"threshold": lasa.FlagThreshold,
		"matches":   flagged,
	})
}

// ServeRegistry returns one page of a registry's products.
func (h *HTTPHandler) ServeRegistry(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	products := h.dataStore.GetProductsBySource(source)
	if len(products) == 0 {
		RespondWithError(w, http.StatusNotFound, "Unknown or empty registry source")
		return
	}

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			logging.Warn("Unusual user input", "page", raw)
			RespondWithError(w, http.StatusBadRequest, "Invalid page number")
			return
		}
		page = parsed
	}

	start := (page - 1) * registryPageSize
	if start >= len(products) {
		RespondWithError(w, http.StatusNotFound, "Page not found")
		return
	}
	end := start + registryPageSize
	if end > len(products) {
		end = len(products)
	}

	totalItems := len(products)
	maxPage := (totalItems + registryPageSize - 1) / registryPageSize

	RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"data":       products[start:end],
		"page":       page,
		"pageSize":   registryPageSize,
		"totalItems": totalItems,
		"maxPage":    maxPage,
	})
}

// SearchRegistry searches a registry's products by name substring.
func (h *HTTPHandler) SearchRegistry(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	name := chi.URLParam(r, "name")
	if err := h.validator.ValidateInput(name); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	products := h.dataStore.GetProductsBySource(source)
	if len(products) == 0 {
		RespondWithError(w, http.StatusNotFound, "Unknown or empty registry source")
		return
	}

	needle := strings.ToLower(name)
	results := products[:0:0]
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			results = append(results, p)
		}
	}

	// Always 200 with a results array, empty if nothing matched
	RespondWithJSON(w, http.StatusOK, results)
}

// CompareRequest is the body of POST /compare: one label text per side.
type CompareRequest struct {
	Drug  string      `json:"drug"`
	Left  LabelSource `json:"left"`
	Right LabelSource `json:"right"`
}

// LabelSource names a market and carries its label text.
type LabelSource struct {
	Market string `json:"market"`
	Text   string `json:"text"`
}

// CompareLabels extracts adverse events from two label texts, builds their
// safety profiles and returns the diff with a rendered markdown report.
func (h *HTTPHandler) CompareLabels(w http.ResponseWriter, r *http.Request) {
	if h.extractor == nil {
		RespondWithError(w, http.StatusServiceUnavailable, "Comparison backend is not configured")
		return
	}

	var req CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Left.Text) == "" || strings.TrimSpace(req.Right.Text) == "" {
		RespondWithError(w, http.StatusBadRequest, "Both label texts are required")
		return
	}
	if req.Left.Market == "" {
		req.Left.Market = "left"
	}
	if req.Right.Market == "" {
		req.Right.Market = "right"
	}

	query := pipeline.NewQuery(req.Drug, "")

	leftProfile, err := h.buildProfile(r.Context(), query.ID, req.Left)
	if err != nil {
		h.respondCompareError(w, req.Left.Market, err)
		return
	}
	rightProfile, err := h.buildProfile(r.Context(), query.ID, req.Right)
	if err != nil {
		h.respondCompareError(w, req.Right.Market, err)
		return
	}

	diff, err := safetyprofile.CompareProfiles(leftProfile, rightProfile)
	if err != nil {
		RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"drug":         req.Drug,
		"similarity":   diff.Similarity,
		"left":         profilePayload(diff.Left),
		"right":        profilePayload(diff.Right),
		"unique_left":  diff.UniqueLeft,
		"unique_right": diff.UniqueRight,
		"report":       safetyprofile.RenderReport(diff),
	})
}

func (h *HTTPHandler) buildProfile(ctx context.Context, queryID string, src LabelSource) (*safetyprofile.Profile, error) {
	doc := llm.LabelDocument(queryID, src.Market, src.Text)
	records, err := h.extractor.Extract(ctx, doc)
	if err != nil {
		return nil, err
	}
	return safetyprofile.BuildProfile(src.Market, records)
}

func (h *HTTPHandler) respondCompareError(w http.ResponseWriter, market string, err error) {
	logging.Error("Label comparison failed", "market", market, "error", err)
	switch {
	case errors.Is(err, pipeline.ErrParseError):
		RespondWithError(w, http.StatusUnprocessableEntity,
			fmt.Sprintf("Could not parse adverse events for %s", market))
	case errors.Is(err, pipeline.ErrSourceUnavailable):
		RespondWithError(w, http.StatusBadGateway,
			fmt.Sprintf("Extraction backend unavailable for %s", market))
	default:
		RespondWithError(w, http.StatusInternalServerError, "Comparison failed")
	}
}

func profilePayload(p *safetyprofile.Profile) map[string]interface{} {
	return map[string]interface{}{
		"label":   p.Label,
		"terms":   p.TermCount(),
		"buckets": p.Buckets,
		"scores":  p.Scores,
	}
}

// CrawlRequest is the body of POST /crawl.
type CrawlRequest struct {
	Query    string `json:"query"`
	Location string `json:"location"`
	Limit    int    `json:"limit"`
}

// RunCrawl executes a fraud crawl for a search query.
func (h *HTTPHandler) RunCrawl(w http.ResponseWriter, r *http.Request) {
	if h.crawler == nil {
		RespondWithError(w, http.StatusServiceUnavailable, "Crawler backend is not configured")
		return
	}

	var req CrawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := h.validator.ValidateInput(req.Query); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 10
	}
	if req.Location == "" {
		req.Location = "Switzerland"
	}

	report, err := h.crawler.Run(r.Context(), req.Query, req.Location, req.Limit)
	if err != nil {
		logging.Error("Crawl run failed", "query", req.Query, "error", err)
		if errors.Is(err, pipeline.ErrSourceUnavailable) {
			RespondWithError(w, http.StatusBadGateway, "Search backend unavailable")
			return
		}
		RespondWithError(w, http.StatusInternalServerError, "Crawl failed")
		return
	}

	RespondWithJSON(w, http.StatusOK, report)
}
