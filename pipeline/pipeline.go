package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/kerlann/pharmatools/logging"
	"github.com/kerlann/pharmatools/metrics"
)

// Fetcher retrieves zero or more RawDocuments for a Query. Implementations
// fail with ErrSourceUnavailable on network/API failure and ErrNotFound when
// no matching source exists. Failures are terminal for the query; retrying is
// the caller's decision.
type Fetcher interface {
	Fetch(ctx context.Context, query Query) ([]RawDocument, error)
}

// Extractor parses a RawDocument into zero or more Records. Implementations
// fail with ErrParseError when structure cannot be recovered.
type Extractor interface {
	Extract(ctx context.Context, doc RawDocument) ([]Record, error)
}

// Comparator compares two record sets of compatible schema into a
// ComparisonResult. Scores must be symmetric and bounded in [0,1].
// Incompatible inputs fail with ErrIncompatibleSchema.
type Comparator interface {
	Compare(a, b RecordSet) (ComparisonResult, error)
}

// Pipeline wires one or more fetchers, an extractor and a comparator into a
// single linear run. Fetchers run concurrently; extraction and comparison
// follow strictly afterward.
type Pipeline struct {
	name       string
	fetchers   []Fetcher
	extractor  Extractor
	comparator Comparator
	splitter   func([]Record) (RecordSet, RecordSet, error)
}

// New creates a pipeline. The splitter partitions extracted records into the
// two record sets handed to the comparator; tools with a natural two-sided
// shape (two markets, reference vs registry) provide their own.
func New(name string, fetchers []Fetcher, extractor Extractor, comparator Comparator,
	splitter func([]Record) (RecordSet, RecordSet, error)) *Pipeline {
	return &Pipeline{
		name:       name,
		fetchers:   fetchers,
		extractor:  extractor,
		comparator: comparator,
		splitter:   splitter,
	}
}

// RunResult captures the outcome of a single pipeline invocation. On failure,
// FailedStage is set and the partial documents/records stay available for
// diagnosis, but Result is nil.
type RunResult struct {
	Query       Query             `json:"query"`
	Documents   []RawDocument     `json:"documents,omitempty"`
	Records     []Record          `json:"records,omitempty"`
	Result      *ComparisonResult `json:"result,omitempty"`
	FailedStage Stage             `json:"failed_stage,omitempty"`
	Duration    time.Duration     `json:"duration"`
}

// Run executes fetch, extract and compare for a single query. Fetchers run
// concurrently and their ordering is irrelevant; any fetch or extract failure
// aborts the run.
func (p *Pipeline) Run(ctx context.Context, query Query) (*RunResult, error) {
	start := time.Now()
	result := &RunResult{Query: query}

	docs, err := p.fetchAll(ctx, query)
	if err != nil {
		result.FailedStage = StageFetch
		result.Duration = time.Since(start)
		metrics.PipelineRunsTotal.WithLabelValues(p.name, "failed").Inc()
		return result, NewStageError(StageFetch, query, err)
	}
	result.Documents = docs

	records, err := p.extractAll(ctx, docs)
	if err != nil {
		result.FailedStage = StageExtract
		result.Duration = time.Since(start)
		metrics.PipelineRunsTotal.WithLabelValues(p.name, "failed").Inc()
		return result, NewStageError(StageExtract, query, err)
	}
	result.Records = records

	setA, setB, err := p.splitter(records)
	if err != nil {
		result.FailedStage = StageCompare
		result.Duration = time.Since(start)
		metrics.PipelineRunsTotal.WithLabelValues(p.name, "failed").Inc()
		return result, NewStageError(StageCompare, query, err)
	}

	comparison, err := p.comparator.Compare(setA, setB)
	if err != nil {
		result.FailedStage = StageCompare
		result.Duration = time.Since(start)
		metrics.PipelineRunsTotal.WithLabelValues(p.name, "failed").Inc()
		return result, NewStageError(StageCompare, query, err)
	}

	result.Result = &comparison
	result.Duration = time.Since(start)
	metrics.PipelineRunsTotal.WithLabelValues(p.name, "ok").Inc()
	metrics.PipelineStageDuration.WithLabelValues(p.name, "total").Observe(result.Duration.Seconds())

	logging.Info("Pipeline run completed",
		"pipeline", p.name,
		"query", query.Term,
		"documents", len(docs),
		"records", len(records),
		"score", comparison.Score,
		"duration", result.Duration.String())

	return result, nil
}

// fetchAll runs every fetcher concurrently and merges their documents. A
// single failing fetcher fails the whole stage.
func (p *Pipeline) fetchAll(ctx context.Context, query Query) ([]RawDocument, error) {
	stageStart := time.Now()
	defer func() {
		metrics.PipelineStageDuration.WithLabelValues(p.name, string(StageFetch)).Observe(time.Since(stageStart).Seconds())
	}()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		docs []RawDocument
		errs []error
	)

	for _, f := range p.fetchers {
		wg.Add(1)
		go func(f Fetcher) {
			defer wg.Done()
			fetched, err := f.Fetch(ctx, query)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			docs = append(docs, fetched...)
		}(f)
	}
	wg.Wait()

	if len(errs) > 0 {
		logging.Error("Fetch stage errors", "pipeline", p.name, "query", query.Term, "errors", errs)
		return nil, errs[0]
	}
	return docs, nil
}

func (p *Pipeline) extractAll(ctx context.Context, docs []RawDocument) ([]Record, error) {
	stageStart := time.Now()
	defer func() {
		metrics.PipelineStageDuration.WithLabelValues(p.name, string(StageExtract)).Observe(time.Since(stageStart).Seconds())
	}()

	var records []Record
	for _, doc := range docs {
		extracted, err := p.extractor.Extract(ctx, doc)
		if err != nil {
			return nil, err
		}
		records = append(records, extracted...)
	}
	return records, nil
}
