package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/pressclip/internal/config"
	"github.com/IshaanNene/pressclip/internal/fetcher"
	"github.com/IshaanNene/pressclip/internal/observability"
	"github.com/IshaanNene/pressclip/internal/parser"
	"github.com/IshaanNene/pressclip/internal/pipeline"
	"github.com/IshaanNene/pressclip/internal/storage"
	"github.com/IshaanNene/pressclip/internal/types"
)

// State represents the engine's current lifecycle state.
type State int32

const (
	StateIdle    State = 0
	StateRunning State = 1
	StateClosed  State = 2
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Engine runs one listing scrape: discover, enrich, clean, store.
type Engine struct {
	cfg      *config.Config
	fetcher  fetcher.Fetcher
	storage  storage.Storage
	dates    *parser.DateDetector
	enricher *Enricher
	metrics  *observability.Metrics
	now      func() time.Time
	state    atomic.Int32
	logger   *slog.Logger
}

// New creates an Engine. The engine owns f and st and closes them in Close.
func New(cfg *config.Config, f fetcher.Fetcher, st storage.Storage, metrics *observability.Metrics, logger *slog.Logger) (*Engine, error) {
	dates, err := parser.NewDateDetector(cfg.Heuristics.DatePattern)
	if err != nil {
		return nil, fmt.Errorf("date pattern: %w", err)
	}
	if metrics == nil {
		metrics = observability.NewMetrics(logger)
	}

	detail := parser.NewDetailExtractor(cfg.Source.BaseOrigin, cfg.Enrich, logger)

	return &Engine{
		cfg:      cfg,
		fetcher:  f,
		storage:  st,
		dates:    dates,
		enricher: NewEnricher(f, detail, metrics, logger),
		metrics:  metrics,
		now:      time.Now,
		logger:   logger.With("component", "engine"),
	}, nil
}

// SetClock overrides the clock used for the run timestamp and the default
// release years.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Metrics returns the engine's counters.
func (e *Engine) Metrics() *observability.Metrics {
	return e.metrics
}

// GetState returns the current engine state.
func (e *Engine) GetState() State {
	return State(e.state.Load())
}

// Run fetches the listing page, builds the run result and stores it. A
// listing fetch failure is returned as-is; detail failures only empty the
// affected article's image and description.
func (e *Engine) Run(ctx context.Context) (result *types.RunResult, err error) {
	if !e.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return nil, fmt.Errorf("engine is %s, cannot run", e.GetState())
	}
	defer e.state.CompareAndSwap(int32(StateRunning), int32(StateIdle))

	start := e.now()
	defer func() {
		e.metrics.MarkRun(e.now(), err == nil)
	}()

	listingURL := e.cfg.Source.ListingURL()
	e.logger.Info("run starting", "listing", listingURL, "fetcher", e.fetcher.Type())

	doc, err := e.fetchListing(ctx, listingURL)
	if err != nil {
		return nil, err
	}

	opts := parser.OptionsFromConfig(e.cfg, start)
	listing := parser.NewListingExtractor(opts, e.dates, e.logger)
	candidates := listing.Extract(doc, e.cfg.Heuristics.MaxResults)
	e.countCandidates(candidates)

	if len(candidates) == 0 {
		e.logger.Warn("no candidates found on listing page", "url", listingURL)
	}

	articles, err := e.buildArticles(ctx, candidates)
	if err != nil {
		return nil, err
	}

	result = types.NewRunResult(e.cfg.Source.Label, start, articles)
	if err := e.storage.Store(result); err != nil {
		return nil, err
	}
	e.metrics.ArticlesStored.Add(int64(len(result.Articles)))

	e.logger.Info("run complete",
		"articles", len(result.Articles),
		"candidates", len(candidates),
		"storage", e.storage.Name(),
		"elapsed", e.now().Sub(start),
	)
	return result, nil
}

func (e *Engine) fetchListing(ctx context.Context, listingURL string) (*goquery.Document, error) {
	req, err := types.NewRequest(listingURL)
	if err != nil {
		return nil, &types.FetchError{URL: listingURL, Err: err}
	}
	req.Tag = types.TagListing

	e.metrics.ListingFetches.Add(1)
	resp, err := e.fetcher.Fetch(ctx, req)
	if err != nil {
		var fe *types.FetchError
		if !errors.As(err, &fe) {
			err = &types.FetchError{URL: listingURL, Err: err}
		}
		return nil, err
	}
	e.metrics.BytesFetched.Add(int64(len(resp.Body)))

	return resp.Document()
}

// buildArticles enriches candidates one at a time, in discovery order.
func (e *Engine) buildArticles(ctx context.Context, candidates []types.Candidate) ([]*types.Article, error) {
	p := pipeline.NewStandard(e.cfg.Enrich, e.logger)
	articles := make([]*types.Article, 0, len(candidates))

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		detail, err := e.enricher.Enrich(ctx, c.URL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			e.metrics.DetailFailures.Add(1)
			e.logger.Warn("detail enrichment failed", "url", c.URL, "error", err)
		}

		article, err := p.Process(types.NewArticle(c, detail))
		if err != nil {
			e.metrics.ArticlesDropped.Add(1)
			e.logger.Warn("article rejected", "url", c.URL, "error", err)
			continue
		}
		if article == nil {
			e.metrics.ArticlesDropped.Add(1)
			e.logger.Debug("article dropped", "url", c.URL)
			continue
		}
		articles = append(articles, article)
	}

	return articles, nil
}

func (e *Engine) countCandidates(candidates []types.Candidate) {
	for _, c := range candidates {
		switch c.Pass {
		case types.PassAssociation:
			e.metrics.CandidatesAssociated.Add(1)
		case types.PassFallback:
			e.metrics.CandidatesFallback.Add(1)
		}
	}
}

// Close releases the fetcher and storage.
func (e *Engine) Close() error {
	e.state.Store(int32(StateClosed))
	return errors.Join(e.fetcher.Close(), e.storage.Close())
}
