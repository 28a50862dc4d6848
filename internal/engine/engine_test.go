package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/IshaanNene/pressclip/internal/config"
	"github.com/IshaanNene/pressclip/internal/fetcher"
	"github.com/IshaanNene/pressclip/internal/observability"
	"github.com/IshaanNene/pressclip/internal/parser"
	"github.com/IshaanNene/pressclip/internal/storage"
	"github.com/IshaanNene/pressclip/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

const listingPage = `<html><body>
<div class="item"><span>January 15, 2025</span><a href="/releases/2025/alpha-launch.html">Toyota Launches Alpha Model</a></div>
<div class="item"><span>Feb 2, 2025</span><a href="/releases/2025/beta-results.html">Beta Sales Results Announced</a></div>
<section><div><ul><li><a href="/releases/2024/gamma-plant.html">Gamma Plant Expansion</a></li></ul></div></section>
</body></html>`

const alphaPage = `<html><head>
<meta property="og:image" content="https://cdn.example.com/alpha.jpg">
</head><body><article>
<p>Short intro.</p>
<p>Toyota today unveiled the Alpha, a compact crossover built for Canadian winters and city streets.</p>
</article></body></html>`

const gammaPage = `<html><body><div class="release">
<img src="/img/gamma.jpg">
<p>Gamma plant grows.</p>
</div></body></html>`

type fixture struct {
	srv      *httptest.Server
	listing  string
	status   int
	requests atomic.Int32
}

func newFixture(t *testing.T, listing string, status int) *fixture {
	t.Helper()
	f := &fixture{listing: listing, status: status}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		switch r.URL.Path {
		case "/en/news.html":
			if f.status != 0 {
				http.Error(w, "unavailable", f.status)
				return
			}
			fmt.Fprint(w, f.listing)
		case "/releases/2025/alpha-launch.html":
			fmt.Fprint(w, alphaPage)
		case "/releases/2024/gamma-plant.html":
			fmt.Fprint(w, gammaPage)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func testConfig(baseOrigin, output string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Source.Label = "Test Media"
	cfg.Source.BaseOrigin = baseOrigin
	cfg.Source.ListingPath = "/en/news.html"
	cfg.Fetcher.RequestTimeout = 5 * time.Second
	cfg.Storage.OutputPath = output
	return cfg
}

func newTestEngine(t *testing.T, cfg *config.Config, st storage.Storage) *Engine {
	t.Helper()
	f, err := fetcher.NewHTTPFetcher(cfg, testLogger)
	if err != nil {
		t.Fatal(err)
	}
	if st == nil {
		st = storage.NewJSONStorage(cfg.Storage.OutputPath, testLogger)
	}
	e, err := New(cfg, f, st, observability.NewMetrics(testLogger), testLogger)
	if err != nil {
		t.Fatal(err)
	}
	e.SetClock(func() time.Time { return testNow })
	t.Cleanup(func() { e.Close() })
	return e
}

func TestRunEndToEnd(t *testing.T) {
	fx := newFixture(t, listingPage, 0)
	out := filepath.Join(t.TempDir(), "powerbi", "news.json")
	e := newTestEngine(t, testConfig(fx.srv.URL, out), nil)

	result, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Source != "Test Media" {
		t.Errorf("unexpected source %q", result.Source)
	}
	if result.FetchedAt != "2025-06-01T12:00:00Z" {
		t.Errorf("unexpected fetched_at %q", result.FetchedAt)
	}
	if len(result.Articles) != 3 {
		t.Fatalf("expected 3 articles, got %d", len(result.Articles))
	}

	alpha, beta, gamma := result.Articles[0], result.Articles[1], result.Articles[2]

	if alpha.Date != "JANUARY 15, 2025" || alpha.Title != "Toyota Launches Alpha Model" {
		t.Errorf("unexpected alpha: %+v", alpha)
	}
	if alpha.URL != fx.srv.URL+"/releases/2025/alpha-launch.html" {
		t.Errorf("unexpected alpha URL %q", alpha.URL)
	}
	if alpha.ImageURL != "https://cdn.example.com/alpha.jpg" {
		t.Errorf("expected og:image, got %q", alpha.ImageURL)
	}
	if !strings.HasPrefix(alpha.Description, "Toyota today unveiled the Alpha") {
		t.Errorf("expected long paragraph, got %q", alpha.Description)
	}

	// Detail page 404s: article kept with empty enrichment.
	if beta.Date != "FEB 2, 2025" {
		t.Errorf("unexpected beta date %q", beta.Date)
	}
	if beta.ImageURL != "" || beta.Description != "No description available." {
		t.Errorf("expected degraded beta, got %+v", beta)
	}

	if gamma.Date != types.RecentDate || gamma.Title != "Gamma Plant Expansion" {
		t.Errorf("unexpected gamma: %+v", gamma)
	}
	if gamma.ImageURL != fx.srv.URL+"/img/gamma.jpg" {
		t.Errorf("unexpected gamma image %q", gamma.ImageURL)
	}
	if gamma.Description != "Gamma plant grows." {
		t.Errorf("expected short fallback paragraph, got %q", gamma.Description)
	}

	raw, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	var doc types.RunResult
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(doc.Articles) != 3 || doc.Articles[0].URL != alpha.URL {
		t.Errorf("stored document does not match result")
	}

	snap := e.Metrics().Snapshot()
	checks := map[string]int64{
		"pressclip_listing_fetches_total":       1,
		"pressclip_detail_fetches_total":        3,
		"pressclip_detail_failures_total":       1,
		"pressclip_candidates_associated_total": 2,
		"pressclip_candidates_fallback_total":   1,
		"pressclip_articles_stored_total":       3,
		"pressclip_last_run_success":            1,
	}
	for name, want := range checks {
		if snap[name] != want {
			t.Errorf("%s = %d, want %d", name, snap[name], want)
		}
	}
}

func TestRunRespectsLimit(t *testing.T) {
	fx := newFixture(t, listingPage, 0)
	cfg := testConfig(fx.srv.URL, filepath.Join(t.TempDir(), "news.json"))
	cfg.Heuristics.MaxResults = 1
	e := newTestEngine(t, cfg, nil)

	result, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Articles) != 1 || result.Articles[0].Title != "Toyota Launches Alpha Model" {
		t.Fatalf("expected only the first candidate, got %+v", result.Articles)
	}
	// One listing fetch plus one detail fetch.
	if got := fx.requests.Load(); got != 2 {
		t.Errorf("expected 2 requests, got %d", got)
	}
}

func TestRunListingFailure(t *testing.T) {
	fx := newFixture(t, listingPage, http.StatusInternalServerError)
	out := filepath.Join(t.TempDir(), "news.json")
	e := newTestEngine(t, testConfig(fx.srv.URL, out), nil)

	_, err := e.Run(context.Background())
	var fe *types.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fe.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", fe.StatusCode)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("no output expected after a listing failure")
	}
	if e.Metrics().Snapshot()["pressclip_last_run_success"] != 0 {
		t.Error("expected failed run recorded")
	}
}

func TestRunEmptyListing(t *testing.T) {
	fx := newFixture(t, `<html><body><p>Nothing to see.</p></body></html>`, 0)
	out := filepath.Join(t.TempDir(), "news.json")
	e := newTestEngine(t, testConfig(fx.srv.URL, out), nil)

	result, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("empty listing should not fail: %v", err)
	}
	if len(result.Articles) != 0 {
		t.Errorf("expected no articles, got %d", len(result.Articles))
	}

	raw, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `"articles": []`) {
		t.Errorf("expected empty article array in output:\n%s", raw)
	}
}

type failingStorage struct{}

func (failingStorage) Store(*types.RunResult) error {
	return &types.StorageError{Backend: "broken", Err: errors.New("disk full")}
}
func (failingStorage) Close() error { return nil }
func (failingStorage) Name() string { return "broken" }

func TestRunStorageFailure(t *testing.T) {
	fx := newFixture(t, listingPage, 0)
	e := newTestEngine(t, testConfig(fx.srv.URL, ""), failingStorage{})

	_, err := e.Run(context.Background())
	var se *types.StorageError
	if !errors.As(err, &se) {
		t.Fatalf("expected StorageError, got %v", err)
	}
}

func TestRunCancelled(t *testing.T) {
	fx := newFixture(t, listingPage, 0)
	e := newTestEngine(t, testConfig(fx.srv.URL, filepath.Join(t.TempDir(), "news.json")), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Run(ctx); err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if e.GetState() != StateIdle {
		t.Errorf("expected idle after run, got %s", e.GetState())
	}
}

func TestNewRejectsBadDatePattern(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Heuristics.DatePattern = "([unclosed"
	f, _ := fetcher.NewHTTPFetcher(cfg, testLogger)
	if _, err := New(cfg, f, failingStorage{}, nil, testLogger); err == nil {
		t.Fatal("expected error for invalid date pattern")
	}
}

func TestEnricherDegradesOnFailure(t *testing.T) {
	fx := newFixture(t, listingPage, 0)
	cfg := testConfig(fx.srv.URL, "")
	f, err := fetcher.NewHTTPFetcher(cfg, testLogger)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	en := NewEnricher(f, parser.NewDetailExtractor(cfg.Source.BaseOrigin, cfg.Enrich, testLogger), nil, testLogger)

	d, err := en.Enrich(context.Background(), fx.srv.URL+"/releases/2025/missing.html")
	if err == nil {
		t.Fatal("expected error for missing detail page")
	}
	if d != (types.Detail{}) {
		t.Errorf("expected empty detail, got %+v", d)
	}

	d, err = en.Enrich(context.Background(), fx.srv.URL+"/releases/2025/alpha-launch.html")
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if d.ImageURL != "https://cdn.example.com/alpha.jpg" {
		t.Errorf("unexpected image %q", d.ImageURL)
	}
}
