package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"
)

// Metrics tracks counters for one batch run.
type Metrics struct {
	// Fetch metrics
	ListingFetches atomic.Int64
	DetailFetches  atomic.Int64
	DetailFailures atomic.Int64
	BytesFetched   atomic.Int64

	// Discovery metrics
	CandidatesAssociated atomic.Int64
	CandidatesFallback   atomic.Int64

	// Article metrics
	ArticlesDropped atomic.Int64
	ArticlesStored  atomic.Int64

	// Radar metrics
	RadarFramesDownloaded atomic.Int64
	RadarFramesSkipped    atomic.Int64

	// Run metrics
	LastRunUnix    atomic.Int64
	LastRunSuccess atomic.Int64

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger.With("component", "metrics"),
	}
}

type sample struct {
	name  string
	help  string
	kind  string
	value int64
}

func (m *Metrics) samples() []sample {
	return []sample{
		{"pressclip_listing_fetches_total", "Listing page fetches", "counter", m.ListingFetches.Load()},
		{"pressclip_detail_fetches_total", "Detail page fetches", "counter", m.DetailFetches.Load()},
		{"pressclip_detail_failures_total", "Detail pages degraded to empty fields", "counter", m.DetailFailures.Load()},
		{"pressclip_bytes_fetched_total", "Response bytes fetched", "counter", m.BytesFetched.Load()},
		{"pressclip_candidates_associated_total", "Candidates found by date association", "counter", m.CandidatesAssociated.Load()},
		{"pressclip_candidates_fallback_total", "Candidates found by the release link fallback", "counter", m.CandidatesFallback.Load()},
		{"pressclip_articles_dropped_total", "Articles dropped by the pipeline", "counter", m.ArticlesDropped.Load()},
		{"pressclip_articles_stored_total", "Articles written to storage", "counter", m.ArticlesStored.Load()},
		{"pressclip_radar_frames_downloaded_total", "Radar objects downloaded", "counter", m.RadarFramesDownloaded.Load()},
		{"pressclip_radar_frames_skipped_total", "Radar objects that could not be decoded", "counter", m.RadarFramesSkipped.Load()},
		{"pressclip_last_run_timestamp_seconds", "Unix time the last run finished", "gauge", m.LastRunUnix.Load()},
		{"pressclip_last_run_success", "1 if the last run succeeded", "gauge", m.LastRunSuccess.Load()},
	}
}

// MarkRun records the end of a run.
func (m *Metrics) MarkRun(at time.Time, ok bool) {
	m.LastRunUnix.Store(at.Unix())
	if ok {
		m.LastRunSuccess.Store(1)
	} else {
		m.LastRunSuccess.Store(0)
	}
}

// WriteTo writes all metrics in Prometheus text exposition format.
func (m *Metrics) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, s := range m.samples() {
		n, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %d\n", s.name, s.help, s.name, s.kind, s.name, s.value)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	_, _ = m.WriteTo(w)
}

// StartServer serves metrics until ctx is done.
func (m *Metrics) StartServer(ctx context.Context, port int, path string) {
	mux := http.NewServeMux()
	mux.Handle(path, m)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	m.logger.Info("metrics server starting", "addr", srv.Addr, "path", path)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("metrics server error", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

// WriteTextfile writes metrics for the node_exporter textfile collector.
// The file is replaced by rename so the collector never reads a partial
// file.
func (m *Metrics) WriteTextfile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".pressclip-metrics-*")
	if err != nil {
		return fmt.Errorf("create metrics file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := m.WriteTo(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write metrics: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close metrics file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod metrics file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename metrics file: %w", err)
	}

	m.logger.Debug("metrics textfile written", "path", path)
	return nil
}

// Snapshot returns all metrics keyed by name.
func (m *Metrics) Snapshot() map[string]int64 {
	out := make(map[string]int64)
	for _, s := range m.samples() {
		out[s.name] = s.value
	}
	return out
}
