package fetcher

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/IshaanNene/pressclip/internal/config"
	"github.com/IshaanNene/pressclip/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func newTestFetcher(t *testing.T, mutate func(*config.Config)) *HTTPFetcher {
	t.Helper()
	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	f, err := NewHTTPFetcher(cfg, testLogger)
	if err != nil {
		t.Fatalf("NewHTTPFetcher: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func mustRequest(t *testing.T, rawURL string) *types.Request {
	t.Helper()
	req, err := types.NewRequest(rawURL)
	if err != nil {
		t.Fatal(err)
	}
	return req
}

func TestHTTPFetcherSendsHeaders(t *testing.T) {
	var gotUA, gotCustom string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotCustom = r.Header.Get("X-Test")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer srv.Close()

	f := newTestFetcher(t, func(c *config.Config) {
		c.Fetcher.Headers = map[string]string{"X-Test": "yes"}
	})

	resp, err := f.Fetch(context.Background(), mustRequest(t, srv.URL))
	if err != nil {
		t.Fatalf("fetch error: %v", err)
	}
	if !resp.IsSuccess() {
		t.Errorf("expected success, got %d", resp.StatusCode)
	}
	if gotUA != config.DefaultConfig().Fetcher.UserAgent {
		t.Errorf("expected configured user agent, got %q", gotUA)
	}
	if gotCustom != "yes" {
		t.Errorf("expected custom header, got %q", gotCustom)
	}
	if !strings.Contains(string(resp.Body), "ok") {
		t.Errorf("unexpected body %q", resp.Body)
	}
}

func TestHTTPFetcherNon2xxIsFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := newTestFetcher(t, nil)
	_, err := f.Fetch(context.Background(), mustRequest(t, srv.URL))

	var fe *types.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fe.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", fe.StatusCode)
	}
}

func TestHTTPFetcherTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	f := newTestFetcher(t, func(c *config.Config) {
		c.Fetcher.RequestTimeout = 100 * time.Millisecond
	})

	_, err := f.Fetch(context.Background(), mustRequest(t, srv.URL))
	var fe *types.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError on timeout, got %v", err)
	}
}

func TestHTTPFetcherDecodes(t *testing.T) {
	const page = "<html><body><p>compressed</p></body></html>"

	encoders := map[string]func([]byte) []byte{
		"gzip": func(b []byte) []byte {
			var buf bytes.Buffer
			zw := gzip.NewWriter(&buf)
			_, _ = zw.Write(b)
			_ = zw.Close()
			return buf.Bytes()
		},
		"br": func(b []byte) []byte {
			var buf bytes.Buffer
			bw := brotli.NewWriter(&buf)
			_, _ = bw.Write(b)
			_ = bw.Close()
			return buf.Bytes()
		},
	}

	for enc, encode := range encoders {
		t.Run(enc, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Encoding", enc)
				_, _ = w.Write(encode([]byte(page)))
			}))
			defer srv.Close()

			f := newTestFetcher(t, nil)
			resp, err := f.Fetch(context.Background(), mustRequest(t, srv.URL))
			if err != nil {
				t.Fatalf("fetch error: %v", err)
			}
			if string(resp.Body) != page {
				t.Errorf("expected decoded body, got %q", resp.Body)
			}
			doc, err := resp.Document()
			if err != nil {
				t.Fatalf("document: %v", err)
			}
			if doc.Find("p").Text() != "compressed" {
				t.Errorf("unexpected paragraph %q", doc.Find("p").Text())
			}
		})
	}
}

func TestHTTPFetcherBodyLimit(t *testing.T) {
	page := "<html><body><p>" + strings.Repeat("a", 500) + "</p></body></html>"

	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	_, _ = zw.Write([]byte(page))
	_ = zw.Close()

	tests := []struct {
		name     string
		encoding string
		body     []byte
		limit    int64
		wantErr  bool
	}{
		{"plain over limit", "", []byte(page), 100, true},
		{"plain at limit", "", []byte(page), int64(len(page)), false},
		{"gzip decoded over limit", "gzip", gz.Bytes(), int64(gz.Len()) + 10, true},
		{"gzip decoded within limit", "gzip", gz.Bytes(), int64(len(page)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.encoding != "" {
					w.Header().Set("Content-Encoding", tt.encoding)
				}
				_, _ = w.Write(tt.body)
			}))
			defer srv.Close()

			f := newTestFetcher(t, func(c *config.Config) { c.Fetcher.MaxBodySize = tt.limit })
			resp, err := f.Fetch(context.Background(), mustRequest(t, srv.URL))
			if tt.wantErr {
				var fe *types.FetchError
				if !errors.As(err, &fe) || !errors.Is(err, types.ErrBodyTooLarge) {
					t.Fatalf("expected body limit FetchError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("fetch error: %v", err)
			}
			if string(resp.Body) != page {
				t.Errorf("expected full body, got %d bytes", len(resp.Body))
			}
		})
	}
}

func TestNewFetcherType(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Fetcher.Type = "carrier-pigeon"
	if _, err := New(cfg, testLogger); err == nil {
		t.Error("expected error for unknown fetcher type")
	}

	cfg.Fetcher.Type = "http"
	f, err := New(cfg, testLogger)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer f.Close()
	if f.Type() != "http" {
		t.Errorf("expected http fetcher, got %q", f.Type())
	}
}
