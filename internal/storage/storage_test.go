package storage

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/IshaanNene/pressclip/internal/config"
	"github.com/IshaanNene/pressclip/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func testResult() *types.RunResult {
	return types.NewRunResult("Toyota Canada Media", time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC), []*types.Article{
		{
			Date:        "MARCH 3, 2024",
			Title:       "Toyota Expands Ontario Plant <Woodstock>",
			Description: "Production of the RAV4 in Québec & Ontario",
			ImageURL:    "https://media.example.ca/a.jpg",
			URL:         "https://media.example.ca/releases/2024/a.html",
		},
		{
			Date:        types.RecentDate,
			Title:       "Recall Notice",
			Description: "No description available.",
			URL:         "https://media.example.ca/releases/2024/b.html",
		},
	})
}

func TestJSONStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "powerbi", "toyota_news.json")
	s := NewJSONStorage(path, testLogger)

	if err := s.Store(testResult()); err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	text := string(raw)
	if !strings.Contains(text, "Québec & Ontario") {
		t.Errorf("expected unescaped non-ASCII and ampersand, got %s", text)
	}
	if !strings.Contains(text, "<Woodstock>") {
		t.Errorf("expected unescaped angle brackets, got %s", text)
	}
	if !strings.Contains(text, "\n  \"source\"") {
		t.Errorf("expected two-space indentation, got %s", text)
	}

	var got types.RunResult
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.FetchedAt != "2025-03-04T05:06:07Z" {
		t.Errorf("unexpected fetched_at %q", got.FetchedAt)
	}
	if len(got.Articles) != 2 || got.Articles[1].Date != types.RecentDate {
		t.Errorf("unexpected articles %+v", got.Articles)
	}
}

func TestJSONStorageEmptyArticles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	s := NewJSONStorage(path, testLogger)

	if err := s.Store(types.NewRunResult("x", time.Now(), nil)); err != nil {
		t.Fatalf("store: %v", err)
	}
	raw, _ := os.ReadFile(path)
	if !strings.Contains(string(raw), `"articles": []`) {
		t.Errorf("expected empty array, got %s", raw)
	}
}

func TestJSONStorageBadPath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewJSONStorage(filepath.Join(blocker, "out.json"), testLogger)
	err := s.Store(testResult())

	var se *types.StorageError
	if !errors.As(err, &se) {
		t.Fatalf("expected StorageError, got %v", err)
	}
	if se.Backend != "json" {
		t.Errorf("expected json backend, got %q", se.Backend)
	}
}

func TestJSONLStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "news.jsonl")
	s := NewJSONLStorage(path, testLogger)
	if err := s.Store(testResult()); err != nil {
		t.Fatalf("store: %v", err)
	}

	raw, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	var rec map[string]string
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec["source"] != "Toyota Canada Media" || rec["url"] != "https://media.example.ca/releases/2024/a.html" {
		t.Errorf("unexpected record %v", rec)
	}
}

func TestCSVStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "news.csv")
	s := NewCSVStorage(path, testLogger)
	if err := s.Store(testResult()); err != nil {
		t.Fatalf("store: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if strings.Join(rows[0], ",") != "date,title,description,image_url,url" {
		t.Errorf("unexpected header %v", rows[0])
	}
	if rows[2][3] != "" {
		t.Errorf("expected empty image_url, got %q", rows[2][3])
	}
}

type recordingStorage struct {
	name   string
	err    error
	stored int
}

func (r *recordingStorage) Store(*types.RunResult) error { r.stored++; return r.err }
func (r *recordingStorage) Close() error                 { return nil }
func (r *recordingStorage) Name() string                 { return r.name }

func TestMultiStorage(t *testing.T) {
	failing := &recordingStorage{name: "a", err: errors.New("disk full")}
	ok := &recordingStorage{name: "b"}
	m := NewMultiStorage([]Storage{failing, ok}, testLogger)

	err := m.Store(testResult())
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("expected first error, got %v", err)
	}
	if ok.stored != 1 {
		t.Error("later backends should still receive the result")
	}
}

func TestNewFileStorage(t *testing.T) {
	for _, typ := range []string{"json", "jsonl", "csv"} {
		s, err := NewFileStorage(typ, filepath.Join(t.TempDir(), "out"), testLogger)
		if err != nil {
			t.Fatalf("%s: %v", typ, err)
		}
		if s.Name() != typ {
			t.Errorf("expected %s, got %s", typ, s.Name())
		}
	}
	if _, err := NewFileStorage("xml", "out", testLogger); err == nil {
		t.Error("expected error for unsupported type")
	}
}

func TestNewWithoutMongo(t *testing.T) {
	cfg := config.DefaultConfig().Storage
	cfg.OutputPath = filepath.Join(t.TempDir(), "news.json")

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	s, err := New(ctx, cfg, testLogger)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.Name() != "json" {
		t.Errorf("expected plain json storage, got %q", s.Name())
	}
}
