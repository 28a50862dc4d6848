package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/IshaanNene/pressclip/internal/types"
)

// writeAtomic writes through a temp file in the target directory and
// renames it over path.
func writeAtomic(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod output: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}

// --- JSON Storage ---

// JSONStorage writes the run result as one indented JSON document. HTML
// and non-ASCII characters are written as-is.
type JSONStorage struct {
	path   string
	logger *slog.Logger
}

// NewJSONStorage creates a new JSON file storage.
func NewJSONStorage(outputPath string, logger *slog.Logger) *JSONStorage {
	return &JSONStorage{
		path:   outputPath,
		logger: logger.With("component", "json_storage"),
	}
}

func (s *JSONStorage) Name() string { return "json" }

func (s *JSONStorage) Store(result *types.RunResult) error {
	err := writeAtomic(s.path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("encode JSON: %w", err)
		}
		return nil
	})
	if err != nil {
		return storageErr(s.Name(), err)
	}

	s.logger.Info("JSON written", "path", s.path, "articles", len(result.Articles))
	return nil
}

func (s *JSONStorage) Close() error { return nil }

// --- JSONL Storage ---

// jsonlRecord is one article line, stamped with its run.
type jsonlRecord struct {
	Source    string `json:"source"`
	FetchedAt string `json:"fetched_at"`
	*types.Article
}

// JSONLStorage writes one article per line.
type JSONLStorage struct {
	path   string
	logger *slog.Logger
}

// NewJSONLStorage creates a new JSONL file storage.
func NewJSONLStorage(outputPath string, logger *slog.Logger) *JSONLStorage {
	return &JSONLStorage{
		path:   outputPath,
		logger: logger.With("component", "jsonl_storage"),
	}
}

func (s *JSONLStorage) Name() string { return "jsonl" }

func (s *JSONLStorage) Store(result *types.RunResult) error {
	err := writeAtomic(s.path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		for _, a := range result.Articles {
			rec := jsonlRecord{Source: result.Source, FetchedAt: result.FetchedAt, Article: a}
			if err := enc.Encode(rec); err != nil {
				return fmt.Errorf("encode JSONL: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return storageErr(s.Name(), err)
	}

	s.logger.Info("JSONL written", "path", s.path, "articles", len(result.Articles))
	return nil
}

func (s *JSONLStorage) Close() error { return nil }

// --- CSV Storage ---

// CSVStorage writes one row per article under a fixed header.
type CSVStorage struct {
	path   string
	logger *slog.Logger
}

// NewCSVStorage creates a new CSV file storage.
func NewCSVStorage(outputPath string, logger *slog.Logger) *CSVStorage {
	return &CSVStorage{
		path:   outputPath,
		logger: logger.With("component", "csv_storage"),
	}
}

func (s *CSVStorage) Name() string { return "csv" }

func (s *CSVStorage) Store(result *types.RunResult) error {
	err := writeAtomic(s.path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(types.ArticleColumns); err != nil {
			return fmt.Errorf("write CSV header: %w", err)
		}
		for _, a := range result.Articles {
			flat := a.ToFlatMap()
			row := make([]string, len(types.ArticleColumns))
			for i, h := range types.ArticleColumns {
				row[i] = flat[h]
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write CSV row: %w", err)
			}
		}
		cw.Flush()
		return cw.Error()
	})
	if err != nil {
		return storageErr(s.Name(), err)
	}

	s.logger.Info("CSV written", "path", s.path, "articles", len(result.Articles))
	return nil
}

func (s *CSVStorage) Close() error { return nil }
