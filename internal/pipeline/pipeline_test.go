package pipeline

import (
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/IshaanNene/pressclip/internal/config"
	"github.com/IshaanNene/pressclip/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func newArticle(url string) *types.Article {
	return &types.Article{
		Date:  "MARCH 3, 2024",
		Title: "Toyota Expands Ontario Plant",
		URL:   url,
	}
}

func TestPipelineBasic(t *testing.T) {
	p := New(testLogger)
	p.Use(&TrimMiddleware{})

	a := newArticle("  https://example.com/a  ")
	a.Title = "  Hello World  "

	result, err := p.Process(a)
	if err != nil {
		t.Fatalf("pipeline error: %v", err)
	}
	if result.Title != "Hello World" {
		t.Errorf("expected trimmed title, got %q", result.Title)
	}
	if result.URL != "https://example.com/a" {
		t.Errorf("expected trimmed url, got %q", result.URL)
	}
}

func TestRequiredFieldsMiddleware(t *testing.T) {
	m := &RequiredFieldsMiddleware{Fields: []string{"title"}}

	result, err := m.Process(newArticle("https://example.com"))
	if err != nil || result == nil {
		t.Error("article with required field should pass")
	}

	a := newArticle("https://example.com")
	a.Title = ""
	result, _ = m.Process(a)
	if result != nil {
		t.Error("article missing required field should be dropped (nil)")
	}

	bad := &RequiredFieldsMiddleware{Fields: []string{"author"}}
	if _, err := bad.Process(newArticle("https://example.com")); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestDedupMiddleware(t *testing.T) {
	m := NewDedupMiddleware("url")

	if r, _ := m.Process(newArticle("https://example.com/a")); r == nil {
		t.Error("first article should pass")
	}
	if r, _ := m.Process(newArticle("https://example.com/a")); r != nil {
		t.Error("duplicate should be dropped")
	}
	if r, _ := m.Process(newArticle("https://example.com/b")); r == nil {
		t.Error("new URL should pass")
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello", 10); got != "hello" {
		t.Errorf("expected unchanged, got %q", got)
	}
	if got := Truncate("hello", 3); got != "hel" {
		t.Errorf("expected hel, got %q", got)
	}
	if got := Truncate("café crème", 4); got != "café" {
		t.Errorf("expected rune-safe cut, got %q", got)
	}
}

func TestStandardPipeline(t *testing.T) {
	cfg := config.DefaultConfig().Enrich
	p := NewStandard(cfg, testLogger)

	long := newArticle("https://example.com/long")
	long.Description = strings.Repeat("é", 700)
	got, err := p.Process(long)
	if err != nil {
		t.Fatalf("pipeline error: %v", err)
	}
	if n := utf8.RuneCountInString(got.Description); n != 600 {
		t.Errorf("expected 600 characters, got %d", n)
	}

	empty := newArticle("https://example.com/empty")
	got, err = p.Process(empty)
	if err != nil {
		t.Fatalf("pipeline error: %v", err)
	}
	if got.Description != "No description available." {
		t.Errorf("expected placeholder, got %q", got.Description)
	}
	if got.ImageURL != "" {
		t.Errorf("expected empty image, got %q", got.ImageURL)
	}

	literal := newArticle("https://example.com/literal")
	literal.Title = "Toyota <GR> Corolla Arrives"
	literal.Description = "Engine sizes < 2L and > 3L shifted; AT&amp;T <b>partner</b>"
	got, err = p.Process(literal)
	if err != nil || got == nil {
		t.Fatalf("expected article to pass, got %+v, %v", got, err)
	}
	if got.Title != "Toyota <GR> Corolla Arrives" {
		t.Errorf("title should be kept verbatim, got %q", got.Title)
	}
	if got.Description != "Engine sizes < 2L and > 3L shifted; AT&amp;T <b>partner</b>" {
		t.Errorf("description should be kept verbatim, got %q", got.Description)
	}

	bracketed := newArticle("https://example.com/draft")
	bracketed.Title = "<Untitled draft>"
	got, err = p.Process(bracketed)
	if err != nil || got == nil {
		t.Fatalf("bracketed title should not be dropped, got %+v, %v", got, err)
	}
	if got.Title != "<Untitled draft>" {
		t.Errorf("unexpected title %q", got.Title)
	}

	dup, err := p.Process(newArticle("https://example.com/empty"))
	if err != nil || dup != nil {
		t.Errorf("expected duplicate to be dropped, got %+v, %v", dup, err)
	}
}

type failingMiddleware struct{}

func (failingMiddleware) Name() string { return "failing" }

func (failingMiddleware) Process(*types.Article) (*types.Article, error) {
	return nil, errors.New("boom")
}

func TestPipelineError(t *testing.T) {
	p := New(testLogger)
	p.Use(failingMiddleware{})

	_, err := p.Process(newArticle("https://example.com/x"))
	var pe *types.PipelineError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PipelineError, got %v", err)
	}
	if pe.Stage != "failing" || pe.URL != "https://example.com/x" {
		t.Errorf("unexpected error fields: %+v", pe)
	}
}
