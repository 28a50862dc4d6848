package pipeline

import (
	"log/slog"

	"github.com/IshaanNene/pressclip/internal/config"
	"github.com/IshaanNene/pressclip/internal/types"
)

// Middleware processes an article and returns the (possibly modified)
// article. Return nil to drop the article from the pipeline.
type Middleware interface {
	// Name returns the middleware's identifier.
	Name() string

	// Process transforms an article. Return nil to drop it.
	Process(article *types.Article) (*types.Article, error)
}

// Pipeline chains middleware processors together.
type Pipeline struct {
	middlewares []Middleware
	logger      *slog.Logger
}

// New creates a new Pipeline.
func New(logger *slog.Logger) *Pipeline {
	return &Pipeline{
		logger: logger.With("component", "pipeline"),
	}
}

// NewStandard builds the chain every enriched article goes through before
// it is written. Fields arrive as plain text and only the description is
// ever shortened.
func NewStandard(cfg config.EnrichConfig, logger *slog.Logger) *Pipeline {
	p := New(logger)
	p.Use(&TrimMiddleware{})
	p.Use(&RequiredFieldsMiddleware{Fields: []string{"title", "url"}})
	p.Use(NewDedupMiddleware("url"))
	p.Use(&TruncateMiddleware{Field: "description", Max: cfg.DescriptionMaxLength})
	p.Use(&DefaultValueMiddleware{Defaults: map[string]string{
		"description": cfg.DescriptionPlaceholder,
	}})
	return p
}

// Use adds a middleware to the pipeline chain.
func (p *Pipeline) Use(mw Middleware) {
	p.middlewares = append(p.middlewares, mw)
	p.logger.Debug("middleware added", "name", mw.Name(), "position", len(p.middlewares))
}

// Process runs the article through all middleware in order.
func (p *Pipeline) Process(article *types.Article) (*types.Article, error) {
	current := article

	for _, mw := range p.middlewares {
		result, err := mw.Process(current)
		if err != nil {
			return nil, &types.PipelineError{
				Stage: mw.Name(),
				URL:   article.URL,
				Err:   err,
			}
		}
		if result == nil {
			p.logger.Debug("article dropped", "stage", mw.Name(), "url", article.URL)
			return nil, nil
		}
		current = result
	}

	return current, nil
}

// Len returns the number of middleware in the chain.
func (p *Pipeline) Len() int {
	return len(p.middlewares)
}
