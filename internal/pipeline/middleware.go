package pipeline

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/IshaanNene/pressclip/internal/types"
)

// field returns a pointer to the named article field, or nil.
func field(a *types.Article, name string) *string {
	switch name {
	case "date":
		return &a.Date
	case "title":
		return &a.Title
	case "description":
		return &a.Description
	case "image_url":
		return &a.ImageURL
	case "url":
		return &a.URL
	}
	return nil
}

func allFields(a *types.Article) []*string {
	return []*string{&a.Date, &a.Title, &a.Description, &a.ImageURL, &a.URL}
}

// TrimMiddleware trims whitespace from every field.
type TrimMiddleware struct{}

func (m *TrimMiddleware) Name() string { return "trim" }

func (m *TrimMiddleware) Process(a *types.Article) (*types.Article, error) {
	for _, f := range allFields(a) {
		*f = strings.TrimSpace(*f)
	}
	return a, nil
}

// RequiredFieldsMiddleware drops articles with an empty required field.
type RequiredFieldsMiddleware struct {
	Fields []string
}

func (m *RequiredFieldsMiddleware) Name() string { return "required_fields" }

func (m *RequiredFieldsMiddleware) Process(a *types.Article) (*types.Article, error) {
	for _, name := range m.Fields {
		f := field(a, name)
		if f == nil {
			return nil, fmt.Errorf("unknown field %q", name)
		}
		if *f == "" {
			return nil, nil
		}
	}
	return a, nil
}

// DedupMiddleware drops articles whose key field was already seen.
type DedupMiddleware struct {
	seen map[string]struct{}
	key  string
}

func NewDedupMiddleware(key string) *DedupMiddleware {
	return &DedupMiddleware{
		seen: make(map[string]struct{}),
		key:  key,
	}
}

func (m *DedupMiddleware) Name() string { return "dedup" }

func (m *DedupMiddleware) Process(a *types.Article) (*types.Article, error) {
	f := field(a, m.key)
	if f == nil {
		return nil, fmt.Errorf("unknown field %q", m.key)
	}
	if _, exists := m.seen[*f]; exists {
		return nil, nil
	}
	m.seen[*f] = struct{}{}
	return a, nil
}

// TruncateMiddleware cuts a field to at most Max characters.
type TruncateMiddleware struct {
	Field string
	Max   int
}

func (m *TruncateMiddleware) Name() string { return "truncate" }

func (m *TruncateMiddleware) Process(a *types.Article) (*types.Article, error) {
	f := field(a, m.Field)
	if f == nil {
		return nil, fmt.Errorf("unknown field %q", m.Field)
	}
	*f = Truncate(*f, m.Max)
	return a, nil
}

// Truncate returns the first max runes of s.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	i := 0
	for pos := range s {
		if i == max {
			return s[:pos]
		}
		i++
	}
	return s
}

// DefaultValueMiddleware fills empty fields.
type DefaultValueMiddleware struct {
	Defaults map[string]string
}

func (m *DefaultValueMiddleware) Name() string { return "default_values" }

func (m *DefaultValueMiddleware) Process(a *types.Article) (*types.Article, error) {
	for name, def := range m.Defaults {
		f := field(a, name)
		if f == nil {
			return nil, fmt.Errorf("unknown field %q", name)
		}
		if *f == "" {
			*f = def
		}
	}
	return a, nil
}
