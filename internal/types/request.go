package types

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Request tags.
const (
	TagListing = "listing"
	TagDetail  = "detail"
	TagRadar   = "radar"
)

// Request represents a single page fetch.
type Request struct {
	// URL is the target URL to fetch.
	URL *url.URL

	// Method is the HTTP method. Defaults to GET.
	Method string

	// Headers are custom HTTP headers to send with the request.
	Headers http.Header

	// Timeout overrides the fetcher timeout for this request.
	Timeout time.Duration

	// Tag categorizes this request ("listing", "detail", "radar").
	Tag string
}

// NewRequest creates a GET Request for rawURL. Only absolute http(s) URLs
// are accepted.
func NewRequest(rawURL string) (*Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	return &Request{
		URL:     u,
		Method:  http.MethodGet,
		Headers: make(http.Header),
	}, nil
}

// URLString returns the string representation of the request URL.
func (r *Request) URLString() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.String()
}
