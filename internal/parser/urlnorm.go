package parser

import "strings"

// Normalize resolves a possibly-relative href against baseOrigin
// (scheme and host, no trailing slash). It never fails.
func Normalize(href, baseOrigin string) string {
	href = strings.TrimSpace(href)
	switch {
	case strings.HasPrefix(href, "//"):
		return "https:" + href
	case strings.HasPrefix(href, "/"):
		return baseOrigin + href
	case strings.HasPrefix(href, "http"):
		return href
	default:
		return baseOrigin + "/" + href
	}
}
