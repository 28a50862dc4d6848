package parser

import (
	"net/url"
	"strings"
)

// ClaimSet records URLs already turned into candidates during one run.
// It is shared by every discovery pass and is not safe for concurrent use.
type ClaimSet struct {
	seen  map[string]struct{}
	order []string
}

// NewClaimSet creates an empty ClaimSet.
func NewClaimSet() *ClaimSet {
	return &ClaimSet{seen: make(map[string]struct{})}
}

// IsClaimed returns true if rawURL, after canonicalization, is claimed.
func (c *ClaimSet) IsClaimed(rawURL string) bool {
	_, ok := c.seen[claimKey(rawURL)]
	return ok
}

// Claim marks rawURL as claimed. It returns false if it already was.
func (c *ClaimSet) Claim(rawURL string) bool {
	key := claimKey(rawURL)
	if _, ok := c.seen[key]; ok {
		return false
	}
	c.seen[key] = struct{}{}
	c.order = append(c.order, rawURL)
	return true
}

// Count returns the number of claimed URLs.
func (c *ClaimSet) Count() int { return len(c.seen) }

// URLs returns claimed URLs in claim order.
func (c *ClaimSet) URLs() []string {
	return append([]string(nil), c.order...)
}

// claimKey lowercases scheme and host and drops the fragment, so
// "#top" anchors on the same release do not count as new articles.
func claimKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}
