package radar

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/IshaanNene/pressclip/internal/fetcher"
	"github.com/IshaanNene/pressclip/internal/types"
)

// maxListPages bounds ListObjectsV2 pagination for one prefix.
const maxListPages = 20

// listBucketResult is the subset of an S3 ListObjectsV2 response we read.
type listBucketResult struct {
	XMLName               xml.Name `xml:"ListBucketResult"`
	Contents              []object `xml:"Contents"`
	IsTruncated           bool     `xml:"IsTruncated"`
	NextContinuationToken string   `xml:"NextContinuationToken"`
}

type object struct {
	Key  string `xml:"Key"`
	Size int64  `xml:"Size"`
}

// Archive lists and addresses objects in an S3-style bucket over plain
// HTTP. Requests are anonymous.
type Archive struct {
	base    string
	fetcher fetcher.Fetcher
}

// NewArchive creates an archive client. When the endpoint host does not
// already name the bucket, path-style addressing is used.
func NewArchive(endpoint, bucket string, f fetcher.Fetcher) (*Archive, error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("%w: radar endpoint %q", types.ErrInvalidURL, endpoint)
	}

	base := strings.TrimRight(endpoint, "/")
	if bucket != "" && !strings.HasPrefix(u.Host, bucket+".") {
		base += "/" + bucket
	}
	return &Archive{base: base, fetcher: f}, nil
}

// Prefix returns the listing prefix for site on the UTC day of at.
func Prefix(layout, site string, at time.Time) string {
	return at.UTC().Format(layout) + "/" + site + "/"
}

// List returns every key under prefix in lexical order.
func (a *Archive) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	token := ""

	for page := 0; page < maxListPages; page++ {
		q := url.Values{}
		q.Set("list-type", "2")
		q.Set("prefix", prefix)
		if token != "" {
			q.Set("continuation-token", token)
		}

		req, err := types.NewRequest(a.base + "/?" + q.Encode())
		if err != nil {
			return nil, err
		}
		req.Tag = types.TagRadar

		resp, err := a.fetcher.Fetch(ctx, req)
		if err != nil {
			return nil, err
		}

		var result listBucketResult
		if err := xml.Unmarshal(resp.Body, &result); err != nil {
			return nil, &types.ParseError{URL: req.URLString(), Err: err}
		}
		for _, obj := range result.Contents {
			keys = append(keys, obj.Key)
		}

		if !result.IsTruncated || result.NextContinuationToken == "" {
			break
		}
		token = result.NextContinuationToken
	}

	sort.Strings(keys)
	return keys, nil
}

// ObjectURL returns the download URL for key.
func (a *Archive) ObjectURL(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return a.base + "/" + strings.Join(parts, "/")
}

// Latest keeps keys ending in suffix and returns the last n of them.
// An empty suffix keeps every key.
func Latest(keys []string, suffix string, n int) []string {
	var kept []string
	for _, k := range keys {
		if strings.HasSuffix(k, "/") {
			continue
		}
		if suffix == "" || strings.HasSuffix(k, suffix) {
			kept = append(kept, k)
		}
	}
	if n > 0 && len(kept) > n {
		kept = kept[len(kept)-n:]
	}
	return kept
}
