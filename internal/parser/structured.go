package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// OpenGraph returns the page's og: meta properties keyed without the
// "og:" prefix. The first occurrence of a property wins.
func OpenGraph(doc *goquery.Document) map[string]string {
	data := make(map[string]string)

	doc.Find(`meta[property^="og:"]`).Each(func(_ int, sel *goquery.Selection) {
		property, _ := sel.Attr("property")
		content := strings.TrimSpace(sel.AttrOr("content", ""))
		if property == "" || content == "" {
			return
		}
		key := strings.TrimPrefix(property, "og:")
		if _, ok := data[key]; !ok {
			data[key] = content
		}
	})

	return data
}
