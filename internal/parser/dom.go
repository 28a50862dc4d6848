package parser

import (
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	linkSelector     = cascadia.MustCompile("a[href]")
	headingSelector  = cascadia.MustCompile("h1, h2, h3, h4")
	emphasisSelector = cascadia.MustCompile("h1, h2, h3, h4, h5, h6, b, strong")
)

// nextInOrder returns the node after n in document (pre-order) order.
func nextInOrder(n *html.Node) *html.Node {
	if n.FirstChild != nil {
		return n.FirstChild
	}
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.NextSibling != nil {
			return cur.NextSibling
		}
	}
	return nil
}

// nextWithin is nextInOrder restricted to the subtree rooted at root.
func nextWithin(n, root *html.Node) *html.Node {
	if n.FirstChild != nil {
		return n.FirstChild
	}
	for cur := n; cur != nil && cur != root; cur = cur.Parent {
		if cur.NextSibling != nil {
			return cur.NextSibling
		}
	}
	return nil
}

// ancestor returns the element level steps above n (1 = parent), or nil
// when the walk leaves the element tree.
func ancestor(n *html.Node, level int) *html.Node {
	cur := n
	for i := 0; i < level && cur != nil; i++ {
		cur = cur.Parent
	}
	if cur == nil || cur.Type != html.ElementNode {
		return nil
	}
	return cur
}

// isHidden reports text containers whose content is never rendered.
func isHidden(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Noscript, atom.Template:
		return true
	}
	return false
}

// visibleText joins the trimmed, non-empty text nodes under n with single
// spaces.
func visibleText(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}

	var parts []string
	for cur := n.FirstChild; cur != nil; {
		if isHidden(cur) {
			cur = skipSubtree(cur, n)
			continue
		}
		if cur.Type == html.TextNode {
			if t := strings.TrimSpace(cur.Data); t != "" {
				parts = append(parts, t)
			}
		}
		cur = nextWithin(cur, n)
	}
	return strings.Join(parts, " ")
}

// skipSubtree returns the node after n's subtree without leaving root.
func skipSubtree(n, root *html.Node) *html.Node {
	for cur := n; cur != nil && cur != root; cur = cur.Parent {
		if cur.NextSibling != nil {
			return cur.NextSibling
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// isLink reports an anchor with a non-blank href.
func isLink(n *html.Node) bool {
	return n != nil && linkSelector.Match(n) && strings.TrimSpace(attr(n, "href")) != ""
}

// firstLink returns the first link strictly below n in document order.
func firstLink(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	for _, m := range linkSelector.MatchAll(n) {
		if m != n && isLink(m) {
			return m
		}
	}
	return nil
}

// firstText returns the text of the first match of sel under n.
func firstText(sel cascadia.Selector, n *html.Node) string {
	if n == nil {
		return ""
	}
	m := sel.MatchFirst(n)
	if m == nil {
		return ""
	}
	return visibleText(m)
}
