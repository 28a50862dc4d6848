package parser

import (
	"net/url"
	"path"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// LinkStage locates the link belonging to a date text node.
type LinkStage struct {
	Name string
	Find func(dateNode *html.Node) *html.Node
}

// TitleStage derives a title for a link. absURL is the normalized href.
type TitleStage struct {
	Name   string
	Derive func(link *html.Node, absURL string) string
}

// runLinkStages returns the first link found and the stage that found it.
func runLinkStages(stages []LinkStage, dateNode *html.Node) (*html.Node, string) {
	for _, s := range stages {
		if link := s.Find(dateNode); link != nil {
			return link, s.Name
		}
	}
	return nil, ""
}

// runTitleStages returns the first derived title of at least minLen runes.
func runTitleStages(stages []TitleStage, link *html.Node, absURL string, minLen int) (string, string) {
	for _, s := range stages {
		t := strings.TrimSpace(s.Derive(link, absURL))
		if utf8.RuneCountInString(t) >= minLen {
			return t, s.Name
		}
	}
	return "", ""
}

// Stage names.
const (
	StageParent           = "parent"
	StageForward          = "forward"
	StageGrandparent      = "grandparent"
	StageLinkText         = "link_text"
	StageParentHeading    = "parent_heading"
	StageEnclosingText    = "enclosing_text"
	StageAncestorEmphasis = "ancestor_emphasis"
	StageURLSlug          = "url_slug"
)

// parentLinkStage: the date's parent element, if it is a link, or the
// first link below it.
func parentLinkStage() LinkStage {
	return LinkStage{Name: StageParent, Find: func(n *html.Node) *html.Node {
		p := ancestor(n, 1)
		if isLink(p) {
			return p
		}
		return firstLink(p)
	}}
}

// forwardLinkStage visits up to limit element nodes following the date in
// document order and returns the first link among them.
func forwardLinkStage(limit int) LinkStage {
	return LinkStage{Name: StageForward, Find: func(n *html.Node) *html.Node {
		seen := 0
		for cur := nextInOrder(n); cur != nil && seen < limit; cur = nextInOrder(cur) {
			if cur.Type != html.ElementNode {
				continue
			}
			seen++
			if isLink(cur) {
				return cur
			}
		}
		return nil
	}}
}

func grandparentLinkStage() LinkStage {
	return LinkStage{Name: StageGrandparent, Find: func(n *html.Node) *html.Node {
		return firstLink(ancestor(n, 2))
	}}
}

func linkTextStage() TitleStage {
	return TitleStage{Name: StageLinkText, Derive: func(link *html.Node, _ string) string {
		return visibleText(link)
	}}
}

// parentHeadingStage: the first h1-h4 inside the link's parent.
func parentHeadingStage() TitleStage {
	return TitleStage{Name: StageParentHeading, Derive: func(link *html.Node, _ string) string {
		return firstText(headingSelector, ancestor(link, 1))
	}}
}

func enclosingTextStage() TitleStage {
	return TitleStage{Name: StageEnclosingText, Derive: func(link *html.Node, _ string) string {
		return visibleText(ancestor(link, 1))
	}}
}

// ancestorEmphasisStage walks up to depth ancestors and takes the first
// heading, b or strong of each level whose text reaches minLen.
func ancestorEmphasisStage(depth, minLen int) TitleStage {
	return TitleStage{Name: StageAncestorEmphasis, Derive: func(link *html.Node, _ string) string {
		for level := 1; level <= depth; level++ {
			anc := ancestor(link, level)
			if anc == nil {
				return ""
			}
			t := firstText(emphasisSelector, anc)
			if utf8.RuneCountInString(t) >= minLen {
				return t
			}
		}
		return ""
	}}
}

func urlSlugStage() TitleStage {
	return TitleStage{Name: StageURLSlug, Derive: func(_ *html.Node, absURL string) string {
		return SlugTitle(absURL)
	}}
}

// SlugTitle turns ".../toyota-opens-new-plant.html" into
// "Toyota Opens New Plant".
func SlugTitle(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	p = strings.TrimRight(p, "/")
	if p == "" {
		return ""
	}
	seg := path.Base(p)
	seg = strings.TrimSuffix(seg, path.Ext(seg))
	seg = strings.NewReplacer("-", " ", "_", " ").Replace(seg)
	words := strings.Fields(seg)
	if len(words) == 0 {
		return ""
	}
	return cases.Title(language.English).String(strings.Join(words, " "))
}
