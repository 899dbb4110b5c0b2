/*
	links package implements the pure link-graph primitives: extracting
	valid internal wiki links from raw HTML, validating hrefs against the
	wiki namespace rules and resolving extracted links to stable page
	identifiers. None of these functions perform any I/O.
*/

package links

import (
	"strings"

	"golang.org/x/net/html"
)

// Link is a single extracted anchor: the href attribute and the title
// attribute (empty when absent).
type Link struct {
	Href  string
	Title string
}

// LinkSet is an ordered collection of extracted links, deduplicated by
// href. Order follows the first occurrence of each href in the source
// document; a duplicate href updates the stored title in place
// (last-write-wins).
type LinkSet []Link

// Hrefs returns the set's hrefs in order.
func (s LinkSet) Hrefs() []string {
	hrefs := make([]string, len(s))
	for i, link := range s {
		hrefs[i] = link.Href
	}

	return hrefs
}

// ExtractLinks parses anchor elements out of the provided HTML document
// and returns the valid internal wiki links in document order. Malformed
// or empty HTML yields an empty set; this function never fails.
func ExtractLinks(htmlContent string) LinkSet {
	var (
		set   LinkSet
		index = make(map[string]int)
	)

	tokenizer := html.NewTokenizer(strings.NewReader(htmlContent))
	for {
		tokenType := tokenizer.Next()
		// The tokenizer reports malformed markup and EOF through the
		// same error token, so extraction simply stops at either.
		if tokenType == html.ErrorToken {
			return set
		}

		if tokenType != html.StartTagToken && tokenType != html.SelfClosingTagToken {
			continue
		}

		name, hasAttrs := tokenizer.TagName()
		if len(name) != 1 || name[0] != 'a' || !hasAttrs {
			continue
		}

		var href, title string
		for {
			key, value, more := tokenizer.TagAttr()
			switch string(key) {
			case "href":
				href = string(value)
			case "title":
				title = string(value)
			}

			if !more {
				break
			}
		}

		if !IsValidWikiLink(href) {
			continue
		}

		if i, seen := index[href]; seen {
			set[i].Title = title

			continue
		}

		index[href] = len(set)
		set = append(set, Link{Href: href, Title: title})
	}
}
