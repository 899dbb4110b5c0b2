/*
	wikisource package defines the capability contract presented by the
	external wiki content source. Implementations normalize source
	failures into absent / empty results: errors never cross this
	boundary, so callers always receive a well-typed result.
*/

package wikisource

import "context"

// PageData carries the metadata and raw HTML of a single wiki page.
type PageData struct {
	// WikiID is the stable page identifier assigned by the wiki itself.
	WikiID int

	// Title is the canonical page title.
	Title string

	// URL is the full canonical page URL.
	URL string

	// HTML is the rendered page body.
	HTML string
}

// Source should be implemented by types that expose wiki content.
type Source interface {
	// ListPageNames enumerates the titles of all content pages. Any
	// source failure yields an empty slice.
	ListPageNames(ctx context.Context) []string

	// FetchPage retrieves the metadata and HTML for the page with the
	// provided title. Any source failure, including a missing page,
	// yields nil.
	FetchPage(ctx context.Context, title string) *PageData
}
