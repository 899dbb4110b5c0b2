package links

import "strings"

// reservedPrefixes lists the wiki namespace prefixes that denote
// non-content pages (files, special pages, categories), in both the
// Portuguese and English spellings used by the wiki.
var reservedPrefixes = []string{
	"/wiki/Arquivo:",
	"/wiki/Especial:",
	"/wiki/Special:",
	"/wiki/Categoria:",
	"/wiki/Category:",
}

// IsValidWikiLink reports whether href points to an internal wiki
// content page. External and protocol-relative URLs, hrefs without a
// leading slash and reserved-namespace pages are rejected.
func IsValidWikiLink(href string) bool {
	if href == "" {
		return false
	}

	// Reject protocol-relative URLs and external links.
	if strings.HasPrefix(href, "//") ||
		strings.HasPrefix(href, "http://") ||
		strings.HasPrefix(href, "https://") {

		return false
	}

	if !strings.HasPrefix(href, "/") {
		return false
	}

	for _, prefix := range reservedPrefixes {
		if strings.HasPrefix(href, prefix) {
			return false
		}
	}

	return true
}
