package links

import (
	"testing"

	check "gopkg.in/check.v1"
)

// Initialize and register an instance of the linksTestSuite to be
// executed by check testing package.
var _ = check.Suite(new(linksTestSuite))

// Test registers the [check] library with the go testing library and enables
// the running of the test suite using the go testing library.
func Test(t *testing.T) {
	check.TestingT(t)
}

type linksTestSuite struct{}

func (s *linksTestSuite) TestValidatorAcceptsInternalWikiLinks(c *check.C) {
	for _, href := range []string{
		"/wiki/Desasombrado",
		"/wiki/Anfitrião",
		"/wiki/Ordem_Paranormal",
	} {
		c.Assert(IsValidWikiLink(href), check.Equals, true,
			check.Commentf("expected %q to be valid", href),
		)
	}
}

func (s *linksTestSuite) TestValidatorRejectsExternalLinks(c *check.C) {
	for _, href := range []string{
		"http://google.com",
		"https://google.com",
		"//example.com",
	} {
		c.Assert(IsValidWikiLink(href), check.Equals, false,
			check.Commentf("expected %q to be invalid", href),
		)
	}
}

func (s *linksTestSuite) TestValidatorRejectsReservedNamespaces(c *check.C) {
	for _, href := range []string{
		"/wiki/Arquivo:imagem.png",
		"/wiki/Especial:RecentChanges",
		"/wiki/Special:Search",
		"/wiki/Categoria:Personagens",
		"/wiki/Category:Characters",
	} {
		c.Assert(IsValidWikiLink(href), check.Equals, false,
			check.Commentf("expected %q to be invalid", href),
		)
	}
}

func (s *linksTestSuite) TestValidatorRejectsMalformedHrefs(c *check.C) {
	for _, href := range []string{"", "wiki/Page", "Page"} {
		c.Assert(IsValidWikiLink(href), check.Equals, false,
			check.Commentf("expected %q to be invalid", href),
		)
	}
}

func (s *linksTestSuite) TestExtractValidLinks(c *check.C) {
	html := `
		<a href="/wiki/Desasombrado" title="Desasombrado">Link1</a>
		<a href="/wiki/Anfitrião" title="Anfitrião">Link2</a>
		<a href="/wiki/Ordem_Paranormal" title="Ordem Paranormal">Link3</a>
	`

	set := ExtractLinks(html)
	c.Assert(set, check.DeepEquals, LinkSet{
		{Href: "/wiki/Desasombrado", Title: "Desasombrado"},
		{Href: "/wiki/Anfitrião", Title: "Anfitrião"},
		{Href: "/wiki/Ordem_Paranormal", Title: "Ordem Paranormal"},
	})
}

func (s *linksTestSuite) TestExtractFiltersInvalidLinks(c *check.C) {
	html := `
		<a href="/wiki/Desasombrado" title="Desasombrado">Internal</a>
		<a href="https://google.com" title="Google">External</a>
		<a href="http://example.com">Another External</a>
		<a href="/wiki/Arquivo:test.png" title="Image">File</a>
		<a href="/wiki/Especial:Search">Special PT</a>
		<a href="/wiki/Special:RecentChanges">Special EN</a>
		<a href="/wiki/Categoria:Test">Category PT</a>
		<a href="/wiki/Category:Test">Category EN</a>
	`

	set := ExtractLinks(html)
	c.Assert(set, check.DeepEquals, LinkSet{
		{Href: "/wiki/Desasombrado", Title: "Desasombrado"},
	})
}

func (s *linksTestSuite) TestExtractEdgeCases(c *check.C) {
	c.Assert(ExtractLinks(""), check.HasLen, 0)
	c.Assert(ExtractLinks("<div>No links here</div><p>Just text</p>"), check.HasLen, 0)

	// Missing or empty title attributes default to an empty title.
	set := ExtractLinks(`<a href="/wiki/Test">No Title</a>`)
	c.Assert(set, check.DeepEquals, LinkSet{{Href: "/wiki/Test", Title: ""}})

	set = ExtractLinks(`<a href="/wiki/Test" title="">Empty Title</a>`)
	c.Assert(set, check.DeepEquals, LinkSet{{Href: "/wiki/Test", Title: ""}})
}

func (s *linksTestSuite) TestExtractDeduplicatesByHref(c *check.C) {
	html := `
		<a href="/wiki/Desasombrado" title="Desasombrado">First</a>
		<a href="/wiki/Desasombrado" title="Desasombrado">Duplicate</a>
	`

	set := ExtractLinks(html)
	c.Assert(set, check.HasLen, 1)
	c.Assert(set[0].Title, check.Equals, "Desasombrado")
}

func (s *linksTestSuite) TestResolvePageIDs(c *check.C) {
	set := LinkSet{
		{Href: "/wiki/Desasombrado", Title: "Desasombrado"},
		{Href: "/wiki/Anfitrião", Title: "Anfitrião"},
		{Href: "/wiki/Ordem_Paranormal", Title: "Ordem Paranormal"},
	}
	titleToID := map[string]int{
		"Desasombrado":    1827,
		"Anfitrião":       2,
		"Ordem Paranormal": 100,
	}

	c.Assert(ResolvePageIDs(set, titleToID), check.DeepEquals, []int{1827, 2, 100})
}

func (s *linksTestSuite) TestResolveSkipsUnknownTitles(c *check.C) {
	set := LinkSet{
		{Href: "/wiki/Exists", Title: "Exists"},
		{Href: "/wiki/NotFound", Title: "NotFound"},
		{Href: "/wiki/AlsoExists", Title: "AlsoExists"},
	}
	titleToID := map[string]int{"Exists": 1, "AlsoExists": 3}

	c.Assert(ResolvePageIDs(set, titleToID), check.DeepEquals, []int{1, 3})
}

func (s *linksTestSuite) TestResolveEmptyInputs(c *check.C) {
	c.Assert(ResolvePageIDs(nil, map[string]int{"Test": 1}), check.HasLen, 0)
	c.Assert(
		ResolvePageIDs(LinkSet{{Href: "/wiki/Test", Title: "Test"}}, nil),
		check.HasLen, 0,
	)
	c.Assert(ResolvePageIDs(nil, nil), check.HasLen, 0)
}

func (s *linksTestSuite) TestResolvePreservesExtractionOrder(c *check.C) {
	set := LinkSet{
		{Href: "/wiki/Third", Title: "Third"},
		{Href: "/wiki/First", Title: "First"},
		{Href: "/wiki/Second", Title: "Second"},
	}
	titleToID := map[string]int{"First": 1, "Second": 2, "Third": 3}

	// Output order follows the link set order, not the lookup table.
	c.Assert(ResolvePageIDs(set, titleToID), check.DeepEquals, []int{3, 1, 2})
}

func (s *linksTestSuite) TestExtractThenResolve(c *check.C) {
	html := `<a href="/wiki/Foo" title="Foo">x</a><a href="https://ext.com">y</a>`

	set := ExtractLinks(html)
	c.Assert(set, check.DeepEquals, LinkSet{{Href: "/wiki/Foo", Title: "Foo"}})

	c.Assert(
		ResolvePageIDs(set, map[string]int{"Foo": 42}),
		check.DeepEquals, []int{42},
	)
}
