package dataset

import (
	"context"
	"errors"
	"testing"

	check "gopkg.in/check.v1"

	"github.com/mycok/wikigraph/wikisource"
)

// Initialize and register an instance of the datasetTestSuite to be
// executed by check testing package.
var _ = check.Suite(new(datasetTestSuite))

// Test registers the [check] library with the go testing library and enables
// the running of the test suite using the go testing library.
func Test(t *testing.T) {
	check.TestingT(t)
}

type datasetTestSuite struct{}

func (s *datasetTestSuite) newService(c *check.C, source wikisource.Source) *Service {
	svc, err := New(Config{Source: source, NumWorkers: 2})
	c.Assert(err, check.IsNil)

	return svc
}

func (s *datasetTestSuite) TestConfigValidation(c *check.C) {
	_, err := New(Config{})
	c.Assert(err, check.ErrorMatches, "(?s).*wiki source API not provided.*")
}

func (s *datasetTestSuite) TestGetAllPages(c *check.C) {
	source := &stubSource{
		names: []string{"Alpha", "Ghost", "Beta"},
		pages: map[string]*wikisource.PageData{
			"Alpha": {WikiID: 1, Title: "Alpha", URL: "https://wiki.example.com/wiki/Alpha"},
			"Beta":  {WikiID: 2, Title: "Beta", URL: "https://wiki.example.com/wiki/Beta"},
		},
	}

	pages := s.newService(c, source).GetAllPages(context.Background())
	c.Assert(pages, check.DeepEquals, []Page{
		{ID: 1, Name: "Alpha", Link: "https://wiki.example.com/wiki/Alpha"},
		{ID: 2, Name: "Beta", Link: "https://wiki.example.com/wiki/Beta"},
	})
}

func (s *datasetTestSuite) TestGetPageConnectionsPreservesDocumentOrder(c *check.C) {
	source := &stubSource{
		pages: map[string]*wikisource.PageData{
			"Hub": {
				WikiID: 10,
				Title:  "Hub",
				HTML: `<p>
					<a href="/wiki/Third" title="Third">t</a>
					<a href="/wiki/First" title="First">f</a>
					<a href="/wiki/Second" title="Second">s</a>
					<a href="/wiki/Unknown" title="Unknown">u</a>
				</p>`,
			},
			"First":  {WikiID: 1, Title: "First"},
			"Second": {WikiID: 2, Title: "Second"},
			"Third":  {WikiID: 3, Title: "Third"},
		},
	}

	ids, err := s.newService(c, source).GetPageConnections(context.Background(), "Hub")
	c.Assert(err, check.IsNil)
	c.Assert(ids, check.DeepEquals, []int{3, 1, 2})
}

func (s *datasetTestSuite) TestGetPageConnectionsSkipsInvalidLinks(c *check.C) {
	source := &stubSource{
		pages: map[string]*wikisource.PageData{
			"Hub": {
				WikiID: 10,
				Title:  "Hub",
				HTML: `<p>
					<a href="https://elsewhere.example.com" title="External">x</a>
					<a href="/wiki/Special:Export" title="Export">x</a>
					<a href="/wiki/First" title="First">f</a>
				</p>`,
			},
			"First": {WikiID: 1, Title: "First"},
		},
	}

	ids, err := s.newService(c, source).GetPageConnections(context.Background(), "Hub")
	c.Assert(err, check.IsNil)
	c.Assert(ids, check.DeepEquals, []int{1})
}

func (s *datasetTestSuite) TestGetPageConnectionsUnknownPage(c *check.C) {
	svc := s.newService(c, &stubSource{})

	_, err := svc.GetPageConnections(context.Background(), "Ghost")
	c.Assert(errors.Is(err, ErrPageNotFound), check.Equals, true)
}

// stubSource serves a fixed page set, returning nil for titles it does
// not know about.
type stubSource struct {
	names []string
	pages map[string]*wikisource.PageData
}

func (s *stubSource) ListPageNames(context.Context) []string { return s.names }

func (s *stubSource) FetchPage(_ context.Context, title string) *wikisource.PageData {
	return s.pages[title]
}
