package mediawiki

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	check "gopkg.in/check.v1"
)

// Initialize and register an instance of the mediaWikiClientTestSuite to
// be executed by check testing package.
var _ = check.Suite(new(mediaWikiClientTestSuite))

// Test registers the [check] library with the go testing library and enables
// the running of the test suite using the go testing library.
func Test(t *testing.T) {
	check.TestingT(t)
}

type mediaWikiClientTestSuite struct {
	server *httptest.Server
}

func (s *mediaWikiClientTestSuite) TearDownTest(c *check.C) {
	if s.server != nil {
		s.server.Close()
		s.server = nil
	}
}

func (s *mediaWikiClientTestSuite) newClient(handler http.HandlerFunc) *Client {
	s.server = httptest.NewServer(handler)

	return NewClient(s.server.URL, s.server.Client(), nil)
}

func (s *mediaWikiClientTestSuite) TestListPageNamesFollowsContinuation(c *check.C) {
	client := s.newClient(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("apcontinue") {
		case "":
			fmt.Fprint(w, `{
				"continue": {"apcontinue": "Second"},
				"query": {"allpages": [{"pageid": 1, "title": "First"}]}
			}`)
		case "Second":
			fmt.Fprint(w, `{
				"query": {"allpages": [
					{"pageid": 2, "title": "Second"},
					{"pageid": 3, "title": "Third"}
				]}
			}`)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})

	names := client.ListPageNames(context.Background())
	c.Assert(names, check.DeepEquals, []string{"First", "Second", "Third"})
}

func (s *mediaWikiClientTestSuite) TestListPageNamesAbsorbsFailures(c *check.C) {
	client := s.newClient(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	c.Assert(client.ListPageNames(context.Background()), check.HasLen, 0)
}

func (s *mediaWikiClientTestSuite) TestFetchPage(c *check.C) {
	client := s.newClient(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("action") {
		case "query":
			c.Check(r.URL.Query().Get("titles"), check.Equals, "Foo")
			fmt.Fprint(w, `{
				"query": {"pages": [{
					"pageid": 42,
					"title": "Foo",
					"fullurl": "https://wiki.example.com/wiki/Foo"
				}]}
			}`)
		case "parse":
			c.Check(r.URL.Query().Get("page"), check.Equals, "Foo")
			fmt.Fprint(w, `{
				"parse": {"pageid": 42, "title": "Foo", "text": "<p>body</p>"}
			}`)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})

	page := client.FetchPage(context.Background(), "Foo")
	c.Assert(page, check.Not(check.IsNil))
	c.Assert(page.WikiID, check.Equals, 42)
	c.Assert(page.Title, check.Equals, "Foo")
	c.Assert(page.URL, check.Equals, "https://wiki.example.com/wiki/Foo")
	c.Assert(page.HTML, check.Equals, "<p>body</p>")
}

func (s *mediaWikiClientTestSuite) TestFetchMissingPageReturnsNil(c *check.C) {
	client := s.newClient(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"query": {"pages": [{"title": "Ghost", "missing": true}]}}`)
	})

	c.Assert(client.FetchPage(context.Background(), "Ghost"), check.IsNil)
}

func (s *mediaWikiClientTestSuite) TestFetchPageAbsorbsFailures(c *check.C) {
	client := s.newClient(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	c.Assert(client.FetchPage(context.Background(), "Foo"), check.IsNil)
}

func (s *mediaWikiClientTestSuite) TestCallRetriesOnceOnFailure(c *check.C) {
	attempts := 0
	client := s.newClient(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusInternalServerError)

			return
		}

		fmt.Fprint(w, `{"query": {"allpages": [{"pageid": 1, "title": "Only"}]}}`)
	})

	names := client.ListPageNames(context.Background())
	c.Assert(names, check.DeepEquals, []string{"Only"})
	c.Assert(attempts, check.Equals, 2)
}
