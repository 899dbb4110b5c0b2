/*
	storetest package defines a set of re-usable snapshot store tests that
	can be executed against any concrete type that implements the
	snapshot.Store interface.
*/

package storetest

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	check "gopkg.in/check.v1"

	"github.com/mycok/wikigraph/snapshot"
)

// BaseSuite defines a set of re-usable store-related tests that can be
// executed against any concrete type that implements the snapshot.Store
// interface.
type BaseSuite struct {
	s       snapshot.Store
	baseURL string
}

// SetStore configures the test-suite to run all tests against an
// instance of snapshot.Store. baseURL must match the base wiki URL the
// store was configured with.
func (s *BaseSuite) SetStore(store snapshot.Store, baseURL string) {
	s.s = store
	s.baseURL = baseURL
}

// TestStartBuild verifies that new builds receive unique, increasing
// build timestamps and a building status.
func (s *BaseSuite) TestStartBuild(c *check.C) {
	first, err := s.s.StartBuild()
	c.Assert(err, check.IsNil)
	c.Assert(first.ID, check.Not(check.Equals), uuid.Nil)
	c.Assert(first.Status, check.Equals, snapshot.StatusBuilding)

	second, err := s.s.StartBuild()
	c.Assert(err, check.IsNil)
	c.Assert(second.ID, check.Not(check.Equals), first.ID)
	c.Assert(
		second.BuildTimestamp.After(first.BuildTimestamp), check.Equals, true,
		check.Commentf("build timestamps must be monotonically increasing"),
	)

	// No build has been completed yet.
	_, err = s.s.ActiveBuildTimestamp()
	c.Assert(errors.Is(err, snapshot.ErrNotFound), check.Equals, true)
}

// TestCompleteBuildArchivesPrevious verifies the building -> active
// transition and the demotion of the previously active build.
func (s *BaseSuite) TestCompleteBuildArchivesPrevious(c *check.C) {
	g1, err := s.s.StartBuild()
	c.Assert(err, check.IsNil)

	err = s.s.CompleteBuild(g1.ID, snapshot.BuildStats{PagesCount: 2})
	c.Assert(err, check.IsNil)

	ts, err := s.s.ActiveBuildTimestamp()
	c.Assert(err, check.IsNil)
	c.Assert(ts.Equal(g1.BuildTimestamp), check.Equals, true)

	g2, err := s.s.StartBuild()
	c.Assert(err, check.IsNil)

	err = s.s.CompleteBuild(g2.ID, snapshot.BuildStats{PagesCount: 3, ConnectionsCount: 1})
	c.Assert(err, check.IsNil)

	// G2 is now active and G1 has been archived: the active build
	// timestamp must be G2's.
	ts, err = s.s.ActiveBuildTimestamp()
	c.Assert(err, check.IsNil)
	c.Assert(ts.Equal(g2.BuildTimestamp), check.Equals, true)
	c.Assert(ts.Equal(g1.BuildTimestamp), check.Equals, false)
}

// TestCompleteUnknownBuild verifies completion of a missing build fails.
func (s *BaseSuite) TestCompleteUnknownBuild(c *check.C) {
	err := s.s.CompleteBuild(uuid.New(), snapshot.BuildStats{})
	c.Assert(errors.Is(err, snapshot.ErrNotFound), check.Equals, true)
}

// TestFailBuild verifies that a failed build never becomes active.
func (s *BaseSuite) TestFailBuild(c *check.C) {
	active, err := s.s.StartBuild()
	c.Assert(err, check.IsNil)
	c.Assert(s.s.CompleteBuild(active.ID, snapshot.BuildStats{}), check.IsNil)

	failed, err := s.s.StartBuild()
	c.Assert(err, check.IsNil)

	err = s.s.FailBuild(failed.ID, "wiki source unreachable")
	c.Assert(err, check.IsNil)

	// The previously active build remains authoritative.
	ts, err := s.s.ActiveBuildTimestamp()
	c.Assert(err, check.IsNil)
	c.Assert(ts.Equal(active.BuildTimestamp), check.Equals, true)
}

// TestPageUpsert verifies the page upsert logic, including idempotence
// on the (wiki id, build id) natural key.
func (s *BaseSuite) TestPageUpsert(c *check.C) {
	build, err := s.s.StartBuild()
	c.Assert(err, check.IsNil)

	initial := s.testPage(42, "Foo", "/wiki/Foo", build.ID)
	err = s.s.UpsertPage(initial)
	c.Assert(err, check.IsNil)
	c.Assert(initial.ID, check.Not(check.Equals), uuid.Nil,
		check.Commentf("Expected an ID to be assigned to the new page."),
	)

	// Upsert a capture of the same wiki page within the same build. The
	// operation should convert to an update with the second call's
	// fields winning.
	updated := s.testPage(42, "Foo", "/wiki/Foo", build.ID)
	updated.HTML = "<p>updated</p>"
	updated.Links = []string{"/wiki/Bar"}

	err = s.s.UpsertPage(updated)
	c.Assert(err, check.IsNil)
	c.Assert(updated.ID, check.Equals, initial.ID,
		check.Commentf("ID changed during upsert"),
	)

	stored, err := s.s.FindPage(initial.ID)
	c.Assert(err, check.IsNil)
	c.Assert(stored.HTML, check.Equals, "<p>updated</p>")
	c.Assert(stored.Links, check.DeepEquals, []string{"/wiki/Bar"})

	// Exactly one row exists for the natural key.
	c.Assert(s.countPages(c, build.ID), check.Equals, 1)

	// The same wiki page captured by a different build is a distinct row.
	otherBuild, err := s.s.StartBuild()
	c.Assert(err, check.IsNil)

	other := s.testPage(42, "Foo", "/wiki/Foo", otherBuild.ID)
	err = s.s.UpsertPage(other)
	c.Assert(err, check.IsNil)
	c.Assert(other.ID, check.Not(check.Equals), initial.ID)
}

// TestPageUpsertWithUnknownBuild verifies that page writes require an
// existing owning build.
func (s *BaseSuite) TestPageUpsertWithUnknownBuild(c *check.C) {
	page := s.testPage(1, "Orphan", "/wiki/Orphan", uuid.New())

	err := s.s.UpsertPage(page)
	c.Assert(err, check.Not(check.IsNil))
}

// TestFindPageByLink verifies URL-based lookups scoped to a build.
func (s *BaseSuite) TestFindPageByLink(c *check.C) {
	build, err := s.s.StartBuild()
	c.Assert(err, check.IsNil)

	page := s.testPage(7, "Desasombrado", "/wiki/Desasombrado", build.ID)
	c.Assert(s.s.UpsertPage(page), check.IsNil)

	found, err := s.s.FindPageByLink("/wiki/Desasombrado", build.ID)
	c.Assert(err, check.IsNil)
	c.Assert(found.ID, check.Equals, page.ID)

	// Lookup within another build must not resolve.
	otherBuild, err := s.s.StartBuild()
	c.Assert(err, check.IsNil)

	_, err = s.s.FindPageByLink("/wiki/Desasombrado", otherBuild.ID)
	c.Assert(errors.Is(err, snapshot.ErrNotFound), check.Equals, true)

	_, err = s.s.FindPageByLink("/wiki/Unknown", build.ID)
	c.Assert(errors.Is(err, snapshot.ErrNotFound), check.Equals, true)
}

// TestConnections verifies edge creation, resolution and removal.
func (s *BaseSuite) TestConnections(c *check.C) {
	build, err := s.s.StartBuild()
	c.Assert(err, check.IsNil)

	origin := s.testPage(1, "A", "/wiki/A", build.ID)
	target := s.testPage(2, "B", "/wiki/B", build.ID)
	c.Assert(s.s.UpsertPage(origin), check.IsNil)
	c.Assert(s.s.UpsertPage(target), check.IsNil)

	err = s.s.CreateConnection(origin.ID, target.ID, build.ID)
	c.Assert(err, check.IsNil)

	targets, err := s.s.Connections(origin.ID)
	c.Assert(err, check.IsNil)
	c.Assert(targets, check.HasLen, 1)
	c.Assert(targets[0].ID, check.Equals, target.ID)

	// The target page has no outgoing connections.
	targets, err = s.s.Connections(target.ID)
	c.Assert(err, check.IsNil)
	c.Assert(targets, check.HasLen, 0)

	err = s.s.RemoveConnections(origin.ID, build.ID)
	c.Assert(err, check.IsNil)

	targets, err = s.s.Connections(origin.ID)
	c.Assert(err, check.IsNil)
	c.Assert(targets, check.HasLen, 0)
}

// TestConnectionWithUnknownPages verifies the referential integrity
// checks for edge creation.
func (s *BaseSuite) TestConnectionWithUnknownPages(c *check.C) {
	build, err := s.s.StartBuild()
	c.Assert(err, check.IsNil)

	page := s.testPage(1, "A", "/wiki/A", build.ID)
	c.Assert(s.s.UpsertPage(page), check.IsNil)

	err = s.s.CreateConnection(page.ID, uuid.New(), build.ID)
	c.Assert(errors.Is(err, snapshot.ErrUnknownConnectionPages), check.Equals, true)

	err = s.s.CreateConnection(uuid.New(), page.ID, build.ID)
	c.Assert(errors.Is(err, snapshot.ErrUnknownConnectionPages), check.Equals, true)
}

// TestPagesIterator verifies build-scoped page iteration.
func (s *BaseSuite) TestPagesIterator(c *check.C) {
	build, err := s.s.StartBuild()
	c.Assert(err, check.IsNil)
	otherBuild, err := s.s.StartBuild()
	c.Assert(err, check.IsNil)

	for i := 0; i < 3; i++ {
		page := s.testPage(
			i, fmt.Sprintf("Page-%d", i), fmt.Sprintf("/wiki/Page-%d", i), build.ID,
		)
		c.Assert(s.s.UpsertPage(page), check.IsNil)
	}

	stranger := s.testPage(9, "Stranger", "/wiki/Stranger", otherBuild.ID)
	c.Assert(s.s.UpsertPage(stranger), check.IsNil)

	c.Assert(s.countPages(c, build.ID), check.Equals, 3)
	c.Assert(s.countPages(c, otherBuild.ID), check.Equals, 1)
	// uuid.Nil matches pages from every build.
	c.Assert(s.countPages(c, uuid.Nil), check.Equals, 4)
}

// TestCleanupOldBuilds verifies that cleanup retains only the keepLast
// most recent archived builds and cascades to owned rows.
func (s *BaseSuite) TestCleanupOldBuilds(c *check.C) {
	// Create 5 builds and archive them all by activating a 6th one.
	var archived []*snapshot.Build
	for i := 0; i < 5; i++ {
		build, err := s.s.StartBuild()
		c.Assert(err, check.IsNil)

		page := s.testPage(i, fmt.Sprintf("P-%d", i), fmt.Sprintf("/wiki/P-%d", i), build.ID)
		c.Assert(s.s.UpsertPage(page), check.IsNil)
		c.Assert(s.s.CreateConnection(page.ID, page.ID, build.ID), check.IsNil)

		c.Assert(s.s.CompleteBuild(build.ID, snapshot.BuildStats{PagesCount: 1}), check.IsNil)

		archived = append(archived, build)
	}

	final, err := s.s.StartBuild()
	c.Assert(err, check.IsNil)
	c.Assert(s.s.CompleteBuild(final.ID, snapshot.BuildStats{}), check.IsNil)

	err = s.s.CleanupOldBuilds(2)
	c.Assert(err, check.IsNil)

	// The 3 oldest archived builds are gone together with their pages
	// and connections; the 2 most recent archived builds survive.
	for i, build := range archived {
		pageCount := s.countPages(c, build.ID)
		if i < 3 {
			c.Assert(pageCount, check.Equals, 0,
				check.Commentf("build %d should have been pruned", i),
			)
		} else {
			c.Assert(pageCount, check.Equals, 1,
				check.Commentf("build %d should have been retained", i),
			)
		}
	}

	// The active build is never subject to cleanup.
	ts, err := s.s.ActiveBuildTimestamp()
	c.Assert(err, check.IsNil)
	c.Assert(ts.Equal(final.BuildTimestamp), check.Equals, true)
}

// testPage assembles a page capture whose URL follows the store's base
// wiki URL convention.
func (s *BaseSuite) testPage(wikiID int, title, link string, buildID uuid.UUID) *snapshot.Page {
	return &snapshot.Page{
		WikiID:      wikiID,
		Title:       title,
		URL:         s.baseURL + link,
		HTML:        "<html><body>" + title + "</body></html>",
		TextContent: title,
		Links:       []string{},
		BuildID:     buildID,
	}
}

// countPages drains a page iterator for the provided build.
func (s *BaseSuite) countPages(c *check.C, buildID uuid.UUID) int {
	it, err := s.s.Pages(buildID)
	c.Assert(err, check.IsNil)

	count := 0
	for it.Next() {
		c.Assert(it.Page(), check.Not(check.IsNil))
		count++
	}

	c.Assert(it.Error(), check.IsNil)
	c.Assert(it.Close(), check.IsNil)

	return count
}
