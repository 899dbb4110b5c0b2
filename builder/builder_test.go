package builder

import (
	"context"
	"errors"
	"sync"
	"testing"

	gomock "github.com/golang/mock/gomock"
	"github.com/google/uuid"
	check "gopkg.in/check.v1"

	"github.com/mycok/wikigraph/builder/mocks"
	"github.com/mycok/wikigraph/snapshot"
	"github.com/mycok/wikigraph/snapshot/store/memory"
	"github.com/mycok/wikigraph/wikisource"
)

const testBaseURL = "https://wiki.example.com"

// Initialize and register an instance of the builderTestSuite to be
// executed by check testing package.
var _ = check.Suite(new(builderTestSuite))

// Test registers the [check] library with the go testing library and enables
// the running of the test suite using the go testing library.
func Test(t *testing.T) {
	check.TestingT(t)
}

type builderTestSuite struct {
	store *memory.InMemoryStore
}

func (s *builderTestSuite) SetUpTest(c *check.C) {
	s.store = memory.NewInMemoryStore(testBaseURL)
}

func (s *builderTestSuite) newBuilder(c *check.C, source wikisource.Source) *Builder {
	b, err := New(Config{
		Source:          source,
		Pages:           s.store,
		Builds:          s.store,
		NumFetchWorkers: 2,
	})
	c.Assert(err, check.IsNil)

	return b
}

func (s *builderTestSuite) TestConfigValidation(c *check.C) {
	_, err := New(Config{})
	c.Assert(err, check.NotNil)

	_, err = New(Config{
		Source: &stubSource{},
		Pages:  s.store,
		Builds: s.store,
	})
	c.Assert(err, check.ErrorMatches, "(?s).*fetch workers.*")
}

func (s *builderTestSuite) TestBuildEndToEnd(c *check.C) {
	source := &stubSource{
		names: []string{"Alpha", "Beta"},
		pages: map[string]*wikisource.PageData{
			"Alpha": {
				WikiID: 1,
				Title:  "Alpha",
				URL:    testBaseURL + "/wiki/Alpha",
				HTML:   `<p>See <a href="/wiki/Beta" title="Beta">Beta</a> and <a href="/wiki/Missing">a dead end</a>.</p>`,
			},
			"Beta": {
				WikiID: 2,
				Title:  "Beta",
				URL:    testBaseURL + "/wiki/Beta",
				HTML:   `<p>No links here.</p>`,
			},
		},
	}

	b := s.newBuilder(c, source)
	c.Assert(b.Build(context.Background()), check.IsNil)

	event := <-b.Notifications()
	c.Assert(event.Failed(), check.Equals, false)
	c.Assert(event.Stats, check.DeepEquals, snapshot.BuildStats{
		PagesCount:       2,
		ConnectionsCount: 1,
	})

	// The completed build must now be the active one.
	_, err := s.store.ActiveBuildTimestamp()
	c.Assert(err, check.IsNil)

	alpha, err := s.store.FindPageByLink("/wiki/Alpha", event.BuildID)
	c.Assert(err, check.IsNil)
	c.Assert(alpha.TextContent, check.Equals, "See Beta and a dead end.")
	c.Assert(alpha.Links, check.DeepEquals, []string{"/wiki/Beta", "/wiki/Missing"})

	beta, err := s.store.FindPageByLink("/wiki/Beta", event.BuildID)
	c.Assert(err, check.IsNil)

	targets, err := s.store.Connections(alpha.ID)
	c.Assert(err, check.IsNil)
	c.Assert(targets, check.HasLen, 1)
	c.Assert(targets[0].ID, check.Equals, beta.ID)

	targets, err = s.store.Connections(beta.ID)
	c.Assert(err, check.IsNil)
	c.Assert(targets, check.HasLen, 0)
}

func (s *builderTestSuite) TestBuildSkipsFailedFetches(c *check.C) {
	source := &stubSource{
		names: []string{"Alpha", "Ghost"},
		pages: map[string]*wikisource.PageData{
			"Alpha": {
				WikiID: 1,
				Title:  "Alpha",
				URL:    testBaseURL + "/wiki/Alpha",
				HTML:   `<p>nothing</p>`,
			},
		},
	}

	b := s.newBuilder(c, source)
	c.Assert(b.Build(context.Background()), check.IsNil)

	event := <-b.Notifications()
	c.Assert(event.Failed(), check.Equals, false)
	c.Assert(event.Stats.PagesCount, check.Equals, 1)
}

func (s *builderTestSuite) TestBuildStartFailure(c *check.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()

	builds := mocks.NewMockBuildStoreAPI(ctrl)
	builds.EXPECT().StartBuild().Return(nil, snapshot.ErrNotFound)

	b, err := New(Config{
		Source:          &stubSource{},
		Pages:           mocks.NewMockPageStoreAPI(ctrl),
		Builds:          builds,
		NumFetchWorkers: 1,
	})
	c.Assert(err, check.IsNil)

	err = b.Build(context.Background())
	c.Assert(err, check.ErrorMatches, ".*unable to start a new build.*")
}

func (s *builderTestSuite) TestBuildUpsertFailureFailsBuild(c *check.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()

	buildID := uuid.New()

	builds := mocks.NewMockBuildStoreAPI(ctrl)
	builds.EXPECT().StartBuild().Return(&snapshot.Build{ID: buildID}, nil)
	builds.EXPECT().FailBuild(buildID, gomock.Any()).Return(nil)

	pages := mocks.NewMockPageStoreAPI(ctrl)
	pages.EXPECT().UpsertPage(gomock.Any()).Return(errUpsert)

	source := mocks.NewMockSource(ctrl)
	source.EXPECT().ListPageNames(gomock.Any()).Return([]string{"Alpha"})
	source.EXPECT().FetchPage(gomock.Any(), "Alpha").Return(&wikisource.PageData{
		WikiID: 1,
		Title:  "Alpha",
		URL:    testBaseURL + "/wiki/Alpha",
		HTML:   "<p>body</p>",
	})

	b, err := New(Config{
		Source:          source,
		Pages:           pages,
		Builds:          builds,
		NumFetchWorkers: 1,
	})
	c.Assert(err, check.IsNil)

	err = b.Build(context.Background())
	c.Assert(err, check.NotNil)

	event := <-b.Notifications()
	c.Assert(event.Failed(), check.Equals, true)
	c.Assert(event.BuildID, check.Equals, buildID)
}

func (s *builderTestSuite) TestConcurrentBuildsAreRejected(c *check.C) {
	source := &blockingSource{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}

	b := s.newBuilder(c, source)

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		_ = b.Build(context.Background())
	}()

	<-source.started
	c.Assert(b.Build(context.Background()), check.Equals, ErrBuildInProgress)

	close(source.release)
	wg.Wait()
}

var errUpsert = errors.New("store unavailable")

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

// blockingSource parks inside ListPageNames until released, keeping a
// build pass in flight for as long as the test needs.
type blockingSource struct {
	startOnce sync.Once
	started   chan struct{}
	release   chan struct{}
}

func (s *blockingSource) ListPageNames(context.Context) []string {
	s.startOnce.Do(func() { close(s.started) })
	<-s.release

	return nil
}

func (s *blockingSource) FetchPage(context.Context, string) *wikisource.PageData { return nil }
