package builder

import (
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/juju/clock"
	"github.com/sirupsen/logrus"

	"github.com/mycok/wikigraph/snapshot"
	"github.com/mycok/wikigraph/wikisource"
)

// PageStoreAPI defines a minimum set of API methods the builder needs
// for persisting pages and connections.
type PageStoreAPI interface {
	// UpsertPage creates a new or updates an existing page.
	UpsertPage(page *snapshot.Page) error

	// Pages returns an iterator for the set of pages that belong to the
	// build with the provided id.
	Pages(buildID uuid.UUID) (snapshot.PageIterator, error)

	// FindPageByLink performs a page lookup by relative link scoped to
	// the build with the provided id.
	FindPageByLink(link string, buildID uuid.UUID) (*snapshot.Page, error)

	// CreateConnection inserts a connection / edge row.
	CreateConnection(originID, targetID, buildID uuid.UUID) error
}

// BuildStoreAPI defines a minimum set of API methods the builder needs
// for recording build lifecycle transitions.
type BuildStoreAPI interface {
	// StartBuild creates a new build row with a building status.
	StartBuild() (*snapshot.Build, error)

	// CompleteBuild promotes the build with the provided id to active
	// and demotes every other active build to archived.
	CompleteBuild(id uuid.UUID, stats snapshot.BuildStats) error

	// FailBuild records an error message and completion time for the
	// build with the provided id.
	FailBuild(id uuid.UUID, errMsg string) error
}

// Config defines configurations for the snapshot builder.
type Config struct {
	// An API for enumerating and fetching wiki pages.
	Source wikisource.Source

	// An API for persisting pages and connections.
	Pages PageStoreAPI

	// An API for recording build lifecycle transitions.
	Builds BuildStoreAPI

	// The number of concurrent workers used for fetching and storing
	// pages and for resolving links.
	NumFetchWorkers int

	// A clock instance for generating time-related events. If not
	// specified, the default wall-clock will be used instead.
	Clock clock.Clock

	// The logger to use. If not defined an output-discarding logger
	// will be used instead.
	Logger *logrus.Entry
}

func (config *Config) validate() error {
	var err error

	if config.Source == nil {
		err = multierror.Append(err, fmt.Errorf("wiki source API not provided"))
	}

	if config.Pages == nil {
		err = multierror.Append(err, fmt.Errorf("page store API not provided"))
	}

	if config.Builds == nil {
		err = multierror.Append(err, fmt.Errorf("build store API not provided"))
	}

	if config.NumFetchWorkers <= 0 {
		err = multierror.Append(err, fmt.Errorf("invalid value for fetch workers, must be > 0"))
	}

	if config.Clock == nil {
		config.Clock = clock.WallClock
	}

	if config.Logger == nil {
		config.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return err
}
