package api

import (
	"context"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/mycok/wikigraph/dataset"
)

// DatasetAPI defines a minimum set of API methods the HTTP surface
// needs for answering dataset queries.
type DatasetAPI interface {
	// GetAllPages returns the full set of pages the wiki currently
	// reports.
	GetAllPages(ctx context.Context) []dataset.Page

	// GetPageConnections returns the ids of the pages the named page
	// links to.
	GetPageConnections(ctx context.Context, name string) ([]int, error)
}

// SchedulerAPI defines a minimum set of API methods the HTTP surface
// needs for requesting out-of-schedule build passes.
type SchedulerAPI interface {
	// TriggerBuild requests an out-of-schedule build pass.
	TriggerBuild()
}

// CleanupAPI defines a minimum set of API methods the HTTP surface
// needs for pruning old builds on demand.
type CleanupAPI interface {
	// CleanupOldBuilds deletes archived builds and their pages and
	// connections, retaining the newest keepLast archived builds.
	CleanupOldBuilds(keepLast int) error
}

// Config defines configurations for the HTTP API service.
type Config struct {
	// An API for answering dataset queries.
	Dataset DatasetAPI

	// An API for requesting build passes.
	Scheduler SchedulerAPI

	// An API for pruning old builds.
	Cleanup CleanupAPI

	// The address to listen for incoming HTTP requests on.
	ListenAddr string

	// The logger to use. If not defined an output-discarding logger
	// will be used instead.
	Logger *logrus.Entry
}

func (config *Config) validate() error {
	var err error

	if config.Dataset == nil {
		err = multierror.Append(err, fmt.Errorf("dataset API not provided"))
	}

	if config.Scheduler == nil {
		err = multierror.Append(err, fmt.Errorf("scheduler API not provided"))
	}

	if config.Cleanup == nil {
		err = multierror.Append(err, fmt.Errorf("cleanup API not provided"))
	}

	if config.ListenAddr == "" {
		err = multierror.Append(err, fmt.Errorf("listen address not provided"))
	}

	if config.Logger == nil {
		config.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return err
}
