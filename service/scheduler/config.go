package scheduler

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/juju/clock"
	"github.com/sirupsen/logrus"

	"github.com/mycok/wikigraph/builder"
)

// defaultBuildTime is the wall-clock slot at which the daily build pass
// runs when no explicit slot is configured.
const defaultBuildTime = "03:00"

// defaultKeepLast is the number of archived builds retained by the
// post-build cleanup when no explicit value is configured.
const defaultKeepLast = 3

// BuilderAPI defines a minimum set of API methods the scheduler needs
// for running build passes and observing their outcome.
type BuilderAPI interface {
	// Build executes one full build pass and blocks until it completes
	// or fails.
	Build(ctx context.Context) error

	// Notifications returns the channel on which build completion and
	// failure events are published.
	Notifications() <-chan builder.Event
}

// CleanupAPI defines a minimum set of API methods the scheduler needs
// for pruning old builds after a successful pass.
type CleanupAPI interface {
	// CleanupOldBuilds deletes archived builds and their pages and
	// connections, retaining the newest keepLast archived builds.
	CleanupOldBuilds(keepLast int) error
}

// Config defines configurations for the build scheduler service.
type Config struct {
	// An API for running build passes.
	Builder BuilderAPI

	// An API for pruning old builds.
	Cleanup CleanupAPI

	// The daily wall-clock slot ("HH:MM", 24-hour) at which a build
	// pass starts. Defaults to 03:00.
	BuildTime string

	// The number of archived builds retained by the post-build cleanup.
	// Defaults to 3.
	KeepLast int

	// A clock instance for generating time-related events. If not
	// specified, the default wall-clock will be used instead.
	Clock clock.Clock

	// The logger to use. If not defined an output-discarding logger
	// will be used instead.
	Logger *logrus.Entry
}

func (config *Config) validate() error {
	var err error

	if config.Builder == nil {
		err = multierror.Append(err, fmt.Errorf("builder API not provided"))
	}

	if config.Cleanup == nil {
		err = multierror.Append(err, fmt.Errorf("cleanup API not provided"))
	}

	if config.BuildTime == "" {
		config.BuildTime = defaultBuildTime
	}

	if _, parseErr := time.Parse("15:04", config.BuildTime); parseErr != nil {
		err = multierror.Append(err, fmt.Errorf("invalid value for build time, must be HH:MM"))
	}

	if config.KeepLast <= 0 {
		config.KeepLast = defaultKeepLast
	}

	if config.Clock == nil {
		config.Clock = clock.WallClock
	}

	if config.Logger == nil {
		config.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return err
}
