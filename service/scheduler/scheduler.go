/*
	scheduler package implements the build scheduler service: it starts a
	build pass at a fixed daily wall-clock slot or on demand, and reacts
	to build outcome notifications by pruning old builds after every
	successful pass.
*/

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mycok/wikigraph/builder"
)

// Service represents the build scheduler service for the wikigraph
// application. It satisfies the service.Service interface.
type Service struct {
	config Config

	// Target wall-clock slot, parsed from config.BuildTime.
	slotHour   int
	slotMinute int

	trigger chan struct{}
}

// New creates and returns a fully configured build scheduler service
// instance.
func New(config Config) (*Service, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("scheduler service: config validation failed: %w", err)
	}

	slot, _ := time.Parse("15:04", config.BuildTime)

	return &Service{
		config:     config,
		slotHour:   slot.Hour(),
		slotMinute: slot.Minute(),
		trigger:    make(chan struct{}, 1),
	}, nil
}

// Name returns the name of the service.
func (svc *Service) Name() string { return "scheduler" }

// TriggerBuild requests an out-of-schedule build pass. The request is
// dropped when one is already pending.
func (svc *Service) TriggerBuild() {
	select {
	case svc.trigger <- struct{}{}:
	default:
	}
}

// Run executes the service and blocks until the context gets cancelled
// or an error occurs.
func (svc *Service) Run(ctx context.Context) error {
	svc.config.Logger.WithField(
		"build_time", svc.config.BuildTime,
	).Info("starting service")
	defer svc.config.Logger.Info("stopped service")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-svc.config.Clock.After(svc.untilNextSlot()):
			svc.runBuild(ctx)
		case <-svc.trigger:
			svc.runBuild(ctx)
		case event := <-svc.config.Builder.Notifications():
			svc.handleEvent(event)
		}
	}
}

// untilNextSlot returns the duration until the next occurrence of the
// configured daily build slot.
func (svc *Service) untilNextSlot() time.Duration {
	now := svc.config.Clock.Now()

	next := time.Date(
		now.Year(), now.Month(), now.Day(),
		svc.slotHour, svc.slotMinute, 0, 0, now.Location(),
	)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}

	return next.Sub(now)
}

// runBuild executes one build pass. Build failures are recorded by the
// builder and logged here; they never terminate the scheduler loop.
func (svc *Service) runBuild(ctx context.Context) {
	if err := svc.config.Builder.Build(ctx); err != nil {
		if errors.Is(err, builder.ErrBuildInProgress) {
			svc.config.Logger.Warn("skipping build pass: another build is in progress")

			return
		}

		svc.config.Logger.WithField("err", err).Error("build pass failed")
	}
}

func (svc *Service) handleEvent(event builder.Event) {
	logger := svc.config.Logger.WithField("build_id", event.BuildID)

	if event.Failed() {
		logger.WithField("err", event.Err).Error("build failed; old builds retained")

		return
	}

	if err := svc.config.Cleanup.CleanupOldBuilds(svc.config.KeepLast); err != nil {
		logger.WithField("err", err).Error("unable to clean up old builds")

		return
	}

	logger.WithField("keep_last", svc.config.KeepLast).Info("cleaned up old builds")
}
