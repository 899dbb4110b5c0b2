/*
	service package defines the long-running service contract shared by
	the wikigraph components and a group runner that executes them under
	a single cancellable context.
*/

package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// Service describes a long-running wikigraph component.
type Service interface {
	// Name returns the name of the service.
	Name() string

	// Run executes the service and blocks until the context gets
	// cancelled or an error occurs.
	Run(context.Context) error
}

// Group is a list of Service instances that execute in parallel.
type Group []Service

// Execute runs every service in the group using the provided context
// and blocks until all of them have exited. The first service error
// cancels the shared context, so one failing service brings the whole
// group down.
func (g Group) Execute(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	executionCtx, cancelFn := context.WithCancel(ctx)
	defer cancelFn()

	var wg sync.WaitGroup
	wg.Add(len(g))

	errCh := make(chan error, len(g))

	for _, s := range g {
		go func(s Service) {
			defer wg.Done()

			if err := s.Run(executionCtx); err != nil {
				errCh <- fmt.Errorf("%s: %w", s.Name(), err)

				cancelFn()
			}
		}(s)
	}

	<-executionCtx.Done()

	wg.Wait()

	close(errCh)

	// Collect and accumulate any reported errors.
	var err error
	for srvErr := range errCh {
		err = multierror.Append(err, srvErr)
	}

	return err
}
