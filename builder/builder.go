/*
	builder package implements the snapshot build orchestrator. A single
	build pass creates a new generation, captures every reachable wiki
	page into it (fetch phase), derives the page connection graph from
	the links recorded on each captured page (link phase) and finally
	promotes the generation to active. Failures during the pass mark the
	generation as failed and leave the previously active generation
	untouched for readers.
*/

package builder

import (
	"context"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/sirupsen/logrus"

	"github.com/mycok/wikigraph/links"
	"github.com/mycok/wikigraph/snapshot"
)

// ErrBuildInProgress is returned when a build is requested while another
// build is still running. Only one build may run at a time.
var ErrBuildInProgress = errors.New("a build is already in progress")

// notificationBuffer bounds the number of unconsumed build lifecycle
// notifications.
const notificationBuffer = 16

var repeatedSpaceRegex = regexp.MustCompile(`\s+`)

// Event describes the outcome of a completed build pass.
type Event struct {
	// BuildID identifies the build the event refers to.
	BuildID uuid.UUID

	// Stats carries the recorded counters. Only populated on success.
	Stats snapshot.BuildStats

	// Err is the failure that aborted the build, nil on success.
	Err error
}

// Failed returns true when the event describes a failed build.
func (e Event) Failed() bool { return e.Err != nil }

// Builder drives complete crawl-and-persist build passes.
type Builder struct {
	config Config

	// Serializes build passes: a second Build call returns
	// ErrBuildInProgress instead of overlapping.
	runMu sync.Mutex

	notifications chan Event

	policyPool sync.Pool
}

// New creates and returns a fully configured snapshot builder.
func New(config Config) (*Builder, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("builder: config validation failed: %w", err)
	}

	return &Builder{
		config:        config,
		notifications: make(chan Event, notificationBuffer),
		policyPool: sync.Pool{
			New: func() interface{} {
				return bluemonday.StrictPolicy()
			},
		},
	}, nil
}

// Notifications returns the channel on which build completion and
// failure events are published. Events are dropped when the channel
// buffer is full.
func (b *Builder) Notifications() <-chan Event {
	return b.notifications
}

// Build executes one full build pass and blocks until it completes or
// fails. It returns ErrBuildInProgress when another pass is running.
func (b *Builder) Build(ctx context.Context) error {
	if !b.runMu.TryLock() {
		return ErrBuildInProgress
	}
	defer b.runMu.Unlock()

	build, err := b.config.Builds.StartBuild()
	if err != nil {
		return fmt.Errorf("builder: unable to start a new build: %w", err)
	}

	logger := b.config.Logger.WithField("build_id", build.ID)
	logger.Info("started build pass")

	startedAt := b.config.Clock.Now()

	stats, err := b.run(ctx, build.ID, logger)
	if err == nil {
		err = b.config.Builds.CompleteBuild(build.ID, stats)
	}

	if err != nil {
		logger.WithField("err", err).Error("build pass failed")

		if failErr := b.config.Builds.FailBuild(build.ID, err.Error()); failErr != nil {
			logger.WithField("err", failErr).Error("could not record build failure")
		}

		b.publish(Event{BuildID: build.ID, Err: err}, logger)

		return fmt.Errorf("builder: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"page_count":       stats.PagesCount,
		"connection_count": stats.ConnectionsCount,
		"elapsed_time":     b.config.Clock.Now().Sub(startedAt).String(),
	}).Info("successfully completed build pass")

	b.publish(Event{BuildID: build.ID, Stats: stats}, logger)

	return nil
}

func (b *Builder) run(
	ctx context.Context, buildID uuid.UUID, logger *logrus.Entry,
) (snapshot.BuildStats, error) {

	if err := b.fetchPhase(ctx, buildID, logger); err != nil {
		return snapshot.BuildStats{}, err
	}

	// The link phase reads the complete page set back from the store,
	// so it must not start until every fetch worker has finished.
	return b.linkPhase(ctx, buildID, logger)
}

// fetchPhase enumerates all wiki page titles and captures each page into
// the current build using a pool of fetch workers. Pages that fail to
// fetch are skipped; pages that fail to store abort the build.
func (b *Builder) fetchPhase(
	ctx context.Context, buildID uuid.UUID, logger *logrus.Entry,
) error {

	names := b.config.Source.ListPageNames(ctx)
	logger.WithField("page_count", len(names)).Info("started fetch phase")

	var (
		wg       sync.WaitGroup
		errOnce  sync.Mutex
		firstErr error
	)

	recordErr := func(err error) {
		errOnce.Lock()
		if firstErr == nil {
			firstErr = err
		}
		errOnce.Unlock()
	}

	nameCh := make(chan string)

	for i := 0; i < b.config.NumFetchWorkers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for name := range nameCh {
				if ctx.Err() != nil {
					continue
				}

				b.capturePage(ctx, buildID, name, logger, recordErr)
			}
		}()
	}

	for _, name := range names {
		nameCh <- name
	}

	close(nameCh)
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}

	return ctx.Err()
}

// capturePage fetches a single page, extracts its valid internal links
// and plain-text body and upserts the capture into the page store.
func (b *Builder) capturePage(
	ctx context.Context, buildID uuid.UUID, name string,
	logger *logrus.Entry, recordErr func(error),
) {

	pageData := b.config.Source.FetchPage(ctx, name)
	if pageData == nil {
		logger.WithField("title", name).Warn("skipping page: fetch failed")

		return
	}

	page := &snapshot.Page{
		WikiID:      pageData.WikiID,
		Title:       pageData.Title,
		URL:         pageData.URL,
		HTML:        pageData.HTML,
		TextContent: b.extractText(pageData.HTML),
		Links:       links.ExtractLinks(pageData.HTML).Hrefs(),
		BuildID:     buildID,
	}

	if err := b.config.Pages.UpsertPage(page); err != nil {
		recordErr(err)
	}
}

// linkPhase reads back every page captured into the build and resolves
// each of its recorded links to a target page within the same build,
// creating one connection per resolved link.
func (b *Builder) linkPhase(
	ctx context.Context, buildID uuid.UUID, logger *logrus.Entry,
) (snapshot.BuildStats, error) {

	it, err := b.config.Pages.Pages(buildID)
	if err != nil {
		return snapshot.BuildStats{}, fmt.Errorf("unable to retrieve pages iterator: %w", err)
	}

	var pages []*snapshot.Page
	for it.Next() {
		pages = append(pages, it.Page())
	}

	if err = it.Error(); err != nil {
		_ = it.Close()

		return snapshot.BuildStats{}, fmt.Errorf("unable to iterate pages: %w", err)
	}
	if err = it.Close(); err != nil {
		return snapshot.BuildStats{}, fmt.Errorf("unable to iterate pages: %w", err)
	}

	logger.WithField("page_count", len(pages)).Info("started link phase")

	var (
		wg        sync.WaitGroup
		errOnce   sync.Mutex
		firstErr  error
		connCount int64
	)

	recordErr := func(err error) {
		errOnce.Lock()
		if firstErr == nil {
			firstErr = err
		}
		errOnce.Unlock()
	}

	pageCh := make(chan *snapshot.Page)

	for i := 0; i < b.config.NumFetchWorkers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for page := range pageCh {
				if ctx.Err() != nil {
					continue
				}

				b.connectPage(buildID, page, &connCount, recordErr)
			}
		}()
	}

	for _, page := range pages {
		pageCh <- page
	}

	close(pageCh)
	wg.Wait()

	if firstErr != nil {
		return snapshot.BuildStats{}, firstErr
	}
	if err = ctx.Err(); err != nil {
		return snapshot.BuildStats{}, err
	}

	return snapshot.BuildStats{
		PagesCount:       len(pages),
		ConnectionsCount: int(atomic.LoadInt64(&connCount)),
	}, nil
}

// connectPage resolves each link recorded on the page at fetch time to a
// page captured by the same build. Links that resolve to no stored page
// are skipped silently: the wiki may reference pages that were never
// captured.
func (b *Builder) connectPage(
	buildID uuid.UUID, page *snapshot.Page,
	connCount *int64, recordErr func(error),
) {

	for _, href := range page.Links {
		target, err := b.config.Pages.FindPageByLink(href, buildID)
		if err != nil {
			if errors.Is(err, snapshot.ErrNotFound) {
				continue
			}

			recordErr(err)

			return
		}

		if err = b.config.Pages.CreateConnection(page.ID, target.ID, buildID); err != nil {
			recordErr(err)

			return
		}

		atomic.AddInt64(connCount, 1)
	}
}

// extractText strips the page HTML of all tags and collapses repeated
// whitespace, yielding the plain-text body stored with the capture.
func (b *Builder) extractText(htmlContent string) string {
	policy := b.policyPool.Get().(*bluemonday.Policy)

	clean := repeatedSpaceRegex.ReplaceAllString(policy.Sanitize(htmlContent), " ")

	b.policyPool.Put(policy)

	return strings.TrimSpace(html.UnescapeString(clean))
}

// publish emits a build lifecycle event without blocking the build
// goroutine when no consumer is draining the channel.
func (b *Builder) publish(event Event, logger *logrus.Entry) {
	select {
	case b.notifications <- event:
	default:
		logger.Warn("dropping build notification: channel full")
	}
}
