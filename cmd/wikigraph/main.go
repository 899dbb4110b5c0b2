package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/mycok/wikigraph/builder"
	"github.com/mycok/wikigraph/dataset"
	"github.com/mycok/wikigraph/service"
	"github.com/mycok/wikigraph/service/api"
	"github.com/mycok/wikigraph/service/scheduler"
	"github.com/mycok/wikigraph/snapshot"
	"github.com/mycok/wikigraph/snapshot/store/memory"
	"github.com/mycok/wikigraph/snapshot/store/pg"
	"github.com/mycok/wikigraph/wikisource/mediawiki"
)

const appName = "wikigraph"

func main() {
	host, _ := os.Hostname()
	// Instantiate a root logger that will be passed to all services.
	rootLogger := logrus.New()
	logger := rootLogger.WithFields(logrus.Fields{
		"app":  appName,
		"host": host,
	})

	svcGroup, err := configureServices(logger)
	if err != nil {
		logger.WithField("err", err).Error("shutting down due to an error")
		os.Exit(1)
	}

	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	// Launch a separate process to listen and respond to os signals
	// and trigger a graceful shutdown.
	go func() {
		signalChan := make(chan os.Signal, 1)
		signal.Notify(signalChan, syscall.SIGINT, syscall.SIGHUP)

		select {
		case s := <-signalChan:
			logger.WithField("signal", s.String()).Info("shutting down due to os signal")
			// Cancel context, this signals all services to return since
			// they all share this same context.
			cancelFn()
		case <-ctx.Done():
		}
	}()

	if err := svcGroup.Execute(ctx); err != nil {
		logger.WithField("err", err).Error("shutting down due to an error")
		os.Exit(1)
	}

	// Shutdown due to context cancellation.
	logger.Info("shutdown complete")
}

// config holds the process configuration sourced from the environment.
type config struct {
	port         string
	storeURI     string
	wikiAPIURL   string
	wikiBaseURL  string
	buildTime    string
	fetchWorkers int
	keepLast     int
}

func configFromEnv() (config, error) {
	cfg := config{
		port:         os.Getenv("PORT"),
		storeURI:     os.Getenv("SNAPSHOT_STORE_URI"),
		wikiAPIURL:   os.Getenv("WIKI_API_URL"),
		wikiBaseURL:  os.Getenv("WIKI_BASE_URL"),
		buildTime:    os.Getenv("BUILD_TIME"),
		fetchWorkers: runtime.NumCPU(),
	}

	var err error

	if cfg.port == "" {
		err = multierror.Append(err, fmt.Errorf("PORT must be set"))
	}

	if cfg.storeURI == "" {
		err = multierror.Append(err, fmt.Errorf("SNAPSHOT_STORE_URI must be set"))
	}

	if cfg.wikiAPIURL == "" {
		err = multierror.Append(err, fmt.Errorf("WIKI_API_URL must be set"))
	}

	if cfg.wikiBaseURL == "" {
		err = multierror.Append(err, fmt.Errorf("WIKI_BASE_URL must be set"))
	}

	if v := os.Getenv("FETCH_WORKERS"); v != "" {
		workers, parseErr := strconv.Atoi(v)
		if parseErr != nil || workers <= 0 {
			err = multierror.Append(err, fmt.Errorf("FETCH_WORKERS must be a positive integer"))
		} else {
			cfg.fetchWorkers = workers
		}
	}

	if v := os.Getenv("KEEP_LAST_BUILDS"); v != "" {
		keepLast, parseErr := strconv.Atoi(v)
		if parseErr != nil || keepLast <= 0 {
			err = multierror.Append(err, fmt.Errorf("KEEP_LAST_BUILDS must be a positive integer"))
		} else {
			cfg.keepLast = keepLast
		}
	}

	return cfg, err
}

func configureServices(logger *logrus.Entry) (service.Group, error) {
	cfg, err := configFromEnv()
	if err != nil {
		return nil, err
	}

	store, err := getSnapshotStore(cfg.storeURI, cfg.wikiBaseURL, logger)
	if err != nil {
		return nil, err
	}

	source := mediawiki.NewClient(
		cfg.wikiAPIURL, nil, logger.WithField("service", "wiki-source"),
	)

	bld, err := builder.New(builder.Config{
		Source:          source,
		Pages:           store,
		Builds:          store,
		NumFetchWorkers: cfg.fetchWorkers,
		Logger:          logger.WithField("service", "builder"),
	})
	if err != nil {
		return nil, err
	}

	var svcGrp service.Group

	schedSvc, err := scheduler.New(scheduler.Config{
		Builder:   bld,
		Cleanup:   store,
		BuildTime: cfg.buildTime,
		KeepLast:  cfg.keepLast,
		Logger:    logger.WithField("service", "scheduler"),
	})
	if err != nil {
		return nil, err
	}
	svcGrp = append(svcGrp, schedSvc)

	datasetSvc, err := dataset.New(dataset.Config{
		Source:     source,
		NumWorkers: cfg.fetchWorkers,
		Logger:     logger.WithField("service", "dataset"),
	})
	if err != nil {
		return nil, err
	}

	apiSvc, err := api.New(api.Config{
		Dataset:    datasetSvc,
		Scheduler:  schedSvc,
		Cleanup:    store,
		ListenAddr: ":" + cfg.port,
		Logger:     logger.WithField("service", "api"),
	})
	if err != nil {
		return nil, err
	}
	svcGrp = append(svcGrp, apiSvc)

	return svcGrp, nil
}

func getSnapshotStore(
	storeURI, wikiBaseURL string, logger *logrus.Entry,
) (snapshot.Store, error) {

	uri, err := url.Parse(storeURI)
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot store URI: %w", err)
	}

	switch uri.Scheme {
	case "in-memory":
		logger.Info("using in-memory snapshot store")

		return memory.NewInMemoryStore(wikiBaseURL), nil
	case "postgresql":
		logger.Info("using postgres snapshot store")

		store, err := pg.NewPostgresStore(storeURI, wikiBaseURL)
		if err != nil {
			return nil, err
		}

		if err = store.EnsureSchema(); err != nil {
			return nil, err
		}

		return store, nil
	default:
		return nil, fmt.Errorf("unsupported snapshot store URI scheme: %q", uri.Scheme)
	}
}
