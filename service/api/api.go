/*
	api package implements the HTTP surface of the wikigraph application:
	live dataset queries, on-demand build triggering and on-demand build
	cleanup, all exchanged as JSON.
*/

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mycok/wikigraph/dataset"
)

const (
	pagesEndpoint       = "/dataset/pages"
	connectionsEndpoint = "/dataset/connections/{pageName}"
	buildEndpoint       = "/build"
	cleanupEndpoint     = "/build/cleanup"
)

// defaultKeepLast is the number of archived builds retained by an
// on-demand cleanup when the request does not specify one.
const defaultKeepLast = 3

// Service represents the HTTP API service for the wikigraph
// application. It satisfies the service.Service interface.
type Service struct {
	config Config
	// Any router type that satisfies the http.Handler interface.
	router *chi.Mux
}

// New creates and returns a fully configured HTTP API service instance.
func New(config Config) (*Service, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("api service: config validation failed: %w", err)
	}

	svc := &Service{
		config: config,
		router: chi.NewRouter(),
	}

	svc.router.Get(pagesEndpoint, svc.getAllPages)
	svc.router.Get(connectionsEndpoint, svc.getPageConnections)
	svc.router.Post(buildEndpoint, svc.triggerBuild)
	svc.router.Post(cleanupEndpoint, svc.cleanupOldBuilds)

	return svc, nil
}

// Name returns the name of the service.
func (svc *Service) Name() string { return "api" }

// Run executes the service and blocks until the context gets cancelled
// or an error occurs.
func (svc *Service) Run(ctx context.Context) error {
	l, err := net.Listen("tcp", svc.config.ListenAddr)
	if err != nil {
		return err
	}
	defer func() { _ = l.Close() }()

	srv := &http.Server{
		Addr:    svc.config.ListenAddr,
		Handler: svc.router,
	}

	go func() {
		<-ctx.Done()

		_ = srv.Close()
	}()

	svc.config.Logger.WithField("addr", svc.config.ListenAddr).Info(
		"started service",
	)

	if err = srv.Serve(l); err == http.ErrServerClosed {
		// Server closed gracefully.
		err = nil
	}

	return err
}

func (svc *Service) getAllPages(w http.ResponseWriter, r *http.Request) {
	svc.respond(w, http.StatusOK, svc.config.Dataset.GetAllPages(r.Context()))
}

func (svc *Service) getPageConnections(w http.ResponseWriter, r *http.Request) {
	pageName := strings.TrimSpace(chi.URLParam(r, "pageName"))
	if pageName == "" {
		svc.respond(w, http.StatusBadRequest, errorPayload{
			Error: "Page name is required",
		})

		return
	}

	connections, err := svc.config.Dataset.GetPageConnections(r.Context(), pageName)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, dataset.ErrPageNotFound) {
			status = http.StatusNotFound
		}

		svc.respond(w, status, errorPayload{
			Error:   "Failed to fetch page connections",
			Message: err.Error(),
		})

		return
	}

	svc.respond(w, http.StatusOK, connectionsPayload{
		PageName:    pageName,
		Connections: connections,
	})
}

func (svc *Service) triggerBuild(w http.ResponseWriter, _ *http.Request) {
	// The build pass runs on the scheduler loop; the request only
	// queues it.
	svc.config.Scheduler.TriggerBuild()

	svc.respond(w, http.StatusAccepted, messagePayload{
		Message: "Build started successfully",
		Note:    "Build is running in background. Check logs for progress.",
	})
}

func (svc *Service) cleanupOldBuilds(w http.ResponseWriter, r *http.Request) {
	var body struct {
		KeepLast int `json:"keepLast"`
	}

	// An absent, empty or malformed body falls back to the default
	// retention.
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.KeepLast <= 0 {
		body.KeepLast = defaultKeepLast
	}

	if err := svc.config.Cleanup.CleanupOldBuilds(body.KeepLast); err != nil {
		svc.respond(w, http.StatusInternalServerError, errorPayload{
			Error:   "Failed to cleanup old builds",
			Message: err.Error(),
		})

		return
	}

	svc.respond(w, http.StatusOK, cleanupPayload{
		Message:  "Cleanup completed successfully",
		KeepLast: body.KeepLast,
	})
}

func (svc *Service) respond(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		svc.config.Logger.WithField("err", err).Error("unable to encode response payload")
	}
}

type connectionsPayload struct {
	PageName    string `json:"pageName"`
	Connections []int  `json:"connections"`
}

type messagePayload struct {
	Message string `json:"message"`
	Note    string `json:"note,omitempty"`
}

type cleanupPayload struct {
	Message  string `json:"message"`
	KeepLast int    `json:"keepLast"`
}

type errorPayload struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
