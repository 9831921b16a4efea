// Package server implements the http trigger of ingestion runs and service endpoints
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"github.com/umputun/plainly/pkg/domain"
)

//go:generate moq -out mocks/config.go -pkg mocks -skip-ensure -fmt goimports . ConfigProvider
//go:generate moq -out mocks/ingester.go -pkg mocks -skip-ensure -fmt goimports . Ingester
//go:generate moq -out mocks/run_history.go -pkg mocks -skip-ensure -fmt goimports . RunHistory

// Server represents HTTP server instance
type Server struct {
	config   ConfigProvider
	ingester Ingester
	runs     RunHistory
	version  string
	debug    bool

	lock       sync.Mutex
	httpServer *http.Server
	router     *routegroup.Bundle
}

// ConfigProvider provides server configuration
type ConfigProvider interface {
	GetServerConfig() (listen string, timeout time.Duration)
	GetSecret() string
}

// Ingester runs a single ingestion pass
type Ingester interface {
	Run(ctx context.Context) (domain.RunSummary, error)
}

// RunHistory gives access to recorded ingestion runs
type RunHistory interface {
	LastRun(ctx context.Context) (*domain.RunSummary, error)
}

type fetchResponse struct {
	Message   string `json:"message"`
	Processed int    `json:"processed"`
}

// New initializes a new server instance, runs can be nil
func New(cfg ConfigProvider, ingester Ingester, runs RunHistory, version string, debug bool) *Server {
	s := &Server{
		config:   cfg,
		ingester: ingester,
		runs:     runs,
		version:  version,
		debug:    debug,
		router:   routegroup.New(http.NewServeMux()),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Run starts the HTTP server and handles graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	listen, timeout := s.config.GetServerConfig()
	lgr.Printf("[INFO] starting server on %s", listen)

	s.lock.Lock()
	s.httpServer = &http.Server{
		Addr:              listen,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout,
	}
	httpServer := s.httpServer
	s.lock.Unlock()

	go func() {
		<-ctx.Done()
		lgr.Printf("[INFO] shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			lgr.Printf("[WARN] server shutdown error: %v", err)
		}
	}()

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}

// setupMiddleware configures standard middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(rest.AppInfo("plainly", "umputun", s.version))
	s.router.Use(rest.Ping)

	if s.debug {
		s.router.Use(logger.New(logger.Log(lgr.Default()), logger.Prefix("[DEBUG]")).Handler)
	}

	s.router.Use(rest.Recoverer(lgr.Default()))
	s.router.Use(rest.Throttle(100))
	s.router.Use(rest.SizeLimit(64 * 1024)) // endpoints take no body
}

// setupRoutes configures application routes
func (s *Server) setupRoutes() {
	s.router.Mount("/api/v1").Route(func(r *routegroup.Bundle) {
		r.HandleFunc("GET /status", s.statusHandler)
	})

	s.router.Group().Route(func(r *routegroup.Bundle) {
		r.Use(s.authMiddleware)
		r.HandleFunc("GET /api/rss-fetch", s.rssFetchHandler)
	})
}

// authMiddleware requires "Authorization: Bearer <secret>", empty secret rejects everything
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secret := s.config.GetSecret()
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || secret == "" || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			lgr.Printf("[WARN] unauthorized %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// rssFetchHandler runs ingestion synchronously and reports the number of processed articles.
// The run is detached from the request, a dropped client doesn't cancel it.
func (s *Server) rssFetchHandler(w http.ResponseWriter, r *http.Request) {
	// a run with page extraction can outlive the server timeouts
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		lgr.Printf("[DEBUG] can't clear write deadline: %v", err)
	}
	if err := rc.SetReadDeadline(time.Time{}); err != nil {
		lgr.Printf("[DEBUG] can't clear read deadline: %v", err)
	}

	run, err := s.ingester.Run(context.WithoutCancel(r.Context()))
	if err != nil {
		lgr.Printf("[ERROR] rss fetch run %s failed: %v", run.ID, err)
		renderJSON(w, r, http.StatusInternalServerError, rest.JSON{"error": "Failed"})
		return
	}

	if run.Empty {
		renderJSON(w, r, http.StatusOK, fetchResponse{Message: "no new articles", Processed: 0})
		return
	}
	renderJSON(w, r, http.StatusOK, fetchResponse{Message: "RSS fetch complete", Processed: run.Processed})
}

// statusHandler returns server status with the last recorded run
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	status := rest.JSON{
		"status":  "ok",
		"version": s.version,
		"time":    time.Now().UTC(),
	}

	if s.runs != nil {
		last, err := s.runs.LastRun(r.Context())
		if err != nil {
			lgr.Printf("[DEBUG] no last run: %v", err)
		} else {
			status["last_run"] = rest.JSON{
				"id":           last.ID,
				"state":        last.State,
				"started_at":   last.StartedAt,
				"finished_at":  last.FinishedAt,
				"processed":    last.Processed,
				"deleted":      last.Deleted,
				"failed_feeds": last.FailedFeeds,
			}
		}
	}
	renderJSON(w, r, http.StatusOK, status)
}

// renderJSON sends JSON response
func renderJSON(w http.ResponseWriter, _ *http.Request, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			lgr.Printf("[ERROR] can't encode response to JSON: %v", err)
		}
	}
}
