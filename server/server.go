// Package server provides an HTTP preview of the digest
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"github.com/umputun/rssdigest/pkg/digest"
	"github.com/umputun/rssdigest/pkg/domain"
)

//go:generate moq -out mocks/config.go -pkg mocks -skip-ensure -fmt goimports . ConfigProvider
//go:generate moq -out mocks/builder.go -pkg mocks -skip-ensure -fmt goimports . DigestBuilder

// Server represents HTTP server instance
type Server struct {
	config  ConfigProvider
	builder DigestBuilder
	version string
	debug   bool

	lock       sync.Mutex
	httpServer *http.Server
	router     *routegroup.Bundle
}

// DigestBuilder builds the digest on demand
type DigestBuilder interface {
	Day() time.Time
	Build(ctx context.Context, day time.Time) (domain.Digest, []domain.FeedResult, error)
}

// ConfigProvider provides server configuration
type ConfigProvider interface {
	GetServerConfig() (listen string, timeout time.Duration)
}

// resultsResponse is the JSON body of the results endpoint
type resultsResponse struct {
	Day     string              `json:"day"`
	Subject string              `json:"subject"`
	Results []domain.FeedResult `json:"results"`
}

// New initializes a new server instance
func New(cfg ConfigProvider, builder DigestBuilder, version string, debug bool) *Server {
	s := &Server{
		config:  cfg,
		builder: builder,
		version: version,
		debug:   debug,
		router:  routegroup.New(http.NewServeMux()),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Run starts the HTTP server and handles graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	listen, timeout := s.config.GetServerConfig()
	lgr.Printf("[INFO] starting preview server on %s", listen)

	s.lock.Lock()
	s.httpServer = &http.Server{
		Addr:              listen,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      timeout,
	}
	s.lock.Unlock()

	go func() {
		<-ctx.Done()
		lgr.Printf("[INFO] shutting down preview server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			lgr.Printf("[WARN] server shutdown error: %v", err)
		}
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}

// setupMiddleware configures standard middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(rest.AppInfo("rssdigest", "umputun", s.version))
	s.router.Use(rest.Ping)

	if s.debug {
		s.router.Use(logger.New(logger.Log(lgr.Default()), logger.Prefix("[DEBUG]")).Handler)
	}

	s.router.Use(rest.Recoverer(lgr.Default()))
	s.router.Use(rest.Throttle(10)) // every request fetches all feeds
}

// setupRoutes configures application routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /{$}", s.htmlHandler)
	s.router.HandleFunc("GET /digest.txt", s.textHandler)
	s.router.HandleFunc("GET /rss", s.rssHandler)

	s.router.Mount("/api/v1").Route(func(r *routegroup.Bundle) {
		r.HandleFunc("GET /results", s.resultsHandler)
		r.HandleFunc("GET /status", s.statusHandler)
	})
}

// htmlHandler renders the HTML digest, GET /?date=2006-01-02
func (s *Server) htmlHandler(w http.ResponseWriter, r *http.Request) {
	d, _, ok := s.build(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(d.HTML))
}

// textHandler renders the plain-text digest, GET /digest.txt?date=2006-01-02
func (s *Server) textHandler(w http.ResponseWriter, r *http.Request) {
	d, _, ok := s.build(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(d.Text))
}

// rssHandler serves the digest posts as an RSS feed, GET /rss?date=2006-01-02
func (s *Server) rssHandler(w http.ResponseWriter, r *http.Request) {
	d, results, ok := s.build(w, r)
	if !ok {
		return
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	rss, err := digest.RSS(results, d.Day, scheme+"://"+r.Host)
	if err != nil {
		lgr.Printf("[ERROR] failed to generate RSS feed: %v", err)
		http.Error(w, "Failed to generate RSS feed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	if _, err := w.Write([]byte(rss)); err != nil {
		lgr.Printf("[WARN] failed to write RSS response: %v", err)
	}
}

// resultsHandler returns per-feed results as JSON, GET /api/v1/results?date=2006-01-02
func (s *Server) resultsHandler(w http.ResponseWriter, r *http.Request) {
	d, results, ok := s.build(w, r)
	if !ok {
		return
	}
	RenderJSON(w, r, http.StatusOK, resultsResponse{
		Day:     d.Day.Format(time.DateOnly),
		Subject: d.Subject,
		Results: results,
	})
}

// statusHandler returns server status
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":  "ok",
		"version": s.version,
		"day":     s.builder.Day().Format(time.DateOnly),
		"time":    time.Now().UTC(),
	}
	RenderJSON(w, r, http.StatusOK, status)
}

// build makes the digest for the requested day, writing an error response on failure
func (s *Server) build(w http.ResponseWriter, r *http.Request) (domain.Digest, []domain.FeedResult, bool) {
	day := s.builder.Day()
	if v := r.URL.Query().Get("date"); v != "" {
		parsed, err := time.Parse(time.DateOnly, v)
		if err != nil {
			RenderError(w, r, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", v), http.StatusBadRequest)
			return domain.Digest{}, nil, false
		}
		day = parsed
	}

	d, results, err := s.builder.Build(r.Context(), day)
	if err != nil {
		lgr.Printf("[WARN] can't build digest for %s: %v", day.Format(time.DateOnly), err)
		RenderError(w, r, err, http.StatusInternalServerError)
		return domain.Digest{}, nil, false
	}
	return d, results, true
}

// RenderJSON sends JSON response
func RenderJSON(w http.ResponseWriter, _ *http.Request, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("[ERROR] can't encode response to JSON: %v", err)
		}
	}
}

// RenderError sends error response as JSON
func RenderError(w http.ResponseWriter, r *http.Request, err error, code int) {
	errMsg := "unknown error"
	if err != nil {
		errMsg = err.Error()
	}
	RenderJSON(w, r, code, map[string]string{"error": errMsg})
}
