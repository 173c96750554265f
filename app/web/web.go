// Package web implements the JSON API server for the dashboard. It exposes
// positions, the trade journal, the watchlist and settings over /api/v1,
// designed for the web UI and for CLI/jq consumption.
package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/didip/tollbooth/v8"
	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"github.com/trading-cockpit/cockpit/app/portfolio"
)

// mutationLimiter guards write endpoints from runaway clients
var mutationLimiter = tollbooth.NewLimiter(50, nil)

// Server represents the web server
type Server struct {
	positions *portfolio.Positions
	journal   *portfolio.Journal
	watchlist *portfolio.Watchlist
	settings  *portfolio.Settings
	version   string
	startTime time.Time
}

// Config holds server configuration
type Config struct {
	Positions *portfolio.Positions
	Journal   *portfolio.Journal
	Watchlist *portfolio.Watchlist
	Settings  *portfolio.Settings
	Version   string
}

// New creates a new web server
func New(cfg Config) (*Server, error) {
	if cfg.Positions == nil || cfg.Journal == nil || cfg.Watchlist == nil || cfg.Settings == nil {
		return nil, fmt.Errorf("web server initialization failed: all portfolio managers are required")
	}
	return &Server{
		positions: cfg.Positions,
		journal:   cfg.Journal,
		watchlist: cfg.Watchlist,
		settings:  cfg.Settings,
		version:   cfg.Version,
		startTime: time.Now(),
	}, nil
}

// Run starts the web server and blocks until the context is canceled or
// the listener fails.
func (s *Server) Run(ctx context.Context, address string) error {
	server := &http.Server{
		Addr:              address,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] failed to shutdown server: %v", err)
		}
	}()

	log.Printf("[INFO] starting web server on %s", address)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("web server failed: %w", err)
	}
	return nil
}

// routes returns the http.Handler with all routes configured
func (s *Server) routes() http.Handler {
	router := routegroup.New(http.NewServeMux())

	// global middleware - applied to all routes
	router.Use(
		rest.RealIP,
		rest.Recoverer(log.Default()),
		rest.Throttle(1000),
		rest.AppInfo("cockpit", "trading-cockpit", s.version),
		rest.Ping,
		rest.Trace,
		rest.SizeLimit(64*1024), // 64KB max request size
		logger.New(logger.Log(log.Default()), logger.Prefix("[DEBUG]")).Handler,
	)

	router.Mount("/api/v1").Route(func(api *routegroup.Bundle) {
		api.Use(rest.NoCache) // prevent caching of API responses

		api.HandleFunc("GET /status", s.handleStatus)

		api.HandleFunc("GET /positions", s.handlePositionsList)
		api.HandleFunc("GET /positions/{id}", s.handlePositionGet)
		api.HandleFunc("GET /journal", s.handleJournalList)
		api.HandleFunc("GET /journal/stats", s.handleJournalStats)
		api.HandleFunc("GET /watchlist", s.handleWatchlistList)
		api.HandleFunc("GET /settings", s.handleSettingsList)

		// mutating endpoints get the extra rate limit
		writes := api.With(tollbooth.HTTPMiddleware(mutationLimiter))
		writes.HandleFunc("POST /positions", s.handlePositionAdd)
		writes.HandleFunc("PATCH /positions/{id}", s.handlePositionUpdate)
		writes.HandleFunc("DELETE /positions/{id}", s.handlePositionDelete)
		writes.HandleFunc("POST /positions/{id}/close", s.handlePositionClose)
		writes.HandleFunc("POST /watchlist", s.handleWatchlistAdd)
		writes.HandleFunc("DELETE /watchlist/{symbol}", s.handleWatchlistRemove)
		writes.HandleFunc("PUT /settings/{key}", s.handleSettingsSet)
	})

	return router
}
