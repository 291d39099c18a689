package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ziadkadry99/zoomdeck/internal/audit"
	"github.com/ziadkadry99/zoomdeck/internal/db"
	"github.com/ziadkadry99/zoomdeck/internal/livesync"
	"github.com/ziadkadry99/zoomdeck/internal/presentation"
	"github.com/ziadkadry99/zoomdeck/internal/remote"
	"github.com/ziadkadry99/zoomdeck/internal/webhooks"
)

// Config holds server configuration.
type Config struct {
	Port             int
	AllowAll         bool          // allow all CORS origins (dev mode)
	HistoryRetention time.Duration // zero keeps history forever
}

// Server is the reference presentation store: the REST resource sessions
// poll and patch, the change history, webhook delivery and the remote
// clicker relay.
type Server struct {
	cfg           Config
	db            *db.DB
	presentations *presentation.Store
	history       *audit.Store
	hub           *remote.Hub
	webhooks      *webhooks.Store
	dispatcher    *webhooks.Dispatcher
	logger        *slog.Logger
	router        chi.Router
	httpServer    *http.Server
}

// New creates a server with all routes registered.
func New(cfg Config, database *db.DB, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:           cfg,
		db:            database,
		presentations: presentation.NewStore(database),
		history:       audit.NewStore(database),
		webhooks:      webhooks.NewStore(database),
		logger:        logger,
	}
	s.hub = remote.NewHub(s.presentations, logger.With("component", "remote"))
	s.dispatcher = webhooks.NewDispatcher(s.webhooks, logger.With("component", "webhooks"))
	s.presentations.Observe(s.dispatcher.Observe)

	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept", "Authorization", "Content-Type",
			livesync.HeaderUserID, livesync.HeaderSession, livesync.HeaderSeq,
		},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Group(func(api chi.Router) {
		api.Use(middleware.Timeout(60 * time.Second))
		presentation.RegisterRoutes(api, s.presentations)
		audit.RegisterRoutes(api, s.history, s.presentations)
		webhooks.RegisterRoutes(api, s.webhooks, s.presentations)
	})

	// Websockets outlive any request timeout.
	remote.RegisterRoutes(r, s.hub)

	return r
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Database returns the database connection.
func (s *Server) Database() *db.DB { return s.db }

// Presentations returns the presentation store.
func (s *Server) Presentations() *presentation.Store { return s.presentations }

// History returns the change history store.
func (s *Server) History() *audit.Store { return s.history }

// Webhooks returns the webhook subscription store.
func (s *Server) Webhooks() *webhooks.Store { return s.webhooks }

// Hub returns the remote clicker relay.
func (s *Server) Hub() *remote.Hub { return s.hub }

// ServerConfig returns the server configuration.
func (s *Server) ServerConfig() Config { return s.cfg }

// PruneHistory deletes change history older than the configured retention.
func (s *Server) PruneHistory(ctx context.Context) (int64, error) {
	if s.cfg.HistoryRetention <= 0 {
		return 0, nil
	}
	n, err := s.history.DeleteBefore(ctx, time.Now().Add(-s.cfg.HistoryRetention))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("pruned change history", "entries", n, "retention", s.cfg.HistoryRetention)
	}
	return n, nil
}

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("zoomdeck server listening", "addr", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server and waits for queued webhook
// deliveries.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	s.dispatcher.Wait()
	return err
}
