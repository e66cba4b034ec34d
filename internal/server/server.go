// Package server provides the HTTP server implementation for the admin service.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/MyTechPlan/oc-client/internal/auth"
	"github.com/MyTechPlan/oc-client/internal/config"
	"github.com/MyTechPlan/oc-client/internal/converter"
	"github.com/MyTechPlan/oc-client/internal/cron"
	apierrors "github.com/MyTechPlan/oc-client/internal/errors"
	"github.com/MyTechPlan/oc-client/internal/handler"
	"github.com/MyTechPlan/oc-client/internal/health"
	"github.com/MyTechPlan/oc-client/internal/metrics"
	"github.com/MyTechPlan/oc-client/internal/middleware"
	"github.com/MyTechPlan/oc-client/internal/preview"
	"github.com/MyTechPlan/oc-client/internal/repository"
	"github.com/MyTechPlan/oc-client/internal/tenant"
	"github.com/MyTechPlan/oc-client/internal/tree"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Server represents the HTTP server.
type Server struct {
	router       *mux.Router
	handler      http.Handler
	httpServer   *http.Server
	handlers     *handler.Handlers
	healthCheck  *health.HealthCheck
	gate         *auth.Gate
	errorHandler *apierrors.Handler
	metrics      *metrics.Metrics
	logger       *zap.Logger
	cfg          *config.Config
}

// NewServer creates a new HTTP server over repo and registry. Session and
// password settings come from cfg.Auth.
func NewServer(cfg *config.Config, repo repository.Repository, registry tenant.Registry, m *metrics.Metrics, logger *zap.Logger) (*Server, error) {
	gate, err := auth.NewGateFromConfig(cfg.Auth, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create session gate: %w", err)
	}

	passwords, err := auth.NewPasswordChecker(cfg.Auth.PasswordCompare, cfg.Auth.AdminPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to create password checker: %w", err)
	}

	deps := handler.Dependencies{
		Registry:      registry,
		Repository:    repo,
		Trees:         tree.NewFetcher(repo),
		Crons:         cron.NewReader(repo, cfg.Cron.JobsPath),
		Previews:      preview.NewRenderer(cfg.Preview),
		Gate:          gate,
		Passwords:     passwords,
		Decoder:       converter.NewRequestDecoder(0),
		ErrorHandler:  apierrors.NewHandler(logger),
		Metrics:       m,
		Logger:        logger,
		SecureCookies: cfg.Server.IsProduction(),
	}

	router := mux.NewRouter()

	s := &Server{
		router:       router,
		handlers:     handler.NewHandlers(deps),
		healthCheck:  health.NewHealthCheck(repo, m, logger),
		gate:         gate,
		errorHandler: deps.ErrorHandler,
		metrics:      m,
		logger:       logger,
		cfg:          cfg,
	}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return s, nil
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Outer chain sees every request, including unmatched and preflight ones.
	chain := middleware.Chain(
		middleware.Recovery(s.errorHandler, s.logger),
		middleware.RequestID,
		middleware.Logging(s.logger),
		middleware.CORS(s.cfg.Server.AllowedOrigins),
	)
	s.handler = chain(s.router)

	// Route templates are only known once mux has matched.
	if s.metrics != nil {
		s.router.Use(metrics.MetricsMiddleware(s.metrics))
	}

	// Health check endpoints
	s.router.HandleFunc("/health", s.healthCheck.LivenessHandler).Methods(http.MethodGet)
	s.router.HandleFunc("/ready", s.healthCheck.ReadinessHandler).Methods(http.MethodGet)

	// Login and logout
	var login http.Handler = http.HandlerFunc(s.handlers.Login)
	if s.cfg.RateLimiter.Enabled {
		rateLimiter := middleware.NewRateLimiter(
			s.cfg.RateLimiter.RequestsPerSecond,
			s.cfg.RateLimiter.BurstSize,
			s.errorHandler,
			s.logger,
		)
		login = rateLimiter.Limit(login)
	}
	s.router.Handle("/api/auth", login).Methods(http.MethodPost)
	s.router.HandleFunc("/api/auth", s.handlers.Logout).Methods(http.MethodDelete)

	// Tenant API, behind the session gate
	api := s.router.PathPrefix("/api/tenants").Subrouter()
	api.Use(
		auth.RequireSession(s.gate, s.errorHandler.Unauthorized()),
		middleware.Timeout(s.cfg.Server.RequestTimeout),
	)

	api.HandleFunc("", s.handlers.ListTenants).Methods(http.MethodGet)
	api.HandleFunc("/{id}", s.handlers.GetTenant).Methods(http.MethodGet)
	api.HandleFunc("/{id}/files", s.handlers.GetTree).Methods(http.MethodGet)
	api.HandleFunc("/{id}/files/{path:.+}", s.handlers.GetFile).Methods(http.MethodGet)
	api.HandleFunc("/{id}/files/{path:.+}", s.handlers.UpdateFile).Methods(http.MethodPut)
	api.HandleFunc("/{id}/directory", s.handlers.GetDirectory).Methods(http.MethodGet)
	api.HandleFunc("/{id}/crons", s.handlers.GetCrons).Methods(http.MethodGet)
	api.HandleFunc("/{id}/preview/{path:.+}", s.handlers.GetPreview).Methods(http.MethodGet)

	// Not found handler
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.errorHandler.WriteNotFound(w, r.Header.Get(middleware.RequestIDHeader))
	})

	// Method not allowed handler
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(middleware.RequestIDHeader)
		s.errorHandler.WriteErrorResponse(w, http.StatusMethodNotAllowed, apierrors.ErrorCodeInvalidRequest, "method not allowed", requestID)
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server",
		zap.Int("port", s.cfg.Server.Port),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// GetHandler returns the http.Handler for the server, middleware included.
func (s *Server) GetHandler() http.Handler {
	return s.handler
}

// StartAsync starts the server in a goroutine.
func (s *Server) StartAsync() chan error {
	errChan := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil {
			errChan <- err
		}
		close(errChan)
	}()

	// Give the server a moment to start
	time.Sleep(100 * time.Millisecond)
	return errChan
}
