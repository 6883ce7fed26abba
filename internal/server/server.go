package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/startupjobs/jobboard-service/internal/auth"
	"github.com/startupjobs/jobboard-service/internal/config"
	"github.com/startupjobs/jobboard-service/internal/intake"
	"github.com/startupjobs/jobboard-service/internal/listing"
	"github.com/startupjobs/jobboard-service/internal/metrics"
	"github.com/startupjobs/jobboard-service/internal/moderation"
)

// Pinger reports whether a backing service is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are the services the HTTP layer dispatches to
type Dependencies struct {
	Intake     *intake.Service
	Moderation *moderation.Service
	Listing    *listing.Service
	Auth       *auth.Service
	Health     Pinger
}

// Server handles HTTP requests
type Server struct {
	config     config.ServerConfig
	authConfig config.AuthConfig
	deps       Dependencies
	logger     logrus.FieldLogger
	router     *mux.Router
	server     *http.Server
}

// NewServer creates a new HTTP server
func NewServer(cfg config.ServerConfig, authCfg config.AuthConfig, deps Dependencies, logger logrus.FieldLogger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &Server{
		config:     cfg,
		authConfig: authCfg,
		deps:       deps,
		logger:     logger,
	}

	metrics.Register()
	s.router = s.routes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.requestID, s.recoverPanic, s.accessLog, s.loadSession)
	r.NotFoundHandler = http.HandlerFunc(s.handleNotFound)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/jobs", s.handleListJobs).Methods(http.MethodGet)
	r.HandleFunc("/jobs", s.handleSubmitJob).Methods(http.MethodPost)
	r.HandleFunc("/jobs/recent", s.handleRecentJobs).Methods(http.MethodGet)
	r.HandleFunc("/jobs/{id}", s.handleGetJob).Methods(http.MethodGet)
	r.HandleFunc("/categories/{category}", s.handleCategory).Methods(http.MethodGet)
	r.HandleFunc("/companies/{company}", s.handleCompany).Methods(http.MethodGet)
	r.HandleFunc("/locations/{location}", s.handleLocation).Methods(http.MethodGet)
	r.HandleFunc("/feed", s.handleFeed).Methods(http.MethodGet)

	r.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost)

	admin := r.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/jobs", s.handleAdminListJobs).Methods(http.MethodGet)
	admin.HandleFunc("/jobs/{id}/status", s.handleAdminSetStatus).Methods(http.MethodPost)
	admin.HandleFunc("/sweep", s.handleAdminSweep).Methods(http.MethodPost)

	return r
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
