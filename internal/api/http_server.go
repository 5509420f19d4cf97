package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"shareit/internal/config"
	"shareit/internal/domain"
	"shareit/internal/export"
	"shareit/internal/models"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Services groups the business services the HTTP API is built on.
type Services struct {
	Users    domain.UserService
	Items    domain.ItemService
	Bookings domain.BookingService
	Requests domain.RequestService
	Exporter *export.BookingExporter
	Health   func(ctx context.Context) error
}

// HTTPServer exposes the JSON API.
type HTTPServer struct {
	cfg             config.APIConfig
	svc             Services
	server          *http.Server
	auth            *HTTPAuth
	quota           domain.RateLimitRepository
	validator       *Validator
	defaultPageSize int
	logger          *zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, svc Services, quota domain.RateLimitRepository, defaultPageSize int, logger *zerolog.Logger) *HTTPServer {
	if defaultPageSize <= 0 {
		defaultPageSize = models.DefaultPageSize
	}
	if svc.Exporter == nil {
		svc.Exporter = export.NewBookingExporter("")
	}
	httpLogger := logger.With().Str("component", "http").Logger()

	srv := &HTTPServer{
		cfg:             cfg,
		svc:             svc,
		auth:            NewHTTPAuth(cfg),
		quota:           quota,
		validator:       NewValidator(),
		defaultPageSize: defaultPageSize,
		logger:          &httpLogger,
	}

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}
	return srv
}

// Routes builds the router with the full middleware stack.
func (s *HTTPServer) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.auth.Wrap)
	r.Use(s.userQuotaMiddleware)

	r.Get("/healthz", s.handleHealth)

	r.Route("/users", func(r chi.Router) {
		r.Post("/", s.handleCreateUser)
		r.Get("/", s.handleListUsers)
		r.Get("/{id}", s.handleGetUser)
		r.Patch("/{id}", s.handleUpdateUser)
		r.Delete("/{id}", s.handleDeleteUser)
	})

	r.Route("/items", func(r chi.Router) {
		r.Post("/", s.handleCreateItem)
		r.Get("/", s.handleListOwnerItems)
		r.Get("/search", s.handleSearchItems)
		r.Get("/{id}", s.handleGetItem)
		r.Patch("/{id}", s.handleUpdateItem)
		r.Delete("/{id}", s.handleDeleteItem)
		r.Post("/{id}/comment", s.handleCreateComment)
	})

	r.Route("/bookings", func(r chi.Router) {
		r.Post("/", s.handleCreateBooking)
		r.Get("/", s.handleListBookerBookings)
		r.Get("/owner", s.handleListOwnerBookings)
		r.Get("/owner/export", s.handleExportOwnerBookings)
		r.Get("/{id}", s.handleGetBooking)
		r.Patch("/{id}", s.handleApproveBooking)
	})

	r.Route("/requests", func(r chi.Router) {
		r.Post("/", s.handleCreateRequest)
		r.Get("/", s.handleListOwnRequests)
		r.Get("/all", s.handleListOtherRequests)
		r.Get("/{id}", s.handleGetRequest)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.svc.Health != nil {
		if err := s.svc.Health(r.Context()); err != nil {
			s.logger.Error().Err(err).Msg("health check failed")
			writeError(w, http.StatusServiceUnavailable, "storage unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func urlParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}
