// Package server sets up the HTTP server, router, and all route
// definitions.
//
// This is the "composition root": the entire dependency chain is wired in
// one place —
//
//	sqlite.DB → repositories → services → handlers → routes
//
// Each layer only receives what it needs: services get repository
// interfaces, handlers get services, and nothing below the handler knows
// HTTP exists.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/promptstore/internal/auth"
	"github.com/sakif/promptstore/internal/handler"
	"github.com/sakif/promptstore/internal/middleware"
	sqliteRepo "github.com/sakif/promptstore/internal/repository/sqlite"
	"github.com/sakif/promptstore/internal/service"
)

// Config holds server configuration.
type Config struct {
	// Host is the bind address; empty means all interfaces.
	Host      string
	Port      int
	DBPath    string
	JWTSecret string
	TokenTTL  time.Duration
}

// Server owns the router and the database connection. The connection is
// closed unconditionally on shutdown, after in-flight requests drain.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server: opens the database (running migrations), builds the
// token codec and password hasher, and wires services, handlers, and
// routes.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware, builds the dependency chain, and maps
// routes to handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /health                 → liveness probe
//	POST   /auth/register          → create account
//	POST   /auth/login             → issue access token
//	GET    /auth/profile           → authenticated user's profile
//	POST   /system_message/        → create message          (auth)
//	GET    /system_message/        → list own messages       (auth)
//	GET    /system_message/{id}    → get own message          (auth)
//	PUT    /system_message/{id}    → update own message       (auth)
//	DELETE /system_message/{id}    → delete own message       (auth)
//
// MIDDLEWARE ORDER MATTERS: RequestID runs first so every later log line
// (including the auth middleware's) can carry the correlation id;
// Recoverer turns panics into 500s instead of crashing the process.
func (s *Server) setupRoutes() error {
	s.router.Use(middleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenCodec(s.config.JWTSecret, s.config.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token codec: %w", err)
	}
	passwords := auth.NewPasswordHasher()

	authService := service.NewAuthService(s.db, tokens, passwords, s.logger)
	messageService := service.NewMessageService(s.db, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	messageHandler := handler.NewMessageHandler(messageService, s.logger)

	requireAuth := auth.RequireAuth(authService, s.logger)

	s.router.Get("/health", handler.HandleHealth)

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.With(requireAuth).Get("/profile", authHandler.HandleProfile)
	})

	s.router.Route("/system_message", func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/", messageHandler.HandleCreate)
		r.Get("/", messageHandler.HandleList)
		r.Get("/{id}", messageHandler.HandleGet)
		r.Put("/{id}", messageHandler.HandleUpdate)
		r.Delete("/{id}", messageHandler.HandleDelete)
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests for up
// to 30 seconds, close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
