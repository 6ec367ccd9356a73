// Package server sets up the HTTP server, router, and all route
// definitions — the "composition root" where handlers, services,
// repositories and middleware get wired together in one place.
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

	"github.com/avolkov/birthdaybook/internal/auth"
	"github.com/avolkov/birthdaybook/internal/handler"
	"github.com/avolkov/birthdaybook/internal/middleware"
	sqliteRepo "github.com/avolkov/birthdaybook/internal/repository/sqlite"
	"github.com/avolkov/birthdaybook/internal/service"
)

// Config holds server configuration, loaded from the environment in main.
type Config struct {
	Port      int
	DBPath    string
	JWTSecret string
}

// Server owns the router and the database connection. The connection is
// closed during graceful shutdown so WAL state is flushed and the file
// lock released.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	store  *sqliteRepo.Store
}

// New creates a Server and assembles the whole dependency chain:
//
//	sqlite.Store → services (auth, profile, linking, friend) → handlers → routes
//
// Each layer only receives what it needs — services get the Store
// interface, handlers get services, routes get handlers.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	store, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
	}

	if err := s.setupRoutes(); err != nil {
		store.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	POST   /api/auth/register     → create account + profile, set cookie
//	POST   /api/auth/login        → verify credentials, set cookie
//	POST   /api/auth/logout       → clear cookie
//	GET    /api/me                → current user             (auth)
//	GET    /api/friends           → full friend list          (auth)
//	POST   /api/friends           → add friend                (auth)
//	PUT    /api/friends/{id}      → edit friend               (auth)
//	DELETE /api/friends/{id}      → delete friend             (auth)
//	GET    /api/friends/grouped   → today/tomorrow/other      (auth)
//	GET    /api/friends/today     → today's birthdays         (auth)
//	GET    /api/link              → linking code + status     (auth)
//	POST   /api/link/code         → regenerate linking code   (auth)
//	DELETE /api/link              → detach chat identity      (auth)
func (s *Server) setupRoutes() error {
	if s.config.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	// Global middleware — runs on every request, in order.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	authService := service.NewAuthService(s.store, tokens, passwords, s.logger)
	profileService := service.NewProfileService(s.store, s.logger)
	friendService := service.NewFriendService(s.store, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	friendHandler := handler.NewFriendHandler(friendService, profileService, s.logger)
	linkHandler := handler.NewLinkHandler(profileService, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.HandleRegister)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/logout", authHandler.HandleLogout)

		// Everything below requires a valid session.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Get("/me", authHandler.HandleMe)

			r.Get("/friends", friendHandler.HandleList)
			r.Post("/friends", friendHandler.HandleCreate)
			r.Get("/friends/grouped", friendHandler.HandleGrouped)
			r.Get("/friends/today", friendHandler.HandleToday)
			r.Put("/friends/{id}", friendHandler.HandleUpdate)
			r.Delete("/friends/{id}", friendHandler.HandleDelete)

			r.Get("/link", linkHandler.HandleStatus)
			r.Post("/link/code", linkHandler.HandleRegenerateCode)
			r.Delete("/link", linkHandler.HandleUnlink)
		})
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30s,
// close the database.
func (s *Server) Start() error {
	defer s.store.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
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
