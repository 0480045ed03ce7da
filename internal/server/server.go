// Package server wires the application together: database, services,
// handlers, routes, and the HTTP server lifecycle. It is the composition
// root — every dependency is constructed here and nowhere else.
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

	"github.com/sakif/converse/internal/auth"
	"github.com/sakif/converse/internal/handler"
	"github.com/sakif/converse/internal/middleware"
	sqliteRepo "github.com/sakif/converse/internal/repository/sqlite"
	"github.com/sakif/converse/internal/service"
	"github.com/sakif/converse/internal/storage"
)

// Config carries everything the server needs; main.go populates it from
// the environment. The JWT secret and TTL are passed down explicitly into
// the token service — no ambient lookups below this point.
type Config struct {
	Port      int
	DBPath    string
	JWTSecret string
	TokenTTL  time.Duration
	UploadDir string
}

// Server owns the router and the database handle; the database is closed
// during graceful shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New builds the full dependency graph. Each layer receives interfaces,
// not concretions: services get repositories, handlers get services.
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

func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	blobs, err := storage.NewDiskStore(s.config.UploadDir)
	if err != nil {
		return fmt.Errorf("creating blob store: %w", err)
	}

	users := s.db.Users()
	channels := s.db.Channels()

	authSvc := service.NewAuthService(users, tokens, passwords, blobs, s.logger)
	channelSvc := service.NewChannelService(channels, users, s.logger)
	contactSvc := service.NewContactService(users, s.logger)

	authHandler := handler.NewAuthHandler(authSvc, tokens.TTL(), s.logger)
	channelHandler := handler.NewChannelHandler(channelSvc, s.logger)
	contactHandler := handler.NewContactHandler(contactSvc, s.logger)

	// Uploaded profile images are served statically under their stored
	// references.
	fileServer := http.FileServer(http.Dir(s.config.UploadDir))
	s.router.Handle("/"+s.config.UploadDir+"/*",
		http.StripPrefix("/"+s.config.UploadDir+"/", fileServer))

	// Open endpoints: session establishment and teardown.
	s.router.Post("/signup", authHandler.HandleSignup)
	s.router.Post("/login", authHandler.HandleLogin)
	s.router.Post("/logout", authHandler.HandleLogout)

	// Everything else sits behind the auth gate.
	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))

		r.Get("/user-info", authHandler.HandleUserInfo)
		r.Post("/update-profile", authHandler.HandleUpdateProfile)
		r.Post("/add-profile-image", authHandler.HandleAddProfileImage)
		r.Delete("/remove-profile-image", authHandler.HandleRemoveProfileImage)

		r.Post("/channels", channelHandler.HandleCreate)
		r.Get("/channels", channelHandler.HandleList)
		r.Get("/channels/{id}/messages", channelHandler.HandleMessages)

		r.Post("/contacts/search", contactHandler.HandleSearch)
		r.Get("/contacts", contactHandler.HandleAll)
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests, close
// the database (flushes the WAL).
func (s *Server) Start() error {
	defer s.db.Close()

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
