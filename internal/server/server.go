package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/taskhive-app/apiserver/config"
	"github.com/taskhive-app/apiserver/internal/auth"
	"github.com/taskhive-app/apiserver/internal/db"
	"github.com/taskhive-app/apiserver/internal/handlers"
	"github.com/taskhive-app/apiserver/internal/mailer"
	"github.com/taskhive-app/apiserver/internal/services"
	"github.com/taskhive-app/apiserver/internal/store"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
}

// New constructs a Server. Every collaborator (pool, mailer, signing
// secret) is built once here and injected; nothing is package-global.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	jwtSecret := strings.TrimSpace(cfg.JWTSecret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	tokenRepo := store.NewTokenRepository(dbConn)
	projectRepo := store.NewProjectRepository(dbConn)
	taskRepo := store.NewTaskRepository(dbConn)

	sessions := auth.NewSessionIssuer(jwtSecret)

	var mail mailer.Mailer
	if cfg.Mailer.APIKey != "" {
		mail = mailer.NewHTTPMailer(cfg.Mailer.APIKey, cfg.Mailer.From, cfg.FrontendURL, cfg.Mailer.BaseURL)
	} else {
		mail = mailer.NewLogMailer(logger)
	}

	accountService := services.NewAccountService(userRepo, tokenRepo, sessions, mail, logger)
	projectService := services.NewProjectService(projectRepo, userRepo, logger)
	taskService := services.NewTaskService(taskRepo, logger)

	authHandler := handlers.NewAuthHandler(accountService, sessions)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/api/auth", func(r chi.Router) {
		handlers.AuthRouter(r, accountService, sessions)
	})
	router.Route("/api/projects", func(r chi.Router) {
		handlers.ProjectRouter(r, projectService, taskService, authHandler.RequireAuth)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}
