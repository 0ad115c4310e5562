package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/techradar/apiserver/config"
	"github.com/techradar/apiserver/internal/auth"
	"github.com/techradar/apiserver/internal/db"
	"github.com/techradar/apiserver/internal/events"
	"github.com/techradar/apiserver/internal/handlers"
	"github.com/techradar/apiserver/internal/services"
	"github.com/techradar/apiserver/internal/storage"
	"github.com/techradar/apiserver/internal/store"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	publisher  events.Publisher
}

// New constructs a Server with its full dependency graph. Token secrets
// are validated here so a misconfigured deployment fails at startup, not
// on the first login.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tokenService, err := auth.NewTokenService(auth.TokenConfig{
		AccessSecret:  cfg.JWT.AccessSecret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
		Issuer:        cfg.JWT.Issuer,
	})
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	publisher, err := events.NewPublisher(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("init event publisher: %w", err)
	}

	assetStore, err := storage.NewAssetStore(ctx, cfg.Storage)
	if err != nil {
		if publisher != nil {
			_ = publisher.Close()
		}
		_ = dbConn.Close()
		return nil, fmt.Errorf("init asset store: %w", err)
	}

	userRepo := store.NewUserRepository(dbConn)
	membershipRepo := store.NewMembershipRepository(dbConn)
	workspaceRepo := store.NewWorkspaceRepository(dbConn)
	auditRepo := store.NewLoginAuditRepository(dbConn)
	inviteRepo := store.NewInviteRepository(dbConn)
	technologyRepo := store.NewTechnologyRepository(dbConn)

	var eventPublisher services.EventPublisher
	if publisher != nil {
		eventPublisher = publisher
	}
	var logoStore services.LogoStore
	if assetStore != nil {
		logoStore = assetStore
	}

	authService := services.NewAuthService(userRepo, membershipRepo, auditRepo, tokenService, eventPublisher, slog.Default())
	workspaceService := services.NewWorkspaceService(workspaceRepo, membershipRepo, inviteRepo, logoStore)
	technologyService := services.NewTechnologyService(technologyRepo)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Use(handlers.ResolveAuth(authService))
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, authService)
	})
	router.Route("/workspaces", func(r chi.Router) {
		handlers.WorkspaceRouter(r, workspaceService, technologyService)
	})
	router.Route("/invite", func(r chi.Router) {
		handlers.InviteRouter(r, workspaceService)
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
		publisher:  publisher,
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
	if s.publisher != nil {
		_ = s.publisher.Close()
	}
	return s.httpServer.Close()
}
