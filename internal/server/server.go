// Package server wires the site's stores, sessions and renderer into one chi router:
// the public site, the login/preview views and the admin draft API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"aetheria-site/internal/auth"
	"aetheria-site/internal/config"
	"aetheria-site/internal/content"
	"aetheria-site/internal/pages"
	"aetheria-site/internal/render"
	"aetheria-site/internal/session"
	"aetheria-site/internal/storage"

	"github.com/rs/zerolog"
)

const (
	sweepInterval  = 5 * time.Minute
	watchDebounce  = 200 * time.Millisecond
	shutdownPeriod = 10 * time.Second
)

// Server holds the application-wide dependencies.
type Server struct {
	cfg    config.Config
	logger zerolog.Logger

	store    storage.Store
	adapter  *storage.Adapter
	content  *content.Store
	catalog  *content.Catalog
	pages    *pages.Registry
	sessions *session.Manager
	gate     auth.Gate
	render   *render.Engine
}

// New builds a Server over store, the durable storage of canonical site data.
func New(cfg config.Config, store storage.Store, logger zerolog.Logger) (*Server, error) {
	hashKey, blockKey, err := cfg.SessionKeys()
	if err != nil {
		return nil, err
	}
	sessions, err := session.NewManager(session.Config{
		CookieName:   cfg.Session.CookieName,
		HashKey:      hashKey,
		BlockKey:     blockKey,
		CookieSecure: cfg.Session.CookieSecure,
		IdleTimeout:  cfg.Session.IdleTimeout,
		StoreQuota:   cfg.Session.StoreQuota,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session manager: %w", err)
	}
	engine, err := render.NewEngine()
	if err != nil {
		return nil, fmt.Errorf("failed to create template engine: %w", err)
	}

	adapter := storage.NewAdapter(store, logger.With().Str("component", "storage").Logger())
	return &Server{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		adapter:  adapter,
		content:  content.NewStore(adapter, logger),
		catalog:  content.NewCatalog(adapter, logger),
		pages:    pages.NewRegistry(adapter, logger),
		sessions: sessions,
		gate:     auth.Gate{Username: cfg.Admin.Username, Password: cfg.Admin.Password},
		render:   engine,
	}, nil
}

// Reload re-reads the canonical record stored under key.
func (s *Server) Reload(key string) {
	switch key {
	case storage.KeySiteContent:
		s.content.Load()
	case storage.KeyProducts:
		s.catalog.Load()
	case storage.KeyCustomPages:
		s.pages.Load()
	default:
		return
	}
	s.logger.Info().Str("key", key).Msg("Reloaded canonical data after external change")
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(s.cfg.Server.Port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.sessions.RunSweeper(ctx, sweepInterval)

	if js, ok := s.store.(*storage.JSONStore); ok && s.cfg.Server.WatchData {
		go func() {
			if err := js.Watch(ctx, watchDebounce, s.Reload); err != nil {
				s.logger.Error().Err(err).Msg("Data directory watcher stopped")
			}
		}()
		s.logger.Info().Str("path", js.GetBasePath()).Msg("Watching data directory for changes")
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("address", fmt.Sprintf("http://localhost%s", srv.Addr)).Msg("Starting server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownPeriod)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
