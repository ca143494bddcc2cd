package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"enrichd/internal/config"
	"enrichd/internal/ledger"
	"enrichd/internal/logging"
	"enrichd/internal/reconcile"
)

// NotificationHandler processes pushed job status updates.
type NotificationHandler interface {
	HandleNotification(ctx context.Context, notification reconcile.Notification) error
}

// ResourceResolver picks the downloadable URL for a video.
type ResourceResolver interface {
	BestResourceURL(ctx context.Context, oid string) (string, error)
}

// ResourceStreamer opens a streaming fetch of a resolved URL.
type ResourceStreamer interface {
	StreamResource(ctx context.Context, downloadURL string) (*http.Response, error)
}

// PortalLinker builds the human-facing job page URL.
type PortalLinker interface {
	PortalURL(enrichmentID string) string
}

// Server is the HTTP surface of the bridge.
type Server struct {
	cfg           *config.Config
	store         *ledger.Store
	notifications NotificationHandler
	resolver      ResourceResolver
	streamer      ResourceStreamer
	portal        PortalLinker
	logger        *slog.Logger
}

// New builds a Server.
func New(cfg *config.Config, store *ledger.Store, notifications NotificationHandler, resolver ResourceResolver, streamer ResourceStreamer, portal PortalLinker, logger *slog.Logger) *Server {
	return &Server{
		cfg:           cfg,
		store:         store,
		notifications: notifications,
		resolver:      resolver,
		streamer:      streamer,
		portal:        portal,
		logger:        logging.WithComponent(logger, "server"),
	}
}

// Handler builds the route tree.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(requestID)
	router.Use(requestLogger(s.logger))

	router.Post("/webhook", s.handleWebhook)
	router.Get("/export/{oid}", s.handleExport)
	router.Get("/redirect_to_aristote_portal/{oid}", s.handlePortalRedirect)
	router.Get("/requests.csv", s.handleRequestsCSV)
	router.Get("/health", s.handleHealth)

	return router
}

// ListenAndServe runs the server until the context is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Server.Bind,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "bind", s.cfg.Server.Bind)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}
