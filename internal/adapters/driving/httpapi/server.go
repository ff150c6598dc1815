// Package httpapi exposes retrieval, upload, sync and repository file
// lookups over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driving"
	"github.com/custodia-labs/docsync/internal/logger"
)

// Default configuration values.
const (
	DefaultMaxUploadBytes = 20 << 20
	DefaultShutdownGrace  = 10 * time.Second

	maxJSONBodyBytes = 1 << 20
)

// Ports are the core services served by the API. Nil ports answer 501.
type Ports struct {
	Retriever driving.Retriever
	Prompts   driving.PromptBuilder
	Ingestor  driving.Ingestor
	Sync      driving.SyncCoordinator
	Documents driving.DocumentIndex
	Files     driving.RepositoryFiles
}

// Config configures the HTTP server.
type Config struct {
	// Addr is the listen address, e.g. 127.0.0.1:8080.
	Addr string

	// Token, when set, must be presented as a bearer token.
	Token string

	// Defaults are the retrieval options requests start from.
	Defaults domain.RetrieveOptions

	// MaxUploadBytes caps upload bodies (default: 20 MiB).
	MaxUploadBytes int64
}

// Server is the docsync HTTP API.
type Server struct {
	ports   Ports
	cfg     Config
	log     *logger.Logger
	handler http.Handler
}

// NewServer creates the API server.
func NewServer(ports Ports, cfg Config, log *logger.Logger) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.Defaults.MaxResults == 0 {
		cfg.Defaults = domain.DefaultRetrieveOptions()
	}
	if log == nil {
		log = logger.Discard()
	}
	s := &Server{ports: ports, cfg: cfg, log: log.With("http")}
	s.handler = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLog)

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.cfg.Token != "" {
			r.Use(BearerAuth(s.cfg.Token))
		}

		r.Post("/retrieve", s.handleRetrieve)
		r.Post("/prompt", s.handlePrompt)
		r.Post("/upload", s.handleUpload)

		r.Post("/sync", s.handleSync)
		r.Get("/sync/status", s.handleSyncStatus)

		r.Get("/documents", s.handleListDocuments)
		r.Get("/documents/{id}", s.handleGetDocument)
		r.Delete("/documents/{id}", s.handleDeleteDocument)

		r.Route("/files", func(r chi.Router) {
			r.Get("/components-list", s.handleComponentsList)
			r.Get("/style-guide", s.handleStyleGuide)
			r.Post("/component-code", s.handleComponentCode)
			r.Post("/component-metadata", s.handleComponentMetadata)
		})
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening on %s", ln.Addr())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("%s %s %d %s", r.Method, r.URL.Path, ww.Status(), time.Since(start).Round(time.Millisecond))
	})
}
