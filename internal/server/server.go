// Package server exposes the extension build pipeline over HTTP.
package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/Cumulocity-IoT/cumulocity-analytics-management/internal/logger"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/auth"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/config"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/content"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/orchestrator"
	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/platform"
)

// Service is the part of the orchestrator the handlers call.
type Service interface {
	Build(ctx context.Context, req orchestrator.BuildRequest) (*orchestrator.BuildResult, error)
	BuildFromDescriptor(ctx context.Context, req orchestrator.DescriptorRequest) (*orchestrator.BuildResult, error)
	Content(ctx context.Context, caller auth.Authenticator, repositoryID, rawURL string) ([]byte, error)
	ContentList(ctx context.Context, caller auth.Authenticator, repositoryID, rawURL string) ([]content.Item, error)
	Repositories(ctx context.Context, caller auth.Authenticator) ([]platform.Repository, error)
}

// Server serves the build API on a TCP listener. Serve blocks until the
// context is cancelled and in-flight requests drain.
type Server struct {
	cfg     config.ServerConfig
	svc     Service
	log     *slog.Logger
	handler http.Handler

	// ready is closed once the listener is bound.
	ready chan struct{}
	addr  net.Addr
}

// New creates a server for svc. Zero timeouts and limits fall back to the
// configuration defaults.
func New(cfg config.ServerConfig, svc Service, log *slog.Logger) *Server {
	if cfg.Listen == "" {
		cfg.Listen = config.DefaultListen
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = config.DefaultReadHeaderTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = config.DefaultShutdownTimeout
	}
	if cfg.MaxRequestBody <= 0 {
		cfg.MaxRequestBody = config.DefaultMaxRequestBody
	}

	s := &Server{
		cfg:   cfg,
		svc:   svc,
		log:   logger.OrDefault(log),
		ready: make(chan struct{}),
	}
	s.handler = s.routes()
	return s
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Ready returns a channel that is closed once the server is accepting
// connections.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the resolved listen address. Only valid after Ready is
// closed.
func (s *Server) Addr() net.Addr {
	return s.addr
}

// Serve accepts connections until ctx is cancelled, then shuts down
// gracefully, waiting up to the shutdown timeout for active requests.
func (s *Server) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Listen, err)
	}
	s.addr = listener.Addr()
	close(s.ready)

	// No write timeout: builds run as long as the builder timeout allows.
	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
		IdleTimeout:       60 * time.Second,
	}

	s.log.Info("http server listening", "address", s.addr.String())

	serveDone := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			serveDone <- err
		}
		close(serveDone)
	}()

	select {
	case <-ctx.Done():
		s.log.Info("http server shutting down")
	case err := <-serveDone:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		s.log.Error("http server shutdown error", "error", err)
		return fmt.Errorf("http server shutdown: %w", err)
	}

	s.log.Info("http server stopped")
	return nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /extension", s.handleExtension)
	mux.HandleFunc("POST /extension/list", s.handleExtension)
	mux.HandleFunc("POST /extension/repository", s.handleRepositoryExtension)
	mux.HandleFunc("POST /extension/yaml", s.handleDescriptorExtension)
	mux.HandleFunc("GET /repository/content", s.handleContent)
	mux.HandleFunc("GET /repository/contentList", s.handleContentList)
	mux.HandleFunc("GET /repository/configuration", s.handleConfiguration)
	return s.withRequestLogger(mux)
}

// withRequestLogger attaches a request-scoped logger carrying a fresh
// request id and recovers from handler panics.
func (s *Server) withRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := logger.NewRequestID()
		log := s.log.With("request_id", id)
		w.Header().Set("X-Request-Id", id)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			if p := recover(); p != nil {
				log.Error("handler panic", "panic", p, "path", r.URL.Path)
				if !rec.wrote {
					writeMessage(rec, http.StatusInternalServerError, "internal server error")
				}
			}
			log.Debug("request served",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start))
		}()

		if r.Body != nil {
			r.Body = http.MaxBytesReader(rec, r.Body, s.cfg.MaxRequestBody)
		}
		next.ServeHTTP(rec, r.WithContext(logger.NewContext(r.Context(), log)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.wrote {
		r.status = status
		r.wrote = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wrote = true
	return r.ResponseWriter.Write(b)
}
