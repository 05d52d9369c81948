// Package server exposes the shell over websocket sessions and the analysis
// client over a small JSON API.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/franckalain/nutrilens/internal/metrics"
	"github.com/franckalain/nutrilens/internal/models"
	"github.com/franckalain/nutrilens/internal/shell"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const shutdownTimeout = 10 * time.Second

// Journal reads back recorded analyses.
type Journal interface {
	GetRecentAnalysisRecords(ctx context.Context, limit int) ([]*models.AnalysisRecord, error)
}

// Options tune the server.
type Options struct {
	StaticDir         string
	RequestsPerMinute int
	PreviewInterval   time.Duration
}

type Server struct {
	analyzer        shell.Analyzer
	journal         Journal
	staticDir       string
	previewInterval time.Duration
	limiter         *clientLimiter
	sessions        sync.Map // session id -> *session
}

// New creates a server. journal may be nil when the journal is disabled.
func New(analyzer shell.Analyzer, journal Journal, opts Options) *Server {
	if opts.PreviewInterval <= 0 {
		opts.PreviewInterval = shell.PreviewInterval
	}
	if opts.RequestsPerMinute <= 0 {
		opts.RequestsPerMinute = 30
	}
	return &Server{
		analyzer:        analyzer,
		journal:         journal,
		staticDir:       opts.StaticDir,
		previewInterval: opts.PreviewInterval,
		limiter:         newClientLimiter(opts.RequestsPerMinute),
	}
}

// Handler builds the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/ws", s.handleWebSocket)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.With(s.limiter.middleware).Post("/analyze", s.handleAnalyze)
		r.Get("/scans", s.handleScans)
	})

	if s.staticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.staticDir)))
	}
	return r
}

// Start serves on port until ctx is cancelled or SIGINT/SIGTERM arrives.
func (s *Server) Start(ctx context.Context, port string) error {
	// Setup signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting server on port %s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// requestLogger logs one line per request with apex/log.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		log.WithFields(log.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"duration":   time.Since(start).String(),
			"request_id": middleware.GetReqID(r.Context()),
			"remote":     r.RemoteAddr,
		}).Debug("HTTP request")
	})
}
