// Package server assembles the HTTP surface: the frame route tree behind its
// middleware chain, plus the operational endpoints on the root router.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/frameforge/giftstorage/internal/config"
	"github.com/frameforge/giftstorage/internal/frame"
	"github.com/frameforge/giftstorage/internal/logging"
	"github.com/frameforge/giftstorage/internal/metrics"
	"github.com/frameforge/giftstorage/internal/middleware"
	"github.com/frameforge/giftstorage/internal/xmtp"
)

// Server is the frame HTTP server.
type Server struct {
	httpServer *http.Server
	log        *logging.Logger
}

// New builds the router and binds the frame handler under cfg.BasePath.
func New(cfg *config.Config, handler *frame.Handler, verifier xmtp.Verifier, log *logging.Logger) *Server {
	root := mux.NewRouter()
	root.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	root.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	sub := root.PathPrefix(cfg.BasePath).Subrouter()

	// Order matters: logging first so every request carries a trace id,
	// metrics next so rejected requests are still observed, then the protocol
	// classifier, then rate limiting keyed on the classified caller.
	sub.Use(middleware.LoggingMiddleware(log))
	sub.Use(middleware.MetricsMiddleware())
	sub.Use(middleware.NewClassifier(verifier, log).Handler)

	rl := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, log)
	rl.StartCleanup(5 * time.Minute)
	sub.Use(rl.Handler)

	handler.Register(sub)

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.ListenAddr,
			Handler:      root,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 90 * time.Second, // settlement waits can be slow
			IdleTimeout:  60 * time.Second,
		},
		log: log,
	}
}

// Handler exposes the assembled router. Used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start blocks serving requests until the listener fails or Shutdown runs.
func (s *Server) Start() error {
	s.log.WithFields(map[string]interface{}{"addr": s.httpServer.Addr}).Info("server listening")
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("server shutting down")
	return s.httpServer.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
