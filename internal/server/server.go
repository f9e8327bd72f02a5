// Package server wires the gateway's HTTP surface: the access-policy
// middleware chain and the API handlers, on a chi router with graceful
// shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"
)

// shutdownGrace is how long in-flight requests get on shutdown.
const shutdownGrace = 5 * time.Second

// Server hosts the gateway.
type Server struct {
	port    int
	handler http.Handler
	logger  *slog.Logger
}

// New builds a server from an assembled handler. Route assembly lives in
// Routes (routes.go); keeping construction separate lets tests drive the
// handler without binding a port.
func New(port int, handler http.Handler, logger *slog.Logger) *Server {
	return &Server{port: port, handler: handler, logger: logger}
}

// BaseRouter returns a chi mux with the always-on middleware stack.
func BaseRouter(logger *slog.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		chimw.Compress(5),
		requestLogger(logger),
	)
	return r
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", chimw.GetReqID(r.Context()),
			)
		})
	}
}

// Serve starts the HTTP server and blocks until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting gateway", "addr", addr)

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: s.handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()

		s.logger.Debug("shutting down gateway...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
