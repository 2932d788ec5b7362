// Package server serves a report artifact directory over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/kamilpajak/qaharness/internal/logging"
	"github.com/sirupsen/logrus"
)

// Options configures a Server
type Options struct {
	// Addr is the listen address. Empty means an ephemeral loopback port.
	Addr string
	// Handlers are mounted next to the file server, e.g. "GET /metrics".
	Handlers map[string]http.Handler
	Logger   logrus.FieldLogger
}

// Server serves report artifacts over HTTP
type Server struct {
	listener net.Listener
	server   *http.Server

	stopped chan struct{}
	err     error
}

// Start serves dir in the background
func Start(dir string, opts Options) (*Server, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open report directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	addr := opts.Addr
	if addr == "" {
		addr = "127.0.0.1:0"
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	log = log.WithField("component", "server")

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handleHealth)
	for pattern, h := range opts.Handlers {
		mux.Handle(pattern, h)
	}
	mux.Handle("/", http.FileServer(http.Dir(dir)))

	srv := &Server{
		listener: listener,
		stopped:  make(chan struct{}),
		server: &http.Server{
			Handler:           withRequestLog(log, mux),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	// Start server in background
	go func() {
		err := srv.server.Serve(listener)
		if !errors.Is(err, http.ErrServerClosed) {
			srv.err = err
		}
		close(srv.stopped)
	}()

	log.WithFields(logrus.Fields{"addr": listener.Addr().String(), "dir": dir}).Info("serving report")
	return srv, nil
}

// URL returns the URL of path on the server
func (s *Server) URL(path string) string {
	return fmt.Sprintf("http://%s/%s", s.listener.Addr().String(), path)
}

// Addr returns the bound listen address
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Wait blocks until ctx is done or the server fails, then shuts it down.
func (s *Server) Wait(ctx context.Context) error {
	select {
	case <-s.stopped:
		return s.err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	<-s.stopped
	return s.err
}

// Stop shuts down the server
func (s *Server) Stop() error {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return s.Wait(ctx)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func withRequestLog(log logrus.FieldLogger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		}).Debug("request")
	})
}
