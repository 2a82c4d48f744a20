package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/m3rciful/relaybot/core/logger"
)

// Check reports the health of a dependency; nil means healthy.
type Check func(ctx context.Context) error

// ServerOptions configures the metrics endpoint.
type ServerOptions struct {
	Addr   string
	Checks map[string]Check
	// CheckTimeout bounds a single /healthz evaluation; 0 -> 2s.
	CheckTimeout time.Duration
}

// Server exposes /metrics and /healthz.
type Server struct {
	opts   ServerOptions
	router chi.Router
	srv    *http.Server
	done   chan struct{}
}

// NewServer builds the router; call Start to listen.
func NewServer(opts ServerOptions) *Server {
	if opts.CheckTimeout <= 0 {
		opts.CheckTimeout = 2 * time.Second
	}
	s := &Server{opts: opts}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/healthz", s.handleHealth)
	s.router = r
	return s
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start binds the listener and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		logger.Error(ctx, "http", "listen.fail",
			slog.String("addr", s.opts.Addr),
			slog.String("err", err.Error()),
		)
		return err
	}
	s.srv = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.done = make(chan struct{})
	logger.Info(ctx, "http", "listen",
		slog.String("addr", ln.Addr().String()),
	)
	go func() {
		defer close(s.done)
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(context.Background(), "http", "serve.fail",
				slog.String("err", err.Error()),
			)
		}
	}()
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	err := s.srv.Shutdown(ctx)
	<-s.done
	logger.Info(ctx, "http", "stopped")
	return err
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.opts.CheckTimeout)
	defer cancel()

	names := make([]string, 0, len(s.opts.Checks))
	for name := range s.opts.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := healthResponse{Status: "ok"}
	code := http.StatusOK
	for _, name := range names {
		if resp.Checks == nil {
			resp.Checks = make(map[string]string, len(names))
		}
		if err := s.opts.Checks[name](ctx); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
