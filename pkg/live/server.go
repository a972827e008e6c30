package live

import (
	"context"
	_ "embed"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vango-dev/pushroute/pkg/metrics"
	"github.com/vango-dev/pushroute/pkg/middleware"
	"github.com/vango-dev/pushroute/pkg/site"
)

// Paths served under the reserved prefix.
const (
	LivePath   = "/_pushroute/live"
	ClientPath = "/_pushroute/client.js"
)

//go:embed client.js
var clientJS []byte

// Config configures the live server.
type Config struct {
	// Address is the listen address (default: "localhost:3000").
	Address string

	// ReadTimeout is how long a session may stay silent before it is
	// dropped. Pings keep healthy connections alive.
	ReadTimeout time.Duration

	// WriteTimeout bounds each WebSocket write.
	WriteTimeout time.Duration

	// PingInterval is how often idle sessions are pinged.
	PingInterval time.Duration

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration

	// AllowedOrigins are accepted for WebSocket upgrades in addition to the
	// request's own host.
	AllowedOrigins []string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Address:         "localhost:3000",
		ReadTimeout:     60 * time.Second,
		WriteTimeout:    10 * time.Second,
		PingInterval:    25 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Server serves a site: server-rendered pages over HTTP and live sessions
// over WebSocket.
type Server struct {
	site     *site.Site
	config   *Config
	logger   *slog.Logger
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	upgrader websocket.Upgrader

	done chan struct{}
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics records router and session metrics to m and serves g on
// /metrics.
func WithMetrics(m *metrics.Metrics, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = g
	}
}

// New creates a server for st. A nil config uses DefaultConfig; zero fields
// are filled from it.
func New(st *site.Site, config *Config, opts ...Option) *Server {
	defaults := DefaultConfig()
	if config == nil {
		config = defaults
	} else {
		c := *config
		if c.Address == "" {
			c.Address = defaults.Address
		}
		if c.ReadTimeout == 0 {
			c.ReadTimeout = defaults.ReadTimeout
		}
		if c.WriteTimeout == 0 {
			c.WriteTimeout = defaults.WriteTimeout
		}
		if c.PingInterval == 0 {
			c.PingInterval = defaults.PingInterval
		}
		if c.ShutdownTimeout == 0 {
			c.ShutdownTimeout = defaults.ShutdownTimeout
		}
		config = &c
	}

	s := &Server{
		site:   st,
		config: config,
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default().With("component", "live")
	}
	if s.gatherer == nil {
		s.gatherer = prometheus.DefaultGatherer
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Handler returns the HTTP handler for the site.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logger(s.logger))
	r.Use(middleware.Tracing())
	r.Use(middleware.Metrics(s.metrics))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Get(ClientPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		w.Write(clientJS)
	})
	r.Get(LivePath, s.HandleWebSocket)
	r.Get("/*", s.HandlePage)

	return r
}

// HandleWebSocket upgrades the request and runs a session until the
// connection closes or the server shuts down.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		s.metrics.RecordWebSocketError("upgrade")
		return
	}
	defer conn.Close()

	sess, err := newSession(conn, s.site, s.config, s.logger, s.metrics)
	if err != nil {
		s.logger.Error("session setup failed", "error", err)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "site misconfigured"),
			time.Now().Add(s.config.WriteTimeout))
		return
	}

	s.metrics.RecordSessionOpen()
	defer s.metrics.RecordSessionClose()
	sess.logger.Info("session started", "remote", r.RemoteAddr)
	defer sess.logger.Info("session ended")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-s.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	pingDone := make(chan struct{})
	defer close(pingDone)
	go sess.pingLoop(pingDone)

	sess.ReadLoop(ctx)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	for _, allowed := range s.config.AllowedOrigins {
		if strings.EqualFold(origin, allowed) {
			return true
		}
	}
	return false
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.config.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", s.config.Address)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil

	case <-ctx.Done():
		s.logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()

		// Hijacked WebSocket connections are not tracked by http.Server.
		close(s.done)
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
		s.logger.Info("server shutdown complete")
		return nil
	}
}
