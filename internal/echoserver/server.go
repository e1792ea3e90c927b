package echoserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/gokit-json22/errors"
	"github.com/kbukum/gokit-json22/json22"
	"github.com/kbukum/gokit-json22/logger"
)

// Server serves the echo routes.
type Server struct {
	config     Config
	engine     *gin.Engine
	httpServer *http.Server
	listener   net.Listener
	context    json22.Context
	now        func() time.Time
	log        *logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithClock replaces the time source used for payload dates.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithLogger sets the server logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Server) { s.log = l.WithComponent("echoserver") }
}

// WithContext replaces the parse context used to check JSON22 request bodies.
func WithContext(ctx json22.Context) Option {
	return func(s *Server) { s.context = ctx }
}

// New builds the server and registers its routes.
func New(cfg Config, opts ...Option) (*Server, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	gin.SetMode(cfg.Mode)
	s := &Server{
		config:  cfg,
		engine:  gin.New(),
		context: Context(),
		now:     time.Now,
		log:     logger.WithComponent("echoserver"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.engine.Use(recovery(s.log), requestID(), requestLogger(s.log))
	s.engine.Any("/echo", s.handleEcho)
	s.engine.Any("/typed", s.handleTyped)
	s.engine.Any("/json", s.handlePlainJSON)
	s.engine.NoRoute(func(c *gin.Context) {
		respondError(c, errors.NotFound("route "+c.Request.URL.Path))
	})

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.engine,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s, nil
}

// Handler returns the routed handler, for httptest servers.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start binds the listener and serves in the background. It returns once
// the port is bound.
func (s *Server) Start(_ context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("echoserver: bind %s: %w", s.config.Addr, err)
	}
	s.listener = ln

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Error("serve failed", logger.ErrorFields("serve", err))
		}
	}()

	s.log.Info("echo server listening", logger.Fields("addr", ln.Addr().String()))
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Addr
}

// Stop shuts the server down, waiting at most five seconds for requests.
func (s *Server) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("echoserver: shutdown: %w", err)
	}
	s.log.Info("echo server stopped")
	return nil
}
