// Package health serves the keep-alive endpoint hosting platforms poll to
// keep the bot process running.
package health

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	pingTimeout     = 2 * time.Second
	shutdownTimeout = 5 * time.Second
)

// timeNow is a package-level var so tests can pin timestamps.
var timeNow = time.Now

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the keep-alive HTTP server.
type Server struct {
	addr   string
	store  Pinger
	engine *gin.Engine
	logger *zap.Logger
}

// NewServer builds the router. store may be nil, in which case /health only
// reports that the process is up.
func NewServer(addr string, store Pinger, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)

	s := &Server{addr: addr, store: store, logger: logger.Named("health")}
	s.engine = gin.New()
	s.engine.Use(gin.Recovery(), s.requestLog)
	s.engine.GET("/", s.alive)
	s.engine.GET("/health", s.health)
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.engine, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.logger.Info("health server listening", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("health server stopped")
	return nil
}

func (s *Server) alive(c *gin.Context) {
	c.String(http.StatusOK, "Bot is alive")
}

func (s *Server) health(c *gin.Context) {
	body := gin.H{"status": "healthy", "timestamp": timeNow().UTC()}
	if s.store == nil {
		c.JSON(http.StatusOK, body)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		s.logger.Warn("store ping failed", zap.Error(err))
		body["status"] = "unhealthy"
		body["store"] = "unreachable"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	body["store"] = "ok"
	c.JSON(http.StatusOK, body)
}

func (s *Server) requestLog(c *gin.Context) {
	start := timeNow()
	c.Next()
	s.logger.Debug("request",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", c.Writer.Status()),
		zap.Duration("latency", timeNow().Sub(start)),
	)
}
