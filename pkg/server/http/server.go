package httpfiber

import (
	"encoding/json"
	"log"
	"net"
	"os"
	"time"

	"github.com/gofiber/contrib/fiberzap/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hyperledger/web3j-cli-sub000/pkg/logger"
)

// ReadinessFunc reports whether the process is ready to serve.
type ReadinessFunc func() error

// Server exposes /metrics and /readiness for long running commands.
type Server struct {
	app  *fiber.App
	addr string

	registry  *prometheus.Registry
	readiness ReadinessFunc
	zapLogger *zap.Logger
}

type Option func(*Server)

func NewServer(addr string, opts ...Option) *Server {
	app := fiber.New(fiber.Config{
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		DisableStartupMessage: true,
	})
	srv := &Server{
		app:      app,
		addr:     addr,
		registry: prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(srv)
	}

	if srv.zapLogger != nil {
		srv.app.Use(fiberzap.New(fiberzap.Config{
			Logger: srv.zapLogger,
		}))
	}
	srv.MapRoutes()
	return srv
}

func WithRegistry(registry *prometheus.Registry) Option {
	return func(s *Server) {
		if registry != nil {
			s.registry = registry
		}
	}
}

func WithReadiness(fn ReadinessFunc) Option {
	return func(s *Server) {
		s.readiness = fn
	}
}

// WithRequestLogging logs every request through zapLogger.
func WithRequestLogging(zapLogger *zap.Logger) Option {
	return func(s *Server) {
		s.zapLogger = zapLogger
	}
}

func (s *Server) MapRoutes() {
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		ErrorLog:      log.New(os.Stderr, log.Prefix(), log.Flags()),
		ErrorHandling: promhttp.ContinueOnError,
	})))

	s.app.Get("/readiness", func(c *fiber.Ctx) error {
		if s.readiness != nil {
			if err := s.readiness(); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"status": "unavailable",
					"error":  err.Error(),
				})
			}
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "ok",
		})
	})
}

// Run blocks serving on the configured address until Stop is called.
func (s *Server) Run() error {
	logger.Infof("listening on %s", s.addr)
	return s.app.Listen(s.addr)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ln net.Listener) error {
	logger.Infof("listening on %s", ln.Addr())
	return s.app.Listener(ln)
}

func (s *Server) Stop() {
	logger.Infof("Stopping HTTP server...")
	if err := s.app.ShutdownWithTimeout(1 * time.Second); err != nil {
		logger.Debugf("HTTP server shutdown: %v", err)
	}
	logger.Infof("HTTP server stopped")
}
