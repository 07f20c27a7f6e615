// Package web serves the call-path control API and event stream over HTTP.
package web

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-callpath/internal/log"
	"github.com/teslashibe/go-callpath/pkg/audiopath"
	"github.com/teslashibe/go-callpath/pkg/hub"
)

// DefaultLockTimeout bounds how long a request waits for the path permit
const DefaultLockTimeout = 2 * time.Second

// Config holds the HTTP server settings
type Config struct {
	Addr         string
	LockTimeout  time.Duration
	AllowOrigins string // CORS origins, "*" when empty
	AccessLog    bool
}

// Server is the HTTP control surface of one controller
type Server struct {
	app    *fiber.App
	svc    audiopath.Service
	events *hub.Hub
	cfg    Config
	logger *slog.Logger
}

// NewServer creates the server. Transitions reach websocket subscribers
// through events; pass the same hub to the controller as its observer.
// A nil hub is replaced by a private one.
func NewServer(svc audiopath.Service, events *hub.Hub, cfg Config) *Server {
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = DefaultLockTimeout
	}
	if cfg.AllowOrigins == "" {
		cfg.AllowOrigins = "*"
	}
	if events == nil {
		events = hub.New("events")
	}

	s := &Server{
		svc:    svc,
		events: events,
		cfg:    cfg,
		logger: log.With("component", "web"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "callpath",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	if cfg.AccessLog {
		app.Use(logger.New())
	}
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.AllowOrigins}))

	// API routes
	api := app.Group("/api")
	api.Get("/modes", s.handleModes)
	api.Get("/state", s.handleState)
	api.Put("/path/:mode", s.handleSetPath)
	api.Post("/power/suspend", s.handleSuspend)
	api.Post("/power/resume", s.handleResume)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/events", websocket.New(s.handleEventsWS))

	s.app = app
	return s
}

// App exposes the fiber app, mainly for tests
func (s *Server) App() *fiber.App {
	return s.app
}

// Events returns the event hub
func (s *Server) Events() *hub.Hub {
	return s.events
}

// Observe forwards a transition to event subscribers
func (s *Server) Observe(t audiopath.Transition) {
	s.events.Observe(t)
}

// Start runs the event hub and listens until Shutdown
func (s *Server) Start() error {
	go s.events.Run()
	s.logger.Info("http control api listening", "addr", s.cfg.Addr)
	return s.app.Listen(s.cfg.Addr)
}

// Shutdown gracefully stops the web server and the event hub
func (s *Server) Shutdown() error {
	err := s.app.Shutdown()
	s.events.Stop()
	return err
}

var _ audiopath.Observer = (*Server)(nil)
