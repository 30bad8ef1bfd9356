package api

import (
	"context"
	"fmt"

	"github.com/fathima-sithara/snip/internal/metrics"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

type Options struct {
	Port    int
	Config  fiber.Config
	Limiter *RateLimiter
}

type Server struct {
	app  *fiber.App
	port int
	log  *zap.Logger
}

func NewServer(h *Handler, opts Options, log *zap.Logger) *Server {
	app := fiber.New(opts.Config)
	mw := JWTAuth(h.tokens, h.revoked, log)
	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(RequestLogger(log))

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"status": "ok"}) })
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	byIP := opts.Limiter.MiddlewareByKey(func(c *fiber.Ctx) string { return "auth:" + c.IP() })

	v1 := app.Group("/v1")
	authGroup := v1.Group("/auth")
	authGroup.Post("/signup", byIP, h.SignUp)
	authGroup.Post("/login", byIP, h.Login)
	authGroup.Post("/logout", mw, h.Logout)

	v1.Get("/me", mw, h.Me)
	v1.Get("/users", mw, h.ListUsers)
	v1.Get("/users/:id", mw, h.GetUser)
	v1.Get("/groups", mw, h.ListGroups)
	v1.Post("/groups", mw, h.CreateGroup)
	v1.Get("/groups/ws", mw, upgradeOnly, websocket.New(h.GroupsSocket))
	v1.Post("/chats/:peer/messages", mw, h.SendMessage)
	v1.Get("/chats/:peer/ws", mw, upgradeOnly, websocket.New(h.ChatSocket))

	return &Server{app: app, port: opts.Port, log: log}
}

func upgradeOnly(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App { return s.app }

func (s *Server) Listen() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.log.Info("server listening", zap.String("addr", addr))
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
