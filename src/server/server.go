package server

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/go-playground/validator"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"

	"github.com/hexymap/hexy/src/config"
	"github.com/hexymap/hexy/src/engine"
	"github.com/hexymap/hexy/src/logging"
	"github.com/hexymap/hexy/src/mapstyle"
	"github.com/hexymap/hexy/src/project_types"
	"github.com/hexymap/hexy/src/session"
	"github.com/hexymap/hexy/src/strava"
	"github.com/hexymap/hexy/src/web"
)

var validate = validator.New()

type UserStore interface {
	SaveUser(ctx context.Context, user project_types.User) error
	GetUser(ctx context.Context, id int64) (*project_types.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// ActivitySource is the Strava side of the app: login and activity listing.
type ActivitySource interface {
	OAuthURL(state string) (string, error)
	GetToken(ctx context.Context, code string, grant strava.GrantType) (*strava.Token, error)
	GetActivities(ctx context.Context, accessToken string) ([]strava.ActivityResponse, error)
}

type Server struct {
	app      *fiber.App
	store    UserStore
	source   ActivitySource
	sessions *session.Manager
	cache    *expirable.LRU[int64, *project_types.Data]
	mapCfg   mapstyle.MapConfig
	engine   engine.Options
	secure   bool
	port     int
	log      zerolog.Logger
	now      func() time.Time
}

func New(cfg *config.Config, store UserStore, source ActivitySource, sessions *session.Manager, logger zerolog.Logger) *Server {
	s := &Server{
		store:    store,
		source:   source,
		sessions: sessions,
		cache:    expirable.NewLRU[int64, *project_types.Data](cfg.Server.CacheSize, nil, cfg.Server.CacheTTL),
		mapCfg:   mapstyle.Build(cfg.Map, mapstyle.DefaultGroups()),
		engine: engine.Options{
			Resolution:         cfg.Engine.Resolution,
			CentroidResolution: cfg.Engine.CentroidResolution,
			Workers:            cfg.Engine.Workers,
		},
		secure: cfg.Session.Secure,
		port:   cfg.Server.Port,
		log:    logger.With().Str("component", "server").Logger(),
		now:    time.Now,
	}

	s.app = fiber.New(fiber.Config{
		Views:                 html.NewFileSystem(web.Templates(), ".html"),
		ErrorHandler:          s.errorHandler,
		DisableStartupMessage: true,
	})
	s.app.Use(logging.RequestLogger(logger))
	s.app.Use(recover.New())
	s.app.Use("/static", filesystem.New(filesystem.Config{Root: web.Static()}))

	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	s.app.Get("/", s.index)
	s.app.Get("/home", s.page("home", "About"))
	s.app.Get("/privacy", s.page("privacy", "Privacy"))
	s.app.Get("/map-config", func(c *fiber.Ctx) error {
		return c.JSON(s.mapCfg)
	})
	s.app.Get("/data", limiter.New(limiter.Config{
		Max:        cfg.Server.RateLimit,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.ErrTooManyRequests
		},
	}), s.data)
	s.app.Get("/auth", s.auth)
	s.app.Get("/callback", s.callback)
	s.app.Get("/logout", s.logout)

	return s
}

// App exposes the fiber app, mostly for app.Test.
func (s *Server) App() *fiber.App { return s.app }

func (s *Server) Listen() error {
	s.log.Info().Int("port", s.port).Msg("listening")
	return s.app.Listen(fmt.Sprintf(":%d", s.port))
}

// Listener serves on an existing listener, e.g. an autocert TLS one.
func (s *Server) Listener(ln net.Listener) error {
	s.log.Info().Str("addr", ln.Addr().String()).Msg("listening")
	return s.app.Listener(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
