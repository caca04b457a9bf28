package server

import (
	"backend-rotaapp/internal/auth"
	"backend-rotaapp/internal/config"
	"backend-rotaapp/internal/engagement"
	"backend-rotaapp/internal/feed"
	"backend-rotaapp/internal/imagecache"
	"backend-rotaapp/internal/marker"
	"backend-rotaapp/internal/profile"
	"backend-rotaapp/internal/storage"
	"backend-rotaapp/internal/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Stream *stream.Hub
	Images *imagecache.Store
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient),
		Images: imagecache.NewStore(redisClient),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)
	resolver := imagecache.NewResolver(s.Images, s.DB)

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.DB))
	marker.RegisterRoutes(s.App.Group("/markers"), marker.NewService(s.DB, resolver), jwtMiddleware)
	feed.RegisterRoutes(s.App.Group("/feed"), feed.NewService(s.DB, resolver, s.Cfg.FeedPerUserLimit, s.Cfg.FeedCheckWorkers), jwtMiddleware)
	engagement.RegisterRoutes(s.App.Group("/social"), engagement.NewService(s.DB, s.Stream), jwtMiddleware)
	profile.RegisterRoutes(s.App.Group("/profile"), profile.NewService(s.DB, s.Images, resolver), jwtMiddleware)
	storage.RegisterRoutes(s.App.Group("/storage"), storage.NewService(s.DB), jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
