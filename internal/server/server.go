package server

import (
	"backend-ridetracker/internal/auth"
	"backend-ridetracker/internal/config"
	"backend-ridetracker/internal/export"
	"backend-ridetracker/internal/ride"
	"backend-ridetracker/internal/settings"
	"backend-ridetracker/internal/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App      *fiber.App
	Cfg      config.Config
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Stream   *stream.Hub
	Recorder *ride.Recorder
	Store    *ride.Store
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	hub := stream.NewHub(redisClient)
	store := ride.NewStore(db)
	settingsSvc := settings.NewService(redisClient)
	recorder := ride.NewRecorder(store, hub, settingsSvc, ride.Options{
		MaxFixAccuracyM:      cfg.MaxFixAccuracyM,
		MaxPlausibleSpeedMps: cfg.MaxPlausibleSpeedMps,
		MinRideDurationMs:    cfg.MinRideDurationMs,
	})

	s := &Server{
		App:      app,
		Cfg:      cfg,
		DB:       db,
		Redis:    redisClient,
		Stream:   hub,
		Recorder: recorder,
		Store:    store,
	}

	registerRoutes(s, settingsSvc)
	return s
}

func registerRoutes(s *Server, settingsSvc *settings.Service) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	authSvc := auth.NewService(s.Cfg.JWTSecret, s.DB)
	jwtMiddleware := auth.JWTMiddleware(authSvc)

	auth.RegisterRoutes(s.App.Group("/auth"), authSvc)
	rides := s.App.Group("/rides")
	ride.RegisterRoutes(rides, s.Recorder, s.Store, jwtMiddleware)
	export.RegisterRoutes(rides, s.Store)
	settings.RegisterRoutes(s.App.Group("/settings"), settingsSvc, jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
