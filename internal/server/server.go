package server

import (
	"net/http"
	"time"

	"backend-everywhere/internal/auth"
	"backend-everywhere/internal/config"
	"backend-everywhere/internal/fix"
	"backend-everywhere/internal/insights"
	"backend-everywhere/internal/lookup"
	"backend-everywhere/internal/place"
	"backend-everywhere/internal/store"
	"backend-everywhere/internal/stream"
	"backend-everywhere/internal/tracking"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
)

const lookupTimeout = 10 * time.Second

type Server struct {
	App      *fiber.App
	Cfg      config.Config
	Store    store.Store
	Redis    *redis.Client
	Stream   *stream.Hub
	Tracking *tracking.Service
	Insights *insights.Service
}

// NewServer wires the engine onto st. A nil st falls back to the in-memory store.
func NewServer(cfg config.Config, st store.Store, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	if st == nil {
		st = store.NewMemory()
	}

	hub := stream.NewHub(redisClient)
	// Devices upload fixes after the fact, so dwell time follows fix timestamps.
	aggregator := place.NewAggregator(st, place.WithFixTime(), place.WithOnUpdate(hub.PublishPlaces))

	hc := &http.Client{Timeout: lookupTimeout}
	google := lookup.NewGoogle(cfg.GoogleAPIKey, hc, lookup.WithBaseURL(cfg.GoogleMapsURL))
	boundary := lookup.NewBoundary(cfg.NominatimURL, cfg.UserAgent, hc, redisClient)

	s := &Server{
		App:      app,
		Cfg:      cfg,
		Store:    st,
		Redis:    redisClient,
		Stream:   hub,
		Tracking: tracking.NewService(fix.NewPushSource(), aggregator, st, st),
		Insights: insights.NewService(st, st, google, google, boundary, insights.Settings{
			CityName:    cfg.CityName,
			CityAreaKm2: cfg.CityAreaKm2,
			Location:    cfg.Location(),
		}),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	tracking.RegisterRoutes(s.App.Group("/tracking"), s.Tracking, jwtMiddleware)
	insights.RegisterRoutes(s.App, s.Insights, jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream, jwtMiddleware)
}

// Close stops tracking sessions and the stream relay.
func (s *Server) Close() {
	s.Tracking.Close()
	s.Stream.Close()
}
