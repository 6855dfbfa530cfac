package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"catalog-api/internal/cache"
	"catalog-api/internal/config"
	"catalog-api/internal/database"
	"catalog-api/internal/metrics"
	custommiddleware "catalog-api/internal/middleware"
	"catalog-api/internal/repository"
	"catalog-api/internal/service"
	"catalog-api/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// HealthChecker reports the state of a backing store
type HealthChecker interface {
	Health(ctx context.Context) map[string]string
}

// Dependencies are the collaborators the router is built from
type Dependencies struct {
	Transactor repository.Transactor
	Database   HealthChecker
	// Redis is optional; without it the product cache and rate limiting are off
	Redis    redis.Cmdable
	Registry *prometheus.Registry
}

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *database.Service
	redis  *redis.Client
}

// NewRouter wires services, handlers and middleware into a chi router
func NewRouter(cfg *config.Config, logger *zap.Logger, deps Dependencies) http.Handler {
	registry := deps.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	m := metrics.New(registry)

	router := chi.NewRouter()
	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(m.Middleware)
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.IsDevelopment()))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := deps.Database.Health(r.Context())
		status := http.StatusOK
		if health["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		custommiddleware.RespondWithJSON(w, status, map[string]any{
			"status":   health["status"],
			"database": health,
		})
	})
	router.Handle("/metrics", m.Handler())

	var (
		productCache cache.ProductCache = cache.Noop{}
		rateLimit    func(http.Handler) http.Handler
	)
	if deps.Redis != nil {
		productCache = cache.NewRedisProductCache(deps.Redis, cfg.Catalog.ProductCacheTTL)
		rateLimit = custommiddleware.RateLimitMiddleware(deps.Redis, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            cfg.RateLimit.Window,
			KeyPrefix:         "catalog:ratelimit",
		}, logger)
	} else {
		logger.Warn("Redis disabled: product cache and rate limiting are off")
	}

	productService := service.NewProductService(service.ProductServiceConfig{
		Transactor:        deps.Transactor,
		Cache:             productCache,
		Metrics:           m,
		Logger:            logger.Named("products"),
		MaxSKUsPerProduct: cfg.Catalog.MaxSKUsPerProduct,
	})
	collectionService := service.NewCollectionService(deps.Transactor, logger.Named("collections"))

	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)

	transport.NewProductHandler(productService, logger).RegisterRoutes(router, authMiddleware, rateLimit)
	transport.NewCollectionHandler(collectionService, logger).RegisterRoutes(router, authMiddleware, custommiddleware.RequireAdmin(logger))

	return router
}

// NewServer builds the HTTP server over an open database and an optional Redis client
func NewServer(cfg *config.Config, logger *zap.Logger, db *database.Service, redisClient *redis.Client) *Server {
	deps := Dependencies{
		Transactor: repository.NewTransactor(db.DB(), logger),
		Database:   db,
		Registry:   prometheus.NewRegistry(),
	}
	if redisClient != nil {
		deps.Redis = redisClient
	}

	return &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      NewRouter(cfg, logger, deps),
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}
}

// Close releases the database pool and the Redis client
func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	_ = s.logger.Sync()
	return nil
}
