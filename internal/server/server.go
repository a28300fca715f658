package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"serene/internal/catalog"
	"serene/internal/config"
	"serene/internal/database"
	custommiddleware "serene/internal/middleware"
	"serene/internal/oauth"
	"serene/internal/repository"
	"serene/internal/service"
	"serene/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *database.Service
	redis  *redis.Client
}

func NewServer(cfg *config.Config, logger *zap.Logger, db *database.Service, redisClient *redis.Client, cat *catalog.Catalog) *Server {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.Server.Env == "development"))

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		health := db.Health(ctx)
		status := http.StatusOK
		if health["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(health)
	})

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.DB())
	profileRepo := repository.NewProfileRepository(db.DB())

	// Initialize services
	accountService := service.NewAccountService(userRepo, profileRepo, cfg.JWT.Secret)
	profileService := service.NewProfileService(profileRepo, cat)

	google := oauth.NewGoogle(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURL, cfg.Google.StateSecret)

	// Initialize handlers
	authHandler := transport.NewAuthHandler(accountService, google, cfg.Server.ClientURL, logger)
	catalogHandler := transport.NewCatalogHandler(cat, logger)
	profileHandler := transport.NewProfileHandler(profileService, logger)

	// Create auth middleware
	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)

	// Rate limiters: a general one for the whole API and a tighter one for
	// credential endpoints. Disabled when redis is not configured.
	var generalLimit, authLimit func(http.Handler) http.Handler
	if redisClient != nil {
		generalLimit = custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.GeneralPerMinute,
			Window:            time.Minute,
			KeyPrefix:         "rl:general",
		}, logger)
		authLimit = custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.AuthPerMinute,
			Window:            time.Minute,
			KeyPrefix:         "rl:auth",
		}, logger)
	}

	// Register routes
	router.Group(func(r chi.Router) {
		if generalLimit != nil {
			r.Use(generalLimit)
		}
		authHandler.RegisterRoutes(r, authMiddleware, authLimit)
		catalogHandler.RegisterRoutes(r)
		profileHandler.RegisterRoutes(r, authMiddleware)
	})

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.db != nil {
		if err := s.db.Close(ctx); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
