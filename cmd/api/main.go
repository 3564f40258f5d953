package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/ai-recommender/backend/internal/ai"
	"github.com/ai-recommender/backend/internal/api/handlers"
	rediscache "github.com/ai-recommender/backend/internal/cache/redis"
	"github.com/ai-recommender/backend/internal/metrics"
	"github.com/ai-recommender/backend/internal/middleware/ratelimit"
	"github.com/ai-recommender/backend/internal/middleware/security"
	"github.com/ai-recommender/backend/internal/middleware/validation"
	"github.com/ai-recommender/backend/internal/recommender"
	"github.com/ai-recommender/backend/internal/storage/sqlite"
	"github.com/ai-recommender/backend/pkg/config"
	appLogger "github.com/ai-recommender/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting AI Recommendation API Server")

	metrics.Init()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	if err := sqliteClient.InitSchema(); err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	count, err := sqliteClient.CountProducts()
	if err != nil {
		appLogger.Fatal("Failed to count products", zap.Error(err))
	}
	if count == 0 && cfg.Dataset.CSVPath != "" {
		imported, err := sqliteClient.ImportCSV(cfg.Dataset.CSVPath)
		if err != nil {
			appLogger.Warn("Failed to import product dataset", zap.Error(err))
		} else {
			count = imported
		}
	}

	var analysisCache recommender.AnalysisCache
	var analysisInvalidator handlers.AnalysisInvalidator
	if cfg.Redis.Enabled {
		redisClient, err := rediscache.NewClient(
			cfg.Redis.Host,
			cfg.Redis.Port,
			cfg.Redis.Password,
			cfg.Redis.DB,
			time.Duration(cfg.AI.CacheTTLSec)*time.Second,
		)
		if err != nil {
			appLogger.Warn("Redis unavailable, AI analysis caching disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			analysisCache = redisClient
			analysisInvalidator = redisClient
		}
	}

	var aiClient ai.Client
	if cfg.AI.Enabled {
		aiClient, err = ai.NewResilientClient(ai.ModelConfig{
			Provider:    ai.Provider(cfg.AI.Provider),
			ModelName:   cfg.AI.Model,
			APIKey:      cfg.AI.APIKey,
			BaseURL:     cfg.AI.BaseURL,
			Temperature: cfg.AI.Temperature,
			MaxTokens:   cfg.AI.MaxTokens,
			TimeoutSec:  cfg.AI.TimeoutSec,
		})
		if err != nil {
			appLogger.Fatal("Failed to create AI client", zap.Error(err))
		}
	}

	engine := recommender.NewEngine(recommender.Config{
		AIEnabled:        cfg.AI.Enabled,
		BatchSize:        cfg.AI.BatchSize,
		SimilarityWeight: cfg.Recommender.SimilarityWeight,
		AIWeight:         cfg.Recommender.AIWeight,
		ModelPath:        cfg.Dataset.ModelPath,
	}, aiClient, analysisCache)
	defer engine.Close()

	loaded := false
	if cfg.Dataset.ModelPath != "" {
		if _, err := os.Stat(cfg.Dataset.ModelPath); err == nil {
			if err := engine.LoadModel(cfg.Dataset.ModelPath); err != nil {
				appLogger.Warn("Failed to load persisted model, retraining", zap.Error(err))
			} else {
				loaded = true
			}
		}
	}
	if !loaded {
		products, err := sqliteClient.ListProducts()
		if err != nil {
			appLogger.Fatal("Failed to load products", zap.Error(err))
		}
		initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		if err := engine.Initialize(initCtx, products); err != nil {
			cancel()
			appLogger.Fatal("Failed to initialize recommendation engine", zap.Error(err))
		}
		cancel()
	}
	metrics.ProductsLoaded.Set(float64(count))

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-User-ID",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))

	if cfg.RateLimit.Enabled {
		limiter := ratelimit.New(ratelimit.Config{
			RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
			RequestsPerHour:   cfg.RateLimit.RequestsPerHour,
			Logger:            appLogger.GetLogger(),
		})
		defer limiter.Stop()
		app.Use(limiter.Middleware())
	}

	app.Use(validation.Middleware(validation.Config{
		Logger: appLogger.GetLogger(),
	}))

	recommendationHandler := handlers.NewRecommendationHandler(engine, sqliteClient)
	productHandler := handlers.NewProductHandler(sqliteClient, analysisInvalidator)

	api := app.Group("/api/v1")

	api.Post("/recommendations", recommendationHandler.HandleRecommendations)
	api.Get("/recommendations/history", recommendationHandler.GetRecommendationHistory)

	api.Get("/products", productHandler.ListProducts)
	api.Post("/products", productHandler.CreateProduct)

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	app.Get("/metrics", metrics.MetricsHandler())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
