package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/auth"
	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/config"
	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/database/minio"
	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/database/mongo"
	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/database/redis"
	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/prediction_service/api"
	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/prediction_service/cache"
	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/prediction_service/publisher"
	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/prediction_service/service"
	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/prediction_service/storage"
	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/prediction_service/store"
	"github.com/VarshithKumarK/AgriPredAI/backend/go/pkg/circuitbreaker"
	httpserver "github.com/VarshithKumarK/AgriPredAI/backend/go/pkg/http"
	"github.com/VarshithKumarK/AgriPredAI/backend/go/pkg/httpmiddleware"
	"github.com/VarshithKumarK/AgriPredAI/backend/go/pkg/logger"
	"github.com/VarshithKumarK/AgriPredAI/backend/go/pkg/ratelimiter"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig(config.ResolvePath())
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	appLogger := logger.New("prediction_service", "", "")
	appLogger.Info("Logger initialized")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	psCfg := cfg.PredictionService

	// Record store
	mongoClient, err := mongo.GetClient(&cfg.Databases.MongoDB)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongo.Close(shutdownCtx)
	}()
	recordStore := store.NewMongoRecordStore(mongoClient.Database(cfg.Databases.MongoDB.Database), psCfg.MongoCollection)
	if err := recordStore.EnsureIndexes(ctx); err != nil {
		appLogger.Fatal(err.Error())
	}
	appLogger.Info("MongoDB connection established")

	// Object storage
	minioClient, err := minio.GetClient(ctx, &cfg.Databases.MinIO)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	breaker, err := circuitbreaker.FromConfig(cfg.Middleware.CircuitBreaker)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	objectStore := storage.NewMinioObjectStore(minioClient, cfg.Databases.MinIO, breaker)
	resolver := storage.NewResolver(objectStore, storage.ResolverConfig{
		Namespace:     psCfg.UploadNamespace,
		HostedSchemes: psCfg.HostedSchemes,
	})
	appLogger.Info("MinIO connection established")

	// Optional collaborators
	var opts []service.Option
	ttl, err := psCfg.CacheTTL()
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	if ttl > 0 {
		rdb, err := redis.GetClient(ctx, &cfg.Databases.Redis)
		if err != nil {
			appLogger.Fatal(err.Error())
		}
		defer redis.Close()
		opts = append(opts, service.WithHistoryCache(cache.NewRedisHistoryCache(rdb, ttl)))
		appLogger.Info("History cache enabled")
	}
	if psCfg.EventsTopic != "" && len(cfg.Databases.Kafka.Brokers) > 0 {
		events := publisher.NewEventPublisher(cfg.Databases.Kafka.Brokers, psCfg.EventsTopic, appLogger)
		defer events.Close()
		opts = append(opts, service.WithEventPublisher(events))
		appLogger.Info("Event publishing enabled on topic " + psCfg.EventsTopic)
	}

	if err := os.MkdirAll(psCfg.UploadTempDir, 0o700); err != nil {
		appLogger.Fatal(err.Error())
	}

	// Initialize dependencies (Store -> Service -> Handler)
	recordService := service.NewService(resolver, recordStore, appLogger, opts...)
	apiHandler := api.NewAPI(recordService, objectStore, api.IngestConfig{
		Mode:           psCfg.UploadMode,
		TempDir:        psCfg.UploadTempDir,
		MaxUploadBytes: psCfg.MaxUploadBytes,
		AllowedFormats: psCfg.AllowedFormats,
		Namespace:      psCfg.UploadNamespace,
		HostedSchemes:  psCfg.HostedSchemes,
	}, map[string]api.HealthCheck{
		"mongodb": mongo.HealthCheck,
		"minio": func(ctx context.Context) error {
			return minio.HealthCheck(ctx, cfg.Databases.MinIO.Bucket)
		},
	}, appLogger)

	tokens := auth.NewHMACTokens(cfg.Auth.JwtSecret, cfg.Auth.Issuer, time.Duration(cfg.Auth.TokenTTL)*time.Second)
	var limiter gin.HandlerFunc
	if rl := cfg.Middleware.RateLimiter; rl.Enabled {
		limiter = httpmiddleware.RateLimit(ratelimiter.NewKeyed(rl.Rate, rl.Capacity, 10*time.Minute),
			httpmiddleware.ContextKey(auth.ContextUserID))
	}
	router := api.SetupRouter(apiHandler, auth.AuthMiddleware(tokens, cfg.Auth.CookieName), limiter)
	appLogger.Info("Router setup completed")

	srv := httpserver.NewServer(router, httpserver.WithAddress(psCfg.ServerAddress))
	appLogger.Info("Starting server on " + srv.Addr())
	if err := srv.Run(ctx); err != nil {
		appLogger.Error(err.Error())
	}
	appLogger.Info("Server stopped")
}
