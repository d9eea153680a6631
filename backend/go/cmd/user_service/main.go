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
	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/database/mysql"
	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/prediction_service/storage"
	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/user_service/api"
	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/user_service/service"
	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/user_service/store"
	"github.com/VarshithKumarK/AgriPredAI/backend/go/pkg/circuitbreaker"
	httpserver "github.com/VarshithKumarK/AgriPredAI/backend/go/pkg/http"
	"github.com/VarshithKumarK/AgriPredAI/backend/go/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig(config.ResolvePath())
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	appLogger := logger.New("user_service", "", "")
	appLogger.Info("Logger initialized")

	// Initialize database connection
	db, err := mysql.GetDB(&cfg.Databases.MySQL)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	defer mysql.Close()
	appLogger.Info("Database connection established")

	userStore := store.NewStore(db)
	if err := userStore.Migrate(); err != nil {
		appLogger.Fatal(err.Error())
	}
	appLogger.Info("Database migration completed")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Profile pictures go through the same Storage Resolver as prediction images, under their own namespace.
	usCfg := cfg.UserService
	var opts []service.Option
	if cfg.Databases.MinIO.Endpoint != "" {
		minioClient, err := minio.GetClient(ctx, &cfg.Databases.MinIO)
		if err != nil {
			appLogger.Fatal(err.Error())
		}
		breaker, err := circuitbreaker.FromConfig(cfg.Middleware.CircuitBreaker)
		if err != nil {
			appLogger.Fatal(err.Error())
		}
		objectStore := storage.NewMinioObjectStore(minioClient, cfg.Databases.MinIO, breaker)
		pictures := storage.NewResolver(objectStore, storage.ResolverConfig{
			Namespace:     usCfg.ProfilePicNamespace,
			HostedSchemes: cfg.PredictionService.HostedSchemes,
		})
		opts = append(opts, service.WithPictureResolver(pictures))
		appLogger.Info("Profile picture uploads enabled")
	}
	if err := os.MkdirAll(usCfg.UploadTempDir, 0o700); err != nil {
		appLogger.Fatal(err.Error())
	}

	// Initialize dependencies (Store -> Service -> Handler)
	tokens := auth.NewHMACTokens(cfg.Auth.JwtSecret, cfg.Auth.Issuer, time.Duration(cfg.Auth.TokenTTL)*time.Second)
	userService := service.NewService(userStore, tokens, appLogger, opts...)
	apiHandler := api.NewHandler(userService, api.CookieConfig{
		Name:   cfg.Auth.CookieName,
		TTL:    cfg.Auth.TokenTTL,
		Secure: cfg.Auth.CookieSecure,
	}, api.UploadConfig{
		TempDir:        usCfg.UploadTempDir,
		MaxUploadBytes: usCfg.MaxUploadBytes,
		AllowedFormats: usCfg.AllowedFormats,
	})

	router := api.SetupRouter(apiHandler, auth.AuthMiddleware(tokens, cfg.Auth.CookieName))
	appLogger.Info("Router setup completed")

	srv := httpserver.NewServer(router, httpserver.WithAddress(cfg.UserService.ServerAddress))
	appLogger.Info("Starting server on " + srv.Addr())
	if err := srv.Run(ctx); err != nil {
		appLogger.Error(err.Error())
	}
	appLogger.Info("Server stopped")
}
