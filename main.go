package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog-service/common/auth"
	"catalog-service/common/logger"
	"catalog-service/common/middleware"
	"catalog-service/controllers"
	"catalog-service/database"
	"catalog-service/media"
	"catalog-service/models"
	aws_pkg "catalog-service/pkg/aws"
	"catalog-service/repository"
	"catalog-service/routes"
	"catalog-service/services"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const serviceName = "catalog-service"

func main() {
	// Load .env file (optional, falls back to system env)
	_ = godotenv.Load()

	appEnv := getEnv("APP_ENV", "development")
	log := logger.Initialize(appEnv)
	defer func() { _ = log.Sync() }()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// AWS is optional unless S3 media, SNS events or CloudWatch are in use.
	awsCfg, awsErr := aws_pkg.LoadAWSConfig(ctx)
	if awsErr != nil {
		log.Warn("AWS config unavailable", zap.Error(awsErr))
	}

	if os.Getenv("CLOUDWATCH_ENABLED") == "true" && awsErr == nil {
		cwLogs, err := aws_pkg.NewCloudWatchLogsClient(ctx, awsCfg, serviceName)
		if err != nil {
			log.Warn("CloudWatch Logs unavailable, logging to stdout only", zap.Error(err))
		} else {
			log = logger.InitializeWithWriter(appEnv, cwLogs)
		}
	}

	cfg, err := LoadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	// --- 1. Storage ---

	repos, err := openRepositories(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to open repositories", zap.Error(err))
	}

	store, err := openMediaStore(cfg, awsCfg, awsErr)
	if err != nil {
		log.Fatal("Failed to configure media store", zap.Error(err))
	}

	redisClient := database.NewRedisClient(cfg.RedisURL)

	var publisher aws_pkg.SNSPublisher
	if cfg.SNSTopicArn != "" && awsErr == nil {
		publisher = aws_pkg.NewSNSClient(awsCfg)
	}

	var metrics *aws_pkg.MetricsClient
	if awsErr == nil {
		metrics = aws_pkg.NewMetricsClient(awsCfg)
	}

	// --- 2. Dependency Injection ---

	catalogService := services.NewCatalogService(repos, store, cfg.UploadsFolder, publisher, cfg.SNSTopicArn, log)
	cacheManager := controllers.NewCacheManager(redisClient, cfg.CacheTTL, metrics)
	requestValidator := controllers.NewRequestValidator(int64(cfg.MaxUploadSizeMB) * 1024 * 1024)
	catalogController := controllers.NewCatalogController(catalogService, cacheManager, requestValidator)

	// --- 3. HTTP Server & Middleware ---

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.MaxMultipartMemory = int64(cfg.MaxUploadSizeMB) * 1024 * 1024
	r.Use(
		middleware.Recovery(),
		logger.RequestID(),
		middleware.RequestLogger(log),
		middleware.SecurityHeaders(),
		middleware.CORSMiddleware(cfg.AllowedOrigins),
		middleware.RateLimitMiddleware(ctx, cfg.RateLimitPerMinute),
		middleware.MetricsMiddleware(metrics, serviceName),
		middleware.Timeout(cfg.RequestTimeout),
		middleware.Identity(auth.NewTokenValidator(cfg.JWTSecret), cfg.TrustGatewayHeaders),
	)

	routes.RegisterRoutes(r, catalogController, cfg.RequireAdmin)

	// --- 4. Graceful Shutdown ---

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Catalog Service starting", zap.String("port", cfg.Port), zap.String("media_provider", cfg.MediaProvider))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case <-quit:
		log.Info("Shutting down Catalog Service...")
	case err := <-serverErr:
		log.Error("Server failed", zap.Error(err))
		exitCode = 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	stop()

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis", zap.Error(err))
		}
	}
	if err := database.Close(); err != nil {
		log.Error("Failed to close MongoDB", zap.Error(err))
	}

	log.Info("Catalog Service stopped")
	if exitCode != 0 {
		_ = log.Sync()
		os.Exit(exitCode)
	}
}

// openRepositories returns one repository per kind. MONGO_URI=memory keeps
// everything in process, which is meant for local runs only.
func openRepositories(ctx context.Context, cfg *Config) ([]repository.Repository, error) {
	repos := make([]repository.Repository, 0, len(models.Hierarchy))
	if cfg.MongoURI == "memory" {
		zap.L().Warn("Using in-memory repositories; data is lost on restart")
		for _, kind := range models.Hierarchy {
			repos = append(repos, repository.NewMemoryRepository(kind))
		}
		return repos, nil
	}

	db, err := database.Connect(ctx, cfg.MongoURI, cfg.MongoDB, serviceName)
	if err != nil {
		return nil, err
	}
	for _, kind := range models.Hierarchy {
		repo := repository.NewMongoRepository(db, kind)
		if err := repo.EnsureIndexes(ctx); err != nil {
			zap.L().Warn("Failed to ensure indexes", zap.String("kind", string(kind)), zap.Error(err))
		}
		repos = append(repos, repo)
	}
	return repos, nil
}

func openMediaStore(cfg *Config, awsCfg sdkaws.Config, awsErr error) (media.Store, error) {
	if cfg.MediaProvider == MediaProviderS3 {
		if awsErr != nil {
			return nil, awsErr
		}
		s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.UsePathStyle = true
			if cfg.S3Endpoint != "" {
				o.BaseEndpoint = sdkaws.String(cfg.S3Endpoint)
			}
		})
		return media.NewS3Store(s3Client, cfg.S3Bucket, cfg.S3Endpoint, cfg.CloudFrontDomain), nil
	}
	return media.NewCloudinaryStore(cfg.CloudinaryURL)
}
