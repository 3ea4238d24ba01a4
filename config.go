package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	aws_pkg "catalog-service/pkg/aws"

	"go.uber.org/zap"
)

const (
	MediaProviderCloudinary = "cloudinary"
	MediaProviderS3         = "s3"
)

// Config holds all environment variables for the catalog service.
type Config struct {
	Port     string
	AppEnv   string
	MongoURI string
	MongoDB  string

	UploadsFolder    string
	MediaProvider    string
	CloudinaryURL    string
	S3Bucket         string
	S3Endpoint       string
	CloudFrontDomain string
	MaxUploadSizeMB  int

	RedisURL string
	CacheTTL time.Duration

	SNSTopicArn string

	JWTSecret           string
	TrustGatewayHeaders bool
	RequireAdmin        bool
	AllowedOrigins      []string
	RateLimitPerMinute  int
	RequestTimeout      time.Duration
}

type secretGetter interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// LoadConfig loads environment variables into Config and validates them.
// If AWS_USE_SECRETS=true it reads secrets from Secrets Manager and falls
// back to the env vars on failure.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		AppEnv:              getEnv("APP_ENV", "development"),
		MongoURI:            os.Getenv("MONGO_URI"),
		MongoDB:             getEnv("MONGO_DB", "catalog"),
		UploadsFolder:       getEnv("UPLOADS_FOLDER", "uploads"),
		MediaProvider:       strings.ToLower(getEnv("MEDIA_PROVIDER", MediaProviderCloudinary)),
		CloudinaryURL:       os.Getenv("CLOUDINARY_URL"),
		S3Bucket:            getEnv("AWS_S3_BUCKET", "catalog-media"),
		S3Endpoint:          getEnv("AWS_S3_ENDPOINT", os.Getenv("AWS_ENDPOINT")),
		CloudFrontDomain:    os.Getenv("AWS_CLOUDFRONT_DOMAIN"),
		MaxUploadSizeMB:     getEnvInt("MAX_UPLOAD_SIZE_MB", 5),
		RedisURL:            os.Getenv("REDIS_URL"),
		CacheTTL:            time.Duration(getEnvInt("CACHE_TTL_SECONDS", 600)) * time.Second,
		SNSTopicArn:         os.Getenv("CATALOG_SNS_TOPIC_ARN"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		TrustGatewayHeaders: getEnv("TRUST_GATEWAY_HEADERS", "false") == "true",
		RequireAdmin:        getEnv("REQUIRE_ADMIN", "false") == "true",
		AllowedOrigins:      splitList(getEnv("ALLOWED_ORIGINS", "*")),
		RateLimitPerMinute:  getEnvInt("RATE_LIMIT_PER_MINUTE", 300),
		RequestTimeout:      time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,
	}

	if os.Getenv("AWS_USE_SECRETS") == "true" {
		if awsCfg, err := aws_pkg.LoadAWSConfig(context.Background()); err == nil {
			applySecrets(context.Background(), cfg, aws_pkg.NewSecretsClient(awsCfg))
		} else {
			zap.L().Warn("AWS config unavailable, using env secrets", zap.Error(err))
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applySecrets(ctx context.Context, cfg *Config, sm secretGetter) {
	overrides := []struct {
		name   string
		target *string
	}{
		{"catalog/MONGO_URI", &cfg.MongoURI},
		{"catalog/CLOUDINARY_URL", &cfg.CloudinaryURL},
		{"catalog/JWT_SECRET", &cfg.JWTSecret},
	}
	for _, o := range overrides {
		value, err := sm.GetSecret(ctx, o.name)
		if err != nil || value == "" {
			zap.L().Debug("Secret not loaded, keeping env value", zap.String("secret", o.name), zap.Error(err))
			continue
		}
		*o.target = value
	}
}

func (c *Config) validate() error {
	if c.MongoURI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	switch c.MediaProvider {
	case MediaProviderCloudinary:
		if c.CloudinaryURL == "" {
			return fmt.Errorf("CLOUDINARY_URL is required when MEDIA_PROVIDER=cloudinary")
		}
	case MediaProviderS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("AWS_S3_BUCKET is required when MEDIA_PROVIDER=s3")
		}
	default:
		return fmt.Errorf("unsupported MEDIA_PROVIDER %q", c.MediaProvider)
	}
	if c.MaxUploadSizeMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE_MB must be positive")
	}
	if c.RequireAdmin && c.JWTSecret == "" && !c.TrustGatewayHeaders {
		return fmt.Errorf("REQUIRE_ADMIN needs JWT_SECRET or TRUST_GATEWAY_HEADERS=true")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		zap.L().Warn("Invalid integer env var, using default", zap.String("key", key), zap.String("value", value))
		return fallback
	}
	return n
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
