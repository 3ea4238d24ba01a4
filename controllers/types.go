package controllers

import (
	"context"
	"time"

	"catalog-service/models"
	"catalog-service/services"
)

// Config holds controller configuration
type Config struct {
	CacheTTL      time.Duration
	MaxUploadSize int64
}

// Default configuration values
const (
	DefaultCacheTTL      = 10 * time.Minute
	DefaultMaxUploadSize = 5 * 1024 * 1024 // 5MB
)

// CatalogServiceAPI defines the catalog operations the handlers depend on
type CatalogServiceAPI interface {
	Create(ctx context.Context, kind models.Kind, req services.CreateRequest) (models.Entity, error)
	List(ctx context.Context, kind models.Kind, q services.ListQuery) ([]models.Entity, error)
	Get(ctx context.Context, kind models.Kind, id string) (models.Entity, error)
	Update(ctx context.Context, kind models.Kind, id string, req services.UpdateRequest) (models.Entity, error)
	Delete(ctx context.Context, kind models.Kind, id string) (models.Entity, error)
}
