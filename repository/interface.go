package repository

import (
	"context"
	"errors"

	"catalog-service/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotFound is returned when no document matches.
var ErrNotFound = errors.New("document not found")

// Filter is a conjunction of field equality matches keyed by stored field name.
type Filter map[string]interface{}

// Repository stores the documents of a single catalog kind.
type Repository interface {
	Kind() models.Kind
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Entity, error)
	FindOne(ctx context.Context, filter Filter) (models.Entity, error)
	Find(ctx context.Context, filter Filter) ([]models.Entity, error)
	Create(ctx context.Context, entity models.Entity) error
	Replace(ctx context.Context, entity models.Entity) error
	// Delete removes the document and returns it as it was before removal.
	Delete(ctx context.Context, id primitive.ObjectID) (models.Entity, error)
	EnsureIndexes(ctx context.Context) error
}
