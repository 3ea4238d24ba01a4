package repository

import (
	"context"
	"errors"
	"fmt"

	"catalog-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoRepository struct {
	kind       models.Kind
	collection *mongo.Collection
}

// NewMongoRepository returns the repository for kind backed by its own collection in db.
func NewMongoRepository(db *mongo.Database, kind models.Kind) *MongoRepository {
	return &MongoRepository{
		kind:       kind,
		collection: db.Collection(kind.Collection()),
	}
}

func (r *MongoRepository) Kind() models.Kind {
	return r.kind
}

func (r *MongoRepository) FindByID(ctx context.Context, id primitive.ObjectID) (models.Entity, error) {
	return r.FindOne(ctx, Filter{"_id": id})
}

func (r *MongoRepository) FindOne(ctx context.Context, filter Filter) (models.Entity, error) {
	entity := models.New(r.kind)
	err := r.collection.FindOne(ctx, bson.M(filter)).Decode(entity)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find %s: %w", r.kind, err)
	}
	return entity, nil
}

func (r *MongoRepository) Find(ctx context.Context, filter Filter) ([]models.Entity, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", r.kind, err)
	}
	defer cursor.Close(ctx)

	entities := make([]models.Entity, 0)
	for cursor.Next(ctx) {
		entity := models.New(r.kind)
		if err := cursor.Decode(entity); err != nil {
			return nil, fmt.Errorf("decode %s: %w", r.kind, err)
		}
		entities = append(entities, entity)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", r.kind, err)
	}
	return entities, nil
}

func (r *MongoRepository) Create(ctx context.Context, entity models.Entity) error {
	if _, err := r.collection.InsertOne(ctx, entity); err != nil {
		return fmt.Errorf("insert %s: %w", r.kind, err)
	}
	return nil
}

func (r *MongoRepository) Replace(ctx context.Context, entity models.Entity) error {
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": entity.GetID()}, entity)
	if err != nil {
		return fmt.Errorf("replace %s: %w", r.kind, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete uses find-one-and-delete so that only one of several concurrent
// deleters observes the document.
func (r *MongoRepository) Delete(ctx context.Context, id primitive.ObjectID) (models.Entity, error) {
	entity := models.New(r.kind)
	err := r.collection.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(entity)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("delete %s: %w", r.kind, err)
	}
	return entity, nil
}

// EnsureIndexes creates the lookup indexes used by the duplicate-name guard,
// slug lookups and cascading deletes. Names are not unique at the index level.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	nameField := "name"
	if r.kind == models.KindProduct {
		nameField = "title"
	}

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: nameField, Value: 1}}},
		{Keys: bson.D{{Key: "slug", Value: 1}}},
	}
	switch r.kind {
	case models.KindSubCategory:
		indexes = append(indexes, mongo.IndexModel{Keys: bson.D{{Key: "categoryId", Value: 1}}})
	case models.KindBrand:
		indexes = append(indexes,
			mongo.IndexModel{Keys: bson.D{{Key: "categoryId", Value: 1}}},
			mongo.IndexModel{Keys: bson.D{{Key: "subCategoryId", Value: 1}}},
		)
	case models.KindProduct:
		indexes = append(indexes,
			mongo.IndexModel{Keys: bson.D{{Key: "brandId", Value: 1}}},
			mongo.IndexModel{Keys: bson.D{{Key: "categoryId", Value: 1}, {Key: "subCategoryId", Value: 1}}},
		)
	}

	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("create %s indexes: %w", r.kind, err)
	}
	return nil
}
