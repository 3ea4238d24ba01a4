package repository

import (
	"context"
	"sort"
	"sync"

	"catalog-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepository keeps documents in process memory. Documents are stored in
// their BSON encoding so that filters see exactly the fields MongoDB would.
// It backs local runs without a database (MONGO_URI=memory) and the service tests.
type MemoryRepository struct {
	kind models.Kind
	mu   sync.RWMutex
	docs map[primitive.ObjectID][]byte
	seq  map[primitive.ObjectID]int
	next int
}

func NewMemoryRepository(kind models.Kind) *MemoryRepository {
	return &MemoryRepository{
		kind: kind,
		docs: make(map[primitive.ObjectID][]byte),
		seq:  make(map[primitive.ObjectID]int),
	}
}

func (r *MemoryRepository) Kind() models.Kind {
	return r.kind
}

func (r *MemoryRepository) FindByID(ctx context.Context, id primitive.ObjectID) (models.Entity, error) {
	return r.FindOne(ctx, Filter{"_id": id})
}

func (r *MemoryRepository) FindOne(ctx context.Context, filter Filter) (models.Entity, error) {
	found, err := r.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, ErrNotFound
	}
	return found[0], nil
}

func (r *MemoryRepository) Find(_ context.Context, filter Filter) ([]models.Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]primitive.ObjectID, 0, len(r.docs))
	for id := range r.docs {
		ids = append(ids, id)
	}
	// newest first, matching the MongoDB sort on createdAt
	sort.Slice(ids, func(i, j int) bool { return r.seq[ids[i]] > r.seq[ids[j]] })

	entities := make([]models.Entity, 0)
	for _, id := range ids {
		raw := r.docs[id]
		var doc bson.M
		if err := bson.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		if !matches(doc, filter) {
			continue
		}
		entity := models.New(r.kind)
		if err := bson.Unmarshal(raw, entity); err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

func (r *MemoryRepository) Create(_ context.Context, entity models.Entity) error {
	raw, err := bson.Marshal(entity)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.docs[entity.GetID()] = raw
	r.seq[entity.GetID()] = r.next
	return nil
}

func (r *MemoryRepository) Replace(_ context.Context, entity models.Entity) error {
	raw, err := bson.Marshal(entity)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[entity.GetID()]; !ok {
		return ErrNotFound
	}
	r.docs[entity.GetID()] = raw
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id primitive.ObjectID) (models.Entity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	raw, ok := r.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(r.docs, id)
	delete(r.seq, id)

	entity := models.New(r.kind)
	if err := bson.Unmarshal(raw, entity); err != nil {
		return nil, err
	}
	return entity, nil
}

func (r *MemoryRepository) EnsureIndexes(context.Context) error {
	return nil
}

// Len returns the number of stored documents.
func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.docs)
}

func matches(doc bson.M, filter Filter) bool {
	for key, want := range filter {
		if doc[key] != want {
			return false
		}
	}
	return true
}
