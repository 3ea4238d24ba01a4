package services_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"strings"
	"sync"
	"testing"

	apperrors "catalog-service/common/errors"
	"catalog-service/models"
	"catalog-service/repository"
	"catalog-service/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// --- Fake uploads ---

type memFile struct{ *bytes.Reader }

func (memFile) Close() error { return nil }

type fakeFile string

func (f fakeFile) Open() (multipart.File, error) {
	return memFile{bytes.NewReader([]byte(f))}, nil
}

// --- Mock Media Store ---

type upload struct {
	folder, publicID, body string
}

type fakeStore struct {
	mu              sync.Mutex
	assets          map[string]string
	uploads         []upload
	deletedPrefixes []string
	removedFolders  []string
	failUploadAt    int
	deletePrefixErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{assets: make(map[string]string)}
}

func (s *fakeStore) Upload(_ context.Context, file io.Reader, folder, publicID string) (models.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	body, err := io.ReadAll(file)
	if err != nil {
		return models.Asset{}, err
	}
	n := len(s.uploads) + 1
	if s.failUploadAt > 0 && n >= s.failUploadAt {
		return models.Asset{}, errors.New("media provider unavailable")
	}
	if publicID == "" {
		publicID = fmt.Sprintf("img%d", n)
	}
	s.uploads = append(s.uploads, upload{folder: folder, publicID: publicID, body: string(body)})

	id := folder + "/" + publicID
	url := fmt.Sprintf("https://media.test/%s?v=%d", id, n)
	s.assets[id] = url
	return models.Asset{URL: url, AssetID: id}, nil
}

func (s *fakeStore) DeletePrefix(_ context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deletePrefixErr != nil {
		return s.deletePrefixErr
	}
	s.deletedPrefixes = append(s.deletedPrefixes, prefix)
	for id := range s.assets {
		if strings.HasPrefix(id, prefix) {
			delete(s.assets, id)
		}
	}
	return nil
}

func (s *fakeStore) DeleteFolder(_ context.Context, folder string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removedFolders = append(s.removedFolders, folder)
	return nil
}

func (s *fakeStore) assetsUnder(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id := range s.assets {
		if strings.HasPrefix(id, prefix) {
			n++
		}
	}
	return n
}

// --- Mock SNS Publisher ---

type mockPublisher struct {
	events     []models.CatalogEvent
	attributes []map[string]string
}

func (m *mockPublisher) Publish(_ context.Context, _ string, message []byte, attributes map[string]string) error {
	var event models.CatalogEvent
	if err := json.Unmarshal(message, &event); err != nil {
		return err
	}
	m.events = append(m.events, event)
	m.attributes = append(m.attributes, attributes)
	return nil
}

func (m *mockPublisher) types() []string {
	out := make([]string, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.EventType)
	}
	return out
}

// --- Fixture ---

// flakyRepository fails selected writes of an otherwise working repository.
type flakyRepository struct {
	*repository.MemoryRepository
	createErr    error
	deleteErrFor map[primitive.ObjectID]error
}

func (r *flakyRepository) Create(ctx context.Context, entity models.Entity) error {
	if r.createErr != nil {
		return r.createErr
	}
	return r.MemoryRepository.Create(ctx, entity)
}

func (r *flakyRepository) Delete(ctx context.Context, id primitive.ObjectID) (models.Entity, error) {
	if err, ok := r.deleteErrFor[id]; ok {
		return nil, err
	}
	return r.MemoryRepository.Delete(ctx, id)
}

type fixture struct {
	svc   services.CatalogService
	repos map[models.Kind]*repository.MemoryRepository
	flaky map[models.Kind]*flakyRepository
	store *fakeStore
	pub   *mockPublisher
}

func newFixture() *fixture {
	f := &fixture{
		repos: make(map[models.Kind]*repository.MemoryRepository),
		flaky: make(map[models.Kind]*flakyRepository),
		store: newFakeStore(),
		pub:   &mockPublisher{},
	}
	list := make([]repository.Repository, 0, len(models.Hierarchy))
	for _, kind := range models.Hierarchy {
		repo := repository.NewMemoryRepository(kind)
		f.repos[kind] = repo
		f.flaky[kind] = &flakyRepository{MemoryRepository: repo, deleteErrFor: make(map[primitive.ObjectID]error)}
		list = append(list, f.flaky[kind])
	}
	f.svc = services.NewCatalogService(list, f.store, "uploads", f.pub, "arn:aws:sns:us-east-1:000000000000:catalog", zap.NewNop())
	return f
}

func (f *fixture) count(kind models.Kind) int {
	return f.repos[kind].Len()
}

func validProduct() *services.ProductInput {
	return &services.ProductInput{
		Overview:       "Flagship phone",
		Specifications: `{"color":"black","storage":"128GB"}`,
		Price:          100,
		DiscountKind:   "Percentage",
		DiscountAmount: 10,
		Stock:          20,
		Rating:         4.5,
	}
}

func (f *fixture) mustCreate(t *testing.T, kind models.Kind, req services.CreateRequest) models.Entity {
	t.Helper()
	if len(req.Files) == 0 {
		req.Files = []services.FileSource{fakeFile("image-bytes")}
	}
	if kind == models.KindProduct && req.Product == nil {
		req.Product = validProduct()
	}
	e, err := f.svc.Create(context.Background(), kind, req)
	require.NoError(t, err)
	return e
}

type tree struct {
	category, subCategory, brand models.Entity
	products                     []models.Entity
}

func (f *fixture) buildTree(t *testing.T, prefix string) tree {
	t.Helper()
	var tr tree
	tr.category = f.mustCreate(t, models.KindCategory, services.CreateRequest{Name: prefix + " Electronics"})
	tr.subCategory = f.mustCreate(t, models.KindSubCategory, services.CreateRequest{
		Name:    prefix + " Phones",
		Parents: services.ParentIDs{CategoryID: tr.category.GetID().Hex()},
	})
	tr.brand = f.mustCreate(t, models.KindBrand, services.CreateRequest{
		Name: prefix + " Apple",
		Parents: services.ParentIDs{
			CategoryID:    tr.category.GetID().Hex(),
			SubCategoryID: tr.subCategory.GetID().Hex(),
		},
	})
	for i := 1; i <= 2; i++ {
		tr.products = append(tr.products, f.mustCreate(t, models.KindProduct, services.CreateRequest{
			Name:    fmt.Sprintf("%s iPhone %d", prefix, i),
			Parents: services.ParentIDs{BrandID: tr.brand.GetID().Hex()},
			Files:   []services.FileSource{fakeFile("front"), fakeFile("back")},
		}))
	}
	return tr
}

func folderOf(e models.Entity) string {
	return path.Dir(e.GetAssets()[0].AssetID)
}

// --- Create ---

func TestCreatePersistFailureDiscardsImages(t *testing.T) {
	f := newFixture()
	f.flaky[models.KindCategory].createErr = errors.New("db down")

	_, err := f.svc.Create(context.Background(), models.KindCategory, services.CreateRequest{
		Name:  "Electronics",
		Files: []services.FileSource{fakeFile("image-bytes")},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInternalServer)

	require.Len(t, f.store.uploads, 1)
	assert.Equal(t, 0, f.store.assetsUnder("uploads/"))
	assert.Contains(t, f.store.removedFolders, f.store.uploads[0].folder)
	assert.Equal(t, 0, f.count(models.KindCategory))
	assert.Empty(t, f.pub.events)
}

func TestCreateCategory(t *testing.T) {
	f := newFixture()

	e := f.mustCreate(t, models.KindCategory, services.CreateRequest{Name: "  Home Appliances "})

	c, ok := e.(*models.Category)
	require.True(t, ok)
	assert.False(t, c.ID.IsZero())
	assert.Equal(t, "Home Appliances", c.Name)
	assert.Equal(t, "home_appliances", c.Slug)
	assert.Len(t, c.ShortID, 4)
	assert.Equal(t, "uploads/Categories/"+c.ShortID, folderOf(c))
	assert.NotEmpty(t, c.Image.URL)
	assert.False(t, c.CreatedAt.IsZero())
	assert.Equal(t, 1, f.count(models.KindCategory))
	assert.Equal(t, []string{"catalog.category.created"}, f.pub.types())
	assert.Equal(t, map[string]string{"event_type": "catalog.category.created", "kind": "category"}, f.pub.attributes[0])
}

func TestCreateBuildsNestedFolders(t *testing.T) {
	f := newFixture()
	tr := f.buildTree(t, "A")

	c, s, b := tr.category.GetShortID(), tr.subCategory.GetShortID(), tr.brand.GetShortID()
	assert.Equal(t, "uploads/Categories/"+c+"/SubCategories/"+s, folderOf(tr.subCategory))
	assert.Equal(t, "uploads/Categories/"+c+"/SubCategories/"+s+"/Brands/"+b, folderOf(tr.brand))

	p := tr.products[0].(*models.Product)
	assert.Equal(t, "uploads/Categories/"+c+"/SubCategories/"+s+"/Brands/"+b+"/Products/"+p.Images.ShortID, folderOf(p))
	assert.Len(t, p.Images.URLs, 2)
}

func TestCreateDerivesAncestorReferences(t *testing.T) {
	f := newFixture()
	tr := f.buildTree(t, "A")

	p := tr.products[0].(*models.Product)
	assert.Equal(t, tr.brand.GetID(), p.BrandID)
	assert.Equal(t, tr.subCategory.GetID(), p.SubCategoryID)
	assert.Equal(t, tr.category.GetID(), p.CategoryID)

	b := tr.brand.(*models.Brand)
	assert.Equal(t, tr.category.GetID(), b.CategoryID)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture()
	cat := f.mustCreate(t, models.KindCategory, services.CreateRequest{Name: "Electronics"})
	otherCat := f.mustCreate(t, models.KindCategory, services.CreateRequest{Name: "Fashion"})
	sub := f.mustCreate(t, models.KindSubCategory, services.CreateRequest{
		Name:    "Phones",
		Parents: services.ParentIDs{CategoryID: cat.GetID().Hex()},
	})
	uploadsBefore := len(f.store.uploads)

	tests := []struct {
		name    string
		kind    models.Kind
		req     services.CreateRequest
		wantErr error
	}{
		{
			name:    "missing name",
			kind:    models.KindCategory,
			req:     services.CreateRequest{Name: "   ", Files: []services.FileSource{fakeFile("x")}},
			wantErr: services.ErrMissingName,
		},
		{
			name:    "name without letters or digits",
			kind:    models.KindCategory,
			req:     services.CreateRequest{Name: "!!!", Files: []services.FileSource{fakeFile("x")}},
			wantErr: services.ErrMissingName,
		},
		{
			name:    "missing image",
			kind:    models.KindCategory,
			req:     services.CreateRequest{Name: "Books"},
			wantErr: services.ErrMissingAsset,
		},
		{
			name:    "duplicate name",
			kind:    models.KindCategory,
			req:     services.CreateRequest{Name: "Electronics", Files: []services.FileSource{fakeFile("x")}},
			wantErr: services.ErrDuplicateName,
		},
		{
			name:    "single image kinds",
			kind:    models.KindCategory,
			req:     services.CreateRequest{Name: "Books", Files: []services.FileSource{fakeFile("x"), fakeFile("y")}},
			wantErr: services.ErrTooManyAssets,
		},
		{
			name:    "missing parent reference",
			kind:    models.KindSubCategory,
			req:     services.CreateRequest{Name: "Laptops", Files: []services.FileSource{fakeFile("x")}},
			wantErr: services.ErrMissingParentReference,
		},
		{
			name: "malformed parent id",
			kind: models.KindSubCategory,
			req: services.CreateRequest{
				Name:    "Laptops",
				Parents: services.ParentIDs{CategoryID: "nope"},
				Files:   []services.FileSource{fakeFile("x")},
			},
			wantErr: services.ErrInvalidID,
		},
		{
			name: "unknown parent",
			kind: models.KindSubCategory,
			req: services.CreateRequest{
				Name:    "Laptops",
				Parents: services.ParentIDs{CategoryID: primitive.NewObjectID().Hex()},
				Files:   []services.FileSource{fakeFile("x")},
			},
			wantErr: services.ErrParentNotFound,
		},
		{
			name: "inconsistent hierarchy",
			kind: models.KindBrand,
			req: services.CreateRequest{
				Name: "Samsung",
				Parents: services.ParentIDs{
					CategoryID:    otherCat.GetID().Hex(),
					SubCategoryID: sub.GetID().Hex(),
				},
				Files: []services.FileSource{fakeFile("x")},
			},
			wantErr: services.ErrInconsistentHierarchy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := f.count(tt.kind)
			_, err := f.svc.Create(context.Background(), tt.kind, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, before, f.count(tt.kind))
		})
	}

	assert.Equal(t, uploadsBefore, len(f.store.uploads), "rejected creates must not upload")
}

func TestCreateProductPricing(t *testing.T) {
	tests := []struct {
		name   string
		kind   string
		amount float64
		want   float64
	}{
		{"percentage", "Percentage", 10, 90},
		{"fixed", "Fixed", 10, 90},
		{"default kind", "", 10, 90},
		{"zero discount", "Percentage", 0, 100},
		{"unknown kind leaves price", "Bogo", 10, 100},
		{"fractional", "Percentage", 33, 67},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			tr := f.buildTree(t, "A")

			in := validProduct()
			in.DiscountKind = tt.kind
			in.DiscountAmount = tt.amount
			e := f.mustCreate(t, models.KindProduct, services.CreateRequest{
				Name:    "Pixel",
				Parents: services.ParentIDs{BrandID: tr.brand.GetID().Hex()},
				Product: in,
			})

			p := e.(*models.Product)
			assert.Equal(t, 100.0, p.Price)
			assert.Equal(t, tt.want, p.PriceAfterDiscount)
		})
	}
}

func TestCreateProductFields(t *testing.T) {
	f := newFixture()
	tr := f.buildTree(t, "A")
	creator := primitive.NewObjectID()

	in := validProduct()
	in.Badge = "Best Seller"
	e := f.mustCreate(t, models.KindProduct, services.CreateRequest{
		Name:      "Galaxy S24",
		Parents:   services.ParentIDs{BrandID: tr.brand.GetID().Hex()},
		Product:   in,
		CreatedBy: creator.Hex(),
	})

	stored, err := f.svc.Get(context.Background(), models.KindProduct, e.GetID().Hex())
	require.NoError(t, err)
	p := stored.(*models.Product)
	assert.Equal(t, "galaxy_s24", p.Slug)
	assert.Equal(t, "Best Seller", p.Badge)
	assert.Equal(t, "black", p.Specifications["color"])
	assert.Equal(t, models.DiscountPercentage, p.Discount.Kind)
	require.NotNil(t, p.CreatedBy)
	assert.Equal(t, creator, *p.CreatedBy)
}

func TestCreateProductValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(in *services.ProductInput)
		wantErr error
	}{
		{"price below minimum", func(in *services.ProductInput) { in.Price = 40 }, services.ErrInvalidProduct},
		{"stock below minimum", func(in *services.ProductInput) { in.Stock = 5 }, services.ErrInvalidProduct},
		{"rating above maximum", func(in *services.ProductInput) { in.Rating = 5.5 }, services.ErrInvalidProduct},
		{"negative discount", func(in *services.ProductInput) { in.DiscountAmount = -1 }, services.ErrInvalidProduct},
		{"unknown badge", func(in *services.ProductInput) { in.Badge = "Hot" }, services.ErrInvalidProduct},
		{"percentage above 100", func(in *services.ProductInput) { in.DiscountAmount = 150 }, services.ErrInvalidDiscount},
		{"fixed above price", func(in *services.ProductInput) {
			in.DiscountKind = "Fixed"
			in.DiscountAmount = 120
		}, services.ErrInvalidDiscount},
		{"specifications not an object", func(in *services.ProductInput) { in.Specifications = `["a"]` }, services.ErrInvalidSpecifications},
		{"specifications null", func(in *services.ProductInput) { in.Specifications = `null` }, services.ErrInvalidSpecifications},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			tr := f.buildTree(t, "A")
			uploads := len(f.store.uploads)

			in := validProduct()
			tt.mutate(in)
			_, err := f.svc.Create(context.Background(), models.KindProduct, services.CreateRequest{
				Name:    "Pixel",
				Parents: services.ParentIDs{BrandID: tr.brand.GetID().Hex()},
				Files:   []services.FileSource{fakeFile("x")},
				Product: in,
			})

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 2, f.count(models.KindProduct))
			assert.Equal(t, uploads, len(f.store.uploads))
		})
	}
}

func TestCreateUploadFailureDiscardsImages(t *testing.T) {
	f := newFixture()
	tr := f.buildTree(t, "A")
	f.store.failUploadAt = len(f.store.uploads) + 2

	_, err := f.svc.Create(context.Background(), models.KindProduct, services.CreateRequest{
		Name:    "Pixel",
		Parents: services.ParentIDs{BrandID: tr.brand.GetID().Hex()},
		Files:   []services.FileSource{fakeFile("1"), fakeFile("2"), fakeFile("3")},
		Product: validProduct(),
	})

	assert.ErrorIs(t, err, services.ErrAssetUploadFailed)
	assert.Equal(t, 2, f.count(models.KindProduct))

	// Only the two products from the tree still own images under the brand.
	assert.Equal(t, 4, f.store.assetsUnder(folderOf(tr.brand)+"/Products/"))
	require.NotEmpty(t, f.store.deletedPrefixes)
	last := f.store.deletedPrefixes[len(f.store.deletedPrefixes)-1]
	assert.True(t, strings.HasPrefix(last, folderOf(tr.brand)+"/Products/"))
	assert.True(t, strings.HasSuffix(last, "/"))
}

// --- List / Get ---

func TestList(t *testing.T) {
	f := newFixture()
	a := f.buildTree(t, "A")
	b := f.buildTree(t, "B")
	ctx := context.Background()

	all, err := f.svc.List(ctx, models.KindCategory, services.ListQuery{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, b.category.GetID(), all[0].GetID(), "newest first")

	byName, err := f.svc.List(ctx, models.KindCategory, services.ListQuery{Name: "A Electronics"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, a.category.GetID(), byName[0].GetID())

	bySlug, err := f.svc.List(ctx, models.KindSubCategory, services.ListQuery{Slug: "b_phones"})
	require.NoError(t, err)
	require.Len(t, bySlug, 1)
	assert.Equal(t, b.subCategory.GetID(), bySlug[0].GetID())

	byTitle, err := f.svc.List(ctx, models.KindProduct, services.ListQuery{Name: "A iPhone 1"})
	require.NoError(t, err)
	assert.Len(t, byTitle, 1)

	byParent, err := f.svc.List(ctx, models.KindProduct, services.ListQuery{
		Parents: services.ParentIDs{CategoryID: a.category.GetID().Hex()},
	})
	require.NoError(t, err)
	assert.Len(t, byParent, 2)

	byID, err := f.svc.List(ctx, models.KindBrand, services.ListQuery{ID: b.brand.GetID().Hex()})
	require.NoError(t, err)
	assert.Len(t, byID, 1)

	none, err := f.svc.List(ctx, models.KindBrand, services.ListQuery{Name: "Nokia"})
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = f.svc.List(ctx, models.KindBrand, services.ListQuery{ID: "xyz"})
	assert.ErrorIs(t, err, services.ErrInvalidID)
}

func TestGet(t *testing.T) {
	f := newFixture()
	cat := f.mustCreate(t, models.KindCategory, services.CreateRequest{Name: "Electronics"})
	ctx := context.Background()

	got, err := f.svc.Get(ctx, models.KindCategory, cat.GetID().Hex())
	require.NoError(t, err)
	assert.Equal(t, "electronics", got.GetSlug())

	_, err = f.svc.Get(ctx, models.KindCategory, primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, services.ErrEntityNotFound)

	// A category id is not a brand.
	_, err = f.svc.Get(ctx, models.KindBrand, cat.GetID().Hex())
	assert.ErrorIs(t, err, services.ErrEntityNotFound)

	_, err = f.svc.Get(ctx, models.KindCategory, "123")
	assert.ErrorIs(t, err, services.ErrInvalidID)
}

// --- Update ---

func TestUpdateName(t *testing.T) {
	f := newFixture()
	cat := f.mustCreate(t, models.KindCategory, services.CreateRequest{Name: "Electronics"})
	f.mustCreate(t, models.KindCategory, services.CreateRequest{Name: "Fashion"})
	ctx := context.Background()
	id := cat.GetID().Hex()

	// No name: slug untouched.
	updated, err := f.svc.Update(ctx, models.KindCategory, id, services.UpdateRequest{})
	require.NoError(t, err)
	assert.Equal(t, "electronics", updated.GetSlug())

	name := "Consumer Electronics"
	updated, err = f.svc.Update(ctx, models.KindCategory, id, services.UpdateRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Consumer Electronics", updated.GetName())
	assert.Equal(t, "consumer_electronics", updated.GetSlug())

	stored, err := f.svc.Get(ctx, models.KindCategory, id)
	require.NoError(t, err)
	assert.Equal(t, "consumer_electronics", stored.GetSlug())

	// Keeping its own name is not a conflict.
	updated, err = f.svc.Update(ctx, models.KindCategory, id, services.UpdateRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "consumer_electronics", updated.GetSlug())

	taken := "Fashion"
	_, err = f.svc.Update(ctx, models.KindCategory, id, services.UpdateRequest{Name: &taken})
	assert.ErrorIs(t, err, services.ErrDuplicateName)

	symbols := "???"
	_, err = f.svc.Update(ctx, models.KindCategory, id, services.UpdateRequest{Name: &symbols})
	assert.ErrorIs(t, err, services.ErrMissingName)
	stored, err = f.svc.Get(ctx, models.KindCategory, id)
	require.NoError(t, err)
	assert.Equal(t, "consumer_electronics", stored.GetSlug())

	blank := " "
	_, err = f.svc.Update(ctx, models.KindCategory, id, services.UpdateRequest{Name: &blank})
	assert.ErrorIs(t, err, services.ErrMissingName)

	_, err = f.svc.Update(ctx, models.KindCategory, primitive.NewObjectID().Hex(), services.UpdateRequest{Name: &name})
	assert.ErrorIs(t, err, services.ErrEntityNotFound)

	assert.Contains(t, f.pub.types(), "catalog.category.updated")
}

func TestUpdateReplacesImageInPlace(t *testing.T) {
	f := newFixture()
	tr := f.buildTree(t, "A")
	ctx := context.Background()
	before := tr.subCategory.GetAssets()[0]

	updated, err := f.svc.Update(ctx, models.KindSubCategory, tr.subCategory.GetID().Hex(), services.UpdateRequest{
		File: fakeFile("new-image"),
	})
	require.NoError(t, err)

	after := updated.GetAssets()[0]
	assert.Equal(t, before.AssetID, after.AssetID)
	assert.NotEqual(t, before.URL, after.URL)

	last := f.store.uploads[len(f.store.uploads)-1]
	assert.Equal(t, path.Dir(before.AssetID), last.folder)
	assert.Equal(t, path.Base(before.AssetID), last.publicID)
	assert.Equal(t, "new-image", last.body)
}

func TestUpdateProductGalleryImage(t *testing.T) {
	f := newFixture()
	tr := f.buildTree(t, "A")
	ctx := context.Background()
	p := tr.products[0]
	gallery := p.GetAssets()

	updated, err := f.svc.Update(ctx, models.KindProduct, p.GetID().Hex(), services.UpdateRequest{
		File:    fakeFile("side"),
		AssetID: gallery[1].AssetID,
	})
	require.NoError(t, err)

	got := updated.GetAssets()
	require.Len(t, got, 2)
	assert.Equal(t, gallery[0], got[0])
	assert.Equal(t, gallery[1].AssetID, got[1].AssetID)
	assert.NotEqual(t, gallery[1].URL, got[1].URL)

	_, err = f.svc.Update(ctx, models.KindProduct, p.GetID().Hex(), services.UpdateRequest{
		File:    fakeFile("side"),
		AssetID: "uploads/unknown",
	})
	assert.ErrorIs(t, err, services.ErrEntityNotFound)
}

func TestUpdateProductRepricing(t *testing.T) {
	f := newFixture()
	tr := f.buildTree(t, "A")
	ctx := context.Background()
	id := tr.products[0].GetID().Hex()

	price := 200.0
	updated, err := f.svc.Update(ctx, models.KindProduct, id, services.UpdateRequest{
		Product: &services.ProductPatch{Price: &price},
	})
	require.NoError(t, err)
	p := updated.(*models.Product)
	assert.Equal(t, 200.0, p.Price)
	assert.Equal(t, 180.0, p.PriceAfterDiscount)

	kind, amount := "Fixed", 25.0
	updated, err = f.svc.Update(ctx, models.KindProduct, id, services.UpdateRequest{
		Product: &services.ProductPatch{DiscountKind: &kind, DiscountAmount: &amount},
	})
	require.NoError(t, err)
	assert.Equal(t, 175.0, updated.(*models.Product).PriceAfterDiscount)

	stock := 50
	updated, err = f.svc.Update(ctx, models.KindProduct, id, services.UpdateRequest{
		Product: &services.ProductPatch{Stock: &stock},
	})
	require.NoError(t, err)
	assert.Equal(t, 50, updated.(*models.Product).Stock)
	assert.Equal(t, 175.0, updated.(*models.Product).PriceAfterDiscount)

	low := 10.0
	_, err = f.svc.Update(ctx, models.KindProduct, id, services.UpdateRequest{
		Product: &services.ProductPatch{Price: &low},
	})
	assert.ErrorIs(t, err, services.ErrInvalidProduct)

	specs := `{"weight":"170g"}`
	updated, err = f.svc.Update(ctx, models.KindProduct, id, services.UpdateRequest{
		Product: &services.ProductPatch{Specifications: &specs},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"weight": "170g"}, updated.(*models.Product).Specifications)
}

// --- Delete ---

func TestDeleteCascades(t *testing.T) {
	f := newFixture()
	a := f.buildTree(t, "A")
	b := f.buildTree(t, "B")
	ctx := context.Background()

	deleted, err := f.svc.Delete(ctx, models.KindCategory, a.category.GetID().Hex())
	require.NoError(t, err)
	assert.Equal(t, a.category.GetID(), deleted.GetID())

	for _, kind := range models.Hierarchy {
		assert.Equal(t, 1, f.count(kind), "only tree B remains for %s", kind)
	}
	left, err := f.svc.List(ctx, models.KindProduct, services.ListQuery{
		Parents: services.ParentIDs{CategoryID: a.category.GetID().Hex()},
	})
	require.NoError(t, err)
	assert.Empty(t, left)

	assert.Equal(t, 0, f.store.assetsUnder(folderOf(a.category)+"/"))
	assert.Equal(t, 7, f.store.assetsUnder(folderOf(b.category)+"/"))
	assert.Contains(t, f.store.removedFolders, folderOf(a.category))
	assert.Contains(t, f.store.removedFolders, folderOf(a.products[0]))
	assert.Contains(t, f.pub.types(), "catalog.category.deleted")

	_, err = f.svc.Get(ctx, models.KindProduct, a.products[1].GetID().Hex())
	assert.ErrorIs(t, err, services.ErrEntityNotFound)
}

func TestDeleteCascadeSkipsFailingChild(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	cat := f.mustCreate(t, models.KindCategory, services.CreateRequest{Name: "Electronics"})
	subs := make([]models.Entity, 0, 2)
	brands := make([]models.Entity, 0, 2)
	for _, name := range []string{"Phones", "Laptops"} {
		sub := f.mustCreate(t, models.KindSubCategory, services.CreateRequest{
			Name:    name,
			Parents: services.ParentIDs{CategoryID: cat.GetID().Hex()},
		})
		subs = append(subs, sub)
		brands = append(brands, f.mustCreate(t, models.KindBrand, services.CreateRequest{
			Name:    name + " Brand",
			Parents: services.ParentIDs{SubCategoryID: sub.GetID().Hex()},
		}))
	}
	f.flaky[models.KindSubCategory].deleteErrFor[subs[0].GetID()] = errors.New("db down")

	_, err := f.svc.Delete(ctx, models.KindCategory, cat.GetID().Hex())
	require.NoError(t, err)

	assert.Equal(t, 0, f.count(models.KindCategory))
	assert.Equal(t, 1, f.count(models.KindSubCategory))

	_, err = f.svc.Get(ctx, models.KindSubCategory, subs[0].GetID().Hex())
	assert.NoError(t, err, "failing child is left in place")
	_, err = f.svc.Get(ctx, models.KindSubCategory, subs[1].GetID().Hex())
	assert.ErrorIs(t, err, services.ErrEntityNotFound)
	_, err = f.svc.Get(ctx, models.KindBrand, brands[1].GetID().Hex())
	assert.ErrorIs(t, err, services.ErrEntityNotFound)

	assert.Equal(t, 0, f.store.assetsUnder(folderOf(subs[1])+"/"))
	assert.Contains(t, f.store.removedFolders, folderOf(cat))
	assert.Contains(t, f.pub.types(), "catalog.category.deleted")
}

func TestDeleteBrandKeepsAncestors(t *testing.T) {
	f := newFixture()
	tr := f.buildTree(t, "A")

	_, err := f.svc.Delete(context.Background(), models.KindBrand, tr.brand.GetID().Hex())
	require.NoError(t, err)

	assert.Equal(t, 1, f.count(models.KindCategory))
	assert.Equal(t, 1, f.count(models.KindSubCategory))
	assert.Equal(t, 0, f.count(models.KindBrand))
	assert.Equal(t, 0, f.count(models.KindProduct))
	assert.Equal(t, 2, f.store.assetsUnder(folderOf(tr.category)+"/"))
}

func TestDeleteImageFailureKeepsRecord(t *testing.T) {
	f := newFixture()
	tr := f.buildTree(t, "A")
	f.store.deletePrefixErr = errors.New("media provider unavailable")

	_, err := f.svc.Delete(context.Background(), models.KindSubCategory, tr.subCategory.GetID().Hex())

	assert.ErrorIs(t, err, services.ErrAssetDeleteFailed)
	assert.Equal(t, 1, f.count(models.KindSubCategory))
	assert.Equal(t, 1, f.count(models.KindBrand))
	assert.Equal(t, 2, f.count(models.KindProduct))
}

func TestDeleteNotFound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Delete(context.Background(), models.KindProduct, primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, services.ErrEntityNotFound)

	_, err = f.svc.Delete(context.Background(), models.KindProduct, "bad")
	assert.ErrorIs(t, err, services.ErrInvalidID)
}

func TestNoPublisherConfigured(t *testing.T) {
	repo := repository.NewMemoryRepository(models.KindCategory)
	svc := services.NewCatalogService([]repository.Repository{repo}, newFakeStore(), "uploads", nil, "", zap.NewNop())

	_, err := svc.Create(context.Background(), models.KindCategory, services.CreateRequest{
		Name:  "Electronics",
		Files: []services.FileSource{fakeFile("x")},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.Len())

	// Kinds without a repository are an internal error.
	_, err = svc.List(context.Background(), models.KindBrand, services.ListQuery{})
	assert.Error(t, err)
}
