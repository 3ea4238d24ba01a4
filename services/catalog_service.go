package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	apperrors "catalog-service/common/errors"
	"catalog-service/media"
	"catalog-service/models"
	aws_pkg "catalog-service/pkg/aws"
	"catalog-service/repository"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CatalogService defines the catalog operations shared by every kind of the hierarchy.
type CatalogService interface {
	Create(ctx context.Context, kind models.Kind, req CreateRequest) (models.Entity, error)
	List(ctx context.Context, kind models.Kind, q ListQuery) ([]models.Entity, error)
	Get(ctx context.Context, kind models.Kind, id string) (models.Entity, error)
	Update(ctx context.Context, kind models.Kind, id string, req UpdateRequest) (models.Entity, error)
	// Delete removes the entity, its images and every descendant. The deleted
	// entity is returned as it was before removal.
	Delete(ctx context.Context, kind models.Kind, id string) (models.Entity, error)
}

type catalogServiceImpl struct {
	repos         map[models.Kind]repository.Repository
	store         media.Store
	uploadsFolder string
	snsClient     aws_pkg.SNSPublisher
	snsTopicArn   string
	validate      *validator.Validate
	logger        *zap.Logger

	now        func() time.Time
	newShortID func() (string, error)
}

// NewCatalogService wires one repository per kind. Kinds without a repository
// fail with an internal error.
func NewCatalogService(
	repos []repository.Repository,
	store media.Store,
	uploadsFolder string,
	snsClient aws_pkg.SNSPublisher,
	snsTopicArn string,
	logger *zap.Logger,
) CatalogService {
	byKind := make(map[models.Kind]repository.Repository, len(repos))
	for _, r := range repos {
		byKind[r.Kind()] = r
	}
	return &catalogServiceImpl{
		repos:         byKind,
		store:         store,
		uploadsFolder: strings.TrimSuffix(uploadsFolder, "/"),
		snsClient:     snsClient,
		snsTopicArn:   snsTopicArn,
		validate:      validator.New(),
		logger:        logger,
		now:           time.Now,
		newShortID:    NewShortID,
	}
}

func (s *catalogServiceImpl) Create(ctx context.Context, kind models.Kind, req CreateRequest) (models.Entity, error) {
	repo, spec, err := s.lookup(kind)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrMissingName.Wrap(fmt.Sprintf("%s is required", spec.nameField), nil)
	}
	if Slugify(name) == "" {
		return nil, ErrMissingName.Wrap(fmt.Sprintf("%s must contain letters or digits", spec.nameField), nil)
	}

	chain, lineage, err := s.resolveParents(ctx, kind, req.Parents)
	if err != nil {
		return nil, err
	}

	if err := s.checkDuplicate(ctx, repo, spec, name, primitive.NilObjectID); err != nil {
		return nil, err
	}

	if len(req.Files) == 0 {
		return nil, ErrMissingAsset.Wrap("image is required", nil)
	}
	if !spec.multiAsset && len(req.Files) > 1 {
		return nil, ErrTooManyAssets.Wrap(fmt.Sprintf("%s accepts a single image", kind.Label()), nil)
	}

	var product *models.Product
	if kind == models.KindProduct {
		if product, err = s.buildProduct(req.Product); err != nil {
			return nil, err
		}
	}

	shortID, err := s.newShortID()
	if err != nil {
		return nil, apperrors.ErrInternalServer.Wrap("Failed to generate short id", err)
	}
	folder := s.folderPath(chain, spec, shortID)

	assets, err := s.uploadAll(ctx, folder, req.Files)
	if err != nil {
		if len(assets) > 0 {
			s.discardFolder(ctx, folder)
		}
		return nil, err
	}

	now := s.now().UTC()
	entity := newEntity(kind, name, shortID, lineage, assets, product, now)
	if p, ok := entity.(*models.Product); ok {
		if creator, err := primitive.ObjectIDFromHex(req.CreatedBy); err == nil {
			p.CreatedBy = &creator
		}
	}

	if err := repo.Create(ctx, entity); err != nil {
		s.logger.Error("Failed to persist entity, discarding uploaded images",
			zap.String("kind", string(kind)), zap.String("folder", folder), zap.Error(err))
		s.discardFolder(ctx, folder)
		return nil, apperrors.ErrInternalServer.Wrap(fmt.Sprintf("Failed to create %s", kind.Label()), err)
	}

	s.logger.Info("Catalog entity created",
		zap.String("kind", string(kind)),
		zap.String("id", entity.GetID().Hex()),
		zap.String("slug", entity.GetSlug()),
	)
	s.publishEvent(ctx, "created", entity)
	return entity, nil
}

func (s *catalogServiceImpl) List(ctx context.Context, kind models.Kind, q ListQuery) ([]models.Entity, error) {
	repo, spec, err := s.lookup(kind)
	if err != nil {
		return nil, err
	}

	filter := repository.Filter{}
	if q.ID != "" {
		id, err := parseID(q.ID)
		if err != nil {
			return nil, err
		}
		filter["_id"] = id
	}
	if q.Name != "" {
		filter[spec.nameField] = q.Name
	}
	if q.Slug != "" {
		filter["slug"] = q.Slug
	}
	for _, a := range ancestors(kind) {
		raw := q.Parents.get(a)
		if raw == "" {
			continue
		}
		id, err := parseID(raw)
		if err != nil {
			return nil, err
		}
		filter[referenceField(a)] = id
	}

	entities, err := repo.Find(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list entities", zap.String("kind", string(kind)), zap.Error(err))
		return nil, apperrors.ErrInternalServer.Wrap(fmt.Sprintf("Failed to fetch %s", kind.Plural()), err)
	}
	return entities, nil
}

func (s *catalogServiceImpl) Get(ctx context.Context, kind models.Kind, id string) (models.Entity, error) {
	repo, _, err := s.lookup(kind)
	if err != nil {
		return nil, err
	}
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.findEntity(ctx, repo, oid)
}

func (s *catalogServiceImpl) Update(ctx context.Context, kind models.Kind, id string, req UpdateRequest) (models.Entity, error) {
	repo, spec, err := s.lookup(kind)
	if err != nil {
		return nil, err
	}
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	entity, err := s.findEntity(ctx, repo, oid)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrMissingName.Wrap(fmt.Sprintf("%s cannot be empty", spec.nameField), nil)
		}
		newSlug := Slugify(name)
		if newSlug == "" {
			return nil, ErrMissingName.Wrap(fmt.Sprintf("%s must contain letters or digits", spec.nameField), nil)
		}
		if err := s.checkDuplicate(ctx, repo, spec, name, oid); err != nil {
			return nil, err
		}
		entity.Rename(name, newSlug)
	}

	if p, ok := entity.(*models.Product); ok && req.Product != nil {
		if err := s.patchProduct(p, req.Product); err != nil {
			return nil, err
		}
	}

	if req.File != nil {
		if err := s.replaceAsset(ctx, entity, req.AssetID, req.File); err != nil {
			return nil, err
		}
	}

	entity.Touch(s.now().UTC())
	if err := repo.Replace(ctx, entity); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEntityNotFound.Wrap(fmt.Sprintf("%s not found", kind.Label()), nil)
		}
		s.logger.Error("Failed to update entity", zap.String("kind", string(kind)), zap.String("id", id), zap.Error(err))
		return nil, apperrors.ErrInternalServer.Wrap(fmt.Sprintf("Failed to update %s", kind.Label()), err)
	}

	s.logger.Info("Catalog entity updated", zap.String("kind", string(kind)), zap.String("id", id))
	s.publishEvent(ctx, "updated", entity)
	return entity, nil
}

// Delete removes the entity's own images first. When that fails nothing is
// deleted and the call can be retried. Once the document is gone, descendants
// are removed depth-first on a best-effort basis.
func (s *catalogServiceImpl) Delete(ctx context.Context, kind models.Kind, id string) (models.Entity, error) {
	repo, spec, err := s.lookup(kind)
	if err != nil {
		return nil, err
	}
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	entity, err := s.findEntity(ctx, repo, oid)
	if err != nil {
		return nil, err
	}

	folder := s.folderOf(ctx, entity)
	if err := s.store.DeletePrefix(ctx, folder+"/"); err != nil {
		s.logger.Error("Failed to delete images", zap.String("kind", string(kind)), zap.String("folder", folder), zap.Error(err))
		return nil, ErrAssetDeleteFailed.Wrap(fmt.Sprintf("Failed to delete %s images", kind.Label()), err)
	}

	deleted, err := repo.Delete(ctx, oid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEntityNotFound.Wrap(fmt.Sprintf("%s not found", kind.Label()), nil)
		}
		s.logger.Error("Failed to delete entity", zap.String("kind", string(kind)), zap.String("id", id), zap.Error(err))
		return nil, apperrors.ErrInternalServer.Wrap(fmt.Sprintf("Failed to delete %s", kind.Label()), err)
	}

	s.cascade(ctx, spec, oid, folder)
	s.removeFolder(ctx, folder)

	s.logger.Info("Catalog entity deleted", zap.String("kind", string(kind)), zap.String("id", id))
	s.publishEvent(ctx, "deleted", deleted)
	return deleted, nil
}

// cascade deletes the children of parentID and, recursively, their children.
// Failures are logged with the ids involved and skipped.
func (s *catalogServiceImpl) cascade(ctx context.Context, parent kindSpec, parentID primitive.ObjectID, parentFolder string) {
	if parent.child == "" {
		return
	}
	child := kindSpecs[parent.child]
	repo, ok := s.repos[child.kind]
	if !ok {
		return
	}

	children, err := repo.Find(ctx, repository.Filter{child.parentField: parentID})
	if err != nil {
		s.logger.Error("Cascade lookup failed",
			zap.String("kind", string(child.kind)),
			zap.String("parent_id", parentID.Hex()),
			zap.Error(err),
		)
		return
	}

	for _, e := range children {
		folder := parentFolder + "/" + child.folder + "/" + e.GetShortID()
		if err := s.store.DeletePrefix(ctx, folder+"/"); err != nil {
			s.logger.Warn("Cascade image delete failed",
				zap.String("kind", string(child.kind)),
				zap.String("id", e.GetID().Hex()),
				zap.String("folder", folder),
				zap.Error(err),
			)
		}
		if _, err := repo.Delete(ctx, e.GetID()); err != nil && !errors.Is(err, repository.ErrNotFound) {
			s.logger.Error("Cascade delete failed",
				zap.String("kind", string(child.kind)),
				zap.String("id", e.GetID().Hex()),
				zap.Error(err),
			)
			continue
		}
		s.cascade(ctx, child, e.GetID(), folder)
		s.removeFolder(ctx, folder)
	}
}

func (s *catalogServiceImpl) lookup(kind models.Kind) (repository.Repository, kindSpec, error) {
	spec, ok := kindSpecs[kind]
	if !ok {
		return nil, kindSpec{}, apperrors.ErrInternalServer.Wrap(fmt.Sprintf("unknown kind %q", kind), nil)
	}
	repo, ok := s.repos[kind]
	if !ok {
		return nil, kindSpec{}, apperrors.ErrInternalServer.Wrap(fmt.Sprintf("no repository for %s", kind), nil)
	}
	return repo, spec, nil
}

func (s *catalogServiceImpl) findEntity(ctx context.Context, repo repository.Repository, id primitive.ObjectID) (models.Entity, error) {
	entity, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEntityNotFound.Wrap(fmt.Sprintf("%s not found", repo.Kind().Label()), nil)
		}
		return nil, apperrors.ErrInternalServer.Wrap(fmt.Sprintf("Failed to fetch %s", repo.Kind().Label()), err)
	}
	return entity, nil
}

// checkDuplicate rejects name when another entity of the same kind already uses it.
func (s *catalogServiceImpl) checkDuplicate(ctx context.Context, repo repository.Repository, spec kindSpec, name string, self primitive.ObjectID) error {
	existing, err := repo.FindOne(ctx, repository.Filter{spec.nameField: name})
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return apperrors.ErrInternalServer.Wrap("Failed to check name", err)
	}
	if existing.GetID() == self {
		return nil
	}
	return ErrDuplicateName.Wrap("This name already exists", nil)
}

func parseID(raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID.Wrap(fmt.Sprintf("invalid id %q", raw), err)
	}
	return id, nil
}

func (s *catalogServiceImpl) uploadAll(ctx context.Context, folder string, files []FileSource) ([]models.Asset, error) {
	assets := make([]models.Asset, 0, len(files))
	for i, f := range files {
		asset, err := s.uploadOne(ctx, f, folder, "")
		if err != nil {
			s.logger.Error("Image upload failed", zap.String("folder", folder), zap.Int("index", i), zap.Error(err))
			return assets, ErrAssetUploadFailed.Wrap(fmt.Sprintf("Failed to upload image %d", i+1), err)
		}
		assets = append(assets, asset)
	}
	return assets, nil
}

func (s *catalogServiceImpl) uploadOne(ctx context.Context, f FileSource, folder, publicID string) (models.Asset, error) {
	src, err := f.Open()
	if err != nil {
		return models.Asset{}, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()
	return s.store.Upload(ctx, src, folder, publicID)
}

// replaceAsset overwrites one stored image in place, keeping its identifier.
func (s *catalogServiceImpl) replaceAsset(ctx context.Context, entity models.Entity, assetID string, f FileSource) error {
	assets := entity.GetAssets()
	if len(assets) == 0 {
		return ErrMissingAsset.Wrap("no image to replace", nil)
	}

	idx := 0
	if assetID != "" {
		idx = -1
		for i, a := range assets {
			if a.AssetID == assetID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return ErrEntityNotFound.Wrap(fmt.Sprintf("image %q not found", assetID), nil)
		}
	}

	current := assets[idx]
	folder := s.folderOf(ctx, entity)
	uploaded, err := s.uploadOne(ctx, f, folder, path.Base(current.AssetID))
	if err != nil {
		s.logger.Error("Image replace failed", zap.String("asset_id", current.AssetID), zap.Error(err))
		return ErrAssetUploadFailed.Wrap("Failed to upload image", err)
	}

	entity.SetAsset(idx, models.Asset{URL: uploaded.URL, AssetID: current.AssetID})
	return nil
}

// discardFolder is the compensating step for a create that cannot complete.
func (s *catalogServiceImpl) discardFolder(ctx context.Context, folder string) {
	if err := s.store.DeletePrefix(ctx, folder+"/"); err != nil {
		s.logger.Error("Failed to discard uploaded images", zap.String("folder", folder), zap.Error(err))
		return
	}
	s.removeFolder(ctx, folder)
}

func (s *catalogServiceImpl) removeFolder(ctx context.Context, folder string) {
	if err := s.store.DeleteFolder(ctx, folder); err != nil {
		s.logger.Warn("Failed to remove folder", zap.String("folder", folder), zap.Error(err))
	}
}
