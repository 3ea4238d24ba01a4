package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	apperrors "catalog-service/common/errors"
	"catalog-service/models"
	"catalog-service/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// resolveParents loads the ancestors of a new entity of kind, root first.
//
// The immediate parent reference is required. Higher references may be
// omitted, in which case they are taken from the loaded parent. When they are
// supplied they must agree with it.
func (s *catalogServiceImpl) resolveParents(ctx context.Context, kind models.Kind, supplied ParentIDs) ([]models.Entity, models.Lineage, error) {
	var lineage models.Lineage
	anc := ancestors(kind)
	if len(anc) == 0 {
		return nil, lineage, nil
	}
	immediate := anc[len(anc)-1]

	ids := make(map[models.Kind]primitive.ObjectID, len(anc))
	for _, a := range anc {
		raw := strings.TrimSpace(supplied.get(a))
		if raw == "" {
			if a == immediate {
				return nil, lineage, ErrMissingParentReference.Wrap(fmt.Sprintf("%s is required", referenceField(a)), nil)
			}
			continue
		}
		id, err := parseID(raw)
		if err != nil {
			return nil, lineage, err
		}
		ids[a] = id
	}

	loaded := make(map[models.Kind]models.Entity, len(anc))
	for _, a := range anc {
		id, ok := ids[a]
		if !ok {
			continue
		}
		parent, err := s.findParent(ctx, a, id)
		if err != nil {
			return nil, lineage, err
		}
		loaded[a] = parent
	}

	for i := len(anc) - 1; i > 0; i-- {
		below, above := anc[i], anc[i-1]
		expected := loaded[below].GetLineage().Get(above)
		if got, ok := ids[above]; ok {
			if got != expected {
				return nil, lineage, ErrInconsistentHierarchy.Wrap(
					fmt.Sprintf("%s %s does not belong to %s %s", below.Label(), ids[below].Hex(), above.Label(), got.Hex()), nil)
			}
			continue
		}
		parent, err := s.findParent(ctx, above, expected)
		if err != nil {
			return nil, lineage, err
		}
		loaded[above] = parent
		ids[above] = expected
	}

	chain := make([]models.Entity, 0, len(anc))
	for _, a := range anc {
		chain = append(chain, loaded[a])
		lineage.Set(a, ids[a])
	}
	return chain, lineage, nil
}

func (s *catalogServiceImpl) findParent(ctx context.Context, kind models.Kind, id primitive.ObjectID) (models.Entity, error) {
	repo, ok := s.repos[kind]
	if !ok {
		return nil, apperrors.ErrInternalServer.Wrap(fmt.Sprintf("no repository for %s", kind), nil)
	}
	parent, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrParentNotFound.Wrap(fmt.Sprintf("%s not found", kind.Label()), nil)
		}
		return nil, apperrors.ErrInternalServer.Wrap(fmt.Sprintf("Failed to fetch %s", kind.Label()), err)
	}
	return parent, nil
}

// folderPath builds <uploads>/Categories/<c>/SubCategories/<s>/.../<Kind folder>/<shortID>.
func (s *catalogServiceImpl) folderPath(chain []models.Entity, spec kindSpec, shortID string) string {
	var b strings.Builder
	b.WriteString(s.uploadsFolder)
	for _, e := range chain {
		b.WriteString("/")
		b.WriteString(kindSpecs[e.GetKind()].folder)
		b.WriteString("/")
		b.WriteString(e.GetShortID())
	}
	b.WriteString("/")
	b.WriteString(spec.folder)
	b.WriteString("/")
	b.WriteString(shortID)
	return b.String()
}

// folderOf locates the folder holding an existing entity's images. If an
// ancestor has disappeared the folder is taken from the stored asset id.
func (s *catalogServiceImpl) folderOf(ctx context.Context, entity models.Entity) string {
	kind := entity.GetKind()
	lineage := entity.GetLineage()

	chain := make([]models.Entity, 0, 3)
	for _, a := range ancestors(kind) {
		parent, err := s.findParent(ctx, a, lineage.Get(a))
		if err != nil {
			s.logger.Warn("Ancestor missing, using stored asset folder",
				zap.String("kind", string(kind)),
				zap.String("id", entity.GetID().Hex()),
				zap.Error(err),
			)
			if assets := entity.GetAssets(); len(assets) > 0 && assets[0].AssetID != "" {
				return path.Dir(assets[0].AssetID)
			}
			return s.folderPath(nil, kindSpecs[kind], entity.GetShortID())
		}
		chain = append(chain, parent)
	}
	return s.folderPath(chain, kindSpecs[kind], entity.GetShortID())
}

func newEntity(kind models.Kind, name, shortID string, lineage models.Lineage, assets []models.Asset, product *models.Product, now time.Time) models.Entity {
	id := primitive.NewObjectID()
	slug := Slugify(name)

	switch kind {
	case models.KindCategory:
		return &models.Category{
			ID:        id,
			Name:      name,
			Slug:      slug,
			Image:     assets[0],
			ShortID:   shortID,
			CreatedAt: now,
			UpdatedAt: now,
		}
	case models.KindSubCategory:
		return &models.SubCategory{
			ID:         id,
			Name:       name,
			Slug:       slug,
			Image:      assets[0],
			ShortID:    shortID,
			CategoryID: lineage.CategoryID,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
	case models.KindBrand:
		return &models.Brand{
			ID:            id,
			Name:          name,
			Slug:          slug,
			Image:         assets[0],
			ShortID:       shortID,
			CategoryID:    lineage.CategoryID,
			SubCategoryID: lineage.SubCategoryID,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
	}

	product.ID = id
	product.Title = name
	product.Slug = slug
	product.Images = models.ProductImages{URLs: assets, ShortID: shortID}
	product.CategoryID = lineage.CategoryID
	product.SubCategoryID = lineage.SubCategoryID
	product.BrandID = lineage.BrandID
	product.CreatedAt = now
	product.UpdatedAt = now
	return product
}
