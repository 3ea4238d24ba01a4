package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Brand sits under a SubCategory and keeps a direct reference to its Category.
type Brand struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name          string             `json:"name" bson:"name"`
	Slug          string             `json:"slug" bson:"slug"`
	Image         Asset              `json:"image" bson:"image"`
	ShortID       string             `json:"shortId" bson:"shortId"`
	CategoryID    primitive.ObjectID `json:"categoryId" bson:"categoryId"`
	SubCategoryID primitive.ObjectID `json:"subCategoryId" bson:"subCategoryId"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt" bson:"updatedAt"`
}

func (b *Brand) GetKind() Kind             { return KindBrand }
func (b *Brand) GetID() primitive.ObjectID { return b.ID }
func (b *Brand) GetName() string           { return b.Name }
func (b *Brand) GetSlug() string           { return b.Slug }
func (b *Brand) GetShortID() string        { return b.ShortID }
func (b *Brand) GetAssets() []Asset        { return []Asset{b.Image} }

func (b *Brand) GetLineage() Lineage {
	return Lineage{CategoryID: b.CategoryID, SubCategoryID: b.SubCategoryID}
}

func (b *Brand) Rename(name, slug string) {
	b.Name = name
	b.Slug = slug
}

func (b *Brand) SetAsset(_ int, asset Asset) { b.Image = asset }

func (b *Brand) Touch(now time.Time) { b.UpdatedAt = now }
