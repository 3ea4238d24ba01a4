package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category is the root of the catalog hierarchy.
type Category struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name      string             `json:"name" bson:"name"`
	Slug      string             `json:"slug" bson:"slug"`
	Image     Asset              `json:"image" bson:"image"`
	ShortID   string             `json:"shortId" bson:"shortId"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

func (c *Category) GetKind() Kind             { return KindCategory }
func (c *Category) GetID() primitive.ObjectID { return c.ID }
func (c *Category) GetName() string           { return c.Name }
func (c *Category) GetSlug() string           { return c.Slug }
func (c *Category) GetShortID() string        { return c.ShortID }
func (c *Category) GetLineage() Lineage       { return Lineage{} }
func (c *Category) GetAssets() []Asset        { return []Asset{c.Image} }

func (c *Category) Rename(name, slug string) {
	c.Name = name
	c.Slug = slug
}

func (c *Category) SetAsset(_ int, asset Asset) { c.Image = asset }

func (c *Category) Touch(now time.Time) { c.UpdatedAt = now }

// SubCategory belongs to exactly one Category.
type SubCategory struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name       string             `json:"name" bson:"name"`
	Slug       string             `json:"slug" bson:"slug"`
	Image      Asset              `json:"image" bson:"image"`
	ShortID    string             `json:"shortId" bson:"shortId"`
	CategoryID primitive.ObjectID `json:"categoryId" bson:"categoryId"`
	CreatedAt  time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt" bson:"updatedAt"`
}

func (s *SubCategory) GetKind() Kind             { return KindSubCategory }
func (s *SubCategory) GetID() primitive.ObjectID { return s.ID }
func (s *SubCategory) GetName() string           { return s.Name }
func (s *SubCategory) GetSlug() string           { return s.Slug }
func (s *SubCategory) GetShortID() string        { return s.ShortID }
func (s *SubCategory) GetLineage() Lineage       { return Lineage{CategoryID: s.CategoryID} }
func (s *SubCategory) GetAssets() []Asset        { return []Asset{s.Image} }

func (s *SubCategory) Rename(name, slug string) {
	s.Name = name
	s.Slug = slug
}

func (s *SubCategory) SetAsset(_ int, asset Asset) { s.Image = asset }

func (s *SubCategory) Touch(now time.Time) { s.UpdatedAt = now }
