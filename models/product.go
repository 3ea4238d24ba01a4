package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DiscountKind string

const (
	DiscountPercentage DiscountKind = "Percentage"
	DiscountFixed      DiscountKind = "Fixed"
)

type Discount struct {
	Kind   DiscountKind `json:"kind" bson:"kind"`
	Amount float64      `json:"amount" bson:"amount"`
}

// ProductImages is the product gallery. The first URL is the primary image.
type ProductImages struct {
	URLs    []Asset `json:"urls" bson:"urls"`
	ShortID string  `json:"shortId" bson:"shortId"`
}

// Product is the leaf of the catalog hierarchy.
type Product struct {
	ID                 primitive.ObjectID     `json:"id" bson:"_id,omitempty"`
	Title              string                 `json:"title" bson:"title"`
	Slug               string                 `json:"slug" bson:"slug"`
	Overview           string                 `json:"overview" bson:"overview"`
	Specifications     map[string]interface{} `json:"specifications" bson:"specifications"`
	Badge              string                 `json:"badge,omitempty" bson:"badge,omitempty"`
	Price              float64                `json:"price" bson:"price"`
	Discount           Discount               `json:"discount" bson:"discount"`
	PriceAfterDiscount float64                `json:"priceAfterDiscount" bson:"priceAfterDiscount"`
	Stock              int                    `json:"stock" bson:"stock"`
	Rating             float64                `json:"rating" bson:"rating"`
	Images             ProductImages          `json:"images" bson:"images"`
	CategoryID         primitive.ObjectID     `json:"categoryId" bson:"categoryId"`
	SubCategoryID      primitive.ObjectID     `json:"subCategoryId" bson:"subCategoryId"`
	BrandID            primitive.ObjectID     `json:"brandId" bson:"brandId"`
	CreatedBy          *primitive.ObjectID    `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	CreatedAt          time.Time              `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time              `json:"updatedAt" bson:"updatedAt"`
}

func (p *Product) GetKind() Kind             { return KindProduct }
func (p *Product) GetID() primitive.ObjectID { return p.ID }
func (p *Product) GetName() string           { return p.Title }
func (p *Product) GetSlug() string           { return p.Slug }
func (p *Product) GetShortID() string        { return p.Images.ShortID }
func (p *Product) GetAssets() []Asset        { return p.Images.URLs }

func (p *Product) GetLineage() Lineage {
	return Lineage{CategoryID: p.CategoryID, SubCategoryID: p.SubCategoryID, BrandID: p.BrandID}
}

func (p *Product) Rename(title, slug string) {
	p.Title = title
	p.Slug = slug
}

func (p *Product) SetAsset(i int, asset Asset) {
	if i < 0 || i >= len(p.Images.URLs) {
		return
	}
	p.Images.URLs[i] = asset
}

func (p *Product) Touch(now time.Time) { p.UpdatedAt = now }
