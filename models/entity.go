package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Kind identifies one level of the catalog hierarchy.
type Kind string

const (
	KindCategory    Kind = "category"
	KindSubCategory Kind = "subcategory"
	KindBrand       Kind = "brand"
	KindProduct     Kind = "product"
)

// Hierarchy lists the kinds from root to leaf.
var Hierarchy = []Kind{KindCategory, KindSubCategory, KindBrand, KindProduct}

// Label is the singular display name used in messages.
func (k Kind) Label() string {
	switch k {
	case KindCategory:
		return "Category"
	case KindSubCategory:
		return "SubCategory"
	case KindBrand:
		return "Brand"
	case KindProduct:
		return "Product"
	}
	return string(k)
}

// Plural is the display name for collections of this kind.
func (k Kind) Plural() string {
	switch k {
	case KindCategory:
		return "Categories"
	case KindSubCategory:
		return "SubCategories"
	case KindBrand:
		return "Brands"
	case KindProduct:
		return "Products"
	}
	return string(k) + "s"
}

// Collection is the MongoDB collection holding documents of this kind.
func (k Kind) Collection() string {
	switch k {
	case KindCategory:
		return "categories"
	case KindSubCategory:
		return "subcategories"
	case KindBrand:
		return "brands"
	case KindProduct:
		return "products"
	}
	return string(k)
}

// Asset is a file stored on the media host.
// AssetID is the source of truth, URL is derived from it.
type Asset struct {
	URL     string `json:"url" bson:"url"`
	AssetID string `json:"assetId" bson:"assetId"`
}

// Lineage holds the ancestor references of an entity. Unused levels are zero.
type Lineage struct {
	CategoryID    primitive.ObjectID
	SubCategoryID primitive.ObjectID
	BrandID       primitive.ObjectID
}

// Get returns the reference to the ancestor of the given kind.
func (l Lineage) Get(k Kind) primitive.ObjectID {
	switch k {
	case KindCategory:
		return l.CategoryID
	case KindSubCategory:
		return l.SubCategoryID
	case KindBrand:
		return l.BrandID
	}
	return primitive.NilObjectID
}

// Set stores the reference to the ancestor of the given kind.
func (l *Lineage) Set(k Kind, id primitive.ObjectID) {
	switch k {
	case KindCategory:
		l.CategoryID = id
	case KindSubCategory:
		l.SubCategoryID = id
	case KindBrand:
		l.BrandID = id
	}
}

// Entity is implemented by every document in the catalog hierarchy.
type Entity interface {
	GetKind() Kind
	GetID() primitive.ObjectID
	GetName() string
	GetSlug() string
	GetShortID() string
	GetLineage() Lineage
	GetAssets() []Asset

	Rename(name, slug string)
	SetAsset(i int, asset Asset)
	Touch(now time.Time)
}

// New returns an empty, decodable entity of the given kind.
func New(k Kind) Entity {
	switch k {
	case KindCategory:
		return &Category{}
	case KindSubCategory:
		return &SubCategory{}
	case KindBrand:
		return &Brand{}
	case KindProduct:
		return &Product{}
	}
	return nil
}
