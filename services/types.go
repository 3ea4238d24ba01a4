package services

import (
	"mime/multipart"

	"catalog-service/models"
)

// FileSource is an uploaded file that can be opened for reading.
// *multipart.FileHeader satisfies it.
type FileSource interface {
	Open() (multipart.File, error)
}

// ParentIDs carries ancestor references as supplied by a caller, in hex form.
type ParentIDs struct {
	CategoryID    string
	SubCategoryID string
	BrandID       string
}

func (p ParentIDs) get(k models.Kind) string {
	switch k {
	case models.KindCategory:
		return p.CategoryID
	case models.KindSubCategory:
		return p.SubCategoryID
	case models.KindBrand:
		return p.BrandID
	}
	return ""
}

// ProductInput holds the product-only fields of a create request.
type ProductInput struct {
	Overview       string
	Specifications string  // JSON object
	Badge          string  `validate:"omitempty,oneof=New Sale 'Best Seller'"`
	Price          float64 `validate:"gte=50"`
	DiscountKind   string
	DiscountAmount float64 `validate:"gte=0"`
	Stock          int     `validate:"gte=10"`
	Rating         float64 `validate:"gte=0,lte=5"`
}

// CreateRequest is the kind-independent input of Create. Product must be set
// for products and is ignored otherwise.
type CreateRequest struct {
	Name      string
	Parents   ParentIDs
	Files     []FileSource
	Product   *ProductInput
	CreatedBy string
}

// ProductPatch lists the product fields an update may change. Nil means unchanged.
type ProductPatch struct {
	Overview       *string
	Specifications *string
	Badge          *string
	Price          *float64
	DiscountKind   *string
	DiscountAmount *float64
	Stock          *int
	Rating         *float64
}

func (p *ProductPatch) repricing() bool {
	return p.Price != nil || p.DiscountKind != nil || p.DiscountAmount != nil
}

// UpdateRequest is a partial update. AssetID picks the gallery image File
// replaces; empty means the primary image.
type UpdateRequest struct {
	Name    *string
	File    FileSource
	AssetID string
	Product *ProductPatch
}

// ListQuery filters find-many. Empty fields do not constrain the result.
type ListQuery struct {
	ID      string
	Name    string
	Slug    string
	Parents ParentIDs
}
