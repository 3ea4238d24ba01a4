package services

import (
	"catalog-service/models"
)

// kindSpec describes how one level of the hierarchy is stored and named.
type kindSpec struct {
	kind models.Kind
	// folder is the path segment that precedes shortIds of this kind.
	folder string
	// nameField is the stored field carrying the display name.
	nameField string
	// parent is the immediate parent kind, empty for the root.
	parent models.Kind
	// parentField references the immediate parent. Children are found by it.
	parentField string
	// child is the immediate child kind, empty for the leaf.
	child      models.Kind
	multiAsset bool
}

var kindSpecs = map[models.Kind]kindSpec{
	models.KindCategory: {
		kind:      models.KindCategory,
		folder:    "Categories",
		nameField: "name",
		child:     models.KindSubCategory,
	},
	models.KindSubCategory: {
		kind:        models.KindSubCategory,
		folder:      "SubCategories",
		nameField:   "name",
		parent:      models.KindCategory,
		parentField: "categoryId",
		child:       models.KindBrand,
	},
	models.KindBrand: {
		kind:        models.KindBrand,
		folder:      "Brands",
		nameField:   "name",
		parent:      models.KindSubCategory,
		parentField: "subCategoryId",
		child:       models.KindProduct,
	},
	models.KindProduct: {
		kind:        models.KindProduct,
		folder:      "Products",
		nameField:   "title",
		parent:      models.KindBrand,
		parentField: "brandId",
		multiAsset:  true,
	},
}

// ancestors returns the kinds above k, root first.
func ancestors(k models.Kind) []models.Kind {
	var out []models.Kind
	for _, h := range models.Hierarchy {
		if h == k {
			return out
		}
		out = append(out, h)
	}
	return out
}

// referenceField is the stored field holding the reference to an ancestor of kind k.
func referenceField(k models.Kind) string {
	switch k {
	case models.KindCategory:
		return "categoryId"
	case models.KindSubCategory:
		return "subCategoryId"
	case models.KindBrand:
		return "brandId"
	}
	return ""
}
