package controllers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	apperrors "catalog-service/common/errors"
	"catalog-service/common/middleware"
	"catalog-service/models"
	"catalog-service/services"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
	"image/avif": true,
}

// catalogForm is the multipart body shared by every kind. Title is the
// product alias of Name.
type catalogForm struct {
	Name          string `form:"name"`
	Title         string `form:"title"`
	CategoryID    string `form:"categoryId" validate:"omitempty,mongodb"`
	SubCategoryID string `form:"subCategoryId" validate:"omitempty,mongodb"`
	BrandID       string `form:"brandId" validate:"omitempty,mongodb"`
}

type productForm struct {
	Overview       string  `form:"overview"`
	Specifications string  `form:"specifications"`
	Badge          string  `form:"badge"`
	Price          float64 `form:"price"`
	DiscountKind   string  `form:"discountKind"`
	DiscountAmount float64 `form:"discountAmount"`
	Stock          int     `form:"stock"`
	Rating         float64 `form:"rating"`
}

// RequestValidator handles all input validation
type RequestValidator struct {
	validate      *validator.Validate
	maxUploadSize int64
}

func NewRequestValidator(maxUploadSize int64) *RequestValidator {
	if maxUploadSize <= 0 {
		maxUploadSize = DefaultMaxUploadSize
	}
	return &RequestValidator{
		validate:      validator.New(),
		maxUploadSize: maxUploadSize,
	}
}

// ParseCreateRequest reads a create form. Parent ids may come from the query
// string or the form body.
func (rv *RequestValidator) ParseCreateRequest(c *gin.Context, kind models.Kind) (services.CreateRequest, error) {
	var form catalogForm
	if err := c.ShouldBindWith(&form, binding.Form); err != nil {
		return services.CreateRequest{}, invalid("invalid form data", err)
	}
	rv.mergeQueryParents(c, &form)
	if err := rv.validate.Struct(&form); err != nil {
		return services.CreateRequest{}, services.ErrInvalidID.Wrap("invalid parent id", err)
	}

	files, err := rv.images(c)
	if err != nil {
		return services.CreateRequest{}, err
	}

	req := services.CreateRequest{
		Name: nameOf(form, kind),
		Parents: services.ParentIDs{
			CategoryID:    form.CategoryID,
			SubCategoryID: form.SubCategoryID,
			BrandID:       form.BrandID,
		},
		Files:     files,
		CreatedBy: middleware.GetUserID(c),
	}

	if kind == models.KindProduct {
		var pf productForm
		if err := c.ShouldBindWith(&pf, binding.Form); err != nil {
			return services.CreateRequest{}, invalid("invalid product fields", err)
		}
		req.Product = &services.ProductInput{
			Overview:       pf.Overview,
			Specifications: pf.Specifications,
			Badge:          pf.Badge,
			Price:          pf.Price,
			DiscountKind:   pf.DiscountKind,
			DiscountAmount: pf.DiscountAmount,
			Stock:          pf.Stock,
			Rating:         pf.Rating,
		}
	}

	return req, nil
}

// ParseUpdateRequest reads a partial update. Only fields present in the body
// are set on the request.
func (rv *RequestValidator) ParseUpdateRequest(c *gin.Context, kind models.Kind) (services.UpdateRequest, error) {
	var req services.UpdateRequest

	nameKey := "name"
	if kind == models.KindProduct {
		nameKey = "title"
	}
	if v, ok := c.GetPostForm(nameKey); ok {
		req.Name = &v
	} else if v, ok := c.GetPostForm("name"); ok {
		req.Name = &v
	}

	files, err := rv.images(c)
	if err != nil {
		return req, err
	}
	if len(files) > 1 {
		return req, services.ErrTooManyAssets.Wrap("an update replaces one image at a time", nil)
	}
	if len(files) == 1 {
		req.File = files[0]
	}
	req.AssetID = strings.TrimSpace(c.PostForm("assetId"))

	if kind == models.KindProduct {
		patch, err := parseProductPatch(c)
		if err != nil {
			return req, err
		}
		req.Product = patch
	}

	return req, nil
}

// ParseListQuery reads find-many filters from the query string.
func (rv *RequestValidator) ParseListQuery(c *gin.Context, kind models.Kind) services.ListQuery {
	name := strings.TrimSpace(c.Query("name"))
	if kind == models.KindProduct && name == "" {
		name = strings.TrimSpace(c.Query("title"))
	}
	return services.ListQuery{
		ID:   strings.TrimSpace(c.Query("id")),
		Name: name,
		Slug: strings.TrimSpace(c.Query("slug")),
		Parents: services.ParentIDs{
			CategoryID:    strings.TrimSpace(c.Query("categoryId")),
			SubCategoryID: strings.TrimSpace(c.Query("subCategoryId")),
			BrandID:       strings.TrimSpace(c.Query("brandId")),
		},
	}
}

// IsValidImageType checks if the file is a valid image
func (rv *RequestValidator) IsValidImageType(file *multipart.FileHeader) bool {
	if allowedImageTypes[file.Header.Get("Content-Type")] {
		return true
	}

	// Fallback: check by extension
	switch strings.ToLower(filepath.Ext(file.Filename)) {
	case ".jpg", ".jpeg", ".png", ".webp", ".gif", ".avif":
		return true
	}
	return false
}

// ValidateFileSize checks if file size is within limits
func (rv *RequestValidator) ValidateFileSize(file *multipart.FileHeader) error {
	if file.Size > rv.maxUploadSize {
		return fmt.Errorf("file %s too large (max %dMB)", file.Filename, rv.maxUploadSize/(1024*1024))
	}
	return nil
}

// images collects the "image" and "images" parts. A body that is not
// multipart simply carries no files.
func (rv *RequestValidator) images(c *gin.Context) ([]services.FileSource, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, invalid("expected multipart form data", err)
	}

	headers := make([]*multipart.FileHeader, 0, len(form.File["image"])+len(form.File["images"]))
	headers = append(headers, form.File["image"]...)
	headers = append(headers, form.File["images"]...)
	files := make([]services.FileSource, 0, len(headers))
	for _, fh := range headers {
		if !rv.IsValidImageType(fh) {
			return nil, invalid(fmt.Sprintf("invalid image type for file %s. Allowed: jpeg, jpg, png, webp, gif, avif", fh.Filename), nil)
		}
		if err := rv.ValidateFileSize(fh); err != nil {
			return nil, invalid(err.Error(), nil)
		}
		files = append(files, fh)
	}
	return files, nil
}

func (rv *RequestValidator) mergeQueryParents(c *gin.Context, form *catalogForm) {
	if form.CategoryID == "" {
		form.CategoryID = c.Query("categoryId")
	}
	if form.SubCategoryID == "" {
		form.SubCategoryID = c.Query("subCategoryId")
	}
	if form.BrandID == "" {
		form.BrandID = c.Query("brandId")
	}
	form.CategoryID = strings.TrimSpace(form.CategoryID)
	form.SubCategoryID = strings.TrimSpace(form.SubCategoryID)
	form.BrandID = strings.TrimSpace(form.BrandID)
}

func parseProductPatch(c *gin.Context) (*services.ProductPatch, error) {
	patch := &services.ProductPatch{}

	if v, ok := c.GetPostForm("overview"); ok {
		patch.Overview = &v
	}
	if v, ok := c.GetPostForm("specifications"); ok {
		patch.Specifications = &v
	}
	if v, ok := c.GetPostForm("badge"); ok {
		patch.Badge = &v
	}
	if v, ok := c.GetPostForm("discountKind"); ok {
		patch.DiscountKind = &v
	}

	var err error
	if patch.Price, err = optionalFloat(c, "price"); err != nil {
		return nil, err
	}
	if patch.DiscountAmount, err = optionalFloat(c, "discountAmount"); err != nil {
		return nil, err
	}
	if patch.Rating, err = optionalFloat(c, "rating"); err != nil {
		return nil, err
	}
	if v, ok := c.GetPostForm("stock"); ok {
		stock, convErr := strconv.Atoi(strings.TrimSpace(v))
		if convErr != nil {
			return nil, invalid("stock must be an integer", convErr)
		}
		patch.Stock = &stock
	}

	return patch, nil
}

func optionalFloat(c *gin.Context, key string) (*float64, error) {
	v, ok := c.GetPostForm(key)
	if !ok {
		return nil, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return nil, invalid(key+" must be a number", err)
	}
	return &f, nil
}

func nameOf(form catalogForm, kind models.Kind) string {
	if kind == models.KindProduct && form.Title != "" {
		return form.Title
	}
	return form.Name
}

func invalid(message string, err error) error {
	return apperrors.ErrValidation.Wrap(message, err)
}
