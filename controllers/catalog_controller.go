package controllers

import (
	"context"
	"fmt"
	"net/http"

	"catalog-service/common/logger"
	"catalog-service/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CatalogController serves the four catalog resources. Each handler factory
// binds one kind, so a single controller backs every route group.
type CatalogController struct {
	service   CatalogServiceAPI
	cache     *CacheManager
	validator *RequestValidator
}

func NewCatalogController(service CatalogServiceAPI, cache *CacheManager, validator *RequestValidator) *CatalogController {
	return &CatalogController{
		service:   service,
		cache:     cache,
		validator: validator,
	}
}

// List handles GET /api/<kind>
func (ctrl *CatalogController) List(kind models.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := ctrl.validator.ParseListQuery(c, kind)
		key := listKey(q)

		cached, version, hit := ctrl.cache.Lookup(c.Request.Context(), kind, key)
		if hit {
			c.Header("X-Cache", "HIT")
			c.JSON(http.StatusOK, cached)
			return
		}

		items, err := ctrl.service.List(c.Request.Context(), kind, q)
		if err != nil {
			respondError(c, err)
			return
		}

		resp := listResponse(fmt.Sprintf("%s fetched successfully", kind.Plural()), items, len(items))
		ctrl.cache.SetAsync(version, kind, key, resp)
		c.JSON(http.StatusOK, resp)
	}
}

// Get handles GET /api/<kind>/:id
func (ctrl *CatalogController) Get(kind models.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		key := detailKey(id)

		cached, version, hit := ctrl.cache.Lookup(c.Request.Context(), kind, key)
		if hit {
			c.Header("X-Cache", "HIT")
			c.JSON(http.StatusOK, cached)
			return
		}

		entity, err := ctrl.service.Get(c.Request.Context(), kind, id)
		if err != nil {
			respondError(c, err)
			return
		}

		resp := dataResponse(http.StatusOK, fmt.Sprintf("%s fetched successfully", kind.Label()), entity)
		ctrl.cache.SetAsync(version, kind, key, resp)
		c.JSON(http.StatusOK, resp)
	}
}

// Create handles POST /api/<kind>
func (ctrl *CatalogController) Create(kind models.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, err := ctrl.validator.ParseCreateRequest(c, kind)
		if err != nil {
			respondError(c, err)
			return
		}

		entity, err := ctrl.service.Create(c.Request.Context(), kind, req)
		if err != nil {
			respondError(c, err)
			return
		}

		ctrl.invalidate(c, kind, entity)
		c.JSON(http.StatusCreated, dataResponse(http.StatusCreated, fmt.Sprintf("%s created successfully", kind.Label()), entity))
	}
}

// Update handles PUT /api/<kind>/:id
func (ctrl *CatalogController) Update(kind models.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, err := ctrl.validator.ParseUpdateRequest(c, kind)
		if err != nil {
			respondError(c, err)
			return
		}

		entity, err := ctrl.service.Update(c.Request.Context(), kind, c.Param("id"), req)
		if err != nil {
			respondError(c, err)
			return
		}

		ctrl.invalidate(c, kind, entity)
		c.JSON(http.StatusOK, dataResponse(http.StatusOK, fmt.Sprintf("%s updated successfully", kind.Label()), entity))
	}
}

// Delete handles DELETE /api/<kind>/:id
func (ctrl *CatalogController) Delete(kind models.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		entity, err := ctrl.service.Delete(c.Request.Context(), kind, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		ctrl.invalidate(c, kind, entity)
		c.Status(http.StatusNoContent)
	}
}

// invalidate drops cached reads after a write. The write has already
// succeeded, so a cache failure is logged rather than returned.
func (ctrl *CatalogController) invalidate(c *gin.Context, kind models.Kind, entity models.Entity) {
	ctx := context.WithoutCancel(c.Request.Context())
	if err := ctrl.cache.Invalidate(ctx); err != nil {
		logger.Error(c, "CRITICAL: Failed to invalidate cache", err,
			zap.String("kind", string(kind)),
			zap.String("id", entity.GetID().Hex()),
		)
	}
}
