package routes

import (
	"net/http"

	"catalog-service/common/middleware"
	"catalog-service/controllers"
	"catalog-service/models"

	"github.com/gin-gonic/gin"
)

var resources = []struct {
	path string
	kind models.Kind
}{
	{"/categories", models.KindCategory},
	{"/subcategories", models.KindSubCategory},
	{"/brands", models.KindBrand},
	{"/products", models.KindProduct},
}

// RegisterRoutes mounts the catalog resources under /api. Writes require an
// admin identity when requireAdmin is set.
func RegisterRoutes(r *gin.Engine, catalogController *controllers.CatalogController, requireAdmin bool) {
	api := r.Group("/api")
	for _, res := range resources {
		group := api.Group(res.path)
		{
			group.GET("", catalogController.List(res.kind))
			group.GET("/:id", catalogController.Get(res.kind))
		}

		writes := group.Group("")
		if requireAdmin {
			writes.Use(middleware.AdminOnly())
		}
		{
			writes.POST("", catalogController.Create(res.kind))
			writes.PUT("/:id", catalogController.Update(res.kind))
			writes.DELETE("/:id", catalogController.Delete(res.kind))
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	r.NoRoute(middleware.NotFound())
}
