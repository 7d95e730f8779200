package handlers

import (
	"net/http"

	"car-market-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// CatalogHandler ブランド・車種の参照API
type CatalogHandler struct {
	catalog *services.CatalogService
}

// NewCatalogHandler 新しいカタログハンドラーを作成
func NewCatalogHandler(catalog *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// GetBrands ブランド一覧
func (h *CatalogHandler) GetBrands(c *gin.Context) {
	brands := h.catalog.Brands()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    brands,
		"count":   len(brands),
	})
}

// GetModels returns the sorted models of the brand in the path. Unknown brands
// yield an empty list, as the dropdown expects.
func (h *CatalogHandler) GetModels(c *gin.Context) {
	brand := c.Param("brand")
	list := h.catalog.ModelsForBrand(brand)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"brand":   brand,
		"data":    list,
		"count":   len(list),
	})
}
