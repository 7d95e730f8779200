package handlers

import (
	"net/http"
	"strconv"

	"car-market-api/pkg/models"
	"car-market-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// ListingHandler 出品ハンドラー
type ListingHandler struct {
	listings *services.ListingService
}

// NewListingHandler 新しい出品ハンドラーを作成
func NewListingHandler(listings *services.ListingService) *ListingHandler {
	return &ListingHandler{listings: listings}
}

// CreateListing 出品を登録
func (h *ListingHandler) CreateListing(c *gin.Context) {
	var req models.CarListing
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "リクエストの解析に失敗しました: " + err.Error(),
		})
		return
	}

	listing, err := h.listings.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    listing,
	})
}

// ListAvailable 販売中の出品一覧
func (h *ListingHandler) ListAvailable(c *gin.Context) {
	listings, err := h.listings.ListAvailable(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": listings, "count": len(listings)})
}

// ListBySeller 出品者ダッシュボード用の一覧
func (h *ListingHandler) ListBySeller(c *gin.Context) {
	listings, err := h.listings.ListBySeller(c.Request.Context(), c.Param("sellerId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": listings, "count": len(listings)})
}

// GetListing 出品詳細
func (h *ListingHandler) GetListing(c *gin.Context) {
	id, ok := listingID(c)
	if !ok {
		return
	}
	listing, err := h.listings.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": listing})
}

// MarkSold 売却済みにする
func (h *ListingHandler) MarkSold(c *gin.Context) {
	id, ok := listingID(c)
	if !ok {
		return
	}
	var req models.MarkSoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "seller_id は必須です"})
		return
	}

	listing, err := h.listings.MarkSold(c.Request.Context(), id, req.SellerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": listing})
}

func listingID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "不正な出品IDです"})
		return 0, false
	}
	return id, true
}
