package handlers

import (
	"net/http"

	"kerala-sedp/internal/store"
	"kerala-sedp/pkg/validator"

	"github.com/gin-gonic/gin"
)

type CategoryHandler struct {
	store *store.Store
}

type UpdateCategoryImageRequest struct {
	ImageURL string `json:"image_url" validate:"required,url"`
}

type UpdateCategoryFeesRequest struct {
	ActualFee float64 `json:"actual_fee" validate:"gte=0"`
	OfferFee  float64 `json:"offer_fee" validate:"gte=0"`
	HasOffer  bool    `json:"has_offer"`
}

func NewCategoryHandler(s *store.Store) *CategoryHandler {
	return &CategoryHandler{store: s}
}

func (h *CategoryHandler) GetCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"categories": h.store.Categories(),
	})
}

// UpdateImage is keyed by category name, which is the stable identifier the
// front-end works with.
func (h *CategoryHandler) UpdateImage(c *gin.Context) {
	name := c.Param("name")

	var req UpdateCategoryImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	if err := validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Validation failed",
			"details": err.Error(),
		})
		return
	}

	if !h.store.UpdateCategoryImage(c.Request.Context(), name, req.ImageURL) {
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Error updating category image",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Category image updated successfully",
	})
}

func (h *CategoryHandler) UpdateFees(c *gin.Context) {
	name := c.Param("name")

	var req UpdateCategoryFeesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	if err := validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Validation failed",
			"details": err.Error(),
		})
		return
	}

	if !h.store.UpdateCategoryFees(c.Request.Context(), name, req.ActualFee, req.OfferFee, req.HasOffer) {
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Error updating category fees",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Category fees updated successfully",
	})
}
