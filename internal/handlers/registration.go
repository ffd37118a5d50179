package handlers

import (
	"net/http"

	"kerala-sedp/internal/models"
	"kerala-sedp/internal/store"
	"kerala-sedp/pkg/validator"

	"github.com/gin-gonic/gin"
)

type RegistrationHandler struct {
	store *store.Store
}

type UpdateStatusRequest struct {
	Status   models.RegistrationStatus `json:"status" validate:"required,oneof=approved rejected"`
	UniqueID string                    `json:"unique_id" validate:"omitempty,min=2,max=32"`
}

func NewRegistrationHandler(s *store.Store) *RegistrationHandler {
	return &RegistrationHandler{store: s}
}

func (h *RegistrationHandler) CreateRegistration(c *gin.Context) {
	var req models.NewRegistration
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

	registration := h.store.CreateRegistration(c.Request.Context(), req)
	if registration == nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Error creating registration",
		})
		return
	}

	c.JSON(http.StatusCreated, registration)
}

func (h *RegistrationHandler) GetRegistrations(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"registrations": h.store.Registrations(),
		"loading":       h.store.Loading(),
	})
}

func (h *RegistrationHandler) UpdateStatus(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid registration ID",
		})
		return
	}

	var req UpdateStatusRequest
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

	if !h.store.UpdateRegistrationStatus(c.Request.Context(), id, req.Status, req.UniqueID) {
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Error updating registration status",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Registration status updated successfully",
	})
}

func (h *RegistrationHandler) DeleteRegistration(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid registration ID",
		})
		return
	}

	if !h.store.DeleteRegistration(c.Request.Context(), id) {
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Error deleting registration",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Registration deleted successfully",
	})
}
