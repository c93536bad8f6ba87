package handlers

import (
	"net/http"

	"example.com/govevents/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// GovStructureHandler handles government structure HTTP requests
type GovStructureHandler struct {
	structures *services.GovStructureService
}

// NewGovStructureHandler creates a new government structure handler
func NewGovStructureHandler(structures *services.GovStructureService) *GovStructureHandler {
	return &GovStructureHandler{structures: structures}
}

// RegisterRoutes registers the government structure routes
func (h *GovStructureHandler) RegisterRoutes(router *gin.Engine) {
	group := router.Group("/gov-structures")
	group.POST("", h.CreateStructure)
	group.GET("", h.ListStructures)
	group.GET("/:id", h.GetStructure)
	group.DELETE("/:id", h.DeleteStructure)
	group.POST("/:id/subscription", h.Subscribe)
	group.DELETE("/:id/subscription", h.Unsubscribe)
}

// GovStructureCreateRequest represents a structure creation payload
type GovStructureCreateRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
	Email       string  `json:"email" binding:"required,email"`
	Address     *string `json:"address"`
}

// GetStructure handles GET /gov-structures/:id
func (h *GovStructureHandler) GetStructure(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	structure, err := h.structures.GetStructure(c.Request.Context(), id)
	if err != nil {
		respondStructureError(c, err)
		return
	}

	c.JSON(http.StatusOK, structure)
}

// CreateStructure handles POST /gov-structures
func (h *GovStructureHandler) CreateStructure(c *gin.Context) {
	var req GovStructureCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	structure, err := h.structures.CreateStructure(c.Request.Context(), services.GovStructureCreate{
		Name:        req.Name,
		Description: req.Description,
		Email:       req.Email,
		Address:     req.Address,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to create government structure")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create government structure"})
		return
	}

	c.JSON(http.StatusCreated, structure)
}

// ListStructures handles GET /gov-structures
func (h *GovStructureHandler) ListStructures(c *gin.Context) {
	structures, err := h.structures.ListStructures(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list government structures")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list government structures"})
		return
	}

	c.JSON(http.StatusOK, structures)
}

// DeleteStructure handles DELETE /gov-structures/:id
func (h *GovStructureHandler) DeleteStructure(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.structures.DeleteStructure(c.Request.Context(), id); err != nil {
		respondStructureError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Subscribe handles POST /gov-structures/:id/subscription
func (h *GovStructureHandler) Subscribe(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req SubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.structures.Subscribe(c.Request.Context(), id, req.UserID); err != nil {
		respondStructureError(c, err)
		return
	}

	c.Status(http.StatusCreated)
}

// Unsubscribe handles DELETE /gov-structures/:id/subscription
func (h *GovStructureHandler) Unsubscribe(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req SubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.structures.Unsubscribe(c.Request.Context(), id, req.UserID); err != nil {
		respondStructureError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func respondStructureError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrGovStructureNotFound),
		errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Msg("Government structure request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
