package handlers

import (
	"net/http"
	"time"

	"example.com/govevents/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// EventHandler handles event-related HTTP requests
type EventHandler struct {
	events *services.EventService
}

// NewEventHandler creates a new event handler
func NewEventHandler(events *services.EventService) *EventHandler {
	return &EventHandler{events: events}
}

// RegisterRoutes registers the event routes
func (h *EventHandler) RegisterRoutes(router *gin.Engine) {
	group := router.Group("/events")
	group.POST("", h.CreateEvent)
	group.GET("", h.ListEvents)
	group.GET("/search", h.SearchEvents)
	group.GET("/:id", h.GetEvent)
	group.PATCH("/:id", h.UpdateEvent)
	group.PUT("/:id/activity", h.ChangeActivity)
	group.DELETE("/:id", h.DeleteEvent)
	group.POST("/:id/subscription", h.Subscribe)
	group.DELETE("/:id/subscription", h.Unsubscribe)
	group.GET("/:id/subscribers", h.ListSubscribers)
}

// EventCreateRequest represents an event creation payload
type EventCreateRequest struct {
	Name           string    `json:"name" binding:"required"`
	Description    *string   `json:"description"`
	Address        *string   `json:"address"`
	Datetime       time.Time `json:"datetime" binding:"required,future"`
	GovStructureID uuid.UUID `json:"gov_structure_id" binding:"required"`
}

// EventUpdateRequest represents a partial event edit
type EventUpdateRequest struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	Address     *string    `json:"address"`
	Datetime    *time.Time `json:"datetime"`
}

// ActivityChangeRequest represents an activity flag change
type ActivityChangeRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// SubscriptionRequest identifies the subscribing user
type SubscriptionRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

// CreateEvent handles POST /events
func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req EventCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.events.CreateEvent(c.Request.Context(), services.EventCreate{
		Name:           req.Name,
		Description:    req.Description,
		Address:        req.Address,
		Datetime:       req.Datetime,
		GovStructureID: req.GovStructureID,
	})
	if err != nil {
		if errors.Is(err, services.ErrGovStructureNotFound) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "there is no government structure with such an id"})
			return
		}
		log.Error().Err(err).Msg("Failed to create event")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create event"})
		return
	}

	c.JSON(http.StatusCreated, event)
}

// ListEvents handles GET /events
func (h *EventHandler) ListEvents(c *gin.Context) {
	events, err := h.events.ListEvents(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list events")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list events"})
		return
	}

	c.JSON(http.StatusOK, events)
}

// GetEvent handles GET /events/:id
func (h *EventHandler) GetEvent(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	event, err := h.events.GetEvent(c.Request.Context(), id)
	if err != nil {
		respondEventError(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

// UpdateEvent handles PATCH /events/:id
func (h *EventHandler) UpdateEvent(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req EventUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Name == nil && req.Description == nil && req.Address == nil && req.Datetime == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "you must specify at least one field"})
		return
	}

	event, err := h.events.UpdateEvent(c.Request.Context(), id, services.EventUpdate{
		Name:        req.Name,
		Description: req.Description,
		Address:     req.Address,
		Datetime:    req.Datetime,
	})
	if err != nil {
		respondEventError(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

// ChangeActivity handles PUT /events/:id/activity
func (h *EventHandler) ChangeActivity(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req ActivityChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.events.ChangeEventActivity(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		respondEventError(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

// DeleteEvent handles DELETE /events/:id
func (h *EventHandler) DeleteEvent(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.events.DeleteEvent(c.Request.Context(), id); err != nil {
		respondEventError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Subscribe handles POST /events/:id/subscription
func (h *EventHandler) Subscribe(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req SubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.events.Subscribe(c.Request.Context(), id, req.UserID); err != nil {
		respondEventError(c, err)
		return
	}

	c.Status(http.StatusCreated)
}

// Unsubscribe handles DELETE /events/:id/subscription
func (h *EventHandler) Unsubscribe(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req SubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.events.Unsubscribe(c.Request.Context(), id, req.UserID); err != nil {
		respondEventError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListSubscribers handles GET /events/:id/subscribers
func (h *EventHandler) ListSubscribers(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	users, err := h.events.ListSubscribers(c.Request.Context(), id)
	if err != nil {
		respondEventError(c, err)
		return
	}

	c.JSON(http.StatusOK, users)
}

// SearchEvents handles GET /events/search
func (h *EventHandler) SearchEvents(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}

	results, err := h.events.SearchEvents(c.Request.Context(), query)
	if err != nil {
		log.Error().Err(err).Msg("Failed to search events")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}

	c.JSON(http.StatusOK, results)
}

// parseID extracts the uuid path parameter, responding with 400 on failure.
func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

// respondEventError maps service errors to HTTP responses.
func respondEventError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEventNotFound),
		errors.Is(err, services.ErrGovStructureNotFound),
		errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Msg("Event request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
