package handler

import (
	"net/http"
	"strconv"
	"time"

	"stagepass/internal/models"
	"stagepass/internal/repository"

	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	events *repository.EventRepository
}

func NewEventHandler(events *repository.EventRepository) *EventHandler {
	return &EventHandler{events: events}
}

func (h *EventHandler) List(c *gin.Context) {
	events, err := h.events.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "listing events failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (h *EventHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}
	event, err := h.events.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"event": event})
}

type CreateEventRequest struct {
	Title       string    `json:"title" binding:"required"`
	Venue       string    `json:"venue" binding:"required"`
	StartsAt    time.Time `json:"starts_at" binding:"required"`
	PriceKobo   int64     `json:"price_kobo" binding:"required,min=1"`
	MaxCapacity int       `json:"max_capacity" binding:"required,min=0"`
}

func (h *EventHandler) Create(c *gin.Context) {
	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	event := &models.Event{
		Title:       req.Title,
		Venue:       req.Venue,
		StartsAt:    req.StartsAt,
		PriceKobo:   req.PriceKobo,
		MaxCapacity: req.MaxCapacity,
	}
	if err := h.events.Create(event); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "creating event failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"event": event})
}

type UpdateCapacityRequest struct {
	MaxCapacity int `json:"max_capacity" binding:"required,min=0"`
}

// UpdateCapacity raises (or lowers) max_capacity; the issuance-time
// conditional increment keeps tickets_sold within whatever the new limit is.
func (h *EventHandler) UpdateCapacity(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}
	var req UpdateCapacityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	event, err := h.events.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}
	event.MaxCapacity = req.MaxCapacity
	if err := h.events.Update(event); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "updating event failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"event": event})
}
