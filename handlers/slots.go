package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"schedly/services/scheduling"
)

// SlotHandler serves the read-side slot computations.
type SlotHandler struct {
	Slots  scheduling.SlotService
	Logger *zap.Logger
}

func NewSlotHandler(slots scheduling.SlotService, logger *zap.Logger) *SlotHandler {
	return &SlotHandler{Slots: slots, Logger: logger}
}

// GenerateSlots handles GET /api/specialists/:id/slots?date=YYYY-MM-DD.
// It returns the full ordered slot sequence for the day, persisted and
// virtual combined.
func (h *SlotHandler) GenerateSlots(c *gin.Context) {
	specialistID := c.Param("id")
	date, ok := parseDate(c)
	if !ok {
		return
	}

	slots, err := h.Slots.GenerateSlots(c.Request.Context(), specialistID, date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots})
}

// FindAvailable handles GET /api/specialists/:id/availability?date=...&serviceId=...
// With a serviceId, adjacent free slots are merged into windows long enough
// for the service duration.
func (h *SlotHandler) FindAvailable(c *gin.Context) {
	specialistID := c.Param("id")
	serviceID := c.Query("serviceId")
	date, ok := parseDate(c)
	if !ok {
		return
	}

	slots, err := h.Slots.FindAvailable(c.Request.Context(), specialistID, serviceID, date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots})
}
