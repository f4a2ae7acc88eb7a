package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"schedly/services/booking"
)

// BookingHandler serves the booking lifecycle endpoints.
type BookingHandler struct {
	Engine booking.Engine
	Logger *zap.Logger
}

func NewBookingHandler(engine booking.Engine, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{Engine: engine, Logger: logger}
}

// CreateBooking handles POST /api/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req booking.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	b, err := h.Engine.CreateBooking(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"booking": b})
}

// ConfirmBooking handles POST /api/bookings/confirm.
func (h *BookingHandler) ConfirmBooking(c *gin.Context) {
	var body struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	b, err := h.Engine.ConfirmBooking(c.Request.Context(), body.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

// CancelBooking handles POST /api/bookings/:id/cancel. The actor defaults
// to client; provider cancellations bypass the cutoff guard.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	bookingID := c.Param("id")
	var body struct {
		Reason string `json:"reason"`
		Actor  string `json:"actor"`
	}
	// The body is optional; an absent body means a client cancel without reason.
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	actor := booking.ActorClient
	if body.Actor == string(booking.ActorProvider) {
		actor = booking.ActorProvider
	}

	b, err := h.Engine.CancelBooking(c.Request.Context(), bookingID, body.Reason, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

// CompleteBooking handles POST /api/bookings/:id/complete.
func (h *BookingHandler) CompleteBooking(c *gin.Context) {
	b, err := h.Engine.CompleteBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

// MarkNoShow handles POST /api/bookings/:id/no-show.
func (h *BookingHandler) MarkNoShow(c *gin.Context) {
	b, err := h.Engine.MarkNoShow(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

// ListForDay handles GET /api/specialists/:id/bookings?date=YYYY-MM-DD.
func (h *BookingHandler) ListForDay(c *gin.Context) {
	specialistID := c.Param("id")
	date, ok := parseDate(c)
	if !ok {
		return
	}

	bookings, err := h.Engine.ListForDay(c.Request.Context(), specialistID, date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}
