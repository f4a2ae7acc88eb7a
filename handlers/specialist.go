package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	specialistRepo "schedly/database/repository/specialist"
	"schedly/models"
	"schedly/services/scheduling"
	"schedly/utils"
)

// SpecialistHandler serves specialist administration endpoints.
type SpecialistHandler struct {
	Repo   specialistRepo.SpecialistRepository
	Cache  scheduling.SlotCache
	Clock  utils.Clock
	Logger *zap.Logger
}

func NewSpecialistHandler(repo specialistRepo.SpecialistRepository, cache scheduling.SlotCache, clock utils.Clock, logger *zap.Logger) *SpecialistHandler {
	return &SpecialistHandler{Repo: repo, Cache: cache, Clock: clock, Logger: logger}
}

// invalidateCache drops every cached day for the specialist after a change
// that alters slot generation.
func (h *SpecialistHandler) invalidateCache(c *gin.Context, id string) {
	if h.Cache != nil {
		h.Cache.InvalidateSpecialist(c.Request.Context(), id)
	}
}

// CreateSpecialist handles POST /api/specialists.
func (h *SpecialistHandler) CreateSpecialist(c *gin.Context) {
	var body struct {
		TenantID                   string                      `json:"tenantId" binding:"required"`
		Name                       string                      `json:"name" binding:"required"`
		Template                   models.WorkingHoursTemplate `json:"template"`
		DefaultSlotDurationMinutes int                         `json:"defaultSlotDurationMinutes" binding:"required"`
		BufferMinutes              int                         `json:"bufferMinutes"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	if body.DefaultSlotDurationMinutes <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "defaultSlotDurationMinutes must be positive"})
		return
	}
	if body.BufferMinutes < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bufferMinutes must not be negative"})
		return
	}

	now := h.Clock.Now()
	sp := &models.Specialist{
		ID:                         uuid.New().String(),
		TenantID:                   body.TenantID,
		Name:                       body.Name,
		Template:                   body.Template,
		DefaultSlotDurationMinutes: body.DefaultSlotDurationMinutes,
		BufferMinutes:              body.BufferMinutes,
		IsActive:                   true,
		CreatedAt:                  now,
		UpdatedAt:                  now,
	}
	if err := h.Repo.Insert(c.Request.Context(), sp); err != nil {
		h.Logger.Error("failed to create specialist", zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"specialist": sp})
}

// GetSpecialist handles GET /api/specialists/:id.
func (h *SpecialistHandler) GetSpecialist(c *gin.Context) {
	sp, err := h.Repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, specialistRepo.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "specialist not found"})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"specialist": sp})
}

// UpdateSpecialist handles PUT /api/specialists/:id. Only the mutable
// profile fields change here; the template has its own endpoint.
func (h *SpecialistHandler) UpdateSpecialist(c *gin.Context) {
	var body struct {
		Name                       *string `json:"name"`
		DefaultSlotDurationMinutes *int    `json:"defaultSlotDurationMinutes"`
		BufferMinutes              *int    `json:"bufferMinutes"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	sp, err := h.Repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, specialistRepo.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "specialist not found"})
			return
		}
		respondError(c, err)
		return
	}

	if body.Name != nil && *body.Name != "" {
		sp.Name = *body.Name
	}
	if body.DefaultSlotDurationMinutes != nil {
		if *body.DefaultSlotDurationMinutes <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "defaultSlotDurationMinutes must be positive"})
			return
		}
		sp.DefaultSlotDurationMinutes = *body.DefaultSlotDurationMinutes
	}
	if body.BufferMinutes != nil {
		if *body.BufferMinutes < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bufferMinutes must not be negative"})
			return
		}
		sp.BufferMinutes = *body.BufferMinutes
	}
	sp.UpdatedAt = h.Clock.Now()

	if err := h.Repo.Update(c.Request.Context(), sp); err != nil {
		respondError(c, err)
		return
	}
	h.invalidateCache(c, sp.ID)
	c.JSON(http.StatusOK, gin.H{"specialist": sp})
}

// UpdateTemplate handles PUT /api/specialists/:id/template. Template changes
// affect future slot generation only; slots already materialized keep their
// stored bounds.
func (h *SpecialistHandler) UpdateTemplate(c *gin.Context) {
	var body struct {
		Template models.WorkingHoursTemplate `json:"template" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	id := c.Param("id")
	if err := h.Repo.UpdateTemplate(c.Request.Context(), id, body.Template); err != nil {
		if errors.Is(err, specialistRepo.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "specialist not found"})
			return
		}
		respondError(c, err)
		return
	}
	h.invalidateCache(c, id)
	c.JSON(http.StatusOK, gin.H{"updated": id})
}

// DeactivateSpecialist handles DELETE /api/specialists/:id. Deactivation
// hides the specialist from slot generation without touching history.
func (h *SpecialistHandler) DeactivateSpecialist(c *gin.Context) {
	id := c.Param("id")
	if err := h.Repo.SetActive(c.Request.Context(), id, false); err != nil {
		if errors.Is(err, specialistRepo.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "specialist not found"})
			return
		}
		respondError(c, err)
		return
	}
	h.invalidateCache(c, id)
	c.JSON(http.StatusOK, gin.H{"deactivated": id})
}

// ListSpecialists handles GET /api/specialists?tenantId=...
func (h *SpecialistHandler) ListSpecialists(c *gin.Context) {
	tenantID := c.Query("tenantId")
	if tenantID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing tenantId query parameter"})
		return
	}

	specialists, err := h.Repo.ListByTenant(c.Request.Context(), tenantID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"specialists": specialists})
}
