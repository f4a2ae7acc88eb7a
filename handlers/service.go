package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	serviceRepo "schedly/database/repository/service"
	"schedly/models"
	"schedly/utils"
)

// ServiceHandler serves service administration endpoints.
type ServiceHandler struct {
	Repo   serviceRepo.ServiceRepository
	Clock  utils.Clock
	Logger *zap.Logger
}

func NewServiceHandler(repo serviceRepo.ServiceRepository, clock utils.Clock, logger *zap.Logger) *ServiceHandler {
	return &ServiceHandler{Repo: repo, Clock: clock, Logger: logger}
}

// CreateService handles POST /api/services.
func (h *ServiceHandler) CreateService(c *gin.Context) {
	var body struct {
		TenantID        string   `json:"tenantId" binding:"required"`
		Name            string   `json:"name" binding:"required"`
		DurationMinutes int      `json:"durationMinutes" binding:"required"`
		SpecialistIDs   []string `json:"specialistIds"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	if body.DurationMinutes <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "durationMinutes must be positive"})
		return
	}

	now := h.Clock.Now()
	svc := &models.Service{
		ID:              uuid.New().String(),
		TenantID:        body.TenantID,
		Name:            body.Name,
		DurationMinutes: body.DurationMinutes,
		SpecialistIDs:   body.SpecialistIDs,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := h.Repo.Insert(c.Request.Context(), svc); err != nil {
		h.Logger.Error("failed to create service", zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"service": svc})
}

// GetService handles GET /api/services/:id.
func (h *ServiceHandler) GetService(c *gin.Context) {
	svc, err := h.Repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, serviceRepo.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "service not found"})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"service": svc})
}

// LinkSpecialist handles PUT /api/services/:id/specialists/:specialistId.
func (h *ServiceHandler) LinkSpecialist(c *gin.Context) {
	serviceID := c.Param("id")
	specialistID := c.Param("specialistId")
	if err := h.Repo.LinkSpecialist(c.Request.Context(), serviceID, specialistID); err != nil {
		if errors.Is(err, serviceRepo.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "service not found"})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"service": serviceID, "linked": specialistID})
}

// UnlinkSpecialist handles DELETE /api/services/:id/specialists/:specialistId.
func (h *ServiceHandler) UnlinkSpecialist(c *gin.Context) {
	serviceID := c.Param("id")
	specialistID := c.Param("specialistId")
	if err := h.Repo.UnlinkSpecialist(c.Request.Context(), serviceID, specialistID); err != nil {
		if errors.Is(err, serviceRepo.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "service not found"})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"service": serviceID, "unlinked": specialistID})
}

// ListServices handles GET /api/services?tenantId=...
func (h *ServiceHandler) ListServices(c *gin.Context) {
	tenantID := c.Query("tenantId")
	if tenantID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing tenantId query parameter"})
		return
	}

	services, err := h.Repo.ListByTenant(c.Request.Context(), tenantID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": services})
}
