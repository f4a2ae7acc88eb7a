package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"schedly/handlers"
	"schedly/middleware"
	"schedly/utils"
)

// RegisterSpecialistRoutes registers specialist administration and
// slot read endpoints.
func RegisterSpecialistRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/specialists")
	{
		api.POST("", hb.Specialists.CreateSpecialist)
		api.GET("", hb.Specialists.ListSpecialists)
		api.GET("/:id", hb.Specialists.GetSpecialist)
		api.PUT("/:id", hb.Specialists.UpdateSpecialist)
		api.PUT("/:id/template", hb.Specialists.UpdateTemplate)
		api.DELETE("/:id", hb.Specialists.DeactivateSpecialist)

		api.GET("/:id/slots", hb.Slots.GenerateSlots)
		api.GET("/:id/availability", hb.Slots.FindAvailable)
		api.GET("/:id/bookings", hb.Bookings.ListForDay)
	}
}

// RegisterServiceRoutes registers service administration endpoints.
func RegisterServiceRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/services")
	{
		api.POST("", hb.Services.CreateService)
		api.GET("", hb.Services.ListServices)
		api.GET("/:id", hb.Services.GetService)
		api.PUT("/:id/specialists/:specialistId", hb.Services.LinkSpecialist)
		api.DELETE("/:id/specialists/:specialistId", hb.Services.UnlinkSpecialist)
	}
}

// RegisterBookingRoutes registers the booking lifecycle endpoints.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/bookings")
	{
		api.POST("", hb.Bookings.CreateBooking)
		api.POST("/confirm", hb.Bookings.ConfirmBooking)
		api.POST("/:id/cancel", hb.Bookings.CancelBooking)
		api.POST("/:id/complete", hb.Bookings.CompleteBooking)
		api.POST("/:id/no-show", hb.Bookings.MarkNoShow)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "dependencies": utils.GetHealthStatus()})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RateLimitMiddleware())

	RegisterHealthRoute(r)
	RegisterSpecialistRoutes(r, hb)
	RegisterServiceRoutes(r, hb)
	RegisterBookingRoutes(r, hb)
}
