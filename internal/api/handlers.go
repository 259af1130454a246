package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/knoweat/backend/internal/middleware"
	"github.com/pageza/knoweat/backend/internal/service"
	"github.com/pageza/knoweat/backend/internal/taxonomy"
)

// HealthCheck returns the health status of the API
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "knoweat API is running",
		"version": "v1.0.0",
	})
}

// Services are the dependencies of the HTTP routes. Limiter may be nil.
type Services struct {
	Devices  service.IDeviceService
	Profiles service.IProfileService
	Menus    service.IMenuService
	Taxonomy *taxonomy.Taxonomy
	Limiter  *middleware.RateLimiter
}

// RegisterRoutes registers all API routes
func RegisterRoutes(router *gin.Engine, svc Services) {
	// Health check endpoint (no auth required)
	router.GET("/health", HealthCheck)

	deviceHandler := NewDeviceHandler(svc.Devices)
	taxonomyHandler := NewTaxonomyHandler(svc.Taxonomy)
	profileHandler := NewProfileHandler(svc.Profiles)
	menuHandler := NewMenuHandler(svc.Menus)

	v1 := router.Group("/api/v1")
	v1.POST("/devices", deviceHandler.Register)
	v1.GET("/taxonomy", taxonomyHandler.Get)

	// Protected routes
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(svc.Devices), touchDevice(svc.Devices))

	// Model-backed routes share one per-device limit.
	limited := func(h gin.HandlerFunc) []gin.HandlerFunc {
		if svc.Limiter == nil {
			return []gin.HandlerFunc{h}
		}
		return []gin.HandlerFunc{svc.Limiter.RateLimitMiddleware(), h}
	}

	profile := protected.Group("/profile")
	{
		profile.GET("", profileHandler.GetProfile)
		profile.PUT("", profileHandler.UpdateProfile)
		profile.POST("/toggle", profileHandler.ToggleRestriction)
	}

	menus := protected.Group("/menus")
	{
		menus.POST("/analyze", limited(menuHandler.Analyze)...)
		menus.POST("", menuHandler.Save)
		menus.GET("", menuHandler.List)
		menus.DELETE("", menuHandler.DeleteAll)
		menus.GET("/:id", menuHandler.Get)
		menus.PATCH("/:id", menuHandler.Rename)
		menus.DELETE("/:id", menuHandler.Delete)
		menus.POST("/:id/retranslate", limited(menuHandler.Retranslate)...)
	}
}

// touchDevice records activity after the request is handled.
func touchDevice(devices service.IDeviceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if id, ok := middleware.DeviceID(c); ok {
			devices.Touch(c.Request.Context(), id)
		}
	}
}
