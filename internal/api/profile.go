package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pageza/knoweat/backend/internal/middleware"
	"github.com/pageza/knoweat/backend/internal/models"
	"github.com/pageza/knoweat/backend/internal/service"
	"github.com/pageza/knoweat/backend/internal/types"
)

type ProfileHandler struct {
	profiles service.IProfileService
}

func NewProfileHandler(profiles service.IProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// deviceID reads the authenticated device, answering 401 when it is missing.
func deviceID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.DeviceID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, types.ErrorResponse{Error: "unauthorized"})
	}
	return id, ok
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	id, ok := deviceID(c)
	if !ok {
		return
	}

	profile, err := h.profiles.GetProfile(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateProfile replaces the whole profile with the request body.
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	id, ok := deviceID(c)
	if !ok {
		return
	}

	var profile models.UserProfile
	if err := c.ShouldBindJSON(&profile); err != nil {
		badRequest(c, "invalid profile: "+err.Error())
		return
	}

	saved, err := h.profiles.UpdateProfile(c.Request.Context(), id, &profile)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *ProfileHandler) ToggleRestriction(c *gin.Context) {
	id, ok := deviceID(c)
	if !ok {
		return
	}

	var req types.ToggleRestrictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "category and id are required")
		return
	}

	selected, profile, err := h.profiles.ToggleRestriction(c.Request.Context(), id, req.Category, req.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.ToggleRestrictionResponse{Selected: selected, Profile: profile})
}
