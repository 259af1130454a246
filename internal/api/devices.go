package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pageza/knoweat/backend/internal/service"
	"github.com/pageza/knoweat/backend/internal/types"
)

// DeviceHandler handles anonymous device registration.
type DeviceHandler struct {
	devices service.IDeviceService
}

func NewDeviceHandler(devices service.IDeviceService) *DeviceHandler {
	return &DeviceHandler{devices: devices}
}

// Register creates a device and its onboarding profile and returns a bearer token.
func (h *DeviceHandler) Register(c *gin.Context) {
	var req types.RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	device, token, err := h.devices.Register(c.Request.Context(), strings.TrimSpace(req.Platform), &req.Profile)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, types.RegisterDeviceResponse{
		DeviceID: device.ID,
		Token:    token,
		Profile:  &req.Profile,
	})
}
