package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/knoweat/backend/internal/service"
	"github.com/pageza/knoweat/backend/internal/store"
	"github.com/pageza/knoweat/backend/internal/types"
)

// analysisStatus maps each analysis failure kind to the HTTP status returned to clients.
var analysisStatus = map[service.ErrorKind]int{
	service.KindEncodingFailed:  http.StatusBadRequest,
	service.KindUnreadableMenu:  http.StatusUnprocessableEntity,
	service.KindInvalidResponse: http.StatusBadGateway,
	service.KindTimeout:         http.StatusGatewayTimeout,
	service.KindServerError:     http.StatusBadGateway,
}

var analysisMessage = map[service.ErrorKind]string{
	service.KindEncodingFailed:  service.ErrEncodingFailed.Message,
	service.KindUnreadableMenu:  service.ErrUnreadableMenu.Message,
	service.KindInvalidResponse: service.ErrInvalidResponse.Message,
	service.KindTimeout:         service.ErrTimeout.Message,
	service.KindServerError:     service.ErrServerError.Message,
}

// respondError writes the JSON error body for err. Upstream detail is never echoed to clients.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	if kind := service.KindOf(err); kind != "" {
		c.JSON(analysisStatus[kind], types.ErrorResponse{
			Error:     analysisMessage[kind],
			Kind:      string(kind),
			Retryable: kind.Retryable(),
		})
		return
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, types.ErrorResponse{Error: "not found"})
	case errors.Is(err, service.ErrNoInput),
		errors.Is(err, service.ErrInvalidProfile),
		errors.Is(err, service.ErrUnknownCategory),
		errors.Is(err, service.ErrRestaurantNameRequired),
		errors.Is(err, service.ErrRestaurantNameTooLong):
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "internal server error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: msg})
}
