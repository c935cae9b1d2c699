package handler

import (
	"net/http"

	"github.com/addy2510/policymanager/pkg/httperr"
	"github.com/addy2510/policymanager/pkg/logger"
	"github.com/addy2510/policymanager/service"
	"github.com/gin-gonic/gin"
)

// statusFor maps a domain error kind onto its HTTP status
func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindAlreadyExists:
		return http.StatusConflict
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindValidationFailed:
		return http.StatusBadRequest
	case service.KindUnsupportedMediaType:
		return http.StatusUnsupportedMediaType
	case service.KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as the structured error body. Errors that are not
// domain errors become 500 and keep their message.
func respondError(c *gin.Context, err error) {
	kind := service.KindOf(err)
	status := statusFor(kind)
	ctx := c.Request.Context()
	if status >= http.StatusInternalServerError {
		logger.Error(ctx, "request failed", "error", err)
	} else {
		logger.Debug(ctx, "request rejected", "kind", kind.String(), "error", err)
	}
	_ = c.Error(err)
	httperr.Abort(c, status, err.Error())
}
