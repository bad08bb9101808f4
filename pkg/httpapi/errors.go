package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/muness/unified-hifi-control/pkg/adapter"
)

// writeError maps the core's error taxonomy (spec.md §7) onto HTTP
// status codes and writes a JSON ErrorResponse.
func writeError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "internal_error"

	switch {
	case errors.Is(err, adapter.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, adapter.ErrNotConfigured):
		status, code = http.StatusServiceUnavailable, "not_configured"
	case errors.Is(err, adapter.ErrNotConnected):
		status, code = http.StatusServiceUnavailable, "not_connected"
	case errors.Is(err, adapter.ErrTimeout):
		status, code = http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, adapter.ErrUnsupported):
		status, code = http.StatusBadRequest, "unsupported"
	}

	c.JSON(status, ErrorResponse{Error: code, Message: err.Error()})
}
