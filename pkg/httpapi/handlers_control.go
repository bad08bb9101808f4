package httpapi

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/muness/unified-hifi-control/pkg/bridge"
	"github.com/muness/unified-hifi-control/pkg/control"
)

type controlHandler struct {
	br        *bridge.Bridge
	validator *control.Validator
}

// setState handles POST /control.
func (h *controlHandler) setState(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: "could not read request body"})
		return
	}

	req, err := control.ParseControlRequest(h.validator, body)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	if err := h.br.Control(c.Request.Context(), req.ZoneID, req.Action, req.Value, req.HasValue); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
