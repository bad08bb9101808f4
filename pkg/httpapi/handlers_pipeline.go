package httpapi

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/muness/unified-hifi-control/pkg/bridge"
	"github.com/muness/unified-hifi-control/pkg/control"
)

type pipelineHandler struct {
	br        *bridge.Bridge
	validator *control.Validator
}

// getPipeline handles GET /hqp/pipeline.
func (h *pipelineHandler) getPipeline(c *gin.Context) {
	view, err := h.br.Pipeline(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ToPipelineResponse(view))
}

// setPipeline handles POST /hqp/pipeline.
func (h *pipelineHandler) setPipeline(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: "could not read request body"})
		return
	}

	req, err := control.ParseSetPipelineRequest(h.validator, body)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	if err := h.br.SetPipeline(c.Request.Context(), req.Setting, req.Value); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
