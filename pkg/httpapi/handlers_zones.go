package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/muness/unified-hifi-control/pkg/bridge"
)

type zonesHandler struct {
	br *bridge.Bridge
}

// listZones handles GET /zones.
func (h *zonesHandler) listZones(c *gin.Context) {
	zones := h.br.Zones()
	out := make([]ZoneResponse, 0, len(zones))
	for _, z := range zones {
		out = append(out, ToZoneResponse(z))
	}
	c.JSON(http.StatusOK, ZonesResponse{Zones: out})
}

// nowPlaying handles GET /zones/:zone_id/now_playing.
func (h *zonesHandler) nowPlaying(c *gin.Context) {
	zoneID := c.Param("zone_id")
	np, err := h.br.NowPlaying(c.Request.Context(), zoneID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, np)
}

// getImage handles GET /image?image_key=...&zone_id=...
func (h *zonesHandler) getImage(c *gin.Context) {
	imageKey := c.Query("image_key")
	zoneID := c.Query("zone_id")
	if imageKey == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: "image_key is required"})
		return
	}

	data, contentType, err := h.br.GetImage(c.Request.Context(), imageKey, zoneID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, contentType, data)
}
