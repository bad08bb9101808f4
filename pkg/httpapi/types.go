package httpapi

import (
	"net/url"

	"github.com/muness/unified-hifi-control/pkg/hqp"
	"github.com/muness/unified-hifi-control/pkg/zone"
)

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// DSPLinkResponse is the wire shape of a Zone's DSP link, carrying an
// HTTP-routable pipeline URL instead of the domain zone.DSPLink's bare
// type/instance pair.
type DSPLinkResponse struct {
	Type     string `json:"type"`
	Instance string `json:"instance"`
	Pipeline string `json:"pipeline"`
}

// ZoneResponse is the bus-boundary Zone JSON shape from spec.md §6.
type ZoneResponse struct {
	ZoneID     string           `json:"zone_id"`
	ZoneName   string           `json:"zone_name"`
	OutputName string           `json:"output_name"`
	DeviceName string           `json:"device_name"`
	DSP        *DSPLinkResponse `json:"dsp,omitempty"`
}

// ToZoneResponse converts a domain Zone to its wire shape, synthesizing
// the DSP link's pipeline URL from the zone_id.
func ToZoneResponse(z zone.Zone) ZoneResponse {
	resp := ZoneResponse{
		ZoneID:     z.ZoneID,
		ZoneName:   z.ZoneName,
		OutputName: z.OutputName,
		DeviceName: z.DeviceName,
	}
	if z.DSP != nil {
		resp.DSP = &DSPLinkResponse{
			Type:     z.DSP.Type,
			Instance: z.DSP.Instance,
			Pipeline: "/hqp/pipeline?zone_id=" + url.QueryEscape(z.ZoneID),
		}
	}
	return resp
}

// ZonesResponse is the body of GET /zones.
type ZonesResponse struct {
	Zones []ZoneResponse `json:"zones"`
}

// VolumeRangeResponse is the wire shape of a DSP instance's volume scale.
type VolumeRangeResponse struct {
	MinDB    float64 `json:"min_db"`
	MaxDB    float64 `json:"max_db"`
	Step     float64 `json:"step"`
	Enabled  bool    `json:"enabled"`
	Adaptive bool    `json:"adaptive"`
}

// PipelineResponse is the body of GET /hqp/pipeline.
type PipelineResponse struct {
	Mode         string              `json:"mode"`
	Filter1x     string              `json:"filter1x"`
	FilterNx     string              `json:"filterNx"`
	Shaper       string              `json:"shaper"`
	SampleRateHz int                 `json:"samplerate"`
	VolumeDB     float64             `json:"volume_db"`
	VolumeRange  VolumeRangeResponse `json:"volume_range"`
	ActiveMode   string              `json:"active_mode"`
	ActiveRateHz int                 `json:"active_rate_hz"`
	ActiveFilter string              `json:"active_filter"`
	ActiveShaper string              `json:"active_shaper"`
}

// ToPipelineResponse converts a domain PipelineView to its wire shape.
func ToPipelineResponse(v hqp.PipelineView) PipelineResponse {
	return PipelineResponse{
		Mode:         v.Mode,
		Filter1x:     v.Filter1x,
		FilterNx:     v.FilterNx,
		Shaper:       v.Shaper,
		SampleRateHz: v.SampleRateHz,
		VolumeDB:     v.VolumeDB,
		VolumeRange: VolumeRangeResponse{
			MinDB:    v.VolumeRange.MinDB,
			MaxDB:    v.VolumeRange.MaxDB,
			Step:     v.VolumeRange.Step,
			Enabled:  v.VolumeRange.Enabled,
			Adaptive: v.VolumeRange.Adaptive,
		},
		ActiveMode:   v.ActiveMode,
		ActiveRateHz: v.ActiveRateHz,
		ActiveFilter: v.ActiveFilter,
		ActiveShaper: v.ActiveShaper,
	}
}
