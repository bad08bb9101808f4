package control

import (
	"encoding/json"
	"fmt"

	"github.com/muness/unified-hifi-control/pkg/adapter"
	"github.com/muness/unified-hifi-control/pkg/hqp"
)

// ControlRequest is the decoded, schema-validated body of a control()
// call, ready to pass to pkg/bridge.Control.
type ControlRequest struct {
	ZoneID   string
	Action   adapter.Action
	Value    float64
	HasValue bool
}

// ParseControlRequest decodes and validates body as a control request.
func ParseControlRequest(v *Validator, body []byte) (ControlRequest, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return ControlRequest{}, fmt.Errorf("control: invalid JSON body: %w", err)
	}

	if err := v.Validate(ControlRequestSchema, raw); err != nil {
		return ControlRequest{}, fmt.Errorf("control: invalid control request: %w", err)
	}

	zoneID, _ := raw["zone_id"].(string)
	action, _ := raw["action"].(string)
	value, hasValue := raw["value"].(float64)

	if RequiresValue(action) && !hasValue {
		return ControlRequest{}, fmt.Errorf("control: action %q requires a numeric value", action)
	}

	return ControlRequest{
		ZoneID:   zoneID,
		Action:   adapter.Action(action),
		Value:    value,
		HasValue: hasValue,
	}, nil
}

// SetPipelineRequest is the decoded, schema-validated body of a
// set_pipeline() call.
type SetPipelineRequest struct {
	Setting hqp.Setting
	Value   string
}

// ParseSetPipelineRequest decodes and validates body as a
// set_pipeline request.
func ParseSetPipelineRequest(v *Validator, body []byte) (SetPipelineRequest, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return SetPipelineRequest{}, fmt.Errorf("control: invalid JSON body: %w", err)
	}

	if err := v.Validate(PipelineRequestSchema, raw); err != nil {
		return SetPipelineRequest{}, fmt.Errorf("control: invalid set_pipeline request: %w", err)
	}

	setting, _ := raw["setting"].(string)
	value, _ := raw["value"].(string)

	if setting == "dither" {
		setting = string(hqp.SettingShaper)
	}

	return SetPipelineRequest{Setting: hqp.Setting(setting), Value: value}, nil
}
