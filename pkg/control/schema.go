package control

// ControlRequestSchema validates the body of POST control requests.
// value is required for vol_rel/vol_abs/seek by RequiresValue (a value
// sent with any other action is accepted and ignored), since JSON
// Schema alone can't express that
// action-conditional requirement cleanly without a bulky if/then/else
// per enum member.
const ControlRequestSchema = `{
	"type": "object",
	"required": ["zone_id", "action"],
	"properties": {
		"zone_id": {"type": "string", "minLength": 1},
		"action": {
			"type": "string",
			"enum": ["play_pause", "play", "pause", "stop", "next", "previous", "vol_rel", "vol_abs", "seek"]
		},
		"value": {"type": "number"}
	},
	"additionalProperties": false
}`

// PipelineRequestSchema validates the body of POST set_pipeline requests.
// "dither" is accepted alongside "shaper" as a wire-compatible alias —
// ParseSetPipelineRequest resolves both to hqp.SettingShaper.
const PipelineRequestSchema = `{
	"type": "object",
	"required": ["setting", "value"],
	"properties": {
		"setting": {
			"type": "string",
			"enum": ["mode", "filter1x", "filterNx", "shaper", "dither", "samplerate", "volume_db"]
		},
		"value": {"type": "string", "minLength": 1}
	},
	"additionalProperties": false
}`

// valueRequiredActions is the subset of control actions that must
// carry a numeric value; the rest ignore or reject one.
var valueRequiredActions = map[string]bool{
	"vol_rel": true,
	"vol_abs": true,
	"seek":    true,
}

// RequiresValue reports whether action requires a "value" field.
func RequiresValue(action string) bool {
	return valueRequiredActions[action]
}
