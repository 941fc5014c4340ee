package stream

import (
	"encoding/json"

	"candlestream/internal/replay"
)

// applyControlMessage decodes one inbound frame and applies it to the
// session's control state. Unstructured frames, unknown types and
// unparseable SET_SPEED payloads are dropped without touching prior
// state; the returned type is the recognized message kind, or "" for a
// dropped frame.
func applyControlMessage(msg []byte, ctrl *replay.ControlState) string {
	var base struct {
		Type string `json:"type"`
	}
	if json.Unmarshal(msg, &base) != nil {
		return ""
	}

	switch base.Type {
	case ctrlSetSpeed:
		var m struct {
			Speed *float64 `json:"speed"`
		}
		if err := json.Unmarshal(msg, &m); err != nil || m.Speed == nil {
			return ""
		}
		ctrl.SetSpeed(*m.Speed)
		return ctrlSetSpeed
	case ctrlPause:
		ctrl.SetPaused(true)
		return ctrlPause
	case ctrlPlay:
		ctrl.SetPaused(false)
		return ctrlPlay
	default:
		return ""
	}
}
