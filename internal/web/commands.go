package web

import (
	"encoding/json"

	"github.com/brodyfreeman/nintendo-pi-go/internal/apierror"
	"github.com/brodyfreeman/nintendo-pi-go/internal/macro"
)

// parseCommand translates one of the web UI's string command tokens, plus
// its optional JSON data payload, into the controller's unified command.
func parseCommand(token string, data json.RawMessage) (macro.Command, error) {
	switch token {
	case "TOGGLE_MACRO_MODE":
		return macro.Command{Kind: macro.ToggleMacroMode}, nil
	case "TOGGLE_RECORDING":
		return macro.Command{Kind: macro.ToggleRecording}, nil
	case "PREV_SLOT":
		return macro.Command{Kind: macro.PrevSlot}, nil
	case "NEXT_SLOT":
		return macro.Command{Kind: macro.NextSlot}, nil
	case "PLAY_MACRO":
		return macro.Command{Kind: macro.PlayMacro}, nil
	case "STOP_PLAYBACK":
		return macro.Command{Kind: macro.StopPlayback}, nil
	case "TOGGLE_LOOP":
		return macro.Command{Kind: macro.ToggleLoop}, nil
	case "CYCLE_SPEED":
		return macro.Command{Kind: macro.CycleSpeed}, nil
	case "SELECT_SLOT":
		var payload struct {
			Slot int `json:"slot"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return macro.Command{}, apierror.BadRequest("select_slot: " + err.Error())
		}
		return macro.Command{Kind: macro.SelectSlot, Slot: payload.Slot}, nil
	case "RENAME_MACRO":
		var payload struct {
			ID   uint32 `json:"id"`
			Name string `json:"name"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return macro.Command{}, apierror.BadRequest("rename_macro: " + err.Error())
		}
		return macro.Command{Kind: macro.RenameMacro, ID: payload.ID, Name: payload.Name}, nil
	case "DELETE_MACRO":
		var payload struct {
			ID uint32 `json:"id"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return macro.Command{}, apierror.BadRequest("delete_macro: " + err.Error())
		}
		return macro.Command{Kind: macro.DeleteMacro, ID: payload.ID}, nil
	case "SET_PLAYBACK_SPEED":
		var payload struct {
			Speed float64 `json:"speed"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return macro.Command{}, apierror.BadRequest("set_playback_speed: " + err.Error())
		}
		return macro.Command{Kind: macro.SetPlaybackSpeed, Speed: payload.Speed}, nil
	default:
		return macro.Command{}, apierror.BadRequest("unknown command: " + token)
	}
}
