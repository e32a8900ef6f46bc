// Package session holds the single published value the web UI observes:
// a structural snapshot of controller, macro, and connection state plus a
// dirty bit, supplemented with a live-input visualization payload ported
// from the original implementation's web/state.rs.
package session

import (
	"encoding/json"

	"github.com/brodyfreeman/nintendo-pi-go/internal/wire"
)

// Stick is a normalized [-1, 1] visualization coordinate for one analog
// stick, distinct from the [-100, 100] scale used on the wire.
type Stick struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// InputVis is a snapshot of whichever input is currently driving the
// Bluetooth report (live or macro-sourced), for display on the web UI.
type InputVis struct {
	Buttons [18]bool `json:"-"`
	Left    Stick    `json:"left_stick"`
	Right   Stick    `json:"right_stick"`
}

// PressedButtons returns the names of every button currently held.
func (v InputVis) PressedButtons() []string {
	names := make([]string, 0, len(v.Buttons))
	for i, held := range v.Buttons {
		if held {
			names = append(names, wire.AllButtons[i].String())
		}
	}
	return names
}

// Snapshot is a plain value type; every field participates in the
// structural equality check that drives the dirty bit, so it must stay
// free of pointers, maps, and slices.
type Snapshot struct {
	MacroMode          bool
	Recording          bool
	Playing            bool
	CurrentSlot        int
	SlotCount          int
	CurrentMacroName   string
	USBConnected       bool
	BTConnected        bool
	Speed              float64
	Loop               bool
	PlaybackFrameIndex int
	PlaybackFrameCount int
	HasInput           bool
	Input              InputVis
}

// jsonSnapshot is Snapshot's wire shape: PressedButtons instead of the raw
// bit array, and Input omitted entirely when there is nothing to show.
type jsonSnapshot struct {
	MacroMode          bool     `json:"macro_mode"`
	Recording          bool     `json:"recording"`
	Playing            bool     `json:"playing"`
	CurrentSlot        int      `json:"current_slot"`
	SlotCount          int      `json:"slot_count"`
	CurrentMacroName   string   `json:"current_macro_name"`
	USBConnected       bool     `json:"usb_connected"`
	BTConnected        bool     `json:"bt_connected"`
	Speed              float64  `json:"speed"`
	Loop               bool     `json:"loop"`
	PlaybackFrameIndex int      `json:"playback_frame_index"`
	PlaybackFrameCount int      `json:"playback_frame_count"`
	PressedButtons     []string `json:"pressed_buttons,omitempty"`
	LeftStick          *Stick   `json:"left_stick,omitempty"`
	RightStick         *Stick   `json:"right_stick,omitempty"`
}

// MarshalJSON renders the snapshot for the web surface, expanding the
// button bitset into names and dropping the input visualization when the
// worker hasn't published one yet.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	out := jsonSnapshot{
		MacroMode:          s.MacroMode,
		Recording:          s.Recording,
		Playing:            s.Playing,
		CurrentSlot:        s.CurrentSlot,
		SlotCount:          s.SlotCount,
		CurrentMacroName:   s.CurrentMacroName,
		USBConnected:       s.USBConnected,
		BTConnected:        s.BTConnected,
		Speed:              s.Speed,
		Loop:               s.Loop,
		PlaybackFrameIndex: s.PlaybackFrameIndex,
		PlaybackFrameCount: s.PlaybackFrameCount,
	}
	if s.HasInput {
		out.PressedButtons = s.Input.PressedButtons()
		left, right := s.Input.Left, s.Input.Right
		out.LeftStick = &left
		out.RightStick = &right
	}
	return json.Marshal(out)
}
