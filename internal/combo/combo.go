// Package combo implements chord (L3+R3) combo detection on the live USB
// input stream, a direct port of the reference combo.py state machine.
package combo

import (
	"time"

	"github.com/brodyfreeman/nintendo-pi-go/internal/wire"
)

// Action is the command a combo frame produces, if any.
type Action int

const (
	None Action = iota
	ToggleMacroMode
	ToggleRecording
	PrevSlot
	NextSlot
	PlayMacro
	StopPlayback
)

// holdDuration is how long D-pad Down must be held (with L3+R3) to toggle
// macro mode.
const holdDuration = 500 * time.Millisecond

type instantCombo struct {
	button wire.Button
	action Action
}

var instantCombos = [4]instantCombo{
	{wire.DpadLeft, PrevSlot},
	{wire.DpadRight, NextSlot},
	{wire.A, PlayMacro},
	{wire.B, StopPlayback},
}

// Suppressed is the set of buttons a combo frame wants masked from the
// forwarded report.
type Suppressed struct {
	buttons [8]wire.Button
	count   int
}

func (s *Suppressed) add(btn wire.Button) {
	if s.count < len(s.buttons) {
		s.buttons[s.count] = btn
		s.count++
	}
}

// IsEmpty reports whether no buttons are suppressed.
func (s *Suppressed) IsEmpty() bool { return s.count == 0 }

// Contains reports whether btn is suppressed.
func (s *Suppressed) Contains(btn wire.Button) bool {
	for i := 0; i < s.count; i++ {
		if s.buttons[i] == btn {
			return true
		}
	}
	return false
}

// Buttons returns the suppressed buttons as a slice.
func (s *Suppressed) Buttons() []wire.Button { return s.buttons[:s.count] }

// FilterButtons clears every suppressed button in the given bitset.
func (s *Suppressed) FilterButtons(buttons *wire.ButtonState) {
	for i := 0; i < s.count; i++ {
		buttons.Set(s.buttons[i], false)
	}
}

// FilterRawReport clears every suppressed button's bit directly in a raw
// 64-byte USB report.
func (s *Suppressed) FilterRawReport(report *[64]byte) {
	wire.FilterRawReport(report, s.buttons[:s.count])
}

// Detector is the combo state machine. Stateful across calls; never
// inspects sticks or triggers.
type Detector struct {
	MacroMode     bool
	dpadDownStart time.Time
	dpadDownSet   bool
	prevButtons   wire.ButtonState
	prevBaseHeld  bool
}

// New returns a fresh detector with macro mode off.
func New() *Detector {
	return &Detector{}
}

// Update processes one frame of button state and returns (action, suppressed).
func (d *Detector) Update(buttons wire.ButtonState) (Action, Suppressed) {
	baseHeld := buttons.Get(wire.L3) && buttons.Get(wire.R3)
	action := None
	var suppressed Suppressed

	if baseHeld {
		suppressed.add(wire.L3)
		suppressed.add(wire.R3)

		dpadDown := buttons.Get(wire.DpadDown)
		if dpadDown {
			suppressed.add(wire.DpadDown)
			if !d.dpadDownSet {
				d.dpadDownStart = time.Now()
				d.dpadDownSet = true
			} else if time.Since(d.dpadDownStart) >= holdDuration {
				action = ToggleMacroMode
				d.dpadDownSet = false
			}
		} else {
			d.dpadDownSet = false
		}

		for _, ic := range instantCombos {
			pressed := buttons.Get(ic.button)
			wasPressed := d.prevButtons.Get(ic.button)
			if pressed {
				suppressed.add(ic.button)
			}
			if pressed && !wasPressed && action == None {
				action = ic.action
			}
		}

		if d.MacroMode && !d.prevBaseHeld {
			anyComboBtn := dpadDown
			if !anyComboBtn {
				for _, ic := range instantCombos {
					if buttons.Get(ic.button) {
						anyComboBtn = true
						break
					}
				}
			}
			if !anyComboBtn {
				action = ToggleRecording
			}
		}
	} else {
		d.dpadDownSet = false
	}

	d.prevButtons = buttons
	d.prevBaseHeld = baseHeld

	return action, suppressed
}
