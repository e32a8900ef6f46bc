package combo

import (
	"testing"
	"time"

	"github.com/brodyfreeman/nintendo-pi-go/internal/wire"
	"github.com/stretchr/testify/assert"
)

func TestNoComboWithoutL3R3(t *testing.T) {
	d := New()
	var buttons wire.ButtonState
	buttons.Set(wire.A, true)
	action, suppressed := d.Update(buttons)
	assert.Equal(t, None, action)
	assert.True(t, suppressed.IsEmpty())
}

func TestL3R3Suppressed(t *testing.T) {
	d := New()
	var buttons wire.ButtonState
	buttons.Set(wire.L3, true)
	buttons.Set(wire.R3, true)
	action, suppressed := d.Update(buttons)
	assert.Equal(t, None, action)
	assert.True(t, suppressed.Contains(wire.L3))
	assert.True(t, suppressed.Contains(wire.R3))
}

func TestInstantComboPlayMacro(t *testing.T) {
	d := New()
	var buttons wire.ButtonState
	buttons.Set(wire.L3, true)
	buttons.Set(wire.R3, true)
	buttons.Set(wire.A, true)
	action, suppressed := d.Update(buttons)
	assert.Equal(t, PlayMacro, action)
	assert.True(t, suppressed.Contains(wire.A))
}

func TestInstantComboStopPlayback(t *testing.T) {
	d := New()
	var buttons wire.ButtonState
	buttons.Set(wire.L3, true)
	buttons.Set(wire.R3, true)
	buttons.Set(wire.B, true)
	action, _ := d.Update(buttons)
	assert.Equal(t, StopPlayback, action)
}

func TestInstantComboPrevNextSlot(t *testing.T) {
	d := New()
	var left wire.ButtonState
	left.Set(wire.L3, true)
	left.Set(wire.R3, true)
	left.Set(wire.DpadLeft, true)
	action, _ := d.Update(left)
	assert.Equal(t, PrevSlot, action)

	d2 := New()
	var right wire.ButtonState
	right.Set(wire.L3, true)
	right.Set(wire.R3, true)
	right.Set(wire.DpadRight, true)
	action2, _ := d2.Update(right)
	assert.Equal(t, NextSlot, action2)
}

func TestComboNotRetriggeredOnHold(t *testing.T) {
	d := New()
	var buttons wire.ButtonState
	buttons.Set(wire.L3, true)
	buttons.Set(wire.R3, true)
	buttons.Set(wire.A, true)

	action1, _ := d.Update(buttons)
	assert.Equal(t, PlayMacro, action1)

	action2, _ := d.Update(buttons)
	assert.Equal(t, None, action2)
}

func TestToggleRecordingInMacroMode(t *testing.T) {
	d := New()
	d.MacroMode = true

	var released wire.ButtonState
	d.Update(released)

	var buttons wire.ButtonState
	buttons.Set(wire.L3, true)
	buttons.Set(wire.R3, true)
	action, _ := d.Update(buttons)
	assert.Equal(t, ToggleRecording, action)
}

func TestNoRecordingWithoutMacroMode(t *testing.T) {
	d := New()

	var released wire.ButtonState
	d.Update(released)

	var buttons wire.ButtonState
	buttons.Set(wire.L3, true)
	buttons.Set(wire.R3, true)
	action, _ := d.Update(buttons)
	assert.Equal(t, None, action)
}

func TestDpadDownHoldToggle(t *testing.T) {
	d := New()
	var buttons wire.ButtonState
	buttons.Set(wire.L3, true)
	buttons.Set(wire.R3, true)
	buttons.Set(wire.DpadDown, true)

	action, _ := d.Update(buttons)
	assert.Equal(t, None, action)

	time.Sleep(550 * time.Millisecond)

	action2, _ := d.Update(buttons)
	assert.Equal(t, ToggleMacroMode, action2)
}

func TestDpadDownShortPressNoToggle(t *testing.T) {
	d := New()
	var buttons wire.ButtonState
	buttons.Set(wire.L3, true)
	buttons.Set(wire.R3, true)
	buttons.Set(wire.DpadDown, true)

	d.Update(buttons)

	time.Sleep(100 * time.Millisecond)

	action, _ := d.Update(buttons)
	assert.Equal(t, None, action)
}

func TestSuppressedFilterButtons(t *testing.T) {
	d := New()
	var buttons wire.ButtonState
	buttons.Set(wire.L3, true)
	buttons.Set(wire.R3, true)
	buttons.Set(wire.A, true)

	_, suppressed := d.Update(buttons)
	suppressed.FilterButtons(&buttons)

	assert.False(t, buttons.Get(wire.L3))
	assert.False(t, buttons.Get(wire.R3))
	assert.False(t, buttons.Get(wire.A))
}

func TestSuppressedFilterRawReport(t *testing.T) {
	d := New()
	var buttons wire.ButtonState
	buttons.Set(wire.L3, true)
	buttons.Set(wire.R3, true)
	buttons.Set(wire.A, true)

	_, suppressed := d.Update(buttons)

	var report [64]byte
	report[3], report[4], report[5] = buttons.Raw()[0], buttons.Raw()[1], buttons.Raw()[2]
	suppressed.FilterRawReport(&report)

	parsed := wire.ParseHIDReport(&report)
	assert.False(t, parsed.Buttons.Get(wire.L3))
	assert.False(t, parsed.Buttons.Get(wire.R3))
	assert.False(t, parsed.Buttons.Get(wire.A))
}

func TestRecordingNotTriggeredWithComboButton(t *testing.T) {
	d := New()
	d.MacroMode = true

	var released wire.ButtonState
	d.Update(released)

	var buttons wire.ButtonState
	buttons.Set(wire.L3, true)
	buttons.Set(wire.R3, true)
	buttons.Set(wire.A, true)
	action, _ := d.Update(buttons)
	assert.Equal(t, PlayMacro, action)
}
