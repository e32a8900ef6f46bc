package macro

import (
	"testing"

	"github.com/brodyfreeman/nintendo-pi-go/internal/led"
	"github.com/stretchr/testify/assert"
)

func TestToggleMacroModeOnOff(t *testing.T) {
	ctrl := NewController(t.TempDir())
	assert.False(t, ctrl.MacroMode)

	effect := ctrl.Execute(Command{Kind: ToggleMacroMode})
	assert.True(t, ctrl.MacroMode)
	assert.Same(t, &led.MacroMode, effect.LED)
	assert.False(t, effect.BroadcastMacros)

	effect = ctrl.Execute(Command{Kind: ToggleMacroMode})
	assert.False(t, ctrl.MacroMode)
	assert.Same(t, &led.Normal, effect.LED)
}

func TestToggleMacroModeOffStopsRecording(t *testing.T) {
	ctrl := NewController(t.TempDir())
	ctrl.Execute(Command{Kind: ToggleMacroMode})
	ctrl.Recorder.Start()
	assert.True(t, ctrl.Recorder.Recording)

	effect := ctrl.Execute(Command{Kind: ToggleMacroMode})
	assert.False(t, ctrl.Recorder.Recording)
	assert.True(t, effect.BroadcastMacros)
}

func TestSlotNavigationEmpty(t *testing.T) {
	ctrl := NewController(t.TempDir())
	assert.Equal(t, 0, ctrl.CachedSlotCount)

	ctrl.Execute(Command{Kind: PrevSlot})
	assert.Equal(t, 0, ctrl.CurrentSlot)
	ctrl.Execute(Command{Kind: NextSlot})
	assert.Equal(t, 0, ctrl.CurrentSlot)
}

func TestSlotNavigationWraps(t *testing.T) {
	dir := t.TempDir()
	ctrl := NewController(dir)

	var frame [64]byte
	for i := 0; i < 3; i++ {
		SaveMacro(dir, []Frame{{TimestampUs: 0, Report: frame}, {TimestampUs: 1000, Report: frame}}, "")
	}
	ctrl.CachedSlotCount = GetSlotCount(dir)
	assert.Equal(t, 3, ctrl.CachedSlotCount)

	ctrl.Execute(Command{Kind: NextSlot})
	assert.Equal(t, 1, ctrl.CurrentSlot)
	ctrl.Execute(Command{Kind: NextSlot})
	assert.Equal(t, 2, ctrl.CurrentSlot)
	ctrl.Execute(Command{Kind: NextSlot})
	assert.Equal(t, 0, ctrl.CurrentSlot)

	ctrl.Execute(Command{Kind: PrevSlot})
	assert.Equal(t, 2, ctrl.CurrentSlot)
}

func TestToggleRecording(t *testing.T) {
	ctrl := NewController(t.TempDir())

	effect := ctrl.Execute(Command{Kind: ToggleRecording})
	assert.True(t, ctrl.Recorder.Recording)
	assert.Same(t, &led.Recording, effect.LED)
	assert.False(t, effect.BroadcastMacros)

	effect = ctrl.Execute(Command{Kind: ToggleRecording})
	assert.False(t, ctrl.Recorder.Recording)
	assert.Same(t, &led.MacroMode, effect.LED)
	assert.True(t, effect.BroadcastMacros)
}

func TestSelectSlotBounds(t *testing.T) {
	dir := t.TempDir()
	ctrl := NewController(dir)

	ctrl.Execute(Command{Kind: SelectSlot, Slot: 5})
	assert.Equal(t, 0, ctrl.CurrentSlot)

	var frame [64]byte
	SaveMacro(dir, []Frame{{TimestampUs: 0, Report: frame}}, "")
	ctrl.CachedSlotCount = GetSlotCount(dir)

	ctrl.Execute(Command{Kind: SelectSlot, Slot: 0})
	assert.Equal(t, 0, ctrl.CurrentSlot)
}

func TestDeleteMacroAdjustsSlot(t *testing.T) {
	dir := t.TempDir()
	ctrl := NewController(dir)

	var frame [64]byte
	id1, _ := SaveMacro(dir, []Frame{{TimestampUs: 0, Report: frame}}, "")
	id2, _ := SaveMacro(dir, []Frame{{TimestampUs: 0, Report: frame}}, "")
	_ = id1
	ctrl.CachedSlotCount = GetSlotCount(dir)
	ctrl.CurrentSlot = 1

	effect := ctrl.Execute(Command{Kind: DeleteMacro, ID: id2})
	assert.True(t, effect.BroadcastMacros)
	assert.Equal(t, 0, ctrl.CurrentSlot)
	assert.Equal(t, 1, ctrl.CachedSlotCount)
}

func TestRenameMacroCommand(t *testing.T) {
	dir := t.TempDir()
	ctrl := NewController(dir)

	var frame [64]byte
	id, _ := SaveMacro(dir, []Frame{{TimestampUs: 0, Report: frame}}, "old_name")
	ctrl.CachedSlotCount = GetSlotCount(dir)

	effect := ctrl.Execute(Command{Kind: RenameMacro, ID: id, Name: "new_name"})
	assert.True(t, effect.BroadcastMacros)

	entry, _ := GetMacroInfo(dir, id)
	assert.Equal(t, "new_name", entry.Name)
}

func TestStopPlaybackNotPlaying(t *testing.T) {
	ctrl := NewController(t.TempDir())
	effect := ctrl.Execute(Command{Kind: StopPlayback})
	assert.Nil(t, effect.LED)
}

func TestCycleSpeedCommand(t *testing.T) {
	ctrl := NewController(t.TempDir())
	assert.Equal(t, 1.0, ctrl.Player.Speed)

	ctrl.Execute(Command{Kind: CycleSpeed})
	assert.Equal(t, 2.0, ctrl.Player.Speed)

	ctrl.Execute(Command{Kind: CycleSpeed})
	assert.Equal(t, 4.0, ctrl.Player.Speed)
}

func TestSetPlaybackSpeedCommand(t *testing.T) {
	ctrl := NewController(t.TempDir())

	ctrl.Execute(Command{Kind: SetPlaybackSpeed, Speed: 0.5})
	assert.Equal(t, 0.5, ctrl.Player.Speed)

	ctrl.Execute(Command{Kind: SetPlaybackSpeed, Speed: 100.0})
	assert.Equal(t, 4.0, ctrl.Player.Speed)
}

func TestToggleLoopCommand(t *testing.T) {
	ctrl := NewController(t.TempDir())
	assert.False(t, ctrl.Player.Looping)
	ctrl.Execute(Command{Kind: ToggleLoop})
	assert.True(t, ctrl.Player.Looping)
	ctrl.Execute(Command{Kind: ToggleLoop})
	assert.False(t, ctrl.Player.Looping)
}
