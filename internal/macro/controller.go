package macro

import (
	"log/slog"

	"github.com/brodyfreeman/nintendo-pi-go/internal/led"
)

// Command is the unified command enum, covering both combo actions and
// web UI commands, so both paths share one execution path.
type Command struct {
	Kind  CommandKind
	Slot  int
	ID    uint32
	Name  string
	Speed float64
}

type CommandKind int

const (
	ToggleMacroMode CommandKind = iota
	ToggleRecording
	PrevSlot
	NextSlot
	SelectSlot
	PlayMacro
	StopPlayback
	RenameMacro
	DeleteMacro
	CycleSpeed
	SetPlaybackSpeed
	ToggleLoop
)

// Effect is the side effects produced by executing a command. The caller
// applies these (setting LEDs, broadcasting the macro list) so Controller
// stays free of transport I/O.
type Effect struct {
	LED             *led.Pattern
	BroadcastMacros bool
}

// Controller owns all macro state and exposes a single Execute entry point.
type Controller struct {
	MacroMode       bool
	Recorder        *Recorder
	Player          *Player
	CurrentSlot     int
	CachedSlotCount int
	CachedMacroName string

	macrosDir string
}

// NewController loads the initial slot cache from macrosDir's index.
func NewController(macrosDir string) *Controller {
	slotCount := GetSlotCount(macrosDir)
	name := ""
	if id, ok := GetMacroIDBySlot(macrosDir, 0); ok {
		if e, ok := GetMacroInfo(macrosDir, id); ok {
			name = e.Name
		}
	}

	return &Controller{
		Recorder:        NewRecorder(),
		Player:          NewPlayer(),
		CachedSlotCount: slotCount,
		CachedMacroName: name,
		macrosDir:       macrosDir,
	}
}

// MacrosDir returns the backing macros directory.
func (c *Controller) MacrosDir() string { return c.macrosDir }

// ModeLED returns the LED pattern for the current mode (macro mode vs normal).
func (c *Controller) ModeLED() *led.Pattern {
	if c.MacroMode {
		return &led.MacroMode
	}
	return &led.Normal
}

// Execute dispatches a command and returns its side effects.
func (c *Controller) Execute(cmd Command) Effect {
	switch cmd.Kind {
	case ToggleMacroMode:
		return c.toggleMacroMode()
	case ToggleRecording:
		return c.toggleRecording()
	case PrevSlot:
		return c.prevSlot()
	case NextSlot:
		return c.nextSlot()
	case SelectSlot:
		return c.selectSlot(cmd.Slot)
	case PlayMacro:
		return c.playMacro()
	case StopPlayback:
		return c.stopPlayback()
	case RenameMacro:
		return c.renameMacro(cmd.ID, cmd.Name)
	case DeleteMacro:
		return c.deleteMacro(cmd.ID)
	case CycleSpeed:
		c.Player.CycleSpeed()
		return Effect{}
	case SetPlaybackSpeed:
		c.Player.SetSpeed(cmd.Speed)
		return Effect{}
	case ToggleLoop:
		return c.toggleLoop()
	default:
		return Effect{}
	}
}

func (c *Controller) refreshCache() {
	c.CachedSlotCount = GetSlotCount(c.macrosDir)
	c.CachedMacroName = ""
	if id, ok := GetMacroIDBySlot(c.macrosDir, c.CurrentSlot); ok {
		if e, ok := GetMacroInfo(c.macrosDir, id); ok {
			c.CachedMacroName = e.Name
		}
	}
}

func (c *Controller) toggleMacroMode() Effect {
	c.MacroMode = !c.MacroMode
	if c.MacroMode {
		c.refreshCache()
		slog.Info("macro mode on", "macros", c.CachedSlotCount, "slot", c.CurrentSlot)
		return Effect{LED: &led.MacroMode}
	}

	broadcast := false
	if c.Recorder.Recording {
		c.Recorder.Stop()
		c.Recorder.Save(c.macrosDir, "")
		broadcast = true
	}
	slog.Info("macro mode off")
	return Effect{LED: &led.Normal, BroadcastMacros: broadcast}
}

func (c *Controller) toggleRecording() Effect {
	if c.Recorder.Recording {
		c.Recorder.Stop()
		c.Recorder.Save(c.macrosDir, "")
		c.refreshCache()
		return Effect{LED: &led.MacroMode, BroadcastMacros: true}
	}
	c.Recorder.Start()
	return Effect{LED: &led.Recording}
}

func (c *Controller) prevSlot() Effect {
	if c.CachedSlotCount > 0 {
		if c.CurrentSlot == 0 {
			c.CurrentSlot = c.CachedSlotCount - 1
		} else {
			c.CurrentSlot--
		}
		c.refreshCache()
		slog.Info("slot selected", "slot", c.CurrentSlot)
	}
	return Effect{}
}

func (c *Controller) nextSlot() Effect {
	if c.CachedSlotCount > 0 {
		c.CurrentSlot = (c.CurrentSlot + 1) % c.CachedSlotCount
		c.refreshCache()
		slog.Info("slot selected", "slot", c.CurrentSlot)
	}
	return Effect{}
}

func (c *Controller) selectSlot(slot int) Effect {
	if slot >= 0 && slot < c.CachedSlotCount {
		c.CurrentSlot = slot
		c.refreshCache()
	}
	return Effect{}
}

func (c *Controller) playMacro() Effect {
	id, ok := GetMacroIDBySlot(c.macrosDir, c.CurrentSlot)
	if !ok {
		return Effect{}
	}
	if c.Player.Load(c.macrosDir, id) {
		c.Player.Start(false)
		slog.Info("playing macro", "id", id, "slot", c.CurrentSlot)
		return Effect{LED: &led.Playback}
	}
	return Effect{}
}

func (c *Controller) stopPlayback() Effect {
	if c.Player.Playing {
		c.Player.Stop()
		return Effect{LED: c.ModeLED()}
	}
	return Effect{}
}

func (c *Controller) toggleLoop() Effect {
	c.Player.Looping = !c.Player.Looping
	return Effect{}
}

func (c *Controller) renameMacro(id uint32, name string) Effect {
	if RenameMacro(c.macrosDir, id, name) {
		c.refreshCache()
		return Effect{BroadcastMacros: true}
	}
	return Effect{}
}

func (c *Controller) deleteMacro(id uint32) Effect {
	if !DeleteMacro(c.macrosDir, id) {
		return Effect{}
	}
	newCount := GetSlotCount(c.macrosDir)
	c.CachedSlotCount = newCount
	if newCount == 0 {
		c.CurrentSlot = 0
	} else if c.CurrentSlot >= newCount {
		c.CurrentSlot = newCount - 1
	}
	c.refreshCache()
	return Effect{BroadcastMacros: true}
}
