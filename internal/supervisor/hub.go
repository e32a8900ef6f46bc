// Package supervisor reconciles USB reconnection, Bluetooth reconnection,
// web commands, and combo-driven commands onto the single macro controller,
// a direct port of the reference supervisor module's outer USB lifecycle
// loop, inner Bluetooth lifecycle loop, and USB processing worker.
package supervisor

import (
	"sync/atomic"

	"github.com/brodyfreeman/nintendo-pi-go/internal/log"
	"github.com/brodyfreeman/nintendo-pi-go/internal/macro"
	"github.com/brodyfreeman/nintendo-pi-go/internal/session"
)

// Hub is the set of channels and shared state the web server and the
// supervisor both hold a reference to. It owns no goroutines itself.
type Hub struct {
	MacrosDir string
	Publisher *session.Publisher

	// RawLog records USB-in / Bluetooth-out byte traffic when the
	// operator asked for a raw hex trace; a no-op logger otherwise.
	RawLog log.RawLogger

	// Commands carries both combo- and web-originated commands into the
	// USB processing worker, which is their single consumer and the sole
	// caller of macro.Controller.Execute.
	Commands chan macro.Command

	// MacroEvents is signalled (non-blocking, capacity 1) whenever a
	// macro command mutates the on-disk index, so the web layer knows to
	// re-read and rebroadcast the macro list.
	MacroEvents chan struct{}

	// BTConnected is written by the Bluetooth session lifecycle and read
	// by the USB worker when it republishes the session snapshot.
	BTConnected atomic.Bool
}

// NewHub allocates a Hub backed by a fresh macro index at macrosDir.
func NewHub(macrosDir string, rawLog log.RawLogger) *Hub {
	if rawLog == nil {
		rawLog = log.NewRaw(nil)
	}
	return &Hub{
		MacrosDir:   macrosDir,
		Publisher:   session.NewPublisher(),
		RawLog:      rawLog,
		Commands:    make(chan macro.Command, 16),
		MacroEvents: make(chan struct{}, 1),
	}
}

func (h *Hub) notifyMacroListChanged() {
	select {
	case h.MacroEvents <- struct{}{}:
	default:
	}
}

func drainCommands(ch <-chan macro.Command) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}
