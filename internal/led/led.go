// Package led defines the 16-byte LED command patterns written to the
// physical controller over USB bulk OUT (usbctl.Device.SendLED), one
// pattern per macro-engine state.
package led

// Pattern is a 16-byte player LED command payload.
type Pattern = [16]byte

// Normal is worn when macro mode is off.
var Normal = Pattern{0x01}

// MacroMode is worn while macro mode is on and nothing else is happening.
var MacroMode = Pattern{0x01, 0x02}

// Recording is worn while a macro is being recorded.
var Recording = Pattern{0x02, 0x04, 0x02, 0x04}

// Playback is worn while a macro is being played back.
var Playback = Pattern{0x04, 0x08}
