package supervisor

import (
	"context"
	"time"

	"github.com/google/gousb"

	"github.com/brodyfreeman/nintendo-pi-go/internal/calibration"
	"github.com/brodyfreeman/nintendo-pi-go/internal/combo"
	"github.com/brodyfreeman/nintendo-pi-go/internal/macro"
	"github.com/brodyfreeman/nintendo-pi-go/internal/session"
	"github.com/brodyfreeman/nintendo-pi-go/internal/usbctl"
	"github.com/brodyfreeman/nintendo-pi-go/internal/wire"
)

// presenceCheckInterval is how often the worker confirms the controller is
// still on the bus, in case its HID endpoint keeps returning read timeouts
// after an unplug rather than a hard error.
const presenceCheckInterval = 2 * time.Second

// runUSBWorker is the single writer to ctrl: it owns the macro controller
// and combo detector for the lifetime of one USB connection, processing
// live reports and web/combo commands off the same goroutine so neither
// can race the other.
func (h *Hub) runUSBWorker(
	ctx context.Context,
	usbCtx *gousb.Context,
	dev *usbctl.Device,
	reports <-chan [64]byte,
	ctrl *macro.Controller,
	detector *combo.Detector,
	leftCal, rightCal *calibration.Calibrator,
	leftCenter, rightCenter [2]uint16,
	outgoing chan<- [50]byte,
) {
	var timer byte

	h.applyEffect(dev, macro.Effect{LED: ctrl.ModeLED()})
	h.publishControllerState(ctrl)

	presence := time.NewTicker(presenceCheckInterval)
	defer presence.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-reports:
			if !ok {
				return
			}
			h.processReport(dev, ctrl, detector, leftCal, rightCal, leftCenter, rightCenter, raw, &timer, outgoing)
		case cmd := <-h.Commands:
			h.applyEffect(dev, ctrl.Execute(cmd))
			h.publishControllerState(ctrl)
		case <-presence.C:
			if !usbctl.IsPresent(usbCtx) {
				return
			}
		}
	}
}

// processReport runs one live USB report through combo detection, feeds
// the (possibly masked) frame to the recorder, sources the Bluetooth report
// from either that frame or the macro player's current frame, and
// publishes the result for the web UI.
func (h *Hub) processReport(
	dev *usbctl.Device,
	ctrl *macro.Controller,
	detector *combo.Detector,
	leftCal, rightCal *calibration.Calibrator,
	leftCenter, rightCenter [2]uint16,
	raw [64]byte,
	timer *byte,
	outgoing chan<- [50]byte,
) {
	h.RawLog.Log(true, raw[:])

	parsed := wire.ParseHIDReport(&raw)
	action, suppressed := detector.Update(parsed.Buttons)

	var sourceReport [64]byte

	if ctrl.Player.Playing {
		// Playback drives the Bluetooth report; the live stream is only
		// consulted to let the player be interrupted mid-clip.
		if action == combo.StopPlayback {
			h.applyEffect(dev, ctrl.Execute(macro.Command{Kind: macro.StopPlayback}))
		}
		if frame, ok := ctrl.Player.GetFrame(); ok {
			sourceReport = frame
		} else {
			sourceReport = raw
		}
	} else {
		if cmd, ok := comboActionToCommand(action); ok {
			h.applyEffect(dev, ctrl.Execute(cmd))
		}

		masked := raw
		if !suppressed.IsEmpty() {
			suppressed.FilterRawReport(&masked)
		}
		ctrl.Recorder.AddFrame(masked)
		sourceReport = masked
	}

	btReport, input, leftPct, rightPct := buildBTReport(sourceReport, leftCal, rightCal, leftCenter, rightCenter, *timer)
	*timer++
	sendOutgoing(outgoing, btReport)

	h.publishInput(input, visStick(leftPct), visStick(rightPct))
	h.publishControllerState(ctrl)
}

// comboActionToCommand translates a combo detector action into the
// controller's unified command enum. The two packages stay decoupled on
// purpose, so the translation lives here rather than in either of them.
func comboActionToCommand(action combo.Action) (macro.Command, bool) {
	switch action {
	case combo.ToggleMacroMode:
		return macro.Command{Kind: macro.ToggleMacroMode}, true
	case combo.ToggleRecording:
		return macro.Command{Kind: macro.ToggleRecording}, true
	case combo.PrevSlot:
		return macro.Command{Kind: macro.PrevSlot}, true
	case combo.NextSlot:
		return macro.Command{Kind: macro.NextSlot}, true
	case combo.PlayMacro:
		return macro.Command{Kind: macro.PlayMacro}, true
	case combo.StopPlayback:
		return macro.Command{Kind: macro.StopPlayback}, true
	default:
		return macro.Command{}, false
	}
}

// calibrateSticks centers a raw report's stick readings, runs them through
// the radial calibrator, and rescales each axis into [-100, 100].
func calibrateSticks(raw [64]byte, leftCal, rightCal *calibration.Calibrator, leftCenter, rightCenter [2]uint16) (wire.InputState, [2]float64, [2]float64) {
	input := wire.ParseHIDReport(&raw)

	lx := float64(int(input.LeftStickRaw[0]) - int(leftCenter[0]))
	ly := float64(int(input.LeftStickRaw[1]) - int(leftCenter[1]))
	rx := float64(int(input.RightStickRaw[0]) - int(rightCenter[0]))
	ry := float64(int(input.RightStickRaw[1]) - int(rightCenter[1]))

	lcx, lcy := leftCal.Calibrate(lx, ly)
	rcx, rcy := rightCal.Calibrate(rx, ry)

	return input,
		[2]float64{calibration.Rescale(lcx), calibration.Rescale(lcy)},
		[2]float64{calibration.Rescale(rcx), calibration.Rescale(rcy)}
}

// buildBTReport calibrates raw's sticks and encodes the result as a
// Bluetooth 0x30 report, also returning the parsed input and calibrated
// stick percentages for the web visualization.
func buildBTReport(raw [64]byte, leftCal, rightCal *calibration.Calibrator, leftCenter, rightCenter [2]uint16, timer byte) ([50]byte, wire.InputState, [2]float64, [2]float64) {
	input, leftPct, rightPct := calibrateSticks(raw, leftCal, rightCal, leftCenter, rightCenter)
	report := wire.BuildBTReport(input, leftPct, rightPct, timer)
	return report, input, leftPct, rightPct
}

// visStick rescales a calibrated [-100, 100] stick percentage down to the
// [-1, 1] coordinate the web UI's stick widget expects.
func visStick(pct [2]float64) session.Stick {
	return session.Stick{X: pct[0] / 100.0, Y: pct[1] / 100.0}
}

// sendOutgoing tries to push report onto the bounded outgoing channel,
// dropping this newest report rather than blocking the USB processing loop
// if the Bluetooth forwarder has fallen behind.
func sendOutgoing(outgoing chan<- [50]byte, report [50]byte) {
	select {
	case outgoing <- report:
	default:
	}
}

func (h *Hub) applyEffect(dev *usbctl.Device, eff macro.Effect) {
	if eff.LED != nil {
		dev.SendLED(*eff.LED)
	}
	if eff.BroadcastMacros {
		h.notifyMacroListChanged()
	}
}

func (h *Hub) publishControllerState(ctrl *macro.Controller) {
	h.Publisher.Update(func(s *session.Snapshot) {
		s.MacroMode = ctrl.MacroMode
		s.Recording = ctrl.Recorder.Recording
		s.Playing = ctrl.Player.Playing
		s.CurrentSlot = ctrl.CurrentSlot
		s.SlotCount = ctrl.CachedSlotCount
		s.CurrentMacroName = ctrl.CachedMacroName
		s.Speed = ctrl.Player.Speed
		s.Loop = ctrl.Player.Looping
		s.PlaybackFrameIndex = ctrl.Player.FrameIndex()
		s.PlaybackFrameCount = ctrl.Player.FrameCount()
		s.BTConnected = h.BTConnected.Load()
	})
}

func (h *Hub) publishInput(input wire.InputState, left, right session.Stick) {
	h.Publisher.Update(func(s *session.Snapshot) {
		s.HasInput = true
		var vis session.InputVis
		for i, btn := range wire.AllButtons {
			vis.Buttons[i] = input.Buttons.Get(btn)
		}
		vis.Left = left
		vis.Right = right
		s.Input = vis
	})
}
