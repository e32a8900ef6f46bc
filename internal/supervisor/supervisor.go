package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/gousb"

	"github.com/brodyfreeman/nintendo-pi-go/internal/calibration"
	"github.com/brodyfreeman/nintendo-pi-go/internal/combo"
	"github.com/brodyfreeman/nintendo-pi-go/internal/macro"
	"github.com/brodyfreeman/nintendo-pi-go/internal/session"
	"github.com/brodyfreeman/nintendo-pi-go/internal/usbctl"
)

const (
	reportChanCapacity   = 2
	outgoingChanCapacity = 4
	calibrationSamples   = 20
	calibrationDeadzone  = 0.10
	usbPollInterval      = 5 * time.Second
)

// Run drives the whole bridge for the life of ctx: the outer USB
// reconnection loop on the calling goroutine, and the Bluetooth
// accept/pair/forward lifecycle on a second goroutine, both feeding off and
// back into the same Hub. Returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	usbCtx := gousb.NewContext()
	defer usbCtx.Close()

	ctrl := macro.NewController(h.MacrosDir)
	detector := combo.New()
	outgoing := make(chan [50]byte, outgoingChanCapacity)

	go h.runBluetoothLifecycle(ctx, outgoing)

	for ctx.Err() == nil {
		drainCommands(h.Commands)

		dev, err := h.openUSBWithRetry(ctx, usbCtx)
		if err != nil {
			return ctx.Err()
		}

		h.Publisher.Update(func(s *session.Snapshot) { s.USBConnected = true })
		slog.Info("controller connected over USB")

		leftCal, rightCal, leftCenter, rightCenter := h.calibrateDevice(ctx, dev)

		workerCtx, cancel := context.WithCancel(ctx)
		reports := usbctl.SpawnReader(workerCtx, dev, reportChanCapacity)

		h.runUSBWorker(workerCtx, usbCtx, dev, reports, ctrl, detector, leftCal, rightCal, leftCenter, rightCenter, outgoing)

		cancel()
		dev.Close()

		h.Publisher.Update(func(s *session.Snapshot) {
			s.USBConnected = false
			s.HasInput = false
		})
		slog.Info("controller disconnected from USB")
	}

	return ctx.Err()
}

// openUSBWithRetry blocks until the controller appears on the bus, opens
// and claims it, and runs the wake sequence, retrying on transient open
// failures. Returns an error only once ctx is cancelled.
func (h *Hub) openUSBWithRetry(ctx context.Context, usbCtx *gousb.Context) (*usbctl.Device, error) {
	present := func() bool { return usbctl.IsPresent(usbCtx) }

	for {
		if !usbctl.WaitForDevice(ctx, present, usbPollInterval) {
			return nil, ctx.Err()
		}

		dev, err := usbctl.Open(usbCtx)
		if err != nil {
			slog.Warn("usb open failed, retrying", "error", err)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(usbPollInterval):
			}
			continue
		}

		_ = dev.Initialize(ctx)
		return dev, nil
	}
}

// calibrateDevice samples a short burst of idle reports to find the
// sticks' true centers, then builds the two radial calibrators against the
// hardcoded factory calibration tables.
func (h *Hub) calibrateDevice(ctx context.Context, dev *usbctl.Device) (left, right *calibration.Calibrator, leftCenter, rightCenter [2]uint16) {
	samples := collectCalibrationSamples(ctx, dev, calibrationSamples)
	leftCenter, rightCenter = calibration.AutoCalibrateCenters(samples)
	left = calibration.New(calibration.MainStickCal, calibrationDeadzone)
	right = calibration.New(calibration.CStickCal, calibrationDeadzone)
	slog.Info("stick centers calibrated", "left", leftCenter, "right", rightCenter, "samples", len(samples))
	return left, right, leftCenter, rightCenter
}

func collectCalibrationSamples(ctx context.Context, dev *usbctl.Device, n int) [][64]byte {
	samples := make([][64]byte, 0, n)
	for i := 0; i < n && ctx.Err() == nil; i++ {
		report, err := dev.ReadReport(ctx)
		if err != nil {
			continue
		}
		samples = append(samples, report)
	}
	return samples
}
