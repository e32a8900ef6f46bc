package usbctl

import (
	"context"
	"time"
)

// SpawnReader starts a dedicated goroutine blocking on Device.ReadReport and
// feeding decoded 64-byte reports into the returned channel. The goroutine
// exits, closing the channel, only when ctx is cancelled; read errors are
// retried until then.
func SpawnReader(ctx context.Context, dev *Device, capacity int) <-chan [64]byte {
	ch := make(chan [64]byte, capacity)
	go readerLoop(ctx, dev, ch)
	return ch
}

func readerLoop(ctx context.Context, dev *Device, out chan<- [64]byte) {
	defer close(out)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		report, err := dev.ReadReport(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			// Every read error, timeout or otherwise, is retried; when the
			// device is gone the worker's presence check cancels ctx.
			continue
		}

		select {
		case out <- report:
		case <-ctx.Done():
			return
		default:
			// Consumer fell behind; drop the oldest-in-flight report
			// rather than block the USB read loop.
			select {
			case <-out:
			default:
			}
			select {
			case out <- report:
			default:
			}
		}
	}
}

// WaitForDevice polls for the controller's presence on the USB bus,
// returning once found or ctx is cancelled.
func WaitForDevice(ctx context.Context, device func() bool, interval time.Duration) bool {
	if device() {
		return true
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			if device() {
				return true
			}
		}
	}
}
