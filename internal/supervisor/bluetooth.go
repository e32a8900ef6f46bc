package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/brodyfreeman/nintendo-pi-go/internal/btproto"
	"github.com/brodyfreeman/nintendo-pi-go/internal/session"
)

const btAcceptRetryDelay = 2 * time.Second

// runBluetoothLifecycle is the Bluetooth half of the bridge: accept,
// pair, forward reports until the Switch disconnects, repeat. It runs for
// the whole life of the program on its own goroutine, independent of the
// USB reconnection loop it shares a Hub with, and returns only when ctx is
// cancelled.
func (h *Hub) runBluetoothLifecycle(ctx context.Context, outgoing <-chan [50]byte) {
	for ctx.Err() == nil {
		sess, err := btproto.AcceptConnection(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Error("bluetooth accept failed", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(btAcceptRetryDelay):
			}
			continue
		}

		if err := btproto.RunPairing(ctx, sess); err != nil {
			slog.Warn("bluetooth pairing failed", "error", err)
			sess.Close()
			continue
		}

		h.BTConnected.Store(true)
		h.Publisher.Update(func(s *session.Snapshot) { s.BTConnected = true })
		slog.Info("bluetooth session established")

		h.forwardReports(ctx, sess, outgoing)

		h.BTConnected.Store(false)
		h.Publisher.Update(func(s *session.Snapshot) { s.BTConnected = false })
		sess.Close()
		slog.Info("bluetooth session ended")
	}
}

// forwardReports is the steady-state loop once paired: poll for and
// dispatch any subcommand the Switch sends, and forward whatever report
// the USB worker most recently produced. A single timer byte is shared
// across both paths, mirroring the pairing handshake's own report
// sequencing.
func (h *Hub) forwardReports(ctx context.Context, sess *btproto.Session, outgoing <-chan [50]byte) {
	var timer byte
	idle := time.NewTicker(15 * time.Millisecond)
	defer idle.Stop()

	for {
		if btproto.PollControl(sess, &timer) {
			return
		}

		select {
		case <-ctx.Done():
			return
		case report := <-outgoing:
			report[2] = timer
			h.RawLog.Log(false, report[:])
			if err := btproto.SendInputReport(sess, report[:]); err != nil {
				slog.Debug("bluetooth send failed", "error", err)
				return
			}
			timer++
		case <-idle.C:
		}
	}
}
