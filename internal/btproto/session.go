package btproto

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// Session is a connected Bluetooth HID session with the Switch: a control
// channel (mostly idle, required by the HID spec) and an interrupt channel
// (where all subcommand/report traffic actually flows).
type Session struct {
	Control   *os.File
	Interrupt *os.File
}

// Close releases both channel file descriptors.
func (s *Session) Close() {
	if s.Control != nil {
		s.Control.Close()
	}
	if s.Interrupt != nil {
		s.Interrupt.Close()
	}
}

type acceptResult struct {
	file *os.File
	err  error
}

// AcceptConnection binds PSM 17 and 19, then accepts both channels
// concurrently since the Switch may connect them in either order.
func AcceptConnection(ctx context.Context) (*Session, error) {
	slog.Info("starting L2CAP listeners", "control_psm", PSMControl, "interrupt_psm", PSMInterrupt)

	ctrlListener, err := bindL2CAP(PSMControl)
	if err != nil {
		return nil, err
	}
	defer ctrlListener.Close()

	itrListener, err := bindL2CAP(PSMInterrupt)
	if err != nil {
		return nil, err
	}
	defer itrListener.Close()

	slog.Info("waiting for Switch to connect")
	slog.Info("open 'Change Grip/Order' on the Switch to begin pairing")

	ctrlCh := make(chan acceptResult, 1)
	itrCh := make(chan acceptResult, 1)

	go func() {
		f, err := acceptL2CAP(ctrlListener)
		ctrlCh <- acceptResult{f, err}
	}()
	go func() {
		f, err := acceptL2CAP(itrListener)
		itrCh <- acceptResult{f, err}
	}()

	var ctrlRes, itrRes acceptResult
	for i := 0; i < 2; i++ {
		select {
		case ctrlRes = <-ctrlCh:
		case itrRes = <-itrCh:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if ctrlRes.err != nil {
		return nil, fmt.Errorf("control channel accept: %w", ctrlRes.err)
	}
	slog.Info("control channel connected")
	if itrRes.err != nil {
		ctrlRes.file.Close()
		return nil, fmt.Errorf("interrupt channel accept: %w", itrRes.err)
	}
	slog.Info("interrupt channel connected")

	return &Session{Control: ctrlRes.file, Interrupt: itrRes.file}, nil
}

const (
	subcmdRumbleHeaderLen = 10
	subcmdNXBTHeaderLen   = 11
)

// pairingTimeout bounds RunPairing: once it elapses without the completion
// heuristic firing, pairing is treated as complete.
const pairingTimeout = 10 * time.Second

// parseIncoming splits a raw interrupt-channel payload into (reportType,
// subcommand offset), handling both the NXBT-style 0xA2-prefixed form and a
// bare report with no HID transaction header.
func parseIncoming(data []byte) (reportType byte, subcmdOffset int, ok bool) {
	if len(data) == 0 {
		return 0, 0, false
	}
	if data[0] == 0xA2 && len(data) >= 2 {
		return data[1], subcmdNXBTHeaderLen, true
	}
	return data[0], subcmdRumbleHeaderLen, true
}

// RunPairing runs the subcommand handshake on the interrupt channel.
// Pairing is considered complete once the Switch has enabled vibration and
// set player lights, matching NXBT's completion heuristic, or once
// pairingTimeout has elapsed without that happening.
func RunPairing(ctx context.Context, session *Session) error {
	slog.Info("starting pairing handshake")
	deadline := time.Now().Add(pairingTimeout)

	var timer byte
	var vibrationEnabled, playerSet, deviceInfoQueried, receivedFirst bool

	initial := buildEmptyInputReport(timer, deviceInfoQueried)
	if _, err := session.Interrupt.Write(initial[:]); err != nil {
		return fmt.Errorf("pairing initial write: %w", err)
	}
	timer++

	buf := make([]byte, 512)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if time.Now().After(deadline) {
			slog.Warn("pairing heuristic did not complete, assuming paired", "timeout", pairingTimeout)
			return nil
		}

		readTimeout := 1000 * time.Millisecond
		if receivedFirst {
			readTimeout = 66 * time.Millisecond
		}
		session.Interrupt.SetReadDeadline(time.Now().Add(readTimeout))

		n, err := session.Interrupt.Read(buf)
		switch {
		case err == nil && n == 0:
			return errors.New("interrupt channel closed during pairing")
		case err == nil:
			receivedFirst = true
			data := buf[:n]

			reportType, subcmdOffset, ok := parseIncoming(data)
			if ok && (reportType == 0x01 || reportType == 0x11) && n > subcmdOffset {
				subcmdID := data[subcmdOffset]
				var subcmdData []byte
				if n > subcmdOffset+1 {
					subcmdData = data[subcmdOffset+1:]
				}

				ack, replyData := handleSubcommand(subcmdID, subcmdData)
				reply := buildSubcommandReply(timer, subcmdID, ack, replyData)
				timer++

				slog.Info("pairing subcommand", "subcmd", subcmdID, "ack", ack)
				if _, err := session.Interrupt.Write(reply[:]); err != nil {
					return fmt.Errorf("pairing reply write: %w", err)
				}

				switch subcmdID {
				case 0x02:
					deviceInfoQueried = true
				case 0x48:
					vibrationEnabled = true
				case 0x30:
					playerSet = true
				}

				if vibrationEnabled && playerSet {
					slog.Info("pairing complete")
					return nil
				}
				continue
			}
		case isTimeout(err):
			// no data this cycle, fall through to send a standard report
		default:
			return fmt.Errorf("pairing read: %w", err)
		}

		report := buildEmptyInputReport(timer, deviceInfoQueried)
		timer++
		if _, err := session.Interrupt.Write(report[:]); err != nil {
			slog.Debug("pairing send error", "error", err)
		}
	}
}

// SendInputReport writes a 0x30 report on the interrupt channel.
func SendInputReport(session *Session, report []byte) error {
	_, err := session.Interrupt.Write(report)
	return err
}

// PollControl does a short non-blocking-style read on the interrupt channel
// and dispatches any subcommand found. Returns true if the Switch closed
// the connection.
func PollControl(session *Session, timer *byte) bool {
	buf := make([]byte, 512)
	session.Interrupt.SetReadDeadline(time.Now().Add(1 * time.Millisecond))

	n, err := session.Interrupt.Read(buf)
	switch {
	case n == 0 && (err == nil || errors.Is(err, io.EOF)):
		slog.Info("interrupt channel closed by Switch")
		return true
	case err == nil:
		data := buf[:n]
		reportType, subcmdOffset, ok := parseIncoming(data)
		if ok && (reportType == 0x01 || reportType == 0x11) && n > subcmdOffset {
			subcmdID := data[subcmdOffset]
			var subcmdData []byte
			if n > subcmdOffset+1 {
				subcmdData = data[subcmdOffset+1:]
			}
			ack, replyData := handleSubcommand(subcmdID, subcmdData)
			reply := buildSubcommandReply(*timer, subcmdID, ack, replyData)
			*timer++
			slog.Debug("subcommand", "subcmd", subcmdID, "ack", ack)
			_, _ = session.Interrupt.Write(reply[:])
		}
	case isTimeout(err):
		// no data available, that's fine
	case isConnReset(err):
		slog.Info("interrupt channel reset by Switch")
		return true
	default:
		slog.Debug("interrupt read error", "error", err)
	}

	return false
}

func isTimeout(err error) bool {
	var ne interface{ Timeout() bool }
	return errors.As(err, &ne) && ne.Timeout()
}

// isConnReset reports whether err is (or wraps) ECONNRESET, the "session-fatal"
// error the steady-state poll must treat as an immediate disconnect.
func isConnReset(err error) bool {
	return errors.Is(err, unix.ECONNRESET)
}
