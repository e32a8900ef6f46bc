// Package usbctl drives the physical Switch 2 Pro Controller over USB: the
// wake/init handshake, the blocking HID report reader, and best-effort LED
// writes. Ported from the reference usb/init.rs and usb/hid.rs, adapted
// from nusb's async API to gousb's claim-interface/bulk-endpoint model.
package usbctl

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/gousb"
)

const (
	VendorID  = gousb.ID(0x057E)
	ProductID = gousb.ID(0x2069)

	usbInterface = 1
	usbConfig    = 1

	initDelay   = 50 * time.Millisecond
	readTimeout = 100 * time.Millisecond
)

// initCommands is the 17-command initialization sequence, ported byte for
// byte from enable_procon2.py via the reference Rust implementation.
var initCommands = [][]byte{
	{0x03, 0x91, 0x00, 0x0D, 0x00, 0x08, 0x00, 0x00, 0x01, 0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
	{0x07, 0x91, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00},
	{0x16, 0x91, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00},
	{0x15, 0x91, 0x00, 0x01, 0x00, 0x0E, 0x00, 0x00, 0x00, 0x02, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
	{0x15, 0x91, 0x00, 0x02, 0x00, 0x11, 0x00, 0x00, 0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
	{0x15, 0x91, 0x00, 0x03, 0x00, 0x01, 0x00, 0x00, 0x00},
	{0x09, 0x91, 0x00, 0x07, 0x00, 0x08, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
	{0x0C, 0x91, 0x00, 0x02, 0x00, 0x04, 0x00, 0x00, 0x27, 0x00, 0x00, 0x00},
	{0x11, 0x91, 0x00, 0x03, 0x00, 0x00, 0x00, 0x00},
	{0x0A, 0x91, 0x00, 0x08, 0x00, 0x14, 0x00, 0x00, 0x01, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x35, 0x00, 0x46, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
	{0x0C, 0x91, 0x00, 0x04, 0x00, 0x04, 0x00, 0x00, 0x27, 0x00, 0x00, 0x00},
	{0x03, 0x91, 0x00, 0x0A, 0x00, 0x04, 0x00, 0x00, 0x09, 0x00, 0x00, 0x00},
	{0x10, 0x91, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00},
	{0x01, 0x91, 0x00, 0x0C, 0x00, 0x00, 0x00, 0x00},
	{0x03, 0x91, 0x00, 0x01, 0x00, 0x00, 0x00},
	{0x0A, 0x91, 0x00, 0x02, 0x00, 0x04, 0x00, 0x00, 0x03, 0x00, 0x00},
	{0x09, 0x91, 0x00, 0x07, 0x00, 0x08, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
}

// Device owns the claimed interface and its bulk endpoints for one physical
// controller.
type Device struct {
	ctx   *gousb.Context
	dev   *gousb.Device
	cfg   *gousb.Config
	iface *gousb.Interface
	epOut *gousb.OutEndpoint
	epIn  *gousb.InEndpoint
}

// IsPresent reports whether a matching VID/PID device is currently on the
// USB bus. It opens every matching device and closes it again immediately.
func IsPresent(ctx *gousb.Context) bool {
	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == VendorID && desc.Product == ProductID
	})
	for _, d := range devs {
		d.Close()
	}
	return err == nil && len(devs) > 0
}

// Open finds, claims, and prepares the controller's bulk interface.
func Open(ctx *gousb.Context) (*Device, error) {
	var found *gousb.Device
	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == VendorID && desc.Product == ProductID
	})
	if err != nil {
		return nil, fmt.Errorf("usb scan: %w", err)
	}
	for _, d := range devs {
		if found == nil {
			found = d
		} else {
			d.Close()
		}
	}
	if found == nil {
		return nil, fmt.Errorf("usb device %04x:%04x not found", VendorID, ProductID)
	}

	found.SetAutoDetach(true)

	cfg, err := found.Config(usbConfig)
	if err != nil {
		found.Close()
		return nil, fmt.Errorf("open config: %w", err)
	}

	iface, err := cfg.Interface(usbInterface, 0)
	if err != nil {
		cfg.Close()
		found.Close()
		return nil, fmt.Errorf("claim interface: %w", err)
	}

	var epOut *gousb.OutEndpoint
	var epIn *gousb.InEndpoint
	for _, e := range iface.Setting.Endpoints {
		if e.Direction == gousb.EndpointDirectionOut && epOut == nil {
			if ep, err := iface.OutEndpoint(e.Number); err == nil {
				epOut = ep
			}
		}
		if e.Direction == gousb.EndpointDirectionIn && epIn == nil {
			if ep, err := iface.InEndpoint(e.Number); err == nil {
				epIn = ep
			}
		}
	}
	if epOut == nil {
		iface.Close()
		cfg.Close()
		found.Close()
		return nil, fmt.Errorf("no bulk OUT endpoint found")
	}

	return &Device{ctx: ctx, dev: found, cfg: cfg, iface: iface, epOut: epOut, epIn: epIn}, nil
}

// Initialize runs the 17-command wake sequence. Individual command/read
// failures are logged and do not abort the sequence: the device is known to
// occasionally drop a response during wake.
func (d *Device) Initialize(ctx context.Context) error {
	slog.Info("sending USB initialization sequence", "commands", len(initCommands))

	for i, cmd := range initCommands {
		slog.Debug("sending init command", "index", i+1, "opcode", cmd[0])

		if _, err := d.epOut.Write(cmd); err != nil {
			slog.Warn("init command send error", "index", i+1, "error", err)
		}

		if d.epIn != nil {
			time.Sleep(10 * time.Millisecond)
			readCtx, cancel := context.WithTimeout(ctx, readTimeout)
			buf := make([]byte, 64)
			_, err := d.epIn.ReadContext(readCtx, buf)
			cancel()
			if err != nil {
				slog.Debug("init command read timeout (ok)", "index", i+1, "error", err)
			}
		}

		time.Sleep(initDelay)
	}

	slog.Info("USB initialization sequence complete")
	return nil
}

// ReadReport blocks for up to readTimeout reading the next 64-byte HID
// report from the bulk IN endpoint.
func (d *Device) ReadReport(ctx context.Context) ([64]byte, error) {
	var report [64]byte
	if d.epIn == nil {
		return report, fmt.Errorf("no bulk IN endpoint")
	}
	readCtx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()
	buf := make([]byte, 64)
	n, err := d.epIn.ReadContext(readCtx, buf)
	if err != nil {
		return report, err
	}
	if n < 64 {
		slog.Warn("short HID report read", "bytes", n)
	}
	copy(report[:], buf)
	return report, nil
}

// SendLED writes a raw LED/rumble command to the bulk OUT endpoint. Best
// effort: errors are logged, not returned, mirroring the reference
// send_led_command (a dropped LED write is never worth tearing down the
// session for).
func (d *Device) SendLED(pattern [16]byte) {
	if d.epOut == nil {
		return
	}
	if _, err := d.epOut.Write(pattern[:]); err != nil {
		slog.Debug("LED write failed", "error", err)
	}
}

// Close releases the interface, config, and device handle.
func (d *Device) Close() {
	if d.iface != nil {
		d.iface.Close()
	}
	if d.cfg != nil {
		d.cfg.Close()
	}
	if d.dev != nil {
		d.dev.Close()
	}
}
