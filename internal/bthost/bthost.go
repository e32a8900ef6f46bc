// Package bthost configures the local BlueZ adapter for Pro Controller
// emulation: a no-interaction pairing agent, adapter discoverability, the
// HID SDP profile, and the HCI device class. Ported from the reference
// bt/sdp.rs, translated from zbus to github.com/godbus/dbus/v5.
package bthost

import (
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
)

const (
	agentPath = dbus.ObjectPath("/org/bluez/nintendo_pi/agent")
	profPath  = dbus.ObjectPath("/org/bluez/nintendo_pi")
	hidUUID   = "00001124-0000-1000-8000-00805f9b34fb"
)

// sdpRecord is the HID service record XML advertised to the Switch,
// identical in content to NXBT/joycontrol's gamepad record.
const sdpRecord = `<?xml version="1.0" encoding="UTF-8" ?>
<record>
    <attribute id="0x0001">
        <sequence>
            <uuid value="0x1124"/>
        </sequence>
    </attribute>
    <attribute id="0x0004">
        <sequence>
            <sequence>
                <uuid value="0x0100"/>
                <uint16 value="0x0011"/>
            </sequence>
            <sequence>
                <uuid value="0x0011"/>
            </sequence>
        </sequence>
    </attribute>
    <attribute id="0x0005">
        <sequence>
            <uuid value="0x1002"/>
        </sequence>
    </attribute>
    <attribute id="0x0006">
        <sequence>
            <uint16 value="0x656E"/>
            <uint16 value="0x006A"/>
            <uint16 value="0x0100"/>
        </sequence>
    </attribute>
    <attribute id="0x0009">
        <sequence>
            <sequence>
                <uuid value="0x1124"/>
                <uint16 value="0x0100"/>
            </sequence>
        </sequence>
    </attribute>
    <attribute id="0x000D">
        <sequence>
            <sequence>
                <sequence>
                    <uuid value="0x0100"/>
                    <uint16 value="0x0013"/>
                </sequence>
                <sequence>
                    <uuid value="0x0011"/>
                </sequence>
            </sequence>
        </sequence>
    </attribute>
    <attribute id="0x0100">
        <text value="Wireless Gamepad"/>
    </attribute>
    <attribute id="0x0101">
        <text value="Gamepad"/>
    </attribute>
    <attribute id="0x0102">
        <text value="Nintendo"/>
    </attribute>
    <attribute id="0x0200">
        <uint16 value="0x0100"/>
    </attribute>
    <attribute id="0x0201">
        <uint16 value="0x0111"/>
    </attribute>
    <attribute id="0x0202">
        <uint8 value="0x08"/>
    </attribute>
    <attribute id="0x0203">
        <uint8 value="0x00"/>
    </attribute>
    <attribute id="0x0204">
        <boolean value="true"/>
    </attribute>
    <attribute id="0x0205">
        <boolean value="true"/>
    </attribute>
    <attribute id="0x0206">
        <sequence>
            <sequence>
                <uint8 value="0x22"/>
                <text encoding="hex" value="05010905a1010601ff852109217508953081028530093075089530810285310931750896690181028532093275089669018102853309337508966901810285340934750896690181028535093575089530810285390939750895308102853a093a7508953081020501093009310933093426ff00463fff00750895048102750895018101c0"/>
            </sequence>
        </sequence>
    </attribute>
    <attribute id="0x0207">
        <sequence>
            <sequence>
                <uint16 value="0x0409"/>
                <uint16 value="0x0100"/>
            </sequence>
        </sequence>
    </attribute>
    <attribute id="0x020B">
        <uint16 value="0x0100"/>
    </attribute>
    <attribute id="0x020C">
        <uint16 value="0x0C80"/>
    </attribute>
    <attribute id="0x020D">
        <boolean value="true"/>
    </attribute>
    <attribute id="0x020E">
        <boolean value="true"/>
    </attribute>
</record>`

// agent is a no-interaction BlueZ pairing agent: every request is
// auto-accepted, required for the Switch to pair with us on first contact.
type agent struct{}

func (agent) Release() *dbus.Error { return nil }

func (agent) RequestConfirmation(device dbus.ObjectPath, passkey uint32) *dbus.Error {
	return nil
}

func (agent) RequestAuthorization(device dbus.ObjectPath) *dbus.Error { return nil }

func (agent) AuthorizeService(device dbus.ObjectPath, uuid string) *dbus.Error { return nil }

func (agent) Cancel() *dbus.Error { return nil }

// RegisterAgent exports a NoInputNoOutput pairing agent and asks BlueZ to
// use it as the default.
func RegisterAgent(conn *dbus.Conn) error {
	slog.Info("registering pairing agent")

	if err := conn.Export(agent{}, agentPath, "org.bluez.Agent1"); err != nil {
		return fmt.Errorf("export agent: %w", err)
	}

	manager := conn.Object("org.bluez", dbus.ObjectPath("/org/bluez"))
	call := manager.Call("org.bluez.AgentManager1.RegisterAgent", 0, agentPath, "NoInputNoOutput")
	if call.Err != nil {
		msg := call.Err.Error()
		if strings.Contains(msg, "Already Exists") || strings.Contains(msg, "AlreadyExists") {
			slog.Warn("agent already registered (ok on restart)")
		} else {
			return fmt.Errorf("register agent: %w", call.Err)
		}
	}

	_ = manager.Call("org.bluez.AgentManager1.RequestDefaultAgent", 0, agentPath)

	slog.Info("pairing agent registered", "capability", "NoInputNoOutput")
	return nil
}

func setAdapterProperty(conn *dbus.Conn, name string, value any) error {
	adapter := conn.Object("org.bluez", dbus.ObjectPath("/org/bluez/hci0"))
	call := adapter.Call("org.freedesktop.DBus.Properties.Set", 0, "org.bluez.Adapter1", name, dbus.MakeVariant(value))
	return call.Err
}

// ConfigureAdapter sets alias, discoverable, pairable, and powered, with
// timeouts disabled (0 = forever) so the Switch can always find us.
//
// Device class is deliberately not touched here: D-Bus property writes and
// SDP registration can reset the HCI class, so SetDeviceClass must run
// after everything else.
func ConfigureAdapter(conn *dbus.Conn) error {
	slog.Info("configuring Bluetooth adapter")

	if err := setAdapterProperty(conn, "Alias", "Pro Controller"); err != nil {
		return fmt.Errorf("set alias: %w", err)
	}
	slog.Info("adapter alias set", "alias", "Pro Controller")

	if err := setAdapterProperty(conn, "Discoverable", true); err != nil {
		return fmt.Errorf("set discoverable: %w", err)
	}
	if err := setAdapterProperty(conn, "Pairable", true); err != nil {
		return fmt.Errorf("set pairable: %w", err)
	}
	if err := setAdapterProperty(conn, "Powered", true); err != nil {
		return fmt.Errorf("set powered: %w", err)
	}
	if err := setAdapterProperty(conn, "DiscoverableTimeout", uint32(0)); err != nil {
		return fmt.Errorf("set discoverable timeout: %w", err)
	}
	if err := setAdapterProperty(conn, "PairableTimeout", uint32(0)); err != nil {
		return fmt.Errorf("set pairable timeout: %w", err)
	}

	slog.Info("adapter configured: discoverable, pairable")
	return nil
}

// SetDeviceClass sets the adapter's HCI name and gamepad device class via
// hciconfig. Must run after all D-Bus operations, which can reset both.
func SetDeviceClass() error {
	time.Sleep(500 * time.Millisecond)

	if out, err := exec.Command("hciconfig", "hci0", "name", "Pro Controller").CombinedOutput(); err != nil {
		return fmt.Errorf("set adapter name: %s: %w", out, err)
	}

	if out, err := exec.Command("hciconfig", "hci0", "class", "0x002508").CombinedOutput(); err != nil {
		return fmt.Errorf("set device class: %s: %w", out, err)
	}

	slog.Info("adapter name and class set", "name", "Pro Controller", "class", "0x002508")
	return nil
}

// RegisterSDPProfile registers the HID service record with BlueZ's profile
// manager so the Switch sees us as a Bluetooth gamepad during discovery.
func RegisterSDPProfile(conn *dbus.Conn) error {
	slog.Info("registering HID SDP profile")

	options := map[string]dbus.Variant{
		"Role":                  dbus.MakeVariant("server"),
		"RequireAuthentication": dbus.MakeVariant(false),
		"RequireAuthorization":  dbus.MakeVariant(false),
		"AutoConnect":           dbus.MakeVariant(true),
		"ServiceRecord":         dbus.MakeVariant(sdpRecord),
	}

	manager := conn.Object("org.bluez", dbus.ObjectPath("/org/bluez"))
	call := manager.Call("org.bluez.ProfileManager1.RegisterProfile", 0, profPath, hidUUID, options)
	if call.Err != nil {
		msg := call.Err.Error()
		if strings.Contains(msg, "Already Exists") || strings.Contains(msg, "AlreadyExists") ||
			strings.Contains(msg, "UUID already registered") || strings.Contains(msg, "NotPermitted") {
			slog.Warn("SDP profile already registered (ok on restart)")
			return nil
		}
		return fmt.Errorf("register SDP profile: %w", call.Err)
	}

	slog.Info("SDP profile registered")
	return nil
}
