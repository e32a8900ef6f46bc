// Package btproto implements the Pro Controller Bluetooth HID wire
// protocol: raw L2CAP transport, SPI-read/subcommand reply tables, and the
// pairing handshake and steady-state poll loops. A direct port of the
// reference bt/protocol.rs and bt/emulator.rs, all constant data sourced
// from NXBT/joycontrol via that reference.
package btproto

// spiKey identifies one (address, length) SPI flash read.
type spiKey struct {
	addr uint32
	len  uint8
}

// spiTable maps (addr, len) to pre-built flash read response bytes. A
// static dispatch table, not a generic flash-image reader: the real
// device's SPI image is much larger than what any subcommand ever asks for.
var spiTable = map[spiKey][]byte{
	{0x6000, 0x10}: {
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00,
	},
	{0x6050, 0x0D}: {
		0x82, 0x82, 0x82, // body color
		0x0F, 0x0F, 0x0F, // button color
		0xFF, 0xFF, 0xFF, // left grip
		0xFF, 0xFF, 0xFF, // right grip
		0xFF, // spacer
	},
	{0x603D, 0x12}: {
		0xBA, 0xF5, 0x62, 0x6F, 0xC8, 0x77, 0xED, 0x95, 0x5B,
		0x16, 0xD8, 0x7D, 0xF2, 0xB5, 0x5F, 0x86, 0x65, 0x5E,
	},
	{0x8010, 0x16}: repeat(0xFF, 0x16),
	{0x6086, 0x12}: {
		0x0F, 0x30, 0x61, 0x96, 0x30, 0xF3, 0xD4, 0x14, 0x54, 0x41, 0x15, 0x54, 0xC7, 0x79,
		0x9C, 0x33, 0x36, 0x63,
	},
	{0x6020, 0x18}: {
		0xD3, 0xFF, 0xD5, 0xFF, 0x55, 0x01, // Acceleration origin
		0x00, 0x40, 0x00, 0x40, 0x00, 0x40, // Acceleration sensitivity
		0x19, 0x00, 0xDD, 0xFF, 0xDC, 0xFF, // Gyro origin
		0x3B, 0x34, 0x3B, 0x34, 0x3B, 0x34, // Gyro sensitivity
	},
	{0x8026, 0x1A}: repeat(0xFF, 0x1A),
	{0x6080, 0x06}: {0x50, 0xFD, 0x00, 0x00, 0xC6, 0x0F},
	{0x6080, 0x18}: {
		0x50, 0xFD, 0x00, 0x00, 0xC6, 0x0F,
		0x0F, 0x30, 0x61, 0x96, 0x30, 0xF3, 0xD4, 0x14, 0x54, 0x41, 0x15, 0x54, 0xC7, 0x79,
		0x9C, 0x33, 0x36, 0x63,
	},
	{0x6098, 0x12}: {
		0x0F, 0x30, 0x61, 0x96, 0x30, 0xF3, 0xD4, 0x14, 0x54, 0x41, 0x15, 0x54, 0xC7, 0x79,
		0x9C, 0x33, 0x36, 0x63,
	},
}

func repeat(b byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}

// spiReadResponse returns the flash bytes for a read, or length zeros for
// any address this emulator doesn't model.
func spiReadResponse(addr uint32, length uint8) []byte {
	if data, ok := spiTable[spiKey{addr, length}]; ok {
		return data
	}
	return make([]byte, length)
}

// buildSubcommandReply builds a 50-byte 0x21 subcommand reply report.
func buildSubcommandReply(timer, subcmd, ack byte, data []byte) [50]byte {
	var reply [50]byte
	reply[0] = 0xA1
	reply[1] = 0x21
	reply[2] = timer
	reply[3] = 0x90

	copy(reply[7:10], []byte{0x00, 0x08, 0x80})
	copy(reply[10:13], []byte{0x00, 0x08, 0x80})
	reply[13] = 0xB0

	reply[14] = ack
	reply[15] = subcmd

	copyLen := len(data)
	if max := len(reply) - 16; copyLen > max {
		copyLen = max
	}
	copy(reply[16:16+copyLen], data[:copyLen])

	return reply
}

// handleSubcommand dispatches one subcommand by static table lookup and
// returns (ack, replyData).
func handleSubcommand(subcmdID byte, subcmdData []byte) (byte, []byte) {
	switch subcmdID {
	case 0x02: // request device info
		return 0x82, []byte{
			0x03, 0x8B, // FW version (matches NXBT)
			0x03,                               // Pro Controller
			0x02,                               // unknown
			0x98, 0xB6, 0xE9, 0x46, 0x50, 0x6A, // MAC address (fake)
			0x01, // unknown
			0x01, // colors in SPI: yes
		}
	case 0x03: // set input report mode
		return 0x80, nil
	case 0x04: // trigger buttons elapsed time
		return 0x83, nil
	case 0x08: // set shipment low power state
		return 0x80, nil
	case 0x10: // SPI flash read
		if len(subcmdData) >= 5 {
			addr := uint32(subcmdData[0]) | uint32(subcmdData[1])<<8 | uint32(subcmdData[2])<<16 | uint32(subcmdData[3])<<24
			length := subcmdData[4]
			reply := append(append([]byte{}, subcmdData[:5]...), spiReadResponse(addr, length)...)
			return 0x90, reply
		}
		return 0x80, nil
	case 0x21: // set NFC/IR MCU configuration
		return 0xA0, []byte{0x01, 0x00, 0xFF, 0x00, 0x08, 0x00, 0x1B, 0x01}
	case 0x22: // set NFC/IR state
		return 0x80, nil
	case 0x30: // set player lights
		return 0x80, nil
	case 0x38: // set HOME light
		return 0x80, nil
	case 0x40: // enable IMU
		return 0x80, nil
	case 0x41: // set IMU sensitivity
		return 0x80, nil
	case 0x48: // enable vibration
		return 0x82, nil
	default:
		return 0x80, nil
	}
}

// buildEmptyInputReport builds a neutral 0x30 report for use before the
// forwarder has any real input to send, optionally including connection
// state once device info has been queried.
func buildEmptyInputReport(timer byte, includeState bool) [50]byte {
	var report [50]byte
	report[0] = 0xA1
	report[1] = 0x30
	report[2] = timer

	if includeState {
		report[3] = 0x90

		copy(report[7:10], []byte{0x00, 0x08, 0x80})
		copy(report[10:13], []byte{0x00, 0x08, 0x80})

		report[13] = 0xB0
	}

	return report
}
