package supervisor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brodyfreeman/nintendo-pi-go/internal/calibration"
	"github.com/brodyfreeman/nintendo-pi-go/internal/combo"
	"github.com/brodyfreeman/nintendo-pi-go/internal/macro"
)

func TestComboActionToCommandTranslatesKnownActions(t *testing.T) {
	cmd, ok := comboActionToCommand(combo.ToggleMacroMode)
	assert.True(t, ok)
	assert.Equal(t, macro.ToggleMacroMode, cmd.Kind)

	cmd, ok = comboActionToCommand(combo.PlayMacro)
	assert.True(t, ok)
	assert.Equal(t, macro.PlayMacro, cmd.Kind)
}

func TestComboActionToCommandNoneIsIgnored(t *testing.T) {
	_, ok := comboActionToCommand(combo.None)
	assert.False(t, ok)
}

func TestCalibrateSticksCenteredReportIsNeutral(t *testing.T) {
	leftCal := calibration.New(calibration.MainStickCal, 0.10)
	rightCal := calibration.New(calibration.CStickCal, 0.10)
	center := [2]uint16{2048, 2048}

	var raw [64]byte
	raw[6], raw[7], raw[8] = 0x00, 0x08, 0x80 // packed (2048, 2048)
	raw[9], raw[10], raw[11] = 0x00, 0x08, 0x80

	_, leftPct, rightPct := calibrateSticks(raw, leftCal, rightCal, center, center)
	assert.Equal(t, [2]float64{0, 0}, leftPct)
	assert.Equal(t, [2]float64{0, 0}, rightPct)
}

func TestBuildBTReportHeaderBytes(t *testing.T) {
	leftCal := calibration.New(calibration.MainStickCal, 0.10)
	rightCal := calibration.New(calibration.CStickCal, 0.10)
	center := [2]uint16{2048, 2048}

	var raw [64]byte
	report, _, _, _ := buildBTReport(raw, leftCal, rightCal, center, center, 7)

	assert.Equal(t, byte(0xA1), report[0])
	assert.Equal(t, byte(0x30), report[1])
	assert.Equal(t, byte(7), report[2])
}

func TestVisStickRescalesToUnitRange(t *testing.T) {
	s := visStick([2]float64{100, -50})
	assert.Equal(t, 1.0, s.X)
	assert.Equal(t, -0.5, s.Y)
}

func TestSendOutgoingDropsNewestWhenFull(t *testing.T) {
	ch := make(chan [50]byte, 1)
	var first, second [50]byte
	first[0] = 1
	second[0] = 2

	sendOutgoing(ch, first)
	sendOutgoing(ch, second)

	got := <-ch
	assert.Equal(t, byte(1), got[0])
}
