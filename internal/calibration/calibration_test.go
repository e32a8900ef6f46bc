package calibration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeadzone(t *testing.T) {
	cal := New(MainStickCal, 10.0)
	x, y := cal.Calibrate(1.0, 1.0)
	assert.Equal(t, 0.0, x)
	assert.Equal(t, 0.0, y)

	x, y = cal.Calibrate(0.0, 0.0)
	assert.Equal(t, 0.0, x)
	assert.Equal(t, 0.0, y)

	x, y = cal.Calibrate(-5.0, 5.0)
	assert.Equal(t, 0.0, x)
	assert.Equal(t, 0.0, y)
}

func TestCenterReturnsZero(t *testing.T) {
	cal := New(MainStickCal, 10.0)
	x, y := cal.Calibrate(0.0, 0.0)
	assert.Equal(t, 0.0, x)
	assert.Equal(t, 0.0, y)
}

func TestFullTiltPositiveX(t *testing.T) {
	cal := New(MainStickCal, 10.0)
	x, y := cal.Calibrate(2048.0, 0.0)
	assert.Greater(t, x, 50.0)
	assert.Less(t, y, 1.0)
	assert.Greater(t, y, -1.0)
}

func TestOppositeDirections(t *testing.T) {
	cal := New(MainStickCal, 10.0)
	x1, _ := cal.Calibrate(1000.0, 0.0)
	x2, _ := cal.Calibrate(-1000.0, 0.0)
	assert.Greater(t, x1, 0.0)
	assert.Less(t, x2, 0.0)

	ratio := absF(x1) / absF(x2)
	assert.Greater(t, ratio, 0.8)
	assert.Less(t, ratio, 1.2)
}

func TestCalibratorFromString(t *testing.T) {
	mainCal := New(MainStickCal, 10.0)
	cCal := New(CStickCal, 10.0)
	for _, r := range mainCal.radii {
		assert.Greater(t, r, 0.0)
	}
	for _, r := range cCal.radii {
		assert.Greater(t, r, 0.0)
	}
}

func TestAutoCalibrateCentersEmpty(t *testing.T) {
	left, right := AutoCalibrateCenters(nil)
	assert.Equal(t, [2]uint16{2048, 2048}, left)
	assert.Equal(t, [2]uint16{2048, 2048}, right)
}

func TestAutoCalibrateCentersKnownData(t *testing.T) {
	var r1 [64]byte
	r1[6], r1[7], r1[8] = 0x00, 0x08, 0x80
	r1[9], r1[10], r1[11] = 0x00, 0x08, 0x80

	reports := [][64]byte{r1, r1, r1}
	left, right := AutoCalibrateCenters(reports)
	assert.Equal(t, [2]uint16{0x800, 0x800}, left)
	assert.Equal(t, [2]uint16{0x800, 0x800}, right)
}

func TestAutoCalibrateAverages(t *testing.T) {
	var r1, r2 [64]byte
	r1[6], r1[7], r1[8] = 0x64, 0x80, 0x0C
	r2[6], r2[7], r2[8] = 0xC8, 0x40, 0x06

	left, _ := AutoCalibrateCenters([][64]byte{r1, r2})
	assert.Equal(t, uint16(150), left[0])
	assert.Equal(t, uint16(150), left[1])
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
