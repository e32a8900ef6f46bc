// Package calibration implements the 32-point radial stick calibrator,
// ported from the reference enable_procon2.py StickCalibrator algorithm.
package calibration

import (
	"math"
	"strconv"
	"strings"

	"github.com/brodyfreeman/nintendo-pi-go/internal/wire"
)

// MainStickCal is the hardcoded calibration data for the main (left) stick.
const MainStickCal = "61.28 59.10 59.32 61.42 64.61 60.89 58.93 58.86 57.96 54.91 53.94 55.08 58.76 55.50 52.94 53.47 56.88 54.62 54.06 55.79 59.53 58.33 56.91 58.23 60.40 61.90 61.76 63.32 68.50 63.34 61.14 60.96"

// CStickCal is the hardcoded calibration data for the C (right) stick.
const CStickCal = "54.74 52.52 52.24 54.58 58.28 55.75 54.01 54.52 55.03 53.14 52.31 53.07 56.86 52.77 51.99 52.16 53.86 52.02 51.43 53.31 56.98 53.29 52.09 52.24 55.01 53.96 53.79 56.05 59.98 56.49 54.20 54.46"

// Calibrator holds 32 radial calibration points and a deadzone.
type Calibrator struct {
	radii    [32]float64
	deadzone float64
}

// New parses a whitespace-separated 32-value calibration string.
func New(calibrationStr string, deadzone float64) *Calibrator {
	var radii [32]float64
	fields := strings.Fields(calibrationStr)
	for i, f := range fields {
		if i >= 32 {
			break
		}
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			v = 50.0
		}
		radii[i] = v
	}
	return &Calibrator{radii: radii, deadzone: deadzone}
}

// Calibrate maps a centered stick reading (raw - center), roughly in
// [-2048, 2048], to a radially corrected value in the same raw-count scale
// (about ±2600 at full tilt), or (0, 0) inside the deadzone. Rescale maps
// each output axis to [-100, 100].
func (c *Calibrator) Calibrate(x, y float64) (float64, float64) {
	magnitude := math.Hypot(x, y) / 1.3
	if magnitude < c.deadzone {
		return 0, 0
	}

	angle := math.Atan2(y, x)
	if angle < 0 {
		angle += 2 * math.Pi
	}

	anglePercent := angle / (2 * math.Pi)
	floatIndex := anglePercent * 32.0
	index1 := int(floatIndex) % 32
	index2 := (index1 + 1) % 32
	fraction := floatIndex - math.Floor(floatIndex)

	r1 := c.radii[index1]
	r2 := c.radii[index2]
	calibratedRadiusPct := r1 + (r2-r1)*fraction

	scaleFactor := 100.0 / calibratedRadiusPct
	correctedMagnitude := magnitude * scaleFactor

	return correctedMagnitude * math.Cos(angle), correctedMagnitude * math.Sin(angle)
}

// AutoCalibrateCenters averages raw 12-bit stick readings from up to 20 idle
// USB reports into (left, right) centers, defaulting to (2048, 2048) when no
// reports were collected.
func AutoCalibrateCenters(reports [][64]byte) (left, right [2]uint16) {
	if len(reports) == 0 {
		return [2]uint16{2048, 2048}, [2]uint16{2048, 2048}
	}

	var lxSum, lySum, rxSum, rySum uint64
	for i := range reports {
		parsed := wire.ParseHIDReport(&reports[i])
		lxSum += uint64(parsed.LeftStickRaw[0])
		lySum += uint64(parsed.LeftStickRaw[1])
		rxSum += uint64(parsed.RightStickRaw[0])
		rySum += uint64(parsed.RightStickRaw[1])
	}

	n := uint64(len(reports))
	return [2]uint16{uint16(lxSum / n), uint16(lySum / n)},
		[2]uint16{uint16(rxSum / n), uint16(rySum / n)}
}

// Rescale maps the calibrator's ~[-2600, 2600]-at-full-tilt output down to
// [-100, 100], matching the reference Python implementation's
// max(-100, min(100, int(cal * 100 / 2048))).
func Rescale(v float64) float64 {
	r := v * 100.0 / 2048.0
	if r < -100 {
		return -100
	}
	if r > 100 {
		return 100
	}
	return r
}
