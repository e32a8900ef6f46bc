package macro

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func recordAndSave(t *testing.T, dir string, frames []Frame) uint32 {
	t.Helper()
	id, ok := SaveMacro(dir, frames, "p")
	assert.True(t, ok)
	return id
}

func TestPlayerLoadAndStart(t *testing.T) {
	dir := t.TempDir()
	var report [64]byte
	report[0] = 0xAB
	id := recordAndSave(t, dir, []Frame{{TimestampUs: 0, Report: report}})

	p := NewPlayer()
	assert.True(t, p.Load(dir, id))
	assert.True(t, p.Start(false))
	assert.True(t, p.Playing)
}

func TestPlayerLoadMissingMacro(t *testing.T) {
	dir := t.TempDir()
	p := NewPlayer()
	assert.False(t, p.Load(dir, 999))
}

func TestPlayerStartWithoutLoadFails(t *testing.T) {
	p := NewPlayer()
	assert.False(t, p.Start(false))
}

func TestPlayerGetFrameImmediate(t *testing.T) {
	dir := t.TempDir()
	var report [64]byte
	report[0] = 0x42
	id := recordAndSave(t, dir, []Frame{{TimestampUs: 0, Report: report}})

	p := NewPlayer()
	p.Load(dir, id)
	p.Start(false)

	got, ok := p.GetFrame()
	assert.True(t, ok)
	assert.Equal(t, byte(0x42), got[0])
}

func TestPlayerCycleSpeed(t *testing.T) {
	p := NewPlayer()
	assert.Equal(t, 1.0, p.Speed)
	p.CycleSpeed()
	assert.Equal(t, 2.0, p.Speed)
	p.CycleSpeed()
	assert.Equal(t, 4.0, p.Speed)
	p.CycleSpeed()
	assert.Equal(t, 0.25, p.Speed)
}

func TestPlayerSetSpeedClamped(t *testing.T) {
	p := NewPlayer()
	p.SetSpeed(0.5)
	assert.Equal(t, 0.5, p.Speed)
	p.SetSpeed(100.0)
	assert.Equal(t, 4.0, p.Speed)
	p.SetSpeed(-5.0)
	assert.Equal(t, 0.25, p.Speed)
}

func TestPlayerStopClearsPlaying(t *testing.T) {
	dir := t.TempDir()
	id := recordAndSave(t, dir, []Frame{{TimestampUs: 0}})
	p := NewPlayer()
	p.Load(dir, id)
	p.Start(false)
	p.Stop()
	assert.False(t, p.Playing)
	assert.False(t, p.Looping)
}
