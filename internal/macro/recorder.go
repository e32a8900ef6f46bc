package macro

import (
	"log/slog"
	"time"
)

// Recorder accumulates timestamped HID frames in memory while recording.
type Recorder struct {
	Recording bool
	frames    []Frame
	start     time.Time
}

// NewRecorder returns an idle recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Start clears any prior frames and begins recording.
func (r *Recorder) Start() {
	r.frames = r.frames[:0]
	r.start = time.Now()
	r.Recording = true
	slog.Info("recording started")
}

// AddFrame appends a raw 64-byte HID report with its elapsed timestamp.
// No-op when not recording.
func (r *Recorder) AddFrame(rawReport [64]byte) {
	if !r.Recording {
		return
	}
	elapsedUs := uint64(time.Since(r.start).Microseconds())
	r.frames = append(r.frames, Frame{TimestampUs: elapsedUs, Report: rawReport})
}

// Stop ends recording and returns (frameCount, durationUs).
func (r *Recorder) Stop() (int, uint64) {
	r.Recording = false
	frameCount := len(r.frames)
	var durationUs uint64
	if frameCount > 0 {
		durationUs = r.frames[frameCount-1].TimestampUs
	}
	slog.Info("recording stopped", "frames", frameCount, "duration_ms", durationUs/1000)
	return frameCount, durationUs
}

// Save writes the recorded frames to disk and clears them, returning the
// new macro ID.
func (r *Recorder) Save(macrosDir string, name string) (uint32, bool) {
	id, ok := SaveMacro(macrosDir, r.frames, name)
	r.frames = r.frames[:0]
	return id, ok
}
