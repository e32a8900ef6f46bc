package macro

import (
	"encoding/binary"
	"log/slog"
	"math"
	"path/filepath"
	"time"

	"golang.org/x/exp/mmap"
)

// speedSteps is the cycle order CycleSpeed walks through.
var speedSteps = []float64{0.25, 0.5, 1.0, 2.0, 4.0}

// Player is a memory-mapped macro playback engine with timestamp chasing.
type Player struct {
	Playing bool
	Looping bool
	Speed   float64

	reader     *mmap.ReaderAt
	frameCount int
	frameIndex int
	start      time.Time
	lastReport [64]byte
	haveLast   bool
}

// NewPlayer returns an idle player at 1x speed.
func NewPlayer() *Player {
	return &Player{Speed: 1.0}
}

// Load opens a macro by ID from the index, mmap'ing its binary file.
// Returns false if the macro or file is missing or malformed.
func (p *Player) Load(macrosDir string, macroID uint32) bool {
	entry, ok := GetMacroInfo(macrosDir, macroID)
	if !ok {
		slog.Warn("macro not found in index", "id", macroID)
		return false
	}

	full := filepath.Join(macrosDir, entry.Filename)
	p.closeMmap()

	reader, err := mmap.Open(full)
	if err != nil {
		slog.Error("failed to mmap macro file", "file", entry.Filename, "error", err)
		return false
	}

	if reader.Len() < HeaderSize {
		slog.Warn("macro file too small for header")
		reader.Close()
		return false
	}

	var header [HeaderSize]byte
	if _, err := reader.ReadAt(header[:], 0); err != nil {
		slog.Error("failed to read macro header", "error", err)
		reader.Close()
		return false
	}

	magic := [4]byte{header[0], header[1], header[2], header[3]}
	if magic != Magic && magic != MagicV1 {
		slog.Warn("invalid macro magic", "magic", magic)
		reader.Close()
		return false
	}

	frameCount := int(binary.LittleEndian.Uint32(header[8:12]))

	p.reader = reader
	p.frameCount = frameCount
	p.frameIndex = 0
	p.haveLast = false

	slog.Info("loaded macro", "id", macroID, "frames", frameCount)
	return true
}

// Start begins playback. Load must be called first.
func (p *Player) Start(looping bool) bool {
	if p.reader == nil || p.frameCount == 0 {
		return false
	}
	p.Playing = true
	p.Looping = looping
	p.frameIndex = 0
	p.start = time.Now()
	p.haveLast = false
	slog.Info("playback started", "loop", looping)
	return true
}

// Stop halts playback.
func (p *Player) Stop() {
	p.Playing = false
	p.Looping = false
	slog.Info("playback stopped")
}

// CycleSpeed advances Speed to the next step in speedSteps, wrapping.
func (p *Player) CycleSpeed() {
	for i, s := range speedSteps {
		if s == p.Speed {
			p.Speed = speedSteps[(i+1)%len(speedSteps)]
			return
		}
	}
	p.Speed = speedSteps[0]
}

// SetSpeed sets Speed to the step in speedSteps nearest to speed, so values
// below 0.25 or above 4.0 land on those ends.
func (p *Player) SetSpeed(speed float64) {
	best := speedSteps[0]
	for _, s := range speedSteps[1:] {
		if math.Abs(s-speed) < math.Abs(best-speed) {
			best = s
		}
	}
	p.Speed = best
}

// GetFrame returns the current report if its timestamp has been reached, or
// (zero, false) if playback is done or hasn't produced a frame yet.
func (p *Player) GetFrame() ([64]byte, bool) {
	if !p.Playing || p.reader == nil {
		return [64]byte{}, false
	}
	elapsedUs := uint64(float64(time.Since(p.start).Microseconds()) * p.Speed)

	for p.frameIndex < p.frameCount {
		offset := int64(HeaderSize + p.frameIndex*FrameSize)
		if offset+int64(FrameSize) > p.reader.Len() {
			break
		}

		var tsBuf [8]byte
		if _, err := p.reader.ReadAt(tsBuf[:], offset); err != nil {
			break
		}
		tsUs := binary.LittleEndian.Uint64(tsBuf[:])

		if tsUs > elapsedUs {
			break
		}

		var report [64]byte
		if _, err := p.reader.ReadAt(report[:], offset+8); err != nil {
			break
		}
		p.lastReport = report
		p.haveLast = true
		p.frameIndex++
	}

	if p.frameIndex >= p.frameCount {
		if p.Looping {
			p.frameIndex = 0
			p.start = time.Now()
		} else {
			p.Playing = false
			return p.lastReport, p.haveLast
		}
	}

	return p.lastReport, p.haveLast
}

// FrameIndex returns the cursor position into the loaded macro.
func (p *Player) FrameIndex() int { return p.frameIndex }

// FrameCount returns the total number of frames in the loaded macro.
func (p *Player) FrameCount() int { return p.frameCount }

func (p *Player) closeMmap() {
	if p.reader != nil {
		p.reader.Close()
		p.reader = nil
	}
}

// Close stops playback and releases the mmap.
func (p *Player) Close() {
	p.Stop()
	p.closeMmap()
}
