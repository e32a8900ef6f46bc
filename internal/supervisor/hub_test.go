package supervisor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brodyfreeman/nintendo-pi-go/internal/macro"
)

func TestNewHubDefaultsToNoOpRawLogger(t *testing.T) {
	h := NewHub(t.TempDir(), nil)
	assert.NotNil(t, h.RawLog)
	assert.NotPanics(t, func() { h.RawLog.Log(true, []byte{1, 2, 3}) })
}

func TestNotifyMacroListChangedIsNonBlocking(t *testing.T) {
	h := NewHub(t.TempDir(), nil)
	h.notifyMacroListChanged()
	h.notifyMacroListChanged() // second signal must not block on a full channel

	select {
	case <-h.MacroEvents:
	default:
		t.Fatal("expected a pending macro event")
	}
}

func TestDrainCommandsEmptiesChannel(t *testing.T) {
	ch := make(chan macro.Command, 4)
	ch <- macro.Command{Kind: macro.PlayMacro}
	ch <- macro.Command{Kind: macro.StopPlayback}

	drainCommands(ch)

	select {
	case cmd := <-ch:
		t.Fatalf("expected channel to be empty, got %+v", cmd)
	default:
	}
}
