package web

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brodyfreeman/nintendo-pi-go/internal/apierror"
	"github.com/brodyfreeman/nintendo-pi-go/internal/macro"
)

func TestParseCommandSimpleTokens(t *testing.T) {
	cmd, err := parseCommand("TOGGLE_MACRO_MODE", nil)
	assert.NoError(t, err)
	assert.Equal(t, macro.ToggleMacroMode, cmd.Kind)
}

func TestParseCommandSelectSlotDecodesData(t *testing.T) {
	cmd, err := parseCommand("SELECT_SLOT", []byte(`{"slot": 3}`))
	assert.NoError(t, err)
	assert.Equal(t, macro.SelectSlot, cmd.Kind)
	assert.Equal(t, 3, cmd.Slot)
}

func TestParseCommandRenameMacro(t *testing.T) {
	cmd, err := parseCommand("RENAME_MACRO", []byte(`{"id": 7, "name": "combo"}`))
	assert.NoError(t, err)
	assert.Equal(t, macro.RenameMacro, cmd.Kind)
	assert.Equal(t, uint32(7), cmd.ID)
	assert.Equal(t, "combo", cmd.Name)
}

func TestParseCommandSetPlaybackSpeed(t *testing.T) {
	cmd, err := parseCommand("SET_PLAYBACK_SPEED", []byte(`{"speed": 2.0}`))
	assert.NoError(t, err)
	assert.Equal(t, macro.SetPlaybackSpeed, cmd.Kind)
	assert.Equal(t, 2.0, cmd.Speed)
}

func TestParseCommandSelectSlotMalformedDataIsBadRequest(t *testing.T) {
	_, err := parseCommand("SELECT_SLOT", []byte(`not json`))
	apiErr, ok := err.(apierror.ApiError)
	assert.True(t, ok)
	assert.Equal(t, 400, apiErr.Status)
}

func TestParseCommandUnknownTokenIsBadRequest(t *testing.T) {
	_, err := parseCommand("NOT_A_COMMAND", nil)
	apiErr, ok := err.(apierror.ApiError)
	assert.True(t, ok)
	assert.Equal(t, 400, apiErr.Status)
}
