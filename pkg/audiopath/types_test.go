package audiopath

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_MappingTable(t *testing.T) {
	tests := []struct {
		path    Path
		codec   CodecMode
		mic     MicSelection
		speaker bool
	}{
		{Earpiece, CodecReceiver, MicMain, false},
		{Speaker, CodecSpeaker, MicMain, true},
		{HeadsetWithMic, CodecHeadset, MicHeadset, false},
		{HeadsetNoMic, CodecHeadset, MicMain, false},
		{Bluetooth, CodecBluetooth, MicReleased, false},
		{Off, CodecOff, MicReleased, true},
	}

	for _, tt := range tests {
		t.Run(tt.path.String(), func(t *testing.T) {
			action, ok := Resolve(tt.path)
			require.True(t, ok)
			assert.Equal(t, tt.codec, action.Codec)
			assert.Equal(t, tt.mic, action.Mic)
			assert.Equal(t, tt.speaker, action.SpeakerEnabled)
		})
	}
}

func TestResolve_Unknown(t *testing.T) {
	_, ok := Resolve(Path(6))
	assert.False(t, ok)
	assert.False(t, Path(6).Valid())
	assert.Equal(t, "path(6)", Path(6).String())
}

func TestParsePath(t *testing.T) {
	for _, p := range Paths() {
		got, err := ParsePath(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}

	got, err := ParsePath("  SPEAKER ")
	require.NoError(t, err)
	assert.Equal(t, Speaker, got)

	got, err = ParsePath("stop")
	require.NoError(t, err)
	assert.Equal(t, Off, got)

	_, err = ParsePath("handsfree")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestPath_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Mode Path `json:"mode"`
	}{HeadsetNoMic})
	require.NoError(t, err)
	assert.JSONEq(t, `{"mode":"headset-nomic"}`, string(data))

	var decoded struct {
		Mode Path `json:"mode"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"mode":"bluetooth"}`), &decoded))
	assert.Equal(t, Bluetooth, decoded.Mode)

	assert.Error(t, json.Unmarshal([]byte(`{"mode":"loud"}`), &decoded))
}

func TestPaths_Complete(t *testing.T) {
	paths := Paths()
	assert.Len(t, paths, 6)
	for _, p := range paths {
		assert.True(t, p.Valid())
	}
	assert.Equal(t, Off, Path(0), "zero value must be off")
}

func TestState_JSONRoundTrip(t *testing.T) {
	action, _ := Resolve(HeadsetWithMic)
	in := State{Path: HeadsetWithMic, Action: action, Transitions: 3, PathSelectBound: true}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"codec":"headset"`)
	assert.Contains(t, string(data), `"mic":"headset"`)

	var out State
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)

	var mode CodecMode
	assert.Error(t, mode.UnmarshalText([]byte("loud")))
	var sel MicSelection
	assert.Error(t, sel.UnmarshalText([]byte("left")))
}
