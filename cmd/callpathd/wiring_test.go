package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-callpath/internal/config"
	"github.com/teslashibe/go-callpath/pkg/audiopath"
	"github.com/teslashibe/go-callpath/pkg/codec"
	"github.com/teslashibe/go-callpath/pkg/gpio"
	"github.com/teslashibe/go-callpath/pkg/hub"
)

func TestObservers_NATSOnly(t *testing.T) {
	surfaces := &observers{}
	ctrl, err := audiopath.Attach(gpio.NewMem(1), audiopath.WithObserver(surfaces))
	require.NoError(t, err)
	defer ctrl.Close()

	assert.NotPanics(t, func() {
		require.NoError(t, ctrl.SetPath(context.Background(), audiopath.Speaker))
	})
}

func TestObservers_IdleHubDoesNotFill(t *testing.T) {
	events := hub.New("events")
	surfaces := &observers{events: events}

	for i := 0; i < 300; i++ {
		surfaces.Observe(audiopath.Transition{ID: "t", Request: audiopath.Earpiece})
	}
	assert.Zero(t, events.Dropped())
}

func TestCodecBackend(t *testing.T) {
	cfg := config.Default()

	cfg.Codec.Backend = config.BackendNone
	binder, release, err := codecBackend(cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, binder)
	release()

	cfg.Codec.Backend = config.BackendLog
	binder, _, err = codecBackend(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &codec.Log{}, binder)

	cfg.Codec.Backend = config.BackendNATS
	_, _, err = codecBackend(cfg, nil)
	assert.Error(t, err)

	cfg.Codec.Backend = "alsa"
	_, _, err = codecBackend(cfg, nil)
	assert.Error(t, err)
}

func TestBindCodec_Script(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.lua")
	require.NoError(t, os.WriteFile(path, []byte(`function select_path(mode) end`), 0o644))

	cfg := config.Default()
	cfg.Codec.Backend = config.BackendScript
	cfg.Codec.Script = path

	backends := audiopath.NewBackends()
	release, err := bindCodec(cfg, backends, nil)
	require.NoError(t, err)
	defer release()

	pathSelect, speakerAmp := backends.Bound()
	assert.True(t, pathSelect)
	assert.False(t, speakerAmp)
}
