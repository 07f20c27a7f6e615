package main

import (
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/teslashibe/go-callpath/internal/config"
	"github.com/teslashibe/go-callpath/internal/log"
	"github.com/teslashibe/go-callpath/pkg/audiopath"
	"github.com/teslashibe/go-callpath/pkg/codec"
	"github.com/teslashibe/go-callpath/pkg/gpio"
	"github.com/teslashibe/go-callpath/pkg/hub"
	"github.com/teslashibe/go-callpath/pkg/mic"
	"github.com/teslashibe/go-callpath/pkg/natsctl"
)

// openSpeaker requests the speaker enable line. It starts high, matching
// the Off path.
func openSpeaker(cfg config.Config) (gpio.Output, error) {
	if cfg.GPIO.Chip == "" {
		log.Warn("no gpio chip configured, using in-memory speaker line")
		return gpio.NewMem(audiopath.LineHigh), nil
	}
	return gpio.Open(cfg.GPIO.Chip, cfg.GPIO.SpeakerLine,
		gpio.WithConsumer("callpath-speaker"),
		gpio.WithActiveLow(cfg.GPIO.SpeakerActiveLow),
		gpio.WithInitial(audiopath.LineHigh),
	)
}

// openMic builds the mic router. The returned func releases it.
func openMic(cfg config.Config) (audiopath.MicRouter, func(), error) {
	if cfg.Mic.Line < 0 {
		return mic.Nop{}, func() {}, nil
	}

	var out gpio.Output
	if cfg.GPIO.Chip == "" {
		out = gpio.NewMem(mic.LevelMain)
	} else {
		line, err := gpio.Open(cfg.GPIO.Chip, cfg.Mic.Line,
			gpio.WithConsumer("callpath-mic"),
			gpio.WithActiveLow(cfg.Mic.ActiveLow),
			gpio.WithInitial(mic.LevelMain),
		)
		if err != nil {
			return nil, nil, err
		}
		out = line
	}

	router := mic.NewLineRouter(out)
	if !cfg.Mic.Async {
		return router, func() { out.Close() }, nil
	}

	async := mic.NewAsync(router, cfg.Mic.Queue)
	return async, func() {
		async.Close()
		if n := async.Dropped(); n > 0 {
			log.Warn("mic notifications dropped", "count", n)
		}
		out.Close()
	}, nil
}

// bindCodec installs the configured codec backend. The returned func
// releases it.
func bindCodec(cfg config.Config, b *audiopath.Backends, nc *nats.Conn) (func(), error) {
	binder, release, err := codecBackend(cfg, nc)
	if err != nil {
		return nil, err
	}
	if binder == nil {
		log.Warn("no codec backend bound, path select and speaker amp are skipped")
		return release, nil
	}
	binder.Bind(b)
	return release, nil
}

// codecBackend builds the backend named by cfg. A nil Binder means none.
func codecBackend(cfg config.Config, nc *nats.Conn) (codec.Binder, func(), error) {
	switch cfg.Codec.Backend {
	case config.BackendNone:
		return nil, func() {}, nil

	case config.BackendLog:
		return codec.NewLog(), func() {}, nil

	case config.BackendNATS:
		if nc == nil {
			return nil, nil, fmt.Errorf("codec backend nats needs a nats connection")
		}
		return codec.NewNATS(nc, cfg.Prefix()), func() {}, nil

	case config.BackendScript:
		script, err := codec.LoadScriptFile(cfg.Codec.Script, codec.NewAmixer(cfg.Codec.Card))
		if err != nil {
			return nil, nil, err
		}
		log.Info("codec script loaded",
			"script", cfg.Codec.Script,
			"select_path", script.HasSelectPath(),
			"set_speaker", script.HasSetSpeaker())
		return script, script.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown codec backend %q", cfg.Codec.Backend)
	}
}

// observers fans transitions out to the event surfaces that are enabled
type observers struct {
	events *hub.Hub
	nats   *natsctl.Server
}

func (o *observers) Observe(t audiopath.Transition) {
	if o.events != nil {
		o.events.Observe(t)
	}
	if o.nats != nil {
		o.nats.Observe(t)
	}
}

var _ audiopath.Observer = (*observers)(nil)
