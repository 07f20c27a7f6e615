// callpathd owns the call-audio path of one modem sound device and
// exposes it over HTTP and NATS.
//
// Usage:
//
//	callpathd -config /etc/callpath/callpathd.yaml
//
// SIGUSR1 and SIGUSR2 forward system suspend and resume notifications.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"golang.org/x/sync/errgroup"

	"github.com/teslashibe/go-callpath/internal/config"
	"github.com/teslashibe/go-callpath/internal/log"
	"github.com/teslashibe/go-callpath/pkg/audiopath"
	"github.com/teslashibe/go-callpath/pkg/hub"
	"github.com/teslashibe/go-callpath/pkg/natsctl"
	"github.com/teslashibe/go-callpath/pkg/web"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *debug {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log.Init(cfg.LogLevel)
	log.Info("starting callpathd", "device", cfg.Device, "codec", cfg.Codec.Backend)

	if err := run(cfg); err != nil {
		log.Error("callpathd stopped", "error", err)
		os.Exit(1)
	}
	log.Info("callpathd stopped")
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	speaker, err := openSpeaker(cfg)
	if err != nil {
		return err
	}
	defer speaker.Close()

	micRouter, closeMic, err := openMic(cfg)
	if err != nil {
		return err
	}
	defer closeMic()

	var nc *nats.Conn
	if cfg.NATS.URL != "" {
		nc, err = natsctl.Connect(cfg.NATS.URL, "callpathd-"+cfg.Device, cfg.NATS.ConnectAttempts)
		if err != nil {
			return err
		}
		defer nc.Close()
	}

	backends := audiopath.NewBackends()
	closeCodec, err := bindCodec(cfg, backends, nc)
	if err != nil {
		return err
	}
	defer closeCodec()

	surfaces := &observers{}
	if cfg.HTTP.Addr != "" {
		surfaces.events = hub.New("events")
	}

	ctrl, err := audiopath.Attach(speaker,
		audiopath.WithBackends(backends),
		audiopath.WithMicRouter(micRouter),
		audiopath.WithObserver(surfaces),
	)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	var natsSrv *natsctl.Server
	if nc != nil {
		natsSrv = natsctl.New(nc, ctrl, cfg.Prefix(), natsctl.WithLockTimeout(cfg.LockTimeout))
		surfaces.nats = natsSrv
	}

	g, gctx := errgroup.WithContext(ctx)

	if surfaces.events != nil {
		srv := web.NewServer(ctrl, surfaces.events, web.Config{
			Addr:         cfg.HTTP.Addr,
			LockTimeout:  cfg.LockTimeout,
			AllowOrigins: cfg.HTTP.AllowOrigins,
			AccessLog:    cfg.HTTP.AccessLog,
		})
		g.Go(srv.Start)
		g.Go(func() error {
			<-gctx.Done()
			return srv.Shutdown()
		})
	}

	if natsSrv != nil {
		if err := natsSrv.Start(); err != nil {
			return err
		}
		g.Go(func() error {
			<-gctx.Done()
			natsSrv.Stop()
			return nil
		})
	}

	g.Go(func() error {
		return forwardPowerSignals(gctx, ctrl, cfg.LockTimeout)
	})

	return g.Wait()
}

// forwardPowerSignals maps SIGUSR1 to Suspend and SIGUSR2 to Resume
func forwardPowerSignals(ctx context.Context, pm audiopath.PowerManager, timeout time.Duration) error {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGUSR1, syscall.SIGUSR2)
	defer signal.Stop(sig)

	for {
		select {
		case <-ctx.Done():
			return nil
		case s := <-sig:
			action, fn := "suspend", pm.Suspend
			if s == syscall.SIGUSR2 {
				action, fn = "resume", pm.Resume
			}
			opCtx, cancel := context.WithTimeout(ctx, timeout)
			err := fn(opCtx)
			cancel()
			if err != nil {
				log.Warn("power notification failed", "action", action, "error", err)
				continue
			}
			log.Info("power notification handled", "action", action)
		}
	}
}
