// callpathctl is a command-line client for callpathd.
//
// Usage:
//
//	callpathctl [-addr http://host:8380 | -nats nats://host:4222] <command> [args]
//
// Commands:
//
//	modes            list the path modes
//	get              print the controller state
//	set <mode>       switch the path (name or numeric code)
//	suspend          forward a suspend notification
//	resume           forward a resume notification
//	watch            stream transition events (HTTP only)
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teslashibe/go-callpath/internal/config"
	"github.com/teslashibe/go-callpath/pkg/protocol"
)

func main() {
	addr := flag.String("addr", getenv("CALLPATH_URL", "http://localhost"+config.DefaultHTTPAddr), "callpathd HTTP base URL")
	natsURL := flag.String("nats", "", "Use NATS request/reply at this URL instead of HTTP")
	prefix := flag.String("prefix", protocol.DefaultSubjectPrefix, "NATS subject prefix")
	timeout := flag.Duration("timeout", 5*time.Second, "Request timeout")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd, args := flag.Arg(0), flag.Args()[1:]

	if cmd == "watch" {
		if err := watch(ctx, *addr); err != nil {
			fail(err)
		}
		return
	}

	var client controlClient
	if *natsURL != "" {
		nc, err := newNATSClient(*natsURL, *prefix, *timeout)
		if err != nil {
			fail(err)
		}
		defer nc.Close()
		client = nc
	} else {
		client = newHTTPClient(*addr, *timeout)
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	var (
		resp protocol.Response
		err  error
	)
	switch cmd {
	case "modes":
		printJSON(protocol.Modes())
		return
	case "get":
		resp, err = client.Get(ctx)
	case "set":
		if len(args) != 1 {
			usage()
			os.Exit(2)
		}
		resp, err = client.Set(ctx, args[0])
	case "suspend":
		resp, err = client.Suspend(ctx)
	case "resume":
		resp, err = client.Resume(ctx)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		usage()
		os.Exit(2)
	}
	if err != nil {
		fail(err)
	}

	printJSON(resp)
	if resp.Status != protocol.StatusOK {
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [flags] modes|get|set <mode>|suspend|resume|watch\n", os.Args[0])
	flag.PrintDefaults()
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "callpathctl:", err)
	os.Exit(1)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
