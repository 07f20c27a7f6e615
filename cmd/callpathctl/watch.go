package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-callpath/pkg/protocol"
)

// eventsURL turns an HTTP base URL into the websocket events URL
func eventsURL(base string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http", "":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path += "/ws/events"
	return u.String(), nil
}

// watch prints one line per event until ctx ends or the server closes
func watch(ctx context.Context, base string) error {
	target, err := eventsURL(base)
	if err != nil {
		return err
	}

	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, _, err := dialer.DialContext(ctx, target, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", target, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return err
		}
		msg, err := protocol.ParseMessage(data)
		if err != nil {
			fmt.Fprintln(os.Stderr, "skipping malformed event:", err)
			continue
		}
		fmt.Println(formatEvent(msg))
	}
}

// formatEvent renders an event as a single line
func formatEvent(msg *protocol.Message) string {
	ts := time.UnixMilli(msg.Timestamp).Format("15:04:05.000")

	switch msg.Type {
	case protocol.TypeTransition:
		var t struct {
			ID      string `json:"id"`
			Request string `json:"request"`
			Error   string `json:"error"`
			Steps   []struct {
				Kind    string `json:"kind"`
				Skipped bool   `json:"skipped"`
			} `json:"steps"`
		}
		if err := msg.ParseData(&t); err != nil {
			break
		}
		steps := make([]string, 0, len(t.Steps))
		for _, s := range t.Steps {
			if s.Skipped {
				steps = append(steps, s.Kind+"(skipped)")
				continue
			}
			steps = append(steps, s.Kind)
		}
		line := fmt.Sprintf("%s transition %s %s [%s]", ts, t.ID, t.Request, strings.Join(steps, " "))
		if t.Error != "" {
			line += " error: " + t.Error
		}
		return line

	case protocol.TypePower:
		var ev protocol.PowerEvent
		if err := msg.ParseData(&ev); err != nil {
			break
		}
		return fmt.Sprintf("%s power %s status=%d %s", ts, ev.Action, ev.Status, ev.Error)

	case protocol.TypeState:
		var s struct {
			Path      string `json:"path"`
			Suspended bool   `json:"suspended"`
		}
		if err := msg.ParseData(&s); err != nil {
			break
		}
		return fmt.Sprintf("%s state path=%s suspended=%t", ts, s.Path, s.Suspended)
	}
	return fmt.Sprintf("%s %s %s", ts, msg.Type, msg.Data)
}
