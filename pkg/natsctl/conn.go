package natsctl

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/teslashibe/go-callpath/internal/log"
)

// Connection is the part of *nats.Conn the control server uses
type Connection interface {
	Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error)
	Publish(subject string, data []byte) error
	Close()
}

var _ Connection = (*nats.Conn)(nil)

// Connect dials url, retrying a few times while the broker comes up
func Connect(url, name string, attempts int) (*nats.Conn, error) {
	if attempts < 1 {
		attempts = 1
	}

	var nc *nats.Conn
	var err error
	for i := 0; i < attempts; i++ {
		nc, err = nats.Connect(url,
			nats.Name(name),
			nats.MaxReconnects(-1),
			nats.ReconnectWait(2*time.Second),
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				if err != nil {
					log.Warn("nats disconnected", "error", err)
				}
			}),
			nats.ReconnectHandler(func(c *nats.Conn) {
				log.Info("nats reconnected", "url", c.ConnectedUrl())
			}),
		)
		if err == nil {
			break
		}
		log.Warn("nats connect failed", "attempt", i+1, "of", attempts, "error", err)
		if i < attempts-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("natsctl: connect %s after %d attempts: %w", url, attempts, err)
	}

	log.Info("connected to nats", "url", url)
	return nc, nil
}
