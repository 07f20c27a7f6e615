package codec

import (
	"encoding/json"
	"log/slog"

	"github.com/teslashibe/go-callpath/internal/log"
	"github.com/teslashibe/go-callpath/pkg/audiopath"
	"github.com/teslashibe/go-callpath/pkg/protocol"
)

// Publisher is the part of *nats.Conn the NATS backend needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATS publishes codec commands for a codec daemon on another process or
// board. Delivery is fire-and-forget; publish failures are logged.
type NATS struct {
	pub    Publisher
	prefix string
	logger *slog.Logger
}

// NewNATS creates a backend publishing under prefix, e.g. "callpath.modem0".
func NewNATS(pub Publisher, prefix string) *NATS {
	return &NATS{
		pub:    pub,
		prefix: prefix,
		logger: log.With("component", "codec", "backend", "nats"),
	}
}

// PathSubject is where path-select commands are published.
func (n *NATS) PathSubject() string { return protocol.CodecPathSubject(n.prefix) }

// AmpSubject is where speaker amplifier commands are published.
func (n *NATS) AmpSubject() string { return protocol.CodecAmpSubject(n.prefix) }

// SelectPath publishes a CodecPathCommand.
func (n *NATS) SelectPath(mode audiopath.CodecMode) {
	n.publish(n.PathSubject(), protocol.CodecPathCommand{Mode: mode})
}

// SetSpeakerAmp publishes a SpeakerAmpCommand.
func (n *NATS) SetSpeakerAmp(on bool) {
	n.publish(n.AmpSubject(), protocol.SpeakerAmpCommand{On: on})
}

// Bind installs both slots.
func (n *NATS) Bind(b *audiopath.Backends) {
	b.BindCodecPathSelect(n)
	b.BindSpeakerAmp(n)
}

func (n *NATS) publish(subject string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		n.logger.Error("encode codec command", "subject", subject, "error", err)
		return
	}
	if err := n.pub.Publish(subject, data); err != nil {
		n.logger.Warn("publish codec command", "subject", subject, "error", err)
	}
}
