package codec

import (
	"log/slog"

	"github.com/teslashibe/go-callpath/internal/log"
	"github.com/teslashibe/go-callpath/pkg/audiopath"
)

// Log is a dry-run backend that only logs what it is asked to do.
type Log struct {
	logger *slog.Logger
}

// NewLog creates a dry-run backend.
func NewLog() *Log {
	return &Log{logger: log.With("component", "codec", "backend", "log")}
}

func (l *Log) SelectPath(mode audiopath.CodecMode) {
	l.logger.Info("codec path select", "mode", mode.String())
}

func (l *Log) SetSpeakerAmp(on bool) {
	l.logger.Info("codec speaker amp", "on", on)
}

// Bind installs both slots.
func (l *Log) Bind(b *audiopath.Backends) {
	b.BindCodecPathSelect(l)
	b.BindSpeakerAmp(l)
}
