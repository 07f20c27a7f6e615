// Package mic routes the call microphone between the handset mic and the
// headset mic.
package mic

import (
	"log/slog"

	"github.com/teslashibe/go-callpath/internal/log"
	"github.com/teslashibe/go-callpath/pkg/audiopath"
)

// Selector line levels.
const (
	LevelHeadset = 0
	LevelMain    = 1
)

// Line is the selector output. gpio.Output satisfies it.
type Line interface {
	SetValue(value int) error
	Release() error
}

// LineRouter drives a selector line: headset=0, main=1. Release returns
// the line to high impedance so the modem owns the mic again.
type LineRouter struct {
	line   Line
	logger *slog.Logger
}

// NewLineRouter wraps line.
func NewLineRouter(line Line) *LineRouter {
	return &LineRouter{line: line, logger: log.With("component", "mic")}
}

// Switch routes the mic. MicReleased is treated as Release.
func (r *LineRouter) Switch(sel audiopath.MicSelection) {
	var level int
	switch sel {
	case audiopath.MicHeadset:
		level = LevelHeadset
	case audiopath.MicMain:
		level = LevelMain
	default:
		r.Release()
		return
	}
	if err := r.line.SetValue(level); err != nil {
		r.logger.Warn("mic switch failed", "mic", sel.String(), "error", err)
	}
}

// Release hands the mic back.
func (r *LineRouter) Release() {
	if err := r.line.Release(); err != nil {
		r.logger.Warn("mic release failed", "error", err)
	}
}

// Nop ignores every notification. It matches boards without a mic switch.
type Nop struct{}

func (Nop) Switch(audiopath.MicSelection) {}
func (Nop) Release()                      {}

var (
	_ audiopath.MicRouter = (*LineRouter)(nil)
	_ audiopath.MicRouter = Nop{}
	_ audiopath.MicRouter = (*Async)(nil)
)
