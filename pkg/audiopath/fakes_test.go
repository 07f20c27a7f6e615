package audiopath

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/teslashibe/go-callpath/internal/log"
)

// recorder captures every hardware call in order across all fakes.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	copy(out, r.events)
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// fakeLine records speaker line writes.
type fakeLine struct {
	rec *recorder
	err error
}

func (l *fakeLine) SetValue(value int) error {
	l.rec.add("line:%d", value)
	return l.err
}

// fakeMic records mic notifications.
type fakeMic struct {
	rec *recorder
}

func (m *fakeMic) Switch(sel MicSelection) { m.rec.add("mic-switch:%s", sel) }
func (m *fakeMic) Release()                { m.rec.add("mic-release") }

// rig wires a controller to recording fakes with both backends bound.
type rig struct {
	rec      *recorder
	line     *fakeLine
	backends *Backends
	ctrl     *Controller
	observed []Transition
	obsMu    sync.Mutex
}

func newRig(opts ...Option) *rig {
	r := &rig{rec: &recorder{}}
	r.line = &fakeLine{rec: r.rec}
	r.backends = NewBackends()
	r.backends.BindCodecPathSelect(PathSelectFunc(func(mode CodecMode) {
		r.rec.add("path:%s", mode)
	}))
	r.backends.BindSpeakerAmp(SpeakerAmpFunc(func(on bool) {
		r.rec.add("amp:%t", on)
	}))

	base := []Option{
		WithBackends(r.backends),
		WithMicRouter(&fakeMic{rec: r.rec}),
		WithObserver(ObserverFunc(func(t Transition) {
			r.obsMu.Lock()
			r.observed = append(r.observed, t)
			r.obsMu.Unlock()
		})),
		WithLogger(discard()),
	}
	ctrl, err := Attach(r.line, append(base, opts...)...)
	if err != nil {
		panic(err)
	}
	r.ctrl = ctrl
	return r
}

func (r *rig) transitions() []Transition {
	r.obsMu.Lock()
	defer r.obsMu.Unlock()
	out := make([]Transition, len(r.observed))
	copy(out, r.observed)
	return out
}

func discard() *slog.Logger { return log.Discard() }
