package audiopath

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/teslashibe/go-callpath/internal/log"
)

// StepKind names one hardware action within a transition.
type StepKind string

const (
	StepMicSwitch   StepKind = "mic-switch"
	StepMicRelease  StepKind = "mic-release"
	StepAmpOff      StepKind = "amp-off"
	StepPathSelect  StepKind = "path-select"
	StepSpeakerLine StepKind = "speaker-line"
	StepAmpOn       StepKind = "amp-on"
)

// Step is one hardware action in the order it was performed.
type Step struct {
	Kind    StepKind `json:"kind"`
	Value   string   `json:"value"`
	Skipped bool     `json:"skipped,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// Transition records one SetPath call that obtained the permit.
type Transition struct {
	ID       string        `json:"id"`
	Request  Path          `json:"request"`
	Code     uint8         `json:"code"`
	Action   Action        `json:"action"`
	Steps    []Step        `json:"steps"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
	Error    string        `json:"error,omitempty"`
}

func (t *Transition) step(kind StepKind, value string, skipped bool, err error) {
	s := Step{Kind: kind, Value: value, Skipped: skipped}
	if err != nil {
		s.Error = err.Error()
	}
	t.Steps = append(t.Steps, s)
}

// State is the advisory view of the controller. Reading it never waits
// for the path permit.
type State struct {
	Path            Path   `json:"path"`
	Action          Action `json:"action"`
	Transitions     uint64 `json:"transitions"`
	LastTransition  string `json:"last_transition,omitempty"`
	LastError       string `json:"last_error,omitempty"`
	PathSelectBound bool   `json:"path_select_bound"`
	SpeakerAmpBound bool   `json:"speaker_amp_bound"`
	Suspended       bool   `json:"suspended"`
	Closed          bool   `json:"closed"`
}

// Option configures a Controller at attach time.
type Option func(*Controller)

// WithBackends uses b as the codec backend registry.
func WithBackends(b *Backends) Option {
	return func(c *Controller) {
		if b != nil {
			c.backends = b
		}
	}
}

// WithMicRouter sets the receiver of mic switch and release notifications.
func WithMicRouter(m MicRouter) Option {
	return func(c *Controller) { c.mic = m }
}

// WithObserver registers an observer for completed transitions.
func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observer = o }
}

// WithLogger overrides the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// Controller owns the call-audio path. One Controller exists per device;
// all transitions run one at a time under a single permit.
type Controller struct {
	line     SpeakerLine
	backends *Backends
	mic      MicRouter
	observer Observer
	logger   *slog.Logger

	permit *semaphore.Weighted
	power  *powerQueue

	// powerOp orders Suspend and Resume against each other.
	powerOp *semaphore.Weighted
	closed  atomic.Bool

	stateMu sync.RWMutex
	state   State
}

// Attach binds a controller to the speaker enable line.
// The permit starts free and the advisory path is Off.
func Attach(line SpeakerLine, opts ...Option) (*Controller, error) {
	if line == nil {
		return nil, ErrInvalidLine
	}

	c := &Controller{
		line:     line,
		backends: NewBackends(),
		logger:   log.With("component", "audiopath"),
		permit:   semaphore.NewWeighted(1),
		powerOp:  semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.state.Path = Off
	c.state.Action, _ = Resolve(Off)
	c.power = newPowerQueue()

	pathSelect, speakerAmp := c.backends.Bound()
	c.logger.Info("audio path controller attached",
		"path_select_bound", pathSelect,
		"speaker_amp_bound", speakerAmp,
		"mic_router", c.mic != nil)
	return c, nil
}

// Backends returns the registry so platform code can bind after Attach.
func (c *Controller) Backends() *Backends {
	return c.backends
}

// SetPath switches the call-audio path. It blocks while another
// transition is in flight; if ctx ends first it returns ErrInterrupted
// without touching hardware. Unknown paths return ErrInvalidRequest.
func (c *Controller) SetPath(ctx context.Context, p Path) error {
	_, err := c.Apply(ctx, p)
	return err
}

// Apply is SetPath that also returns the record of the transition it ran.
// The record is zero when the permit was never obtained.
func (c *Controller) Apply(ctx context.Context, p Path) (Transition, error) {
	if c.closed.Load() {
		return Transition{}, ErrClosed
	}
	if err := c.acquire(ctx); err != nil {
		c.logger.Warn("path request interrupted", "request", p.String(), "error", err)
		return Transition{}, err
	}
	defer c.permit.Release(1)

	if c.closed.Load() {
		return Transition{}, ErrClosed
	}

	t := Transition{
		ID:      uuid.NewString(),
		Request: p,
		Code:    uint8(p),
		Started: time.Now(),
	}

	action, ok := Resolve(p)
	if !ok {
		t.Err = fmt.Errorf("%w: code %d", ErrInvalidRequest, uint8(p))
		c.logger.Warn("unknown path request", "code", uint8(p))
		c.finish(&t)
		return t, t.Err
	}

	t.Action = action
	t.Err = c.apply(&t)
	c.finish(&t)
	return t, t.Err
}

// apply sequences the hardware for t.Action. The permit must be held.
func (c *Controller) apply(t *Transition) error {
	pathSelect, speakerAmp := c.backends.snapshot()
	if pathSelect == nil || speakerAmp == nil {
		c.logger.Warn("codec backend missing",
			"path_select_bound", pathSelect != nil,
			"speaker_amp_bound", speakerAmp != nil)
	}

	a := t.Action

	if a.Mic == MicReleased {
		if c.mic != nil {
			c.mic.Release()
		}
		t.step(StepMicRelease, a.Mic.String(), c.mic == nil, nil)
	} else {
		if c.mic != nil {
			c.mic.Switch(a.Mic)
		}
		t.step(StepMicSwitch, a.Mic.String(), c.mic == nil, nil)
	}

	// Close the codec amplifier first when going off to avoid pop noise.
	if a.Codec == CodecOff {
		if speakerAmp != nil {
			speakerAmp.SetSpeakerAmp(false)
		}
		t.step(StepAmpOff, "off", speakerAmp == nil, nil)
	}

	if pathSelect != nil {
		pathSelect.SelectPath(a.Codec)
	}
	t.step(StepPathSelect, a.Codec.String(), pathSelect == nil, nil)

	level := LineLow
	if a.SpeakerEnabled {
		level = LineHigh
	}
	var stepErr error
	if err := c.line.SetValue(level); err != nil {
		stepErr = &StepError{Step: StepSpeakerLine, Path: t.Request, Err: err}
		c.logger.Error("speaker line write failed", "level", level, "error", err)
	}
	t.step(StepSpeakerLine, strconv.Itoa(level), false, stepErr)

	// Open the codec amplifier last to avoid pop noise.
	if a.Codec != CodecOff {
		if speakerAmp != nil {
			speakerAmp.SetSpeakerAmp(true)
		}
		t.step(StepAmpOn, "on", speakerAmp == nil, nil)
	}

	return stepErr
}

// finish records t in the advisory state and notifies the observer.
func (c *Controller) finish(t *Transition) {
	t.Duration = time.Since(t.Started)
	if t.Err != nil {
		t.Error = t.Err.Error()
	}

	applied := t.Err == nil || errors.Is(t.Err, ErrHardware)

	c.stateMu.Lock()
	c.state.Transitions++
	c.state.LastTransition = t.ID
	c.state.LastError = t.Error
	if applied {
		c.state.Path = t.Request
		c.state.Action = t.Action
	}
	c.stateMu.Unlock()

	if applied {
		c.logger.Info("audio path applied",
			"id", t.ID,
			"path", t.Request.String(),
			"codec", t.Action.Codec.String(),
			"mic", t.Action.Mic.String(),
			"speaker", t.Action.SpeakerEnabled,
			"duration", t.Duration)
	}

	if c.observer != nil {
		c.observer.Observe(*t)
	}
}

// Current returns the last applied path. It is advisory only.
func (c *Controller) Current() Path {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state.Path
}

// State returns a snapshot of the advisory state.
func (c *Controller) State() State {
	c.stateMu.RLock()
	s := c.state
	c.stateMu.RUnlock()

	s.PathSelectBound, s.SpeakerAmpBound = c.backends.Bound()
	s.Suspended = c.power.Frozen()
	s.Closed = c.closed.Load()
	return s
}

// Barrier waits until no transition is in flight. It performs no
// hardware action.
func (c *Controller) Barrier(ctx context.Context) error {
	if err := c.acquire(ctx); err != nil {
		return err
	}
	c.permit.Release(1)
	return nil
}

// Suspend drains any in-flight transition through the power queue and
// then freezes the queue. Calling it while suspended is a no-op.
func (c *Controller) Suspend(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if err := c.powerOp.Acquire(ctx, 1); err != nil {
		return interrupted(err)
	}
	defer c.powerOp.Release(1)

	if c.power.Frozen() {
		return nil
	}
	if err := c.power.Do(ctx, c.Barrier); err != nil {
		return interrupted(err)
	}
	c.power.Freeze()
	c.logger.Info("audio path suspended")
	return nil
}

// Resume thaws the power queue and drains through it once more. A Resume
// that arrives while Suspend is still draining waits for it to finish.
func (c *Controller) Resume(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if err := c.powerOp.Acquire(ctx, 1); err != nil {
		return interrupted(err)
	}
	defer c.powerOp.Release(1)

	c.power.Thaw()
	if err := c.power.Do(ctx, c.Barrier); err != nil {
		return interrupted(err)
	}
	c.logger.Info("audio path resumed")
	return nil
}

// Close detaches the controller. It waits for an in-flight transition to
// finish; later calls return ErrClosed.
func (c *Controller) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.power.Thaw()
	c.power.Close()
	if err := c.permit.Acquire(context.Background(), 1); err == nil {
		c.permit.Release(1)
	}
	c.logger.Info("audio path controller detached")
	return nil
}

func (c *Controller) acquire(ctx context.Context) error {
	if err := c.permit.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%w: %w", ErrInterrupted, err)
	}
	return nil
}

func interrupted(err error) error {
	if errors.Is(err, ErrInterrupted) || errors.Is(err, ErrClosed) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrInterrupted, err)
}
