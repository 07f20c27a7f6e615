package audiopath

import "context"

// SpeakerLine is the digital output that enables the speaker amplifier.
// *gpiocdev.Line satisfies it directly.
type SpeakerLine interface {
	SetValue(value int) error
}

// Speaker line levels.
const (
	LineLow  = 0
	LineHigh = 1
)

// MicRouter receives the mic switch and release notifications.
// Implementations must return promptly; the path permit is held.
type MicRouter interface {
	Switch(sel MicSelection)
	Release()
}

// Observer is told about every transition the controller finishes or
// rejects. Observe is called with the permit held, so it must not block.
type Observer interface {
	Observe(t Transition)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(t Transition)

// Observe calls f(t).
func (f ObserverFunc) Observe(t Transition) { f(t) }

// PathSetter changes the active path.
// Use this minimal interface when only mode changes are needed.
type PathSetter interface {
	SetPath(ctx context.Context, p Path) error
	Apply(ctx context.Context, p Path) (Transition, error)
}

// StateReader reports the advisory controller state without blocking.
type StateReader interface {
	Current() Path
	State() State
}

// PowerManager forwards system suspend and resume notifications.
type PowerManager interface {
	Suspend(ctx context.Context) error
	Resume(ctx context.Context) error
}

// Service is the composite surface exported over HTTP and NATS.
type Service interface {
	PathSetter
	StateReader
	PowerManager
}

// Ensure Controller implements Service
var _ Service = (*Controller)(nil)
