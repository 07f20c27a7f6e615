package audiopath

import "sync"

// PathSelector applies a codec path mode.
type PathSelector interface {
	SelectPath(mode CodecMode)
}

// SpeakerAmplifier switches the codec-side speaker amplifier leg. This is
// separate from the speaker line owned by the controller.
type SpeakerAmplifier interface {
	SetSpeakerAmp(on bool)
}

// PathSelectFunc adapts a function to PathSelector.
type PathSelectFunc func(mode CodecMode)

// SelectPath calls f(mode). A nil f does nothing.
func (f PathSelectFunc) SelectPath(mode CodecMode) {
	if f != nil {
		f(mode)
	}
}

// SpeakerAmpFunc adapts a function to SpeakerAmplifier.
type SpeakerAmpFunc func(on bool)

// SetSpeakerAmp calls f(on). A nil f does nothing.
func (f SpeakerAmpFunc) SetSpeakerAmp(on bool) {
	if f != nil {
		f(on)
	}
}

// Backends holds the two optional codec slots. Both start unbound.
// Platform setup binds them at attach time; a later bind overwrites.
type Backends struct {
	mu         sync.RWMutex
	pathSelect PathSelector
	speakerAmp SpeakerAmplifier
}

// NewBackends returns an empty registry.
func NewBackends() *Backends {
	return &Backends{}
}

// BindCodecPathSelect registers the codec path-select backend.
// Passing nil, or a nil PathSelectFunc, unbinds the slot.
func (b *Backends) BindCodecPathSelect(s PathSelector) {
	if f, ok := s.(PathSelectFunc); ok && f == nil {
		s = nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pathSelect = s
}

// BindSpeakerAmp registers the codec speaker amplifier backend.
// Passing nil, or a nil SpeakerAmpFunc, unbinds the slot.
func (b *Backends) BindSpeakerAmp(a SpeakerAmplifier) {
	if f, ok := a.(SpeakerAmpFunc); ok && f == nil {
		a = nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.speakerAmp = a
}

// Bound reports which slots currently hold a backend.
func (b *Backends) Bound() (pathSelect, speakerAmp bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.pathSelect != nil, b.speakerAmp != nil
}

// snapshot returns both slots as one consistent pair.
func (b *Backends) snapshot() (PathSelector, SpeakerAmplifier) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.pathSelect, b.speakerAmp
}
