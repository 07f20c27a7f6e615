package gpio

import "sync"

// Mem is an in-memory output line. The daemon uses it when no GPIO chip
// is configured; tests use it to observe writes.
type Mem struct {
	mu       sync.Mutex
	value    int
	history  []int
	released bool
	closed   bool
	err      error
}

// NewMem creates a line holding initial.
func NewMem(initial int) *Mem {
	return &Mem{value: initial}
}

// SetError makes every later SetValue fail with err. nil clears it.
func (m *Mem) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetValue records value.
func (m *Mem) SetValue(value int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if m.err != nil {
		return m.err
	}
	m.value = value
	m.released = false
	m.history = append(m.history, value)
	return nil
}

// Value returns the last written level.
func (m *Mem) Value() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrClosed
	}
	return m.value, nil
}

// Release marks the line released.
func (m *Mem) Release() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.released = true
	return nil
}

// Released reports whether the line is currently released.
func (m *Mem) Released() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.released
}

// History returns every value written so far.
func (m *Mem) History() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int, len(m.history))
	copy(out, m.history)
	return out
}

// Close marks the line closed.
func (m *Mem) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
