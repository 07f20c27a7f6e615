// Package gpio provides the two-level output lines used for the speaker
// amplifier enable and the microphone selector.
package gpio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

// ErrClosed is returned when writing a closed line.
var ErrClosed = errors.New("gpio: line closed")

// Output is a digital output line. Release hands the line back (high
// impedance) until the next SetValue.
type Output interface {
	SetValue(value int) error
	Value() (int, error)
	Release() error
	Close() error
}

// Ensure both implementations satisfy Output
var (
	_ Output = (*Line)(nil)
	_ Output = (*Mem)(nil)
)

type lineConfig struct {
	consumer  string
	activeLow bool
	initial   int
}

// Option configures a requested line.
type Option func(*lineConfig)

// WithConsumer sets the consumer label shown by gpioinfo.
func WithConsumer(name string) Option {
	return func(c *lineConfig) { c.consumer = name }
}

// WithActiveLow inverts the line so that 1 drives the pin low.
func WithActiveLow(activeLow bool) Option {
	return func(c *lineConfig) { c.activeLow = activeLow }
}

// WithInitial sets the level driven when the line is requested.
func WithInitial(value int) Option {
	return func(c *lineConfig) { c.initial = value }
}

// Line is an output line on a GPIO character device.
type Line struct {
	chip   string
	offset int

	mu       sync.Mutex
	line     *gpiocdev.Line
	released bool
	closed   bool
}

// Open requests offset on chip (e.g. "gpiochip0") as an output.
func Open(chip string, offset int, opts ...Option) (*Line, error) {
	cfg := lineConfig{consumer: "callpath"}
	for _, opt := range opts {
		opt(&cfg)
	}

	reqOpts := []gpiocdev.LineReqOption{
		gpiocdev.WithConsumer(cfg.consumer),
		gpiocdev.AsOutput(cfg.initial),
	}
	if cfg.activeLow {
		reqOpts = append(reqOpts, gpiocdev.AsActiveLow)
	}

	l, err := gpiocdev.RequestLine(chip, offset, reqOpts...)
	if err != nil {
		return nil, fmt.Errorf("gpio: request %s:%d: %w", chip, offset, err)
	}
	return &Line{chip: chip, offset: offset, line: l}, nil
}

// SetValue drives the line. A released line is switched back to output.
func (l *Line) SetValue(value int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}
	if l.released {
		if err := l.line.Reconfigure(gpiocdev.AsOutput(value)); err != nil {
			return fmt.Errorf("gpio: reclaim %s:%d: %w", l.chip, l.offset, err)
		}
		l.released = false
		return nil
	}
	if err := l.line.SetValue(value); err != nil {
		return fmt.Errorf("gpio: set %s:%d: %w", l.chip, l.offset, err)
	}
	return nil
}

// Value reads the current line level.
func (l *Line) Value() (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return 0, ErrClosed
	}
	return l.line.Value()
}

// Release reconfigures the line as an input.
func (l *Line) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}
	if l.released {
		return nil
	}
	if err := l.line.Reconfigure(gpiocdev.AsInput); err != nil {
		return fmt.Errorf("gpio: release %s:%d: %w", l.chip, l.offset, err)
	}
	l.released = true
	return nil
}

// Close returns the line to the kernel.
func (l *Line) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	return l.line.Close()
}

// String identifies the line as chip:offset.
func (l *Line) String() string {
	return fmt.Sprintf("%s:%d", l.chip, l.offset)
}
