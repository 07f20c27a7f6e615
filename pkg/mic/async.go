package mic

import (
	"log/slog"
	"sync"

	"github.com/teslashibe/go-callpath/internal/log"
	"github.com/teslashibe/go-callpath/pkg/audiopath"
)

// notification is one queued mic call.
type notification struct {
	release bool
	sel     audiopath.MicSelection
}

// Async forwards notifications to a wrapped router from its own goroutine
// so that a slow router never holds up a path transition. When the queue
// is full the notification is dropped.
type Async struct {
	next   audiopath.MicRouter
	queue  chan notification
	done   chan struct{}
	once   sync.Once
	logger *slog.Logger

	mu      sync.Mutex
	dropped uint64
}

// NewAsync starts a forwarder with room for capacity pending calls.
func NewAsync(next audiopath.MicRouter, capacity int) *Async {
	if capacity < 1 {
		capacity = 1
	}
	a := &Async{
		next:   next,
		queue:  make(chan notification, capacity),
		done:   make(chan struct{}),
		logger: log.With("component", "mic"),
	}
	go a.run()
	return a
}

func (a *Async) run() {
	defer close(a.done)
	for n := range a.queue {
		if n.release {
			a.next.Release()
		} else {
			a.next.Switch(n.sel)
		}
	}
}

func (a *Async) enqueue(n notification) {
	select {
	case a.queue <- n:
	default:
		a.mu.Lock()
		a.dropped++
		a.mu.Unlock()
		a.logger.Warn("mic queue full, dropping notification", "release", n.release, "mic", n.sel.String())
	}
}

// Switch queues a switch notification.
func (a *Async) Switch(sel audiopath.MicSelection) {
	a.enqueue(notification{sel: sel})
}

// Release queues a release notification.
func (a *Async) Release() {
	a.enqueue(notification{release: true})
}

// Dropped returns how many notifications were discarded.
func (a *Async) Dropped() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dropped
}

// Close drains pending notifications and stops the forwarder.
// Switch and Release must not be called after Close.
func (a *Async) Close() {
	a.once.Do(func() { close(a.queue) })
	<-a.done
}
