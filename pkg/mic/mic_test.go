package mic

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-callpath/pkg/audiopath"
	"github.com/teslashibe/go-callpath/pkg/gpio"
)

func TestLineRouter_Levels(t *testing.T) {
	line := gpio.NewMem(0)
	r := NewLineRouter(line)

	r.Switch(audiopath.MicMain)
	r.Switch(audiopath.MicHeadset)
	assert.Equal(t, []int{LevelMain, LevelHeadset}, line.History())
	assert.False(t, line.Released())

	r.Release()
	assert.True(t, line.Released())
}

func TestLineRouter_ReleasedSelection(t *testing.T) {
	line := gpio.NewMem(1)
	r := NewLineRouter(line)

	r.Switch(audiopath.MicReleased)
	assert.True(t, line.Released())
	assert.Empty(t, line.History())
}

// blockingRouter stalls every Switch until unblocked.
type blockingRouter struct {
	mu      sync.Mutex
	calls   []string
	unblock chan struct{}
}

func (b *blockingRouter) Switch(sel audiopath.MicSelection) {
	<-b.unblock
	b.mu.Lock()
	b.calls = append(b.calls, "switch:"+sel.String())
	b.mu.Unlock()
}

func (b *blockingRouter) Release() {
	<-b.unblock
	b.mu.Lock()
	b.calls = append(b.calls, "release")
	b.mu.Unlock()
}

func (b *blockingRouter) snapshot() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

func TestAsync_DoesNotBlockCaller(t *testing.T) {
	next := &blockingRouter{unblock: make(chan struct{})}
	a := NewAsync(next, 4)

	done := make(chan struct{})
	go func() {
		a.Switch(audiopath.MicMain)
		a.Release()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Async blocked the caller")
	}

	close(next.unblock)
	a.Close()
	assert.Equal(t, []string{"switch:main", "release"}, next.snapshot())
}

func TestAsync_DropsWhenFull(t *testing.T) {
	next := &blockingRouter{unblock: make(chan struct{})}
	a := NewAsync(next, 1)

	// One call may be held by the worker, one fills the queue; the rest drop.
	for i := 0; i < 10; i++ {
		a.Switch(audiopath.MicHeadset)
	}
	require.GreaterOrEqual(t, a.Dropped(), uint64(8))

	close(next.unblock)
	a.Close()
	assert.LessOrEqual(t, len(next.snapshot()), 2)
}

func TestNop(t *testing.T) {
	var r audiopath.MicRouter = Nop{}
	r.Switch(audiopath.MicMain)
	r.Release()
}
