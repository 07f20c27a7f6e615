package audiopath

import (
	"context"
	"sync"
)

// powerJob is one unit of deferred power work.
type powerJob struct {
	ctx    context.Context
	fn     func(context.Context) error
	result chan error
}

// powerQueue runs deferred power work on a single worker. It can be frozen
// across system suspend: queued work stalls until the queue is thawed or
// the work's context ends.
type powerQueue struct {
	jobs     chan *powerJob
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	mu     sync.Mutex
	frozen bool
	thawed chan struct{}
}

func newPowerQueue() *powerQueue {
	q := &powerQueue{
		jobs: make(chan *powerJob),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *powerQueue) run() {
	defer close(q.done)
	for {
		select {
		case <-q.stop:
			return
		case job := <-q.jobs:
			q.execute(job)
		}
	}
}

func (q *powerQueue) execute(job *powerJob) {
	for {
		q.mu.Lock()
		frozen, thawed := q.frozen, q.thawed
		q.mu.Unlock()
		if !frozen {
			break
		}
		select {
		case <-thawed:
		case <-job.ctx.Done():
			job.result <- job.ctx.Err()
			return
		case <-q.stop:
			job.result <- ErrClosed
			return
		}
	}
	job.result <- job.fn(job.ctx)
}

// Do queues fn and waits for it to finish or for ctx to end.
func (q *powerQueue) Do(ctx context.Context, fn func(context.Context) error) error {
	job := &powerJob{ctx: ctx, fn: fn, result: make(chan error, 1)}
	select {
	case q.jobs <- job:
	case <-ctx.Done():
		return ctx.Err()
	case <-q.stop:
		return ErrClosed
	}
	select {
	case err := <-job.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Freeze stalls work that has not started yet.
func (q *powerQueue) Freeze() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.frozen {
		q.frozen = true
		q.thawed = make(chan struct{})
	}
}

// Thaw releases stalled work.
func (q *powerQueue) Thaw() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.frozen {
		q.frozen = false
		close(q.thawed)
	}
}

// Frozen reports whether the queue is frozen.
func (q *powerQueue) Frozen() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.frozen
}

// Close stops the worker and waits for it to exit.
func (q *powerQueue) Close() {
	q.stopOnce.Do(func() { close(q.stop) })
	<-q.done
}
