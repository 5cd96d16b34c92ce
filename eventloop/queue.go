// Package eventloop queues funcs from other goroutines to run on a GUI
// event loop that blocks waiting for window events.
package eventloop

import "sync"

// Queue holds funcs until the loop drains them. Posting after Close is a no-op.
type Queue struct {
	funcs chan func()
	wake  func()

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
	once   sync.Once
}

// New returns a queue holding up to size funcs. wake is called after each
// post to interrupt the loop's wait, and is never called after Close returns.
func New(size int, wake func()) *Queue {
	return &Queue{
		funcs: make(chan func(), size),
		wake:  wake,
		done:  make(chan struct{}),
	}
}

// Post queues f, blocking while the queue is full. It reports whether f was
// queued.
func (q *Queue) Post(f func()) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return false
	}

	select {
	case q.funcs <- f:
	case <-q.done:
		return false
	}
	q.wakeLocked()
	return true
}

// Wake interrupts the loop's wait unless the queue is closed.
func (q *Queue) Wake() {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if !q.closed {
		q.wakeLocked()
	}
}

func (q *Queue) wakeLocked() {
	if q.wake != nil {
		q.wake()
	}
}

// Run calls every queued func and returns once the queue is empty.
func (q *Queue) Run() {
	for {
		select {
		case f := <-q.funcs:
			f()
		default:
			return
		}
	}
}

// Close releases blocked posters and stops further posts and wakes. It must
// be called before the loop's window system is torn down.
func (q *Queue) Close() {
	q.once.Do(func() {
		close(q.done)
		q.mu.Lock()
		q.closed = true
		q.mu.Unlock()
	})
}
