// ABOUTME: Unbounded ordered event queue for media elements
// ABOUTME: Lets element methods emit events without blocking on the consumer
package media

import (
	"sync"

	"github.com/harperreed/clipchat/internal/playback"
)

// eventQueue forwards events to a channel in order, buffering without bound
// so emitters never block while holding their own locks.
type eventQueue struct {
	mu      sync.Mutex
	pending []playback.Event
	wake    chan struct{}
	out     chan playback.Event
	done    chan struct{}
	closed  bool
}

func newEventQueue() *eventQueue {
	q := &eventQueue{
		wake: make(chan struct{}, 1),
		out:  make(chan playback.Event),
		done: make(chan struct{}),
	}
	go q.pump()
	return q
}

// push appends an event; dropped after close
func (q *eventQueue) push(ev playback.Event) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.pending = append(q.pending, ev)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// events returns the consumer side
func (q *eventQueue) events() <-chan playback.Event {
	return q.out
}

// close stops the pump and closes the output channel
func (q *eventQueue) close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()
	close(q.done)
}

func (q *eventQueue) pump() {
	defer close(q.out)

	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.mu.Unlock()
			select {
			case <-q.wake:
				continue
			case <-q.done:
				return
			}
		}
		ev := q.pending[0]
		q.pending = q.pending[1:]
		q.mu.Unlock()

		select {
		case q.out <- ev:
		case <-q.done:
			return
		}
	}
}
