package synth

import "sync"

// ----- Note Events ----- //

type noteOn struct {
	note     int
	velocity float64 // 0-1
}
type noteOff struct {
	note int
}
type choke struct{}

// eventQueue hands note events from control goroutines to the render loop.
// Events queued during one callback period are all applied at the start of
// the next block, in arrival order. Both buffers are pre-allocated; drain
// swaps them so the audio thread never allocates.
type eventQueue struct {
	sync.Mutex
	pending  []interface{}
	draining []interface{}
}

const eventQueueCap = 256

func newEventQueue() *eventQueue {
	return &eventQueue{
		pending:  make([]interface{}, 0, eventQueueCap),
		draining: make([]interface{}, 0, eventQueueCap),
	}
}

func (q *eventQueue) push(event interface{}) {
	q.Lock()
	if len(q.pending) < cap(q.pending) {
		q.pending = append(q.pending, event)
	}
	q.Unlock()
}

// drain returns the queued events; the slice is only valid until the next
// call.
func (q *eventQueue) drain() []interface{} {
	q.Lock()
	q.pending, q.draining = q.draining[:0], q.pending
	q.Unlock()
	return q.draining
}
