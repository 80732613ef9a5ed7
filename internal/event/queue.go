package event

import "sync"

// asyncEmit is one deferred emit waiting for the dispatch worker.
type asyncEmit struct {
	event Name
	data  any
}

// emitQueue is a thread-safe FIFO queue for deferred emits.
//
// The queue is unbounded so bursts of EmitAsync calls never block the
// caller; relative order is the order of submission, which is the
// ordering guarantee EmitAsync makes.
//
// The queue uses a channel for signaling so the worker can wait without
// spinning and still observe Close.
type emitQueue struct {
	mu     sync.Mutex
	emits  []asyncEmit
	closed bool
	signal chan struct{} // Signals emit availability (buffered, size 1)
}

func newEmitQueue() *emitQueue {
	return &emitQueue{
		emits:  make([]asyncEmit, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds an emit to the back of the queue.
// Thread-safe: may be called from any goroutine, including listener
// callbacks running inside a dispatch pass.
// Returns false if the queue is closed.
func (q *emitQueue) Enqueue(e asyncEmit) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.emits = append(q.emits, e)

	// Non-blocking signal - buffer of 1 coalesces multiple signals
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue attempts to dequeue without blocking.
// Returns (asyncEmit{}, false) if the queue is empty.
func (q *emitQueue) TryDequeue() (asyncEmit, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.emits) == 0 {
		return asyncEmit{}, false
	}

	e := q.emits[0]

	// Nil out the slot so the buffered data is collectable.
	q.emits[0] = asyncEmit{}

	if len(q.emits) == 1 {
		q.emits = q.emits[:0]
	} else {
		q.emits = q.emits[1:]
	}

	return e, true
}

// Wait returns a channel that signals when emits may be available.
func (q *emitQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *emitQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.emits)
}

// Close signals that no more emits will be enqueued.
// Wakes the worker by closing the signal channel.
func (q *emitQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
