package engine

import (
	"sync"

	"github.com/lorehaven/recap/internal/logger"
)

// DeliveryQueue is the FIFO queue of deferred callback invocations.
// Background tasks only enqueue; the host's pump is the sole consumer, so
// callback bodies always execute on the consumer's goroutine.
type DeliveryQueue struct {
	actions []func()
	log     *logger.Logger
	onPanic func(recovered interface{})
	mu      sync.Mutex
}

// NewDeliveryQueue creates an empty queue.
func NewDeliveryQueue(log *logger.Logger) *DeliveryQueue {
	if log == nil {
		log = logger.GetLogger("queue")
	}
	return &DeliveryQueue{log: log}
}

// SetPanicHandler installs a hook invoked after a recovered callback panic.
// Call before the first Drain.
func (q *DeliveryQueue) SetPanicHandler(fn func(recovered interface{})) {
	q.onPanic = fn
}

// Enqueue appends an action.
func (q *DeliveryQueue) Enqueue(action func()) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.actions = append(q.actions, action)
}

// Drain pops up to maxCount actions in FIFO order and invokes each outside
// the queue's lock. A panicking action is logged and does not stop the
// rest of the batch. It returns the number of actions invoked.
func (q *DeliveryQueue) Drain(maxCount int) int {
	if maxCount <= 0 {
		return 0
	}

	q.mu.Lock()
	n := maxCount
	if n > len(q.actions) {
		n = len(q.actions)
	}
	batch := q.actions[:n]
	q.actions = q.actions[n:]
	q.mu.Unlock()

	for _, action := range batch {
		q.invoke(action)
	}
	return len(batch)
}

func (q *DeliveryQueue) invoke(action func()) {
	defer func() {
		if r := recover(); r != nil {
			q.log.Error("Callback panicked during delivery: %v", r)
			if q.onPanic != nil {
				q.onPanic(r)
			}
		}
	}()
	action()
}

// Clear discards all queued actions.
func (q *DeliveryQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.actions = nil
}

// Len returns the number of queued actions.
func (q *DeliveryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.actions)
}
