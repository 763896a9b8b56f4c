package tsync

import (
	"time"
)

// MessageQueue is an unbounded FIFO queue for passing values between
// goroutines. Receivers block on a Condition until a message is posted.
//
// Usage:
//
//	q, _ := tsync.NewMessageQueue[string]()
//	// producer
//	q.Post("job")
//	// consumer
//	msg, err := q.ReceiveTimeout(time.Second)
type MessageQueue[T any] struct {
	_     noCopy
	mu    *Mutex
	cond  *Condition
	items []T
}

// NewMessageQueue creates an empty queue.
func NewMessageQueue[T any]() (*MessageQueue[T], error) {
	mu, err := NewMutex(MutexDefault)
	if err != nil {
		return nil, err
	}
	cond, err := NewCondition(mu)
	if err != nil {
		return nil, err
	}
	return &MessageQueue[T]{mu: mu, cond: cond}, nil
}

// IsOk reports whether q was successfully created.
func (q *MessageQueue[T]) IsOk() bool {
	return q != nil && q.cond.IsOk()
}

// Post appends msg and wakes one receiver.
func (q *MessageQueue[T]) Post(msg T) error {
	if !q.IsOk() {
		return ErrInvalid
	}
	if err := q.mu.Lock(); err != nil {
		return err
	}
	defer q.mu.Unlock()
	q.items = append(q.items, msg)
	return q.cond.Signal()
}

// Receive blocks until a message is available and removes it.
func (q *MessageQueue[T]) Receive() (T, error) {
	var zero T
	if !q.IsOk() {
		return zero, ErrInvalid
	}
	if err := q.mu.Lock(); err != nil {
		return zero, err
	}
	defer q.mu.Unlock()
	if err := q.cond.WaitFor(q.nonEmpty); err != nil {
		return zero, err
	}
	return q.shift(), nil
}

// ReceiveTimeout is like Receive but gives up with ErrTimeout if no message
// arrives within d.
func (q *MessageQueue[T]) ReceiveTimeout(d time.Duration) (T, error) {
	var zero T
	if !q.IsOk() {
		return zero, ErrInvalid
	}
	if err := q.mu.Lock(); err != nil {
		return zero, err
	}
	defer q.mu.Unlock()
	if err := q.cond.WaitTimeoutFor(d, q.nonEmpty); err != nil {
		return zero, err
	}
	return q.shift(), nil
}

// Clear drops every queued message.
func (q *MessageQueue[T]) Clear() error {
	if !q.IsOk() {
		return ErrInvalid
	}
	if err := q.mu.Lock(); err != nil {
		return err
	}
	defer q.mu.Unlock()
	clear(q.items)
	q.items = q.items[:0]
	return nil
}

// Len returns the number of queued messages.
func (q *MessageQueue[T]) Len() int {
	if !q.IsOk() || q.mu.Lock() != nil {
		return 0
	}
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *MessageQueue[T]) nonEmpty() bool {
	return len(q.items) > 0
}

// shift removes the head. q.mu must be held and the queue non-empty.
func (q *MessageQueue[T]) shift() T {
	msg := q.items[0]
	var zero T
	q.items[0] = zero
	q.items = q.items[1:]
	return msg
}
