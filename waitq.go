package tsync

// waiter is a parked goroutine. It is woken by closing ready, which
// happens at most once and always under the lock that guards its queue.
type waiter struct {
	next  *waiter
	ready chan struct{}
}

// granted reports whether w has been woken. Call with the queue lock held,
// or after the queue lock was released by the waker.
func (w *waiter) granted() bool {
	select {
	case <-w.ready:
		return true
	default:
		return false
	}
}

// waitQueue is a FIFO list of waiters. It is not safe for concurrent use;
// the owner guards it with a CriticalSection.
type waitQueue struct {
	head *waiter
	tail *waiter
	n    int
}

func (q *waitQueue) push() *waiter {
	w := &waiter{ready: make(chan struct{})}
	if q.tail == nil {
		q.head = w
	} else {
		q.tail.next = w
	}
	q.tail = w
	q.n++
	return w
}

// pop removes the oldest waiter, or returns nil when the queue is empty.
func (q *waitQueue) pop() *waiter {
	w := q.head
	if w == nil {
		return nil
	}
	q.head = w.next
	if q.head == nil {
		q.tail = nil
	}
	w.next = nil
	q.n--
	return w
}

// remove unlinks w and reports whether it was still queued.
func (q *waitQueue) remove(w *waiter) bool {
	var prev *waiter
	for cur := q.head; cur != nil; prev, cur = cur, cur.next {
		if cur != w {
			continue
		}
		if prev == nil {
			q.head = cur.next
		} else {
			prev.next = cur.next
		}
		if q.tail == cur {
			q.tail = prev
		}
		cur.next = nil
		q.n--
		return true
	}
	return false
}

func (q *waitQueue) len() int {
	return q.n
}
