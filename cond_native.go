package tsync

import (
	"time"
)

// nativeCond is a notify-list condition variable: every waiter parks on its
// own channel, Signal closes the oldest one and Broadcast closes them all.
// Enqueueing happens before the mutex is released, so no wakeup is lost.
type nativeCond struct {
	mu CriticalSection
	q  waitQueue
}

func (c *nativeCond) wait(m *Mutex) error {
	c.mu.Enter()
	w := c.q.push()
	c.mu.Leave()

	if err := m.Unlock(); err != nil {
		c.cancel(w)
		return err
	}
	<-w.ready
	return m.Lock()
}

func (c *nativeCond) waitTimeout(m *Mutex, d time.Duration) error {
	c.mu.Enter()
	w := c.q.push()
	c.mu.Leave()

	if err := m.Unlock(); err != nil {
		c.cancel(w)
		return err
	}

	var err error
	if d > 0 {
		t := time.NewTimer(d)
		select {
		case <-w.ready:
		case <-t.C:
			err = c.expire(w)
		}
		t.Stop()
	} else {
		err = c.expire(w)
	}

	if lerr := m.Lock(); lerr != nil {
		lg().Warn("tsync: condition could not reacquire its mutex", "err", lerr)
		if err == nil {
			err = lerr
		}
	}
	return err
}

// expire removes a timed-out waiter, unless a wakeup reached it first.
func (c *nativeCond) expire(w *waiter) error {
	c.mu.Enter()
	defer c.mu.Leave()
	if w.granted() {
		return nil
	}
	c.q.remove(w)
	return ErrTimeout
}

// cancel withdraws w after the caller failed to release the mutex. A
// wakeup that already reached w is passed on to the next waiter.
func (c *nativeCond) cancel(w *waiter) {
	c.mu.Enter()
	defer c.mu.Leave()
	if c.q.remove(w) {
		return
	}
	if next := c.q.pop(); next != nil {
		close(next.ready)
	}
}

func (c *nativeCond) signal() error {
	c.mu.Enter()
	defer c.mu.Leave()
	if w := c.q.pop(); w != nil {
		close(w.ready)
	}
	return nil
}

func (c *nativeCond) broadcast() error {
	c.mu.Enter()
	defer c.mu.Leave()
	for w := c.q.pop(); w != nil; w = c.q.pop() {
		close(w.ready)
	}
	return nil
}

func (c *nativeCond) waiters() int {
	c.mu.Enter()
	defer c.mu.Leave()
	return c.q.len()
}
