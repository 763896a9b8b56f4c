package tsync

import (
	"errors"
	"time"

	"github.com/llxisdsh/tsync/internal/opt"
)

// emulatedCond is a condition variable built from a counting Semaphore and
// a waiterRegistry.
//
// A native condition variable couples "release the mutex" with "enter the
// wait queue". Here registration happens first, under the registry lock,
// and the mutex is released afterwards; Signal and Broadcast consult only
// the registry, so a signal sent after registration finds the waiter even
// if it has not reached the semaphore yet. The permit it posts waits in the
// semaphore until the waiter arrives.
//
// Each wait is a small state machine:
//
//	registering -> released -> blocked -> reacquiring -> reconciling
//
// and reconciling decides who deregisters the waiter: the poster (woken),
// or the waiter itself (error or timeout). A timed-out waiter leaves the
// semaphore queue and deregisters under the registry lock in one step, so a
// Signal or Broadcast either hands it a permit or does not count it.
//
// Between releasing the mutex and queueing on the semaphore a waiter is
// registered but not parked. A permit posted for it sits in the semaphore
// count meanwhile, and a goroutine that registered later may take it first;
// the slower waiter then keeps its registration and waits for the next
// wakeup. Accounting stays exact, but such a Broadcast can wake a waiter
// that registered after it started.
type emulatedCond struct {
	sem      *Semaphore
	_        opt.Pad_
	registry waiterRegistry
}

func newEmulatedCond() (*emulatedCond, error) {
	sem, err := NewSemaphore(0, 0)
	if err != nil {
		return nil, err
	}
	return &emulatedCond{sem: sem}, nil
}

func (c *emulatedCond) wait(m *Mutex) error {
	return c.block(m, func() error { return c.sem.Wait() })
}

func (c *emulatedCond) waitTimeout(m *Mutex, d time.Duration) error {
	return c.block(m, func() error {
		return c.sem.waitTimeoutUnder(d, &c.registry.mu, c.registry.deregisterLocked)
	})
}

func (c *emulatedCond) block(m *Mutex, park func() error) error {
	c.registry.register()
	if err := m.Unlock(); err != nil {
		// A Signal may already have posted for us; reclaim settles the
		// count either way.
		c.registry.reclaim(c.sem)
		return err
	}

	err := park()

	// The caller owns the mutex again on return, whatever park reported.
	lerr := m.Lock()
	if lerr != nil {
		lg().Warn("tsync: condition could not reacquire its mutex", "err", lerr)
	}

	switch {
	case err == nil:
		// The poster deregistered us.
	case errors.Is(err, ErrTimeout):
		// Deregistered while withdrawing from the semaphore.
	default:
		c.registry.deregister()
		lg().Warn("tsync: condition semaphore wait failed", "err", err)
		err = miscError("wait", err)
	}
	if err == nil {
		err = lerr
	}
	return err
}

func (c *emulatedCond) signal() error {
	return c.registry.wake(c.sem, false)
}

func (c *emulatedCond) broadcast() error {
	return c.registry.wake(c.sem, true)
}

func (c *emulatedCond) waiters() int {
	return c.registry.waiters()
}
