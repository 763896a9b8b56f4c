package tsync

import (
	"errors"
	"time"

	"github.com/llxisdsh/tsync/internal/opt"
)

// ConditionBackend selects how a Condition parks its waiters.
type ConditionBackend uint8

const (
	// Emulated builds the condition from one counting Semaphore and a
	// waiter registry, for platforms without a native condition variable.
	Emulated ConditionBackend = iota
	// Native parks each waiter on its own channel in a FIFO notify list,
	// the way the Go runtime implements sync.Cond.
	Native
)

// DefaultConditionBackend is the backend used by NewCondition.
// Build with -tags=tsync_native_cond to make it Native.
const DefaultConditionBackend = ConditionBackend(opt.CondBackend_)

func (b ConditionBackend) String() string {
	switch b {
	case Emulated:
		return "emulated"
	case Native:
		return "native"
	default:
		return "invalid"
	}
}

// condBackend is the contract both backends implement. m is held by the
// caller on entry of wait/waitTimeout and on every return that got past
// releasing it.
type condBackend interface {
	wait(m *Mutex) error
	waitTimeout(m *Mutex, d time.Duration) error
	signal() error
	broadcast() error
	waiters() int
}

// Condition is a condition variable associated with a Mutex.
//
// Wait atomically releases the mutex and suspends the calling goroutine;
// after it is woken by Signal or Broadcast it reacquires the mutex before
// returning. WaitTimeout does the same with a bound, and it too returns
// with the mutex locked whatever the outcome. There are no spurious
// wakeups, but the predicate may have changed again before the waiter
// reacquired the mutex, so waiters should still loop (see WaitFor).
//
// Signal and Broadcast do not touch the mutex. Conventionally the caller
// holds it while changing the predicate and signalling, but calling them
// unlocked is safe. Signals sent while nobody waits are not remembered.
//
// The mutex must be held exactly once by the waiter: a recursive mutex
// locked several times stays locked during Wait.
//
// Destroying a Condition while goroutines wait on it is a programming
// error.
type Condition struct {
	_       noCopy
	mu      *Mutex
	backend ConditionBackend
	impl    condBackend
}

// NewCondition creates a Condition bound to m using DefaultConditionBackend.
// m is borrowed, not owned, and must outlive the Condition.
func NewCondition(m *Mutex) (*Condition, error) {
	return NewConditionBackend(m, DefaultConditionBackend)
}

// NewConditionBackend creates a Condition bound to m with an explicit backend.
func NewConditionBackend(m *Mutex, b ConditionBackend) (*Condition, error) {
	if !m.IsOk() {
		return nil, ErrInvalid
	}
	c := &Condition{mu: m, backend: b}
	switch b {
	case Emulated:
		e, err := newEmulatedCond()
		if err != nil {
			return nil, err
		}
		c.impl = e
	case Native:
		c.impl = &nativeCond{}
	default:
		return nil, ErrInvalid
	}
	return c, nil
}

// IsOk reports whether c was successfully created.
func (c *Condition) IsOk() bool {
	return c != nil && c.impl != nil
}

// Backend returns the backend c was created with.
func (c *Condition) Backend() ConditionBackend {
	if c == nil {
		return ConditionBackend(255)
	}
	return c.backend
}

// Wait releases the mutex, blocks until Signal or Broadcast wakes the
// caller, and reacquires the mutex. The caller must hold the mutex;
// otherwise the mutex error (ErrUnlocked) is returned immediately.
func (c *Condition) Wait() error {
	if err := c.checkHeld(); err != nil {
		return err
	}
	return c.impl.wait(c.mu)
}

// WaitTimeout is like Wait but gives up with ErrTimeout after d.
// The mutex is locked again on return in every case where the caller held
// it on entry.
func (c *Condition) WaitTimeout(d time.Duration) error {
	if err := c.checkHeld(); err != nil {
		return err
	}
	return c.impl.waitTimeout(c.mu, d)
}

// Signal wakes one waiting goroutine, if there is any.
func (c *Condition) Signal() error {
	if !c.IsOk() {
		return ErrInvalid
	}
	return c.impl.signal()
}

// Broadcast wakes every goroutine waiting when it is called. Goroutines
// that start waiting afterwards are not woken.
func (c *Condition) Broadcast() error {
	if !c.IsOk() {
		return ErrInvalid
	}
	return c.impl.broadcast()
}

// WaitFor waits until pred returns true. pred is evaluated with the mutex
// held, before the first wait and after every wakeup.
func (c *Condition) WaitFor(pred func() bool) error {
	if !c.IsOk() {
		return ErrInvalid
	}
	for !pred() {
		if err := c.Wait(); err != nil {
			return err
		}
	}
	return nil
}

// WaitTimeoutFor is like WaitFor with an overall bound d. It returns
// ErrTimeout if pred is still false when d has elapsed.
func (c *Condition) WaitTimeoutFor(d time.Duration, pred func() bool) error {
	if !c.IsOk() {
		return ErrInvalid
	}
	deadline := time.Now().Add(d)
	for !pred() {
		left := time.Until(deadline)
		if left <= 0 {
			return ErrTimeout
		}
		if err := c.WaitTimeout(left); err != nil && !errors.Is(err, ErrTimeout) {
			return err
		}
	}
	return nil
}

// checkHeld rejects a wait by a goroutine that does not hold the mutex
// before it is counted as a waiter, so it cannot consume a wakeup meant for
// someone else. Only the owner changes the owner, so the answer is stable.
func (c *Condition) checkHeld() error {
	if !c.IsOk() {
		return ErrInvalid
	}
	if !c.mu.IsLockedByMe() {
		lg().Debug("tsync: condition wait without holding its mutex")
		return ErrUnlocked
	}
	return nil
}
