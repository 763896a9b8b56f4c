package tsync

import (
	"sync"
	"time"
)

// Semaphore is a counting semaphore with an optional upper bound.
//
// Wait blocks while the count is zero and decrements it atomically with the
// unblock; Post increments it. When goroutines are queued, Post hands its
// permit directly to the oldest one, so a newcomer calling TryWait cannot
// steal it and each Post satisfies exactly one pending or future Wait.
//
// Unlike Mutex, a Semaphore has no owner: any goroutine may Post.
//
// A Semaphore must be created with NewSemaphore. The zero value and a nil
// pointer are invalid: every method returns ErrInvalid without blocking.
type Semaphore struct {
	_     noCopy
	mu    CriticalSection
	valid bool
	// max is the upper bound of count, 0 when unbounded.
	max   int
	count int
	// q holds the goroutines blocked in Wait/WaitTimeout.
	// Invariant: q is empty whenever count > 0.
	q waitQueue
}

// NewSemaphore creates a Semaphore holding initial permits. A maxCount of
// 0 leaves the count unbounded; otherwise Post never raises the count above
// maxCount.
func NewSemaphore(initial, maxCount int) (*Semaphore, error) {
	if initial < 0 || maxCount < 0 || (maxCount > 0 && initial > maxCount) {
		return nil, ErrInvalid
	}
	return &Semaphore{valid: true, max: maxCount, count: initial}, nil
}

// IsOk reports whether s was successfully created.
func (s *Semaphore) IsOk() bool {
	return s != nil && s.valid
}

// Wait blocks until a permit is available and takes it.
func (s *Semaphore) Wait() error {
	if !s.IsOk() {
		return ErrInvalid
	}
	s.mu.Enter()
	if s.count > 0 {
		s.count--
		s.mu.Leave()
		return nil
	}
	w := s.q.push()
	s.mu.Leave()

	<-w.ready
	return nil
}

// TryWait takes a permit if one is available, otherwise it returns ErrBusy.
func (s *Semaphore) TryWait() error {
	if !s.IsOk() {
		return ErrInvalid
	}
	if !s.tryAcquire() {
		return ErrBusy
	}
	return nil
}

// WaitTimeout is like Wait but gives up with ErrTimeout after d.
// A non-positive d makes a single attempt.
//
// A permit handed over by Post after the timer fired but before the
// waiter gave up is kept: WaitTimeout then reports success.
func (s *Semaphore) WaitTimeout(d time.Duration) error {
	return s.waitTimeoutUnder(d, nil, nil)
}

// waitTimeoutUnder is WaitTimeout with the give-up step run while holding l:
// the waiter withdraws from the queue and onExpire runs without l being
// released in between. A Post made while holding l therefore either reaches
// the waiter or happens after onExpire. l and onExpire may be nil.
func (s *Semaphore) waitTimeoutUnder(d time.Duration, l sync.Locker, onExpire func()) error {
	if !s.IsOk() {
		return ErrInvalid
	}
	if d <= 0 {
		return s.expire(nil, l, onExpire)
	}

	s.mu.Enter()
	if s.count > 0 {
		s.count--
		s.mu.Leave()
		return nil
	}
	w := s.q.push()
	s.mu.Leave()

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-w.ready:
		return nil
	case <-t.C:
	}
	return s.expire(w, l, onExpire)
}

// expire withdraws the queued waiter w, or makes a last non-blocking attempt
// when w is nil.
func (s *Semaphore) expire(w *waiter, l sync.Locker, onExpire func()) error {
	if l != nil {
		l.Lock()
		defer l.Unlock()
	}
	s.mu.Enter()
	var ok bool
	switch {
	case w == nil:
		if s.count > 0 {
			s.count--
			ok = true
		}
	case w.granted():
		ok = true
	default:
		s.q.remove(w)
	}
	s.mu.Leave()

	if ok {
		return nil
	}
	if onExpire != nil {
		onExpire()
	}
	return ErrTimeout
}

// Post releases one permit. It returns ErrOverflow, leaving the count
// unchanged, if the count already equals the maximum.
func (s *Semaphore) Post() error {
	if !s.IsOk() {
		return ErrInvalid
	}
	s.mu.Enter()
	defer s.mu.Leave()
	if w := s.q.pop(); w != nil {
		close(w.ready)
		return nil
	}
	if s.max > 0 && s.count >= s.max {
		lg().Debug("tsync: semaphore post above maximum", "max", s.max)
		return ErrOverflow
	}
	s.count++
	return nil
}

// Count returns the number of available permits.
// The value may be stale by the time it is used.
func (s *Semaphore) Count() int {
	if !s.IsOk() {
		return 0
	}
	s.mu.Enter()
	defer s.mu.Leave()
	return s.count
}

// waiting returns the number of goroutines blocked in s.
func (s *Semaphore) waiting() int {
	s.mu.Enter()
	defer s.mu.Leave()
	return s.q.len()
}

func (s *Semaphore) tryAcquire() bool {
	s.mu.Enter()
	defer s.mu.Leave()
	if s.count == 0 {
		return false
	}
	s.count--
	return true
}
