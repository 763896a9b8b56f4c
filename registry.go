package tsync

// waiterRegistry counts the goroutines blocked in an emulated Condition.
//
// n is the number of goroutines that registered before releasing the client
// mutex and have not yet been accounted for, either by a Signal/Broadcast
// that posted a permit for them or by themselves when they gave up.
//
// The registry lock is its own CriticalSection, never the client mutex,
// because the client mutex is released while a waiter is blocked. It is held
// for the counter update plus, where the two must be indivisible, one
// non-blocking Semaphore step: a Post, a zero-timeout wait, or withdrawing
// a timed-out waiter from the semaphore queue. It is never held across a
// blocking wait or a client mutex operation.
type waiterRegistry struct {
	_  noCopy
	mu CriticalSection
	n  int
}

// register adds the caller as a waiter.
func (r *waiterRegistry) register() {
	r.mu.Enter()
	r.n++
	r.mu.Leave()
}

// deregister undoes register for a waiter nobody will post for.
func (r *waiterRegistry) deregister() {
	r.mu.Enter()
	r.n--
	r.mu.Leave()
}

// wake posts a permit for one registered waiter, or for all of them when
// all is set, deregistering each. A failed Post stops the loop and the
// waiter it was meant for stays registered.
func (r *waiterRegistry) wake(sem *Semaphore, all bool) error {
	r.mu.Enter()
	defer r.mu.Leave()
	return r.wakeLocked(sem, all)
}

func (r *waiterRegistry) wakeLocked(sem *Semaphore, all bool) error {
	for r.n > 0 {
		if err := sem.Post(); err != nil {
			lg().Warn("tsync: condition post failed", "waiters", r.n, "err", err)
			return miscError("post", err)
		}
		r.n--
		if !all {
			break
		}
	}
	return nil
}

// deregisterLocked is deregister for callers already holding r.mu.
func (r *waiterRegistry) deregisterLocked() {
	r.n--
}

// reclaim settles a registered waiter that never reached the semaphore. A
// permit may have been posted for it meanwhile; if the check finds one the
// wake counts as a normal one and the poster already deregistered the
// waiter. Otherwise the waiter deregisters itself.
func (r *waiterRegistry) reclaim(sem *Semaphore) (woken bool) {
	r.mu.Enter()
	defer r.mu.Leave()
	if sem.WaitTimeout(0) == nil {
		return true
	}
	r.n--
	return false
}

func (r *waiterRegistry) waiters() int {
	r.mu.Enter()
	defer r.mu.Leave()
	return r.n
}
