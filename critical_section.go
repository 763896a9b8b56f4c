package tsync

import (
	"sync/atomic"
)

// CriticalSection is a short-held, fair (FIFO) spin lock.
//
// It protects the bookkeeping of the other primitives in this package: the
// waiter registry of a Condition and the count and wait queue of a
// Semaphore. Goroutines acquire it in the exact order they called Enter.
//
// Implementation:
// It uses the classic "ticket" algorithm.
//   - Enter(): Takes a ticket number. Spins/Sleeps until `serving` == `my_ticket`.
//   - Leave(): Increments `serving`, allowing the next ticket holder to proceed.
//
// Never block (on a channel, a Mutex or a Semaphore wait) while holding it.
//
// It is zero-value usable.
type CriticalSection struct {
	_       noCopy
	next    atomic.Uint32
	serving atomic.Uint32
}

// Enter acquires the critical section. Blocks until it is available.
func (cs *CriticalSection) Enter() {
	my := cs.next.Add(1) - 1
	var spins int
	for cs.serving.Load() != my {
		delay(&spins)
	}
}

// Leave releases the critical section.
func (cs *CriticalSection) Leave() {
	cs.serving.Add(1)
}

// Lock is Enter; it lets a CriticalSection be used as a sync.Locker, which
// is how a Condition hands its registry lock to the semaphore.
func (cs *CriticalSection) Lock() { cs.Enter() }

// Unlock is Leave.
func (cs *CriticalSection) Unlock() { cs.Leave() }
