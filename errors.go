package tsync

import (
	"errors"
	"fmt"
)

// Errors reported by the primitives. Compare with errors.Is.
var (
	// ErrInvalid is returned by every operation on an object that was not
	// created by its constructor (zero value or nil pointer). It never blocks.
	ErrInvalid = errors.New("tsync: invalid object")

	// ErrTimeout is returned when a bounded wait expires.
	ErrTimeout = errors.New("tsync: timed out")

	// ErrBusy is returned by non-blocking calls that found the resource
	// unavailable.
	ErrBusy = errors.New("tsync: busy")

	// ErrDeadLock is returned when the owner of a non-recursive Mutex
	// tries to lock it again.
	ErrDeadLock = errors.New("tsync: deadlock")

	// ErrUnlocked is returned when a Mutex is unlocked by a goroutine
	// that does not hold it.
	ErrUnlocked = errors.New("tsync: mutex not locked by caller")

	// ErrOverflow is returned by Semaphore.Post when the count is already
	// at its maximum.
	ErrOverflow = errors.New("tsync: semaphore overflow")

	// ErrMisc wraps an unexpected failure of an underlying primitive.
	// It is never retried internally.
	ErrMisc = errors.New("tsync: unexpected failure")

	// ErrRunning is returned by Thread.Run on a thread that was already started.
	ErrRunning = errors.New("tsync: thread already running")

	// ErrNotRunning is returned by Thread operations that need a started,
	// live thread.
	ErrNotRunning = errors.New("tsync: thread not running")
)

// ErrWouldBlock is an alias of ErrBusy for semaphore callers.
var ErrWouldBlock = ErrBusy

// miscError wraps cause so that both ErrMisc and cause match errors.Is.
func miscError(op string, cause error) error {
	return fmt.Errorf("%w: %s: %w", ErrMisc, op, cause)
}
