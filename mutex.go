package tsync

import (
	"sync/atomic"
	"time"

	"github.com/llxisdsh/tsync/internal/gid"
)

// MutexKind selects the relocking behaviour of a Mutex.
type MutexKind uint8

const (
	// MutexDefault is a non-recursive mutex: the owner locking it again
	// gets ErrDeadLock instead of blocking forever.
	MutexDefault MutexKind = iota
	// MutexRecursive may be locked again by its owner and must be unlocked
	// as many times as it was locked.
	MutexRecursive
)

func (k MutexKind) String() string {
	switch k {
	case MutexDefault:
		return "default"
	case MutexRecursive:
		return "recursive"
	default:
		return "invalid"
	}
}

// Mutex is an exclusive lock owned by the goroutine that acquired it.
//
// Unlike sync.Mutex, it tracks its owner: only the owner may unlock it,
// relocking is either reported (MutexDefault) or counted (MutexRecursive),
// and every failure is returned instead of panicking. Callers such as
// Condition rely on that to know whether the lock was really released and
// reacquired.
//
// A Mutex must be created with NewMutex. The zero value and a nil pointer
// are invalid: every method returns ErrInvalid without blocking.
type Mutex struct {
	_    noCopy
	kind MutexKind
	// token is a one-slot channel; the goroutine that put the token in
	// holds the mutex.
	token chan struct{}
	// owner is the goroutine id of the holder, 0 when free.
	owner atomic.Int64
	// depth is the recursion depth. Only the owner touches it.
	depth int32
}

// NewMutex creates a Mutex of the given kind.
func NewMutex(kind MutexKind) (*Mutex, error) {
	if kind != MutexDefault && kind != MutexRecursive {
		return nil, ErrInvalid
	}
	return &Mutex{kind: kind, token: make(chan struct{}, 1)}, nil
}

// IsOk reports whether m was successfully created.
func (m *Mutex) IsOk() bool {
	return m != nil && m.token != nil
}

// Kind returns the kind m was created with, or an invalid kind for a nil
// Mutex.
func (m *Mutex) Kind() MutexKind {
	if m == nil {
		return MutexKind(255)
	}
	return m.kind
}

// Lock blocks until the mutex is acquired.
func (m *Mutex) Lock() error {
	if !m.IsOk() {
		return ErrInvalid
	}
	me := gid.Current()
	if held, err := m.relock(me, ErrDeadLock); held {
		return err
	}
	m.token <- struct{}{}
	m.acquired(me)
	return nil
}

// LockTimeout is like Lock but gives up with ErrTimeout after d.
// A non-positive d makes a single attempt.
func (m *Mutex) LockTimeout(d time.Duration) error {
	if !m.IsOk() {
		return ErrInvalid
	}
	me := gid.Current()
	if held, err := m.relock(me, ErrDeadLock); held {
		return err
	}
	if d <= 0 {
		select {
		case m.token <- struct{}{}:
			m.acquired(me)
			return nil
		default:
			return ErrTimeout
		}
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case m.token <- struct{}{}:
		m.acquired(me)
		return nil
	case <-t.C:
		return ErrTimeout
	}
}

// TryLock acquires the mutex only if it is free, otherwise it returns
// ErrBusy. The owner of a recursive mutex always succeeds.
func (m *Mutex) TryLock() error {
	if !m.IsOk() {
		return ErrInvalid
	}
	me := gid.Current()
	if held, err := m.relock(me, ErrBusy); held {
		return err
	}
	select {
	case m.token <- struct{}{}:
		m.acquired(me)
		return nil
	default:
		return ErrBusy
	}
}

// Unlock releases the mutex. It returns ErrUnlocked if the caller does not
// hold it.
func (m *Mutex) Unlock() error {
	if !m.IsOk() {
		return ErrInvalid
	}
	me := gid.Current()
	if m.owner.Load() != me {
		lg().Debug("tsync: unlock of mutex not held by caller",
			"goroutine", me, "owner", m.owner.Load())
		return ErrUnlocked
	}
	if m.depth > 1 {
		m.depth--
		return nil
	}
	m.depth = 0
	m.owner.Store(0)
	<-m.token
	return nil
}

// IsLockedByMe reports whether the calling goroutine holds m.
func (m *Mutex) IsLockedByMe() bool {
	return m.IsOk() && m.owner.Load() == gid.Current()
}

// relock handles a lock request from the current owner. held reports that
// the caller already owns m; err is nil when a recursive mutex was
// re-entered, otherwise onSelf.
func (m *Mutex) relock(me int64, onSelf error) (held bool, err error) {
	if m.owner.Load() != me {
		return false, nil
	}
	if m.kind == MutexRecursive {
		m.depth++
		return true, nil
	}
	lg().Debug("tsync: relock of non-recursive mutex by its owner", "goroutine", me)
	return true, onSelf
}

func (m *Mutex) acquired(me int64) {
	m.owner.Store(me)
	m.depth = 1
}
