package tsync

import (
	"sync/atomic"

	"github.com/llxisdsh/pb"

	"github.com/llxisdsh/tsync/internal/gid"
)

// Thread is a joinable worker goroutine.
//
// The worker function receives its own handle and should poll TestDestroy
// at convenient points: that is where pause requests are served and where
// a Delete request becomes visible.
//
// Usage:
//
//	t, _ := tsync.NewThread(func(t *tsync.Thread) any {
//		n := 0
//		for !t.TestDestroy() {
//			n++
//		}
//		return n
//	})
//	t.Run()
//	// ...
//	t.Delete()
//	n, _ := t.Wait()
type Thread struct {
	_  noCopy
	fn func(t *Thread) any
	id atomic.Int64

	// mu guards state and exit; ended is signalled when the worker returns.
	mu    *Mutex
	ended *Condition
	state threadState
	exit  any

	deleteReq atomic.Bool
	pauseReq  atomic.Bool
	// resume releases a worker parked in TestDestroy.
	resume *Semaphore
}

type threadState uint8

const (
	threadNew threadState = iota
	threadRunning
	threadPaused
	threadExited
)

var (
	// threads maps goroutine ids to the handles of live threads.
	threads pb.MapOf[int64, *Thread]
	// running is the number of started threads that have not returned.
	running int32
)

// NewThread creates a thread that will run fn once started with Run.
// The value fn returns is handed to Wait.
func NewThread(fn func(t *Thread) any) (*Thread, error) {
	if fn == nil {
		return nil, ErrInvalid
	}
	mu, err := NewMutex(MutexDefault)
	if err != nil {
		return nil, err
	}
	ended, err := NewCondition(mu)
	if err != nil {
		return nil, err
	}
	resume, err := NewSemaphore(0, 1)
	if err != nil {
		return nil, err
	}
	return &Thread{fn: fn, mu: mu, ended: ended, resume: resume}, nil
}

// This returns the handle of the calling goroutine, or nil when the caller
// is not a Thread.
func This() *Thread {
	t, _ := threads.Load(gid.Current())
	return t
}

// RunningThreads returns the number of started threads that have not yet
// returned from their function.
func RunningThreads() int {
	return int(atomicLoad(&running))
}

// Run starts the thread. It returns ErrRunning if it was already started.
// When Run returns, ID and This are valid for the new goroutine.
func (t *Thread) Run() error {
	if t == nil || t.fn == nil {
		return ErrInvalid
	}
	if err := t.mu.Lock(); err != nil {
		return err
	}
	defer t.mu.Unlock()
	if t.state != threadNew {
		return ErrRunning
	}
	t.state = threadRunning
	AtomicInc(&running)

	started := make(chan struct{})
	go t.entry(started)
	<-started
	return nil
}

func (t *Thread) entry(started chan<- struct{}) {
	id := gid.Current()
	t.id.Store(id)
	threads.Store(id, t)
	close(started)

	var exit any
	defer func() {
		threads.Delete(id)
		AtomicDec(&running)
		if err := t.mu.Lock(); err != nil {
			lg().Warn("tsync: thread exit could not lock its state", "thread", id, "err", err)
			return
		}
		t.exit = exit
		t.state = threadExited
		if err := t.ended.Broadcast(); err != nil {
			lg().Warn("tsync: thread exit broadcast failed", "thread", id, "err", err)
		}
		t.mu.Unlock()
	}()
	exit = t.fn(t)
}

// Wait blocks until the thread's function returns and yields its result.
// It may be called any number of times, from any goroutine but the thread
// itself.
func (t *Thread) Wait() (any, error) {
	if t == nil || t.fn == nil {
		return nil, ErrInvalid
	}
	if This() == t {
		return nil, ErrDeadLock
	}
	if err := t.mu.Lock(); err != nil {
		return nil, err
	}
	defer t.mu.Unlock()
	if t.state == threadNew {
		return nil, ErrNotRunning
	}
	err := t.ended.WaitFor(func() bool { return t.state == threadExited })
	if err != nil {
		return nil, err
	}
	return t.exit, nil
}

// Pause asks the thread to suspend itself at its next TestDestroy call.
func (t *Thread) Pause() error {
	if t == nil || t.fn == nil {
		return ErrInvalid
	}
	if err := t.mu.Lock(); err != nil {
		return err
	}
	defer t.mu.Unlock()
	if t.state != threadRunning {
		return ErrNotRunning
	}
	t.pauseReq.Store(true)
	return nil
}

// Resume releases a paused thread, or withdraws a pause request the thread
// has not served yet.
func (t *Thread) Resume() error {
	if t == nil || t.fn == nil {
		return ErrInvalid
	}
	if err := t.mu.Lock(); err != nil {
		return err
	}
	defer t.mu.Unlock()
	return t.resumeLocked()
}

func (t *Thread) resumeLocked() error {
	if t.pauseReq.Swap(false) {
		return nil
	}
	if t.state != threadPaused {
		return ErrNotRunning
	}
	t.state = threadRunning
	return t.resume.Post()
}

// Delete asks the thread to terminate: TestDestroy reports true from now
// on. A paused thread is resumed so it can observe the request. Delete does
// not wait; call Wait for that.
func (t *Thread) Delete() error {
	if t == nil || t.fn == nil {
		return ErrInvalid
	}
	if err := t.mu.Lock(); err != nil {
		return err
	}
	defer t.mu.Unlock()
	switch t.state {
	case threadNew, threadExited:
		return ErrNotRunning
	case threadPaused:
		t.deleteReq.Store(true)
		return t.resumeLocked()
	default:
		t.deleteReq.Store(true)
		t.pauseReq.Store(false)
		return nil
	}
}

// TestDestroy must be called by the thread itself. It parks the thread
// while a pause is in effect and reports whether Delete was requested.
func (t *Thread) TestDestroy() bool {
	if t.pauseReq.Load() && t.mu.Lock() == nil {
		paused := t.pauseReq.Swap(false)
		if paused {
			t.state = threadPaused
		}
		t.mu.Unlock()
		if paused {
			if err := t.resume.Wait(); err != nil {
				lg().Warn("tsync: paused thread could not wait for resume", "thread", t.ID(), "err", err)
			}
		}
	}
	return t.deleteReq.Load()
}

// ID returns the goroutine id of the thread, or 0 before Run.
func (t *Thread) ID() int64 {
	if t == nil {
		return 0
	}
	return t.id.Load()
}

// IsRunning reports whether the thread is started, not paused and has not
// returned.
func (t *Thread) IsRunning() bool {
	return t.stateIs(threadRunning)
}

// IsPaused reports whether the thread is parked in TestDestroy.
func (t *Thread) IsPaused() bool {
	return t.stateIs(threadPaused)
}

// IsAlive reports whether the thread is started and has not returned.
func (t *Thread) IsAlive() bool {
	return t.stateIs(threadRunning, threadPaused)
}

func (t *Thread) stateIs(states ...threadState) bool {
	if t == nil || t.fn == nil || t.mu.Lock() != nil {
		return false
	}
	defer t.mu.Unlock()
	for _, s := range states {
		if t.state == s {
			return true
		}
	}
	return false
}
