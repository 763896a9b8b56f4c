package tsync

import (
	"testing"
	"time"

	"github.com/llxisdsh/tsync/internal/opt"
)

// stress scales an iteration count down under the race detector.
func stress(n int) int {
	if opt.Race_ {
		return max(n/10, 1)
	}
	return n
}

// waitDone fails the test if done is not closed within d.
func waitDone(t *testing.T, done <-chan struct{}, d time.Duration, what string) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatalf("%s did not finish within %v", what, d)
	}
}

// eventually polls cond until it holds or d elapses.
func eventually(t *testing.T, d time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("%s: condition not met within %v", what, d)
		}
		time.Sleep(time.Millisecond)
	}
}

// tryLockFrom calls m.TryLock on a fresh goroutine, releasing the mutex
// again if it was acquired, and returns the TryLock result.
func tryLockFrom(m *Mutex) error {
	res := make(chan error, 1)
	go func() {
		err := m.TryLock()
		if err == nil {
			_ = m.Unlock()
		}
		res <- err
	}()
	return <-res
}

func mustMutex(t *testing.T, kind MutexKind) *Mutex {
	t.Helper()
	m, err := NewMutex(kind)
	if err != nil {
		t.Fatalf("NewMutex(%v): %v", kind, err)
	}
	return m
}

func mustSemaphore(t *testing.T, initial, maxCount int) *Semaphore {
	t.Helper()
	s, err := NewSemaphore(initial, maxCount)
	if err != nil {
		t.Fatalf("NewSemaphore(%d, %d): %v", initial, maxCount, err)
	}
	return s
}
