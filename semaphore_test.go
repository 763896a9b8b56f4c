package tsync

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSemaphoreNew(t *testing.T) {
	bad := [][2]int{{-1, 0}, {0, -1}, {3, 2}}
	for _, c := range bad {
		if _, err := NewSemaphore(c[0], c[1]); !errors.Is(err, ErrInvalid) {
			t.Errorf("NewSemaphore(%d, %d) err = %v, want ErrInvalid", c[0], c[1], err)
		}
	}
	s := mustSemaphore(t, 2, 2)
	if s.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", s.Count())
	}
}

func TestSemaphoreInvalid(t *testing.T) {
	var zero Semaphore
	var nilSem *Semaphore
	for name, s := range map[string]*Semaphore{"zero": &zero, "nil": nilSem} {
		t.Run(name, func(t *testing.T) {
			ops := map[string]func() error{
				"Wait":        s.Wait,
				"TryWait":     s.TryWait,
				"Post":        s.Post,
				"WaitTimeout": func() error { return s.WaitTimeout(time.Hour) },
			}
			for op, fn := range ops {
				if err := fn(); !errors.Is(err, ErrInvalid) {
					t.Errorf("%s err = %v, want ErrInvalid", op, err)
				}
			}
		})
	}
}

func TestSemaphore_Simple(t *testing.T) {
	s := mustSemaphore(t, 1, 0)

	if err := s.Wait(); err != nil {
		t.Fatal(err)
	}
	if err := s.TryWait(); !errors.Is(err, ErrWouldBlock) {
		t.Errorf("TryWait on empty err = %v, want ErrWouldBlock", err)
	}
	if err := s.Post(); err != nil {
		t.Fatal(err)
	}
	if err := s.TryWait(); err != nil {
		t.Fatalf("TryWait after Post: %v", err)
	}
}

// One permit, one blocked waiter: Post must release it, and the permit is
// gone afterwards.
func TestSemaphorePostWakesWaiter(t *testing.T) {
	s := mustSemaphore(t, 0, 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := s.Wait(); err != nil {
			t.Error(err)
		}
	}()

	select {
	case <-done:
		t.Fatal("Wait returned before Post")
	case <-time.After(20 * time.Millisecond):
	}

	if err := s.Post(); err != nil {
		t.Fatal(err)
	}
	waitDone(t, done, time.Second, "Wait")

	res := make(chan error, 1)
	go func() { res <- s.TryWait() }()
	if err := <-res; !errors.Is(err, ErrWouldBlock) {
		t.Fatalf("TryWait after hand-off err = %v, want ErrWouldBlock", err)
	}
}

func TestSemaphoreOverflow(t *testing.T) {
	s := mustSemaphore(t, 0, 2)
	for range 2 {
		if err := s.Post(); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Post(); !errors.Is(err, ErrOverflow) {
		t.Fatalf("Post at max err = %v, want ErrOverflow", err)
	}
	if s.Count() != 2 {
		t.Fatalf("Count() = %d after overflow, want 2", s.Count())
	}
}

func TestSemaphoreUnbounded(t *testing.T) {
	s := mustSemaphore(t, 0, 0)
	for range 1000 {
		if err := s.Post(); err != nil {
			t.Fatal(err)
		}
	}
	if s.Count() != 1000 {
		t.Fatalf("Count() = %d, want 1000", s.Count())
	}
}

func TestSemaphoreWaitTimeout(t *testing.T) {
	s := mustSemaphore(t, 0, 0)

	start := time.Now()
	if err := s.WaitTimeout(30 * time.Millisecond); !errors.Is(err, ErrTimeout) {
		t.Fatalf("WaitTimeout err = %v, want ErrTimeout", err)
	}
	if d := time.Since(start); d < 30*time.Millisecond {
		t.Fatalf("WaitTimeout returned after %v", d)
	}
	if s.waiting() != 0 {
		t.Fatalf("timed-out waiter still queued")
	}

	if err := s.WaitTimeout(0); !errors.Is(err, ErrTimeout) {
		t.Fatalf("WaitTimeout(0) on empty err = %v, want ErrTimeout", err)
	}
	_ = s.Post()
	if err := s.WaitTimeout(0); err != nil {
		t.Fatalf("WaitTimeout(0) with a permit: %v", err)
	}

	time.AfterFunc(10*time.Millisecond, func() { _ = s.Post() })
	if err := s.WaitTimeout(5 * time.Second); err != nil {
		t.Fatalf("WaitTimeout with a late Post: %v", err)
	}
}

// No barging: a queued waiter gets the permit even if a TryWait races it.
func TestSemaphoreHandOff(t *testing.T) {
	s := mustSemaphore(t, 0, 0)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Wait()
	}()
	eventually(t, time.Second, "waiter queued", func() bool { return s.waiting() == 1 })

	_ = s.Post()
	if err := s.TryWait(); !errors.Is(err, ErrBusy) {
		t.Fatalf("TryWait stole a handed-off permit: %v", err)
	}
	waitDone(t, done, time.Second, "Wait")
}

// Timers firing while posts arrive must neither lose nor duplicate permits.
func TestSemaphoreTimeoutPostRace(t *testing.T) {
	s := mustSemaphore(t, 0, 0)
	rounds := stress(200)
	var got atomic.Int64
	for range rounds {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			if s.WaitTimeout(time.Millisecond) == nil {
				got.Add(1)
			}
		}()
		go func() {
			defer wg.Done()
			time.Sleep(time.Millisecond)
			_ = s.Post()
		}()
		wg.Wait()
	}
	if total := got.Load() + int64(s.Count()); total != int64(rounds) {
		t.Fatalf("consumed %d + left %d permits, want %d", got.Load(), s.Count(), rounds)
	}
}

func TestSemaphore_Race(t *testing.T) {
	s := mustSemaphore(t, 0, 0)
	const N = 100
	var wg sync.WaitGroup
	wg.Add(N)

	for range N {
		go func() {
			defer wg.Done()
			_ = s.Wait()
			// critical section
			_ = s.Post()
		}()
	}

	_ = s.Post() // Start the chain
	wg.Wait()

	if err := s.TryWait(); err != nil {
		t.Error("Race finished but semaphore empty")
	}
}

func TestSemaphoreConcurrentBound(t *testing.T) {
	s := mustSemaphore(t, 3, 3)
	const n = 30
	var wg sync.WaitGroup
	wg.Add(n)
	var inside, peak atomic.Int32
	for range n {
		go func() {
			defer wg.Done()
			if err := s.Wait(); err != nil {
				t.Error(err)
				return
			}
			v := inside.Add(1)
			for {
				p := peak.Load()
				if v <= p || peak.CompareAndSwap(p, v) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
			if err := s.Post(); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
	if p := peak.Load(); p > 3 {
		t.Fatalf("%d goroutines inside a 3-permit section", p)
	}
}
