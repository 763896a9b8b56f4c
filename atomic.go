package tsync

import (
	"sync/atomic"

	"github.com/llxisdsh/tsync/internal/opt"
)

// atomicCS serializes the critical-section fallback of AtomicInc/AtomicDec.
var atomicCS CriticalSection

// AtomicInc increments *p by one, indivisibly with respect to other
// AtomicInc/AtomicDec calls on the same variable.
//
// It uses a CPU atomic instruction, or a process-wide critical section when
// built with -tags=tsync_atomic_fallback. Do not mix plain or sync/atomic
// accesses to *p with these calls.
func AtomicInc(p *int32) {
	if opt.AtomicFallback_ {
		atomicIncLocked(p)
	} else {
		atomic.AddInt32(p, 1)
	}
}

// AtomicDec decrements *p by one and returns the new value, so callers can
// detect reaching zero (reference counting): exactly one of the calls that
// bring the variable from 1 to 0 observes 0.
func AtomicDec(p *int32) int32 {
	if opt.AtomicFallback_ {
		return atomicDecLocked(p)
	}
	return atomic.AddInt32(p, -1)
}

// atomicLoad reads *p consistently with the configured backend.
func atomicLoad(p *int32) int32 {
	if opt.AtomicFallback_ {
		atomicCS.Enter()
		defer atomicCS.Leave()
		return *p
	}
	return atomic.LoadInt32(p)
}

func atomicIncLocked(p *int32) {
	atomicCS.Enter()
	*p++
	atomicCS.Leave()
}

func atomicDecLocked(p *int32) int32 {
	atomicCS.Enter()
	*p--
	v := *p
	atomicCS.Leave()
	return v
}
