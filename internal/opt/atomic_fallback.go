//go:build tsync_atomic_fallback

package opt

// AtomicFallback_ routes AtomicInc/AtomicDec through a critical section
// instead of CPU atomics.
const AtomicFallback_ = true
