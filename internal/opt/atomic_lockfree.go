//go:build !tsync_atomic_fallback

package opt

// AtomicFallback_ routes AtomicInc/AtomicDec through a critical section
// instead of CPU atomics.
// Use: go build -tags=tsync_atomic_fallback
const AtomicFallback_ = false
