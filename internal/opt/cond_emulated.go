//go:build !tsync_native_cond

package opt

// CondBackend_ selects the default condition variable backend.
// 0 is the mutex+semaphore emulation, 1 is the native notify list.
// Use: go build -tags=tsync_native_cond
const CondBackend_ = 0
