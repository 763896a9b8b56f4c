//go:build (amd64 || 386 || arm || mips || mipsle || wasm) && !tsync_disable_padding && !tsync_enable_padding

package opt

// Pad_ separates hot fields that are written by different goroutines.
// Padding is disabled by default for:
// - amd64
// - 32-bit architectures (386, arm, mips, mipsle, wasm)
type Pad_ struct{}
