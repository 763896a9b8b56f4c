//go:build tsync_enable_padding && !tsync_disable_padding

package opt

// Pad_ separates hot fields that are written by different goroutines.
// Padding is force-enabled via the tsync_enable_padding build tag.
// Use: go build -tags=tsync_enable_padding
type Pad_ struct {
	_ [CacheLineSize_]byte
}
