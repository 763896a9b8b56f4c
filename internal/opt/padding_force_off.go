//go:build tsync_disable_padding

package opt

// Pad_ separates hot fields that are written by different goroutines.
// Padding is force-disabled via the tsync_disable_padding build tag.
// Use: go build -tags=tsync_disable_padding
type Pad_ struct{}
