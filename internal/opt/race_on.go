//go:build race

package opt

// Race_ reports whether the race detector is enabled.
// Stress loops scale down their iteration counts under it.
const Race_ = true
