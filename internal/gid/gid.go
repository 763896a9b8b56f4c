// Package gid reports the identity of the calling goroutine.
//
// The runtime does not expose goroutine ids, so the id is read from the
// header line of the goroutine's own stack trace:
//
//	goroutine 123 [running]:
//
// Ids are positive and unique for the lifetime of the process.
package gid

import "runtime"

const prefix = "goroutine "

// Current returns the id of the calling goroutine.
func Current() int64 {
	// Only the first line is needed.
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	id := parse(buf[:n])
	if id <= 0 {
		panic("gid: unexpected stack header " + string(buf[:n]))
	}
	return id
}

// parse extracts the goroutine id from a stack trace header.
// It returns 0 when the header is malformed.
func parse(buf []byte) int64 {
	if len(buf) < len(prefix) || string(buf[:len(prefix)]) != prefix {
		return 0
	}
	var id int64
	for _, c := range buf[len(prefix):] {
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + int64(c-'0')
	}
	return id
}
