//go:build !windows

package xargs

import "os"

const (
	posixArgMax   = 1 << 17
	posixFloor    = 1 << 12
	posixHeadroom = 2048
)

// DefaultMaxLength is ARG_MAX's conservative 128KiB less the space the
// environment takes, with headroom for the exec bookkeeping.
func DefaultMaxLength() int {
	env := 0
	for _, kv := range os.Environ() {
		env += len(kv) + 1
	}
	n := posixArgMax - env - posixHeadroom
	if n < posixFloor {
		return posixFloor
	}
	return n
}
