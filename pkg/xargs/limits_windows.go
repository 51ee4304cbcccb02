//go:build windows

package xargs

// DefaultMaxLength is CreateProcess's 32KiB command line less 2KiB of headroom.
func DefaultMaxLength() int {
	return 1<<15 - 2048
}
